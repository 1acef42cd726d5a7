// Package config loads the pattern generator's tunable constants from a
// YAML override file on top of the spec's numeric defaults, following
// the teacher pack's functional-options convention (x/options) for any
// override a caller wants to apply in code rather than on disk.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/itohio/walkgen/x/options"
)

// LoggingOptions configures the zerolog writer the way pkg/logger does:
// console output by default, JSON for machine consumption.
type LoggingOptions struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Config carries every tunable named in spec.md section 6, plus the
// preview-control gains table and the logging sub-struct the ambient
// stack needs that the distilled spec's configuration list omitted.
type Config struct {
	SamplingPeriod float64 `yaml:"sampling_period"` // control tick, seconds
	Tss            float64 `yaml:"t_ss"`             // single support duration
	Tds            float64 `yaml:"t_ds"`             // double support duration
	QPPeriod       float64 `yaml:"qp_t"`              // MPC preview sampling period
	N              int     `yaml:"n"`                 // MPC preview horizon, samples
	S              int     `yaml:"s"`                 // MPC previewed footsteps
	ComHeight      float64 `yaml:"com_height"`
	Gravity        float64 `yaml:"gravity"`
	DSFeetDistance float64 `yaml:"ds_feet_distance"`
	SecurityMarginX float64 `yaml:"security_margin_x"`
	SecurityMarginY float64 `yaml:"security_margin_y"`
	StepHeight     float64 `yaml:"step_height"`
	FeetDistanceDS float64 `yaml:"feet_distance_ds"` // final double-support stance width

	PreviewGains []float64 `yaml:"preview_gains"`

	Logging LoggingOptions `yaml:"logging"`
}

// Default returns the nominal values spec.md section 6 lists.
func Default() Config {
	return Config{
		SamplingPeriod:  0.005,
		Tss:             0.7,
		Tds:             0.1,
		QPPeriod:        0.1,
		N:               16,
		S:               2,
		ComHeight:       0.814,
		Gravity:         9.81,
		DSFeetDistance:  0.2,
		SecurityMarginX: 0.04,
		SecurityMarginY: 0.04,
		StepHeight:      0.05,
		FeetDistanceDS:  0.2,
		PreviewGains:    []float64{1, 1, 1},
		Logging:         LoggingOptions{Level: "info", Format: "console"},
	}
}

// Load reads path as a YAML override of Default, then applies any
// functional Options on top, the way the teacher pack layers
// construction-time Options over a struct's defaults.
func Load(path string, opts ...options.Option) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	options.ApplyOptions(&cfg, opts...)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects a configuration that would make the rest of the
// module divide by zero or build a degenerate horizon.
func (c Config) Validate() error {
	switch {
	case c.SamplingPeriod <= 0:
		return fmt.Errorf("config: sampling_period must be positive")
	case c.QPPeriod <= 0:
		return fmt.Errorf("config: qp_t must be positive")
	case c.N <= 0:
		return fmt.Errorf("config: n must be positive")
	case c.S < 0:
		return fmt.Errorf("config: s must not be negative")
	case c.Gravity <= 0:
		return fmt.Errorf("config: gravity must be positive")
	case c.ComHeight <= 0:
		return fmt.Errorf("config: com_height must be positive")
	}
	return nil
}

// WithSamplingPeriod overrides the control tick after loading.
func WithSamplingPeriod(t float64) options.Option {
	return func(cfg interface{}) { cfg.(*Config).SamplingPeriod = t }
}

// WithPreviewHorizon overrides the MPC preview sample count and
// footstep-decision count after loading.
func WithPreviewHorizon(n, s int) options.Option {
	return func(cfg interface{}) {
		c := cfg.(*Config)
		c.N, c.S = n, s
	}
}
