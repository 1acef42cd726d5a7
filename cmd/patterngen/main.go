// Command patterngen runs the online biped walking pattern generator
// standalone: it seeds one of the two interchangeable cores (analytical
// or MPC) with a straight-line demo gait, ticks it forward, and reports
// the number of synchronized samples generated.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	. "github.com/itohio/walkgen/pkg/logger"

	"github.com/itohio/walkgen/pkg/patterngen"
	"github.com/itohio/walkgen/pkg/patterngen/analytical"
	"github.com/itohio/walkgen/pkg/patterngen/command"
	"github.com/itohio/walkgen/pkg/patterngen/config"
	"github.com/itohio/walkgen/pkg/patterngen/mpc"
	"github.com/itohio/walkgen/pkg/patterngen/support"
	"github.com/itohio/walkgen/pkg/patterngen/velocityshaper"
)

func main() {
	core := flag.String("core", "analytical", "generator core: analytical or mpc")
	configPath := flag.String("config", "", "YAML config override (spec.md section 6 defaults if omitted)")
	steps := flag.Int("steps", 6, "number of demo forward steps to queue")
	stepLength := flag.Float64("step", 0.2, "forward displacement per demo step, meters")
	duration := flag.Float64("duration", 6, "seconds of walking to generate")
	commandsPath := flag.String("commands", "", "optional file of command-surface lines to run before ticking (':setvel ...', ':setfeetconstraint ...')")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			Log.Error().Err(err).Str("path", *configPath).Msg("patterngen: config load failed")
			os.Exit(1)
		}
		cfg = loaded
	}

	dims := support.NewFootDimensions(0.1, 0.06, cfg.SecurityMarginX, cfg.SecurityMarginY)
	ineq := support.NewInequalities(dims, dims, cfg.DSFeetDistance)
	fsm := support.New(patterngen.SupportState{
		Foot:      patterngen.Left,
		Phase:     patterngen.DoubleSupport,
		StepsLeft: *steps,
		TimeLimit: cfg.Tds,
	}, support.WithSingleSupportDuration(cfg.Tss), support.WithDoubleSupportDuration(cfg.Tds))
	shaper := velocityshaper.New(velocityshaper.DefaultOptions())

	dispatcher := &command.Dispatcher{
		Ineq:          ineq,
		Shaper:        shaper,
		RawHalfWidth:  0.1,
		RawHalfHeight: 0.06,
	}
	if *commandsPath != "" {
		if err := runCommandFile(dispatcher, *commandsPath); err != nil {
			Log.Error().Err(err).Str("path", *commandsPath).Msg("patterngen: command file failed")
			os.Exit(1)
		}
	}

	gen, seed := buildCore(*core, fsm, ineq, cfg)

	demo := make([]patterngen.RelativeFootPosition, *steps)
	for i := range demo {
		demo[i] = patterngen.RelativeFootPosition{DY: flipSign(i) * 0.2, SSDuration: cfg.Tss, DSDuration: cfg.Tds}
		_ = i
	}
	for i := range demo {
		demo[i].DX = *stepLength
	}

	if err := gen.Init(seed, demo); err != nil {
		Log.Error().Err(err).Msg("patterngen: init failed")
		os.Exit(1)
	}

	out, err := gen.Tick(*duration)
	if err != nil {
		Log.Error().Err(err).Msg("patterngen: tick failed")
		os.Exit(1)
	}

	Log.Info().
		Str("core", *core).
		Int("samples", out.Len()).
		Msg("patterngen: generation complete")

	fmt.Printf("generated %d synchronized samples over %.2fs\n", out.Len(), *duration)
}

func flipSign(i int) float64 {
	if i%2 == 0 {
		return -1
	}
	return 1
}

func buildCore(kind string, fsm *support.FSM, ineq *support.Inequalities, cfg config.Config) (patterngen.Core, patterngen.InitialState) {
	seed := patterngen.InitialState{
		LeftFoot:  patterngen.FootAbsolutePosition{Y: cfg.DSFeetDistance / 2},
		RightFoot: patterngen.FootAbsolutePosition{Y: -cfg.DSFeetDistance / 2},
		CoMX:      patterngen.CoMPosition{},
		CoMY:      patterngen.CoMPosition{},
	}

	switch kind {
	case "mpc":
		opts := mpc.DefaultOptions()
		opts.SamplePeriod = cfg.SamplingPeriod
		opts.ComHeight = cfg.ComHeight
		opts.Gravity = cfg.Gravity
		opts.N = cfg.N
		opts.S = cfg.S
		opts.Tprw = cfg.QPPeriod
		opts.StepHeight = cfg.StepHeight
		return mpc.New(fsm, ineq, opts), seed
	default:
		opts := analytical.DefaultOptions()
		opts.SamplePeriod = cfg.SamplingPeriod
		opts.ComHeight = cfg.ComHeight
		opts.Gravity = cfg.Gravity
		opts.StepHeight = cfg.StepHeight
		return analytical.New(fsm, ineq, opts), seed
	}
}

// runCommandFile replays one command-surface line per non-blank,
// non-comment line of path through dispatcher, in order.
func runCommandFile(dispatcher *command.Dispatcher, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := dispatcher.Dispatch(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
