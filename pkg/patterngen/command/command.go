// Package command implements the pattern generator's thin textual
// command surface (spec.md section 6): it only parses and routes,
// leaving the actual work to the support and velocityshaper packages.
package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/itohio/walkgen/pkg/patterngen/support"
	"github.com/itohio/walkgen/pkg/patterngen/velocityshaper"
)

// Dispatcher routes recognized command lines to the live support model
// and reference-velocity shaper.
type Dispatcher struct {
	Ineq   *support.Inequalities
	Shaper *velocityshaper.Shaper

	// RawHalfWidth/RawHalfHeight are the sole's unshrunk half extents:
	// SetSecurityMargins always re-derives the margin-shrunk dimensions
	// from these, so the dispatcher has to hold them even though
	// Inequalities itself only stores the already-shrunk result.
	RawHalfWidth, RawHalfHeight float64
}

// Dispatch parses and routes one command line. Unrecognized lines and
// malformed arguments return an error; nothing is partially applied.
func (d *Dispatcher) Dispatch(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fmt.Errorf("command: empty line")
	}

	switch fields[0] {
	case ":setfeetconstraint":
		return d.setFeetConstraint(fields[1:])
	case ":setvel":
		return d.setVel(fields[1:])
	default:
		return fmt.Errorf("command: unrecognized command %q", fields[0])
	}
}

func (d *Dispatcher) setFeetConstraint(args []string) error {
	if len(args) != 3 || args[0] != "XY" {
		return fmt.Errorf("command: usage :setfeetconstraint XY <mx> <my>")
	}
	mx, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("command: mx: %w", err)
	}
	my, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("command: my: %w", err)
	}
	if d.Ineq == nil {
		return fmt.Errorf("command: no support model attached")
	}
	d.Ineq.SetSecurityMargins(d.RawHalfWidth, d.RawHalfHeight, mx, my)
	return nil
}

func (d *Dispatcher) setVel(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("command: usage :setvel <vx> <vy> <wz>")
	}
	v := make([]float64, 3)
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("command: argument %d: %w", i+1, err)
		}
		v[i] = f
	}
	if d.Shaper == nil {
		return fmt.Errorf("command: no velocity shaper attached")
	}
	d.Shaper.SetTarget(v[0], v[1], v[2])
	return nil
}
