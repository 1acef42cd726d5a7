// Package support implements the support-phase finite state machine and
// the relative-feet inequalities (CoP feasibility and foothold
// reachability polygons) both pattern-generator cores preview against.
//
// The FSM follows the mutex-protected, Option-configured state-holder
// shape used throughout the teacher pack's gait sub-package (see
// SupportPathPlanner): state lives on a struct guarded by a mutex, and
// construction-time behavior is tuned with functional Options rather
// than exported fields.
package support

import (
	"fmt"
	"math"
	"sync"

	"github.com/itohio/walkgen/pkg/patterngen"
)

// Options tunes the FSM's phase durations and stop-walking threshold.
type Options struct {
	SingleSupportDuration float64
	DoubleSupportDuration float64
	StopVelocityEpsilon   float64
}

// DefaultOptions returns the nominal durations from spec.md section 6.
func DefaultOptions() Options {
	return Options{
		SingleSupportDuration: 0.7,
		DoubleSupportDuration: 0.1,
		StopVelocityEpsilon:   1e-3,
	}
}

// Option configures an FSM at construction time.
type Option func(*Options)

// WithSingleSupportDuration overrides T_ss.
func WithSingleSupportDuration(t float64) Option {
	return func(o *Options) { o.SingleSupportDuration = t }
}

// WithDoubleSupportDuration overrides T_ds.
func WithDoubleSupportDuration(t float64) Option {
	return func(o *Options) { o.DoubleSupportDuration = t }
}

// WithStopVelocityEpsilon overrides the in-place threshold below which
// the FSM refuses to start one more step once StepsLeft reaches 1.
func WithStopVelocityEpsilon(eps float64) Option {
	return func(o *Options) { o.StopVelocityEpsilon = eps }
}

// FSM advances one support_state_t across SS/DS transitions.
type FSM struct {
	mu    sync.Mutex
	opts  Options
	state patterngen.SupportState
}

// New constructs an FSM seeded at the given initial support state
// (spec.md section 4.5: "initial is DS with both feet known").
func New(initial patterngen.SupportState, opts ...Option) *FSM {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &FSM{opts: o, state: initial}
}

// State returns a snapshot of the current support state.
func (f *FSM) State() patterngen.SupportState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Clone returns an independent copy of the FSM's current state and
// options, for planning code (the mpc package's preview schedule) that
// needs to advance a support-phase timeline hypothetically, N samples
// into the future, without disturbing the live FSM.
func (f *FSM) Clone() *FSM {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &FSM{opts: f.opts, state: f.state}
}

// SetStancePose updates the stance foot's planar pose, called by the
// orchestrators at every emitted sample with the current stance foot's
// pose (the FSM itself only tracks phase/timing, not footstep geometry).
func (f *FSM) SetStancePose(x, y, yaw float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.X, f.state.Y, f.state.Yaw = x, y, yaw
}

// SetSupportState advances the FSM to previewed sample k at previewed
// time t, given the reference velocity driving the walk, and returns
// the state after any transition (spec.md section 4.5).
func (f *FSM) SetSupportState(t float64, k int, refVel patterngen.ReferenceVelocity) (patterngen.SupportState, error) {
	if k < 1 {
		return patterngen.SupportState{}, fmt.Errorf("support: preview index k must be >= 1, got %d", k)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	s := &f.state
	switch s.Phase {
	case patterngen.SingleSupport:
		if t >= s.TimeLimit {
			s.Phase = patterngen.DoubleSupport
			s.TimeLimit = t + f.opts.DoubleSupportDuration
		}
	case patterngen.DoubleSupport:
		if t >= s.TimeLimit {
			if f.shouldStayInDoubleSupport(refVel) {
				s.TimeLimit = t + f.opts.DoubleSupportDuration
				break
			}
			s.Foot = s.Foot.Other()
			s.Phase = patterngen.SingleSupport
			s.TimeLimit = t + f.opts.SingleSupportDuration
			s.StepNumber++
			if s.StepsLeft > 0 {
				s.StepsLeft--
			}
		}
	}
	return *s, nil
}

// shouldStayInDoubleSupport reports whether the FSM should remain
// parked in DS rather than swing the next foot: either the step budget
// is already exhausted, or it is down to the last configured step and
// the reference velocity has dropped to an in-place amount.
func (f *FSM) shouldStayInDoubleSupport(refVel patterngen.ReferenceVelocity) bool {
	if f.state.StepsLeft == 0 {
		return true
	}
	if f.state.StepsLeft > 1 {
		return false
	}
	speed := math.Hypot(refVel.X, refVel.Y)
	return speed < f.opts.StopVelocityEpsilon && math.Abs(refVel.Omega) < f.opts.StopVelocityEpsilon
}
