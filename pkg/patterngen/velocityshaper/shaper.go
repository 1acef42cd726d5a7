// Package velocityshaper jerk-limits the operator-commanded reference
// velocity, so a step change at the command interface need not alias
// into a single-sample CoM-jerk spike. Nothing in this module passes its
// output on to the MPC orchestrator or the support FSM.
//
// Adapted from the teacher's single-axis S-curve filter
// (pkg/core/math/filter/vaj/vaj1d.go): a target-tracking channel with a
// bang-bang jerk decided by comparing the current state's own stopping
// distance under maximum jerk against the remaining distance to target,
// generalized here from a float32 position follower to a float64
// velocity-to-velocity follower with three independent channels.
package velocityshaper

import "math"

// axis tracks one scalar channel of the reference velocity toward its
// commanded target under bounded acceleration and jerk.
type axis struct {
	maxAccel, maxJerk float64
	accel             float64
	output            float64
	target            float64
}

func newAxis(maxAccel, maxJerk float64) axis {
	return axis{maxAccel: maxAccel, maxJerk: maxJerk}
}

// update advances output by dt, picking the jerk sign from whether
// braking at maxJerk starting now would stop short of or past target.
func (a *axis) update(dt float64) {
	braking := 0.5 * a.accel * math.Abs(a.accel) / a.maxJerk
	predicted := a.output + braking

	jerk := 0.0
	switch {
	case predicted < a.target:
		jerk = a.maxJerk
	case predicted > a.target:
		jerk = -a.maxJerk
	}

	a.accel = clamp(a.accel+jerk*dt, -a.maxAccel, a.maxAccel)
	a.output += a.accel*dt + 0.5*jerk*dt*dt

	// Once close enough that the next step would overshoot and hunt,
	// snap to the target and zero the residual acceleration.
	if math.Abs(a.output-a.target) < 1e-6 && math.Abs(a.accel) < 1e-6 {
		a.output = a.target
		a.accel = 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Limits bounds one channel's rate of change (MaxAccel) and that rate's
// own rate of change (MaxJerk).
type Limits struct {
	MaxAccel float64
	MaxJerk  float64
}

// Options configures a Shaper's three independent channels: the two
// planar linear-velocity axes and the yaw rate.
type Options struct {
	Linear  Limits
	Angular Limits
}

// DefaultOptions returns generous limits that only engage on a sharp
// step in the commanded reference velocity.
func DefaultOptions() Options {
	return Options{
		Linear:  Limits{MaxAccel: 1.0, MaxJerk: 5.0},
		Angular: Limits{MaxAccel: 2.0, MaxJerk: 10.0},
	}
}

// Shaper jerk-limits a reference velocity's three channels independently.
type Shaper struct {
	vx, vy, omega axis
}

// New builds a Shaper at rest (zero commanded and zero shaped velocity).
func New(opts Options) *Shaper {
	return &Shaper{
		vx:    newAxis(opts.Linear.MaxAccel, opts.Linear.MaxJerk),
		vy:    newAxis(opts.Linear.MaxAccel, opts.Linear.MaxJerk),
		omega: newAxis(opts.Angular.MaxAccel, opts.Angular.MaxJerk),
	}
}

// SetTarget updates the commanded reference velocity the shaper ramps
// its output toward; it takes effect on the next Update.
func (s *Shaper) SetTarget(vx, vy, omega float64) {
	s.vx.target = vx
	s.vy.target = vy
	s.omega.target = omega
}

// Update advances the shaped output by dt and returns it.
func (s *Shaper) Update(dt float64) (vx, vy, omega float64) {
	s.vx.update(dt)
	s.vy.update(dt)
	s.omega.update(dt)
	return s.vx.output, s.vy.output, s.omega.output
}

// Output returns the last shaped velocity without advancing time.
func (s *Shaper) Output() (vx, vy, omega float64) {
	return s.vx.output, s.vy.output, s.omega.output
}

// Reset zeroes every channel's shaped state and commanded target.
func (s *Shaper) Reset() {
	s.vx = newAxis(s.vx.maxAccel, s.vx.maxJerk)
	s.vy = newAxis(s.vy.maxAccel, s.vy.maxJerk)
	s.omega = newAxis(s.omega.maxAccel, s.omega.maxJerk)
}
