// Package analytical implements the closed-form ZMP/CoM trajectory
// generator: per-interval hyperbolic CoM response driven by a quadratic
// ZMP reference, assembled into one banded linear system solved by LU
// factorization. Every online footstep edit builds and factorizes a new
// system (for the whole chain, or for the sub-chain after the edit); a
// factorization is not reused from one edit to the next (spec.md
// sections 4.3-4.4 and 4.10).
package analytical

import "math"

// Interval is one segment of a single-axis trajectory: a CoM hyperbolic
// response (A, B) riding on top of a quadratic ZMP reference
// (C0 + C1*t + C2*t^2), valid for local time t in [0, Duration].
type Interval struct {
	Duration float64
	Omega    float64
	A, B     float64
	C0, C1, C2 float64
}

// ZMP evaluates the prescribed ZMP reference at local time t.
func (iv Interval) ZMP(t float64) float64 {
	return iv.C0 + iv.C1*t + iv.C2*t*t
}

// ZMPVelocity evaluates the ZMP reference's first derivative at t.
func (iv Interval) ZMPVelocity(t float64) float64 {
	return iv.C1 + 2*iv.C2*t
}

// Value evaluates the CoM position at local time t.
func (iv Interval) Value(t float64) float64 {
	return iv.ZMP(t) + iv.A*math.Cosh(iv.Omega*t) + iv.B*math.Sinh(iv.Omega*t)
}

// Velocity evaluates the CoM velocity at local time t.
func (iv Interval) Velocity(t float64) float64 {
	return iv.ZMPVelocity(t) + iv.Omega*(iv.A*math.Sinh(iv.Omega*t)+iv.B*math.Cosh(iv.Omega*t))
}

// Acceleration evaluates the CoM acceleration at local time t. The
// hyperbolic term's curvature is driven entirely by Omega, so this never
// needs to re-derive it from Value via finite differences.
func (iv Interval) Acceleration(t float64) float64 {
	w2 := iv.Omega * iv.Omega
	return 2*iv.C2 + w2*(iv.A*math.Cosh(iv.Omega*t)+iv.B*math.Sinh(iv.Omega*t))
}

// AxisTrajectory is the piecewise trajectory for one Cartesian axis (x
// or y), stacking M intervals end to end.
type AxisTrajectory struct {
	Intervals []Interval
}

// locate finds the interval containing global time t and the
// corresponding local time within that interval, clamping t to the
// trajectory's total duration.
func (tr *AxisTrajectory) locate(t float64) (idx int, local float64) {
	if len(tr.Intervals) == 0 {
		return 0, 0
	}
	for i, iv := range tr.Intervals {
		if i == len(tr.Intervals)-1 || t <= iv.Duration {
			if t < 0 {
				t = 0
			}
			if t > iv.Duration {
				t = iv.Duration
			}
			return i, t
		}
		t -= iv.Duration
	}
	return len(tr.Intervals) - 1, 0
}

// Duration returns the trajectory's total duration across all intervals.
func (tr *AxisTrajectory) Duration() float64 {
	total := 0.0
	for _, iv := range tr.Intervals {
		total += iv.Duration
	}
	return total
}

// Value returns the CoM position at global time t.
func (tr *AxisTrajectory) Value(t float64) float64 {
	i, lt := tr.locate(t)
	return tr.Intervals[i].Value(lt)
}

// Velocity returns the CoM velocity at global time t.
func (tr *AxisTrajectory) Velocity(t float64) float64 {
	i, lt := tr.locate(t)
	return tr.Intervals[i].Velocity(lt)
}

// Acceleration returns the CoM acceleration at global time t.
func (tr *AxisTrajectory) Acceleration(t float64) float64 {
	i, lt := tr.locate(t)
	return tr.Intervals[i].Acceleration(lt)
}

// ZMP returns the prescribed ZMP reference at global time t.
func (tr *AxisTrajectory) ZMP(t float64) float64 {
	i, lt := tr.locate(t)
	return tr.Intervals[i].ZMP(lt)
}
