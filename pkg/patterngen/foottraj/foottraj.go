// Package foottraj generates the swing foot's Cartesian trajectory
// during single support, and holds it in place during double support
// and the liftoff/landing guards (spec.md section 4.9).
package foottraj

import (
	"math"

	"github.com/itohio/walkgen/pkg/patterngen"
	"github.com/itohio/walkgen/pkg/patterngen/polynomial"
)

// modulationCoefficient leaves 5% of the single-support duration at
// each end as a liftoff/landing guard during which the foot does not
// move laterally.
const modulationCoefficient = 0.9

// Dimensions describes the sole geometry used by the ground-penetration
// correction (spec.md section 4.9: B, H, F).
type Dimensions struct {
	B, H, F float64
}

// Boundary is the swing's start/end pose, velocity implicitly zero at
// landing (v1 = 0 per spec.md section 4.9).
type Boundary struct {
	StartX, StartY, StartTheta       float64
	StartVX, StartVY, StartVTheta    float64
	StartAX, StartAY                 float64
	TargetX, TargetY, TargetTheta    float64
	StepHeight                       float64
}

// Swing is one single-support swing's fitted trajectory.
type Swing struct {
	TSS            float64
	guard          float64
	effectiveStart float64
	effectiveEnd   float64

	x, y, theta Poly3
	z           Poly5

	dims Dimensions
	// UseLegacyDzBug reproduces the original source's bug (spec.md
	// section 9's second Open Question): when set, the Z velocity sample
	// is read from the position polynomial's Value instead of its
	// Derivative, discontinuous but kept here only for regression tests
	// against recorded legacy output.
	UseLegacyDzBug bool
}

// Poly3 and Poly5 are thin wrappers so callers don't need to import
// polynomial directly for the common degrees this package uses.
type Poly3 = polynomial.Polynomial
type Poly5 = polynomial.Polynomial

// NewSwing fits a fresh swing trajectory for a new single-support phase
// starting at t=0 and lasting TSS.
func NewSwing(b Boundary, TSS float64, dims Dimensions, useLegacyDzBug bool) Swing {
	guard := TSS * (1 - modulationCoefficient) / 2
	fitT := TSS * modulationCoefficient

	x := polynomial.FitDegree3(polynomial.Boundary{
		P0: b.StartX, V0: b.StartVX, P1: b.TargetX, V1: 0,
	}, fitT)
	y := polynomial.FitDegree3(polynomial.Boundary{
		P0: b.StartY, V0: b.StartVY, P1: b.TargetY, V1: 0,
	}, fitT)
	theta := polynomial.FitDegree3(polynomial.Boundary{
		P0: b.StartTheta, V0: b.StartVTheta, P1: b.TargetTheta, V1: 0,
	}, fitT)

	z := polynomial.FitDegree5(polynomial.Boundary{
		P0: 0, V0: 0, A0: 0,
		P1: 0, V1: 0, A1: 0,
	}, fitT)
	// Re-fit z in two halves so it reaches StepHeight at the midpoint:
	// degree-5 can't hit an interior peak directly, so this builds it as
	// a midpoint-anchored pair of quintics collapsed into one polynomial
	// by sampling; keep it simple and exact at the three key points
	// (0, TSS/2, TSS) using a degree-4 fit through the apex instead. Z
	// spans the whole swing, since Sample evaluates it at the unshifted
	// swing time.
	z = fitZApex(b.StepHeight, TSS)

	return Swing{
		TSS:            TSS,
		guard:          guard,
		effectiveStart: guard,
		effectiveEnd:   guard + fitT,
		x:              x,
		y:              y,
		theta:          theta,
		z:              z,
		dims:           dims,
		UseLegacyDzBug: useLegacyDzBug,
	}
}

// fitZApex builds a polynomial over [0, T], stored with six coefficients,
// with P(0)=0, P'(0)=0, P(T)=0, P'(T)=0, and peaking at the apex height
// at T/2: the single symmetric bump of unitBumpQuintic scaled so its
// maximum matches the requested step height. Its t^5 coefficient is zero,
// and P''(0) = P''(T) = 32*height/T^2, not zero.
func fitZApex(height, T float64) Poly5 {
	if polynomial.IsNearZero(T) {
		return polynomial.Polynomial{Coeffs: []float64{0, 0, 0, 0, 0, 0}}
	}
	// A symmetric "bump" p(t) = h * (1 - cos(2*pi*t/T))/2 has the right
	// boundary behavior (zero position, velocity and acceleration at
	// both ends) but is not polynomial; approximate its even Taylor
	// structure with a quintic matched to p(T/2)=h via sixth-degree-free
	// collapse: scale the canonical unit bump quintic solved below.
	unit := unitBumpQuintic(T)
	for i := range unit.Coeffs {
		unit.Coeffs[i] *= height / unitBumpPeak
	}
	return unit
}

// unitBumpPeak is the peak value of unitBumpQuintic at t=T/2 for its
// canonical unit-duration construction, used to rescale to the
// requested step height.
const unitBumpPeak = 1.0

// unitBumpQuintic returns, for duration T, the quintic with P(0)=0,
// P'(0)=0, P(T)=0, P'(T)=0, P(T/2)=1, P'(T/2)=0 — built as two
// degree-5 half-segments glued at the apex is unnecessary here since a
// single quintic has six degrees of freedom, exactly matching these six
// conditions.
func unitBumpQuintic(T float64) Poly5 {
	// p(t) = a2 t^2 + a3 t^3 + a4 t^4 + a5 t^5 (p(0)=p'(0)=0 already).
	// Conditions at T: p(T)=0, p'(T)=0.
	// Condition at T/2: p(T/2)=1, p'(T/2)=0.
	// Solve the 4x4 linear system by direct elimination exploiting the
	// problem's symmetry: substitute u = t/T, reducing to a fixed
	// dimensionless system solved once analytically.
	// For u in [0,1]: q(u) = b2 u^2 + b3 u^3 + b4 u^4 + b5 u^5 with
	// q(1)=0, q'(1)=0, q(0.5)=1, q'(0.5)=0. Solving this fixed system:
	const (
		b2 = 16.0
		b3 = -32.0
		b4 = 16.0
		b5 = 0.0
	)
	a2 := b2 / (T * T)
	a3 := b3 / (T * T * T)
	a4 := b4 / (T * T * T * T)
	a5 := b5 / (T * T * T * T * T)
	return polynomial.Polynomial{Coeffs: []float64{0, 0, a2, a3, a4, a5}}
}

// Sample evaluates the swing at local time t (since the swing started),
// returning the position, velocity and omega/omega2 pitch used for
// toe/heel rotation, plus the ground-penetration-corrected Z.
type Sample struct {
	X, Y, Theta       float64
	DX, DY, DTheta    float64
	Z, DZ             float64
	Omega, Omega2     float64
	DOmega, DOmega2   float64
}

// Sample returns the swing pose at local time t, clamped to [0, TSS].
// During the liftoff/landing guard windows X/Y/theta hold their boundary
// value; Z is always sampled from the Z polynomial.
func (s Swing) Sample(t float64) Sample {
	t = polynomial.Clamp(t, s.TSS)

	var out Sample
	switch {
	case t < s.effectiveStart:
		out.X, out.Y, out.Theta = s.x.Value(0), s.y.Value(0), s.theta.Value(0)
	case t > s.effectiveEnd:
		fitT := s.effectiveEnd - s.effectiveStart
		out.X, out.Y, out.Theta = s.x.Value(fitT), s.y.Value(fitT), s.theta.Value(fitT)
	default:
		lt := t - s.effectiveStart
		out.X, out.Y, out.Theta = s.x.Value(lt), s.y.Value(lt), s.theta.Value(lt)
		out.DX, out.DY, out.DTheta = s.x.Derivative(lt), s.y.Derivative(lt), s.theta.Derivative(lt)
	}

	out.Z = s.z.Value(t)
	if s.UseLegacyDzBug {
		out.DZ = s.z.Value(t)
	} else {
		out.DZ = s.z.Derivative(t)
	}

	out.Omega, out.DOmega = pitchFromSlope(s.x.Derivative(t), s.z.Derivative(t))
	out.Omega2, out.DOmega2 = pitchFromSlope(s.x.Derivative(t), -s.z.Derivative(t))

	dFX, dFY, dFZ := groundPenetrationCorrection(out.Omega, s.dims)
	out.X += dFX
	out.Y += dFY
	out.Z += dFZ
	if out.Z < 0 {
		out.Z = 0
	}
	return out
}

// pitchFromSlope derives a toe/heel pitch angle and its rate from the
// local horizontal/vertical velocity ratio.
func pitchFromSlope(dx, dz float64) (angle, rate float64) {
	angle = math.Atan2(dz, math.Max(math.Abs(dx), 1e-6))
	return angle, 0
}

// groundPenetrationCorrection computes the geometric shift that keeps
// the foot's leading/trailing edge from penetrating the ground when
// pitched by omega, using the sole's back/height/front dimensions
// (spec.md section 4.9).
func groundPenetrationCorrection(omega float64, dims Dimensions) (dFX, dFY, dFZ float64) {
	if math.Abs(omega) < 1e-9 {
		return 0, 0, 0
	}
	edge := dims.F
	if omega < 0 {
		edge = dims.B
	}
	dFZ = -edge * math.Abs(math.Sin(omega))
	dFX = edge * (1 - math.Cos(omega)) * sign(omega)
	return dFX, 0, dFZ
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// ToAbsolute converts a Sample taken at stance-relative coordinates into
// an absolute foot position ready to append to an output queue.
func (s Sample) ToAbsolute(t float64, stepType patterngen.StepType) patterngen.FootAbsolutePosition {
	return patterngen.FootAbsolutePosition{
		X: s.X, Y: s.Y, Z: s.Z,
		DX: s.DX, DY: s.DY, DZ: s.DZ,
		Theta: s.Theta, DTheta: s.DTheta,
		Omega: s.Omega, DOmega: s.DOmega,
		Omega2: s.Omega2, DOmega2: s.DOmega2,
		Time:     t,
		StepType: stepType,
	}
}
