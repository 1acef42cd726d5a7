// Package patterngen holds the shared data model for the online biped
// walking pattern generator: the samples the two generator cores
// (analytical and MPC, see the analytical and mpc sub-packages) produce,
// and the tagged-variant contract both satisfy.
package patterngen

// Foot identifies which foot a support phase is standing on.
type Foot int

const (
	Left Foot = iota
	Right
)

func (f Foot) Other() Foot {
	if f == Left {
		return Right
	}
	return Left
}

func (f Foot) String() string {
	if f == Left {
		return "left"
	}
	return "right"
}

// Phase identifies the current support phase.
type Phase int

const (
	// SingleSupport: one foot stance, the other swinging.
	SingleSupport Phase = iota
	// DoubleSupport: both feet on the ground.
	DoubleSupport
)

func (p Phase) String() string {
	if p == SingleSupport {
		return "SS"
	}
	return "DS"
}

// Frame selects how OnLineFootChange(s) interprets the new landing
// position: as an offset from the stance foot the step is taken from
// (its yaw added to the planned yaw), or absolute.
type Frame int

const (
	AbsoluteFrame Frame = 0
	RelativeFrame Frame = 1
)

// StepType encodes the support role carried by a FootAbsolutePosition
// sample: positive values mean the foot is swinging (its numeric value is
// otherwise generator-defined), negative values mean the foot is a
// stationary support, and the sentinel EndOfWalk marks the final resting
// sample after EndPhaseOfTheWalking has brought the robot to a stop.
type StepType int

const (
	EndOfWalk StepType = 10
)

// ZMPPosition is one instant of the ZMP reference, on the ground plane.
type ZMPPosition struct {
	X, Y, Z   float64
	Theta     float64
	Time      float64
}

// CoMPosition is one instant of the CoM reference: position, velocity and
// acceleration per axis, plus yaw and yaw rate.
type CoMPosition struct {
	X, Y, Z       [3]float64 // [position, velocity, acceleration]
	Yaw, YawRate  float64
	Time          float64
}

// Position returns the CoM position vector (x, y, z).
func (c CoMPosition) Position() [3]float64 {
	return [3]float64{c.X[0], c.Y[0], c.Z[0]}
}

// Velocity returns the CoM velocity vector (ẋ, ẏ, ż).
func (c CoMPosition) Velocity() [3]float64 {
	return [3]float64{c.X[1], c.Y[1], c.Z[1]}
}

// FootAbsolutePosition is one sampling instant of a foot's world-frame
// pose, with first and second derivatives of position/yaw/pitch and the
// support-role tag.
type FootAbsolutePosition struct {
	X, Y, Z          float64
	DX, DY, DZ       float64
	DDX, DDY, DDZ    float64
	Theta, DTheta    float64
	Omega, DOmega    float64   // toe pitch (lift-off)
	Omega2, DOmega2  float64   // heel pitch (touch-down)
	Time             float64
	StepType         StepType
}

// RelativeFootPosition is one commanded footstep, expressed relative to
// the stance foot at the time it is queued.
type RelativeFootPosition struct {
	DX, DY, DTheta float64
	SSDuration     float64 // single support duration for this step
	DSDuration     float64 // double support duration preceding this step
	StepType       StepType
}

// SupportState describes which foot is the stance foot, the current
// support phase, and the bookkeeping the FSM (see package support)
// maintains across preview samples.
type SupportState struct {
	Foot       Foot
	Phase      Phase
	StepsLeft  int
	StepNumber int
	TimeLimit  float64
	X, Y, Yaw  float64
}

// CompactTrajectoryInstanceParameters is the per-axis description that
// the analytical linear system consumes to build the right-hand side w:
// initial CoM position/velocity, final CoM position, and the per-interval
// ZMP profile. CoMHeightProfile and ZMPHeightProfile are carried but not
// read by the linear system, which takes per-interval pulsations instead.
type CompactTrajectoryInstanceParameters struct {
	InitialCoMPosition float64
	InitialCoMVelocity float64
	FinalCoMPosition   float64
	ZMPProfile         []float64 // one entry per interval
	CoMHeightProfile   []float64 // one entry per interval
	ZMPHeightProfile   []float64 // one entry per interval
}

// FluctuationParameters captures the discontinuity an online footstep
// edit must absorb at the edit time t: the ZMP/CoM value and first
// derivative computed under the trajectory before and after the edit.
type FluctuationParameters struct {
	CoMInit, CoMNew   float64
	CoMDotInit, CoMDotNew float64
	ZMPInit, ZMPNew   float64
	ZMPDotInit, ZMPDotNew float64
}

// ReferenceVelocity is the operator-commanded body-frame velocity.
type ReferenceVelocity struct {
	X, Y, Omega float64
}
