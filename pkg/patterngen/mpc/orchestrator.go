package mpc

import (
	"math"
	"sync"

	. "github.com/itohio/walkgen/pkg/logger"

	"github.com/itohio/walkgen/pkg/patterngen"
	"github.com/itohio/walkgen/pkg/patterngen/foottraj"
	"github.com/itohio/walkgen/pkg/patterngen/hull"
	"github.com/itohio/walkgen/pkg/patterngen/qp"
	"github.com/itohio/walkgen/pkg/patterngen/support"
)

// Options tunes the MPC orchestrator's sampling rates, preview horizon
// and physical constants (spec.md section 6).
type Options struct {
	SamplePeriod float64
	Gravity      float64
	ComHeight    float64
	StepHeight   float64

	FootDimensions foottraj.Dimensions
	UseLegacyDzBug bool

	N       int     // preview horizon, in QP_T_-spaced samples
	S       int     // previewed foot placements
	Tprw    float64 // QP_T_, preview sampling period
	Weights Weights

	FinalDoubleSupportDuration float64
	EditGuard                  float64

	// FallbackSSDuration/FallbackDSDuration seed the preview cadence for
	// horizon slots beyond whatever the caller has queued with AddFoot.
	FallbackSSDuration float64
	FallbackDSDuration float64
}

// DefaultOptions returns the nominal constants from spec.md section 6.
func DefaultOptions() Options {
	return Options{
		SamplePeriod:               0.005,
		Gravity:                    9.81,
		ComHeight:                  0.814,
		StepHeight:                 0.05,
		FootDimensions:             foottraj.Dimensions{B: 0.06, H: 0.02, F: 0.08},
		N:                          16,
		S:                          2,
		Tprw:                       0.1,
		Weights:                    DefaultWeights(),
		FinalDoubleSupportDuration: 0.3,
		EditGuard:                  0.02,
		FallbackSSDuration:         0.7,
		FallbackDSDuration:         0.1,
	}
}

type pose struct{ X, Y, Theta float64 }

// Orchestrator implements patterngen.Core on top of the rolling-horizon
// QP generator: the jerk-foot decision vector is re-solved every
// preview sample (Tprw), the first jerk is held constant while control
// samples are emitted at SamplePeriod by closed-form triple-integrator
// extrapolation, and the support FSM / foot-trajectory generator carry
// the same responsibilities they carry in the analytical core (spec.md
// sections 4.5, 4.6, 4.8, 4.9).
type Orchestrator struct {
	mu   sync.Mutex
	opts Options

	fsm  *support.FSM
	ineq *support.Inequalities
	inv  Invariant

	queued []patterngen.RelativeFootPosition
	refVel patterngen.ReferenceVelocity

	c0x, c0y            [3]float64 // position, velocity, acceleration at the last solve
	jerkX0, jerkY0      float64    // the held jerk since the last solve
	pendingFx, pendingFy []float64 // the S decided foot placements from the last solve
	lastSolveLocal      float64
	nextSolveLocal      float64
	leftPose, rightPose pose

	t0      float64
	lastOut float64
	ending  bool
	out     patterngen.Outputs

	// Infeasible counts QP solves that returned an error (such as
	// ErrInfeasibleQP: the preview horizon's CoP/foothold constraints had
	// no feasible point, spec.md section 4.7) plus emitted ZMP samples
	// that fell outside the stance foot's CoP polygon.
	Infeasible int

	swing           foottraj.Swing
	haveSwing       bool
	swingStartLocal float64
	swingStepType   patterngen.StepType
}

var _ patterngen.Core = (*Orchestrator)(nil)

// New builds an MPC orchestrator around an already-seeded FSM and
// inequalities model.
func New(fsm *support.FSM, ineq *support.Inequalities, opts Options) *Orchestrator {
	return &Orchestrator{fsm: fsm, ineq: ineq, opts: opts}
}

// Init seeds the generator from the robot's current CoM/foot state and
// the first footsteps in the queue.
func (o *Orchestrator) Init(seed patterngen.InitialState, steps []patterngen.RelativeFootPosition) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.c0x = seed.CoMX.X
	o.c0y = seed.CoMY.X
	o.leftPose = pose{seed.LeftFoot.X, seed.LeftFoot.Y, seed.LeftFoot.Theta}
	o.rightPose = pose{seed.RightFoot.X, seed.RightFoot.Y, seed.RightFoot.Theta}
	o.queued = append([]patterngen.RelativeFootPosition(nil), steps...)
	o.t0 = 0
	o.lastOut = 0
	o.lastSolveLocal = 0
	o.nextSolveLocal = 0
	o.ending = false
	o.out = patterngen.Outputs{}
	o.haveSwing = false
	o.Infeasible = 0

	hOverG := o.opts.ComHeight / o.opts.Gravity
	o.inv = BuildInvariantPart(o.opts.N, o.opts.S, o.opts.Tprw, hOverG, o.opts.Weights)
	return nil
}

// SetReferenceVelocity updates the operator-commanded body-frame
// velocity driving the preview horizon's tracking term (spec.md section
// 6: updated at control rate, the ":setvel" command surface).
func (o *Orchestrator) SetReferenceVelocity(v patterngen.ReferenceVelocity) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refVel = v
}

// AddFoot appends one more footstep's timing/orientation to the preview
// cadence; its landing position is decided online by the QP, not here.
func (o *Orchestrator) AddFoot(step patterngen.RelativeFootPosition) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ending {
		Log.Warn().Msg("mpc: AddFoot rejected, already ending")
		return patterngen.Wrapf(patterngen.ErrTooLateForModification, "AddFoot: orchestrator is already ending")
	}
	o.queued = append(o.queued, step)
	return nil
}

// ChangeFoot edits the orientation of an already-queued footstep. The
// commanded (dx, dy) are accepted for symmetry with the analytical
// core's Core contract but have no effect here: this generator always
// decides footstep (x, y) online via the QP's Fx/Fy decision
// variables, so only the orientation carries meaning before the step
// is realized.
func (o *Orchestrator) ChangeFoot(now float64, stepIndex int, frame patterngen.Frame, dx, dy, dtheta float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if stepIndex < 0 || stepIndex >= len(o.queued) {
		Log.Warn().Int("stepIndex", stepIndex).Msg("mpc: ChangeFoot rejected, index out of range")
		return patterngen.Wrapf(patterngen.ErrWrongFootType, "ChangeFoot: stepIndex %d out of range [0,%d)", stepIndex, len(o.queued))
	}
	if now >= o.queuedStartTime(stepIndex)-o.opts.EditGuard {
		Log.Warn().Int("stepIndex", stepIndex).Float64("now", now).Msg("mpc: ChangeFoot rejected, too late")
		return patterngen.Wrapf(patterngen.ErrTooLateForModification, "ChangeFoot: stepIndex %d, now=%.3f is within EditGuard of its queued start", stepIndex, now)
	}

	switch frame {
	case patterngen.AbsoluteFrame:
		o.queued[stepIndex].DTheta = dtheta
	case patterngen.RelativeFrame:
		o.queued[stepIndex].DTheta += dtheta
	}
	return nil
}

// queuedStartTime estimates the absolute time at which queued[idx]'s
// single-support interval begins, from the nominal durations queued so
// far (the MPC core does not pre-solve an exact timeline the way the
// analytical core's linear system does).
func (o *Orchestrator) queuedStartTime(idx int) float64 {
	t := o.lastOut
	for i := 0; i < idx; i++ {
		t += o.queued[i].DSDuration + o.queued[i].SSDuration
	}
	t += o.queued[idx].DSDuration
	return t
}

// End schedules the final double-support phase: AddFoot is rejected
// from then on, the reference velocity target drops to zero, and
// cadence slots beyond whatever is already queued use
// FinalDoubleSupportDuration for both their single- and double-support
// durations (EndPhaseOfTheWalking, spec.md section 4.10). Footsteps
// already queued are still consumed as their swings start.
func (o *Orchestrator) End(now float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ending = true
	return nil
}

// referenceVelocity returns the operator-commanded body velocity, or
// zero once End has been called.
func (o *Orchestrator) referenceVelocity() patterngen.ReferenceVelocity {
	if o.ending {
		return patterngen.ReferenceVelocity{}
	}
	return o.refVel
}

// currentCadence builds the S-slot preview cadence from whatever the
// caller has queued via AddFoot, padded with FallbackSSDuration/
// FallbackDSDuration nominal steps (or, once ending, steps whose single-
// and double-support durations are both FinalDoubleSupportDuration).
func (o *Orchestrator) currentCadence() []footCadence {
	state := o.fsm.State()
	prevFoot, prevYaw := state.Foot, state.Yaw
	out := make([]footCadence, o.opts.S)
	for i := 0; i < o.opts.S; i++ {
		var rfp patterngen.RelativeFootPosition
		switch {
		case i < len(o.queued):
			rfp = o.queued[i]
		case o.ending:
			rfp = patterngen.RelativeFootPosition{SSDuration: o.opts.FinalDoubleSupportDuration, DSDuration: o.opts.FinalDoubleSupportDuration}
		default:
			rfp = patterngen.RelativeFootPosition{SSDuration: o.opts.FallbackSSDuration, DSDuration: o.opts.FallbackDSDuration}
		}
		swing := prevFoot.Other()
		yaw := prevYaw + rfp.DTheta
		out[i] = footCadence{swingFoot: swing, nominalYaw: yaw, ssDuration: rfp.SSDuration, dsDuration: rfp.DSDuration, stepType: rfp.StepType}
		prevFoot, prevYaw = swing, yaw
	}
	return out
}

// resolveQP builds the per-tick QP at the current preview boundary and
// solves it, storing the held jerk for the coming Tprw window and
// recording the stance geometry the schedule was built against.
func (o *Orchestrator) resolveQP(local float64) {
	// Advance the CoM state to this solve under the jerk held since the
	// previous one, so the rollout starts from where the CoM now is.
	elapsed := local - o.lastSolveLocal
	o.c0x = integrate(o.c0x, o.jerkX0, elapsed)
	o.c0y = integrate(o.c0y, o.jerkY0, elapsed)

	state := o.fsm.State()
	refVel := o.referenceVelocity()

	schedule := buildSchedule(o.fsm, local, o.opts.Tprw, o.opts.N, o.opts.S, refVel)
	cadence := o.currentCadence()

	refX := make([]float64, o.opts.N)
	refY := make([]float64, o.opts.N)
	for i := 0; i < o.opts.N; i++ {
		yaw := state.Yaw + refVel.Omega*float64(i+1)*o.opts.Tprw
		c, s := math.Cos(yaw), math.Sin(yaw)
		refX[i] = c*refVel.X - s*refVel.Y
		refY[i] = s*refVel.X + c*refVel.Y
	}

	var prob qp.Problem
	UpdateProblem(&prob, o.inv, TickContext{
		C0X: o.c0x, C0Y: o.c0y,
		RefVelX: refX, RefVelY: refY,
		Schedule: schedule, Cadence: cadence,
		StanceX: state.X, StanceY: state.Y, StanceYaw: state.Yaw, StanceFoot: state.Foot,
		Ineq: o.ineq,
	})

	if err := prob.Solve(); err != nil {
		Log.Warn().Err(err).Float64("local", local).Int("infeasibleCount", o.Infeasible+1).Msg("mpc: QP solve infeasible, holding zero jerk")
		o.Infeasible++
		o.jerkX0, o.jerkY0 = 0, 0
	} else {
		off := o.inv.offsets()
		o.jerkX0, o.jerkY0 = prob.X[off.jerkX], prob.X[off.jerkY]
		o.pendingFx = append([]float64(nil), prob.X[off.fx:off.fx+o.opts.S]...)
		o.pendingFy = append([]float64(nil), prob.X[off.fy:off.fy+o.opts.S]...)
	}

	o.lastSolveLocal = local
	o.nextSolveLocal = local + o.opts.Tprw
}

// integrate extrapolates c0 forward by dt under the held, piecewise
// constant jerk, returning the new (position, velocity, acceleration).
func integrate(c0 [3]float64, jerk, dt float64) [3]float64 {
	return [3]float64{
		c0[0] + c0[1]*dt + c0[2]*dt*dt/2 + jerk*dt*dt*dt/6,
		c0[1] + c0[2]*dt + jerk*dt*dt/2,
		c0[2] + jerk*dt,
	}
}

// Tick advances the generator from the last emitted sample time to
// now, resolving the QP at every Tprw boundary crossed and sampling
// the CoM/ZMP/feet at every SamplePeriod boundary (OnLine, spec.md
// section 4.8/4.10).
func (o *Orchestrator) Tick(now float64) (patterngen.Outputs, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	dt := o.opts.SamplePeriod
	for t := o.lastOut + dt; t <= now; t += dt {
		local := t - o.t0
		if local >= o.nextSolveLocal-1e-9 {
			o.resolveQP(local)
		}
		o.emitSample(t, local)
	}
	o.lastOut = now
	return o.out, nil
}

// emitSample appends one synchronized sample to every output queue,
// extrapolating CoM state analytically from the last QP solve.
func (o *Orchestrator) emitSample(absT, local float64) {
	elapsed := local - o.lastSolveLocal
	comX := integrate(o.c0x, o.jerkX0, elapsed)
	comY := integrate(o.c0y, o.jerkY0, elapsed)

	hOverG := o.opts.ComHeight / o.opts.Gravity
	zmpX := comX[0] - hOverG*comX[2]
	zmpY := comY[0] - hOverG*comY[2]

	refVel := o.referenceVelocity()
	state, _ := o.fsm.SetSupportState(local, 1, patterngen.ReferenceVelocity{X: comX[1], Y: comY[1], Omega: refVel.Omega})
	swingingFoot := state.Foot.Other()

	if state.Phase == patterngen.SingleSupport && !o.haveSwing {
		o.startSwing(local, swingingFoot)
	}
	if state.Phase == patterngen.DoubleSupport && o.haveSwing {
		o.landSwing(swingingFoot)
	}

	stancePose := o.poseOf(state.Foot)
	o.fsm.SetStancePose(stancePose.X, stancePose.Y, stancePose.Theta)
	state.X, state.Y, state.Yaw = stancePose.X, stancePose.Y, stancePose.Theta

	o.out.CoM = append(o.out.CoM, patterngen.CoMPosition{
		X: comX, Y: comY, Z: [3]float64{o.opts.ComHeight, 0, 0}, Time: absT,
	})
	o.out.ZMP = append(o.out.ZMP, patterngen.ZMPPosition{X: zmpX, Y: zmpY, Time: absT})

	if o.ineq != nil {
		edges := o.ineq.CoPEdges(state)
		if !hull.Contains(edges, zmpX, zmpY, 1e-6) {
			o.Infeasible++
			Log.Warn().Float64("zmpX", zmpX).Float64("zmpY", zmpY).Msg("mpc: ZMP sample outside the stance CoP polygon")
		}
	}

	left, right := o.sampleFeet(local, state)
	left.Time, right.Time = absT, absT
	o.out.LeftFoot = append(o.out.LeftFoot, left)
	o.out.RightFoot = append(o.out.RightFoot, right)
}

// startSwing fits a fresh foottraj.Swing for the foot that just began
// single support, landing at the nearest decided foot placement from
// the last QP solve (Fx[0], Fy[0]).
func (o *Orchestrator) startSwing(local float64, swingFoot patterngen.Foot) {
	start := o.poseOf(swingFoot)
	targetX, targetY := start.X, start.Y
	targetTheta := start.Theta
	if len(o.pendingFx) > 0 {
		targetX, targetY = o.pendingFx[0], o.pendingFy[0]
	}
	cadence := o.currentCadence()
	o.swingStepType = 0
	if len(cadence) > 0 {
		targetTheta = cadence[0].nominalYaw
		o.swingStepType = cadence[0].stepType
	}

	ss := o.opts.FallbackSSDuration
	if len(o.queued) > 0 {
		ss = o.queued[0].SSDuration
	} else if o.ending {
		ss = o.opts.FinalDoubleSupportDuration
	}

	o.swing = foottraj.NewSwing(foottraj.Boundary{
		StartX: start.X, StartY: start.Y, StartTheta: start.Theta,
		TargetX: targetX, TargetY: targetY, TargetTheta: targetTheta,
		StepHeight: o.opts.StepHeight,
	}, ss, o.opts.FootDimensions, o.opts.UseLegacyDzBug)
	o.swingStartLocal = local
	o.haveSwing = true

	if swingFoot == patterngen.Left {
		o.leftPose = pose{targetX, targetY, targetTheta}
	} else {
		o.rightPose = pose{targetX, targetY, targetTheta}
	}
	if len(o.queued) > 0 {
		o.queued = o.queued[1:]
	}
}

// landSwing marks the just-completed step's landing pose as final
// (already written into leftPose/rightPose at swing start, since the
// swing polynomial always lands exactly on its target).
func (o *Orchestrator) landSwing(swingFoot patterngen.Foot) {
	o.haveSwing = false
}

// poseOf returns a foot's last known landed world pose.
func (o *Orchestrator) poseOf(foot patterngen.Foot) pose {
	if foot == patterngen.Left {
		return o.leftPose
	}
	return o.rightPose
}

// sampleFeet returns the current absolute pose of both feet.
func (o *Orchestrator) sampleFeet(local float64, state patterngen.SupportState) (left, right patterngen.FootAbsolutePosition) {
	stanceFoot := state.Foot
	stancePose := o.poseOf(stanceFoot)
	stanceOut := patterngen.FootAbsolutePosition{X: stancePose.X, Y: stancePose.Y, Theta: stancePose.Theta, StepType: -1}

	swingOut := stanceOut
	if o.haveSwing && state.Phase == patterngen.SingleSupport {
		sample := o.swing.Sample(local - o.swingStartLocal)
		swingOut = sample.ToAbsolute(local, o.swingStepType)
	}

	if stanceFoot == patterngen.Left {
		return stanceOut, swingOut
	}
	return swingOut, stanceOut
}

// Outputs returns everything generated so far.
func (o *Orchestrator) Outputs() patterngen.Outputs {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.out
}
