package analytical

import (
	"math"
	"sync"

	. "github.com/itohio/walkgen/pkg/logger"

	"github.com/itohio/walkgen/pkg/patterngen"
	"github.com/itohio/walkgen/pkg/patterngen/foottraj"
	"github.com/itohio/walkgen/pkg/patterngen/hull"
	"github.com/itohio/walkgen/pkg/patterngen/support"
)

// Options tunes the orchestrator's sampling rate and the physical
// constants the linear system and swing generator need (spec.md
// section 6).
type Options struct {
	SamplePeriod          float64
	Gravity               float64
	ComHeight             float64
	StepHeight            float64
	FootDimensions        foottraj.Dimensions
	UseLegacyDzBug        bool
	FinalDoubleSupportDuration float64
	// EditGuard is how far ahead of an interval's start an online edit
	// must land to be accepted; any later is ErrTooLateForModification
	// (spec.md section 4.10).
	EditGuard float64
}

// DefaultOptions returns the nominal constants from spec.md section 6.
func DefaultOptions() Options {
	return Options{
		SamplePeriod:               0.005,
		Gravity:                    9.81,
		ComHeight:                  0.814,
		StepHeight:                 0.05,
		FootDimensions:             foottraj.Dimensions{B: 0.06, H: 0.02, F: 0.08},
		FinalDoubleSupportDuration: 0.3,
		EditGuard:                  0.02,
	}
}

// stepRecord is one committed footstep, fully resolved into absolute
// world-frame geometry so rebuilding the linear system never needs to
// re-walk the chain of relative offsets.
type stepRecord struct {
	patterngen.RelativeFootPosition

	swingFoot patterngen.Foot

	stanceX, stanceY, stanceTheta float64
	startX, startY, startTheta    float64
	targetX, targetY, targetTheta float64
}

// Orchestrator implements patterngen.Core on top of the analytical
// closed-form ZMP/CoM generator: one LinearSystem per axis, rebuilt
// whenever the committed footstep chain's geometry changes, the support
// FSM, the relative-feet inequalities, and a fresh foottraj.Swing for
// whichever step is currently in single support (spec.md sections 4.3,
// 4.5, 4.6, 4.9, 4.10).
type Orchestrator struct {
	mu   sync.Mutex
	opts Options

	fsm  *support.FSM
	ineq *support.Inequalities

	steps []stepRecord

	lsX, lsY   *LinearSystem
	trajX, trajY AxisTrajectory

	initialCoMX, initialCoMY patterngen.CoMPosition
	leftPose, rightPose      pose

	t0      float64
	lastOut float64
	ending  bool
	out     patterngen.Outputs
	// Infeasible counts ZMP samples that fell outside the stance foot's
	// CoP polygon; a nonzero count after a Tick means the committed
	// footstep chain asked for a ZMP reference the support geometry
	// cannot realize (spec.md section 4.6).
	Infeasible int
	// SeamZMPJump is the |ZMP(t-)-ZMP(t+)| magnitude (per axis) measured
	// at the last bounded-future edit's freeze boundary: position and
	// velocity are always continuous there by construction, but
	// acceleration (and so ZMP) is not one of the linear system's
	// boundary conditions, so an edit can still leave a seam. Zero after
	// Init or after an edit that landed before any sample had been
	// emitted, since those resolve the whole chain coherently.
	SeamZMPJumpX, SeamZMPJumpY float64

	swing          foottraj.Swing
	swingStepIndex int
	haveSwing      bool
}

type pose struct{ X, Y, Theta float64 }

var _ patterngen.Core = (*Orchestrator)(nil)

// New builds an orchestrator around an already-seeded FSM and
// inequalities model.
func New(fsm *support.FSM, ineq *support.Inequalities, opts Options) *Orchestrator {
	return &Orchestrator{fsm: fsm, ineq: ineq, opts: opts}
}

// Init seeds the generator from the robot's current CoM/foot state and
// the first footsteps in the queue (InitOnLine, spec.md section 4.10).
func (o *Orchestrator) Init(seed patterngen.InitialState, steps []patterngen.RelativeFootPosition) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.initialCoMX, o.initialCoMY = seed.CoMX, seed.CoMY
	o.leftPose = pose{seed.LeftFoot.X, seed.LeftFoot.Y, seed.LeftFoot.Theta}
	o.rightPose = pose{seed.RightFoot.X, seed.RightFoot.Y, seed.RightFoot.Theta}
	o.steps = nil
	o.t0 = 0
	o.lastOut = 0
	o.ending = false
	o.out = patterngen.Outputs{}
	o.haveSwing = false

	for _, s := range steps {
		o.commitStep(s)
	}
	return o.rebuildFull()
}

// commitStep appends one relative footstep to o.steps, resolving it into
// absolute geometry against the current tail of the chain (or the seed
// foot poses, for the first step).
func (o *Orchestrator) commitStep(step patterngen.RelativeFootPosition) {
	stance := o.fsm.State().Foot
	if n := len(o.steps); n > 0 {
		stance = o.steps[n-1].swingFoot
	}
	swingFoot := stance.Other()

	stancePose := o.poseOf(stance)
	startPose := o.poseOf(swingFoot)

	c, s := cosSin(stancePose.Theta)
	target := pose{
		X:     stancePose.X + c*step.DX - s*step.DY,
		Y:     stancePose.Y + s*step.DX + c*step.DY,
		Theta: stancePose.Theta + step.DTheta,
	}

	o.steps = append(o.steps, stepRecord{
		RelativeFootPosition: step,
		swingFoot:            swingFoot,
		stanceX:              stancePose.X, stanceY: stancePose.Y, stanceTheta: stancePose.Theta,
		startX: startPose.X, startY: startPose.Y, startTheta: startPose.Theta,
		targetX: target.X, targetY: target.Y, targetTheta: target.Theta,
	})
}

// poseOf returns the last known planar pose of a foot: its landing spot
// from the last committed step that swung it, or its seed pose if it has
// never swung yet.
func (o *Orchestrator) poseOf(foot patterngen.Foot) pose {
	for i := len(o.steps) - 1; i >= 0; i-- {
		if o.steps[i].swingFoot == foot {
			return pose{o.steps[i].targetX, o.steps[i].targetY, o.steps[i].targetTheta}
		}
	}
	if foot == patterngen.Left {
		return o.leftPose
	}
	return o.rightPose
}

func cosSin(theta float64) (c, s float64) {
	return math.Cos(theta), math.Sin(theta)
}

// rebuildFull reassembles the per-axis interval geometry from o.steps
// (two intervals per step: double support then single support, both
// pinned at the current stance foot's ZMP target) and re-solves both
// axes from the original seed CoM state, coupling every interval through
// one C2-continuous linear system. Used by Init, and by rebuildFrom when
// there is no trajectory yet or the edit time falls at or before the
// first interval's start, where there is no already-emitted past to
// protect; otherwise AddFoot/ChangeFoot/End go through rebuildFrom's
// windowed path, which freezes everything up to the edit and only
// re-solves the sub-chain after it (spec.md sections 3, 4.4, 4.10).
func (o *Orchestrator) rebuildFull() error {
	durations, omegas, zmpX, zmpY := o.intervalPlan()

	o.lsX = NewLinearSystem(durations, omegas)
	o.lsY = NewLinearSystem(durations, omegas)
	if err := o.lsX.Build(); err != nil {
		Log.Error().Err(err).Int("intervals", len(durations)).Msg("analytical: X axis linear system build failed")
		return err
	}
	if err := o.lsY.Build(); err != nil {
		Log.Error().Err(err).Int("intervals", len(durations)).Msg("analytical: Y axis linear system build failed")
		return err
	}

	finalX, finalY := zmpX[len(zmpX)-1], zmpY[len(zmpY)-1]
	px := patterngen.CompactTrajectoryInstanceParameters{
		InitialCoMPosition: o.initialCoMX.X[0],
		InitialCoMVelocity: o.initialCoMX.X[1],
		FinalCoMPosition:   finalX,
		ZMPProfile:         zmpX,
	}
	py := patterngen.CompactTrajectoryInstanceParameters{
		InitialCoMPosition: o.initialCoMY.X[0],
		InitialCoMVelocity: o.initialCoMY.X[1],
		FinalCoMPosition:   finalY,
		ZMPProfile:         zmpY,
	}

	trajX, err := o.lsX.Solve(px)
	if err != nil {
		Log.Error().Err(err).Msg("analytical: X axis trajectory solve failed")
		return err
	}
	trajY, err := o.lsY.Solve(py)
	if err != nil {
		Log.Error().Err(err).Msg("analytical: Y axis trajectory solve failed")
		return err
	}
	o.trajX, o.trajY = trajX, trajY
	o.SeamZMPJumpX, o.SeamZMPJumpY = 0, 0
	return nil
}

// freezeBoundary locates, within durations, the first interval that has
// not yet started at local time t, and the frozen CoM position/velocity
// at that interval's start (sampled from the trajectories currently in
// place, i.e. before whatever edit prompted this call). freezeIdx == 0
// means t falls at or before the very first interval, so there is
// nothing to freeze and a full coherent rebuild is both safe and
// simpler. If every interval has already started at t (t inside the
// last interval, or at or past the chain's total duration), the last
// interval is re-solved so there is always at least one interval in the
// re-solved suffix.
func (o *Orchestrator) freezeBoundary(durations []float64, t float64) (freezeIdx int, boundaryT, comX0, comVX0, comY0, comVY0 float64) {
	cum := 0.0
	freezeIdx = -1
	for i, d := range durations {
		if cum >= t {
			freezeIdx = i
			break
		}
		cum += d
	}
	if freezeIdx < 0 {
		freezeIdx = len(durations) - 1
		cum -= durations[freezeIdx]
	}
	boundaryT = cum

	if freezeIdx == 0 {
		return 0, 0, o.initialCoMX.X[0], o.initialCoMX.X[1], o.initialCoMY.X[0], o.initialCoMY.X[1]
	}
	return freezeIdx, boundaryT,
		o.trajX.Value(boundaryT), o.trajX.Velocity(boundaryT),
		o.trajY.Value(boundaryT), o.trajY.Velocity(boundaryT)
}

// rebuildFrom re-solves only the sub-chain of intervals that have not
// yet started as of local time t, using the CoM position/velocity frozen
// at that boundary (sampled off the trajectories already in place) as
// the new initial condition, and splices the result onto the unchanged
// prefix of the existing per-axis trajectories.
//
// This is the bounded-future window spec.md section 3's Lifecycle
// invariant requires of OnLineFootChange/OnLineAddFoot: every interval
// at or before the freeze boundary keeps its original coefficients
// untouched, so a Tick that has already sampled them is never
// contradicted by a later edit. Position and velocity are exactly
// continuous across the seam, since the re-solved suffix's initial
// condition is sampled directly off the frozen trajectory; acceleration
// is not one of the linear system's boundary conditions, so the ZMP
// reference itself can still step at the seam. SeamZMPJumpX/Y records
// that step's size instead of hiding it.
func (o *Orchestrator) rebuildFrom(t float64) error {
	if len(o.trajX.Intervals) == 0 || len(o.trajY.Intervals) == 0 {
		return o.rebuildFull()
	}

	durations, omegas, zmpX, zmpY := o.intervalPlan()
	freezeIdx, _, comX0, comVX0, comY0, comVY0 := o.freezeBoundary(durations, t)
	if freezeIdx <= 0 {
		return o.rebuildFull()
	}

	subDurations := durations[freezeIdx:]
	subOmegas := omegas[freezeIdx:]
	subZmpX := zmpX[freezeIdx:]
	subZmpY := zmpY[freezeIdx:]

	lsX := NewLinearSystem(subDurations, subOmegas)
	lsY := NewLinearSystem(subDurations, subOmegas)
	if err := lsX.Build(); err != nil {
		Log.Error().Err(err).Int("intervals", len(subDurations)).Msg("analytical: X axis windowed linear system build failed")
		return err
	}
	if err := lsY.Build(); err != nil {
		Log.Error().Err(err).Int("intervals", len(subDurations)).Msg("analytical: Y axis windowed linear system build failed")
		return err
	}

	px := patterngen.CompactTrajectoryInstanceParameters{
		InitialCoMPosition: comX0,
		InitialCoMVelocity: comVX0,
		FinalCoMPosition:   subZmpX[len(subZmpX)-1],
		ZMPProfile:         subZmpX,
	}
	py := patterngen.CompactTrajectoryInstanceParameters{
		InitialCoMPosition: comY0,
		InitialCoMVelocity: comVY0,
		FinalCoMPosition:   subZmpY[len(subZmpY)-1],
		ZMPProfile:         subZmpY,
	}

	subTrajX, err := lsX.Solve(px)
	if err != nil {
		Log.Error().Err(err).Msg("analytical: X axis windowed trajectory solve failed")
		return err
	}
	subTrajY, err := lsY.Solve(py)
	if err != nil {
		Log.Error().Err(err).Msg("analytical: Y axis windowed trajectory solve failed")
		return err
	}

	o.SeamZMPJumpX = math.Abs(subTrajX.Intervals[0].ZMP(0) - o.trajX.Intervals[freezeIdx-1].ZMP(durations[freezeIdx-1]))
	o.SeamZMPJumpY = math.Abs(subTrajY.Intervals[0].ZMP(0) - o.trajY.Intervals[freezeIdx-1].ZMP(durations[freezeIdx-1]))
	if o.SeamZMPJumpX > 1e-6 || o.SeamZMPJumpY > 1e-6 {
		Log.Warn().Float64("jumpX", o.SeamZMPJumpX).Float64("jumpY", o.SeamZMPJumpY).Msg("analytical: online edit introduced a ZMP seam discontinuity")
	}

	o.lsX, o.lsY = lsX, lsY
	o.trajX.Intervals = append(append([]Interval(nil), o.trajX.Intervals[:freezeIdx]...), subTrajX.Intervals...)
	o.trajY.Intervals = append(append([]Interval(nil), o.trajY.Intervals[:freezeIdx]...), subTrajY.Intervals...)
	return nil
}

// intervalPlan flattens o.steps into the durations/omegas/ZMP profile
// arrays LinearSystem.Build and computeW consume. When no steps are
// queued it falls back to a single standing-still interval so Init can
// be called with an empty queue.
func (o *Orchestrator) intervalPlan() (durations, omegas, zmpX, zmpY []float64) {
	omega := math.Sqrt(o.opts.Gravity / o.opts.ComHeight)

	if len(o.steps) == 0 {
		stance := o.poseOf(o.fsm.State().Foot)
		return []float64{o.opts.FinalDoubleSupportDuration}, []float64{omega}, []float64{stance.X}, []float64{stance.Y}
	}

	for _, st := range o.steps {
		ds := st.DSDuration
		ss := st.SSDuration
		durations = append(durations, ds, ss)
		omegas = append(omegas, omega, omega)
		zmpX = append(zmpX, st.stanceX, st.stanceX)
		zmpY = append(zmpY, st.stanceY, st.stanceY)
	}
	if o.ending {
		last := o.steps[len(o.steps)-1]
		durations = append(durations, o.opts.FinalDoubleSupportDuration)
		omegas = append(omegas, omega)
		zmpX = append(zmpX, last.targetX)
		zmpY = append(zmpY, last.targetY)
	}
	return durations, omegas, zmpX, zmpY
}

// intervalStart returns the absolute local time (relative to o.t0) at
// which interval index idx begins.
func (o *Orchestrator) intervalStart(durations []float64, idx int) float64 {
	t := 0.0
	for i := 0; i < idx; i++ {
		t += durations[i]
	}
	return t
}

// AddFoot appends one more relative footstep to the queue and
// re-solves both axes (OnLineAddFoot, spec.md section 4.10).
func (o *Orchestrator) AddFoot(step patterngen.RelativeFootPosition) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ending {
		Log.Warn().Msg("analytical: AddFoot rejected, already ending")
		return patterngen.Wrapf(patterngen.ErrTooLateForModification, "AddFoot: orchestrator is already ending")
	}
	o.commitStep(step)
	return o.rebuildFrom(o.lastOut - o.t0)
}

// ChangeFoot edits the landing position of an already-queued, not yet
// realized footstep (OnLineFootChange, spec.md section 4.10). The step
// index counts committed footsteps in the order Init and AddFoot added
// them, 0 being the first step since Init; steps are never removed, so
// an index whose single-support phase has begun, or begins within
// EditGuard of now, is rejected with ErrTooLateForModification.
func (o *Orchestrator) ChangeFoot(now float64, stepIndex int, frame patterngen.Frame, dx, dy, dtheta float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if stepIndex < 0 || stepIndex >= len(o.steps) {
		Log.Warn().Int("stepIndex", stepIndex).Msg("analytical: ChangeFoot rejected, index out of range")
		return patterngen.Wrapf(patterngen.ErrWrongFootType, "ChangeFoot: stepIndex %d out of range [0,%d)", stepIndex, len(o.steps))
	}

	durations, _, _, _ := o.intervalPlan()
	ssIntervalIdx := 2*stepIndex + 1
	start := o.t0 + o.intervalStart(durations, ssIntervalIdx)
	if now >= start-o.opts.EditGuard {
		Log.Warn().Int("stepIndex", stepIndex).Float64("now", now).Float64("start", start).Msg("analytical: ChangeFoot rejected, too late")
		return patterngen.Wrapf(patterngen.ErrTooLateForModification, "ChangeFoot: stepIndex %d, now=%.3f is within EditGuard of its support-phase start %.3f", stepIndex, now, start)
	}

	st := &o.steps[stepIndex]
	switch frame {
	case patterngen.AbsoluteFrame:
		st.targetX, st.targetY, st.targetTheta = dx, dy, dtheta
	case patterngen.RelativeFrame:
		c, s := cosSin(st.stanceTheta)
		st.targetX = st.stanceX + c*dx - s*dy
		st.targetY = st.stanceY + s*dx + c*dy
		st.targetTheta += dtheta
	}

	// Every step after the edited one was anchored to its landing spot,
	// so their stance/start poses need to be recomputed too.
	for i := stepIndex + 1; i < len(o.steps); i++ {
		prev := o.steps[i-1]
		o.steps[i].stanceX, o.steps[i].stanceY, o.steps[i].stanceTheta = prev.stanceX, prev.stanceY, prev.stanceTheta
		if o.steps[i].swingFoot == prev.swingFoot.Other() {
			o.steps[i].stanceX, o.steps[i].stanceY, o.steps[i].stanceTheta = prev.targetX, prev.targetY, prev.targetTheta
		}
		o.steps[i].startX, o.steps[i].startY, o.steps[i].startTheta = o.poseOfWithin(i, o.steps[i].swingFoot)
	}

	return o.rebuildFrom(now - o.t0)
}

// poseOfWithin is poseOf restricted to steps before index idx, used by
// ChangeFoot to recompute downstream geometry without seeing the step
// currently being patched.
func (o *Orchestrator) poseOfWithin(idx int, foot patterngen.Foot) (x, y, theta float64) {
	for i := idx - 1; i >= 0; i-- {
		if o.steps[i].swingFoot == foot {
			return o.steps[i].targetX, o.steps[i].targetY, o.steps[i].targetTheta
		}
	}
	p := o.leftPose
	if foot == patterngen.Right {
		p = o.rightPose
	}
	return p.X, p.Y, p.Theta
}

// End schedules the final double-support phase: no more footsteps are
// accepted, a trailing stabilizing DS interval is appended, and the
// trajectory re-solved so the CoM settles above the last footstep
// (EndPhaseOfTheWalking, spec.md section 4.10).
func (o *Orchestrator) End(now float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ending = true
	return o.rebuildFrom(now - o.t0)
}

// Tick advances the generator from the last emitted sample time to now,
// sampling both axes' trajectories, the support FSM, and the active
// swing at every SamplePeriod boundary (OnLine, spec.md section 4.10).
func (o *Orchestrator) Tick(now float64) (patterngen.Outputs, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	durations, _, _, _ := o.intervalPlan()
	total := o.intervalStart(durations, len(durations))

	dt := o.opts.SamplePeriod
	k := 0
	for t := o.lastOut + dt; t <= now && t-o.t0 <= total+1e-9; t += dt {
		k++
		local := t - o.t0
		o.emitSample(t, local, durations, k)
	}
	o.lastOut = now
	return o.out, nil
}

// emitSample appends one synchronized sample to every output queue.
func (o *Orchestrator) emitSample(absT, local float64, durations []float64, k int) {
	comX := o.trajX.Value(local)
	comVX := o.trajX.Velocity(local)
	comAX := o.trajX.Acceleration(local)
	comY := o.trajY.Value(local)
	comVY := o.trajY.Velocity(local)
	comAY := o.trajY.Acceleration(local)
	zmpX := o.trajX.ZMP(local)
	zmpY := o.trajY.ZMP(local)

	state, _ := o.fsm.SetSupportState(local, k, patterngen.ReferenceVelocity{X: comVX, Y: comVY})
	stancePose := o.poseOf(state.Foot)
	o.fsm.SetStancePose(stancePose.X, stancePose.Y, stancePose.Theta)
	state.X, state.Y, state.Yaw = stancePose.X, stancePose.Y, stancePose.Theta

	o.out.CoM = append(o.out.CoM, patterngen.CoMPosition{
		X: [3]float64{comX, comVX, comAX},
		Y: [3]float64{comY, comVY, comAY},
		Z: [3]float64{o.opts.ComHeight, 0, 0},
		Time: absT,
	})
	o.out.ZMP = append(o.out.ZMP, patterngen.ZMPPosition{X: zmpX, Y: zmpY, Time: absT})

	if o.ineq != nil {
		edges := o.ineq.CoPEdges(state)
		if !hull.Contains(edges, zmpX, zmpY, 1e-6) {
			o.Infeasible++
			Log.Warn().Float64("zmpX", zmpX).Float64("zmpY", zmpY).Msg("analytical: ZMP sample outside the stance CoP polygon")
		}
	}

	left, right := o.sampleFeet(local, state)
	left.Time, right.Time = absT, absT
	o.out.LeftFoot = append(o.out.LeftFoot, left)
	o.out.RightFoot = append(o.out.RightFoot, right)
}

// sampleFeet returns the current absolute pose of both feet: the
// stationary one holds its last landed pose, and the swinging one
// samples its foottraj.Swing (spec.md section 4.9).
func (o *Orchestrator) sampleFeet(local float64, state patterngen.SupportState) (left, right patterngen.FootAbsolutePosition) {
	stanceFoot := state.Foot
	stancePose := o.poseOf(stanceFoot)
	stanceOut := patterngen.FootAbsolutePosition{
		X: stancePose.X, Y: stancePose.Y, Theta: stancePose.Theta,
		StepType: -1,
	}

	idx, started := o.activeStepIndex(local)
	swingOut := stanceOut
	swingFoot := stanceFoot.Other()
	if started && state.Phase == patterngen.SingleSupport {
		st := o.steps[idx]
		if !o.haveSwing || o.swingStepIndex != idx {
			o.swing = foottraj.NewSwing(foottraj.Boundary{
				StartX: st.startX, StartY: st.startY, StartTheta: st.startTheta,
				TargetX: st.targetX, TargetY: st.targetY, TargetTheta: st.targetTheta,
				StepHeight: o.opts.StepHeight,
			}, st.SSDuration, o.opts.FootDimensions, o.opts.UseLegacyDzBug)
			o.swingStepIndex = idx
			o.haveSwing = true
		}
		ssStart := o.intervalStartFor(idx, true)
		sample := o.swing.Sample(local - ssStart)
		swingOut = sample.ToAbsolute(local, st.StepType)
	}

	if stanceFoot == patterngen.Left {
		return stanceOut, swingOut
	}
	return swingOut, stanceOut
}

// activeStepIndex returns the step index whose DS+SS pair contains
// local, and whether any step has started yet.
func (o *Orchestrator) activeStepIndex(local float64) (idx int, started bool) {
	if len(o.steps) == 0 {
		return 0, false
	}
	durations, _, _, _ := o.intervalPlan()
	t := 0.0
	for i := range o.steps {
		ds, ss := durations[2*i], durations[2*i+1]
		if local < t+ds+ss {
			return i, true
		}
		t += ds + ss
	}
	return len(o.steps) - 1, true
}

// intervalStartFor returns the absolute local time at which step idx's
// single-support interval begins.
func (o *Orchestrator) intervalStartFor(idx int, ss bool) float64 {
	durations, _, _, _ := o.intervalPlan()
	t := o.intervalStart(durations, 2*idx)
	if ss {
		t += durations[2*idx]
	}
	return t
}

// Outputs returns everything generated so far.
func (o *Orchestrator) Outputs() patterngen.Outputs {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.out
}
