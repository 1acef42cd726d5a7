package patterngen

// Core is the shared contract the two pattern-generator cores (the
// analytical package and the mpc package) both satisfy, so the rest of
// the system can treat "which core is active" as a tagged variant rather
// than branching on concrete types. Only one Core is ever active at a
// time (section 5: the analytical and MPC generators are alternatives).
//
// This mirrors the shape of the teacher pack's locomotion.Locomotion and
// gaittypes.GaitScheduler contracts (Update/SetTarget/GetState and
// Tick/SetTarget), specialized to the five operations spec.md ties
// together: Init, Tick, AddFoot, ChangeFoot, End.
type Core interface {
	// Init seeds the generator from the initial CoM/foot state and the
	// first footsteps in the queue (InitOnLine in spec.md).
	Init(seed InitialState, steps []RelativeFootPosition) error

	// Tick advances the generator from the current time to the next
	// control sample(s), appending to the three output queues (OnLine).
	Tick(now float64) (Outputs, error)

	// AddFoot appends one more relative footstep to the queue
	// (OnLineAddFoot).
	AddFoot(step RelativeFootPosition) error

	// ChangeFoot edits the landing position of an already-queued,
	// not-yet-realized footstep (OnLineFootChange/OnLineFootChanges).
	ChangeFoot(now float64, stepIndex int, frame Frame, dx, dy, dtheta float64) error

	// End schedules the final double-support phase
	// (EndPhaseOfTheWalking); it emits nothing itself, later Ticks emit
	// the remaining samples.
	End(now float64) error

	// Outputs returns everything generated since Init.
	Outputs() Outputs
}

// InitialState is the operator-supplied seed for Init.
type InitialState struct {
	CoMX, CoMY CoMPosition
	LeftFoot   FootAbsolutePosition
	RightFoot  FootAbsolutePosition
}

// Outputs is the set of four synchronized deques the controller pops
// from: one entry per control sample, all sharing Time at equal indices
// (the queue-synchrony invariant of spec.md section 8).
type Outputs struct {
	ZMP        []ZMPPosition
	CoM        []CoMPosition
	LeftFoot   []FootAbsolutePosition
	RightFoot  []FootAbsolutePosition
}

// Len returns the shared queue length, or -1 if the four queues have
// drifted out of sync (a bug, never expected in normal operation).
func (o Outputs) Len() int {
	n := len(o.ZMP)
	if len(o.CoM) != n || len(o.LeftFoot) != n || len(o.RightFoot) != n {
		return -1
	}
	return n
}

// Dequeue drops the first n samples from every queue, for a controller
// that has consumed them.
func (o *Outputs) Dequeue(n int) {
	if n <= 0 {
		return
	}
	if n > len(o.ZMP) {
		n = len(o.ZMP)
	}
	o.ZMP = o.ZMP[n:]
	o.CoM = o.CoM[n:]
	o.LeftFoot = o.LeftFoot[n:]
	o.RightFoot = o.RightFoot[n:]
}
