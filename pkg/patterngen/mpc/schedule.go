package mpc

import (
	"github.com/itohio/walkgen/pkg/patterngen"
	"github.com/itohio/walkgen/pkg/patterngen/support"
)

// previewSample is one horizon sample's predicted support-phase state
// and which foot-placement decision variable (if any) governs its CoP
// target.
type previewSample struct {
	state       patterngen.SupportState
	decisionIdx int // -1: the current, already-known stance foot; else 0..S-1
}

// footCadence is one upcoming footstep's timing, orientation and swing
// foot, independent of its (x, y) landing position: spec.md section
// 4.8's decision vector lets the QP decide Fx/Fy itself, so only the
// caller-supplied orientation and durations are carried forward from
// AddFoot/Init — not the commanded (dx, dy).
type footCadence struct {
	swingFoot  patterngen.Foot
	nominalYaw float64
	ssDuration float64
	dsDuration float64
	stepType   patterngen.StepType
}

// buildSchedule rolls a cloned FSM forward N preview samples of period
// T, starting at local time t0, and assigns each sample a decision
// index: -1 while the FSM has not yet swapped support foot, then 0, 1,
// ... for each swap encountered, capped at S-1 (spec.md section 4.8:
// the horizon may span more landings than there are decision
// variables, in which case the tail footsteps share the last one's
// decision).
func buildSchedule(fsm *support.FSM, t0, T float64, N, S int, refVel patterngen.ReferenceVelocity) []previewSample {
	clone := fsm.Clone()
	out := make([]previewSample, N)
	swaps := 0
	t := t0
	for i := 0; i < N; i++ {
		t += T
		before := clone.State().Foot
		state, _ := clone.SetSupportState(t, i+1, refVel)
		if state.Foot != before {
			swaps++
		}
		idx := swaps - 1
		if idx >= S {
			idx = S - 1
		}
		out[i] = previewSample{state: state, decisionIdx: idx}
	}
	return out
}

