package mpc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itohio/walkgen/pkg/patterngen"
	"github.com/itohio/walkgen/pkg/patterngen/support"
)

func TestBuildScheduleAssignsMinusOneBeforeTheFirstSwap(t *testing.T) {
	fsm := support.New(patterngen.SupportState{
		Foot:      patterngen.Left,
		Phase:     patterngen.DoubleSupport,
		StepsLeft: 5,
		TimeLimit: 0.5,
	})
	refVel := patterngen.ReferenceVelocity{X: 0.2}

	schedule := buildSchedule(fsm, 0, 0.1, 6, 2, refVel)
	require.Len(t, schedule, 6)
	for _, s := range schedule[:4] {
		require.Equal(t, -1, s.decisionIdx)
	}
}

func TestBuildScheduleCapsDecisionIndexAtSMinusOne(t *testing.T) {
	fsm := support.New(patterngen.SupportState{
		Foot:      patterngen.Left,
		Phase:     patterngen.SingleSupport,
		StepsLeft: 20,
		TimeLimit: 0.01,
	}, support.WithSingleSupportDuration(0.1), support.WithDoubleSupportDuration(0.05))
	refVel := patterngen.ReferenceVelocity{X: 0.3}

	schedule := buildSchedule(fsm, 0, 0.1, 16, 2, refVel)
	for _, s := range schedule {
		require.LessOrEqual(t, s.decisionIdx, 1)
	}
	require.Equal(t, 1, schedule[len(schedule)-1].decisionIdx)
}

func TestBuildScheduleDoesNotMutateTheLiveFSM(t *testing.T) {
	fsm := support.New(patterngen.SupportState{
		Foot:      patterngen.Left,
		Phase:     patterngen.SingleSupport,
		StepsLeft: 20,
		TimeLimit: 0.01,
	})
	before := fsm.State()

	buildSchedule(fsm, 0, 0.1, 8, 2, patterngen.ReferenceVelocity{X: 0.3})
	require.Equal(t, before, fsm.State())
}
