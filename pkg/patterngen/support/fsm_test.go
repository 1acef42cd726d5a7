package support

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itohio/walkgen/pkg/patterngen"
)

func initialState() patterngen.SupportState {
	return patterngen.SupportState{
		Foot:       patterngen.Left,
		Phase:      patterngen.DoubleSupport,
		StepsLeft:  4,
		StepNumber: 0,
		TimeLimit:  0.1,
	}
}

func TestSSTransitionsToDSAtTimeLimit(t *testing.T) {
	fsm := New(patterngen.SupportState{
		Foot:      patterngen.Left,
		Phase:     patterngen.SingleSupport,
		StepsLeft: 3,
		TimeLimit: 0.7,
	})

	s, err := fsm.SetSupportState(0.7, 1, patterngen.ReferenceVelocity{X: 0.2})
	require.NoError(t, err)
	require.Equal(t, patterngen.DoubleSupport, s.Phase)
	require.InDelta(t, 0.8, s.TimeLimit, 1e-12)
}

func TestDSTransitionsToOppositeFootSS(t *testing.T) {
	fsm := New(initialState())

	s, err := fsm.SetSupportState(0.1, 1, patterngen.ReferenceVelocity{X: 0.2})
	require.NoError(t, err)
	require.Equal(t, patterngen.SingleSupport, s.Phase)
	require.Equal(t, patterngen.Right, s.Foot)
	require.Equal(t, 3, s.StepsLeft)
	require.Equal(t, 1, s.StepNumber)
	require.InDelta(t, 0.8, s.TimeLimit, 1e-12)
}

func TestStaysInDoubleSupportWhenStepsExhausted(t *testing.T) {
	s0 := initialState()
	s0.StepsLeft = 0
	fsm := New(s0)

	s, err := fsm.SetSupportState(0.1, 1, patterngen.ReferenceVelocity{X: 0.2})
	require.NoError(t, err)
	require.Equal(t, patterngen.DoubleSupport, s.Phase)
	require.Equal(t, 0, s.StepsLeft)
}

func TestStopsOnLastStepWhenVelocityBelowThreshold(t *testing.T) {
	s0 := initialState()
	s0.StepsLeft = 1
	fsm := New(s0)

	s, err := fsm.SetSupportState(0.1, 1, patterngen.ReferenceVelocity{})
	require.NoError(t, err)
	require.Equal(t, patterngen.DoubleSupport, s.Phase)
	require.Equal(t, patterngen.Left, s.Foot)
	require.Equal(t, 1, s.StepsLeft)
}

func TestContinuesOnLastStepWhenVelocityAboveThreshold(t *testing.T) {
	s0 := initialState()
	s0.StepsLeft = 1
	fsm := New(s0)

	s, err := fsm.SetSupportState(0.1, 1, patterngen.ReferenceVelocity{X: 0.2})
	require.NoError(t, err)
	require.Equal(t, patterngen.SingleSupport, s.Phase)
	require.Equal(t, 0, s.StepsLeft)
}

func TestRejectsNonPositivePreviewIndex(t *testing.T) {
	fsm := New(initialState())
	_, err := fsm.SetSupportState(0.1, 0, patterngen.ReferenceVelocity{})
	require.Error(t, err)
}

func TestSetStancePoseUpdatesPlanarPose(t *testing.T) {
	fsm := New(initialState())
	fsm.SetStancePose(1, 2, 0.3)
	s := fsm.State()
	require.Equal(t, 1.0, s.X)
	require.Equal(t, 2.0, s.Y)
	require.Equal(t, 0.3, s.Yaw)
}
