package mpc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itohio/walkgen/pkg/patterngen"
	"github.com/itohio/walkgen/pkg/patterngen/support"
)

func newTestOrchestrator() (*Orchestrator, patterngen.InitialState) {
	fsm := support.New(patterngen.SupportState{
		Foot:      patterngen.Left,
		Phase:     patterngen.DoubleSupport,
		StepsLeft: 4,
		TimeLimit: 0.3,
	})
	dims := support.NewFootDimensions(0.1, 0.06, 0.01, 0.01)
	ineq := support.NewInequalities(dims, dims, 0.2)

	opts := DefaultOptions()
	opts.SamplePeriod = 0.01
	opts.N = 8
	opts.Tprw = 0.1

	seed := patterngen.InitialState{
		CoMX:      patterngen.CoMPosition{X: [3]float64{0, 0, 0}},
		CoMY:      patterngen.CoMPosition{X: [3]float64{0.1, 0, 0}},
		LeftFoot:  patterngen.FootAbsolutePosition{X: 0, Y: 0.1},
		RightFoot: patterngen.FootAbsolutePosition{X: 0, Y: -0.1},
	}
	return New(fsm, ineq, opts), seed
}

func TestInitSeedsTheComStateAndBuildsTheInvariantBlock(t *testing.T) {
	o, seed := newTestOrchestrator()
	require.NoError(t, o.Init(seed, nil))
	require.Equal(t, seed.CoMX.X, o.c0x)
	require.Equal(t, seed.CoMY.X, o.c0y)
	require.Len(t, o.inv.QJJ, o.opts.N)
}

func TestTickProducesSynchronizedOutputQueues(t *testing.T) {
	o, seed := newTestOrchestrator()
	require.NoError(t, o.Init(seed, []patterngen.RelativeFootPosition{
		{DTheta: 0, SSDuration: 0.3, DSDuration: 0.1, StepType: 1},
	}))
	o.SetReferenceVelocity(patterngen.ReferenceVelocity{X: 0.1})

	out, err := o.Tick(0.5)
	require.NoError(t, err)
	require.Greater(t, out.Len(), 0)
}

func TestTickResolvesTheQPAtEveryPreviewBoundary(t *testing.T) {
	o, seed := newTestOrchestrator()
	require.NoError(t, o.Init(seed, nil))
	o.SetReferenceVelocity(patterngen.ReferenceVelocity{X: 0.05})

	_, err := o.Tick(0.35)
	require.NoError(t, err)
	require.GreaterOrEqual(t, o.lastSolveLocal, 0.3)
}

func TestAddFootQueuesAStepForTheCadence(t *testing.T) {
	o, seed := newTestOrchestrator()
	require.NoError(t, o.Init(seed, nil))

	require.NoError(t, o.AddFoot(patterngen.RelativeFootPosition{DTheta: 0.1, SSDuration: 0.3, DSDuration: 0.1}))
	require.Len(t, o.queued, 1)
}

func TestAddFootRejectedAfterEnd(t *testing.T) {
	o, seed := newTestOrchestrator()
	require.NoError(t, o.Init(seed, nil))
	require.NoError(t, o.End(0))

	err := o.AddFoot(patterngen.RelativeFootPosition{SSDuration: 0.3, DSDuration: 0.1})
	require.ErrorIs(t, err, patterngen.ErrTooLateForModification)
}

func TestChangeFootRejectsAnUnknownIndex(t *testing.T) {
	o, seed := newTestOrchestrator()
	require.NoError(t, o.Init(seed, nil))

	err := o.ChangeFoot(0, 3, patterngen.AbsoluteFrame, 0, 0, 0.1)
	require.ErrorIs(t, err, patterngen.ErrWrongFootType)
}

func TestChangeFootRejectsAnAlreadyCommittedStep(t *testing.T) {
	o, seed := newTestOrchestrator()
	require.NoError(t, o.Init(seed, []patterngen.RelativeFootPosition{
		{SSDuration: 0.3, DSDuration: 0.1},
	}))

	err := o.ChangeFoot(1.0, 0, patterngen.AbsoluteFrame, 0, 0, 0.1)
	require.ErrorIs(t, err, patterngen.ErrTooLateForModification)
}

func TestChangeFootEditsOnlyOrientation(t *testing.T) {
	o, seed := newTestOrchestrator()
	require.NoError(t, o.Init(seed, []patterngen.RelativeFootPosition{
		{DX: 0.2, DY: -0.1, SSDuration: 0.3, DSDuration: 0.1},
	}))

	require.NoError(t, o.ChangeFoot(0, 0, patterngen.AbsoluteFrame, 0.5, 0.5, 0.2))
	require.InDelta(t, 0.2, o.queued[0].DTheta, 1e-9)
	require.InDelta(t, 0.2, o.queued[0].DX, 1e-9, "dx is decided online by the QP, not by ChangeFoot")
}

func TestEndDropsTheReferenceVelocityToZero(t *testing.T) {
	o, seed := newTestOrchestrator()
	require.NoError(t, o.Init(seed, nil))
	o.SetReferenceVelocity(patterngen.ReferenceVelocity{X: 0.3})
	require.NoError(t, o.End(0))

	require.Equal(t, patterngen.ReferenceVelocity{}, o.referenceVelocity())
}

func TestOutputsReturnsEverythingGeneratedSoFar(t *testing.T) {
	o, seed := newTestOrchestrator()
	require.NoError(t, o.Init(seed, nil))
	_, err := o.Tick(0.2)
	require.NoError(t, err)

	require.Equal(t, o.out, o.Outputs())
}
