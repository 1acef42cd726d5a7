package mpc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itohio/walkgen/pkg/patterngen"
	"github.com/itohio/walkgen/pkg/patterngen/qp"
	"github.com/itohio/walkgen/pkg/patterngen/support"
)

func TestBuildInvariantPartProducesASymmetricQJJ(t *testing.T) {
	inv := BuildInvariantPart(4, 2, 0.1, 0.08, DefaultWeights())
	require.Len(t, inv.QJJ, 4)
	for i := range inv.QJJ {
		for j := range inv.QJJ[i] {
			require.InDelta(t, inv.QJJ[i][j], inv.QJJ[j][i], 1e-9)
		}
	}
	require.Equal(t, 12, inv.dim())
}

func TestOffsetsLayOutJerkXJerkYFxFyInOrder(t *testing.T) {
	inv := BuildInvariantPart(3, 2, 0.1, 0.08, DefaultWeights())
	off := inv.offsets()
	require.Equal(t, 0, off.jerkX)
	require.Equal(t, 3, off.jerkY)
	require.Equal(t, 6, off.fx)
	require.Equal(t, 8, off.fy)
}

func testInequalities() *support.Inequalities {
	dims := support.NewFootDimensions(0.1, 0.06, 0.01, 0.01)
	return support.NewInequalities(dims, dims, 0.2)
}

func TestUpdateProblemSizesTheProblemForEveryConstraintRow(t *testing.T) {
	inv := BuildInvariantPart(2, 1, 0.1, 0.08, DefaultWeights())
	ctx := TickContext{
		RefVelX: make([]float64, 2),
		RefVelY: make([]float64, 2),
		Schedule: []previewSample{
			{state: patterngen.SupportState{Foot: patterngen.Left, Phase: patterngen.SingleSupport}, decisionIdx: -1},
			{state: patterngen.SupportState{Foot: patterngen.Right, Phase: patterngen.SingleSupport}, decisionIdx: 0},
		},
		Cadence:    []footCadence{{swingFoot: patterngen.Right, nominalYaw: 0}},
		StanceFoot: patterngen.Left,
		Ineq:       testInequalities(),
	}

	var prob qp.Problem
	UpdateProblem(&prob, inv, ctx)

	require.Equal(t, inv.dim(), prob.N())
	// 4 CoP edges for the fixed-stance sample, 4 for the decided-foot
	// sample, 5 foothold edges for the one decided foot.
	require.Equal(t, 13, prob.M())
}

func TestUpdateProblemKeepsTheJerkJerkBlockInvariant(t *testing.T) {
	inv := BuildInvariantPart(2, 1, 0.1, 0.08, DefaultWeights())
	ctx := TickContext{
		RefVelX: make([]float64, 2),
		RefVelY: make([]float64, 2),
		Schedule: []previewSample{
			{state: patterngen.SupportState{Foot: patterngen.Left, Phase: patterngen.SingleSupport}, decisionIdx: -1},
			{state: patterngen.SupportState{Foot: patterngen.Left, Phase: patterngen.SingleSupport}, decisionIdx: -1},
		},
		Cadence:    []footCadence{{swingFoot: patterngen.Right, nominalYaw: 0}},
		StanceFoot: patterngen.Left,
		Ineq:       testInequalities(),
	}

	var prob qp.Problem
	UpdateProblem(&prob, inv, ctx)

	off := inv.offsets()
	for i := 0; i < inv.N; i++ {
		for j := 0; j < inv.N; j++ {
			require.InDelta(t, inv.QJJ[i][j], prob.Q[off.jerkX+i][off.jerkX+j], 1e-9)
			require.InDelta(t, inv.QJJ[i][j], prob.Q[off.jerkY+i][off.jerkY+j], 1e-9)
		}
	}
}

func TestUpdateProblemSolvesToAFeasibleCoP(t *testing.T) {
	inv := BuildInvariantPart(4, 1, 0.1, 0.08, DefaultWeights())
	ineq := testInequalities()

	schedule := make([]previewSample, 4)
	for i := range schedule {
		schedule[i] = previewSample{
			state:       patterngen.SupportState{Foot: patterngen.Left, Phase: patterngen.SingleSupport, X: 0, Y: 0.1},
			decisionIdx: -1,
		}
	}
	ctx := TickContext{
		RefVelX:    make([]float64, 4),
		RefVelY:    make([]float64, 4),
		Schedule:   schedule,
		Cadence:    []footCadence{{swingFoot: patterngen.Right, nominalYaw: 0}},
		StanceFoot: patterngen.Left,
		StanceX:    0, StanceY: 0.1,
		Ineq: ineq,
	}

	var prob qp.Problem
	UpdateProblem(&prob, inv, ctx)
	require.NoError(t, prob.Solve())
}
