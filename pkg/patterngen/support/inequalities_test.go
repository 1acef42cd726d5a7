package support

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itohio/walkgen/pkg/patterngen"
	"github.com/itohio/walkgen/pkg/patterngen/hull"
)

func testDims() FootDimensions {
	return NewFootDimensions(0.1, 0.06, 0.02, 0.01)
}

func TestCoPPolygonContainsStancePosition(t *testing.T) {
	in := NewInequalities(testDims(), testDims(), 0.2)
	state := patterngen.SupportState{Foot: patterngen.Left, Phase: patterngen.SingleSupport, X: 1, Y: 2, Yaw: 0}

	h := in.CoPPolygon(state)
	planes := h.Edges(false)
	require.True(t, hull.Contains(planes, 1, 2, 1e-9))
}

func TestCoPPolygonLeftRightMirrorInSingleSupport(t *testing.T) {
	in := NewInequalities(testDims(), testDims(), 0.2)
	leftEdges := in.CoPEdges(patterngen.SupportState{Foot: patterngen.Left, Phase: patterngen.SingleSupport})
	rightEdges := in.CoPEdges(patterngen.SupportState{Foot: patterngen.Right, Phase: patterngen.SingleSupport})

	require.Len(t, rightEdges, len(leftEdges))
	for i := range leftEdges {
		require.InDelta(t, -leftEdges[i].A, rightEdges[i].A, 1e-12)
		require.InDelta(t, -leftEdges[i].B, rightEdges[i].B, 1e-12)
		require.InDelta(t, -leftEdges[i].D, rightEdges[i].D, 1e-12)
	}
}

func TestCoPPolygonShiftsTowardCenterlineInDoubleSupport(t *testing.T) {
	in := NewInequalities(testDims(), testDims(), 0.2)
	leftDS := in.CoPPolygon(patterngen.SupportState{Foot: patterngen.Left, Phase: patterngen.DoubleSupport})
	leftSS := in.CoPPolygon(patterngen.SupportState{Foot: patterngen.Left, Phase: patterngen.SingleSupport})

	// The DS polygon's vertex 0 should be shifted by -DSFeetDistance/2
	// relative to the SS polygon's vertex 0 (both un-rotated, un-translated
	// about the origin in this test).
	require.InDelta(t, leftSS.Vertices[0].Y-0.1, leftDS.Vertices[0].Y, 1e-9)
}

func TestFootholdPolygonBothFeetHaveFiveVertices(t *testing.T) {
	in := NewInequalities(testDims(), testDims(), 0.2)
	left := in.FootholdPolygon(patterngen.SupportState{Foot: patterngen.Left})
	right := in.FootholdPolygon(patterngen.SupportState{Foot: patterngen.Right})
	require.Len(t, left.Vertices, 5)
	require.Len(t, right.Vertices, 5)
}

func TestFootholdPolygonContainsItsOwnCentroid(t *testing.T) {
	in := NewInequalities(testDims(), testDims(), 0.2)

	left := in.FootholdEdges(patterngen.SupportState{Foot: patterngen.Left})
	require.True(t, hull.Contains(left, 0, -0.28, 1e-9))

	right := in.FootholdEdges(patterngen.SupportState{Foot: patterngen.Right})
	require.True(t, hull.Contains(right, 0, 0.28, 1e-9))
}

func TestSetSecurityMarginsShrinksBothFeet(t *testing.T) {
	in := NewInequalities(testDims(), testDims(), 0.2)
	before := in.Left.HalfWidth
	in.SetSecurityMargins(0.1, 0.06, 0.05, 0.03)
	require.Less(t, in.Left.HalfWidth, before)
	require.Equal(t, in.Left.HalfWidth, in.Right.HalfWidth)
}
