package support

import (
	"github.com/itohio/walkgen/pkg/patterngen"
	"github.com/itohio/walkgen/pkg/patterngen/hull"
)

// FootDimensions describes one foot's sole extents, already shrunk by
// the security margins (spec.md section 6: SecurityMarginX_/Y_).
type FootDimensions struct {
	HalfWidth    float64
	HalfHeight   float64
	HalfHeightDS float64
}

// NewFootDimensions derives the margin-shrunk half extents from the raw
// sole half-width/half-height and the two security margins.
func NewFootDimensions(halfWidth, halfHeight, marginX, marginY float64) FootDimensions {
	hw := halfWidth - marginX
	hh := halfHeight - marginY
	return FootDimensions{HalfWidth: hw, HalfHeight: hh, HalfHeightDS: hh}
}

// Inequalities holds the margin-shrunk foot geometry the CoP feasibility
// polygons are built from on demand, updated whenever the security
// margins change (the ":setfeetconstraint" command of spec.md section
// 6), and the foothold reachability polygons (their un-rotated,
// un-offset base shapes).
type Inequalities struct {
	Left, Right                 FootDimensions
	DSFeetDistance              float64
	FootholdLeft, FootholdRight hull.Hull
}

// NewInequalities builds the default foothold hulls and stores the foot
// geometry used to build CoP hulls on demand.
func NewInequalities(left, right FootDimensions, dsFeetDistance float64) *Inequalities {
	return &Inequalities{
		Left:           left,
		Right:          right,
		DSFeetDistance: dsFeetDistance,
		FootholdLeft:   defaultFootholdHull(false),
		FootholdRight:  defaultFootholdHull(true),
	}
}

// SetSecurityMargins rebuilds the margin-shrunk half extents in place,
// the effect of the ":setfeetconstraint XY mx my" command.
func (in *Inequalities) SetSecurityMargins(rawHalfWidth, rawHalfHeight, marginX, marginY float64) {
	in.Left = NewFootDimensions(rawHalfWidth, rawHalfHeight, marginX, marginY)
	in.Right = NewFootDimensions(rawHalfWidth, rawHalfHeight, marginX, marginY)
}

// CoPPolygon builds the CoP feasibility hull for one support state: the
// sole-sized, margin-shrunk rectangle under the stance foot, shifted
// toward the centerline during double support, rotated by the stance
// yaw and translated to the stance position (spec.md section 4.6).
//
// The corrected Open Question resolution from spec.md section 9 applies
// here implicitly: both X and Y vectors are always set from the matching
// Foot/Phase combination (the original source's LEFT/SS branch wrote
// Y_vec twice and never X_vec; this builds both vectors unconditionally
// for every combination, so the bug cannot recur).
//
// The returned hull's vertex winding follows the LEFT-support convention
// regardless of state.Foot; use CoPEdges, not Edges directly, to get
// half-planes with the correct sign for a RIGHT support (spec.md section
// 8's half-plane mirror invariant: mirroring the vertex set by negating
// a coordinate in place reverses its winding, so the sign must be fixed
// up afterward rather than baked into the vertices).
func (in *Inequalities) CoPPolygon(state patterngen.SupportState) hull.Hull {
	dims := in.Left
	if state.Foot == patterngen.Right {
		dims = in.Right
	}

	hw := dims.HalfWidth
	hh := dims.HalfHeight
	if state.Phase == patterngen.DoubleSupport {
		hh = dims.HalfHeightDS
	}

	yOffset := 0.0
	if state.Phase == patterngen.DoubleSupport {
		if state.Foot == patterngen.Left {
			yOffset = -in.DSFeetDistance / 2
		} else {
			yOffset = in.DSFeetDistance / 2
		}
	}

	h := hull.Rectangle(2*hw, 2*hh)
	h.Translate(0, yOffset)
	h.Rotate(state.Yaw)
	h.Translate(state.X, state.Y)
	return h
}

// CoPEdges returns the CoP feasibility half-planes for state, with the
// sign mirrored for a RIGHT support (spec.md section 8).
func (in *Inequalities) CoPEdges(state patterngen.SupportState) []hull.HalfPlane {
	return in.CoPPolygon(state).Edges(state.Foot == patterngen.Right)
}

// footholdEdgesX/Y are the fixed 5-vertex pentagon describing the swing
// foot's reachable landing region relative to the stance foot, asymmetric
// so the inner boundary avoids self-collision (spec.md section 4.6).
// Listed in reverse of their natural left-to-right order so the hull
// winds clockwise, matching the Edges convention.
var footholdEdgesX = [5]float64{0.28, 0.2, 0.0, -0.2, -0.28}
var footholdEdgesYLeft = [5]float64{-0.2, -0.3, -0.4, -0.3, -0.2}

func defaultFootholdHull(right bool) hull.Hull {
	const n = 5
	verts := make([]hull.Vertex, n)
	if !right {
		for i := 0; i < n; i++ {
			verts[i] = hull.Vertex{X: footholdEdgesX[i], Y: footholdEdgesYLeft[i]}
		}
		return hull.New(verts...)
	}
	// Mirroring across the X axis reverses winding direction, so the
	// traversal order is reversed too, to keep the hull clockwise.
	for i := 0; i < n; i++ {
		src := n - 1 - i
		verts[i] = hull.Vertex{X: footholdEdgesX[src], Y: -footholdEdgesYLeft[src]}
	}
	return hull.New(verts...)
}

// FootholdPolygon returns the reachable-landing hull for the swing foot
// relative to the given stance state, rotated by the stance yaw and
// translated to the stance position.
func (in *Inequalities) FootholdPolygon(stance patterngen.SupportState) hull.Hull {
	var h hull.Hull
	if stance.Foot == patterngen.Left {
		h = in.FootholdLeft.Clone()
	} else {
		h = in.FootholdRight.Clone()
	}
	h.Rotate(stance.Yaw)
	h.Translate(stance.X, stance.Y)
	return h
}

// FootholdEdges returns the foothold reachability half-planes for the
// swing foot opposite stance.Foot.
func (in *Inequalities) FootholdEdges(stance patterngen.SupportState) []hull.HalfPlane {
	return in.FootholdPolygon(stance).Edges(false)
}
