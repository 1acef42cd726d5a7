// Package hull implements the convex hull primitive shared by the CoP
// feasibility and foothold-reachability polygons: an ordered polygon of
// 2-D vertices with rotation by yaw and half-plane extraction.
package hull

import "math"

// Vertex is one (x, y) polygon vertex.
type Vertex struct {
	X, Y float64
}

// HalfPlane is one edge's inequality a*x + b*y <= d, true for points
// inside the polygon.
type HalfPlane struct {
	A, B, D float64
}

// Satisfied reports whether (x, y) is on the inside of the half-plane,
// within the given tolerance.
func (h HalfPlane) Satisfied(x, y, eps float64) bool {
	return h.A*x+h.B*y <= h.D+eps
}

// Hull is an ordered, clockwise polygon.
type Hull struct {
	Vertices []Vertex
}

// New builds a hull from the given ordered vertices.
func New(vertices ...Vertex) Hull {
	return Hull{Vertices: append([]Vertex(nil), vertices...)}
}

// Rotate rotates every vertex in place by yaw (radians), about the
// origin.
func (h *Hull) Rotate(yaw float64) {
	c, s := math.Cos(yaw), math.Sin(yaw)
	for i, v := range h.Vertices {
		h.Vertices[i] = Vertex{
			X: c*v.X - s*v.Y,
			Y: s*v.X + c*v.Y,
		}
	}
}

// Translate shifts every vertex by (dx, dy).
func (h *Hull) Translate(dx, dy float64) {
	for i := range h.Vertices {
		h.Vertices[i].X += dx
		h.Vertices[i].Y += dy
	}
}

// Rotated returns a copy of h rotated by yaw, leaving h untouched.
func (h Hull) Rotated(yaw float64) Hull {
	c := h.Clone()
	c.Rotate(yaw)
	return c
}

// Clone returns a deep copy.
func (h Hull) Clone() Hull {
	return Hull{Vertices: append([]Vertex(nil), h.Vertices...)}
}

// Edges returns, for each consecutive pair of vertices (including
// wrap-around), the half-plane such that the inside of the polygon is
// a*x + b*y <= d, per spec.md section 4.2:
//
//	a = y_i - y_{i+1}
//	b = x_{i+1} - x_i
//	d = a*x_i + b*y_i
//
// This makes "inside" the a*x+b*y<=d half-plane only when Vertices is
// wound clockwise (y-axis up); New/Rectangle build clockwise hulls for
// this reason.
//
// For support == Right the coefficients are mirrored about the sagittal
// axis by negating (a, b, d).
func (h Hull) Edges(right bool) []HalfPlane {
	n := len(h.Vertices)
	if n < 3 {
		return nil
	}
	planes := make([]HalfPlane, n)
	for i := 0; i < n; i++ {
		v0 := h.Vertices[i]
		v1 := h.Vertices[(i+1)%n]
		a := v0.Y - v1.Y
		b := v1.X - v0.X
		d := a*v0.X + b*v0.Y
		if right {
			a, b, d = -a, -b, -d
		}
		planes[i] = HalfPlane{A: a, B: b, D: d}
	}
	return planes
}

// Contains reports whether (x, y) satisfies every half-plane in planes,
// within eps.
func Contains(planes []HalfPlane, x, y, eps float64) bool {
	for _, p := range planes {
		if !p.Satisfied(x, y, eps) {
			return false
		}
	}
	return true
}

// Rectangle builds the 4-vertex rectangle of half-width w/2 and
// half-height h/2, centered at the origin, in clockwise order — the
// shape used by the CoP feasibility polygon under a stance foot.
func Rectangle(width, height float64) Hull {
	w, h2 := width/2, height/2
	return New(
		Vertex{X: w, Y: h2},
		Vertex{X: w, Y: -h2},
		Vertex{X: -w, Y: -h2},
		Vertex{X: -w, Y: h2},
	)
}
