// Package gjk answers whether two convex bodies overlap.
//
// It runs the Gilbert-Johnson-Keerthi algorithm on the Minkowski difference A - B: the
// bodies overlap exactly when the difference contains the origin. Shapes only have to
// provide a world-space support function.
//
// Touching bodies (distance zero) are reported as overlapping. The result is
// conservative: a pair is only reported apart once a separating direction is found,
// so running out of iterations near contact reports an overlap.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	maxIterations = 32
	degenerate    = 1e-10
)

// Convex is anything with a world-space support mapping.
type Convex interface {
	Center() mgl64.Vec3
	SupportWorld(direction mgl64.Vec3) mgl64.Vec3
}

// Simplex holds 1 to 4 points of the Minkowski difference.
// The most recent point is always Points[Count-1].
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

func (s *Simplex) push(p mgl64.Vec3) {
	s.Points[s.Count] = p
	s.Count++
}

func (s *Simplex) set1(a mgl64.Vec3) {
	s.Points[0] = a
	s.Count = 1
}

// set2 keeps the edge (b, a) with a as newest
func (s *Simplex) set2(b, a mgl64.Vec3) {
	s.Points[0], s.Points[1] = b, a
	s.Count = 2
}

// set3 keeps the triangle (c, b, a) with a as newest
func (s *Simplex) set3(c, b, a mgl64.Vec3) {
	s.Points[0], s.Points[1], s.Points[2] = c, b, a
	s.Count = 3
}

// SimplexPool lets concurrent callers reuse simplices.
var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// MinkowskiSupport returns support(A, d) - support(B, -d).
func MinkowskiSupport(a, b Convex, direction mgl64.Vec3) mgl64.Vec3 {
	return a.SupportWorld(direction).Sub(b.SupportWorld(direction.Mul(-1)))
}

// Overlaps reports whether a and b intersect. The simplex is scratch space and is
// reset on entry; on overlap it holds the enclosing simplex.
func Overlaps(a, b Convex, simplex *Simplex) bool {
	simplex.Reset()

	// start toward B from A, usually saves a few iterations
	direction := b.Center().Sub(a.Center())
	if direction.LenSqr() < degenerate {
		direction = mgl64.Vec3{1, 0, 0}
	}

	simplex.push(MinkowskiSupport(a, b, direction))
	direction = simplex.Points[0].Mul(-1)
	if direction.LenSqr() < degenerate*degenerate {
		return true
	}

	for i := 0; i < maxIterations; i++ {
		p := MinkowskiSupport(a, b, direction)
		// the new point does not pass the origin: a separating axis exists
		if p.Dot(direction) < 0 {
			return false
		}

		simplex.push(p)
		if simplex.refine(&direction) {
			return true
		}
		if direction.LenSqr() < degenerate*degenerate {
			// origin lies on the current feature
			return true
		}
	}

	// no separating axis within the budget
	return true
}

// refine reduces the simplex to the feature closest to the origin and points direction
// at the origin from it. It returns true when the origin is enclosed.
func (s *Simplex) refine(direction *mgl64.Vec3) bool {
	switch s.Count {
	case 2:
		return s.line(direction)
	case 3:
		return s.triangle(direction)
	case 4:
		return s.tetrahedron(direction)
	}
	return false
}

func (s *Simplex) line(direction *mgl64.Vec3) bool {
	a, b := s.Points[1], s.Points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.LenSqr() < degenerate {
		s.set1(a)
		*direction = ao
		return ao.LenSqr() < degenerate
	}

	if ab.Dot(ao) <= 0 {
		s.set1(a)
		*direction = ao
		return false
	}

	perp := ab.Cross(ao).Cross(ab)
	if perp.LenSqr() < degenerate {
		// origin on the segment
		return true
	}
	*direction = perp
	return false
}

func (s *Simplex) triangle(direction *mgl64.Vec3) bool {
	a, b, c := s.Points[2], s.Points[1], s.Points[0]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)
	normal := ab.Cross(ac)

	if normal.LenSqr() < degenerate {
		// collinear, drop the oldest point
		s.set2(b, a)
		return s.line(direction)
	}

	if ab.Cross(normal).Dot(ao) > 0 {
		s.set2(b, a)
		*direction = ab.Cross(ao).Cross(ab)
		return false
	}
	if normal.Cross(ac).Dot(ao) > 0 {
		s.set2(c, a)
		*direction = ac.Cross(ao).Cross(ac)
		return false
	}

	if normal.Dot(ao) > 0 {
		*direction = normal
	} else {
		// keep winding consistent with the search direction
		s.set3(b, c, a)
		*direction = normal.Mul(-1)
	}
	return false
}

func (s *Simplex) tetrahedron(direction *mgl64.Vec3) bool {
	a, b, c, d := s.Points[3], s.Points[2], s.Points[1], s.Points[0]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	// face normals point away from the opposite vertex
	abc := outward(ab.Cross(ac), ad)
	acd := outward(ac.Cross(ad), ab)
	adb := outward(ad.Cross(ab), ac)

	if abc.LenSqr() < degenerate || acd.LenSqr() < degenerate || adb.LenSqr() < degenerate {
		s.set3(c, b, a)
		return s.triangle(direction)
	}

	switch {
	case abc.Dot(ao) > 0:
		s.set3(c, b, a)
	case acd.Dot(ao) > 0:
		s.set3(d, c, a)
	case adb.Dot(ao) > 0:
		s.set3(b, d, a)
	default:
		return true
	}
	return s.triangle(direction)
}

func outward(normal, towardOpposite mgl64.Vec3) mgl64.Vec3 {
	if normal.Dot(towardOpposite) > 0 {
		return normal.Mul(-1)
	}
	return normal
}
