package gjk

import (
	"math"
	"testing"

	"github.com/akmonengine/orbit/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func createBox(t *testing.T, position, halfExtents mgl64.Vec3, rotation mgl64.Quat) *actor.Body {
	t.Helper()
	body, err := actor.NewBody("box", actor.NewTransformAt(position, rotation), &actor.Box{HalfExtents: halfExtents})
	if err != nil {
		t.Fatalf("NewBody: %v", err)
	}
	return body
}

func createSphere(t *testing.T, position mgl64.Vec3, radius float64) *actor.Body {
	t.Helper()
	body, err := actor.NewBody("sphere", actor.NewTransformAt(position, mgl64.QuatIdent()), &actor.Sphere{Radius: radius})
	if err != nil {
		t.Fatalf("NewBody: %v", err)
	}
	return body
}

func TestMinkowskiSupport(t *testing.T) {
	a := createSphere(t, mgl64.Vec3{0, 0, 0}, 1.0)
	b := createSphere(t, mgl64.Vec3{3, 0, 0}, 1.0)

	// max(A.x) - min(B.x) = 1 - 2
	support := MinkowskiSupport(a, b, mgl64.Vec3{1, 0, 0})
	if support.X() != -1.0 {
		t.Errorf("Expected support.X = -1, got %v", support.X())
	}

	// min(A.x) - max(B.x) = -1 - 4
	support = MinkowskiSupport(a, b, mgl64.Vec3{-1, 0, 0})
	if support.X() != -5.0 {
		t.Errorf("Expected support.X = -5, got %v", support.X())
	}
}

func TestOverlapsSpheres(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		expected bool
	}{
		{"concentric", 0, true},
		{"overlapping", 1.5, true},
		{"barely overlapping", 1.999, true},
		{"separated", 2.5, false},
		{"far apart", 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := createSphere(t, mgl64.Vec3{0, 0, 0}, 1.0)
			b := createSphere(t, mgl64.Vec3{tt.distance, 0, 0}, 1.0)

			if got := Overlaps(a, b, &Simplex{}); got != tt.expected {
				t.Errorf("Overlaps() = %v, want %v", got, tt.expected)
			}
			if got := Overlaps(b, a, &Simplex{}); got != tt.expected {
				t.Errorf("Overlaps() reversed = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestOverlapsBoxes(t *testing.T) {
	ident := mgl64.QuatIdent()
	half := mgl64.Vec3{1, 1, 1}

	t.Run("disjoint beyond combined half extents", func(t *testing.T) {
		a := createBox(t, mgl64.Vec3{0, 0, 0}, half, ident)
		b := createBox(t, mgl64.Vec3{2.5, 0, 0}, half, ident)
		if Overlaps(a, b, &Simplex{}) {
			t.Error("Expected no overlap")
		}
	})

	t.Run("enclosing the other center", func(t *testing.T) {
		a := createBox(t, mgl64.Vec3{0, 0, 0}, half, ident)
		b := createBox(t, mgl64.Vec3{0.5, 0.2, -0.3}, mgl64.Vec3{3, 3, 3}, ident)
		if !Overlaps(a, b, &Simplex{}) {
			t.Error("Expected overlap")
		}
	})

	t.Run("diagonal separation", func(t *testing.T) {
		a := createBox(t, mgl64.Vec3{0, 0, 0}, half, ident)
		b := createBox(t, mgl64.Vec3{2.1, 2.1, 2.1}, half, ident)
		if Overlaps(a, b, &Simplex{}) {
			t.Error("Expected no overlap")
		}
	})

	t.Run("rotated box reaches across the gap", func(t *testing.T) {
		// a unit cube turned 45 degrees about z spans sqrt(2) along x
		a := createBox(t, mgl64.Vec3{0, 0, 0}, half, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}))
		b := createBox(t, mgl64.Vec3{2.3, 0, 0}, half, ident)
		if !Overlaps(a, b, &Simplex{}) {
			t.Error("Expected overlap with rotated box")
		}

		c := createBox(t, mgl64.Vec3{2.5, 0, 0}, half, ident)
		if Overlaps(a, c, &Simplex{}) {
			t.Error("Expected no overlap beyond the rotated corner")
		}
	})

	t.Run("thin wall", func(t *testing.T) {
		wall := createBox(t, mgl64.Vec3{0, 0, 0.5}, mgl64.Vec3{4, 0.005, 0.5}, ident)
		near := createSphere(t, mgl64.Vec3{1, 0.1, 0.3}, 0.2)
		far := createSphere(t, mgl64.Vec3{1, 0.3, 0.3}, 0.2)
		if !Overlaps(wall, near, &Simplex{}) {
			t.Error("Expected sphere to hit the wall")
		}
		if Overlaps(wall, far, &Simplex{}) {
			t.Error("Expected sphere to clear the wall")
		}
	})
}

func TestOverlapsMixedShapes(t *testing.T) {
	box := createBox(t, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}, mgl64.QuatIdent())

	// the sphere sits off the box corner: AABBs overlap, shapes do not
	corner := createSphere(t, mgl64.Vec3{1.3, 1.3, 0}, 0.4)
	if Overlaps(box, corner, &Simplex{}) {
		t.Error("Expected sphere near the corner to miss")
	}

	face := createSphere(t, mgl64.Vec3{1.4, 0, 0}, 0.5)
	if !Overlaps(box, face, &Simplex{}) {
		t.Error("Expected sphere against the face to overlap")
	}
}

func TestOverlapsNearContact(t *testing.T) {
	const halfThickness = 0.005
	const radius = 0.2

	for _, degrees := range []float64{0, 17, 45, 90, 133} {
		rotation := mgl64.QuatRotate(mgl64.DegToRad(degrees), mgl64.Vec3{0, 0, 1})
		wall := createBox(t, mgl64.Vec3{0, 0, 0.5}, mgl64.Vec3{2, halfThickness, 0.5}, rotation)
		along := rotation.Rotate(mgl64.Vec3{1, 0, 0})
		normal := rotation.Rotate(mgl64.Vec3{0, 1, 0})

		for _, u := range []float64{-1.5, -0.7, 0, 0.3, 1.5} {
			for _, z := range []float64{0.2, 0.5, 0.8} {
				onFace := mgl64.Vec3{0, 0, z}.Add(along.Mul(u))

				for _, side := range []float64{1, -1} {
					n := normal.Mul(side)
					simplex := &Simplex{}

					touching := createSphere(t, onFace.Add(n.Mul(halfThickness+radius-1e-6)), radius)
					if !Overlaps(wall, touching, simplex) || !Overlaps(touching, wall, simplex) {
						t.Errorf("%v deg, u=%v z=%v side=%v: sphere 1e-6 into the wall not detected", degrees, u, z, side)
					}

					clear := createSphere(t, onFace.Add(n.Mul(halfThickness+radius+1e-2)), radius)
					if Overlaps(wall, clear, simplex) {
						t.Errorf("%v deg, u=%v z=%v side=%v: sphere 1e-2 off the wall reported", degrees, u, z, side)
					}
				}
			}
		}
	}
}

func TestSimplexReuse(t *testing.T) {
	simplex := SimplexPool.Get().(*Simplex)
	defer SimplexPool.Put(simplex)

	a := createSphere(t, mgl64.Vec3{0, 0, 0}, 1.0)
	b := createSphere(t, mgl64.Vec3{1, 0, 0}, 1.0)
	c := createSphere(t, mgl64.Vec3{5, 0, 0}, 1.0)

	for i := 0; i < 3; i++ {
		if !Overlaps(a, b, simplex) {
			t.Fatal("Expected overlap")
		}
		if Overlaps(a, c, simplex) {
			t.Fatal("Expected no overlap")
		}
	}
}

func TestLineRegions(t *testing.T) {
	t.Run("origin behind newest point", func(t *testing.T) {
		s := &Simplex{Points: [4]mgl64.Vec3{{3, 0, 0}, {1, 0, 0}}, Count: 2}
		var direction mgl64.Vec3
		if s.line(&direction) {
			t.Fatal("line cannot enclose the origin here")
		}
		if s.Count != 1 || s.Points[0] != (mgl64.Vec3{1, 0, 0}) {
			t.Errorf("Expected reduction to the newest point, got %v (%d)", s.Points[0], s.Count)
		}
	})

	t.Run("origin on the segment", func(t *testing.T) {
		s := &Simplex{Points: [4]mgl64.Vec3{{-1, 0, 0}, {1, 0, 0}}, Count: 2}
		var direction mgl64.Vec3
		if !s.line(&direction) {
			t.Error("Expected origin on segment to count as contact")
		}
	})

	t.Run("origin beside the segment", func(t *testing.T) {
		s := &Simplex{Points: [4]mgl64.Vec3{{-1, 1, 0}, {1, 1, 0}}, Count: 2}
		var direction mgl64.Vec3
		s.line(&direction)
		if direction.Y() >= 0 || math.Abs(direction.X()) > 1e-12 {
			t.Errorf("Expected direction toward -y, got %v", direction)
		}
	})
}

func TestTetrahedronEnclosesOrigin(t *testing.T) {
	s := &Simplex{Points: [4]mgl64.Vec3{
		{1, -1, -1},
		{-1, 1, -1},
		{-1, -1, 1},
		{1, 1, 1},
	}, Count: 4}
	var direction mgl64.Vec3
	if !s.tetrahedron(&direction) {
		t.Error("Expected tetrahedron to enclose the origin")
	}

	shifted := &Simplex{Count: 4}
	for i := range s.Points {
		shifted.Points[i] = s.Points[i].Add(mgl64.Vec3{5, 0, 0})
	}
	if shifted.tetrahedron(&direction) {
		t.Error("Expected shifted tetrahedron to exclude the origin")
	}
	if shifted.Count != 3 {
		t.Errorf("Expected reduction to a face, got %d points", shifted.Count)
	}
}
