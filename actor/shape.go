package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
)

// ShapeInterface is implemented by every convex collision shape.
type ShapeInterface interface {
	Type() ShapeType
	// ComputeAABB caches the world-space bounding box for the given transform
	ComputeAABB(transform Transform)
	GetAABB() AABB
	// Support returns the furthest local-space point along a local-space direction
	Support(direction mgl64.Vec3) mgl64.Vec3
	// Validate reports malformed dimensions; reason is empty when the shape is usable
	Validate() (reason string)
}

// Box is an oriented box defined by its half-extents.
type Box struct {
	HalfExtents mgl64.Vec3
	aabb        AABB
}

func (b *Box) Type() ShapeType {
	return ShapeTypeBox
}

// ComputeAABB projects the rotated half-extents on the world axes:
// extent_i = sum_j |R_ij| * h_j
func (b *Box) ComputeAABB(transform Transform) {
	r := transform.Rotation.Mat4().Mat3()

	var extent mgl64.Vec3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			extent[i] += math.Abs(r.At(i, j)) * b.HalfExtents[j]
		}
	}

	b.aabb = AABB{
		Min: transform.Position.Sub(extent),
		Max: transform.Position.Add(extent),
	}
}

func (b *Box) GetAABB() AABB {
	return b.aabb
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	support := b.HalfExtents
	for i := 0; i < 3; i++ {
		if direction[i] < 0 {
			support[i] = -support[i]
		}
	}
	return support
}

func (b *Box) Validate() string {
	for _, h := range b.HalfExtents {
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return "box half extents must be finite"
		}
		if h <= 0 {
			return "box half extents must be positive"
		}
	}
	return ""
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
	aabb   AABB
}

func (s *Sphere) Type() ShapeType {
	return ShapeTypeSphere
}

// ComputeAABB calculates the axis-aligned bounding box for the sphere.
// Rotation does not matter.
func (s *Sphere) ComputeAABB(transform Transform) {
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	s.aabb = AABB{
		Min: transform.Position.Sub(radiusVec),
		Max: transform.Position.Add(radiusVec),
	}
}

func (s *Sphere) GetAABB() AABB {
	return s.aabb
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	lenSqr := direction.LenSqr()
	if lenSqr == 0 {
		return mgl64.Vec3{s.Radius, 0, 0}
	}
	return direction.Mul(s.Radius / math.Sqrt(lenSqr))
}

func (s *Sphere) Validate() string {
	if math.IsNaN(s.Radius) || math.IsInf(s.Radius, 0) {
		return "sphere radius must be finite"
	}
	if s.Radius <= 0 {
		return "sphere radius must be positive"
	}
	return ""
}
