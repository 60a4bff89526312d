package actor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// InvalidGeometryError is returned for bodies that cannot take part in overlap tests.
type InvalidGeometryError struct {
	Name   string
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid geometry %q: %s", e.Name, e.Reason)
}

// Body is a named convex shape placed in the world. Static scenery and the
// moving agent are both bodies; only the agent's transform changes over time.
type Body struct {
	Name      string
	Transform Transform
	Shape     ShapeInterface
}

// NewBody validates the geometry and caches its bounding box.
func NewBody(name string, transform Transform, shape ShapeInterface) (*Body, error) {
	b := &Body{
		Name:      name,
		Transform: transform,
		Shape:     shape,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	b.Transform = NewTransformAt(transform.Position, transform.Rotation)
	b.Shape.ComputeAABB(b.Transform)

	return b, nil
}

// Validate checks the name, the shape dimensions and the transform.
func (b *Body) Validate() error {
	if b == nil {
		return &InvalidGeometryError{Reason: "nil body"}
	}
	if b.Name == "" {
		return &InvalidGeometryError{Reason: "empty name"}
	}
	if b.Shape == nil {
		return &InvalidGeometryError{Name: b.Name, Reason: "nil shape"}
	}
	if reason := b.Shape.Validate(); reason != "" {
		return &InvalidGeometryError{Name: b.Name, Reason: reason}
	}
	if !finite(b.Transform.Position[:]) {
		return &InvalidGeometryError{Name: b.Name, Reason: "non-finite position"}
	}
	q := b.Transform.Rotation
	if !finite(q.V[:]) || math.IsNaN(q.W) || math.IsInf(q.W, 0) || q.Len() == 0 {
		return &InvalidGeometryError{Name: b.Name, Reason: "invalid rotation"}
	}
	return nil
}

// SetPose moves the body and refreshes its bounding box.
func (b *Body) SetPose(rotation mgl64.Mat3, translation mgl64.Vec3) {
	b.Transform = TransformFromMatrix(rotation, translation)
	b.Shape.ComputeAABB(b.Transform)
}

func (b *Body) AABB() AABB {
	return b.Shape.GetAABB()
}

// Center is the body origin in world space.
func (b *Body) Center() mgl64.Vec3 {
	return b.Transform.Position
}

// SupportWorld returns the furthest world-space point of the body along direction.
func (b *Body) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	localDirection := b.Transform.InverseRotation.Rotate(direction)
	localSupport := b.Shape.Support(localDirection)

	return b.Transform.Position.Add(b.Transform.Rotation.Rotate(localSupport))
}

func finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
