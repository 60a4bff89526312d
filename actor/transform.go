package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform places a shape in world space.
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return NewTransformAt(mgl64.Vec3{}, mgl64.QuatIdent())
}

// NewTransformAt creates a transform and caches the inverse rotation.
func NewTransformAt(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	rotation = rotation.Normalize()
	return Transform{
		Position:        position,
		Rotation:        rotation,
		InverseRotation: rotation.Conjugate(),
	}
}

// TransformFromMatrix builds a transform from a rotation matrix and a translation,
// which is how kinematic poses are expressed.
func TransformFromMatrix(rotation mgl64.Mat3, translation mgl64.Vec3) Transform {
	return NewTransformAt(translation, mgl64.Mat4ToQuat(rotation.Mat4()))
}
