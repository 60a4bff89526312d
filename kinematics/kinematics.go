// Package kinematics maps reduced agent configurations onto spatial poses.
package kinematics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Configuration is an ordered, fixed length set of degrees of freedom.
// Its length is dictated by the Variant of the agent it belongs to.
type Configuration []float64

// Clone returns an independent copy of the configuration.
func (c Configuration) Clone() Configuration {
	if c == nil {
		return nil
	}
	out := make(Configuration, len(c))
	copy(out, c)
	return out
}

// Pose is a rigid transform: a 3x3 rotation and a translation.
type Pose struct {
	Rotation    mgl64.Mat3
	Translation mgl64.Vec3
}

// Variant is the closed set of supported DOF layouts.
type Variant int

const (
	// PlanarHolonomic exposes [x, y, yaw]. Altitude is fixed, roll and pitch are zero.
	PlanarHolonomic Variant = iota
	// FullSpatial exposes [x, y, z, yaw, pitch, roll].
	FullSpatial
)

// spatial layout: x, y, z, yaw (rz), pitch (ry), roll (rx)
const spatialDOF = 6

var layouts = map[Variant][]int{
	PlanarHolonomic: {0, 1, 3},
	FullSpatial:     {0, 1, 2, 3, 4, 5},
}

var positionAxes = map[Variant]int{
	PlanarHolonomic: 2,
	FullSpatial:     3,
}

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	_, ok := layouts[v]
	return ok
}

// DOF returns the configuration length of the variant.
func (v Variant) DOF() int {
	return len(layouts[v])
}

// PositionAxes returns how many leading DOFs are positional (x, y and possibly z).
func (v Variant) PositionAxes() int {
	return positionAxes[v]
}

func (v Variant) String() string {
	switch v {
	case PlanarHolonomic:
		return "planar-holonomic"
	case FullSpatial:
		return "full-spatial"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// ParseVariant maps a configuration string onto a Variant.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "planar", "planar-holonomic":
		return PlanarHolonomic, nil
	case "spatial", "full-spatial", "6dof":
		return FullSpatial, nil
	}
	return 0, errors.Errorf("unknown agent variant %q", s)
}

// ArityError is returned when a configuration does not match the variant's DOF count.
type ArityError struct {
	Variant Variant
	Want    int
	Got     int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s expects a configuration of %d DOF, got %d", e.Variant, e.Want, e.Got)
}

// CheckArity returns an *ArityError when len(q) differs from the variant's DOF.
func CheckArity(v Variant, q Configuration) error {
	if len(q) != v.DOF() {
		return &ArityError{Variant: v, Want: v.DOF(), Got: len(q)}
	}
	return nil
}

// RenderSink receives visual updates. Implementations live outside this module
// and must not block the caller.
type RenderSink interface {
	Upsert(name string, pose Pose, keepAppearance bool)
	Text(name, text string, at *mgl64.Vec2)
}

// Adapter maps a reduced configuration onto a full spatial pose.
type Adapter interface {
	Variant() Variant
	Config() Configuration
	SetConfig(q Configuration) error
	Pose() Pose
}
