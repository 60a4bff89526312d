// Package scene builds the static indoor environments the agent moves through.
// Every wall is a box; the rooms are centred on the origin with the floor at z = 0.
package scene

import (
	"fmt"
	"math"

	"github.com/akmonengine/orbit/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

const DEFAULT_WALL_THICKNESS = 0.01

// Kind names a prebuilt layout.
type Kind string

const (
	KindEmpty      Kind = "empty"
	KindDoubleDoor Kind = "double-room-door"
	KindDoubleWin  Kind = "double-room-window"
)

// Wall is a unit cube scaled by dims, turned by rotZ degrees about z around its min
// corner and moved so that corner sits at pos.
func Wall(name string, dims, pos mgl64.Vec3, rotZ float64) (*actor.Body, error) {
	rotation := mgl64.QuatRotate(mgl64.DegToRad(rotZ), mgl64.Vec3{0, 0, 1})
	half := dims.Mul(0.5)
	center := pos.Add(rotation.Rotate(half))

	body, err := actor.NewBody(name, actor.NewTransformAt(center, rotation), &actor.Box{HalfExtents: half})
	if err != nil {
		return nil, errors.Wrapf(err, "wall %s", name)
	}
	return body, nil
}

// Room describes two rooms side by side along y, split by a wall at y = 0.
type Room struct {
	Prefix    string
	DimX      float64
	DimY      float64
	DimZ      float64
	Thickness float64
}

type wallSpec struct {
	dims, pos mgl64.Vec3
}

func (r Room) validate() error {
	for _, v := range []float64{r.DimX, r.DimY, r.DimZ, r.Thickness} {
		if !(v > 0) || math.IsInf(v, 0) {
			return errors.Errorf("room dimensions must be positive and finite, got %+v", r)
		}
	}
	return nil
}

func (r Room) outer() []wallSpec {
	x2, y2 := r.DimX/2, r.DimY/2
	return []wallSpec{
		{mgl64.Vec3{r.DimX, r.Thickness, r.DimZ}, mgl64.Vec3{-x2, -y2, 0}},
		{mgl64.Vec3{r.Thickness, r.DimY, r.DimZ}, mgl64.Vec3{-x2, -y2, 0}},
		{mgl64.Vec3{r.DimX, r.Thickness, r.DimZ}, mgl64.Vec3{-x2, y2, 0}},
		{mgl64.Vec3{r.Thickness, r.DimY, r.DimZ}, mgl64.Vec3{x2, -y2, 0}},
	}
}

func (r Room) build(specs []wallSpec) ([]*actor.Body, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	bodies := make([]*actor.Body, 0, len(specs))
	for i, s := range specs {
		wall, err := Wall(fmt.Sprintf("%sw%d", r.Prefix, i+1), s.dims, s.pos, 0)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, wall)
	}
	return bodies, nil
}

// DoubleRoomDoor has a door dimX/4 wide in the middle of the separating wall.
func (r Room) DoubleRoomDoor() ([]*actor.Body, error) {
	x2, x8 := r.DimX/2, r.DimX/8
	specs := append(r.outer(),
		wallSpec{mgl64.Vec3{3 * x8, r.Thickness, r.DimZ}, mgl64.Vec3{-x2, 0, 0}},
		wallSpec{mgl64.Vec3{3 * x8, r.Thickness, r.DimZ}, mgl64.Vec3{x8, 0, 0}},
	)
	return r.build(specs)
}

// DoubleRoomWindow has a window dimX/4 wide and dimZ/3 high in the middle of the
// separating wall.
func (r Room) DoubleRoomWindow() ([]*actor.Body, error) {
	x2, x8, z3 := r.DimX/2, r.DimX/8, r.DimZ/3
	specs := append(r.outer(),
		wallSpec{mgl64.Vec3{r.DimX, r.Thickness, z3}, mgl64.Vec3{-x2, 0, 0}},
		wallSpec{mgl64.Vec3{3 * x8, r.Thickness, z3}, mgl64.Vec3{-x2, 0, z3}},
		wallSpec{mgl64.Vec3{3 * x8, r.Thickness, z3}, mgl64.Vec3{x8, 0, z3}},
		wallSpec{mgl64.Vec3{r.DimX, r.Thickness, z3}, mgl64.Vec3{-x2, 0, 2 * z3}},
	)
	return r.build(specs)
}

// Build returns the bodies of the named layout.
func Build(kind Kind, room Room) ([]*actor.Body, error) {
	switch kind {
	case KindEmpty, "":
		return nil, nil
	case KindDoubleDoor:
		return room.DoubleRoomDoor()
	case KindDoubleWin:
		return room.DoubleRoomWindow()
	}
	return nil, errors.Errorf("unknown scene %q", kind)
}
