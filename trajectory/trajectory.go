// Package trajectory generates the reference path followed by the agent: a settling
// hold, a smoothstep straight segment, a pause, then a constant-speed circular orbit.
//
// Phase intervals are half-open in time:
//
//	Settling        t < start
//	LinearApproach  start <= t < linearEnd
//	Pausing         linearEnd <= t < circStart
//	CircularOrbit   circStart <= t < circEnd
//	Complete        t >= circEnd
//
// With a zero pause the Pausing interval is empty.
package trajectory

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/multierr"
)

type Phase uint8

const (
	Settling Phase = iota
	LinearApproach
	Pausing
	CircularOrbit
	Complete
)

func (p Phase) String() string {
	switch p {
	case Settling:
		return "settling"
	case LinearApproach:
		return "linear-approach"
	case Pausing:
		return "pausing"
	case CircularOrbit:
		return "circular-orbit"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Settings are the run constants chosen by the operator.
type Settings struct {
	// StartTime is how long the agent settles before moving, in seconds
	StartTime float64
	// PauseTime separates the straight segment from the orbit
	PauseTime   float64
	MaxVelocity float64
	Radius      float64
	Revolutions float64
	// LegacyAngleOrigin measures the orbit angle from the end of the straight segment
	// instead of the start of the orbit, so the angle already advanced during the pause.
	LegacyAngleOrigin bool
}

// DefaultSettings matches the demo scenario.
func DefaultSettings() Settings {
	return Settings{
		StartTime:   5,
		PauseTime:   5,
		MaxVelocity: 0.2,
		Radius:      1,
		Revolutions: 2,
	}
}

// DegenerateTrajectoryError reports settings for which the phase timings are undefined.
type DegenerateTrajectoryError struct {
	Field string
	Value float64
}

func (e *DegenerateTrajectoryError) Error() string {
	return fmt.Sprintf("degenerate trajectory: invalid %s %v", e.Field, e.Value)
}

// Validate returns every invalid field, combined.
func (s Settings) Validate() error {
	var err error
	check := func(field string, v float64, ok bool) {
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			err = multierr.Append(err, &DegenerateTrajectoryError{Field: field, Value: v})
		}
	}
	check("start time", s.StartTime, s.StartTime >= 0)
	check("pause time", s.PauseTime, s.PauseTime >= 0)
	check("max velocity", s.MaxVelocity, s.MaxVelocity > 0)
	check("radius", s.Radius, s.Radius > 0)
	check("revolutions", s.Revolutions, s.Revolutions > 0)
	return err
}

// Smoothstep returns the cubic blend b(s) = s²(3-2s) and its derivative 6s(1-s).
// Both are exact at s = 0 and s = 1.
func Smoothstep(s float64) (b, db float64) {
	return s * s * (3 - 2*s), 6 * s * (1 - s)
}

// Params are fixed once the agent leaves Settling.
type Params struct {
	Initial mgl64.Vec2
	Final   mgl64.Vec2

	MaxVelocity float64
	Radius      float64

	LinearDuration  float64
	AngularVelocity float64

	StartTime     float64
	LinearEndTime float64
	CircStartTime float64
	CircEndTime   float64

	// AngleOrigin is the time at which the orbit angle is zero
	AngleOrigin float64
}

// NewParams derives the phase timings from the settings and the position of the
// agent at the start of the motion. The orbit is centred on initial and starts at
// initial + (radius, 0).
func NewParams(s Settings, initial mgl64.Vec2) (Params, error) {
	if err := s.Validate(); err != nil {
		return Params{}, err
	}
	for i, v := range initial {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Params{}, &DegenerateTrajectoryError{Field: fmt.Sprintf("initial[%d]", i), Value: v}
		}
	}

	p := Params{
		Initial:     initial,
		Final:       mgl64.Vec2{initial.X() + s.Radius, initial.Y()},
		MaxVelocity: s.MaxVelocity,
		Radius:      s.Radius,
		StartTime:   s.StartTime,
	}
	p.LinearDuration = 3 * (p.Final.X() - p.Initial.X()) / (2 * s.MaxVelocity)
	p.AngularVelocity = s.MaxVelocity / s.Radius
	p.LinearEndTime = p.StartTime + p.LinearDuration
	p.CircStartTime = p.LinearEndTime + s.PauseTime
	p.CircEndTime = p.CircStartTime + 2*math.Pi*s.Revolutions/p.AngularVelocity

	p.AngleOrigin = p.CircStartTime
	if s.LegacyAngleOrigin {
		p.AngleOrigin = p.LinearEndTime
	}

	// tiny radius against a large start time can round the segment away
	if !(p.StartTime < p.LinearEndTime && p.LinearEndTime <= p.CircStartTime && p.CircStartTime < p.CircEndTime) {
		return Params{}, &DegenerateTrajectoryError{Field: "linear duration", Value: p.LinearDuration}
	}

	return p, nil
}

// Phase classifies t against the phase boundaries.
func (p Params) Phase(t float64) Phase {
	switch {
	case t < p.StartTime:
		return Settling
	case t < p.LinearEndTime:
		return LinearApproach
	case t < p.CircStartTime:
		return Pausing
	case t < p.CircEndTime:
		return CircularOrbit
	}
	return Complete
}

// Tracked reports whether a sample taken at t belongs to the recorded window
// [StartTime, CircEndTime).
func (p Params) Tracked(t float64) bool {
	return t >= p.StartTime && t < p.CircEndTime
}

// Reference is the commanded planar state at one instant.
type Reference struct {
	Phase    Phase
	Position mgl64.Vec2
	Velocity mgl64.Vec2
}

// Reference evaluates the commanded position and velocity at t. Before StartTime
// it holds the initial position.
func (p Params) Reference(t float64) Reference {
	phase := p.Phase(t)
	switch phase {
	case Settling:
		return Reference{Phase: phase, Position: p.Initial}

	case LinearApproach:
		s := (t - p.StartTime) / p.LinearDuration
		b, db := Smoothstep(s)
		delta := p.Final.Sub(p.Initial)
		return Reference{
			Phase:    phase,
			Position: p.Initial.Add(delta.Mul(b)),
			Velocity: delta.Mul(db / p.LinearDuration),
		}

	case Pausing:
		return Reference{Phase: phase, Position: p.Final}

	case CircularOrbit:
		position, velocity := p.orbit(t)
		return Reference{Phase: phase, Position: position, Velocity: velocity}
	}

	position, _ := p.orbit(p.CircEndTime)
	return Reference{Phase: Complete, Position: position}
}

func (p Params) orbit(t float64) (position, velocity mgl64.Vec2) {
	theta := (t - p.AngleOrigin) * p.AngularVelocity
	sin, cos := math.Sincos(theta)
	position = p.Initial.Add(mgl64.Vec2{cos, sin}.Mul(p.Radius))
	velocity = mgl64.Vec2{-sin, cos}.Mul(p.MaxVelocity)
	return position, velocity
}
