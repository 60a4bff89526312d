// Package control drives the agent along the reference trajectory, one tick at a
// time, and records how well the tracking controller follows it.
//
// A tick reads the simulation clock and the sensed configuration, advances the
// trajectory schedule, pushes the commanded configuration into the shared world
// under its lock, commands the tracking controller, checks the agent against the
// static scene and records a Sample while inside the tracked window. When the
// trajectory completes the recorded samples are handed to the Reporter, once.
package control

import (
	"github.com/akmonengine/orbit/kinematics"
	"gonum.org/v1/gonum/floats"
)

// Clock is the simulation clock. Elapsed never decreases.
type Clock interface {
	Elapsed() float64
}

// Controller is a position/velocity tracking controller.
type Controller interface {
	SetPIDCommand(q, dq kinematics.Configuration) error
	SensedConfig() kinematics.Configuration
}

// Reporter receives the recorded samples once, after the trajectory completes.
// Report must not block: the loop does not wait for it.
type Reporter interface {
	Report(samples []Sample)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(samples []Sample)

func (f ReporterFunc) Report(samples []Sample) {
	f(samples)
}

// Sample is one tick of the tracked window. Samples are never modified once recorded.
type Sample struct {
	Time      float64
	Commanded kinematics.Configuration
	Sensed    kinematics.Configuration
	Error     float64
}

// TrackingError is the Euclidean distance between commanded and sensed over the
// first axes entries, the positional DOFs of the variant.
func TrackingError(commanded, sensed kinematics.Configuration, axes int) float64 {
	return floats.Distance(commanded[:axes], sensed[:axes], 2)
}
