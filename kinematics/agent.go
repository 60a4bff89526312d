package kinematics

import (
	"github.com/akmonengine/orbit/orientation"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

const DEFAULT_AGENT_NAME = "Robot"

// Agent is the single Adapter implementation, dispatching on its Variant.
// The backing state is always the full spatial configuration.
type Agent struct {
	name    string
	variant Variant
	q       [spatialDOF]float64
	sink    RenderSink
}

type AgentOption func(*Agent)

// WithName sets the name used for render sink upserts.
func WithName(name string) AgentOption {
	return func(a *Agent) {
		a.name = name
	}
}

// WithRenderSink attaches a render sink that receives every new pose.
func WithRenderSink(sink RenderSink) AgentOption {
	return func(a *Agent) {
		a.sink = sink
	}
}

// WithAltitude sets the initial z coordinate.
func WithAltitude(z float64) AgentOption {
	return func(a *Agent) {
		a.q[2] = z
	}
}

// NewAgent creates an agent at the origin for a known variant.
func NewAgent(variant Variant, opts ...AgentOption) (*Agent, error) {
	if !variant.Valid() {
		return nil, errors.Errorf("unsupported agent variant %d", int(variant))
	}

	a := &Agent{name: DEFAULT_AGENT_NAME, variant: variant}
	for _, opt := range opts {
		opt(a)
	}

	if a.sink != nil {
		a.sink.Upsert(a.name, a.Pose(), false)
	}

	return a, nil
}

func (a *Agent) Name() string {
	return a.name
}

func (a *Agent) Variant() Variant {
	return a.variant
}

// Config returns the exposed DOFs as a fresh slice.
func (a *Agent) Config() Configuration {
	layout := layouts[a.variant]
	q := make(Configuration, len(layout))
	for i, idx := range layout {
		q[i] = a.q[idx]
	}
	return q
}

// SetConfig replaces the exposed DOFs. A length mismatch leaves the agent untouched.
func (a *Agent) SetConfig(q Configuration) error {
	if err := CheckArity(a.variant, q); err != nil {
		return err
	}

	for i, idx := range layouts[a.variant] {
		a.q[idx] = q[i]
	}
	a.publish()

	return nil
}

// SetAltitude moves the agent along z. This is the only way to change the altitude
// of a planar agent.
func (a *Agent) SetAltitude(z float64) {
	a.q[2] = z
	a.publish()
}

// Pose derives the current transform. DOFs not exposed by the variant stay at zero.
func (a *Agent) Pose() Pose {
	return Pose{
		Rotation:    orientation.EulerToRotation(mgl64.Vec3{a.q[3], a.q[4], a.q[5]}),
		Translation: mgl64.Vec3{a.q[0], a.q[1], a.q[2]},
	}
}

func (a *Agent) publish() {
	if a.sink != nil {
		a.sink.Upsert(a.name, a.Pose(), true)
	}
}
