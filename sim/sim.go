// Package sim is a small stand-in for the external simulator: a simulation clock
// and a PID tracking controller acting on a double-integrator agent.
package sim

import (
	"math"
	"sync"

	"github.com/akmonengine/orbit/kinematics"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Clock is a simulation clock advanced explicitly.
type Clock struct {
	mu    sync.RWMutex
	steps int64
	dt    float64
	extra float64
}

// NewClock returns a clock at zero.
func NewClock() *Clock {
	return &Clock{}
}

// Advance moves time forward by dt. Repeated equal steps are counted rather than
// summed so t = n*dt stays exact over long runs.
func (c *Clock) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.steps == 0 || dt == c.dt {
		c.dt = dt
		c.steps++
		return
	}
	c.extra += float64(c.steps) * c.dt
	c.dt, c.steps = dt, 1
}

// Elapsed returns the simulated time in seconds.
func (c *Clock) Elapsed() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.extra + float64(c.steps)*c.dt
}

// PIDConfig holds per-axis gains.
type PIDConfig struct {
	P float64
	I float64
	D float64
}

// DefaultPIDConfig places the closed-loop poles of a unit mass at s = -4 (triple).
// It tracks the demo trajectory within about a centimetre.
func DefaultPIDConfig() PIDConfig {
	return PIDConfig{P: 48, I: 64, D: 12}
}

// Tracker is a PID position/velocity tracking controller on a double integrator:
// every axis accelerates by the PID output u, clamped to MaxAcceleration.
type Tracker struct {
	mu sync.Mutex

	variant         kinematics.Variant
	gains           PIDConfig
	maxAcceleration float64

	q, dq       []float64
	cmdQ, cmdDQ []float64
	integral    []float64

	// scratch
	e, de []float64
}

// NewTracker starts at rest at initial, commanded to hold it. A zero
// maxAcceleration disables the clamp.
func NewTracker(variant kinematics.Variant, initial kinematics.Configuration, gains PIDConfig, maxAcceleration float64) (*Tracker, error) {
	if err := kinematics.CheckArity(variant, initial); err != nil {
		return nil, err
	}
	if maxAcceleration < 0 || math.IsNaN(maxAcceleration) {
		return nil, errors.Errorf("max acceleration must be positive, got %v", maxAcceleration)
	}

	n := variant.DOF()
	return &Tracker{
		variant:         variant,
		gains:           gains,
		maxAcceleration: maxAcceleration,
		q:               initial.Clone(),
		dq:              make([]float64, n),
		cmdQ:            initial.Clone(),
		cmdDQ:           make([]float64, n),
		integral:        make([]float64, n),
		e:               make([]float64, n),
		de:              make([]float64, n),
	}, nil
}

// SetPIDCommand replaces the position and velocity set points.
func (t *Tracker) SetPIDCommand(q, dq kinematics.Configuration) error {
	if err := kinematics.CheckArity(t.variant, q); err != nil {
		return errors.Wrap(err, "position command")
	}
	if err := kinematics.CheckArity(t.variant, dq); err != nil {
		return errors.Wrap(err, "velocity command")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	copy(t.cmdQ, q)
	copy(t.cmdDQ, dq)
	return nil
}

// SensedConfig returns a copy of the current configuration.
func (t *Tracker) SensedConfig() kinematics.Configuration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return kinematics.Configuration(t.q).Clone()
}

// SensedVelocity returns a copy of the current velocity.
func (t *Tracker) SensedVelocity() kinematics.Configuration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return kinematics.Configuration(t.dq).Clone()
}

// Step integrates dt seconds with semi-implicit Euler.
func (t *Tracker) Step(dt float64) {
	if dt <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	floats.SubTo(t.e, t.cmdQ, t.q)
	floats.SubTo(t.de, t.cmdDQ, t.dq)
	floats.AddScaled(t.integral, dt, t.e)

	for i := range t.q {
		u := t.gains.P*t.e[i] + t.gains.I*t.integral[i] + t.gains.D*t.de[i]
		if t.maxAcceleration > 0 {
			u = math.Max(-t.maxAcceleration, math.Min(t.maxAcceleration, u))
		}
		t.dq[i] += u * dt
	}
	floats.AddScaled(t.q, dt, t.dq)
}

// Simulator couples a Clock and a Tracker.
type Simulator struct {
	Clock   *Clock
	Tracker *Tracker
}

// Step advances the agent then the clock.
func (s *Simulator) Step(dt float64) error {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return errors.Errorf("invalid time step %v", dt)
	}
	s.Tracker.Step(dt)
	s.Clock.Advance(dt)
	return nil
}
