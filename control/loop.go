package control

import (
	"context"
	"strings"

	"github.com/akmonengine/orbit"
	"github.com/akmonengine/orbit/kinematics"
	"github.com/akmonengine/orbit/trajectory"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// STATUS_TEXT is the render sink item carrying the collision status line.
const STATUS_TEXT = "collision-status"

// Collaborators are everything the loop talks to. Reporter, Sink and Logger are optional.
type Collaborators struct {
	Clock      Clock
	Controller Controller
	// Agent is the kinematic model of the agent body held by World
	Agent   kinematics.Adapter
	World   *orbit.World
	Monitor *orbit.Monitor

	Reporter Reporter
	Sink     kinematics.RenderSink
	Logger   *zap.SugaredLogger
}

func (c Collaborators) validate() error {
	var err error
	if c.Clock == nil {
		err = multierr.Append(err, errors.New("missing clock"))
	}
	if c.Controller == nil {
		err = multierr.Append(err, errors.New("missing controller"))
	}
	if c.Agent == nil {
		err = multierr.Append(err, errors.New("missing agent"))
	}
	if c.World == nil || c.World.Agent == nil {
		err = multierr.Append(err, errors.New("missing world agent body"))
	}
	if c.Monitor == nil {
		err = multierr.Append(err, errors.New("missing collision monitor"))
	}
	return err
}

// Status describes the tick that just ran.
type Status struct {
	Time      float64
	Phase     trajectory.Phase
	Commanded kinematics.Configuration
	// Contacts holds one result per static body. It is overwritten by the next tick.
	Contacts []orbit.PairResult
	// Reported is set once the samples have been handed to the Reporter
	Reported bool
}

// Loop is the tick-driven control state machine. It is not safe for concurrent use:
// a single goroutine calls Tick.
type Loop struct {
	schedule *trajectory.Schedule

	clock      Clock
	controller Controller
	adapter    kinematics.Adapter
	world      *orbit.World
	monitor    *orbit.Monitor
	events     *orbit.ContactEvents
	reporter   Reporter
	sink       kinematics.RenderSink
	logger     *zap.SugaredLogger

	// anchor is the sensed configuration on the first moving tick; commands keep its
	// non planar DOFs
	anchor   kinematics.Configuration
	samples  []Sample
	reported bool

	contactsChanged bool
}

// NewLoop validates the settings and the collaborators.
func NewLoop(settings trajectory.Settings, c Collaborators) (*Loop, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	schedule, err := trajectory.NewSchedule(settings)
	if err != nil {
		return nil, err
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop().Sugar()
	}

	l := &Loop{
		schedule:   schedule,
		clock:      c.Clock,
		controller: c.Controller,
		adapter:    c.Agent,
		world:      c.World,
		monitor:    c.Monitor,
		events:     orbit.NewContactEvents(),
		reporter:   c.Reporter,
		sink:       c.Sink,
		logger:     c.Logger,
	}

	l.events.Subscribe(orbit.COLLISION_ENTER, func(event orbit.Event) {
		e := event.(orbit.CollisionEnterEvent)
		l.logger.Infow("collision started", "body_a", e.BodyA, "body_b", e.BodyB, "time", l.clock.Elapsed())
		l.contactsChanged = true
	})
	l.events.Subscribe(orbit.COLLISION_EXIT, func(event orbit.Event) {
		e := event.(orbit.CollisionExitEvent)
		l.logger.Infow("collision ended", "body_a", e.BodyA, "body_b", e.BodyB, "time", l.clock.Elapsed())
		l.contactsChanged = true
	})

	return l, nil
}

// Schedule exposes the trajectory state, mainly for its Params once moving.
func (l *Loop) Schedule() *trajectory.Schedule {
	return l.schedule
}

// Samples returns the samples recorded so far. The slice must not be modified.
func (l *Loop) Samples() []Sample {
	return l.samples
}

func (l *Loop) Reported() bool {
	return l.reported
}

// Tick runs one control period.
func (l *Loop) Tick(ctx context.Context) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}

	t := l.clock.Elapsed()
	variant := l.adapter.Variant()
	sensed := l.controller.SensedConfig()
	if err := kinematics.CheckArity(variant, sensed); err != nil {
		return Status{}, errors.Wrap(err, "sensed configuration")
	}

	step, err := l.schedule.Advance(t, mgl64.Vec2{sensed[0], sensed[1]})
	if err != nil {
		return Status{}, err
	}
	if step.Entered {
		l.logger.Infow("phase changed", "phase", step.Phase.String(), "time", t)
	}

	q, dq := l.command(step, sensed)
	l.logger.Debugw("tick", "time", t, "phase", step.Phase.String(), "commanded", q, "sensed", sensed)

	body := l.world.Agent
	var setErr error
	l.world.Update(func() {
		if setErr = l.adapter.SetConfig(q); setErr != nil {
			return
		}
		pose := l.adapter.Pose()
		body.SetPose(pose.Rotation, pose.Translation)
	})
	if setErr != nil {
		return Status{}, setErr
	}

	if err := l.controller.SetPIDCommand(q, dq); err != nil {
		return Status{}, errors.Wrap(err, "tracking controller")
	}

	var contacts []orbit.PairResult
	var monitorErr error
	l.world.View(func() {
		contacts, monitorErr = l.monitor.TestAgentAgainstStatic(body)
	})
	if monitorErr != nil {
		return Status{}, errors.Wrap(monitorErr, "collision monitor")
	}
	l.events.Observe(contacts)
	if l.contactsChanged {
		l.contactsChanged = false
		l.publishStatus(body.Name, contacts)
	}

	if step.Tracked {
		l.samples = append(l.samples, Sample{
			Time:      t,
			Commanded: q.Clone(),
			Sensed:    sensed.Clone(),
			Error:     TrackingError(q, sensed, variant.PositionAxes()),
		})
	}

	if step.Phase == trajectory.Complete && !l.reported {
		l.reported = true
		l.logger.Infow("trajectory complete", "samples", len(l.samples), "time", t)
		if l.reporter != nil {
			l.reporter.Report(l.samples)
		}
	}

	return Status{
		Time:      t,
		Phase:     step.Phase,
		Commanded: q,
		Contacts:  contacts,
		Reported:  l.reported,
	}, nil
}

// command builds the commanded configuration and velocity. While settling the agent
// holds its sensed configuration; afterwards only x and y follow the reference.
func (l *Loop) command(step trajectory.Step, sensed kinematics.Configuration) (q, dq kinematics.Configuration) {
	dq = make(kinematics.Configuration, len(sensed))
	if step.Phase == trajectory.Settling {
		return sensed.Clone(), dq
	}

	if l.anchor == nil {
		l.anchor = sensed.Clone()
	}
	q = l.anchor.Clone()
	q[0], q[1] = step.Position.X(), step.Position.Y()
	dq[0], dq[1] = step.Velocity.X(), step.Velocity.Y()
	return q, dq
}

func (l *Loop) publishStatus(agent string, contacts []orbit.PairResult) {
	if l.sink == nil {
		return
	}

	var names []string
	for _, c := range contacts {
		if c.Overlapping {
			names = append(names, c.B)
		}
	}
	if len(names) == 0 {
		l.sink.Text(STATUS_TEXT, agent+": no collision", nil)
		return
	}
	l.sink.Text(STATUS_TEXT, agent+" collides with "+strings.Join(names, ", "), nil)
}
