package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/akmonengine/orbit"
	"github.com/akmonengine/orbit/actor"
	"github.com/akmonengine/orbit/config"
	"github.com/akmonengine/orbit/control"
	"github.com/akmonengine/orbit/kinematics"
	"github.com/akmonengine/orbit/report"
	"github.com/akmonengine/orbit/scene"
	"github.com/akmonengine/orbit/sim"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

func newRunCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the approach-and-orbit simulation",
		Long: `Run ticks the control loop against the simulated tracker until the orbit
completes, the wall-clock budget runs out or the process is interrupted.

Example:
  orbitsim run --variant spatial --radius 1.5 --report-dir out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd)
		},
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.String("variant", defaults.Agent.Variant, "agent variant (planar, spatial)")
	flags.String("scene", defaults.Scene.Kind, "static scene (empty, double-room-door, double-room-window)")
	flags.Float64("radius", defaults.Trajectory.Radius, "orbit radius in metres")
	flags.Float64("revolutions", defaults.Trajectory.Revolutions, "number of orbit revolutions")
	flags.Float64("max-velocity", defaults.Trajectory.MaxVelocity, "approach velocity limit in m/s")
	flags.Duration("period", defaults.Run.Period, "tick period")
	flags.Duration("budget", defaults.Run.Budget, "wall-clock budget, 0 for none")
	flags.Bool("realtime", defaults.Run.Realtime, "pace ticks on the wall clock")
	flags.Bool("report", defaults.Report.Enabled, "write plots and summary at the end")
	flags.String("report-dir", defaults.Report.Dir, "report output directory")

	s.bindings[cmd] = map[string]string{
		"agent.variant":           "variant",
		"scene.kind":              "scene",
		"trajectory.radius":       "radius",
		"trajectory.revolutions":  "revolutions",
		"trajectory.max_velocity": "max-velocity",
		"run.period":              "period",
		"run.budget":              "budget",
		"run.realtime":            "realtime",
		"report.enabled":          "report",
		"report.dir":              "report-dir",
	}
	return cmd
}

func (s *state) run(cmd *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	simulation, err := NewSimulation(s.cfg, s.logger)
	if err != nil {
		return err
	}

	reason, err := simulation.Run(ctx)
	if err != nil && reason == control.StopCanceled {
		s.logger.Warnw("run interrupted", "time", simulation.Simulator.Clock.Elapsed())
		return nil
	}
	return err
}

// Simulation is a fully wired run: scene, agent, tracker, loop and report sink.
type Simulation struct {
	Config    *config.Config
	Agent     *kinematics.Agent
	World     *orbit.World
	Monitor   *orbit.Monitor
	Simulator *sim.Simulator
	Loop      *control.Loop
	// Report is nil when reports are disabled
	Report *report.PlotSink

	logger *zap.SugaredLogger
}

// NewSimulation builds every collaborator from cfg.
func NewSimulation(cfg *config.Config, logger *zap.SugaredLogger) (*Simulation, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	variant, err := kinematics.ParseVariant(cfg.Agent.Variant)
	if err != nil {
		return nil, err
	}

	statics, err := scene.Build(scene.Kind(cfg.Scene.Kind), cfg.Scene.Room())
	if err != nil {
		return nil, errors.Wrap(err, "scene")
	}

	sink := &logSink{logger: logger.Named("render")}
	agent, err := kinematics.NewAgent(variant,
		kinematics.WithName(cfg.Agent.Name),
		kinematics.WithAltitude(cfg.Agent.Altitude),
		kinematics.WithRenderSink(sink),
	)
	if err != nil {
		return nil, err
	}
	initial := cfg.Agent.InitialConfiguration(variant)
	if err := agent.SetConfig(initial); err != nil {
		return nil, err
	}

	pose := agent.Pose()
	body, err := actor.NewBody(agent.Name(),
		actor.TransformFromMatrix(pose.Rotation, pose.Translation),
		&actor.Sphere{Radius: cfg.Agent.Radius})
	if err != nil {
		return nil, errors.Wrap(err, "agent body")
	}

	world, err := orbit.NewWorld(statics, body)
	if err != nil {
		return nil, err
	}
	world.Workers = cfg.Run.Workers

	monitor, err := orbit.NewMonitor(statics, cfg.Scene.CellSize)
	if err != nil {
		return nil, err
	}

	tracker, err := sim.NewTracker(variant, initial, cfg.Controller.Gains(), cfg.Controller.MaxAcceleration)
	if err != nil {
		return nil, err
	}
	simulator := &sim.Simulator{Clock: sim.NewClock(), Tracker: tracker}

	s := &Simulation{
		Config:    cfg,
		Agent:     agent,
		World:     world,
		Monitor:   monitor,
		Simulator: simulator,
		logger:    logger,
	}

	collaborators := control.Collaborators{
		Clock:      simulator.Clock,
		Controller: tracker,
		Agent:      agent,
		World:      world,
		Monitor:    monitor,
		Sink:       sink,
		Logger:     logger.Named("control"),
	}
	if cfg.Report.Enabled {
		opts := append(cfg.Report.SinkOptions(), report.WithLogger(logger.Named("report")))
		s.Report = report.NewPlotSink(cfg.Report.Dir, opts...)
		collaborators.Reporter = s.Report
	}

	s.Loop, err = control.NewLoop(cfg.Trajectory.Settings(), collaborators)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Run checks the starting layout, drives the loop and waits for the report.
func (s *Simulation) Run(ctx context.Context) (control.StopReason, error) {
	results, err := s.World.TestPairs()
	if err != nil {
		return control.StopFailed, err
	}
	for _, r := range orbit.Overlapping(results) {
		s.logger.Warnw("bodies overlap at start", "body_a", r.A, "body_b", r.B)
	}

	s.logger.Infow("simulation started",
		"variant", s.Agent.Variant(),
		"scene", s.Config.Scene.Kind,
		"statics", len(s.Monitor.Statics()),
		"settings", s.Config.Trajectory.Settings(),
	)

	opts := s.Config.Run.Options()
	opts.Step = s.Simulator.Step
	reason, err := s.Loop.Run(ctx, opts)

	samples := s.Loop.Samples()
	s.logger.Infow("simulation stopped",
		"reason", reason,
		"time", s.Simulator.Clock.Elapsed(),
		"samples", len(samples),
		"max_error", lo.MaxBy(samples, func(a, b control.Sample) bool { return a.Error > b.Error }).Error,
		"final_speed", floats.Norm(s.Simulator.Tracker.SensedVelocity(), 2),
	)

	if s.Report != nil {
		err = multierr.Append(err, s.Report.Wait())
	}
	return reason, err
}
