// Package config loads the simulator settings from defaults, an optional YAML file
// and ORBIT_* environment variables, in increasing precedence.
package config

import (
	"math"
	"strings"
	"time"

	"github.com/akmonengine/orbit/control"
	"github.com/akmonengine/orbit/kinematics"
	"github.com/akmonengine/orbit/report"
	"github.com/akmonengine/orbit/scene"
	"github.com/akmonengine/orbit/sim"
	"github.com/akmonengine/orbit/trajectory"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ENV_PREFIX = "ORBIT"

// Config represents the full simulator configuration
type Config struct {
	Trajectory TrajectoryConfig `mapstructure:"trajectory"`
	Agent      AgentConfig      `mapstructure:"agent"`
	Controller ControllerConfig `mapstructure:"controller"`
	Run        RunConfig        `mapstructure:"run"`
	Scene      SceneConfig      `mapstructure:"scene"`
	Report     ReportConfig     `mapstructure:"report"`
	Log        LogConfig        `mapstructure:"log"`
}

// TrajectoryConfig mirrors trajectory.Settings
type TrajectoryConfig struct {
	StartTime         float64 `mapstructure:"start_time"`
	PauseTime         float64 `mapstructure:"pause_time"`
	MaxVelocity       float64 `mapstructure:"max_velocity"`
	Radius            float64 `mapstructure:"radius"`
	Revolutions       float64 `mapstructure:"revolutions"`
	LegacyAngleOrigin bool    `mapstructure:"legacy_angle_origin"`
}

// AgentConfig describes the moving body
type AgentConfig struct {
	Name     string  `mapstructure:"name"`
	Variant  string  `mapstructure:"variant"`
	Altitude float64 `mapstructure:"altitude"`
	Radius   float64 `mapstructure:"radius"` // collision sphere
	InitialX float64 `mapstructure:"initial_x"`
	InitialY float64 `mapstructure:"initial_y"`
}

// ControllerConfig holds the simulated tracker gains
type ControllerConfig struct {
	P               float64 `mapstructure:"p"`
	I               float64 `mapstructure:"i"`
	D               float64 `mapstructure:"d"`
	MaxAcceleration float64 `mapstructure:"max_acceleration"` // 0 disables the limit
}

// RunConfig configures the tick driver
type RunConfig struct {
	Period         time.Duration `mapstructure:"period"`
	Budget         time.Duration `mapstructure:"budget"`
	Realtime       bool          `mapstructure:"realtime"`
	StopOnComplete bool          `mapstructure:"stop_on_complete"`
	Workers        int           `mapstructure:"workers"`
}

// SceneConfig selects the static environment
type SceneConfig struct {
	Kind      string  `mapstructure:"kind"`
	Prefix    string  `mapstructure:"prefix"`
	DimX      float64 `mapstructure:"dim_x"`
	DimY      float64 `mapstructure:"dim_y"`
	DimZ      float64 `mapstructure:"dim_z"`
	Thickness float64 `mapstructure:"thickness"`
	CellSize  float64 `mapstructure:"cell_size"`
}

// ReportConfig controls the end-of-run plots
type ReportConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Dir     string  `mapstructure:"dir"`
	RunID   string  `mapstructure:"run_id"` // generated when empty
	Width   float64 `mapstructure:"width"`  // inches
	Height  float64 `mapstructure:"height"` // inches
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// New returns a viper instance with defaults and environment binding in place. A
// non-empty file is read on top of the defaults.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := ReadFile(v, file); err != nil {
		return nil, err
	}
	return v, nil
}

// ReadFile merges a YAML file into v. An empty name is a no-op.
func ReadFile(v *viper.Viper, file string) error {
	if file == "" {
		return nil
	}
	v.SetConfigFile(file)
	return errors.Wrapf(v.ReadInConfig(), "failed to read config %s", file)
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration obtained without file or environment
func Default() *Config {
	v := viper.New()
	applyDefaults(v)

	cfg := &Config{}
	// defaults always decode
	_ = v.Unmarshal(cfg)
	return cfg
}

// applyDefaults registers a default for every key, which also makes every key
// visible to AutomaticEnv during Unmarshal.
func applyDefaults(v *viper.Viper) {
	settings := trajectory.DefaultSettings()
	v.SetDefault("trajectory.start_time", settings.StartTime)
	v.SetDefault("trajectory.pause_time", settings.PauseTime)
	v.SetDefault("trajectory.max_velocity", settings.MaxVelocity)
	v.SetDefault("trajectory.radius", settings.Radius)
	v.SetDefault("trajectory.revolutions", settings.Revolutions)
	v.SetDefault("trajectory.legacy_angle_origin", false)

	v.SetDefault("agent.name", "Robot")
	v.SetDefault("agent.variant", kinematics.PlanarHolonomic.String())
	v.SetDefault("agent.altitude", 0.3)
	v.SetDefault("agent.radius", 0.2)
	v.SetDefault("agent.initial_x", 0.0)
	v.SetDefault("agent.initial_y", 0.0)

	gains := sim.DefaultPIDConfig()
	v.SetDefault("controller.p", gains.P)
	v.SetDefault("controller.i", gains.I)
	v.SetDefault("controller.d", gains.D)
	v.SetDefault("controller.max_acceleration", 0.0)

	v.SetDefault("run.period", control.DEFAULT_PERIOD)
	v.SetDefault("run.budget", time.Duration(0))
	v.SetDefault("run.realtime", false)
	v.SetDefault("run.stop_on_complete", true)
	v.SetDefault("run.workers", 1)

	v.SetDefault("scene.kind", string(scene.KindDoubleDoor))
	v.SetDefault("scene.prefix", "room")
	v.SetDefault("scene.dim_x", 4.0)
	v.SetDefault("scene.dim_y", 4.0)
	v.SetDefault("scene.dim_z", 1.0)
	v.SetDefault("scene.thickness", scene.DEFAULT_WALL_THICKNESS)
	v.SetDefault("scene.cell_size", 1.0)

	v.SetDefault("report.enabled", true)
	v.SetDefault("report.dir", "orbit-report")
	v.SetDefault("report.run_id", "")
	v.SetDefault("report.width", 8.0)
	v.SetDefault("report.height", 6.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Validate reports every invalid field at once
func (c *Config) Validate() error {
	var err error

	err = multierr.Append(err, errors.Wrap(c.Trajectory.Settings().Validate(), "trajectory"))

	if _, parseErr := kinematics.ParseVariant(c.Agent.Variant); parseErr != nil {
		err = multierr.Append(err, parseErr)
	}
	if c.Agent.Name == "" {
		err = multierr.Append(err, errors.New("agent name is required"))
	}
	if !positive(c.Agent.Radius) {
		err = multierr.Append(err, errors.Errorf("agent radius must be positive, got %v", c.Agent.Radius))
	}
	if !finite(c.Agent.Altitude, c.Agent.InitialX, c.Agent.InitialY) {
		err = multierr.Append(err, errors.New("agent altitude and initial position must be finite"))
	}

	if !finite(c.Controller.P, c.Controller.I, c.Controller.D) || c.Controller.P < 0 || c.Controller.I < 0 || c.Controller.D < 0 {
		err = multierr.Append(err, errors.New("controller gains must be finite and non-negative"))
	}
	if math.IsNaN(c.Controller.MaxAcceleration) || c.Controller.MaxAcceleration < 0 {
		err = multierr.Append(err, errors.Errorf("controller max_acceleration must be non-negative, got %v", c.Controller.MaxAcceleration))
	}

	if c.Run.Period <= 0 {
		err = multierr.Append(err, errors.Errorf("run period must be positive, got %s", c.Run.Period))
	}
	if c.Run.Budget < 0 {
		err = multierr.Append(err, errors.Errorf("run budget must not be negative, got %s", c.Run.Budget))
	}
	if !c.Run.StopOnComplete && c.Run.Budget <= 0 {
		err = multierr.Append(err, errors.New("run needs stop_on_complete or a positive budget to end"))
	}
	if c.Run.Workers < 0 {
		err = multierr.Append(err, errors.Errorf("run workers must not be negative, got %d", c.Run.Workers))
	}

	switch scene.Kind(c.Scene.Kind) {
	case scene.KindEmpty:
	case scene.KindDoubleDoor, scene.KindDoubleWin:
		if !positive(c.Scene.DimX) || !positive(c.Scene.DimY) || !positive(c.Scene.DimZ) || !positive(c.Scene.Thickness) {
			err = multierr.Append(err, errors.New("scene dimensions must be positive"))
		}
	default:
		err = multierr.Append(err, errors.Errorf("invalid scene kind: %s (must be %s, %s or %s)",
			c.Scene.Kind, scene.KindEmpty, scene.KindDoubleDoor, scene.KindDoubleWin))
	}
	if !positive(c.Scene.CellSize) {
		err = multierr.Append(err, errors.Errorf("scene cell_size must be positive, got %v", c.Scene.CellSize))
	}

	if c.Report.Enabled && c.Report.Dir == "" {
		err = multierr.Append(err, errors.New("report dir is required when reports are enabled"))
	}
	if c.Report.Enabled && (!positive(c.Report.Width) || !positive(c.Report.Height)) {
		err = multierr.Append(err, errors.Errorf("report size must be positive, got %vx%v", c.Report.Width, c.Report.Height))
	}

	if _, levelErr := zapcore.ParseLevel(c.Log.Level); levelErr != nil {
		err = multierr.Append(err, errors.Wrap(levelErr, "log level"))
	}

	return err
}

func (c TrajectoryConfig) Settings() trajectory.Settings {
	return trajectory.Settings{
		StartTime:         c.StartTime,
		PauseTime:         c.PauseTime,
		MaxVelocity:       c.MaxVelocity,
		Radius:            c.Radius,
		Revolutions:       c.Revolutions,
		LegacyAngleOrigin: c.LegacyAngleOrigin,
	}
}

func (c ControllerConfig) Gains() sim.PIDConfig {
	return sim.PIDConfig{P: c.P, I: c.I, D: c.D}
}

// InitialConfiguration places the agent at (initial_x, initial_y), at its altitude
// for spatial agents, with every angle zero.
func (c AgentConfig) InitialConfiguration(variant kinematics.Variant) kinematics.Configuration {
	q := make(kinematics.Configuration, variant.DOF())
	q[0], q[1] = c.InitialX, c.InitialY
	if variant == kinematics.FullSpatial {
		q[2] = c.Altitude
	}
	return q
}

func (c SceneConfig) Room() scene.Room {
	return scene.Room{
		Prefix:    c.Prefix,
		DimX:      c.DimX,
		DimY:      c.DimY,
		DimZ:      c.DimZ,
		Thickness: c.Thickness,
	}
}

// SinkOptions turns the report settings into PlotSink options.
func (c ReportConfig) SinkOptions() []report.Option {
	opts := []report.Option{report.WithSize(c.Width, c.Height)}
	if c.RunID != "" {
		opts = append(opts, report.WithRunID(c.RunID))
	}
	return opts
}

func (c RunConfig) Options() control.RunOptions {
	return control.RunOptions{
		Period:         c.Period,
		Budget:         c.Budget,
		Realtime:       c.Realtime,
		StopOnComplete: c.StopOnComplete,
	}
}

// Logger builds a zap logger at the configured level
func (c LogConfig) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}

	zcfg := zap.NewProductionConfig()
	if c.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
