package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akmonengine/orbit/config"
	"github.com/akmonengine/orbit/control"
	"github.com/akmonengine/orbit/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// shortConfig completes one small orbit in a few simulated seconds.
func shortConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Trajectory.StartTime = 0.1
	cfg.Trajectory.PauseTime = 0.1
	cfg.Trajectory.MaxVelocity = 0.5
	cfg.Trajectory.Radius = 0.5
	cfg.Trajectory.Revolutions = 1
	cfg.Scene.Kind = "empty"
	cfg.Report.Dir = filepath.Join(t.TempDir(), "report")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestSimulationRunsToCompletion(t *testing.T) {
	for _, variant := range []string{"planar", "spatial"} {
		t.Run(variant, func(t *testing.T) {
			cfg := shortConfig(t)
			cfg.Agent.Variant = variant
			cfg.Report.RunID = "run-" + variant

			simulation, err := NewSimulation(cfg, zaptest.NewLogger(t).Sugar())
			require.NoError(t, err)

			reason, err := simulation.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, control.StopCompleted, reason)
			assert.True(t, simulation.Loop.Reported())
			assert.NotEmpty(t, simulation.Loop.Samples())

			for _, name := range []string{report.ERROR_PLOT, report.PATH_PLOT, report.SUMMARY_FILE} {
				_, err := os.Stat(filepath.Join(cfg.Report.Dir, name))
				assert.NoError(t, err, name)
			}
			assert.Equal(t, "run-"+variant, simulation.Report.RunID())
		})
	}
}

func TestSimulationWithoutReport(t *testing.T) {
	cfg := shortConfig(t)
	cfg.Report.Enabled = false

	simulation, err := NewSimulation(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, simulation.Report)

	reason, err := simulation.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, control.StopCompleted, reason)

	_, err = os.Stat(cfg.Report.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestSimulationCanceled(t *testing.T) {
	cfg := shortConfig(t)

	simulation, err := NewSimulation(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reason, err := simulation.Run(ctx)
	assert.Equal(t, control.StopCanceled, reason)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, simulation.Loop.Reported())
}

func TestSimulationInScene(t *testing.T) {
	cfg := shortConfig(t)
	cfg.Scene.Kind = "double-room-window"
	cfg.Report.Enabled = false

	simulation, err := NewSimulation(cfg, nil)
	require.NoError(t, err)
	assert.Len(t, simulation.Monitor.Statics(), 8)
	assert.Len(t, simulation.World.Bodies(), 9)
	assert.Equal(t, cfg.Agent.Name, simulation.World.Agent.Name)
}

func TestNewSimulationErrors(t *testing.T) {
	cfg := shortConfig(t)
	cfg.Agent.Variant = "tracked"
	_, err := NewSimulation(cfg, nil)
	assert.Error(t, err)

	cfg = shortConfig(t)
	cfg.Scene.Kind = "castle"
	_, err = NewSimulation(cfg, nil)
	assert.Error(t, err)
}

func TestSceneCommand(t *testing.T) {
	root, err := NewRootCommand()
	require.NoError(t, err)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"scene", "--kind", "double-room-door"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "roomw1")
	assert.Contains(t, out.String(), "6 bodies")
}

func TestRunCommandFlags(t *testing.T) {
	t.Setenv("ORBIT_TRAJECTORY_START_TIME", "0.1")
	t.Setenv("ORBIT_TRAJECTORY_PAUSE_TIME", "0")

	root, err := NewRootCommand()
	require.NoError(t, err)
	root.SetArgs([]string{"run",
		"--scene", "empty",
		"--radius", "0.3",
		"--revolutions", "0.5",
		"--max-velocity", "1",
		"--report=false",
		"--budget", time.Minute.String(),
		"--log-level", "warn",
	})
	require.NoError(t, root.Execute())
}

func TestRunCommandRejectsInvalidConfig(t *testing.T) {
	root, err := NewRootCommand()
	require.NoError(t, err)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--radius", "-1"})
	assert.Error(t, root.Execute())
}
