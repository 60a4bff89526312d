// Package cli holds the orbitsim commands.
package cli

import (
	"github.com/akmonengine/orbit/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// state is shared by the commands of one root
type state struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	logger  *zap.SugaredLogger

	// flags of each subcommand, bound when that subcommand runs
	bindings map[*cobra.Command]map[string]string
}

// Execute runs the root command
func Execute() error {
	root, err := NewRootCommand()
	if err != nil {
		return err
	}
	return root.Execute()
}

// NewRootCommand builds orbitsim. Without a subcommand it runs the simulation.
func NewRootCommand() (*cobra.Command, error) {
	v, err := config.New("")
	if err != nil {
		return nil, err
	}
	s := &state{v: v, bindings: map[*cobra.Command]map[string]string{}}

	root := &cobra.Command{
		Use:   "orbitsim",
		Short: "Drive an agent along an approach-and-orbit trajectory",
		Long: `orbitsim moves an agent from its start position onto a circle, orbits it and
checks the agent against the static scene on every tick. Once the orbit completes
the tracking error is plotted and summarised.

Settings come from defaults, the --config YAML file, ORBIT_* environment variables
and flags, in increasing precedence.

Example:
  orbitsim run --scene double-room-window --revolutions 3`,
		SilenceUsage:      true,
		PersistentPreRunE: s.load,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if s.logger != nil {
				_ = s.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&s.cfgFile, "config", "", "config file (YAML)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("log-development", false, "human readable logs")
	if err := bindFlags(v, root, map[string]string{
		"log.level":       "log-level",
		"log.development": "log-development",
	}); err != nil {
		return nil, err
	}

	root.AddCommand(newRunCommand(s), newSceneCommand(s))

	return root, nil
}

func (s *state) load(cmd *cobra.Command, args []string) error {
	if err := bindFlags(s.v, cmd, s.bindings[cmd]); err != nil {
		return err
	}
	if err := config.ReadFile(s.v, s.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(s.v)
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	logger, err := cfg.Log.Logger()
	if err != nil {
		return err
	}

	s.cfg = cfg
	s.logger = logger.Sugar()
	if used := s.v.ConfigFileUsed(); used != "" {
		s.logger.Infow("using config file", "path", used)
	}
	return nil
}

// bindFlags ties each viper key to the named flag of cmd. A flag only overrides the
// other sources when it is set on the command line.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			flag = cmd.PersistentFlags().Lookup(name)
		}
		if flag == nil {
			return errors.Errorf("unknown flag %q for key %s", name, key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "bind %s", key)
		}
	}
	return nil
}
