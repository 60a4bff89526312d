package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/akmonengine/orbit"
	"github.com/akmonengine/orbit/config"
	"github.com/akmonengine/orbit/scene"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSceneCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "List the bodies of the configured scene",
		Long: `Scene builds the static layout and prints every wall with its bounding box,
followed by any walls that overlap each other.

Example:
  orbitsim scene --kind double-room-window`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.listScene(cmd)
		},
	}

	cmd.Flags().String("kind", config.Default().Scene.Kind, "static scene (empty, double-room-door, double-room-window)")
	s.bindings[cmd] = map[string]string{"scene.kind": "kind"}
	return cmd
}

func (s *state) listScene(cmd *cobra.Command) error {
	statics, err := scene.Build(scene.Kind(s.cfg.Scene.Kind), s.cfg.Scene.Room())
	if err != nil {
		return errors.Wrap(err, "scene")
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMIN\tMAX")
	for _, body := range statics {
		aabb := body.AABB()
		fmt.Fprintf(w, "%s\t%.3f %.3f %.3f\t%.3f %.3f %.3f\n", body.Name,
			aabb.Min.X(), aabb.Min.Y(), aabb.Min.Z(),
			aabb.Max.X(), aabb.Max.Y(), aabb.Max.Z())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	results, err := orbit.TestPairs(statics, s.cfg.Run.Workers)
	if err != nil {
		return err
	}
	overlapping := orbit.Overlapping(results)
	fmt.Fprintf(out, "%d bodies, %d overlapping pairs\n", len(statics), len(overlapping))
	for _, r := range overlapping {
		fmt.Fprintf(out, "  %s / %s\n", r.A, r.B)
	}
	return nil
}
