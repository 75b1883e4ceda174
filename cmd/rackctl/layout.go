package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chazu/minerack/pkg/layout"
	"github.com/chazu/minerack/pkg/scene"
)

func newLayoutCmd(o *options) *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Compute a scene and print its summary",
		Long: `Compute every rack of the selected variant and print the scene summary,
or the full scene (components, slots, cutouts, annotations) with --json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, rack, err := o.selection()
			if err != nil {
				return err
			}
			if interactive {
				v, rack, err = promptRack(v, rack)
				if err != nil {
					return err
				}
			}
			o.log.WithField("variant", v).Debug("building layout")
			return runLayout(cmd.OutOrStdout(), v, rack, o.json)
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Choose the variant and rack parameters in a form")
	return cmd
}

func runLayout(w io.Writer, v layout.Variant, rack layout.RackConfig, asJSON bool) error {
	sc, err := scene.Build(rack, v)
	if err != nil {
		var verrs layout.ValidationErrors
		if errors.As(err, &verrs) {
			if asJSON {
				if jerr := writeJSON(w, map[string]any{"errors": verrs}); jerr != nil {
					return jerr
				}
			} else {
				renderProblems(w, verrs)
			}
			return errRejected
		}
		return fmt.Errorf("layout: %w", err)
	}

	if asJSON {
		return writeJSON(w, sc)
	}
	renderSummary(w, sc)
	return nil
}
