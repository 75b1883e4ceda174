package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/minerack/pkg/layout"
)

func newVariantsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the layout variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVariants(cmd.OutOrStdout(), o.json)
		},
	}
}

func runVariants(w io.Writer, asJSON bool) error {
	presets := layout.Presets()
	if asJSON {
		return writeJSON(w, presets)
	}

	for _, p := range presets {
		fmt.Fprintf(w, "%s %s\n", titleStyle.Render(fmt.Sprintf("%-11s", p.Name)), p.Title)

		var parts []string
		if p.Machines {
			parts = append(parts, "machines")
		}
		if p.Conduit {
			parts = append(parts, "conduit")
		}
		if p.Outlets {
			parts = append(parts, "outlets")
		}
		panel := p.Panel.String() + " panel"
		if p.PanelToFloor {
			panel += " to floor"
		}
		parts = append(parts, panel)
		if p.Enclosure != layout.EnclosureNone {
			parts = append(parts, p.Enclosure.String()+" enclosure")
		}
		fmt.Fprintf(w, "            %d racks, %s\n", p.Racks, labelStyle.Render(strings.Join(parts, ", ")))
	}
	return nil
}
