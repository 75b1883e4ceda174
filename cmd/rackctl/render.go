package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/chazu/minerack/pkg/engine"
	"github.com/chazu/minerack/pkg/layout"
	"github.com/chazu/minerack/pkg/scene"
)

func metres(v float64) string {
	return fmt.Sprintf("%.3f m", v)
}

// hashrate formats a TH/s figure with an SI prefix, e.g. 13.2 PH/s.
func hashrate(th float64) string {
	return humanize.SIWithDigits(th*1e12, 1, "H/s")
}

func renderSummary(w io.Writer, sc *scene.Scene) {
	s := sc.Summary
	title := sc.Preset.Title
	if sc.Name != "" && sc.Name != sc.Preset.Name {
		title = sc.Name + ": " + title
	}
	fmt.Fprintln(w, titleStyle.Render(title))

	rows := [][2]string{
		{"Variant", sc.Variant.String()},
		{"Racks", humanize.Comma(int64(s.Racks))},
		{"Machines", fmt.Sprintf("%s (%d per rack)", humanize.Comma(int64(s.TotalMachines)), s.MachinesPerRack)},
		{"Hashrate", hashrate(s.HashrateTH)},
		{"Rack height", metres(s.RackHeight)},
		{"Row width", metres(s.RowWidth)},
		{"Row length", metres(s.RowLength)},
		{"Components", humanize.Comma(int64(s.Components))},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", r[0])), r[1])
	}

	roles := lo.Keys(s.ByRole)
	sort.Strings(roles)
	for _, role := range roles {
		fmt.Fprintf(w, "  %-12s %s\n", role, humanize.Comma(int64(s.ByRole[role])))
	}
}

func renderProblems(w io.Writer, errs []layout.ValidationError) {
	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("✗ %d problem(s)", len(errs))))
	for _, e := range errs {
		fmt.Fprintf(w, "  %s: %s\n", e.Field, e.Message)
	}
}

func renderWarnings(w io.Writer, warnings []layout.ValidationWarning) {
	for _, wn := range warnings {
		fmt.Fprintf(w, "%s %s: %s\n", warnStyle.Render("!"), wn.Component, wn.Message)
	}
}

func renderEvalErrors(w io.Writer, errs []engine.EvalError) {
	for _, e := range errs {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render("✗"), e.Error())
	}
}
