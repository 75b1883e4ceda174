package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/samber/lo"

	"github.com/chazu/minerack/pkg/layout"
)

// rackForm holds the text the interactive form edits. Inputs are strings so
// huh can validate them as they are typed.
type rackForm struct {
	variant  string
	levels   string
	machines string
	depth    string
	conduit  string
	gap      string
}

func newRackForm(v layout.Variant, rack layout.RackConfig) *rackForm {
	return &rackForm{
		variant:  v.String(),
		levels:   strconv.Itoa(rack.Levels),
		machines: strconv.Itoa(rack.MachinesPerLevel),
		depth:    formatFloat(rack.ShelfDepth),
		conduit:  formatFloat(rack.ConduitDiameter),
		gap:      formatFloat(rack.MachineGap),
	}
}

func (f *rackForm) form() *huh.Form {
	lim := layout.DefaultLimits()
	variants := lo.Map(layout.Presets(), func(p layout.Preset, _ int) huh.Option[string] {
		return huh.NewOption(fmt.Sprintf("%s - %s", p.Name, p.Title), p.Name)
	})

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Variant").
				Description("Use ↑/↓ to select, Enter to confirm").
				Options(variants...).
				Value(&f.variant),
		).Title("Scene"),
		huh.NewGroup(
			huh.NewInput().
				Title("Levels").
				Description(intHint(lim.Levels)).
				Value(&f.levels).
				Validate(validateInt(lim.Levels)),
			huh.NewInput().
				Title("Machines per level").
				Description(intHint(lim.MachinesPerLevel)).
				Value(&f.machines).
				Validate(validateInt(lim.MachinesPerLevel)),
			huh.NewInput().
				Title("Shelf depth (m)").
				Description(floatHint(lim.ShelfDepth)).
				Value(&f.depth).
				Validate(validateFloat(lim.ShelfDepth)),
			huh.NewInput().
				Title("Conduit diameter (m)").
				Description(floatHint(lim.ConduitDiameter)).
				Value(&f.conduit).
				Validate(validateFloat(lim.ConduitDiameter)),
			huh.NewInput().
				Title("Machine gap (m)").
				Description(floatHint(lim.MachineGap)).
				Value(&f.gap).
				Validate(validateFloat(lim.MachineGap)),
		).Title("Rack"),
	)
}

// result parses the edited values. The form validators have already run,
// but result is also used without a form.
func (f *rackForm) result() (layout.Variant, layout.RackConfig, error) {
	v, err := layout.ParseVariant(f.variant)
	if err != nil {
		return 0, layout.RackConfig{}, err
	}

	var rack layout.RackConfig
	ints := []struct {
		name string
		in   string
		dst  *int
	}{
		{"levels", f.levels, &rack.Levels},
		{"machines", f.machines, &rack.MachinesPerLevel},
	}
	for _, p := range ints {
		n, err := strconv.Atoi(strings.TrimSpace(p.in))
		if err != nil {
			return 0, layout.RackConfig{}, fmt.Errorf("%s: %q is not an integer", p.name, p.in)
		}
		*p.dst = n
	}

	floats := []struct {
		name string
		in   string
		dst  *float64
	}{
		{"depth", f.depth, &rack.ShelfDepth},
		{"conduit", f.conduit, &rack.ConduitDiameter},
		{"gap", f.gap, &rack.MachineGap},
	}
	for _, p := range floats {
		x, err := strconv.ParseFloat(strings.TrimSpace(p.in), 64)
		if err != nil {
			return 0, layout.RackConfig{}, fmt.Errorf("%s: %q is not a number", p.name, p.in)
		}
		*p.dst = x
	}
	return v, rack, nil
}

func promptRack(v layout.Variant, rack layout.RackConfig) (layout.Variant, layout.RackConfig, error) {
	f := newRackForm(v, rack)
	if err := f.form().Run(); err != nil {
		return 0, layout.RackConfig{}, err
	}
	return f.result()
}

func validateInt(r layout.IntRange) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("enter a whole number")
		}
		if !r.Contains(n) {
			return fmt.Errorf("must be %s", intHint(r))
		}
		return nil
	}
}

func validateFloat(r layout.FloatRange) func(string) error {
	return func(s string) error {
		x, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("enter a number")
		}
		if !r.Contains(x) {
			return fmt.Errorf("must be %s", floatHint(r))
		}
		return nil
	}
}

func intHint(r layout.IntRange) string {
	return fmt.Sprintf("%d to %d", r.Min, r.Max)
}

func floatHint(r layout.FloatRange) string {
	return fmt.Sprintf("%s to %s", formatFloat(r.Min), formatFloat(r.Max))
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
