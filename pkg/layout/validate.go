package layout

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError describes one rejected parameter or one broken layout
// invariant.
type ValidationError struct {
	Field   string `json:"field"`   // RackConfig field or layout element
	Message string `json:"message"` // human-readable description
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is the error returned when a configuration is rejected.
// Use errors.As to get at the individual findings.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	switch len(errs) {
	case 0:
		return "layout: no validation errors"
	case 1:
		return "layout: invalid configuration: " + errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("layout: invalid configuration (%d problems): %s", len(errs), strings.Join(msgs, "; "))
}

// ValidationWarning is an advisory finding about a built layout.
type ValidationWarning struct {
	Component string `json:"component,omitempty"`
	Message   string `json:"message"`
}

// InspectionResult separates blocking findings from advisory ones.
type InspectionResult struct {
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}

// OK reports whether the inspection found no errors.
func (r InspectionResult) OK() bool { return len(r.Errors) == 0 }

// ---------------------------------------------------------------------------
// Tier 1: parameter validation
// ---------------------------------------------------------------------------

// Validate checks cfg against the standard dimensions and the variant's
// preset. It returns nil or a ValidationErrors value.
func Validate(cfg RackConfig, v Variant) error {
	return Standard.Validate(cfg, v)
}

// Validate checks cfg against d for variant v.
func (d Dimensions) Validate(cfg RackConfig, v Variant) error {
	p, err := PresetFor(v)
	if err != nil {
		return err
	}

	errs := validateRanges(cfg, DefaultLimits())
	if len(errs) == 0 {
		errs = append(errs, d.validateDepth(cfg, p)...)
		errs = append(errs, d.validateRow(cfg, p)...)
	}
	if len(errs) > 0 {
		return ValidationErrors(errs)
	}
	return nil
}

// validateRanges checks every field against its documented range.
func validateRanges(cfg RackConfig, lim Limits) []ValidationError {
	var errs []ValidationError

	if !lim.Levels.Contains(cfg.Levels) {
		errs = append(errs, ValidationError{
			Field:   "levels",
			Message: fmt.Sprintf("%d is outside %d..%d", cfg.Levels, lim.Levels.Min, lim.Levels.Max),
		})
	}
	if !lim.MachinesPerLevel.Contains(cfg.MachinesPerLevel) {
		errs = append(errs, ValidationError{
			Field:   "machinesPerLevel",
			Message: fmt.Sprintf("%d is outside %d..%d", cfg.MachinesPerLevel, lim.MachinesPerLevel.Min, lim.MachinesPerLevel.Max),
		})
	}

	floats := []struct {
		field string
		value float64
		rng   FloatRange
	}{
		{"shelfDepth", cfg.ShelfDepth, lim.ShelfDepth},
		{"conduitDiameter", cfg.ConduitDiameter, lim.ConduitDiameter},
		{"machineGap", cfg.MachineGap, lim.MachineGap},
	}
	for _, f := range floats {
		switch {
		case math.IsNaN(f.value) || math.IsInf(f.value, 0):
			errs = append(errs, ValidationError{Field: f.field, Message: "must be a finite number"})
		case f.value <= 0:
			errs = append(errs, ValidationError{Field: f.field, Message: fmt.Sprintf("%.4f m must be positive", f.value)})
		case !f.rng.Contains(f.value):
			errs = append(errs, ValidationError{
				Field:   f.field,
				Message: fmt.Sprintf("%.4f m is outside %.3f..%.3f m", f.value, f.rng.Min, f.rng.Max),
			})
		}
	}

	return errs
}

// validateDepth checks that the part of a machine inside the rack fits
// between the front rail and the back panel.
func (d Dimensions) validateDepth(cfg RackConfig, p Preset) []ValidationError {
	if !p.Machines {
		return nil
	}
	inside := d.MachineDepth - d.Protrusion() - d.PanelThickness
	clear := cfg.ShelfDepth - d.BeamSize
	if inside > clear+epsilon {
		return []ValidationError{{
			Field:   "shelfDepth",
			Message: fmt.Sprintf("%.3f m leaves %.3f m behind the front rail, machine needs %.3f m", cfg.ShelfDepth, clear, inside),
		}}
	}
	return nil
}

// validateRow checks that a tier of machines fits between the end columns and,
// for perforated panels, that every hole fits inside the panel with its edge
// margin and does not touch its neighbour.
func (d Dimensions) validateRow(cfg RackConfig, p Preset) []ValidationError {
	if !p.Machines {
		return nil
	}
	var errs []ValidationError

	row := d.RowWidth(cfg.MachinesPerLevel, cfg.MachineGap)
	need := row
	if p.Panel == PanelPerforated {
		need += d.CutoutClearance + 2*d.PanelEdgeMargin
	}
	if need > d.InnerLength()+epsilon {
		errs = append(errs, ValidationError{
			Field: "machinesPerLevel",
			Message: fmt.Sprintf(
				"row of %d machines with %.3f m gaps needs %.3f m, clear span is %.3f m (at most %d fit)",
				cfg.MachinesPerLevel, cfg.MachineGap, need, d.InnerLength(),
				d.MaxMachinesPerLevel(cfg.MachineGap, p.Panel),
			),
		})
	}

	if p.Panel == PanelPerforated && cfg.MachinesPerLevel > 1 && cfg.MachineGap <= d.CutoutClearance+epsilon {
		errs = append(errs, ValidationError{
			Field:   "machineGap",
			Message: fmt.Sprintf("%.3f m gap must exceed the %.3f m cutout clearance", cfg.MachineGap, d.CutoutClearance),
		})
	}

	return errs
}

// ---------------------------------------------------------------------------
// Tier 2: layout inspection
// ---------------------------------------------------------------------------

// Inspect re-checks the invariants of a built layout and reports advisory
// warnings. It never mutates l.
func Inspect(l *Layout) InspectionResult {
	var res InspectionResult
	if l == nil {
		return res
	}

	res.Errors = append(res.Errors, inspectTiers(l)...)
	res.Errors = append(res.Errors, inspectCutouts(l)...)
	res.Errors = append(res.Errors, inspectProtrusion(l)...)
	res.Warnings = append(res.Warnings, inspectConduit(l)...)
	res.Warnings = append(res.Warnings, inspectClamps(l)...)

	return res
}

// inspectTiers checks that tier planes rise by exactly one level pitch.
func inspectTiers(l *Layout) []ValidationError {
	var errs []ValidationError
	for i := 1; i < len(l.Tiers); i++ {
		step := l.Tiers[i].Y - l.Tiers[i-1].Y
		if math.Abs(step-l.Dimensions.LevelHeight) > 1e-9 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("tier-%d", i),
				Message: fmt.Sprintf("tier pitch %.6f m, want %.6f m", step, l.Dimensions.LevelHeight),
			})
		}
	}
	return errs
}

// inspectCutouts checks that every hole sits inside the panel with the edge
// margin and that holes on the same tier do not overlap.
func inspectCutouts(l *Layout) []ValidationError {
	if len(l.Cutouts) == 0 {
		return nil
	}
	var errs []ValidationError

	for _, c := range l.Cutouts {
		if !l.PanelRect.Contains(c.Rect(), l.Dimensions.PanelEdgeMargin) {
			errs = append(errs, ValidationError{
				Field:   c.Name(),
				Message: "cutout extends past the panel edge margin",
			})
		}
	}

	for i := 1; i < len(l.Cutouts); i++ {
		a, b := l.Cutouts[i-1], l.Cutouts[i]
		if a.Level != b.Level {
			continue
		}
		if a.Rect().Overlaps(b.Rect()) {
			errs = append(errs, ValidationError{
				Field:   b.Name(),
				Message: fmt.Sprintf("cutout overlaps %s", a.Name()),
			})
		}
	}

	return errs
}

// inspectProtrusion checks that each machine and its cutout agree on where
// the panel face is.
func inspectProtrusion(l *Layout) []ValidationError {
	if len(l.Cutouts) == 0 {
		return nil
	}
	var errs []ValidationError
	d := l.Dimensions
	for i, s := range l.Slots {
		if i >= len(l.Cutouts) {
			break
		}
		c := l.Cutouts[i]
		rear := s.Center.Z + d.MachineDepth/2
		if math.Abs((rear-c.Center.Z)-d.Protrusion()) > 1e-9 ||
			math.Abs(s.Center.X-c.Center.X) > 1e-9 || math.Abs(s.Center.Y-c.Center.Y) > 1e-9 {
			errs = append(errs, ValidationError{
				Field:   c.Name(),
				Message: fmt.Sprintf("cutout at %s does not match machine at %s", c.Center, s.Center),
			})
		}
	}
	return errs
}

// inspectConduit warns when a tier's conduit reaches into the tier above.
func inspectConduit(l *Layout) []ValidationWarning {
	if l.ConduitY == nil {
		return nil
	}
	var warnings []ValidationWarning
	r := l.Config.ConduitDiameter / 2
	for i := 0; i+1 < len(l.Tiers); i++ {
		top := l.ConduitY[i] + r
		next := l.Tiers[i+1].Y
		if top > next+epsilon {
			warnings = append(warnings, ValidationWarning{
				Component: fmt.Sprintf("tier-%d/conduit", i),
				Message:   fmt.Sprintf("conduit top at %.3f m reaches past tier %d plane at %.3f m", top, i+1, next),
			})
		}
	}
	return warnings
}

// inspectClamps warns about degenerate clamp spacing.
func inspectClamps(l *Layout) []ValidationWarning {
	if l.ConduitY == nil || l.Dimensions.ClampsPerTier > 1 {
		return nil
	}
	return []ValidationWarning{{
		Message: fmt.Sprintf("%d clamp per tier leaves the conduit ends unsupported", l.Dimensions.ClampsPerTier),
	}}
}
