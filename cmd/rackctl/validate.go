package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chazu/minerack/pkg/layout"
)

func newValidateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check rack parameters and the resulting layout",
		Long: `Check the rack parameters against their ranges and the shelf, then build
the rack and re-check its geometry.

Exit codes:
  0 - Parameters accepted (warnings may still be printed)
  1 - Parameters rejected or the layout breaks an invariant`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, rack, err := o.selection()
			if err != nil {
				return err
			}
			return runValidate(cmd.OutOrStdout(), v, rack, o.json)
		},
	}
}

type validateReport struct {
	Variant  layout.Variant             `json:"variant"`
	Config   layout.RackConfig          `json:"config"`
	Status   string                     `json:"status"`
	Errors   []layout.ValidationError   `json:"errors"`
	Warnings []layout.ValidationWarning `json:"warnings"`
}

func runValidate(w io.Writer, v layout.Variant, rack layout.RackConfig, asJSON bool) error {
	report := validateReport{
		Variant:  v,
		Config:   rack,
		Errors:   []layout.ValidationError{},
		Warnings: []layout.ValidationWarning{},
	}

	l, err := layout.Build(rack, v)
	if err != nil {
		var verrs layout.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate: %w", err)
		}
		report.Errors = append(report.Errors, verrs...)
	} else {
		res := layout.Inspect(l)
		report.Errors = append(report.Errors, res.Errors...)
		report.Warnings = append(report.Warnings, res.Warnings...)
	}

	report.Status = "passed"
	if len(report.Errors) > 0 {
		report.Status = "failed"
	}

	if asJSON {
		if err := writeJSON(w, report); err != nil {
			return err
		}
	} else {
		formatValidateHuman(w, report)
	}

	if len(report.Errors) > 0 {
		return errRejected
	}
	return nil
}

func formatValidateHuman(w io.Writer, r validateReport) {
	if len(r.Errors) > 0 {
		renderProblems(w, r.Errors)
	}
	renderWarnings(w, r.Warnings)
	if len(r.Errors) == 0 {
		fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("✓ %s rack with %d×%d machines is valid",
			r.Variant, r.Config.Levels, r.Config.MachinesPerLevel)))
	}
}
