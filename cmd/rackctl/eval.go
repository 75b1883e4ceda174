package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chazu/minerack/pkg/engine"
	"github.com/chazu/minerack/pkg/kernel"
	"github.com/chazu/minerack/pkg/kernel/sdfx"
	"github.com/chazu/minerack/pkg/scene"
	"github.com/chazu/minerack/pkg/tessellate"
)

func newEvalCmd(o *options) *cobra.Command {
	var mesh bool

	cmd := &cobra.Command{
		Use:   "eval <file>",
		Short: "Run a scene program and summarise its scenes",
		Long: `Evaluate a scene program, for example:

  (scene "shop" :variant :workshop (rack :levels 5 :machines 11))

and print a summary of every scene it declares. With --mesh the scenes are
also tessellated and the mesh sizes reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			eng := engine.NewEngine(engine.WithTimeout(o.cfg.EvalTimeout))
			var k kernel.Kernel
			if mesh {
				k = sdfx.NewWithCells(o.cfg.MeshCells)
			}
			return runEval(cmd.OutOrStdout(), o.log, eng, k, string(src), o.json)
		},
	}
	cmd.Flags().BoolVar(&mesh, "mesh", false, "Tessellate every scene and report mesh sizes")
	return cmd
}

type meshReport struct {
	Meshes    int      `json:"meshes"`
	Triangles int      `json:"triangles"`
	Skipped   []string `json:"skipped,omitempty"`
}

type evalReport struct {
	Scenes   []*scene.Scene        `json:"scenes"`
	Meshes   map[string]meshReport `json:"meshes,omitempty"`
	Errors   []engine.EvalError    `json:"errors"`
	Warnings []engine.EvalWarning  `json:"warnings"`
}

// runEval evaluates src and reports its scenes. A nil kernel skips
// tessellation.
func runEval(w io.Writer, log logrus.FieldLogger, eng *engine.Engine, k kernel.Kernel, src string, asJSON bool) error {
	report := evalReport{
		Scenes:   []*scene.Scene{},
		Errors:   []engine.EvalError{},
		Warnings: []engine.EvalWarning{},
	}

	start := time.Now()
	prog, evalErrs, err := eng.Evaluate(src)
	if err != nil {
		return fmt.Errorf("eval: %w", err)
	}
	log.WithField("elapsed", time.Since(start).String()).Debug("evaluated program")

	if len(evalErrs) > 0 {
		report.Errors = evalErrs
		if asJSON {
			if err := writeJSON(w, report); err != nil {
				return err
			}
		} else {
			renderEvalErrors(w, evalErrs)
		}
		return errRejected
	}

	scenes, warnings, err := prog.Build()
	if err != nil {
		return fmt.Errorf("eval: %w", err)
	}
	report.Scenes = append(report.Scenes, scenes...)
	report.Warnings = append(report.Warnings, warnings...)

	if k != nil {
		report.Meshes = make(map[string]meshReport, len(scenes))
		for _, sc := range scenes {
			res, err := tessellate.Tessellate(sc.Components, k, tessellate.Options{})
			if err != nil {
				return fmt.Errorf("eval: scene %q: %w", sc.Name, err)
			}
			mr := meshReport{Meshes: len(res.Meshes), Skipped: res.Skipped}
			for _, m := range res.Meshes {
				mr.Triangles += m.TriangleCount()
			}
			report.Meshes[sc.Name] = mr
		}
	}

	if asJSON {
		return writeJSON(w, report)
	}

	if len(scenes) == 0 {
		fmt.Fprintln(w, labelStyle.Render("program declares no scenes"))
	}
	for i, sc := range scenes {
		if i > 0 {
			fmt.Fprintln(w)
		}
		renderSummary(w, sc)
		if mr, ok := report.Meshes[sc.Name]; ok {
			fmt.Fprintf(w, "%s %s meshes, %s triangles\n",
				labelStyle.Render(fmt.Sprintf("%-12s", "Tessellated")),
				humanize.Comma(int64(mr.Meshes)), humanize.Comma(int64(mr.Triangles)))
			for _, name := range mr.Skipped {
				fmt.Fprintf(w, "%s %s: too thin for the mesh resolution\n", warnStyle.Render("!"), name)
			}
		}
	}
	for _, wn := range report.Warnings {
		fmt.Fprintf(w, "%s %s %s: %s\n", warnStyle.Render("!"), wn.Scene, wn.Component, wn.Message)
	}
	return nil
}
