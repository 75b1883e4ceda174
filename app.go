package main

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chazu/minerack/internal/config"
	"github.com/chazu/minerack/pkg/engine"
	"github.com/chazu/minerack/pkg/kernel"
	"github.com/chazu/minerack/pkg/kernel/sdfx"
	"github.com/chazu/minerack/pkg/layout"
	"github.com/chazu/minerack/pkg/scene"
	"github.com/chazu/minerack/pkg/tessellate"
)

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx     context.Context
	log     logrus.FieldLogger
	engine  *engine.Engine
	kernel  kernel.Kernel
	variant layout.Variant
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Scene    string    `json:"scene"`
	Role     string    `json:"role"`
	Color    string    `json:"color"`
	Opacity  float64   `json:"opacity"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalWarningData is an advisory finding about a scene that was built.
type EvalWarningData struct {
	Scene     string `json:"scene"`
	Component string `json:"component"`
	Message   string `json:"message"`
}

// SceneData is what the frontend draws besides meshes: airflow arrows,
// labels and the headline numbers.
type SceneData struct {
	Name        string             `json:"name"`
	Variant     string             `json:"variant"`
	Annotations []scene.Annotation `json:"annotations"`
	Summary     scene.Summary      `json:"summary"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Scenes   []SceneData       `json:"scenes"`
	Meshes   []MeshData        `json:"meshes"`
	Errors   []EvalErrorData   `json:"errors"`
	Warnings []EvalWarningData `json:"warnings"`
}

// LayoutParams is what the parameter sliders send.
type LayoutParams struct {
	Variant string            `json:"variant"`
	Config  layout.RackConfig `json:"config"`
	Clamp   bool              `json:"clamp"`
}

// LayoutResult carries either a scene or the reasons it was rejected.
type LayoutResult struct {
	Scene    *scene.Scene               `json:"scene"`
	Problems []layout.ValidationError   `json:"problems"`
	Warnings []layout.ValidationWarning `json:"warnings"`
	Error    string                     `json:"error,omitempty"`
}

// Defaults is the initial state of the parameter panel.
type Defaults struct {
	Variant string            `json:"variant"`
	Config  layout.RackConfig `json:"config"`
	Limits  layout.Limits     `json:"limits"`
}

// NewApp creates an App from the process configuration.
func NewApp(cfg *config.Config, log logrus.FieldLogger) *App {
	return &App{
		log:     log,
		engine:  engine.NewEngine(engine.WithTimeout(cfg.EvalTimeout), engine.WithMaxRunning(cfg.MaxEvaluations)),
		kernel:  sdfx.NewWithCells(cfg.MeshCells),
		variant: cfg.Variant,
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.log.Info("app started")
}

// Evaluate takes scene-program source and returns the meshes of every scene
// it declares, plus errors. This is the primary binding called by the
// frontend editor.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Scenes:   []SceneData{},
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalWarningData{},
	}
	start := time.Now()

	// Step 1: Evaluate the source into scene requests.
	prog, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.WithError(err).Error("evaluate failed")
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors to the frontend format.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	// Step 3: Compose every scene.
	scenes, warnings, err := prog.Build()
	if err != nil {
		a.log.WithError(err).Warn("scene build failed")
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, w := range warnings {
		result.Warnings = append(result.Warnings, EvalWarningData{Scene: w.Scene, Component: w.Component, Message: w.Message})
	}

	// Step 4: Tessellate each scene and convert to the frontend format.
	for _, sc := range scenes {
		result.Scenes = append(result.Scenes, SceneData{
			Name:        sc.Name,
			Variant:     sc.Variant.String(),
			Annotations: sc.Annotations,
			Summary:     sc.Summary,
		})

		res, err := tessellate.Tessellate(sc.Components, a.kernel, tessellate.Options{})
		if err != nil {
			a.log.WithError(err).WithField("scene", sc.Name).Error("tessellate failed")
			result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
			return result
		}
		for _, m := range res.Meshes {
			result.Meshes = append(result.Meshes, MeshData{
				Vertices: m.Vertices,
				Normals:  m.Normals,
				Indices:  m.Indices,
				PartName: m.PartName,
				Scene:    sc.Name,
				Role:     m.Role,
				Color:    m.Color,
				Opacity:  m.Opacity,
			})
		}
		for _, name := range res.Skipped {
			result.Warnings = append(result.Warnings, EvalWarningData{
				Scene:     sc.Name,
				Component: name,
				Message:   "too thin to mesh at the current resolution",
			})
		}
	}

	a.log.WithFields(logrus.Fields{
		"scenes":  len(result.Scenes),
		"meshes":  len(result.Meshes),
		"elapsed": time.Since(start).String(),
	}).Debug("evaluated")
	return result
}

// Layout computes the scene for the given slider values without meshing it.
func (a *App) Layout(params LayoutParams) LayoutResult {
	result := LayoutResult{
		Problems: []layout.ValidationError{},
		Warnings: []layout.ValidationWarning{},
	}

	v := a.variant
	if params.Variant != "" {
		parsed, err := layout.ParseVariant(params.Variant)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		v = parsed
	}
	cfg := params.Config
	if params.Clamp {
		cfg = layout.Clamp(cfg)
	}

	sc, err := scene.Build(cfg, v)
	if err != nil {
		var verrs layout.ValidationErrors
		if errors.As(err, &verrs) {
			result.Problems = append(result.Problems, verrs...)
		}
		result.Error = err.Error()
		return result
	}

	res := layout.Inspect(sc.Rack)
	result.Scene = sc
	result.Problems = append(result.Problems, res.Errors...)
	result.Warnings = append(result.Warnings, res.Warnings...)
	return result
}

// Variants returns the preset table for the variant picker.
func (a *App) Variants() []layout.Preset {
	return layout.Presets()
}

// Defaults returns the values the parameter panel opens with.
func (a *App) Defaults() Defaults {
	return Defaults{
		Variant: a.variant.String(),
		Config:  layout.DefaultConfig(),
		Limits:  layout.DefaultLimits(),
	}
}
