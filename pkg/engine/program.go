package engine

import (
	"fmt"

	"github.com/chazu/minerack/pkg/layout"
	"github.com/chazu/minerack/pkg/scene"
)

// SceneRequest is one (scene ...) form: a named variant with its rack
// configuration.
type SceneRequest struct {
	Name    string            `json:"name"`
	Variant layout.Variant    `json:"variant"`
	Config  layout.RackConfig `json:"config"`
}

// Program is what a source file asked for, in declaration order.
type Program struct {
	Scenes []SceneRequest `json:"scenes"`
}

// Lookup returns the scene request with the given name.
func (p *Program) Lookup(name string) (SceneRequest, bool) {
	for _, s := range p.Scenes {
		if s.Name == name {
			return s, true
		}
	}
	return SceneRequest{}, false
}

// Build composes every requested scene and inspects each rack. Inspection
// warnings are returned alongside the scenes; the first build failure
// aborts.
func (p *Program) Build() ([]*scene.Scene, []EvalWarning, error) {
	var (
		scenes   []*scene.Scene
		warnings []EvalWarning
	)
	for _, req := range p.Scenes {
		s, err := scene.BuildNamed(req.Name, req.Config, req.Variant)
		if err != nil {
			return nil, nil, fmt.Errorf("scene %q: %w", req.Name, err)
		}
		scenes = append(scenes, s)

		res := layout.Inspect(s.Rack)
		for _, e := range res.Errors {
			warnings = append(warnings, EvalWarning{Scene: req.Name, Component: e.Field, Message: e.Message})
		}
		for _, w := range res.Warnings {
			warnings = append(warnings, EvalWarning{Scene: req.Name, Component: w.Component, Message: w.Message})
		}
	}
	return scenes, warnings, nil
}
