// Package scene composes rack units of one variant into a complete scene:
// rack placement, room and cold-aisle enclosures and airflow annotations.
//
// Like package layout, everything here is a pure function of its inputs.
package scene

import (
	"fmt"

	"github.com/chazu/minerack/pkg/layout"
)

// Scene is everything a renderer needs to draw one variant.
type Scene struct {
	Name        string                   `json:"name"`
	Variant     layout.Variant           `json:"variant"`
	Preset      layout.Preset            `json:"preset"`
	Config      layout.RackConfig        `json:"config"`
	Rack        *layout.Layout           `json:"rack"`        // one rack unit, untranslated
	RackOffsets []layout.Vec3            `json:"rackOffsets"` // where each copy of Rack sits
	Room        *Room                    `json:"room,omitempty"`
	Components  []layout.PlacedComponent `json:"components"`
	Annotations []Annotation             `json:"annotations"`
	Summary     Summary                  `json:"summary"`
}

// Build lays out every rack of variant v and wraps them in the variant's
// enclosure. The scene is named after the variant.
func Build(cfg layout.RackConfig, v layout.Variant) (*Scene, error) {
	return BuildNamed("", cfg, v)
}

// BuildNamed is Build with an explicit scene name.
func BuildNamed(name string, cfg layout.RackConfig, v layout.Variant) (*Scene, error) {
	p, err := layout.PresetFor(v)
	if err != nil {
		return nil, err
	}
	rack, err := layout.Build(cfg, v)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", p.Name, err)
	}
	if name == "" {
		name = p.Name
	}

	s := &Scene{
		Name:        name,
		Variant:     v,
		Preset:      p,
		Config:      cfg,
		Rack:        rack,
		RackOffsets: RackOffsets(p, rack.Dimensions.ShelfLength),
	}

	for i, off := range s.RackOffsets {
		prefix := fmt.Sprintf("rack-%d/", i+1)
		for _, c := range rack.Components {
			c = c.Translate(off)
			c.Name = prefix + c.Name
			c.Group = prefix + c.Group
			s.Components = append(s.Components, c)
		}
	}

	if p.Enclosure != layout.EnclosureNone {
		s.Room = NewRoom(p, rack)
		s.Components = append(s.Components, s.Room.Components()...)
	}
	s.Annotations = annotate(s)
	s.Summary = Summarize(s)

	return s, nil
}

// RackOffsets returns the translation of each rack in a row of p.Racks
// units, centred on x=0.
func RackOffsets(p layout.Preset, shelfLength float64) []layout.Vec3 {
	n := p.Racks
	offs := make([]layout.Vec3, n)
	pitch := shelfLength + p.RackSpacing
	for i := range offs {
		offs[i] = layout.Vec3{X: (float64(i) - float64(n-1)/2) * pitch}
	}
	return offs
}

// RowLength is the overall length of a row of racks along X.
func RowLength(p layout.Preset, shelfLength float64) float64 {
	if p.Racks <= 0 {
		return 0
	}
	return float64(p.Racks)*shelfLength + float64(p.Racks-1)*p.RackSpacing
}
