package scene

import (
	"fmt"

	"github.com/chazu/minerack/pkg/layout"
)

// AnnotationKind classifies a decorative overlay.
type AnnotationKind int

const (
	AnnotationColdAir AnnotationKind = iota
	AnnotationHotAir
	AnnotationLabel
)

func (k AnnotationKind) String() string {
	switch k {
	case AnnotationColdAir:
		return "cold-air"
	case AnnotationHotAir:
		return "hot-air"
	case AnnotationLabel:
		return "label"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k AnnotationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Annotation is a static overlay: an airflow arrow from Start to End, or a
// text label anchored at Start. Annotations are not geometry and take no part
// in tessellation.
type Annotation struct {
	Kind  AnnotationKind `json:"kind"`
	Start layout.Vec3    `json:"start"`
	End   layout.Vec3    `json:"end"`
	Text  string         `json:"text,omitempty"`
}

// Arrow lengths for open-air scenes, in metres.
const (
	intakeRun  = 1.2
	exhaustRun = 1.0
	labelLift  = 0.3
)

func annotate(s *Scene) []Annotation {
	rack := s.Rack
	front := -rack.Config.ShelfDepth / 2
	back := rack.Config.ShelfDepth / 2
	if s.Preset.Panel != layout.PanelNone {
		back = rack.PanelFaceZ
	}
	top := rack.TotalHeight
	if s.Room != nil {
		top = s.Room.Height
	}

	var out []Annotation
	if s.Preset.Machines {
		intake := front - intakeRun
		exhaust := back + rack.Dimensions.Protrusion() + exhaustRun
		if s.Room != nil {
			intake = s.Room.ColdEnd
			if s.Room.HasHotRoom() {
				exhaust = s.Room.HotEnd - s.Room.Dims.VentEndMargin
			}
		}
		machineY := rack.Dimensions.ShelfThickness + rack.Dimensions.MachineHeight/2
		for _, off := range s.RackOffsets {
			for _, t := range rack.Tiers {
				y := t.Y + machineY
				out = append(out,
					Annotation{
						Kind:  AnnotationColdAir,
						Start: layout.Vec3{X: off.X, Y: y, Z: intake},
						End:   layout.Vec3{X: off.X, Y: y, Z: front - 0.1},
					},
					Annotation{
						Kind:  AnnotationHotAir,
						Start: layout.Vec3{X: off.X, Y: y, Z: back + rack.Dimensions.Protrusion()},
						End:   layout.Vec3{X: off.X, Y: y, Z: exhaust},
					},
				)
			}
		}
		if s.Room != nil && s.Room.HasHotRoom() {
			out = append(out, ventArrows(s.Room)...)
		}
	}

	cold, hot := "COLD SIDE", "HOT SIDE"
	if s.Room != nil {
		cold = "COLD AISLE"
		if s.Room.HasHotRoom() {
			hot = "HOT AISLE"
		}
	}
	out = append(out,
		Annotation{Kind: AnnotationLabel, Start: layout.Vec3{Y: top + labelLift, Z: front - intakeRun/2}, Text: cold},
		Annotation{Kind: AnnotationLabel, Start: layout.Vec3{Y: top + labelLift, Z: back + exhaustRun/2}, Text: hot},
		Annotation{
			Kind:  AnnotationLabel,
			Start: layout.Vec3{Y: top + 2*labelLift},
			Text:  fmt.Sprintf("%s: %d x %d", s.Preset.Title, len(s.RackOffsets), rack.Config.MachinesPerRack()),
		},
	)
	return out
}

// ventArrows shows hot air leaving through the door-wall band and the high
// side vents.
func ventArrows(r *Room) []Annotation {
	d := r.Dims
	band := r.Height - d.TopVentHeight/2
	vent := r.Height - d.VentDrop - d.VentHeight/2
	mid := (r.RackBack + r.HotEnd) / 2
	hx := r.Width / 2
	w := d.WallThickness
	return []Annotation{
		{
			Kind:  AnnotationHotAir,
			Start: layout.Vec3{Y: band, Z: r.HotEnd - 0.5},
			End:   layout.Vec3{Y: band, Z: r.HotEnd + w + 0.5},
		},
		{
			Kind:  AnnotationHotAir,
			Start: layout.Vec3{X: -hx + 0.5, Y: vent, Z: mid},
			End:   layout.Vec3{X: -hx - w - 0.5, Y: vent, Z: mid},
		},
		{
			Kind:  AnnotationHotAir,
			Start: layout.Vec3{X: hx - 0.5, Y: vent, Z: mid},
			End:   layout.Vec3{X: hx + w + 0.5, Y: vent, Z: mid},
		},
	}
}
