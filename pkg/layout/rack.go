package layout

import (
	"fmt"
)

// Layout is the fully resolved geometry of one rack unit, centred on the
// origin at floor level. The cold (intake) side faces -Z.
type Layout struct {
	Config      RackConfig        `json:"config"`
	Variant     Variant           `json:"variant"`
	Dimensions  Dimensions        `json:"dimensions"`
	TotalHeight float64           `json:"totalHeight"`
	RowWidth    float64           `json:"rowWidth"`
	PanelFaceZ  float64           `json:"panelFaceZ"`
	PanelRect   Rect              `json:"panelRect"` // world XY extent of the back panel
	Tiers       []Tier            `json:"tiers"`
	Slots       []MachineSlot     `json:"slots"`
	Cutouts     []PanelCutout     `json:"cutouts"`
	ConduitY    []float64         `json:"conduitY,omitempty"` // per tier; nil without conduit
	Components  []PlacedComponent `json:"components"`
}

// Build computes the layout of one rack unit using the standard dimensions.
func Build(cfg RackConfig, v Variant) (*Layout, error) {
	return Standard.Build(cfg, v)
}

// Build validates cfg and computes the layout of one rack unit.
func (d Dimensions) Build(cfg RackConfig, v Variant) (*Layout, error) {
	p, err := PresetFor(v)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(cfg, v); err != nil {
		return nil, err
	}

	b := &rackBuilder{d: d, cfg: cfg, p: p}
	return b.build(), nil
}

// rackBuilder accumulates components for a single Build call.
type rackBuilder struct {
	d   Dimensions
	cfg RackConfig
	p   Preset
	out []PlacedComponent
}

func (b *rackBuilder) add(name, group string, role Role, s Shape) {
	b.out = append(b.out, PlacedComponent{Name: name, Group: group, Role: role, Shape: s})
}

func (b *rackBuilder) frontZ() float64 { return -b.cfg.ShelfDepth / 2 }
func (b *rackBuilder) rearZ() float64  { return b.cfg.ShelfDepth / 2 }

func (b *rackBuilder) build() *Layout {
	d, cfg := b.d, b.cfg

	l := &Layout{
		Config:      cfg,
		Variant:     b.p.Variant,
		Dimensions:  d,
		TotalHeight: d.TotalHeight(cfg.Levels),
		Tiers:       d.Tiers(cfg.Levels),
	}

	b.columns(l.TotalHeight)
	b.rails()
	b.shelves(l.Tiers)

	if b.p.Machines {
		l.RowWidth = d.RowWidth(cfg.MachinesPerLevel, cfg.MachineGap)
		l.Slots = d.Slots(cfg)
		b.machines(l.Slots)
	}
	if b.p.Conduit {
		l.ConduitY = b.conduits(l.Tiers)
	}
	if b.p.Outlets && b.p.Machines {
		b.outlets(l.Slots)
	}
	if b.p.Panel != PanelNone {
		l.PanelFaceZ = d.PanelFaceZ(cfg.ShelfDepth)
		l.PanelRect = b.panelRect(l.TotalHeight)
		if b.p.Panel == PanelPerforated {
			l.Cutouts = make([]PanelCutout, len(l.Slots))
			for i, s := range l.Slots {
				l.Cutouts[i] = d.Cutout(s)
			}
		}
		b.panel(l.PanelRect, l.Cutouts)
	}

	l.Components = b.out
	return l
}

// columns places four corner columns and the mid-span pair, all rooted at
// y=0 and spanning the full rack height.
func (b *rackBuilder) columns(height float64) {
	d := b.d
	xEnd := d.ShelfLength/2 - d.BeamSize/2
	zFront := b.frontZ() + d.BeamSize/2
	zRear := b.rearZ() - d.BeamSize/2
	size := Vec3{X: d.BeamSize, Y: height, Z: d.BeamSize}

	cols := []struct {
		name string
		x, z float64
	}{
		{"column-front-left", -xEnd, zFront},
		{"column-front-right", xEnd, zFront},
		{"column-rear-left", -xEnd, zRear},
		{"column-rear-right", xEnd, zRear},
		{"column-front-mid", 0, zFront},
		{"column-rear-mid", 0, zRear},
	}
	for _, c := range cols {
		b.add(c.name, "frame", RoleStructure, Box{
			Center: Vec3{X: c.x, Y: height / 2, Z: c.z},
			Size:   size,
		})
	}
}

// rails places the base frame and one ring of rails at every tier plane
// plus the top plane. Rail tops are flush with the plane they carry.
func (b *rackBuilder) rails() {
	d := b.d
	b.railRing("base", d.BeamSize/2, true)
	for k := 0; k <= b.cfg.Levels; k++ {
		b.railRing(fmt.Sprintf("rail-%d", k), d.TierY(k)-d.BeamSize/2, false)
	}
}

func (b *rackBuilder) railRing(prefix string, y float64, crossMember bool) {
	d := b.d
	inner := d.InnerLength()
	innerDepth := b.cfg.ShelfDepth - 2*d.BeamSize
	xEnd := d.ShelfLength/2 - d.BeamSize/2

	long := Vec3{X: inner, Y: d.BeamSize, Z: d.BeamSize}
	side := Vec3{X: d.BeamSize, Y: d.BeamSize, Z: innerDepth}

	b.add(prefix+"/front", "frame", RoleStructure, Box{Center: Vec3{Y: y, Z: b.frontZ() + d.BeamSize/2}, Size: long})
	b.add(prefix+"/rear", "frame", RoleStructure, Box{Center: Vec3{Y: y, Z: b.rearZ() - d.BeamSize/2}, Size: long})
	b.add(prefix+"/left", "frame", RoleStructure, Box{Center: Vec3{X: -xEnd, Y: y}, Size: side})
	b.add(prefix+"/right", "frame", RoleStructure, Box{Center: Vec3{X: xEnd, Y: y}, Size: side})
	if crossMember {
		b.add(prefix+"/center", "frame", RoleStructure, Box{Center: Vec3{Y: y}, Size: side})
	}
}

// shelves places one plate per tier resting on the tier plane.
func (b *rackBuilder) shelves(tiers []Tier) {
	d := b.d
	size := Vec3{X: d.InnerLength(), Y: d.ShelfThickness, Z: b.cfg.ShelfDepth - 2*d.BeamSize}
	for _, t := range tiers {
		b.add(fmt.Sprintf("tier-%d/shelf", t.Level), tierGroup(t.Level), RoleShelf, Box{
			Center: Vec3{Y: t.Y + d.ShelfThickness/2},
			Size:   size,
		})
	}
}

func (b *rackBuilder) machines(slots []MachineSlot) {
	d := b.d
	size := Vec3{X: d.MachineWidth, Y: d.MachineHeight, Z: d.MachineDepth}
	for _, s := range slots {
		b.add(s.Name(), tierGroup(s.Level), RoleMachine, Box{Center: s.Center, Size: size})
	}
}

// conduits runs one conduit per tier along the cold side with its clamps and
// returns the conduit axis height per tier.
func (b *rackBuilder) conduits(tiers []Tier) []float64 {
	d := b.d
	r := b.cfg.ConduitDiameter / 2
	z := b.frontZ() + d.BeamSize + r
	clampXs := d.ClampXs()

	ys := make([]float64, len(tiers))
	for i, t := range tiers {
		y := d.conduitY(t.Y, b.cfg.ConduitDiameter)
		ys[i] = y
		group := tierGroup(t.Level)
		b.add(fmt.Sprintf("tier-%d/conduit", t.Level), group, RoleConduit, Cylinder{
			Center: Vec3{Y: y, Z: z},
			Radius: r,
			Length: d.InnerLength(),
			Axis:   AxisX,
		})
		for c, x := range clampXs {
			b.add(fmt.Sprintf("tier-%d/clamp-%d", t.Level, c), group, RoleClamp, Cylinder{
				Center: Vec3{X: x, Y: y, Z: z},
				Radius: r + d.ClampClearance,
				Length: d.ClampWidth,
				Axis:   AxisX,
			})
		}
	}
	return ys
}

// outlets hangs one outlet box per machine slot in front of the frame.
func (b *rackBuilder) outlets(slots []MachineSlot) {
	d := b.d
	size := Vec3{X: d.OutletWidth, Y: d.OutletHeight, Z: d.OutletDepth}
	z := b.frontZ() - d.OutletDepth/2 - d.OutletStandoff
	for _, s := range slots {
		b.add(fmt.Sprintf("tier-%d/outlet-%02d", s.Level, s.Slot), tierGroup(s.Level), RoleOutlet, Box{
			Center: Vec3{X: s.Center.X, Y: d.outletY(d.TierY(s.Level)), Z: z},
			Size:   size,
		})
	}
}

// panelRect is the back panel's extent in the XY plane. By default it fills
// the clear span from just under the first tier rail to the top; the preset
// can drop it to the floor and widen it over the end columns.
func (b *rackBuilder) panelRect(height float64) Rect {
	d := b.d
	width, bottom := d.InnerLength(), d.FeetHeight-d.BeamSize
	if b.p.PanelToFloor {
		bottom = 0
	}
	if b.p.PanelFullLength {
		width = d.ShelfLength
	}
	return Rect{
		Center: Vec2{Y: (bottom + height) / 2},
		Width:  width,
		Height: height - bottom,
	}
}

// panel emits the back panel with one hole per cutout. Outline and holes are
// relative to the panel centre.
func (b *rackBuilder) panel(r Rect, cutouts []PanelCutout) {
	d := b.d
	outline := Rect{Width: r.Width, Height: r.Height}.Corners()

	var holes [][]Vec2
	for _, c := range cutouts {
		local := c.Rect()
		local.Center.X -= r.Center.X
		local.Center.Y -= r.Center.Y
		holes = append(holes, local.Corners())
	}

	b.add("back-panel", "panel", RolePanel, Panel{
		Center:  Vec3{X: r.Center.X, Y: r.Center.Y, Z: b.rearZ() + d.PanelThickness/2},
		Outline: outline,
		Holes:   holes,
		Depth:   d.PanelThickness,
	})
}

func tierGroup(level int) string {
	return fmt.Sprintf("tier-%d", level)
}
