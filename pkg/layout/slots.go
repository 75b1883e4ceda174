package layout

import "fmt"

// Tier is one horizontal shelf plane.
type Tier struct {
	Level int     `json:"level"`
	Y     float64 `json:"y"` // top of the tier rails; the shelf plate rests here
}

// Tiers returns the tier planes bottom to top.
func (d Dimensions) Tiers(levels int) []Tier {
	tiers := make([]Tier, levels)
	for i := range tiers {
		tiers[i] = Tier{Level: i, Y: d.TierY(i)}
	}
	return tiers
}

// TierY is the height of tier plane level. Every per-tier element derives its
// height from this value plus a fixed local offset.
func (d Dimensions) TierY(level int) float64 {
	return d.FeetHeight + float64(level)*d.LevelHeight
}

// SlotX is the x centre of machine m in a centred row of n machines.
func (d Dimensions) SlotX(n int, gap float64, m int) float64 {
	startX := -d.RowWidth(n, gap)/2 + d.MachineWidth/2
	return startX + float64(m)*(d.MachineWidth+gap)
}

// machineCenterY is the machine centre height above a tier plane.
func (d Dimensions) machineCenterY(tierY float64) float64 {
	return tierY + d.ShelfThickness + d.MachineHeight/2
}

// PanelFaceZ is the z of the back panel's hot-side face for a shelf of the
// given depth. The panel sits directly behind the rear columns.
func (d Dimensions) PanelFaceZ(shelfDepth float64) float64 {
	return shelfDepth/2 + d.PanelThickness
}

// protrusionOffset is the machine centre's z relative to the panel face.
// Both the machine position and the cutout plane are derived from it.
func (d Dimensions) protrusionOffset() float64 {
	return d.Protrusion() - d.MachineDepth/2
}

// MachineSlot is one machine position.
type MachineSlot struct {
	Level  int  `json:"level"`
	Slot   int  `json:"slot"`
	Center Vec3 `json:"center"`
}

// Name is the component name of the machine in this slot.
func (s MachineSlot) Name() string {
	return fmt.Sprintf("tier-%d/machine-%02d", s.Level, s.Slot)
}

// Slots returns every machine slot, tier by tier, left to right.
func (d Dimensions) Slots(cfg RackConfig) []MachineSlot {
	slots := make([]MachineSlot, 0, cfg.MachinesPerRack())
	z := d.PanelFaceZ(cfg.ShelfDepth) + d.protrusionOffset()
	for level := 0; level < cfg.Levels; level++ {
		y := d.machineCenterY(d.TierY(level))
		for m := 0; m < cfg.MachinesPerLevel; m++ {
			slots = append(slots, MachineSlot{
				Level:  level,
				Slot:   m,
				Center: Vec3{X: d.SlotX(cfg.MachinesPerLevel, cfg.MachineGap, m), Y: y, Z: z},
			})
		}
	}
	return slots
}

// PanelCutout is the clearance hole a machine passes through. Center is in
// world coordinates and lies on the panel's hot-side face.
type PanelCutout struct {
	Level  int     `json:"level"`
	Slot   int     `json:"slot"`
	Center Vec3    `json:"center"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Name identifies the cutout by its slot.
func (c PanelCutout) Name() string {
	return fmt.Sprintf("tier-%d/cutout-%02d", c.Level, c.Slot)
}

// Rect is the cutout's footprint in the panel plane.
func (c PanelCutout) Rect() Rect {
	return Rect{Center: Vec2{X: c.Center.X, Y: c.Center.Y}, Width: c.Width, Height: c.Height}
}

// Cutout projects a machine slot back onto the panel face.
func (d Dimensions) Cutout(s MachineSlot) PanelCutout {
	return PanelCutout{
		Level:  s.Level,
		Slot:   s.Slot,
		Center: Vec3{X: s.Center.X, Y: s.Center.Y, Z: s.Center.Z - d.protrusionOffset()},
		Width:  d.MachineWidth + d.CutoutClearance,
		Height: d.MachineHeight + d.CutoutClearance,
	}
}

// ClampXs returns the clamp positions along the conduit. Clamps are spread
// evenly over the conduit span including both ends; a single clamp sits in
// the middle.
func (d Dimensions) ClampXs() []float64 {
	n := d.ClampsPerTier
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{0}
	}
	span := d.InnerLength()
	xs := make([]float64, n)
	for c := range xs {
		xs[c] = -span/2 + float64(c)*span/float64(n-1)
	}
	return xs
}

// conduitY is the conduit axis height for a tier plane: a fixed clearance
// above the machine envelope top.
func (d Dimensions) conduitY(tierY, diameter float64) float64 {
	return tierY + d.ShelfThickness + d.MachineHeight + d.ConduitClearance + diameter/2
}

// outletY is the outlet box centre height for a tier plane, hung below the
// tier rail, whose top is flush with the tier plane.
func (d Dimensions) outletY(tierY float64) float64 {
	return tierY - d.BeamSize - d.OutletHeight/2 - d.OutletDrop
}
