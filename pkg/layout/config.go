package layout

import "math"

// RackConfig is the user-adjustable parameter record for one rack unit.
// Lengths are in metres.
type RackConfig struct {
	Levels           int     `json:"levels"`
	MachinesPerLevel int     `json:"machinesPerLevel"`
	ShelfDepth       float64 `json:"shelfDepth"`
	ConduitDiameter  float64 `json:"conduitDiameter"`
	MachineGap       float64 `json:"machineGap"`
}

// MachinesPerRack returns the number of machine slots in one rack unit.
func (c RackConfig) MachinesPerRack() int {
	return c.Levels * c.MachinesPerLevel
}

// DefaultConfig is the configuration the planning UI opens with.
func DefaultConfig() RackConfig {
	return RackConfig{
		Levels:           5,
		MachinesPerLevel: 11,
		ShelfDepth:       0.60,
		ConduitDiameter:  0.05,
		MachineGap:       0.05,
	}
}

// IntRange is an inclusive integer range.
type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether v lies in the range.
func (r IntRange) Contains(v int) bool { return v >= r.Min && v <= r.Max }

func (r IntRange) clamp(v int) int {
	return min(max(v, r.Min), r.Max)
}

// FloatRange is an inclusive float range.
type FloatRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in the range.
func (r FloatRange) Contains(v float64) bool {
	return v >= r.Min-epsilon && v <= r.Max+epsilon
}

func (r FloatRange) clamp(v float64) float64 {
	return math.Min(math.Max(v, r.Min), r.Max)
}

// Limits are the accepted ranges for each RackConfig field. They match the
// sliders of the planning UI.
type Limits struct {
	Levels           IntRange   `json:"levels"`
	MachinesPerLevel IntRange   `json:"machinesPerLevel"`
	ShelfDepth       FloatRange `json:"shelfDepth"`
	ConduitDiameter  FloatRange `json:"conduitDiameter"`
	MachineGap       FloatRange `json:"machineGap"`
}

// DefaultLimits returns the documented parameter ranges.
func DefaultLimits() Limits {
	return Limits{
		Levels:           IntRange{Min: 1, Max: 8},
		MachinesPerLevel: IntRange{Min: 1, Max: 15},
		ShelfDepth:       FloatRange{Min: 0.40, Max: 1.00},
		ConduitDiameter:  FloatRange{Min: 0.030, Max: 0.080},
		MachineGap:       FloatRange{Min: 0.02, Max: 0.15},
	}
}

// Clamp snaps every field of c into the documented limits. NaN fields fall
// back to the default configuration's value. Clamping never fixes a row that
// is too wide for the shelf; Validate still reports that.
func Clamp(c RackConfig) RackConfig {
	lim := DefaultLimits()
	def := DefaultConfig()
	out := RackConfig{
		Levels:           lim.Levels.clamp(c.Levels),
		MachinesPerLevel: lim.MachinesPerLevel.clamp(c.MachinesPerLevel),
		ShelfDepth:       clampFloat(lim.ShelfDepth, c.ShelfDepth, def.ShelfDepth),
		ConduitDiameter:  clampFloat(lim.ConduitDiameter, c.ConduitDiameter, def.ConduitDiameter),
		MachineGap:       clampFloat(lim.MachineGap, c.MachineGap, def.MachineGap),
	}
	return out
}

func clampFloat(r FloatRange, v, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return r.clamp(v)
}

// Dimensions holds the fixed constants of the rack design: profile sizes,
// machine envelope and fixture sizes. Only RackConfig varies per build.
type Dimensions struct {
	ShelfLength    float64 `json:"shelfLength"`    // overall length along X
	FeetHeight     float64 `json:"feetHeight"`     // floor to first tier plane
	LevelHeight    float64 `json:"levelHeight"`    // tier pitch
	ShelfThickness float64 `json:"shelfThickness"` // sheet-metal shelf plate
	BeamSize       float64 `json:"beamSize"`       // square tube section

	MachineWidth       float64 `json:"machineWidth"`
	MachineHeight      float64 `json:"machineHeight"`
	MachineDepth       float64 `json:"machineDepth"`
	ProtrusionFraction float64 `json:"protrusionFraction"` // share of depth past the back panel face

	PanelThickness  float64 `json:"panelThickness"`
	CutoutClearance float64 `json:"cutoutClearance"` // added to hole width and height
	PanelEdgeMargin float64 `json:"panelEdgeMargin"` // minimum web between hole and panel edge

	ConduitClearance float64 `json:"conduitClearance"` // machine top to conduit bottom
	ClampsPerTier    int     `json:"clampsPerTier"`
	ClampWidth       float64 `json:"clampWidth"`
	ClampClearance   float64 `json:"clampClearance"` // ring radius over conduit radius

	OutletWidth    float64 `json:"outletWidth"`
	OutletHeight   float64 `json:"outletHeight"`
	OutletDepth    float64 `json:"outletDepth"`
	OutletDrop     float64 `json:"outletDrop"`     // gap below the tier rail
	OutletStandoff float64 `json:"outletStandoff"` // gap in front of the frame

	MachineHashrateTH float64 `json:"machineHashrateTH"`
}

// Standard is the Antminer S19k Pro rack built from 40 mm tube and 18 mm
// plywood.
var Standard = Dimensions{
	ShelfLength:    3.0,
	FeetHeight:     0.6,
	LevelHeight:    0.35,
	ShelfThickness: 0.003,
	BeamSize:       0.04,

	MachineWidth:       0.195,
	MachineHeight:      0.29,
	MachineDepth:       0.40,
	ProtrusionFraction: 0.30,

	PanelThickness:  0.018,
	CutoutClearance: 0.015,
	PanelEdgeMargin: 0.010,

	ConduitClearance: 0.02,
	ClampsPerTier:    7,
	ClampWidth:       0.008,
	ClampClearance:   0.005,

	OutletWidth:    0.06,
	OutletHeight:   0.08,
	OutletDepth:    0.04,
	OutletDrop:     0.01,
	OutletStandoff: 0.01,

	MachineHashrateTH: 120,
}

// TotalHeight is the rack height for the given tier count. The tier pitch is
// the single source of vertical truth; the height is derived from it.
func (d Dimensions) TotalHeight(levels int) float64 {
	return d.FeetHeight + float64(levels)*d.LevelHeight
}

// InnerLength is the clear span between the end columns.
func (d Dimensions) InnerLength() float64 {
	return d.ShelfLength - 2*d.BeamSize
}

// RowWidth is the width occupied by n machines separated by gap.
func (d Dimensions) RowWidth(n int, gap float64) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n)*d.MachineWidth + float64(n-1)*gap
}

// Protrusion is the length of machine body that sticks out past the hot-side
// face of the back panel.
func (d Dimensions) Protrusion() float64 {
	return d.ProtrusionFraction * d.MachineDepth
}

// MaxMachinesPerLevel returns the largest machine count that fits one tier
// of the given variant at the given gap, or 0 if none fits.
func (d Dimensions) MaxMachinesPerLevel(gap float64, p PanelStyle) int {
	avail := d.InnerLength()
	if p == PanelPerforated {
		avail -= d.CutoutClearance + 2*d.PanelEdgeMargin
	}
	if avail < d.MachineWidth {
		return 0
	}
	return int(math.Floor((avail+gap)/(d.MachineWidth+gap) + epsilon))
}
