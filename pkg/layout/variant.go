package layout

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVariant is returned when a variant name or value is not in the
// preset table.
var ErrUnknownVariant = errors.New("unknown variant")

// Variant selects one row of the preset table.
type Variant int

const (
	VariantWorkshop  Variant = iota // fabrication view: racks with machines and wiring
	VariantFrame                    // metalwork only: frame, shelves, conduit, solid panel
	VariantRoom                     // joined racks inside the hot-aisle room and cold aisle
	VariantColdAisle                // joined racks facing the evaporative panel
)

func (v Variant) String() string {
	if p, ok := presetByVariant(v); ok {
		return p.Name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// MarshalText encodes the variant by name.
func (v Variant) MarshalText() ([]byte, error) {
	if _, ok := presetByVariant(v); !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, int(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText decodes a variant name.
func (v *Variant) UnmarshalText(b []byte) error {
	parsed, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseVariant looks a variant up by name. Matching ignores case and treats
// '_' like '-'.
func ParseVariant(name string) (Variant, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for _, p := range presets {
		if p.Name == key {
			return p.Variant, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownVariant, name)
}

// PanelStyle is the construction of the plywood back panel.
type PanelStyle int

const (
	PanelNone       PanelStyle = iota
	PanelSolid                 // closed sheet, only where no machine passes through
	PanelPerforated            // one clearance hole per machine slot
)

func (p PanelStyle) String() string {
	switch p {
	case PanelNone:
		return "none"
	case PanelSolid:
		return "solid"
	case PanelPerforated:
		return "perforated"
	default:
		return "unknown"
	}
}

// MarshalText encodes the panel style by name.
func (p PanelStyle) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Enclosure is the building shell drawn around the racks.
type Enclosure int

const (
	EnclosureNone      Enclosure = iota
	EnclosureRoom                // hot-aisle room with door and vents, plus the cold aisle
	EnclosureColdAisle           // cold aisle ending in the evaporative panel
)

func (e Enclosure) String() string {
	switch e {
	case EnclosureNone:
		return "none"
	case EnclosureRoom:
		return "room"
	case EnclosureColdAisle:
		return "cold-aisle"
	default:
		return "unknown"
	}
}

// MarshalText encodes the enclosure by name.
func (e Enclosure) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Preset is one row of the variant table: which sub-assemblies a rack gets
// and how racks are arranged in a scene.
type Preset struct {
	Variant      Variant    `json:"variant"`
	Name         string     `json:"name"`
	Title        string     `json:"title"`
	Machines     bool       `json:"machines"`
	Panel        PanelStyle `json:"panel"`
	PanelToFloor bool       `json:"panelToFloor"`
	// PanelFullLength widens the panel from the clear span to the whole
	// shelf length, covering the end columns.
	PanelFullLength bool      `json:"panelFullLength"`
	Conduit         bool      `json:"conduit"`
	Outlets         bool      `json:"outlets"`
	Racks           int       `json:"racks"`
	RackSpacing     float64   `json:"rackSpacing"`
	Enclosure       Enclosure `json:"enclosure"`
}

var presets = [...]Preset{
	{
		Variant:  VariantWorkshop,
		Name:     "workshop",
		Title:    "Rack project: frame, machines and cold-side wiring",
		Machines: true, Panel: PanelPerforated, Conduit: true, Outlets: true,
		Racks: 2, RackSpacing: 0.8,
	},
	{
		Variant: VariantFrame,
		Name:    "frame",
		Title:   "Metalwork: frame, shelves, conduit and back panel",
		Panel:   PanelSolid, PanelToFloor: true, Conduit: true,
		Racks: 2, RackSpacing: 0.8,
	},
	{
		Variant:  VariantRoom,
		Name:     "room",
		Title:    "Mining room: hot aisle and cold aisle",
		Machines: true, Panel: PanelPerforated, PanelToFloor: true, PanelFullLength: true,
		Racks: 2, Enclosure: EnclosureRoom,
	},
	{
		Variant:  VariantColdAisle,
		Name:     "cold-aisle",
		Title:    "Cold aisle interior",
		Machines: true, Panel: PanelPerforated, PanelToFloor: true, PanelFullLength: true,
		Racks: 2, Enclosure: EnclosureColdAisle,
	},
}

func presetByVariant(v Variant) (Preset, bool) {
	for _, p := range presets {
		if p.Variant == v {
			return p, true
		}
	}
	return Preset{}, false
}

// PresetFor returns the preset row for v.
func PresetFor(v Variant) (Preset, error) {
	p, ok := presetByVariant(v)
	if !ok {
		return Preset{}, fmt.Errorf("%w: %d", ErrUnknownVariant, int(v))
	}
	return p, nil
}

// Presets returns a copy of the preset table in declaration order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets[:])
	return out
}
