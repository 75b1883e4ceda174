package scene

import (
	"github.com/samber/lo"

	"github.com/chazu/minerack/pkg/layout"
)

// Summary is the headline numbers of a scene.
type Summary struct {
	Racks           int            `json:"racks"`
	MachinesPerRack int            `json:"machinesPerRack"`
	TotalMachines   int            `json:"totalMachines"`
	HashrateTH      float64        `json:"hashrateTH"`
	RackHeight      float64        `json:"rackHeight"`
	RowWidth        float64        `json:"rowWidth"`
	RowLength       float64        `json:"rowLength"`
	Components      int            `json:"components"`
	ByRole          map[string]int `json:"byRole"`
	Groups          []string       `json:"groups"`
}

// Summarize counts what a scene contains.
func Summarize(s *Scene) Summary {
	machines := lo.CountBy(s.Components, func(c layout.PlacedComponent) bool {
		return c.Role == layout.RoleMachine
	})
	perRack := 0
	if len(s.RackOffsets) > 0 {
		perRack = machines / len(s.RackOffsets)
	}

	return Summary{
		Racks:           len(s.RackOffsets),
		MachinesPerRack: perRack,
		TotalMachines:   machines,
		HashrateTH:      float64(machines) * s.Rack.Dimensions.MachineHashrateTH,
		RackHeight:      s.Rack.TotalHeight,
		RowWidth:        s.Rack.RowWidth,
		RowLength:       RowLength(s.Preset, s.Rack.Dimensions.ShelfLength),
		Components:      len(s.Components),
		ByRole: lo.CountValuesBy(s.Components, func(c layout.PlacedComponent) string {
			return c.Role.String()
		}),
		Groups: lo.Uniq(lo.Map(s.Components, func(c layout.PlacedComponent, _ int) string {
			return c.Group
		})),
	}
}
