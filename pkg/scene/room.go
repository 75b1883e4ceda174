package scene

import (
	"math"

	"github.com/chazu/minerack/pkg/layout"
)

// RoomDimensions are the fixed sizes of the hot-aisle room, the cold aisle
// and the evaporative cooling panel.
type RoomDimensions struct {
	MinHeight      float64 `json:"minHeight"`
	WallThickness  float64 `json:"wallThickness"`
	HotAisleDepth  float64 `json:"hotAisleDepth"`
	ColdAisleDepth float64 `json:"coldAisleDepth"`

	DoorWidth  float64 `json:"doorWidth"`
	DoorHeight float64 `json:"doorHeight"`
	DoorLeaf   float64 `json:"doorLeaf"` // door leaf thickness

	VentHeight    float64 `json:"ventHeight"`    // side wall vents
	VentDrop      float64 `json:"ventDrop"`      // ceiling to vent top
	VentEndMargin float64 `json:"ventEndMargin"` // solid wall at each end of a vent
	TopVentHeight float64 `json:"topVentHeight"` // open band along the top of the door wall

	EvapInsetWidth  float64 `json:"evapInsetWidth"`  // aisle width minus pad width
	EvapInsetHeight float64 `json:"evapInsetHeight"` // aisle height minus pad height
	EvapDepth       float64 `json:"evapDepth"`
	EvapFrame       float64 `json:"evapFrame"`
}

// StandardRoom holds the room sizes the installation is planned around.
var StandardRoom = RoomDimensions{
	MinHeight:      2.4,
	WallThickness:  0.1,
	HotAisleDepth:  4.0,
	ColdAisleDepth: 3.5,

	DoorWidth:  1.0,
	DoorHeight: 2.1,
	DoorLeaf:   0.04,

	VentHeight:    0.4,
	VentDrop:      0.1,
	VentEndMargin: 0.5,
	TopVentHeight: 0.2,

	EvapInsetWidth:  0.4,
	EvapInsetHeight: 0.3,
	EvapDepth:       0.15,
	EvapFrame:       0.08,
}

// Room is the enclosure around a row of racks. Z ranges are world
// coordinates; the cold aisle lies on -Z, the hot room on +Z.
type Room struct {
	Enclosure layout.Enclosure `json:"enclosure"`
	Dims      RoomDimensions   `json:"dimensions"`
	Width     float64          `json:"width"`  // inner width along X
	Height    float64          `json:"height"` // floor to ceiling
	RackFront float64          `json:"rackFront"`
	RackBack  float64          `json:"rackBack"` // hot face of the back panel
	ColdEnd   float64          `json:"coldEnd"`  // inner face of the evaporative wall
	HotEnd    float64          `json:"hotEnd"`   // inner face of the door wall; equals RackBack without a hot room

	// EvapPanel is the pad's extent on the cold end wall.
	EvapPanel layout.Rect `json:"evapPanel"`
}

// NewRoom sizes the enclosure for p around a row of rack units built as
// rack.
func NewRoom(p layout.Preset, rack *layout.Layout) *Room {
	return StandardRoom.Room(p, rack)
}

// Room sizes an enclosure using rd.
func (rd RoomDimensions) Room(p layout.Preset, rack *layout.Layout) *Room {
	r := &Room{
		Enclosure: p.Enclosure,
		Dims:      rd,
		Width:     RowLength(p, rack.Dimensions.ShelfLength),
		Height:    math.Max(rd.MinHeight, rack.TotalHeight),
		RackFront: -rack.Config.ShelfDepth / 2,
		RackBack:  rack.Config.ShelfDepth/2 + rack.Dimensions.PanelThickness,
	}
	r.ColdEnd = r.RackFront - rd.ColdAisleDepth
	r.HotEnd = r.RackBack
	if p.Enclosure == layout.EnclosureRoom {
		r.HotEnd = r.RackBack + rd.HotAisleDepth
	}
	r.EvapPanel = layout.Rect{
		Center: layout.Vec2{Y: r.Height / 2},
		Width:  r.Width - rd.EvapInsetWidth,
		Height: r.Height - rd.EvapInsetHeight,
	}
	return r
}

// HasHotRoom reports whether the enclosure closes the hot side.
func (r *Room) HasHotRoom() bool { return r.Enclosure == layout.EnclosureRoom }

// Components returns the enclosure's walls, floor, door and cooling panel.
func (r *Room) Components() []layout.PlacedComponent {
	b := &shell{r: r}
	b.floor()
	b.coldAisle()
	b.evaporativeWall()
	if r.HasHotRoom() {
		b.sideClosures()
		b.hotRoom()
	}
	return b.out
}

type shell struct {
	r   *Room
	out []layout.PlacedComponent
}

// box adds an axis-aligned box given its extent on each axis.
func (b *shell) box(name string, role layout.Role, x0, x1, y0, y1, z0, z1 float64) {
	b.out = append(b.out, layout.PlacedComponent{
		Name:  name,
		Group: "room",
		Role:  role,
		Shape: layout.Box{
			Center: layout.Vec3{X: (x0 + x1) / 2, Y: (y0 + y1) / 2, Z: (z0 + z1) / 2},
			Size:   layout.Vec3{X: x1 - x0, Y: y1 - y0, Z: z1 - z0},
		},
	})
}

func (b *shell) floor() {
	r, w := b.r, b.r.Dims.WallThickness
	hx := r.Width/2 + w
	b.box("room/floor", layout.RoleFloor, -hx, hx, -w, 0, r.ColdEnd-w, r.HotEnd+w)
}

func (b *shell) coldAisle() {
	r, w := b.r, b.r.Dims.WallThickness
	hx := r.Width / 2
	b.box("room/cold-aisle/roof", layout.RoleWall, -hx-w, hx+w, r.Height, r.Height+w, r.ColdEnd-w, r.RackFront)
	b.box("room/cold-aisle/wall-left", layout.RoleWall, -hx-w, -hx, 0, r.Height, r.ColdEnd, r.RackFront)
	b.box("room/cold-aisle/wall-right", layout.RoleWall, hx, hx+w, 0, r.Height, r.ColdEnd, r.RackFront)
}

// evaporativeWall closes the cold end around the framed evaporative pad.
func (b *shell) evaporativeWall() {
	r, d := b.r, b.r.Dims
	w, f := d.WallThickness, d.EvapFrame
	hx := r.Width / 2
	z0, z1 := r.ColdEnd-w, r.ColdEnd

	pad := r.EvapPanel
	lo, hi := pad.Min(), pad.Max()
	b.box("room/evaporative/pad", layout.RoleEvaporative, lo.X, hi.X, lo.Y, hi.Y, r.ColdEnd-d.EvapDepth, r.ColdEnd)

	// Frame members overlap at the corners like butt-jointed timber.
	b.box("room/evaporative/frame-top", layout.RoleTrim, lo.X-f, hi.X+f, hi.Y, hi.Y+f, z0, z1)
	b.box("room/evaporative/frame-bottom", layout.RoleTrim, lo.X-f, hi.X+f, lo.Y-f, lo.Y, z0, z1)
	b.box("room/evaporative/frame-left", layout.RoleTrim, lo.X-f, lo.X, lo.Y, hi.Y, z0, z1)
	b.box("room/evaporative/frame-right", layout.RoleTrim, hi.X, hi.X+f, lo.Y, hi.Y, z0, z1)

	if lo.Y-f > 0 {
		b.box("room/evaporative/wall-bottom", layout.RoleWall, -hx, hx, 0, lo.Y-f, z0, z1)
	}
	if hi.Y+f < r.Height {
		b.box("room/evaporative/wall-top", layout.RoleWall, -hx, hx, hi.Y+f, r.Height, z0, z1)
	}
	if lo.X-f > -hx {
		b.box("room/evaporative/wall-left", layout.RoleWall, -hx, lo.X-f, lo.Y-f, hi.Y+f, z0, z1)
		b.box("room/evaporative/wall-right", layout.RoleWall, hi.X+f, hx, lo.Y-f, hi.Y+f, z0, z1)
	}
}

// sideClosures seal the row ends so air can only pass through the machines.
func (b *shell) sideClosures() {
	r, w := b.r, b.r.Dims.WallThickness
	hx := r.Width / 2
	b.box("room/closure-left", layout.RoleWall, -hx-w, -hx, 0, r.Height, r.RackFront, r.RackBack)
	b.box("room/closure-right", layout.RoleWall, hx, hx+w, 0, r.Height, r.RackFront, r.RackBack)
}

// hotRoom encloses the hot side: a door wall with an open band along its top,
// side walls with high vents and a roof over the half nearest the racks.
func (b *shell) hotRoom() {
	r, d := b.r, b.r.Dims
	w := d.WallThickness
	hx := r.Width / 2
	h := r.Height

	// Door wall.
	z0, z1 := r.HotEnd, r.HotEnd+w
	band := h - d.TopVentHeight
	dx := d.DoorWidth / 2
	b.box("room/hot/door-wall-left", layout.RoleWall, -hx-w, -dx, 0, band, z0, z1)
	b.box("room/hot/door-wall-right", layout.RoleWall, dx, hx+w, 0, band, z0, z1)
	if band > d.DoorHeight {
		b.box("room/hot/door-lintel", layout.RoleWall, -dx, dx, d.DoorHeight, band, z0, z1)
	}
	zm := (z0 + z1) / 2
	b.box("room/hot/door", layout.RoleDoor, -dx, dx, 0, d.DoorHeight, zm-d.DoorLeaf/2, zm+d.DoorLeaf/2)

	// Side walls, each pierced by one long vent below the ceiling.
	ventTop := h - d.VentDrop
	ventBottom := ventTop - d.VentHeight
	za, zb := r.RackBack, r.HotEnd
	sides := []struct {
		name   string
		x0, x1 float64
	}{
		{"left", -hx - w, -hx},
		{"right", hx, hx + w},
	}
	for _, s := range sides {
		pre := "room/hot/wall-" + s.name
		b.box(pre, layout.RoleWall, s.x0, s.x1, 0, ventBottom, za, zb)
		b.box(pre+"-head", layout.RoleWall, s.x0, s.x1, ventTop, h, za, zb)
		b.box(pre+"-post-near", layout.RoleWall, s.x0, s.x1, ventBottom, ventTop, za, za+d.VentEndMargin)
		b.box(pre+"-post-far", layout.RoleWall, s.x0, s.x1, ventBottom, ventTop, zb-d.VentEndMargin, zb)
	}

	b.box("room/hot/roof", layout.RoleWall, -hx-w, hx+w, h, h+w, r.RackBack, r.RackBack+d.HotAisleDepth/2)
}
