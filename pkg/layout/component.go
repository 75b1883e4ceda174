package layout

import "encoding/json"

// ---------------------------------------------------------------------------
// Roles
// ---------------------------------------------------------------------------

// Role tags what a component is so a renderer can pick a material. It never
// influences geometry.
type Role int

const (
	RoleStructure   Role = iota // columns, rails, cross members
	RoleShelf                   // sheet-metal shelf plates
	RoleMachine                 // ASIC envelope
	RoleConduit                 // PVC conduit run
	RoleClamp                   // conduit clamp ring
	RoleOutlet                  // outlet box
	RolePanel                   // plywood back panel
	RoleWall                    // galvanized enclosure sheet
	RoleDoor                    // door leaf and frame
	RoleFloor                   // floor slab
	RoleEvaporative             // evaporative cooling media
	RoleTrim                    // evaporative panel frame
)

var roleNames = [...]string{
	RoleStructure:   "structure",
	RoleShelf:       "shelf",
	RoleMachine:     "machine",
	RoleConduit:     "conduit",
	RoleClamp:       "clamp",
	RoleOutlet:      "outlet",
	RolePanel:       "panel",
	RoleWall:        "wall",
	RoleDoor:        "door",
	RoleFloor:       "floor",
	RoleEvaporative: "evaporative",
	RoleTrim:        "trim",
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return "unknown"
	}
	return roleNames[r]
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Roles returns every role in declaration order.
func Roles() []Role {
	roles := make([]Role, len(roleNames))
	for i := range roleNames {
		roles[i] = Role(i)
	}
	return roles
}

// ParseRole looks a role up by name.
func ParseRole(name string) (Role, bool) {
	for i, n := range roleNames {
		if n == name {
			return Role(i), true
		}
	}
	return 0, false
}

// Material is the display hint attached to a role.
type Material struct {
	Color     string  `json:"color"`
	Metalness float64 `json:"metalness"`
	Roughness float64 `json:"roughness"`
	Opacity   float64 `json:"opacity"`
}

var materials = map[Role]Material{
	RoleStructure:   {Color: "#718096", Metalness: 0.7, Roughness: 0.3, Opacity: 1},
	RoleShelf:       {Color: "#8494a8", Metalness: 0.5, Roughness: 0.4, Opacity: 1},
	RoleMachine:     {Color: "#7a8599", Metalness: 0.6, Roughness: 0.35, Opacity: 1},
	RoleConduit:     {Color: "#f97316", Metalness: 0.2, Roughness: 0.6, Opacity: 1},
	RoleClamp:       {Color: "#d1d5db", Metalness: 0.9, Roughness: 0.2, Opacity: 1},
	RoleOutlet:      {Color: "#fbbf24", Metalness: 0.4, Roughness: 0.5, Opacity: 1},
	RolePanel:       {Color: "#b8956b", Metalness: 0.1, Roughness: 0.8, Opacity: 1},
	RoleWall:        {Color: "#a8b5c4", Metalness: 0.7, Roughness: 0.4, Opacity: 1},
	RoleDoor:        {Color: "#6b7280", Metalness: 0.7, Roughness: 0.3, Opacity: 1},
	RoleFloor:       {Color: "#4a4a4a", Metalness: 0.1, Roughness: 0.9, Opacity: 1},
	RoleEvaporative: {Color: "#8b6914", Metalness: 0.1, Roughness: 0.9, Opacity: 0.85},
	RoleTrim:        {Color: "#5a4a3a", Metalness: 0.2, Roughness: 0.8, Opacity: 1},
}

// MaterialFor returns the display material for a role.
func MaterialFor(r Role) Material {
	if m, ok := materials[r]; ok {
		return m
	}
	return Material{Color: "#ff00ff", Opacity: 1}
}

// ---------------------------------------------------------------------------
// Shapes
// ---------------------------------------------------------------------------

// ShapeKind distinguishes the primitive shapes a component can take.
type ShapeKind int

const (
	ShapeBox      ShapeKind = iota // rectangular prism
	ShapeCylinder                  // right circular cylinder
	ShapePanel                     // extruded polygon with holes
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeCylinder:
		return "cylinder"
	case ShapePanel:
		return "panel"
	default:
		return "unknown"
	}
}

// Shape is implemented by Box, Cylinder and Panel only.
type Shape interface {
	Kind() ShapeKind
	// Translate returns a copy of the shape moved by d.
	Translate(d Vec3) Shape
}

// Box is a rectangular prism centred on Center.
type Box struct {
	Center Vec3 `json:"center"`
	Size   Vec3 `json:"size"`
}

func (Box) Kind() ShapeKind { return ShapeBox }

func (b Box) Translate(d Vec3) Shape {
	b.Center = b.Center.Add(d)
	return b
}

// Cylinder is centred on Center with its axis along Axis.
type Cylinder struct {
	Center Vec3    `json:"center"`
	Radius float64 `json:"radius"`
	Length float64 `json:"length"`
	Axis   Axis    `json:"axis"`
}

func (Cylinder) Kind() ShapeKind { return ShapeCylinder }

func (c Cylinder) Translate(d Vec3) Shape {
	c.Center = c.Center.Add(d)
	return c
}

// Panel is a polygon with holes lying in the XY plane, extruded Depth along
// Z and centred on Center. Outline and Holes are relative to Center.
type Panel struct {
	Center  Vec3     `json:"center"`
	Outline []Vec2   `json:"outline"`
	Holes   [][]Vec2 `json:"holes"`
	Depth   float64  `json:"depth"`
}

func (Panel) Kind() ShapeKind { return ShapePanel }

func (p Panel) Translate(d Vec3) Shape {
	p.Center = p.Center.Add(d)
	return p
}

// ---------------------------------------------------------------------------
// PlacedComponent
// ---------------------------------------------------------------------------

// PlacedComponent is one positioned structural member, machine or fixture.
type PlacedComponent struct {
	Name  string // unique within a layout, e.g. "tier-2/machine-04"
	Group string // coarse grouping for renderers, e.g. "frame", "tier-2"
	Role  Role
	Shape Shape
}

// Translate returns a copy of the component moved by d.
func (c PlacedComponent) Translate(d Vec3) PlacedComponent {
	c.Shape = c.Shape.Translate(d)
	return c
}

// MarshalJSON flattens the shape and adds its kind so consumers can switch on
// "kind" without reflecting on field names.
func (c PlacedComponent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string   `json:"name"`
		Group    string   `json:"group"`
		Role     Role     `json:"role"`
		Kind     string   `json:"kind"`
		Shape    Shape    `json:"shape"`
		Material Material `json:"material"`
	}{
		Name:     c.Name,
		Group:    c.Group,
		Role:     c.Role,
		Kind:     c.Shape.Kind().String(),
		Shape:    c.Shape,
		Material: MaterialFor(c.Role),
	})
}
