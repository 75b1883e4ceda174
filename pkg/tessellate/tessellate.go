// Package tessellate turns placed components into triangle meshes using a
// geometry kernel. One mesh is produced per component.
package tessellate

import (
	"fmt"

	"github.com/chazu/minerack/pkg/kernel"
	"github.com/chazu/minerack/pkg/layout"
)

// cylinderSegments is passed to kernels that facet cylinders.
const cylinderSegments = 32

// Options narrows what gets tessellated.
type Options struct {
	// Roles limits output to the listed roles. Empty means every role.
	Roles []layout.Role
}

func (o Options) wants(r layout.Role) bool {
	if len(o.Roles) == 0 {
		return true
	}
	for _, want := range o.Roles {
		if want == r {
			return true
		}
	}
	return false
}

// Result holds the meshes in component order and the names of components
// whose mesh came out empty at the kernel's resolution.
type Result struct {
	Meshes  []*kernel.Mesh `json:"meshes"`
	Skipped []string       `json:"skipped,omitempty"`
}

// shapeKey identifies shapes that mesh identically up to translation.
type shapeKey struct {
	kind   layout.ShapeKind
	size   layout.Vec3
	radius float64
	length float64
	axis   layout.Axis
}

// Tessellate produces one mesh per component using the provided geometry
// kernel. Boxes and cylinders of the same size are meshed once at the origin
// and translated. The components are never mutated.
func Tessellate(components []layout.PlacedComponent, k kernel.Kernel, opts Options) (*Result, error) {
	res := &Result{}
	cache := make(map[shapeKey]*kernel.Mesh)

	for _, c := range components {
		if !opts.wants(c.Role) {
			continue
		}
		mesh, err := meshComponent(k, c, cache)
		if err != nil {
			return nil, fmt.Errorf("tessellate: component %s: %w", c.Name, err)
		}
		if mesh.IsEmpty() {
			res.Skipped = append(res.Skipped, c.Name)
			continue
		}
		m := layout.MaterialFor(c.Role)
		mesh.PartName = c.Name
		mesh.Role = c.Role.String()
		mesh.Color = m.Color
		mesh.Opacity = m.Opacity
		res.Meshes = append(res.Meshes, mesh)
	}

	return res, nil
}

// meshComponent returns a fresh mesh for c placed in world coordinates.
func meshComponent(k kernel.Kernel, c layout.PlacedComponent, cache map[shapeKey]*kernel.Mesh) (*kernel.Mesh, error) {
	switch s := c.Shape.(type) {
	case layout.Box:
		key := shapeKey{kind: layout.ShapeBox, size: s.Size}
		return cachedAt(k, key, s.Center, cache, func() (kernel.Solid, error) {
			return k.Box(s.Size.X, s.Size.Y, s.Size.Z), nil
		})

	case layout.Cylinder:
		key := shapeKey{kind: layout.ShapeCylinder, radius: s.Radius, length: s.Length, axis: s.Axis}
		return cachedAt(k, key, s.Center, cache, func() (kernel.Solid, error) {
			return alongAxis(k, k.Cylinder(s.Length, s.Radius, cylinderSegments), s.Axis), nil
		})

	case layout.Panel:
		solid, err := k.Extrude(points(s.Outline), holes(s.Holes), s.Depth)
		if err != nil {
			return nil, err
		}
		solid = k.Translate(solid, s.Center.X, s.Center.Y, s.Center.Z)
		return k.ToMesh(solid)

	default:
		return nil, fmt.Errorf("unsupported shape %T", c.Shape)
	}
}

// cachedAt meshes the solid built by build once per key and returns a copy
// moved to center.
func cachedAt(k kernel.Kernel, key shapeKey, center layout.Vec3, cache map[shapeKey]*kernel.Mesh, build func() (kernel.Solid, error)) (*kernel.Mesh, error) {
	base, ok := cache[key]
	if !ok {
		solid, err := build()
		if err != nil {
			return nil, err
		}
		base, err = k.ToMesh(solid)
		if err != nil {
			return nil, err
		}
		cache[key] = base
	}
	return translated(base, center), nil
}

// alongAxis turns a Z-axis solid so its axis lies along a.
func alongAxis(k kernel.Kernel, s kernel.Solid, a layout.Axis) kernel.Solid {
	switch a {
	case layout.AxisX:
		return k.Rotate(s, 0, 90, 0)
	case layout.AxisY:
		return k.Rotate(s, 90, 0, 0)
	default:
		return s
	}
}

func translated(m *kernel.Mesh, d layout.Vec3) *kernel.Mesh {
	out := &kernel.Mesh{
		Vertices: make([]float32, len(m.Vertices)),
		Normals:  m.Normals,
		Indices:  m.Indices,
	}
	dx, dy, dz := float32(d.X), float32(d.Y), float32(d.Z)
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		out.Vertices[i] = m.Vertices[i] + dx
		out.Vertices[i+1] = m.Vertices[i+1] + dy
		out.Vertices[i+2] = m.Vertices[i+2] + dz
	}
	return out
}

func points(vs []layout.Vec2) [][2]float64 {
	out := make([][2]float64, len(vs))
	for i, v := range vs {
		out[i] = [2]float64{v.X, v.Y}
	}
	return out
}

func holes(hs [][]layout.Vec2) [][][2]float64 {
	if len(hs) == 0 {
		return nil
	}
	out := make([][][2]float64, len(hs))
	for i, h := range hs {
		out[i] = points(h)
	}
	return out
}
