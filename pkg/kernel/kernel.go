// Package kernel defines the abstract geometry kernel interface.
// Implementations provide solid modeling and boolean operations behind
// this interface so the tessellator never sees a backend type.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives. Box and Cylinder are centred on the origin; the cylinder
	// axis is Z.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Extrude sweeps a polygon in the XY plane minus its holes along Z by
	// depth, centred on z=0. Polygons are closed implicitly.
	Extrude(outline [][2]float64, holes [][][2]float64, depth float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
