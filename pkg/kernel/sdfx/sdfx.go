// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/minerack/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

const (
	// DefaultMeshCells is the marching cubes resolution ceiling used by New.
	DefaultMeshCells = 200

	// minMeshCells is the floor for chunky parts.
	minMeshCells = 64

	// cellsAcrossThinnest is how many cells should span the thinnest side
	// of a solid's bounding box.
	cellsAcrossThinnest = 2
)

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	maxCells int
}

// New returns a new SdfxKernel with the default resolution ceiling.
func New() *SdfxKernel {
	return NewWithCells(DefaultMeshCells)
}

// NewWithCells returns a kernel whose marching cubes grid never exceeds
// maxCells along the longest side of a solid. Values below the internal
// floor are raised to it.
func NewWithCells(maxCells int) *SdfxKernel {
	return &SdfxKernel{maxCells: max(maxCells, minMeshCells)}
}

// MaxCells returns the resolution ceiling.
func (k *SdfxKernel) MaxCells() int { return k.maxCells }

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with the given dimensions centred on the origin.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	return wrap(s)
}

// Cylinder creates a cylinder along Z with the given height and radius.
// The segments parameter is ignored since SDF represents smooth surfaces.
func (k *SdfxKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return wrap(s)
}

// Extrude builds the outline minus the union of the holes as a 2D SDF and
// extrudes it along Z.
func (k *SdfxKernel) Extrude(outline [][2]float64, holes [][][2]float64, depth float64) (kernel.Solid, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("sdfx: extrude depth %g must be positive", depth)
	}
	body, err := polygon(outline)
	if err != nil {
		return nil, fmt.Errorf("sdfx: outline: %w", err)
	}
	if len(holes) > 0 {
		cuts := make([]sdf.SDF2, 0, len(holes))
		for i, h := range holes {
			c, err := polygon(h)
			if err != nil {
				return nil, fmt.Errorf("sdfx: hole %d: %w", i, err)
			}
			cuts = append(cuts, c)
		}
		body = sdf.Difference2D(body, sdf.Union2D(cuts...))
	}
	return wrap(sdf.Extrude3D(body, depth)), nil
}

func polygon(pts [][2]float64) (sdf.SDF2, error) {
	if len(pts) < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 vertices, got %d", len(pts))
	}
	vs := make([]v2.Vec, len(pts))
	for i, p := range pts {
		vs[i] = v2.Vec{X: p[0], Y: p[1]}
	}
	return sdf.Polygon2D(vs)
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// CellsFor returns the marching cubes resolution used for s: enough cells
// to put cellsAcrossThinnest across the thinnest side, clamped to
// [minMeshCells, MaxCells].
func (k *SdfxKernel) CellsFor(s kernel.Solid) int {
	lo, hi := s.BoundingBox()
	long, thin := 0.0, math.Inf(1)
	for a := 0; a < 3; a++ {
		d := hi[a] - lo[a]
		long = math.Max(long, d)
		thin = math.Min(thin, d)
	}
	if thin <= 0 || math.IsInf(thin, 0) {
		return k.maxCells
	}
	n := int(math.Ceil(cellsAcrossThinnest * long / thin))
	return min(max(n, minMeshCells), k.maxCells)
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s)

	renderer := render.NewMarchingCubesUniform(k.CellsFor(s))
	triangles := render.ToTriangles(sdf3, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
