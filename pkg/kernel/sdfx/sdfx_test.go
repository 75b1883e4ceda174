package sdfx

import (
	"math"
	"testing"
)

func TestBox(t *testing.T) {
	k := New()
	box := k.Box(100, 50, 25)
	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if mesh.VertexCount() == 0 {
		t.Fatal("expected non-zero vertex count")
	}
	triCount := mesh.TriangleCount()
	if triCount == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	// A box should produce exactly 12 triangles (2 per face, 6 faces).
	if triCount != 12 {
		t.Logf("box triangle count: %d (expected 12)", triCount)
	}
	// Verify vertex and index array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != triCount*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), triCount*3)
	}
}

func TestCylinder(t *testing.T) {
	k := New()
	cyl := k.Cylinder(50, 10, 32)
	mesh, err := k.ToMesh(cyl)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if mesh.TriangleCount() == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	t.Logf("cylinder triangle count: %d", mesh.TriangleCount())
}

func TestDifference(t *testing.T) {
	k := New()

	box := k.Box(100, 100, 100)
	boxMesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh(box) failed: %v", err)
	}

	cyl := k.Cylinder(120, 20, 32)
	diff := k.Difference(box, cyl)
	diffMesh, err := k.ToMesh(diff)
	if err != nil {
		t.Fatalf("ToMesh(diff) failed: %v", err)
	}
	if diffMesh.IsEmpty() {
		t.Fatal("difference mesh is empty")
	}
	// A box with a hole should have more triangles than a plain box.
	if diffMesh.TriangleCount() <= boxMesh.TriangleCount() {
		t.Fatalf("difference (%d triangles) should have more triangles than box (%d triangles)",
			diffMesh.TriangleCount(), boxMesh.TriangleCount())
	}
	t.Logf("box triangles: %d, difference triangles: %d", boxMesh.TriangleCount(), diffMesh.TriangleCount())
}

func TestUnion(t *testing.T) {
	k := New()
	box1 := k.Box(50, 50, 50)
	box2 := k.Translate(k.Box(50, 50, 50), 30, 0, 0)
	u := k.Union(box1, box2)
	mesh, err := k.ToMesh(u)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("union mesh is empty")
	}
	t.Logf("union triangle count: %d", mesh.TriangleCount())
}

func TestTranslate(t *testing.T) {
	k := New()
	box := k.Box(10, 10, 10)
	translated := k.Translate(box, 100, 200, 300)

	min, max := translated.BoundingBox()

	// Translated box(10,10,10) by (100,200,300) should be centered at (100,200,300).
	// So bounds should be approximately (95,195,295) to (105,205,305).
	const tol = 0.5
	expectMin := [3]float64{95, 195, 295}
	expectMax := [3]float64{105, 205, 305}

	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], expectMax[i])
		}
	}
}

func TestBoundingBox(t *testing.T) {
	k := New()
	box := k.Box(100, 50, 25)
	min, max := box.BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{-50, -25, -12.5}
	expectMax := [3]float64{50, 25, 12.5}

	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], expectMax[i])
		}
	}
}

func TestIntersection(t *testing.T) {
	k := New()
	box1 := k.Box(100, 100, 100)
	box2 := k.Translate(k.Box(100, 100, 100), 50, 0, 0)
	inter := k.Intersection(box1, box2)
	mesh, err := k.ToMesh(inter)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("intersection mesh is empty")
	}
	t.Logf("intersection triangle count: %d", mesh.TriangleCount())
}

func TestRotate(t *testing.T) {
	k := New()
	box := k.Box(100, 10, 10)

	// A long box along X rotated 90 degrees around Z should extend along Y instead.
	rotated := k.Rotate(box, 0, 0, 90)
	min, max := rotated.BoundingBox()

	// After 90-degree Z rotation, the X extent should be small and Y extent large.
	xExtent := max[0] - min[0]
	yExtent := max[1] - min[1]

	const tol = 1.0
	if math.Abs(xExtent-10) > tol {
		t.Errorf("rotated X extent = %f, expected ~10", xExtent)
	}
	if math.Abs(yExtent-100) > tol {
		t.Errorf("rotated Y extent = %f, expected ~100", yExtent)
	}
}

func square(cx, cy, half float64) [][2]float64 {
	return [][2]float64{
		{cx - half, cy - half},
		{cx + half, cy - half},
		{cx + half, cy + half},
		{cx - half, cy + half},
	}
}

func TestExtrudeBoundingBox(t *testing.T) {
	k := New()
	s, err := k.Extrude(square(0, 0, 50), nil, 10)
	if err != nil {
		t.Fatalf("Extrude failed: %v", err)
	}
	lo, hi := s.BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{-50, -50, -5}
	expectMax := [3]float64{50, 50, 5}
	for i := 0; i < 3; i++ {
		if math.Abs(lo[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, lo[i], expectMin[i])
		}
		if math.Abs(hi[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, hi[i], expectMax[i])
		}
	}

	mesh, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("extruded mesh is empty")
	}
}

func TestExtrudeCutsHoles(t *testing.T) {
	k := New()
	sample := k.Box(10, 10, 20)

	solid, err := k.Extrude(square(0, 0, 50), nil, 10)
	if err != nil {
		t.Fatalf("Extrude(solid) failed: %v", err)
	}
	holed, err := k.Extrude(square(0, 0, 50), [][][2]float64{square(0, 0, 10), square(30, 30, 5)}, 10)
	if err != nil {
		t.Fatalf("Extrude(holed) failed: %v", err)
	}

	inSolid, err := k.ToMesh(k.Intersection(solid, sample))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if inSolid.IsEmpty() {
		t.Fatal("sample inside an uncut panel should leave material")
	}

	inHole, err := k.ToMesh(k.Intersection(holed, sample))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if !inHole.IsEmpty() {
		t.Fatalf("sample inside the hole found %d triangles", inHole.TriangleCount())
	}
}

func TestExtrudeErrors(t *testing.T) {
	k := New()
	tests := []struct {
		name    string
		outline [][2]float64
		holes   [][][2]float64
		depth   float64
	}{
		{"zero depth", square(0, 0, 1), nil, 0},
		{"negative depth", square(0, 0, 1), nil, -1},
		{"two point outline", [][2]float64{{0, 0}, {1, 0}}, nil, 1},
		{"degenerate hole", square(0, 0, 1), [][][2]float64{{{0, 0}}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := k.Extrude(tt.outline, tt.holes, tt.depth); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestCellsFor(t *testing.T) {
	k := New()
	tests := []struct {
		name string
		x    float64
		y    float64
		z    float64
		want int
	}{
		{"chunky box uses the floor", 100, 50, 25, minMeshCells},
		{"thin plate hits the ceiling", 2.92, 1.79, 0.018, DefaultMeshCells},
		{"in between", 2, 1, 0.03125, 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := k.CellsFor(k.Box(tt.x, tt.y, tt.z)); got != tt.want {
				t.Errorf("CellsFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewWithCellsFloor(t *testing.T) {
	if got := NewWithCells(10).MaxCells(); got != minMeshCells {
		t.Errorf("MaxCells() = %d, want %d", got, minMeshCells)
	}
	if got := NewWithCells(128).MaxCells(); got != 128 {
		t.Errorf("MaxCells() = %d, want 128", got)
	}
}
