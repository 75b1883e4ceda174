package layout

import "fmt"

// Vec3 is a position or extent in metres. +X runs along the rack, +Y is up
// and +Z points from the cold (intake) side to the hot (exhaust) side.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X, v.Y, v.Z)
}

// Vec2 is a point in a panel's local XY plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Axis names a principal axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "unknown"
	}
}

// MarshalText encodes the axis by name so JSON consumers see "x", not 0.
func (a Axis) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Rect is an axis-aligned rectangle described by its centre and full size.
type Rect struct {
	Center Vec2    `json:"center"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Min returns the lower-left corner.
func (r Rect) Min() Vec2 {
	return Vec2{X: r.Center.X - r.Width/2, Y: r.Center.Y - r.Height/2}
}

// Max returns the upper-right corner.
func (r Rect) Max() Vec2 {
	return Vec2{X: r.Center.X + r.Width/2, Y: r.Center.Y + r.Height/2}
}

// Corners returns the rectangle as a counter-clockwise polygon; the first
// vertex is not repeated.
func (r Rect) Corners() []Vec2 {
	lo, hi := r.Min(), r.Max()
	return []Vec2{
		{X: lo.X, Y: lo.Y},
		{X: hi.X, Y: lo.Y},
		{X: hi.X, Y: hi.Y},
		{X: lo.X, Y: hi.Y},
	}
}

// Contains reports whether o lies inside r with at least margin to spare on
// every side.
func (r Rect) Contains(o Rect, margin float64) bool {
	rlo, rhi := r.Min(), r.Max()
	olo, ohi := o.Min(), o.Max()
	return olo.X >= rlo.X+margin-epsilon && ohi.X <= rhi.X-margin+epsilon &&
		olo.Y >= rlo.Y+margin-epsilon && ohi.Y <= rhi.Y-margin+epsilon
}

// Overlaps reports whether the interiors of r and o intersect.
func (r Rect) Overlaps(o Rect) bool {
	rlo, rhi := r.Min(), r.Max()
	olo, ohi := o.Min(), o.Max()
	return rlo.X < ohi.X-epsilon && olo.X < rhi.X-epsilon &&
		rlo.Y < ohi.Y-epsilon && olo.Y < rhi.Y-epsilon
}

// epsilon absorbs float64 noise in containment checks (well below 1 µm).
const epsilon = 1e-9
