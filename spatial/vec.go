// Package spatial provides a family of generic spatial indexing
// containers sharing a uniform query contract: uniform grid, hash grid,
// quadtree/octree, and a linear baseline, over 2D and 3D points.
package spatial

import "math"

// Vec2 is a 2D point or vector.
type Vec2 struct {
	X, Y float64
}

// Vec3 is a 3D point or vector.
type Vec3 struct {
	X, Y, Z float64
}

func (a Vec2) Add(b Vec2) Vec2      { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2      { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s float64) Vec2 { return Vec2{a.X * s, a.Y * s} }

func (a Vec3) Add(b Vec3) Vec3      { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3      { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }

// Box2 is an axis-aligned 2D bounding box, min/max inclusive.
type Box2 struct {
	Min, Max Vec2
}

// Box3 is an axis-aligned 3D bounding box, min/max inclusive.
type Box3 struct {
	Min, Max Vec3
}

// Ball2 is a 2D circle.
type Ball2 struct {
	Center Vec2
	Radius float64
}

// Ball3 is a 3D sphere.
type Ball3 struct {
	Center Vec3
	Radius float64
}

func (b Box2) Diagonal() Vec2 { return b.Max.Sub(b.Min) }
func (b Box3) Diagonal() Vec3 { return b.Max.Sub(b.Min) }

func (b Box2) Center() Vec2 { return b.Min.Add(b.Max).Scale(0.5) }
func (b Box3) Center() Vec3 { return b.Min.Add(b.Max).Scale(0.5) }

func insideBox2(p Vec2, b Box2) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

func insideBox3(p Vec3, b Box3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

func overlapsBox2(a, b Box2) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y
}

func overlapsBox3(a, b Box3) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

func insideBall2(p Vec2, c Ball2) bool {
	d := p.Sub(c.Center)
	return d.X*d.X+d.Y*d.Y <= c.Radius*c.Radius
}

func insideBall3(p Vec3, c Ball3) bool {
	d := p.Sub(c.Center)
	return d.X*d.X+d.Y*d.Y+d.Z*d.Z <= c.Radius*c.Radius
}

// boundingBox2 is the smallest Box2 enclosing ball.
func boundingBox2(ball Ball2) Box2 {
	r := Vec2{ball.Radius, ball.Radius}
	return Box2{Min: ball.Center.Sub(r), Max: ball.Center.Add(r)}
}

// boundingBox3 is the smallest Box3 enclosing ball.
func boundingBox3(ball Ball3) Box3 {
	r := Vec3{ball.Radius, ball.Radius, ball.Radius}
	return Box3{Min: ball.Center.Sub(r), Max: ball.Center.Add(r)}
}

func floorToInt(v float64) int { return int(math.Floor(v)) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minComponent2(v Vec2) float64 {
	if v.X < v.Y {
		return v.X
	}
	return v.Y
}

func minComponent3(v Vec3) float64 {
	m := v.X
	if v.Y < m {
		m = v.Y
	}
	if v.Z < m {
		m = v.Z
	}
	return m
}
