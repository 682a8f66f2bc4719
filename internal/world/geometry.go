package world

import "math"

// Vec2 is a position, velocity or facing in map units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalized returns the unit vector along v, or false for a zero vector.
func (v Vec2) Normalized() (Vec2, bool) {
	length := v.Len()
	if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return Vec2{}, false
	}
	return Vec2{X: v.X / length, Y: v.Y / length}, true
}

func Distance(a, b Vec2) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Clamp limits value to the range [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Bounds is the playable rectangle of a map.
type Bounds struct {
	Width  float64
	Height float64
	Margin float64
}

// ClampInside keeps p at least Margin away from every edge.
func (b Bounds) ClampInside(p Vec2) Vec2 {
	return Vec2{
		X: Clamp(p.X, b.Margin, b.Width-b.Margin),
		Y: Clamp(p.Y, b.Margin, b.Height-b.Margin),
	}
}

// Contains reports whether p lies within [0,Width]x[0,Height].
func (b Bounds) Contains(p Vec2) bool {
	return p.X >= 0 && p.X <= b.Width && p.Y >= 0 && p.Y <= b.Height
}
