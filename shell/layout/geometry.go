package layout

import (
	"math"

	"golang.org/x/exp/constraints"
)

type Point struct {
	X, Y float32
}

type Size struct {
	W, H float32
}

type Rect struct {
	Origin Point
	Size   Size
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.Origin.X && p.X < r.Origin.X+r.Size.W &&
		p.Y >= r.Origin.Y && p.Y < r.Origin.Y+r.Size.H
}

func (s Size) IsEmpty() bool { return s.W <= 0 || s.H <= 0 }

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxv[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// resolveConstraint treats a zero max as "unbounded".
func resolveConstraint(max float32) float32 {
	if max == 0 {
		return float32(math.MaxFloat32)
	}
	return max
}
