package anim

import "github.com/vanderheijden86/canopy/pkg/layout"

// Diagonal samples the horizontal cubic Bézier drawn between a parent at src
// and a child at dst: both control points sit at the horizontal midpoint, so
// the curve leaves and enters each node horizontally. It returns steps+1
// points including both ends; steps below 1 are treated as 1.
func Diagonal(src, dst layout.Position, steps int) []layout.Position {
	if steps < 1 {
		steps = 1
	}
	mid := (src.X + dst.X) / 2
	c1 := layout.Position{X: mid, Y: src.Y}
	c2 := layout.Position{X: mid, Y: dst.Y}

	points := make([]layout.Position, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		// de Casteljau
		a, b, c := src.Lerp(c1, t), c1.Lerp(c2, t), c2.Lerp(dst, t)
		d, e := a.Lerp(b, t), b.Lerp(c, t)
		points = append(points, d.Lerp(e, t))
	}
	return points
}
