// Package layout positions the visible part of a hierarchy as a horizontal
// node/link tree: depth runs left to right, leaves are stacked top to bottom
// in order.
package layout

import (
	"math"

	"github.com/vanderheijden86/canopy/pkg/metrics"
	"github.com/vanderheijden86/canopy/pkg/model"
)

// Default spacing, in drawing units.
const (
	DefaultBreadth     = 35.0  // separation between neighbouring leaves
	DefaultWidth       = 960.0 // drawing width used to derive depth spacing
	DefaultMarginLeft  = 100.0
	DefaultMarginRight = 150.0
	MinDepthSpacing    = 40.0
)

// Position is a point in drawing space. X runs along the depth axis, Y along
// the breadth (leaf order) axis.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Lerp interpolates between p and q.
func (p Position) Lerp(q Position, t float64) Position {
	return Position{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// NodeSize is the space reserved per node along each axis.
type NodeSize struct {
	Breadth float64 `json:"breadth"`
	Depth   float64 `json:"depth"`
}

// Layouter computes a position for every visible node under root.
type Layouter interface {
	Place(root *model.TreeNode, size NodeSize) map[string]Position
}

// DepthSpacing spreads height+1 levels evenly over the drawable width.
func DepthSpacing(width, marginLeft, marginRight float64, height int) float64 {
	d := (width - marginLeft - marginRight) / float64(1+height)
	if math.IsNaN(d) || d < MinDepthSpacing {
		return MinDepthSpacing
	}
	return d
}

// Tidy is the default Layouter. Visible leaves take consecutive breadth
// slots, an internal node sits midway between its first and last visible
// child, and the whole drawing is shifted so the root is at Y = 0. Collapsed
// nodes and nodes with an empty child list take a slot like a leaf.
type Tidy struct{}

// Place implements Layouter.
func (Tidy) Place(root *model.TreeNode, size NodeSize) map[string]Position {
	defer metrics.Timer(metrics.LayoutPass)()

	positions := make(map[string]Position)
	if root == nil {
		return positions
	}

	slot := 0
	var place func(n *model.TreeNode, depth int) float64
	place = func(n *model.TreeNode, depth int) float64 {
		var y float64
		if len(n.Children) == 0 {
			y = float64(slot) * size.Breadth
			slot++
		} else {
			first := place(n.Children[0], depth+1)
			last := first
			for _, c := range n.Children[1:] {
				last = place(c, depth+1)
			}
			y = (first + last) / 2
		}
		positions[n.ID] = Position{X: float64(depth) * size.Depth, Y: y}
		return y
	}
	rootY := place(root, 0)

	for id, p := range positions {
		p.Y -= rootY
		positions[id] = p
	}
	return positions
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max Position
}

// Width returns the horizontal extent.
func (b Box) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the vertical extent.
func (b Box) Height() float64 { return b.Max.Y - b.Min.Y }

// Bounds returns the bounding box of the given points. An empty input yields
// the zero Box.
func Bounds(points []Position) Box {
	if len(points) == 0 {
		return Box{}
	}
	b := Box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
	}
	return b
}
