package ui

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/canopy/pkg/anim"
	"github.com/vanderheijden86/canopy/pkg/hierarchy"
	"github.com/vanderheijden86/canopy/pkg/layout"
	"github.com/vanderheijden86/canopy/pkg/model"
)

// Node glyphs by visibility state.
const (
	glyphLeaf      = '○'
	glyphExpanded  = '●'
	glyphCollapsed = '◉'
)

// faintBelow is the opacity under which sprites are drawn dimmed.
const faintBelow = 0.5

// maxColsPerLevel caps horizontal stretching of shallow trees.
const maxColsPerLevel = 24

type cellKind uint8

const (
	kindEmpty cellKind = iota
	kindLink
	kindLinkFaint
	kindLeaf
	kindExpanded
	kindCollapsed
	kindLabel
	kindLabelFaint
	kindSelected
	kindCount
)

type cell struct {
	r    rune
	kind cellKind
	cont bool // right half of a wide rune
}

// Canvas is a fixed-size grid of styled runes.
type Canvas struct {
	w, h  int
	cells []cell
}

// NewCanvas returns a blank canvas of w×h cells.
func NewCanvas(w, h int) *Canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	c := &Canvas{w: w, h: h, cells: make([]cell, w*h)}
	for i := range c.cells {
		c.cells[i].r = ' '
	}
	return c
}

func (c *Canvas) at(x, y int) *cell {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return nil
	}
	return &c.cells[y*c.w+x]
}

func (c *Canvas) set(x, y int, r rune, k cellKind) {
	if p := c.at(x, y); p != nil {
		*p = cell{r: r, kind: k}
	}
}

// text writes s starting at (x, y), clipped to the canvas. Wide runes take
// two cells.
func (c *Canvas) text(x, y int, s string, k cellKind) {
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if x >= 0 && x+rw <= c.w {
			c.set(x, y, r, k)
			for i := 1; i < rw; i++ {
				if p := c.at(x+i, y); p != nil {
					*p = cell{r: ' ', kind: k, cont: true}
				}
			}
		}
		x += rw
	}
}

// Lines returns the canvas as plain text, one string per row.
func (c *Canvas) Lines() []string {
	lines := make([]string, c.h)
	var sb strings.Builder
	for y := 0; y < c.h; y++ {
		sb.Reset()
		for x := 0; x < c.w; x++ {
			if cl := c.cells[y*c.w+x]; !cl.cont {
				sb.WriteRune(cl.r)
			}
		}
		lines[y] = sb.String()
	}
	return lines
}

// Render returns the canvas with styles applied, merging runs of equal kind.
func (c *Canvas) Render(t Theme) string {
	var out strings.Builder
	var run strings.Builder
	for y := 0; y < c.h; y++ {
		if y > 0 {
			out.WriteByte('\n')
		}
		kind := kindEmpty
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if kind == kindEmpty {
				out.WriteString(run.String())
			} else {
				out.WriteString(t.style(kind).Render(run.String()))
			}
			run.Reset()
		}
		for x := 0; x < c.w; x++ {
			cl := c.cells[y*c.w+x]
			if cl.cont {
				continue
			}
			if cl.kind != kind {
				flush()
				kind = cl.kind
			}
			run.WriteRune(cl.r)
		}
		flush()
	}
	return out.String()
}

// Viewport maps drawing coordinates onto canvas cells.
type Viewport struct {
	ScaleX, ScaleY   float64
	OffsetX, OffsetY float64
	// LabelWidth caps labels of nodes with children so they end before
	// the next level. Zero means no cap.
	LabelWidth int
}

// Cell returns the cell p falls in.
func (v Viewport) Cell(p layout.Position) (int, int) {
	return int(math.Round(p.X*v.ScaleX + v.OffsetX)), int(math.Round(p.Y*v.ScaleY + v.OffsetY))
}

// Row returns the row of p.
func (v Viewport) Row(p layout.Position) int {
	_, y := v.Cell(p)
	return y
}

// FitViewport sizes a viewport so that the laid-out nodes, with their
// labels, fit w columns. One row is given to each breadth unit, so the tree
// may be taller than the canvas; callers scroll by adjusting OffsetY.
func FitViewport(nodes []hierarchy.LayoutNode, w int, breadth float64) Viewport {
	if len(nodes) == 0 || breadth <= 0 {
		return Viewport{ScaleY: 1}
	}
	minX, maxX, minY := math.Inf(1), math.Inf(-1), math.Inf(1)
	right := 0
	for _, n := range nodes {
		minX = math.Min(minX, n.Position.X)
		maxX = math.Max(maxX, n.Position.X)
		minY = math.Min(minY, n.Position.Y)
		if n.State == model.StateLeaf {
			right = max(right, runewidth.StringWidth(n.Name)+2)
		}
	}
	right = min(right, w/3)

	v := Viewport{ScaleY: 1 / breadth}
	v.OffsetY = -minY * v.ScaleY
	if span := maxX - minX; span > 0 {
		gap := nodeSpacing(nodes)
		avail := float64(w - right - 2)
		v.ScaleX = math.Max(0, math.Min(avail/span, maxColsPerLevel/gap))
		v.LabelWidth = max(int(v.ScaleX*gap)-2, 1)
	}
	v.OffsetX = 1 - minX*v.ScaleX
	return v
}

// nodeSpacing returns the smallest positive depth gap between nodes.
func nodeSpacing(nodes []hierarchy.LayoutNode) float64 {
	gap := math.Inf(1)
	for _, n := range nodes {
		if n.Depth > 0 && n.Position.X > 0 {
			gap = math.Min(gap, n.Position.X/float64(n.Depth))
		}
	}
	if math.IsInf(gap, 1) {
		return 1
	}
	return gap
}

// nodeInfo describes a sprite for drawing.
type nodeInfo struct {
	Name  string
	State model.VisibilityState
}

// Draw paints a frame: links, then labels, then node glyphs on top. lookup
// resolves sprite ids; sprites it does not know are skipped.
func (c *Canvas) Draw(frame anim.Frame, v Viewport, selected string, lookup func(id string) (nodeInfo, bool)) {
	for _, l := range frame.Links {
		if l.Opacity <= 0.05 {
			continue
		}
		kind := kindLink
		if l.Opacity < faintBelow {
			kind = kindLinkFaint
		}
		c.drawLink(l.Source, l.Target, v, kind)
	}

	type glyph struct {
		x, y int
		r    rune
		kind cellKind
	}
	glyphs := make([]glyph, 0, len(frame.Nodes))
	for _, s := range frame.Nodes {
		info, ok := lookup(s.ID)
		if !ok || s.Opacity <= 0.05 {
			continue
		}
		x, y := v.Cell(s.Pos)
		g := glyph{x: x, y: y, r: glyphLeaf, kind: kindLeaf}
		switch info.State {
		case model.StateExpanded:
			g.r, g.kind = glyphExpanded, kindExpanded
		case model.StateCollapsed:
			g.r, g.kind = glyphCollapsed, kindCollapsed
		}
		label := kindLabel
		if s.Opacity < faintBelow {
			g.kind, label = kindLinkFaint, kindLabelFaint
		}
		if s.ID == selected {
			g.kind, label = kindSelected, kindSelected
		}
		glyphs = append(glyphs, g)

		name := info.Name
		if info.State != model.StateLeaf && v.LabelWidth > 0 {
			name = truncateRunesHelper(name, v.LabelWidth, "…")
		}
		c.text(x+1, y, " "+name, label)
	}
	for _, g := range glyphs {
		c.set(g.x, g.y, g.r, g.kind)
	}
}

func (c *Canvas) drawLink(src, dst layout.Position, v Viewport, kind cellKind) {
	x0, y0 := v.Cell(src)
	x1, y1 := v.Cell(dst)
	steps := 2*max(abs(x1-x0), abs(y1-y0)) + 2
	px, py := x0, y0
	for _, p := range anim.Diagonal(src, dst, steps) {
		x, y := v.Cell(p)
		if x == px && y == py {
			continue
		}
		r := linkRune(x-px, y-py)
		if cl := c.at(x, y); cl != nil && (cl.kind == kindEmpty || cl.kind == kindLink || cl.kind == kindLinkFaint) {
			if !(x == x1 && y == y1) {
				c.set(x, y, r, kind)
			}
		}
		px, py = x, y
	}
}

func linkRune(dx, dy int) rune {
	switch {
	case dy == 0:
		return '─'
	case dx == 0:
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
