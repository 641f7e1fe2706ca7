// Package export renders a laid-out hierarchy to a static SVG or PNG image.
package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/canopy/pkg/hierarchy"
	"github.com/vanderheijden86/canopy/pkg/layout"
	"github.com/vanderheijden86/canopy/pkg/metrics"
	"github.com/vanderheijden86/canopy/pkg/model"
)

// SnapshotOptions controls snapshot export.
type SnapshotOptions struct {
	Path   string // output path; format inferred from extension when Format is empty
	Format string // "svg" or "png" (case-insensitive)
	Title  string // optional heading
	Nodes  []hierarchy.LayoutNode
	Links  []hierarchy.LinkEdge
}

const (
	padX        = 60.0
	padY        = 30.0
	labelMargin = 150.0 // room for leaf labels right of the deepest level
	headerH     = 56.0
	nodeRadius  = 4.5
)

var (
	colorBackdrop  = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorLink      = color.RGBA{0x55, 0x55, 0x55, 0x66}
	colorCollapsed = color.RGBA{0x55, 0x55, 0x55, 0xff}
	colorExpanded  = color.RGBA{0x99, 0x99, 0x99, 0xff}
	colorText      = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle    = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorHalo      = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// SaveSnapshot writes the layout to opts.Path.
func SaveSnapshot(opts SnapshotOptions) error {
	defer metrics.Timer(metrics.Export)()

	if len(opts.Nodes) == 0 {
		return fmt.Errorf("no nodes to export")
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = "png"
		case ".svg":
			format = "svg"
		default:
			format = "svg"
			if filepath.Ext(opts.Path) == "" {
				opts.Path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	sc := newScene(opts)
	if format == "png" {
		return renderPNG(opts.Path, sc)
	}
	f, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	if err := renderSVG(f, sc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// scene is the layout translated into image coordinates.
type scene struct {
	Width, Height int
	Title         string
	Summary       string
	Nodes         []sceneNode
	Links         [][2]layout.Position
}

type sceneNode struct {
	Pos       layout.Position
	Name      string
	State     model.VisibilityState
	LabelLeft bool
}

func newScene(opts SnapshotOptions) scene {
	points := make([]layout.Position, 0, len(opts.Nodes))
	for _, n := range opts.Nodes {
		points = append(points, n.Position)
	}
	box := layout.Bounds(points)
	dx := padX - box.Min.X
	dy := headerH + padY - box.Min.Y
	at := func(p layout.Position) layout.Position {
		return layout.Position{X: p.X + dx, Y: p.Y + dy}
	}

	title := opts.Title
	if title == "" {
		title = opts.Nodes[0].Name
	}
	collapsed := 0
	sc := scene{
		Width:  int(math.Ceil(box.Width() + 2*padX + labelMargin)),
		Height: int(math.Ceil(box.Height() + 2*padY + headerH)),
		Title:  title,
	}
	for _, n := range opts.Nodes {
		if n.State == model.StateCollapsed {
			collapsed++
		}
		sc.Nodes = append(sc.Nodes, sceneNode{
			Pos:       at(n.Position),
			Name:      n.Name,
			State:     n.State,
			LabelLeft: n.State != model.StateLeaf,
		})
	}
	for _, l := range opts.Links {
		sc.Links = append(sc.Links, [2]layout.Position{at(l.Source), at(l.Target)})
	}
	sc.Summary = fmt.Sprintf("visible: %d  links: %d  collapsed: %d", len(opts.Nodes), len(opts.Links), collapsed)
	return sc
}

// controls returns the two control points of the horizontal link curve
// between src and dst.
func controls(src, dst layout.Position) (layout.Position, layout.Position) {
	mid := (src.X + dst.X) / 2
	return layout.Position{X: mid, Y: src.Y}, layout.Position{X: mid, Y: dst.Y}
}

func nodeColor(s model.VisibilityState) color.RGBA {
	if s == model.StateCollapsed {
		return colorCollapsed
	}
	return colorExpanded
}

func renderPNG(path string, sc scene) error {
	dc := gg.NewContext(sc.Width, sc.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(colorText)
	dc.DrawStringAnchored(sc.Title, padX, 22, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(sc.Summary, padX, 40, 0, 0.5)

	dc.SetColor(colorLink)
	dc.SetLineWidth(1.5)
	for _, l := range sc.Links {
		c1, c2 := controls(l[0], l[1])
		dc.NewSubPath()
		dc.MoveTo(l[0].X, l[0].Y)
		dc.CubicTo(c1.X, c1.Y, c2.X, c2.Y, l[1].X, l[1].Y)
		dc.Stroke()
	}

	for _, n := range sc.Nodes {
		dc.SetColor(nodeColor(n.State))
		dc.DrawCircle(n.Pos.X, n.Pos.Y, nodeRadius)
		dc.Fill()

		x, ax := n.Pos.X+nodeRadius+4, 0.0
		if n.LabelLeft {
			x, ax = n.Pos.X-nodeRadius-4, 1.0
		}
		dc.SetColor(colorText)
		dc.DrawStringAnchored(n.Name, x, n.Pos.Y, ax, 0.5)
	}

	return dc.SavePNG(path)
}

// WriteSVG renders the layout as an SVG document to w.
func WriteSVG(w io.Writer, opts SnapshotOptions) error {
	if len(opts.Nodes) == 0 {
		return fmt.Errorf("no nodes to export")
	}
	defer metrics.Timer(metrics.Export)()
	return renderSVG(w, newScene(opts))
}

func renderSVG(w io.Writer, sc scene) error {
	canvas := svg.New(w)
	canvas.Start(sc.Width, sc.Height)
	canvas.Rect(0, 0, sc.Width, sc.Height, "fill:"+css(colorBackdrop))
	canvas.Text(int(padX), 26, sc.Title,
		fmt.Sprintf("fill:%s;font-size:16px;font-family:sans-serif;font-weight:bold", css(colorText)))
	canvas.Text(int(padX), 44, sc.Summary,
		fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))

	canvas.Gstyle(fmt.Sprintf("fill:none;stroke:%s;stroke-opacity:0.4;stroke-width:1.5", css(colorLink)))
	for _, l := range sc.Links {
		c1, c2 := controls(l[0], l[1])
		canvas.Path(fmt.Sprintf("M%s C%s %s %s", pt(l[0]), pt(c1), pt(c2), pt(l[1])))
	}
	canvas.Gend()

	canvas.Gstyle("font-family:sans-serif;font-size:10px")
	for _, n := range sc.Nodes {
		x, y := n.Pos.X, n.Pos.Y
		canvas.Circle(int(math.Round(x)), int(math.Round(y)), int(math.Round(nodeRadius)), "fill:"+css(nodeColor(n.State)))

		lx, anchor := x+nodeRadius+4, "start"
		if n.LabelLeft {
			lx, anchor = x-nodeRadius-4, "end"
		}
		canvas.Text(int(math.Round(lx)), int(math.Round(y+3)), n.Name,
			fmt.Sprintf("fill:%s;text-anchor:%s;stroke:%s;stroke-width:3;paint-order:stroke",
				css(colorText), anchor, css(colorHalo)))
	}
	canvas.Gend()

	canvas.End()
	return nil
}

func pt(p layout.Position) string {
	return fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
