package anim

import (
	"math"
	"testing"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/vanderheijden86/canopy/pkg/layout"
)

func pos(x, y float64) layout.Position { return layout.Position{X: x, Y: y} }

func settled(nodes ...Sprite) Frame {
	f := Frame{}
	for _, n := range nodes {
		n.Opacity = 1
		f.Nodes = append(f.Nodes, n)
	}
	return f
}

func TestTransitionClassifiesPhases(t *testing.T) {
	from := settled(
		Sprite{ID: "root", Pos: pos(0, 0)},
		Sprite{ID: "a", Pos: pos(100, 0)},
		Sprite{ID: "gone", Pos: pos(200, 10)},
	)
	from.Links = []LinkSprite{
		{ParentID: "root", ChildID: "a", Source: pos(0, 0), Target: pos(100, 0), Opacity: 1},
		{ParentID: "a", ChildID: "gone", Source: pos(100, 0), Target: pos(200, 10), Opacity: 1},
	}

	tr := NewTransition(Plan{
		From: from,
		Nodes: []Target{
			{ID: "root", Pos: pos(0, 0)},
			{ID: "a", Pos: pos(100, -5)},
			{ID: "new", Pos: pos(200, -5)},
		},
		Links: []LinkTarget{
			{ParentID: "root", ChildID: "a"},
			{ParentID: "a", ChildID: "new"},
		},
		SourcePrev: pos(100, 0),
		SourceNext: pos(100, -5),
		Duration:   time.Second,
		Easing:     ease.Linear,
	})

	phases := tr.Phases()
	if phases[Entering] != 1 || phases[Persisting] != 2 || phases[Exiting] != 1 {
		t.Fatalf("unexpected phases: %v", phases)
	}

	start := tr.Frame()
	entering, _ := start.Node("new")
	if entering.Pos != pos(100, 0) || entering.Opacity != 0 {
		t.Errorf("entering node should start at source previous position, got %+v", entering)
	}
	link, _ := start.Link("new")
	if link.Source != pos(100, 0) || link.Target != pos(100, 0) {
		t.Errorf("entering link should start collapsed at source, got %+v", link)
	}

	tr.Update(500 * time.Millisecond)
	mid := tr.Frame()
	a, _ := mid.Node("a")
	if a.Pos.Y > -2 || a.Pos.Y < -3 {
		t.Errorf("persisting node midway Y = %v, want about -2.5", a.Pos.Y)
	}
	exiting, ok := mid.Node("gone")
	if !ok || exiting.Phase != Exiting {
		t.Fatalf("exiting node missing mid-transition: %+v", exiting)
	}

	tr.Update(600 * time.Millisecond)
	if !tr.Done() {
		t.Fatal("expected transition to be done")
	}
	end := tr.Frame()
	if _, ok := end.Node("gone"); ok {
		t.Error("exiting node should be removed when done")
	}
	if _, ok := end.Link("gone"); ok {
		t.Error("exiting link should be removed when done")
	}
	if n, _ := end.Node("new"); n.Pos != pos(200, -5) || n.Opacity != 1 {
		t.Errorf("entering node end state = %+v", n)
	}
	if len(end.Nodes) != 3 || end.Nodes[0].ID != "root" || end.Nodes[2].ID != "new" {
		t.Errorf("frame should follow layout order: %+v", end.Nodes)
	}
}

func TestTransitionExitsTowardSourceNext(t *testing.T) {
	from := settled(Sprite{ID: "root"}, Sprite{ID: "child", Pos: pos(100, 0)})
	tr := NewTransition(Plan{
		From:       from,
		Nodes:      []Target{{ID: "root", Pos: pos(0, 0)}},
		SourcePrev: pos(0, 0),
		SourceNext: pos(0, 0),
		Duration:   time.Second,
		Easing:     ease.Linear,
	})
	tr.Update(999 * time.Millisecond)
	child, ok := tr.Frame().Node("child")
	if !ok {
		t.Fatal("child removed before the transition finished")
	}
	if child.Pos.X > 1 || child.Opacity > 0.01 {
		t.Errorf("child should have nearly reached the source: %+v", child)
	}
}

func TestZeroDurationIsImmediate(t *testing.T) {
	tr := NewTransition(Plan{
		Nodes:    []Target{{ID: "root", Pos: pos(0, 0)}, {ID: "a", Pos: pos(50, 0)}},
		Links:    []LinkTarget{{ParentID: "root", ChildID: "a"}},
		Duration: 0,
	})
	if !tr.Done() {
		t.Fatal("expected zero-duration transition to be done")
	}
	f := tr.Frame()
	if n, _ := f.Node("a"); n.Pos != pos(50, 0) || n.Opacity != 1 {
		t.Errorf("node not at end state: %+v", n)
	}
	if l, _ := f.Link("a"); l.Target != pos(50, 0) {
		t.Errorf("link not at end state: %+v", l)
	}
}

func TestInterruptedTransitionStartsFromDisplayedState(t *testing.T) {
	first := NewTransition(Plan{
		From:     settled(Sprite{ID: "root"}, Sprite{ID: "a", Pos: pos(0, 0)}),
		Nodes:    []Target{{ID: "root"}, {ID: "a", Pos: pos(100, 0)}},
		Duration: time.Second,
		Easing:   ease.Linear,
	})
	first.Update(250 * time.Millisecond)
	displayed, _ := first.Frame().Node("a")

	second := NewTransition(Plan{
		From:     first.Frame(),
		Nodes:    []Target{{ID: "root"}, {ID: "a", Pos: pos(0, 40)}},
		Duration: time.Second,
		Easing:   ease.Linear,
	})
	got, _ := second.Frame().Node("a")
	if got.Pos != displayed.Pos {
		t.Errorf("second transition started at %+v, want displayed %+v", got.Pos, displayed.Pos)
	}
	if got.Pos.X == 100 {
		t.Error("second transition used the interrupted end state")
	}
}

func TestEasingLookup(t *testing.T) {
	if _, err := Easing(""); err != nil {
		t.Errorf("default easing: %v", err)
	}
	if _, err := Easing("Linear"); err != nil {
		t.Errorf("case-insensitive lookup: %v", err)
	}
	if _, err := Easing("wobble"); err == nil {
		t.Error("expected error for unknown easing")
	}
}

func TestDiagonalEndpoints(t *testing.T) {
	pts := Diagonal(pos(0, 0), pos(100, 50), 4)
	if len(pts) != 5 {
		t.Fatalf("got %d points, want 5", len(pts))
	}
	if pts[0] != pos(0, 0) || pts[4] != pos(100, 50) {
		t.Errorf("endpoints = %v, %v", pts[0], pts[4])
	}
	if mid := pts[2]; mid.X != 50 || mid.Y != 25 {
		t.Errorf("midpoint = %+v, want (50,25)", mid)
	}
	if len(Diagonal(pos(0, 0), pos(1, 1), 0)) != 2 {
		t.Error("steps below 1 should yield two points")
	}
}

func TestDiagonalMatchesCubic(t *testing.T) {
	src, dst := pos(10, -35), pos(187.5, 70)
	mid := (src.X + dst.X) / 2
	pts := Diagonal(src, dst, 16)
	for i, p := range pts {
		tt := float64(i) / 16
		u := 1 - tt
		wantX := u*u*u*src.X + 3*u*u*tt*mid + 3*u*tt*tt*mid + tt*tt*tt*dst.X
		wantY := u*u*u*src.Y + 3*u*u*tt*src.Y + 3*u*tt*tt*dst.Y + tt*tt*tt*dst.Y
		if math.Abs(p.X-wantX) > 1e-9 || math.Abs(p.Y-wantY) > 1e-9 {
			t.Errorf("point %d = %+v, want (%v,%v)", i, p, wantX, wantY)
		}
	}
}
