package anim

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/vanderheijden86/canopy/pkg/layout"
)

// DefaultDuration matches the transition length of the original tree chart.
const DefaultDuration = 750 * time.Millisecond

// Phase classifies an animated item.
type Phase int

const (
	Entering   Phase = iota // not in the previous frame
	Persisting              // in both frames
	Exiting                 // gone from the next layout
)

func (p Phase) String() string {
	switch p {
	case Entering:
		return "entering"
	case Persisting:
		return "persisting"
	case Exiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// Sprite is the displayed state of one node.
type Sprite struct {
	ID      string          `json:"id"`
	Pos     layout.Position `json:"pos"`
	Opacity float64         `json:"opacity"`
	Phase   Phase           `json:"phase"`
}

// LinkSprite is the displayed state of one parent→child link, keyed by the
// child id.
type LinkSprite struct {
	ParentID string          `json:"parent_id"`
	ChildID  string          `json:"child_id"`
	Source   layout.Position `json:"source"`
	Target   layout.Position `json:"target"`
	Opacity  float64         `json:"opacity"`
	Phase    Phase           `json:"phase"`
}

// Frame is everything on screen at one instant.
type Frame struct {
	Nodes []Sprite
	Links []LinkSprite
}

// Node looks up a node sprite by id.
func (f Frame) Node(id string) (Sprite, bool) {
	for _, s := range f.Nodes {
		if s.ID == id {
			return s, true
		}
	}
	return Sprite{}, false
}

// Link looks up a link sprite by child id.
func (f Frame) Link(childID string) (LinkSprite, bool) {
	for _, l := range f.Links {
		if l.ChildID == childID {
			return l, true
		}
	}
	return LinkSprite{}, false
}

// Target is where a node should end up after the transition.
type Target struct {
	ID  string
	Pos layout.Position
}

// LinkTarget is a link present in the next layout.
type LinkTarget struct {
	ParentID string
	ChildID  string
}

// Plan describes one transition.
type Plan struct {
	From  Frame        // displayed state when the mutation happened
	Nodes []Target     // next layout, in layout order
	Links []LinkTarget // next layout links, in layout order

	// SourcePrev is where the source node was displayed before the mutation;
	// entering items grow out of it. SourceNext is where it will be after;
	// exiting items shrink into it.
	SourcePrev layout.Position
	SourceNext layout.Position

	Duration time.Duration
	Easing   ease.TweenFunc
}

// tween2 animates a point and an opacity.
type tween2 struct {
	x, y, o *gween.Tween
}

func newTween2(from, to layout.Position, fromO, toO float64, seconds float32, fn ease.TweenFunc) tween2 {
	return tween2{
		x: gween.New(float32(from.X), float32(to.X), seconds, fn),
		y: gween.New(float32(from.Y), float32(to.Y), seconds, fn),
		o: gween.New(float32(fromO), float32(toO), seconds, fn),
	}
}

func (t tween2) update(dt float32) (layout.Position, float64, bool) {
	x, dx := t.x.Update(dt)
	y, dy := t.y.Update(dt)
	o, do := t.o.Update(dt)
	return layout.Position{X: float64(x), Y: float64(y)}, float64(o), dx && dy && do
}

type nodeAnim struct {
	sprite Sprite
	end    Sprite
	tw     tween2
}

type linkAnim struct {
	sprite   LinkSprite
	end      LinkSprite
	src, dst tween2
}

// Transition animates from Plan.From to the next layout.
type Transition struct {
	nodes []*nodeAnim
	links []*linkAnim
	done  bool
}

// NewTransition classifies every node and link of the plan and sets up the
// tweens. A non-positive duration produces a transition that is already
// done.
func NewTransition(p Plan) *Transition {
	fn := p.Easing
	if fn == nil {
		fn = ease.InOutCubic
	}
	seconds := float32(p.Duration.Seconds())

	prevNodes := make(map[string]Sprite, len(p.From.Nodes))
	for _, s := range p.From.Nodes {
		prevNodes[s.ID] = s
	}
	prevLinks := make(map[string]LinkSprite, len(p.From.Links))
	for _, l := range p.From.Links {
		prevLinks[l.ChildID] = l
	}

	tr := &Transition{}
	next := make(map[string]layout.Position, len(p.Nodes))
	for _, target := range p.Nodes {
		next[target.ID] = target.Pos
		end := Sprite{ID: target.ID, Pos: target.Pos, Opacity: 1, Phase: Persisting}
		start, ok := prevNodes[target.ID]
		if !ok {
			start = Sprite{ID: target.ID, Pos: p.SourcePrev, Opacity: 0}
			end.Phase = Entering
		}
		start.Phase = end.Phase
		tr.nodes = append(tr.nodes, &nodeAnim{
			sprite: start,
			end:    end,
			tw:     newTween2(start.Pos, end.Pos, start.Opacity, 1, seconds, fn),
		})
	}
	for _, s := range p.From.Nodes {
		if _, ok := next[s.ID]; ok {
			continue
		}
		start := s
		start.Phase = Exiting
		end := Sprite{ID: s.ID, Pos: p.SourceNext, Opacity: 0, Phase: Exiting}
		tr.nodes = append(tr.nodes, &nodeAnim{
			sprite: start,
			end:    end,
			tw:     newTween2(start.Pos, end.Pos, start.Opacity, 0, seconds, fn),
		})
	}

	nextLinks := make(map[string]bool, len(p.Links))
	for _, lt := range p.Links {
		nextLinks[lt.ChildID] = true
		end := LinkSprite{
			ParentID: lt.ParentID,
			ChildID:  lt.ChildID,
			Source:   next[lt.ParentID],
			Target:   next[lt.ChildID],
			Opacity:  1,
			Phase:    Persisting,
		}
		start, ok := prevLinks[lt.ChildID]
		if !ok {
			start = LinkSprite{Source: p.SourcePrev, Target: p.SourcePrev, Opacity: 0}
			end.Phase = Entering
		}
		start.ParentID, start.ChildID, start.Phase = lt.ParentID, lt.ChildID, end.Phase
		tr.links = append(tr.links, &linkAnim{
			sprite: start,
			end:    end,
			src:    newTween2(start.Source, end.Source, start.Opacity, 1, seconds, fn),
			dst:    newTween2(start.Target, end.Target, start.Opacity, 1, seconds, fn),
		})
	}
	for _, l := range p.From.Links {
		if nextLinks[l.ChildID] {
			continue
		}
		start := l
		start.Phase = Exiting
		end := LinkSprite{
			ParentID: l.ParentID,
			ChildID:  l.ChildID,
			Source:   p.SourceNext,
			Target:   p.SourceNext,
			Opacity:  0,
			Phase:    Exiting,
		}
		tr.links = append(tr.links, &linkAnim{
			sprite: start,
			end:    end,
			src:    newTween2(start.Source, end.Source, start.Opacity, 0, seconds, fn),
			dst:    newTween2(start.Target, end.Target, start.Opacity, 0, seconds, fn),
		})
	}

	if seconds <= 0 {
		tr.finish()
	}
	return tr
}

// Update advances every tween by dt.
func (tr *Transition) Update(dt time.Duration) {
	if tr.done {
		return
	}
	step := float32(dt.Seconds())
	allDone := true
	for _, n := range tr.nodes {
		pos, o, finished := n.tw.update(step)
		n.sprite.Pos, n.sprite.Opacity = pos, o
		if !finished {
			allDone = false
		}
	}
	for _, l := range tr.links {
		src, o, srcDone := l.src.update(step)
		dst, _, dstDone := l.dst.update(step)
		l.sprite.Source, l.sprite.Target, l.sprite.Opacity = src, dst, o
		if !srcDone || !dstDone {
			allDone = false
		}
	}
	if allDone {
		tr.finish()
	}
}

func (tr *Transition) finish() {
	tr.done = true
	for _, n := range tr.nodes {
		n.sprite = n.end
	}
	for _, l := range tr.links {
		l.sprite = l.end
	}
}

// Done reports whether every tween has reached its end value.
func (tr *Transition) Done() bool {
	return tr.done
}

// Frame returns the displayed state: entering and persisting items in layout
// order, then exiting items. Exiting items are dropped once the transition
// is done.
func (tr *Transition) Frame() Frame {
	f := Frame{
		Nodes: make([]Sprite, 0, len(tr.nodes)),
		Links: make([]LinkSprite, 0, len(tr.links)),
	}
	for _, n := range tr.nodes {
		if tr.done && n.end.Phase == Exiting {
			continue
		}
		f.Nodes = append(f.Nodes, n.sprite)
	}
	for _, l := range tr.links {
		if tr.done && l.end.Phase == Exiting {
			continue
		}
		f.Links = append(f.Links, l.sprite)
	}
	return f
}

// Phases counts items per phase, nodes only.
func (tr *Transition) Phases() map[Phase]int {
	counts := make(map[Phase]int, 3)
	for _, n := range tr.nodes {
		counts[n.end.Phase]++
	}
	return counts
}
