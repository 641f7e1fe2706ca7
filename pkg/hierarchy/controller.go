// Package hierarchy implements the view controller for a collapsible tree:
// it owns the tree, lays out its visible part, applies toggle and insert
// commands, persists after every structural change, and animates between
// consecutive layouts.
//
// A Controller is not safe for concurrent use. Callers serialize commands,
// the way the TUI's event loop and the HTTP server's mutex do.
package hierarchy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/vanderheijden86/canopy/pkg/anim"
	"github.com/vanderheijden86/canopy/pkg/debug"
	"github.com/vanderheijden86/canopy/pkg/layout"
	"github.com/vanderheijden86/canopy/pkg/model"
)

// Persister saves the whole tree after a structural mutation.
type Persister interface {
	Save(ctx context.Context, root *model.TreeNode) error
}

// Loader returns the persisted tree, or nil when nothing was stored.
type Loader interface {
	Load(ctx context.Context) (*model.TreeNode, error)
}

// LayoutNode is the transient view of one visible TreeNode produced by a
// layout pass.
type LayoutNode struct {
	ID    string                `json:"id"`
	Name  string                `json:"name"`
	Depth int                   `json:"depth"`
	State model.VisibilityState `json:"state"`

	Position layout.Position `json:"position"`
	// PreviousPosition is where the node was displayed when the last
	// mutation happened. Nodes that were not displayed then (Entering) carry
	// the source node's previous position instead.
	PreviousPosition layout.Position `json:"previous_position"`
	Entering         bool            `json:"entering,omitempty"`

	Node           *model.TreeNode   `json:"-"`
	HiddenChildren []*model.TreeNode `json:"-"`
}

// LinkEdge connects a visible parent to a visible child.
type LinkEdge struct {
	ParentID string          `json:"parent_id"`
	ChildID  string          `json:"child_id"`
	Source   layout.Position `json:"source"`
	Target   layout.Position `json:"target"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithStore sets where the tree is saved after each mutation.
func WithStore(p Persister) Option {
	return func(c *Controller) {
		c.store = p
	}
}

// WithLayouter replaces the tidy layout.
func WithLayouter(l layout.Layouter) Option {
	return func(c *Controller) {
		c.layouter = l
	}
}

// WithBreadth sets the separation between neighbouring leaves.
func WithBreadth(b float64) Option {
	return func(c *Controller) {
		if b > 0 {
			c.breadth = b
		}
	}
}

// WithWidth sets the drawing width and margins used to derive depth spacing.
func WithWidth(width, marginLeft, marginRight float64) Option {
	return func(c *Controller) {
		c.width, c.marginLeft, c.marginRight = width, marginLeft, marginRight
	}
}

// WithDuration sets the transition length. Zero disables animation.
func WithDuration(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.duration = d
		}
	}
}

// WithEasing sets the easing function of transitions.
func WithEasing(fn ease.TweenFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.easing = fn
		}
	}
}

// Controller owns a tree and its on-screen state.
type Controller struct {
	root     *model.TreeNode
	ids      *model.IDAllocator
	store    Persister
	layouter layout.Layouter

	breadth     float64
	width       float64
	marginLeft  float64
	marginRight float64
	duration    time.Duration
	easing      ease.TweenFunc

	// baseline holds displayed positions captured at the last mutation.
	baseline   map[string]layout.Position
	sourcePrev layout.Position
	sourceID   string
	transition *anim.Transition
}

// New creates a controller for root. A nil root is replaced by the built-in
// default tree. Missing and duplicate ids are fixed up. The initial
// transition grows the whole tree out of the origin.
func New(root *model.TreeNode, opts ...Option) *Controller {
	if root == nil {
		root = model.DefaultTree()
	}
	c := &Controller{
		root:        root,
		layouter:    layout.Tidy{},
		breadth:     layout.DefaultBreadth,
		width:       layout.DefaultWidth,
		marginLeft:  layout.DefaultMarginLeft,
		marginRight: layout.DefaultMarginRight,
		duration:    anim.DefaultDuration,
		easing:      ease.InOutCubic,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ids = model.NewIDAllocator(root)
	if n := model.AssignIDs(root, c.ids); n > 0 {
		debug.Log("assigned %d node ids", n)
	}
	c.relayout(root.ID)
	return c
}

// Load builds a controller from the tree held by l, falling back to the
// built-in default tree when l has nothing stored.
func Load(ctx context.Context, l Loader, opts ...Option) (*Controller, error) {
	root, err := l.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}
	if root == nil {
		debug.Log("no stored tree, using default")
	}
	return New(root, opts...), nil
}

// Root returns the tree. Callers must not mutate it.
func (c *Controller) Root() *model.TreeNode {
	return c.root
}

// Find returns the node with the given id, including hidden ones.
func (c *Controller) Find(id string) *model.TreeNode {
	return model.Find(c.root, id)
}

// Source returns the id of the node that triggered the last re-layout.
func (c *Controller) Source() string {
	return c.sourceID
}

func (c *Controller) nodeSize() layout.NodeSize {
	return layout.NodeSize{
		Breadth: c.breadth,
		Depth:   layout.DepthSpacing(c.width, c.marginLeft, c.marginRight, model.Height(c.root)),
	}
}

// Layout lays out the visible tree. Nodes come depth-first, root first;
// links come in the same order, one per visible non-root node. Calling Layout
// twice without a mutation in between returns identical results.
func (c *Controller) Layout() ([]LayoutNode, []LinkEdge) {
	positions := c.layouter.Place(c.root, c.nodeSize())

	var nodes []LayoutNode
	var links []LinkEdge
	var visit func(n *model.TreeNode, depth int)
	visit = func(n *model.TreeNode, depth int) {
		prev, seen := c.baseline[n.ID]
		if !seen {
			prev = c.sourcePrev
		}
		nodes = append(nodes, LayoutNode{
			ID:               n.ID,
			Name:             n.Name,
			Depth:            depth,
			State:            n.State(),
			Position:         positions[n.ID],
			PreviousPosition: prev,
			Entering:         !seen,
			Node:             n,
			HiddenChildren:   n.Hidden,
		})
		for _, child := range n.Children {
			links = append(links, LinkEdge{
				ParentID: n.ID,
				ChildID:  child.ID,
				Source:   positions[n.ID],
				Target:   positions[child.ID],
			})
			visit(child, depth+1)
		}
	}
	visit(c.root, 0)
	return nodes, links
}

// Toggle collapses a node with visible children or expands a collapsed one.
// Toggling a leaf, or a node whose child list is empty, changes nothing.
func (c *Controller) Toggle(ctx context.Context, id string) error {
	defer debug.LogEnterExit("Toggle " + id)()

	n := c.Find(id)
	if n == nil {
		return fmt.Errorf("toggle %q: %w", id, ErrNotFound)
	}
	switch n.State() {
	case model.StateExpanded:
		if !n.Collapse() {
			return nil
		}
	case model.StateCollapsed:
		n.Expand()
	default:
		return nil
	}
	c.relayout(id)
	return c.persist(ctx)
}

// InsertChild appends a new leaf named name under parentID, expanding the
// parent if it was collapsed so the new node is visible. It returns the new
// node. On ErrPersistence the node has still been inserted.
func (c *Controller) InsertChild(ctx context.Context, parentID, name string) (*model.TreeNode, error) {
	defer debug.LogEnterExit("InsertChild " + parentID)()

	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("insert under %q: name is blank: %w", parentID, ErrInvalidInput)
	}
	parent := c.Find(parentID)
	if parent == nil {
		return nil, fmt.Errorf("insert under %q: %w", parentID, ErrNotFound)
	}

	child := model.NewLeaf(c.ids.Next(), name)
	parent.Expand()
	parent.Children = append(parent.Children, child)

	c.relayout(parentID)
	return child, c.persist(ctx)
}

// ExpandAll expands every collapsed node.
func (c *Controller) ExpandAll(ctx context.Context) error {
	if model.ExpandAll(c.root) == 0 {
		return nil
	}
	c.relayout(c.root.ID)
	return c.persist(ctx)
}

// CollapseAll collapses every node below the root.
func (c *Controller) CollapseAll(ctx context.Context) error {
	if model.CollapseAll(c.root) == 0 {
		return nil
	}
	c.relayout(c.root.ID)
	return c.persist(ctx)
}

// Reload swaps in a tree that changed outside the controller, e.g. on disk.
// It animates from what is displayed but does not save.
func (c *Controller) Reload(root *model.TreeNode) error {
	if root == nil {
		return fmt.Errorf("reload: nil tree: %w", ErrInvalidInput)
	}
	c.ids.Observe(root)
	model.AssignIDs(root, c.ids)
	c.root = root
	c.relayout(root.ID)
	return nil
}

// Replace swaps in a new tree and saves it.
func (c *Controller) Replace(ctx context.Context, root *model.TreeNode) error {
	if err := c.Reload(root); err != nil {
		return err
	}
	return c.persist(ctx)
}

// Advance moves the current transition forward by dt.
func (c *Controller) Advance(dt time.Duration) {
	if c.transition != nil {
		c.transition.Update(dt)
	}
}

// Animating reports whether a transition is still running.
func (c *Controller) Animating() bool {
	return c.transition != nil && !c.transition.Done()
}

// Frame returns what is currently displayed.
func (c *Controller) Frame() anim.Frame {
	if c.transition == nil {
		return anim.Frame{}
	}
	return c.transition.Frame()
}

// relayout captures the displayed state as the new baseline, lays out the
// current tree and starts a transition from one to the other. sourceID names
// the node the change originated from.
func (c *Controller) relayout(sourceID string) {
	start := time.Now()
	defer func() { debug.LogTiming("relayout from "+sourceID, time.Since(start)) }()

	displayed := c.Frame()
	c.baseline = make(map[string]layout.Position, len(displayed.Nodes))
	for _, s := range displayed.Nodes {
		c.baseline[s.ID] = s.Pos
	}
	c.sourceID = sourceID
	c.sourcePrev = c.anchor(sourceID, c.baseline)

	nodes, links := c.Layout()
	next := make(map[string]layout.Position, len(nodes))
	plan := anim.Plan{
		From:       displayed,
		SourcePrev: c.sourcePrev,
		Duration:   c.duration,
		Easing:     c.easing,
	}
	for _, n := range nodes {
		next[n.ID] = n.Position
		plan.Nodes = append(plan.Nodes, anim.Target{ID: n.ID, Pos: n.Position})
	}
	for _, l := range links {
		plan.Links = append(plan.Links, anim.LinkTarget{ParentID: l.ParentID, ChildID: l.ChildID})
	}
	plan.SourceNext = c.anchor(sourceID, next)

	c.transition = anim.NewTransition(plan)
	debug.Log("relayout from %s: %v", sourceID, c.transition.Phases())
}

// anchor returns the position of id in positions, or of its nearest ancestor
// that has one, or the origin.
func (c *Controller) anchor(id string, positions map[string]layout.Position) layout.Position {
	for id != "" {
		if p, ok := positions[id]; ok {
			return p
		}
		parent := model.Parent(c.root, id)
		if parent == nil {
			break
		}
		id = parent.ID
	}
	return layout.Position{}
}

func (c *Controller) persist(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Save(ctx, c.root); err != nil {
		debug.Log("save failed: %v", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}
