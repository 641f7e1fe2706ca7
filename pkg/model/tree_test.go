package model

import (
	"testing"
)

func float(v float64) *float64 { return &v }

// collapsedFixture builds root -> A (collapsed, hiding L1, L2).
func collapsedFixture() *TreeNode {
	return &TreeNode{
		ID:   "node-1",
		Name: "root",
		Children: []*TreeNode{
			{
				ID:   "node-2",
				Name: "A",
				Hidden: []*TreeNode{
					{ID: "node-3", Name: "L1", Value: float(5)},
					{ID: "node-4", Name: "L2", Value: float(5)},
				},
			},
		},
	}
}

func TestStateDistinguishesLeafFromEmptyChildren(t *testing.T) {
	tests := []struct {
		name string
		node *TreeNode
		want VisibilityState
	}{
		{"no children key", &TreeNode{Name: "x"}, StateLeaf},
		{"empty children list", &TreeNode{Name: "x", Children: []*TreeNode{}}, StateExpanded},
		{"visible children", &TreeNode{Name: "x", Children: []*TreeNode{{Name: "y"}}}, StateExpanded},
		{"hidden children", &TreeNode{Name: "x", Hidden: []*TreeNode{{Name: "y"}}}, StateCollapsed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.State(); got != tt.want {
				t.Errorf("State() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollapseExpandMovesSliceWithoutCopy(t *testing.T) {
	root := collapsedFixture()
	a := root.Children[0]
	stash := a.Hidden

	if !a.Expand() {
		t.Fatal("expected Expand to report a change")
	}
	if a.Hidden != nil {
		t.Error("expected Hidden to be nil after expand")
	}
	if &a.Children[0] != &stash[0] {
		t.Error("expected expand to re-attach the same backing array")
	}

	if !a.Collapse() {
		t.Fatal("expected Collapse to report a change")
	}
	if a.Children != nil || len(a.Hidden) != 2 {
		t.Errorf("unexpected split after collapse: children=%v hidden=%d", a.Children, len(a.Hidden))
	}
}

func TestCollapseEmptyChildrenIsNoop(t *testing.T) {
	n := &TreeNode{Name: "x", Children: []*TreeNode{}}
	if n.Collapse() {
		t.Error("collapsing an empty child list should be a no-op")
	}
	if n.State() != StateExpanded {
		t.Errorf("state changed to %v", n.State())
	}
}

func TestCounts(t *testing.T) {
	root := collapsedFixture()
	if got := CountAll(root); got != 4 {
		t.Errorf("CountAll = %d, want 4", got)
	}
	if got := CountVisible(root); got != 2 {
		t.Errorf("CountVisible = %d, want 2", got)
	}
	if got := Height(root); got != 2 {
		t.Errorf("Height = %d, want 2 (hidden levels count)", got)
	}
}

func TestFindAndParentSearchHiddenSubtrees(t *testing.T) {
	root := collapsedFixture()
	if n := Find(root, "node-4"); n == nil || n.Name != "L2" {
		t.Fatalf("Find(node-4) = %v", n)
	}
	if p := Parent(root, "node-4"); p == nil || p.ID != "node-2" {
		t.Fatalf("Parent(node-4) = %v", p)
	}
	if p := Parent(root, "node-1"); p != nil {
		t.Errorf("root should have no parent, got %v", p.ID)
	}
	if Find(root, "missing") != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestSubtreeValue(t *testing.T) {
	tree := DefaultTree()
	if got := SubtreeValue(tree); got != 25 {
		t.Errorf("SubtreeValue(default) = %v, want 25", got)
	}
	if got := SubtreeValue(collapsedFixture()); got != 10 {
		t.Errorf("SubtreeValue(fixture) = %v, want 10", got)
	}
}

func TestExpandAllCollapseAll(t *testing.T) {
	root := DefaultTree()
	AssignIDs(root, NewIDAllocator(root))

	if changed := CollapseAll(root); changed != 2 {
		t.Errorf("CollapseAll changed %d nodes, want 2", changed)
	}
	if root.State() != StateExpanded {
		t.Error("root must stay expanded")
	}
	if got := CountVisible(root); got != 2 {
		t.Errorf("visible after collapse = %d, want 2", got)
	}

	if changed := ExpandAll(root); changed != 2 {
		t.Errorf("ExpandAll changed %d nodes, want 2", changed)
	}
	if got := CountVisible(root); got != CountAll(root) {
		t.Errorf("visible after expand = %d, want %d", got, CountAll(root))
	}
}

func TestNewLeafTrimsAndWeights(t *testing.T) {
	n := NewLeaf("node-9", "  Token Ring  ")
	if n.Name != "Token Ring" {
		t.Errorf("Name = %q", n.Name)
	}
	if n.Value == nil || *n.Value != DefaultLeafValue {
		t.Errorf("Value = %v, want %v", n.Value, DefaultLeafValue)
	}
	if !n.IsLeaf() {
		t.Error("new node should be a leaf")
	}
}
