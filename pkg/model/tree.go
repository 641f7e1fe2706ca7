// Package model defines the persisted hierarchy: named nodes with optional
// leaf weights, ordered children, and a stash for collapsed subtrees.
package model

import (
	"strings"

	"gonum.org/v1/gonum/floats"
)

// DefaultLeafValue is the weight given to leaves created by insertion. It
// matches the weights of the leaves in the built-in tree.
const DefaultLeafValue = 5.0

// VisibilityState describes how a node's children are shown.
type VisibilityState int

const (
	StateLeaf      VisibilityState = iota // no children ever recorded
	StateExpanded                         // children visible
	StateCollapsed                        // children stashed in Hidden
)

func (s VisibilityState) String() string {
	switch s {
	case StateLeaf:
		return "leaf"
	case StateExpanded:
		return "expanded"
	case StateCollapsed:
		return "collapsed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s VisibilityState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TreeNode is one entry of the hierarchy.
//
// Children == nil and len(Children) == 0 are distinct: a nil list with no
// Hidden stash is a true leaf, an empty list is an expanded node that has
// had its children recorded. A collapsed node has Children == nil and a
// non-nil Hidden. Toggling moves the slice between the two fields; it is
// never copied.
type TreeNode struct {
	ID       string
	Name     string
	Value    *float64
	Children []*TreeNode
	Hidden   []*TreeNode
}

// NewLeaf creates a leaf with the default weight. The name is trimmed.
func NewLeaf(id, name string) *TreeNode {
	v := DefaultLeafValue
	return &TreeNode{
		ID:    id,
		Name:  strings.TrimSpace(name),
		Value: &v,
	}
}

// State reports the node's visibility state.
func (n *TreeNode) State() VisibilityState {
	switch {
	case n.Children != nil:
		return StateExpanded
	case n.Hidden != nil:
		return StateCollapsed
	default:
		return StateLeaf
	}
}

// IsLeaf reports whether the node has never had children.
func (n *TreeNode) IsLeaf() bool {
	return n.State() == StateLeaf
}

// AllChildren returns the node's children regardless of visibility.
func (n *TreeNode) AllChildren() []*TreeNode {
	if n.Children != nil {
		return n.Children
	}
	return n.Hidden
}

// Collapse stashes visible children. It returns false when there is nothing
// visible to hide.
func (n *TreeNode) Collapse() bool {
	if len(n.Children) == 0 {
		return false
	}
	n.Hidden, n.Children = n.Children, nil
	return true
}

// Expand restores stashed children. It returns false when nothing is hidden.
func (n *TreeNode) Expand() bool {
	if len(n.Hidden) == 0 {
		return false
	}
	n.Children, n.Hidden = n.Hidden, nil
	return true
}

// Walk visits n and every descendant in pre-order, visible and hidden. The
// walk stops early when fn returns false.
func Walk(n *TreeNode, fn func(node *TreeNode, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *TreeNode, depth int, fn func(*TreeNode, int) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n, depth) {
		return false
	}
	for _, c := range n.AllChildren() {
		if !walk(c, depth+1, fn) {
			return false
		}
	}
	return true
}

// WalkVisible visits n and every descendant reachable through visible
// children, in pre-order.
func WalkVisible(n *TreeNode, fn func(node *TreeNode, depth int)) {
	var visit func(*TreeNode, int)
	visit = func(node *TreeNode, depth int) {
		fn(node, depth)
		for _, c := range node.Children {
			visit(c, depth+1)
		}
	}
	if n != nil {
		visit(n, 0)
	}
}

// Find returns the node with the given id, searching hidden subtrees too.
func Find(root *TreeNode, id string) *TreeNode {
	var found *TreeNode
	Walk(root, func(n *TreeNode, _ int) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Parent returns the parent of the node with the given id, or nil for the
// root and unknown ids.
func Parent(root *TreeNode, id string) *TreeNode {
	var parent *TreeNode
	Walk(root, func(n *TreeNode, _ int) bool {
		for _, c := range n.AllChildren() {
			if c.ID == id {
				parent = n
				return false
			}
		}
		return true
	})
	return parent
}

// CountAll counts every node, visible or hidden.
func CountAll(root *TreeNode) int {
	count := 0
	Walk(root, func(*TreeNode, int) bool {
		count++
		return true
	})
	return count
}

// CountVisible counts the nodes reachable through visible children.
func CountVisible(root *TreeNode) int {
	count := 0
	WalkVisible(root, func(*TreeNode, int) { count++ })
	return count
}

// Height returns the number of levels below root, counting hidden levels.
func Height(root *TreeNode) int {
	h := 0
	Walk(root, func(_ *TreeNode, depth int) bool {
		if depth > h {
			h = depth
		}
		return true
	})
	return h
}

// SubtreeValue sums the leaf values under n, including hidden descendants.
// Internal nodes contribute their own value only when they carry one.
func SubtreeValue(n *TreeNode) float64 {
	var values []float64
	Walk(n, func(node *TreeNode, _ int) bool {
		if node.Value != nil {
			values = append(values, *node.Value)
		}
		return true
	})
	return floats.Sum(values)
}

// ExpandAll expands every collapsed node under root. It returns the number
// of nodes that changed.
func ExpandAll(root *TreeNode) int {
	changed := 0
	Walk(root, func(n *TreeNode, _ int) bool {
		if n.Expand() {
			changed++
		}
		return true
	})
	return changed
}

// CollapseAll collapses every expanded node below the root, leaving the root
// itself expanded so its direct children stay visible. It returns the number
// of nodes that changed.
func CollapseAll(root *TreeNode) int {
	changed := 0
	Walk(root, func(n *TreeNode, depth int) bool {
		if depth > 0 && n.Collapse() {
			changed++
		}
		return true
	})
	return changed
}

// DefaultTree returns the built-in tree used when nothing has been persisted.
func DefaultTree() *TreeNode {
	leaf := func(name string, v float64) *TreeNode {
		return &TreeNode{Name: name, Value: &v}
	}
	return &TreeNode{
		Name: "root",
		Children: []*TreeNode{
			{
				Name: "Multiple Access",
				Children: []*TreeNode{
					{
						Name: "Random Access",
						Children: []*TreeNode{
							leaf("Pure ALOHA", 5),
							leaf("Slotted ALOHA", 5),
							leaf("Carrier Sense Multiple Access", 5),
						},
					},
					leaf("Control Access", 10),
				},
			},
		},
	}
}
