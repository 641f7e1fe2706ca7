package hierarchy

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/vanderheijden86/canopy/pkg/model"
)

// treeGen draws trees up to four levels deep with some subtrees collapsed.
func treeGen() *rapid.Generator[*model.TreeNode] {
	return rapid.Custom(func(t *rapid.T) *model.TreeNode {
		var build func(depth int, label string) *model.TreeNode
		build = func(depth int, label string) *model.TreeNode {
			n := &model.TreeNode{Name: label}
			if depth >= 4 {
				return n
			}
			count := rapid.IntRange(0, 3).Draw(t, label+"/children")
			if count == 0 {
				return n
			}
			children := make([]*model.TreeNode, 0, count)
			for i := 0; i < count; i++ {
				children = append(children, build(depth+1, fmt.Sprintf("%s.%d", label, i)))
			}
			if depth > 0 && rapid.Bool().Draw(t, label+"/collapsed") {
				n.Hidden = children
			} else {
				n.Children = children
			}
			return n
		}
		return build(0, "n")
	})
}

func allIDs(root *model.TreeNode) []string {
	var out []string
	model.Walk(root, func(n *model.TreeNode, _ int) bool {
		out = append(out, n.ID)
		return true
	})
	return out
}

// expectedVisible counts nodes whose ancestors all have visible children.
func expectedVisible(n *model.TreeNode) int {
	count := 1
	for _, c := range n.Children {
		count += expectedVisible(c)
	}
	return count
}

func TestPropertyLayoutCountsVisibleNodes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New(treeGen().Draw(t, "tree"), WithDuration(0))
		nodes, links := c.Layout()
		if want := expectedVisible(c.Root()); len(nodes) != want {
			t.Fatalf("layout has %d nodes, want %d", len(nodes), want)
		}
		if len(links) != len(nodes)-1 {
			t.Fatalf("layout has %d links for %d nodes", len(links), len(nodes))
		}
		if nodes[0].ID != c.Root().ID {
			t.Fatalf("first node %s is not the root", nodes[0].ID)
		}
	})
}

func TestPropertyToggleTwiceRestores(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New(treeGen().Draw(t, "tree"), WithDuration(0))
		before, err := model.Marshal(c.Root())
		if err != nil {
			t.Fatal(err)
		}
		id := rapid.SampledFrom(allIDs(c.Root())).Draw(t, "id")

		ctx := context.Background()
		if err := c.Toggle(ctx, id); err != nil {
			t.Fatal(err)
		}
		if err := c.Toggle(ctx, id); err != nil {
			t.Fatal(err)
		}
		after, err := model.Marshal(c.Root())
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(before, after) {
			t.Fatalf("toggle twice changed the tree:\n%s", cmp.Diff(string(before), string(after)))
		}
	})
}

func TestPropertyInsertAddsOneLeaf(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New(treeGen().Draw(t, "tree"), WithDuration(0))
		parentID := rapid.SampledFrom(allIDs(c.Root())).Draw(t, "parent")
		name := rapid.StringMatching(`[A-Za-z][A-Za-z ]{0,10}`).Draw(t, "name")
		before := model.CountAll(c.Root())

		child, err := c.InsertChild(context.Background(), parentID, name)
		if err != nil {
			t.Fatal(err)
		}
		if got := model.CountAll(c.Root()); got != before+1 {
			t.Fatalf("count %d, want %d", got, before+1)
		}
		if !child.IsLeaf() || child.Name != strings.TrimSpace(name) {
			t.Fatalf("unexpected child %+v", child)
		}
		if c.Find(parentID).State() != model.StateExpanded {
			t.Fatal("parent is not expanded after insert")
		}
		nodes, _ := c.Layout()
		visible, parentVisible := false, false
		for _, n := range nodes {
			switch n.ID {
			case child.ID:
				visible = true
			case parentID:
				parentVisible = true
			}
		}
		if parentVisible && !visible {
			t.Fatal("new child of a visible parent is not laid out")
		}
	})
}

func TestPropertyLayoutIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New(treeGen().Draw(t, "tree"), WithDuration(0))
		first, _ := c.Layout()
		second, _ := c.Layout()
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("layout not idempotent:\n%s", diff)
		}
	})
}

func TestPropertyIDsUnique(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New(treeGen().Draw(t, "tree"), WithDuration(0))
		seen := make(map[string]bool)
		for _, id := range allIDs(c.Root()) {
			if seen[id] {
				t.Fatalf("duplicate id %s", id)
			}
			seen[id] = true
		}
	})
}
