package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vanderheijden86/canopy/pkg/model"
)

// AssertUniqueIDs verifies every node, visible or hidden, has a distinct
// non-empty id.
func AssertUniqueIDs(t *testing.T, root *model.TreeNode) {
	t.Helper()
	seen := make(map[string]bool)
	model.Walk(root, func(n *model.TreeNode, _ int) bool {
		if n.ID == "" {
			t.Errorf("node %q has no id", n.Name)
		}
		if seen[n.ID] {
			t.Errorf("duplicate node id: %s", n.ID)
		}
		seen[n.ID] = true
		return true
	})
}

// AssertVisibleCount verifies the number of visible nodes.
func AssertVisibleCount(t *testing.T, root *model.TreeNode, expected int) {
	t.Helper()
	if got := model.CountVisible(root); got != expected {
		t.Errorf("expected %d visible nodes, got %d", expected, got)
	}
}

// AssertTreeEqual compares two trees structurally, including hidden
// subtrees and the nil/empty distinction of child lists.
func AssertTreeEqual(t *testing.T, expected, actual *model.TreeNode) {
	t.Helper()
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

// WriteTreeFile writes root as a tree document to path and returns path.
func WriteTreeFile(t *testing.T, path string, root *model.TreeNode) string {
	t.Helper()
	data, err := model.Marshal(root)
	if err != nil {
		t.Fatalf("marshal tree: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write tree file: %v", err)
	}
	return path
}
