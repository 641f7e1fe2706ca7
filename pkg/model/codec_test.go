package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCodecPreservesCollapseAndEmptyChildren(t *testing.T) {
	root := collapsedFixture()
	root.Children = append(root.Children, &TreeNode{ID: "node-5", Name: "Empty", Children: []*TreeNode{}})

	data, err := Marshal(root)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"collapsed": true`) {
		t.Errorf("expected collapsed flag in output:\n%s", data)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(root, got); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	if got.Children[1].State() != StateExpanded || got.Children[1].Children == nil {
		t.Error("empty children list decoded as leaf")
	}
	if got.Children[0].Children != nil {
		t.Error("collapsed node decoded with visible children")
	}
}

func TestUnmarshalBareNode(t *testing.T) {
	data := []byte(`{"name":"root","children":[{"name":"Control Access","value":10}]}`)
	root, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if root.Name != "root" || len(root.Children) != 1 {
		t.Fatalf("unexpected tree: %+v", root)
	}
	if leaf := root.Children[0]; !leaf.IsLeaf() || *leaf.Value != 10 {
		t.Errorf("unexpected leaf: %+v", leaf)
	}
}

func TestUnmarshalRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"garbage", `{not json`, ErrInvalidDocument},
		{"blank name", `{"version":1,"root":{"name":"  "}}`, ErrInvalidDocument},
		{"negative value", `{"version":1,"root":{"name":"r","value":-1}}`, ErrInvalidDocument},
		{"null child", `{"version":1,"root":{"name":"r","children":[null]}}`, ErrInvalidDocument},
		{"future version", `{"version":9,"root":{"name":"r"}}`, ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Unmarshal error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMarshalNilRoot(t *testing.T) {
	if _, err := Marshal(nil); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("Marshal(nil) error = %v", err)
	}
}
