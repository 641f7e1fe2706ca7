package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// DocumentVersion is the current schema version of a serialized tree.
const DocumentVersion = 1

var (
	// ErrInvalidDocument is returned when a serialized tree is malformed.
	ErrInvalidDocument = errors.New("invalid tree document")
	// ErrUnsupportedVersion is returned for documents newer than this build.
	ErrUnsupportedVersion = errors.New("unsupported tree document version")
)

// Document is the persisted form of a tree.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "root": {
//	    "id": "node-1",
//	    "name": "root",
//	    "children": [
//	      {"id": "node-2", "name": "A", "collapsed": true, "children": [...]},
//	      {"id": "node-3", "name": "B", "value": 5}
//	    ]
//	  }
//	}
//
// A collapsed node writes its stashed children under "children" together
// with "collapsed": true. An absent "children" key marks a true leaf, while
// "children": [] marks an expanded node with no children.
type Document struct {
	Version int       `json:"version"`
	Root    *wireNode `json:"root"`
}

type wireNode struct {
	ID        string       `json:"id,omitempty"`
	Name      string       `json:"name"`
	Value     *float64     `json:"value,omitempty"`
	Collapsed bool         `json:"collapsed,omitempty"`
	Children  *[]*wireNode `json:"children,omitempty"`
}

// Marshal serializes root as an indented Document.
func Marshal(root *TreeNode) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root", ErrInvalidDocument)
	}
	doc := Document{Version: DocumentVersion, Root: toWire(root)}
	return json.MarshalIndent(doc, "", "  ")
}

// Unmarshal parses a Document. A bare node object without the envelope is
// accepted too, which is how the first versions of the tree were stored.
func Unmarshal(data []byte) (*TreeNode, error) {
	var probe struct {
		Version *int            `json:"version"`
		Root    json.RawMessage `json:"root"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	body := data
	if len(probe.Root) > 0 {
		if probe.Version != nil && *probe.Version > DocumentVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, *probe.Version)
		}
		body = probe.Root
	}

	var w wireNode
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return fromWire(&w, "root")
}

func toWire(n *TreeNode) *wireNode {
	w := &wireNode{
		ID:        n.ID,
		Name:      n.Name,
		Value:     n.Value,
		Collapsed: n.State() == StateCollapsed,
	}
	if src := n.AllChildren(); src != nil {
		children := make([]*wireNode, 0, len(src))
		for _, c := range src {
			children = append(children, toWire(c))
		}
		w.Children = &children
	}
	return w
}

func fromWire(w *wireNode, path string) (*TreeNode, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: null node at %s", ErrInvalidDocument, path)
	}
	name := strings.TrimSpace(w.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name at %s", ErrInvalidDocument, path)
	}
	if w.Value != nil && *w.Value <= 0 {
		return nil, fmt.Errorf("%w: non-positive value %v at %s", ErrInvalidDocument, *w.Value, path)
	}

	n := &TreeNode{ID: w.ID, Name: name, Value: w.Value}
	if w.Children == nil {
		return n, nil
	}

	children := make([]*TreeNode, 0, len(*w.Children))
	for i, cw := range *w.Children {
		c, err := fromWire(cw, fmt.Sprintf("%s/%d", path, i))
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	if w.Collapsed && len(children) > 0 {
		n.Hidden = children
	} else {
		n.Children = children
	}
	return n, nil
}
