// Package store persists a tree. Three backends share one interface: a JSON
// document on disk, a SQLite key/value table, and process memory.
package store

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/canopy/pkg/model"
)

// Store loads and saves a whole tree.
type Store interface {
	// Load returns the stored tree, or (nil, nil) when nothing is stored.
	Load(ctx context.Context) (*model.TreeNode, error)
	// Save replaces the stored tree.
	Save(ctx context.Context, root *model.TreeNode) error
	Close() error
}

// Kind names a backend.
type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindMemory Kind = "memory"
)

// Parse splits a store target into backend and location.
//
//	sqlite:/path/tree.db   SQLite database
//	/path/tree.db          SQLite (by extension: .db, .sqlite, .sqlite3)
//	memory:                in-memory, nothing survives the process
//	/path/tree.json        JSON file (anything else)
func Parse(target string) (Kind, string) {
	target = strings.TrimSpace(target)
	switch {
	case strings.HasPrefix(target, "sqlite:"):
		return KindSQLite, strings.TrimPrefix(target, "sqlite:")
	case strings.HasPrefix(target, "memory:"):
		return KindMemory, ""
	case strings.HasPrefix(target, "file:"):
		return KindFile, strings.TrimPrefix(target, "file:")
	}
	switch strings.ToLower(filepath.Ext(target)) {
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite, target
	}
	return KindFile, target
}

// Open opens the backend named by target (see Parse).
func Open(target string) (Store, error) {
	kind, loc := Parse(target)
	switch kind {
	case KindSQLite:
		return OpenSQLite(loc)
	case KindMemory:
		return NewMemory(), nil
	default:
		return NewFile(loc)
	}
}
