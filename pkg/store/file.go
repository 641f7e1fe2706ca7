package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/canopy/pkg/metrics"
	"github.com/vanderheijden86/canopy/pkg/model"
)

// File keeps the tree as a JSON document.
type File struct {
	path string
}

// NewFile returns a store backed by path. The file need not exist yet.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("file store: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &File{path: abs}, nil
}

// Path returns the absolute path of the document.
func (f *File) Path() string {
	return f.path
}

// Load implements Store. A missing file is not an error.
func (f *File) Load(ctx context.Context) (*model.TreeNode, error) {
	defer metrics.Timer(metrics.TreeLoad)()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	root, err := model.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.path, err)
	}
	return root, nil
}

// Save implements Store. The document is written to a temporary file in the
// same directory and renamed over the old one, so readers never see a
// partial write.
func (f *File) Save(ctx context.Context, root *model.TreeNode) error {
	defer metrics.Timer(metrics.TreeSave)()
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := model.Marshal(root)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tree-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replacing %s: %w", f.path, err)
	}
	return nil
}

// Close implements Store.
func (f *File) Close() error { return nil }
