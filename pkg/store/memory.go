package store

import (
	"context"
	"sync"

	"github.com/vanderheijden86/canopy/pkg/model"
)

// Memory keeps the serialized tree in process memory. Saving a snapshot
// rather than the pointer keeps later in-place mutations out of the store.
type Memory struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	failErr error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// FailSaves makes every following Save return err. Pass nil to recover.
func (m *Memory) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Saves returns how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Load implements Store.
func (m *Memory) Load(context.Context) (*model.TreeNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return model.Unmarshal(m.data)
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, root *model.TreeNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failErr != nil {
		return m.failErr
	}
	data, err := model.Marshal(root)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
