package model

import (
	"fmt"
	"strconv"
	"strings"
)

// idPrefix is the prefix of generated node ids ("node-1", "node-2", ...).
const idPrefix = "node-"

// IDAllocator hands out node ids that are never reused. The counter only
// moves forward, so an id freed by a reload is not handed out again while
// the allocator lives.
type IDAllocator struct {
	next int
}

// NewIDAllocator returns an allocator whose first id is greater than every
// generated-style id already present under root.
func NewIDAllocator(root *TreeNode) *IDAllocator {
	a := &IDAllocator{next: 1}
	a.Observe(root)
	return a
}

// Observe advances the counter past every "node-N" id under root.
func (a *IDAllocator) Observe(root *TreeNode) {
	Walk(root, func(n *TreeNode, _ int) bool {
		if seq, ok := parseSeq(n.ID); ok && seq >= a.next {
			a.next = seq + 1
		}
		return true
	})
}

// Next returns a fresh id.
func (a *IDAllocator) Next() string {
	id := fmt.Sprintf("%s%d", idPrefix, a.next)
	a.next++
	return id
}

// AssignIDs gives every node under root a unique id. Missing ids and
// duplicates of an id seen earlier in pre-order are replaced with fresh ones
// from a. It returns the number of ids assigned.
func AssignIDs(root *TreeNode, a *IDAllocator) int {
	a.Observe(root)
	seen := make(map[string]bool)
	assigned := 0
	Walk(root, func(n *TreeNode, _ int) bool {
		if n.ID == "" || seen[n.ID] {
			n.ID = a.Next()
			assigned++
		}
		seen[n.ID] = true
		return true
	})
	return assigned
}

func parseSeq(id string) (int, bool) {
	if !strings.HasPrefix(id, idPrefix) {
		return 0, false
	}
	seq, err := strconv.Atoi(id[len(idPrefix):])
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}
