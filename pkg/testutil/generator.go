// Package testutil provides tree fixture generators and assertions.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/canopy/pkg/model"
)

// GeneratorConfig controls tree generation.
type GeneratorConfig struct {
	Seed         int64   // random seed (0 = 42)
	NamePrefix   string  // prefix for node names (default: "n")
	CollapseRate float64 // chance that an inner node is generated collapsed
	MaxValue     int     // leaf weights are drawn from 1..MaxValue (default: 10)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{Seed: 42, NamePrefix: "n", MaxValue: 10}
}

// Generator creates trees with various shapes.
type Generator struct {
	cfg   GeneratorConfig
	rng   *rand.Rand
	count int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = "n"
	}
	if cfg.MaxValue <= 0 {
		cfg.MaxValue = 10
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) node() *model.TreeNode {
	name := fmt.Sprintf("%s%d", g.cfg.NamePrefix, g.count)
	g.count++
	return &model.TreeNode{Name: name}
}

func (g *Generator) leaf() *model.TreeNode {
	n := g.node()
	v := float64(1 + g.rng.Intn(g.cfg.MaxValue))
	n.Value = &v
	return n
}

// finish gives leaves a value and collapses inner nodes at CollapseRate.
// The root is never collapsed.
func (g *Generator) finish(root *model.TreeNode) *model.TreeNode {
	model.Walk(root, func(n *model.TreeNode, depth int) bool {
		if n.Children == nil && n.Hidden == nil && n.Value == nil {
			v := float64(1 + g.rng.Intn(g.cfg.MaxValue))
			n.Value = &v
		}
		if depth > 0 && len(n.Children) > 0 && g.rng.Float64() < g.cfg.CollapseRate {
			n.Collapse()
		}
		return true
	})
	return root
}

// Chain creates a single path of size nodes.
func (g *Generator) Chain(size int) *model.TreeNode {
	if size < 1 {
		size = 1
	}
	root := g.node()
	cur := root
	for i := 1; i < size; i++ {
		next := g.node()
		cur.Children = []*model.TreeNode{next}
		cur = next
	}
	return g.finish(root)
}

// Star creates a root with spokes leaf children.
func (g *Generator) Star(spokes int) *model.TreeNode {
	root := g.node()
	for i := 0; i < spokes; i++ {
		root.Children = append(root.Children, g.leaf())
	}
	return g.finish(root)
}

// Balanced creates a tree of the given depth where every inner node has
// breadth children.
func (g *Generator) Balanced(depth, breadth int) *model.TreeNode {
	if breadth < 1 {
		breadth = 1
	}
	var build func(d int) *model.TreeNode
	build = func(d int) *model.TreeNode {
		if d == depth {
			return g.leaf()
		}
		n := g.node()
		for i := 0; i < breadth; i++ {
			n.Children = append(n.Children, build(d+1))
		}
		return n
	}
	return g.finish(build(0))
}

// Random creates a tree of size nodes where each node attaches to a random
// earlier node.
func (g *Generator) Random(size int) *model.TreeNode {
	if size < 1 {
		size = 1
	}
	nodes := []*model.TreeNode{g.node()}
	for i := 1; i < size; i++ {
		parent := nodes[g.rng.Intn(len(nodes))]
		child := g.node()
		parent.Children = append(parent.Children, child)
		nodes = append(nodes, child)
	}
	return g.finish(nodes[0])
}

// QuickBalanced returns a balanced tree from the default generator.
func QuickBalanced(depth, breadth int) *model.TreeNode {
	return NewDefault().Balanced(depth, breadth)
}

// QuickRandom returns a random tree from the default generator.
func QuickRandom(size int) *model.TreeNode {
	return NewDefault().Random(size)
}
