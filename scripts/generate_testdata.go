//go:build ignore

// generate_testdata.go writes reproducible tree documents for benchmarking
// and manual testing.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/trees/small.json   (100 nodes)
//	testdata/trees/medium.json  (1000 nodes)
//	testdata/trees/large.json   (5000 nodes, some subtrees collapsed)
//	testdata/trees/wide.json    (depth 2, breadth 60)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/canopy/pkg/model"
	"github.com/vanderheijden86/canopy/pkg/testutil"
)

type dataset struct {
	name  string
	build func(g *testutil.Generator) *model.TreeNode
	rate  float64
}

var datasets = []dataset{
	{"small", func(g *testutil.Generator) *model.TreeNode { return g.Random(100) }, 0},
	{"medium", func(g *testutil.Generator) *model.TreeNode { return g.Random(1000) }, 0.1},
	{"large", func(g *testutil.Generator) *model.TreeNode { return g.Random(5000) }, 0.25},
	{"wide", func(g *testutil.Generator) *model.TreeNode { return g.Balanced(2, 60) }, 0},
}

func main() {
	outputDir := filepath.Join("testdata", "trees")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for i, ds := range datasets {
		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(1000 + i)
		cfg.CollapseRate = ds.rate
		root := ds.build(testutil.New(cfg))

		data, err := model.Marshal(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode %s: %v\n", ds.name, err)
			os.Exit(1)
		}
		outputPath := filepath.Join(outputDir, ds.name+".json")
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("  Written %s (%d nodes, %d visible, %d bytes)\n",
			outputPath, model.CountAll(root), model.CountVisible(root), len(data))
	}
}
