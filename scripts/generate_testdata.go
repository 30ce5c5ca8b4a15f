//go:build ignore

// generate_testdata.go creates standard cluster datasets for manual testing
// and performance work.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//   tests/testdata/datasets/small.json   (~150 clusters)
//   tests/testdata/datasets/medium.json  (~1500 clusters)
//   tests/testdata/datasets/large.json   (~6000 clusters)
//   tests/testdata/datasets/huge.json    (~21000 clusters)
//
// The sizes straddle the render-feature tier boundaries, so each file lands
// in a different tier when opened with cm --data.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/testutil"
)

type datasetSpec struct {
	name string
	size int
	desc string
}

var datasets = []datasetSpec{
	{"small", 150, "~150 clusters - full effects"},
	{"medium", 1500, "~1500 clusters - full effects, bigger outline"},
	{"large", 6000, "~6000 clusters - glow disabled"},
	{"huge", 21000, "~21000 clusters - glow and hover disabled"},
}

func main() {
	outputDir := filepath.Join("tests", "testdata", "datasets")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%s)...\n", ds.name, ds.desc)

		gen := testutil.New(testutil.GeneratorConfig{
			Seed:     int64(ds.size), // reproducible per size
			IDPrefix: ds.name,
		})
		tops := gen.Large(ds.size)

		root := hierarchy.NewRoot(tops)
		if err := hierarchy.Validate(root); err != nil {
			fmt.Fprintf(os.Stderr, "Generated %s dataset is invalid: %v\n", ds.name, err)
			os.Exit(1)
		}

		path := filepath.Join(outputDir, ds.name+".json")
		if err := os.WriteFile(path, []byte(testutil.ToJSON(tops)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("  wrote %s (%d clusters, %d conversations)\n",
			path, hierarchy.Count(root), root.Weight)
	}

	fmt.Println("\nDone. Try: go run ./cmd/cm --data tests/testdata/datasets/huge.json")
}
