package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/layout"
)

// AssertNodeCount verifies the tree holds the expected number of nodes,
// synthetic root excluded.
func AssertNodeCount(t *testing.T, root *hierarchy.ClusterNode, expected int) {
	t.Helper()
	if got := hierarchy.Count(root); got != expected {
		t.Errorf("expected %d nodes, got %d", expected, got)
	}
}

// AssertNoDuplicateIDs verifies all node IDs in the tree are unique.
func AssertNoDuplicateIDs(t *testing.T, root *hierarchy.ClusterNode) {
	t.Helper()
	seen := make(map[string]bool)
	hierarchy.Walk(root, func(n *hierarchy.ClusterNode) bool {
		if seen[n.ID] {
			t.Errorf("duplicate node ID: %s", n.ID)
		}
		seen[n.ID] = true
		return true
	})
}

// AssertValid verifies the tree passes hierarchy validation.
func AssertValid(t *testing.T, root *hierarchy.ClusterNode) {
	t.Helper()
	if err := hierarchy.Validate(root); err != nil {
		t.Errorf("tree invalid: %v", err)
	}
}

// AssertWeightSums verifies every node with children carries exactly the sum
// of its children's weights. Generated fixtures maintain this; pipeline data
// may not.
func AssertWeightSums(t *testing.T, root *hierarchy.ClusterNode) {
	t.Helper()
	hierarchy.Walk(root, func(n *hierarchy.ClusterNode) bool {
		if len(n.Children) == 0 {
			return true
		}
		sum := 0
		for _, c := range n.Children {
			sum += c.Weight
		}
		if n.Weight != sum {
			t.Errorf("node %s weight %d, children sum to %d", n.ID, n.Weight, sum)
		}
		return true
	})
}

// AssertContainment verifies every packed circle lies fully inside its
// parent's circle, within a small tolerance for float accumulation.
func AssertContainment(t *testing.T, packed []*layout.PackedNode) {
	t.Helper()
	const eps = 1e-6
	for _, p := range packed {
		if p.Parent == nil {
			continue
		}
		dx := p.X - p.Parent.X
		dy := p.Y - p.Parent.Y
		dist := math.Hypot(dx, dy)
		if dist+p.R > p.Parent.R+eps {
			t.Errorf("node %s escapes parent %s: dist %.4f + r %.4f > parent r %.4f",
				p.Node.ID, p.Parent.Node.ID, dist, p.R, p.Parent.R)
		}
	}
}

// AssertSiblingSeparation verifies no two siblings overlap.
func AssertSiblingSeparation(t *testing.T, packed []*layout.PackedNode) {
	t.Helper()
	const eps = 1e-6
	byParent := make(map[*layout.PackedNode][]*layout.PackedNode)
	for _, p := range packed {
		if p.Parent != nil {
			byParent[p.Parent] = append(byParent[p.Parent], p)
		}
	}
	for parent, sibs := range byParent {
		for i := 0; i < len(sibs); i++ {
			for j := i + 1; j < len(sibs); j++ {
				a, b := sibs[i], sibs[j]
				dist := math.Hypot(a.X-b.X, a.Y-b.Y)
				if dist+eps < a.R+b.R {
					t.Errorf("siblings %s and %s under %s overlap: dist %.4f < radii %.4f",
						a.Node.ID, b.Node.ID, parent.Node.ID, dist, a.R+b.R)
				}
			}
		}
	}
}

// AssertJSONEqual compares two values after JSON round-tripping.
// Useful for comparing structs that may have different Go representations
// but equivalent JSON forms.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// Golden file helpers

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()

	if g.update {
		// Update golden file
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	// Compare against golden file
	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) != actual {
		// Find first difference for helpful error message
		expectedLines := strings.Split(string(expected), "\n")
		actualLines := strings.Split(actual, "\n")

		for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
			var expLine, actLine string
			if i < len(expectedLines) {
				expLine = expectedLines[i]
			}
			if i < len(actualLines) {
				actLine = actualLines[i]
			}
			if expLine != actLine {
				g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s\n\nFull diff (expected vs actual):\n%s\nvs\n%s",
					i+1, expLine, actLine, string(expected), actual)
				return
			}
		}
		g.t.Errorf("golden file mismatch (length differs)")
	}
}

// AssertJSON compares actual value as JSON against the golden file.
func (g *GoldenFile) AssertJSON(actual interface{}) {
	g.t.Helper()

	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		g.t.Fatalf("failed to marshal actual value: %v", err)
	}

	g.Assert(string(data))
}

// File helpers

// WriteClustersFile writes tops as clusters.json in the given directory and
// returns the path.
func WriteClustersFile(t *testing.T, dir string, tops []*hierarchy.ClusterNode) string {
	t.Helper()

	path := filepath.Join(dir, "clusters.json")
	if err := os.WriteFile(path, []byte(ToJSON(tops)), 0644); err != nil {
		t.Fatalf("failed to write clusters file: %v", err)
	}
	return path
}

// Lookup helpers

// FindLeaves returns all L0 nodes in pre-order.
func FindLeaves(root *hierarchy.ClusterNode) []*hierarchy.ClusterNode {
	var leaves []*hierarchy.ClusterNode
	hierarchy.Walk(root, func(n *hierarchy.ClusterNode) bool {
		if n.Level == hierarchy.LevelL0 {
			leaves = append(leaves, n)
		}
		return true
	})
	return leaves
}

// IDs returns all node ids in pre-order, synthetic root excluded.
func IDs(root *hierarchy.ClusterNode) []string {
	var ids []string
	hierarchy.Walk(root, func(n *hierarchy.ClusterNode) bool {
		if !hierarchy.IsSyntheticRoot(n.ID) {
			ids = append(ids, n.ID)
		}
		return true
	})
	return ids
}
