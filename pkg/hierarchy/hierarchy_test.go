package hierarchy

import "testing"

// testTree builds the canonical small fixture: two L2 categories, each with
// two L1 children, each with two L0 leaves.
func testTree() *ClusterNode {
	leaf := func(id string, weight int) *ClusterNode {
		return &ClusterNode{ID: id, Name: "leaf " + id, Level: LevelL0, Weight: weight}
	}
	mid := func(id string, kids ...*ClusterNode) *ClusterNode {
		return &ClusterNode{ID: id, Name: "mid " + id, Level: LevelL1, Weight: 2, Children: kids}
	}
	top := func(id string, kids ...*ClusterNode) *ClusterNode {
		return &ClusterNode{ID: id, Name: "top " + id, Level: LevelL2, Weight: 4, Children: kids}
	}
	return NewRoot([]*ClusterNode{
		top("l2-1",
			mid("l1-1", leaf("l0-1", 1), leaf("l0-2", 1)),
			mid("l1-2", leaf("l0-3", 1), leaf("l0-4", 1)),
		),
		top("l2-2",
			mid("l1-3", leaf("l0-5", 1), leaf("l0-6", 1)),
			mid("l1-4", leaf("l0-7", 1), leaf("l0-8", 1)),
		),
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"l0", LevelL0, false},
		{"l1", LevelL1, false},
		{"l2", LevelL2, false},
		{"L2", LevelL2, false},
		{"l3", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLevel(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelString_RoundTrip(t *testing.T) {
	for _, l := range []Level{LevelL0, LevelL1, LevelL2} {
		back, err := ParseLevel(l.String())
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", l.String(), err)
		}
		if back != l {
			t.Errorf("level %v did not round-trip, got %v", l, back)
		}
	}
}

func TestPackValue_FloorsAtOne(t *testing.T) {
	tests := []struct {
		weight int
		want   float64
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{42, 42},
	}
	for _, tt := range tests {
		n := &ClusterNode{ID: "x", Weight: tt.weight}
		if got := n.PackValue(); got != tt.want {
			t.Errorf("weight %d: PackValue = %v, want %v", tt.weight, got, tt.want)
		}
	}
}

func TestNewRoot(t *testing.T) {
	root := testTree()

	if !IsSyntheticRoot(root.ID) {
		t.Fatalf("expected synthetic root id, got %q", root.ID)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 top-level clusters, got %d", len(root.Children))
	}
	if root.Weight != 8 {
		t.Errorf("expected root weight to sum tops (8), got %d", root.Weight)
	}
}

func TestNewRoot_WrapsSingleTop(t *testing.T) {
	only := &ClusterNode{ID: "solo", Level: LevelL2, Weight: 3}
	root := NewRoot([]*ClusterNode{only})
	if !IsSyntheticRoot(root.ID) {
		t.Fatal("single top-level cluster should still be wrapped")
	}
	if len(root.Children) != 1 || root.Children[0] != only {
		t.Fatal("wrapped child lost")
	}
}

func TestFind(t *testing.T) {
	root := testTree()

	if n := Find(root, "l0-7"); n == nil || n.ID != "l0-7" {
		t.Errorf("expected to find l0-7, got %v", n)
	}
	if n := Find(root, "l2-2"); n == nil || n.ID != "l2-2" {
		t.Errorf("expected to find l2-2, got %v", n)
	}
	if n := Find(root, "missing"); n != nil {
		t.Errorf("expected nil for unknown id, got %q", n.ID)
	}
	if n := Find(root, SyntheticRootID); n != root {
		t.Error("expected synthetic root to be findable by its id")
	}
}

func TestAncestorPath(t *testing.T) {
	root := testTree()

	path := AncestorPath(root, "l0-3")
	ids := make([]string, len(path))
	for i, n := range path {
		ids[i] = n.ID
	}
	want := []string{"l2-1", "l1-2", "l0-3"}
	if len(ids) != len(want) {
		t.Fatalf("expected path %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected path %v, got %v", want, ids)
		}
	}
}

func TestAncestorPath_ExcludesSyntheticRoot(t *testing.T) {
	root := testTree()

	for _, id := range []string{"l2-1", "l1-3", "l0-8"} {
		path := AncestorPath(root, id)
		for _, n := range path {
			if IsSyntheticRoot(n.ID) {
				t.Fatalf("path to %s contains the synthetic root", id)
			}
		}
	}
	if path := AncestorPath(root, SyntheticRootID); path != nil {
		t.Errorf("expected nil path for synthetic root itself, got %d nodes", len(path))
	}
}

func TestAncestorPath_Unknown(t *testing.T) {
	if path := AncestorPath(testTree(), "nope"); path != nil {
		t.Errorf("expected nil for unknown id, got %v", path)
	}
}

func TestNearestAncestorAtLevel(t *testing.T) {
	root := testTree()

	if got := NearestAncestorAtLevel(root, "l0-5", LevelL2); got == nil || got.ID != "l2-2" {
		t.Errorf("expected l2-2 as L2 ancestor of l0-5, got %v", got)
	}
	if got := NearestAncestorAtLevel(root, "l1-1", LevelL1); got == nil || got.ID != "l1-1" {
		t.Errorf("expected node itself when already at level, got %v", got)
	}
	if got := NearestAncestorAtLevel(root, "missing", LevelL2); got != nil {
		t.Errorf("expected nil for unknown id, got %v", got)
	}
}

func TestWalk_PreOrderAndPrune(t *testing.T) {
	root := testTree()

	var order []string
	Walk(root, func(n *ClusterNode) bool {
		order = append(order, n.ID)
		return n.ID != "l2-1" // prune the first category
	})

	if order[0] != SyntheticRootID || order[1] != "l2-1" {
		t.Fatalf("expected pre-order start [__root__ l2-1], got %v", order[:2])
	}
	for _, id := range order {
		if id == "l1-1" || id == "l0-1" {
			t.Fatalf("pruned subtree was visited: %s", id)
		}
	}
	if order[2] != "l2-2" {
		t.Errorf("expected l2-2 right after pruned l2-1, got %s", order[2])
	}
}

func TestCounts(t *testing.T) {
	root := testTree()

	if got := Count(root); got != 14 {
		t.Errorf("expected 14 nodes (synthetic root excluded), got %d", got)
	}
	if got := LeafCount(root); got != 8 {
		t.Errorf("expected 8 leaves, got %d", got)
	}
	if got := MaxDepth(root); got != 3 {
		t.Errorf("expected depth 3 below synthetic root, got %d", got)
	}
}

func TestHasChildren(t *testing.T) {
	root := testTree()
	if !root.Children[0].HasChildren() {
		t.Error("expected L2 node to have children")
	}
	if Find(root, "l0-1").HasChildren() {
		t.Error("expected leaf to have no children")
	}
	var nilNode *ClusterNode
	if nilNode.HasChildren() {
		t.Error("expected nil node to report no children")
	}
}
