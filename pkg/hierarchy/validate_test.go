package hierarchy

import (
	"strconv"
	"strings"
	"testing"
)

func TestValidate_WellFormed(t *testing.T) {
	if err := Validate(testTree()); err != nil {
		t.Errorf("expected valid tree, got %v", err)
	}
}

func TestValidate_NilRoot(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Error("expected error for nil root")
	}
}

func TestValidate_DuplicateID(t *testing.T) {
	root := NewRoot([]*ClusterNode{
		{ID: "dup", Level: LevelL2},
		{ID: "dup", Level: LevelL2},
	})
	err := Validate(root)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected duplicate id error, got %v", err)
	}
}

func TestValidate_Cycle(t *testing.T) {
	a := &ClusterNode{ID: "a", Level: LevelL2}
	b := &ClusterNode{ID: "b", Level: LevelL1}
	a.Children = []*ClusterNode{b}
	b.Children = []*ClusterNode{a}

	err := Validate(NewRoot([]*ClusterNode{a}))
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("expected cycle error, got %v", err)
	}
}

func TestValidate_SelfCycle(t *testing.T) {
	a := &ClusterNode{ID: "a", Level: LevelL2}
	a.Children = []*ClusterNode{a}

	err := Validate(a)
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("expected cycle error, got %v", err)
	}
}

func TestValidate_SharedNodeIsCycleFree_ButDuplicate(t *testing.T) {
	// A diamond (same node under two parents) is not a cycle but still
	// violates unique ids.
	shared := &ClusterNode{ID: "shared", Level: LevelL0}
	root := NewRoot([]*ClusterNode{
		{ID: "p1", Level: LevelL2, Children: []*ClusterNode{shared}},
		{ID: "p2", Level: LevelL2, Children: []*ClusterNode{shared}},
	})

	err := Validate(root)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected duplicate id error for diamond, got %v", err)
	}
}

func TestValidate_NegativeWeight(t *testing.T) {
	root := NewRoot([]*ClusterNode{{ID: "x", Level: LevelL2, Weight: -1}})
	err := Validate(root)
	if err == nil || !strings.Contains(err.Error(), "negative weight") {
		t.Errorf("expected negative weight error, got %v", err)
	}
}

func TestValidate_NilChild(t *testing.T) {
	root := NewRoot([]*ClusterNode{{ID: "x", Level: LevelL2, Children: []*ClusterNode{nil}}})
	err := Validate(root)
	if err == nil || !strings.Contains(err.Error(), "nil child") {
		t.Errorf("expected nil child error, got %v", err)
	}
}

func TestValidate_EmptyID(t *testing.T) {
	root := NewRoot([]*ClusterNode{{ID: "", Level: LevelL2}})
	err := Validate(root)
	if err == nil || !strings.Contains(err.Error(), "empty id") {
		t.Errorf("expected empty id error, got %v", err)
	}
}

func TestValidate_DeepChainDoesNotOverflow(t *testing.T) {
	// A pathologically deep chain must be handled by the explicit stack.
	leaf := &ClusterNode{ID: "n0", Level: LevelL0}
	cur := leaf
	for i := 1; i <= 200_000; i++ {
		cur = &ClusterNode{
			ID:       "n" + strconv.Itoa(i),
			Level:    LevelL1,
			Children: []*ClusterNode{cur},
		}
	}
	if err := Validate(cur); err != nil {
		t.Errorf("deep chain should validate, got %v", err)
	}
}
