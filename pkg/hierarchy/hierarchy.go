// Package hierarchy defines the immutable conversation-cluster tree that the
// rest of the application renders and navigates.
//
// A hierarchy has exactly three nesting levels: L2 (broadest category),
// L1, and L0 (most specific, leaf-bearing). The upstream clustering pipeline
// produces an ordered list of L2 nodes; when there is more than one, a
// synthetic root wraps them so layout and traversal always start from a
// single node. The synthetic root is an implementation artifact: it is never
// rendered, never appears in breadcrumbs, and is stripped from ancestor
// paths.
package hierarchy

import "fmt"

// SyntheticRootID identifies the artificial wrapper node introduced when the
// data source returns multiple top-level clusters.
const SyntheticRootID = "__root__"

// Level is the nesting level of a cluster. Higher levels are broader:
// L2 contains L1 contains L0.
type Level int

const (
	LevelL0 Level = iota
	LevelL1
	LevelL2
)

// String returns the wire spelling of the level.
func (l Level) String() string {
	switch l {
	case LevelL0:
		return "l0"
	case LevelL1:
		return "l1"
	case LevelL2:
		return "l2"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a wire-format level string to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "l0", "L0":
		return LevelL0, nil
	case "l1", "L1":
		return LevelL1, nil
	case "l2", "L2":
		return LevelL2, nil
	default:
		return 0, fmt.Errorf("unknown cluster level %q", s)
	}
}

// ClusterNode is a node in the cluster hierarchy. The tree is immutable for
// the lifetime of a session: loaders build it once, every other package only
// reads it.
type ClusterNode struct {
	// ID is globally unique across the whole hierarchy.
	ID string
	// Name is the display label generated by the upstream pipeline.
	Name string
	// Level places the node in the three-level nesting.
	Level Level
	// Weight is the number of conversations under this cluster. Zero or
	// negative weights are treated as 1 for layout purposes.
	Weight int
	// Description is the pipeline's longer summary of the cluster. Optional.
	Description string
	// Children are ordered sub-clusters. Empty for leaves.
	Children []*ClusterNode
}

// PackValue returns the value the layout engine packs by: the weight,
// floored at 1 so weightless nodes still occupy area.
func (n *ClusterNode) PackValue() float64 {
	if n.Weight < 1 {
		return 1
	}
	return float64(n.Weight)
}

// HasChildren reports whether the node can be drilled into.
func (n *ClusterNode) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

// IsSyntheticRoot reports whether id names the artificial wrapper root.
func IsSyntheticRoot(id string) bool {
	return id == SyntheticRootID
}

// NewRoot wraps the top-level clusters in a synthetic root so the tree always
// has a single entry point. A single top-level node is wrapped too: keeping
// the shape uniform means navigation never special-cases the first drill.
func NewRoot(tops []*ClusterNode) *ClusterNode {
	total := 0
	for _, t := range tops {
		total += t.Weight
	}
	return &ClusterNode{
		ID:       SyntheticRootID,
		Name:     "",
		Level:    LevelL2,
		Weight:   total,
		Children: tops,
	}
}

// Find locates a node by id anywhere under root (root included, synthetic or
// not). Returns nil when absent.
func Find(root *ClusterNode, id string) *ClusterNode {
	if root == nil {
		return nil
	}
	if root.ID == id {
		return root
	}
	for _, c := range root.Children {
		if found := Find(c, id); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits every node under root in pre-order. The visit function returns
// false to prune the subtree below the current node.
func Walk(root *ClusterNode, visit func(*ClusterNode) bool) {
	if root == nil {
		return
	}
	if !visit(root) {
		return
	}
	for _, c := range root.Children {
		Walk(c, visit)
	}
}

// AncestorPath returns the chain of nodes from just below root down to the
// node with the given id, inclusive. The synthetic root never appears in the
// result. Returns nil when the id is not in the tree.
func AncestorPath(root *ClusterNode, id string) []*ClusterNode {
	if root == nil {
		return nil
	}
	var path []*ClusterNode
	if !IsSyntheticRoot(root.ID) {
		path = append(path, root)
	}
	if root.ID == id {
		if len(path) == 0 {
			return nil
		}
		return path
	}
	for _, c := range root.Children {
		if sub := AncestorPath(c, id); sub != nil {
			return append(path, sub...)
		}
	}
	return nil
}

// NearestAncestorAtLevel walks up from the node with the given id and returns
// the closest ancestor (or the node itself) at the wanted level. Used by the
// renderer to resolve a nested view root's L2 base color when the L2 node is
// not part of the active layout.
func NearestAncestorAtLevel(root *ClusterNode, id string, want Level) *ClusterNode {
	path := AncestorPath(root, id)
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].Level == want {
			return path[i]
		}
	}
	return nil
}

// Count returns the number of nodes under root, root included unless it is
// the synthetic wrapper.
func Count(root *ClusterNode) int {
	n := 0
	Walk(root, func(c *ClusterNode) bool {
		if !IsSyntheticRoot(c.ID) {
			n++
		}
		return true
	})
	return n
}

// LeafCount returns the number of childless nodes under root.
func LeafCount(root *ClusterNode) int {
	n := 0
	Walk(root, func(c *ClusterNode) bool {
		if !c.HasChildren() && !IsSyntheticRoot(c.ID) {
			n++
		}
		return true
	})
	return n
}

// MaxDepth returns the depth of the deepest node below root, with root at
// depth zero.
func MaxDepth(root *ClusterNode) int {
	if root == nil {
		return 0
	}
	deepest := 0
	for _, c := range root.Children {
		if d := MaxDepth(c) + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}
