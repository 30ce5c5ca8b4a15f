package hierarchy

import "fmt"

// Validate checks structural invariants the rest of the engine assumes:
// unique ids, no cycles, no negative weights. Loaders run this once after
// building a tree; layout passes do not re-validate.
//
// Traversal uses an explicit stack so a hostile (cyclic) input cannot blow
// the goroutine stack before being detected.
func Validate(root *ClusterNode) error {
	if root == nil {
		return fmt.Errorf("validate hierarchy: nil root")
	}
	seen := make(map[string]bool)
	onPath := make(map[*ClusterNode]bool)

	type frame struct {
		node *ClusterNode
		next int
	}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n := top.node

		if top.next == 0 {
			if onPath[n] {
				return fmt.Errorf("validate hierarchy: cycle through cluster %q", n.ID)
			}
			if n.ID == "" {
				return fmt.Errorf("validate hierarchy: cluster with empty id")
			}
			if seen[n.ID] {
				return fmt.Errorf("validate hierarchy: duplicate cluster id %q", n.ID)
			}
			if n.Weight < 0 {
				return fmt.Errorf("validate hierarchy: cluster %q has negative weight %d", n.ID, n.Weight)
			}
			seen[n.ID] = true
			onPath[n] = true
		}

		if top.next < len(n.Children) {
			child := n.Children[top.next]
			top.next++
			if child == nil {
				return fmt.Errorf("validate hierarchy: cluster %q has nil child", n.ID)
			}
			if onPath[child] {
				return fmt.Errorf("validate hierarchy: cycle through cluster %q", child.ID)
			}
			stack = append(stack, frame{node: child})
			continue
		}

		onPath[n] = false
		stack = stack[:len(stack)-1]
	}
	return nil
}
