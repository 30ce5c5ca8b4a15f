package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
)

// TreeDiff summarizes how a reloaded hierarchy differs from the tree on
// screen. The UI footer shows Summary after a live reload; CM_DEBUG dumps
// the id lists.
type TreeDiff struct {
	// Added holds ids present only in the new tree.
	Added []string
	// Removed holds ids present only in the old tree.
	Removed []string
	// Renamed holds ids whose display name changed.
	Renamed []string
	// Reweighted holds ids whose conversation count changed.
	Reweighted []WeightShift
}

// WeightShift is one cluster whose weight moved between reloads.
type WeightShift struct {
	ID   string `json:"id"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

// HasChanges reports whether the two trees differ at all.
func (d TreeDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Renamed) > 0 || len(d.Reweighted) > 0
}

// Summary renders a one-line description for the status footer, e.g.
// "+3 −1 clusters, 2 reweighted".
func (d TreeDiff) Summary() string {
	if !d.HasChanges() {
		return "no changes"
	}
	var parts []string
	if len(d.Added) > 0 || len(d.Removed) > 0 {
		parts = append(parts, fmt.Sprintf("+%d -%d clusters", len(d.Added), len(d.Removed)))
	}
	if len(d.Renamed) > 0 {
		parts = append(parts, fmt.Sprintf("%d renamed", len(d.Renamed)))
	}
	if len(d.Reweighted) > 0 {
		parts = append(parts, fmt.Sprintf("%d reweighted", len(d.Reweighted)))
	}
	return strings.Join(parts, ", ")
}

// DiffTrees compares two hierarchies by id. The synthetic root is ignored;
// its weight is derived and would report a spurious shift. Lists come back
// sorted so the output is stable regardless of tree shape.
func DiffTrees(prev, next *hierarchy.ClusterNode) TreeDiff {
	prevNodes := collect(prev)
	nextNodes := collect(next)

	var d TreeDiff
	for id := range prevNodes {
		if _, ok := nextNodes[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	for id, n := range nextNodes {
		p, ok := prevNodes[id]
		if !ok {
			d.Added = append(d.Added, id)
			continue
		}
		if p.Name != n.Name {
			d.Renamed = append(d.Renamed, id)
		}
		if p.Weight != n.Weight {
			d.Reweighted = append(d.Reweighted, WeightShift{ID: id, From: p.Weight, To: n.Weight})
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Renamed)
	sort.Slice(d.Reweighted, func(i, j int) bool { return d.Reweighted[i].ID < d.Reweighted[j].ID })
	return d
}

func collect(root *hierarchy.ClusterNode) map[string]*hierarchy.ClusterNode {
	nodes := make(map[string]*hierarchy.ClusterNode)
	hierarchy.Walk(root, func(n *hierarchy.ClusterNode) bool {
		if !hierarchy.IsSyntheticRoot(n.ID) {
			nodes[n.ID] = n
		}
		return true
	})
	return nodes
}
