// Package testutil provides deterministic cluster-tree fixtures and golden
// file helpers shared by tests across packages. All generators produce
// deterministic output for reproducible tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/topics"
)

// GeneratorConfig controls cluster tree generation.
type GeneratorConfig struct {
	Seed      int64  // Random seed for determinism (0 = 42)
	IDPrefix  string // Prefix for node IDs (default: "test")
	WeightMin int    // Smallest leaf weight (default: 10)
	WeightMax int    // Largest leaf weight (default: 500)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42, // Deterministic
		IDPrefix:  "test",
		WeightMin: 10,
		WeightMax: 500,
	}
}

// Generator creates cluster tree fixtures with various shapes.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "test"
	}
	if cfg.WeightMin <= 0 {
		cfg.WeightMin = 10
	}
	if cfg.WeightMax < cfg.WeightMin {
		cfg.WeightMax = cfg.WeightMin
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Category/theme/topic name pools. Cycled with a numeric suffix once
// exhausted, so every generated name stays unique-looking but readable.
var (
	categoryNames = []string{
		"Coding Help", "Writing", "Research", "Life Advice", "Math",
		"Language Learning", "Business", "Creative Projects",
	}
	themeNames = []string{
		"Debugging", "Code Review", "Essays", "Editing", "Papers",
		"Citations", "Relationships", "Careers", "Calculus", "Statistics",
		"Grammar", "Vocabulary", "Marketing", "Strategy", "Fiction",
		"Worldbuilding",
	}
	leafNames = []string{
		"Stack traces", "Off-by-one errors", "Race conditions",
		"Thesis statements", "Tone rewrites", "Source evaluation",
		"Survey design", "Difficult conversations", "Interview prep",
		"Integrals", "Hypothesis testing", "Idioms", "Conjugation",
		"Ad copy", "Pricing", "Dialogue", "Magic systems",
	}
)

func pickName(pool []string, i int) string {
	name := pool[i%len(pool)]
	if i >= len(pool) {
		name = fmt.Sprintf("%s %d", name, i/len(pool)+1)
	}
	return name
}

// leafWeight draws a deterministic weight in [WeightMin, WeightMax].
func (g *Generator) leafWeight() int {
	span := g.cfg.WeightMax - g.cfg.WeightMin + 1
	return g.cfg.WeightMin + g.rng.Intn(span)
}

// Balanced builds l2 top-level categories, each with l1 themes, each with l0
// leaves. Leaf weights are drawn from the configured range; parent weights
// are the sum of their children.
func (g *Generator) Balanced(l2, l1, l0 int) []*hierarchy.ClusterNode {
	tops := make([]*hierarchy.ClusterNode, 0, l2)
	for i := 0; i < l2; i++ {
		cat := &hierarchy.ClusterNode{
			ID:    fmt.Sprintf("%s-l2-%d", g.cfg.IDPrefix, i),
			Name:  pickName(categoryNames, i),
			Level: hierarchy.LevelL2,
		}
		for j := 0; j < l1; j++ {
			theme := &hierarchy.ClusterNode{
				ID:    fmt.Sprintf("%s-l1-%d-%d", g.cfg.IDPrefix, i, j),
				Name:  pickName(themeNames, i*l1+j),
				Level: hierarchy.LevelL1,
			}
			for k := 0; k < l0; k++ {
				leaf := &hierarchy.ClusterNode{
					ID:     fmt.Sprintf("%s-l0-%d-%d-%d", g.cfg.IDPrefix, i, j, k),
					Name:   pickName(leafNames, (i*l1+j)*l0+k),
					Level:  hierarchy.LevelL0,
					Weight: g.leafWeight(),
				}
				theme.Children = append(theme.Children, leaf)
				theme.Weight += leaf.Weight
			}
			cat.Children = append(cat.Children, theme)
			cat.Weight += theme.Weight
		}
		tops = append(tops, cat)
	}
	return tops
}

// Skewed builds l2 categories with varying branch counts and a lopsided
// weight distribution, so layouts see both dominant and tiny siblings.
func (g *Generator) Skewed(l2 int) []*hierarchy.ClusterNode {
	tops := make([]*hierarchy.ClusterNode, 0, l2)
	for i := 0; i < l2; i++ {
		cat := &hierarchy.ClusterNode{
			ID:    fmt.Sprintf("%s-l2-%d", g.cfg.IDPrefix, i),
			Name:  pickName(categoryNames, i),
			Level: hierarchy.LevelL2,
		}
		themes := 1 + g.rng.Intn(4)
		for j := 0; j < themes; j++ {
			theme := &hierarchy.ClusterNode{
				ID:    fmt.Sprintf("%s-l1-%d-%d", g.cfg.IDPrefix, i, j),
				Name:  pickName(themeNames, i*4+j),
				Level: hierarchy.LevelL1,
			}
			leaves := 1 + g.rng.Intn(6)
			for k := 0; k < leaves; k++ {
				// Doubling amplifies the spread well past the uniform range.
				leaf := &hierarchy.ClusterNode{
					ID:     fmt.Sprintf("%s-l0-%d-%d-%d", g.cfg.IDPrefix, i, j, k),
					Name:   pickName(leafNames, (i*4+j)*6+k),
					Level:  hierarchy.LevelL0,
					Weight: g.leafWeight() << g.rng.Intn(5),
				}
				theme.Children = append(theme.Children, leaf)
				theme.Weight += leaf.Weight
			}
			cat.Children = append(cat.Children, theme)
			cat.Weight += theme.Weight
		}
		tops = append(tops, cat)
	}
	return tops
}

// SingleTop builds the smallest drillable tree: one category, one theme, two
// leaves.
func (g *Generator) SingleTop() []*hierarchy.ClusterNode {
	return g.Balanced(1, 1, 2)
}

// WideTops builds n categories with one theme and one leaf each. With n above
// the base palette size this exercises the color fallback path.
func (g *Generator) WideTops(n int) []*hierarchy.ClusterNode {
	return g.Balanced(n, 1, 1)
}

// Flat builds n childless top-level categories.
func (g *Generator) Flat(n int) []*hierarchy.ClusterNode {
	tops := make([]*hierarchy.ClusterNode, 0, n)
	for i := 0; i < n; i++ {
		tops = append(tops, &hierarchy.ClusterNode{
			ID:     fmt.Sprintf("%s-l2-%d", g.cfg.IDPrefix, i),
			Name:   pickName(categoryNames, i),
			Level:  hierarchy.LevelL2,
			Weight: g.leafWeight(),
		})
	}
	return tops
}

// Large builds a balanced tree of at least approx nodes, for tiering and
// throughput tests. Branching is derived so the total lands near approx.
func (g *Generator) Large(approx int) []*hierarchy.ClusterNode {
	if approx < 8 {
		approx = 8
	}
	// With b branches per level a 3-level tree holds b + b^2 + b^3 nodes;
	// b^3 dominates, so the cube root gets close from below.
	b := 1
	for (b+1)+(b+1)*(b+1)+(b+1)*(b+1)*(b+1) <= approx {
		b++
	}
	tops := g.Balanced(b, b, b)
	for total := b + b*b + b*b*b; total < approx; total++ {
		// Top up with extra leaves under the first theme.
		cat := tops[0]
		theme := cat.Children[0]
		leaf := &hierarchy.ClusterNode{
			ID:     fmt.Sprintf("%s-l0-extra-%d", g.cfg.IDPrefix, total),
			Name:   pickName(leafNames, total),
			Level:  hierarchy.LevelL0,
			Weight: g.leafWeight(),
		}
		theme.Children = append(theme.Children, leaf)
		theme.Weight += leaf.Weight
		cat.Weight += leaf.Weight
	}
	return tops
}

// ToJSON renders tops in the wire format loaders accept.
func ToJSON(tops []*hierarchy.ClusterNode) string {
	data, err := json.MarshalIndent(tops, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

// TopicsFor builds n deterministic sample topics for a leaf.
func TopicsFor(leafID string, n int) []topics.Topic {
	out := make([]topics.Topic, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, topics.Topic{
			ID:   fmt.Sprintf("%s-t%d", leafID, i),
			Text: fmt.Sprintf("Sample conversation %d under %s", i+1, leafID),
		})
	}
	return out
}

// StaticFetcher serves topics from a fixed map. Unknown ids yield empty
// lists, matching a collaborator with nothing recorded for the leaf.
func StaticFetcher(m map[string][]topics.Topic) topics.FetcherFunc {
	return func(ctx context.Context, nodeID string) ([]topics.Topic, error) {
		return m[nodeID], nil
	}
}

// Convenience functions

// QuickBalanced creates a 3x2x3 balanced tree with default settings.
func QuickBalanced() []*hierarchy.ClusterNode {
	return NewDefault().Balanced(3, 2, 3)
}

// QuickSingle creates the smallest drillable tree with default settings.
func QuickSingle() []*hierarchy.ClusterNode {
	return NewDefault().SingleTop()
}

// QuickRoot creates a 3x2x3 balanced tree wrapped in the synthetic root.
func QuickRoot() *hierarchy.ClusterNode {
	return hierarchy.NewRoot(QuickBalanced())
}

// Empty returns an empty top-level slice for edge case testing.
func Empty() []*hierarchy.ClusterNode {
	return []*hierarchy.ClusterNode{}
}
