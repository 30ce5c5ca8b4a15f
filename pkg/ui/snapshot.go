// Package ui is the terminal interface for clustermap: a zoomable
// packed-circle map of the cluster hierarchy beside a synchronized outline,
// driven by one bubbletea event loop.
package ui

import (
	"fmt"
	"time"

	"github.com/vanderheijden86/clustermap/internal/datasource"
	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
)

type datasetTier int

const (
	datasetTierUnknown datasetTier = iota
	datasetTierSmall
	datasetTierMedium
	datasetTierLarge
	datasetTierHuge
)

func datasetTierForNodeCount(total int) datasetTier {
	switch {
	case total <= 0:
		return datasetTierUnknown
	case total < 1000:
		return datasetTierSmall
	case total < 5000:
		return datasetTierMedium
	case total < 20000:
		return datasetTierLarge
	default:
		return datasetTierHuge
	}
}

func (t datasetTier) String() string {
	switch t {
	case datasetTierSmall:
		return "small"
	case datasetTierMedium:
		return "medium"
	case datasetTierLarge:
		return "large"
	case datasetTierHuge:
		return "huge"
	default:
		return "unknown"
	}
}

// renderFeatures are the per-frame effects the map can shed as the dataset
// grows. Labels and glows cost a raster pass per bubble; hover tracking
// hit-tests every mouse motion event.
type renderFeatures struct {
	Labels       bool
	Glow         bool
	HoverTracked bool
}

func renderFeaturesForTier(tier datasetTier) renderFeatures {
	f := renderFeatures{Labels: true, Glow: true, HoverTracked: true}
	switch tier {
	case datasetTierLarge:
		f.Glow = false
	case datasetTierHuge:
		f.Glow = false
		f.HoverTracked = false
	}
	return f
}

// DataSnapshot is an immutable, self-contained view of the loaded hierarchy
// plus the derived counts the header shows. Once created it never changes:
// reloads build a fresh snapshot off the event loop and the UI swaps the
// pointer, so Update and View never see a half-reloaded tree.
type DataSnapshot struct {
	Root      *hierarchy.ClusterNode
	Source    datasource.DataSource
	HasTopics bool

	// Derived counts
	Clusters int
	Leaves   int
	Depth    int

	// DatasetTier is a tiered performance mode for large hierarchies.
	DatasetTier datasetTier
	// LargeDatasetWarning is a short, user-facing warning for the footer.
	LargeDatasetWarning string

	CreatedAt time.Time
}

// NewDataSnapshot derives the header counts and performance tier from a
// freshly loaded tree.
func NewDataSnapshot(root *hierarchy.ClusterNode, sess *datasource.Session) *DataSnapshot {
	s := &DataSnapshot{
		Root:      root,
		Clusters:  hierarchy.Count(root),
		Leaves:    hierarchy.LeafCount(root),
		Depth:     hierarchy.MaxDepth(root),
		CreatedAt: time.Now(),
	}
	s.DatasetTier = datasetTierForNodeCount(s.Clusters)
	switch s.DatasetTier {
	case datasetTierLarge:
		s.LargeDatasetWarning = fmt.Sprintf("%s clusters: glow effects off", compactCount(s.Clusters))
	case datasetTierHuge:
		s.LargeDatasetWarning = fmt.Sprintf("%s clusters: glow and hover off", compactCount(s.Clusters))
	}
	if sess != nil {
		s.Source = sess.Source
		s.HasTopics = sess.HasTopics()
	}
	return s
}

func compactCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%dm", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%dk", n/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// IsEmpty reports whether the snapshot has no clusters.
func (s *DataSnapshot) IsEmpty() bool {
	return s == nil || s.Root == nil || s.Clusters == 0
}

// Age returns how long ago this snapshot was built.
func (s *DataSnapshot) Age() time.Duration {
	if s == nil {
		return 0
	}
	return time.Since(s.CreatedAt)
}

// Features returns the render features for this snapshot's tier.
func (s *DataSnapshot) Features() renderFeatures {
	if s == nil {
		return renderFeaturesForTier(datasetTierUnknown)
	}
	return renderFeaturesForTier(s.DatasetTier)
}
