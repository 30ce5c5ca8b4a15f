package ui

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/testutil"
)

func TestDatasetTierForNodeCount(t *testing.T) {
	tests := []struct {
		total int
		want  datasetTier
	}{
		{0, datasetTierUnknown},
		{-3, datasetTierUnknown},
		{1, datasetTierSmall},
		{999, datasetTierSmall},
		{1000, datasetTierMedium},
		{4999, datasetTierMedium},
		{5000, datasetTierLarge},
		{19999, datasetTierLarge},
		{20000, datasetTierHuge},
		{500000, datasetTierHuge},
	}
	for _, tt := range tests {
		if got := datasetTierForNodeCount(tt.total); got != tt.want {
			t.Errorf("datasetTierForNodeCount(%d) = %s; want %s", tt.total, got, tt.want)
		}
	}
}

func TestRenderFeaturesForTier(t *testing.T) {
	small := renderFeaturesForTier(datasetTierSmall)
	if !small.Labels || !small.Glow || !small.HoverTracked {
		t.Errorf("small tier should keep everything on, got %+v", small)
	}

	large := renderFeaturesForTier(datasetTierLarge)
	if large.Glow {
		t.Error("large tier should turn glow off")
	}
	if !large.Labels || !large.HoverTracked {
		t.Errorf("large tier should keep labels and hover, got %+v", large)
	}

	huge := renderFeaturesForTier(datasetTierHuge)
	if huge.Glow || huge.HoverTracked {
		t.Errorf("huge tier should shed glow and hover, got %+v", huge)
	}
	if !huge.Labels {
		t.Error("labels stay on even for huge datasets")
	}
}

func TestNewDataSnapshotCounts(t *testing.T) {
	s := NewDataSnapshot(testutil.QuickRoot(), nil)

	// 3 categories x 2 themes x 3 leaves, synthetic wrapper excluded.
	if s.Clusters != 27 {
		t.Errorf("Clusters = %d; want 27", s.Clusters)
	}
	if s.Leaves != 18 {
		t.Errorf("Leaves = %d; want 18", s.Leaves)
	}
	if s.Depth != 3 {
		t.Errorf("Depth = %d; want 3", s.Depth)
	}
	if s.DatasetTier != datasetTierSmall {
		t.Errorf("DatasetTier = %s; want small", s.DatasetTier)
	}
	if s.LargeDatasetWarning != "" {
		t.Errorf("small dataset should carry no warning, got %q", s.LargeDatasetWarning)
	}
	if s.HasTopics {
		t.Error("nil session should leave HasTopics false")
	}
	if s.IsEmpty() {
		t.Error("populated snapshot reported empty")
	}
	if s.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}
}

func TestNewDataSnapshotLargeWarning(t *testing.T) {
	root := hierarchy.NewRoot(testutil.NewDefault().Large(5200))
	s := NewDataSnapshot(root, nil)

	if s.DatasetTier != datasetTierLarge {
		t.Fatalf("tier = %s (%d clusters); want large", s.DatasetTier, s.Clusters)
	}
	if !strings.Contains(s.LargeDatasetWarning, "glow effects off") {
		t.Errorf("warning = %q; want glow notice", s.LargeDatasetWarning)
	}
	if f := s.Features(); f.Glow || !f.HoverTracked {
		t.Errorf("large features = %+v", f)
	}
}

func TestNewDataSnapshotHugeWarning(t *testing.T) {
	root := hierarchy.NewRoot(testutil.NewDefault().Large(21000))
	s := NewDataSnapshot(root, nil)

	if s.DatasetTier != datasetTierHuge {
		t.Fatalf("tier = %s (%d clusters); want huge", s.DatasetTier, s.Clusters)
	}
	if !strings.Contains(s.LargeDatasetWarning, "glow and hover off") {
		t.Errorf("warning = %q; want glow and hover notice", s.LargeDatasetWarning)
	}
	if f := s.Features(); f.Glow || f.HoverTracked {
		t.Errorf("huge features = %+v", f)
	}
}

func TestDataSnapshotIsEmpty(t *testing.T) {
	var nilSnap *DataSnapshot
	if !nilSnap.IsEmpty() {
		t.Error("nil snapshot should be empty")
	}
	if f := nilSnap.Features(); !f.Labels || !f.Glow || !f.HoverTracked {
		t.Errorf("nil snapshot features should be the defaults, got %+v", f)
	}

	empty := NewDataSnapshot(hierarchy.NewRoot(testutil.Empty()), nil)
	if !empty.IsEmpty() {
		t.Error("snapshot over zero clusters should be empty")
	}
}

func TestCompactCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{842, "842"},
		{5200, "5k"},
		{19999, "19k"},
		{1_200_000, "1m"},
	}
	for _, tt := range tests {
		if got := compactCount(tt.n); got != tt.want {
			t.Errorf("compactCount(%d) = %q; want %q", tt.n, got, tt.want)
		}
	}
}
