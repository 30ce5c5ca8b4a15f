package main

import (
	"context"
	"fmt"
	"io"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/clustermap/internal/datasource"
	"github.com/vanderheijden86/clustermap/pkg/camera"
	"github.com/vanderheijden86/clustermap/pkg/export"
	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/layout"
	"github.com/vanderheijden86/clustermap/pkg/metrics"
	"github.com/vanderheijden86/clustermap/pkg/scene"
	"github.com/vanderheijden86/clustermap/pkg/topics"
)

// Robot modes print machine-readable JSON for scripts and CI. Schemas only
// grow: fields are added, never renamed or removed.

type robotHierarchyOutput struct {
	GeneratedAt string                   `json:"generated_at"`
	Source      string                   `json:"source"`
	Kind        string                   `json:"kind"`
	Clusters    int                      `json:"clusters"`
	Leaves      int                      `json:"leaves"`
	Depth       int                      `json:"depth"`
	Hierarchy   []*hierarchy.ClusterNode `json:"hierarchy"`
}

// runRobotHierarchy dumps the loaded tree in the same shape the JSON loader
// accepts, so the output can be fed back in as a data file.
func runRobotHierarchy(w io.Writer, sess *datasource.Session) error {
	root := sess.Root()
	out := robotHierarchyOutput{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Source:      sess.Source.Path,
		Kind:        string(sess.Source.Kind),
		Clusters:    hierarchy.Count(root),
		Leaves:      hierarchy.LeafCount(root),
		Depth:       hierarchy.MaxDepth(root),
		Hierarchy:   root.Children,
	}
	return writeRobotJSON(w, out)
}

type robotCameraOutput struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type robotLayoutNode struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Level string  `json:"level"`
	Depth int     `json:"depth"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	R     float64 `json:"r"`
}

type robotLayoutOutput struct {
	GeneratedAt string            `json:"generated_at"`
	ViewRoot    string            `json:"view_root,omitempty"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Camera      robotCameraOutput `json:"camera"`
	Nodes       []robotLayoutNode `json:"nodes"`
}

// runRobotLayout packs the hierarchy at the export canvas size and prints
// every circle with its fit camera. Coordinates are in canvas pixels.
func runRobotLayout(w io.Writer, sess *datasource.Session, viewRootID string, width, height int) error {
	if width <= 0 {
		width = export.DefaultWidth
	}
	if height <= 0 {
		height = export.DefaultHeight
	}

	root := sess.Root()
	viewRoot := root
	if viewRootID != "" {
		viewRoot = hierarchy.Find(root, viewRootID)
		if viewRoot == nil {
			return fmt.Errorf("view root %q not found", viewRootID)
		}
	}

	nodes, err := layout.Pack(viewRoot, float64(width), float64(height))
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	cam := camera.FitZoom(nodes, float64(width), float64(height))

	out := robotLayoutOutput{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Width:       width,
		Height:      height,
		Camera:      robotCameraOutput{K: cam.K, X: cam.X, Y: cam.Y},
	}
	if !hierarchy.IsSyntheticRoot(viewRoot.ID) {
		out.ViewRoot = viewRoot.ID
	}
	for _, n := range nodes {
		if hierarchy.IsSyntheticRoot(n.Node.ID) {
			continue
		}
		out.Nodes = append(out.Nodes, robotLayoutNode{
			ID:    n.Node.ID,
			Name:  n.Node.Name,
			Level: n.Node.Level.String(),
			Depth: n.Depth,
			X:     n.X,
			Y:     n.Y,
			R:     n.R,
		})
	}
	return writeRobotJSON(w, out)
}

type robotTopicsOutput struct {
	GeneratedAt string         `json:"generated_at"`
	NodeID      string         `json:"node_id"`
	Status      string         `json:"status"`
	Topics      []topics.Topic `json:"topics,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// runRobotTopics fetches topics for one cluster through the same cache the
// TUI uses. A failed fetch still prints JSON, with status "error".
func runRobotTopics(ctx context.Context, w io.Writer, sess *datasource.Session, nodeID string) error {
	if hierarchy.Find(sess.Root(), nodeID) == nil {
		return fmt.Errorf("cluster %q not found", nodeID)
	}
	if !sess.HasTopics() {
		return fmt.Errorf("source %s has no topic backend (use --topics or a SQLite source)", sess.Source.Path)
	}

	cache := topics.NewCache(sess)
	entry := cache.Fetch(ctx, nodeID)

	out := robotTopicsOutput{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		NodeID:      nodeID,
		Status:      entry.Status.String(),
		Topics:      entry.Topics,
		Error:       entry.Err,
	}
	return writeRobotJSON(w, out)
}

type robotMetricsOutput struct {
	GeneratedAt string                `json:"generated_at"`
	Source      string                `json:"source"`
	Timings     []metrics.TimingStats `json:"timings"`
	Caches      []metrics.CacheStats  `json:"caches,omitempty"`
}

// runRobotMetrics runs one layout and scene build so the report covers a
// whole frame, then prints every recorded timing and cache counter.
func runRobotMetrics(w io.Writer, sess *datasource.Session, width, height int) error {
	if width <= 0 {
		width = export.DefaultWidth
	}
	if height <= 0 {
		height = export.DefaultHeight
	}

	root := sess.Root()
	nodes, err := layout.Pack(root, float64(width), float64(height))
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	scene.Build(scene.Input{
		Nodes:  nodes,
		Root:   root,
		Camera: camera.FitZoom(nodes, float64(width), float64(height)),
		Width:  float64(width),
		Height: float64(height),
		Now:    time.Now(),
	})

	out := robotMetricsOutput{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Source:      sess.Source.Path,
		Timings:     metrics.AllTimingStats(),
		Caches:      metrics.AllCacheStats(),
	}
	return writeRobotJSON(w, out)
}

func writeRobotJSON(w io.Writer, out any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
