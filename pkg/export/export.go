// Package export renders static snapshots of the cluster map.
//
// A snapshot reproduces what the interactive map shows at a given drill
// position: the packed layout of the view root's subtree at fit zoom, with
// the same palette, gradients, and selection halo. PNG and SVG share one
// display list, so the two formats always agree.
package export

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/clustermap/pkg/camera"
	"github.com/vanderheijden86/clustermap/pkg/debug"
	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/layout"
	"github.com/vanderheijden86/clustermap/pkg/metrics"
	"github.com/vanderheijden86/clustermap/pkg/scene"
)

// Default canvas size when the caller gives none. Matches the config
// defaults so TUI exports and headless exports agree.
const (
	DefaultWidth  = 1600
	DefaultHeight = 1200
)

// Options controls a snapshot export.
type Options struct {
	Root       *hierarchy.ClusterNode // full hierarchy; required
	ViewRootID string                 // drill position; empty renders from the top
	SelectedID string                 // cluster to halo, optional
	Width      int                    // canvas width in pixels
	Height     int                    // canvas height in pixels
	Formats    []string               // "png" and/or "svg" (case-insensitive); defaults to png
	Dir        string                 // output directory; defaults to the working directory
	Basename   string                 // file stem; defaults to a timestamped name
	ShowLabels bool
	Palette    []color.RGBA // optional category palette override
	Now        time.Time    // halo pulse phase; zero freezes the pulse at rest
}

// Snapshot writes the requested formats and returns the paths it wrote,
// sorted. Formats render concurrently from one shared display list.
func Snapshot(opts Options) ([]string, error) {
	defer metrics.Timer(metrics.SnapshotWrite)()

	if opts.Root == nil {
		return nil, fmt.Errorf("no hierarchy to export")
	}
	formats, err := normalizeFormats(opts.Formats)
	if err != nil {
		return nil, err
	}

	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	height := opts.Height
	if height <= 0 {
		height = DefaultHeight
	}

	viewRoot := opts.Root
	if opts.ViewRootID != "" {
		viewRoot = hierarchy.Find(opts.Root, opts.ViewRootID)
		if viewRoot == nil {
			return nil, fmt.Errorf("view root %q not found", opts.ViewRootID)
		}
	}

	nodes, err := layout.Pack(viewRoot, float64(width), float64(height))
	if err != nil {
		return nil, fmt.Errorf("compute layout: %w", err)
	}

	dl := scene.Build(scene.Input{
		Nodes:      nodes,
		Root:       opts.Root,
		SelectedID: opts.SelectedID,
		Camera:     camera.FitZoom(nodes, float64(width), float64(height)),
		Width:      float64(width),
		Height:     float64(height),
		Now:        opts.Now,
		ShowLabels: opts.ShowLabels,
		Palette:    opts.Palette,
	})
	if dl.Empty() {
		return nil, fmt.Errorf("nothing to render under %q", viewRoot.Name)
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	base := opts.Basename
	if base == "" {
		base = fmt.Sprintf("clustermap-%s", time.Now().Format("20060102-150405"))
	}

	paths := make([]string, len(formats))
	var g errgroup.Group
	for i, format := range formats {
		path := filepath.Join(dir, base+"."+format)
		paths[i] = path
		g.Go(func() error {
			debug.Log("export: writing %s", path)
			var err error
			switch format {
			case "png":
				err = scene.RenderPNG(dl, path)
			case "svg":
				err = scene.RenderSVG(dl, path)
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", format, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// normalizeFormats lowercases, strips leading dots, dedupes, and validates.
// An empty list means png.
func normalizeFormats(formats []string) ([]string, error) {
	if len(formats) == 0 {
		return []string{"png"}, nil
	}
	seen := make(map[string]bool, len(formats))
	var out []string
	for _, f := range formats {
		format := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
		if format == "" {
			continue
		}
		if format != "png" && format != "svg" {
			return nil, fmt.Errorf("unsupported format %q (want svg or png)", f)
		}
		if seen[format] {
			continue
		}
		seen[format] = true
		out = append(out, format)
	}
	if len(out) == 0 {
		return []string{"png"}, nil
	}
	return out, nil
}
