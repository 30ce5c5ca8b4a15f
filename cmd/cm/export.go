package main

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/clustermap/internal/datasource"
	"github.com/vanderheijden86/clustermap/pkg/config"
	"github.com/vanderheijden86/clustermap/pkg/debug"
	"github.com/vanderheijden86/clustermap/pkg/export"
	"github.com/vanderheijden86/clustermap/pkg/scene"
)

// runHeadlessExport renders snapshots for --export-png/--export-svg without
// entering the TUI. Flag dimensions win over config, config over the package
// defaults.
func runHeadlessExport(sess *datasource.Session, cfg config.Config, pngPath, svgPath, viewRootID string, width, height int) error {
	if width <= 0 {
		width = cfg.Export.Width
	}
	if height <= 0 {
		height = cfg.Export.Height
	}

	type job struct{ path, format string }
	jobs := make([]job, 0, 2)
	if pngPath != "" {
		jobs = append(jobs, job{pngPath, "png"})
	}
	if svgPath != "" {
		jobs = append(jobs, job{svgPath, "svg"})
	}

	for _, j := range jobs {
		opts := export.Options{
			Root:       sess.Root(),
			ViewRootID: viewRootID,
			Width:      width,
			Height:     height,
			Formats:    []string{j.format},
			Dir:        filepath.Dir(j.path),
			Basename:   strings.TrimSuffix(filepath.Base(j.path), filepath.Ext(j.path)),
			ShowLabels: cfg.LabelsEnabled(),
			Palette:    paletteFromConfig(cfg),
		}
		paths, err := export.Snapshot(opts)
		if err != nil {
			return fmt.Errorf("export %s: %w", j.format, err)
		}
		for _, p := range paths {
			fmt.Println(p)
		}
	}
	return nil
}

// runExportWizard drives the interactive "cm export" flow.
func runExportWizard(sess *datasource.Session, cfg config.Config) error {
	wiz := export.NewWizard(cfg.Export)
	wcfg, err := wiz.Run()
	if err != nil {
		return err
	}

	paths, err := export.Snapshot(export.Options{
		Root:       sess.Root(),
		Width:      wcfg.Width,
		Height:     wcfg.Height,
		Formats:    wcfg.Formats,
		Dir:        wcfg.Dir,
		Basename:   wcfg.Basename,
		ShowLabels: wcfg.ShowLabels,
		Palette:    paletteFromConfig(cfg),
	})
	if err != nil {
		return err
	}

	wiz.PrintSuccess(paths)

	// Remember the answers for next time. Not worth failing the export over.
	if err := export.SaveWizardConfig(wcfg); err != nil {
		debug.Log("cm: save wizard defaults: %v", err)
	}
	return nil
}

func paletteFromConfig(cfg config.Config) []color.RGBA {
	if len(cfg.UI.Palette) == 0 {
		return nil
	}
	pal, err := scene.ParsePalette(cfg.UI.Palette)
	if err != nil {
		debug.Log("cm: palette: %v", err)
		return nil
	}
	return pal
}
