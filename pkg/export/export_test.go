package export

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/testutil"
)

func TestSnapshot_WritesDecodablePNG(t *testing.T) {
	dir := t.TempDir()
	root := testutil.QuickRoot()

	paths, err := Snapshot(Options{
		Root:     root,
		Width:    320,
		Height:   240,
		Formats:  []string{"png"},
		Dir:      dir,
		Basename: "map",
	})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("got %d paths, want 1: %v", len(paths), paths)
	}
	if paths[0] != filepath.Join(dir, "map.png") {
		t.Errorf("unexpected path %q", paths[0])
	}

	f, err := os.Open(paths[0])
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 320 || bounds.Dy() != 240 {
		t.Errorf("bounds = %dx%d, want 320x240", bounds.Dx(), bounds.Dy())
	}
}

func TestSnapshot_BothFormats(t *testing.T) {
	dir := t.TempDir()
	root := testutil.QuickRoot()

	paths, err := Snapshot(Options{
		Root:     root,
		Width:    320,
		Height:   240,
		Formats:  []string{"SVG", ".png"},
		Dir:      dir,
		Basename: "map",
	})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2: %v", len(paths), paths)
	}

	svgData, err := os.ReadFile(filepath.Join(dir, "map.svg"))
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if !strings.Contains(string(svgData), "<svg") {
		t.Error("svg output missing <svg element")
	}
}

func TestSnapshot_DefaultSizeAndFormat(t *testing.T) {
	dir := t.TempDir()

	paths, err := Snapshot(Options{
		Root:     testutil.QuickRoot(),
		Dir:      dir,
		Basename: "map",
	})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(paths) != 1 || !strings.HasSuffix(paths[0], ".png") {
		t.Fatalf("default format should be one png, got %v", paths)
	}

	f, err := os.Open(paths[0])
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != DefaultWidth || img.Bounds().Dy() != DefaultHeight {
		t.Errorf("bounds = %v, want %dx%d", img.Bounds(), DefaultWidth, DefaultHeight)
	}
}

func TestSnapshot_TimestampedBasename(t *testing.T) {
	dir := t.TempDir()

	paths, err := Snapshot(Options{
		Root:   testutil.QuickRoot(),
		Width:  160,
		Height: 120,
		Dir:    dir,
	})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	name := filepath.Base(paths[0])
	if !strings.HasPrefix(name, "clustermap-") {
		t.Errorf("default basename %q should start with clustermap-", name)
	}
}

func TestSnapshot_DrilledViewRoot(t *testing.T) {
	dir := t.TempDir()
	root := testutil.QuickRoot()
	top := root.Children[0]

	paths, err := Snapshot(Options{
		Root:       root,
		ViewRootID: top.ID,
		SelectedID: top.Children[0].ID,
		Width:      320,
		Height:     240,
		Dir:        dir,
		Basename:   "drilled",
	})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("got %d paths, want 1", len(paths))
	}
}

func TestSnapshot_Errors(t *testing.T) {
	root := testutil.QuickRoot()
	cases := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{"nil root", Options{}, "no hierarchy"},
		{"bad format", Options{Root: root, Formats: []string{"pdf"}}, "unsupported format"},
		{"missing view root", Options{Root: root, ViewRootID: "nope"}, "not found"},
		{
			"empty tree",
			Options{Root: hierarchy.NewRoot(nil)},
			"nothing to render",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.opts.Dir = t.TempDir()
			if _, err := Snapshot(tc.opts); err == nil {
				t.Fatal("expected error")
			} else if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestNormalizeFormats(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty defaults to png", nil, []string{"png"}},
		{"dedupes and lowercases", []string{".PNG", "png", "Svg"}, []string{"png", "svg"}},
		{"blank entries ignored", []string{"", "  ", "svg"}, []string{"svg"}},
		{"all blank defaults to png", []string{"", " "}, []string{"png"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizeFormats(tc.in)
			if err != nil {
				t.Fatalf("normalizeFormats(%v): %v", tc.in, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}
