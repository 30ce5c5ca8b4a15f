package scene

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/clustermap/pkg/metrics"
)

// RenderPNG paints the display list with the gg raster backend and writes a
// PNG to path, creating parent directories as needed. An empty list is a
// no-op so callers can render unconditionally.
func RenderPNG(dl *DisplayList, path string) error {
	if dl.Empty() {
		return nil
	}
	defer metrics.Timer(metrics.SnapshotWrite)()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	return paint(dl).SavePNG(path)
}

// EncodePNG paints the display list and streams the PNG bytes to w.
func EncodePNG(dl *DisplayList, w io.Writer) error {
	if dl.Empty() {
		return nil
	}
	return paint(dl).EncodePNG(w)
}

func paint(dl *DisplayList) *gg.Context {
	dc := gg.NewContext(dl.Width, dl.Height)
	dc.SetColor(dl.Background)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	// The list is already in paint order.
	for i := range dl.Bubbles {
		paintBubble(dc, &dl.Bubbles[i])
	}
	return dc
}

func paintBubble(dc *gg.Context, b *Bubble) {
	if b.Glow != nil {
		dc.SetColor(straight(b.Glow.Color))
		dc.DrawCircle(b.X, b.Y, b.Glow.R)
		dc.Fill()
	}
	if b.Pulse != nil {
		dc.SetColor(straight(b.Pulse.Color))
		dc.SetLineWidth(2.5)
		dc.DrawCircle(b.X, b.Y, b.Pulse.R)
		dc.Stroke()
	}

	grad := gg.NewRadialGradient(b.X, b.Y, 0, b.X, b.Y, b.R)
	grad.AddColorStop(0, b.Fill)
	grad.AddColorStop(1, b.FillOuter)
	dc.SetFillStyle(grad)
	dc.DrawCircle(b.X, b.Y, b.R)
	dc.Fill()

	dc.SetColor(b.Border)
	dc.SetLineWidth(b.BorderW)
	if b.Dashed {
		dc.SetDash(4, 4)
	}
	dc.DrawCircle(b.X, b.Y, b.R)
	dc.Stroke()
	if b.Dashed {
		dc.SetDash()
	}

	if len(b.LabelLines) > 0 {
		dc.SetColor(b.LabelColor)
		// basicfont is fixed-size, so line height is fixed too; LabelSize
		// still drives the wrap width so lines stay inside the circle.
		const lineH = 14.0
		top := b.Y - lineH*float64(len(b.LabelLines)-1)/2
		for i, line := range b.LabelLines {
			dc.DrawStringAnchored(line, b.X, top+float64(i)*lineH, 0.5, 0.5)
		}
	}
}

// straight reinterprets stored straight-alpha channels as color.NRGBA so the
// raster backend premultiplies them correctly.
func straight(c color.RGBA) color.NRGBA {
	return color.NRGBA{c.R, c.G, c.B, c.A}
}
