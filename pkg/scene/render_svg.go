package scene

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ajstarks/svgo"

	"github.com/vanderheijden86/clustermap/pkg/metrics"
)

// RenderSVG writes the display list as an SVG document to path, creating
// parent directories as needed. An empty list is a no-op.
func RenderSVG(dl *DisplayList, path string) error {
	if dl.Empty() {
		return nil
	}
	defer metrics.Timer(metrics.SnapshotWrite)()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteSVG(dl, file)
}

// WriteSVG writes the display list as an SVG document to w.
func WriteSVG(dl *DisplayList, w io.Writer) error {
	if dl.Empty() {
		return nil
	}
	canvas := svg.New(w)
	canvas.Start(dl.Width, dl.Height)
	canvas.Rect(0, 0, dl.Width, dl.Height, fmt.Sprintf("fill:%s", css(dl.Background)))

	// One radial gradient per bubble, ids keyed by paint order.
	canvas.Def()
	for i := range dl.Bubbles {
		b := &dl.Bubbles[i]
		canvas.RadialGradient(gradientID(i), 50, 50, 50, 50, 50, []svg.Offcolor{
			{Offset: 0, Color: css(b.Fill), Opacity: 1},
			{Offset: 100, Color: css(b.FillOuter), Opacity: 1},
		})
	}
	canvas.DefEnd()

	for i := range dl.Bubbles {
		writeBubble(canvas, i, &dl.Bubbles[i])
	}

	canvas.End()
	return nil
}

func gradientID(i int) string {
	return fmt.Sprintf("bubble-fill-%d", i)
}

func writeBubble(canvas *svg.SVG, i int, b *Bubble) {
	if b.Glow != nil {
		canvas.Circle(int(b.X), int(b.Y), int(b.Glow.R),
			fmt.Sprintf("fill:%s;fill-opacity:%.2f", css(b.Glow.Color), opacityOf(b.Glow.Color)))
	}
	if b.Pulse != nil {
		canvas.Circle(int(b.X), int(b.Y), int(b.Pulse.R),
			fmt.Sprintf("fill:none;stroke:%s;stroke-opacity:%.2f;stroke-width:2.5",
				css(b.Pulse.Color), opacityOf(b.Pulse.Color)))
	}

	style := fmt.Sprintf("fill:url(#%s);stroke:%s;stroke-width:%.1f",
		gradientID(i), css(b.Border), b.BorderW)
	if b.Dashed {
		style += ";stroke-dasharray:4 4"
	}
	canvas.Circle(int(b.X), int(b.Y), int(b.R), style)

	if len(b.LabelLines) > 0 {
		lineH := b.LabelSize * 1.2
		top := b.Y - lineH*float64(len(b.LabelLines)-1)/2
		for j, line := range b.LabelLines {
			// +size/3 shifts the baseline so the line box is vertically centred.
			canvas.Text(int(b.X), int(top+float64(j)*lineH+b.LabelSize/3), line,
				fmt.Sprintf("fill:%s;font-size:%.0fpx;font-family:monospace;text-anchor:middle",
					css(b.LabelColor), b.LabelSize))
		}
	}
}
