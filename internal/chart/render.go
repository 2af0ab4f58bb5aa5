package chart

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Options controls chart geometry and output.
type Options struct {
	Width      vg.Length
	Height     vg.Length
	DPI        int
	YMax       float64 // raised automatically when a score exceeds it
	ThumbWidth uint    // thumbnail width in pixels, 0 disables thumbnails
}

// DefaultOptions returns a 14x6 inch chart at 300 DPI.
func DefaultOptions() Options {
	return Options{
		Width:  14 * vg.Inch,
		Height: 6 * vg.Inch,
		DPI:    300,
		YMax:   0.3,
	}
}

// FileName is the chart file written for a genre.
func FileName(genre string) string {
	return strings.TrimSpace(genre) + "_genre_predictions.png"
}

// Render writes one chart per genre into dir and returns the paths written.
func Render(r *Results, dir string, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	var written []string
	for _, g := range r.Genres {
		p, err := Plot(r, g, opts)
		if err != nil {
			return written, fmt.Errorf("genre %s: %w", g.Name, err)
		}

		canvas := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(opts.DPI))
		p.Draw(draw.New(canvas))

		path := filepath.Join(dir, FileName(g.Name))
		if err := writePNG(path, canvas.Image()); err != nil {
			return written, err
		}
		written = append(written, path)

		if opts.ThumbWidth > 0 {
			thumb := resize.Resize(opts.ThumbWidth, 0, canvas.Image(), resize.Lanczos3)
			thumbPath := strings.TrimSuffix(path, ".png") + "_thumb.png"
			if err := writePNG(thumbPath, thumb); err != nil {
				return written, err
			}
			written = append(written, thumbPath)
		}
	}
	return written, nil
}

// Plot builds the grouped bar chart for one genre: one group per rank, one
// bar per model, each bar annotated with its label and score.
func Plot(r *Results, g Genre, opts Options) (*plot.Plot, error) {
	ranks := g.Ranks()

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - Top %d Genre Predictions per Model", g.Name, ranks)
	p.Y.Label.Text = "Confidence Score"
	p.Legend.Top = true

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	p.Add(grid)

	barWidth := opts.Width / vg.Length(ranks*(len(r.Models)+2))
	center := float64(len(r.Models)-1) / 2
	yMax := opts.YMax

	for i, m := range r.Models {
		col, err := parseHexColor(m.Color)
		if err != nil {
			return nil, err
		}
		scores := g.Predictions[m.Name]

		values := make(plotter.Values, len(scores))
		xys := make(plotter.XYs, len(scores))
		texts := make([]string, len(scores))
		for k, s := range scores {
			values[k] = s.Score
			xys[k] = plotter.XY{X: float64(k), Y: s.Score}
			texts[k] = fmt.Sprintf("%s\n%.3f", strings.TrimSpace(s.Label), s.Score)
			yMax = max(yMax, s.Score*1.1)
		}

		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return nil, fmt.Errorf("bars for %s: %w", m.Name, err)
		}
		bars.Color = col
		bars.LineStyle.Width = 0
		bars.Offset = vg.Length(float64(i)-center) * barWidth
		p.Add(bars)
		p.Legend.Add(m.Name, bars)

		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
		if err != nil {
			return nil, fmt.Errorf("labels for %s: %w", m.Name, err)
		}
		labels.Offset = vg.Point{X: bars.Offset, Y: vg.Points(2)}
		for k := range labels.TextStyle {
			labels.TextStyle[k].XAlign = draw.XCenter
			labels.TextStyle[k].Font.Size = vg.Points(6)
		}
		p.Add(labels)
	}

	names := make([]string, ranks)
	for k := range names {
		names[k] = fmt.Sprintf("#%d", k+1)
	}
	p.NominalX(names...)

	p.Y.Min = 0
	p.Y.Max = yMax
	return p, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
