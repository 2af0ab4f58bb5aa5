package chart

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultResults(t *testing.T) {
	r := DefaultResults()
	require.Len(t, r.Models, 5)
	require.Len(t, r.Genres, 5)

	assert.Equal(t, "YuE", r.Models[0].Name)
	assert.Equal(t, "#1f77b4", r.Models[0].Color)

	pop := r.Genres[0]
	assert.Equal(t, "Pop", pop.Name)
	assert.Equal(t, 5, pop.Ranks())
	assert.Equal(t, Score{Label: "Electronic", Score: 0.22305}, pop.Predictions["MAGNeT"][0])
}

func TestParseResultsInvalid(t *testing.T) {
	cases := map[string]string{
		"no models":   "genres: [{name: Pop, predictions: {}}]\n",
		"no genres":   "models: [{name: A, color: '#000000'}]\n",
		"bad color":   "models: [{name: A, color: red}]\ngenres: [{name: Pop, predictions: {A: [{label: Pop, score: 0.1}]}}]\n",
		"missing row": "models: [{name: A, color: '#000000'}, {name: B, color: '#ffffff'}]\ngenres: [{name: Pop, predictions: {A: [{label: Pop, score: 0.1}]}}]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseResults([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := parseHexColor("#ff7f0e")
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), c.R)
	assert.Equal(t, uint8(0x7f), c.G)
	assert.Equal(t, uint8(0x0e), c.B)
	assert.Equal(t, uint8(0xff), c.A)
}

func TestRender(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "genre_pngs")
	opts := DefaultOptions()
	opts.DPI = 30
	opts.ThumbWidth = 105

	written, err := Render(DefaultResults(), dir, opts)
	require.NoError(t, err)
	require.Len(t, written, 10)
	assert.Equal(t, filepath.Join(dir, "Pop_genre_predictions.png"), written[0])
	assert.Equal(t, filepath.Join(dir, "Pop_genre_predictions_thumb.png"), written[1])

	f, err := os.Open(written[0])
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 14*30, cfg.Width)
	assert.Equal(t, 6*30, cfg.Height)

	tf, err := os.Open(written[1])
	require.NoError(t, err)
	defer tf.Close()
	tcfg, err := png.DecodeConfig(tf)
	require.NoError(t, err)
	assert.Equal(t, 105, tcfg.Width)
	assert.Equal(t, 45, tcfg.Height)
}

func TestPlotRaisesYMax(t *testing.T) {
	r, err := ParseResults([]byte("models: [{name: A, color: '#000000'}]\ngenres: [{name: Pop, predictions: {A: [{label: Pop, score: 0.5}]}}]\n"))
	require.NoError(t, err)

	p, err := Plot(r, r.Genres[0], DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 0.55, p.Y.Max, 1e-9)
	assert.Equal(t, "Pop - Top 1 Genre Predictions per Model", p.Title.Text)
}
