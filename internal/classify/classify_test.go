package classify

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/audiotag/internal/audio"
	"github.com/Brownie44l1/audiotag/internal/labels"
)

// fakeModel returns fixed probabilities as logits.
type fakeModel struct {
	probs   []float64
	calls   int
	lastLen int
}

func (m *fakeModel) Logits(waveform []float32) ([]float32, error) {
	m.calls++
	m.lastLen = len(waveform)
	logits := make([]float32, len(m.probs))
	for i, p := range m.probs {
		logits[i] = float32(math.Log(p / (1 - p)))
	}
	return logits, nil
}

func (m *fakeModel) NumClasses() int { return len(m.probs) }

var mapping = labels.ClassMapping{
	0: "Music",
	1: "Speech",
	2: "Jazz",
	3: "Guitar",
	4: "Dog",
}

func writeClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, audio.DefaultSampleRate, 16, 1, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: audio.DefaultSampleRate},
		Data:           make([]int, 8000),
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	return path
}

func newClassifier(m Model, out *bytes.Buffer) *Classifier {
	return New(Preloaded(m), mapping, WithOutput(out))
}

func indices(set PredictionSet) []int {
	out := make([]int, len(set))
	for i, p := range set {
		out[i] = p.Index
	}
	return out
}

func TestClassifyRanking(t *testing.T) {
	var out bytes.Buffer
	model := &fakeModel{probs: []float64{0.9, 0.3, 0.6, 0.01, 0.02}}
	path := writeClip(t)

	set, err := newClassifier(model, &out).Classify(path, labels.FilterNone, 0.1)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2, 1}, indices(set))
	assert.Equal(t, audio.TargetLength, model.lastLen)

	report := out.String()
	assert.Contains(t, report, "Processing file: "+path)
	assert.Contains(t, report, "Predictions above 10% confidence:")

	lines := strings.Split(strings.TrimSpace(report), "\n")
	assert.Equal(t, []string{
		"Music (Index 0): 0.900000",
		"Jazz (Index 2): 0.600000",
		"Speech (Index 1): 0.300000",
	}, lines[len(lines)-3:])
}

func TestClassifyNoPredictions(t *testing.T) {
	var out bytes.Buffer
	model := &fakeModel{probs: []float64{0.5, 0.5, 0.1, 0.2, 0.3}}

	set, err := newClassifier(model, &out).Classify(writeClip(t), labels.FilterNone, 0.99)
	require.NoError(t, err)
	assert.Empty(t, set)
	assert.Contains(t, out.String(), "No predictions above 99% confidence")
}

func TestClassifyMissingFile(t *testing.T) {
	var out bytes.Buffer
	loaded := false
	c := New(func() (Model, error) {
		loaded = true
		return &fakeModel{}, nil
	}, mapping, WithOutput(&out))

	path := filepath.Join(t.TempDir(), "missing.wav")
	set, err := c.Classify(path, labels.FilterNone, DefaultThreshold)
	require.NoError(t, err)
	assert.Nil(t, set)
	assert.Equal(t, "Error: File not found: "+path+"\n", out.String())
	assert.False(t, loaded, "model must not load for a missing file")
}

func TestClassifyDecodeError(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "broken.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF garbage"), 0o644))

	_, err := newClassifier(&fakeModel{probs: []float64{0.9}}, &out).Classify(path, labels.FilterNone, DefaultThreshold)
	assert.ErrorIs(t, err, audio.ErrDecode)
}

func TestClassifyLoaderError(t *testing.T) {
	var out bytes.Buffer
	boom := errors.New("no runtime")
	c := New(func() (Model, error) { return nil, boom }, mapping, WithOutput(&out))

	_, err := c.Classify(writeClip(t), labels.FilterNone, DefaultThreshold)
	assert.ErrorIs(t, err, boom)
}

func TestClassifyLoadsModelOnce(t *testing.T) {
	var out bytes.Buffer
	loads := 0
	model := &fakeModel{probs: []float64{0.9, 0.1, 0.1, 0.1, 0.1}}
	c := New(func() (Model, error) {
		loads++
		return model, nil
	}, mapping, WithOutput(&out))

	path := writeClip(t)
	for i := 0; i < 3; i++ {
		_, err := c.Classify(path, labels.FilterNone, DefaultThreshold)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, loads)
	assert.Equal(t, 3, model.calls)
}

func TestClassifyFilter(t *testing.T) {
	model := &fakeModel{probs: []float64{0.9, 0.8, 0.7, 0.6, 0.5}}
	waveform := &audio.Waveform{Samples: make([]float32, audio.TargetLength), SampleRate: audio.DefaultSampleRate}
	c := newClassifier(model, &bytes.Buffer{})

	genres, err := c.Predict(waveform, labels.FilterGenres, 0.1)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, indices(genres))

	music, err := c.Predict(waveform, labels.FilterMusic, 0.1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, indices(music))

	all, err := c.Predict(waveform, labels.FilterNone, 0.1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, indices(all))
}

func TestSelectThresholdIsStrict(t *testing.T) {
	set := Select([]float32{0.5, 0.75, 0.25}, mapping, nil, 0.5)
	assert.Equal(t, []int{1}, indices(set))
}

func TestSelectDropsProbabilityEqualToThreshold(t *testing.T) {
	assert.Empty(t, Select([]float32{0.3}, mapping, nil, 0.3))
	assert.Empty(t, Select([]float32{0.05}, mapping, nil, DefaultThreshold))
}

func TestSelectDropsNaN(t *testing.T) {
	set := Select([]float32{float32(math.NaN()), 0.6}, mapping, nil, DefaultThreshold)
	assert.Equal(t, []int{1}, indices(set))
}

func TestSelectEmptyAllowedSet(t *testing.T) {
	set := Select([]float32{0.9, 0.8}, mapping, labels.IndexSet{}, 0.1)
	assert.Empty(t, set)
}

func TestSelectUnknownLabel(t *testing.T) {
	probs := make([]float32, 7)
	probs[6] = 0.7
	set := Select(probs, mapping, nil, 0.1)
	require.Len(t, set, 1)
	assert.Equal(t, "Unknown 6", set[0].Label)
}

func TestSelectCapsAndKeepsTies(t *testing.T) {
	probs := make([]float32, 150)
	for i := range probs {
		probs[i] = 0.5
	}
	probs[120] = 0.9

	set := Select(probs, labels.ClassMapping{}, nil, 0.1)
	require.Len(t, set, MaxPredictions)
	assert.Equal(t, 120, set[0].Index)
	// Equal probabilities keep index order.
	assert.Equal(t, 0, set[1].Index)
	assert.Equal(t, 98, set[MaxPredictions-1].Index)
}

func TestSigmoid(t *testing.T) {
	probs := Sigmoid([]float32{0, 100, -100, float32(math.Log(3))})
	assert.InDelta(t, 0.5, probs[0], 1e-7)
	assert.InDelta(t, 1.0, probs[1], 1e-7)
	assert.InDelta(t, 0.0, probs[2], 1e-7)
	assert.InDelta(t, 0.75, probs[3], 1e-6)
}

func TestWriteReportThresholdFormatting(t *testing.T) {
	for threshold, want := range map[float64]string{
		1e-9: "No predictions above 0% confidence",
		0.05: "No predictions above 5% confidence",
		0.99: "No predictions above 99% confidence",
	} {
		var out bytes.Buffer
		WriteReport(&out, nil, threshold)
		assert.Contains(t, out.String(), want, fmt.Sprint(threshold))
	}
}
