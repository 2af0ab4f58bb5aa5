// Package classify tags one audio file with a multi-label audio model.
//
// A Classifier validates the input path, loads the model on first use,
// normalizes the audio, squashes the model's logits with a sigmoid and keeps
// the labels whose probability is strictly above the threshold and allowed
// by the optional label filter, highest first.
package classify

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/Brownie44l1/audiotag/internal/audio"
	"github.com/Brownie44l1/audiotag/internal/labels"
)

const (
	// DefaultThreshold is the minimum probability Classify reports when the
	// caller has no preference.
	DefaultThreshold = 0.05

	// MaxPredictions caps the size of a PredictionSet.
	MaxPredictions = 100
)

// Model produces one logit per label for a normalized waveform.
type Model interface {
	Logits(waveform []float32) ([]float32, error)
}

// Loader builds the model. Classifier calls it at most once, on the first
// classification that reaches inference.
type Loader func() (Model, error)

func Preloaded(m Model) Loader {
	return func() (Model, error) { return m, nil }
}

// Prediction is one label surviving threshold and filter.
type Prediction struct {
	Index       int     `json:"index"`
	Label       string  `json:"label"`
	Probability float32 `json:"probability"`
}

// PredictionSet is ordered by probability, highest first.
type PredictionSet []Prediction

// Classifier runs single-file classifications.
type Classifier struct {
	mu         sync.Mutex
	load       Loader
	model      Model
	mapping    labels.ClassMapping
	taxonomy   *labels.Taxonomy
	sampleRate int
	out        io.Writer
}

type Option func(*Classifier)

// WithTaxonomy replaces the built-in label filter taxonomy.
func WithTaxonomy(t *labels.Taxonomy) Option {
	return func(c *Classifier) { c.taxonomy = t }
}

// WithSampleRate sets the rate audio is resampled to before inference.
func WithSampleRate(rate int) Option {
	return func(c *Classifier) { c.sampleRate = rate }
}

// WithOutput sets where Classify writes its report. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Classifier) { c.out = w }
}

// New creates a Classifier resolving labels through mapping.
func New(load Loader, mapping labels.ClassMapping, opts ...Option) *Classifier {
	c := &Classifier{
		load:       load,
		mapping:    mapping,
		taxonomy:   labels.DefaultTaxonomy(),
		sampleRate: audio.DefaultSampleRate,
		out:        os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify tags the audio file at path and prints the report. A missing
// file is reported on the output and yields an empty set with no error;
// decode and inference failures are returned.
func (c *Classifier) Classify(path string, filter labels.Filter, threshold float64) (PredictionSet, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(c.out, "Error: File not found: %s\n", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat audio file: %w", err)
	}

	fmt.Fprintf(c.out, "Processing file: %s\n", path)
	if tags, ok := audio.ReadTags(path); ok && tags.Title != "" {
		log.Printf("Tags: %q by %q (%s)", tags.Title, tags.Artist, tags.Format)
	}

	if _, err := c.Model(); err != nil {
		return nil, err
	}

	waveform, err := audio.Load(path, c.sampleRate)
	if err != nil {
		return nil, err
	}

	set, err := c.Predict(waveform, filter, threshold)
	if err != nil {
		return nil, err
	}

	WriteReport(c.out, set, threshold)
	return set, nil
}

// Predict classifies an already normalized waveform without printing.
func (c *Classifier) Predict(waveform *audio.Waveform, filter labels.Filter, threshold float64) (PredictionSet, error) {
	m, err := c.Model()
	if err != nil {
		return nil, err
	}

	logits, err := m.Logits(waveform.Samples)
	if err != nil {
		return nil, err
	}

	allowed := c.taxonomy.AllowedIndices(filter, c.mapping)
	return Select(Sigmoid(logits), c.mapping, allowed, threshold), nil
}

// Model returns the classifier's model, loading it on first call.
func (c *Classifier) Model() (Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model != nil {
		return c.model, nil
	}

	m, err := c.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	if sized, ok := m.(interface{ NumClasses() int }); ok {
		if err := c.mapping.Covers(sized.NumClasses()); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	c.model = m
	return m, nil
}

// Close releases the model if it was loaded and holds resources.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if closer, ok := c.model.(io.Closer); ok {
		c.model = nil
		return closer.Close()
	}
	return nil
}

// Sigmoid maps logits to independent per-label probabilities.
func Sigmoid(logits []float32) []float32 {
	probs := make([]float32, len(logits))
	for i, x := range logits {
		v := float64(x)
		if v >= 0 {
			probs[i] = float32(1 / (1 + math.Exp(-v)))
		} else {
			e := math.Exp(v)
			probs[i] = float32(e / (1 + e))
		}
	}
	return probs
}

// Select keeps indices with probability strictly above threshold that are
// in allowed (a nil allowed set admits every index), sorts them by
// probability descending and truncates to MaxPredictions.
func Select(probs []float32, mapping labels.ClassMapping, allowed labels.IndexSet, threshold float64) PredictionSet {
	var set PredictionSet
	limit := float32(threshold)
	for idx, p := range probs {
		// Compared in float32 so a probability equal to the threshold, or NaN, is dropped.
		if !(p > limit) {
			continue
		}
		if allowed != nil && !allowed.Contains(idx) {
			continue
		}
		set = append(set, Prediction{Index: idx, Label: mapping.Label(idx), Probability: p})
	}

	sort.SliceStable(set, func(i, j int) bool {
		return set[i].Probability > set[j].Probability
	})
	if len(set) > MaxPredictions {
		set = set[:MaxPredictions]
	}
	return set
}
