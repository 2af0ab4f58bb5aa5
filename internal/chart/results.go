// Package chart renders grouped bar charts of per-model genre predictions.
package chart

import (
	_ "embed"
	"fmt"
	"image/color"
	"os"

	"github.com/goccy/go-yaml"
)

//go:embed results.yaml
var defaultResults []byte

// Model is one generator whose output was classified.
type Model struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// Score is one (label, probability) pair.
type Score struct {
	Label string  `yaml:"label"`
	Score float64 `yaml:"score"`
}

// Genre holds the ranked predictions per model for one prompt genre.
type Genre struct {
	Name        string             `yaml:"name"`
	Predictions map[string][]Score `yaml:"predictions"`
}

// Results is a table of classification results to chart.
type Results struct {
	Models []Model `yaml:"models"`
	Genres []Genre `yaml:"genres"`
}

// DefaultResults returns the built-in table.
func DefaultResults() *Results {
	r, err := ParseResults(defaultResults)
	if err != nil {
		panic(fmt.Sprintf("chart: embedded results: %v", err))
	}
	return r
}

// LoadResults reads a results table from a YAML file.
func LoadResults(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	r, err := ParseResults(data)
	if err != nil {
		return nil, fmt.Errorf("results %s: %w", path, err)
	}
	return r, nil
}

// ParseResults decodes and validates a results table.
func ParseResults(data []byte) (*Results, error) {
	var r Results
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Results) validate() error {
	if len(r.Models) == 0 {
		return fmt.Errorf("no models")
	}
	if len(r.Genres) == 0 {
		return fmt.Errorf("no genres")
	}
	for _, m := range r.Models {
		if _, err := parseHexColor(m.Color); err != nil {
			return fmt.Errorf("model %s: %w", m.Name, err)
		}
	}
	for _, g := range r.Genres {
		for _, m := range r.Models {
			if len(g.Predictions[m.Name]) == 0 {
				return fmt.Errorf("genre %s has no predictions for model %s", g.Name, m.Name)
			}
		}
	}
	return nil
}

// Ranks is the longest prediction list in g.
func (g Genre) Ranks() int {
	n := 0
	for _, scores := range g.Predictions {
		n = max(n, len(scores))
	}
	return n
}

func parseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("invalid color %q", s)
	}
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}
