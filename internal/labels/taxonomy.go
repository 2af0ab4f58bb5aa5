package labels

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// Filter names a label filtering policy.
type Filter string

const (
	FilterNone   Filter = ""
	FilterGenres Filter = "genres"
	FilterMusic  Filter = "music"
)

// ParseFilter validates a filter name. Names match exactly; the empty
// string means no filter.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case FilterNone, FilterGenres, FilterMusic:
		return f, nil
	}
	return FilterNone, fmt.Errorf("unknown filter %q (want %q or %q)", s, FilterMusic, FilterGenres)
}

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// Taxonomy holds the closed sets a Filter is resolved against.
type Taxonomy struct {
	Genres             []string `yaml:"genres"`
	InstrumentKeywords []string `yaml:"instrument_keywords"`

	genres map[string]struct{}
}

// DefaultTaxonomy returns the built-in genre and instrument sets.
func DefaultTaxonomy() *Taxonomy {
	t, err := ParseTaxonomy(defaultTaxonomy)
	if err != nil {
		panic(fmt.Sprintf("labels: embedded taxonomy: %v", err))
	}
	return t
}

// LoadTaxonomy reads a taxonomy YAML file.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("taxonomy %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read taxonomy: %w", err)
	}
	t, err := ParseTaxonomy(data)
	if err != nil {
		return nil, fmt.Errorf("taxonomy %s: %w", path, err)
	}
	return t, nil
}

// ParseTaxonomy decodes taxonomy YAML. Keywords are lower-cased and genre
// names trimmed.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(t.Genres) == 0 {
		return nil, fmt.Errorf("%w: taxonomy has no genres", ErrParse)
	}

	t.genres = make(map[string]struct{}, len(t.Genres))
	for i, g := range t.Genres {
		t.Genres[i] = strings.TrimSpace(g)
		t.genres[t.Genres[i]] = struct{}{}
	}
	for i, k := range t.InstrumentKeywords {
		t.InstrumentKeywords[i] = strings.ToLower(strings.TrimSpace(k))
	}
	return &t, nil
}

// IndexSet is a set of label indices.
type IndexSet map[int]struct{}

// Contains reports whether idx is in the set.
func (s IndexSet) Contains(idx int) bool {
	_, ok := s[idx]
	return ok
}

// AllowedIndices resolves f against m. FilterNone yields a nil set, which
// callers treat as "allow all".
func (t *Taxonomy) AllowedIndices(f Filter, m ClassMapping) IndexSet {
	if f == FilterNone {
		return nil
	}

	allowed := make(IndexSet)
	for idx, label := range m {
		clean := strings.TrimSpace(label)
		switch f {
		case FilterGenres:
			if t.isGenre(clean) {
				allowed[idx] = struct{}{}
			}
		case FilterMusic:
			if t.isGenre(clean) || t.hasInstrument(clean) {
				allowed[idx] = struct{}{}
			}
		}
	}
	return allowed
}

func (t *Taxonomy) isGenre(label string) bool {
	_, ok := t.genres[label]
	return ok
}

func (t *Taxonomy) hasInstrument(label string) bool {
	lower := strings.ToLower(label)
	for _, k := range t.InstrumentKeywords {
		if k != "" && strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
