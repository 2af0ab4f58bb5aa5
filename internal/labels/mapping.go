package labels

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned when a label resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrParse is returned for malformed label resources.
	ErrParse = errors.New("parse error")
)

// ClassMapping maps a classifier output index to its display label.
type ClassMapping map[int]string

// LoadClassMapping reads a CSV with a header row containing at least the
// "index" and "display_name" columns.
func LoadClassMapping(path string) (ClassMapping, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("class mapping %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open class mapping: %w", err)
	}
	defer f.Close()

	m, err := ParseClassMapping(f)
	if err != nil {
		return nil, fmt.Errorf("class mapping %s: %w", path, err)
	}
	return m, nil
}

// ParseClassMapping parses the CSV form accepted by LoadClassMapping.
func ParseClassMapping(r io.Reader) (ClassMapping, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: missing header row", ErrParse)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	indexCol, nameCol := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) {
		case "index":
			indexCol = i
		case "display_name":
			nameCol = i
		}
	}
	if indexCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("%w: header must contain index and display_name, got %v", ErrParse, header)
	}

	m := make(ClassMapping)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		line, _ := reader.FieldPos(0)

		idx, err := strconv.Atoi(strings.TrimSpace(row[indexCol]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad index %q", ErrParse, line, row[indexCol])
		}
		if _, dup := m[idx]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate index %d", ErrParse, line, idx)
		}
		m[idx] = row[nameCol]
	}
	return m, nil
}

// Label resolves idx to its display label, or "Unknown {idx}" when absent.
func (m ClassMapping) Label(idx int) string {
	if name, ok := m[idx]; ok {
		return name
	}
	return fmt.Sprintf("Unknown %d", idx)
}

// Covers reports whether the mapping holds exactly the indices 0..n-1.
func (m ClassMapping) Covers(n int) error {
	if len(m) != n {
		return fmt.Errorf("class mapping has %d labels, classifier emits %d", len(m), n)
	}
	for i := 0; i < n; i++ {
		if _, ok := m[i]; !ok {
			return fmt.Errorf("class mapping is missing index %d", i)
		}
	}
	return nil
}
