package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Frontend names the input representation a model expects.
type Frontend string

const (
	// FrontendWaveform feeds raw mono samples.
	FrontendWaveform Frontend = "waveform"
	// FrontendLogMel feeds a [1, 1, mels, frames] log mel spectrogram.
	FrontendLogMel Frontend = "logmel"
)

// Device selects the execution provider.
type Device string

const (
	DeviceAuto Device = "auto"
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

// Metadata describes an exported model. It lives in a JSON file next to the
// .onnx file.
type Metadata struct {
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Frontend    Frontend `json:"frontend"`
	SampleRate  int      `json:"sample_rate"`
}

// LoadMetadata reads and validates a metadata file, filling defaults for
// omitted fields.
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if err := metadata.normalize(); err != nil {
		return nil, fmt.Errorf("invalid metadata %s: %w", path, err)
	}
	return &metadata, nil
}

func (m *Metadata) normalize() error {
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
	if m.Frontend == "" {
		m.Frontend = FrontendWaveform
	}
	if m.SampleRate == 0 {
		m.SampleRate = 32000
	}

	switch m.Frontend {
	case FrontendWaveform:
		if len(m.InputShape) != 2 {
			return fmt.Errorf("waveform input shape must be [batch, samples], got %v", m.InputShape)
		}
	case FrontendLogMel:
		if len(m.InputShape) != 4 {
			return fmt.Errorf("logmel input shape must be [batch, 1, mels, frames], got %v", m.InputShape)
		}
	default:
		return fmt.Errorf("unknown frontend %q", m.Frontend)
	}
	if len(m.OutputShape) == 0 {
		return fmt.Errorf("output shape is empty")
	}
	for _, dims := range [][]int64{m.InputShape, m.OutputShape} {
		for _, d := range dims {
			if d <= 0 {
				return fmt.Errorf("shape %v has non-positive dimension", dims)
			}
		}
	}
	if m.InputShape[0] != 1 || m.OutputShape[0] != 1 {
		return fmt.Errorf("batch dimension must be 1")
	}
	return nil
}

// NumClasses is the size of the label space.
func (m *Metadata) NumClasses() int {
	return int(m.OutputShape[len(m.OutputShape)-1])
}

// InputSize is the number of values one inference consumes.
func (m *Metadata) InputSize() int {
	n := int64(1)
	for _, d := range m.InputShape {
		n *= d
	}
	return int(n)
}
