package model

import (
	"fmt"
	"log"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/audiotag/internal/features"
)

// Config locates a model and selects where it runs.
type Config struct {
	Path     string `mapstructure:"path"`
	Metadata string `mapstructure:"metadata"`
	Library  string `mapstructure:"library"` // onnxruntime shared library, empty for the default lookup
	Device   Device `mapstructure:"device"`
}

// Session runs an exported PaSST model. Logits is safe for concurrent use;
// calls are serialized because the input and output tensors are shared.
type Session struct {
	Metadata Metadata
	Device   Device

	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	frontend     *features.LogMel
}

// NewSession initializes ONNX Runtime and loads the model described by cfg.
func NewSession(cfg Config) (*Session, error) {
	metadata, err := LoadMetadata(cfg.Metadata)
	if err != nil {
		return nil, err
	}

	if cfg.Library != "" {
		ort.SetSharedLibraryPath(cfg.Library)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	s := &Session{Metadata: *metadata}
	if metadata.Frontend == FrontendLogMel {
		mcfg := features.PaSSTConfig()
		mcfg.SampleRate = metadata.SampleRate
		mcfg.NumMels = int(metadata.InputShape[2])
		s.frontend = features.NewLogMel(mcfg)
	}

	s.inputTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	s.outputTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	device := cfg.Device
	if device == "" {
		device = DeviceAuto
	}
	if err := s.open(cfg.Path, device); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// open creates the ORT session on the requested device. DeviceAuto falls
// back to the CPU provider when CUDA is unavailable.
func (s *Session) open(path string, device Device) error {
	switch device {
	case DeviceCPU:
	case DeviceAuto, DeviceCUDA:
		session, err := s.newSession(path, true)
		if err == nil {
			s.session, s.Device = session, DeviceCUDA
			return nil
		}
		if device == DeviceCUDA {
			return err
		}
		log.Printf("CUDA unavailable, using CPU: %v", err)
	default:
		return fmt.Errorf("unknown device %q", device)
	}

	session, err := s.newSession(path, false)
	if err != nil {
		return err
	}
	s.session, s.Device = session, DeviceCPU
	return nil
}

func (s *Session) newSession(path string, cuda bool) (*ort.AdvancedSession, error) {
	var options *ort.SessionOptions
	if cuda {
		opts, err := ort.NewSessionOptions()
		if err != nil {
			return nil, fmt.Errorf("failed to create session options: %w", err)
		}
		defer opts.Destroy()

		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return nil, fmt.Errorf("failed to create CUDA options: %w", err)
		}
		defer cudaOpts.Destroy()

		if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			return nil, fmt.Errorf("failed to enable CUDA: %w", err)
		}
		options = opts
	}

	session, err := ort.NewAdvancedSession(path,
		[]string{s.Metadata.InputName}, []string{s.Metadata.OutputName},
		[]ort.ArbitraryTensor{s.inputTensor}, []ort.ArbitraryTensor{s.outputTensor},
		options)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return session, nil
}

// Logits runs one forward pass over a normalized waveform and returns the
// raw per-label scores.
func (s *Session) Logits(waveform []float32) ([]float32, error) {
	input := waveform
	if s.frontend != nil {
		input = features.Flatten(s.frontend.Extract(waveform))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.inputTensor.GetData()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("model expects %d input values, got %d", len(dst), len(input))
	}
	copy(dst, input)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := s.outputTensor.GetData()
	logits := make([]float32, len(out))
	copy(logits, out)
	return logits, nil
}

// NumClasses is the size of the model's label space.
func (s *Session) NumClasses() int {
	return s.Metadata.NumClasses()
}

// Close releases the session, its tensors and the ONNX environment.
func (s *Session) Close() error {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
	return ort.DestroyEnvironment()
}
