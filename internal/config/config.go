// Package config loads runtime settings from defaults, an optional YAML
// file and the environment, in increasing order of precedence.
//
// Environment variables use the AUDIOTAG_ prefix with dots replaced by
// underscores (AUDIOTAG_MODEL_DEVICE=cpu). PORT is honoured for the server
// port.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Brownie44l1/audiotag/internal/model"
)

// Config is the full runtime configuration.
type Config struct {
	Model  model.Config `mapstructure:"model"`
	Labels LabelsConfig `mapstructure:"labels"`
	Audio  AudioConfig  `mapstructure:"audio"`
	Server ServerConfig `mapstructure:"server"`
}

// LabelsConfig locates label resources.
type LabelsConfig struct {
	Mapping  string `mapstructure:"mapping"`
	Taxonomy string `mapstructure:"taxonomy"` // empty selects the built-in taxonomy
}

// AudioConfig controls waveform normalization.
type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// Load reads configuration. file may be empty. Relative resource paths are
// resolved against the project root.
func Load(file string) (*Config, error) {
	root, err := ProjectRoot()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("model.path", filepath.Join("models", "passt.onnx"))
	v.SetDefault("model.metadata", filepath.Join("models", "passt_metadata.json"))
	v.SetDefault("model.library", "")
	v.SetDefault("model.device", string(model.DeviceAuto))
	v.SetDefault("labels.mapping", "class_labels_indices.csv")
	v.SetDefault("labels.taxonomy", "")
	v.SetDefault("audio.sample_rate", 32000)
	v.SetDefault("server.port", "8080")

	v.SetEnvPrefix("AUDIOTAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "AUDIOTAG_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind PORT: %w", err)
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Model.Path = resolve(root, cfg.Model.Path)
	cfg.Model.Metadata = resolve(root, cfg.Model.Metadata)
	cfg.Labels.Mapping = resolve(root, cfg.Labels.Mapping)
	if cfg.Labels.Taxonomy != "" {
		cfg.Labels.Taxonomy = resolve(root, cfg.Labels.Taxonomy)
	}
	if cfg.Audio.SampleRate <= 0 {
		return nil, fmt.Errorf("audio.sample_rate must be positive, got %d", cfg.Audio.SampleRate)
	}
	return &cfg, nil
}

// ProjectRoot returns the working directory, or the repository root when
// run from inside cmd/<name>.
func ProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	if filepath.Base(filepath.Dir(wd)) == "cmd" {
		return filepath.Join(wd, "..", ".."), nil
	}
	return wd, nil
}

func resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
