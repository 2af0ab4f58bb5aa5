package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/audiotag/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("AUDIOTAG_SERVER_PORT", "")

	cfg, err := Load("")
	require.NoError(t, err)

	root, err := ProjectRoot()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "models", "passt.onnx"), cfg.Model.Path)
	assert.Equal(t, filepath.Join(root, "class_labels_indices.csv"), cfg.Labels.Mapping)
	assert.Empty(t, cfg.Labels.Taxonomy)
	assert.Equal(t, model.DeviceAuto, cfg.Model.Device)
	assert.Equal(t, 32000, cfg.Audio.SampleRate)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("AUDIOTAG_MODEL_DEVICE", "cpu")
	t.Setenv("AUDIOTAG_LABELS_MAPPING", "/data/labels.csv")
	t.Setenv("PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, model.DeviceCPU, cfg.Model.Device)
	assert.Equal(t, "/data/labels.csv", cfg.Labels.Mapping)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audiotag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model:
  path: /models/passt.onnx
  library: /opt/onnxruntime/lib/libonnxruntime.so
labels:
  taxonomy: /etc/audiotag/taxonomy.yaml
audio:
  sample_rate: 16000
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/models/passt.onnx", cfg.Model.Path)
	assert.Equal(t, "/opt/onnxruntime/lib/libonnxruntime.so", cfg.Model.Library)
	assert.Equal(t, "/etc/audiotag/taxonomy.yaml", cfg.Labels.Taxonomy)
	assert.Equal(t, 16000, cfg.Audio.SampleRate)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadSampleRate(t *testing.T) {
	t.Setenv("AUDIOTAG_AUDIO_SAMPLE_RATE", "0")
	_, err := Load("")
	assert.Error(t, err)
}
