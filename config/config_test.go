package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInit(t *testing.T) {
	path := writeConfig(t, `
debug: true
labelstudio:
  url: http://labelstudio:8080
  apikey: secret
  projectid: 3
dataset:
  exportdir: /tmp/export
  outputdir: /tmp/yolo
  workers: 4
`)

	require.NoError(t, Init(path))
	assert.True(t, Config.Debug)
	assert.Equal(t, "http://labelstudio:8080", Config.LabelStudio.URL)
	assert.Equal(t, 3, Config.LabelStudio.ProjectID)
	assert.Equal(t, 4, Config.Dataset.Workers)
	// defaults survive partial files
	assert.Equal(t, "default-zero", Config.Dataset.ClassPolicy)
	assert.Equal(t, "catalog.db", Config.Catalog.Path)
}

func TestInit_EnvOverride(t *testing.T) {
	path := writeConfig(t, "debug: false\n")
	t.Setenv("CFG_LABELSTUDIO_APIKEY", "from-env")

	require.NoError(t, Init(path))
	assert.Equal(t, "from-env", Config.LabelStudio.APIKey)
}

func TestValidateConfig(t *testing.T) {
	cfg := AppConfig{}
	cfg.Dataset.ClassPolicy = "default-zero"
	cfg.Dataset.Workers = 1
	assert.NoError(t, ValidateConfig(&cfg))

	cfg.Dataset.ClassPolicy = "bogus"
	assert.Error(t, ValidateConfig(&cfg))

	cfg.Dataset.ClassPolicy = "skip-unlabeled"
	cfg.Dataset.Workers = 0
	assert.Error(t, ValidateConfig(&cfg))
}
