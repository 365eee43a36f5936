package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTomlConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".methodlens.toml"), []byte(content), 0o644))
}

func TestTomlConfigLoader_NoFileReturnsDefaults(t *testing.T) {
	loader := NewTomlConfigLoader()

	cfg, err := loader.LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestTomlConfigLoader_MergesOverDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	writeTomlConfig(t, tmpDir, `
[detection]
ngram_size = 4

[matching]
threshold = 80
progressive_thresholds = [95, 85, 80]

[output]
format = "csv"
show_details = true
`)

	loader := NewTomlConfigLoader()
	cfg, err := loader.LoadConfig(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Detection.NGramSize)
	assert.Equal(t, 80, cfg.Matching.Threshold)
	assert.Equal(t, []int{95, 85, 80}, cfg.Matching.ProgressiveThresholds)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.True(t, cfg.Output.ShowDetails)
	// Unset sections keep defaults.
	assert.Equal(t, DefaultConfig().LSH, cfg.LSH)
}

func TestTomlConfigLoader_WalksUpDirectoryTree(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeTomlConfig(t, tmpDir, "[matching]\nthreshold = 90\n")

	loader := NewTomlConfigLoader()
	cfg, err := loader.LoadConfig(nested)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Matching.Threshold)
}

func TestTomlConfigLoader_MalformedFileFails(t *testing.T) {
	tmpDir := t.TempDir()
	writeTomlConfig(t, tmpDir, "not valid toml [[[")

	loader := NewTomlConfigLoader()
	_, err := loader.LoadConfig(tmpDir)
	assert.Error(t, err)
}

func TestTomlConfigLoader_InvalidValuesRejected(t *testing.T) {
	tmpDir := t.TempDir()
	writeTomlConfig(t, tmpDir, "[grouping]\nthreshold = 150\n")

	loader := NewTomlConfigLoader()
	_, err := loader.LoadConfig(tmpDir)
	assert.Error(t, err)
}

func TestTomlConfigLoader_UnsetBooleanKeepsDefault(t *testing.T) {
	tmpDir := t.TempDir()
	writeTomlConfig(t, tmpDir, "[output]\nformat = \"json\"\n")

	loader := NewTomlConfigLoader()
	cfg, err := loader.LoadConfig(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Output.ShowDetails, cfg.Output.ShowDetails)
}
