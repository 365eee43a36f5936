package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/methodlens/methodlens/internal/constants"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, constants.DefaultNGramSize, cfg.Detection.NGramSize)
	assert.Equal(t, constants.DefaultFiltrationThreshold, cfg.Detection.FiltrationThreshold)
	assert.Equal(t, constants.DefaultVerificationThreshold, cfg.Detection.VerificationThreshold)
	assert.Equal(t, constants.DefaultMatchThreshold, cfg.Matching.Threshold)
	assert.Equal(t, constants.DefaultGroupThreshold, cfg.Grouping.Threshold)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero ngram size", func(c *Config) { c.Detection.NGramSize = 0 }},
		{"filtration above 1", func(c *Config) { c.Detection.FiltrationThreshold = 1.5 }},
		{"negative verification", func(c *Config) { c.Detection.VerificationThreshold = -0.1 }},
		{"match threshold above 100", func(c *Config) { c.Matching.Threshold = 120 }},
		{"ladder below threshold", func(c *Config) { c.Matching.ProgressiveThresholds = []int{60} }},
		{"lsh threshold above 1", func(c *Config) { c.LSH.Threshold = 2.0 }},
		{"zero permutations", func(c *Config) { c.LSH.NumPermutations = 0 }},
		{"group threshold above 100", func(c *Config) { c.Grouping.Threshold = 101 }},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }},
		{"unknown sort", func(c *Config) { c.Output.SortBy = "chaos" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig_MissingPathReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	defer func() { _ = os.Chdir(cwd) }()

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "methodlens.yaml")
	content := `
detection:
  ngram_size: 7
matching:
  threshold: 80
output:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Detection.NGramSize)
	assert.Equal(t, 80, cfg.Matching.Threshold)
	assert.Equal(t, "json", cfg.Output.Format)
	// Untouched sections keep defaults.
	assert.Equal(t, constants.DefaultGroupThreshold, cfg.Grouping.Threshold)
}

func TestLoadConfig_InvalidValuesRejected(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "methodlens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("matching:\n  threshold: 150\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestToMatchConfig_CarriesLSHSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Matching.Threshold = 75
	cfg.LSH.TopKCandidates = 5

	mc := cfg.ToMatchConfig()
	assert.Equal(t, 75, mc.Threshold)
	assert.Equal(t, 5, mc.TopKCandidates)
	assert.Equal(t, cfg.LSH.Threshold, mc.LSHThreshold)
	assert.NoError(t, mc.Validate())
}

func TestToNILConfig(t *testing.T) {
	cfg := DefaultConfig()
	nc := cfg.ToNILConfig()

	assert.Equal(t, cfg.Detection.NGramSize, nc.NGramSize)
	assert.Equal(t, cfg.Detection.FiltrationThreshold, nc.FiltrationThreshold)
	assert.Equal(t, cfg.Detection.VerificationThreshold, nc.VerificationThreshold)
	assert.NoError(t, nc.Validate())
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "methodlens.yaml")

	original := DefaultConfig()
	original.Matching.Threshold = 85
	require.NoError(t, SaveConfig(original, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 85, loaded.Matching.Threshold)
}
