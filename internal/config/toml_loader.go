package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// TomlConfig represents the structure of .methodlens.toml
type TomlConfig struct {
	Detection TomlDetectionConfig `toml:"detection"`
	Matching  TomlMatchingConfig  `toml:"matching"`
	LSH       TomlLSHConfig       `toml:"lsh"`
	Grouping  TomlGroupingConfig  `toml:"grouping"`
	Input     TomlInputConfig     `toml:"input"`
	Output    TomlOutputConfig    `toml:"output"`
}

type TomlDetectionConfig struct {
	NGramSize             int     `toml:"ngram_size"`
	FiltrationThreshold   float64 `toml:"filtration_threshold"`
	VerificationThreshold float64 `toml:"verification_threshold"`
}

type TomlMatchingConfig struct {
	Threshold             int     `toml:"threshold"`
	MaxLengthDiffRatio    float64 `toml:"max_length_diff_ratio"`
	TokenJaccardFloor     float64 `toml:"token_jaccard_floor"`
	CacheCapacity         int     `toml:"cache_capacity"`
	ProgressiveThresholds []int   `toml:"progressive_thresholds"`
	ParallelTriggerPairs  int     `toml:"parallel_trigger_pairs"`
	Workers               int     `toml:"workers"`
}

type TomlLSHConfig struct {
	Threshold       float64 `toml:"threshold"`
	NumPermutations int     `toml:"num_permutations"`
	TriggerPairs    int     `toml:"trigger_pairs"`
	TopKCandidates  int     `toml:"top_k_candidates"`
}

type TomlGroupingConfig struct {
	Threshold int `toml:"threshold"`
}

type TomlInputConfig struct {
	Paths           []string `toml:"paths"`
	IncludePatterns []string `toml:"include_patterns"`
	ExcludePatterns []string `toml:"exclude_patterns"`
}

type TomlOutputConfig struct {
	Format      string `toml:"format"`
	ShowDetails *bool  `toml:"show_details"` // pointer to detect unset
	SortBy      string `toml:"sort_by"`
	Directory   string `toml:"directory"`
}

// TomlConfigLoader handles TOML-only configuration loading
type TomlConfigLoader struct{}

// NewTomlConfigLoader creates a new TOML configuration loader
func NewTomlConfigLoader() *TomlConfigLoader {
	return &TomlConfigLoader{}
}

// LoadConfig loads configuration from .methodlens.toml, walking up from
// startDir, falling back to defaults when no file is found.
func (l *TomlConfigLoader) LoadConfig(startDir string) (*Config, error) {
	configPath, err := l.findConfigFile(startDir)
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var fileConfig TomlConfig
	if err := toml.Unmarshal(data, &fileConfig); err != nil {
		return nil, err
	}

	// Merge with defaults
	defaults := DefaultConfig()
	l.mergeConfig(defaults, &fileConfig)

	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return defaults, nil
}

// findConfigFile walks up the directory tree to find .methodlens.toml
func (l *TomlConfigLoader) findConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".methodlens.toml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}

// mergeConfig merges file values into defaults. Zero values mean unset and
// leave the default in place; booleans use pointers to detect unset.
func (l *TomlConfigLoader) mergeConfig(defaults *Config, fileConfig *TomlConfig) {
	// Detection
	if fileConfig.Detection.NGramSize > 0 {
		defaults.Detection.NGramSize = fileConfig.Detection.NGramSize
	}
	if fileConfig.Detection.FiltrationThreshold > 0 {
		defaults.Detection.FiltrationThreshold = fileConfig.Detection.FiltrationThreshold
	}
	if fileConfig.Detection.VerificationThreshold > 0 {
		defaults.Detection.VerificationThreshold = fileConfig.Detection.VerificationThreshold
	}

	// Matching
	if fileConfig.Matching.Threshold > 0 {
		defaults.Matching.Threshold = fileConfig.Matching.Threshold
	}
	if fileConfig.Matching.MaxLengthDiffRatio > 0 {
		defaults.Matching.MaxLengthDiffRatio = fileConfig.Matching.MaxLengthDiffRatio
	}
	if fileConfig.Matching.TokenJaccardFloor > 0 {
		defaults.Matching.TokenJaccardFloor = fileConfig.Matching.TokenJaccardFloor
	}
	if fileConfig.Matching.CacheCapacity > 0 {
		defaults.Matching.CacheCapacity = fileConfig.Matching.CacheCapacity
	}
	if len(fileConfig.Matching.ProgressiveThresholds) > 0 {
		defaults.Matching.ProgressiveThresholds = fileConfig.Matching.ProgressiveThresholds
	}
	if fileConfig.Matching.ParallelTriggerPairs > 0 {
		defaults.Matching.ParallelTriggerPairs = fileConfig.Matching.ParallelTriggerPairs
	}
	if fileConfig.Matching.Workers > 0 {
		defaults.Matching.Workers = fileConfig.Matching.Workers
	}

	// LSH
	if fileConfig.LSH.Threshold > 0 {
		defaults.LSH.Threshold = fileConfig.LSH.Threshold
	}
	if fileConfig.LSH.NumPermutations > 0 {
		defaults.LSH.NumPermutations = fileConfig.LSH.NumPermutations
	}
	if fileConfig.LSH.TriggerPairs > 0 {
		defaults.LSH.TriggerPairs = fileConfig.LSH.TriggerPairs
	}
	if fileConfig.LSH.TopKCandidates > 0 {
		defaults.LSH.TopKCandidates = fileConfig.LSH.TopKCandidates
	}

	// Grouping
	if fileConfig.Grouping.Threshold > 0 {
		defaults.Grouping.Threshold = fileConfig.Grouping.Threshold
	}

	// Input
	if len(fileConfig.Input.Paths) > 0 {
		defaults.Input.Paths = fileConfig.Input.Paths
	}
	if len(fileConfig.Input.IncludePatterns) > 0 {
		defaults.Input.IncludePatterns = fileConfig.Input.IncludePatterns
	}
	if len(fileConfig.Input.ExcludePatterns) > 0 {
		defaults.Input.ExcludePatterns = fileConfig.Input.ExcludePatterns
	}

	// Output
	if fileConfig.Output.Format != "" {
		defaults.Output.Format = fileConfig.Output.Format
	}
	if fileConfig.Output.SortBy != "" {
		defaults.Output.SortBy = fileConfig.Output.SortBy
	}
	if fileConfig.Output.Directory != "" {
		defaults.Output.Directory = fileConfig.Output.Directory
	}
	// Boolean field: only override if explicitly set
	if fileConfig.Output.ShowDetails != nil {
		defaults.Output.ShowDetails = *fileConfig.Output.ShowDetails
	}
}
