package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/methodlens/methodlens/internal/analyzer"
	"github.com/methodlens/methodlens/internal/constants"
)

// Config represents the main configuration structure
type Config struct {
	// Detection holds intra-revision clone detection configuration
	Detection DetectionConfig `mapstructure:"detection" yaml:"detection"`

	// Matching holds cross-revision matching configuration
	Matching MatchingConfig `mapstructure:"matching" yaml:"matching"`

	// LSH holds candidate index configuration
	LSH LSHConfig `mapstructure:"lsh" yaml:"lsh"`

	// Grouping holds clone group formation configuration
	Grouping GroupingConfig `mapstructure:"grouping" yaml:"grouping"`

	// Input holds revision discovery configuration
	Input InputConfig `mapstructure:"input" yaml:"input"`

	// Output holds output formatting configuration
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// DetectionConfig holds configuration for the three-phase clone detector
type DetectionConfig struct {
	// NGramSize is the token n-gram window used by location and filtration
	NGramSize int `mapstructure:"ngram_size" yaml:"ngram_size"`

	// FiltrationThreshold is the minimum shared n-gram overlap ratio
	FiltrationThreshold float64 `mapstructure:"filtration_threshold" yaml:"filtration_threshold"`

	// VerificationThreshold is the minimum LCS ratio for a confirmed pair
	VerificationThreshold float64 `mapstructure:"verification_threshold" yaml:"verification_threshold"`
}

// MatchingConfig holds configuration for cross-revision block matching
type MatchingConfig struct {
	// Threshold is the minimum similarity score (0-100) for a fuzzy match
	Threshold int `mapstructure:"threshold" yaml:"threshold"`

	// MaxLengthDiffRatio skips pairs whose relative length difference exceeds it
	MaxLengthDiffRatio float64 `mapstructure:"max_length_diff_ratio" yaml:"max_length_diff_ratio"`

	// TokenJaccardFloor skips pairs with token-set Jaccard below it
	TokenJaccardFloor float64 `mapstructure:"token_jaccard_floor" yaml:"token_jaccard_floor"`

	// CacheCapacity bounds the similarity memoization cache
	CacheCapacity int `mapstructure:"cache_capacity" yaml:"cache_capacity"`

	// ProgressiveThresholds, when non-empty, runs the fuzzy phase per
	// decreasing cutoff
	ProgressiveThresholds []int `mapstructure:"progressive_thresholds" yaml:"progressive_thresholds"`

	// ParallelTriggerPairs enables parallel pair scoring above this count
	ParallelTriggerPairs int `mapstructure:"parallel_trigger_pairs" yaml:"parallel_trigger_pairs"`

	// Workers caps the scoring goroutines; 0 uses all CPUs
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// LSHConfig holds configuration for the MinHash candidate index
type LSHConfig struct {
	// Threshold is the target Jaccard similarity of the banding scheme
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`

	// NumPermutations is the MinHash signature length
	NumPermutations int `mapstructure:"num_permutations" yaml:"num_permutations"`

	// TriggerPairs switches matching to the LSH path above this pair count
	TriggerPairs int `mapstructure:"trigger_pairs" yaml:"trigger_pairs"`

	// TopKCandidates bounds the per-source candidate shortlist
	TopKCandidates int `mapstructure:"top_k_candidates" yaml:"top_k_candidates"`
}

// GroupingConfig holds configuration for clone group formation
type GroupingConfig struct {
	// Threshold is the minimum effective similarity for a grouping edge
	Threshold int `mapstructure:"threshold" yaml:"threshold"`
}

// InputConfig holds configuration for revision snapshot discovery
type InputConfig struct {
	// Paths are the root directories to scan for revision snapshots
	Paths []string `mapstructure:"paths" yaml:"paths"`

	// IncludePatterns are doublestar globs selecting snapshot files
	IncludePatterns []string `mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns are doublestar globs removing matched files
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, csv
	Format string `mapstructure:"format" yaml:"format"`

	// ShowDetails controls whether to show per-pair breakdowns
	ShowDetails bool `mapstructure:"show_details" yaml:"show_details"`

	// SortBy specifies how to sort groups: size, similarity, id
	SortBy string `mapstructure:"sort_by" yaml:"sort_by"`

	// Directory is where report files are written; empty means stdout
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// DefaultConfig returns the documented default configuration
func DefaultConfig() *Config {
	return &Config{
		Detection: DetectionConfig{
			NGramSize:             constants.DefaultNGramSize,
			FiltrationThreshold:   constants.DefaultFiltrationThreshold,
			VerificationThreshold: constants.DefaultVerificationThreshold,
		},
		Matching: MatchingConfig{
			Threshold:            constants.DefaultMatchThreshold,
			MaxLengthDiffRatio:   constants.DefaultMaxLengthDiffRatio,
			TokenJaccardFloor:    constants.DefaultTokenJaccardFloor,
			CacheCapacity:        constants.DefaultSimilarityCacheCapacity,
			ParallelTriggerPairs: constants.DefaultParallelTriggerPairs,
		},
		LSH: LSHConfig{
			Threshold:       constants.DefaultLSHThreshold,
			NumPermutations: constants.DefaultNumPermutations,
			TriggerPairs:    constants.DefaultLSHTriggerPairs,
			TopKCandidates:  constants.DefaultTopKCandidates,
		},
		Grouping: GroupingConfig{
			Threshold: constants.DefaultGroupThreshold,
		},
		Input: InputConfig{
			Paths:           []string{"."},
			IncludePatterns: []string{"**/*.csv"},
		},
		Output: OutputConfig{
			Format: "text",
			SortBy: "size",
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	// If no config path specified, try to find default config files
	if configPath == "" {
		configPath = findDefaultConfig()
	}

	// If still no config found, return default
	if configPath == "" {
		return config, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// findDefaultConfig searches for a config file in standard locations
func findDefaultConfig() string {
	candidates := []string{
		"methodlens.yaml",
		"methodlens.yml",
		".methodlens.yaml",
		".methodlens.yml",
	}

	// Check current directory first
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	// Check home directory
	if home, err := os.UserHomeDir(); err == nil {
		for _, candidate := range candidates {
			path := filepath.Join(home, candidate)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// Validate checks all sections for constraint violations
func (c *Config) Validate() error {
	if c.Detection.NGramSize <= 0 {
		return fmt.Errorf("detection.ngram_size must be positive, got %d", c.Detection.NGramSize)
	}
	if c.Detection.FiltrationThreshold < 0 || c.Detection.FiltrationThreshold > 1 {
		return fmt.Errorf("detection.filtration_threshold must be in [0,1], got %g", c.Detection.FiltrationThreshold)
	}
	if c.Detection.VerificationThreshold < 0 || c.Detection.VerificationThreshold > 1 {
		return fmt.Errorf("detection.verification_threshold must be in [0,1], got %g", c.Detection.VerificationThreshold)
	}
	if c.Matching.Threshold < 0 || c.Matching.Threshold > 100 {
		return fmt.Errorf("matching.threshold must be in [0,100], got %d", c.Matching.Threshold)
	}
	for _, cutoff := range c.Matching.ProgressiveThresholds {
		if cutoff < c.Matching.Threshold || cutoff > 100 {
			return fmt.Errorf("matching.progressive_thresholds entry %d outside [threshold, 100]", cutoff)
		}
	}
	if c.LSH.Threshold < 0 || c.LSH.Threshold > 1 {
		return fmt.Errorf("lsh.threshold must be in [0,1], got %g", c.LSH.Threshold)
	}
	if c.LSH.NumPermutations <= 0 {
		return fmt.Errorf("lsh.num_permutations must be positive, got %d", c.LSH.NumPermutations)
	}
	if c.Grouping.Threshold < 0 || c.Grouping.Threshold > 100 {
		return fmt.Errorf("grouping.threshold must be in [0,100], got %d", c.Grouping.Threshold)
	}
	if !isValidFormat(c.Output.Format) {
		return fmt.Errorf("output.format must be one of text, json, yaml, csv; got %q", c.Output.Format)
	}
	if !isValidSortBy(c.Output.SortBy) {
		return fmt.Errorf("output.sort_by must be one of size, similarity, id; got %q", c.Output.SortBy)
	}
	return nil
}

func isValidFormat(format string) bool {
	switch format {
	case "text", "json", "yaml", "csv":
		return true
	}
	return false
}

func isValidSortBy(sortBy string) bool {
	switch sortBy {
	case "size", "similarity", "id":
		return true
	}
	return false
}

// ToNILConfig converts the detection section to the analyzer's configuration
func (c *Config) ToNILConfig() analyzer.NILConfig {
	return analyzer.NILConfig{
		NGramSize:             c.Detection.NGramSize,
		FiltrationThreshold:   c.Detection.FiltrationThreshold,
		VerificationThreshold: c.Detection.VerificationThreshold,
	}
}

// ToMatchConfig converts the matching and LSH sections to the analyzer's
// configuration
func (c *Config) ToMatchConfig() analyzer.MatchConfig {
	return analyzer.MatchConfig{
		Threshold:             c.Matching.Threshold,
		NGramSize:             c.Detection.NGramSize,
		MaxLengthDiffRatio:    c.Matching.MaxLengthDiffRatio,
		TokenJaccardFloor:     c.Matching.TokenJaccardFloor,
		CacheCapacity:         c.Matching.CacheCapacity,
		LSHTriggerPairs:       c.LSH.TriggerPairs,
		TopKCandidates:        c.LSH.TopKCandidates,
		LSHThreshold:          c.LSH.Threshold,
		NumPermutations:       c.LSH.NumPermutations,
		ProgressiveThresholds: append([]int(nil), c.Matching.ProgressiveThresholds...),
		ParallelTriggerPairs:  c.Matching.ParallelTriggerPairs,
		Workers:               c.Matching.Workers,
	}
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("detection", config.Detection)
	v.Set("matching", config.Matching)
	v.Set("lsh", config.LSH)
	v.Set("grouping", config.Grouping)
	v.Set("input", config.Input)
	v.Set("output", config.Output)

	return v.WriteConfig()
}
