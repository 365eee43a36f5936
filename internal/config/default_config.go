package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/methodlens/methodlens/internal/constants"
)

// defaultConfigTmpl contains the embedded default configuration template
//
//go:embed default_config.toml.tmpl
var defaultConfigTmpl string

// DefaultConfigValues holds all values used to render the default config
// template, sourced from internal/constants so the file and the code never
// drift apart.
type DefaultConfigValues struct {
	NGramSize             int
	FiltrationThreshold   float64
	VerificationThreshold float64

	MatchThreshold       int
	MaxLengthDiffRatio   float64
	TokenJaccardFloor    float64
	CacheCapacity        int
	ParallelTriggerPairs int

	LSHThreshold    float64
	NumPermutations int
	LSHTriggerPairs int
	TopKCandidates  int

	GroupThreshold int
}

// GenerateDefaultConfigTOML renders the commented default configuration file.
func GenerateDefaultConfigTOML() (string, error) {
	tmpl, err := template.New("default_config").Parse(defaultConfigTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse default config template: %w", err)
	}

	values := DefaultConfigValues{
		NGramSize:             constants.DefaultNGramSize,
		FiltrationThreshold:   constants.DefaultFiltrationThreshold,
		VerificationThreshold: constants.DefaultVerificationThreshold,
		MatchThreshold:        constants.DefaultMatchThreshold,
		MaxLengthDiffRatio:    constants.DefaultMaxLengthDiffRatio,
		TokenJaccardFloor:     constants.DefaultTokenJaccardFloor,
		CacheCapacity:         constants.DefaultSimilarityCacheCapacity,
		ParallelTriggerPairs:  constants.DefaultParallelTriggerPairs,
		LSHThreshold:          constants.DefaultLSHThreshold,
		NumPermutations:       constants.DefaultNumPermutations,
		LSHTriggerPairs:       constants.DefaultLSHTriggerPairs,
		TopKCandidates:        constants.DefaultTopKCandidates,
		GroupThreshold:        constants.DefaultGroupThreshold,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, values); err != nil {
		return "", fmt.Errorf("failed to render default config template: %w", err)
	}
	return buf.String(), nil
}
