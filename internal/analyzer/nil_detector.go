package analyzer

import (
	"fmt"
	"sort"

	"github.com/methodlens/methodlens/domain"
	"github.com/methodlens/methodlens/internal/constants"
)

// NILConfig holds the tunable parameters of the three-phase detector.
type NILConfig struct {
	// NGramSize is the length N of the indexed token n-grams.
	NGramSize int
	// FiltrationThreshold is the minimum n-gram overlap ratio for a
	// candidate to survive filtration.
	FiltrationThreshold float64
	// VerificationThreshold is the minimum LCS ratio for a candidate to be
	// confirmed as a clone.
	VerificationThreshold float64
}

// DefaultNILConfig returns the recommended parameters (N=5, theta=0.1, delta=0.7).
func DefaultNILConfig() NILConfig {
	return NILConfig{
		NGramSize:             constants.DefaultNGramSize,
		FiltrationThreshold:   constants.DefaultFiltrationThreshold,
		VerificationThreshold: constants.DefaultVerificationThreshold,
	}
}

// Validate checks the configuration, returning a descriptive error for the
// first violated constraint.
func (c NILConfig) Validate() error {
	if c.NGramSize <= 0 {
		return domain.NewConfigError(fmt.Sprintf("n-gram size must be positive, got %d", c.NGramSize), nil)
	}
	if c.FiltrationThreshold < 0 || c.FiltrationThreshold > 1 {
		return domain.NewConfigError(fmt.Sprintf("filtration threshold must be in [0,1], got %g", c.FiltrationThreshold), nil)
	}
	if c.VerificationThreshold < 0 || c.VerificationThreshold > 1 {
		return domain.NewConfigError(fmt.Sprintf("verification threshold must be in [0,1], got %g", c.VerificationThreshold), nil)
	}
	return nil
}

// NILDetector finds intra-revision clone pairs with the three-phase NIL
// approach: Location over an inverted n-gram index, Filtration by n-gram
// overlap ratio, and Verification by LCS ratio. Only the verification phase
// pays the O(n log n) per-pair cost, and only for the drastically reduced
// candidate set.
type NILDetector struct {
	config NILConfig
}

// NewNILDetector creates a detector, validating the configuration up front.
func NewNILDetector(config NILConfig) (*NILDetector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &NILDetector{config: config}, nil
}

// indexedBlock carries the per-block preprocessing result.
type indexedBlock struct {
	tokens []int
	grams  map[string]struct{}
}

// Detect runs all three phases over one revision's blocks and returns the
// deduplicated clone pairs, ordered by block position (i < j). Blocks with
// malformed token sequences or fewer than N tokens have no n-grams and are
// skipped: they can never be a detection source.
func (d *NILDetector) Detect(blocks []*domain.CodeBlock) []*domain.ClonePair {
	n := d.config.NGramSize

	// Preprocess: n-gram sets and the inverted index gram -> block indices.
	indexed := make([]indexedBlock, len(blocks))
	inverted := make(map[string][]int)
	for i, block := range blocks {
		tokens, err := block.Tokens()
		if err != nil || len(tokens) < n {
			continue
		}
		grams := ngramSet(tokens, n)
		indexed[i] = indexedBlock{tokens: tokens, grams: grams}
		for gram := range grams {
			inverted[gram] = append(inverted[gram], i)
		}
	}

	var pairs []*domain.ClonePair
	for i := range blocks {
		target := indexed[i]
		if len(target.grams) == 0 {
			continue
		}

		// Phase 1 - Location: union the index buckets of the target's
		// n-grams; only candidates after the target avoid double-counting.
		candidates := make(map[int]struct{})
		for gram := range target.grams {
			for _, j := range inverted[gram] {
				if j > i {
					candidates[j] = struct{}{}
				}
			}
		}

		ordered := make([]int, 0, len(candidates))
		for j := range candidates {
			ordered = append(ordered, j)
		}
		sort.Ints(ordered)

		for _, j := range ordered {
			candidate := indexed[j]

			// Phase 2 - Filtration: cheap overlap ratio against theta.
			shared := sharedCount(target.grams, candidate.grams)
			denom := len(target.grams)
			if len(candidate.grams) < denom {
				denom = len(candidate.grams)
			}
			overlap := float64(shared) / float64(denom)
			if overlap < d.config.FiltrationThreshold {
				continue
			}

			// Phase 3 - Verification: true similarity via LCS ratio.
			lcs := HuntSzymanskiLCS(target.tokens, candidate.tokens)
			minLen := len(target.tokens)
			if len(candidate.tokens) < minLen {
				minLen = len(candidate.tokens)
			}
			ratio := float64(lcs) / float64(minLen)
			if ratio < d.config.VerificationThreshold {
				continue
			}

			pairs = append(pairs, &domain.ClonePair{
				BlockID1:   blocks[i].ID,
				BlockID2:   blocks[j].ID,
				NGramScore: scaleRatio(overlap),
				LCSScore:   scaleRatio(ratio),
			})
		}
	}
	return pairs
}
