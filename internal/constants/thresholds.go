package constants

// Defaults for the three-phase intra-revision clone detector.
// The phase structure and recommended values follow the NIL algorithm
// (Nakagawa et al., 2021): inverted n-gram location, overlap filtration,
// LCS verification.
const (
	// DefaultNGramSize is the length N of the token n-grams used by the
	// inverted index and the filtration phase. Blocks shorter than N tokens
	// have no n-grams and are never detection sources.
	DefaultNGramSize = 5

	// DefaultFiltrationThreshold is the minimum n-gram overlap ratio
	// (shared / min) a candidate must reach to survive the cheap
	// high-recall filtration phase.
	DefaultFiltrationThreshold = 0.1

	// DefaultVerificationThreshold is the minimum LCS ratio
	// (LCS length / min length) for a candidate to be confirmed as a clone.
	DefaultVerificationThreshold = 0.7
)

// Defaults for cross-revision method matching.
const (
	// DefaultMatchThreshold is the minimum similarity score (0-100) for a
	// fuzzy match in the second matching phase.
	DefaultMatchThreshold = 70

	// DefaultMaxLengthDiffRatio is the maximum relative token-count
	// difference for a pair to be compared at all. Pairs outside the ratio
	// are skipped before any similarity computation.
	DefaultMaxLengthDiffRatio = 0.3

	// DefaultTokenJaccardFloor is the minimum token-set Jaccard similarity
	// a pair must reach before the full similarity score is computed.
	DefaultTokenJaccardFloor = 0.3

	// DefaultSimilarityCacheCapacity bounds the LRU cache of computed pair
	// similarities. Keys are symmetric, so A-vs-B and B-vs-A share an entry.
	DefaultSimilarityCacheCapacity = 10000

	// DefaultLSHTriggerPairs is the unmatched source x target pair count
	// above which the matcher switches from exhaustive comparison to the
	// LSH-accelerated candidate shortlist.
	DefaultLSHTriggerPairs = 100000

	// DefaultTopKCandidates bounds the per-source candidate shortlist
	// returned by the LSH index on the accelerated path.
	DefaultTopKCandidates = 20

	// DefaultParallelTriggerPairs is the candidate pair count above which
	// pair scoring is partitioned across workers. Selection stays
	// single-threaded in all cases.
	DefaultParallelTriggerPairs = 50000
)

// DefaultProgressiveThresholds is the decreasing similarity ladder used by
// the progressive matching mode: high-confidence matches are resolved at the
// stricter levels before the cutoff is relaxed, which reduces ambiguous ties.
var DefaultProgressiveThresholds = []int{90, 80, DefaultMatchThreshold}

// Defaults for the MinHash/LSH approximate nearest-neighbor index.
const (
	// DefaultLSHThreshold is the target Jaccard similarity for candidate
	// retrieval; band/row parameters are derived from it.
	DefaultLSHThreshold = 0.5

	// DefaultNumPermutations is the number of MinHash permutations per
	// sketch.
	DefaultNumPermutations = 128
)

// DefaultGroupThreshold is the minimum effective similarity (0-100) for a
// clone pair to connect two blocks into one clone group.
const DefaultGroupThreshold = 70
