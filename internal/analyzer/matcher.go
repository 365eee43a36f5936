package analyzer

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/methodlens/methodlens/domain"
	"github.com/methodlens/methodlens/internal/constants"
)

// MatchConfig holds the tunable parameters of cross-revision matching.
type MatchConfig struct {
	// Threshold is the minimum similarity score (0-100) for a fuzzy match.
	Threshold int
	// NGramSize feeds the combined similarity's cheap first stage.
	NGramSize int
	// MaxLengthDiffRatio skips pairs whose relative token-count difference
	// exceeds it, before any similarity computation.
	MaxLengthDiffRatio float64
	// TokenJaccardFloor skips pairs whose token-set Jaccard similarity is
	// below it.
	TokenJaccardFloor float64
	// CacheCapacity bounds the LRU similarity cache.
	CacheCapacity int
	// LSHTriggerPairs switches to the LSH-accelerated path when the
	// unmatched source x target product exceeds it.
	LSHTriggerPairs int
	// TopKCandidates bounds the per-source LSH shortlist.
	TopKCandidates int
	// LSHThreshold and NumPermutations configure the candidate index.
	LSHThreshold    float64
	NumPermutations int
	// ProgressiveThresholds, when non-empty, runs the fuzzy phase once per
	// decreasing cutoff, resolving high-confidence matches before relaxing.
	ProgressiveThresholds []int
	// ParallelTriggerPairs partitions pair scoring across workers above
	// this candidate pair count; selection stays single-threaded.
	ParallelTriggerPairs int
	// Workers caps the scoring goroutines (0 = GOMAXPROCS).
	Workers int
}

// DefaultMatchConfig returns the documented defaults.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Threshold:            constants.DefaultMatchThreshold,
		NGramSize:            constants.DefaultNGramSize,
		MaxLengthDiffRatio:   constants.DefaultMaxLengthDiffRatio,
		TokenJaccardFloor:    constants.DefaultTokenJaccardFloor,
		CacheCapacity:        constants.DefaultSimilarityCacheCapacity,
		LSHTriggerPairs:      constants.DefaultLSHTriggerPairs,
		TopKCandidates:       constants.DefaultTopKCandidates,
		LSHThreshold:         constants.DefaultLSHThreshold,
		NumPermutations:      constants.DefaultNumPermutations,
		ParallelTriggerPairs: constants.DefaultParallelTriggerPairs,
	}
}

// Validate checks the configuration, returning a descriptive error for the
// first violated constraint.
func (c MatchConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 100 {
		return domain.NewConfigError(fmt.Sprintf("match threshold must be in [0,100], got %d", c.Threshold), nil)
	}
	if c.NGramSize <= 0 {
		return domain.NewConfigError(fmt.Sprintf("n-gram size must be positive, got %d", c.NGramSize), nil)
	}
	if c.MaxLengthDiffRatio < 0 || c.MaxLengthDiffRatio > 1 {
		return domain.NewConfigError(fmt.Sprintf("max length diff ratio must be in [0,1], got %g", c.MaxLengthDiffRatio), nil)
	}
	if c.TokenJaccardFloor < 0 || c.TokenJaccardFloor > 1 {
		return domain.NewConfigError(fmt.Sprintf("token jaccard floor must be in [0,1], got %g", c.TokenJaccardFloor), nil)
	}
	if c.TopKCandidates <= 0 {
		return domain.NewConfigError(fmt.Sprintf("top-k candidate count must be positive, got %d", c.TopKCandidates), nil)
	}
	for _, cutoff := range c.ProgressiveThresholds {
		if cutoff < c.Threshold || cutoff > 100 {
			return domain.NewConfigError(fmt.Sprintf("progressive cutoff %d outside [threshold, 100]", cutoff), nil)
		}
	}
	return nil
}

// Matcher links one revision's blocks to the next revision's. Matching is
// state-free per invocation apart from the similarity cache, which only
// memoizes pure pair scores.
//
// Phase 1 matches blocks by token hash: content-identical regardless of file
// or name changes, similarity 100. Phase 2 greedily assigns each remaining
// source the unclaimed target with the strictly highest similarity at or
// above the cutoff. Sources are processed in stable input order and ties on
// the best score go to the first-encountered target, so results are
// deterministic for a given input order.
type Matcher struct {
	config MatchConfig
	cache  *similarityCache
}

// NewMatcher creates a matcher, validating the configuration up front.
func NewMatcher(config MatchConfig) (*Matcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{
		config: config,
		cache:  newSimilarityCache(config.CacheCapacity),
	}, nil
}

// Match produces the forward/backward mapping from source blocks to target
// blocks. Malformed token sequences never abort the call: the affected pairs
// are skipped as infinitely dissimilar.
func (m *Matcher) Match(source, target []*domain.CodeBlock) *domain.MatchResult {
	result := domain.NewMatchResult()

	unmatchedSources := m.matchExact(source, target, result)
	unmatchedTargets := make([]*domain.CodeBlock, 0, len(target))
	for _, t := range target {
		if !result.IsTargetClaimed(t.ID) {
			unmatchedTargets = append(unmatchedTargets, t)
		}
	}

	for _, cutoff := range m.cutoffLadder() {
		if len(unmatchedSources) == 0 || len(unmatchedTargets) == 0 {
			break
		}
		m.matchFuzzy(unmatchedSources, unmatchedTargets, cutoff, result)
		unmatchedSources = filterUnmatchedSources(unmatchedSources, result)
		unmatchedTargets = filterUnclaimedTargets(unmatchedTargets, result)
	}
	return result
}

// matchExact runs the token-hash phase and returns the sources left
// unmatched, preserving input order. When several targets share one hash,
// each source consumes the first unclaimed one in target order.
func (m *Matcher) matchExact(source, target []*domain.CodeBlock, result *domain.MatchResult) []*domain.CodeBlock {
	byHash := make(map[string][]*domain.CodeBlock, len(target))
	for _, t := range target {
		if t.TokenHash == "" {
			continue
		}
		byHash[t.TokenHash] = append(byHash[t.TokenHash], t)
	}

	unmatched := make([]*domain.CodeBlock, 0, len(source))
	for _, s := range source {
		queue := byHash[s.TokenHash]
		if s.TokenHash == "" || len(queue) == 0 {
			unmatched = append(unmatched, s)
			continue
		}
		t := queue[0]
		byHash[s.TokenHash] = queue[1:]
		if err := result.Add(s.ID, t.ID, domain.MatchTypeTokenHash, 100); err != nil {
			unmatched = append(unmatched, s)
			continue
		}
		result.AnnotateSignature(s.ID, domain.CompareSignatures(s, t))
	}
	return unmatched
}

// cutoffLadder returns the descending fuzzy cutoffs: the progressive ladder
// when configured, otherwise the single base threshold.
func (m *Matcher) cutoffLadder() []int {
	if len(m.config.ProgressiveThresholds) == 0 {
		return []int{m.config.Threshold}
	}
	ladder := append([]int(nil), m.config.ProgressiveThresholds...)
	sort.Sort(sort.Reverse(sort.IntSlice(ladder)))
	return ladder
}

// matchFuzzy runs one similarity-based pass at the given cutoff over the
// unmatched pools, claiming targets greedily.
func (m *Matcher) matchFuzzy(sources, targets []*domain.CodeBlock, cutoff int, result *domain.MatchResult) {
	if len(sources)*len(targets) > m.config.LSHTriggerPairs {
		m.matchFuzzyLSH(sources, targets, cutoff, result)
		return
	}

	// Exhaustive path: every unmatched target is a candidate per source.
	candidates := make([][]*domain.CodeBlock, len(sources))
	for i := range sources {
		candidates[i] = targets
	}
	m.selectBestMatches(sources, candidates, cutoff, result)
}

// matchFuzzyLSH bounds candidate generation with the MinHash index: targets
// are indexed once, each source retrieves a top-K shortlist.
func (m *Matcher) matchFuzzyLSH(sources, targets []*domain.CodeBlock, cutoff int, result *domain.MatchResult) {
	index := NewLSHIndex(m.config.LSHThreshold, m.config.NumPermutations)
	byID := make(map[string]*domain.CodeBlock, len(targets))
	for _, t := range targets {
		byID[t.ID] = t
		tokens, err := t.Tokens()
		if err != nil || len(tokens) == 0 {
			continue
		}
		// Ids within one revision are unique, so Add cannot see duplicates.
		_ = index.Add(t.ID, tokens)
	}

	candidates := make([][]*domain.CodeBlock, len(sources))
	for i, s := range sources {
		tokens, err := s.Tokens()
		if err != nil || len(tokens) == 0 {
			continue
		}
		for _, id := range index.QueryTopK(tokens, m.config.TopKCandidates) {
			candidates[i] = append(candidates[i], byID[id])
		}
	}
	m.selectBestMatches(sources, candidates, cutoff, result)
}

// selectBestMatches scores every (source, candidate) pair, then assigns
// matches in a single-threaded greedy pass over sources in input order.
// Scoring may fan out across workers; the selection step is where the
// injective invariant is enforced, so it never runs concurrently.
func (m *Matcher) selectBestMatches(sources []*domain.CodeBlock, candidates [][]*domain.CodeBlock, cutoff int, result *domain.MatchResult) {
	scores := m.scorePairs(sources, candidates)

	for i, s := range sources {
		bestScore := -1
		var bestTarget *domain.CodeBlock
		for j, t := range candidates[i] {
			if result.IsTargetClaimed(t.ID) {
				continue
			}
			score, ok := scores[i][j]
			if !ok || score < cutoff {
				continue
			}
			// Strictly-highest wins; on a tie the first-encountered
			// candidate keeps the slot.
			if score > bestScore {
				bestScore = score
				bestTarget = t
			}
		}
		if bestTarget == nil {
			continue
		}
		if err := result.Add(s.ID, bestTarget.ID, domain.MatchTypeSimilarity, bestScore); err != nil {
			continue
		}
		result.AnnotateSignature(s.ID, domain.CompareSignatures(s, bestTarget))
	}
}

// pairScores maps candidate index to computed score; absent entries mean
// the pair was skipped by a pre-filter.
type pairScores map[int]int

// scorePairs computes the similarity of every candidate pair. Above the
// parallel trigger the sources are partitioned across workers, each writing
// only its own rows; the similarity cache tolerates concurrent idempotent
// inserts.
func (m *Matcher) scorePairs(sources []*domain.CodeBlock, candidates [][]*domain.CodeBlock) []pairScores {
	scores := make([]pairScores, len(sources))

	totalPairs := 0
	for i := range sources {
		totalPairs += len(candidates[i])
	}

	scoreRow := func(i int) {
		row := make(pairScores, len(candidates[i]))
		for j, t := range candidates[i] {
			if score, ok := m.scorePair(sources[i], t); ok {
				row[j] = score
			}
		}
		scores[i] = row
	}

	if totalPairs <= m.config.ParallelTriggerPairs || m.config.ParallelTriggerPairs <= 0 {
		for i := range sources {
			scoreRow(i)
		}
		return scores
	}

	workers := m.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i := range sources {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			scoreRow(idx)
		}(i)
	}
	wg.Wait()
	return scores
}

// scorePair applies the cheap pre-filters and computes (or recalls) the
// combined similarity. The second return value is false when the pair was
// skipped: a skip is not a zero score, the pair was never compared.
func (m *Matcher) scorePair(s, t *domain.CodeBlock) (int, bool) {
	srcTokens, err := s.Tokens()
	if err != nil {
		return 0, false
	}
	tgtTokens, err := t.Tokens()
	if err != nil {
		return 0, false
	}
	if len(srcTokens) == 0 || len(tgtTokens) == 0 {
		return 0, false
	}

	longer, shorter := len(srcTokens), len(tgtTokens)
	if shorter > longer {
		longer, shorter = shorter, longer
	}
	if float64(longer-shorter)/float64(longer) > m.config.MaxLengthDiffRatio {
		return 0, false
	}
	if TokenSetJaccard(srcTokens, tgtTokens) < m.config.TokenJaccardFloor {
		return 0, false
	}

	key := pairCacheKey(domain.FormatTokenSequence(srcTokens), domain.FormatTokenSequence(tgtTokens))
	if score, ok := m.cache.get(key); ok {
		return score, true
	}
	score, err := CombinedSimilarity(srcTokens, tgtTokens, m.config.NGramSize, m.config.Threshold)
	if err != nil {
		return 0, false
	}
	m.cache.put(key, score)
	return score, true
}

func filterUnmatchedSources(sources []*domain.CodeBlock, result *domain.MatchResult) []*domain.CodeBlock {
	remaining := sources[:0]
	for _, s := range sources {
		if !result.IsSourceMatched(s.ID) {
			remaining = append(remaining, s)
		}
	}
	return remaining
}

func filterUnclaimedTargets(targets []*domain.CodeBlock, result *domain.MatchResult) []*domain.CodeBlock {
	remaining := targets[:0]
	for _, t := range targets {
		if !result.IsTargetClaimed(t.ID) {
			remaining = append(remaining, t)
		}
	}
	return remaining
}
