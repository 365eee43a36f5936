package analyzer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/methodlens/methodlens/domain"
)

func matchBlock(id, hash string, tokens []int) *domain.CodeBlock {
	return domain.NewCodeBlock(id, "file.py", 1, 20, "fn_"+id, "", "", hash, domain.FormatTokenSequence(tokens))
}

func newTestMatcher(t *testing.T, mutate func(*MatchConfig)) *Matcher {
	t.Helper()
	cfg := DefaultMatchConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := NewMatcher(cfg)
	require.NoError(t, err)
	return m
}

func TestNewMatcher_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MatchConfig)
	}{
		{"threshold above 100", func(c *MatchConfig) { c.Threshold = 150 }},
		{"negative length ratio", func(c *MatchConfig) { c.MaxLengthDiffRatio = -0.5 }},
		{"zero top-k", func(c *MatchConfig) { c.TopKCandidates = 0 }},
		{"ladder below threshold", func(c *MatchConfig) { c.ProgressiveThresholds = []int{50} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMatchConfig()
			tt.mutate(&cfg)
			_, err := NewMatcher(cfg)
			assert.Error(t, err)
		})
	}
}

func TestMatcher_ExactHashMatch(t *testing.T) {
	m := newTestMatcher(t, nil)
	source := []*domain.CodeBlock{matchBlock("s1", "abc", []int{1, 2, 3})}
	target := []*domain.CodeBlock{matchBlock("t1", "abc", []int{1, 2, 3})}

	result := m.Match(source, target)

	require.Equal(t, 1, result.Len())
	assert.Equal(t, "t1", result.Forward["s1"])
	assert.Equal(t, domain.MatchTypeTokenHash, result.Types["s1"])
	assert.Equal(t, 100, result.Similarities["s1"])
}

func TestMatcher_ExactMatchIgnoresFileAndName(t *testing.T) {
	m := newTestMatcher(t, nil)
	source := []*domain.CodeBlock{
		domain.NewCodeBlock("s1", "old/path.py", 1, 5, "old_name", "", "", "h1", "[1;2;3]"),
	}
	target := []*domain.CodeBlock{
		domain.NewCodeBlock("t1", "new/path.py", 9, 13, "new_name", "", "", "h1", "[1;2;3]"),
	}

	result := m.Match(source, target)

	assert.Equal(t, "t1", result.Forward["s1"])
	assert.Equal(t, domain.RelocationMoved, domain.ClassifyRelocation(source[0], target[0]))
}

func TestMatcher_ExactPhaseRunsBeforeFuzzy(t *testing.T) {
	m := newTestMatcher(t, nil)
	tokens := []int{1, 2, 3, 4, 5, 6, 7, 8}
	// t1 is hash-identical to s1; t2 is merely similar. The exact phase must
	// claim t1 at similarity 100 before any fuzzy comparison happens.
	source := []*domain.CodeBlock{matchBlock("s1", "same", tokens)}
	target := []*domain.CodeBlock{
		matchBlock("t2", "other", []int{1, 2, 3, 4, 5, 6, 7, 9}),
		matchBlock("t1", "same", tokens),
	}

	result := m.Match(source, target)

	assert.Equal(t, "t1", result.Forward["s1"])
	assert.Equal(t, domain.MatchTypeTokenHash, result.Types["s1"])
	assert.Equal(t, 100, result.Similarities["s1"])
}

func TestMatcher_SimilarityMatch(t *testing.T) {
	m := newTestMatcher(t, nil)
	source := []*domain.CodeBlock{matchBlock("s1", "h1", []int{1, 2, 3, 4, 5})}
	target := []*domain.CodeBlock{matchBlock("t1", "h2", []int{1, 2, 3, 4, 6})}

	result := m.Match(source, target)

	require.Equal(t, 1, result.Len())
	assert.Equal(t, "t1", result.Forward["s1"])
	assert.Equal(t, domain.MatchTypeSimilarity, result.Types["s1"])
	assert.GreaterOrEqual(t, result.Similarities["s1"], 70)
}

func TestMatcher_LengthRatioPairIsSkippedNotScoredZero(t *testing.T) {
	m := newTestMatcher(t, nil)
	// The target is the source truncated far beyond the 30% ratio: the pair
	// must be skipped before any similarity computation.
	long := make([]int, 40)
	for i := range long {
		long[i] = i
	}
	short := long[:10]
	source := []*domain.CodeBlock{matchBlock("s1", "h1", long)}
	target := []*domain.CodeBlock{matchBlock("t1", "h2", short)}

	score, ok := m.scorePair(source[0], target[0])
	assert.False(t, ok, "pair outside the length ratio must be a skip, not a score")
	assert.Equal(t, 0, score)

	result := m.Match(source, target)
	assert.Equal(t, 0, result.Len())
}

func TestMatcher_MalformedSequenceNeverAborts(t *testing.T) {
	m := newTestMatcher(t, nil)
	tokens := []int{1, 2, 3, 4, 5, 6, 7, 8}
	source := []*domain.CodeBlock{
		domain.NewCodeBlock("bad", "f.py", 1, 5, "bad", "", "", "hx", "[oops]"),
		matchBlock("s1", "h1", tokens),
	}
	target := []*domain.CodeBlock{matchBlock("t1", "h2", tokens)}

	result := m.Match(source, target)

	require.Equal(t, 1, result.Len())
	assert.Equal(t, "t1", result.Forward["s1"])
	assert.False(t, result.IsSourceMatched("bad"))
}

func TestMatcher_EmptySequencesNeverMatch(t *testing.T) {
	m := newTestMatcher(t, nil)
	source := []*domain.CodeBlock{matchBlock("s1", "h1", []int{})}
	target := []*domain.CodeBlock{matchBlock("t1", "h2", []int{})}

	result := m.Match(source, target)

	assert.Equal(t, 0, result.Len())
}

func TestMatcher_ForwardMapIsInjective(t *testing.T) {
	m := newTestMatcher(t, nil)
	tokens := []int{1, 2, 3, 4, 5, 6, 7, 8}
	// Two sources compete for the single similar target.
	source := []*domain.CodeBlock{
		matchBlock("s1", "h1", tokens),
		matchBlock("s2", "h2", tokens),
	}
	target := []*domain.CodeBlock{matchBlock("t1", "h3", tokens)}

	result := m.Match(source, target)

	require.Equal(t, 1, result.Len())
	claimed := make(map[string]string)
	for src, tgt := range result.Forward {
		if prev, ok := claimed[tgt]; ok {
			t.Fatalf("target %s claimed by both %s and %s", tgt, prev, src)
		}
		claimed[tgt] = src
	}
	// Documented tie-break: sources run in input order, so s1 wins.
	assert.Equal(t, "t1", result.Forward["s1"])
}

func TestMatcher_BackwardIsExactInverse(t *testing.T) {
	m := newTestMatcher(t, nil)
	var source, target []*domain.CodeBlock
	for i := 0; i < 10; i++ {
		tokens := []int{i, i + 1, i + 2, i + 3, i + 4, i + 5}
		source = append(source, matchBlock(fmt.Sprintf("s%d", i), fmt.Sprintf("h%d", i), tokens))
		target = append(target, matchBlock(fmt.Sprintf("t%d", i), fmt.Sprintf("h%d", i), tokens))
	}

	result := m.Match(source, target)

	assert.Equal(t, len(result.Forward), len(result.Backward))
	for src, tgt := range result.Forward {
		assert.Equal(t, src, result.Backward[tgt])
	}
}

func TestMatcher_TieBreakFirstEncounteredTarget(t *testing.T) {
	m := newTestMatcher(t, nil)
	tokens := []int{1, 2, 3, 4, 5, 6, 7, 8}
	source := []*domain.CodeBlock{matchBlock("s1", "h1", tokens)}
	// Both targets score identically; the first in input order must win.
	target := []*domain.CodeBlock{
		matchBlock("tFirst", "h2", tokens),
		matchBlock("tSecond", "h3", tokens),
	}

	result := m.Match(source, target)

	assert.Equal(t, "tFirst", result.Forward["s1"])
}

func TestMatcher_ProgressiveThresholdsResolveHighConfidenceFirst(t *testing.T) {
	m := newTestMatcher(t, func(c *MatchConfig) {
		c.ProgressiveThresholds = []int{90, 80, 70}
	})
	near := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	far := []int{1, 2, 3, 4, 5, 6, 99, 98, 97, 10}
	// s1 is nearly identical to t1 and merely similar to t2. At the strict
	// rung s1 claims t1, leaving t2 free for s2 at the relaxed rung.
	source := []*domain.CodeBlock{
		matchBlock("s2", "h2", far),
		matchBlock("s1", "h1", near),
	}
	target := []*domain.CodeBlock{
		matchBlock("t2", "h4", far),
		matchBlock("t1", "h3", near),
	}

	result := m.Match(source, target)

	assert.Equal(t, "t1", result.Forward["s1"])
	assert.Equal(t, "t2", result.Forward["s2"])
}

func TestMatcher_LSHPathMatchesLikeExhaustive(t *testing.T) {
	exhaustive := newTestMatcher(t, nil)
	accelerated := newTestMatcher(t, func(c *MatchConfig) {
		c.LSHTriggerPairs = 1 // force the LSH path
		c.LSHThreshold = 0.3
	})

	var source, target []*domain.CodeBlock
	for i := 0; i < 12; i++ {
		tokens := []int{i * 10, i*10 + 1, i*10 + 2, i*10 + 3, i*10 + 4, i*10 + 5, i*10 + 6, i*10 + 7}
		source = append(source, matchBlock(fmt.Sprintf("s%d", i), fmt.Sprintf("sh%d", i), tokens))
		shifted := append([]int{}, tokens...)
		shifted[7] = 9999
		target = append(target, matchBlock(fmt.Sprintf("t%d", i), fmt.Sprintf("th%d", i), shifted))
	}

	plain := exhaustive.Match(source, target)
	lsh := accelerated.Match(source, target)

	// Distinct token vocabularies per pair: the LSH shortlist keeps every
	// true match.
	assert.Equal(t, plain.Forward, lsh.Forward)
}

func TestMatcher_SignatureChangeAnnotation(t *testing.T) {
	m := newTestMatcher(t, nil)
	source := []*domain.CodeBlock{
		domain.NewCodeBlock("s1", "f.py", 1, 5, "fn", "int", "a, b", "h1", "[1;2;3]"),
	}
	target := []*domain.CodeBlock{
		domain.NewCodeBlock("t1", "f.py", 1, 5, "fn", "str", "a, b", "h1", "[1;2;3]"),
	}

	result := m.Match(source, target)

	change, ok := result.SignatureChanges["s1"]
	require.True(t, ok)
	assert.True(t, change.ReturnTypeChanged)
	assert.False(t, change.ParametersChanged)
	assert.True(t, change.Changed())
}

func TestMatcher_ParallelScoringMatchesSequential(t *testing.T) {
	sequential := newTestMatcher(t, func(c *MatchConfig) { c.ParallelTriggerPairs = 1 << 30 })
	parallel := newTestMatcher(t, func(c *MatchConfig) {
		c.ParallelTriggerPairs = 1
		c.Workers = 4
	})

	var source, target []*domain.CodeBlock
	for i := 0; i < 20; i++ {
		tokens := []int{i, i + 1, i + 2, i + 3, i + 4, i + 5, i + 6}
		source = append(source, matchBlock(fmt.Sprintf("s%d", i), fmt.Sprintf("sh%d", i), tokens))
		target = append(target, matchBlock(fmt.Sprintf("t%d", i), fmt.Sprintf("th%d", i), tokens))
	}

	assert.Equal(t, sequential.Match(source, target).Forward, parallel.Match(source, target).Forward)
}

func TestMatcher_ClaimedTargetNeverReappears(t *testing.T) {
	m := newTestMatcher(t, nil)
	tokens := []int{1, 2, 3, 4, 5, 6, 7, 8}
	source := []*domain.CodeBlock{
		matchBlock("s1", "same", tokens),
		matchBlock("s2", "h2", tokens),
	}
	// Single target: hash-matched by s1 in phase 1, so s2 must stay
	// unmatched even though it is similarity-identical.
	target := []*domain.CodeBlock{matchBlock("t1", "same", tokens)}

	result := m.Match(source, target)

	assert.Equal(t, "t1", result.Forward["s1"])
	assert.False(t, result.IsSourceMatched("s2"))
}

func TestSimilarityCache_SymmetricKeysAndEviction(t *testing.T) {
	cache := newSimilarityCache(2)

	keyAB := pairCacheKey("[1;2]", "[3;4]")
	keyBA := pairCacheKey("[3;4]", "[1;2]")
	assert.Equal(t, keyAB, keyBA)

	cache.put(keyAB, 80)
	score, ok := cache.get(keyBA)
	assert.True(t, ok)
	assert.Equal(t, 80, score)

	cache.put(pairCacheKey("[5]", "[6]"), 10)
	cache.put(pairCacheKey("[7]", "[8]"), 20) // evicts the LRU entry

	assert.Equal(t, 2, cache.len())
	_, ok = cache.get(keyAB)
	assert.False(t, ok, "oldest entry should have been evicted")
}
