package analyzer

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/methodlens/methodlens/domain"
)

// Similarity scores across the package are integers in [0, 100].

// NGramSimilarity computes the n-gram overlap similarity of two token
// sequences: the number of shared distinct n-grams over the smaller distinct
// n-gram count, scaled to [0, 100]. An empty operand is an error — the caller
// must treat it as "skip, not a clone". Sequences shorter than n carry no
// n-gram evidence and score 0.
func NGramSimilarity(a, b []int, n int) (int, error) {
	if n <= 0 {
		return 0, domain.NewConfigError("n-gram size must be positive", nil)
	}
	if len(a) == 0 || len(b) == 0 {
		return 0, domain.NewInvalidInputError("n-gram similarity is undefined for empty token sequences", nil)
	}
	gramsA := ngramSet(a, n)
	gramsB := ngramSet(b, n)
	if len(gramsA) == 0 || len(gramsB) == 0 {
		return 0, nil
	}
	shared := sharedCount(gramsA, gramsB)
	denom := len(gramsA)
	if len(gramsB) < denom {
		denom = len(gramsB)
	}
	return scaleRatio(float64(shared) / float64(denom)), nil
}

// LCSSimilarity computes the LCS ratio of two token sequences, scaled to
// [0, 100]: LCS length over the shorter sequence length. Either operand being
// empty yields 0.
func LCSSimilarity(a, b []int) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	lcs := HuntSzymanskiLCS(a, b)
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	return scaleRatio(float64(lcs) / float64(minLen))
}

// HuntSzymanskiLCS returns the length of the longest common subsequence of a
// and b in O((r + n) log n), where r is the number of matching position
// pairs. Each token of b expands to the descending-sorted positions of equal
// tokens in a; the LCS length is the length of the longest strictly
// increasing subsequence of that expansion, found with patience sorting.
// This avoids the O(n*m) DP table, which does not scale to the block counts
// a revision can hold.
func HuntSzymanskiLCS(a, b []int) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	positions := make(map[int][]int, len(a))
	for i, tok := range a {
		positions[tok] = append(positions[tok], i)
	}
	// tails[k] holds the smallest possible ending position of an increasing
	// subsequence of length k+1.
	tails := make([]int, 0, len(b))
	for _, tok := range b {
		pos, ok := positions[tok]
		if !ok {
			continue
		}
		// Descending order keeps at most one position per b-token inside a
		// single increasing subsequence.
		for i := len(pos) - 1; i >= 0; i-- {
			p := pos[i]
			idx := sort.SearchInts(tails, p)
			if idx == len(tails) {
				tails = append(tails, p)
			} else {
				tails[idx] = p
			}
		}
	}
	return len(tails)
}

// CombinedSimilarity is the optimized two-stage score: the cheap n-gram
// similarity short-circuits when it already clears the threshold, and only
// then is the expensive LCS ratio computed.
func CombinedSimilarity(a, b []int, ngramSize, threshold int) (int, error) {
	ngramScore, err := NGramSimilarity(a, b, ngramSize)
	if err != nil {
		return 0, err
	}
	if ngramScore >= threshold {
		return ngramScore, nil
	}
	return LCSSimilarity(a, b), nil
}

// TokenSetJaccard computes the Jaccard similarity of the distinct-token sets
// of two sequences. Both operands empty yields 0.
func TokenSetJaccard(a, b []int) float64 {
	setA := make(map[int]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[int]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}
	if len(setA) == 0 && len(setB) == 0 {
		return 0.0
	}
	shared := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	if union == 0 {
		return 0.0
	}
	return float64(shared) / float64(union)
}

// ngramSet builds the set of distinct n-grams of the sequence, keyed by a
// joined string encoding.
func ngramSet(tokens []int, n int) map[string]struct{} {
	if len(tokens) < n {
		return map[string]struct{}{}
	}
	grams := make(map[string]struct{}, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		grams[ngramKey(tokens[i:i+n])] = struct{}{}
	}
	return grams
}

func ngramKey(gram []int) string {
	var sb strings.Builder
	for i, t := range gram {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(strconv.Itoa(t))
	}
	return sb.String()
}

func sharedCount(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	shared := 0
	for g := range a {
		if _, ok := b[g]; ok {
			shared++
		}
	}
	return shared
}

// scaleRatio maps a ratio in [0, 1] to an integer score in [0, 100].
func scaleRatio(ratio float64) int {
	score := int(math.Round(ratio * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
