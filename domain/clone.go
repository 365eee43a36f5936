package domain

import (
	"fmt"
	"sort"
)

// ClonePair is a confirmed intra-revision clone: two block indices (i < j)
// with the n-gram score from the filtration phase and the LCS score from the
// verification phase. Scores are integers in [0, 100].
type ClonePair struct {
	BlockID1   string `json:"block_id_1" yaml:"block_id_1"`
	BlockID2   string `json:"block_id_2" yaml:"block_id_2"`
	NGramScore int    `json:"ngram_similarity" yaml:"ngram_similarity"`
	LCSScore   int    `json:"lcs_similarity" yaml:"lcs_similarity"`
}

// String returns string representation of ClonePair
func (p *ClonePair) String() string {
	return fmt.Sprintf("ClonePair{%s <-> %s, ngram: %d, lcs: %d}", p.BlockID1, p.BlockID2, p.NGramScore, p.LCSScore)
}

// ClonePairRecord is one row of an externally supplied clone-pair table.
// HasLCS is false when the lcs_similarity column was empty for the row; the
// group detector treats that as "no additional evidence".
type ClonePairRecord struct {
	BlockID1   string `json:"block_id_1" yaml:"block_id_1"`
	BlockID2   string `json:"block_id_2" yaml:"block_id_2"`
	NGramScore int    `json:"ngram_similarity" yaml:"ngram_similarity"`
	LCSScore   int    `json:"lcs_similarity" yaml:"lcs_similarity"`
	HasLCS     bool   `json:"has_lcs" yaml:"has_lcs"`
}

// CloneGroup is a maximal set of blocks transitively connected by clone pairs
// meeting the group-formation threshold. RootID is the representative chosen
// by the union-find structure. PairSimilarities holds the effective similarity
// of every table pair whose endpoints both fall inside the group.
type CloneGroup struct {
	RootID           string         `json:"group_id" yaml:"group_id"`
	Members          []string       `json:"members" yaml:"members"`
	PairSimilarities map[string]int `json:"pair_similarities" yaml:"pair_similarities"`
}

// Size returns the number of member blocks.
func (g *CloneGroup) Size() int {
	return len(g.Members)
}

// IsClone reports whether the group holds more than one block.
func (g *CloneGroup) IsClone() bool {
	return len(g.Members) >= 2
}

// AverageSimilarity returns the mean of the recorded pairwise similarities,
// 0 when the group carries no pair evidence.
func (g *CloneGroup) AverageSimilarity() float64 {
	if len(g.PairSimilarities) == 0 {
		return 0.0
	}
	total := 0
	for _, s := range g.PairSimilarities {
		total += s
	}
	return float64(total) / float64(len(g.PairSimilarities))
}

// MinSimilarity returns the smallest recorded pairwise similarity, 0 when none.
func (g *CloneGroup) MinSimilarity() int {
	min := 0
	first := true
	for _, s := range g.PairSimilarities {
		if first || s < min {
			min = s
			first = false
		}
	}
	return min
}

// MaxSimilarity returns the largest recorded pairwise similarity, 0 when none.
func (g *CloneGroup) MaxSimilarity() int {
	max := 0
	for _, s := range g.PairSimilarities {
		if s > max {
			max = s
		}
	}
	return max
}

// Density is the ratio of recorded pair edges to the edges of a theoretical
// clique over the members. Singleton and empty groups have density 0.
func (g *CloneGroup) Density() float64 {
	n := len(g.Members)
	if n < 2 {
		return 0.0
	}
	possible := n * (n - 1) / 2
	return float64(len(g.PairSimilarities)) / float64(possible)
}

// String returns string representation of CloneGroup
func (g *CloneGroup) String() string {
	return fmt.Sprintf("CloneGroup{Root: %s, Size: %d, Density: %.2f}", g.RootID, g.Size(), g.Density())
}

// PairKey builds the canonical unordered key for a pair of block ids.
func PairKey(id1, id2 string) string {
	if id2 < id1 {
		id1, id2 = id2, id1
	}
	return id1 + "\x00" + id2
}

// SortGroups orders groups deterministically: clone groups before singletons,
// larger first, then by representative id.
func SortGroups(groups []*CloneGroup) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Size() != groups[j].Size() {
			return groups[i].Size() > groups[j].Size()
		}
		return groups[i].RootID < groups[j].RootID
	})
}
