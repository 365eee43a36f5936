package analyzer

import (
	"fmt"

	"github.com/methodlens/methodlens/domain"
	"github.com/methodlens/methodlens/internal/constants"
)

// GroupDetector folds an externally supplied clone-pair table into maximal
// transitive groups with a union-find structure.
//
// Each pair contributes one effective similarity. The n-gram score is
// preferred when it alone meets the threshold; otherwise the LCS score is
// consulted when the row carries one. Rows without an LCS column fall back to
// the n-gram score even below threshold, which simply fails the cut. Two
// blocks are unified exactly when the effective similarity meets the
// threshold.
type GroupDetector struct {
	threshold int
}

// NewGroupDetector creates a detector with the given formation threshold.
func NewGroupDetector(threshold int) (*GroupDetector, error) {
	if threshold < 0 || threshold > 100 {
		return nil, domain.NewConfigError(fmt.Sprintf("group threshold must be in [0,100], got %d", threshold), nil)
	}
	return &GroupDetector{threshold: threshold}, nil
}

// DefaultGroupDetector creates a detector with the documented default threshold.
func DefaultGroupDetector() *GroupDetector {
	return &GroupDetector{threshold: constants.DefaultGroupThreshold}
}

// Threshold returns the formation threshold.
func (gd *GroupDetector) Threshold() int {
	return gd.threshold
}

// effectiveSimilarity reduces one table row to the single score used for the
// grouping decision.
func (gd *GroupDetector) effectiveSimilarity(rec *domain.ClonePairRecord) int {
	if rec.NGramScore >= gd.threshold {
		return rec.NGramScore
	}
	if rec.HasLCS {
		return rec.LCSScore
	}
	return rec.NGramScore
}

// Detect partitions the blocks referenced by the table into clone groups.
// allBlockIDs lists every block of the revision; blocks untouched by any
// qualifying pair come back as singleton groups. Groups are returned in the
// deterministic order of domain.SortGroups.
func (gd *GroupDetector) Detect(records []*domain.ClonePairRecord, allBlockIDs []string) []*domain.CloneGroup {
	uf := NewUnionFind()
	for _, id := range allBlockIDs {
		uf.Find(id)
	}

	effective := make(map[string]int, len(records))
	for _, rec := range records {
		if rec.BlockID1 == rec.BlockID2 {
			continue
		}
		score := gd.effectiveSimilarity(rec)
		key := domain.PairKey(rec.BlockID1, rec.BlockID2)
		if prev, ok := effective[key]; !ok || score > prev {
			effective[key] = score
		}
		if score >= gd.threshold {
			uf.Union(rec.BlockID1, rec.BlockID2)
		}
	}

	groups := make([]*domain.CloneGroup, 0)
	for root, members := range uf.Groups() {
		group := &domain.CloneGroup{
			RootID:           root,
			Members:          members,
			PairSimilarities: make(map[string]int),
		}
		groups = append(groups, group)
	}

	// Attach each table pair's effective similarity to the group holding
	// both endpoints. Sub-threshold pairs whose endpoints were unified
	// transitively still count as edge evidence for density.
	byMember := make(map[string]*domain.CloneGroup)
	for _, g := range groups {
		for _, id := range g.Members {
			byMember[id] = g
		}
	}
	for _, rec := range records {
		if rec.BlockID1 == rec.BlockID2 {
			continue
		}
		g1, g2 := byMember[rec.BlockID1], byMember[rec.BlockID2]
		if g1 == nil || g1 != g2 {
			continue
		}
		key := domain.PairKey(rec.BlockID1, rec.BlockID2)
		g1.PairSimilarities[key] = effective[key]
	}

	domain.SortGroups(groups)
	return groups
}

// DetectFromPairs adapts detector output into table rows and groups them.
// Detected pairs always carry an LCS score from the verification phase.
func (gd *GroupDetector) DetectFromPairs(pairs []*domain.ClonePair, allBlockIDs []string) []*domain.CloneGroup {
	records := make([]*domain.ClonePairRecord, len(pairs))
	for i, p := range pairs {
		records[i] = &domain.ClonePairRecord{
			BlockID1:   p.BlockID1,
			BlockID2:   p.BlockID2,
			NGramScore: p.NGramScore,
			LCSScore:   p.LCSScore,
			HasLCS:     true,
		}
	}
	return gd.Detect(records, allBlockIDs)
}
