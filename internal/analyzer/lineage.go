package analyzer

import (
	"sort"

	"github.com/google/uuid"

	"github.com/methodlens/methodlens/domain"
)

// LineageTracker threads global block identities across a revision sequence.
// The first revision mints a fresh id for every block; each later revision
// inherits ids through the backward half of its match result and mints fresh
// ids for unmatched blocks. A block with no successor simply stops appearing,
// which terminates its global id at the last revision that carries it.
type LineageTracker struct {
	table *domain.LineageTable

	// current maps the latest revision's block ids to their global ids.
	current      map[string]domain.GlobalBlockID
	lastRevision string

	// mintID is swappable for deterministic tests.
	mintID func() domain.GlobalBlockID
}

// NewLineageTracker creates an empty tracker minting UUID global ids.
func NewLineageTracker() *LineageTracker {
	return &LineageTracker{
		table:   domain.NewLineageTable(),
		current: make(map[string]domain.GlobalBlockID),
		mintID: func() domain.GlobalBlockID {
			return domain.GlobalBlockID(uuid.NewString())
		},
	}
}

// AddFirstRevision seeds the lineage with the earliest revision: every block
// receives a freshly minted global id.
func (lt *LineageTracker) AddFirstRevision(revision string, blockIDs []string) error {
	if len(lt.table.Revisions) > 0 {
		return domain.NewInvalidInputError("lineage already seeded with a first revision", nil)
	}
	lt.table.Revisions = append(lt.table.Revisions, revision)
	lt.lastRevision = revision
	for _, blockID := range blockIDs {
		id := lt.mintID()
		lt.current[blockID] = id
		lt.table.Assignments[domain.LineageKey{Revision: revision, BlockID: blockID}] = id
	}
	return nil
}

// AddRevision advances the lineage by one revision. matches is the result of
// matching the previous revision's blocks (source) against this revision's
// (target): a matched block inherits its predecessor's global id, an
// unmatched one gets a fresh id.
//
// When several match results are supplied (a merge commit with multiple
// parents), the first result to claim a target block wins; a later result
// mapping a different predecessor identity onto the same target records a
// MergeFlag instead of overwriting.
func (lt *LineageTracker) AddRevision(revision string, blockIDs []string, matches ...*domain.MatchResult) error {
	if len(lt.table.Revisions) == 0 {
		return domain.NewInvalidInputError("lineage has no first revision; call AddFirstRevision", nil)
	}
	lt.table.Revisions = append(lt.table.Revisions, revision)

	next := make(map[string]domain.GlobalBlockID, len(blockIDs))
	for _, m := range matches {
		if m == nil {
			continue
		}
		// Iterate targets in sorted order so merge flags are deterministic.
		targets := make([]string, 0, len(m.Backward))
		for targetID := range m.Backward {
			targets = append(targets, targetID)
		}
		sort.Strings(targets)

		for _, targetID := range targets {
			sourceID := m.Backward[targetID]
			inherited, ok := lt.current[sourceID]
			if !ok {
				continue
			}
			if kept, claimed := next[targetID]; claimed {
				if kept != inherited {
					lt.table.Merges = append(lt.table.Merges, domain.MergeFlag{
						Revision:      revision,
						TargetBlockID: targetID,
						KeptID:        kept,
						MergedID:      inherited,
					})
				}
				continue
			}
			next[targetID] = inherited
		}
	}

	current := make(map[string]domain.GlobalBlockID, len(blockIDs))
	for _, blockID := range blockIDs {
		id, ok := next[blockID]
		if !ok {
			id = lt.mintID()
		}
		current[blockID] = id
		lt.table.Assignments[domain.LineageKey{Revision: revision, BlockID: blockID}] = id
	}

	lt.current = current
	lt.lastRevision = revision
	return nil
}

// Table returns the accumulated lineage table.
func (lt *LineageTracker) Table() *domain.LineageTable {
	return lt.table
}
