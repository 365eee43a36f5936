package domain

import "fmt"

// GlobalBlockID threads one logical method across its observed lifetime.
// Ids are minted on first appearance and only ever carried forward.
type GlobalBlockID string

// LineageKey addresses one block occurrence within one revision.
type LineageKey struct {
	Revision string `json:"revision" yaml:"revision"`
	BlockID  string `json:"block_id" yaml:"block_id"`
}

// String returns string representation of LineageKey
func (k LineageKey) String() string {
	return fmt.Sprintf("%s@%s", k.BlockID, k.Revision)
}

// MergeFlag records an ambiguous lineage transition: two distinct predecessor
// identities both mapping to the same current-revision block. The first
// predecessor (in match order) keeps the lineage; the other identity is
// preserved here instead of being silently overwritten.
type MergeFlag struct {
	Revision      string        `json:"revision" yaml:"revision"`
	TargetBlockID string        `json:"target_block_id" yaml:"target_block_id"`
	KeptID        GlobalBlockID `json:"kept_global_id" yaml:"kept_global_id"`
	MergedID      GlobalBlockID `json:"merged_global_id" yaml:"merged_global_id"`
}

// String returns string representation of MergeFlag
func (m MergeFlag) String() string {
	return fmt.Sprintf("merge at %s: %s kept %s, absorbed %s", m.Revision, m.TargetBlockID, m.KeptID, m.MergedID)
}

// LineageTable is the full per-(block, revision) -> global id assignment
// produced by threading match results across the revision sequence.
type LineageTable struct {
	Assignments map[LineageKey]GlobalBlockID `json:"assignments" yaml:"assignments"`
	Merges      []MergeFlag                  `json:"merges" yaml:"merges"`
	Revisions   []string                     `json:"revisions" yaml:"revisions"`
}

// NewLineageTable creates an empty lineage table.
func NewLineageTable() *LineageTable {
	return &LineageTable{
		Assignments: make(map[LineageKey]GlobalBlockID),
	}
}

// IDFor returns the global id assigned to a block occurrence.
func (t *LineageTable) IDFor(revision, blockID string) (GlobalBlockID, bool) {
	id, ok := t.Assignments[LineageKey{Revision: revision, BlockID: blockID}]
	return id, ok
}

// LastRevisionOf returns the last revision (in recorded order) in which the
// given global id appears, and false if it never appears.
func (t *LineageTable) LastRevisionOf(id GlobalBlockID) (string, bool) {
	last := ""
	found := false
	for _, rev := range t.Revisions {
		for key, assigned := range t.Assignments {
			if key.Revision == rev && assigned == id {
				last = rev
				found = true
				break
			}
		}
	}
	return last, found
}
