package domain

import (
	"fmt"
)

// MatchType classifies how a cross-revision block match was established.
type MatchType string

const (
	// MatchTypeTokenHash marks a content-identical match found by the exact
	// token-hash phase.
	MatchTypeTokenHash MatchType = "token_hash"
	// MatchTypeSimilarity marks a fuzzy match found by the similarity phase.
	MatchTypeSimilarity MatchType = "similarity"
)

// RelocationTag is a derived sub-classification of a match based on the file
// path and function name of the matched pair.
type RelocationTag string

const (
	RelocationNone    RelocationTag = ""
	RelocationMoved   RelocationTag = "moved"
	RelocationRenamed RelocationTag = "renamed"
)

// SignatureChange records a parameter or return-type difference between a
// matched source/target pair.
type SignatureChange struct {
	ParametersChanged bool `json:"parameters_changed" yaml:"parameters_changed"`
	ReturnTypeChanged bool `json:"return_type_changed" yaml:"return_type_changed"`
}

// Changed reports whether any part of the signature differs.
func (sc SignatureChange) Changed() bool {
	return sc.ParametersChanged || sc.ReturnTypeChanged
}

// MatchResult maps source-revision block ids to target-revision block ids.
// Forward is a partial injective function: no target id appears twice.
// Backward is its exact inverse.
type MatchResult struct {
	Forward          map[string]string          `json:"forward_matches" yaml:"forward_matches"`
	Backward         map[string]string          `json:"backward_matches" yaml:"backward_matches"`
	Types            map[string]MatchType       `json:"match_types" yaml:"match_types"`
	Similarities     map[string]int             `json:"match_similarities" yaml:"match_similarities"`
	SignatureChanges map[string]SignatureChange `json:"signature_changes" yaml:"signature_changes"`
}

// NewMatchResult creates an empty match result.
func NewMatchResult() *MatchResult {
	return &MatchResult{
		Forward:          make(map[string]string),
		Backward:         make(map[string]string),
		Types:            make(map[string]MatchType),
		Similarities:     make(map[string]int),
		SignatureChanges: make(map[string]SignatureChange),
	}
}

// Add records a match. It returns an error when the source is already matched
// or the target is already claimed, preserving the injective invariant.
func (mr *MatchResult) Add(sourceID, targetID string, matchType MatchType, similarity int) error {
	if existing, ok := mr.Forward[sourceID]; ok {
		return NewValidationError(fmt.Sprintf("source %s already matched to %s", sourceID, existing))
	}
	if existing, ok := mr.Backward[targetID]; ok {
		return NewValidationError(fmt.Sprintf("target %s already claimed by %s", targetID, existing))
	}
	mr.Forward[sourceID] = targetID
	mr.Backward[targetID] = sourceID
	mr.Types[sourceID] = matchType
	mr.Similarities[sourceID] = similarity
	return nil
}

// IsTargetClaimed reports whether the target id is already matched.
func (mr *MatchResult) IsTargetClaimed(targetID string) bool {
	_, ok := mr.Backward[targetID]
	return ok
}

// IsSourceMatched reports whether the source id is already matched.
func (mr *MatchResult) IsSourceMatched(sourceID string) bool {
	_, ok := mr.Forward[sourceID]
	return ok
}

// Len returns the number of matched pairs.
func (mr *MatchResult) Len() int {
	return len(mr.Forward)
}

// AnnotateSignature records the signature comparison for a matched source.
func (mr *MatchResult) AnnotateSignature(sourceID string, change SignatureChange) {
	mr.SignatureChanges[sourceID] = change
}

// ClassifyRelocation derives the moved/renamed sub-tag for a matched pair by
// comparing file paths and function names. A pair that changed both file and
// name is tagged as moved; a same-file name change is tagged as renamed.
func ClassifyRelocation(source, target *CodeBlock) RelocationTag {
	if source == nil || target == nil {
		return RelocationNone
	}
	if source.FilePath != target.FilePath {
		return RelocationMoved
	}
	if source.FunctionName != target.FunctionName {
		return RelocationRenamed
	}
	return RelocationNone
}

// CompareSignatures builds the signature-change annotation for a matched pair.
func CompareSignatures(source, target *CodeBlock) SignatureChange {
	if source == nil || target == nil {
		return SignatureChange{}
	}
	return SignatureChange{
		ParametersChanged: source.Parameters != target.Parameters,
		ReturnTypeChanged: source.ReturnType != target.ReturnType,
	}
}
