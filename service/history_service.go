package service

import (
	"context"

	"github.com/methodlens/methodlens/domain"
	"github.com/methodlens/methodlens/internal/analyzer"
	"github.com/methodlens/methodlens/internal/config"
)

// RevisionReport is the per-revision slice of a history run.
type RevisionReport struct {
	Revision string               `json:"revision" yaml:"revision"`
	Blocks   int                  `json:"blocks" yaml:"blocks"`
	Pairs    []*domain.ClonePair  `json:"clone_pairs" yaml:"clone_pairs"`
	Groups   []*domain.CloneGroup `json:"clone_groups" yaml:"clone_groups"`

	// Matches links the previous revision's blocks to this one; nil for the
	// first revision.
	Matches *domain.MatchResult `json:"matches,omitempty" yaml:"matches,omitempty"`
}

// HistoryReport is the complete result of a multi-revision run.
type HistoryReport struct {
	Revisions []*RevisionReport    `json:"revisions" yaml:"revisions"`
	Lineage   *domain.LineageTable `json:"lineage" yaml:"lineage"`
}

// HistoryService walks an ordered revision sequence through the full
// pipeline: per-revision clone detection and grouping, cross-revision
// matching, and lineage threading.
type HistoryService struct {
	detector *analyzer.NILDetector
	matcher  *analyzer.Matcher
	grouper  *analyzer.GroupDetector
	progress domain.ProgressManager
}

// NewHistoryService wires the pipeline from a validated configuration.
// progress may be nil.
func NewHistoryService(cfg *config.Config, progress domain.ProgressManager) (*HistoryService, error) {
	detector, err := analyzer.NewNILDetector(cfg.ToNILConfig())
	if err != nil {
		return nil, err
	}
	matcher, err := analyzer.NewMatcher(cfg.ToMatchConfig())
	if err != nil {
		return nil, err
	}
	grouper, err := analyzer.NewGroupDetector(cfg.Grouping.Threshold)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = noopProgressManager{}
	}
	return &HistoryService{
		detector: detector,
		matcher:  matcher,
		grouper:  grouper,
		progress: progress,
	}, nil
}

// AnalyzeRevision runs single-revision detection and grouping.
func (s *HistoryService) AnalyzeRevision(rev *domain.Revision) *RevisionReport {
	pairs := s.detector.Detect(rev.Blocks)
	groups := s.grouper.DetectFromPairs(pairs, blockIDs(rev))
	return &RevisionReport{
		Revision: rev.Name,
		Blocks:   len(rev.Blocks),
		Pairs:    pairs,
		Groups:   groups,
	}
}

// Track runs the full pipeline over a chronological revision sequence. The
// context is checked between revisions so long runs can be cancelled.
func (s *HistoryService) Track(ctx context.Context, revisions []*domain.Revision) (*HistoryReport, error) {
	if len(revisions) == 0 {
		return nil, domain.NewInvalidInputError("no revisions to track", nil)
	}

	s.progress.Initialize(len(revisions))
	s.progress.Start()
	defer s.progress.Close()

	lineage := analyzer.NewLineageTracker()
	report := &HistoryReport{}

	for i, rev := range revisions {
		if err := ctx.Err(); err != nil {
			s.progress.Complete(false)
			return nil, err
		}

		revReport := s.AnalyzeRevision(rev)

		if i == 0 {
			if err := lineage.AddFirstRevision(rev.Name, blockIDs(rev)); err != nil {
				s.progress.Complete(false)
				return nil, err
			}
		} else {
			previous := revisions[i-1]
			matches := s.matcher.Match(previous.Blocks, rev.Blocks)
			revReport.Matches = matches
			if err := lineage.AddRevision(rev.Name, blockIDs(rev), matches); err != nil {
				s.progress.Complete(false)
				return nil, err
			}
		}

		report.Revisions = append(report.Revisions, revReport)
		s.progress.Update(i+1, len(revisions))
	}

	report.Lineage = lineage.Table()
	s.progress.Complete(true)
	return report, nil
}

func blockIDs(rev *domain.Revision) []string {
	ids := make([]string, len(rev.Blocks))
	for i, b := range rev.Blocks {
		ids[i] = b.ID
	}
	return ids
}
