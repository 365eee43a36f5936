package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/methodlens/methodlens/domain"
	"github.com/methodlens/methodlens/internal/config"
)

func revisionOf(name string, blocks ...*domain.CodeBlock) *domain.Revision {
	return &domain.Revision{Name: name, Blocks: blocks}
}

func serviceBlock(id string, tokens []int) *domain.CodeBlock {
	raw := domain.FormatTokenSequence(tokens)
	return domain.NewCodeBlock(id, "f.py", 1, 10, "fn_"+id, "", "", ComputeTokenHash(raw), raw)
}

func newHistoryService(t *testing.T) *HistoryService {
	t.Helper()
	svc, err := NewHistoryService(config.DefaultConfig(), nil)
	require.NoError(t, err)
	return svc
}

func TestNewHistoryService_RejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Detection.NGramSize = -1

	_, err := NewHistoryService(cfg, nil)
	assert.Error(t, err)
}

func TestHistoryService_AnalyzeRevisionGroupsClones(t *testing.T) {
	svc := newHistoryService(t)
	tokens := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	rev := revisionOf("r1",
		serviceBlock("a", tokens),
		serviceBlock("b", tokens),
		serviceBlock("c", []int{100, 200, 300, 400, 500, 600}),
	)

	report := svc.AnalyzeRevision(rev)

	assert.Equal(t, 3, report.Blocks)
	require.Len(t, report.Pairs, 1)
	assert.Equal(t, "a", report.Pairs[0].BlockID1)
	assert.Equal(t, "b", report.Pairs[0].BlockID2)

	// One clone group plus the untouched singleton.
	require.Len(t, report.Groups, 2)
	assert.Equal(t, 2, report.Groups[0].Size())
	assert.Equal(t, 1, report.Groups[1].Size())
}

func TestHistoryService_TrackEmptySequenceFails(t *testing.T) {
	svc := newHistoryService(t)
	_, err := svc.Track(context.Background(), nil)
	assert.Error(t, err)
}

func TestHistoryService_TrackThreadsLineage(t *testing.T) {
	svc := newHistoryService(t)
	tokens := []int{1, 2, 3, 4, 5, 6, 7, 8}

	// The same content survives r1 -> r2 under a new block id; "gone"
	// disappears after r1.
	r1 := revisionOf("r1", serviceBlock("a", tokens), serviceBlock("gone", []int{9, 9, 9, 9, 9, 9}))
	r2 := revisionOf("r2", serviceBlock("a2", tokens))

	report, err := svc.Track(context.Background(), []*domain.Revision{r1, r2})
	require.NoError(t, err)
	require.Len(t, report.Revisions, 2)

	// The exact phase links a to a2 through the shared token hash.
	matches := report.Revisions[1].Matches
	require.NotNil(t, matches)
	assert.Equal(t, "a2", matches.Forward["a"])
	assert.Equal(t, domain.MatchTypeTokenHash, matches.Types["a"])

	idA, ok := report.Lineage.IDFor("r1", "a")
	require.True(t, ok)
	idA2, ok := report.Lineage.IDFor("r2", "a2")
	require.True(t, ok)
	assert.Equal(t, idA, idA2)

	// The disappeared block's lifetime ends at r1.
	idGone, ok := report.Lineage.IDFor("r1", "gone")
	require.True(t, ok)
	last, found := report.Lineage.LastRevisionOf(idGone)
	require.True(t, found)
	assert.Equal(t, "r1", last)
}

func TestHistoryService_TrackFirstRevisionHasNoMatches(t *testing.T) {
	svc := newHistoryService(t)
	r1 := revisionOf("r1", serviceBlock("a", []int{1, 2, 3, 4, 5, 6}))

	report, err := svc.Track(context.Background(), []*domain.Revision{r1})
	require.NoError(t, err)
	require.Len(t, report.Revisions, 1)
	assert.Nil(t, report.Revisions[0].Matches)
	assert.Equal(t, []string{"r1"}, report.Lineage.Revisions)
}

func TestHistoryService_TrackHonorsCancellation(t *testing.T) {
	svc := newHistoryService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var revisions []*domain.Revision
	for i := 0; i < 3; i++ {
		revisions = append(revisions, revisionOf(fmt.Sprintf("r%d", i), serviceBlock(fmt.Sprintf("b%d", i), []int{1, 2, 3, 4, 5, 6})))
	}

	_, err := svc.Track(ctx, revisions)
	assert.ErrorIs(t, err, context.Canceled)
}
