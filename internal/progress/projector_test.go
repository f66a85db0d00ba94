package progress_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleixmp/jobpace/internal/history"
	"github.com/aleixmp/jobpace/internal/model"
	"github.com/aleixmp/jobpace/internal/progress"
	"github.com/aleixmp/jobpace/internal/storage/memory"
)

func newHistory(t *testing.T, jobType model.JobType) *history.Store {
	t.Helper()
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	store, err := history.NewStore(context.Background(), history.StoreConfig{
		JobType:    jobType,
		Repository: repo,
	})
	require.NoError(t, err)
	return store
}

func newProjector(t *testing.T, jobType model.JobType, hist *history.Store) *progress.Projector {
	t.Helper()
	pipeline, err := model.PipelineFor(jobType)
	require.NoError(t, err)
	return progress.NewProjector(pipeline, hist)
}

func TestProjectorNoHistoryNoProgress(t *testing.T) {
	hist := newHistory(t, model.JobTypePDF)
	projector := newProjector(t, model.JobTypePDF, hist)

	// First-ever run at 0%: better no number than a misleading one.
	_, ok := projector.Remaining(0, 0, 0, nil)
	assert.False(t, ok)
}

func TestProjectorRatioFallback(t *testing.T) {
	hist := newHistory(t, model.JobTypePDF)
	projector := newProjector(t, model.JobTypePDF, hist)

	// No history but 25% done after 5s: projected total 20s, 15s left in the
	// stage, plus the fixed fallbacks of stages 1-3 (5+15+10 = 30s).
	remaining, ok := projector.Remaining(0, 25, 5*time.Second, nil)
	require.True(t, ok)
	assert.Equal(t, 45*time.Second, remaining)
}

func TestProjectorHistoryDriven(t *testing.T) {
	ctx := context.Background()
	hist := newHistory(t, model.JobTypePDF)
	projector := newProjector(t, model.JobTypePDF, hist)

	// Stage 0 history [4000, 5000], alpha 0.3: EMA = 4300ms. After 2000ms
	// elapsed, 2300ms remain, plus 30s of fallbacks for stages 1-3.
	hist.RecordStage(ctx, 0, 4*time.Second)
	hist.RecordStage(ctx, 0, 5*time.Second)

	remaining, ok := projector.Remaining(0, 10, 2*time.Second, nil)
	require.True(t, ok)
	assert.Equal(t, 2300*time.Millisecond+30*time.Second, remaining)
}

func TestProjectorFasterThanHistoryClampsToZero(t *testing.T) {
	ctx := context.Background()
	hist := newHistory(t, model.JobTypePDF)
	projector := newProjector(t, model.JobTypePDF, hist)

	hist.RecordStage(ctx, 3, 2*time.Second)

	// Final stage already ran longer than its estimate: clamp, don't go
	// negative.
	remaining, ok := projector.Remaining(3, 90, 10*time.Second, nil)
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), remaining)
}

func TestProjectorFutureStagesUseHistoryWhenPresent(t *testing.T) {
	ctx := context.Background()
	hist := newHistory(t, model.JobTypePDF)
	projector := newProjector(t, model.JobTypePDF, hist)

	hist.RecordStage(ctx, 0, 4*time.Second)
	hist.RecordStage(ctx, 2, 6*time.Second)

	// Active stage 0: 4s EMA minus 1s elapsed = 3s. Stage 1 falls back to 5s,
	// stage 2 uses its 6s history, stage 3 falls back to 10s.
	remaining, ok := projector.Remaining(0, 10, time.Second, nil)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second+5*time.Second+6*time.Second+10*time.Second, remaining)
}

func TestProjectorPerPage(t *testing.T) {
	ctx := context.Background()
	hist := newHistory(t, model.JobTypePDFToWord)
	projector := newProjector(t, model.JobTypePDFToWord, hist)

	// Page 1 history [3000, 3200], alpha 0.4: EMA = 3080ms. At 50% of page 1
	// with a single page, remaining OCR = 1540ms plus 1000ms of Word
	// generation for the page.
	hist.RecordPage(ctx, 1, 3000*time.Millisecond)
	hist.RecordPage(ctx, 1, 3200*time.Millisecond)

	pages := &progress.PageContext{Current: 1, Total: 1, Percent: 50}
	remaining, ok := projector.Remaining(1, 40, 2*time.Second, pages)
	require.True(t, ok)

	// Plus the 10s fallback of the final Word-generation stage.
	assert.Equal(t, 1540*time.Millisecond+1000*time.Millisecond+10*time.Second, remaining)
}

func TestProjectorPerPageUnknownPagesBorrowKnownEstimates(t *testing.T) {
	ctx := context.Background()
	hist := newHistory(t, model.JobTypePDFToWord)
	projector := newProjector(t, model.JobTypePDFToWord, hist)

	hist.RecordPage(ctx, 1, 2*time.Second)

	// 3 pages, on page 1 at 0%. Pages 2 and 3 have no history and borrow page
	// 1's 2s estimate. OCR: 2+2+2 = 6s, Word generation: 3s, final stage
	// fallback: 10s.
	pages := &progress.PageContext{Current: 1, Total: 3, Percent: 0}
	remaining, ok := projector.Remaining(1, 10, time.Second, pages)
	require.True(t, ok)
	assert.Equal(t, 6*time.Second+3*time.Second+10*time.Second, remaining)
}

func TestProjectorPerPageWithoutAnyPageHistoryFallsBack(t *testing.T) {
	ctx := context.Background()
	hist := newHistory(t, model.JobTypePDFToWord)
	projector := newProjector(t, model.JobTypePDFToWord, hist)

	hist.RecordStage(ctx, 1, 20*time.Second)

	// No per-page data at all: whole-stage EMA path applies instead.
	pages := &progress.PageContext{Current: 1, Total: 4, Percent: 25}
	remaining, ok := projector.Remaining(1, 25, 5*time.Second, pages)
	require.True(t, ok)
	assert.Equal(t, 15*time.Second+10*time.Second, remaining)
}

func TestProjectorUnknownStage(t *testing.T) {
	hist := newHistory(t, model.JobTypePDF)
	projector := newProjector(t, model.JobTypePDF, hist)

	_, ok := projector.Remaining(42, 50, time.Second, nil)
	assert.False(t, ok)
}
