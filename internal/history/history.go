// Package history implements the bounded per-stage and per-page duration
// histories that feed remaining-time estimation. The store is in-memory first:
// it loads persisted samples at creation and writes through on every record,
// but a failing repository only degrades durability, never the current
// session's estimates.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aleixmp/jobpace/internal/log"
	"github.com/aleixmp/jobpace/internal/model"
	"github.com/aleixmp/jobpace/internal/storage"
)

// StoreConfig is the configuration for the history store.
type StoreConfig struct {
	JobType    model.JobType
	Repository storage.Repository
	Logger     log.Logger
	// NowFunc stamps recorded samples, defaults to time.Now.
	NowFunc func() time.Time
}

func (c *StoreConfig) defaults() error {
	if _, err := model.PipelineFor(c.JobType); err != nil {
		return err
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	if c.NowFunc == nil {
		c.NowFunc = time.Now
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "history.Store", "job-type": string(c.JobType)})
	return nil
}

// Store holds the duration histories of one job type.
type Store struct {
	jobType model.JobType
	repo    storage.Repository
	logger  log.Logger
	now     func() time.Time

	mu     sync.RWMutex
	stages map[model.StageID][]time.Duration
	pages  map[int][]time.Duration
}

// NewStore creates a history store for a job type, loading any persisted
// stage histories. A repository load failure is not fatal: the store starts
// empty and logs the problem.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Store{
		jobType: cfg.JobType,
		repo:    cfg.Repository,
		logger:  cfg.Logger,
		now:     cfg.NowFunc,
		stages:  map[model.StageID][]time.Duration{},
		pages:   map[int][]time.Duration{},
	}

	pipeline, err := model.PipelineFor(cfg.JobType)
	if err != nil {
		return nil, err
	}
	for _, stage := range pipeline {
		samples, err := cfg.Repository.ListStageDurations(ctx, cfg.JobType, stage.ID)
		if err != nil {
			cfg.Logger.Warningf("Could not load stage %d history, starting empty: %s", stage.ID, err)
			continue
		}
		for _, sample := range samples {
			s.stages[stage.ID] = appendBounded(s.stages[stage.ID], sample.Duration, model.StageHistoryLimit)
		}
	}

	return s, nil
}

// RecordStage appends a realized stage duration and writes it through to the
// repository. Persistence failures are logged and swallowed.
func (s *Store) RecordStage(ctx context.Context, stage model.StageID, d time.Duration) {
	if d < 0 {
		return
	}

	s.mu.Lock()
	s.stages[stage] = appendBounded(s.stages[stage], d, model.StageHistoryLimit)
	s.mu.Unlock()

	err := s.repo.RecordStageDuration(ctx, model.StageSample{
		JobType:    s.jobType,
		Stage:      stage,
		Duration:   d,
		RecordedAt: s.now(),
	})
	if err != nil {
		s.logger.Warningf("Could not persist stage %d duration, keeping it in memory only: %s", stage, err)
	}
}

// RecordPage appends a realized per-page duration and writes it through to the
// repository. Persistence failures are logged and swallowed.
func (s *Store) RecordPage(ctx context.Context, page int, d time.Duration) {
	if d < 0 {
		return
	}

	s.mu.Lock()
	s.pages[page] = appendBounded(s.pages[page], d, model.PageHistoryLimit)
	s.mu.Unlock()

	err := s.repo.RecordPageDuration(ctx, model.PageSample{
		JobType:    s.jobType,
		Page:       page,
		Duration:   d,
		RecordedAt: s.now(),
	})
	if err != nil {
		s.logger.Warningf("Could not persist page %d duration, keeping it in memory only: %s", page, err)
	}
}

// LoadPage loads a page's persisted history on demand. Pages are sparse, so
// unlike stage histories they are not loaded up front.
func (s *Store) LoadPage(ctx context.Context, page int) {
	s.mu.RLock()
	_, loaded := s.pages[page]
	s.mu.RUnlock()
	if loaded {
		return
	}

	samples, err := s.repo.ListPageDurations(ctx, s.jobType, page)
	if err != nil {
		s.logger.Warningf("Could not load page %d history, starting empty: %s", page, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, loaded := s.pages[page]; loaded {
		return
	}
	durations := []time.Duration{}
	for _, sample := range samples {
		durations = appendBounded(durations, sample.Duration, model.PageHistoryLimit)
	}
	s.pages[page] = durations
}

// StageHistory returns the recorded durations for a stage, oldest first.
func (s *Store) StageHistory(stage model.StageID) []time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]time.Duration{}, s.stages[stage]...)
}

// PageHistory returns the recorded durations for a page, oldest first.
func (s *Store) PageHistory(page int) []time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]time.Duration{}, s.pages[page]...)
}

// Pages returns the page numbers with recorded history.
func (s *Store) Pages() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pages := make([]int, 0, len(s.pages))
	for page, durations := range s.pages {
		if len(durations) > 0 {
			pages = append(pages, page)
		}
	}
	return pages
}

func appendBounded(samples []time.Duration, d time.Duration, limit int) []time.Duration {
	samples = append(samples, d)
	if len(samples) > limit {
		samples = samples[len(samples)-limit:]
	}
	return samples
}
