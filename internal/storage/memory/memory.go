package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aleixmp/jobpace/internal/log"
	"github.com/aleixmp/jobpace/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

type stageKey struct {
	jobType model.JobType
	stage   model.StageID
}

type pageKey struct {
	jobType model.JobType
	page    int
}

// Repository is an in-memory implementation of storage.Repository. Histories
// don't survive the process, it exists for tests and for degraded runs where
// the durable store could not be opened.
type Repository struct {
	stages map[stageKey][]model.StageSample
	pages  map[pageKey][]model.PageSample
	mu     sync.RWMutex
	logger log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		stages: map[stageKey][]model.StageSample{},
		pages:  map[pageKey][]model.PageSample{},
		logger: cfg.Logger,
	}, nil
}

// ListStageDurations returns the recorded durations for a stage, oldest first.
func (r *Repository) ListStageDurations(ctx context.Context, jobType model.JobType, stage model.StageID) ([]model.StageSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	samples := r.stages[stageKey{jobType: jobType, stage: stage}]
	return append([]model.StageSample{}, samples...), nil
}

// RecordStageDuration appends a realized stage duration, evicting the oldest
// sample beyond the bound.
func (r *Repository) RecordStageDuration(ctx context.Context, sample model.StageSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := stageKey{jobType: sample.JobType, stage: sample.Stage}
	samples := append(r.stages[key], sample)
	if len(samples) > model.StageHistoryLimit {
		samples = samples[len(samples)-model.StageHistoryLimit:]
	}
	r.stages[key] = samples

	r.logger.Debugf("Recorded stage duration: %s stage %d (%s)", sample.JobType, sample.Stage, sample.Duration)
	return nil
}

// ListPageDurations returns the recorded durations for a page, oldest first.
func (r *Repository) ListPageDurations(ctx context.Context, jobType model.JobType, page int) ([]model.PageSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	samples := r.pages[pageKey{jobType: jobType, page: page}]
	return append([]model.PageSample{}, samples...), nil
}

// RecordPageDuration appends a realized per-page duration, evicting the oldest
// sample beyond the bound.
func (r *Repository) RecordPageDuration(ctx context.Context, sample model.PageSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pageKey{jobType: sample.JobType, page: sample.Page}
	samples := append(r.pages[key], sample)
	if len(samples) > model.PageHistoryLimit {
		samples = samples[len(samples)-model.PageHistoryLimit:]
	}
	r.pages[key] = samples

	return nil
}

// ListAllStageDurations returns every recorded stage sample for a job type.
func (r *Repository) ListAllStageDurations(ctx context.Context, jobType model.JobType) ([]model.StageSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := []model.StageSample{}
	for key, samples := range r.stages {
		if key.jobType != jobType {
			continue
		}
		all = append(all, samples...)
	}

	// Stable order: by stage, then insertion (recording) time.
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Stage != all[j].Stage {
			return all[i].Stage < all[j].Stage
		}
		return all[i].RecordedAt.Before(all[j].RecordedAt)
	})

	return all, nil
}

// ClearHistory removes all recorded samples for a job type, or everything when
// jobType is empty.
func (r *Repository) ClearHistory(ctx context.Context, jobType model.JobType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if jobType == "" {
		r.stages = map[stageKey][]model.StageSample{}
		r.pages = map[pageKey][]model.PageSample{}
		return nil
	}

	for key := range r.stages {
		if key.jobType == jobType {
			delete(r.stages, key)
		}
	}
	for key := range r.pages {
		if key.jobType == jobType {
			delete(r.pages, key)
		}
	}

	return nil
}
