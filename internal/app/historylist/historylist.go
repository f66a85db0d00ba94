// Package historylist implements the history listing use case: the recorded
// per-stage duration samples of a job type with their smoothed estimates.
package historylist

import (
	"context"
	"fmt"
	"time"

	"github.com/aleixmp/jobpace/internal/log"
	"github.com/aleixmp/jobpace/internal/model"
	"github.com/aleixmp/jobpace/internal/progress"
	"github.com/aleixmp/jobpace/internal/storage"
)

// ServiceConfig is the configuration for the history list service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.HistoryList"})
	return nil
}

// Service handles history listing business logic.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new history list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{repo: cfg.Repository, logger: cfg.Logger}, nil
}

// Request are the options for listing history.
type Request struct {
	JobType model.JobType
}

// Run lists every pipeline stage of the job type with its recorded samples
// and smoothed estimate. Stages without history appear with no samples.
func (s *Service) Run(ctx context.Context, req Request) ([]model.StageSummary, error) {
	pipeline, err := model.PipelineFor(req.JobType)
	if err != nil {
		return nil, fmt.Errorf("invalid job type: %w", err)
	}

	samples, err := s.repo.ListAllStageDurations(ctx, req.JobType)
	if err != nil {
		return nil, fmt.Errorf("could not list stage durations: %w", err)
	}

	byStage := map[model.StageID][]time.Duration{}
	for _, sample := range samples {
		byStage[sample.Stage] = append(byStage[sample.Stage], sample.Duration)
	}

	summaries := make([]model.StageSummary, 0, len(pipeline))
	for _, stage := range pipeline {
		summary := model.StageSummary{
			JobType: req.JobType,
			Stage:   stage.ID,
			Label:   stage.Label,
			Samples: byStage[stage.ID],
		}
		if estimate, ok := progress.EMA(byStage[stage.ID], progress.StageAlpha); ok {
			summary.Estimate = &estimate
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}
