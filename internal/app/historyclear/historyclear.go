// Package historyclear implements the history clearing use case.
package historyclear

import (
	"context"
	"fmt"

	"github.com/aleixmp/jobpace/internal/log"
	"github.com/aleixmp/jobpace/internal/model"
	"github.com/aleixmp/jobpace/internal/storage"
)

// ServiceConfig is the configuration for the history clear service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.HistoryClear"})
	return nil
}

// Service handles history clearing business logic.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new history clear service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{repo: cfg.Repository, logger: cfg.Logger}, nil
}

// Request are the options for clearing history. An empty job type clears the
// history of every job type.
type Request struct {
	JobType model.JobType
}

// Run clears the recorded duration history.
func (s *Service) Run(ctx context.Context, req Request) error {
	if req.JobType != "" {
		if _, err := model.PipelineFor(req.JobType); err != nil {
			return fmt.Errorf("invalid job type: %w", err)
		}
	}

	if err := s.repo.ClearHistory(ctx, req.JobType); err != nil {
		return fmt.Errorf("could not clear history: %w", err)
	}

	s.logger.Infof("Cleared duration history (job type: %q)", req.JobType)
	return nil
}
