// Package runjob implements the run-job use case: submit a job to the backend,
// drive its progress engine and reconcile backend polling until the job ends.
package runjob

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aleixmp/jobpace/internal/client"
	"github.com/aleixmp/jobpace/internal/history"
	"github.com/aleixmp/jobpace/internal/log"
	"github.com/aleixmp/jobpace/internal/model"
	"github.com/aleixmp/jobpace/internal/progress"
	"github.com/aleixmp/jobpace/internal/storage"
)

// ServiceConfig is the configuration for the run-job service.
type ServiceConfig struct {
	Client     client.Client
	Repository storage.Repository
	Notifier   progress.Notifier
	Logger     log.Logger

	// PollInterval is the status polling period for asynchronous jobs.
	PollInterval time.Duration
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Notifier == nil {
		return fmt.Errorf("notifier is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	if c.PollInterval == 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.RunJob"})
	return nil
}

// Service handles the run-job business logic.
type Service struct {
	client       client.Client
	repo         storage.Repository
	notifier     progress.Notifier
	logger       log.Logger
	pollInterval time.Duration
}

// NewService creates a new run-job service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client:       cfg.Client,
		repo:         cfg.Repository,
		notifier:     cfg.Notifier,
		logger:       cfg.Logger,
		pollInterval: cfg.PollInterval,
	}, nil
}

// Request are the options for running a job.
type Request struct {
	Job model.JobRequest
}

type submitOutcome struct {
	result *model.SubmitResult
	err    error
}

// Run submits a job and tracks it until completion, failure or context
// cancellation. Progress updates flow to the configured notifier the whole
// time, teardown is unconditional on every exit path.
func (s *Service) Run(ctx context.Context, req Request) (*model.JobResult, error) {
	if err := req.Job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job: %w", err)
	}

	runID := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	logger := s.logger.WithValues(log.Kv{"run-id": runID, "job-type": string(req.Job.Type)})

	hist, err := history.NewStore(ctx, history.StoreConfig{
		JobType:    req.Job.Type,
		Repository: s.repo,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create history store: %w", err)
	}

	engine, err := progress.NewEngine(progress.EngineConfig{
		JobType:  req.Job.Type,
		History:  hist,
		Notifier: s.notifier,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create progress engine: %w", err)
	}

	engine.Start(ctx)
	defer engine.Stop()

	logger.Infof("Submitting %s job", req.Job.Type)

	// The submission call can block for the whole job on synchronous job
	// types, so it runs aside while the engine keeps the display alive.
	submitCh := make(chan submitOutcome, 1)
	go func() {
		result, err := s.client.Submit(ctx, req.Job)
		submitCh <- submitOutcome{result: result, err: err}
	}()

	poll := time.NewTicker(s.pollInterval)
	defer poll.Stop()

	sessionID := ""
	for {
		select {
		case <-ctx.Done():
			logger.Infof("Job cancelled")
			return nil, ctx.Err()

		case outcome := <-submitCh:
			if outcome.err != nil {
				engine.Apply(ctx, model.FailedSignal{Reason: outcome.err.Error()})
				return nil, fmt.Errorf("could not submit job: %w", outcome.err)
			}
			if outcome.result.SessionID == "" {
				// Synchronous job: the submit response is the final result.
				result := model.JobResult{OutputRef: outcome.result.OutputRef, Message: outcome.result.Message}
				engine.Apply(ctx, model.CompletedSignal{Result: result})
				logger.Infof("Job completed: %s", result.OutputRef)
				return &result, nil
			}
			sessionID = outcome.result.SessionID
			logger.Debugf("Polling session %s", sessionID)

		case <-poll.C:
			if sessionID == "" {
				continue
			}

			status, err := s.client.Poll(ctx, sessionID)
			if err != nil {
				if errors.Is(err, model.ErrSessionExpired) {
					engine.Apply(ctx, model.FailedSignal{Reason: "processing timed out, please retry"})
					return nil, fmt.Errorf("could not track job: %w", err)
				}
				// Transient poll failures retry on the next tick.
				logger.Warningf("Status poll failed, retrying: %s", err)
				continue
			}

			signal := status.Signal()
			engine.Apply(ctx, signal)

			switch sig := signal.(type) {
			case model.CompletedSignal:
				logger.Infof("Job completed: %s", sig.Result.OutputRef)
				return &sig.Result, nil
			case model.FailedSignal:
				return nil, fmt.Errorf("%s: %w", sig.Reason, model.ErrJobFailed)
			}
		}
	}
}
