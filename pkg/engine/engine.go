package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aleixmp/jobpace/internal/app/historyclear"
	"github.com/aleixmp/jobpace/internal/app/historylist"
	"github.com/aleixmp/jobpace/internal/app/runjob"
	"github.com/aleixmp/jobpace/internal/client"
	"github.com/aleixmp/jobpace/internal/conventions"
	"github.com/aleixmp/jobpace/internal/log"
	"github.com/aleixmp/jobpace/internal/progress"
	"github.com/aleixmp/jobpace/internal/storage"
	"github.com/aleixmp/jobpace/internal/storage/sqlite"
)

// Config configures the SDK client.
//
// Either APIURL or APIClient is required for running jobs, everything else
// has sensible defaults.
type Config struct {
	// APIURL is the base URL of the report generation API.
	APIURL string

	// APIClient overrides the default HTTP transport built from APIURL.
	// Set this to a stub implementation for testing.
	APIClient APIClient

	// DBPath is the SQLite duration history database path.
	// Default: ~/.jobpace/jobpace.db.
	DBPath string

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger

	// PollInterval is the status polling period for asynchronous jobs.
	// Default: 500ms.
	PollInterval time.Duration
}

func (c *Config) defaults() error {
	if c.APIClient == nil && c.APIURL == "" {
		return fmt.Errorf("api url or api client is required")
	}

	if c.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DBPath = conventions.DBPath(filepath.Join(home, conventions.DefaultDataDir))
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point for running jobs programmatically.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	api          APIClient
	repo         storage.Repository
	logger       log.Logger
	pollInterval time.Duration
	closeFn      func() error
}

// New creates a new SDK client backed by a SQLite duration history database.
//
// The caller must call [Client.Close] when done to release the database
// connection. Typically used with defer:
//
//	client, err := engine.New(ctx, engine.Config{APIURL: "https://reports.example.com"})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	api := cfg.APIClient
	if api == nil {
		httpClient, err := client.NewHTTPClient(client.HTTPClientConfig{
			BaseURL: cfg.APIURL,
			Logger:  cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create API client: %w", err)
		}
		api = httpClient
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: cfg.DBPath,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	return &Client{
		api:          api,
		repo:         repo,
		logger:       cfg.Logger,
		pollInterval: cfg.PollInterval,
		closeFn:      repo.Close,
	}, nil
}

// Close releases resources held by the client, including the database connection.
// After Close returns, the client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

// RunJob submits a job and tracks it until completion, failure or context
// cancellation. Every progress emission is delivered to onUpdate, which may
// be nil when the caller only wants the final result.
//
// Realized stage durations of the run are recorded into the history database
// and improve the estimates of later runs.
func (c *Client) RunJob(ctx context.Context, req JobRequest, onUpdate func(Update)) (*JobResult, error) {
	if onUpdate == nil {
		onUpdate = func(Update) {}
	}

	svc, err := runjob.NewService(runjob.ServiceConfig{
		Client:       c.api,
		Repository:   c.repo,
		Notifier:     progress.NotifierFunc(onUpdate),
		Logger:       c.logger,
		PollInterval: c.pollInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create run service: %w", err)
	}

	return svc.Run(ctx, runjob.Request{Job: req})
}

// History returns every pipeline stage of the job type with its recorded
// samples and smoothed estimate. Stages without recorded history appear with
// no samples and a nil estimate.
func (c *Client) History(ctx context.Context, t JobType) ([]StageSummary, error) {
	svc, err := historylist.NewService(historylist.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create history service: %w", err)
	}

	return svc.Run(ctx, historylist.Request{JobType: t})
}

// ClearHistory deletes the recorded duration history of a job type. An empty
// job type clears the history of every job type.
func (c *Client) ClearHistory(ctx context.Context, t JobType) error {
	svc, err := historyclear.NewService(historyclear.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("could not create history service: %w", err)
	}

	return svc.Run(ctx, historyclear.Request{JobType: t})
}
