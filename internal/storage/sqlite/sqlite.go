package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aleixmp/jobpace/internal/log"
	"github.com/aleixmp/jobpace/internal/model"
	"github.com/aleixmp/jobpace/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository. It keeps the
// bounded per-key histories by pruning on every insert, so the database never
// grows beyond the bounds regardless of how many jobs run.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// ListStageDurations returns the recorded durations for a stage, oldest first.
func (r *Repository) ListStageDurations(ctx context.Context, jobType model.JobType, stage model.StageID) ([]model.StageSample, error) {
	query := `
		SELECT job_type, stage_id, duration_ms, recorded_at
		FROM stage_durations
		WHERE job_type = ? AND stage_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, string(jobType), int(stage))
	if err != nil {
		return nil, fmt.Errorf("could not query stage durations: %w", err)
	}
	defer rows.Close()

	return scanStageSamples(rows)
}

// RecordStageDuration appends a realized stage duration and prunes the oldest
// samples beyond the per-stage bound.
func (r *Repository) RecordStageDuration(ctx context.Context, sample model.StageSample) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stage_durations (job_type, stage_id, duration_ms, recorded_at)
		VALUES (?, ?, ?, ?)
	`, string(sample.JobType), int(sample.Stage), sample.Duration.Milliseconds(), sample.RecordedAt.Unix())
	if err != nil {
		return fmt.Errorf("could not insert stage duration: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM stage_durations
		WHERE job_type = ? AND stage_id = ? AND id NOT IN (
			SELECT id FROM stage_durations
			WHERE job_type = ? AND stage_id = ?
			ORDER BY id DESC LIMIT ?
		)
	`, string(sample.JobType), int(sample.Stage), string(sample.JobType), int(sample.Stage), model.StageHistoryLimit)
	if err != nil {
		return fmt.Errorf("could not prune stage durations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Recorded stage duration: %s stage %d (%s)", sample.JobType, sample.Stage, sample.Duration)
	return nil
}

// ListPageDurations returns the recorded durations for a page, oldest first.
func (r *Repository) ListPageDurations(ctx context.Context, jobType model.JobType, page int) ([]model.PageSample, error) {
	query := `
		SELECT job_type, page, duration_ms, recorded_at
		FROM page_durations
		WHERE job_type = ? AND page = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, string(jobType), page)
	if err != nil {
		return nil, fmt.Errorf("could not query page durations: %w", err)
	}
	defer rows.Close()

	samples := []model.PageSample{}
	for rows.Next() {
		var (
			jt         string
			pg         int
			durationMs int64
			recordedAt int64
		)
		if err := rows.Scan(&jt, &pg, &durationMs, &recordedAt); err != nil {
			return nil, fmt.Errorf("could not scan page duration: %w", err)
		}
		samples = append(samples, model.PageSample{
			JobType:    model.JobType(jt),
			Page:       pg,
			Duration:   time.Duration(durationMs) * time.Millisecond,
			RecordedAt: time.Unix(recordedAt, 0).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate page durations: %w", err)
	}

	return samples, nil
}

// RecordPageDuration appends a realized per-page duration and prunes the
// oldest samples beyond the per-page bound.
func (r *Repository) RecordPageDuration(ctx context.Context, sample model.PageSample) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO page_durations (job_type, page, duration_ms, recorded_at)
		VALUES (?, ?, ?, ?)
	`, string(sample.JobType), sample.Page, sample.Duration.Milliseconds(), sample.RecordedAt.Unix())
	if err != nil {
		return fmt.Errorf("could not insert page duration: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM page_durations
		WHERE job_type = ? AND page = ? AND id NOT IN (
			SELECT id FROM page_durations
			WHERE job_type = ? AND page = ?
			ORDER BY id DESC LIMIT ?
		)
	`, string(sample.JobType), sample.Page, string(sample.JobType), sample.Page, model.PageHistoryLimit)
	if err != nil {
		return fmt.Errorf("could not prune page durations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// ListAllStageDurations returns every recorded stage sample for a job type.
func (r *Repository) ListAllStageDurations(ctx context.Context, jobType model.JobType) ([]model.StageSample, error) {
	query := `
		SELECT job_type, stage_id, duration_ms, recorded_at
		FROM stage_durations
		WHERE job_type = ?
		ORDER BY stage_id ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, string(jobType))
	if err != nil {
		return nil, fmt.Errorf("could not query stage durations: %w", err)
	}
	defer rows.Close()

	return scanStageSamples(rows)
}

// ClearHistory removes all recorded samples for a job type, or everything when
// jobType is empty.
func (r *Repository) ClearHistory(ctx context.Context, jobType model.JobType) error {
	stageQuery, pageQuery := `DELETE FROM stage_durations`, `DELETE FROM page_durations`
	args := []any{}
	if jobType != "" {
		stageQuery += ` WHERE job_type = ?`
		pageQuery += ` WHERE job_type = ?`
		args = append(args, string(jobType))
	}

	if _, err := r.db.ExecContext(ctx, stageQuery, args...); err != nil {
		return fmt.Errorf("could not clear stage durations: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, pageQuery, args...); err != nil {
		return fmt.Errorf("could not clear page durations: %w", err)
	}

	r.logger.Debugf("Cleared duration history (job type: %q)", jobType)
	return nil
}

func scanStageSamples(rows *sql.Rows) ([]model.StageSample, error) {
	samples := []model.StageSample{}
	for rows.Next() {
		var (
			jobType    string
			stageID    int
			durationMs int64
			recordedAt int64
		)
		if err := rows.Scan(&jobType, &stageID, &durationMs, &recordedAt); err != nil {
			return nil, fmt.Errorf("could not scan stage duration: %w", err)
		}
		samples = append(samples, model.StageSample{
			JobType:    model.JobType(jobType),
			Stage:      model.StageID(stageID),
			Duration:   time.Duration(durationMs) * time.Millisecond,
			RecordedAt: time.Unix(recordedAt, 0).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate stage durations: %w", err)
	}

	return samples, nil
}
