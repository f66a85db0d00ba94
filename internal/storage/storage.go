package storage

import (
	"context"

	"github.com/aleixmp/jobpace/internal/model"
)

// Repository is the interface for duration-history persistence. Histories are
// bounded: implementations keep only the newest model.StageHistoryLimit stage
// samples per (job type, stage) and model.PageHistoryLimit page samples per
// (job type, page), evicting the oldest first.
type Repository interface {
	// ListStageDurations returns the recorded durations for a stage, oldest first.
	ListStageDurations(ctx context.Context, jobType model.JobType, stage model.StageID) ([]model.StageSample, error)
	// RecordStageDuration appends a realized stage duration.
	RecordStageDuration(ctx context.Context, sample model.StageSample) error
	// ListPageDurations returns the recorded durations for a page, oldest first.
	ListPageDurations(ctx context.Context, jobType model.JobType, page int) ([]model.PageSample, error)
	// RecordPageDuration appends a realized per-page duration.
	RecordPageDuration(ctx context.Context, sample model.PageSample) error
	// ListAllStageDurations returns every recorded stage sample for a job type,
	// oldest first per stage.
	ListAllStageDurations(ctx context.Context, jobType model.JobType) ([]model.StageSample, error)
	// ClearHistory removes all recorded samples for a job type, or for every
	// job type when jobType is empty.
	ClearHistory(ctx context.Context, jobType model.JobType) error
}
