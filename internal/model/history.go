package model

import "time"

const (
	// StageHistoryLimit is the bounded amount of realized stage durations kept
	// per stage (FIFO, newest kept).
	StageHistoryLimit = 5
	// PageHistoryLimit is the bounded amount of realized per-page durations
	// kept per page (FIFO, newest kept).
	PageHistoryLimit = 10
)

// StageSample is one realized stage duration of a finished stage run.
type StageSample struct {
	JobType    JobType
	Stage      StageID
	Duration   time.Duration
	RecordedAt time.Time
}

// PageSample is one realized per-page duration inside a page-bounded stage.
type PageSample struct {
	JobType    JobType
	Page       int
	Duration   time.Duration
	RecordedAt time.Time
}

// StageSummary aggregates the recorded history of one stage for display.
type StageSummary struct {
	JobType JobType
	Stage   StageID
	Label   string
	Samples []time.Duration
	// Estimate is the smoothed predicted duration, nil when no history exists.
	Estimate *time.Duration
}
