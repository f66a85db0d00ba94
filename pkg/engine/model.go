package engine

import (
	"context"

	"github.com/aleixmp/jobpace/internal/model"
	"github.com/aleixmp/jobpace/internal/progress"
)

// JobType identifies a report generation workflow.
type JobType = model.JobType

const (
	// JobTypeHTML generates an HTML report.
	JobTypeHTML = model.JobTypeHTML
	// JobTypePDF generates a PDF report.
	JobTypePDF = model.JobTypePDF
	// JobTypeDOCX generates a Word report.
	JobTypeDOCX = model.JobTypeDOCX
	// JobTypePDFToWord converts a PDF into a Word document using per-page OCR.
	JobTypePDFToWord = model.JobTypePDFToWord
)

// JobRequest is a job submission.
type JobRequest = model.JobRequest

// JobResult is the final outcome of a completed job.
type JobResult = model.JobResult

// SubmitResult is the backend's answer to a job submission.
type SubmitResult = model.SubmitResult

// PollStatus is the raw backend status payload for a polled session.
type PollStatus = model.PollStatus

// StageSummary aggregates the recorded history of one stage.
type StageSummary = model.StageSummary

// Update is one progress emission: reconciled percentage, stage labeling and
// the projected remaining time (nil while no estimate is possible).
type Update = progress.Update

// APIClient is the backend transport used by the SDK. Implement it to stub
// the backend in tests, the default is an HTTP client against Config.APIURL.
type APIClient interface {
	Submit(ctx context.Context, req JobRequest) (*SubmitResult, error)
	Poll(ctx context.Context, sessionID string) (*PollStatus, error)
}

// Sentinel errors returned by the SDK, inspectable with errors.Is.
var (
	// ErrNotValid is returned on invalid input.
	ErrNotValid = model.ErrNotValid
	// ErrJobFailed is returned when the backend reports a job failure.
	ErrJobFailed = model.ErrJobFailed
	// ErrSessionExpired is returned when the backend no longer knows a session.
	ErrSessionExpired = model.ErrSessionExpired
)
