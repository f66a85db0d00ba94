package model

import (
	"fmt"
	"time"
)

// JobType identifies a job workflow, each with its own stage pipeline.
type JobType string

const (
	// JobTypeHTML generates an HTML report.
	JobTypeHTML JobType = "html"
	// JobTypePDF generates a PDF report.
	JobTypePDF JobType = "pdf"
	// JobTypeDOCX generates a DOCX report.
	JobTypeDOCX JobType = "docx"
	// JobTypePDFToWord converts a PDF into a Word document using per-page OCR.
	JobTypePDFToWord JobType = "pdf-to-word"
)

// StageID identifies one phase of a job pipeline. IDs are ordered: a job only
// moves forward through its pipeline.
type StageID int

// Stage is one named phase of a job pipeline.
type Stage struct {
	ID    StageID
	Label string
	// FallbackDuration is the projected duration used when there is no
	// recorded history for the stage yet (a first-ever run must still show a
	// plausible estimate).
	FallbackDuration time.Duration
	// PageBounded marks stages whose work is split into per-page units (OCR),
	// where per-page timing signals beat whole-stage ratio projection.
	PageBounded bool
}

// Pipeline is the ordered stage list of a job type.
type Pipeline []Stage

// Stage returns the stage with the given id.
func (p Pipeline) Stage(id StageID) (Stage, bool) {
	for _, s := range p {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

// After returns the stages that come after the given stage id, in order.
func (p Pipeline) After(id StageID) []Stage {
	after := []Stage{}
	for _, s := range p {
		if s.ID > id {
			after = append(after, s)
		}
	}
	return after
}

var reportPipeline = Pipeline{
	{ID: 0, Label: "Preparing files", FallbackDuration: 30 * time.Second},
	{ID: 1, Label: "Analyzing data", FallbackDuration: 5 * time.Second},
	{ID: 2, Label: "Filling template", FallbackDuration: 15 * time.Second},
	{ID: 3, Label: "Generating result", FallbackDuration: 10 * time.Second},
}

var ocrPipeline = Pipeline{
	{ID: 0, Label: "Preparing document", FallbackDuration: 5 * time.Second},
	{ID: 1, Label: "Recognizing pages", FallbackDuration: 20 * time.Second, PageBounded: true},
	{ID: 2, Label: "Generating Word document", FallbackDuration: 10 * time.Second},
}

// PipelineFor returns the stage pipeline of a job type.
func PipelineFor(t JobType) (Pipeline, error) {
	switch t {
	case JobTypeHTML, JobTypePDF, JobTypeDOCX:
		return reportPipeline, nil
	case JobTypePDFToWord:
		return ocrPipeline, nil
	}
	return nil, fmt.Errorf("unknown job type %q: %w", t, ErrNotValid)
}

// JobRequest is a job submission.
type JobRequest struct {
	Type      JobType
	InputPath string
	// TemplateID selects a server-side template, empty means server default.
	TemplateID string
	Options    map[string]string
}

// Validate validates the job request.
func (r *JobRequest) Validate() error {
	if _, err := PipelineFor(r.Type); err != nil {
		return err
	}
	if r.InputPath == "" {
		return fmt.Errorf("input path is required: %w", ErrNotValid)
	}
	return nil
}

// SubmitResult is the backend's answer to a job submission. SessionID is empty
// for job types the backend handles synchronously, in that case OutputRef is
// already final.
type SubmitResult struct {
	OutputRef string
	SessionID string
	Message   string
}

// JobResult is the final outcome of a completed job.
type JobResult struct {
	OutputRef string
	Message   string
}
