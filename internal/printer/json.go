package printer

import (
	"encoding/json"
	"io"

	"github.com/aleixmp/jobpace/internal/model"
)

// JSONPrinter prints job information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// historyItem represents one stage summary in the history output.
type historyItem struct {
	JobType    string  `json:"job_type"`
	Stage      int     `json:"stage"`
	Label      string  `json:"label"`
	SamplesMS  []int64 `json:"samples_ms"`
	EstimateMS *int64  `json:"estimate_ms"`
}

// statusOutput represents a point-in-time poll status output.
type statusOutput struct {
	Progress float64     `json:"progress"`
	Stage    int         `json:"stage"`
	StepName string      `json:"step_name,omitempty"`
	Page     *pageOutput `json:"page,omitempty"`
	Result   string      `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// pageOutput represents page position inside a page-bounded stage.
type pageOutput struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintHistory prints recorded stage durations in JSON format.
func (j *JSONPrinter) PrintHistory(summaries []model.StageSummary) error {
	items := make([]historyItem, len(summaries))
	for i, s := range summaries {
		samples := make([]int64, len(s.Samples))
		for k, sample := range s.Samples {
			samples[k] = sample.Milliseconds()
		}

		items[i] = historyItem{
			JobType:   string(s.JobType),
			Stage:     int(s.Stage),
			Label:     s.Label,
			SamplesMS: samples,
		}

		if s.Estimate != nil {
			ms := s.Estimate.Milliseconds()
			items[i].EstimateMS = &ms
		}
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// PrintStatus prints a poll status in JSON format.
func (j *JSONPrinter) PrintStatus(status model.PollStatus) error {
	output := statusOutput{
		Progress: status.Progress,
		Stage:    int(status.Stage),
		StepName: status.StepName,
		Error:    status.Err,
	}

	if status.Page != nil {
		output.Page = &pageOutput{Current: status.Page.Current, Total: status.Page.Total}
	}

	if status.Result != nil {
		output.Result = status.Result.OutputRef
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	output := messageOutput{Message: msg}
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
