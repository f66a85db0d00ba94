package printer

import "github.com/aleixmp/jobpace/internal/model"

// Printer knows how to print job information in different formats.
type Printer interface {
	PrintHistory(summaries []model.StageSummary) error
	PrintStatus(status model.PollStatus) error
	PrintMessage(msg string) error
}
