package printer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aleixmp/jobpace/internal/model"
)

// TablePrinter prints job information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintHistory prints recorded stage durations in a table format.
func (t *TablePrinter) PrintHistory(summaries []model.StageSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header
	fmt.Fprintln(tw, "JOB TYPE\tSTAGE\tLABEL\tSAMPLES\tESTIMATE")

	// Print rows
	for _, s := range summaries {
		estimate := "-"
		if s.Estimate != nil {
			estimate = FormatDuration(*s.Estimate)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", s.JobType, s.Stage, s.Label, len(s.Samples), estimate)
	}

	return nil
}

// PrintStatus prints a point-in-time poll status.
func (t *TablePrinter) PrintStatus(status model.PollStatus) error {
	fmt.Fprintf(t.writer, "Progress:   %.0f%%\n", status.Progress)
	fmt.Fprintf(t.writer, "Stage:      %d\n", status.Stage)

	if status.StepName != "" {
		fmt.Fprintf(t.writer, "Step:       %s\n", status.StepName)
	}

	if status.Page != nil {
		fmt.Fprintf(t.writer, "Page:       %d/%d\n", status.Page.Current, status.Page.Total)
	}

	if status.Result != nil {
		fmt.Fprintf(t.writer, "Result:     %s\n", status.Result.OutputRef)
	}

	if status.Err != "" {
		fmt.Fprintf(t.writer, "Error:      %s\n", status.Err)
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
