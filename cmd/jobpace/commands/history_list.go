package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/aleixmp/jobpace/internal/app/historylist"
	"github.com/aleixmp/jobpace/internal/model"
	"github.com/aleixmp/jobpace/internal/printer"
	"github.com/aleixmp/jobpace/internal/storage/sqlite"
)

// HistoryListCommand lists recorded stage durations.
type HistoryListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	jobType string
	format  string
}

// NewHistoryListCommand returns the history list command.
func NewHistoryListCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryListCommand {
	c := &HistoryListCommand{rootCmd: rootCmd}

	c.Cmd = historyCmd.Command("list", "List recorded stage durations and estimates.")
	c.Cmd.Flag("type", "Job type (html, pdf, docx, pdf-to-word).").Short('t').Default(string(model.JobTypeHTML)).EnumVar(&c.jobType,
		string(model.JobTypeHTML), string(model.JobTypePDF), string(model.JobTypeDOCX), string(model.JobTypePDFToWord))
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c HistoryListCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryListCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	// Create history list service.
	svc, err := historylist.NewService(historylist.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// Execute list.
	summaries, err := svc.Run(ctx, historylist.Request{
		JobType: model.JobType(c.jobType),
	})
	if err != nil {
		return fmt.Errorf("could not list history: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintHistory(summaries); err != nil {
		return fmt.Errorf("could not print history: %w", err)
	}

	return nil
}
