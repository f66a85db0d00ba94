package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/aleixmp/jobpace/internal/app/historyclear"
	"github.com/aleixmp/jobpace/internal/model"
	"github.com/aleixmp/jobpace/internal/printer"
	"github.com/aleixmp/jobpace/internal/storage/sqlite"
)

// HistoryClearCommand deletes recorded stage durations.
type HistoryClearCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	jobType string
}

// NewHistoryClearCommand returns the history clear command.
func NewHistoryClearCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryClearCommand {
	c := &HistoryClearCommand{rootCmd: rootCmd}

	c.Cmd = historyCmd.Command("clear", "Delete recorded duration history.")
	c.Cmd.Flag("type", "Job type to clear, all types when omitted.").Short('t').EnumVar(&c.jobType,
		string(model.JobTypeHTML), string(model.JobTypePDF), string(model.JobTypeDOCX), string(model.JobTypePDFToWord))

	return c
}

func (c HistoryClearCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryClearCommand) Run(ctx context.Context) error {
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

	// Create history clear service.
	svc, err := historyclear.NewService(historyclear.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// Execute clear.
	err = svc.Run(ctx, historyclear.Request{
		JobType: model.JobType(c.jobType),
	})
	if err != nil {
		return fmt.Errorf("could not clear history: %w", err)
	}

	// Print success message.
	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	msg := "Cleared duration history"
	if c.jobType != "" {
		msg = fmt.Sprintf("Cleared duration history for job type: %s", c.jobType)
	}
	if err := p.PrintMessage(msg); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
