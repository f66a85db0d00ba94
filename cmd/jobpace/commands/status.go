package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/aleixmp/jobpace/internal/client"
	"github.com/aleixmp/jobpace/internal/printer"
)

type StatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	sessionID string
	format    string
}

// NewStatusCommand returns the status command.
func NewStatusCommand(rootCmd *RootCommand, app *kingpin.Application) *StatusCommand {
	c := &StatusCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("status", "Get the current backend status of a session.")
	c.Cmd.Arg("session-id", "Session ID returned on submission.").Required().StringVar(&c.sessionID)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c StatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c StatusCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Initialize API client.
	apiClient, err := client.NewHTTPClient(client.HTTPClientConfig{
		BaseURL: c.rootCmd.APIURL,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create API client: %w", err)
	}

	// Execute a single poll.
	status, err := apiClient.Poll(ctx, c.sessionID)
	if err != nil {
		return fmt.Errorf("could not get session status: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintStatus(*status); err != nil {
		return fmt.Errorf("could not print status: %w", err)
	}

	return nil
}
