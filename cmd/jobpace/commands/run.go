package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v3"

	"github.com/aleixmp/jobpace/internal/app/runjob"
	"github.com/aleixmp/jobpace/internal/client"
	"github.com/aleixmp/jobpace/internal/model"
	"github.com/aleixmp/jobpace/internal/printer"
	"github.com/aleixmp/jobpace/internal/storage/sqlite"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	jobType     string
	inputPath   string
	templateID  string
	options     map[string]string
	requestFile string
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd, options: map[string]string{}}

	c.Cmd = app.Command("run", "Submit a job and track its progress until it finishes.")
	c.Cmd.Flag("type", "Job type (html, pdf, docx, pdf-to-word).").Short('t').EnumVar(&c.jobType,
		string(model.JobTypeHTML), string(model.JobTypePDF), string(model.JobTypeDOCX), string(model.JobTypePDFToWord))
	c.Cmd.Flag("template", "Server-side template ID (empty means server default).").StringVar(&c.templateID)
	c.Cmd.Flag("option", "Extra job option as key=value, repeatable.").StringMapVar(&c.options)
	c.Cmd.Flag("request-file", "YAML file with job request defaults, overridden by flags.").StringVar(&c.requestFile)
	c.Cmd.Arg("input", "Input file path sent to the backend.").StringVar(&c.inputPath)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Assemble the job request (file defaults first, flags win).
	req, err := c.jobRequest()
	if err != nil {
		return fmt.Errorf("could not build job request: %w", err)
	}

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	// Initialize API client.
	apiClient, err := client.NewHTTPClient(client.HTTPClientConfig{
		BaseURL: c.rootCmd.APIURL,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create API client: %w", err)
	}

	// Create run service with a terminal progress renderer.
	renderer := printer.NewProgressRenderer(c.rootCmd.Stdout, c.rootCmd.NoColor)
	svc, err := runjob.NewService(runjob.ServiceConfig{
		Client:     apiClient,
		Repository: repo,
		Notifier:   renderer,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// Execute run.
	_, err = svc.Run(ctx, runjob.Request{Job: req})
	if err != nil {
		return fmt.Errorf("could not run job: %w", err)
	}

	return nil
}

// requestFileSpec mirrors the job request fields accepted in a request file.
type requestFileSpec struct {
	Type     string            `yaml:"type"`
	Input    string            `yaml:"input"`
	Template string            `yaml:"template"`
	Options  map[string]string `yaml:"options"`
}

// jobRequest merges request file defaults with command line flags, flags take
// precedence field by field.
func (c RunCommand) jobRequest() (model.JobRequest, error) {
	req := model.JobRequest{
		Type:       model.JobType(c.jobType),
		InputPath:  c.inputPath,
		TemplateID: c.templateID,
		Options:    map[string]string{},
	}

	if c.requestFile != "" {
		data, err := os.ReadFile(c.requestFile)
		if err != nil {
			return req, fmt.Errorf("could not read request file: %w", err)
		}

		var spec requestFileSpec
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return req, fmt.Errorf("could not parse request file: %w", err)
		}

		if req.Type == "" {
			req.Type = model.JobType(spec.Type)
		}
		if req.InputPath == "" {
			req.InputPath = spec.Input
		}
		if req.TemplateID == "" {
			req.TemplateID = spec.Template
		}
		for k, v := range spec.Options {
			req.Options[k] = v
		}
	}

	// Flag options win over file options.
	for k, v := range c.options {
		req.Options[k] = v
	}

	if err := req.Validate(); err != nil {
		return req, err
	}

	return req, nil
}
