// Package client implements the HTTP client for the remote report-generation
// job API: job submission and session status polling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aleixmp/jobpace/internal/log"
	"github.com/aleixmp/jobpace/internal/model"
)

// Client knows how to talk to the job API.
type Client interface {
	// Submit sends a job for processing. The call may block until the job is
	// done (synchronous job types, no session id) or return a session id for
	// status polling.
	Submit(ctx context.Context, req model.JobRequest) (*model.SubmitResult, error)
	// Poll fetches the current status of an asynchronous session. A session
	// unknown to the backend returns model.ErrSessionExpired.
	Poll(ctx context.Context, sessionID string) (*model.PollStatus, error)
}

// HTTPClientConfig is the configuration for the HTTP client.
type HTTPClientConfig struct {
	BaseURL string
	Client  *http.Client
	Logger  log.Logger
}

func (c *HTTPClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 5 * time.Minute}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "client.HTTP"})
	return nil
}

// HTTPClient is the HTTP implementation of Client.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  log.Logger
}

// NewHTTPClient creates a new job API HTTP client.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &HTTPClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  cfg.Client,
		logger:  cfg.Logger,
	}, nil
}

var submitPaths = map[model.JobType]string{
	model.JobTypeHTML:      "/api/process",
	model.JobTypePDF:       "/api/generate-pdf",
	model.JobTypeDOCX:      "/api/generate-docx",
	model.JobTypePDFToWord: "/api/process-word-template",
}

type submitRequestDTO struct {
	InputPath  string            `json:"input_path"`
	TemplateID string            `json:"template_id,omitempty"`
	Options    map[string]string `json:"options,omitempty"`
}

type submitResponseDTO struct {
	Success   bool   `json:"success"`
	OutputRef string `json:"output_ref"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Error     string `json:"error"`
}

// Submit sends a job for processing.
func (c *HTTPClient) Submit(ctx context.Context, req model.JobRequest) (*model.SubmitResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job request: %w", err)
	}

	path, ok := submitPaths[req.Type]
	if !ok {
		return nil, fmt.Errorf("job type %q has no submit endpoint: %w", req.Type, model.ErrNotValid)
	}

	body, err := json.Marshal(submitRequestDTO{
		InputPath:  req.InputPath,
		TemplateID: req.TemplateID,
		Options:    req.Options,
	})
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debugf("Submitting %s job to %s", req.Type, path)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("could not submit job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("job submission returned status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var dto submitResponseDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}
	if !dto.Success {
		reason := dto.Error
		if reason == "" {
			reason = dto.Message
		}
		return nil, fmt.Errorf("%s: %w", reason, model.ErrJobFailed)
	}

	return &model.SubmitResult{
		OutputRef: dto.OutputRef,
		SessionID: dto.SessionID,
		Message:   dto.Message,
	}, nil
}

type pollResponseDTO struct {
	Progress float64          `json:"progress"`
	Stage    int              `json:"stage"`
	StepName string           `json:"step_name"`
	Message  string           `json:"message"`
	PageInfo *pageInfoDTO     `json:"page_info"`
	PagePct  float64          `json:"page_progress"`
	Timings  map[string]int64 `json:"page_timings"`
	Result   *jobResultDTO    `json:"result"`
	Error    string           `json:"error"`
}

type pageInfoDTO struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

type jobResultDTO struct {
	OutputRef string `json:"output_ref"`
	Message   string `json:"message"`
}

// Poll fetches the current status of an asynchronous session.
func (c *HTTPClient) Poll(ctx context.Context, sessionID string) (*model.PollStatus, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required: %w", model.ErrNotValid)
	}

	reqURL := fmt.Sprintf("%s/api/generation-progress/%s", c.baseURL, url.PathEscape(sessionID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("could not poll status: %w", err)
	}
	defer resp.Body.Close()

	// The backend drops finished or abandoned sessions: an unknown session is
	// an expired one, not a transport failure.
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrSessionExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status poll returned status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var dto pollResponseDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}

	status := &model.PollStatus{
		Progress:    dto.Progress,
		Stage:       model.StageID(dto.Stage),
		StepName:    dto.StepName,
		Message:     dto.Message,
		PagePercent: dto.PagePct,
		Err:         dto.Error,
	}
	if dto.PageInfo != nil {
		status.Page = &model.PageInfo{Current: dto.PageInfo.Current, Total: dto.PageInfo.Total}
	}
	if len(dto.Timings) > 0 {
		status.PageTimings = map[int]time.Duration{}
		for pageStr, ms := range dto.Timings {
			page, err := strconv.Atoi(pageStr)
			if err != nil {
				c.logger.Warningf("Ignoring malformed page timing key %q", pageStr)
				continue
			}
			status.PageTimings[page] = time.Duration(ms) * time.Millisecond
		}
	}
	if dto.Result != nil {
		status.Result = &model.JobResult{OutputRef: dto.Result.OutputRef, Message: dto.Result.Message}
	}

	return status, nil
}

func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(body) == 0 {
		return "no details"
	}
	return string(body)
}
