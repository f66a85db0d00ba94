package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleixmp/jobpace/internal/client"
	"github.com/aleixmp/jobpace/internal/model"
)

func newClient(t *testing.T, handler http.Handler) *client.HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := client.NewHTTPClient(client.HTTPClientConfig{BaseURL: server.URL})
	require.NoError(t, err)
	return c
}

func TestNewHTTPClient(t *testing.T) {
	_, err := client.NewHTTPClient(client.HTTPClientConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base url is required")
}

func TestSubmit(t *testing.T) {
	tests := map[string]struct {
		request    model.JobRequest
		handler    http.HandlerFunc
		expPath    string
		expErr     bool
		expErrIs   error
		expSession string
	}{
		"A pdf job posts to the pdf endpoint and returns a session": {
			request: model.JobRequest{Type: model.JobTypePDF, InputPath: "/tmp/q3.xlsx"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success":    true,
					"session_id": "sess-123",
				})
			},
			expPath:    "/api/generate-pdf",
			expSession: "sess-123",
		},
		"A synchronous job returns no session id": {
			request: model.JobRequest{Type: model.JobTypeHTML, InputPath: "/tmp/q3.xlsx"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success":    true,
					"output_ref": "reports/q3.html",
				})
			},
			expPath: "/api/process",
		},
		"A backend rejection maps to a job failure": {
			request: model.JobRequest{Type: model.JobTypeDOCX, InputPath: "/tmp/q3.xlsx"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"error":   "unsupported spreadsheet layout",
				})
			},
			expPath:  "/api/generate-docx",
			expErr:   true,
			expErrIs: model.ErrJobFailed,
		},
		"An invalid request fails before any network call": {
			request:  model.JobRequest{Type: model.JobTypePDF},
			handler:  func(w http.ResponseWriter, r *http.Request) { t.Fatal("should not be called") },
			expErr:   true,
			expErrIs: model.ErrNotValid,
		},
		"A server error surfaces the status": {
			request: model.JobRequest{Type: model.JobTypePDF, InputPath: "/tmp/q3.xlsx"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var gotPath string
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				test.handler(w, r)
			}))

			result, err := c.Submit(context.Background(), test.request)

			if test.expErr {
				require.Error(t, err)
				if test.expErrIs != nil {
					assert.ErrorIs(t, err, test.expErrIs)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expPath, gotPath)
			assert.Equal(t, test.expSession, result.SessionID)
		})
	}
}

func TestPoll(t *testing.T) {
	tests := map[string]struct {
		handler   http.HandlerFunc
		expErr    bool
		expErrIs  error
		expStatus *model.PollStatus
	}{
		"A regular progress payload maps to a status": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"progress":  42.5,
					"stage":     1,
					"step_name": "extracting markers",
					"page_info": map[string]int{"current": 2, "total": 5},
					"page_progress": 60,
					"page_timings":  map[string]int64{"1": 3000},
				})
			},
			expStatus: &model.PollStatus{
				Progress:    42.5,
				Stage:       1,
				StepName:    "extracting markers",
				Page:        &model.PageInfo{Current: 2, Total: 5},
				PagePercent: 60,
				PageTimings: map[int]time.Duration{1: 3 * time.Second},
			},
		},
		"A completed payload carries the result": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"progress": 100,
					"stage":    3,
					"result":   map[string]string{"output_ref": "reports/q3.pdf"},
				})
			},
			expStatus: &model.PollStatus{
				Progress: 100,
				Stage:    3,
				Result:   &model.JobResult{OutputRef: "reports/q3.pdf"},
			},
		},
		"An unknown session maps to session expired": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			expErr:   true,
			expErrIs: model.ErrSessionExpired,
		},
		"A backend error field is carried through": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"progress": 10,
					"stage":    0,
					"error":    "template rendering failed",
				})
			},
			expStatus: &model.PollStatus{
				Progress: 10,
				Stage:    0,
				Err:      "template rendering failed",
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/generation-progress/sess-1", r.URL.Path)
				test.handler(w, r)
			}))

			status, err := c.Poll(context.Background(), "sess-1")

			if test.expErr {
				require.Error(t, err)
				if test.expErrIs != nil {
					assert.ErrorIs(t, err, test.expErrIs)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expStatus, status)
		})
	}
}

func TestPollEmptySessionID(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not be called")
	}))

	_, err := c.Poll(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotValid)
}
