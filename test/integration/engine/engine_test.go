package engine_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleixmp/jobpace/pkg/engine"
)

// fakeBackend simulates the report generation API: submissions open a session
// and every poll advances the scripted status sequence by one step.
type fakeBackend struct {
	mu       sync.Mutex
	statuses []map[string]any
	polls    int
	expired  bool
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	submit := func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"session_id": "sess-1",
			"message":    "Job accepted",
		})
	}
	mux.HandleFunc("/api/process", submit)
	mux.HandleFunc("/api/generate-pdf", submit)
	mux.HandleFunc("/api/process-word-template", submit)

	mux.HandleFunc("/api/generation-progress/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		if b.expired {
			http.NotFound(w, r)
			return
		}

		i := b.polls
		if i >= len(b.statuses) {
			i = len(b.statuses) - 1
		}
		b.polls++
		_ = json.NewEncoder(w).Encode(b.statuses[i])
	})

	return mux
}

func newTestClient(t *testing.T, backend *fakeBackend) *engine.Client {
	t.Helper()

	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	client, err := engine.New(context.Background(), engine.Config{
		APIURL:       server.URL,
		DBPath:       filepath.Join(t.TempDir(), "jobpace.db"),
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRunJobAgainstBackend(t *testing.T) {
	backend := &fakeBackend{statuses: []map[string]any{
		{"progress": 10, "stage": 0, "step_name": "upload"},
		{"progress": 40, "stage": 1, "step_name": "analyze"},
		{"progress": 80, "stage": 3},
		{
			"progress": 100, "stage": 3,
			"result": map[string]any{"output_ref": "/files/report.pdf", "message": "Report ready"},
		},
	}}
	client := newTestClient(t, backend)

	var mu sync.Mutex
	var updates []engine.Update
	result, err := client.RunJob(context.Background(), engine.JobRequest{
		Type:      engine.JobTypePDF,
		InputPath: "/reports/input.html",
	}, func(u engine.Update) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, u)
	})

	require.NoError(t, err)
	assert.Equal(t, "/files/report.pdf", result.OutputRef)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.True(t, last.Done)
	assert.Equal(t, float64(100), last.Percent)

	// Stage transitions seen during the run are recorded as history.
	summaries, err := client.History(context.Background(), engine.JobTypePDF)
	require.NoError(t, err)
	require.Len(t, summaries, 4)
	assert.NotEmpty(t, summaries[0].Samples)
}

func TestRunJobPageBoundedStage(t *testing.T) {
	backend := &fakeBackend{statuses: []map[string]any{
		{"progress": 10, "stage": 0},
		{
			"progress": 40, "stage": 1,
			"page_info":     map[string]any{"current": 1, "total": 3},
			"page_progress": 50,
		},
		{
			"progress": 60, "stage": 1,
			"page_info":     map[string]any{"current": 2, "total": 3},
			"page_progress": 20,
			"page_timings":  map[string]any{"1": 1200},
		},
		{
			"progress": 100, "stage": 2,
			"result": map[string]any{"output_ref": "/files/out.docx"},
		},
	}}
	client := newTestClient(t, backend)

	result, err := client.RunJob(context.Background(), engine.JobRequest{
		Type:      engine.JobTypePDFToWord,
		InputPath: "/reports/scan.pdf",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "/files/out.docx", result.OutputRef)
}

func TestRunJobExpiredSession(t *testing.T) {
	backend := &fakeBackend{expired: true}
	client := newTestClient(t, backend)

	_, err := client.RunJob(context.Background(), engine.JobRequest{
		Type:      engine.JobTypePDF,
		InputPath: "/reports/input.html",
	}, nil)

	assert.ErrorIs(t, err, engine.ErrSessionExpired)
}

func TestRunJobBackendFailure(t *testing.T) {
	backend := &fakeBackend{statuses: []map[string]any{
		{"progress": 10, "stage": 0},
		{"error": "template not found"},
	}}
	client := newTestClient(t, backend)

	_, err := client.RunJob(context.Background(), engine.JobRequest{
		Type:      engine.JobTypePDF,
		InputPath: "/reports/input.html",
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrJobFailed)
	assert.Contains(t, fmt.Sprintf("%v", err), "template not found")
}
