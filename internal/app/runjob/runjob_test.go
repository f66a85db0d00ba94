package runjob_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aleixmp/jobpace/internal/app/runjob"
	"github.com/aleixmp/jobpace/internal/client/clientmock"
	"github.com/aleixmp/jobpace/internal/model"
	"github.com/aleixmp/jobpace/internal/progress"
	"github.com/aleixmp/jobpace/internal/storage/memory"
)

type recordingNotifier struct {
	mu      sync.Mutex
	updates []progress.Update
}

func (n *recordingNotifier) Notify(u progress.Update) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, u)
}

func (n *recordingNotifier) Updates() []progress.Update {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]progress.Update{}, n.updates...)
}

func newService(t *testing.T, c *clientmock.MockClient) (*runjob.Service, *recordingNotifier, *memory.Repository) {
	t.Helper()

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	svc, err := runjob.NewService(runjob.ServiceConfig{
		Client:       c,
		Repository:   repo,
		Notifier:     notifier,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	return svc, notifier, repo
}

func TestNewService(t *testing.T) {
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	notifier := &recordingNotifier{}

	tests := map[string]struct {
		cfg    runjob.ServiceConfig
		expErr string
	}{
		"Valid config": {
			cfg: runjob.ServiceConfig{Client: &clientmock.MockClient{}, Repository: repo, Notifier: notifier},
		},
		"Missing client returns error": {
			cfg:    runjob.ServiceConfig{Repository: repo, Notifier: notifier},
			expErr: "client is required",
		},
		"Missing repository returns error": {
			cfg:    runjob.ServiceConfig{Client: &clientmock.MockClient{}, Notifier: notifier},
			expErr: "repository is required",
		},
		"Missing notifier returns error": {
			cfg:    runjob.ServiceConfig{Client: &clientmock.MockClient{}, Repository: repo},
			expErr: "notifier is required",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			svc, err := runjob.NewService(test.cfg)
			if test.expErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), test.expErr)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestRunSynchronousJob(t *testing.T) {
	c := &clientmock.MockClient{}
	c.On("Submit", mock.Anything, mock.Anything).
		Return(&model.SubmitResult{OutputRef: "reports/q3.html"}, nil)

	svc, notifier, _ := newService(t, c)

	result, err := svc.Run(context.Background(), runjob.Request{
		Job: model.JobRequest{Type: model.JobTypeHTML, InputPath: "/tmp/q3.xlsx"},
	})

	require.NoError(t, err)
	assert.Equal(t, "reports/q3.html", result.OutputRef)

	updates := notifier.Updates()
	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.True(t, last.Done)
	assert.Equal(t, float64(100), last.Percent)
	c.AssertExpectations(t)
}

func TestRunPolledJobCompletes(t *testing.T) {
	c := &clientmock.MockClient{}
	c.On("Submit", mock.Anything, mock.Anything).
		Return(&model.SubmitResult{SessionID: "sess-1"}, nil)
	c.On("Poll", mock.Anything, "sess-1").
		Return(&model.PollStatus{Progress: 50, Stage: 1, StepName: "filling"}, nil).Once()
	c.On("Poll", mock.Anything, "sess-1").
		Return(&model.PollStatus{Progress: 100, Stage: 3, Result: &model.JobResult{OutputRef: "reports/q3.pdf"}}, nil)

	svc, notifier, repo := newService(t, c)

	result, err := svc.Run(context.Background(), runjob.Request{
		Job: model.JobRequest{Type: model.JobTypePDF, InputPath: "/tmp/q3.xlsx"},
	})

	require.NoError(t, err)
	assert.Equal(t, "reports/q3.pdf", result.OutputRef)

	// The authoritative poll drove the display.
	sawPolled := false
	for _, u := range notifier.Updates() {
		if u.SubStep == "filling" {
			sawPolled = true
		}
	}
	assert.True(t, sawPolled)

	// Stage transitions recorded realized durations for future estimates.
	recorded, err := repo.ListStageDurations(context.Background(), model.JobTypePDF, 0)
	require.NoError(t, err)
	assert.Len(t, recorded, 1)
}

func TestRunPolledJobFails(t *testing.T) {
	c := &clientmock.MockClient{}
	c.On("Submit", mock.Anything, mock.Anything).
		Return(&model.SubmitResult{SessionID: "sess-1"}, nil)
	c.On("Poll", mock.Anything, "sess-1").
		Return(&model.PollStatus{Progress: 10, Stage: 0, Err: "template broken"}, nil)

	svc, notifier, _ := newService(t, c)

	_, err := svc.Run(context.Background(), runjob.Request{
		Job: model.JobRequest{Type: model.JobTypePDF, InputPath: "/tmp/q3.xlsx"},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrJobFailed)
	assert.Contains(t, err.Error(), "template broken")

	updates := notifier.Updates()
	require.NotEmpty(t, updates)
	assert.Equal(t, "template broken", updates[len(updates)-1].FailReason)
}

func TestRunSessionExpired(t *testing.T) {
	c := &clientmock.MockClient{}
	c.On("Submit", mock.Anything, mock.Anything).
		Return(&model.SubmitResult{SessionID: "sess-1"}, nil)
	c.On("Poll", mock.Anything, "sess-1").
		Return((*model.PollStatus)(nil), model.ErrSessionExpired)

	svc, _, _ := newService(t, c)

	_, err := svc.Run(context.Background(), runjob.Request{
		Job: model.JobRequest{Type: model.JobTypePDF, InputPath: "/tmp/q3.xlsx"},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSessionExpired)
}

func TestRunTransientPollErrorsRetry(t *testing.T) {
	c := &clientmock.MockClient{}
	c.On("Submit", mock.Anything, mock.Anything).
		Return(&model.SubmitResult{SessionID: "sess-1"}, nil)
	c.On("Poll", mock.Anything, "sess-1").
		Return((*model.PollStatus)(nil), errors.New("connection reset")).Twice()
	c.On("Poll", mock.Anything, "sess-1").
		Return(&model.PollStatus{Progress: 100, Stage: 3, Result: &model.JobResult{OutputRef: "out.pdf"}}, nil)

	svc, _, _ := newService(t, c)

	result, err := svc.Run(context.Background(), runjob.Request{
		Job: model.JobRequest{Type: model.JobTypePDF, InputPath: "/tmp/q3.xlsx"},
	})

	require.NoError(t, err)
	assert.Equal(t, "out.pdf", result.OutputRef)
	c.AssertExpectations(t)
}

func TestRunSubmitFailure(t *testing.T) {
	c := &clientmock.MockClient{}
	c.On("Submit", mock.Anything, mock.Anything).
		Return((*model.SubmitResult)(nil), errors.New("connection refused"))

	svc, _, _ := newService(t, c)

	_, err := svc.Run(context.Background(), runjob.Request{
		Job: model.JobRequest{Type: model.JobTypePDF, InputPath: "/tmp/q3.xlsx"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRunInvalidJob(t *testing.T) {
	svc, _, _ := newService(t, &clientmock.MockClient{})

	_, err := svc.Run(context.Background(), runjob.Request{
		Job: model.JobRequest{Type: model.JobTypePDF},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotValid)
}

func TestRunCancellation(t *testing.T) {
	c := &clientmock.MockClient{}
	c.On("Submit", mock.Anything, mock.Anything).
		Return(&model.SubmitResult{SessionID: "sess-1"}, nil)
	c.On("Poll", mock.Anything, "sess-1").
		Return(&model.PollStatus{Progress: 10, Stage: 0}, nil)

	svc, _, _ := newService(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(40 * time.Millisecond)
		cancel()
	}()

	_, err := svc.Run(ctx, runjob.Request{
		Job: model.JobRequest{Type: model.JobTypePDF, InputPath: "/tmp/q3.xlsx"},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
