package clientmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/aleixmp/jobpace/internal/model"
)

// MockClient is a testify mock of client.Client.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Submit(ctx context.Context, req model.JobRequest) (*model.SubmitResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(*model.SubmitResult), args.Error(1)
}

func (m *MockClient) Poll(ctx context.Context, sessionID string) (*model.PollStatus, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(*model.PollStatus), args.Error(1)
}
