package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/aleixmp/jobpace/internal/model"
)

// MockRepository is a testify mock of storage.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListStageDurations(ctx context.Context, jobType model.JobType, stage model.StageID) ([]model.StageSample, error) {
	args := m.Called(ctx, jobType, stage)
	return args.Get(0).([]model.StageSample), args.Error(1)
}

func (m *MockRepository) RecordStageDuration(ctx context.Context, sample model.StageSample) error {
	args := m.Called(ctx, sample)
	return args.Error(0)
}

func (m *MockRepository) ListPageDurations(ctx context.Context, jobType model.JobType, page int) ([]model.PageSample, error) {
	args := m.Called(ctx, jobType, page)
	return args.Get(0).([]model.PageSample), args.Error(1)
}

func (m *MockRepository) RecordPageDuration(ctx context.Context, sample model.PageSample) error {
	args := m.Called(ctx, sample)
	return args.Error(0)
}

func (m *MockRepository) ListAllStageDurations(ctx context.Context, jobType model.JobType) ([]model.StageSample, error) {
	args := m.Called(ctx, jobType)
	return args.Get(0).([]model.StageSample), args.Error(1)
}

func (m *MockRepository) ClearHistory(ctx context.Context, jobType model.JobType) error {
	args := m.Called(ctx, jobType)
	return args.Error(0)
}
