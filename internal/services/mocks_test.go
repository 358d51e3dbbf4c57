package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"cgmdose/pkg/contracts/domain"
)

// MockGateway is a mock for the storage.Gateway interface
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) InsertRecords(ctx context.Context, t domain.Table) (int64, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGateway) ReadAll(ctx context.Context) (domain.Table, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Table), args.Error(1)
}

func (m *MockGateway) ReadDaysFromNow(ctx context.Context, days int) (domain.Table, error) {
	args := m.Called(ctx, days)
	return args.Get(0).(domain.Table), args.Error(1)
}

func (m *MockGateway) Close() {
	m.Called()
}

// MockTransformer is a mock for the Transformer interface
type MockTransformer struct {
	mock.Mock
}

func (m *MockTransformer) TransformFile(ctx context.Context, path string) (domain.Table, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(domain.Table), args.Error(1)
}
