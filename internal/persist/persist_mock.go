package persist

import (
	"context"

	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetProjectStore implements the StoreManager interface.
func (m *MockStoreManager) GetProjectStore() contract.ProjectStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ProjectStore)
	return store
}

// GetHistoryStore implements the StoreManager interface.
func (m *MockStoreManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockProjectStore is a mock implementation of ProjectStore for testing.
type MockProjectStore struct {
	mock.Mock
}

var _ contract.ProjectStore = &MockProjectStore{} // Compile-time check

// ListModules implements the ProjectStore interface.
func (m *MockProjectStore) ListModules(ctx context.Context) ([]schema.Module, error) {
	args := m.Called(ctx)
	modules, _ := args.Get(0).([]schema.Module)
	return modules, args.Error(1)
}

// SaveModules implements the ProjectStore interface.
func (m *MockProjectStore) SaveModules(ctx context.Context, modules []schema.Module) error {
	args := m.Called(ctx, modules)
	return args.Error(0)
}

// ListEstimations implements the ProjectStore interface.
func (m *MockProjectStore) ListEstimations(ctx context.Context) ([]schema.EstimationRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]schema.EstimationRecord)
	return records, args.Error(1)
}

// GetEstimation implements the ProjectStore interface.
func (m *MockProjectStore) GetEstimation(ctx context.Context, name string) (schema.EstimationRecord, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(schema.EstimationRecord), args.Bool(1), args.Error(2)
}

// PutEstimation implements the ProjectStore interface.
func (m *MockProjectStore) PutEstimation(ctx context.Context, rec schema.EstimationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// DeleteEstimations implements the ProjectStore interface.
func (m *MockProjectStore) DeleteEstimations(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// GetStatus implements the ProjectStore interface.
func (m *MockProjectStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the ProjectStore interface.
func (m *MockProjectStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// RecordReport implements the HistoryStore interface.
func (m *MockHistoryStore) RecordReport(ctx context.Context, rec schema.ReportRunRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// ListReports implements the HistoryStore interface.
func (m *MockHistoryStore) ListReports(ctx context.Context) ([]schema.ReportRunRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]schema.ReportRunRecord)
	return records, args.Error(1)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
