package persist

import (
	"context"
	"sync"
	"time"

	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
)

// MemoryStore is a ProjectStore that lives only as long as the process.
// It backs tests and the MCP server when no database is wanted.
type MemoryStore struct {
	mu         sync.RWMutex
	project    string
	modules    []schema.Module
	records    []schema.EstimationRecord
	index      map[string]int
	lastUpdate time.Time
}

var _ contract.ProjectStore = &MemoryStore{} // Compile-time check

// NewMemoryStore returns an empty in-memory store for project.
func NewMemoryStore(project string) *MemoryStore {
	return &MemoryStore{project: project, index: make(map[string]int)}
}

// ListModules implements the ProjectStore interface.
func (ms *MemoryStore) ListModules(_ context.Context) ([]schema.Module, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if ms.modules == nil {
		return nil, nil
	}
	return append([]schema.Module(nil), ms.modules...), nil
}

// SaveModules implements the ProjectStore interface.
func (ms *MemoryStore) SaveModules(_ context.Context, modules []schema.Module) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.modules = append([]schema.Module(nil), modules...)
	return nil
}

// ListEstimations implements the ProjectStore interface.
func (ms *MemoryStore) ListEstimations(_ context.Context) ([]schema.EstimationRecord, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if len(ms.records) == 0 {
		return nil, nil
	}
	return append([]schema.EstimationRecord(nil), ms.records...), nil
}

// GetEstimation implements the ProjectStore interface.
func (ms *MemoryStore) GetEstimation(_ context.Context, name string) (schema.EstimationRecord, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	i, ok := ms.index[schema.EstimatorKey(name)]
	if !ok {
		return schema.EstimationRecord{}, false, nil
	}
	return ms.records[i], true, nil
}

// PutEstimation implements the ProjectStore interface.
func (ms *MemoryStore) PutEstimation(_ context.Context, rec schema.EstimationRecord) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.lastUpdate = time.Now()
	if i, ok := ms.index[rec.Key()]; ok {
		ms.records[i] = rec
		return nil
	}
	ms.index[rec.Key()] = len(ms.records)
	ms.records = append(ms.records, rec)
	return nil
}

// DeleteEstimations implements the ProjectStore interface.
func (ms *MemoryStore) DeleteEstimations(_ context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.records = nil
	ms.index = make(map[string]int)
	ms.lastUpdate = time.Now()
	return nil
}

// GetStatus implements the ProjectStore interface.
func (ms *MemoryStore) GetStatus() (schema.StoreStatus, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return schema.StoreStatus{
		Backend:        string(schema.MemoryBackend),
		Connected:      true,
		Project:        ms.project,
		ModuleCount:    len(ms.modules),
		EstimatorCount: len(ms.records),
		LastUpdateTime: ms.lastUpdate,
	}, nil
}

// Close implements the ProjectStore interface.
func (ms *MemoryStore) Close() error {
	return nil
}
