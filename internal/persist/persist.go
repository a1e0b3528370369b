// Package persist stores Delphi projects and the history of computed reports.
package persist

import (
	"sync"

	"github.com/huangsam/delphi/internal/contract"
)

// StoreManager holds the project and history stores of a process.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	project      contract.ProjectStore
	history      contract.HistoryStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// GetProjectStore returns the project store.
func (mgr *StoreManager) GetProjectStore() contract.ProjectStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.project
}

// GetHistoryStore returns the history store.
func (mgr *StoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
