package repository

import (
	"context"
	"sync"
	"time"

	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger"
)

type memoryEntry struct {
	table     *ledger.Table
	writtenAt time.Time
}

// MemoryStore keeps tables in process memory. It backs tests and the
// "memory" driver for local runs; nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]memoryEntry
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[string]memoryEntry),
		now:    time.Now,
	}
}

// WriteTable replaces the table stored under sessionKey.
func (s *MemoryStore) WriteTable(ctx context.Context, sessionKey string, table *ledger.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[sessionKey] = memoryEntry{table: cloneTable(table), writtenAt: s.now()}
	return nil
}

// ReadTable returns a copy of the table stored under sessionKey.
func (s *MemoryStore) ReadTable(ctx context.Context, sessionKey string) (*ledger.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.tables[sessionKey]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return cloneTable(entry.table), nil
}

// PurgeBefore drops tables written before cutoff.
func (s *MemoryStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for key, entry := range s.tables {
		if entry.writtenAt.Before(cutoff) {
			delete(s.tables, key)
			purged++
		}
	}
	return purged, nil
}
