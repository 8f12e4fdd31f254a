package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps everything in memory. Data is lost on restart.
// Safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]Record)}
}

// deepCopy returns a deep copy of a collection by round-tripping through
// JSON, so callers see the same value types a file backend would return.
func deepCopy(src []Record) []Record {
	if len(src) == 0 {
		return []Record{}
	}
	b, _ := json.Marshal(src)
	var dst []Record
	_ = json.Unmarshal(b, &dst)
	return dst
}

func (m *MemoryStore) Read(_ context.Context, collection string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return deepCopy(m.collections[collection]), nil
}

func (m *MemoryStore) Write(_ context.Context, collection string, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collection] = deepCopy(records)
	return nil
}

func (m *MemoryStore) Update(_ context.Context, collection string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	updated, err := fn(deepCopy(m.collections[collection]))
	if err != nil {
		return err
	}
	m.collections[collection] = deepCopy(updated)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
