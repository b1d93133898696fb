package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

const defaultPageSize = 1000

// Memory is an in-memory ObjectStore used for tests and throwaway setups.
type Memory struct {
	mu       sync.RWMutex
	objects  map[string][]byte
	pageSize int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return NewMemoryWithPageSize(defaultPageSize)
}

// NewMemoryWithPageSize creates an in-memory store that paginates listings
// after the given number of raw keys. Small sizes exercise the callers'
// page-merging paths.
func NewMemoryWithPageSize(pageSize int) *Memory {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return &Memory{objects: make(map[string][]byte), pageSize: pageSize}
}

// List implements ObjectStore.
func (m *Memory) List(ctx context.Context, prefix, delimiter, token string) (ListPage, error) {
	if err := ctx.Err(); err != nil {
		return ListPage{}, err
	}
	m.mu.RLock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) && k > token {
			keys = append(keys, k)
		}
	}
	m.mu.RUnlock()
	sort.Strings(keys)

	var next string
	if len(keys) > m.pageSize {
		keys = keys[:m.pageSize]
		next = keys[len(keys)-1]
	}
	entries, commonPrefixes := groupKeys(prefix, delimiter, keys)
	return ListPage{Entries: entries, CommonPrefixes: commonPrefixes, NextToken: next}, nil
}

// Get implements ObjectStore.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put implements ObjectStore.
func (m *Memory) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.mu.Lock()
	m.objects[key] = stored
	m.mu.Unlock()
	return nil
}

// Delete implements ObjectStore. Deleting an absent key succeeds.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
