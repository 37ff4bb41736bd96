package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Memory keeps objects in process. It serves local development and tests.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string

	// PutErr, when set, is returned by every Put.
	PutErr error
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, obj Object) (string, error) {
	if obj.Key == "" {
		return "", ErrEmptyKey
	}
	if m.PutErr != nil {
		return "", m.PutErr
	}
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read object %s: %w", obj.Key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[obj.Key] = data
	return "memory://" + obj.Key, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// Has reports whether key is currently stored.
func (m *Memory) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// Keys returns the stored keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Deleted returns every key passed to Delete, in call order.
func (m *Memory) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
