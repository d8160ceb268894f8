package local

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by a Backend when no value is stored under a key
var ErrNotFound = errors.New("key not found")

// Backend is durable key/value storage for the local record
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// MemoryBackend is a process-local Backend
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// Get returns a copy of the stored value
func (m *MemoryBackend) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value
func (m *MemoryBackend) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
