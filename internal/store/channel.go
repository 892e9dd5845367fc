package store

import (
	"context"
	"slices"
	"sync"
)

// MemoryChannel is a map-backed Channel. Nothing survives the process.
type MemoryChannel struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryChannel returns an empty MemoryChannel.
func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{data: make(map[string][]byte)}
}

// Get implements Channel.
func (m *MemoryChannel) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return slices.Clone(v), ok, nil
}

// Set implements Channel.
func (m *MemoryChannel) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(value)
	return nil
}
