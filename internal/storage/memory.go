package storage

import "sync"

// Memory is an in-process Store. It backs tests and the degraded mode the
// session store falls into when the durable backend faults.
type Memory struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{slots: make(map[string]string)}
}

// Get implements Store.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.slots[key]
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = value
	return nil
}

// Remove implements Store.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, key)
	return nil
}

// Noop is the Store used where durable storage does not exist, such as a
// server-side rendering pass. Reads always miss and writes are discarded,
// which makes session rehydration a natural no-op.
type Noop struct{}

// NewNoop creates a no-op store.
func NewNoop() Noop { return Noop{} }

// Get implements Store.
func (Noop) Get(string) (string, bool, error) { return "", false, nil }

// Set implements Store.
func (Noop) Set(string, string) error { return nil }

// Remove implements Store.
func (Noop) Remove(string) error { return nil }
