package store

import "sync"

// MemoryStore keeps snapshots in process memory. Used in tests and in
// deployments where the hosting environment owns persistence.
type MemoryStore struct {
	mu    sync.RWMutex
	state map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: make(map[string][]byte)}
}

func (m *MemoryStore) Save(snapshot Snapshot) error {
	raw, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[snapshot.Deployment] = raw
	return nil
}

func (m *MemoryStore) Load(deploymentID string) (Snapshot, bool, error) {
	m.mu.RLock()
	raw, ok := m.state[deploymentID]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, false, nil
	}
	snapshot, err := decodeSnapshot(raw)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snapshot, true, nil
}

func (m *MemoryStore) Close() error { return nil }
