package journal

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and single-node dev runs.
// Values are round-tripped through JSON so callers never share state with
// the store.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string][]byte
	staleAfter time.Duration
	now        func() time.Time
}

// NewMemoryStore creates a MemoryStore with the given staleness bound
func NewMemoryStore(staleAfter time.Duration) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string][]byte),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Load returns the session's journal, discarding it when stale
func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*OperationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.entries[sessionID]
	if !ok {
		return nil, nil
	}

	var state OperationState
	if err := json.Unmarshal(raw, &state); err != nil {
		delete(m.entries, sessionID)
		return nil, nil
	}

	if state.IsStale(m.now(), m.staleAfter) {
		delete(m.entries, sessionID)
		return nil, nil
	}

	return &state, nil
}

// Save stores the session's journal
func (m *MemoryStore) Save(ctx context.Context, sessionID string, state *OperationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[sessionID] = raw
	return nil
}

// Delete removes the session's journal
func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	return nil
}

// SetClock overrides the store's notion of now. Test hook.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
