package audit

import (
	"context"
	"sort"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process append-only Store for tests and demos.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	byID    map[string]int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

func (m *MemoryStore) Append(_ context.Context, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[e.ID]; ok {
		return ErrAppendOnly
	}
	m.byID[e.ID] = len(m.entries)
	m.entries = append(m.entries, cloneEntry(e))
	return nil
}

// Update always fails; entries are immutable.
func (m *MemoryStore) Update(context.Context, Entry) error { return ErrAppendOnly }

// Delete always fails; entries are immutable.
func (m *MemoryStore) Delete(context.Context, string) error { return ErrAppendOnly }

func (m *MemoryStore) Get(_ context.Context, id string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byID[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return cloneEntry(m.entries[i]), nil
}

func (m *MemoryStore) ByActor(_ context.Context, actorID string, page Page) ([]Entry, error) {
	return m.filter(page, func(e Entry) bool { return e.ActorID == actorID }), nil
}

func (m *MemoryStore) ByAction(_ context.Context, action Action, page Page) ([]Entry, error) {
	return m.filter(page, func(e Entry) bool { return e.Action == action }), nil
}

func (m *MemoryStore) ByTarget(_ context.Context, targetType TargetType, targetID string, page Page) ([]Entry, error) {
	return m.filter(page, func(e Entry) bool { return e.TargetType == targetType && e.TargetID == targetID }), nil
}

func (m *MemoryStore) Recent(_ context.Context, page Page) ([]Entry, error) {
	return m.filter(page, func(Entry) bool { return true }), nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) filter(page Page, keep func(Entry) bool) []Entry {
	page = page.Normalize()
	m.mu.RLock()
	matched := make([]Entry, 0)
	for _, e := range m.entries {
		if keep(e) {
			matched = append(matched, cloneEntry(e))
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if page.Offset >= len(matched) {
		return []Entry{}
	}
	end := page.Offset + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[page.Offset:end]
}

func cloneEntry(e Entry) Entry {
	if e.Metadata != nil {
		meta := make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			meta[k] = v
		}
		e.Metadata = meta
	}
	return e
}
