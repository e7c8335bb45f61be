package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrEthical07/subAuth/internal/ids"
	"github.com/MrEthical07/subAuth/role"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store for tests, demos and the load tool.
// It enforces the same email uniqueness rule as PGStore.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]Identity
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]Identity),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, id *Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := NormalizeEmail(id.Email)
	if _, ok := m.byEmail[key]; ok {
		return ErrEmailTaken
	}
	if id.ID == "" {
		id.ID = ids.NewIdentityID()
	}
	if !id.Role.Valid() {
		id.Role = role.Default
	}
	now := m.now().UTC()
	id.CreatedAt = now
	id.UpdatedAt = now

	m.byID[id.ID] = *id
	m.byEmail[key] = id.ID
	return nil
}

func (m *MemoryStore) ByID(_ context.Context, id string) (Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out, ok := m.byID[id]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return out, nil
}

func (m *MemoryStore) ByEmail(_ context.Context, email string) (Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[NormalizeEmail(email)]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return m.byID[id], nil
}

func (m *MemoryStore) List(_ context.Context, page Page) ([]Identity, error) {
	page = page.Normalize()
	m.mu.RLock()
	all := make([]Identity, 0, len(m.byID))
	for _, id := range m.byID {
		all = append(all, id)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if page.Offset >= len(all) {
		return nil, nil
	}
	end := page.Offset + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[page.Offset:end], nil
}

func (m *MemoryStore) UpdateProfile(_ context.Context, id string, p Profile) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.byID[id]
	if !ok {
		return Identity{}, ErrNotFound
	}
	if p.Email != nil {
		next := NormalizeEmail(*p.Email)
		prev := NormalizeEmail(cur.Email)
		if next != prev {
			if _, taken := m.byEmail[next]; taken {
				return Identity{}, ErrEmailTaken
			}
			delete(m.byEmail, prev)
			m.byEmail[next] = id
		}
		cur.Email = *p.Email
	}
	if p.Name != nil {
		cur.Name = *p.Name
	}
	return m.touch(cur), nil
}

func (m *MemoryStore) SetRole(_ context.Context, id string, r role.Role) (Identity, error) {
	if !r.Valid() {
		return Identity{}, role.ErrInvalidRole
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[id]
	if !ok {
		return Identity{}, ErrNotFound
	}
	cur.Role = r
	return m.touch(cur), nil
}

func (m *MemoryStore) SetActive(_ context.Context, id string, active bool) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[id]
	if !ok {
		return Identity{}, ErrNotFound
	}
	cur.Active = active
	return m.touch(cur), nil
}

func (m *MemoryStore) SetPasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	cur.PasswordHash = hash
	m.touch(cur)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	delete(m.byEmail, NormalizeEmail(cur.Email))
	return nil
}

// touch must be called with mu held.
func (m *MemoryStore) touch(cur Identity) Identity {
	cur.UpdatedAt = m.now().UTC()
	m.byID[cur.ID] = cur
	return cur
}
