// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Used for tests and for DB_DRIVER=memory, when durability is not required.
//
// Characteristics:
//   - Stores deep copies of *progress.User keyed by UserID.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Saving keeps the best stars already stored, like the SQL ledger does.

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/robalobadob/pixelwords/internal/progress"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu    sync.RWMutex              // guards users map
	users map[string]*progress.User // keyed by UserID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{users: make(map[string]*progress.User)}
}

// SaveUser adds or updates the user. Stars merge with max semantics and
// unlocks merge as a union, so a stale record cannot regress the ledger.
func (m *memory) SaveUser(ctx context.Context, u *progress.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := u.Clone()
	if old, ok := m.users[u.UserID]; ok {
		for id, s := range old.StarsByLevelID {
			if s > next.StarsByLevelID[id] {
				next.StarsByLevelID[id] = s
			}
		}
		old.UnlockedLevelIDs.Each(func(id string) { next.UnlockedLevelIDs.Put(id) })
		if len(old.Mistakes) > len(next.Mistakes) {
			next.Mistakes = append([]progress.Mistake(nil), old.Mistakes...)
		}
	}
	m.users[u.UserID] = next
	return nil
}

// GetUser returns a copy of the stored user or ErrNotFound.
func (m *memory) GetUser(ctx context.Context, id string) (*progress.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return u.Clone(), nil
	}
	return nil, ErrNotFound
}

// ListUsers returns copies of every user ordered by id.
func (m *memory) ListUsers(ctx context.Context) ([]*progress.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*progress.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
