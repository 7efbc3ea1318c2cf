package enrollment

import (
	"context"
	"sync"

	"github.com/openlearnhq/experiments/internal/coursekey"
)

// MemoryStore is an in-memory implementation of Store, suitable for
// development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	enrollments map[memKey]Enrollment
	forumRoles  map[memKey][]string
}

type memKey struct {
	username string
	course   string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		enrollments: make(map[memKey]Enrollment),
		forumRoles:  make(map[memKey][]string),
	}
}

// Get retrieves a user's enrollment in a course.
func (m *MemoryStore) Get(ctx context.Context, username string, key coursekey.CourseKey) (*Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.enrollments[memKey{username, key.String()}]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// ListForUser retrieves all of a user's enrollments.
func (m *MemoryStore) ListForUser(ctx context.Context, username string) ([]Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Enrollment
	for k, e := range m.enrollments {
		if k.username == username {
			result = append(result, e)
		}
	}
	return result, nil
}

// Upsert creates or updates an enrollment.
func (m *MemoryStore) Upsert(ctx context.Context, e Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enrollments[memKey{e.Username, e.CourseKey.String()}] = e
	return nil
}

// ForumRoles returns the user's forum role names in the course.
func (m *MemoryStore) ForumRoles(ctx context.Context, username string, key coursekey.CourseKey) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	roles := m.forumRoles[memKey{username, key.String()}]
	out := make([]string, len(roles))
	copy(out, roles)
	return out, nil
}

// SetForumRoles replaces the user's forum roles in the course.
// Test and seeding helper; not part of the Store interface.
func (m *MemoryStore) SetForumRoles(username string, key coursekey.CourseKey, roles []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.forumRoles[memKey{username, key.String()}] = append([]string(nil), roles...)
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }
