package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"saultochat/internal/model/auth"
)

// MemoryUserStore keeps users in a process-local map for tests and
// credential-less development.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*auth.User
}

// NewMemoryUserStore creates an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*auth.User)}
}

var _ UserStore = (*MemoryUserStore)(nil)

// Create inserts a new user.
func (s *MemoryUserStore) Create(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	s.users[user.ID] = &clone
	return nil
}

// FindByID looks a user up by id.
func (s *MemoryUserStore) FindByID(ctx context.Context, id string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *user
	return &clone, nil
}

// FindByEmail looks a user up by email.
func (s *MemoryUserStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateProfile refreshes provider-sourced fields after a login.
func (s *MemoryUserStore) UpdateProfile(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Name = user.Name
	stored.JobTitle = user.JobTitle
	stored.Department = user.Department
	stored.MicrosoftID = user.MicrosoftID
	stored.LastLogin = user.LastLogin
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateRole changes a user's role.
func (s *MemoryUserStore) UpdateRole(ctx context.Context, id string, role auth.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	stored.Role = role
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// List returns all users, newest first.
func (s *MemoryUserStore) List(ctx context.Context) ([]*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*auth.User, 0, len(s.users))
	for _, user := range s.users {
		clone := *user
		users = append(users, &clone)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

// CountAdmins reports how many admin accounts exist.
func (s *MemoryUserStore) CountAdmins(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, user := range s.users {
		if user.Role == auth.RoleAdmin {
			n++
		}
	}
	return n, nil
}
