package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/globizora/api-service/models"
	"github.com/google/uuid"
)

// MemoryStore keeps users in process memory. It backs STORE_DRIVER=memory
// and the handler tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]models.User
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]models.User), now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, username, email, passwordHash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = models.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email || u.Username == username {
			return models.User{}, ErrConflict
		}
	}

	now := s.now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Subscription: models.TierFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[user.ID] = user
	return withoutHash(user), nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = models.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return withoutHash(u), nil
}

func (s *MemoryStore) FindByAPIKey(_ context.Context, apiKey string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if apiKey == "" {
		return models.User{}, ErrNotFound
	}
	for _, u := range s.users {
		if u.APIKey != nil && *u.APIKey == apiKey {
			return withoutHash(u), nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *MemoryStore) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, withoutHash(u))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, update models.UserUpdate) (models.User, error) {
	if err := update.Validate(); err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}

	if update.APIKey != nil {
		for otherID, other := range s.users {
			if otherID != id && other.APIKey != nil && *other.APIKey == *update.APIKey {
				return models.User{}, ErrConflict
			}
		}
		key := *update.APIKey
		u.APIKey = &key
	}
	if update.Subscription != nil {
		u.Subscription = *update.Subscription
	}
	u.Usage += update.UsageDelta
	u.UpdatedAt = s.now().UTC()

	s.users[id] = u
	return withoutHash(u), nil
}

func (s *MemoryStore) EnsureSchema(context.Context) error { return nil }

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }

func copyUser(u models.User) models.User {
	if u.APIKey != nil {
		key := *u.APIKey
		u.APIKey = &key
	}
	return u
}

func withoutHash(u models.User) models.User {
	u = copyUser(u)
	u.PasswordHash = ""
	return u
}
