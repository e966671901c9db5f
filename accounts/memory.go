package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded in-process Store. It suits tests and
// single-instance deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]Account
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (s *MemoryStore) GetByEmail(ctx context.Context, normalizedEmail string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalizedEmail]
	if !ok {
		return Account{}, ErrNotFound
	}
	return s.load(id)
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(id)
}

func (s *MemoryStore) SetRefreshToken(ctx context.Context, id, token string) error {
	return s.update(id, func(a *Account) {
		a.RefreshToken = token
	})
}

func (s *MemoryStore) ClearRefreshToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range s.byID {
		if a.RefreshToken != token {
			continue
		}
		a.RefreshToken = ""
		a.UpdatedAt = s.now()
		s.byID[id] = a
		return id, nil
	}
	return "", ErrNotFound
}

func (s *MemoryStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return s.update(id, func(a *Account) {
		a.PasswordHash = hash
	})
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, id string, p Profile) error {
	return s.update(id, func(a *Account) {
		a.Name = p.Name
		a.Phone = p.Phone
	})
}

// SetActive toggles the active flag. Deactivation is managed outside the
// Store interface.
func (s *MemoryStore) SetActive(ctx context.Context, id string, active bool) error {
	return s.update(id, func(a *Account) {
		a.Active = active
	})
}

// Create inserts a. An empty ID is replaced by a random UUID.
func (s *MemoryStore) Create(ctx context.Context, a Account) (Account, error) {
	a.Email = NormalizeEmail(a.Email)
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := a.Validate(); err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[a.Email]; exists {
		return Account{}, ErrEmailTaken
	}
	now := s.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.byID[a.ID] = cloneAccount(a)
	s.byEmail[a.Email] = a.ID
	return cloneAccount(a), nil
}

func (s *MemoryStore) load(id string) (Account, error) {
	a, ok := s.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	if err := a.Validate(); err != nil {
		return Account{}, err
	}
	return cloneAccount(a), nil
}

func (s *MemoryStore) update(id string, fn func(*Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	fn(&a)
	a.UpdatedAt = s.now()
	s.byID[id] = a
	return nil
}
