// Package memstore is an in-memory store.Store used by tests that exercise
// the full HTTP and websocket flow without a database.
package memstore

import (
	"chatbox-backend/internal/models"
	"chatbox-backend/internal/store"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	messages []models.Message
	nextID   int64
	now      func() time.Time
}

func New() *Store {
	return &Store{
		users:  make(map[uuid.UUID]models.User),
		nextID: 1,
		now:    time.Now,
	}
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return lo.ToPtr(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return lo.ToPtr(u), nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return store.ErrConflict
		}
	}
	if _, ok := s.users[user.ID]; ok {
		return store.ErrConflict
	}
	now := s.now()
	u := *user
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	return nil
}

func (s *Store) CreateMessage(_ context.Context, arg store.CreateMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[arg.UserID]; !ok {
		return nil, store.ErrNotFound
	}
	m := models.Message{
		ID:        s.nextID,
		UserID:    arg.UserID,
		Text:      arg.Text,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	s.nextID++
	s.messages = append(s.messages, m)
	return lo.ToPtr(m), nil
}

func (s *Store) ListMessagesWithAuthors(_ context.Context) ([]models.MessageWithAuthor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Map(s.messages, func(m models.Message, _ int) models.MessageWithAuthor {
		return models.MessageWithAuthor{Message: m, AuthorName: s.users[m.UserID].Name}
	}), nil
}
