// Package mocks holds testify mocks for the store and pubsub interfaces.
package mocks

import (
	"chatbox-backend/internal/models"
	"chatbox-backend/internal/store"
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mock.Mock
}

func (m *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *Store) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *Store) CreateMessage(ctx context.Context, arg store.CreateMessageParams) (*models.Message, error) {
	args := m.Called(ctx, arg)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *Store) ListMessagesWithAuthors(ctx context.Context) ([]models.MessageWithAuthor, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]models.MessageWithAuthor)
	return rows, args.Error(1)
}
