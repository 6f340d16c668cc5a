package store

import (
	db_models "chatbox-backend/internal/models"
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when an insert violates a unique constraint.
var ErrConflict = errors.New("record already exists")

// CreateMessageParams contains parameters for inserting a message.
// The id and created_at columns are assigned by the database.
type CreateMessageParams struct {
	UserID uuid.UUID
	Text   string
}

// Store defines the interface for database operations.
// This allows for mocking in tests and potential DB backend switching.
type Store interface {
	// User operations
	GetUserByEmail(ctx context.Context, email string) (*db_models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*db_models.User, error)
	CreateUser(ctx context.Context, user *db_models.User) error

	// Message operations
	CreateMessage(ctx context.Context, arg CreateMessageParams) (*db_models.Message, error)
	// ListMessagesWithAuthors returns every message in insertion order with the
	// author's name resolved in the same query.
	ListMessagesWithAuthors(ctx context.Context) ([]db_models.MessageWithAuthor, error)
}
