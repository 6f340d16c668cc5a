package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the database.
type User struct {
	ID             uuid.UUID `db:"id"`
	Name           string    `db:"name"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Message is one chat line as stored in the messages table.
// ID and CreatedAt are assigned by the database and never change.
type Message struct {
	ID        int64     `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

// MessageWithAuthor is a message row joined with its author's display name.
type MessageWithAuthor struct {
	Message
	AuthorName string `db:"author_name"`
}
