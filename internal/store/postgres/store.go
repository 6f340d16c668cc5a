package postgres

import (
	db_models "chatbox-backend/internal/models"
	"chatbox-backend/internal/store"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

const uniqueViolation = "23505"

type PostgresStore struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewPostgresStore(db *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: logger.Named("postgres_store")}
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, name, email, hashed_password, created_at, updated_at
FROM users
WHERE email = $1;
`

// GetUserByEmail retrieves a user by their email address.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*db_models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, getUserByEmail, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.log.Debug("user not found", zap.String("email", email))
			return nil, store.ErrNotFound
		}
		s.log.Error("failed to query user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}
	return user, nil
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, name, email, hashed_password, created_at, updated_at
FROM users
WHERE id = $1;
`

// GetUserByID retrieves a user by primary key.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*db_models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, getUserByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		s.log.Error("failed to query user by id", zap.Stringer("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("database error fetching user by id: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*db_models.User, error) {
	user := &db_models.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

const createUser = `-- name: CreateUser :exec
INSERT INTO users (id, name, email, hashed_password)
VALUES ($1, $2, $3, $4);
`

// CreateUser inserts a new user record into the database.
// created_at and updated_at come from column defaults.
func (s *PostgresStore) CreateUser(ctx context.Context, user *db_models.User) error {
	_, err := s.db.Exec(ctx, createUser,
		user.ID,
		user.Name,
		user.Email,
		user.HashedPassword,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			s.log.Error("postgres error inserting user",
				zap.String("email", user.Email),
				zap.String("code", pgErr.Code),
				zap.String("detail", pgErr.Detail),
			)
			if pgErr.Code == uniqueViolation {
				return store.ErrConflict
			}
		} else {
			s.log.Error("failed to insert user", zap.String("email", user.Email), zap.Error(err))
		}
		return fmt.Errorf("database error creating user: %w", err)
	}

	s.log.Info("user created", zap.Stringer("user_id", user.ID))
	return nil
}

const createMessage = `-- name: CreateMessage :one
INSERT INTO messages (user_id, text)
VALUES ($1, $2)
RETURNING id, user_id, text, created_at;
`

// CreateMessage stores the text verbatim and returns the row with its
// database-assigned id and created_at.
func (s *PostgresStore) CreateMessage(ctx context.Context, arg store.CreateMessageParams) (*db_models.Message, error) {
	var m db_models.Message
	err := s.db.QueryRow(ctx, createMessage, arg.UserID, arg.Text).Scan(
		&m.ID,
		&m.UserID,
		&m.Text,
		&m.CreatedAt,
	)
	if err != nil {
		s.log.Error("failed to insert message", zap.Stringer("user_id", arg.UserID), zap.Error(err))
		return nil, fmt.Errorf("database error creating message: %w", err)
	}

	s.log.Debug("message created", zap.Int64("message_id", m.ID), zap.Stringer("user_id", m.UserID))
	return &m, nil
}

const listMessagesWithAuthors = `-- name: ListMessagesWithAuthors :many
SELECT m.id, m.user_id, m.text, m.created_at, u.name
FROM messages m
JOIN users u ON u.id = m.user_id
ORDER BY m.id ASC;
`

func (s *PostgresStore) ListMessagesWithAuthors(ctx context.Context) ([]db_models.MessageWithAuthor, error) {
	rows, err := s.db.Query(ctx, listMessagesWithAuthors)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	items := make([]db_models.MessageWithAuthor, 0)
	for rows.Next() {
		var i db_models.MessageWithAuthor
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Text,
			&i.CreatedAt,
			&i.AuthorName,
		); err != nil {
			return nil, fmt.Errorf("error scanning message row: %w", err)
		}
		items = append(items, i)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return items, nil
}
