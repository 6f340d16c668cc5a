package services

import (
	"chatbox-backend/internal/auth"
	"chatbox-backend/internal/config"
	"chatbox-backend/internal/models"
	"chatbox-backend/internal/store"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService struct {
	store store.Store
	cfg   *config.Config
	log   *zap.Logger
}

func NewAuthService(s store.Store, cfg *config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		store: s,
		cfg:   cfg,
		log:   logger.Named("auth_service"),
	}
}

// Signup creates a new user.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password cannot be empty", ErrValidation)
	}

	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		s.log.Error("failed to check user existence", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("%w: checking user existence: %v", ErrStorage, err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		s.log.Error("failed to hash password", zap.String("email", email), zap.Error(err))
		return nil, ErrHashingPassword
	}

	user := &models.User{
		ID:             uuid.New(),
		Name:           name,
		Email:          email,
		HashedPassword: hashedPassword,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same email.
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("%w: creating user: %v", ErrStorage, err)
	}

	s.log.Info("user signed up", zap.Stringer("user_id", user.ID))
	return user, nil
}

// Login verifies user credentials and returns an access token and user info.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials // Don't reveal if user exists or password is wrong
		}
		return "", nil, fmt.Errorf("%w: retrieving user: %v", ErrStorage, err)
	}

	if !auth.CheckPasswordHash(password, user.HashedPassword) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.NewAccessToken(user.ID, user.Name, s.cfg.JWTSecret, s.cfg.TokenExpiration)
	if err != nil {
		s.log.Error("failed to create access token", zap.Stringer("user_id", user.ID), zap.Error(err))
		return "", nil, ErrCreatingToken
	}

	s.log.Info("user logged in", zap.Stringer("user_id", user.ID))
	return token, user, nil
}
