package services

import "errors"

var (
	ErrValidation      = errors.New("input validation failed") // Generic validation error
	ErrUnauthenticated = errors.New("caller is not authenticated")
	ErrStorage         = errors.New("storage failure")
)

// Auth service errors
var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrHashingPassword    = errors.New("failed to hash password")
	ErrCreatingToken      = errors.New("failed to create access token")
)
