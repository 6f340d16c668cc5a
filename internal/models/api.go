package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Request Structs ---

// SignupRequest defines the expected body for the signup endpoint.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateMessageRequest is the body of POST /message.
// Text is taken verbatim; blank text is only rejected when the server is configured to.
type CreateMessageRequest struct {
	Text string `json:"text"`
}

// --- Response Structs ---

// UserResponse defines the user information returned by the API.
// Avoid returning sensitive info like HashedPassword.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

// AuthResponse defines the response body for successful authentication.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageAuthor is the author summary embedded in every message.
type MessageAuthor struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// MessageResponse is one element of the GET /messages array.
type MessageResponse struct {
	ID        int64         `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	User      MessageAuthor `json:"user"`
	Text      string        `json:"text"`
	Time      string        `json:"time"`
	CreatedAt time.Time     `json:"created_at"`
}

// CreateMessageResponse is returned by POST /message on success.
type CreateMessageResponse struct {
	Status  string          `json:"status"`
	Message MessageResponse `json:"message"`
}

// --- Notification DTOs ---

// NotificationFrame is the websocket frame sent to clients for every relay event.
type NotificationFrame struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
}
