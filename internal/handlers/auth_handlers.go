package handlers

import (
	api_models "chatbox-backend/internal/models"
	db_models "chatbox-backend/internal/models"
	"chatbox-backend/internal/services"
	"chatbox-backend/pkg/httputil"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// AuthService defines the interface expected from the auth service.
// This promotes loose coupling and testability.
type AuthService interface {
	Signup(ctx context.Context, name, email, password string) (*db_models.User, error)
	Login(ctx context.Context, email, password string) (string, *db_models.User, error)
}

type AuthHandler struct {
	authService AuthService
	log         *zap.Logger
}

func NewAuthHandler(authSvc AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authSvc,
		log:         logger.Named("auth_handler"),
	}
}

// HandleSignup handles the POST /v1/auth/signup request.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req api_models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	user, err := h.authService.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.log.Info("signup failed", zap.String("email", req.Email), zap.Error(err))
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			httputil.RespondError(w, http.StatusConflict, err.Error()) // 409
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error()) // 400
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Signup failed due to an internal error") // 500
		}
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, api_models.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	})
}

// HandleLogin handles the POST /v1/auth/login request.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req api_models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Info("login failed", zap.String("email", req.Email), zap.Error(err))
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			httputil.RespondError(w, http.StatusUnauthorized, err.Error()) // 401
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Login failed due to an internal error") // 500
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, api_models.AuthResponse{
		AccessToken: token,
		User: api_models.UserResponse{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		},
	})
}
