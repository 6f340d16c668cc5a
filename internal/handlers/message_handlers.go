package handlers

import (
	"chatbox-backend/internal/auth"
	"chatbox-backend/internal/models"
	"chatbox-backend/internal/services"
	"chatbox-backend/pkg/httputil"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageService is the subset of services.MessageService used by the handlers.
type MessageService interface {
	ListMessages(ctx context.Context) ([]models.MessageResponse, error)
	CreateMessage(ctx context.Context, authorID uuid.UUID, text string) (*models.MessageResponse, error)
}

// MessageHandlers serves GET /messages and POST /message.
type MessageHandlers struct {
	messageService MessageService
	log            *zap.Logger
}

func NewMessageHandlers(messageService MessageService, logger *zap.Logger) *MessageHandlers {
	return &MessageHandlers{
		messageService: messageService,
		log:            logger.Named("message_handler"),
	}
}

// HandleListMessages returns the full ordered message list.
func (h *MessageHandlers) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messageService.ListMessages(r.Context())
	if err != nil {
		h.log.Error("list messages failed", zap.Error(err))
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, msgs)
}

// HandleCreateMessage stores a message for the authenticated caller.
func (h *MessageHandlers) HandleCreateMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	defer r.Body.Close()
	var req models.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.messageService.CreateMessage(r.Context(), userID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrUnauthenticated):
			httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		default:
			h.log.Error("create message failed", zap.Stringer("user_id", userID), zap.Error(err))
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to send message")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, models.CreateMessageResponse{Status: "ok", Message: *msg})
}
