package services

import (
	"chatbox-backend/internal/models"
	"chatbox-backend/internal/pubsub"
	"chatbox-backend/internal/store"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DefaultNotifyChannel is the shared channel every client listens on.
const DefaultNotifyChannel = "channel_for_everyone"

// publishTimeout bounds the notification publish, which outlives the request context.
const publishTimeout = 5 * time.Second

// MessageServiceOptions tunes MessageService. Zero values give the defaults.
type MessageServiceOptions struct {
	Channel     string         // notification channel, DefaultNotifyChannel if empty
	Location    *time.Location // display location for the formatted time, UTC if nil
	RejectBlank bool           // reject empty/whitespace text with ErrValidation
}

// MessageService handles message reads/writes and drives notification fan-out.
type MessageService struct {
	store  store.Store
	broker pubsub.Broker
	opts   MessageServiceOptions
	log    *zap.Logger
}

// NewMessageService creates a new MessageService.
func NewMessageService(s store.Store, broker pubsub.Broker, opts MessageServiceOptions, logger *zap.Logger) *MessageService {
	if opts.Channel == "" {
		opts.Channel = DefaultNotifyChannel
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &MessageService{
		store:  s,
		broker: broker,
		opts:   opts,
		log:    logger.Named("message_service"),
	}
}

// Channel returns the channel notifications are published on.
func (s *MessageService) Channel() string {
	return s.opts.Channel
}

// ListMessages returns every message in insertion order with its author resolved.
func (s *MessageService) ListMessages(ctx context.Context) ([]models.MessageResponse, error) {
	rows, err := s.store.ListMessagesWithAuthors(ctx)
	if err != nil {
		s.log.Error("failed to list messages", zap.Error(err))
		return nil, fmt.Errorf("%w: listing messages: %v", ErrStorage, err)
	}

	return lo.Map(rows, func(row models.MessageWithAuthor, _ int) models.MessageResponse {
		return s.toResponse(row.Message, row.AuthorName)
	}), nil
}

// CreateMessage stores text for authorID and publishes a payload-less
// notification. A publish failure is logged but does not fail the call: the
// message is already durable and the next notification resynchronises clients.
func (s *MessageService) CreateMessage(ctx context.Context, authorID uuid.UUID, text string) (*models.MessageResponse, error) {
	if authorID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if s.opts.RejectBlank && strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message text cannot be empty", ErrValidation)
	}

	author, err := s.store.GetUserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Warn("message from unknown user", zap.Stringer("user_id", authorID))
			return nil, fmt.Errorf("%w: unknown user %s", ErrUnauthenticated, authorID)
		}
		return nil, fmt.Errorf("%w: resolving author: %v", ErrStorage, err)
	}

	msg, err := s.store.CreateMessage(ctx, store.CreateMessageParams{UserID: authorID, Text: text})
	if err != nil {
		return nil, fmt.Errorf("%w: creating message: %v", ErrStorage, err)
	}

	// The message is committed; a client disconnect or request timeout must not suppress the notification.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	ev := pubsub.Event{Name: pubsub.EventMessageCreated}
	if err := s.broker.Publish(pubCtx, s.opts.Channel, ev); err != nil {
		s.log.Warn("message stored but notification failed",
			zap.Int64("message_id", msg.ID),
			zap.String("channel", s.opts.Channel),
			zap.Error(err),
		)
	}

	resp := s.toResponse(*msg, author.Name)
	return &resp, nil
}

func (s *MessageService) toResponse(m models.Message, authorName string) models.MessageResponse {
	return models.MessageResponse{
		ID:        m.ID,
		UserID:    m.UserID,
		User:      models.MessageAuthor{ID: m.UserID, Name: authorName},
		Text:      m.Text,
		Time:      models.FormatMessageTime(m.CreatedAt, s.opts.Location),
		CreatedAt: m.CreatedAt,
	}
}
