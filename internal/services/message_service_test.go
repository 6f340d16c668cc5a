package services

import (
	"chatbox-backend/internal/mocks"
	"chatbox-backend/internal/models"
	"chatbox-backend/internal/pubsub"
	"chatbox-backend/internal/store"
	"chatbox-backend/internal/store/memstore"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var createdEvent = pubsub.Event{Name: pubsub.EventMessageCreated}

func TestMessageService_CreateMessage(t *testing.T) {
	ctx := context.Background()
	author := &models.User{ID: uuid.New(), Name: "Alice"}
	at := time.Date(2024, time.March, 5, 17, 4, 9, 0, time.UTC)

	t.Run("stores the text verbatim and publishes one notification", func(t *testing.T) {
		req := require.New(t)
		st := &mocks.Store{}
		broker := &mocks.Broker{}
		svc := NewMessageService(st, broker, MessageServiceOptions{}, zap.NewNop())

		st.On("GetUserByID", ctx, author.ID).Return(author, nil).Once()
		st.On("CreateMessage", ctx, store.CreateMessageParams{UserID: author.ID, Text: "  hello  "}).
			Return(&models.Message{ID: 7, UserID: author.ID, Text: "  hello  ", CreatedAt: at}, nil).Once()
		broker.On("Publish", mock.Anything, DefaultNotifyChannel, createdEvent).Return(nil).Once()

		resp, err := svc.CreateMessage(ctx, author.ID, "  hello  ")
		req.NoError(err)
		req.Equal(int64(7), resp.ID)
		req.Equal(author.ID, resp.UserID)
		req.Equal(models.MessageAuthor{ID: author.ID, Name: "Alice"}, resp.User)
		req.Equal("  hello  ", resp.Text)
		req.Equal("05 Mar 2024, 17:04:09", resp.Time)
		st.AssertExpectations(t)
		broker.AssertExpectations(t)
	})

	t.Run("accepts blank text by default", func(t *testing.T) {
		req := require.New(t)
		st := &mocks.Store{}
		broker := &mocks.Broker{}
		svc := NewMessageService(st, broker, MessageServiceOptions{}, zap.NewNop())

		st.On("GetUserByID", ctx, author.ID).Return(author, nil)
		st.On("CreateMessage", ctx, store.CreateMessageParams{UserID: author.ID, Text: "   "}).
			Return(&models.Message{ID: 1, UserID: author.ID, Text: "   ", CreatedAt: at}, nil)
		broker.On("Publish", mock.Anything, DefaultNotifyChannel, createdEvent).Return(nil)

		_, err := svc.CreateMessage(ctx, author.ID, "   ")
		req.NoError(err)
	})

	t.Run("rejects blank text when configured", func(t *testing.T) {
		req := require.New(t)
		st := &mocks.Store{}
		broker := &mocks.Broker{}
		svc := NewMessageService(st, broker, MessageServiceOptions{RejectBlank: true}, zap.NewNop())

		_, err := svc.CreateMessage(ctx, author.ID, " \t ")
		req.ErrorIs(err, ErrValidation)
		st.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
		broker.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unauthenticated caller", func(t *testing.T) {
		req := require.New(t)
		st := &mocks.Store{}
		broker := &mocks.Broker{}
		svc := NewMessageService(st, broker, MessageServiceOptions{}, zap.NewNop())

		_, err := svc.CreateMessage(ctx, uuid.Nil, "hello")
		req.ErrorIs(err, ErrUnauthenticated)

		unknown := uuid.New()
		st.On("GetUserByID", ctx, unknown).Return(nil, store.ErrNotFound)
		_, err = svc.CreateMessage(ctx, unknown, "hello")
		req.ErrorIs(err, ErrUnauthenticated)
		broker.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("storage failure publishes nothing", func(t *testing.T) {
		req := require.New(t)
		st := &mocks.Store{}
		broker := &mocks.Broker{}
		svc := NewMessageService(st, broker, MessageServiceOptions{}, zap.NewNop())

		st.On("GetUserByID", ctx, author.ID).Return(author, nil)
		st.On("CreateMessage", ctx, mock.Anything).Return(nil, errors.New("connection reset"))

		_, err := svc.CreateMessage(ctx, author.ID, "hello")
		req.ErrorIs(err, ErrStorage)
		broker.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("publish failure still succeeds", func(t *testing.T) {
		req := require.New(t)
		st := &mocks.Store{}
		broker := &mocks.Broker{}
		svc := NewMessageService(st, broker, MessageServiceOptions{Channel: "room"}, zap.NewNop())

		st.On("GetUserByID", ctx, author.ID).Return(author, nil)
		st.On("CreateMessage", ctx, mock.Anything).
			Return(&models.Message{ID: 3, UserID: author.ID, Text: "hello", CreatedAt: at}, nil)
		broker.On("Publish", mock.Anything, "room", createdEvent).Return(errors.New("relay down"))

		resp, err := svc.CreateMessage(ctx, author.ID, "hello")
		req.NoError(err)
		req.Equal(int64(3), resp.ID)
	})
}

func TestMessageService_ListMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("maps rows in order with formatted time", func(t *testing.T) {
		req := require.New(t)
		st := &mocks.Store{}
		loc := time.FixedZone("CET", 60*60)
		svc := NewMessageService(st, &mocks.Broker{}, MessageServiceOptions{Location: loc}, zap.NewNop())

		alice, bob := uuid.New(), uuid.New()
		at := time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)
		st.On("ListMessagesWithAuthors", ctx).Return([]models.MessageWithAuthor{
			{Message: models.Message{ID: 1, UserID: alice, Text: "hi", CreatedAt: at}, AuthorName: "Alice"},
			{Message: models.Message{ID: 2, UserID: bob, Text: "yo", CreatedAt: at.Add(time.Minute)}, AuthorName: "Bob"},
		}, nil)

		msgs, err := svc.ListMessages(ctx)
		req.NoError(err)
		req.Len(msgs, 2)
		req.Equal(int64(1), msgs[0].ID)
		req.Equal("Alice", msgs[0].User.Name)
		req.Equal("02 Jan 2024, 10:00:00", msgs[0].Time)
		req.Equal(bob, msgs[1].UserID)
		req.Equal("02 Jan 2024, 10:01:00", msgs[1].Time)
	})

	t.Run("empty store yields an empty non-nil slice", func(t *testing.T) {
		req := require.New(t)
		st := &mocks.Store{}
		svc := NewMessageService(st, &mocks.Broker{}, MessageServiceOptions{}, zap.NewNop())
		st.On("ListMessagesWithAuthors", ctx).Return([]models.MessageWithAuthor{}, nil)

		msgs, err := svc.ListMessages(ctx)
		req.NoError(err)
		req.NotNil(msgs)
		req.Empty(msgs)
	})

	t.Run("storage failure", func(t *testing.T) {
		st := &mocks.Store{}
		svc := NewMessageService(st, &mocks.Broker{}, MessageServiceOptions{}, zap.NewNop())
		st.On("ListMessagesWithAuthors", ctx).Return(nil, errors.New("timeout"))

		_, err := svc.ListMessages(ctx)
		require.ErrorIs(t, err, ErrStorage)
	})
}

func TestMessageService_CreateThenList(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	st := memstore.New()
	broker := pubsub.NewMemoryBroker(4, zap.NewNop())
	defer broker.Close()
	svc := NewMessageService(st, broker, MessageServiceOptions{}, zap.NewNop())

	user := &models.User{ID: uuid.New(), Name: "User One", Email: "one@example.com"}
	req.NoError(st.CreateUser(ctx, user))

	sub, err := broker.Subscribe(ctx, svc.Channel())
	req.NoError(err)
	defer sub.Close()

	first, err := svc.ListMessages(ctx)
	req.NoError(err)
	again, err := svc.ListMessages(ctx)
	req.NoError(err)
	req.Equal(first, again, "listing is idempotent")

	_, err = svc.CreateMessage(ctx, user.ID, "hello")
	req.NoError(err)

	select {
	case ev := <-sub.Events():
		req.Equal(pubsub.EventMessageCreated, ev.Name)
	case <-time.After(time.Second):
		t.Fatal("no notification published")
	}

	msgs, err := svc.ListMessages(ctx)
	req.NoError(err)
	req.Len(msgs, len(first)+1)
	last := msgs[len(msgs)-1]
	req.Equal(user.ID, last.UserID)
	req.Equal("hello", last.Text)
	req.NotEmpty(last.Time)

	again, err = svc.ListMessages(ctx)
	req.NoError(err)
	req.Equal(msgs, again)
}

func TestMessageService_CreateMessagePublishesAfterRequestCancelled(t *testing.T) {
	req := require.New(t)
	st := memstore.New()
	broker := pubsub.NewMemoryBroker(4, zap.NewNop())
	defer broker.Close()
	svc := NewMessageService(st, broker, MessageServiceOptions{}, zap.NewNop())

	user := &models.User{ID: uuid.New(), Name: "User One", Email: "one@example.com"}
	req.NoError(st.CreateUser(context.Background(), user))
	sub, err := broker.Subscribe(context.Background(), svc.Channel())
	req.NoError(err)
	defer sub.Close()

	// The in-memory store ignores ctx, standing in for an insert that
	// committed just before the caller went away.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.CreateMessage(ctx, user.ID, "hello")
	req.NoError(err)

	msgs, err := svc.ListMessages(context.Background())
	req.NoError(err)
	req.Len(msgs, 1)

	select {
	case ev := <-sub.Events():
		req.Equal(pubsub.EventMessageCreated, ev.Name)
	case <-time.After(time.Second):
		t.Fatal("message stored but no notification published")
	}
}
