package client

import (
	"chatbox-backend/internal/api"
	"chatbox-backend/internal/config"
	"chatbox-backend/internal/handlers"
	"chatbox-backend/internal/models"
	"chatbox-backend/internal/pubsub"
	"chatbox-backend/internal/realtime"
	"chatbox-backend/internal/services"
	"chatbox-backend/internal/store/memstore"
	"context"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type chatServer struct {
	url string
	hub *realtime.Hub
}

// startChatServer runs the full HTTP stack over an in-memory store and broker.
func startChatServer(t *testing.T) *chatServer {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:       "session-test-secret",
		TokenExpiration: time.Hour,
		NotifyChannel:   services.DefaultNotifyChannel,
	}
	logger := zap.NewNop()
	st := memstore.New()
	broker := pubsub.NewMemoryBroker(pubsub.DefaultBufferSize, logger)

	ctx, cancel := context.WithCancel(context.Background())
	hub := realtime.NewHub(broker, cfg.NotifyChannel, logger)
	require.NoError(t, hub.Start(ctx))

	router := api.NewRouter(api.RouterDependencies{
		AuthHandler: handlers.NewAuthHandler(services.NewAuthService(st, cfg, logger), logger),
		MessageHandlers: handlers.NewMessageHandlers(
			services.NewMessageService(st, broker, services.MessageServiceOptions{Channel: cfg.NotifyChannel}, logger),
			logger,
		),
		WebsocketHandler: realtime.NewHandler(hub, nil, logger),
		Config:           cfg,
		Logger:           logger,
	})
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		cancel()
		<-hub.Done()
		srv.Close()
		_ = broker.Close()
	})
	return &chatServer{url: srv.URL, hub: hub}
}

type session struct {
	api      *API
	viewer   Viewer
	box      *ChatBox
	renderer *recordingRenderer
}

func (s *chatServer) join(t *testing.T, name, email string) *session {
	t.Helper()
	ctx := context.Background()
	a := NewAPI(s.url, nil, zap.NewNop())
	_, err := a.Signup(ctx, name, email, "password123")
	require.NoError(t, err)
	auth, err := a.Login(ctx, email, "password123")
	require.NoError(t, err)

	notifier, err := NewNotifier(a, zap.NewNop())
	require.NoError(t, err)

	viewer := Viewer{ID: auth.User.ID, Name: auth.User.Name}
	renderer := newRecordingRenderer()
	box := NewChatBox(a, notifier, viewer, ChatBoxOptions{Renderer: renderer}, zap.NewNop())

	before := s.hub.ClientCount()
	require.NoError(t, box.Mount(ctx))
	t.Cleanup(box.Unmount)
	require.Eventually(t, func() bool { return s.hub.ClientCount() > before }, 2*time.Second, 5*time.Millisecond)
	require.Empty(t, renderer.next(t), "initial render of an empty room")

	return &session{api: a, viewer: viewer, box: box, renderer: renderer}
}

// waitForTexts waits until the session renders exactly the given texts in order.
func (s *session) waitForTexts(t *testing.T, texts ...string) []models.MessageResponse {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case msgs := <-s.renderer.renders:
			got := lo.Map(msgs, func(m models.MessageResponse, _ int) string { return m.Text })
			if slices.Equal(got, texts) {
				return msgs
			}
		case <-deadline:
			t.Fatalf("%s never rendered %q; has %v", s.viewer.Name, texts, s.box.Messages())
			return nil
		}
	}
}

func TestSession_HelloFromUserOne(t *testing.T) {
	req := require.New(t)
	srv := startChatServer(t)
	one := srv.join(t, "User One", "one@example.com")

	one.box.SetDraft("hello")
	req.NoError(one.box.Submit(context.Background()))
	req.Empty(one.box.Draft())

	msgs := one.waitForTexts(t, "hello")
	req.Equal(one.viewer.ID, msgs[0].UserID)
	req.Equal("User One", msgs[0].User.Name)
	req.NotEmpty(msgs[0].Time)
	req.Equal(VariantOwn, VariantOf(one.viewer.ID, msgs[0].UserID))
}

func TestSession_TwoClientsSeeEachOther(t *testing.T) {
	req := require.New(t)
	srv := startChatServer(t)
	alice := srv.join(t, "Alice", "alice@example.com")
	bob := srv.join(t, "Bob", "bob@example.com")

	alice.box.SetDraft("hi bob")
	req.NoError(alice.box.Submit(context.Background()))

	forAlice := alice.waitForTexts(t, "hi bob")
	forBob := bob.waitForTexts(t, "hi bob")
	req.Equal(VariantOwn, VariantOf(alice.viewer.ID, forAlice[0].UserID))
	req.Equal(VariantOther, VariantOf(bob.viewer.ID, forBob[0].UserID))

	bob.box.SetDraft("hey alice")
	req.NoError(bob.box.Submit(context.Background()))

	forAlice = alice.waitForTexts(t, "hi bob", "hey alice")
	forBob = bob.waitForTexts(t, "hi bob", "hey alice")
	req.Equal(forAlice, forBob, "both sessions converge on the same list")
	req.Less(forAlice[0].ID, forAlice[1].ID)
	req.Equal(VariantOther, VariantOf(alice.viewer.ID, forAlice[1].UserID))
	req.Equal(VariantOwn, VariantOf(bob.viewer.ID, forBob[1].UserID))

	// Blank drafts never reach the server.
	bob.box.SetDraft("   ")
	req.ErrorIs(bob.box.Submit(context.Background()), ErrEmptyMessage)
	msgs, err := bob.api.ListMessages(context.Background())
	req.NoError(err)
	req.Len(msgs, 2)
}
