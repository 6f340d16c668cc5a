package client

import (
	"chatbox-backend/internal/models"
	"chatbox-backend/internal/pubsub"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EmptyMessageAlert is shown when the user submits a blank draft.
const EmptyMessageAlert = "Please enter a message!"

const (
	// sendTimeout bounds one background send; sends outlive the Submit context.
	sendTimeout = 10 * time.Second
	// drainTimeout is how long Unmount waits for sends still in flight.
	drainTimeout = 3 * time.Second
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrAlreadyMounted = errors.New("chat box is already mounted")
)

// Viewer identifies the user the chat box renders for.
type Viewer struct {
	ID   uuid.UUID
	Name string
}

// MessageSource is the message API used by the chat box.
type MessageSource interface {
	ListMessages(ctx context.Context) ([]models.MessageResponse, error)
	CreateMessage(ctx context.Context, text string) (*models.MessageResponse, error)
}

// Subscriber opens a notification subscription.
type Subscriber interface {
	Subscribe(ctx context.Context) (pubsub.Subscription, error)
}

// Renderer draws the full message list. It is called after every refetch.
type Renderer interface {
	Render(viewer Viewer, msgs []models.MessageResponse)
}

// ChatBoxOptions holds the optional collaborators of a ChatBox.
type ChatBoxOptions struct {
	Renderer Renderer
	// Alert receives user-facing warnings. Defaults to a warn log line.
	Alert func(msg string)
}

// ChatBox keeps the visible message list in sync with the server: every
// notification triggers a full refetch that replaces the list.
type ChatBox struct {
	api      MessageSource
	notifier Subscriber
	viewer   Viewer
	renderer Renderer
	alert    func(string)
	log      *zap.Logger

	mu       sync.Mutex
	messages []models.MessageResponse
	draft    string
	mounted  bool
	// generation changes on every Mount and Unmount so late fetch results can be told apart.
	generation uint64
	cancel     context.CancelFunc
	sub        pubsub.Subscription
	done       chan struct{}
	wg         sync.WaitGroup
	sends      sync.WaitGroup
}

func NewChatBox(api MessageSource, notifier Subscriber, viewer Viewer, opts ChatBoxOptions, logger *zap.Logger) *ChatBox {
	log := logger.Named("chatbox").With(zap.Stringer("viewer_id", viewer.ID))
	alert := opts.Alert
	if alert == nil {
		alert = func(msg string) { log.Warn(msg) }
	}
	return &ChatBox{
		api:      api,
		notifier: notifier,
		viewer:   viewer,
		renderer: opts.Renderer,
		alert:    alert,
		log:      log,
		messages: []models.MessageResponse{},
	}
}

func (c *ChatBox) Viewer() Viewer { return c.viewer }

// Mount subscribes to notifications and loads the initial list. The
// subscription is opened first so no message created in between is missed.
// A failed initial fetch is logged and leaves the list empty until the next
// notification.
func (c *ChatBox) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return ErrAlreadyMounted
	}
	c.mu.Unlock()

	sub, err := c.notifier.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to notifications: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		cancel()
		_ = sub.Close()
		return ErrAlreadyMounted
	}
	c.mounted = true
	c.generation++
	gen := c.generation
	c.cancel = cancel
	c.sub = sub
	done := make(chan struct{})
	c.done = done
	c.wg.Add(1)
	c.mu.Unlock()

	c.refresh(runCtx, gen)
	go c.listen(runCtx, sub, gen, done)
	return nil
}

// Done is closed when the current mount stops listening, either through
// Unmount or because the server closed the notification stream. After the
// latter the box is unmounted and may be mounted again. Before the first
// Mount it returns nil.
func (c *ChatBox) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Unmount releases the subscription and stops refetching. Fetches still in
// flight are dropped when they complete. Sends still in flight get up to
// drainTimeout to finish.
func (c *ChatBox) Unmount() {
	if c.detach(0, false) {
		c.wg.Wait()
	}
	c.waitForSends(drainTimeout)
}

// detach ends the current mount. With onlyGen set it only acts when gen is
// still the current mount. It reports whether a mount was ended.
func (c *ChatBox) detach(gen uint64, onlyGen bool) bool {
	c.mu.Lock()
	if !c.mounted || (onlyGen && c.generation != gen) {
		c.mu.Unlock()
		return false
	}
	c.mounted = false
	c.generation++
	cancel, sub := c.cancel, c.sub
	c.cancel, c.sub = nil, nil
	c.mu.Unlock()

	cancel()
	if err := sub.Close(); err != nil {
		c.log.Debug("closing subscription", zap.Error(err))
	}
	return true
}

func (c *ChatBox) waitForSends(timeout time.Duration) {
	drained := make(chan struct{})
	go func() {
		c.sends.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(timeout):
		c.log.Warn("gave up waiting for messages still being sent")
	}
}

func (c *ChatBox) listen(ctx context.Context, sub pubsub.Subscription, gen uint64, done chan struct{}) {
	defer c.wg.Done()
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				c.log.Warn("notification subscription ended")
				c.detach(gen, true)
				return
			}
			c.log.Debug("notification received", zap.String("event", ev.Name))
			c.refresh(ctx, gen)
		}
	}
}

// refresh refetches the whole list and replaces local state with it.
func (c *ChatBox) refresh(ctx context.Context, gen uint64) {
	msgs, err := c.api.ListMessages(ctx)
	if err != nil {
		c.log.Warn("failed to fetch messages", zap.Error(err))
		return
	}

	c.mu.Lock()
	if !c.mounted || c.generation != gen {
		c.mu.Unlock()
		return
	}
	c.messages = msgs
	snapshot := append([]models.MessageResponse(nil), msgs...)
	c.mu.Unlock()

	if c.renderer != nil {
		c.renderer.Render(c.viewer, snapshot)
	}
}

// Messages returns a copy of the current list.
func (c *ChatBox) Messages() []models.MessageResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.MessageResponse{}, c.messages...)
}

func (c *ChatBox) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

func (c *ChatBox) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Submit sends the current draft. A blank draft raises the alert and returns
// ErrEmptyMessage without touching the network. Otherwise the draft is
// cleared at once and the message is sent in the background; a failed send
// is only logged. Cancelling ctx after Submit returns does not abort the send.
func (c *ChatBox) Submit(ctx context.Context) error {
	c.mu.Lock()
	text := c.draft
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		c.alert(EmptyMessageAlert)
		return ErrEmptyMessage
	}
	c.draft = ""
	c.mu.Unlock()

	c.sends.Add(1)
	go func() {
		defer c.sends.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()
		if _, err := c.api.CreateMessage(sendCtx, text); err != nil {
			c.log.Warn("failed to send message", zap.Error(err))
		}
	}()
	return nil
}
