package client

import (
	"chatbox-backend/internal/models"
	"chatbox-backend/internal/pubsub"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const closeWait = time.Second

// Notifier subscribes to the server's notification stream at /ws.
type Notifier struct {
	endpoint string
	api      *API
	dialer   *websocket.Dialer
	log      *zap.Logger
}

// NewNotifier derives the websocket endpoint from the API's base URL and
// authenticates with the API's current token.
func NewNotifier(api *API, logger *zap.Logger) (*Notifier, error) {
	u, err := url.Parse(api.BaseURL())
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", api.BaseURL(), err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported api url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"

	return &Notifier{
		endpoint: u.String(),
		api:      api,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:      logger.Named("notifier"),
	}, nil
}

// Subscribe opens the websocket and returns a subscription whose events are
// the notification frames the server pushes. Frames carry no message content.
func (n *Notifier) Subscribe(ctx context.Context) (pubsub.Subscription, error) {
	header := http.Header{}
	header.Add("Authorization", "Bearer "+n.api.Token())

	conn, resp, err := n.dialer.DialContext(ctx, n.endpoint, header)
	if err != nil {
		ne := &NetworkError{Op: "subscribe", Err: err}
		if resp != nil {
			ne.StatusCode = resp.StatusCode
		}
		return nil, ne
	}

	sub := &wsSubscription{
		conn:   conn,
		events: make(chan pubsub.Event, pubsub.DefaultBufferSize),
		done:   make(chan struct{}),
		log:    n.log,
	}
	go sub.readLoop()
	return sub, nil
}

type wsSubscription struct {
	conn      *websocket.Conn
	events    chan pubsub.Event
	done      chan struct{}
	closeOnce sync.Once
	log       *zap.Logger
}

func (s *wsSubscription) Events() <-chan pubsub.Event { return s.events }

// Close sends a close frame and waits briefly for the read loop to finish.
func (s *wsSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWait))
		select {
		case <-s.done:
		case <-time.After(closeWait):
		}
		err = s.conn.Close()
	})
	return err
}

// readLoop decodes frames into events. The default ping handler answers the
// server's keepalive pings while ReadMessage blocks.
func (s *wsSubscription) readLoop() {
	defer close(s.done)
	defer close(s.events)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("notification stream closed", zap.Error(err))
			}
			return
		}
		var frame models.NotificationFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.log.Debug("ignoring malformed frame", zap.ByteString("frame", data))
			continue
		}
		select {
		case s.events <- pubsub.Event{Channel: frame.Channel, Name: frame.Event}:
		default:
			// A refetch is already pending; one more would read the same state.
		}
	}
}
