// Package realtime forwards notification relay events to websocket clients.
package realtime

import (
	"chatbox-backend/internal/models"
	"chatbox-backend/internal/pubsub"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Hub holds one relay subscription per process and fans each event out to
// every registered websocket client.
type Hub struct {
	broker  pubsub.Broker
	channel string

	mu      sync.RWMutex
	clients map[*Client]struct{}
	stopped bool

	done chan struct{}
	log  *zap.Logger
}

func NewHub(broker pubsub.Broker, channel string, logger *zap.Logger) *Hub {
	return &Hub{
		broker:  broker,
		channel: channel,
		clients: make(map[*Client]struct{}),
		done:    make(chan struct{}),
		log:     logger.Named("hub"),
	}
}

// Start subscribes to the relay channel and forwards events until ctx is
// cancelled or the subscription ends. With the memory and redis brokers the
// subscription is live when Start returns; the kafka broker starts delivering
// once its consumer group has joined, so earlier events may be missed.
func (h *Hub) Start(ctx context.Context) error {
	sub, err := h.broker.Subscribe(ctx, h.channel)
	if err != nil {
		return fmt.Errorf("hub failed to subscribe to %s: %w", h.channel, err)
	}
	h.log.Info("hub subscribed", zap.String("channel", h.channel))
	go h.run(ctx, sub)
	return nil
}

// Done is closed once the hub has stopped and disconnected its clients.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) run(ctx context.Context, sub pubsub.Subscription) {
	defer close(h.done)
	defer h.closeAll()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				h.log.Warn("relay subscription closed")
				return
			}
			h.broadcast(ev)
		}
	}
}

func (h *Hub) broadcast(ev pubsub.Event) {
	frame, err := json.Marshal(models.NotificationFrame{Channel: ev.Channel, Event: ev.Name})
	if err != nil {
		h.log.Error("failed to encode notification frame", zap.Error(err))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	count := len(h.clients)
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow client", zap.Stringer("user_id", c.userID))
		h.unregister(c)
	}
	h.log.Debug("notification broadcast", zap.String("event", ev.Name), zap.Int("clients", count))
}

// register adds c; it returns false once the hub has stopped.
func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.log.Info("client registered", zap.Stringer("user_id", c.userID), zap.Int("clients", count))
	return true
}

// unregister removes c and closes its send channel. Safe to call more than once.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	count := len(h.clients)
	h.mu.Unlock()
	h.log.Info("client unregistered", zap.Stringer("user_id", c.userID), zap.Int("clients", count))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ClientCount reports the number of connected websocket clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
