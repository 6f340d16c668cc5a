// Package redis implements pubsub.Broker on Redis PUBLISH/SUBSCRIBE.
package redis

import (
	"chatbox-backend/internal/pubsub"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ pubsub.Broker = (*Broker)(nil)

// Broker relays events through a Redis server so that every server process
// subscribed to the same channel sees them.
type Broker struct {
	rdb        *goredis.Client
	bufferSize int
	log        *zap.Logger
}

// NewBroker connects to addr and verifies the connection with PING.
func NewBroker(ctx context.Context, addr string, bufferSize int, logger *zap.Logger) (*Broker, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	if bufferSize <= 0 {
		bufferSize = pubsub.DefaultBufferSize
	}
	return &Broker{rdb: rdb, bufferSize: bufferSize, log: logger.Named("redis_broker")}, nil
}

func (b *Broker) Publish(ctx context.Context, channel string, ev pubsub.Event) error {
	ev.Channel = channel
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis channel %s: %w", channel, err)
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (pubsub.Subscription, error) {
	ps := b.rdb.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to redis channel %s: %w", channel, err)
	}

	sub := &subscription{
		ps:     ps,
		events: make(chan pubsub.Event, b.bufferSize),
		done:   make(chan struct{}),
		log:    b.log.With(zap.String("channel", channel)),
	}
	go sub.run()
	return sub, nil
}

func (b *Broker) Close() error {
	return b.rdb.Close()
}

type subscription struct {
	ps     *goredis.PubSub
	events chan pubsub.Event
	done   chan struct{}
	once   sync.Once
	log    *zap.Logger
}

func (s *subscription) run() {
	defer close(s.events)
	msgs := s.ps.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev pubsub.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				s.log.Warn("discarding undecodable event", zap.Error(err))
				continue
			}
			select {
			case s.events <- ev:
			default:
				s.log.Warn("subscriber buffer full, dropping event")
			}
		}
	}
}

func (s *subscription) Events() <-chan pubsub.Event { return s.events }

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
