package pubsub

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

var _ Broker = (*MemoryBroker)(nil)

// MemoryBroker fans out events to subscribers inside a single process.
type MemoryBroker struct {
	mu         sync.RWMutex
	subs       map[string]map[*memorySubscription]struct{}
	bufferSize int
	closed     bool
	log        *zap.Logger
}

// NewMemoryBroker creates an in-process broker. bufferSize <= 0 uses DefaultBufferSize.
func NewMemoryBroker(bufferSize int, logger *zap.Logger) *MemoryBroker {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &MemoryBroker{
		subs:       make(map[string]map[*memorySubscription]struct{}),
		bufferSize: bufferSize,
		log:        logger.Named("memory_broker"),
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, channel string, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev.Channel = channel

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	for sub := range b.subs[channel] {
		select {
		case sub.events <- ev:
		default:
			b.log.Warn("subscriber buffer full, dropping event", zap.String("channel", channel))
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	sub := &memorySubscription{
		broker:  b,
		channel: channel,
		events:  make(chan Event, b.bufferSize),
	}
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*memorySubscription]struct{})
	}
	b.subs[channel][sub] = struct{}{}
	b.log.Debug("subscribed", zap.String("channel", channel), zap.Int("subscribers", len(b.subs[channel])))
	return sub, nil
}

// Subscribers reports the number of live subscriptions on channel.
func (b *MemoryBroker) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}

// Close ends every subscription.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for channel, subs := range b.subs {
		for sub := range subs {
			sub.closeLocked()
		}
		delete(b.subs, channel)
	}
	return nil
}

func (b *MemoryBroker) unsubscribe(sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.subs[sub.channel]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.subs, sub.channel)
	}
	sub.closeLocked()
}

type memorySubscription struct {
	broker  *MemoryBroker
	channel string
	events  chan Event
	once    sync.Once
}

func (s *memorySubscription) Events() <-chan Event { return s.events }

func (s *memorySubscription) Close() error {
	s.broker.unsubscribe(s)
	return nil
}

// closeLocked must be called with the broker lock held.
func (s *memorySubscription) closeLocked() {
	s.once.Do(func() { close(s.events) })
}
