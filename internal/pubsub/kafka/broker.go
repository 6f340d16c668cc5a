// Package kafka implements pubsub.Broker on Kafka topics. Each channel maps
// to a topic; each subscription reads with its own consumer group starting at
// the newest offset so that every subscriber receives every event.
package kafka

import (
	"chatbox-backend/internal/pubsub"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var _ pubsub.Broker = (*Broker)(nil)

type Broker struct {
	brokers    []string
	writer     *kafkago.Writer
	bufferSize int
	log        *zap.Logger
}

func NewBroker(brokers []string, bufferSize int, logger *zap.Logger) *Broker {
	if bufferSize <= 0 {
		bufferSize = pubsub.DefaultBufferSize
	}
	return &Broker{
		brokers: brokers,
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Balancer:               &kafkago.LeastBytes{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
		bufferSize: bufferSize,
		log:        logger.Named("kafka_broker"),
	}
}

func (b *Broker) Publish(ctx context.Context, channel string, ev pubsub.Event) error {
	ev.Channel = channel
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	err = b.writer.WriteMessages(ctx, kafkago.Message{
		Topic: channel,
		Value: payload,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to write event to kafka topic %s: %w", channel, err)
	}
	return nil
}

// Subscribe returns before the new consumer group has joined. The reader
// joins on its first fetch and starts at the newest offset at that point, so
// events published in between are not delivered to this subscription.
func (b *Broker) Subscribe(ctx context.Context, channel string) (pubsub.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     b.brokers,
		Topic:       channel,
		GroupID:     "chatbox-" + uuid.NewString(),
		StartOffset: kafkago.LastOffset,
		MaxWait:     250 * time.Millisecond,
	})

	readCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		reader: reader,
		cancel: cancel,
		events: make(chan pubsub.Event, b.bufferSize),
		log:    b.log.With(zap.String("topic", channel)),
	}
	go sub.run(readCtx)
	return sub, nil
}

func (b *Broker) Close() error {
	return b.writer.Close()
}

type subscription struct {
	reader *kafkago.Reader
	cancel context.CancelFunc
	events chan pubsub.Event
	once   sync.Once
	log    *zap.Logger
}

func (s *subscription) run(ctx context.Context) {
	defer close(s.events)
	for {
		m, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.log.Warn("kafka reader stopped", zap.Error(err))
			}
			return
		}
		var ev pubsub.Event
		if err := json.Unmarshal(m.Value, &ev); err != nil {
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

func (s *subscription) Events() <-chan pubsub.Event { return s.events }

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.reader.Close()
	})
	return err
}
