package kafka

import (
	"chatbox-backend/internal/pubsub"
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Requires a running Kafka; set TEST_KAFKA_BROKERS=localhost:9092 to enable.
func TestBroker_PublishReachesAllSubscribers(t *testing.T) {
	brokers := os.Getenv("TEST_KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("TEST_KAFKA_BROKERS not set")
	}
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	broker := NewBroker(strings.Split(brokers, ","), 4, zap.NewNop())
	defer broker.Close()

	topic := "chatbox_test_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	// Creates the topic before the readers join.
	req.NoError(broker.Publish(ctx, topic, pubsub.Event{Name: "warmup"}))

	first, err := broker.Subscribe(ctx, topic)
	req.NoError(err)
	defer first.Close()
	second, err := broker.Subscribe(ctx, topic)
	req.NoError(err)
	defer second.Close()

	// New consumer groups start at the newest offset once they have joined,
	// so keep publishing until each subscriber has seen one event.
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for _, sub := range []pubsub.Subscription{first, second} {
	wait:
		for {
			select {
			case ev := <-sub.Events():
				if ev.Name != pubsub.EventMessageCreated {
					continue
				}
				req.Equal(topic, ev.Channel)
				break wait
			case <-ticker.C:
				req.NoError(broker.Publish(ctx, topic, pubsub.Event{Name: pubsub.EventMessageCreated}))
			case <-ctx.Done():
				t.Fatal("timed out waiting for event")
			}
		}
	}

	req.NoError(first.Close())
	req.NoError(first.Close())
}
