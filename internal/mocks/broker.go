package mocks

import (
	"chatbox-backend/internal/pubsub"
	"context"

	"github.com/stretchr/testify/mock"
)

var _ pubsub.Broker = (*Broker)(nil)

type Broker struct {
	mock.Mock
}

func (m *Broker) Publish(ctx context.Context, channel string, ev pubsub.Event) error {
	return m.Called(ctx, channel, ev).Error(0)
}

func (m *Broker) Subscribe(ctx context.Context, channel string) (pubsub.Subscription, error) {
	args := m.Called(ctx, channel)
	sub, _ := args.Get(0).(pubsub.Subscription)
	return sub, args.Error(1)
}

func (m *Broker) Close() error {
	return m.Called().Error(0)
}
