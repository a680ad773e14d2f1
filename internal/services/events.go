package services

import (
	"context"
	"time"

	"github.com/todos-api/apiserver/internal/logger"
	"github.com/todos-api/apiserver/types"
	"go.uber.org/zap"
)

const (
	ChannelUserRegistered = "users.registered"
	ChannelUserDeleted    = "users.deleted"
	ChannelTodoCreated    = "todos.created"
	ChannelTodoDeleted    = "todos.deleted"
)

// EventPublisher publishes lifecycle events. *mq.MQ implements it.
type EventPublisher interface {
	PublishJSON(ctx context.Context, channel string, value any) (string, error)
}

// publishEvent sends event on channel if a publisher is configured. Failures
// are logged and never returned: the store change has already committed.
func publishEvent(ctx context.Context, events EventPublisher, channel string, event types.Event) {
	if events == nil {
		return
	}
	event.Type = channel
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if _, err := events.PublishJSON(ctx, channel, event); err != nil {
		logger.Log.Warn("publish event failed",
			zap.String("channel", channel),
			zap.Int("user_id", event.UserID),
			zap.Error(err),
		)
	}
}
