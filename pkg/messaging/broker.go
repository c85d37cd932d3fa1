package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// ChannelNotifications carries NotificationEvent payloads for connected
// in-app clients.
const ChannelNotifications = "notifications"
