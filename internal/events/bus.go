// Package events republishes fight-state transitions on an in-process
// message bus so that independent consumers (sound cues, overlays, the CLI
// REPL) can react without subscribing to raw state.
package events

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const metaKeyTopic = "topic"

// Message is what handlers receive from the bus.
type Message struct {
	ID      string
	Topic   string
	Payload []byte
}

// Handler processes one message. A non-nil error nacks it.
type Handler func(ctx context.Context, msg Message) error

// Bus is an in-memory publish/subscribe channel backed by watermill's
// GoChannel. Messages published before a topic has subscribers are
// dropped.
type Bus struct {
	ch     *gochannel.GoChannel
	logger *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "events")
	return &Bus{
		ch:     gochannel.NewGoChannel(gochannel.Config{}, newBusLogger(logger)),
		logger: logger,
	}
}

// Publish sends payload on topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload []byte) error {
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(metaKeyTopic, topic)
	return b.ch.Publish(topic, msg)
}

// Subscribe starts delivering messages on topic to handler in a background
// goroutine until ctx is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := b.ch.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for wmMsg := range messages {
			msg := Message{
				ID:      wmMsg.UUID,
				Topic:   wmMsg.Metadata.Get(metaKeyTopic),
				Payload: wmMsg.Payload,
			}
			if err := handler(ctx, msg); err != nil {
				b.logger.Error("failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
				wmMsg.Nack()
				continue
			}
			wmMsg.Ack()
		}
		b.logger.Debug("subscription ended", "topic", topic)
	}()
	return nil
}

// Close shuts the bus down and ends every subscription.
func (b *Bus) Close() error {
	return b.ch.Close()
}
