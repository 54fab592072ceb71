package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})), &buf
}

func TestBus_LogsThroughSlog(t *testing.T) {
	t.Run("unobserved publish stays below info", func(t *testing.T) {
		logger, buf := bufferLogger(slog.LevelInfo)
		bus := NewBus(logger)
		t.Cleanup(func() { _ = bus.Close() })

		require.NoError(t, bus.Publish(context.Background(), TopicAttackLogged.Name(), []byte("{}")))
		assert.Empty(t, buf.String())
	})

	t.Run("debug level shows it with the component", func(t *testing.T) {
		logger, buf := bufferLogger(slog.LevelDebug)
		bus := NewBus(logger)
		t.Cleanup(func() { _ = bus.Close() })

		require.NoError(t, bus.Publish(context.Background(), TopicAttackLogged.Name(), []byte("{}")))
		assert.Contains(t, buf.String(), "No subscribers to send message")
		assert.Contains(t, buf.String(), "component=events")
		assert.Contains(t, buf.String(), "topic="+TopicAttackLogged.Name())
	})
}

func TestBusLogger(t *testing.T) {
	logger, buf := bufferLogger(slog.LevelInfo)
	l := newBusLogger(logger).With(watermill.LogFields{"subscriber": "cli"})

	l.Info("routine", nil)
	assert.Empty(t, buf.String())

	l.Error("handler failed", errors.New("boom"), watermill.LogFields{"topic": "x"})
	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "subscriber=cli")
	assert.Contains(t, out, "topic=x")

	buf.Reset()
	l.With(nil).Info("still routine", nil)
	assert.Empty(t, buf.String())
}
