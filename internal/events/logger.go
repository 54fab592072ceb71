package events

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// busLogger routes watermill's logging through slog. GoChannel reports
// routine conditions such as a publish without subscribers at info level,
// so those are demoted to debug.
type busLogger struct {
	watermill.LoggerAdapter
}

func newBusLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return busLogger{watermill.NewSlogLogger(logger)}
}

func (l busLogger) Info(msg string, fields watermill.LogFields) {
	l.LoggerAdapter.Debug(msg, fields)
}

func (l busLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return busLogger{l.LoggerAdapter.With(fields)}
}
