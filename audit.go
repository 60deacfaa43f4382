package goAccounts

import (
	"io"

	internalaudit "github.com/MrEthical07/goAccounts/internal/audit"
	"github.com/rs/zerolog"
)

// AuditEvent is one account or session event delivered to an [AuditSink].
// It never carries passwords, hashes or credentials.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the engine's dispatcher goroutine.
type AuditSink = internalaudit.Sink

type (
	NoOpSink       = internalaudit.NoOpSink
	ChannelSink    = internalaudit.ChannelSink
	JSONWriterSink = internalaudit.JSONWriterSink
	LoggerSink     = internalaudit.LoggerSink
)

// NewChannelSink returns a sink that buffers up to buffer events for a reader.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink writes one JSON object per event and line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewLoggerSink logs every event through logger.
func NewLoggerSink(logger zerolog.Logger) LoggerSink {
	return internalaudit.NewLoggerSink(logger)
}
