package pinlock

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/pinlock/internal/audit"
)

// AuditEvent is one security-relevant engine event. It never carries PINs,
// salts or derived secrets.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine dispatcher.
type AuditSink = audit.Sink

// AuditSinkFunc adapts a function to AuditSink.
type AuditSinkFunc = audit.SinkFunc

// AuditStats reports dispatcher delivery counters.
type AuditStats = audit.Stats

// NoOpSink drops every event.
type NoOpSink = audit.NoOpSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// SlogSink writes events as structured log records.
type SlogSink = audit.SlogSink

// NewJSONWriterSink creates a JSONWriterSink on w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewSlogSink creates a SlogSink on logger, or slog.Default when nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return audit.NewSlogSink(logger)
}
