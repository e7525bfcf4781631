package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Event is one security-relevant engine event. PINs, salts and derived
// secrets never appear in it; the PIN-specific fields carry counters and
// deadlines only.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	Success   bool      `json:"success"`
	SessionID string    `json:"session_id,omitempty"`
	Error     string    `json:"error,omitempty"`

	// FailedAttempts is the stored failure count after a login attempt.
	FailedAttempts int `json:"failed_attempts,omitempty"`
	// AttemptsRemaining is set on wrong-PIN events that did not lock.
	AttemptsRemaining int `json:"attempts_remaining,omitempty"`
	// LockoutUntil is set on lockout_triggered and login_locked.
	LockoutUntil time.Time `json:"lockout_until,omitzero"`
	// Wipe marks resets that cleared the workspace.
	Wipe bool `json:"wipe,omitempty"`
	// CredentialRemoved marks a disable that deleted a stored PIN.
	CredentialRemoved bool `json:"credential_removed,omitempty"`
}

// Sink receives events from the dispatcher goroutine, one at a time.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event)

func (f SinkFunc) Emit(ctx context.Context, event Event) { f(ctx, event) }

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// JSONWriterSink writes one JSON object per line. Write errors are ignored.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		return &JSONWriterSink{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONWriterSink{enc: enc}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.enc == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(event)
}

// SlogSink writes events as structured log records: successes at Info,
// failures at Warn. Session tokens are not logged.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Emit(ctx context.Context, event Event) {
	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}

	attrs := make([]slog.Attr, 0, 8)
	attrs = append(attrs,
		slog.String("event", event.EventType),
		slog.Time("at", event.Timestamp),
	)
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	if event.FailedAttempts > 0 {
		attrs = append(attrs, slog.Int("failed_attempts", event.FailedAttempts))
	}
	if event.AttemptsRemaining > 0 {
		attrs = append(attrs, slog.Int("attempts_remaining", event.AttemptsRemaining))
	}
	if !event.LockoutUntil.IsZero() {
		attrs = append(attrs, slog.Time("lockout_until", event.LockoutUntil))
	}
	if event.Wipe {
		attrs = append(attrs, slog.Bool("wipe", true))
	}
	if event.CredentialRemoved {
		attrs = append(attrs, slog.Bool("credential_removed", true))
	}

	s.logger.LogAttrs(ctx, level, "pinlock audit", attrs...)
}
