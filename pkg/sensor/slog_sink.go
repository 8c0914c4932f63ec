package sensor

import (
	"log/slog"
)

// SlogSink adapts Sink onto log/slog, built the way the teacher's
// pkg/logger constructs loggers (structured attrs, level-appropriate
// method). It is the sink cmd/cyre-demo wires by default.
type SlogSink struct {
	Logger *slog.Logger
}

// NewSlogSink wraps logger. A nil logger falls back to slog.Default().
func NewSlogSink(logger *slog.Logger) SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return SlogSink{Logger: logger}
}

func (s SlogSink) Emit(e Event) {
	attrs := []any{
		"subject", e.Subject,
		"phase", e.Phase,
		"correlation_id", e.CorrelationID.String(),
	}
	if e.Payload != nil {
		attrs = append(attrs, "payload", e.Payload)
	}

	switch e.Level {
	case LevelDebug:
		s.Logger.Debug(e.Phase, attrs...)
	case LevelWarn:
		s.Logger.Warn(e.Phase, attrs...)
	case LevelError, LevelCritical:
		s.Logger.Error(e.Phase, attrs...)
	default:
		s.Logger.Info(e.Phase, attrs...)
	}
}
