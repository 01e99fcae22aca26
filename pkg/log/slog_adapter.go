package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger at debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter wraps logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
		slog.String("direction", event.Direction.String()),
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session", event.SessionID))
	}
	if event.Channel != "" {
		attrs = append(attrs, slog.String("channel", event.Channel))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Message != nil:
		attrs = append(attrs,
			slog.String("kind", event.Message.Kind),
			slog.String("code", event.Message.Code),
			slog.Uint64("msg_id", uint64(event.Message.MessageID)),
			slog.Uint64("channel_id", uint64(event.Message.ChannelID)),
		)
	case event.State != nil:
		attrs = append(attrs,
			slog.String("entity", event.State.Entity.String()),
			slog.String("old_state", event.State.OldState),
			slog.String("new_state", event.State.NewState),
		)
		if event.State.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.State.Reason))
		}
	case event.Control != nil:
		attrs = append(attrs,
			slog.String("ctrl_type", event.Control.Type),
			slog.Uint64("seq", uint64(event.Control.Sequence)),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	case event.Monitor != nil:
		m := event.Monitor
		if m.State != "" {
			attrs = append(attrs, slog.String("state", m.State))
		}
		if m.Value != "" {
			attrs = append(attrs, slog.String("value", m.Value))
		}
		if m.Severity != "" {
			attrs = append(attrs, slog.String("severity", m.Severity), slog.String("alarm", m.Alarm))
		}
		if event.Category == CategoryAccess {
			attrs = append(attrs, slog.Bool("read", m.Read), slog.Bool("write", m.Write))
		}
		if m.Detail != "" {
			attrs = append(attrs, slog.String("detail", m.Detail))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "capture", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
