package logging

import (
	"log/slog"
	"time"
)

// Shared attribute keys so log consumers can filter consistently.
const (
	FieldComponent = "component"
	FieldItemID    = "item_id"
	FieldRunID     = "run_id"
	FieldStage     = "stage"
	FieldPool      = "pool"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// WithComponent tags a logger with the component field used by the console
// handler's prefix column.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(String(FieldComponent, component))
}
