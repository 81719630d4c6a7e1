package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("debug mode returns development logger", func(t *testing.T) {
		l, err := NewLogger(true, "")
		if err != nil {
			t.Fatalf("NewLogger(true) error: %v", err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Error("development logger should log at debug")
		}
		_ = l.Sync()
	})

	t.Run("production mode returns production logger", func(t *testing.T) {
		l, err := NewLogger(false, "")
		if err != nil {
			t.Fatalf("NewLogger(false) error: %v", err)
		}
		if l.Core().Enabled(zapcore.DebugLevel) {
			t.Error("production logger should not log at debug")
		}
		_ = l.Sync()
	})

	t.Run("level override", func(t *testing.T) {
		l, err := NewLogger(false, "warn")
		if err != nil {
			t.Fatalf("NewLogger error: %v", err)
		}
		if l.Core().Enabled(zapcore.InfoLevel) {
			t.Error("warn level logger should not log at info")
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		if _, err := NewLogger(false, "loud"); err == nil {
			t.Fatal("expected error for invalid level")
		}
	})
}

func TestFromContext(t *testing.T) {
	fallback := zap.NewExample()
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Error("expected fallback logger")
	}
	if got := FromContext(context.Background(), nil); got == nil {
		t.Error("expected no-op logger, got nil")
	}

	stored := zap.NewExample().With(zap.String("request_id", "abc"))
	ctx := ContextWithLogger(context.Background(), stored)
	if got := FromContext(ctx, fallback); got != stored {
		t.Error("expected stored logger")
	}
}
