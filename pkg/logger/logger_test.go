// logger_test.go — 验证默认日志器初始化与 context 注入。
package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestInitDoesNotPanic(t *testing.T) {
	Init("development")
	Init("production")
	Info("smoke", FieldComponent, "test")
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext(background) = nil, want default logger")
	}
}

func TestWithContextRoundTrip(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := WithContext(context.Background(), custom)
	if FromContext(ctx) != custom {
		t.Error("FromContext did not return injected logger")
	}
}

func TestSetHandlerReplacesDefault(t *testing.T) {
	prev := Get()
	defer storeLogger(prev)

	h := NewEventHandler(slog.LevelInfo)
	SetHandler(h)
	Info("bridged")

	if entries := h.Drain(); len(entries) != 1 {
		t.Fatalf("Drain() returned %d entries, want 1", len(entries))
	}
}
