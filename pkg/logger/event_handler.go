package logger

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// LogEntry 一条待转发的日志记录。
type LogEntry struct {
	Ts      time.Time
	Level   slog.Level
	Message string
}

// ========================================
// EventHandler — slog.Handler → 事件队列
// ========================================

// eventBufSize 待转发日志缓冲条数, 写满后丢弃 (日志不反压 pump 循环)。
const eventBufSize = 1024

// EventHandler 实现 slog.Handler，将 worker 侧日志记录排入队列,
// 由 pump 循环逐条取出并作为 LogMessage 事件发往 UI 侧。
//
// Handle 永不阻塞: 队列满时丢弃该条记录。
type EventHandler struct {
	buf   chan LogEntry
	attrs []slog.Attr
	level slog.Level
	// closed 在 handler clone(WithAttrs/WithGroup) 间共享，避免关闭后写入 panic。
	closed *atomic.Bool
}

// NewEventHandler 创建事件日志 handler。
func NewEventHandler(level slog.Level) *EventHandler {
	return &EventHandler{
		buf:    make(chan LogEntry, eventBufSize),
		level:  level,
		closed: &atomic.Bool{},
	}
}

// Enabled 实现 slog.Handler。
func (h *EventHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle 实现 slog.Handler — 构造 LogEntry 推入缓冲, 满则丢弃。
func (h *EventHandler) Handle(_ context.Context, r slog.Record) error {
	if h.closed.Load() {
		return nil
	}

	msg := r.Message
	r.Attrs(func(a slog.Attr) bool {
		msg += fmt.Sprintf(" %s=%v", a.Key, a.Value.Any())
		return true
	})
	for _, a := range h.attrs {
		msg += fmt.Sprintf(" %s=%v", a.Key, a.Value.Any())
	}

	select {
	case h.buf <- LogEntry{Ts: r.Time, Level: r.Level, Message: msg}:
	default:
		// 缓冲满, 丢弃 (避免阻塞日志调用方)
	}
	return nil
}

// WithAttrs 实现 slog.Handler。
func (h *EventHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup 实现 slog.Handler。group 扁平化处理 (转发消息为纯文本)。
func (h *EventHandler) WithGroup(string) slog.Handler { return h }

// Drain 非阻塞取出当前排队的全部日志记录 (pump 循环每轮调用一次)。
func (h *EventHandler) Drain() []LogEntry {
	var out []LogEntry
	for {
		select {
		case e := <-h.buf:
			out = append(out, e)
		default:
			return out
		}
	}
}

// Close 停止接收新记录。已排队记录仍可 Drain。
func (h *EventHandler) Close() {
	h.closed.Store(true)
}

// ========================================
// MultiHandler — 同时写多个 Handler (stderr + 事件队列)
// ========================================

// MultiHandler 扇出日志到多个 slog.Handler。
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler 创建多路 Handler。
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Enabled 只要有一个 Handler 接受该级别就返回 true。
func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle 分发到所有 Handler。
func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r)
		}
	}
	return nil
}

// WithAttrs 对所有 Handler 调用 WithAttrs。
func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: handlers}
}

// WithGroup 对所有 Handler 调用 WithGroup。
func (m *MultiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: handlers}
}

// AttachEventHandler 把事件队列 handler 作为第二路挂载到当前日志器,
// 返回它供 pump 循环 Drain。调用前的日志只写 stderr, 之后开始双写。
func AttachEventHandler(level slog.Level) *EventHandler {
	h := NewEventHandler(level)
	multi := NewMultiHandler(getLogger().Handler(), h)
	storeLogger(slog.New(multi))
	return h
}
