// Package view 在 UI 侧消费事件流: 解复用、帧缓冲、光标与日志转发。
//
// Run 是事件流的唯一消费者。每收到一条事件先做持有者存活检查:
// 持有者已销毁则循环立即终止, 已销毁的接收方绝不会被触碰。
package view

import (
	"context"
	"log/slog"

	"github.com/webview-bridge/go-webview-v2/internal/protocol"
	"github.com/webview-bridge/go-webview-v2/pkg/logger"
)

// Handlers 类型化的事件回调。nil 字段表示不关心该类事件。
// 回调在 Run 的 goroutine 上同步执行, 不应做耗时工作。
type Handlers struct {
	// OnFrame 新帧已存入缓冲后调用 (对应绘制调度)。
	OnFrame func(Frame)
	// OnCursor 光标变更, name 已规范化。
	OnCursor func(name string)
	// OnLoadComplete 页面加载完成。
	OnLoadComplete func()
}

// View 事件解复用器。
type View struct {
	frames   FrameBuffer
	handlers Handlers
	alive    func() bool
}

// New 创建解复用器。alive 报告回调接收方是否仍存活,
// nil 视为永远存活。
func New(handlers Handlers, alive func() bool) *View {
	if alive == nil {
		alive = func() bool { return true }
	}
	return &View{handlers: handlers, alive: alive}
}

// Frames 帧缓冲, 绘制路径从这里取最新帧。
func (v *View) Frames() *FrameBuffer { return &v.frames }

// Run 消费事件直到流关闭或持有者销毁。坏帧被丢弃并记录, 循环不中断。
func (v *View) Run(events <-chan protocol.Event) {
	for ev := range events {
		if !v.alive() {
			logger.Debug("view: owner destroyed, stopping event loop")
			return
		}
		switch ev.Type {
		case protocol.EventFrameReady:
			v.handleFrame(ev.Frame)
		case protocol.EventCursorChanged:
			v.dispatchCursor(NormalizeCursor(ev.Cursor.Name))
		case protocol.EventLoadComplete:
			v.dispatchLoadComplete()
		case protocol.EventLogMessage:
			relayLog(ev.Log)
		}
	}
}

// handleFrame 完整性检查 → 覆盖入缓冲 → 调度绘制。
func (v *View) handleFrame(f *protocol.FramePayload) {
	if f == nil {
		return
	}
	want := int(f.Width) * int(f.Height) * 4
	if want == 0 || len(f.RGBA) != want {
		logger.Warn("view: malformed frame dropped",
			logger.FieldWidth, f.Width,
			logger.FieldHeight, f.Height,
			logger.FieldBytes, len(f.RGBA),
		)
		return
	}
	frame := Frame{RGBA: f.RGBA, Width: f.Width, Height: f.Height}
	v.frames.Store(frame)
	if v.handlers.OnFrame != nil {
		v.handlers.OnFrame(frame)
	}
}

func (v *View) dispatchCursor(name string) {
	if v.handlers.OnCursor != nil {
		v.handlers.OnCursor(name)
	}
}

func (v *View) dispatchLoadComplete() {
	if v.handlers.OnLoadComplete != nil {
		v.handlers.OnLoadComplete()
	}
}

// relayLog 把 worker 的日志条目按原级别转入本进程日志。
func relayLog(p *protocol.LogPayload) {
	if p == nil {
		return
	}
	level := slog.LevelInfo
	switch p.Level {
	case protocol.LevelDebug:
		level = slog.LevelDebug
	case protocol.LevelWarn:
		level = slog.LevelWarn
	case protocol.LevelError:
		level = slog.LevelError
	}
	logger.FromContext(context.Background()).Log(context.Background(), level, p.Text,
		logger.FieldSource, "worker")
}
