// Package worker 驱动引擎侧的 pump 循环。
//
// 循环在三个逻辑状态间推进: 轮询 → 应用 → 泵引擎, 每轮之间短暂休眠。
// 引擎句柄只被本循环持有, 所有引擎调用都在 Run 的 goroutine 上发生。
package worker

import (
	"log/slog"
	"time"

	"github.com/webview-bridge/go-webview-v2/internal/engine"
	"github.com/webview-bridge/go-webview-v2/internal/protocol"
	"github.com/webview-bridge/go-webview-v2/internal/transport"
	"github.com/webview-bridge/go-webview-v2/pkg/logger"
)

// scrollLineFactor 行滚动增量换算为像素的系数。
const scrollLineFactor = 20.0

// scrollAnchor 滚动事件的固定锚点。
var scrollAnchor = engine.Point{X: 10, Y: 10}

// defaultInterval 每轮 pump 之间的休眠。
const defaultInterval = 5 * time.Millisecond

// Options 循环配置。
type Options struct {
	// Interval 每轮之间的休眠, 零值取默认 5ms。
	Interval time.Duration
	// Logs 非空时, 每轮把缓冲的日志条目作为 LogMessage 事件发回宿主。
	Logs *logger.EventHandler
}

// Loop 引擎 pump 循环。
type Loop struct {
	ch       transport.Worker
	eng      engine.Engine
	interval time.Duration
	logs     *logger.EventHandler
}

// New 组装循环。eng 的 Delegate 应指向 NewDelegate(ch) 以便
// 引擎通知转为出站事件。
func New(ch transport.Worker, eng engine.Engine, opts Options) *Loop {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Loop{ch: ch, eng: eng, interval: interval, logs: opts.Logs}
}

// Run 阻塞运行直到收到 Shutdown 或引擎自然终止。
// 退出前恰好调用一次 Deinit。
func (l *Loop) Run() {
	defer l.eng.Deinit()
	for {
		// 应用: 按到达顺序排空当前可用的全部命令
		for {
			a, ok := l.ch.Poll()
			if !ok {
				break
			}
			if a.Type == protocol.ActionShutdown {
				logger.Info("worker: shutdown requested")
				l.flushLogs()
				return
			}
			l.apply(a)
		}

		// 泵: 推进引擎内部任务一轮
		if !l.eng.Pump() {
			logger.Info("worker: engine terminated")
			l.flushLogs()
			return
		}

		l.flushLogs()
		time.Sleep(l.interval)
	}
}

// apply 把一条命令翻译为引擎调用。未知命令在解码层已被拒绝。
func (l *Loop) apply(a protocol.Action) {
	switch a.Type {
	case protocol.ActionLoadURL:
		if err := l.eng.Load(a.LoadURL.URL); err != nil {
			logger.Error("worker: load failed",
				logger.FieldURL, a.LoadURL.URL, logger.FieldError, err)
		}
	case protocol.ActionReload:
		l.eng.Reload()
	case protocol.ActionGoBack:
		l.eng.GoBack(1)
	case protocol.ActionGoForward:
		l.eng.GoForward(1)
	case protocol.ActionResize:
		l.eng.Resize(a.Resize.Width, a.Resize.Height)
	case protocol.ActionMotion:
		l.eng.NotifyInput(engine.MouseMove{
			Pos: engine.Point{X: a.Motion.X, Y: a.Motion.Y},
		})
	case protocol.ActionButtonPress, protocol.ActionButtonRelease:
		l.eng.NotifyInput(engine.MouseButton{
			Button:  mapButton(a.Button.Button),
			Pressed: a.Type == protocol.ActionButtonPress,
			Pos:     engine.Point{X: a.Button.X, Y: a.Button.Y},
		})
	case protocol.ActionKeyPress, protocol.ActionKeyRelease:
		l.eng.NotifyInput(engine.Key{
			Name:      a.Key.Key,
			Named:     a.Key.Type == protocol.KeyNamed,
			Location:  mapLocation(a.Key.Location),
			Code:      a.Key.KeyCode,
			Modifiers: a.Key.Modifiers,
			Pressed:   a.Type == protocol.ActionKeyPress,
		})
	case protocol.ActionTouchBegin, protocol.ActionTouchUpdate,
		protocol.ActionTouchEnd, protocol.ActionTouchCancel:
		l.eng.NotifyInput(engine.Touch{
			Phase: mapTouchPhase(a.Type),
			Pos:   engine.Point{X: a.Touch.X, Y: a.Touch.Y},
		})
	case protocol.ActionScroll:
		l.eng.NotifyScroll(engine.Delta{
			DX: scrollLineFactor * a.Scroll.DX,
			DY: scrollLineFactor * a.Scroll.DY,
		}, scrollAnchor)
	}
}

// flushLogs 把缓冲的日志条目转为出站 LogMessage 事件。
func (l *Loop) flushLogs() {
	if l.logs == nil {
		return
	}
	for _, e := range l.logs.Drain() {
		l.ch.Emit(protocol.NewLogMessage(mapLevel(e.Level), e.Message))
	}
}

// mapButton 原始键号 1/2/3 → 左/中/右, 其余回落为左键。
func mapButton(raw uint32) engine.Button {
	switch raw {
	case 2:
		return engine.ButtonMiddle
	case 3:
		return engine.ButtonRight
	default:
		return engine.ButtonLeft
	}
}

func mapLocation(loc protocol.KeyLocation) engine.KeyLocation {
	switch loc {
	case protocol.LocationLeft:
		return engine.LocLeft
	case protocol.LocationRight:
		return engine.LocRight
	case protocol.LocationNumpad:
		return engine.LocNumpad
	default:
		return engine.LocStandard
	}
}

func mapTouchPhase(t protocol.ActionType) engine.TouchPhase {
	switch t {
	case protocol.ActionTouchUpdate:
		return engine.TouchUpdate
	case protocol.ActionTouchEnd:
		return engine.TouchEnd
	case protocol.ActionTouchCancel:
		return engine.TouchCancel
	default:
		return engine.TouchBegin
	}
}

func mapLevel(level slog.Level) protocol.LogLevel {
	switch {
	case level >= slog.LevelError:
		return protocol.LevelError
	case level >= slog.LevelWarn:
		return protocol.LevelWarn
	case level >= slog.LevelInfo:
		return protocol.LevelInfo
	default:
		return protocol.LevelDebug
	}
}

// ========================================
// 引擎通知 → 出站事件
// ========================================

type emitDelegate struct {
	ch transport.Worker
}

// NewDelegate 把引擎通知桥接为传输层出站事件。
func NewDelegate(ch transport.Worker) engine.Delegate {
	return &emitDelegate{ch: ch}
}

func (d *emitDelegate) FrameReady(rgba []byte, width, height uint32) {
	d.ch.Emit(protocol.NewFrameReady(rgba, width, height))
}

func (d *emitDelegate) CursorChanged(name string) {
	d.ch.Emit(protocol.NewCursorChanged(name))
}

func (d *emitDelegate) LoadComplete() {
	d.ch.Emit(protocol.NewLoadComplete())
}
