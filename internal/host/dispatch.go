// dispatch.go — 命令分发: 每条命令一个方法, 即发即忘, 永不阻塞调用方。
package host

import (
	"github.com/webview-bridge/go-webview-v2/internal/protocol"
	"github.com/webview-bridge/go-webview-v2/pkg/logger"
)

// send 统一出口: 关机后丢弃并告警, 其余计数 + 追踪 + 入队。
func (h *Host) send(a protocol.Action) {
	if h.shutdown.Load() {
		logger.Warn("host: action dropped after shutdown",
			logger.FieldAction, string(a.Type))
		return
	}
	h.actionsSent.Add(1)
	if h.rec != nil {
		if err := h.rec.RecordAction(a); err != nil {
			logger.Warn("host: trace action failed", logger.FieldError, err)
		}
	}
	h.ch.Send(a)
}

// LoadURL 导航到 url。
func (h *Host) LoadURL(url string) { h.send(protocol.NewLoadURL(url)) }

// Reload 重新加载当前页面。
func (h *Host) Reload() { h.send(protocol.NewReload()) }

// GoBack 历史后退一步。
func (h *Host) GoBack() { h.send(protocol.NewGoBack()) }

// GoForward 历史前进一步。
func (h *Host) GoForward() { h.send(protocol.NewGoForward()) }

// Resize 视口尺寸变更 (物理像素)。
func (h *Host) Resize(width, height uint32) { h.send(protocol.NewResize(width, height)) }

// Motion 指针移动。
func (h *Host) Motion(x, y float64) { h.send(protocol.NewMotion(x, y)) }

// ButtonPress 鼠标键按下。button: 1=左 2=中 3=右。
func (h *Host) ButtonPress(button uint32, x, y float64) {
	h.send(protocol.NewButtonPress(button, x, y))
}

// ButtonRelease 鼠标键释放。
func (h *Host) ButtonRelease(button uint32, x, y float64) {
	h.send(protocol.NewButtonRelease(button, x, y))
}

// KeyPress 键盘按下。载荷通常来自 keymap.Payload。
func (h *Host) KeyPress(key protocol.KeyPayload) { h.send(protocol.NewKeyPress(key)) }

// KeyRelease 键盘释放。
func (h *Host) KeyRelease(key protocol.KeyPayload) { h.send(protocol.NewKeyRelease(key)) }

// TouchBegin 触摸开始。
func (h *Host) TouchBegin(x, y float64) { h.send(protocol.NewTouch(protocol.ActionTouchBegin, x, y)) }

// TouchUpdate 触摸移动。
func (h *Host) TouchUpdate(x, y float64) {
	h.send(protocol.NewTouch(protocol.ActionTouchUpdate, x, y))
}

// TouchEnd 触摸结束。
func (h *Host) TouchEnd(x, y float64) { h.send(protocol.NewTouch(protocol.ActionTouchEnd, x, y)) }

// TouchCancel 触摸取消。
func (h *Host) TouchCancel(x, y float64) {
	h.send(protocol.NewTouch(protocol.ActionTouchCancel, x, y))
}

// Scroll 滚动增量 (行单位)。
func (h *Host) Scroll(dx, dy float64) { h.send(protocol.NewScroll(dx, dy)) }

// Shutdown 请求 worker 关机。幂等: 只有第一次调用真正发送,
// 重复调用与之后的其他发送都被丢弃。
func (h *Host) Shutdown() {
	if !h.shutdown.CompareAndSwap(false, true) {
		logger.Warn("host: duplicate shutdown ignored")
		return
	}
	a := protocol.NewShutdown()
	h.actionsSent.Add(1)
	if h.rec != nil {
		if err := h.rec.RecordAction(a); err != nil {
			logger.Warn("host: trace action failed", logger.FieldError, err)
		}
	}
	h.ch.Send(a)
}
