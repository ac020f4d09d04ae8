// stdio.go — process 模式: 子进程 stdin 载 Action 帧流, stdout 载 Event 帧流。
package transport

import (
	"errors"
	"io"
	"sync"

	"github.com/webview-bridge/go-webview-v2/internal/protocol"
	apperrors "github.com/webview-bridge/go-webview-v2/pkg/errors"
	"github.com/webview-bridge/go-webview-v2/pkg/logger"
	"github.com/webview-bridge/go-webview-v2/pkg/util"
)

// ========================================
// Host 端 (UI 进程持有子进程的 stdin/stdout)
// ========================================

type stdioHost struct {
	w io.WriteCloser // worker stdin
	r io.Reader      // worker stdout

	outbox    *fifo[[]byte] // 待写 Action 帧, 单写者排空
	events    chan protocol.Event
	evOnce    sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

// NewStdioHost 在一对字节流上建立 Host 端点。
// r 为读事件的流 (worker stdout), w 为写命令的流 (worker stdin)。
func NewStdioHost(r io.Reader, w io.WriteCloser) Host {
	h := &stdioHost{
		w:      w,
		r:      r,
		outbox: newFIFO[[]byte](),
		events: make(chan protocol.Event, 64),
		done:   make(chan struct{}),
	}
	util.SafeGo(h.writeLoop)
	util.SafeGo(h.readLoop)
	return h
}

func (h *stdioHost) Send(a protocol.Action) {
	payload, err := protocol.EncodeAction(a)
	if err != nil {
		logger.Error("transport: encode action failed",
			logger.FieldMode, "stdio",
			logger.FieldAction, string(a.Type),
			logger.FieldError, err,
		)
		return
	}
	if !h.outbox.Push(payload) {
		logger.Warn("transport: action dropped, channel closed",
			logger.FieldMode, "stdio",
			logger.FieldAction, string(a.Type),
		)
	}
}

// writeLoop 唯一的出站写者: 排空 FIFO, 逐帧写入 worker stdin。
func (h *stdioHost) writeLoop() {
	for {
		payload, ok := h.outbox.Pop()
		if !ok {
			return
		}
		if err := protocol.WriteFrame(h.w, payload); err != nil {
			// 管道断裂按正常通道关闭处理, 安静退出
			if !errors.Is(err, apperrors.ErrChannelClosed) {
				logger.Warn("transport: write frame failed",
					logger.FieldMode, "stdio", logger.FieldError, err)
			}
			h.outbox.Close()
			return
		}
	}
}

// readLoop 持续解码入站 Event 帧。解码/sanity 失败只终止事件方向。
func (h *stdioHost) readLoop() {
	defer h.closeEvents()
	for {
		payload, err := protocol.ReadFrame(h.r)
		if err != nil {
			if !errors.Is(err, apperrors.ErrChannelClosed) {
				logger.Error("transport: event stream torn down",
					logger.FieldMode, "stdio", logger.FieldError, err)
			}
			return
		}
		ev, err := protocol.DecodeEvent(payload)
		if err != nil {
			logger.Error("transport: event decode failed, closing stream",
				logger.FieldMode, "stdio", logger.FieldError, err)
			return
		}
		select {
		case h.events <- ev:
		case <-h.done:
			return
		}
	}
}

func (h *stdioHost) closeEvents() {
	h.evOnce.Do(func() { close(h.events) })
}

func (h *stdioHost) Events() <-chan protocol.Event { return h.events }

func (h *stdioHost) Close() error {
	h.closeOnce.Do(func() {
		h.outbox.Close()
		close(h.done)
		_ = h.w.Close() // worker stdin EOF
	})
	return nil
}

// ========================================
// Worker 端 (子进程内, 读自身 stdin / 写自身 stdout)
// ========================================

type stdioWorker struct {
	actions   *fifo[protocol.Action]
	outbox    *fifo[[]byte]
	closeOnce sync.Once
}

// NewStdioWorker 在 worker 进程自身的 stdin/stdout 上建立端点。
func NewStdioWorker(r io.Reader, w io.Writer) Worker {
	wk := &stdioWorker{
		actions: newFIFO[protocol.Action](),
		outbox:  newFIFO[[]byte](),
	}
	util.SafeGo(func() { wk.readLoop(r) })
	util.SafeGo(func() { wk.writeLoop(w) })
	return wk
}

// readLoop 解码入站 Action 帧入队。协议违例或 EOF 终止命令方向;
// pump 循环继续运转直到引擎自然终止。
func (wk *stdioWorker) readLoop(r io.Reader) {
	defer wk.actions.Close()
	for {
		payload, err := protocol.ReadFrame(r)
		if err != nil {
			if !errors.Is(err, apperrors.ErrChannelClosed) {
				logger.Error("transport: action stream torn down",
					logger.FieldMode, "stdio", logger.FieldError, err)
			}
			return
		}
		a, err := protocol.DecodeAction(payload)
		if err != nil {
			logger.Error("transport: action decode failed, closing stream",
				logger.FieldMode, "stdio", logger.FieldError, err)
			return
		}
		wk.actions.Push(a)
	}
}

func (wk *stdioWorker) writeLoop(w io.Writer) {
	for {
		payload, ok := wk.outbox.Pop()
		if !ok {
			return
		}
		if err := protocol.WriteFrame(w, payload); err != nil {
			if !errors.Is(err, apperrors.ErrChannelClosed) {
				logger.Warn("transport: write frame failed",
					logger.FieldMode, "stdio", logger.FieldError, err)
			}
			wk.outbox.Close()
			return
		}
	}
}

func (wk *stdioWorker) Poll() (protocol.Action, bool) {
	return wk.actions.TryPop()
}

func (wk *stdioWorker) Emit(e protocol.Event) {
	payload, err := protocol.EncodeEvent(e)
	if err != nil {
		logger.Error("transport: encode event failed",
			logger.FieldMode, "stdio",
			logger.FieldEvent, string(e.Type),
			logger.FieldError, err,
		)
		return
	}
	wk.outbox.Push(payload)
}

func (wk *stdioWorker) Close() error {
	wk.closeOnce.Do(func() {
		wk.actions.Close()
		wk.outbox.Close()
	})
	return nil
}
