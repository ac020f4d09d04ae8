// socket.go — socket 模式: WebSocket 二进制消息, 每条消息即一帧载荷。
//
// WebSocket 自带消息边界, u32 长度前缀在此模式下不需要;
// sanity 上限经 SetReadLimit 下沉到连接层 (超限即断开)。
package transport

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/webview-bridge/go-webview-v2/internal/protocol"
	"github.com/webview-bridge/go-webview-v2/pkg/logger"
	"github.com/webview-bridge/go-webview-v2/pkg/util"
)

// ========================================
// Host 端 (dial 到 worker 的 WebSocket 端点)
// ========================================

type socketHost struct {
	conn      *websocket.Conn
	outbox    *fifo[[]byte]
	events    chan protocol.Event
	evOnce    sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

// NewSocketHost 在已建立的 WebSocket 连接上建立 Host 端点。
func NewSocketHost(conn *websocket.Conn) Host {
	conn.SetReadLimit(protocol.MaxFrameSize)
	h := &socketHost{
		conn:   conn,
		outbox: newFIFO[[]byte](),
		events: make(chan protocol.Event, 64),
		done:   make(chan struct{}),
	}
	util.SafeGo(h.writeLoop)
	util.SafeGo(h.readLoop)
	return h
}

func (h *socketHost) Send(a protocol.Action) {
	payload, err := protocol.EncodeAction(a)
	if err != nil {
		logger.Error("transport: encode action failed",
			logger.FieldMode, "socket",
			logger.FieldAction, string(a.Type),
			logger.FieldError, err,
		)
		return
	}
	if !h.outbox.Push(payload) {
		logger.Warn("transport: action dropped, channel closed",
			logger.FieldMode, "socket",
			logger.FieldAction, string(a.Type),
		)
	}
}

// writeLoop 唯一写者 — gorilla 连接本身要求写调用串行化。
func (h *socketHost) writeLoop() {
	for {
		payload, ok := h.outbox.Pop()
		if !ok {
			return
		}
		if err := h.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			h.outbox.Close()
			return
		}
	}
}

func (h *socketHost) readLoop() {
	defer h.evOnce.Do(func() { close(h.events) })
	for {
		mt, payload, err := h.conn.ReadMessage()
		if err != nil {
			// 正常断开与读超限都走这里, 安静结束事件流
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		ev, err := protocol.DecodeEvent(payload)
		if err != nil {
			logger.Error("transport: event decode failed, closing stream",
				logger.FieldMode, "socket", logger.FieldError, err)
			return
		}
		select {
		case h.events <- ev:
		case <-h.done:
			return
		}
	}
}

func (h *socketHost) Events() <-chan protocol.Event { return h.events }

func (h *socketHost) Close() error {
	h.closeOnce.Do(func() {
		h.outbox.Close()
		close(h.done)
		_ = h.conn.Close()
	})
	return nil
}

// ========================================
// Worker 端 (accept 到的连接)
// ========================================

type socketWorker struct {
	conn      *websocket.Conn
	actions   *fifo[protocol.Action]
	outbox    *fifo[[]byte]
	closeOnce sync.Once
}

// NewSocketWorker 在已升级的 WebSocket 连接上建立 Worker 端点。
func NewSocketWorker(conn *websocket.Conn) Worker {
	conn.SetReadLimit(protocol.MaxFrameSize)
	wk := &socketWorker{
		conn:    conn,
		actions: newFIFO[protocol.Action](),
		outbox:  newFIFO[[]byte](),
	}
	util.SafeGo(wk.readLoop)
	util.SafeGo(wk.writeLoop)
	return wk
}

func (wk *socketWorker) readLoop() {
	defer wk.actions.Close()
	for {
		mt, payload, err := wk.conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		a, err := protocol.DecodeAction(payload)
		if err != nil {
			logger.Error("transport: action decode failed, closing stream",
				logger.FieldMode, "socket", logger.FieldError, err)
			return
		}
		wk.actions.Push(a)
	}
}

func (wk *socketWorker) writeLoop() {
	for {
		payload, ok := wk.outbox.Pop()
		if !ok {
			return
		}
		if err := wk.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			wk.outbox.Close()
			return
		}
	}
}

func (wk *socketWorker) Poll() (protocol.Action, bool) {
	return wk.actions.TryPop()
}

func (wk *socketWorker) Emit(e protocol.Event) {
	payload, err := protocol.EncodeEvent(e)
	if err != nil {
		logger.Error("transport: encode event failed",
			logger.FieldMode, "socket",
			logger.FieldEvent, string(e.Type),
			logger.FieldError, err,
		)
		return
	}
	wk.outbox.Push(payload)
}

func (wk *socketWorker) Close() error {
	wk.closeOnce.Do(func() {
		wk.actions.Close()
		wk.outbox.Close()
		_ = wk.conn.Close()
	})
	return nil
}
