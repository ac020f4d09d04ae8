// memory.go — thread 模式: 引擎跑在进程内 goroutine, 队列直连, 无编解码开销。
package transport

import (
	"sync"

	"github.com/webview-bridge/go-webview-v2/internal/protocol"
	"github.com/webview-bridge/go-webview-v2/pkg/logger"
	"github.com/webview-bridge/go-webview-v2/pkg/util"
)

// memoryChannel 进程内通道: Action 无界 FIFO (多生产者单消费者) +
// Event 无界 FIFO 经转发 goroutine 进入消费 chan。
//
// Emit 只入队, 永不阻塞引擎; 转发 goroutine 是唯一向 out chan
// 写入的写者。
type memoryChannel struct {
	actions *fifo[protocol.Action]
	events  *fifo[protocol.Event]
	out     chan protocol.Event
}

type memoryHost struct {
	ch        *memoryChannel
	closeOnce sync.Once
}

type memoryWorker struct {
	ch        *memoryChannel
	closeOnce sync.Once
}

// NewMemoryPair 创建一对直连端点。Host 交给 UI 侧, Worker 交给 pump 循环。
func NewMemoryPair() (Host, Worker) {
	ch := &memoryChannel{
		actions: newFIFO[protocol.Action](),
		events:  newFIFO[protocol.Event](),
		out:     make(chan protocol.Event, 64),
	}
	util.SafeGo(func() {
		for {
			e, ok := ch.events.Pop()
			if !ok {
				close(ch.out)
				return
			}
			ch.out <- e
		}
	})
	return &memoryHost{ch: ch}, &memoryWorker{ch: ch}
}

func (h *memoryHost) Send(a protocol.Action) {
	if !h.ch.actions.Push(a) {
		logger.Warn("transport: action dropped, channel closed",
			logger.FieldMode, "memory",
			logger.FieldAction, string(a.Type),
		)
	}
}

func (h *memoryHost) Events() <-chan protocol.Event { return h.ch.out }

func (h *memoryHost) Close() error {
	h.closeOnce.Do(func() {
		h.ch.actions.Close()
		h.ch.events.Close()
	})
	return nil
}

func (w *memoryWorker) Poll() (protocol.Action, bool) {
	return w.ch.actions.TryPop()
}

func (w *memoryWorker) Emit(e protocol.Event) {
	w.ch.events.Push(e)
}

func (w *memoryWorker) Close() error {
	w.closeOnce.Do(func() {
		// actions 也一并关闭: 之后宿主的 Send 走丢弃告警路径,
		// 不再向无人排空的队列堆积
		w.ch.actions.Close()
		w.ch.events.Close()
	})
	return nil
}
