// Package transport 抽象 "发 Action / 收 Event" 的通道, 提供三种实现:
//
//   - memory: 引擎跑在进程内专用 goroutine (thread 模式), 队列直连
//   - stdio:  引擎跑在子进程 (process 模式), stdin 载 Action 帧流,
//     stdout 载 Event 帧流
//   - socket: 引擎在 WebSocket 端点之后 (远程/容器部署)
//
// 三种实现语义一致: Send 永不阻塞调用方; 解码/sanity 失败只终止
// 出错方向的流, 不拖垮整个宿主。
//
// 出站写入全部经过单写者 goroutine 串行排空 FIFO — 并发调用方只入队,
// 唯一的写者出队并写帧。没有这一层, 并发在途写入会在字节层交错,
// 破坏帧边界或打乱 Action 顺序。
package transport

import (
	"github.com/webview-bridge/go-webview-v2/internal/protocol"
)

// Host UI 侧通道端点。
type Host interface {
	// Send 发送 Action, fire-and-forget: 立即返回, 不等待确认。
	// 通道关闭后的发送被丢弃并记日志。
	Send(a protocol.Action)

	// Events 返回事件流。通道关闭 (对端退出 / 协议违例) 后该 chan 关闭。
	Events() <-chan protocol.Event

	// Close 拆除通道并释放资源。幂等。
	Close() error
}

// Worker 引擎侧通道端点, 由 pump 循环独占消费。
type Worker interface {
	// Poll 非阻塞取出一条待处理 Action。队列为空时返回 ok=false。
	Poll() (a protocol.Action, ok bool)

	// Emit 向 UI 侧发送 Event。入队即返回, 不等待写完成。
	Emit(e protocol.Event)

	// Close 拆除通道。幂等。
	Close() error
}
