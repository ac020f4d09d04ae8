// Package host 在 UI 进程侧监督 worker 的生命周期。
//
// New 按配置的模式把引擎拉起来 (进程内 goroutine / 子进程 stdio /
// 子进程 + WebSocket), 对外暴露每条命令一个方法与 Events() 事件流。
// 拆除恰好一次; Shutdown 幂等; 关机后的发送被丢弃并告警。
package host

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/webview-bridge/go-webview-v2/internal/config"
	"github.com/webview-bridge/go-webview-v2/internal/debugserver"
	"github.com/webview-bridge/go-webview-v2/internal/engine"
	"github.com/webview-bridge/go-webview-v2/internal/protocol"
	"github.com/webview-bridge/go-webview-v2/internal/trace"
	"github.com/webview-bridge/go-webview-v2/internal/transport"
	"github.com/webview-bridge/go-webview-v2/internal/worker"
	apperrors "github.com/webview-bridge/go-webview-v2/pkg/errors"
	"github.com/webview-bridge/go-webview-v2/pkg/logger"
	"github.com/webview-bridge/go-webview-v2/pkg/util"
)

// socketProbeTimeout 等待 worker 的 WebSocket 端口就绪的上限。
const socketProbeTimeout = 10 * time.Second

// closeGrace Close 时等待子进程自行退出的时长, 超时后杀进程组。
const closeGrace = 3 * time.Second

// EngineFactory 为 memory 模式构造进程内引擎。
type EngineFactory func(d engine.Delegate) engine.Engine

// Host worker 监督者。
type Host struct {
	cfg *config.Config
	ch  transport.Host

	cmd      *exec.Cmd
	stderr   *logger.StderrCollector
	waitDone chan struct{}

	rec   *trace.Recorder
	debug *debugserver.Server

	out       chan protocol.Event
	done      chan struct{}
	lastFrame atomic.Pointer[protocol.FramePayload]

	shutdown    atomic.Bool
	closeOnce   sync.Once
	actionsSent atomic.Uint64
	eventsSeen  atomic.Uint64

	engineFactory EngineFactory
}

// Option 调整 Host 构造。
type Option func(*Host)

// WithEngineFactory 覆盖 memory 模式的引擎构造 (测试注入用)。
func WithEngineFactory(f EngineFactory) Option {
	return func(h *Host) { h.engineFactory = f }
}

// New 按配置拉起 worker。启动失败同步返回错误, 不产生半启动状态。
func New(cfg *config.Config, opts ...Option) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := &Host{
		cfg:  cfg,
		out:  make(chan protocol.Event, 64),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	var err error
	switch cfg.Mode {
	case config.ModeMemory:
		err = h.spawnMemory()
	case config.ModeStdio:
		err = h.spawnStdio()
	case config.ModeSocket:
		err = h.spawnSocket()
	}
	if err != nil {
		return nil, err
	}

	if cfg.TracePath != "" {
		h.rec, err = trace.Open(cfg.TracePath, cfg.Mode)
		if err != nil {
			// 已拉起的 worker 走完整关闭流程收回, 不留孤儿进程
			_ = h.Close()
			return nil, err
		}
		logger.Info("host: trace recording",
			logger.FieldPath, cfg.TracePath,
			logger.FieldSessionID, h.rec.SessionID(),
		)
	}
	if cfg.DebugListen != "" {
		h.debug = debugserver.NewServer(h.statusSnapshot, h.frameSnapshot)
		h.debug.Start(cfg.DebugListen)
	}

	util.SafeGo(h.forward)
	logger.Info("host: worker up", logger.FieldMode, cfg.Mode)
	return h, nil
}

// Events 入站事件流。传输层拆除后关闭。
func (h *Host) Events() <-chan protocol.Event { return h.out }

// SessionID 追踪会话标识, 未开追踪时为空串。
func (h *Host) SessionID() string {
	if h.rec == nil {
		return ""
	}
	return h.rec.SessionID()
}

// ========================================
// 三种模式的拉起
// ========================================

// spawnMemory 引擎跑在进程内 goroutine。
func (h *Host) spawnMemory() error {
	factory := h.engineFactory
	if factory == nil {
		factory = func(d engine.Delegate) engine.Engine {
			return engine.NewSoft(d, uint32(h.cfg.Width), uint32(h.cfg.Height))
		}
	}
	hostCh, workerCh := transport.NewMemoryPair()
	eng := factory(worker.NewDelegate(workerCh))
	loop := worker.New(workerCh, eng, worker.Options{Interval: h.cfg.PumpInterval()})
	util.SafeGo(loop.Run)
	h.ch = hostCh
	return nil
}

// spawnStdio 子进程, stdin 载命令帧流, stdout 载事件帧流。
//
// 使用 exec.Command 而非 exec.CommandContext — 子进程生命周期由
// Close() 显式管理, 不随任何请求上下文终止。
func (h *Host) spawnStdio() error {
	cmd := exec.Command(h.cfg.WorkerPath, h.cfg.WorkerArgs...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Env = os.Environ()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return apperrors.Wrap(err, "host.spawnStdio", "stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return apperrors.Wrap(err, "host.spawnStdio", "stdout pipe")
	}
	h.stderr = logger.NewStderrCollector("webview-worker")
	cmd.Stderr = util.NewLimitedWriter(h.stderr, h.cfg.StderrLimit)

	if err := cmd.Start(); err != nil {
		return apperrors.Wrapf(apperrors.ErrSpawnFailed, "host.spawnStdio",
			"start %s: %v", h.cfg.WorkerPath, err)
	}
	h.cmd = cmd
	h.startReaper()
	logger.Info("host: worker spawned",
		logger.FieldPath, h.cfg.WorkerPath, logger.FieldPID, cmd.Process.Pid)

	h.ch = transport.NewStdioHost(stdout, stdin)
	return nil
}

// spawnSocket 连接 (或先拉起) worker 的 WebSocket 端点。
func (h *Host) spawnSocket() error {
	url := h.cfg.SocketURL
	if url == "" {
		addr, err := h.spawnSocketWorker()
		if err != nil {
			return err
		}
		url = "ws://" + addr + "/io"
	}

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		h.killProcess()
		return apperrors.Wrapf(apperrors.ErrSpawnFailed, "host.spawnSocket",
			"dial %s: %v", url, err)
	}
	h.ch = transport.NewSocketHost(conn)
	return nil
}

// spawnSocketWorker 以 --listen 拉起 worker 并等端口就绪。
func (h *Host) spawnSocketWorker() (string, error) {
	port, err := freePort()
	if err != nil {
		return "", apperrors.Wrap(err, "host.spawnSocket", "allocate port")
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	args := append(append([]string{}, h.cfg.WorkerArgs...), "--listen", addr)
	cmd := exec.Command(h.cfg.WorkerPath, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Env = os.Environ()
	cmd.Stdout = io.Discard
	h.stderr = logger.NewStderrCollector("webview-worker")
	cmd.Stderr = util.NewLimitedWriter(h.stderr, h.cfg.StderrLimit)

	if err := cmd.Start(); err != nil {
		return "", apperrors.Wrapf(apperrors.ErrSpawnFailed, "host.spawnSocket",
			"start %s: %v", h.cfg.WorkerPath, err)
	}
	h.cmd = cmd
	h.startReaper()

	deadline := time.Now().Add(socketProbeTimeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			logger.Info("host: worker listening", logger.FieldAddr, addr)
			return addr, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	h.killProcess()
	return "", apperrors.Wrapf(apperrors.ErrSpawnFailed, "host.spawnSocket",
		"worker startup timeout on %s", addr)
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// startReaper 后台收割子进程退出状态。
func (h *Host) startReaper() {
	h.waitDone = make(chan struct{})
	cmd := h.cmd
	util.SafeGo(func() {
		defer close(h.waitDone)
		err := cmd.Wait()
		code := 0
		if exit, ok := err.(*exec.ExitError); ok {
			code = exit.ExitCode()
		}
		logger.Info("host: worker exited",
			logger.FieldPID, cmd.Process.Pid, logger.FieldExitCode, code)
	})
}

// ========================================
// 事件转发
// ========================================

// forward 唯一的事件消费者: 记录、计数、喂给调试服务, 再交给调用方。
func (h *Host) forward() {
	defer close(h.out)
	for ev := range h.ch.Events() {
		h.eventsSeen.Add(1)
		if ev.Type == protocol.EventFrameReady && ev.Frame != nil {
			h.lastFrame.Store(ev.Frame)
		}
		if h.rec != nil {
			if err := h.rec.RecordEvent(ev); err != nil {
				logger.Warn("host: trace event failed", logger.FieldError, err)
			}
		}
		if h.debug != nil {
			h.debug.Bus().Publish(debugEvent(ev))
		}
		select {
		case h.out <- ev:
		case <-h.done:
			return
		}
	}
}

// debugEvent 压缩事件供 SSE 推送: 帧只给尺寸摘要。
func debugEvent(ev protocol.Event) debugserver.Event {
	if ev.Type == protocol.EventFrameReady && ev.Frame != nil {
		return debugserver.Event{Type: string(ev.Type), Data: map[string]any{
			"width":  ev.Frame.Width,
			"height": ev.Frame.Height,
			"bytes":  len(ev.Frame.RGBA),
		}}
	}
	return debugserver.Event{Type: string(ev.Type), Data: ev}
}

func (h *Host) statusSnapshot() debugserver.Status {
	return debugserver.Status{
		Mode:        h.cfg.Mode,
		SessionID:   h.SessionID(),
		Shutdown:    h.shutdown.Load(),
		ActionsSent: h.actionsSent.Load(),
		EventsSeen:  h.eventsSeen.Load(),
	}
}

func (h *Host) frameSnapshot() ([]byte, uint32, uint32, bool) {
	f := h.lastFrame.Load()
	if f == nil {
		return nil, 0, 0, false
	}
	return f.RGBA, f.Width, f.Height, true
}

// ========================================
// 拆除
// ========================================

// Close 拆除恰好一次: 尚未关机则先发 Shutdown, 等 worker 自行退出,
// 超时杀进程组, 最后收回传输与附属设施。多次调用安全。
func (h *Host) Close() error {
	h.closeOnce.Do(func() {
		if h.shutdown.CompareAndSwap(false, true) {
			h.actionsSent.Add(1)
			h.ch.Send(protocol.NewShutdown())
		}
		if h.cmd != nil {
			select {
			case <-h.waitDone:
			case <-time.After(closeGrace):
				logger.Warn("host: worker did not exit, killing process group",
					logger.FieldPID, h.cmd.Process.Pid)
				h.killProcess()
				<-h.waitDone
			}
		}
		close(h.done)
		h.teardownTransport()
		if h.debug != nil {
			_ = h.debug.Close()
		}
		if h.rec != nil {
			_ = h.rec.Close()
		}
	})
	return nil
}

func (h *Host) teardownTransport() {
	if h.ch != nil {
		_ = h.ch.Close()
	}
	if h.stderr != nil {
		_ = h.stderr.Close()
	}
}

// killProcess 杀掉整个进程组 (Setpgid=true 时 pgid == pid)。
func (h *Host) killProcess() {
	if h.cmd == nil || h.cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-h.cmd.Process.Pid, syscall.SIGKILL)
}
