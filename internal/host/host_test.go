package host

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/webview-bridge/go-webview-v2/internal/config"
	"github.com/webview-bridge/go-webview-v2/internal/engine"
	"github.com/webview-bridge/go-webview-v2/internal/protocol"
	"github.com/webview-bridge/go-webview-v2/internal/trace"
	apperrors "github.com/webview-bridge/go-webview-v2/pkg/errors"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Mode: config.ModeMemory, Width: 4, Height: 4,
		PumpIntervalMS: 1, StderrLimit: 4096,
	}
}

func newMemoryHost(t *testing.T, cfg *config.Config) *Host {
	t.Helper()
	h, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

// waitEvent 等待指定类型的事件到达。
func waitEvent(t *testing.T, h *Host, typ protocol.EventType) protocol.Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-h.Events():
			if !ok {
				t.Fatalf("event stream closed while waiting for %s", typ)
			}
			if ev.Type == typ {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func TestHostMemoryLifecycle(t *testing.T) {
	h := newMemoryHost(t, memoryConfig())

	h.LoadURL("https://example.com")
	ev := waitEvent(t, h, protocol.EventFrameReady)
	if ev.Frame.Width != 4 || len(ev.Frame.RGBA) != 4*4*4 {
		t.Errorf("frame = %dx%d %d bytes", ev.Frame.Width, ev.Frame.Height, len(ev.Frame.RGBA))
	}
	waitEvent(t, h, protocol.EventLoadComplete)
}

// TestHostShutdownIdempotent 至多一条 Shutdown; 之后的发送被丢弃。
func TestHostShutdownIdempotent(t *testing.T) {
	h := newMemoryHost(t, memoryConfig())

	h.Shutdown()
	h.Shutdown() // 重复调用被忽略
	sent := h.actionsSent.Load()
	if sent != 1 {
		t.Errorf("actionsSent = %d after double Shutdown, want 1", sent)
	}

	h.LoadURL("https://example.com") // 关机后丢弃
	if h.actionsSent.Load() != sent {
		t.Error("post-shutdown send was counted")
	}
}

func TestHostCloseIdempotent(t *testing.T) {
	h := newMemoryHost(t, memoryConfig())
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	// Close 隐含 Shutdown
	if !h.shutdown.Load() {
		t.Error("Close did not mark shutdown")
	}
}

// TestHostSpawnFailureSynchronous 启动失败同步报错, 不返回半启动的 Host。
func TestHostSpawnFailureSynchronous(t *testing.T) {
	cfg := &config.Config{
		Mode:           config.ModeStdio,
		WorkerPath:     "/nonexistent/webview-worker",
		Width:          4,
		Height:         4,
		PumpIntervalMS: 1,
		StderrLimit:    4096,
	}
	h, err := New(cfg)
	if err == nil {
		h.Close()
		t.Fatal("New succeeded with nonexistent worker binary")
	}
	if !errors.Is(err, apperrors.ErrSpawnFailed) {
		t.Errorf("err = %v, want ErrSpawnFailed", err)
	}
}

// idleEngine 最小引擎桩: 空转并记录 Deinit。
type idleEngine struct {
	deinited chan struct{}
}

func (e *idleEngine) Load(string) error                       { return nil }
func (e *idleEngine) Reload()                                 {}
func (e *idleEngine) GoBack(int)                              {}
func (e *idleEngine) GoForward(int)                           {}
func (e *idleEngine) Resize(uint32, uint32)                   {}
func (e *idleEngine) NotifyInput(engine.InputEvent)           {}
func (e *idleEngine) NotifyScroll(engine.Delta, engine.Point) {}
func (e *idleEngine) Pump() bool                              { return true }
func (e *idleEngine) Deinit()                                 { close(e.deinited) }

// TestHostTraceOpenFailureTearsDownWorker 追踪库打不开时,
// 已拉起的 worker 被完整收回, 不留孤儿。
func TestHostTraceOpenFailureTearsDownWorker(t *testing.T) {
	cfg := memoryConfig()
	cfg.TracePath = t.TempDir() // 目录不能作为数据库文件

	eng := &idleEngine{deinited: make(chan struct{})}
	_, err := New(cfg, WithEngineFactory(func(engine.Delegate) engine.Engine { return eng }))
	if err == nil {
		t.Fatal("New succeeded with unopenable trace path")
	}
	select {
	case <-eng.deinited:
	case <-time.After(5 * time.Second):
		t.Fatal("worker still running after failed New")
	}
}

// TestHostTraceRecordsSession 开追踪后命令与事件都落库。
func TestHostTraceRecordsSession(t *testing.T) {
	cfg := memoryConfig()
	cfg.TracePath = filepath.Join(t.TempDir(), "trace.db")
	h := newMemoryHost(t, cfg)

	if h.SessionID() == "" {
		t.Fatal("empty session id with trace enabled")
	}

	h.LoadURL("https://example.com")
	waitEvent(t, h, protocol.EventLoadComplete)
	h.Shutdown()
	h.Close()

	rec, err := trace.Open(cfg.TracePath, config.ModeMemory)
	if err != nil {
		t.Fatalf("reopen trace: %v", err)
	}
	defer rec.Close()
	// 新会话为空库视角, 直接查原会话的记录数不可得;
	// 用 Tail 验证库文件可读即可 — 原会话内容由 trace 包自测覆盖。
	if _, err := rec.Tail(1); err != nil {
		t.Errorf("Tail: %v", err)
	}
}

func TestHostStatusSnapshot(t *testing.T) {
	h := newMemoryHost(t, memoryConfig())

	h.LoadURL("https://example.com")
	waitEvent(t, h, protocol.EventFrameReady)

	st := h.statusSnapshot()
	if st.Mode != config.ModeMemory {
		t.Errorf("Mode = %q", st.Mode)
	}
	if st.ActionsSent == 0 || st.EventsSeen == 0 {
		t.Errorf("counters = %+v", st)
	}

	rgba, w, hgt, ok := h.frameSnapshot()
	if !ok || w != 4 || hgt != 4 || len(rgba) != 4*4*4 {
		t.Errorf("frame snapshot = (%d bytes, %dx%d, %v)", len(rgba), w, hgt, ok)
	}
}

// TestHostEventStreamClosesAfterClose Close 后事件流终结。
func TestHostEventStreamClosesAfterClose(t *testing.T) {
	h := newMemoryHost(t, memoryConfig())
	h.Close()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-h.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event stream still open after Close")
		}
	}
}
