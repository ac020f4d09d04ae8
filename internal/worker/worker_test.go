package worker

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/webview-bridge/go-webview-v2/internal/engine"
	"github.com/webview-bridge/go-webview-v2/internal/protocol"
	"github.com/webview-bridge/go-webview-v2/internal/transport"
	"github.com/webview-bridge/go-webview-v2/pkg/logger"
)

// stubEngine 记录调用序列, Pump 永真。
type stubEngine struct {
	calls    []string
	inputs   []engine.InputEvent
	scrolls  []engine.Delta
	anchors  []engine.Point
	deinited int
	pumpOK   bool
}

func newStubEngine() *stubEngine { return &stubEngine{pumpOK: true} }

func (s *stubEngine) Load(url string) error {
	s.calls = append(s.calls, "load:"+url)
	return nil
}
func (s *stubEngine) Reload()      { s.calls = append(s.calls, "reload") }
func (s *stubEngine) GoBack(n int) { s.calls = append(s.calls, fmt.Sprintf("back:%d", n)) }
func (s *stubEngine) GoForward(n int) {
	s.calls = append(s.calls, fmt.Sprintf("forward:%d", n))
}
func (s *stubEngine) Resize(w, h uint32) {
	s.calls = append(s.calls, fmt.Sprintf("resize:%dx%d", w, h))
}
func (s *stubEngine) NotifyInput(ev engine.InputEvent) {
	s.calls = append(s.calls, "input")
	s.inputs = append(s.inputs, ev)
}
func (s *stubEngine) NotifyScroll(d engine.Delta, a engine.Point) {
	s.calls = append(s.calls, "scroll")
	s.scrolls = append(s.scrolls, d)
	s.anchors = append(s.anchors, a)
}
func (s *stubEngine) Pump() bool { return s.pumpOK }
func (s *stubEngine) Deinit()    { s.deinited++ }

// runLoop 启动循环并返回等待其退出的函数。
func runLoop(t *testing.T, l *Loop) func() {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Run()
	}()
	return func() {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("loop did not exit")
		}
	}
}

// TestLoopAppliesActionsInOrder 顺序律: 到达顺序 == 应用顺序,
// Shutdown 之后循环退出且 Deinit 恰好一次。
func TestLoopAppliesActionsInOrder(t *testing.T) {
	host, ch := transport.NewMemoryPair()
	defer host.Close()
	eng := newStubEngine()
	wait := runLoop(t, New(ch, eng, Options{Interval: time.Millisecond}))

	host.Send(protocol.NewLoadURL("https://a.example"))
	host.Send(protocol.NewResize(640, 480))
	host.Send(protocol.NewReload())
	host.Send(protocol.NewGoBack())
	host.Send(protocol.NewGoForward())
	host.Send(protocol.NewShutdown())
	wait()

	want := []string{"load:https://a.example", "resize:640x480", "reload", "back:1", "forward:1"}
	if len(eng.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", eng.calls, want)
	}
	for i := range want {
		if eng.calls[i] != want[i] {
			t.Errorf("call #%d = %q, want %q", i, eng.calls[i], want[i])
		}
	}
	if eng.deinited != 1 {
		t.Errorf("Deinit called %d times, want 1", eng.deinited)
	}
}

// TestLoopExitsOnNaturalTermination Pump 返回 false → 循环退出。
func TestLoopExitsOnNaturalTermination(t *testing.T) {
	host, ch := transport.NewMemoryPair()
	defer host.Close()
	eng := newStubEngine()
	eng.pumpOK = false
	wait := runLoop(t, New(ch, eng, Options{Interval: time.Millisecond}))
	wait()
	if eng.deinited != 1 {
		t.Errorf("Deinit called %d times, want 1", eng.deinited)
	}
}

func TestLoopButtonMapping(t *testing.T) {
	host, ch := transport.NewMemoryPair()
	defer host.Close()
	eng := newStubEngine()
	wait := runLoop(t, New(ch, eng, Options{Interval: time.Millisecond}))

	host.Send(protocol.NewButtonPress(1, 5, 6))
	host.Send(protocol.NewButtonPress(2, 5, 6))
	host.Send(protocol.NewButtonPress(3, 5, 6))
	host.Send(protocol.NewButtonRelease(9, 5, 6)) // 未知键号回落为左键
	host.Send(protocol.NewShutdown())
	wait()

	want := []struct {
		btn     engine.Button
		pressed bool
	}{
		{engine.ButtonLeft, true},
		{engine.ButtonMiddle, true},
		{engine.ButtonRight, true},
		{engine.ButtonLeft, false},
	}
	if len(eng.inputs) != len(want) {
		t.Fatalf("inputs = %d, want %d", len(eng.inputs), len(want))
	}
	for i, w := range want {
		mb, ok := eng.inputs[i].(engine.MouseButton)
		if !ok {
			t.Fatalf("input #%d = %T", i, eng.inputs[i])
		}
		if mb.Button != w.btn || mb.Pressed != w.pressed {
			t.Errorf("input #%d = %+v, want button %v pressed %v", i, mb, w.btn, w.pressed)
		}
	}
}

// TestLoopScrollConversion 行增量 ×20 换算为像素, 锚点固定 (10,10)。
func TestLoopScrollConversion(t *testing.T) {
	host, ch := transport.NewMemoryPair()
	defer host.Close()
	eng := newStubEngine()
	wait := runLoop(t, New(ch, eng, Options{Interval: time.Millisecond}))

	host.Send(protocol.NewScroll(1.5, -2))
	host.Send(protocol.NewShutdown())
	wait()

	if len(eng.scrolls) != 1 {
		t.Fatalf("scrolls = %d", len(eng.scrolls))
	}
	if d := eng.scrolls[0]; d.DX != 30 || d.DY != -40 {
		t.Errorf("delta = %+v, want (30, -40)", d)
	}
	if a := eng.anchors[0]; a.X != 10 || a.Y != 10 {
		t.Errorf("anchor = %+v, want (10, 10)", a)
	}
}

func TestLoopKeyConversion(t *testing.T) {
	host, ch := transport.NewMemoryPair()
	defer host.Close()
	eng := newStubEngine()
	wait := runLoop(t, New(ch, eng, Options{Interval: time.Millisecond}))

	host.Send(protocol.NewKeyPress(protocol.KeyPayload{
		Key: "ArrowLeft", Type: protocol.KeyNamed,
		Location: protocol.LocationNumpad, KeyCode: 0xFF96, Modifiers: 8,
	}))
	host.Send(protocol.NewKeyRelease(protocol.KeyPayload{
		Key: "x", Type: protocol.KeyCharacter, Location: protocol.LocationStandard,
	}))
	host.Send(protocol.NewShutdown())
	wait()

	if len(eng.inputs) != 2 {
		t.Fatalf("inputs = %d", len(eng.inputs))
	}
	k := eng.inputs[0].(engine.Key)
	if !k.Named || k.Name != "ArrowLeft" || k.Location != engine.LocNumpad ||
		k.Code != 0xFF96 || k.Modifiers != 8 || !k.Pressed {
		t.Errorf("key #0 = %+v", k)
	}
	k = eng.inputs[1].(engine.Key)
	if k.Named || k.Name != "x" || k.Location != engine.LocStandard || k.Pressed {
		t.Errorf("key #1 = %+v", k)
	}
}

// TestLoopRelaysBufferedLogs 缓冲日志每轮转为 LogMessage 事件发回宿主。
func TestLoopRelaysBufferedLogs(t *testing.T) {
	host, ch := transport.NewMemoryPair()
	defer host.Close()
	logs := logger.NewEventHandler(slog.LevelInfo)
	defer logs.Close()
	eng := newStubEngine()
	wait := runLoop(t, New(ch, eng, Options{Interval: time.Millisecond, Logs: logs}))

	slog.New(logs).Warn("compositor stalled")

	select {
	case ev := <-host.Events():
		if ev.Type != protocol.EventLogMessage {
			t.Fatalf("event = %+v", ev)
		}
		if ev.Log.Level != protocol.LevelWarn || ev.Log.Text != "compositor stalled" {
			t.Errorf("log payload = %+v", ev.Log)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("log event never relayed")
	}

	host.Send(protocol.NewShutdown())
	wait()
}

// TestLoopEndToEndWithSoftEngine 软件引擎全链路:
// 加载 → FrameReady + LoadComplete, 关机 → 循环退出。
func TestLoopEndToEndWithSoftEngine(t *testing.T) {
	host, ch := transport.NewMemoryPair()
	defer host.Close()
	eng := engine.NewSoft(NewDelegate(ch), 4, 4)
	wait := runLoop(t, New(ch, eng, Options{Interval: time.Millisecond}))

	host.Send(protocol.NewLoadURL("https://example.com"))

	var sawFrame, sawLoad bool
	timeout := time.After(5 * time.Second)
	for !(sawFrame && sawLoad) {
		select {
		case ev := <-host.Events():
			switch ev.Type {
			case protocol.EventFrameReady:
				if len(ev.Frame.RGBA) != 4*4*4 {
					t.Errorf("frame bytes = %d", len(ev.Frame.RGBA))
				}
				sawFrame = true
			case protocol.EventLoadComplete:
				sawLoad = true
			}
		case <-timeout:
			t.Fatalf("missing events: frame=%v load=%v", sawFrame, sawLoad)
		}
	}

	host.Send(protocol.NewShutdown())
	wait()
}
