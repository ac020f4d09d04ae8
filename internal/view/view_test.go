package view

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/webview-bridge/go-webview-v2/internal/protocol"
	"github.com/webview-bridge/go-webview-v2/pkg/logger"
)

// runView 同步跑完一批事件。
func runView(v *View, events ...protocol.Event) {
	ch := make(chan protocol.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	v.Run(ch)
}

func solidFrame(w, h uint32, fill byte) protocol.Event {
	rgba := make([]byte, int(w)*int(h)*4)
	for i := range rgba {
		rgba[i] = fill
	}
	return protocol.NewFrameReady(rgba, w, h)
}

// TestViewFrameOverwrite 单槽覆盖: 多帧连发只留最新。
func TestViewFrameOverwrite(t *testing.T) {
	var dispatched int
	v := New(Handlers{OnFrame: func(Frame) { dispatched++ }}, nil)

	runView(v, solidFrame(2, 2, 1), solidFrame(2, 2, 2), solidFrame(2, 2, 3))

	f, ok := v.Frames().Latest()
	if !ok {
		t.Fatal("no frame buffered")
	}
	if f.RGBA[0] != 3 {
		t.Errorf("latest frame fill = %d, want 3 (last wins)", f.RGBA[0])
	}
	if g := v.Frames().Generation(); g != 3 {
		t.Errorf("generation = %d, want 3", g)
	}
	if dispatched != 3 {
		t.Errorf("OnFrame dispatched %d times, want 3", dispatched)
	}
}

// TestViewMalformedFrameDropped 尺寸与字节数不符的帧被丢弃, 循环继续。
func TestViewMalformedFrameDropped(t *testing.T) {
	v := New(Handlers{}, nil)

	bad := protocol.NewFrameReady(make([]byte, 7), 2, 2) // 2*2*4 != 7
	runView(v, bad, solidFrame(2, 2, 9))

	f, ok := v.Frames().Latest()
	if !ok {
		t.Fatal("good frame after bad one not buffered")
	}
	if f.RGBA[0] != 9 {
		t.Errorf("buffered frame fill = %d, want 9", f.RGBA[0])
	}
	if g := v.Frames().Generation(); g != 1 {
		t.Errorf("generation = %d, want 1 (bad frame not stored)", g)
	}

	// 零尺寸帧同样被拒
	runViewZero := protocol.NewFrameReady(nil, 0, 0)
	runView(v, runViewZero)
	if g := v.Frames().Generation(); g != 1 {
		t.Errorf("zero-size frame stored, generation = %d", g)
	}
}

func TestViewCursorNormalized(t *testing.T) {
	var got []string
	v := New(Handlers{OnCursor: func(name string) { got = append(got, name) }}, nil)

	runView(v,
		protocol.NewCursorChanged("grab"),
		protocol.NewCursorChanged("spinning-beach-ball"),
		protocol.NewCursorChanged(""),
	)

	want := []string{"grab", "default", "default"}
	if len(got) != len(want) {
		t.Fatalf("cursors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cursor #%d = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestViewOwnerDestroyedStopsLoop 持有者销毁后循环终止:
// 即使流未关闭, Run 也必须返回, 且已销毁的接收方不再被触碰。
func TestViewOwnerDestroyedStopsLoop(t *testing.T) {
	alive := true
	var frames, cursors, loads int
	v := New(Handlers{
		OnFrame:        func(Frame) { frames++ },
		OnCursor:       func(string) { cursors++ },
		OnLoadComplete: func() { loads++ },
	}, func() bool { return alive })

	runView(v, solidFrame(1, 1, 1), protocol.NewLoadComplete())
	if frames != 1 || loads != 1 {
		t.Fatalf("live dispatch: frames=%d loads=%d", frames, loads)
	}

	// 不关闭 ch — 循环必须因持有者销毁而自行退出
	alive = false
	ch := make(chan protocol.Event, 3)
	ch <- solidFrame(1, 1, 2)
	ch <- protocol.NewCursorChanged("text")
	ch <- protocol.NewLoadComplete()

	done := make(chan struct{})
	go func() {
		v.Run(ch)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run still consuming after owner destroyed")
	}

	if frames != 1 || cursors != 0 || loads != 1 {
		t.Errorf("dead receiver dispatched: frames=%d cursors=%d loads=%d", frames, cursors, loads)
	}
	if g := v.Frames().Generation(); g != 1 {
		t.Errorf("generation = %d, want 1 (no events processed after destruction)", g)
	}
}

// captureHandler 捕获 slog 记录供断言。
type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.records = append(h.records, r)
	h.mu.Unlock()
	return nil
}
func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

// TestViewLogRelay worker 日志按原级别转入本进程日志。
func TestViewLogRelay(t *testing.T) {
	capture := &captureHandler{}
	logger.SetHandler(capture)
	defer logger.SetHandler(slog.NewTextHandler(io.Discard, nil))

	v := New(Handlers{}, nil)
	runView(v,
		protocol.NewLogMessage(protocol.LevelError, "layout crashed"),
		protocol.NewLogMessage(protocol.LevelDebug, "style recalc"),
	)

	capture.mu.Lock()
	defer capture.mu.Unlock()
	if len(capture.records) != 2 {
		t.Fatalf("relayed %d records, want 2", len(capture.records))
	}
	if capture.records[0].Level != slog.LevelError || capture.records[0].Message != "layout crashed" {
		t.Errorf("record #0 = %v %q", capture.records[0].Level, capture.records[0].Message)
	}
	if capture.records[1].Level != slog.LevelDebug {
		t.Errorf("record #1 level = %v", capture.records[1].Level)
	}
}
