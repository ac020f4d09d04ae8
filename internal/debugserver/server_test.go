package debugserver

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(hasFrame bool) *Server {
	status := func() Status {
		return Status{Mode: "memory", SessionID: "s-1", ActionsSent: 3, EventsSeen: 7}
	}
	frame := func() ([]byte, uint32, uint32, bool) {
		if !hasFrame {
			return nil, 0, 0, false
		}
		rgba := make([]byte, 2*2*4)
		for i := 3; i < len(rgba); i += 4 {
			rgba[i] = 0xFF
		}
		return rgba, 2, 2, true
	}
	return NewServer(status, frame)
}

func TestStatusHandler(t *testing.T) {
	s := newTestServer(false)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	s.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Success bool   `json:"success"`
		Data    Status `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Success || body.Data.Mode != "memory" || body.Data.EventsSeen != 7 {
		t.Errorf("body = %+v", body)
	}
}

func TestFrameHandlerNoFrame(t *testing.T) {
	s := newTestServer(false)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/frame.png", nil)
	s.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestFrameHandlerEncodesPNG(t *testing.T) {
	s := newTestServer(true)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/frame.png", nil)
	s.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("bounds = %v", b)
	}
}

func TestEventBusDropsOnSlowSubscriber(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("slow")
	defer bus.Unsubscribe("slow")

	// 填满缓冲再多发一条, 发布方不得阻塞
	for i := 0; i < cap(ch)+8; i++ {
		bus.Publish(Event{Type: "cursor_changed", Data: "pointer"})
	}
	if len(ch) != cap(ch) {
		t.Errorf("len = %d, want full buffer %d", len(ch), cap(ch))
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("a")
	bus.Unsubscribe("a")
	bus.Publish(Event{Type: "x"})
	if len(ch) != 0 {
		t.Errorf("event delivered after unsubscribe")
	}
}
