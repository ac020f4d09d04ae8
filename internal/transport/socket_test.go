// socket_test.go — socket 模式: 真实 WebSocket 回环往返。
package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/webview-bridge/go-webview-v2/internal/protocol"
)

// newSocketPair 起一个内嵌 WebSocket 服务端承载 Worker 端点,
// 客户端 dial 后承载 Host 端点。
func newSocketPair(t *testing.T) (Host, Worker) {
	t.Helper()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	workerCh := make(chan Worker, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		workerCh <- NewSocketWorker(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	host := NewSocketHost(conn)

	var worker Worker
	select {
	case worker = <-workerCh:
	case <-time.After(5 * time.Second):
		t.Fatal("worker endpoint never established")
	}
	t.Cleanup(func() {
		host.Close()
		worker.Close()
	})
	return host, worker
}

func TestSocketRoundTrip(t *testing.T) {
	host, worker := newSocketPair(t)

	host.Send(protocol.NewLoadURL("https://example.com"))
	host.Send(protocol.NewScroll(0, -42.5))

	got := pollAll(t, worker, 2)
	if got[0].Type != protocol.ActionLoadURL || got[0].LoadURL.URL != "https://example.com" {
		t.Errorf("action #0 = %+v", got[0])
	}
	if got[1].Type != protocol.ActionScroll || got[1].Scroll.DY != -42.5 {
		t.Errorf("action #1 = %+v", got[1])
	}

	worker.Emit(protocol.NewCursorChanged("grab"))
	select {
	case ev := <-host.Events():
		if ev.Type != protocol.EventCursorChanged || ev.Cursor.Name != "grab" {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("event never arrived")
	}
}

// TestSocketWorkerCloseEndsHostEvents 对端关闭连接 → Host 事件流关闭。
func TestSocketWorkerCloseEndsHostEvents(t *testing.T) {
	host, worker := newSocketPair(t)

	worker.Close()
	select {
	case _, ok := <-host.Events():
		if ok {
			t.Error("expected closed event stream")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("event stream not closed after peer Close")
	}
}
