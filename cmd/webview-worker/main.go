// webview-worker — 引擎侧 worker 进程。
//
// 默认 stdio 模式: stdin 读命令帧流, stdout 写事件帧流, 日志走 stderr。
// --listen 切换 socket 模式: 在给定地址暴露 WebSocket 端点 /io,
// 接受一条宿主连接。
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/webview-bridge/go-webview-v2/internal/engine"
	"github.com/webview-bridge/go-webview-v2/internal/resources"
	"github.com/webview-bridge/go-webview-v2/internal/transport"
	"github.com/webview-bridge/go-webview-v2/internal/worker"
	"github.com/webview-bridge/go-webview-v2/pkg/logger"
	"github.com/webview-bridge/go-webview-v2/pkg/util"
)

func main() {
	listen := flag.String("listen", "", "socket 模式监听地址 (如 127.0.0.1:9400), 空则走 stdio")
	resourceDir := flag.String("resources", "", "覆盖内置静态资源的目录")
	width := flag.Uint("width", 1024, "初始视口宽 (物理像素)")
	height := flag.Uint("height", 768, "初始视口高 (物理像素)")
	flag.Parse()

	// stdout 保留给事件帧流, 日志一律走 stderr
	logger.Init(util.EnvStr("WVB_ENV", "dev"))
	logs := logger.AttachEventHandler(slog.LevelInfo)
	defer logs.Close()

	res := resources.Default()
	if dir := util.FirstNonEmpty(*resourceDir, os.Getenv("WVB_RESOURCE_DIR")); dir != "" {
		res = resources.Layered(resources.NewDir(dir), res)
	}
	seedResources(res)

	var ch transport.Worker
	var srv *http.Server
	if *listen != "" {
		ch, srv = acceptSocket(*listen)
	} else {
		ch = transport.NewStdioWorker(os.Stdin, os.Stdout)
	}

	interval := time.Duration(util.EnvInt("WVB_PUMP_INTERVAL_MS", 5, 1)) * time.Millisecond
	eng := engine.NewSoft(worker.NewDelegate(ch), uint32(*width), uint32(*height))
	loop := worker.New(ch, eng, worker.Options{
		Interval: interval,
		Logs:     logs,
	})

	logger.Info("worker: pump loop starting",
		logger.FieldWidth, *width, logger.FieldHeight, *height)
	loop.Run()

	_ = ch.Close()
	if srv != nil {
		_ = srv.Close()
	}
	logger.Info("worker: exiting")
}

// seedResources 启动时预读引擎所需的静态资源。
func seedResources(res resources.Provider) {
	for _, name := range []string{"prefs.json", "user-agent.css"} {
		data, err := res.Read(name)
		if err != nil {
			logger.Fatal("worker: missing resource",
				logger.FieldPath, name, logger.FieldError, err)
		}
		logger.Debug("worker: resource loaded",
			logger.FieldPath, name, logger.FieldBytes, len(data))
	}
}

// acceptSocket 在 addr 暴露 /io 并等待宿主的第一条连接。
func acceptSocket(addr string) (transport.Worker, *http.Server) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	connCh := make(chan *websocket.Conn, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/io", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("worker: upgrade failed", logger.FieldError, err)
			return
		}
		select {
		case connCh <- conn:
		default:
			// 已有宿主连接, 拒绝后来者
			_ = conn.Close()
		}
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	util.SafeGo(func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("worker: listen failed",
				logger.FieldListen, addr, logger.FieldError, err)
		}
	})

	logger.Info("worker: waiting for host connection", logger.FieldListen, addr)
	conn := <-connCh
	logger.Info("worker: host connected")
	return transport.NewSocketWorker(conn), srv
}
