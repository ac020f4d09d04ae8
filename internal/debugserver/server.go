// Package debugserver 提供调试 HTTP 服务: 运行状态、最近帧快照、事件流。
//
// 仅供本机排查使用, 默认不启动; 经配置 debug_listen 打开。
package debugserver

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/webview-bridge/go-webview-v2/pkg/logger"
	"github.com/webview-bridge/go-webview-v2/pkg/util"
)

// Status 一次状态快照。
type Status struct {
	Mode        string `json:"mode"`
	SessionID   string `json:"session_id,omitempty"`
	Shutdown    bool   `json:"shutdown"`
	ActionsSent uint64 `json:"actions_sent"`
	EventsSeen  uint64 `json:"events_seen"`
}

// StatusFunc 返回当前状态。
type StatusFunc func() Status

// FrameFunc 返回最近一帧; ok=false 表示尚无帧。
type FrameFunc func() (rgba []byte, width, height uint32, ok bool)

// Server 调试 HTTP 服务。
type Server struct {
	router *gin.Engine
	srv    *http.Server
	bus    *EventBus
	status StatusFunc
	frame  FrameFunc
}

// NewServer 创建服务。status/frame 由宿主注入。
func NewServer(status StatusFunc, frame FrameFunc) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	s := &Server{router: r, bus: NewEventBus(), status: status, frame: frame}
	s.registerRoutes()
	return s
}

// Engine 返回 Gin 引擎 (测试用)。
func (s *Server) Engine() *gin.Engine { return s.router }

// Bus 返回事件总线, 宿主把入站事件发布到这里。
func (s *Server) Bus() *EventBus { return s.bus }

// Start 在 addr 上开始监听, 不阻塞。
func (s *Server) Start(addr string) {
	s.srv = &http.Server{Addr: addr, Handler: s.router}
	util.SafeGo(func() {
		logger.Info("debugserver: listening", logger.FieldListen, addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("debugserver: serve failed", logger.FieldError, err)
		}
	})
}

// Close 停止监听。
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")
	api.GET("/status", s.statusHandler)
	api.GET("/frame.png", s.frameHandler)
	api.GET("/events", s.sseHandler)
}

func (s *Server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.status()})
}

// frameHandler 把最近一帧编码为 PNG 返回。
func (s *Server) frameHandler(c *gin.Context) {
	rgba, w, h, ok := s.frame()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   gin.H{"code": "no_frame", "message": "尚未收到任何帧"},
		})
		return
	}

	img := &image.NRGBA{
		Pix:    rgba,
		Stride: int(w) * 4,
		Rect:   image.Rect(0, 0, int(w), int(h)),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		logger.Error("debugserver: png encode failed", logger.FieldError, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "encode_failed", "message": "帧编码失败"},
		})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
