// webview-snap — 演示程序: 拉起 worker, 加载页面, 调整尺寸,
// 等到一帧后存成 PNG, 然后关机。走完宿主 API 的完整链路。
package main

import (
	"flag"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/webview-bridge/go-webview-v2/internal/config"
	"github.com/webview-bridge/go-webview-v2/internal/host"
	"github.com/webview-bridge/go-webview-v2/internal/view"
	"github.com/webview-bridge/go-webview-v2/pkg/logger"
	"github.com/webview-bridge/go-webview-v2/pkg/util"
)

func main() {
	configPath := flag.String("config", "", "YAML 配置文件路径")
	mode := flag.String("mode", config.ModeMemory, "传输模式 (无配置文件时生效)")
	workerPath := flag.String("worker", "", "worker 可执行文件路径 (stdio/socket 模式)")
	url := flag.String("url", "https://example.com", "要加载的页面")
	out := flag.String("o", "snapshot.png", "PNG 输出路径")
	flag.Parse()

	logger.Init(util.EnvStr("WVB_ENV", "dev"))

	cfg, err := loadConfig(*configPath, *mode, *workerPath)
	if err != nil {
		logger.Fatal("snap: bad config", logger.FieldError, err)
	}

	h, err := host.New(cfg)
	if err != nil {
		logger.Fatal("snap: spawn failed", logger.FieldError, err)
	}
	defer h.Close()

	frames := make(chan view.Frame, 1)
	v := view.New(view.Handlers{
		OnFrame: func(f view.Frame) {
			select {
			case frames <- f:
			default:
			}
		},
		OnLoadComplete: func() {
			logger.Info("snap: load complete", logger.FieldURL, *url)
		},
	}, nil)
	util.SafeGo(func() { v.Run(h.Events()) })

	h.LoadURL(*url)
	awaitFrame(frames) // 首帧

	h.Resize(uint32(cfg.Width/2), uint32(cfg.Height/2))
	f := awaitFrame(frames) // 调整后的帧

	if err := writePNG(*out, f); err != nil {
		logger.Fatal("snap: write failed", logger.FieldPath, *out, logger.FieldError, err)
	}
	logger.Info("snap: snapshot written",
		logger.FieldPath, *out,
		logger.FieldWidth, f.Width,
		logger.FieldHeight, f.Height,
	)

	h.Shutdown()
}

func loadConfig(path, mode, workerPath string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg := &config.Config{
		Mode:           mode,
		WorkerPath:     workerPath,
		Width:          1024,
		Height:         768,
		PumpIntervalMS: 5,
		StderrLimit:    1 << 20,
	}
	return cfg, cfg.Validate()
}

func awaitFrame(frames <-chan view.Frame) view.Frame {
	select {
	case f := <-frames:
		return f
	case <-time.After(10 * time.Second):
		logger.Fatal("snap: no frame within 10s")
		panic("unreachable")
	}
}

func writePNG(path string, f view.Frame) error {
	img := &image.NRGBA{
		Pix:    f.RGBA,
		Stride: int(f.Width) * 4,
		Rect:   image.Rect(0, 0, int(f.Width), int(f.Height)),
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}
