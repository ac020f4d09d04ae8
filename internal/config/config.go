// Package config 加载宿主与 worker 的运行配置。
//
// 优先级: 内置默认值 < YAML 文件 < 环境变量。
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/webview-bridge/go-webview-v2/pkg/errors"
	"github.com/webview-bridge/go-webview-v2/pkg/util"
)

// 传输模式。
const (
	ModeMemory = "memory"
	ModeStdio  = "stdio"
	ModeSocket = "socket"
)

// Config 全部运行配置。
type Config struct {
	// Mode 传输模式: memory / stdio / socket。
	Mode string `yaml:"mode" env:"WVB_MODE" default:"stdio"`

	// WorkerPath worker 可执行文件路径 (stdio/socket 模式)。
	WorkerPath string `yaml:"worker_path" env:"WVB_WORKER_PATH"`
	// WorkerArgs 附加启动参数, 仅经 YAML 配置。
	WorkerArgs []string `yaml:"worker_args"`
	// SocketURL socket 模式下 worker 的 WebSocket 端点。
	SocketURL string `yaml:"socket_url" env:"WVB_SOCKET_URL"`

	// Width/Height 初始视口尺寸 (物理像素)。
	Width  int `yaml:"width" env:"WVB_WIDTH" default:"1024" min:"1"`
	Height int `yaml:"height" env:"WVB_HEIGHT" default:"768" min:"1"`

	// PumpIntervalMS pump 循环每轮之间的休眠 (毫秒)。
	PumpIntervalMS int `yaml:"pump_interval_ms" env:"WVB_PUMP_INTERVAL_MS" default:"5" min:"1"`

	// ResourceDir 覆盖内置静态资源的目录, 空则只用内置集合。
	ResourceDir string `yaml:"resource_dir" env:"WVB_RESOURCE_DIR"`

	// TracePath 会话追踪 SQLite 文件路径, 空则不记录。
	TracePath string `yaml:"trace_path" env:"WVB_TRACE_PATH"`

	// DebugListen 调试 HTTP 服务监听地址 (如 "127.0.0.1:8377"), 空则不启动。
	DebugListen string `yaml:"debug_listen" env:"WVB_DEBUG_LISTEN"`

	// Env 日志环境: dev (文本) / prod (JSON)。
	Env string `yaml:"env" env:"WVB_ENV" default:"dev"`

	// StderrLimit worker stderr 采集上限 (字节), 超出部分丢弃。
	StderrLimit int `yaml:"stderr_limit" env:"WVB_STDERR_LIMIT" default:"1048576" min:"4096"`
}

// Load 组装配置。path 为空时跳过 YAML 层。
func Load(path string) (*Config, error) {
	cfg := &Config{}
	util.LoadFromEnv(cfg) // 先落默认值

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.Wrapf(err, "config", "read %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.Wrapf(err, "config", "parse %s", path)
		}
	}

	cfg.overlayEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlayEnv 环境变量覆盖 YAML 层; 未设置的变量保持现值。
func (c *Config) overlayEnv() {
	c.Mode = util.EnvStr("WVB_MODE", c.Mode)
	c.WorkerPath = util.EnvStr("WVB_WORKER_PATH", c.WorkerPath)
	c.SocketURL = util.EnvStr("WVB_SOCKET_URL", c.SocketURL)
	c.Width = util.EnvInt("WVB_WIDTH", c.Width, 1)
	c.Height = util.EnvInt("WVB_HEIGHT", c.Height, 1)
	c.PumpIntervalMS = util.EnvInt("WVB_PUMP_INTERVAL_MS", c.PumpIntervalMS, 1)
	c.ResourceDir = util.EnvStr("WVB_RESOURCE_DIR", c.ResourceDir)
	c.TracePath = util.EnvStr("WVB_TRACE_PATH", c.TracePath)
	c.DebugListen = util.EnvStr("WVB_DEBUG_LISTEN", c.DebugListen)
	c.Env = util.EnvStr("WVB_ENV", c.Env)
	c.StderrLimit = util.EnvInt("WVB_STDERR_LIMIT", c.StderrLimit, 4096)
}

// Validate 校验模式与模式相关字段。
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeMemory:
	case ModeStdio:
		if c.WorkerPath == "" {
			return apperrors.New("config", "stdio mode requires worker_path")
		}
	case ModeSocket:
		if c.SocketURL == "" && c.WorkerPath == "" {
			return apperrors.New("config", "socket mode requires socket_url or worker_path")
		}
	default:
		return apperrors.Newf("config", "unknown mode %q", c.Mode)
	}
	return nil
}

// PumpInterval pump 循环休眠时长。
func (c *Config) PumpInterval() time.Duration {
	return time.Duration(c.PumpIntervalMS) * time.Millisecond
}
