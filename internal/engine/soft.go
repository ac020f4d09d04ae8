// soft.go — 内置软件引擎: 纯色渲染 + 导航历史, 不依赖外部渲染内核。
// worker 二进制、演示程序与 pump 循环测试用它走通全链路。
package engine

import (
	"hash/fnv"
	"math"

	apperrors "github.com/webview-bridge/go-webview-v2/pkg/errors"
	"github.com/webview-bridge/go-webview-v2/pkg/logger"
	"github.com/webview-bridge/go-webview-v2/pkg/util"
)

// linkBandHeight 顶部 "链接区" 高度 (像素), 悬停其上光标变为 pointer。
const linkBandHeight = 24.0

// Soft 软件引擎。非并发安全 — 与所有 Engine 实现一样,
// 仅限 pump goroutine 访问。
type Soft struct {
	delegate Delegate

	width  uint32
	height uint32

	history []string
	index   int // -1 = 尚未加载

	scrollY float64
	cursor  string

	dirty       bool // 待渲染
	loadPending bool // 渲染后补发 LoadComplete
	alive       bool
}

// NewSoft 创建软件引擎。通知经 delegate 在 Pump 内同步回调。
func NewSoft(delegate Delegate, width, height uint32) *Soft {
	return &Soft{
		delegate: delegate,
		width:    width,
		height:   height,
		index:    -1,
		cursor:   "default",
		alive:    true,
	}
}

func (s *Soft) Load(url string) error {
	if url == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "engine", "load: empty url")
	}
	// 截断前进历史, 与浏览器导航语义一致
	s.history = append(s.history[:s.index+1], url)
	s.index = len(s.history) - 1
	s.scrollY = 0
	s.dirty = true
	s.loadPending = true
	logger.Debug("engine: load", logger.FieldURL, url)
	return nil
}

func (s *Soft) Reload() {
	if s.index < 0 {
		return
	}
	s.scrollY = 0
	s.dirty = true
	s.loadPending = true
}

func (s *Soft) GoBack(n int) {
	s.navigate(-n)
}

func (s *Soft) GoForward(n int) {
	s.navigate(n)
}

func (s *Soft) navigate(delta int) {
	if s.index < 0 {
		return
	}
	next := util.ClampInt(s.index+delta, 0, len(s.history)-1)
	if next == s.index {
		return
	}
	s.index = next
	s.scrollY = 0
	s.dirty = true
	s.loadPending = true
}

func (s *Soft) Resize(width, height uint32) {
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	if s.index >= 0 {
		s.dirty = true
	}
}

func (s *Soft) NotifyInput(ev InputEvent) {
	switch e := ev.(type) {
	case MouseMove:
		s.hover(e.Pos)
	case Touch:
		s.hover(e.Pos)
	default:
		// 键盘与鼠标键对纯色页面无可观察效果
	}
}

// hover 根据悬停位置更新光标, 仅在变化时通知。
func (s *Soft) hover(p Point) {
	name := "default"
	if s.index >= 0 && p.Y >= 0 && p.Y < linkBandHeight {
		name = "pointer"
	}
	if name == s.cursor {
		return
	}
	s.cursor = name
	s.delegate.CursorChanged(name)
}

func (s *Soft) NotifyScroll(delta Delta, anchor Point) {
	_ = anchor // 纯色页面无滚动锚定需求
	if s.index < 0 {
		return
	}
	next := math.Max(0, s.scrollY+delta.DY)
	if next == s.scrollY {
		return
	}
	s.scrollY = next
	s.dirty = true
}

// Pump 推进一轮: 有脏帧则渲染并通知。返回 false 表示引擎已终止。
func (s *Soft) Pump() bool {
	if !s.alive {
		return false
	}
	if s.dirty && s.width > 0 && s.height > 0 {
		s.dirty = false
		s.delegate.FrameReady(s.render(), s.width, s.height)
		if s.loadPending {
			s.loadPending = false
			s.delegate.LoadComplete()
		}
	}
	return true
}

func (s *Soft) Deinit() {
	s.alive = false
	s.history = nil
	s.index = -1
}

// URL 当前页面地址, 未加载时为空串。
func (s *Soft) URL() string {
	if s.index < 0 {
		return ""
	}
	return s.history[s.index]
}

// render 由当前 URL 与滚动偏移确定性地导出纯色帧。
func (s *Soft) render() []byte {
	h := fnv.New32a()
	h.Write([]byte(s.history[s.index]))
	sum := h.Sum32() + uint32(s.scrollY)

	r := byte(sum >> 16)
	g := byte(sum >> 8)
	b := byte(sum)

	rgba := make([]byte, int(s.width)*int(s.height)*4)
	for i := 0; i < len(rgba); i += 4 {
		rgba[i] = r
		rgba[i+1] = g
		rgba[i+2] = b
		rgba[i+3] = 0xFF
	}
	return rgba
}
