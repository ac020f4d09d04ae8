// Package engine 定义渲染引擎句柄的抽象。
//
// pump 循环是句柄的唯一持有者, 所有调用都在 pump goroutine 上
// 串行发生; 实现无需内部加锁。引擎产生的通知 (新帧/光标/加载完成)
// 经 Delegate 回调交还给调用方。
package engine

// Point 视口坐标 (物理像素)。
type Point struct {
	X float64
	Y float64
}

// Delta 滚动增量 (像素)。
type Delta struct {
	DX float64
	DY float64
}

// ========================================
// 输入事件 (封闭集合)
// ========================================

// InputEvent 指针/键盘/触摸输入的封闭集合。
type InputEvent interface{ isInputEvent() }

// MouseMove 指针移动。
type MouseMove struct {
	Pos Point
}

// Button 鼠标键。
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// MouseButton 鼠标键按下/释放。
type MouseButton struct {
	Button  Button
	Pressed bool
	Pos     Point
}

// KeyLocation 按键物理位置。
type KeyLocation int

const (
	LocStandard KeyLocation = iota
	LocLeft
	LocRight
	LocNumpad
)

// Key 键盘按下/释放。Named 为 true 时 Name 是命名键 ("ArrowLeft"),
// 否则是字面字符。
type Key struct {
	Name      string
	Named     bool
	Location  KeyLocation
	Code      uint32
	Modifiers uint32
	Pressed   bool
}

// TouchPhase 触摸事件阶段。
type TouchPhase int

const (
	TouchBegin TouchPhase = iota
	TouchUpdate
	TouchEnd
	TouchCancel
)

// Touch 触摸事件。
type Touch struct {
	Phase TouchPhase
	Pos   Point
}

func (MouseMove) isInputEvent()   {}
func (MouseButton) isInputEvent() {}
func (Key) isInputEvent()         {}
func (Touch) isInputEvent()       {}

// ========================================
// 句柄与回调
// ========================================

// Delegate 接收引擎产生的通知。回调在 pump goroutine 上同步执行,
// 实现方不得在回调内反向调用引擎。
type Delegate interface {
	FrameReady(rgba []byte, width, height uint32)
	CursorChanged(name string)
	LoadComplete()
}

// Engine 渲染引擎句柄。
//
// Pump 推进引擎内部任务一轮, 返回 false 表示引擎自然终止,
// 循环应随即退出。Deinit 释放资源, 之后句柄不可再用。
type Engine interface {
	Load(url string) error
	Reload()
	GoBack(n int)
	GoForward(n int)
	Resize(width, height uint32)
	NotifyInput(ev InputEvent)
	NotifyScroll(delta Delta, anchor Point)
	Pump() bool
	Deinit()
}
