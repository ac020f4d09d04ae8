// Package protocol 定义 UI 域与引擎域之间的消息模式与线上编码。
//
// 消息分两类:
//   - Action: UI → 引擎的命令 (导航 / 输入 / 尺寸 / Shutdown)
//   - Event:  引擎 → UI 的通知 (帧 / 光标 / 日志 / 加载完成)
//
// 两个变体集都是封闭的: 未知 type 标签一律按协议违例处理,
// 不存在向前兼容的 "忽略未知变体" 语义。
package protocol

// ActionType Action 变体标签 (封闭集合)。
type ActionType string

const (
	ActionLoadURL       ActionType = "load_url"
	ActionReload        ActionType = "reload"
	ActionGoBack        ActionType = "go_back"
	ActionGoForward     ActionType = "go_forward"
	ActionResize        ActionType = "resize"
	ActionMotion        ActionType = "motion"
	ActionButtonPress   ActionType = "button_press"
	ActionButtonRelease ActionType = "button_release"
	ActionKeyPress      ActionType = "key_press"
	ActionKeyRelease    ActionType = "key_release"
	ActionTouchBegin    ActionType = "touch_begin"
	ActionTouchUpdate   ActionType = "touch_update"
	ActionTouchEnd      ActionType = "touch_end"
	ActionTouchCancel   ActionType = "touch_cancel"
	ActionScroll        ActionType = "scroll"
	ActionShutdown      ActionType = "shutdown"
)

// EventType Event 变体标签 (封闭集合)。
type EventType string

const (
	EventFrameReady    EventType = "frame_ready"
	EventLoadComplete  EventType = "load_complete"
	EventCursorChanged EventType = "cursor_changed"
	EventLogMessage    EventType = "log_message"
)

// KeyType 按键类别: 可打印字符 or 命名键。
type KeyType string

const (
	KeyCharacter KeyType = "character"
	KeyNamed     KeyType = "named"
)

// KeyLocation 按键物理位置。
type KeyLocation string

const (
	LocationStandard KeyLocation = "standard"
	LocationLeft     KeyLocation = "left"
	LocationRight    KeyLocation = "right"
	LocationNumpad   KeyLocation = "numpad"
)

// LogLevel worker 日志级别。
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// ========================================
// Action 载荷
// ========================================

// LoadURLPayload 导航目标。
type LoadURLPayload struct {
	URL string `json:"url"`
}

// ResizePayload 视口尺寸 (物理像素)。
type ResizePayload struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// MotionPayload 指针移动坐标。
type MotionPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ButtonPayload 鼠标键按下/释放。button: 1=左 2=中 3=右。
type ButtonPayload struct {
	Button uint32  `json:"button"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// KeyPayload 键盘按下/释放。
//
// Key 的含义由 Type 决定: character → 字面字符, named → 命名键名
// (如 "ArrowLeft")。KeyCode 为平台原始键码, Modifiers 为修饰键位掩码
// (见 keymap 包常量)。
type KeyPayload struct {
	Key       string      `json:"key"`
	Type      KeyType     `json:"key_type"`
	Location  KeyLocation `json:"location"`
	KeyCode   uint32      `json:"key_code"`
	Modifiers uint32      `json:"modifiers"`
}

// TouchPayload 触摸事件坐标。
type TouchPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScrollPayload 滚动增量 (行单位, 由引擎侧换算为像素)。
type ScrollPayload struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Action UI → 引擎命令。Type 决定哪个载荷字段非 nil;
// Reload/GoBack/GoForward/Shutdown 无载荷。
//
// 构造后不可变; 由 UI 输入处理器创建, 被 pump 循环按发送顺序各消费一次。
type Action struct {
	Type    ActionType      `json:"type"`
	LoadURL *LoadURLPayload `json:"load_url,omitempty"`
	Resize  *ResizePayload  `json:"resize,omitempty"`
	Motion  *MotionPayload  `json:"motion,omitempty"`
	Button  *ButtonPayload  `json:"button,omitempty"`
	Key     *KeyPayload     `json:"key,omitempty"`
	Touch   *TouchPayload   `json:"touch,omitempty"`
	Scroll  *ScrollPayload  `json:"scroll,omitempty"`
}

// ========================================
// Event 载荷
// ========================================

// FramePayload 一帧渲染结果: 裸 RGBA 字节, 长度必须等于 width*height*4。
type FramePayload struct {
	RGBA   []byte `json:"rgba"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// CursorPayload 光标变更, Name 为 CSS 光标名 ("default"/"pointer"/...)。
type CursorPayload struct {
	Name string `json:"name"`
}

// LogPayload worker 侧日志转发。
type LogPayload struct {
	Level LogLevel `json:"level"`
	Text  string   `json:"text"`
}

// Event 引擎 → UI 通知。Type 决定哪个载荷字段非 nil; LoadComplete 无载荷。
type Event struct {
	Type   EventType      `json:"type"`
	Frame  *FramePayload  `json:"frame,omitempty"`
	Cursor *CursorPayload `json:"cursor,omitempty"`
	Log    *LogPayload    `json:"log,omitempty"`
}

// ========================================
// Action 构造函数
// ========================================

// NewLoadURL 构造 LoadUrl Action。
func NewLoadURL(url string) Action {
	return Action{Type: ActionLoadURL, LoadURL: &LoadURLPayload{URL: url}}
}

// NewReload 构造 Reload Action。
func NewReload() Action { return Action{Type: ActionReload} }

// NewGoBack 构造 GoBack Action。
func NewGoBack() Action { return Action{Type: ActionGoBack} }

// NewGoForward 构造 GoForward Action。
func NewGoForward() Action { return Action{Type: ActionGoForward} }

// NewResize 构造 Resize Action。
func NewResize(width, height uint32) Action {
	return Action{Type: ActionResize, Resize: &ResizePayload{Width: width, Height: height}}
}

// NewMotion 构造 Motion Action。
func NewMotion(x, y float64) Action {
	return Action{Type: ActionMotion, Motion: &MotionPayload{X: x, Y: y}}
}

// NewButtonPress 构造 ButtonPress Action。
func NewButtonPress(button uint32, x, y float64) Action {
	return Action{Type: ActionButtonPress, Button: &ButtonPayload{Button: button, X: x, Y: y}}
}

// NewButtonRelease 构造 ButtonRelease Action。
func NewButtonRelease(button uint32, x, y float64) Action {
	return Action{Type: ActionButtonRelease, Button: &ButtonPayload{Button: button, X: x, Y: y}}
}

// NewKeyPress 构造 KeyPress Action。
func NewKeyPress(key KeyPayload) Action {
	k := key
	return Action{Type: ActionKeyPress, Key: &k}
}

// NewKeyRelease 构造 KeyRelease Action。
func NewKeyRelease(key KeyPayload) Action {
	k := key
	return Action{Type: ActionKeyRelease, Key: &k}
}

// NewTouch 构造触摸 Action。t 必须是四个 touch 变体之一。
func NewTouch(t ActionType, x, y float64) Action {
	return Action{Type: t, Touch: &TouchPayload{X: x, Y: y}}
}

// NewScroll 构造 Scroll Action。
func NewScroll(dx, dy float64) Action {
	return Action{Type: ActionScroll, Scroll: &ScrollPayload{DX: dx, DY: dy}}
}

// NewShutdown 构造 Shutdown Action (终结命令)。
func NewShutdown() Action { return Action{Type: ActionShutdown} }

// ========================================
// Event 构造函数
// ========================================

// NewFrameReady 构造 FrameReady Event。
func NewFrameReady(rgba []byte, width, height uint32) Event {
	return Event{Type: EventFrameReady, Frame: &FramePayload{RGBA: rgba, Width: width, Height: height}}
}

// NewLoadComplete 构造 LoadComplete Event。
func NewLoadComplete() Event { return Event{Type: EventLoadComplete} }

// NewCursorChanged 构造 CursorChanged Event。
func NewCursorChanged(name string) Event {
	return Event{Type: EventCursorChanged, Cursor: &CursorPayload{Name: name}}
}

// NewLogMessage 构造 LogMessage Event。
func NewLogMessage(level LogLevel, text string) Event {
	return Event{Type: EventLogMessage, Log: &LogPayload{Level: level, Text: text}}
}
