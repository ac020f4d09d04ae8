// codec.go — Action/Event 的 JSON 编解码与变体校验。
package protocol

import (
	"encoding/json"

	apperrors "github.com/webview-bridge/go-webview-v2/pkg/errors"
)

// actionPayloads 每个 Action 变体要求的载荷字段 (nil = 无载荷)。
var actionPayloads = map[ActionType]func(*Action) bool{
	ActionLoadURL:       func(a *Action) bool { return a.LoadURL != nil },
	ActionReload:        nil,
	ActionGoBack:        nil,
	ActionGoForward:     nil,
	ActionResize:        func(a *Action) bool { return a.Resize != nil },
	ActionMotion:        func(a *Action) bool { return a.Motion != nil },
	ActionButtonPress:   func(a *Action) bool { return a.Button != nil },
	ActionButtonRelease: func(a *Action) bool { return a.Button != nil },
	ActionKeyPress:      func(a *Action) bool { return a.Key != nil },
	ActionKeyRelease:    func(a *Action) bool { return a.Key != nil },
	ActionTouchBegin:    func(a *Action) bool { return a.Touch != nil },
	ActionTouchUpdate:   func(a *Action) bool { return a.Touch != nil },
	ActionTouchEnd:      func(a *Action) bool { return a.Touch != nil },
	ActionTouchCancel:   func(a *Action) bool { return a.Touch != nil },
	ActionScroll:        func(a *Action) bool { return a.Scroll != nil },
	ActionShutdown:      nil,
}

var eventPayloads = map[EventType]func(*Event) bool{
	EventFrameReady:    func(e *Event) bool { return e.Frame != nil },
	EventLoadComplete:  nil,
	EventCursorChanged: func(e *Event) bool { return e.Cursor != nil },
	EventLogMessage:    func(e *Event) bool { return e.Log != nil },
}

// EncodeAction 序列化 Action 为帧载荷字节。
func EncodeAction(a Action) ([]byte, error) {
	if err := validateAction(&a); err != nil {
		return nil, err
	}
	return json.Marshal(a)
}

// DecodeAction 反序列化帧载荷为 Action。
//
// 未知 type 标签或缺失载荷视为协议违例 — 调用方必须拆除通道, 不得重试。
func DecodeAction(data []byte) (Action, error) {
	var a Action
	if err := json.Unmarshal(data, &a); err != nil {
		return Action{}, apperrors.Wrap(apperrors.ErrProtocolViolation, "Codec.DecodeAction", err.Error())
	}
	if err := validateAction(&a); err != nil {
		return Action{}, err
	}
	return a, nil
}

// EncodeEvent 序列化 Event 为帧载荷字节。
func EncodeEvent(e Event) ([]byte, error) {
	if err := validateEvent(&e); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// DecodeEvent 反序列化帧载荷为 Event。语义同 DecodeAction。
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, apperrors.Wrap(apperrors.ErrProtocolViolation, "Codec.DecodeEvent", err.Error())
	}
	if err := validateEvent(&e); err != nil {
		return Event{}, err
	}
	return e, nil
}

func validateAction(a *Action) error {
	check, known := actionPayloads[a.Type]
	if !known {
		return apperrors.Wrapf(apperrors.ErrProtocolViolation, "Codec.Action", "unknown action type %q", a.Type)
	}
	if check != nil && !check(a) {
		return apperrors.Wrapf(apperrors.ErrProtocolViolation, "Codec.Action", "action %q missing payload", a.Type)
	}
	return nil
}

func validateEvent(e *Event) error {
	check, known := eventPayloads[e.Type]
	if !known {
		return apperrors.Wrapf(apperrors.ErrProtocolViolation, "Codec.Event", "unknown event type %q", e.Type)
	}
	if check != nil && !check(e) {
		return apperrors.Wrapf(apperrors.ErrProtocolViolation, "Codec.Event", "event %q missing payload", e.Type)
	}
	return nil
}
