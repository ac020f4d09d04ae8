// cursor.go — 引擎光标名 → 平台光标名, 未知名字回落 "default"。
package view

// DefaultCursor 回落光标。
const DefaultCursor = "default"

// knownCursors 平台支持的 CSS 光标名集合。
var knownCursors = map[string]struct{}{
	"default": {}, "pointer": {}, "text": {}, "wait": {}, "help": {},
	"crosshair": {}, "move": {}, "not-allowed": {}, "grab": {}, "grabbing": {},
	"e-resize": {}, "ne-resize": {}, "nw-resize": {}, "n-resize": {},
	"se-resize": {}, "sw-resize": {}, "s-resize": {}, "w-resize": {},
	"ew-resize": {}, "ns-resize": {}, "nesw-resize": {}, "nwse-resize": {},
	"col-resize": {}, "row-resize": {}, "all-scroll": {},
	"zoom-in": {}, "zoom-out": {}, "alias": {}, "cell": {}, "copy": {},
	"context-menu": {}, "no-drop": {}, "vertical-text": {}, "progress": {},
	"none": {},
}

// NormalizeCursor 校验光标名, 未知或为空时回落 "default"。
func NormalizeCursor(name string) string {
	if _, ok := knownCursors[name]; ok {
		return name
	}
	return DefaultCursor
}
