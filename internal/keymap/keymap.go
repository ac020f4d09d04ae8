// Package keymap 把平台原始键码 (X11/GDK keysym) 解析为协议键名与位置。
//
// 表在包初始化时构建一次, 之后只读; UI 键盘处理器在构造
// KeyPress/KeyRelease 命令前经 Resolve/Payload 查询。
package keymap

import (
	"github.com/webview-bridge/go-webview-v2/internal/protocol"
)

// 修饰键位掩码 (W3C UI Events KeyboardEvent modifier 布局)。
const (
	ModAlt        uint32 = 1 << 0
	ModAltGraph   uint32 = 1 << 1
	ModCapsLock   uint32 = 1 << 2
	ModControl    uint32 = 1 << 3
	ModFn         uint32 = 1 << 4
	ModFnLock     uint32 = 1 << 5
	ModMeta       uint32 = 1 << 6
	ModNumLock    uint32 = 1 << 7
	ModScrollLock uint32 = 1 << 8
	ModShift      uint32 = 1 << 9
	ModSymbol     uint32 = 1 << 10
	ModSymbolLock uint32 = 1 << 11
	ModHyper      uint32 = 1 << 12
	ModSuper      uint32 = 1 << 13
)

// Resolved 一次键码解析的结果。Named 为 true 时 Name 是 W3C 命名键
// ("ArrowLeft"), 否则是字面字符。
type Resolved struct {
	Name     string
	Named    bool
	Location protocol.KeyLocation
}

type entry struct {
	name string
	loc  protocol.KeyLocation
}

// named 命名键表: keysym → (键名, 位置)。
var named = map[uint32]entry{
	// 编辑与控制
	0xFF08: {"Backspace", protocol.LocationStandard},
	0xFF09: {"Tab", protocol.LocationStandard},
	0xFF0B: {"Clear", protocol.LocationStandard},
	0xFF0D: {"Enter", protocol.LocationStandard},
	0xFF13: {"Pause", protocol.LocationStandard},
	0xFF14: {"ScrollLock", protocol.LocationStandard},
	0xFF1B: {"Escape", protocol.LocationStandard},
	0xFFFF: {"Delete", protocol.LocationStandard},

	// IME
	0xFF20: {"Compose", protocol.LocationStandard},
	0xFF21: {"KanjiMode", protocol.LocationStandard},
	0xFF22: {"NonConvert", protocol.LocationStandard},
	0xFF23: {"Convert", protocol.LocationStandard},
	0xFF24: {"Romaji", protocol.LocationStandard},
	0xFF25: {"Hiragana", protocol.LocationStandard},
	0xFF26: {"Katakana", protocol.LocationStandard},
	0xFF27: {"HiraganaKatakana", protocol.LocationStandard},
	0xFF28: {"Zenkaku", protocol.LocationStandard},
	0xFF29: {"Hankaku", protocol.LocationStandard},
	0xFF2A: {"ZenkakuHankaku", protocol.LocationStandard},
	0xFF2D: {"KanaMode", protocol.LocationStandard},
	0xFF2F: {"Alphanumeric", protocol.LocationStandard},
	0xFF37: {"CodeInput", protocol.LocationStandard},
	0xFF3C: {"SingleCandidate", protocol.LocationStandard},
	0xFF3D: {"AllCandidates", protocol.LocationStandard},
	0xFF3E: {"PreviousCandidate", protocol.LocationStandard},

	// 导航
	0xFF50: {"Home", protocol.LocationStandard},
	0xFF51: {"ArrowLeft", protocol.LocationStandard},
	0xFF52: {"ArrowUp", protocol.LocationStandard},
	0xFF53: {"ArrowRight", protocol.LocationStandard},
	0xFF54: {"ArrowDown", protocol.LocationStandard},
	0xFF55: {"PageUp", protocol.LocationStandard},
	0xFF56: {"PageDown", protocol.LocationStandard},
	0xFF57: {"End", protocol.LocationStandard},

	0xFF60: {"Select", protocol.LocationStandard},
	0xFF61: {"PrintScreen", protocol.LocationStandard},
	0xFF62: {"Execute", protocol.LocationStandard},
	0xFF63: {"Insert", protocol.LocationStandard},
	0xFF65: {"Undo", protocol.LocationStandard},
	0xFF66: {"Redo", protocol.LocationStandard},
	0xFF67: {"ContextMenu", protocol.LocationStandard},
	0xFF68: {"Find", protocol.LocationStandard},
	0xFF69: {"Cancel", protocol.LocationStandard},
	0xFF6A: {"Help", protocol.LocationStandard},
	0xFF7F: {"NumLock", protocol.LocationStandard},

	// 数字键盘命名键
	0xFF89: {"Tab", protocol.LocationNumpad},
	0xFF8D: {"Enter", protocol.LocationNumpad},
	0xFF91: {"F1", protocol.LocationNumpad},
	0xFF92: {"F2", protocol.LocationNumpad},
	0xFF93: {"F3", protocol.LocationNumpad},
	0xFF94: {"F4", protocol.LocationNumpad},
	0xFF95: {"Home", protocol.LocationNumpad},
	0xFF96: {"ArrowLeft", protocol.LocationNumpad},
	0xFF97: {"ArrowUp", protocol.LocationNumpad},
	0xFF98: {"ArrowRight", protocol.LocationNumpad},
	0xFF99: {"ArrowDown", protocol.LocationNumpad},
	0xFF9A: {"PageUp", protocol.LocationNumpad},
	0xFF9B: {"PageDown", protocol.LocationNumpad},
	0xFF9C: {"End", protocol.LocationNumpad},
	0xFF9E: {"Insert", protocol.LocationNumpad},
	0xFF9F: {"Delete", protocol.LocationNumpad},

	// 修饰键 (左右有别)
	0xFFE1: {"Shift", protocol.LocationLeft},
	0xFFE2: {"Shift", protocol.LocationRight},
	0xFFE3: {"Control", protocol.LocationLeft},
	0xFFE4: {"Control", protocol.LocationRight},
	0xFFE5: {"CapsLock", protocol.LocationStandard},
	0xFFE6: {"Shift", protocol.LocationStandard},
	0xFFE7: {"Meta", protocol.LocationLeft},
	0xFFE8: {"Meta", protocol.LocationRight},
	0xFFE9: {"Alt", protocol.LocationLeft},
	0xFFEA: {"Alt", protocol.LocationRight},
	0xFFEB: {"OS", protocol.LocationLeft},
	0xFFEC: {"OS", protocol.LocationRight},

	// ISO 组切换
	0xFE03: {"AltGraph", protocol.LocationStandard},
	0xFE08: {"GroupNext", protocol.LocationStandard},
	0xFE0A: {"GroupPrevious", protocol.LocationStandard},
	0xFE0C: {"GroupFirst", protocol.LocationStandard},
	0xFE0E: {"GroupLast", protocol.LocationStandard},
	0xFE20: {"Tab", protocol.LocationLeft},

	// 媒体 / 浏览器 (XF86)
	0x1008FF02: {"BrightnessUp", protocol.LocationStandard},
	0x1008FF03: {"BrightnessDown", protocol.LocationStandard},
	0x1008FF10: {"Standby", protocol.LocationStandard},
	0x1008FF11: {"AudioVolumeDown", protocol.LocationStandard},
	0x1008FF12: {"AudioVolumeMute", protocol.LocationStandard},
	0x1008FF13: {"AudioVolumeUp", protocol.LocationStandard},
	0x1008FF14: {"MediaPlay", protocol.LocationStandard},
	0x1008FF15: {"MediaStop", protocol.LocationStandard},
	0x1008FF16: {"MediaTrackPrevious", protocol.LocationStandard},
	0x1008FF17: {"MediaTrackNext", protocol.LocationStandard},
	0x1008FF18: {"BrowserHome", protocol.LocationStandard},
	0x1008FF19: {"LaunchMail", protocol.LocationStandard},
	0x1008FF1B: {"BrowserSearch", protocol.LocationStandard},
	0x1008FF1C: {"MediaRecord", protocol.LocationStandard},
	0x1008FF1D: {"LaunchCalculator", protocol.LocationStandard},
	0x1008FF26: {"BrowserBack", protocol.LocationStandard},
	0x1008FF27: {"BrowserForward", protocol.LocationStandard},
	0x1008FF28: {"BrowserStop", protocol.LocationStandard},
	0x1008FF29: {"BrowserRefresh", protocol.LocationStandard},
	0x1008FF2A: {"PowerOff", protocol.LocationStandard},
	0x1008FF2B: {"WakeUp", protocol.LocationStandard},
	0x1008FF2C: {"Eject", protocol.LocationStandard},
	0x1008FF2D: {"LaunchScreenSaver", protocol.LocationStandard},
	0x1008FF2E: {"LaunchWebBrowser", protocol.LocationStandard},
	0x1008FF31: {"MediaPause", protocol.LocationStandard},
}

// numpadChars 产生字面字符的数字键盘 keysym。
var numpadChars = map[uint32]rune{
	0xFF80: ' ', // KP_Space
	0xFFAA: '*',
	0xFFAB: '+',
	0xFFAC: ',',
	0xFFAD: '-',
	0xFFAE: '.',
	0xFFAF: '/',
	0xFFB0: '0',
	0xFFB1: '1',
	0xFFB2: '2',
	0xFFB3: '3',
	0xFFB4: '4',
	0xFFB5: '5',
	0xFFB6: '6',
	0xFFB7: '7',
	0xFFB8: '8',
	0xFFB9: '9',
	0xFFBD: '=', // KP_Equal
}

func init() {
	// F1..F35 连续占据 0xFFBE..0xFFE0
	fn := []string{
		"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10",
		"F11", "F12", "F13", "F14", "F15", "F16", "F17", "F18", "F19", "F20",
		"F21", "F22", "F23", "F24", "F25", "F26", "F27", "F28", "F29", "F30",
		"F31", "F32", "F33", "F34", "F35",
	}
	for i, name := range fn {
		named[0xFFBE+uint32(i)] = entry{name, protocol.LocationStandard}
	}
}

// Resolve 解析键码。命名键查表; 其余尝试转为字面字符
// (Latin-1 直通, 0x01000000 偏移的 Unicode keysym, 数字键盘字符)。
// 无法解析的键码返回 ok=false, 调用方应丢弃该按键。
func Resolve(keyval uint32) (Resolved, bool) {
	if e, ok := named[keyval]; ok {
		return Resolved{Name: e.name, Named: true, Location: e.loc}, true
	}
	if r, ok := numpadChars[keyval]; ok {
		return Resolved{Name: string(r), Location: protocol.LocationNumpad}, true
	}
	if r, ok := keyvalToRune(keyval); ok {
		return Resolved{Name: string(r), Location: protocol.LocationStandard}, true
	}
	return Resolved{}, false
}

// Payload 构造可直接放入 KeyPress/KeyRelease 命令的键载荷。
func Payload(keyval, modifiers uint32) (protocol.KeyPayload, bool) {
	r, ok := Resolve(keyval)
	if !ok {
		return protocol.KeyPayload{}, false
	}
	kt := protocol.KeyCharacter
	if r.Named {
		kt = protocol.KeyNamed
	}
	return protocol.KeyPayload{
		Key:       r.Name,
		Type:      kt,
		Location:  r.Location,
		KeyCode:   keyval,
		Modifiers: modifiers,
	}, true
}

func keyvalToRune(kv uint32) (rune, bool) {
	switch {
	case kv >= 0x20 && kv <= 0x7E:
		return rune(kv), true
	case kv >= 0xA0 && kv <= 0xFF:
		return rune(kv), true
	case kv&0xFF000000 == 0x01000000:
		// Unicode keysym: U+XXXX | 0x01000000
		r := rune(kv & 0x00FFFFFF)
		if r >= 0x20 {
			return r, true
		}
	}
	return 0, false
}
