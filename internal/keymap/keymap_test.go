package keymap

import (
	"testing"

	"github.com/webview-bridge/go-webview-v2/internal/protocol"
)

func TestResolveNamedKeys(t *testing.T) {
	tests := []struct {
		keyval uint32
		name   string
		loc    protocol.KeyLocation
	}{
		{0xFF08, "Backspace", protocol.LocationStandard},
		{0xFF0D, "Enter", protocol.LocationStandard},
		{0xFF51, "ArrowLeft", protocol.LocationStandard},
		{0xFF96, "ArrowLeft", protocol.LocationNumpad},
		{0xFF8D, "Enter", protocol.LocationNumpad},
		{0xFFE1, "Shift", protocol.LocationLeft},
		{0xFFE2, "Shift", protocol.LocationRight},
		{0xFFE9, "Alt", protocol.LocationLeft},
		{0xFFEB, "OS", protocol.LocationLeft},
		{0xFE03, "AltGraph", protocol.LocationStandard},
		{0xFFBE, "F1", protocol.LocationStandard},
		{0xFFC9, "F12", protocol.LocationStandard},
		{0xFFE0, "F35", protocol.LocationStandard},
		{0x1008FF26, "BrowserBack", protocol.LocationStandard},
		{0x1008FF12, "AudioVolumeMute", protocol.LocationStandard},
	}
	for _, tt := range tests {
		r, ok := Resolve(tt.keyval)
		if !ok {
			t.Errorf("Resolve(%#x): not found", tt.keyval)
			continue
		}
		if !r.Named {
			t.Errorf("Resolve(%#x): Named = false", tt.keyval)
		}
		if r.Name != tt.name || r.Location != tt.loc {
			t.Errorf("Resolve(%#x) = (%q, %v), want (%q, %v)",
				tt.keyval, r.Name, r.Location, tt.name, tt.loc)
		}
	}
}

func TestResolveCharacterKeys(t *testing.T) {
	tests := []struct {
		keyval uint32
		name   string
		loc    protocol.KeyLocation
	}{
		{'a', "a", protocol.LocationStandard},
		{'Z', "Z", protocol.LocationStandard},
		{' ', " ", protocol.LocationStandard},
		{0xE9, "é", protocol.LocationStandard},
		{0x01000394, "Δ", protocol.LocationStandard}, // Unicode keysym
		{0xFFB7, "7", protocol.LocationNumpad},
		{0xFFAA, "*", protocol.LocationNumpad},
		{0xFFAE, ".", protocol.LocationNumpad},
	}
	for _, tt := range tests {
		r, ok := Resolve(tt.keyval)
		if !ok {
			t.Errorf("Resolve(%#x): not found", tt.keyval)
			continue
		}
		if r.Named {
			t.Errorf("Resolve(%#x): Named = true for character key", tt.keyval)
		}
		if r.Name != tt.name || r.Location != tt.loc {
			t.Errorf("Resolve(%#x) = (%q, %v), want (%q, %v)",
				tt.keyval, r.Name, r.Location, tt.name, tt.loc)
		}
	}
}

func TestResolveUnknown(t *testing.T) {
	for _, kv := range []uint32{0, 0x1B, 0xFE00, 0xFFFFFF00} {
		if r, ok := Resolve(kv); ok {
			t.Errorf("Resolve(%#x) = %+v, want not found", kv, r)
		}
	}
}

func TestPayload(t *testing.T) {
	p, ok := Payload(0xFF51, ModControl|ModShift)
	if !ok {
		t.Fatal("Payload(ArrowLeft): not found")
	}
	want := protocol.KeyPayload{
		Key:       "ArrowLeft",
		Type:      protocol.KeyNamed,
		Location:  protocol.LocationStandard,
		KeyCode:   0xFF51,
		Modifiers: ModControl | ModShift,
	}
	if p != want {
		t.Errorf("Payload = %+v, want %+v", p, want)
	}

	p, ok = Payload('x', 0)
	if !ok || p.Type != protocol.KeyCharacter || p.Key != "x" {
		t.Errorf("Payload('x') = (%+v, %v)", p, ok)
	}

	if _, ok := Payload(0xFE00, 0); ok {
		t.Error("Payload of unresolvable keyval returned ok")
	}
}
