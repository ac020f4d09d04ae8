package resources

import (
	"errors"
	"testing"
	"testing/fstest"

	apperrors "github.com/webview-bridge/go-webview-v2/pkg/errors"
)

func TestDefaultHasBuiltinAssets(t *testing.T) {
	p := Default()
	for _, name := range []string{"prefs.json", "user-agent.css"} {
		data, err := p.Read(name)
		if err != nil {
			t.Errorf("Read(%q): %v", name, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("Read(%q): empty", name)
		}
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Default().Read("no-such-resource.bin")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLayeredOverride(t *testing.T) {
	override := NewFS(fstest.MapFS{
		"prefs.json": {Data: []byte(`{"custom":true}`)},
	})
	p := Layered(override, Default())

	data, err := p.Read("prefs.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != `{"custom":true}` {
		t.Errorf("override not applied: %s", data)
	}

	// 覆盖层没有的资源落到内置集合
	if _, err := p.Read("user-agent.css"); err != nil {
		t.Errorf("fallthrough Read: %v", err)
	}

	if _, err := p.Read("missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("missing resource err = %v", err)
	}
}
