package preset

import (
	"testing"

	"github.com/AnyUserName/imgconv/internal/engine"
	"github.com/AnyUserName/imgconv/internal/format"
)

func TestBuiltins(t *testing.T) {
	s, err := NewSet(nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"default", "web", "photo", "favicon", "print"} {
		p, err := s.Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		if p.Name != name {
			t.Errorf("Get(%q).Name = %q", name, p.Name)
		}
		if _, err := format.Lookup(p.Format); err != nil {
			t.Errorf("preset %q has bad format: %v", name, err)
		}
	}
}

func TestDefaultMatchesEngineDefaults(t *testing.T) {
	s, _ := NewSet(nil)
	p, _ := s.Get("default")
	if got := p.Parameters(); got != engine.DefaultParameters() {
		t.Errorf("default preset = %+v, want %+v", got, engine.DefaultParameters())
	}
}

func TestUnknownPreset(t *testing.T) {
	s, _ := NewSet(nil)
	if _, err := s.Get("nonexistent"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestExtraPresets(t *testing.T) {
	s, err := NewSet(map[string]Preset{
		"thumb": {Format: format.JPEG, Width: 160, Height: 120},
		"web":   {Format: format.GIF, Quality: 300},
	})
	if err != nil {
		t.Fatal(err)
	}

	thumb, err := s.Get("thumb")
	if err != nil {
		t.Fatal(err)
	}
	if thumb.Name != "thumb" || thumb.Quality != engine.DefaultQuality {
		t.Errorf("thumb = %+v", thumb)
	}

	web, _ := s.Get("web")
	if web.Format != format.GIF {
		t.Errorf("config preset should replace builtin, got %s", web.Format)
	}
	if q := web.Parameters().Quality; q != 100 {
		t.Errorf("quality not clamped: %d", q)
	}
}

func TestExtraPresetBadFormat(t *testing.T) {
	_, err := NewSet(map[string]Preset{"bad": {Format: "avif"}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNamesSorted(t *testing.T) {
	s, _ := NewSet(map[string]Preset{"aaa": {}})
	names := s.Names()
	if names[0] != "aaa" {
		t.Errorf("names not sorted: %v", names)
	}
	if len(names) != 6 {
		t.Errorf("len = %d", len(names))
	}
}
