package preset

import (
	"fmt"
	"sort"

	"github.com/AnyUserName/imgconv/internal/engine"
	"github.com/AnyUserName/imgconv/internal/format"
)

// Preset is a named set of starting parameters for new items.
type Preset struct {
	Name    string      `yaml:"-"`
	Format  format.Code `yaml:"format"`
	Quality int         `yaml:"quality"`
	Width   int         `yaml:"width"`  // 0 keeps the source width
	Height  int         `yaml:"height"` // 0 keeps the source height
}

// Built-in presets.
var builtin = map[string]Preset{
	"default": {
		Name:    "default",
		Format:  format.PNG,
		Quality: engine.DefaultQuality,
	},
	"web": {
		Name:    "web",
		Format:  format.WebP,
		Quality: 82,
	},
	"photo": {
		Name:    "photo",
		Format:  format.JPEG,
		Quality: 85,
	},
	"favicon": {
		Name:    "favicon",
		Format:  format.ICO,
		Quality: 100,
		Width:   64,
		Height:  64,
	},
	"print": {
		Name:    "print",
		Format:  format.TIFF,
		Quality: 100,
	},
}

// Set holds the built-ins plus any presets loaded from configuration.
type Set struct {
	presets map[string]Preset
}

// NewSet returns the built-ins overlaid with extra. Entries in extra
// replace built-ins of the same name.
func NewSet(extra map[string]Preset) (*Set, error) {
	m := make(map[string]Preset, len(builtin)+len(extra))
	for k, v := range builtin {
		m[k] = v
	}
	for name, p := range extra {
		p.Name = name
		if p.Format == "" {
			p.Format = format.PNG
		}
		if _, err := format.Parse(string(p.Format)); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		if p.Quality == 0 {
			p.Quality = engine.DefaultQuality
		}
		m[name] = p
	}
	return &Set{presets: m}, nil
}

// Get returns a preset by name.
func (s *Set) Get(name string) (Preset, error) {
	p, ok := s.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (have %v)", name, s.Names())
	}
	return p, nil
}

// Names lists the presets alphabetically.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.presets))
	for k := range s.presets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Parameters converts p into normalized conversion parameters.
func (p Preset) Parameters() engine.Parameters {
	return engine.Parameters{
		Format:  p.Format,
		Quality: p.Quality,
		Width:   p.Width,
		Height:  p.Height,
	}.Normalize()
}
