package elastic

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Monospace selects how the engine decides whether the font is monospaced.
type Monospace int

const (
	MonospaceNever Monospace = iota
	MonospaceAlways
	MonospaceBest
)

func (m Monospace) String() string {
	switch m {
	case MonospaceNever:
		return "never"
	case MonospaceAlways:
		return "always"
	default:
		return "best"
	}
}

// ParseMonospace reads the names produced by String.
func ParseMonospace(s string) Monospace {
	switch strings.ToLower(s) {
	case "never":
		return MonospaceNever
	case "always":
		return MonospaceAlways
	default:
		return MonospaceBest
	}
}

// Profile holds the options that shape elastic tab layout.
type Profile struct {
	Name string
	// LeadingTabsIndent treats tabs at the start of a line as fixed-width
	// indentation rather than column separators.
	LeadingTabsIndent bool
	// LineUpAll keeps columns aligned across blank lines.
	LineUpAll bool
	// TreatEOLAsTab makes the end of each line terminate a column.
	TreatEOLAsTab bool
	// OverrideTabSize uses MinimumOrLeadingTabSize for indentation instead
	// of the host's tab width.
	OverrideTabSize            bool
	MinimumOrLeadingTabSize    int
	MinimumSpaceBetweenColumns int
	Monospace                  Monospace
}

// Built-in profiles.
var (
	Classic = Profile{
		Name:                       "Classic",
		MinimumOrLeadingTabSize:    4,
		MinimumSpaceBetweenColumns: 2,
		Monospace:                  MonospaceBest,
	}
	General = Profile{
		Name:                       "General",
		LeadingTabsIndent:          true,
		MinimumOrLeadingTabSize:    4,
		MinimumSpaceBetweenColumns: 2,
		Monospace:                  MonospaceBest,
	}
	Tabular = Profile{
		Name:                       "Tabular",
		LineUpAll:                  true,
		TreatEOLAsTab:              true,
		OverrideTabSize:            true,
		MinimumOrLeadingTabSize:    1,
		MinimumSpaceBetweenColumns: 2,
		Monospace:                  MonospaceBest,
	}
)

// Selector chooses a profile for a newly opened document.
type Selector struct {
	// Profiles by name; the built-ins are always available.
	Profiles map[string]Profile
	// Extensions maps a lower-case extension without the dot to a profile
	// name. The key "*" is the fallback for files with an extension. A
	// value of "*" means detect, and "" disables elastic tabstops.
	Extensions map[string]string
	// Enabled is the default when detection finds no better answer.
	Enabled bool
	// DisableOverSize is in KiB; zero or negative means no limit.
	DisableOverSize int
	// DisableOverLines is a line count; zero or negative means no limit.
	DisableOverLines int
}

// DefaultSelector enables elastic tabstops for tab-separated data and
// uses detection for everything else.
func DefaultSelector() Selector {
	return Selector{
		Extensions:       map[string]string{"tsv": "Tabular", "tab": "Tabular", "*": "*"},
		DisableOverSize:  1000,
		DisableOverLines: 5000,
	}
}

// Lookup returns the named profile.
func (s Selector) Lookup(name string) (Profile, bool) {
	if p, ok := s.Profiles[name]; ok {
		return p, true
	}
	switch strings.ToLower(name) {
	case "classic":
		return Classic, true
	case "general":
		return General, true
	case "tabular":
		return Tabular, true
	}
	return Profile{}, false
}

// Names lists every available profile name.
func (s Selector) Names() []string {
	names := []string{Classic.Name, General.Name, Tabular.Name}
	for name := range s.Profiles {
		if name != Classic.Name && name != General.Name && name != Tabular.Name {
			names = append(names, name)
		}
	}
	return names
}

// ProfileFor picks the settings for a document. The extension map is
// consulted first; without a mapping the language detected from the file
// name and content decides. Files larger than the configured limits start
// with elastic tabstops disabled.
func (s Selector) ProfileFor(path string, content []byte, lines int) Settings {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	name, ok := s.Extensions[ext]
	if !ok {
		name = "*"
		if fallback, ok := s.Extensions["*"]; ok && ext != "" {
			name = fallback
		}
	}

	var settings Settings
	switch name {
	case "":
		settings = Settings{Profile: Classic}
	case "*":
		settings = s.detect(path, content)
	default:
		p, ok := s.Lookup(name)
		if !ok {
			log.Printf("elastic: unknown profile %q for extension %q", name, ext)
			settings = s.detect(path, content)
		} else {
			settings = Settings{Profile: p, Enabled: true}
		}
	}

	if ext != "" && settings.Enabled &&
		((s.DisableOverSize > 0 && s.DisableOverSize*1024 < len(content)) ||
			(s.DisableOverLines > 0 && s.DisableOverLines < lines)) {
		log.Printf("elastic: %s exceeds size limits, disabled", path)
		settings.Enabled = false
	}
	return settings
}

func (s Selector) detect(path string, content []byte) Settings {
	lang := enry.GetLanguage(filepath.Base(path), content)
	switch {
	case lang == "TSV" || lang == "CSV":
		return Settings{Profile: Tabular, Enabled: true}
	case lang != "" && enry.GetLanguageType(lang) == enry.Programming:
		return Settings{Profile: General, Enabled: s.Enabled}
	default:
		return Settings{Profile: Classic, Enabled: s.Enabled}
	}
}
