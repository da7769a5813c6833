package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/tui-columns/internal/rect"
	"github.com/pstuifzand/tui-columns/internal/search"
	"github.com/pstuifzand/tui-columns/internal/timestamps"
)

func TestSet(t *testing.T) {
	cfg := &Config{
		sessionSettings: make(map[string]string),
	}

	require.NoError(t, cfg.Set("sort.locale", "de"))
	if cfg.Get("sort.locale") != "de" {
		t.Errorf("Expected 'de', got '%s'", cfg.Get("sort.locale"))
	}
}

func TestSetValidatesTypedKeys(t *testing.T) {
	tests := []struct {
		key, value string
		ok         bool
	}{
		{"numeric.decimal_comma", "true", true},
		{"numeric.decimal_comma", "sometimes", false},
		{"calculate.decimal_places", "3", true},
		{"calculate.decimal_places", "three", false},
		{"selection.stream_policy", "rest-of-lines", true},
		{"selection.stream_policy", "all", false},
		{"timestamps.counter_type", "excel", true},
		{"timestamps.counter_type", "mayan", false},
		{"timestamps.date_priority", "dmy", true},
		{"timestamps.date_priority", "ydm", false},
		{"anything.else", "free text", true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := defaultConfig()
			err := cfg.Set(tt.key, tt.value)
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, tt.value, cfg.Get(tt.key))
			} else {
				assert.Error(t, err)
				assert.Empty(t, cfg.Get(tt.key))
			}
		})
	}
}

func TestGet(t *testing.T) {
	cfg := &Config{
		sessionSettings: make(map[string]string),
	}

	if cfg.Get("nonexistent") != "" {
		t.Errorf("Expected empty string for nonexistent key, got '%s'", cfg.Get("nonexistent"))
	}

	require.NoError(t, cfg.Set("test", "value"))
	if cfg.Get("test") != "value" {
		t.Errorf("Expected 'value', got '%s'", cfg.Get("test"))
	}
}

func TestSessionOverridesPersisted(t *testing.T) {
	cfg := defaultConfig()
	cfg.Settings["sort.locale"] = "fr"
	assert.Equal(t, "fr", cfg.Get("sort.locale"))
	require.NoError(t, cfg.Set("sort.locale", "sv"))
	assert.Equal(t, "sv", cfg.Get("sort.locale"))
	assert.Equal(t, "sv", cfg.LocaleOptions().Tag)
}

func TestGetAllReturnsACopy(t *testing.T) {
	cfg := &Config{
		sessionSettings: make(map[string]string),
	}

	require.NoError(t, cfg.Set("original", "value"))

	all := cfg.GetAll()
	all["original"] = "modified"

	if cfg.Get("original") != "value" {
		t.Errorf("GetAll() should return a copy, not a reference")
	}
}

func TestNilSessionSettings(t *testing.T) {
	cfg := &Config{}

	require.NoError(t, cfg.Set("key", "value"))
	if cfg.Get("key") != "value" {
		t.Errorf("Set should initialize nil sessionSettings")
	}

	cfg2 := &Config{}
	if cfg2.Get("key") != "" {
		t.Errorf("Get should return empty string for nil sessionSettings")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, "tokyo-night", cfg.Theme)
	assert.NotNil(t, cfg.sessionSettings)

	policy := cfg.Policy()
	assert.True(t, policy.ExtendSingleLine)
	assert.Equal(t, rect.StreamNone, policy.Stream)

	st := cfg.NumericSettings()
	assert.False(t, st.DecimalComma)
	assert.Equal(t, 3, st.TimePartialRule)

	spec := cfg.TimestampSpec()
	assert.Equal(t, timestamps.Unix, spec.From)
	assert.Equal(t, timestamps.YMD, spec.Priority)

	assert.True(t, cfg.SearchOptions(search.Regex).AutoClear)
	assert.Equal(t, 2, cfg.CalcSpec("col(1)").DecimalPlaces)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
theme = "default"

[numeric]
decimal_comma = true

[selection]
stream_policy = "rest-of-lines"

[extensions]
csv = "Tabular"

[[profiles]]
name = "Wide"
minimum_space_between_columns = 4
monospace = "always"

[timestamps]
counter_type = "excel"

[timestamps.patterns]
iso-week = '(?<y>\d{4})-(?<D>\d{3})'
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Theme)
	assert.True(t, cfg.NumericSettings().DecimalComma)
	assert.Equal(t, rect.StreamRestOfLines, cfg.Policy().Stream)
	assert.True(t, cfg.Policy().ExtendFullLines, "keys left out keep their defaults")

	sel := cfg.Selector()
	assert.Equal(t, "Tabular", sel.Extensions["csv"])
	wide, ok := sel.Lookup("Wide")
	require.True(t, ok)
	assert.Equal(t, 4, wide.MinimumSpaceBetweenColumns)

	require.NoError(t, cfg.Set("timestamps.pattern", "iso-week"))
	spec := cfg.TimestampSpec()
	assert.Equal(t, timestamps.Excel1900, spec.From)
	assert.Equal(t, `(?<y>\d{4})-(?<D>\d{3})`, spec.Pattern)
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "tokyo-night", cfg.Theme)
}

func TestLoadFromBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("theme = = ="), 0644))
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Set("sort.locale", "nl"))
	require.NoError(t, cfg.Set("accumulate.write", "false"))
	assert.Equal(t, "accumulate.write=false\nsort.locale=nl\n", cfg.Describe())
}
