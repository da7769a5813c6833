package theme

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/pelletier/go-toml/v2"
)

// ThemeConfig represents the raw TOML theme configuration
type ThemeConfig struct {
	Name   string `toml:"name"`
	Colors struct {
		Text           string `toml:"text"`
		Background     string `toml:"background"`
		LineNumber     string `toml:"line_number"`
		TabMarker      string `toml:"tab_marker"`
		Selection      string `toml:"selection"`
		Cursor         string `toml:"cursor"`
		Indicator      string `toml:"indicator"`
		CommandPrompt  string `toml:"command_prompt"`
		CommandText    string `toml:"command_text"`
		CommandCursor  string `toml:"command_cursor"`
		Completion     string `toml:"completion"`
		StatusMode     string `toml:"status_mode"`
		StatusMessage  string `toml:"status_message"`
		StatusModified string `toml:"status_modified"`
		StatusError    string `toml:"status_error"`
		HeaderTitle    string `toml:"header_title"`
	} `toml:"colors"`
}

// getThemePaths returns the search paths for theme files
func getThemePaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".config", "tui-columns", "themes"),
		filepath.Join(home, ".local", "share", "tui-columns", "themes"),
	}
}

// findThemeFile searches for a theme file in standard locations
func findThemeFile(themeName string) (string, error) {
	filename := themeName + ".toml"

	for _, dir := range getThemePaths() {
		path := filepath.Join(dir, filename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("theme file not found: %s", filename)
}

// LoadThemeFromFile loads a theme from a TOML file
func LoadThemeFromFile(filePath string) (*Theme, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme file: %w", err)
	}

	var config ThemeConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse theme file: %w", err)
	}

	return configToTheme(config), nil
}

// LoadTheme loads a theme by name, searching standard theme directories
func LoadTheme(themeName string) (*Theme, error) {
	filePath, err := findThemeFile(themeName)
	if err != nil {
		return nil, err
	}

	return LoadThemeFromFile(filePath)
}

// configToTheme converts a ThemeConfig to a Theme, with fallback to Tokyo Night for missing colors
func configToTheme(config ThemeConfig) *Theme {
	t := TokyoNight()
	c, cc := &t.Colors, &config.Colors
	for _, field := range []struct {
		value string
		color *tcell.Color
	}{
		{cc.Text, &c.Text},
		{cc.Background, &c.Background},
		{cc.LineNumber, &c.LineNumber},
		{cc.TabMarker, &c.TabMarker},
		{cc.Selection, &c.Selection},
		{cc.Cursor, &c.Cursor},
		{cc.Indicator, &c.Indicator},
		{cc.CommandPrompt, &c.CommandPrompt},
		{cc.CommandText, &c.CommandText},
		{cc.CommandCursor, &c.CommandCursor},
		{cc.Completion, &c.Completion},
		{cc.StatusMode, &c.StatusMode},
		{cc.StatusMessage, &c.StatusMessage},
		{cc.StatusModified, &c.StatusModified},
		{cc.StatusError, &c.StatusError},
		{cc.HeaderTitle, &c.HeaderTitle},
	} {
		if field.value != "" {
			*field.color = ParseColorString(field.value)
		}
	}

	if config.Name != "" {
		t.Name = config.Name
	}
	return t
}

// LoadThemeOrDefault loads a theme by name, or returns Tokyo Night if not found
func LoadThemeOrDefault(themeName string) *Theme {
	switch themeName {
	case "default":
		return Default()
	case "tokyo-night", "":
		return TokyoNight()
	}

	theme, err := LoadTheme(themeName)
	if err != nil {
		return TokyoNight()
	}
	return theme
}
