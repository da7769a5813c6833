// Package theme holds the colours of the viewer and loads them from TOML.
package theme

import (
	"github.com/gdamore/tcell/v2"
)

// Colors holds all the color definitions for the theme
type Colors struct {
	// Document view colors
	Text       tcell.Color
	Background tcell.Color
	LineNumber tcell.Color
	TabMarker  tcell.Color
	Selection  tcell.Color
	Cursor     tcell.Color

	// Indicator is the colour of the search region. It is drawn blended
	// over Background with the configured alpha.
	Indicator tcell.Color

	// Command line colors
	CommandPrompt tcell.Color
	CommandText   tcell.Color
	CommandCursor tcell.Color
	Completion    tcell.Color

	// Status line colors
	StatusMode     tcell.Color
	StatusMessage  tcell.Color
	StatusModified tcell.Color
	StatusError    tcell.Color

	// Header colors
	HeaderTitle tcell.Color
}

// Theme represents a complete color theme
type Theme struct {
	Name   string
	Colors Colors
}

// Default returns a default theme using terminal defaults
func Default() *Theme {
	return &Theme{
		Name: "default",
		Colors: Colors{
			Text:           tcell.ColorDefault,
			Background:     tcell.ColorDefault,
			LineNumber:     tcell.ColorGray,
			TabMarker:      tcell.ColorDarkGray,
			Selection:      tcell.ColorNavy,
			Cursor:         tcell.ColorDefault,
			Indicator:      tcell.ColorOlive,
			CommandPrompt:  tcell.ColorDefault,
			CommandText:    tcell.ColorDefault,
			CommandCursor:  tcell.ColorDefault,
			Completion:     tcell.ColorGray,
			StatusMode:     tcell.ColorDefault,
			StatusMessage:  tcell.ColorDefault,
			StatusModified: tcell.ColorDefault,
			StatusError:    tcell.ColorRed,
			HeaderTitle:    tcell.ColorDefault,
		},
	}
}

// TokyoNight returns the Tokyo Night theme
func TokyoNight() *Theme {
	return &Theme{
		Name: "tokyo-night",
		Colors: Colors{
			Text:           HexToColor("#c0caf5"), // Light gray-blue
			Background:     HexToColor("#1a1b26"), // Dark background
			LineNumber:     HexToColor("#3b4261"),
			TabMarker:      HexToColor("#292e42"),
			Selection:      HexToColor("#283457"),
			Cursor:         HexToColor("#7aa2f7"), // Blue
			Indicator:      HexToColor("#e0af68"), // Yellow
			CommandPrompt:  HexToColor("#bb9af7"), // Magenta
			CommandText:    HexToColor("#c0caf5"),
			CommandCursor:  HexToColor("#7aa2f7"),
			Completion:     HexToColor("#565f89"), // Comment gray
			StatusMode:     HexToColor("#bb9af7"),
			StatusMessage:  HexToColor("#9ece6a"), // Green
			StatusModified: HexToColor("#f7768e"), // Red
			StatusError:    HexToColor("#f7768e"),
			HeaderTitle:    HexToColor("#bb9af7"),
		},
	}
}
