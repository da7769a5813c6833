package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/pstuifzand/tui-columns/internal/theme"
)

// Screen manages the tcell screen and rendering
type Screen struct {
	tcellScreen tcell.Screen
	width       int
	height      int
	Theme       *theme.Theme

	// IndicatorAlpha is the opacity, 0 to 255, of the search region over the text background.
	IndicatorAlpha int
}

// NewScreenWithTheme creates a new terminal Screen with a specific theme
func NewScreenWithTheme(t *theme.Theme) (*Screen, error) {
	tcellScreen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	return NewScreenFrom(tcellScreen, t)
}

// NewScreenFrom initialises s and wraps it. Tests pass a simulation screen.
func NewScreenFrom(s tcell.Screen, t *theme.Theme) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("failed to init screen: %w", err)
	}
	width, height := s.Size()
	return &Screen{
		tcellScreen:    s,
		width:          width,
		height:         height,
		Theme:          t,
		IndicatorAlpha: 96,
	}, nil
}

// Close closes the screen
func (s *Screen) Close() error {
	s.tcellScreen.Fini()
	return nil
}

// Clear clears the entire screen
func (s *Screen) Clear() {
	s.tcellScreen.Clear()
}

// SetCell sets a cell at the given position
func (s *Screen) SetCell(x, y int, r rune, style tcell.Style) {
	if x >= 0 && x < s.width && y >= 0 && y < s.height {
		s.tcellScreen.SetContent(x, y, r, nil, style)
	}
}

// DrawString draws a string at the given position and returns the number of
// columns it used. Wide runes take two columns.
func (s *Screen) DrawString(x, y int, text string, style tcell.Style) int {
	start := x
	for _, r := range text {
		w := RuneWidth(r)
		if w == 0 {
			continue
		}
		s.SetCell(x, y, r, style)
		x += w
	}
	return x - start
}

// DrawStringLimited draws a string, truncating it if it exceeds maxWidth
func (s *Screen) DrawStringLimited(x, y int, text string, maxWidth int, style tcell.Style) int {
	if maxWidth <= 0 {
		return 0
	}
	return s.DrawString(x, y, TruncateToWidthWithEllipsis(text, maxWidth), style)
}

// FillRow paints the rest of row y from x onwards.
func (s *Screen) FillRow(x, y int, style tcell.Style) {
	for ; x < s.width; x++ {
		s.SetCell(x, y, ' ', style)
	}
}

// PollEvent polls for the next event (key press, mouse, etc.)
func (s *Screen) PollEvent() tcell.Event {
	return s.tcellScreen.PollEvent()
}

// PostEvent queues an event for PollEvent.
func (s *Screen) PostEvent(ev tcell.Event) error {
	return s.tcellScreen.PostEvent(ev)
}

// Show shows the screen
func (s *Screen) Show() {
	s.tcellScreen.Show()
}

// Sync redraws everything after a resize.
func (s *Screen) Sync() {
	s.Size()
	s.tcellScreen.Sync()
}

// Size returns the width and height of the screen
func (s *Screen) Size() (int, int) {
	w, h := s.tcellScreen.Size()
	s.width = w
	s.height = h
	return w, h
}

// GetWidth returns the width of the screen
func (s *Screen) GetWidth() int {
	s.width, _ = s.tcellScreen.Size()
	return s.width
}

// GetHeight returns the height of the screen
func (s *Screen) GetHeight() int {
	_, s.height = s.tcellScreen.Size()
	return s.height
}

// Theme-aware style methods

// TextStyle returns the style for document text
func (s *Screen) TextStyle() tcell.Style {
	return theme.ColorPairToStyle(s.Theme.Colors.Text, s.Theme.Colors.Background)
}

// SelectionStyle returns the style for selected text
func (s *Screen) SelectionStyle() tcell.Style {
	return theme.ColorPairToStyle(s.Theme.Colors.Text, s.Theme.Colors.Selection)
}

// IndicatorStyle returns the style for text inside the search region
func (s *Screen) IndicatorStyle() tcell.Style {
	bg := theme.Blend(s.Theme.Colors.Indicator, s.Theme.Colors.Background, s.IndicatorAlpha)
	return theme.ColorPairToStyle(s.Theme.Colors.Text, bg)
}

// CursorStyle returns the style of the caret cell
func (s *Screen) CursorStyle() tcell.Style {
	return s.TextStyle().Reverse(true)
}

// LineNumberStyle returns the style for the line number gutter
func (s *Screen) LineNumberStyle() tcell.Style {
	return theme.ColorPairToStyle(s.Theme.Colors.LineNumber, s.Theme.Colors.Background)
}

// TabMarkerStyle returns the style for the marker drawn where a tab starts
func (s *Screen) TabMarkerStyle() tcell.Style {
	return theme.ColorPairToStyle(s.Theme.Colors.TabMarker, s.Theme.Colors.Background)
}

// CommandPromptStyle returns the style for command prompt
func (s *Screen) CommandPromptStyle() tcell.Style {
	return theme.ColorToStyle(s.Theme.Colors.CommandPrompt)
}

// CommandTextStyle returns the style for command text
func (s *Screen) CommandTextStyle() tcell.Style {
	return theme.ColorToStyle(s.Theme.Colors.CommandText)
}

// CommandCursorStyle returns the style for command cursor
func (s *Screen) CommandCursorStyle() tcell.Style {
	return theme.ColorToStyle(s.Theme.Colors.CommandCursor).Reverse(true)
}

// CompletionStyle returns the style for the completion hint
func (s *Screen) CompletionStyle() tcell.Style {
	return theme.ColorToStyle(s.Theme.Colors.Completion).Dim(true)
}

// StatusModeStyle returns the style for mode indicator
func (s *Screen) StatusModeStyle() tcell.Style {
	return theme.ColorToStyle(s.Theme.Colors.StatusMode).Bold(true).Reverse(true)
}

// StatusMessageStyle returns the style for status messages
func (s *Screen) StatusMessageStyle() tcell.Style {
	return theme.ColorToStyle(s.Theme.Colors.StatusMessage)
}

// StatusModifiedStyle returns the style for modified indicator
func (s *Screen) StatusModifiedStyle() tcell.Style {
	return theme.ColorToStyle(s.Theme.Colors.StatusModified)
}

// StatusErrorStyle returns the style for error messages
func (s *Screen) StatusErrorStyle() tcell.Style {
	return theme.ColorToStyle(s.Theme.Colors.StatusError).Bold(true)
}

// HeaderStyle returns the style for header title
func (s *Screen) HeaderStyle() tcell.Style {
	return theme.ColorToStyle(s.Theme.Colors.HeaderTitle).Bold(true)
}
