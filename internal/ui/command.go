package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/pstuifzand/tui-columns/internal/history"
)

const historySize = 100

// CommandMode manages command line input (`:command`)
type CommandMode struct {
	active    bool
	input     string
	cursorPos int
	history   *History

	// Complete returns the full command lines that can replace input.
	Complete    func(input string) []string
	candidates  []string
	candidateAt int
}

// NewCommandMode creates a new CommandMode without history persistence
func NewCommandMode() *CommandMode {
	return &CommandMode{history: NewHistory(historySize)}
}

// NewCommandModeWithHistory creates a new CommandMode with history persistence
func NewCommandModeWithHistory(manager *history.Manager) (*CommandMode, error) {
	h, err := NewHistoryWithManager(historySize, manager, "command.toml")
	if err != nil {
		return &CommandMode{history: h}, err
	}
	return &CommandMode{history: h}, nil
}

// Start enters command mode
func (c *CommandMode) Start() {
	c.active = true
	c.input = ""
	c.cursorPos = 0
	c.history.Reset()
}

// Stop exits command mode
func (c *CommandMode) Stop() {
	c.active = false
}

// IsActive returns whether command mode is active
func (c *CommandMode) IsActive() bool {
	return c.active
}

// DeleteWordBackwards deletes the word before the cursor
func (c *CommandMode) DeleteWordBackwards() {
	if c.cursorPos == 0 {
		return
	}

	// Start from cursor position and move backwards
	pos := c.cursorPos - 1

	// Skip any trailing whitespace
	for pos >= 0 && (c.input[pos] == ' ' || c.input[pos] == '\t') {
		pos--
	}

	// Skip the word characters
	for pos >= 0 && c.input[pos] != ' ' && c.input[pos] != '\t' {
		pos--
	}

	// Delete from pos+1 to cursorPos
	deleteStart := pos + 1
	c.input = c.input[:deleteStart] + c.input[c.cursorPos:]
	c.cursorPos = deleteStart
}

// HandleKey processes a key press in command mode
func (c *CommandMode) HandleKey(ev *tcell.EventKey) (command string, done bool) {
	if ev.Key() != tcell.KeyTab && ev.Key() != tcell.KeyBacktab {
		c.candidates = nil
	}
	switch ev.Key() {
	case tcell.KeyTab:
		c.complete(1)
	case tcell.KeyBacktab:
		c.complete(-1)
	case tcell.KeyCtrlW:
		// Check for Ctrl+W - delete word backwards
		c.DeleteWordBackwards()
	case tcell.KeyEscape:
		c.Stop()
		return "", true
	case tcell.KeyEnter:
		cmd := strings.TrimSpace(c.input)
		c.history.Add(cmd)
		c.Stop()
		return cmd, true
	case tcell.KeyUp:
		// Store current input before navigating history (on first Up press)
		if !c.history.IsNavigating() {
			c.history.SetTemporary(c.input)
		}
		// Navigate to previous command in history
		if prevCmd, ok := c.history.Previous(); ok {
			c.input = prevCmd
			c.cursorPos = len(c.input)
		}
	case tcell.KeyDown:
		// Navigate to next command in history
		if nextCmd, ok := c.history.Next(); ok {
			c.input = nextCmd
			c.cursorPos = len(c.input)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if c.input == "" {
			c.Stop()
			return "", true
		}
		if c.cursorPos > 0 {
			_, n := utf8.DecodeLastRuneInString(c.input[:c.cursorPos])
			c.input = c.input[:c.cursorPos-n] + c.input[c.cursorPos:]
			c.cursorPos -= n
		}
	case tcell.KeyDelete:
		if c.cursorPos < len(c.input) {
			_, n := utf8.DecodeRuneInString(c.input[c.cursorPos:])
			c.input = c.input[:c.cursorPos] + c.input[c.cursorPos+n:]
		}
	case tcell.KeyLeft:
		if c.cursorPos > 0 {
			_, n := utf8.DecodeLastRuneInString(c.input[:c.cursorPos])
			c.cursorPos -= n
		}
	case tcell.KeyRight:
		if c.cursorPos < len(c.input) {
			_, n := utf8.DecodeRuneInString(c.input[c.cursorPos:])
			c.cursorPos += n
		}
	case tcell.KeyHome:
		c.cursorPos = 0
	case tcell.KeyEnd:
		c.cursorPos = len(c.input)
	case tcell.KeyCtrlU:
		c.input = c.input[c.cursorPos:]
		c.cursorPos = 0
	case tcell.KeyCtrlK:
		c.input = c.input[:c.cursorPos]
	case tcell.KeyRune:
		s := string(ev.Rune())
		c.input = c.input[:c.cursorPos] + s + c.input[c.cursorPos:]
		c.cursorPos += len(s)
	}

	return "", false
}

// complete replaces the input with the next (step 1) or previous (step -1)
// completion candidate.
func (c *CommandMode) complete(step int) {
	if c.Complete == nil {
		return
	}
	if c.candidates == nil {
		c.candidates = c.Complete(c.input)
		if len(c.candidates) == 0 {
			c.candidates = nil
			return
		}
		c.candidateAt = 0
		if step < 0 {
			c.candidateAt = len(c.candidates) - 1
		}
	} else {
		n := len(c.candidates)
		c.candidateAt = ((c.candidateAt+step)%n + n) % n
	}
	c.input = c.candidates[c.candidateAt]
	c.cursorPos = len(c.input)
}

// SetInput replaces the input and moves the cursor to its end.
func (c *CommandMode) SetInput(input string) {
	c.input = input
	c.cursorPos = len(input)
}

// GetInput returns the current command input
func (c *CommandMode) GetInput() string {
	return strings.TrimSpace(c.input)
}

// Render renders the command line
func (c *CommandMode) Render(screen *Screen, y int) {
	if !c.active {
		return
	}

	promptStyle := screen.CommandPromptStyle()
	textStyle := screen.CommandTextStyle()
	cursorStyle := screen.CommandCursorStyle()
	screenWidth := screen.GetWidth()

	// Draw colon and input
	prefix := ":"
	x := 0
	screen.DrawString(x, y, prefix, promptStyle)
	x += len(prefix)

	// Draw input with cursor
	for i, r := range c.input {
		charStyle := textStyle
		if i == c.cursorPos {
			charStyle = cursorStyle
		}
		if x < screenWidth {
			screen.SetCell(x, y, r, charStyle)
			x += max(RuneWidth(r), 1)
		}
	}

	// Draw cursor at end if needed
	if c.cursorPos >= len(c.input) && x < screenWidth {
		screen.SetCell(x, y, ' ', cursorStyle)
		x++
	}

	if len(c.candidates) > 1 {
		hint := fmt.Sprintf("  (%d/%d)", c.candidateAt+1, len(c.candidates))
		x += screen.DrawStringLimited(x, y, hint, screenWidth-x, screen.CompletionStyle())
	}

	// Clear remainder of line
	screen.FillRow(x, y, textStyle)
}
