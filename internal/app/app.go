// Package app ties a document workspace to the terminal: the event loop,
// key bindings, the command line and the status line.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pstuifzand/tui-columns/internal/config"
	"github.com/pstuifzand/tui-columns/internal/history"
	"github.com/pstuifzand/tui-columns/internal/socket"
	"github.com/pstuifzand/tui-columns/internal/theme"
	"github.com/pstuifzand/tui-columns/internal/ui"
)

// Mode is the editing mode of the viewer.
type Mode string

const (
	NormalMode Mode = "NORMAL"
	InsertMode Mode = "INSERT"
)

// App is the main application controller
type App struct {
	screen  *ui.Screen
	ws      *Workspace
	view    *ui.DocumentView
	command *ui.CommandMode

	statusMsg  string
	statusErr  bool
	statusTime time.Time
	quit       bool
	closed     bool
	debugMode  bool
	mode       Mode

	keybindings        []KeyBinding
	pendingKeybindings []PendingKeyBinding
	pendingKey         rune

	socketServer *socket.Server

	ctx context.Context
}

// NewApp opens filePath on a new terminal screen.
func NewApp(cfg *config.Config, filePath string) (*App, error) {
	ws, err := OpenWorkspace(cfg, filePath)
	if err != nil {
		return nil, err
	}
	screen, err := ui.NewScreenWithTheme(theme.LoadThemeOrDefault(cfg.Theme))
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	a := newApp(screen, ws)
	if server, err := socket.NewServer(os.Getpid()); err != nil {
		log.Printf("remote commands disabled: %v", err)
	} else {
		a.socketServer = server
		server.Start()
	}
	return a, nil
}

func newApp(screen *ui.Screen, ws *Workspace) *App {
	cfg := ws.Config
	if cfg.Search.IndicatorColor != "" {
		screen.Theme.Colors.Indicator = theme.ParseColorString(cfg.Search.IndicatorColor)
	}
	if cfg.Search.IndicatorAlpha > 0 {
		screen.IndicatorAlpha = cfg.Search.IndicatorAlpha
	}

	command := ui.NewCommandMode()
	if manager, err := history.NewManager(); err != nil {
		log.Printf("command history disabled: %v", err)
	} else if c, err := ui.NewCommandModeWithHistory(manager); err == nil {
		command = c
	}
	command.Complete = ws.Complete

	a := &App{
		screen:     screen,
		ws:         ws,
		view:       ui.NewDocumentView(ws.Doc),
		command:    command,
		statusMsg:  "Ready",
		statusTime: time.Now(),
		mode:       NormalMode,
		ctx:        context.Background(),
	}
	a.keybindings = a.InitializeKeybindings()
	a.pendingKeybindings = a.InitializePendingKeybindings()
	return a
}

// Run starts the main event loop
func (a *App) Run() error {
	eventChan := make(chan tcell.Event)
	done := make(chan struct{})
	polled := make(chan struct{})
	go func() {
		defer close(polled)
		for {
			event := a.screen.PollEvent()
			select {
			case eventChan <- event:
			case <-done:
				return
			}
			if event == nil {
				return
			}
		}
	}()
	// Closing the screen makes PollEvent return.
	defer func() {
		close(done)
		a.Close()
		<-polled
	}()

	ticker := time.NewTicker(50 * time.Millisecond) // ~20 FPS
	defer ticker.Stop()

	for !a.quit && !a.ws.Quit() {
		select {
		case ev := <-eventChan:
			if ev == nil {
				return nil
			}
			a.handleRawEvent(ev)
		case msg := <-a.socketMessages():
			a.handleSocketMessage(msg)
		case <-ticker.C:
			a.render()
		}
	}
	return nil
}

// Close closes the application. Calls after the first do nothing.
func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if a.socketServer != nil {
		a.socketServer.Stop()
	}
	a.ws.Search.Close()
	if a.screen != nil {
		return a.screen.Close()
	}
	return nil
}

// textHeight is the number of rows the document gets.
func (a *App) textHeight() int {
	return max(a.screen.GetHeight()-3, 1)
}

// render renders the current state to the screen
func (a *App) render() {
	width := a.screen.GetWidth()
	height := a.screen.GetHeight()

	if err := a.ws.Update(a.ctx); err != nil {
		log.Printf("elastic update: %v", err)
	}
	a.view.ScrollToCaret(width, a.textHeight())

	a.screen.FillRow(0, 0, a.screen.TextStyle())
	header := " " + a.ws.Title()
	if a.ws.Dirty() {
		header += " [+]"
	}
	x := a.screen.DrawString(0, 0, header, a.screen.HeaderStyle())
	a.screen.DrawStringLimited(x+1, 0, a.ws.describeElastic(), width-x-1, a.screen.StatusMessageStyle())

	a.view.Render(a.screen, 1, a.textHeight())

	a.screen.FillRow(0, height-2, a.screen.TextStyle())
	if a.command.IsActive() {
		a.command.Render(a.screen, height-2)
	}
	a.renderStatus(width, height-1)
	a.screen.Show()
}

func (a *App) renderStatus(width, y int) {
	a.screen.FillRow(0, y, a.screen.TextStyle())
	x := a.screen.DrawString(0, y, fmt.Sprintf(" %s ", a.mode), a.screen.StatusModeStyle())

	d := a.ws.Doc
	pos, vs := d.Caret()
	line := d.LineFromPosition(pos)
	info := fmt.Sprintf("Ln %d, Col %d", line+1, d.PointXFromPosition(pos)+vs+1)
	if n := d.Selections(); n > 1 {
		info += fmt.Sprintf("  %s x%d", d.SelectionMode(), n)
	}
	infoX := width - ui.StringWidth(info) - 1

	if a.statusMsg != "Ready" && time.Since(a.statusTime) <= 5*time.Second {
		style := a.screen.StatusMessageStyle()
		if a.statusErr {
			style = a.screen.StatusErrorStyle()
		}
		a.screen.DrawStringLimited(x+1, y, a.statusMsg, infoX-x-2, style)
	}
	a.screen.DrawString(infoX, y, info, a.screen.StatusModifiedStyle())
}

// handleRawEvent processes raw input events
func (a *App) handleRawEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventKey:
		if a.debugMode {
			a.SetStatus(fmt.Sprintf("Key: %v | Rune: %q | Modifiers: %v", ev.Key(), ev.Rune(), ev.Modifiers()))
		}
		switch {
		case a.command.IsActive():
			if cmd, done := a.command.HandleKey(ev); done {
				a.handleCommand(cmd)
			}
		case a.mode == InsertMode:
			a.handleInsertKey(ev)
		default:
			a.handleKeypress(ev)
		}
	}
}

// handleMovement moves the caret for arrow and paging keys. It reports
// whether ev was one of them.
func (a *App) handleMovement(ev *tcell.EventKey) bool {
	var dir Direction
	switch ev.Key() {
	case tcell.KeyLeft:
		dir = Left
	case tcell.KeyRight:
		dir = Right
	case tcell.KeyUp:
		dir = Up
	case tcell.KeyDown:
		dir = Down
	case tcell.KeyHome:
		dir = LineStart
	case tcell.KeyEnd:
		dir = LineEnd
	case tcell.KeyPgUp:
		dir = PageUp
	case tcell.KeyPgDn:
		dir = PageDown
	default:
		return false
	}
	ext := Collapse
	mods := ev.Modifiers()
	switch {
	case mods&tcell.ModShift != 0 && mods&tcell.ModAlt != 0:
		ext = ExtendBlock
	case mods&tcell.ModShift != 0:
		ext = ExtendStream
	}
	if mods&tcell.ModCtrl != 0 {
		switch dir {
		case LineStart:
			dir = DocStart
		case LineEnd:
			dir = DocEnd
		}
	}
	a.ws.Move(dir, ext, a.view.PageSize(a.textHeight()))
	return true
}

// handleKeypress handles a single keypress in normal mode
func (a *App) handleKeypress(ev *tcell.EventKey) {
	if a.handleMovement(ev) {
		a.pendingKey = 0
		return
	}

	switch ev.Key() {
	case tcell.KeyCtrlS:
		a.runCommand("write")
		return
	case tcell.KeyCtrlZ:
		a.runCommand("undo")
		return
	case tcell.KeyEscape:
		pos, vs := a.ws.Doc.Caret()
		a.ws.Doc.SetSelection(pos, pos)
		if vs > 0 {
			a.ws.Doc.SetSelectionNCaret(0, pos, vs)
			a.ws.Doc.SetSelectionNAnchor(0, pos, vs)
		}
		a.pendingKey = 0
		return
	case tcell.KeyRune:
	default:
		return
	}

	r := ev.Rune()
	if a.pendingKey != 0 {
		prefix := a.pendingKey
		a.pendingKey = 0
		if pkb := a.GetPendingKeyBindingByPrefix(prefix); pkb != nil {
			if kb, ok := pkb.Sequences[r]; ok {
				kb.Handler(a)
			}
		}
		return
	}
	if a.IsPendingKeyPrefix(r) {
		a.pendingKey = r
		return
	}
	if kb := a.GetKeybindingByKey(r); kb != nil {
		kb.Handler(a)
	}
}

// handleInsertKey edits the document in insert mode.
func (a *App) handleInsertKey(ev *tcell.EventKey) {
	if a.handleMovement(ev) {
		return
	}
	var err error
	switch ev.Key() {
	case tcell.KeyEscape:
		a.mode = NormalMode
	case tcell.KeyEnter:
		err = a.ws.Insert("\n")
	case tcell.KeyTab:
		err = a.ws.Insert("\t")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		err = a.ws.Backspace()
	case tcell.KeyDelete:
		err = a.ws.Delete()
	case tcell.KeyCtrlS:
		a.runCommand("write")
	case tcell.KeyRune:
		err = a.ws.Insert(string(ev.Rune()))
	}
	if err != nil {
		a.SetError(err)
	}
}

// handleCommand processes a command from command mode
func (a *App) handleCommand(cmd string) {
	if cmd == "" {
		return
	}
	if cmd == "debug" {
		a.debugMode = !a.debugMode
		if a.debugMode {
			a.SetStatus("Debug mode ON")
		} else {
			a.SetStatus("Debug mode OFF")
		}
		return
	}
	a.runCommand(cmd)
}

func (a *App) runCommand(cmd string) {
	msg, err := a.ws.Execute(a.ctx, cmd)
	if err != nil {
		a.SetError(err)
		return
	}
	if msg != "" {
		a.SetStatus(msg)
	}
	if a.ws.Quit() {
		a.quit = true
	}
}

// SetStatus sets the status message
func (a *App) SetStatus(msg string) {
	a.statusMsg = msg
	a.statusErr = false
	a.statusTime = time.Now()
}

// SetError shows err on the status line and logs it.
func (a *App) SetError(err error) {
	log.Printf("command failed: %v", err)
	a.SetStatus(err.Error())
	a.statusErr = true
}

// Quit signals the app to quit
func (a *App) Quit() {
	a.quit = true
}

// SetDebugMode enables or disables debug mode. Enabling it logs the
// elastic layout once it has been computed.
func (a *App) SetDebugMode(debug bool) {
	a.debugMode = debug
	if debug {
		if err := a.ws.Update(a.ctx); err != nil {
			log.Printf("elastic update: %v", err)
		}
		log.Printf("elastic layout of %s:\n%s", a.ws.Title(), a.ws.Elastic.Dump())
	}
}
