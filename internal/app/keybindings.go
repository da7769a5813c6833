package app

// KeyBinding represents a key binding with its description and handler
type KeyBinding struct {
	Key         rune
	Description string
	Handler     func(*App)
}

// GetKey returns the key of this keybinding
func (kb *KeyBinding) GetKey() rune {
	return kb.Key
}

// GetDescription returns the description of this keybinding
func (kb *KeyBinding) GetDescription() string {
	return kb.Description
}

// PendingKeyBinding represents a pending key (like 'g') that waits for a second key
type PendingKeyBinding struct {
	Prefix      rune                // The first key (e.g., 'g')
	Description string              // Description of what the pending key does
	Sequences   map[rune]KeyBinding // Map of second key to keybinding
}

// GetSequences returns a map of second key to description for display in help
func (pkb *PendingKeyBinding) GetSequences() map[rune]string {
	result := make(map[rune]string)
	for key, binding := range pkb.Sequences {
		result[key] = binding.Description
	}
	return result
}

// run returns a handler executing a command line.
func run(cmd string) func(*App) {
	return func(app *App) { app.runCommand(cmd) }
}

func move(dir Direction) func(*App) {
	return func(app *App) { app.ws.Move(dir, Collapse, app.view.PageSize(app.textHeight())) }
}

// InitializeKeybindings sets up the normal mode key bindings
func (a *App) InitializeKeybindings() []KeyBinding {
	return []KeyBinding{
		{Key: 'h', Description: "Move left", Handler: move(Left)},
		{Key: 'j', Description: "Move down", Handler: move(Down)},
		{Key: 'k', Description: "Move up", Handler: move(Up)},
		{Key: 'l', Description: "Move right", Handler: move(Right)},
		{Key: '0', Description: "Start of line", Handler: move(LineStart)},
		{Key: '$', Description: "End of line", Handler: move(LineEnd)},
		{Key: 'G', Description: "End of document", Handler: move(DocEnd)},
		{
			Key:         'i',
			Description: "Insert mode",
			Handler: func(app *App) {
				app.mode = InsertMode
			},
		},
		{
			Key:         ':',
			Description: "Command line",
			Handler: func(app *App) {
				app.command.Start()
			},
		},
		{
			Key:         '/',
			Description: "Find",
			Handler: func(app *App) {
				app.command.Start()
				app.command.SetInput("find /")
			},
		},
		{
			Key:         'n',
			Description: "Find next",
			Handler: func(app *App) {
				app.findNext(false)
			},
		},
		{
			Key:         'N',
			Description: "Find previous",
			Handler: func(app *App) {
				app.findNext(true)
			},
		},
		{Key: 'u', Description: "Undo", Handler: run("undo")},
		{Key: 'a', Description: "Add numbers", Handler: run("add")},
		{Key: 's', Description: "Sort rows", Handler: run("sort")},
		{Key: 'r', Description: "Make selection the search region", Handler: run("region")},
		{Key: 'e', Description: "Extend selection", Handler: run("select extend")},
		{Key: 'E', Description: "Enclose selection", Handler: run("select enclose")},
		{Key: '?', Description: "List commands", Handler: run("help")},
	}
}

// InitializePendingKeybindings sets up two-key sequences
func (a *App) InitializePendingKeybindings() []PendingKeyBinding {
	return []PendingKeyBinding{
		{
			Prefix:      'g',
			Description: "Go to",
			Sequences: map[rune]KeyBinding{
				'g': {Key: 'g', Description: "Start of document", Handler: move(DocStart)},
				'e': {Key: 'e', Description: "End of document", Handler: move(DocEnd)},
			},
		},
		{
			Prefix:      '=',
			Description: "Align",
			Sequences: map[rune]KeyBinding{
				'l': {Key: 'l', Description: "Align left", Handler: run("align left")},
				'r': {Key: 'r', Description: "Align right", Handler: run("align right")},
				'n': {Key: 'n', Description: "Align numbers", Handler: run("align numeric")},
			},
		},
	}
}

func (a *App) findNext(backward bool) {
	msg, err := a.ws.FindNext(a.ctx, backward)
	if err != nil {
		a.SetError(err)
		return
	}
	a.SetStatus(msg)
}

// GetKeybindingByKey returns a keybinding for a given key
func (a *App) GetKeybindingByKey(key rune) *KeyBinding {
	for i := range a.keybindings {
		if a.keybindings[i].Key == key {
			return &a.keybindings[i]
		}
	}
	return nil
}

// GetPendingKeyBindingByPrefix returns a pending keybinding for a prefix key
func (a *App) GetPendingKeyBindingByPrefix(prefix rune) *PendingKeyBinding {
	for i := range a.pendingKeybindings {
		if a.pendingKeybindings[i].Prefix == prefix {
			return &a.pendingKeybindings[i]
		}
	}
	return nil
}

// IsPendingKeyPrefix checks if a key is a pending key prefix
func (a *App) IsPendingKeyPrefix(key rune) bool {
	return a.GetPendingKeyBindingByPrefix(key) != nil
}
