package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/pstuifzand/tui-columns/internal/buffer"
	"github.com/pstuifzand/tui-columns/internal/columns"
	"github.com/pstuifzand/tui-columns/internal/config"
	"github.com/pstuifzand/tui-columns/internal/elastic"
	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/pstuifzand/tui-columns/internal/metrics"
	"github.com/pstuifzand/tui-columns/internal/rect"
	"github.com/pstuifzand/tui-columns/internal/search"
	"github.com/pstuifzand/tui-columns/internal/storage"
)

// Workspace is one open document together with the state the column
// commands need: configuration, elastic tabstops and the search session.
// The viewer and filter mode both drive it through Execute.
type Workspace struct {
	Doc     *buffer.Document
	Config  *config.Config
	Elastic *elastic.State
	Search  *search.Session

	store     *storage.FileStore
	backups   *storage.BackupManager
	sessionID string
	engine    *elastic.Engine

	dirty bool
	quit  bool
	// goalX is the pixel column vertical movement aims for, or -1.
	goalX int
}

// ErrUnknownCommand is returned by Execute for a name no command has.
var ErrUnknownCommand = errors.New("unknown command")

// OpenWorkspace loads path, or starts an empty document when it does not
// exist yet.
func OpenWorkspace(cfg *config.Config, path string) (*Workspace, error) {
	store := storage.NewFileStore(path)
	text, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	w := NewWorkspace(cfg, store, text)
	if backups, err := storage.NewBackupManager(); err != nil {
		log.Printf("backups disabled: %v", err)
	} else {
		w.backups = backups
	}
	return w, nil
}

// NewWorkspace wraps text measured in terminal cells. store may be nil for
// text that has no file.
func NewWorkspace(cfg *config.Config, store *storage.FileStore, text string) *Workspace {
	return NewMeasuredWorkspace(cfg, store, text, metrics.CellMetrics{Cell: 1})
}

// NewMeasuredWorkspace wraps text measured with m, such as the pixel
// widths of a proportional font.
func NewMeasuredWorkspace(cfg *config.Config, store *storage.FileStore, text string, m host.Metrics) *Workspace {
	if store == nil {
		store = storage.NewFileStore("")
	}
	doc := buffer.NewDocument(text, m)
	w := &Workspace{
		Doc:       doc,
		Config:    cfg,
		store:     store,
		sessionID: storage.NewSessionID(),
		engine:    elastic.NewEngine(),
		goalX:     -1,
	}
	key := store.FilePath
	if key == "" {
		key = "(stdin)"
	}
	settings := cfg.Selector().ProfileFor(store.FilePath, []byte(text), doc.LineCount())
	w.Elastic = w.engine.Open(key, doc, settings)
	w.Search = search.New(doc, w.selectionOptions(), cfg.NumericSettings())
	w.Search.SetOptions(cfg.SearchOptions(search.Regex))
	doc.Subscribe(func(host.Modification) { w.dirty = true })
	return w
}

// Path returns the file the document is saved to.
func (w *Workspace) Path() string { return w.store.FilePath }

// Dirty reports unsaved changes.
func (w *Workspace) Dirty() bool { return w.dirty }

// Quit reports whether a quit command was accepted.
func (w *Workspace) Quit() bool { return w.quit }

// Title is the file name shown in the header.
func (w *Workspace) Title() string {
	if w.store.FilePath == "" {
		return "[No Name]"
	}
	return filepath.Base(w.store.FilePath)
}

// layout returns the elastic state as a rect.Layout, or a nil interface
// when elastic tabstops are off.
func (w *Workspace) layout() rect.Layout {
	if !w.Elastic.Enabled() {
		return nil
	}
	return w.Elastic
}

func (w *Workspace) selectionOptions() rect.Options {
	return rect.Options{Layout: w.layout(), Policy: w.Config.Policy()}
}

// options collects the settings every column command runs with.
func (w *Workspace) options() columns.Options {
	opts := columns.DefaultOptions()
	opts.Options = w.selectionOptions()
	opts.Numeric = w.Config.NumericSettings()
	return opts
}

// refreshSearch rebuilds the search session after a change to settings it
// was created with, keeping the find string and options.
func (w *Workspace) refreshSearch() {
	opts := w.Search.Options()
	w.Search.Close()
	w.Search = search.New(w.Doc, w.selectionOptions(), w.Config.NumericSettings())
	w.Search.SetOptions(opts)
}

// Update brings the tab stops of the visible lines up to date.
func (w *Workspace) Update(ctx context.Context) error {
	return w.Elastic.Update(ctx)
}

// SelectDocument selects the whole document as a rectangle as wide as its
// widest line, with every line laid out first.
func (w *Workspace) SelectDocument(ctx context.Context) error {
	d := w.Doc
	if err := w.Elastic.Ensure(ctx, 0, d.LineCount()-1); err != nil {
		return err
	}
	widest := 0
	for line := 0; line < d.LineCount(); line++ {
		widest = max(widest, d.PointXFromPosition(d.LineEndPosition(line)))
	}
	end := d.Length()
	vs := host.BlankCount(widest-d.PointXFromPosition(end), d.TextWidth(" "))
	d.SetRectangularSelection(0, 0, end, max(vs, 0))
	return nil
}

// Save writes the document and keeps a backup copy of what was written.
func (w *Workspace) Save() error {
	text := w.Doc.String()
	if err := w.store.Save(text); err != nil {
		return err
	}
	w.dirty = false
	if w.backups != nil {
		if _, err := w.backups.CreateBackup(text, w.store.FilePath, w.sessionID); err != nil {
			log.Printf("backup of %s failed: %v", w.store.FilePath, err)
		}
	}
	return nil
}

// SaveAs changes the file name and saves.
func (w *Workspace) SaveAs(path string) error {
	w.store.FilePath = path
	w.store.ReadOnly = false
	return w.Save()
}

// Execute runs one command line and returns the message to show.
func (w *Workspace) Execute(ctx context.Context, line string) (string, error) {
	name, rest := splitCommand(line)
	if name == "" {
		return "", nil
	}
	cmd, ok := lookupCommand(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	msg, err := cmd.run(ctx, w, rest)
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd.name, err)
	}
	return msg, nil
}

// FindNext repeats the last find forward or backward.
func (w *Workspace) FindNext(ctx context.Context, backward bool) (string, error) {
	opts := w.Search.Options()
	opts.Backward = backward
	w.Search.SetOptions(opts)
	if _, err := w.Search.Find(ctx); err != nil {
		return "", err
	}
	return w.Search.Message, nil
}

// resultMessage turns a column command result into a status message.
func resultMessage(res columns.Result, done, nothing string) string {
	switch {
	case res.Message != "":
		return res.Message
	case res.Changed:
		return done
	default:
		return nothing
	}
}

// ProfileNames lists the elastic profiles for completion.
func (w *Workspace) ProfileNames() []string {
	return w.Config.Selector().Names()
}

func (w *Workspace) describeElastic() string {
	st := w.Elastic.Settings()
	state := "off"
	if st.Enabled {
		state = "on"
	}
	return fmt.Sprintf("Elastic tabstops %s, profile %s.", state, st.Name)
}

// trimQuotes removes one pair of matching quotes around s.
func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func joinLines(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "; ")
}
