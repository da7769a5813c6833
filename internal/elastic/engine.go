// Package elastic implements elastic tabstops: tab characters separate
// columns, and every column is as wide as its widest cell over the run of
// lines that share it. The engine measures columns into a tree of layout
// blocks (Analyze) and turns the tree into per-line custom tab stops on the
// host (Apply). Both phases run in fixed-size batches so a caller can
// interleave other work, report progress and cancel.
package elastic

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/pstuifzand/tui-columns/internal/host"
)

// Settings are the per-document elastic tabstops options.
type Settings struct {
	Profile
	Enabled bool
}

// State is the layout state of one document.
type State struct {
	h        host.Host
	settings Settings

	tree  Tree
	dirty DirtyLineSet

	// blankWidth is the blank width the tree was measured with.
	blankWidth       int
	assumeMonospace  bool
	analysisRequired bool
	// edits counts modification notifications; an analysis in progress
	// restarts when it changes.
	edits  int
	hint   deleteHint
	closed bool
}

// deleteHint remembers a deletion found not to change any column width
// between its before and after notifications.
type deleteHint struct {
	valid  bool
	pos    int
	length int
}

// Engine keeps layout state for every open document.
type Engine struct {
	mu   sync.Mutex
	docs map[string]*State
}

// NewEngine creates an empty registry.
func NewEngine() *Engine {
	return &Engine{docs: make(map[string]*State)}
}

// Open returns the state for key, creating it for h when the document is
// new. Hosts that implement host.Notifier are subscribed to.
func (e *Engine) Open(key string, h host.Host, settings Settings) *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.docs[key]; ok {
		return s
	}
	s := NewState(h, settings)
	if n, ok := h.(host.Notifier); ok {
		n.Subscribe(s.Notify)
	}
	e.docs[key] = s
	log.Printf("elastic: opened %s with profile %s (enabled=%v)", key, settings.Name, settings.Enabled)
	return s
}

// State returns the state for key.
func (e *Engine) State(key string) (*State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.docs[key]
	return s, ok
}

// Close forgets the document.
func (e *Engine) Close(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.docs[key]; ok {
		s.closed = true
		delete(e.docs, key)
	}
}

// NewState creates layout state for h. Nothing is measured until the
// first Update.
func NewState(h host.Host, settings Settings) *State {
	s := &State{h: h, settings: settings, analysisRequired: true}
	s.SetSpacing()
	return s
}

// Settings returns the current options.
func (s *State) Settings() Settings {
	return s.settings
}

// Enabled reports whether elastic tabstops are on. A nil state is off.
func (s *State) Enabled() bool {
	return s != nil && s.settings.Enabled
}

// IndentsLeadingTabs reports whether leading tabs are laid out as
// indentation rather than as column separators.
func (s *State) IndentsLeadingTabs() bool {
	return s.Enabled() && s.settings.LeadingTabsIndent
}

// SetEnabled turns elastic tabstops on or off. Turning them off removes
// every custom tab stop.
func (s *State) SetEnabled(on bool) {
	if on == s.settings.Enabled {
		return
	}
	s.settings.Enabled = on
	if on {
		s.SetSpacing()
		s.analysisRequired = true
		return
	}
	for line := 0; line < s.h.LineCount(); line++ {
		s.clearStops(line)
	}
	s.tree.Reset()
	s.dirty.Resize(0)
}

// SetProfile replaces the layout options and schedules a full analysis.
func (s *State) SetProfile(p Profile) {
	s.settings.Profile = p
	s.SetSpacing()
	s.analysisRequired = true
}

// AssumeMonospace reports whether widths are measured by character count.
func (s *State) AssumeMonospace() bool {
	return s.assumeMonospace
}

// AnalysisRequired reports whether the tree is stale.
func (s *State) AnalysisRequired() bool {
	return s.analysisRequired
}

// Tree returns the current layout tree.
func (s *State) Tree() *Tree {
	return &s.tree
}

// Dirty returns the set of lines whose tab stops are current.
func (s *State) Dirty() *DirtyLineSet {
	return &s.dirty
}

// FontChanged reports whether the font metrics differ from those the tree
// was measured with.
func (s *State) FontChanged() bool {
	if s.h.TextWidth(" ") != s.blankWidth {
		return true
	}
	if s.settings.Monospace != MonospaceBest {
		return false
	}
	return s.assumeMonospace != host.GuessMonospaced(s.h)
}

// SetSpacing records the current font metrics.
func (s *State) SetSpacing() {
	s.blankWidth = s.h.TextWidth(" ")
	switch s.settings.Monospace {
	case MonospaceBest:
		s.assumeMonospace = host.GuessMonospaced(s.h)
	default:
		s.assumeMonospace = s.settings.Monospace == MonospaceAlways
	}
}

// Zoomed is called when the host changes magnification.
func (s *State) Zoomed() {
	s.hint.valid = false
	s.SetSpacing()
	s.analysisRequired = true
}

func (s *State) indentTabSize() int {
	if s.settings.OverrideTabSize {
		return s.settings.MinimumOrLeadingTabSize
	}
	return s.h.TabWidth()
}

func (s *State) tabGap() int {
	return s.blankWidth * s.settings.MinimumSpaceBetweenColumns
}

// Update is called once per paint cycle. It re-measures after font
// changes or edits that invalidated the tree, then applies tab stops to
// the visible lines.
func (s *State) Update(ctx context.Context) error {
	if !s.settings.Enabled || s.closed {
		return nil
	}
	s.hint.valid = false
	if s.FontChanged() {
		s.SetSpacing()
		s.analysisRequired = true
	}
	if s.analysisRequired {
		if err := Run(ctx, s.Analyze()); err != nil {
			return err
		}
	}
	return Run(ctx, s.Apply(-1, -1))
}

// Ensure brings the tab stops of lines first through last up to date,
// analyzing first if the tree is stale.
func (s *State) Ensure(ctx context.Context, first, last int) error {
	if !s.settings.Enabled || s.closed {
		return nil
	}
	if s.analysisRequired {
		if err := Run(ctx, s.Analyze()); err != nil {
			return err
		}
	}
	return Run(ctx, s.Apply(first, last))
}

// Refresh re-analyzes the document and applies lines first through last
// plus the visible lines. It is used after a column operation replaced text.
func (s *State) Refresh(ctx context.Context, first, last int) error {
	if !s.settings.Enabled || s.closed {
		return nil
	}
	s.analysisRequired = true
	if err := Run(ctx, s.Analyze()); err != nil {
		return err
	}
	if err := Run(ctx, s.Apply(first, last)); err != nil {
		return err
	}
	return Run(ctx, s.Apply(-1, -1))
}

// Notify applies the incremental update policy to one text modification.
// Edits that provably leave every column at least as wide as its content
// only widen the affected block; anything else schedules a full analysis.
func (s *State) Notify(m host.Modification) {
	if s.closed || !s.settings.Enabled {
		return
	}
	s.edits++
	if s.analysisRequired {
		return
	}
	tabGap := s.h.TextWidth(" ") * s.settings.MinimumSpaceBetweenColumns
	switch {
	case m.Type&host.InsertText != 0:
		s.hint.valid = false
		if m.LinesAdded == 0 {
			if b, width, ok := s.findBlock(m.Position, m.Length); ok {
				line := s.h.LineFromPosition(m.Position)
				s.dirty.Mark(line, line)
				if b >= 0 {
					s.widen(b, width+tabGap)
				}
				return
			}
		}
	case m.Type&host.BeforeDelete != 0:
		b, width, ok := s.findBlock(m.Position, m.Length)
		if ok && (b < 0 || width+tabGap < s.tree.Block(b).Width) {
			s.hint = deleteHint{valid: true, pos: m.Position, length: m.Length}
		} else {
			s.hint.valid = false
		}
		return
	case m.Type&host.DeleteText != 0:
		if s.hint.valid && m.Position == s.hint.pos && m.Length == s.hint.length {
			s.hint.valid = false
			line := s.h.LineFromPosition(m.Position)
			s.dirty.Mark(line, line)
			return
		}
	}
	s.analysisRequired = true
}

// widen raises the width of block b and marks its lines for reapplication.
func (s *State) widen(b, width int) {
	if s.tree.Widen(b, width) {
		blk := s.tree.Block(b)
		s.dirty.Mark(blk.FirstLine, blk.LastLine)
	}
}

// findBlock locates the layout block holding the text at [pos, pos+length)
// and the pixel width of that cell on its line. A negative block with ok
// set means the text follows the last tab and no block constrains it. ok
// is false when the text spans lines or tabs, empties or fills a whole
// line, or changes which tabs count as indentation.
func (s *State) findBlock(pos, length int) (block, width int, ok bool) {
	h := s.h
	p := s.settings.Profile
	line := h.LineFromPosition(pos)
	begin := h.PositionFromLine(line)
	end := h.LineEndPosition(line)
	if pos+length > end {
		return -1, -1, false
	}
	text := h.TextRange(begin, end)
	at := pos - begin

	tabAfter := strings.IndexByte(text[at:], '\t')
	if tabAfter < 0 {
		if !p.TreatEOLAsTab {
			return -1, 0, true
		}
		if !p.LineUpAll && length == len(text) {
			return -1, -4, false
		}
		tabAfter = len(text)
	} else {
		tabAfter += at
	}
	if tabAfter-at < length {
		return -1, -2, false
	}

	tabCount, indentCount := 0, 0
	i, stopBefore := 0, 0
	if p.LeadingTabsIndent {
		for i < at && text[i] == '\t' {
			i++
		}
		if at == i && tabAfter-at == length {
			return -1, -3, false
		}
		indentCount = i
		stopBefore = i
	}
	for {
		k := strings.IndexByte(text[i:at], '\t')
		if k < 0 {
			break
		}
		i += k + 1
		tabCount++
		stopBefore = i
		indentCount = 0
	}

	width = h.PointXFromPosition(begin+tabAfter) - h.PointXFromPosition(begin+stopBefore)
	if indentCount > 0 {
		width += indentCount * h.TextWidth(" ") * s.indentTabSize()
	}
	path := s.tree.Path(line, tabCount+1)
	if len(path) <= tabCount {
		return -1, -999, false
	}
	return path[tabCount], width, true
}

func (s *State) clearStops(line int) {
	if s.h.GetNextTabStop(line, 0) != 0 {
		s.h.ClearTabStops(line)
	}
}
