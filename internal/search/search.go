// Package search finds and replaces text inside a search region: the part
// of the document marked by the host's indicator. The region survives
// edits, so repeated Find and Replace calls resume where they left off
// even after replacements change the length of the text.
package search

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/pstuifzand/tui-columns/internal/formula"
	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/pstuifzand/tui-columns/internal/numeric"
	"github.com/pstuifzand/tui-columns/internal/rect"
	"github.com/pstuifzand/tui-columns/internal/regex"
)

// Mode is how the find string is read.
type Mode int

const (
	// Normal searches for the text as written.
	Normal Mode = iota
	// Extended searches for the text after expanding backslash escapes.
	Extended
	// Regex searches for a regular expression.
	Regex
)

func (m Mode) String() string {
	switch m {
	case Extended:
		return "extended"
	case Regex:
		return "regex"
	default:
		return "normal"
	}
}

// ParseMode returns the mode called name.
func ParseMode(name string) (Mode, error) {
	for _, m := range []Mode{Normal, Extended, Regex} {
		if m.String() == name {
			return m, nil
		}
	}
	return Normal, fmt.Errorf("unknown search mode %q", name)
}

// Options control matching.
type Options struct {
	Mode      Mode
	MatchCase bool
	// WholeWord applies to Normal and Extended mode only.
	WholeWord bool
	Backward  bool
	// AutoClear removes the search region when the session closes.
	AutoClear bool
}

// Session is one find/replace conversation with a document. Formula
// replacements remember the values of earlier matches until the find
// string, replacement or options change, or the session closes.
type Session struct {
	h   host.Host
	sel rect.Options
	st  numeric.Settings

	opts        Options
	find        string
	replacement string

	re    *regex.Regex
	tmpl  *template
	cache *formula.Cache
	hist  history

	// wrap makes the next Find search the whole region.
	wrap bool
	// lastNull is the position of the last empty match selected, or -1.
	lastNull int

	// Message describes the outcome of the last operation.
	Message string
}

// New starts a session on h. sel decides how a selection becomes a region.
func New(h host.Host, sel rect.Options, st numeric.Settings) *Session {
	return &Session{h: h, sel: sel, st: st, cache: formula.NewCache(), lastNull: -1}
}

// SetOptions changes how the find string matches.
func (s *Session) SetOptions(opts Options) {
	if opts != s.opts {
		s.opts = opts
		s.reset()
	}
}

// Options returns the matching options.
func (s *Session) Options() Options { return s.opts }

// SetFind changes the text to look for.
func (s *Session) SetFind(find string) {
	if find != s.find {
		s.find = find
		s.reset()
	}
}

// SetReplace changes the replacement.
func (s *Session) SetReplace(replacement string) {
	if replacement != s.replacement {
		s.replacement = replacement
		s.tmpl = nil
		s.hist.clear()
	}
}

func (s *Session) reset() {
	s.re = nil
	s.tmpl = nil
	s.hist.clear()
	s.lastNull = -1
}

// Close ends the session, forgetting formula history.
func (s *Session) Close() {
	s.hist.clear()
	s.cache.Clear()
	if s.opts.AutoClear {
		s.ClearRegion()
	}
}

func (s *Session) compile() (*regex.Regex, error) {
	if s.re != nil {
		return s.re, nil
	}
	opts := regex.Options{MatchCase: s.opts.MatchCase}
	pattern := s.find
	switch s.opts.Mode {
	case Regex:
	case Extended:
		pattern = Unescape(pattern)
		fallthrough
	default:
		opts.Literal = true
		opts.WholeWord = s.opts.WholeWord
	}
	re, err := regex.Compile(pattern, opts)
	if err != nil {
		return nil, err
	}
	s.re = re
	return re, nil
}

// prepare compiles the find string, reporting false with a message when
// there is nothing to find.
func (s *Session) prepare() (*regex.Regex, bool, error) {
	if s.find == "" {
		s.Message = "No string to find."
		return nil, false, nil
	}
	re, err := s.compile()
	return re, err == nil, err
}

// HasRegion reports whether any of the document is marked for searching.
func (s *Session) HasRegion() bool {
	n := s.h.Length()
	return n > 0 && (s.h.IndicatorValueAt(0) != 0 || s.h.IndicatorEnd(0) < n)
}

// ClearRegion unmarks the whole document.
func (s *Session) ClearRegion() {
	s.h.IndicatorClear(0, s.h.Length())
}

// Region returns the marked spans in document order.
func (s *Session) Region() []host.Span {
	var spans []host.Span
	n := s.h.Length()
	for pos := 0; pos < n; {
		end := s.h.IndicatorEnd(pos)
		if end <= pos {
			break
		}
		if s.h.IndicatorValueAt(pos) != 0 {
			spans = append(spans, host.Span{Start: pos, End: end})
		}
		pos = end
	}
	return spans
}

// ConvertSelectionToRegion makes the current rectangular or multiple
// selection the search region. It reports false, with a message, when the
// selection is neither.
func (s *Session) ConvertSelectionToRegion(ctx context.Context) (bool, error) {
	h := s.h
	var spans []host.Span
	switch {
	case h.SelectionMode().IsRectangular():
		sel, err := rect.Get(ctx, h, s.sel)
		if err != nil {
			return false, err
		}
		for row := range sel.Rows() {
			spans = append(spans, host.Span{Start: row.Min(), End: row.Max()})
		}
	case h.Selections() > 1:
		for i := range h.Selections() {
			spans = append(spans, host.Span{Start: h.SelectionNStart(i), End: h.SelectionNEnd(i)})
		}
	default:
		s.Message = "No rectangular or multiple selection in which to search."
		return false, nil
	}
	s.ClearRegion()
	for _, sp := range spans {
		h.IndicatorFill(sp.Start, sp.End)
	}
	s.wrap = true
	s.lastNull = -1
	return true, nil
}

// ensureRegion creates a region when there is none: from the selection
// when it is rectangular or multiple, otherwise the whole document. It
// reports whether it created one.
func (s *Session) ensureRegion(ctx context.Context) (bool, error) {
	if s.HasRegion() {
		return false, nil
	}
	h := s.h
	if (h.SelectionMode().IsRectangular() || h.Selections() > 1) && !h.SelectionEmpty() {
		return s.ConvertSelectionToRegion(ctx)
	}
	h.IndicatorFill(0, h.Length())
	s.wrap = true
	return true, nil
}

func (s *Session) document() *regex.Text {
	return regex.NewText(s.h.TextRange(0, s.h.Length()))
}

func (s *Session) mainSelection() (anchor, caret int) {
	i := s.h.MainSelection()
	return s.h.SelectionNAnchor(i), s.h.SelectionNCaret(i)
}

func plural(n int, one, many string) string {
	switch n {
	case 0:
		return "No " + many
	case 1:
		return "One " + one
	}
	return humanize.Comma(int64(n)) + " " + many
}

// Count counts the matches in the region.
func (s *Session) Count(ctx context.Context) (int, error) {
	re, ok, err := s.prepare()
	if !ok {
		return 0, err
	}
	if _, err := s.ensureRegion(ctx); err != nil {
		return 0, err
	}
	text := s.document()
	count := 0
	for _, sp := range s.Region() {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		err := re.All(text, sp.Start, sp.End, func(*regex.Match) bool {
			count++
			return true
		})
		if err != nil {
			return count, err
		}
	}
	s.Message = plural(count, "match found in selection.", "matches found in selection.")
	return count, nil
}

// Find selects the next match in the region after the main selection, or
// the previous one before it when searching backward. After a search that
// fails, the next one starts again from the edge of the region.
func (s *Session) Find(ctx context.Context) (bool, error) {
	re, ok, err := s.prepare()
	if !ok {
		return false, err
	}
	if _, err := s.ensureRegion(ctx); err != nil {
		return false, err
	}
	full := s.wrap
	s.wrap = false
	text := s.document()
	var m *regex.Match
	if s.opts.Backward {
		m, err = s.findBackward(re, text, full)
	} else {
		m, err = s.findForward(re, text, full)
	}
	if err != nil {
		return false, err
	}
	if m == nil {
		if full {
			s.Message = "No matches found in selection."
		} else {
			s.Message = "No more matches found in selection."
		}
		s.wrap = true
		s.lastNull = -1
		return false, nil
	}
	s.h.SetSelection(m.Start, m.End)
	s.lastNull = -1
	if m.Start == m.End {
		s.lastNull = m.Start
	}
	s.Message = ""
	return true, nil
}

// revisited reports an empty match at the position of the empty match
// selected last.
func (s *Session) revisited(m *regex.Match, at int) bool {
	return m.Start == m.End && m.Start == at && at == s.lastNull
}

func (s *Session) findForward(re *regex.Regex, text *regex.Text, full bool) (*regex.Match, error) {
	h := s.h
	n := h.Length()
	from := 0
	if !full {
		anchor, caret := s.mainSelection()
		from = max(anchor, caret)
	}
	for from <= n {
		end := h.IndicatorEnd(from)
		if h.IndicatorValueAt(from) != 0 {
			m, err := re.Find(text, from, end)
			if err != nil {
				return nil, err
			}
			if m != nil && s.revisited(m, from) {
				from = h.PositionAfter(from)
				continue
			}
			if m != nil {
				return m, nil
			}
		}
		if end >= n || end <= from {
			break
		}
		from = end
	}
	return nil, nil
}

func (s *Session) findBackward(re *regex.Regex, text *regex.Text, full bool) (*regex.Match, error) {
	h := s.h
	from := h.Length()
	if !full {
		anchor, caret := s.mainSelection()
		from = min(anchor, caret)
	}
	for from > 0 {
		start := h.IndicatorStart(from - 1)
		if h.IndicatorValueAt(from-1) != 0 {
			m, err := re.FindLast(text, start, from)
			if err != nil {
				return nil, err
			}
			if m != nil && s.revisited(m, from) {
				from = h.PositionBefore(from)
				continue
			}
			if m != nil {
				return m, nil
			}
		}
		from = start
	}
	return nil, nil
}

// SelectAll selects every non-empty match in the region as a multiple
// selection.
func (s *Session) SelectAll(ctx context.Context) (int, error) {
	re, ok, err := s.prepare()
	if !ok {
		return 0, err
	}
	if _, err := s.ensureRegion(ctx); err != nil {
		return 0, err
	}
	text := s.document()
	var found []host.Span
	for _, sp := range s.Region() {
		err := re.All(text, sp.Start, sp.End, func(m *regex.Match) bool {
			if m.End > m.Start {
				found = append(found, host.Span{Start: m.Start, End: m.End})
			}
			return true
		})
		if err != nil {
			return 0, err
		}
	}
	for i, sp := range found {
		if i == 0 {
			s.h.SetSelection(sp.Start, sp.End)
		} else {
			s.h.AddSelection(sp.Start, sp.End)
		}
	}
	s.Message = plural(len(found), "match selected.", "matches selected.")
	return len(found), nil
}
