package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/pstuifzand/tui-columns/internal/formula"
	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/pstuifzand/tui-columns/internal/numeric"
	"github.com/pstuifzand/tui-columns/internal/regex"
)

// ErrInvalidReplacement is wrapped by errors in a replacement string.
var ErrInvalidReplacement = errors.New("invalid replacement")

// piece is literal text or a formula of a replacement.
type piece struct {
	literal string
	prog    *formula.Program
	format  numeric.Format
}

// template is a parsed replacement. In regex mode a replacement may hold
// formulas written as
//
//	(?=[,][pad][.minDec[-maxDec]][t]:expression)
//
// where the optional prefix before the colon formats the result: a comma
// groups thousands, pad is the minimum number of integer digits, minDec
// and maxDec bound the decimal places and t allows time formats. Without
// a prefix the colon may be left out.
type template struct {
	pieces   []piece
	formulas int
	regex    bool
}

func parseTemplate(src string, mode Mode, cache *formula.Cache, st numeric.Settings) (*template, error) {
	t := &template{regex: mode == Regex}
	switch mode {
	case Normal:
		t.pieces = []piece{{literal: src}}
		return t, nil
	case Extended:
		t.pieces = []piece{{literal: Unescape(src)}}
		return t, nil
	}
	for src != "" {
		open := strings.Index(src, "(?=")
		if open < 0 {
			t.pieces = append(t.pieces, piece{literal: src})
			break
		}
		if open > 0 {
			t.pieces = append(t.pieces, piece{literal: src[:open]})
		}
		body, rest, ok := closing(src[open+3:])
		if !ok {
			return nil, fmt.Errorf("%w: formula %q is not closed", ErrInvalidReplacement, src[open:])
		}
		f, expr := parseFormat(body, st)
		prog, err := cache.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidReplacement, err)
		}
		t.pieces = append(t.pieces, piece{prog: prog, format: f})
		t.formulas++
		src = rest
	}
	return t, nil
}

// closing splits s after the parenthesis that closes an already open one.
func closing(s string) (body, rest string, ok bool) {
	depth := 1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

// parseFormat reads the format prefix of a formula. When body does not
// start with one it is all expression.
func parseFormat(body string, st numeric.Settings) (numeric.Format, string) {
	f := numeric.DefaultFormat()
	i := 0
	digits := func() (int, bool) {
		n, start := 0, i
		for i < len(body) && body[i] >= '0' && body[i] <= '9' {
			n = n*10 + int(body[i]-'0')
			i++
		}
		return n, i > start
	}
	if i < len(body) && body[i] == ',' {
		f.Thousands = ","
		if st.DecimalComma {
			f.Thousands = "."
		}
		i++
	}
	if n, ok := digits(); ok {
		f.LeftPad = n
	}
	if i < len(body) && body[i] == '.' {
		i++
		n, _ := digits()
		f.MinDec, f.MaxDec = n, n
		if i < len(body) && body[i] == '-' {
			i++
			m, ok := digits()
			if !ok {
				return numeric.DefaultFormat(), body
			}
			f.MaxDec = max(m, n)
		}
	}
	if i < len(body) && body[i] == 't' {
		f.TimeEnable = st.TimeFormatEnable
		i++
	}
	if i == len(body) || body[i] != ':' {
		return numeric.DefaultFormat(), body
	}
	return f, body[i+1:]
}

// history is what formulas remember about earlier matches of a session.
type history struct {
	// values holds the capture groups of each match as numbers.
	values [][]float64
	// results holds the result of each formula for each match.
	results    [][]float64
	lastFinite []float64
	// index is the formula being evaluated.
	index int
}

func (hs *history) clear() { *hs = history{} }

// snapshot copies the history so a replacement that fails can be rolled
// back. Rows already recorded are never modified, so they are shared.
func (hs *history) snapshot() history {
	return history{
		values:     slices.Clone(hs.values),
		results:    slices.Clone(hs.results),
		lastFinite: slices.Clone(hs.lastFinite),
		index:      hs.index,
	}
}

func (hs *history) begin(groups []float64, formulas int) {
	hs.values = append(hs.values, groups)
	row := make([]float64, formulas)
	for i := range row {
		row[i] = math.NaN()
	}
	hs.results = append(hs.results, row)
	for len(hs.lastFinite) < formulas {
		hs.lastFinite = append(hs.lastFinite, 0)
	}
}

func (hs *history) record(v float64) {
	hs.results[len(hs.results)-1][hs.index] = v
	if isFinite(v) {
		hs.lastFinite[hs.index] = v
	}
}

func isFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// Value resolves match, the number of matches replaced this session
// including the current one, and this, the value of the whole match.
func (hs *history) Value(name string) (float64, bool) {
	switch name {
	case "match":
		return float64(len(hs.values)), true
	case "this":
		return hs.reg(0, 0), true
	}
	return 0, false
}

func (hs *history) reg(group, back int) float64 {
	if back < 0 || back >= len(hs.values) {
		return math.NaN()
	}
	v := hs.values[len(hs.values)-1-back]
	if group < 0 || group >= len(v) {
		return math.NaN()
	}
	return v[group]
}

// Call implements the history functions:
//
//	reg(n [, m [, default]])   capture group n, m matches back
//	sub(n [, m [, default]])   result of formula n (0 for this one), m
//	                           matches back; without m the last finite one
//	last([m [, default]])      this formula's result m matches back;
//	                           without m the last finite one
func (hs *history) Call(name string, args []float64) (float64, bool) {
	get := func(i int) int {
		if i >= len(args) || !isFinite(args[i]) {
			return 0
		}
		return int(args[i])
	}
	orDefault := func(v float64, i int) float64 {
		if !isFinite(v) && len(args) > i {
			return args[i]
		}
		return v
	}
	switch name {
	case "reg":
		if len(args) == 0 {
			return math.NaN(), true
		}
		return orDefault(hs.reg(get(0), get(1)), 2), true
	case "sub":
		n := get(0)
		if n == 0 {
			n = hs.index + 1
		}
		if n < 1 || n > len(hs.lastFinite) {
			return orDefault(math.NaN(), 2), true
		}
		if len(args) < 2 {
			return hs.lastFinite[n-1], true
		}
		back := get(1)
		v := math.NaN()
		if back >= 0 && back < len(hs.results) && (back > 0 || n <= hs.index) {
			v = hs.results[len(hs.results)-1-back][n-1]
		}
		return orDefault(v, 2), true
	case "last":
		if len(args) == 0 {
			return hs.lastFinite[hs.index], true
		}
		back := get(0)
		v := math.NaN()
		if back > 0 && back < len(hs.results) {
			v = hs.results[len(hs.results)-1-back][hs.index]
		}
		return orDefault(v, 1), true
	}
	return 0, false
}

func (s *Session) template() (*template, error) {
	if s.tmpl == nil {
		t, err := parseTemplate(s.replacement, s.opts.Mode, s.cache, s.st)
		if err != nil {
			return nil, err
		}
		s.tmpl = t
	}
	return s.tmpl, nil
}

// expand builds the replacement for m, recording it in the history when
// the replacement has formulas.
func (s *Session) expand(m *regex.Match) (string, error) {
	t, err := s.template()
	if err != nil {
		return "", err
	}
	if t.formulas > 0 {
		groups := make([]float64, m.Len())
		for i := range groups {
			groups[i] = numeric.Parse(strings.Trim(m.Text(i), " \t"), s.st).Value
			if !m.Group(i).Matched {
				groups[i] = math.NaN()
			}
		}
		s.hist.begin(groups, t.formulas)
	}
	var b strings.Builder
	k := 0
	for _, p := range t.pieces {
		if p.prog == nil {
			if t.regex {
				b.WriteString(m.Expand(p.literal))
			} else {
				b.WriteString(p.literal)
			}
			continue
		}
		s.hist.index = k
		v := p.prog.Eval(&s.hist)
		s.hist.record(v)
		b.WriteString(numeric.FormatValue(v, p.format, s.st))
		k++
	}
	return b.String(), nil
}

// matchAt returns the match Find would select at exactly start..end, or
// nil when the selection does not hold one.
func (s *Session) matchAt(re *regex.Regex, start, end int) (*regex.Match, error) {
	h := s.h
	limit := end
	switch {
	case h.IndicatorValueAt(start) != 0:
		limit = h.IndicatorEnd(start)
	case start != end || start == 0 || h.IndicatorValueAt(start-1) == 0:
		return nil, nil
	}
	m, err := re.Find(s.document(), start, limit)
	if err != nil || m == nil || m.Start != start || m.End != end {
		return nil, err
	}
	return m, nil
}

// Replace replaces the selected match and selects the replacement. When
// the selection is not what Find would select next it finds instead.
func (s *Session) Replace(ctx context.Context) (bool, error) {
	re, ok, err := s.prepare()
	if !ok {
		return false, err
	}
	if _, err := s.template(); err != nil {
		return false, err
	}
	if !s.HasRegion() {
		return s.Find(ctx)
	}
	anchor, caret := s.mainSelection()
	start, end := min(anchor, caret), max(anchor, caret)
	m, err := s.matchAt(re, start, end)
	if err != nil {
		return false, err
	}
	if m == nil {
		return s.Find(ctx)
	}
	saved := s.hist.snapshot()
	repl, err := s.expand(m)
	if err != nil {
		s.hist = saved
		return false, err
	}
	h := s.h
	h.BeginUndoAction()
	err = h.Replace(start, end, repl)
	h.EndUndoAction()
	if err != nil {
		s.hist = saved
		return false, fmt.Errorf("replace %d-%d: %w", start, end, err)
	}
	h.IndicatorFill(start, start+len(repl))
	h.SetSelection(start, start+len(repl))
	s.lastNull = -1
	s.Message = "Match replaced."
	return true, nil
}

type replacement struct {
	span host.Span
	text string
}

// ReplaceAll replaces every match in the region as one undo action and
// returns the number of replacements.
func (s *Session) ReplaceAll(ctx context.Context) (int, error) {
	re, ok, err := s.prepare()
	if !ok {
		return 0, err
	}
	if _, err := s.template(); err != nil {
		return 0, err
	}
	if _, err := s.ensureRegion(ctx); err != nil {
		return 0, err
	}
	text := s.document()
	saved := s.hist.snapshot()
	fail := func(n int, err error) (int, error) {
		s.hist = saved
		return n, err
	}
	var todo []replacement
	for _, sp := range s.Region() {
		if err := ctx.Err(); err != nil {
			return fail(0, err)
		}
		var expandErr error
		err := re.All(text, sp.Start, sp.End, func(m *regex.Match) bool {
			r, err := s.expand(m)
			if err != nil {
				expandErr = err
				return false
			}
			todo = append(todo, replacement{span: host.Span{Start: m.Start, End: m.End}, text: r})
			return true
		})
		if err == nil {
			err = expandErr
		}
		if err != nil {
			return fail(0, err)
		}
	}
	if len(todo) == 0 {
		s.Message = plural(0, "replacement made in selection.", "replacements made in selection.")
		return 0, nil
	}

	// Working from the end leaves the positions of earlier matches valid.
	h := s.h
	h.BeginUndoAction()
	defer h.EndUndoAction()
	for i := len(todo) - 1; i >= 0; i-- {
		r := todo[i]
		if err := h.Replace(r.span.Start, r.span.End, r.text); err != nil {
			return fail(len(todo)-1-i, fmt.Errorf("replace %d-%d: %w", r.span.Start, r.span.End, err))
		}
		h.IndicatorFill(r.span.Start, r.span.Start+len(r.text))
	}
	s.Message = plural(len(todo), "replacement made in selection.", "replacements made in selection.")
	s.lastNull = -1
	return len(todo), nil
}
