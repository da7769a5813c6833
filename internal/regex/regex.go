package regex

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// ErrInvalidPattern is returned when a pattern does not compile.
var ErrInvalidPattern = errors.New("invalid regular expression")

// matchTimeout bounds a single match attempt against catastrophic
// backtracking.
const matchTimeout = 5 * time.Second

// Options control compilation.
type Options struct {
	MatchCase bool
	// Literal matches the pattern as plain text.
	Literal bool
	// WholeWord requires the match not to touch word characters on
	// either side.
	WholeWord bool
}

// Regex is a compiled pattern. Lines are matched with ^ and $ at every
// line boundary.
type Regex struct {
	pattern string
	re      *regexp2.Regexp
}

// Compile compiles pattern. A failure wraps ErrInvalidPattern.
func Compile(pattern string, opts Options) (*Regex, error) {
	expr := pattern
	if opts.Literal {
		expr = Quote(pattern)
	}
	if opts.WholeWord {
		expr = `(?<!\w)(?:` + expr + `)(?!\w)`
	}
	var flags regexp2.RegexOptions = regexp2.Multiline
	if !opts.MatchCase {
		flags |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(expr, flags)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	re.MatchTimeout = matchTimeout
	return &Regex{pattern: pattern, re: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string, opts Options) *Regex {
	r, err := Compile(pattern, opts)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Regex) String() string { return r.pattern }

// Groups returns the number of capture groups, not counting the whole match.
func (r *Regex) Groups() int {
	return len(r.re.GetGroupNumbers()) - 1
}

// GroupNames returns the names of the capture groups in number order.
// Unnamed groups are named by their number.
func (r *Regex) GroupNames() []string {
	return r.re.GetGroupNames()
}

// Group is one capture of a match, in byte offsets of the text.
type Group struct {
	Name    string
	Start   int
	End     int
	Matched bool
}

// Match is a successful match.
type Match struct {
	text   *Text
	Start  int
	End    int
	groups []Group
}

func newMatch(t *Text, m *regexp2.Match) *Match {
	out := &Match{
		text:  t,
		Start: t.Offset(m.Index),
		End:   t.Offset(m.Index + m.Length),
	}
	for _, g := range m.Groups() {
		grp := Group{Name: g.Name}
		if len(g.Captures) > 0 {
			grp.Matched = true
			grp.Start = t.Offset(g.Index)
			grp.End = t.Offset(g.Index + g.Length)
		}
		out.groups = append(out.groups, grp)
	}
	return out
}

// Len returns the number of groups, including group 0.
func (m *Match) Len() int { return len(m.groups) }

// Group returns group i. Groups outside the pattern are unmatched.
func (m *Match) Group(i int) Group {
	if i < 0 || i >= len(m.groups) {
		return Group{}
	}
	return m.groups[i]
}

// Named returns the group called name.
func (m *Match) Named(name string) (Group, bool) {
	for _, g := range m.groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// Text returns the text of group i, or "" when it did not participate.
func (m *Match) Text(i int) string {
	g := m.Group(i)
	if !g.Matched {
		return ""
	}
	return m.text.src[g.Start:g.End]
}

// NamedText returns the text of the group called name.
func (m *Match) NamedText(name string) string {
	g, ok := m.Named(name)
	if !ok || !g.Matched {
		return ""
	}
	return m.text.src[g.Start:g.End]
}

// Find returns the first match that starts at or after byte offset from
// and ends at or before limit, or nil. A negative limit means the end of
// the text. Text before from is visible to lookbehind.
func (r *Regex) Find(t *Text, from, limit int) (*Match, error) {
	runes, start := r.window(t, from, limit)
	if start > len(runes) {
		return nil, nil
	}
	m, err := r.re.FindRunesMatchStartingAt(runes, start)
	if err != nil {
		return nil, fmt.Errorf("match %q: %w", r.pattern, err)
	}
	if m == nil {
		return nil, nil
	}
	return newMatch(t, m), nil
}

// FindLast returns the last match lying within from and limit, or nil.
func (r *Regex) FindLast(t *Text, from, limit int) (*Match, error) {
	runes, start := r.window(t, from, limit)
	if start > len(runes) {
		return nil, nil
	}
	var last *regexp2.Match
	m, err := r.re.FindRunesMatchStartingAt(runes, start)
	for err == nil && m != nil {
		last = m
		m, err = r.re.FindNextMatch(m)
	}
	if err != nil {
		return nil, fmt.Errorf("match %q: %w", r.pattern, err)
	}
	if last == nil {
		return nil, nil
	}
	return newMatch(t, last), nil
}

// All calls fn for every match within from and limit, stopping when fn
// returns false.
func (r *Regex) All(t *Text, from, limit int, fn func(*Match) bool) error {
	runes, start := r.window(t, from, limit)
	if start > len(runes) {
		return nil
	}
	m, err := r.re.FindRunesMatchStartingAt(runes, start)
	for err == nil && m != nil {
		if !fn(newMatch(t, m)) {
			return nil
		}
		m, err = r.re.FindNextMatch(m)
	}
	if err != nil {
		return fmt.Errorf("match %q: %w", r.pattern, err)
	}
	return nil
}

func (r *Regex) window(t *Text, from, limit int) ([]rune, int) {
	end := t.Len()
	if limit >= 0 {
		end = t.Index(limit)
	}
	return t.runes[:end], t.Index(from)
}

// FindString matches s from the start. It reports false when there is no
// match or the match timed out.
func (r *Regex) FindString(s string) (*Match, bool) {
	m, err := r.Find(NewText(s), 0, -1)
	if err != nil || m == nil {
		return nil, false
	}
	return m, true
}

// Expand substitutes groups of m into template: $n and ${n} insert group n,
// ${name} a named group, $$ a dollar sign. A backslash followed by a digit
// inserts that group, and \n, \r and \t insert control characters.
func (m *Match) Expand(template string) string {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch {
		case c == '$' && i+1 < len(template):
			next := template[i+1]
			switch {
			case next == '$':
				b.WriteByte('$')
				i++
			case next == '{':
				end := strings.IndexByte(template[i+2:], '}')
				if end < 0 {
					b.WriteByte(c)
					continue
				}
				name := template[i+2 : i+2+end]
				if n, err := strconv.Atoi(name); err == nil {
					b.WriteString(m.Text(n))
				} else {
					b.WriteString(m.NamedText(name))
				}
				i += 2 + end
			case next >= '0' && next <= '9':
				j := i + 1
				for j < len(template) && j < i+3 && template[j] >= '0' && template[j] <= '9' {
					j++
				}
				n, _ := strconv.Atoi(template[i+1 : j])
				if n >= m.Len() && j-i > 2 {
					j--
					n /= 10
				}
				b.WriteString(m.Text(n))
				i = j - 1
			default:
				b.WriteByte(c)
			}
		case c == '\\' && i+1 < len(template):
			switch next := template[i+1]; {
			case next >= '0' && next <= '9':
				b.WriteString(m.Text(int(next - '0')))
			case next == 'n':
				b.WriteByte('\n')
			case next == 'r':
				b.WriteByte('\r')
			case next == 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(next)
			}
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
