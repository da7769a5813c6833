package columns

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/pstuifzand/tui-columns/internal/numeric"
	"github.com/pstuifzand/tui-columns/internal/rect"
	"github.com/pstuifzand/tui-columns/internal/regex"
)

// SortType is how keys compare.
type SortType int

const (
	// SortBinary compares the bytes of the key.
	SortBinary SortType = iota
	// SortLocale compares collation keys for a language.
	SortLocale
	// SortNumeric compares parsed numbers. Keys that are not numbers sort
	// after all numbers in either direction.
	SortNumeric
)

func (t SortType) String() string {
	switch t {
	case SortLocale:
		return "locale"
	case SortNumeric:
		return "numeric"
	default:
		return "binary"
	}
}

// KeyType is where sort keys come from.
type KeyType int

const (
	// KeyEntireColumn uses the selected text of the row without
	// surrounding blanks. Numeric sorts use each cell as a key.
	KeyEntireColumn KeyType = iota
	// KeyIgnoreBlanks uses the selected text with all blanks and tabs
	// removed.
	KeyIgnoreBlanks
	// KeyTabbed uses the cells named by Groups.
	KeyTabbed
	// KeyRegex uses the capture groups named by Groups of a regular
	// expression matched against the row.
	KeyRegex
)

// LocaleOptions tune locale comparisons.
type LocaleOptions struct {
	// Tag is a BCP 47 language tag; empty uses the root collation.
	Tag              string
	CaseSensitive    bool
	IgnoreDiacritics bool
	IgnoreSymbols    bool
	DigitsAsNumbers  bool
}

// SortSpec describes a sort.
type SortSpec struct {
	Descending bool
	Type       SortType
	KeyType    KeyType
	// Groups lists the cells or capture groups used as keys, most
	// significant first, as 1-based numbers separated by commas or blanks.
	// Each number may carry suffix letters overriding the direction
	// (a ascending, d descending) and type (b binary, l locale, n numeric),
	// e.g. "2,1d,3an". Empty uses every cell or group in order.
	Groups    string
	Regex     string
	MatchCase bool
	Locale    LocaleOptions
	// ColumnOnly moves only the selected text between rows. Otherwise
	// whole lines are sorted.
	ColumnOnly bool
}

// KeyGroup is one parsed entry of SortSpec.Groups.
type KeyGroup struct {
	Index      int
	Descending bool
	Type       SortType
}

// ParseKeyGroups parses a group specification, applying typ and desc
// where an entry has no suffix.
func ParseKeyGroups(spec string, typ SortType, desc bool) ([]KeyGroup, error) {
	var groups []KeyGroup
	fields := strings.FieldsFunc(spec, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	for _, f := range fields {
		digits := strings.IndexFunc(f, func(r rune) bool { return r < '0' || r > '9' })
		if digits < 0 {
			digits = len(f)
		}
		if digits == 0 {
			return nil, fmt.Errorf("%w: %q does not start with a number", ErrInvalidSortKey, f)
		}
		n, err := strconv.Atoi(f[:digits])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: %q is not a group number", ErrInvalidSortKey, f)
		}
		g := KeyGroup{Index: n, Descending: desc, Type: typ}
		for _, c := range strings.ToLower(f[digits:]) {
			switch c {
			case 'a':
				g.Descending = false
			case 'd':
				g.Descending = true
			case 'b':
				g.Type = SortBinary
			case 'l':
				g.Type = SortLocale
			case 'n':
				g.Type = SortNumeric
			default:
				return nil, fmt.Errorf("%w: unknown suffix %q in %q", ErrInvalidSortKey, c, f)
			}
		}
		groups = append(groups, g)
	}
	return groups, nil
}

type sortKey struct {
	text string
	coll []byte
	num  float64
	typ  SortType
	desc bool
}

func compareKey(a, b sortKey) int {
	var c int
	switch a.typ {
	case SortNumeric:
		an, bn := math.IsNaN(a.num), math.IsNaN(b.num)
		switch {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		}
		c = cmp.Compare(a.num, b.num)
	case SortLocale:
		c = bytes.Compare(a.coll, b.coll)
	default:
		c = strings.Compare(a.text, b.text)
	}
	if a.desc {
		c = -c
	}
	return c
}

func compareKeys(a, b []sortKey) int {
	for i := range min(len(a), len(b)) {
		if c := compareKey(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

// keyMaker turns row text into keys.
type keyMaker struct {
	spec   SortSpec
	groups []KeyGroup
	re     *regex.Regex
	st     numeric.Settings
	coll   *collate.Collator
	buf    collate.Buffer
	indent bool
}

func newKeyMaker(spec SortSpec, st numeric.Settings) (*keyMaker, error) {
	k := &keyMaker{spec: spec, st: st}
	if spec.KeyType == KeyTabbed || spec.KeyType == KeyRegex {
		groups, err := ParseKeyGroups(spec.Groups, spec.Type, spec.Descending)
		if err != nil {
			return nil, err
		}
		k.groups = groups
	}
	if spec.KeyType == KeyRegex {
		re, err := regex.Compile(spec.Regex, regex.Options{MatchCase: spec.MatchCase})
		if err != nil {
			return nil, err
		}
		k.re = re
	}
	uses := spec.Type == SortLocale
	for _, g := range k.groups {
		uses = uses || g.Type == SortLocale
	}
	if uses {
		tag := language.Und
		if spec.Locale.Tag != "" {
			t, err := language.Parse(spec.Locale.Tag)
			if err != nil {
				return nil, fmt.Errorf("%w: locale %q: %v", ErrInvalidSortKey, spec.Locale.Tag, err)
			}
			tag = t
		}
		var opts []collate.Option
		if !spec.Locale.CaseSensitive {
			opts = append(opts, collate.IgnoreCase)
		}
		if spec.Locale.IgnoreDiacritics {
			opts = append(opts, collate.IgnoreDiacritics)
		}
		if spec.Locale.DigitsAsNumbers {
			opts = append(opts, collate.Numeric)
		}
		k.coll = collate.New(tag, opts...)
	}
	return k, nil
}

func (k *keyMaker) key(text string, typ SortType, desc bool) sortKey {
	sk := sortKey{text: text, typ: typ, desc: desc}
	switch typ {
	case SortNumeric:
		sk.num = numeric.Parse(strings.Trim(text, " "), k.st).Value
	case SortLocale:
		if k.spec.Locale.IgnoreSymbols {
			text = strings.Map(func(r rune) rune {
				if unicode.IsPunct(r) || unicode.IsSymbol(r) {
					return -1
				}
				return r
			}, text)
		}
		sk.coll = k.coll.KeyFromString(&k.buf, text)
	}
	return sk
}

// keys builds the key sequence for the selected text of one row.
func (k *keyMaker) keys(text string) []sortKey {
	spec := k.spec
	if k.indent {
		text = strings.TrimLeft(text, "\t")
	}
	switch spec.KeyType {
	case KeyTabbed:
		cells := strings.Split(text, "\t")
		if len(k.groups) == 0 {
			keys := make([]sortKey, len(cells))
			for i, c := range cells {
				keys[i] = k.key(strings.Trim(c, " "), spec.Type, spec.Descending)
			}
			return keys
		}
		keys := make([]sortKey, len(k.groups))
		for i, g := range k.groups {
			cell := ""
			if g.Index <= len(cells) {
				cell = strings.Trim(cells[g.Index-1], " ")
			}
			keys[i] = k.key(cell, g.Type, g.Descending)
		}
		return keys

	case KeyRegex:
		m, ok := k.re.FindString(text)
		groups := k.groups
		if len(groups) == 0 {
			if k.re.Groups() == 0 {
				groups = []KeyGroup{{Index: 0, Type: spec.Type, Descending: spec.Descending}}
			} else {
				for i := 1; i <= k.re.Groups(); i++ {
					groups = append(groups, KeyGroup{Index: i, Type: spec.Type, Descending: spec.Descending})
				}
			}
		}
		keys := make([]sortKey, len(groups))
		for i, g := range groups {
			s := ""
			if ok {
				s = m.Text(g.Index)
			}
			keys[i] = k.key(s, g.Type, g.Descending)
		}
		return keys

	case KeyIgnoreBlanks:
		if spec.Type != SortNumeric {
			text = strings.Map(func(r rune) rune {
				if r == ' ' || r == '\t' {
					return -1
				}
				return r
			}, text)
			return []sortKey{k.key(text, spec.Type, spec.Descending)}
		}
	}

	if spec.Type == SortNumeric {
		cells := strings.Split(text, "\t")
		keys := make([]sortKey, len(cells))
		for i, c := range cells {
			keys[i] = k.key(c, SortNumeric, spec.Descending)
		}
		return keys
	}
	return []sortKey{k.key(strings.Trim(text, " "), spec.Type, spec.Descending)}
}

// Sort reorders the rows of the selection by keys taken from the selected
// text. The sort is stable. Whole lines move unless spec.ColumnOnly is
// set; line terminators stay where they are either way.
func Sort(ctx context.Context, h host.Host, opts Options, spec SortSpec) (Result, error) {
	k, err := newKeyMaker(spec, opts.Numeric)
	if err != nil {
		return Result{}, err
	}
	s, err := read(ctx, h, opts)
	if s == nil || s.Size() < 2 {
		return Result{}, err
	}
	k.indent = opts.indentsLeadingTabs(s)

	n := s.Size()
	texts := make([]string, n)
	for row := range s.BottomUp(false).Rows() {
		texts[topIndex(s, row.Index)] = row.Text()
	}
	keys := make([][]sortKey, n)
	order := make([]int, n)
	for i, t := range texts {
		keys[i] = k.keys(t)
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return compareKeys(keys[a], keys[b]) })
	if slices.IsSorted(order) {
		return Result{}, nil
	}

	err = edit(h, func() error {
		if spec.ColumnOnly {
			return sortColumn(ctx, s, texts, order)
		}
		return sortLines(ctx, h, s, order)
	})
	return Result{Changed: err == nil}, err
}

func sortColumn(ctx context.Context, s *rect.Selection, texts []string, order []int) error {
	for row := range s.BottomUp(true).Rows() {
		if err := row.Replace(texts[order[topIndex(s, row.Index)]]); err != nil {
			return err
		}
	}
	return s.Refit(ctx, false)
}

func sortLines(ctx context.Context, h host.Host, s *rect.Selection, order []int) error {
	top := s.Top().Line
	n := len(order)
	contents := make([]string, n)
	terminators := make([]string, n)
	for i := range n {
		line := top + i
		end := h.LineEndPosition(line)
		contents[i] = h.TextRange(h.PositionFromLine(line), end)
		if line+1 < h.LineCount() {
			terminators[i] = h.TextRange(end, h.PositionFromLine(line+1))
		}
	}
	var b strings.Builder
	for i, j := range order {
		b.WriteString(contents[j])
		if i < n-1 {
			b.WriteString(terminators[i])
		}
	}
	start, end := h.PositionFromLine(top), h.LineEndPosition(top+n-1)
	if err := h.Replace(start, end, b.String()); err != nil {
		return fmt.Errorf("sort lines %d-%d: %w", top, top+n-1, err)
	}
	return s.Reselect(ctx)
}
