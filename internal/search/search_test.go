package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/tui-columns/internal/buffer"
	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/pstuifzand/tui-columns/internal/metrics"
	"github.com/pstuifzand/tui-columns/internal/numeric"
	"github.com/pstuifzand/tui-columns/internal/rect"
	"github.com/pstuifzand/tui-columns/internal/regex"
)

func newSession(text string, opts Options, find, replace string) (*Session, *buffer.Document) {
	d := buffer.NewDocument(text, metrics.CellMetrics{Cell: 1})
	d.SetTabWidth(4)
	s := New(d, rect.Options{}, numeric.DefaultSettings())
	s.SetOptions(opts)
	s.SetFind(find)
	s.SetReplace(replace)
	return s, d
}

func selection(d *buffer.Document) [2]int {
	return [2]int{d.SelectionNAnchor(0), d.SelectionNCaret(0)}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`a\tb`, "a\tb"},
		{`\r\n`, "\r\n"},
		{`\0`, "\x00"},
		{`\\n`, `\n`},
		{`\x41`, "A"},
		{`\d065`, "A"},
		{`\o101`, "A"},
		{`\b01000001`, "A"},
		{`\u00e9`, "é"},
		{`\q`, `\q`},
		{`\x4`, `\x4`},
		{`\d999`, `\d999`},
		{`end\`, `end\`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Unescape(tt.in))
		})
	}
}

func TestParseFormat(t *testing.T) {
	st := numeric.DefaultSettings()
	tests := []struct {
		body  string
		expr  string
		value float64
		want  string
	}{
		{"$1*2", "$1*2", 6, "6"},
		{":$1*2", "$1*2", 6, "6"},
		{".2:$1/4", "$1/4", 0.75, "0.75"},
		{".1-3:$1/8", "$1/8", 0.375, "0.375"},
		{".2-3:$1", "$1", 3, "3.00"},
		{",:$1*1000", "$1*1000", 3000, "3,000"},
		{"3:$1", "$1", 3, "003"},
		{"$1 > 2 ? 1 : 0", "$1 > 2 ? 1 : 0", 1, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			f, expr := parseFormat(tt.body, st)
			assert.Equal(t, tt.expr, expr)
			assert.Equal(t, tt.want, numeric.FormatValue(tt.value, f, st))
		})
	}
}

func TestReplaceAllWithFormula(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		find    string
		replace string
		want    string
	}{
		{"double", "3\n5\n2", `(\d+)`, `(?=$1*2)`, "6\n10\n4"},
		{"running total", "3\n5\n2", `\d+`, `(?=this+last())`, "3\n8\n10"},
		{"previous match", "3\n5\n2", `(\d+)`, `(?=reg(1,1,0))`, "0\n3\n5"},
		{"earlier formula", "3\n5", `(\d+)`, `(?=$1*2) (?=sub(1)+1)`, "6 7\n10 11"},
		{"literal groups around formula", "a=3", `(\w)=(\d)`, `$1:(?=.1:$2/2)`, "a:1.5"},
		{"match number", "x\nx\nx", `x`, `(?=match)`, "1\n2\n3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, d := newSession(tt.text, Options{Mode: Regex}, tt.find, tt.replace)
			_, err := s.ReplaceAll(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestReplaceAllHistory(t *testing.T) {
	s, d := newSession("3\n5\n2", Options{Mode: Regex}, `(\d+)`, `(?=$1*2)`)
	n, err := s.ReplaceAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "6\n10\n4", d.String())
	assert.Equal(t, "3 replacements made in selection.", s.Message)
	assert.Equal(t, []float64{4}, s.hist.lastFinite)
	assert.Equal(t, [][]float64{{6}, {10}, {4}}, s.hist.results)

	s.SetReplace(`(?=$1)`)
	assert.Empty(t, s.hist.values, "history is forgotten when the replacement changes")

	assert.True(t, d.CanUndo())
	d.Undo()
	assert.Equal(t, "3\n5\n2", d.String(), "replace all is one undo action")
}

// readOnlyOnce rejects the first n replacements.
type readOnlyOnce struct {
	*buffer.Document
	n int
}

func (r *readOnlyOnce) Replace(start, end int, text string) error {
	if r.n > 0 {
		r.n--
		return errors.New("document is read-only")
	}
	return r.Document.Replace(start, end, text)
}

func TestReplaceAllFailureKeepsHistory(t *testing.T) {
	d := buffer.NewDocument("x\nx\nx", metrics.CellMetrics{Cell: 1})
	s := New(&readOnlyOnce{Document: d, n: 1}, rect.Options{}, numeric.DefaultSettings())
	s.SetOptions(Options{Mode: Regex})
	s.SetFind(`x`)
	s.SetReplace(`(?=match)`)
	ctx := context.Background()

	_, err := s.ReplaceAll(ctx)
	require.Error(t, err)
	assert.Equal(t, "x\nx\nx", d.String())
	assert.Empty(t, s.hist.values)

	n, err := s.ReplaceAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "1\n2\n3", d.String(), "matches are numbered from the first committed replacement")
}

func TestReplaceAllNoMatches(t *testing.T) {
	s, d := newSession("abc", Options{}, "x", "y")
	n, err := s.ReplaceAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "No replacements made in selection.", s.Message)
	assert.False(t, d.CanUndo())
}

func TestReplaceAllBadFormula(t *testing.T) {
	for _, repl := range []string{"(?=1+", "(?=1+)"} {
		t.Run(repl, func(t *testing.T) {
			s, d := newSession("1", Options{Mode: Regex}, `\d`, repl)
			_, err := s.ReplaceAll(context.Background())
			assert.True(t, errors.Is(err, ErrInvalidReplacement))
			assert.Equal(t, "1", d.String())
		})
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		opts Options
		find string
		want int
		msg  string
	}{
		{"normal", "ab Ab ab", Options{}, "ab", 3, "3 matches found in selection."},
		{"match case", "ab Ab ab", Options{MatchCase: true}, "Ab", 1, "One match found in selection."},
		{"whole word", "cat concat cat", Options{WholeWord: true}, "cat", 2, "2 matches found in selection."},
		{"extended tab", "a\tb\tc", Options{Mode: Extended}, `\t`, 2, "2 matches found in selection."},
		{"normal keeps backslash", "a\tb", Options{}, `\t`, 0, "No matches found in selection."},
		{"regex", "a1 b22 c333", Options{Mode: Regex}, `\d+`, 3, "3 matches found in selection."},
		{"regex metacharacters in normal mode", "a.b axb", Options{}, ".", 1, "One match found in selection."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSession(tt.text, tt.opts, tt.find, "")
			n, err := s.Count(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
			assert.Equal(t, tt.msg, s.Message)
		})
	}
}

func TestCountEmptyFind(t *testing.T) {
	s, _ := newSession("abc", Options{}, "", "")
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "No string to find.", s.Message)
}

func TestInvalidPattern(t *testing.T) {
	s, _ := newSession("abc", Options{Mode: Regex}, "(", "")
	_, err := s.Find(context.Background())
	assert.True(t, errors.Is(err, regex.ErrInvalidPattern))
}

func TestRegionFromRectangle(t *testing.T) {
	s, d := newSession("a1\na2\na3", Options{}, "a", "")
	d.SetRectangularSelection(0, 0, d.PositionFromLine(1)+1, 0)
	ok, err := s.ConvertSelectionToRegion(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []host.Span{{Start: 0, End: 1}, {Start: 3, End: 4}}, s.Region())

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	s.SetFind("1")
	n, err = s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegionNeedsBlockOrMultipleSelection(t *testing.T) {
	s, d := newSession("abc", Options{}, "a", "")
	d.SetSelection(0, 2)
	ok, err := s.ConvertSelectionToRegion(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "No rectangular or multiple selection in which to search.", s.Message)
	assert.False(t, s.HasRegion())
}

func TestFindWraps(t *testing.T) {
	s, d := newSession("ab ab ab", Options{}, "ab", "")
	ctx := context.Background()
	for _, want := range [][2]int{{0, 2}, {3, 5}, {6, 8}} {
		ok, err := s.Find(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, selection(d))
	}
	ok, err := s.Find(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "No more matches found in selection.", s.Message)

	ok, err = s.Find(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, [2]int{0, 2}, selection(d))
}

func TestFindBackward(t *testing.T) {
	s, d := newSession("ab ab ab", Options{Backward: true}, "ab", "")
	ctx := context.Background()
	for _, want := range [][2]int{{6, 8}, {3, 5}, {0, 2}} {
		ok, err := s.Find(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, selection(d))
	}
	ok, err := s.Find(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindSkipsRevisitedEmptyMatch(t *testing.T) {
	s, d := newSession("a\nb", Options{Mode: Regex}, "^", "")
	ctx := context.Background()
	ok, err := s.Find(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 0}, selection(d))

	ok, err = s.Find(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, [2]int{2, 2}, selection(d))

	ok, err = s.Find(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplaceRevalidates(t *testing.T) {
	s, d := newSession("x1 x2", Options{Mode: Regex}, `x\d`, "y")
	ctx := context.Background()

	ok, err := s.Replace(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x1 x2", d.String(), "nothing selected, so replace finds")
	assert.Equal(t, [2]int{0, 2}, selection(d))

	_, err = s.Replace(ctx)
	require.NoError(t, err)
	assert.Equal(t, "y x2", d.String())
	assert.Equal(t, "Match replaced.", s.Message)
	assert.Equal(t, [2]int{0, 1}, selection(d))

	_, err = s.Replace(ctx)
	require.NoError(t, err)
	assert.Equal(t, "y x2", d.String(), "the replacement does not match, so replace finds")
	assert.Equal(t, [2]int{2, 4}, selection(d))

	_, err = s.Replace(ctx)
	require.NoError(t, err)
	assert.Equal(t, "y y", d.String())
}

func TestReplaceKeepsHistoryAcrossCalls(t *testing.T) {
	s, d := newSession("x1 x2 x3", Options{Mode: Regex}, `x(\d)`, `(?=$1+last())`)
	ctx := context.Background()
	for range 6 {
		_, err := s.Replace(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, "1 3 6", d.String())
}

func TestSelectAll(t *testing.T) {
	s, d := newSession("ab x ab", Options{}, "ab", "")
	n, err := s.SelectAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, d.Selections())
	assert.Equal(t, []string{"ab", "ab"}, d.SelectedText())
}

func TestCloseClearsRegion(t *testing.T) {
	s, _ := newSession("abc", Options{AutoClear: true}, "b", "")
	_, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.True(t, s.HasRegion())
	s.Close()
	assert.False(t, s.HasRegion())
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Normal, Extended, Regex} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("glob")
	assert.Error(t, err)
}
