package elastic

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pstuifzand/tui-columns/internal/buffer"
	"github.com/pstuifzand/tui-columns/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(text string) *buffer.Document {
	d := buffer.NewDocument(text, metrics.CellMetrics{Cell: 1})
	d.SetTabWidth(4)
	return d
}

func open(t *testing.T, d *buffer.Document, p Profile) *State {
	t.Helper()
	s := NewEngine().Open(t.Name(), d, Settings{Profile: p, Enabled: true})
	require.NoError(t, s.Update(context.Background()))
	return s
}

func TestColumnsLineUp(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		text    string
		want    [][]int
	}{
		{
			name:    "two columns",
			profile: Classic,
			text:    "a\tbb\tc\naaaa\tb\tc",
			want:    [][]int{{6, 10}, {6, 10}},
		},
		{
			name:    "blank line separates blocks",
			profile: Classic,
			text:    "a\tb\n\naaaaaa\tb",
			want:    [][]int{{4}, nil, {8}},
		},
		{
			name:    "leading tabs indent",
			profile: General,
			text:    "\tfoo\tbar\n\tx\ty",
			want:    [][]int{{4, 9}, {4, 9}},
		},
		{
			name:    "tabular",
			profile: Tabular,
			text:    "a\tbbb\naa\tb",
			want:    [][]int{{4}, {4}},
		},
		{
			name:    "lines without tabs",
			profile: Classic,
			text:    "plain\na\tb",
			want:    [][]int{nil, {4}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDoc(tt.text)
			open(t, d, tt.profile)
			for line, want := range tt.want {
				assert.Equal(t, want, d.TabStopsOf(line), "line %d", line)
			}
		})
	}
}

func TestTreeShape(t *testing.T) {
	d := newDoc("a\tbb\tc\naaaa\tb\tc")
	s := open(t, d, Classic)
	tree := s.Tree()
	roots := tree.Children(-1)
	require.Len(t, roots, 1)
	root := tree.Block(roots[0])
	assert.Equal(t, 0, root.FirstLine)
	assert.Equal(t, 1, root.LastLine)
	assert.Equal(t, 6, root.Width)
	require.Len(t, root.Children, 1)
	assert.Equal(t, 4, tree.Block(root.Children[0]).Width)
	assert.Contains(t, s.Dump(), "Width")
}

func TestApplyIsIdempotent(t *testing.T) {
	d := newDoc("a\tbb\tc\naaaa\tb\tc\n\nx\ty")
	rec := buffer.NewRecorder(d)
	s := NewState(rec, Settings{Profile: Classic, Enabled: true})
	ctx := context.Background()

	require.NoError(t, s.Update(ctx))
	assert.NotZero(t, rec.Mutations())

	rec.Reset()
	require.NoError(t, s.Update(ctx))
	assert.Zero(t, rec.Mutations(), "clean lines are skipped")

	require.NoError(t, s.Refresh(ctx, 0, -1))
	assert.Zero(t, rec.Mutations(), "reanalysis that finds the same layout changes nothing")
}

func TestApplyTwiceWithWideGlyphs(t *testing.T) {
	texts := []string{
		"漢字漢字\tb\nab\tc\nWWW\tiii\td",
		"ab\tc\n漢字漢字\tb\n\tx\ty",
		"\t漢字\tz\n\ta\tb\tc",
	}
	for _, p := range []Profile{Classic, General, Tabular} {
		for _, cell := range []int{1, 8} {
			for i, text := range texts {
				t.Run(fmt.Sprintf("%s/cell%d/%d", p.Name, cell, i), func(t *testing.T) {
					d := buffer.NewDocument(text, metrics.CellMetrics{Cell: cell})
					d.SetTabWidth(4)
					rec := buffer.NewRecorder(d)
					s := NewState(rec, Settings{Profile: p, Enabled: true})
					ctx := context.Background()
					require.NoError(t, s.Update(ctx))
					require.True(t, s.AssumeMonospace())
					stops := make([][]int, d.LineCount())
					for line := range stops {
						stops[line] = d.TabStopsOf(line)
					}

					rec.Reset()
					require.NoError(t, s.Refresh(ctx, 0, -1))
					assert.Zero(t, rec.Mutations(), "second full pass")
					for line := range stops {
						assert.Equal(t, stops[line], d.TabStopsOf(line), "line %d", line)
					}
				})
			}
		}
	}
}

func TestWideGlyphsWidenBeforeInstall(t *testing.T) {
	d := newDoc("ab\tc\n漢字漢字\tb")
	rec := buffer.NewRecorder(d)
	s := NewState(rec, Settings{Profile: Classic, Enabled: true})
	require.NoError(t, s.Update(context.Background()))
	assert.Equal(t, []int{10}, d.TabStopsOf(0))
	assert.Equal(t, []int{10}, d.TabStopsOf(1))
	assert.Equal(t, 2, rec.Adds, "each line gets its stop once")
}

func TestIncrementalInsert(t *testing.T) {
	d := newDoc("a\tb\naaaa\tb")
	s := open(t, d, Classic)
	root := s.Tree().Children(-1)[0]
	assert.Equal(t, 6, s.Tree().Block(root).Width)

	require.NoError(t, d.InsertText(0, "xxxxx"))
	assert.False(t, s.AnalysisRequired())
	assert.Equal(t, 8, s.Tree().Block(root).Width)

	require.NoError(t, s.Update(context.Background()))
	assert.Equal(t, []int{8}, d.TabStopsOf(0))
	assert.Equal(t, []int{8}, d.TabStopsOf(1))

	require.NoError(t, d.InsertText(d.LineEndPosition(0), "y"))
	assert.False(t, s.AnalysisRequired(), "narrow insert leaves the tree alone")
	assert.Equal(t, 8, s.Tree().Block(root).Width)
}

func TestEditsRequiringAnalysis(t *testing.T) {
	tests := []struct {
		name string
		edit func(d *buffer.Document) error
	}{
		{"new line", func(d *buffer.Document) error { return d.InsertText(1, "\n") }},
		{"inserted tab", func(d *buffer.Document) error { return d.InsertText(0, "\t") }},
		{"delete bottleneck", func(d *buffer.Document) error {
			start := d.PositionFromLine(1)
			return d.Replace(start, start+4, "")
		}},
		{"delete across lines", func(d *buffer.Document) error { return d.Replace(2, 6, "") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDoc("a\tb\naaaa\tb")
			s := open(t, d, Classic)
			require.False(t, s.AnalysisRequired())
			require.NoError(t, tt.edit(d))
			assert.True(t, s.AnalysisRequired())
		})
	}
}

func TestLayoutNeutralDelete(t *testing.T) {
	d := newDoc("a\tb\naaaa\tb")
	s := open(t, d, Classic)
	require.NoError(t, d.Replace(0, 1, ""))
	assert.False(t, s.AnalysisRequired())
	assert.Equal(t, "\tb\naaaa\tb", d.String())
}

func TestMonospaceFallback(t *testing.T) {
	d := newDoc("日本語\tx\nab\ty")
	s := open(t, d, Classic)
	require.True(t, s.AssumeMonospace())
	root := s.Tree().Children(-1)[0]
	assert.Equal(t, 8, s.Tree().Block(root).Width)
	assert.Equal(t, []int{8}, d.TabStopsOf(0))
	assert.Equal(t, []int{8}, d.TabStopsOf(1))
	assert.Equal(t, 8, d.PointXFromPosition(len("日本語\t")))
}

func TestProportionalMeasurement(t *testing.T) {
	d := buffer.NewDocument("iii\tx\nWW\ty", metrics.NewGoRegular(14))
	s := NewState(d, Settings{Profile: Classic, Enabled: true})
	require.NoError(t, s.Update(context.Background()))
	assert.False(t, s.AssumeMonospace())

	stop := d.TabStopsOf(0)[0]
	assert.Equal(t, stop, d.TabStopsOf(1)[0])
	widest := max(d.PointXFromPosition(3), d.PointXFromPosition(d.PositionFromLine(1)+2))
	assert.Equal(t, widest+2*d.TextWidth(" "), stop)
}

func TestBatchedAnalysis(t *testing.T) {
	d := newDoc(strings.Repeat("a\tb\n", 249) + "a\tb")
	s := NewEngine().Open("batched", d, Settings{Profile: Classic, Enabled: true})
	job := s.Analyze()

	p := job.Step()
	assert.False(t, p.Done)
	assert.Equal(t, 100, p.Processed)
	assert.Equal(t, 250, p.Total)

	require.NoError(t, d.InsertText(0, "x"))
	p = job.Step()
	assert.Equal(t, 100, p.Processed, "an edit restarts the analysis")

	p = job.Step()
	assert.Equal(t, 200, p.Processed)
	p = job.Step()
	assert.True(t, p.Done)
	assert.False(t, s.AnalysisRequired())
	assert.Equal(t, 250, s.Dirty().Len())
	assert.Equal(t, 250, s.Dirty().Pending())
}

func TestRunHonoursCancellation(t *testing.T) {
	d := newDoc(strings.Repeat("a\tb\n", 500))
	s := NewState(d, Settings{Profile: Classic, Enabled: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, s.Analyze())
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, s.AnalysisRequired())
}

func TestDisableClearsStops(t *testing.T) {
	d := newDoc("a\tb\naaaa\tb")
	s := open(t, d, Classic)
	require.NotNil(t, d.TabStopsOf(0))
	s.SetEnabled(false)
	assert.Nil(t, d.TabStopsOf(0))
	assert.Nil(t, d.TabStopsOf(1))
}

func TestTabsToSpaces(t *testing.T) {
	d := newDoc("a\tb\naaaa\tb")
	s := NewState(d, Settings{Profile: Classic, Enabled: true})
	require.NoError(t, s.TabsToSpaces(context.Background()))
	assert.Equal(t, "a     b\naaaa  b", d.String())
	assert.True(t, d.Undo())
	assert.Equal(t, "a\tb\naaaa\tb", d.String())
}

func TestProfileFor(t *testing.T) {
	sel := DefaultSelector()
	sel.Enabled = true

	got := sel.ProfileFor("data.tsv", []byte("a\tb\n"), 1)
	assert.Equal(t, "Tabular", got.Name)
	assert.True(t, got.Enabled)

	got = sel.ProfileFor("main.go", []byte("package main\n\nfunc main() {}\n"), 3)
	assert.Equal(t, "General", got.Name)
	assert.True(t, got.Enabled)

	sel.Extensions["log"] = ""
	got = sel.ProfileFor("server.log", nil, 0)
	assert.False(t, got.Enabled)

	small := Selector{Extensions: map[string]string{"tsv": "Tabular"}, DisableOverSize: 1}
	got = small.ProfileFor("big.tsv", []byte(strings.Repeat("x\ty\n", 600)), 600)
	assert.Equal(t, "Tabular", got.Name)
	assert.False(t, got.Enabled)

	_, ok := sel.Lookup("nope")
	assert.False(t, ok)
	assert.Equal(t, MonospaceAlways, ParseMonospace("always"))
}
