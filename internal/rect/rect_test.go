package rect

import (
	"context"
	"testing"

	"github.com/pstuifzand/tui-columns/internal/buffer"
	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/pstuifzand/tui-columns/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(text string) *buffer.Document {
	d := buffer.NewDocument(text, metrics.CellMetrics{Cell: 1})
	d.SetTabWidth(4)
	return d
}

func rowTexts(s *Selection) []string {
	var out []string
	for r := range s.Rows() {
		out = append(out, r.Text())
	}
	return out
}

func TestRowsAndCells(t *testing.T) {
	d := newDoc("a\tbb\tc\n  x \ty")
	d.SetRectangularSelection(0, 0, d.Length(), 0)
	s := New(d, Options{})
	require.Equal(t, 2, s.Size())
	assert.True(t, s.TopToBottom())
	assert.Equal(t, []string{"a\tbb\tc", "  x \ty"}, rowTexts(s))

	cells := s.Row(0).Cells()
	require.Len(t, cells, 3)
	assert.Equal(t, "bb", cells[1].Text())
	assert.Equal(t, "\t", cells[1].Terminator())
	assert.True(t, cells[2].IsLastInRow())
	assert.True(t, cells[2].IsEndOfLine())
	assert.Equal(t, "", cells[2].Terminator())

	row := s.Row(1)
	cells = row.Cells()
	require.Len(t, cells, 2)
	c := cells[0]
	assert.Equal(t, "  x ", c.Text())
	assert.Equal(t, "x", c.Trim())
	assert.Equal(t, 2, c.Leading())
	assert.Equal(t, 1, c.Trailing())
	assert.Equal(t, []int{7, 9, 10, 11}, []int{c.Start(), c.Left(), c.Right(), c.End()})
	assert.Equal(t, "y", cells[1].Trim())
}

func TestCellEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"trailing tab", "a\t", []string{"a", ""}},
		{"empty row", "", []string{""}},
		{"blank cell", "   \tb", []string{"", "b"}},
		{"adjacent tabs", "a\t\tb", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDoc(tt.text + "\nzzzzzzzzzz")
			end := d.LineEndPosition(0)
			d.SetRectangularSelection(0, 0, end, 0)
			s := New(d, Options{})
			var got []string
			for _, c := range s.Row(0).Cells() {
				got = append(got, c.Trim())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStreamSelectionIsEmptyWithoutPolicy(t *testing.T) {
	d := newDoc("abc\ndef")
	d.SetSelection(1, 2)
	s, err := Get(context.Background(), d, Options{})
	require.NoError(t, err)
	assert.Zero(t, s.Size())
}

func TestExtendSingleLine(t *testing.T) {
	d := newDoc("abc\ndef\nghi\n")
	d.SetSelection(1, 2)
	s, err := Get(context.Background(), d, Options{Policy: Policy{ExtendSingleLine: true}})
	require.NoError(t, err)
	require.Equal(t, 3, s.Size())
	assert.Equal(t, host.ModeRectangle, d.SelectionMode())
	assert.Equal(t, []string{"b", "e", "h"}, rowTexts(s))
}

func TestExtendSingleLineUpFromLastLine(t *testing.T) {
	d := newDoc("abc\ndef\nghi")
	d.SetSelection(9, 10)
	s, err := Get(context.Background(), d, Options{Policy: Policy{Stream: StreamRestOfLines}})
	require.NoError(t, err)
	require.Equal(t, 3, s.Size())
	assert.Equal(t, []string{"b", "e", "h"}, rowTexts(s))
}

func TestExtendFullLines(t *testing.T) {
	d := newDoc("a\tb\nccc\tdd\n")
	d.SetSelection(0, d.Length())
	s, err := Get(context.Background(), d, Options{Policy: Policy{ExtendFullLines: true}})
	require.NoError(t, err)
	require.Equal(t, 2, s.Size())
	assert.Equal(t, []string{"a\tb", "ccc\tdd"}, rowTexts(s))
	assert.Equal(t, 1, s.Row(0).VSMax(), "short line padded with virtual space")
}

func TestExtendZeroWidth(t *testing.T) {
	d := newDoc("ab\ncdef")
	d.SetRectangularSelection(1, 0, 4, 0)

	s, err := Get(context.Background(), d, Options{})
	require.NoError(t, err)
	assert.Zero(t, s.Size())

	d.SetRectangularSelection(1, 0, 4, 0)
	s, err = Get(context.Background(), d, Options{Policy: Policy{ExtendZeroWidth: true}})
	require.NoError(t, err)
	require.Equal(t, 2, s.Size())
	assert.Equal(t, []string{"b", "def"}, rowTexts(s))
}

func TestExtendCaretToWholeDocument(t *testing.T) {
	d := newDoc("ab\ncd\nef")
	d.SetSelection(0, 0)
	s, err := Get(context.Background(), d, Options{Policy: Policy{Stream: StreamRestOfLines}})
	require.NoError(t, err)
	require.Equal(t, 3, s.Size())
	assert.Equal(t, []string{"ab", "cd", "ef"}, rowTexts(s))
}

func TestBottomUpIteration(t *testing.T) {
	d := newDoc("1\n2\n3")
	d.SetRectangularSelection(0, 0, d.Length(), 0)
	s := New(d, Options{})
	assert.Equal(t, []string{"3", "2", "1"}, rowTexts(s.BottomUp(true)))
	assert.Equal(t, []string{"1", "2", "3"}, rowTexts(s.BottomUp(false)))
	assert.Equal(t, "3", s.Reverse().Front().Text())
}

func TestRefitKeepsPixelColumns(t *testing.T) {
	d := newDoc("abc\nabcdef")
	d.SetRectangularSelection(0, 0, d.Length(), 0)
	s := New(d, Options{})
	require.Equal(t, 3, d.SelectionNCaretVirtualSpace(0))

	require.NoError(t, s.Row(0).Replace("x"))
	require.NoError(t, s.Refit(context.Background(), false))

	assert.Equal(t, "x\nabcdef", d.String())
	assert.Equal(t, 1, d.SelectionNCaret(0))
	assert.Equal(t, 5, d.SelectionNCaretVirtualSpace(0))
	assert.Equal(t, 0, s.Anchor().X)
	assert.Equal(t, 6, s.Caret().X)
}

func TestRefitAddLine(t *testing.T) {
	d := newDoc("1\n2\n")
	d.SetRectangularSelection(0, 0, 3, 0)
	s := New(d, Options{})
	require.Equal(t, 2, s.Size())
	require.NoError(t, d.InsertText(d.Length(), "3"))
	require.NoError(t, s.Refit(context.Background(), true))
	assert.Equal(t, 3, s.Size())
	assert.Equal(t, []string{"1", "2", "3"}, rowTexts(s))
}

func TestSelectCommands(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		anchor int
		caret  int
		cmd    func(context.Context, host.Host, Layout) error
		want   []string
	}{
		{"down", 1, 2, SelectDown, []string{"h", "d", "b"}},
		{"up", 9, 10, SelectUp, []string{"b", "d", "h"}},
		{"left", 9, 10, SelectLeft, []string{"gh"}},
		{"right", 1, 1, SelectRight, []string{"b"}},
		{"enclose", 1, 6, SelectEnclose, []string{"ab", "cde"}},
		{"extend single line", 1, 2, SelectExtend, []string{"h", "d", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDoc("ab\ncdef\ngh\n")
			d.SetSelection(tt.anchor, tt.caret)
			require.NoError(t, tt.cmd(ctx, d, nil))
			assert.Equal(t, host.ModeRectangle, d.SelectionMode())
			assert.Equal(t, tt.want, d.SelectedText())
		})
	}
}

func TestParseStreamPolicy(t *testing.T) {
	p, err := ParseStreamPolicy("rest-of-lines")
	require.NoError(t, err)
	assert.Equal(t, StreamRestOfLines, p)
	assert.Equal(t, "rest-of-lines", p.String())
	_, err = ParseStreamPolicy("sideways")
	assert.Error(t, err)
}
