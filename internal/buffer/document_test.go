package buffer

import (
	"errors"
	"testing"

	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/pstuifzand/tui-columns/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(text string) *Document {
	d := NewDocument(text, metrics.CellMetrics{Cell: 1})
	d.SetTabWidth(4)
	return d
}

func TestLines(t *testing.T) {
	d := newDoc("ab\r\ncd\nef")
	assert.Equal(t, 3, d.LineCount())
	assert.Equal(t, []string{"ab", "cd", "ef"}, d.Lines())
	assert.Equal(t, 2, d.LineEndPosition(0))
	assert.Equal(t, 4, d.PositionFromLine(1))
	assert.Equal(t, 1, d.LineFromPosition(5))
	assert.Equal(t, 2, d.LineFromPosition(d.Length()))

	trailing := newDoc("a\n")
	assert.Equal(t, 2, trailing.LineCount())
	assert.Equal(t, 1, trailing.LineFromPosition(2))
	assert.Equal(t, "", trailing.Line(1))
}

func TestCharacterStepping(t *testing.T) {
	d := newDoc("aé日\r\nx")
	p := d.PositionAfter(0)
	assert.Equal(t, 1, p)
	p = d.PositionAfter(p)
	assert.Equal(t, 3, p)
	p = d.PositionAfter(p)
	assert.Equal(t, 6, p)
	p = d.PositionAfter(p)
	assert.Equal(t, 8, p)
	assert.Equal(t, 6, d.PositionBefore(8))
	assert.Equal(t, 3, d.PositionBefore(6))
	assert.Equal(t, 3, d.CountCharacters(0, 6))
}

func TestPointXWithTabs(t *testing.T) {
	d := newDoc("a\tb\tc")
	assert.Equal(t, 0, d.PointXFromPosition(0))
	assert.Equal(t, 1, d.PointXFromPosition(1))
	assert.Equal(t, 4, d.PointXFromPosition(2))
	assert.Equal(t, 8, d.PointXFromPosition(4))

	d.AddTabStop(0, 6)
	assert.Equal(t, 6, d.PointXFromPosition(2))
	assert.Equal(t, 8, d.PointXFromPosition(4), "tabs past the custom stops fall back to the default width")
	assert.Equal(t, 6, d.GetNextTabStop(0, 0))
	assert.Equal(t, 0, d.GetNextTabStop(0, 6))

	d.ClearTabStops(0)
	assert.Equal(t, 4, d.PointXFromPosition(2))
}

func TestPointXWideCharacters(t *testing.T) {
	d := NewDocument("日本\tx", metrics.CellMetrics{Cell: 2})
	d.SetTabWidth(4)
	assert.Equal(t, 4, d.PointXFromPosition(3))
	assert.Equal(t, 8, d.PointXFromPosition(6))
	assert.Equal(t, 16, d.PointXFromPosition(7))
}

func TestPositionFromLineAndPointX(t *testing.T) {
	d := NewDocument("abcd\n", metrics.CellMetrics{Cell: 8})
	tests := []struct {
		px   int
		want int
	}{
		{0, 0},
		{3, 0},
		{4, 0},
		{5, 1},
		{8, 1},
		{30, 4},
		{100, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, host.PositionFromLineAndPointX(d, 0, tt.px), "px=%d", tt.px)
	}
}

func TestReplaceNotifications(t *testing.T) {
	d := newDoc("one\ntwo\nthree")
	var got []host.Modification
	d.Subscribe(func(m host.Modification) { got = append(got, m) })

	require.NoError(t, d.Replace(3, 8, " and "))
	assert.Equal(t, "one and three", d.String())
	assert.Equal(t, []host.Modification{
		{Type: host.BeforeDelete, Position: 3, Length: 5, LinesAdded: -2},
		{Type: host.DeleteText, Position: 3, Length: 5, LinesAdded: -2},
		{Type: host.InsertText, Position: 3, Length: 5, LinesAdded: 0},
	}, got)

	err := d.Replace(5, 100, "x")
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestReplaceShiftsTabStops(t *testing.T) {
	d := newDoc("a\nb\nc")
	d.AddTabStop(2, 5)
	require.NoError(t, d.InsertText(0, "x\n"))
	assert.Nil(t, d.TabStopsOf(2))
	assert.Equal(t, []int{5}, d.TabStopsOf(3))

	require.NoError(t, d.Replace(0, 2, ""))
	assert.Equal(t, []int{5}, d.TabStopsOf(2))
}

func TestUndoGroups(t *testing.T) {
	d := newDoc("abc")
	d.BeginUndoAction()
	require.NoError(t, d.Replace(0, 1, "X"))
	require.NoError(t, d.Replace(2, 3, "YZ"))
	d.EndUndoAction()
	require.NoError(t, d.InsertText(0, ">"))
	assert.Equal(t, ">XbYZ", d.String())

	assert.True(t, d.Undo())
	assert.Equal(t, "XbYZ", d.String())
	assert.True(t, d.Undo())
	assert.Equal(t, "abc", d.String())
	assert.False(t, d.Undo())
}

func TestIndicatorRuns(t *testing.T) {
	d := newDoc("0123456789")
	d.IndicatorFill(2, 5)
	assert.Equal(t, 0, d.IndicatorValueAt(1))
	assert.Equal(t, 1, d.IndicatorValueAt(2))
	assert.Equal(t, 2, d.IndicatorEnd(0))
	assert.Equal(t, 5, d.IndicatorEnd(2))
	assert.Equal(t, 2, d.IndicatorStart(4))
	assert.Equal(t, 10, d.IndicatorEnd(5))

	require.NoError(t, d.InsertText(5, "ab"))
	assert.Equal(t, [][2]int{{2, 7}}, d.IndicatorRuns(), "insertion at a run end extends the run")
	require.NoError(t, d.InsertText(2, "cd"))
	assert.Equal(t, [][2]int{{4, 9}}, d.IndicatorRuns(), "insertion at a run start shifts the run")
}

func TestRectangularSelection(t *testing.T) {
	d := newDoc("abcdef\nab\nabcdef")
	d.SetRectangularSelection(1, 0, d.PositionFromLine(2)+4, 0)
	require.Equal(t, 3, d.Selections())
	assert.Equal(t, host.ModeRectangle, d.SelectionMode())
	assert.Equal(t, []string{"bcd", "b", "bcd"}, d.SelectedText())
	assert.Equal(t, 2, d.SelectionNCaretVirtualSpace(1))
	assert.Equal(t, 2, d.MainSelection())

	d.SetRectangularSelection(d.PositionFromLine(2)+4, 0, 1, 0)
	assert.Equal(t, "bcd", d.SelectedText()[0])
	assert.Equal(t, 0, d.LineFromPosition(d.SelectionNCaret(2)))
}

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder(newDoc("a\tb"))
	r.AddTabStop(0, 3)
	r.ClearTabStops(0)
	assert.Equal(t, 2, r.Mutations())
	r.Reset()
	assert.Equal(t, 0, r.Mutations())
}
