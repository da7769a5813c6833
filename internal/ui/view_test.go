package ui

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/tui-columns/internal/buffer"
	"github.com/pstuifzand/tui-columns/internal/metrics"
	"github.com/pstuifzand/tui-columns/internal/theme"
)

func newSimScreen(t *testing.T, w, h int) (*Screen, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	s, err := NewScreenFrom(sim, theme.Default())
	require.NoError(t, err)
	sim.SetSize(w, h)
	s.Size()
	t.Cleanup(func() { s.Close() })
	return s, sim
}

func rowText(sim tcell.SimulationScreen, y, w int) string {
	out := make([]rune, 0, w)
	for x := 0; x < w; x++ {
		r, _, _, _ := sim.GetContent(x, y)
		out = append(out, r)
	}
	return string(out)
}

func newDoc(text string) *buffer.Document {
	d := buffer.NewDocument(text, metrics.CellMetrics{Cell: 1})
	d.SetTabWidth(4)
	return d
}

func TestRenderExpandsTabs(t *testing.T) {
	screen, sim := newSimScreen(t, 12, 3)
	d := newDoc("a\tb\ncc\td")
	v := NewDocumentView(d)
	v.ShowLineNumbers = false
	v.ShowTabs = false

	v.Render(screen, 0, 3)
	assert.Equal(t, "a   b       ", rowText(sim, 0, 12))
	assert.Equal(t, "cc  d       ", rowText(sim, 1, 12))
	assert.Equal(t, "            ", rowText(sim, 2, 12))
}

func TestRenderFollowsCustomTabStops(t *testing.T) {
	screen, sim := newSimScreen(t, 12, 1)
	d := newDoc("a\tb")
	d.AddTabStop(0, 7)
	v := NewDocumentView(d)
	v.ShowLineNumbers = false
	v.ShowTabs = false

	v.Render(screen, 0, 1)
	assert.Equal(t, "a      b    ", rowText(sim, 0, 12))
}

func TestRenderLineNumbers(t *testing.T) {
	screen, sim := newSimScreen(t, 8, 2)
	d := newDoc("x\ny")
	v := NewDocumentView(d)
	v.ShowTabs = false

	v.Render(screen, 0, 2)
	assert.Equal(t, "1 x     ", rowText(sim, 0, 8))
	assert.Equal(t, "2 y     ", rowText(sim, 1, 8))
}

func TestRenderHorizontalScroll(t *testing.T) {
	screen, sim := newSimScreen(t, 4, 1)
	d := newDoc("abcdefgh")
	v := NewDocumentView(d)
	v.ShowLineNumbers = false
	v.LeftCol = 3

	v.Render(screen, 0, 1)
	assert.Equal(t, "defg", rowText(sim, 0, 4))
}

func TestRenderSelectionStyles(t *testing.T) {
	screen, sim := newSimScreen(t, 10, 2)
	d := newDoc("ab\nc")
	d.SetRectangularSelection(0, 0, 4, 2)
	v := NewDocumentView(d)
	v.ShowLineNumbers = false

	v.Render(screen, 0, 2)
	_, _, sel, _ := sim.GetContent(2, 1)
	assert.Equal(t, screen.SelectionStyle(), sel, "virtual space inside the block is selected")
	_, _, plain, _ := sim.GetContent(5, 1)
	assert.Equal(t, screen.TextStyle(), plain)
}

func TestRenderIndicator(t *testing.T) {
	screen, sim := newSimScreen(t, 6, 1)
	d := newDoc("abcdef")
	d.IndicatorFill(1, 3)
	d.SetSelection(5, 5)
	v := NewDocumentView(d)
	v.ShowLineNumbers = false

	v.Render(screen, 0, 1)
	_, _, inside, _ := sim.GetContent(1, 0)
	_, _, outside, _ := sim.GetContent(3, 0)
	assert.Equal(t, screen.IndicatorStyle(), inside)
	assert.Equal(t, screen.TextStyle(), outside)
}

func TestScrollToCaret(t *testing.T) {
	d := newDoc("1\n2\n3\n4\n5\n6\nabcdefghij")
	v := NewDocumentView(d)
	v.ShowLineNumbers = false

	d.SetSelection(d.PositionFromLine(6)+9, d.PositionFromLine(6)+9)
	v.ScrollToCaret(5, 3)
	assert.Equal(t, 4, v.TopLine)
	assert.Equal(t, 5, v.LeftCol)

	d.SetSelection(0, 0)
	v.ScrollToCaret(5, 3)
	assert.Equal(t, 0, v.TopLine)
	assert.Equal(t, 0, v.LeftCol)
}
