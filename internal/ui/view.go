package ui

import (
	"strconv"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/pstuifzand/tui-columns/internal/buffer"
)

// DocumentView draws a buffer.Document on the screen. Column positions come
// from the document's own geometry, so custom tab stops set by the elastic
// tabstops engine show up as they would in an editor.
type DocumentView struct {
	doc *buffer.Document

	TopLine  int
	LeftCol  int
	ShowTabs bool

	// ShowLineNumbers draws a gutter with 1-based line numbers.
	ShowLineNumbers bool
}

// NewDocumentView creates a view scrolled to the top of doc.
func NewDocumentView(doc *buffer.Document) *DocumentView {
	return &DocumentView{doc: doc, ShowTabs: true, ShowLineNumbers: true}
}

func (v *DocumentView) gutterWidth() int {
	if !v.ShowLineNumbers {
		return 0
	}
	return len(strconv.Itoa(v.doc.LineCount())) + 1
}

// span is a half-open range of screen columns relative to the line start.
type span struct{ from, to int }

func (s span) contains(x int) bool { return x >= s.from && x < s.to }

// selectedSpans returns the columns of line covered by the selection.
func (v *DocumentView) selectedSpans(line int) []span {
	d := v.doc
	if d.SelectionEmpty() {
		return nil
	}
	lineStart := d.PositionFromLine(line)
	lineEnd := d.LineEndPosition(line)
	var out []span
	for i := 0; i < d.Selections(); i++ {
		start, end := d.SelectionNStart(i), d.SelectionNEnd(i)
		startVS, endVS := d.SelectionNStartVirtualSpace(i), d.SelectionNEndVirtualSpace(i)
		if start == end && startVS == endVS {
			continue
		}
		if end < lineStart || start > lineEnd {
			continue
		}
		if d.SelectionMode().IsRectangular() {
			if d.LineFromPosition(start) != line {
				continue
			}
			out = append(out, span{d.PointXFromPosition(start) + startVS, d.PointXFromPosition(end) + endVS})
			continue
		}
		from := d.PointXFromPosition(max(start, lineStart))
		if start < lineStart {
			from = 0
		}
		to := d.PointXFromPosition(min(end, lineEnd)) + endVS
		if end > lineEnd {
			// the line break is part of the selection
			to = d.PointXFromPosition(lineEnd) + 1
		}
		out = append(out, span{from, to})
	}
	return out
}

// Render draws the view into rows y to y+height-1.
func (v *DocumentView) Render(screen *Screen, y, height int) {
	d := v.doc
	width, _ := screen.Size()
	gutter := v.gutterWidth()
	d.SetViewport(v.TopLine, height)

	caret, caretVS := d.Caret()
	caretLine := d.LineFromPosition(caret)
	caretX := d.PointXFromPosition(caret) + caretVS

	text := screen.TextStyle()
	for row := 0; row < height; row++ {
		sy := y + row
		line := v.TopLine + row
		screen.FillRow(0, sy, text)
		if line >= d.LineCount() {
			continue
		}
		if gutter > 0 {
			num := strconv.Itoa(line + 1)
			screen.DrawString(gutter-1-len(num), sy, num, screen.LineNumberStyle())
		}

		spans := v.selectedSpans(line)
		styleAt := func(x, pos int, base tcell.Style) tcell.Style {
			for _, s := range spans {
				if s.contains(x) {
					return screen.SelectionStyle()
				}
			}
			if pos >= 0 && d.IndicatorValueAt(pos) != 0 {
				return screen.IndicatorStyle()
			}
			return base
		}
		put := func(x int, r rune, style tcell.Style) {
			sx := gutter + x - v.LeftCol
			if sx >= gutter && sx < width {
				screen.SetCell(sx, sy, r, style)
			}
		}

		end := d.LineEndPosition(line)
		for pos := d.PositionFromLine(line); pos < end; {
			next := d.PositionAfter(pos)
			x := d.PointXFromPosition(pos)
			r, _ := utf8.DecodeRuneInString(d.TextRange(pos, next))
			if r == '\t' {
				w := d.PointXFromPosition(next) - x
				for i := 0; i < max(w, 1); i++ {
					ch, base := ' ', text
					if i == 0 && v.ShowTabs {
						ch, base = '›', screen.TabMarkerStyle()
					}
					put(x+i, ch, styleAt(x+i, pos, base))
				}
			} else {
				put(x, r, styleAt(x, pos, text))
			}
			pos = next
		}
		lineWidth := d.PointXFromPosition(end)
		for _, s := range spans {
			for x := max(s.from, lineWidth); x < s.to; x++ {
				put(x, ' ', screen.SelectionStyle())
			}
		}

		if line == caretLine {
			sx := gutter + caretX - v.LeftCol
			if sx >= gutter && sx < width {
				r := ' '
				if caretVS == 0 && caret < end {
					r, _ = utf8.DecodeRuneInString(d.TextRange(caret, d.PositionAfter(caret)))
					if r == '\t' {
						r = ' '
					}
				}
				screen.SetCell(sx, sy, r, screen.CursorStyle())
			}
		}
	}
}

// ScrollToCaret adjusts TopLine and LeftCol so the caret is inside a text
// area of the given size.
func (v *DocumentView) ScrollToCaret(width, height int) {
	d := v.doc
	caret, vs := d.Caret()
	line := d.LineFromPosition(caret)
	x := d.PointXFromPosition(caret) + vs

	if line < v.TopLine {
		v.TopLine = line
	} else if height > 0 && line >= v.TopLine+height {
		v.TopLine = line - height + 1
	}

	cols := width - v.gutterWidth()
	if x < v.LeftCol {
		v.LeftCol = x
	} else if cols > 0 && x >= v.LeftCol+cols {
		v.LeftCol = x - cols + 1
	}
}

// PageSize returns how many lines fit in height rows.
func (v *DocumentView) PageSize(height int) int {
	return max(height-1, 1)
}
