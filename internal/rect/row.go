package rect

import (
	"fmt"
	"strings"
)

// Row is the part of one line inside a rectangular selection.
type Row struct {
	sel   *Selection
	Index int

	anchor, caret     int
	anchorVS, caretVS int
	line              int
	endOfLine         int
	// text holds the row, preceded by the start of the line when leading
	// tabs are indentation; offset is where the row begins in text.
	text   string
	offset int
}

func newRow(s *Selection, index int) *Row {
	h := s.h
	r := &Row{
		sel:      s,
		Index:    index,
		anchor:   h.SelectionNAnchor(index),
		caret:    h.SelectionNCaret(index),
		anchorVS: h.SelectionNAnchorVirtualSpace(index),
		caretVS:  h.SelectionNCaretVirtualSpace(index),
	}
	r.line = h.LineFromPosition(r.anchor)
	r.endOfLine = h.LineEndPosition(r.line)
	if s.layout != nil && s.layout.IndentsLeadingTabs() {
		start := h.PositionFromLine(r.line)
		r.text = h.TextRange(start, r.Max())
		r.offset = r.Min() - start
	} else {
		r.text = h.TextRange(r.Min(), r.Max())
	}
	return r
}

func (r *Row) Anchor() int    { return r.anchor }
func (r *Row) Caret() int     { return r.caret }
func (r *Row) AnchorVS() int  { return r.anchorVS }
func (r *Row) CaretVS() int   { return r.caretVS }
func (r *Row) Min() int       { return min(r.anchor, r.caret) }
func (r *Row) Max() int       { return max(r.anchor, r.caret) }
func (r *Row) VSMin() int     { return min(r.anchorVS, r.caretVS) }
func (r *Row) VSMax() int     { return max(r.anchorVS, r.caretVS) }
func (r *Row) Line() int      { return r.line }
func (r *Row) EndOfLine() int { return r.endOfLine }

// Text returns the selected text of the row.
func (r *Row) Text() string {
	return r.text[r.offset:]
}

// IsEndOfLine reports whether the row reaches the end of its line.
func (r *Row) IsEndOfLine() bool {
	return r.Max() == r.endOfLine
}

// Cells splits the row on tabs. There is always at least one cell; a row
// ending in a tab has an empty last cell.
func (r *Row) Cells() []Cell {
	var cells []Cell
	for start := r.offset; ; {
		c, next := newCell(r, start)
		cells = append(cells, c)
		if next < 0 {
			return cells
		}
		start = next
	}
}

// Replace replaces the selected text of the row and collapses the row's
// selection to the end of the new text, keeping the side that did not move.
func (r *Row) Replace(text string) error {
	h := r.sel.h
	if err := h.Replace(r.Min(), r.Max(), text); err != nil {
		return fmt.Errorf("replace row %d: %w", r.line, err)
	}
	end := r.Min() + len(text)
	switch {
	case r.VSMin() > 0:
		h.SetSelectionNAnchor(r.Index, end, 0)
		h.SetSelectionNCaret(r.Index, end, 0)
	case r.sel.LeftToRight():
		h.SetSelectionNCaret(r.Index, end, 0)
	default:
		h.SetSelectionNAnchor(r.Index, end, 0)
	}
	return nil
}

// Cell is one tab-delimited field of a row. Offsets are into the row's
// text; blanks around the content are the cell's padding.
type Cell struct {
	row             *Row
	start           int
	left            int
	right           int
	end             int
	pastLeadingTabs int
}

func newCell(r *Row, start int) (Cell, int) {
	text := r.text
	c := Cell{row: r, start: start}
	if start >= len(text) {
		n := len(text)
		c.start, c.left, c.right, c.end, c.pastLeadingTabs = n, n, n, n, n
		return c, -1
	}
	c.pastLeadingTabs = start
	if start == r.offset && r.sel.layout != nil && r.sel.layout.IndentsLeadingTabs() {
		first := strings.IndexFunc(text, func(r rune) bool { return r != '\t' })
		if first < 0 {
			first = len(text)
		}
		if first > start {
			c.pastLeadingTabs = first
		}
	}

	next := -1
	if k := strings.IndexByte(text[c.pastLeadingTabs:], '\t'); k < 0 {
		c.end = len(text)
	} else {
		c.end = c.pastLeadingTabs + k
		next = c.end + 1
	}
	if c.end == c.pastLeadingTabs {
		c.left, c.right = c.end, c.end
		return c, next
	}
	c.left = c.pastLeadingTabs + strings.IndexFunc(text[c.pastLeadingTabs:c.end], func(r rune) bool { return r != ' ' })
	if c.left < c.pastLeadingTabs {
		c.left, c.right = c.end, c.end
		return c, next
	}
	c.right = len(strings.TrimRight(text[:c.end], " "))
	return c, next
}

// Row returns the row the cell belongs to.
func (c Cell) Row() *Row { return c.row }

// Text returns the whole cell, without the terminating tab.
func (c Cell) Text() string { return c.row.text[c.start:c.end] }

// Trim returns the cell without surrounding blanks.
func (c Cell) Trim() string { return c.row.text[c.left:c.right] }

// Terminator returns the tab that ends the cell, or "" for the last cell.
func (c Cell) Terminator() string {
	if c.IsLastInRow() {
		return ""
	}
	return "\t"
}

func (c Cell) TextLength() int { return c.end - c.start }
func (c Cell) TrimLength() int { return c.right - c.left }

// Leading returns the blanks before the content, counting indentation tabs
// as the host tab width.
func (c Cell) Leading() int {
	return (c.pastLeadingTabs-c.start)*c.row.sel.tabWidth + c.left - c.pastLeadingTabs
}

// Trailing returns the blanks after the content.
func (c Cell) Trailing() int { return c.end - c.right }

func (c Cell) base() int { return c.row.Min() - c.row.offset }

// Start, Left, Right and End are document positions of the cell, the
// content start, the content end and the cell end.
func (c Cell) Start() int { return c.base() + c.start }
func (c Cell) Left() int  { return c.base() + c.left }
func (c Cell) Right() int { return c.base() + c.right }
func (c Cell) End() int   { return c.base() + c.end }

// IsLastInRow reports whether the cell is the last of its row.
func (c Cell) IsLastInRow() bool { return c.end == len(c.row.text) }

// IsEndOfLine reports whether the cell reaches the end of its line.
func (c Cell) IsEndOfLine() bool { return c.End() == c.row.endOfLine }
