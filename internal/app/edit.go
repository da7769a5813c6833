package app

import (
	"sort"
	"strings"

	"github.com/pstuifzand/tui-columns/internal/host"
)

// Direction is a caret movement.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
	LineStart
	LineEnd
	PageUp
	PageDown
	DocStart
	DocEnd
)

// Extend says what a movement does to the selection.
type Extend int

const (
	// Collapse moves the caret and drops the selection.
	Collapse Extend = iota
	// ExtendStream keeps the anchor and selects the text in between.
	ExtendStream
	// ExtendBlock keeps the anchor and selects the rectangle in between.
	// The caret may move into virtual space past the end of a line.
	ExtendBlock
)

// anchor returns the corner that stays put while a selection is extended.
func (w *Workspace) anchor() (pos, vs int) {
	d := w.Doc
	if d.SelectionMode().IsRectangular() {
		return d.SelectionNAnchor(0), d.SelectionNAnchorVirtualSpace(0)
	}
	return d.Anchor()
}

// Move moves the caret. page is the number of lines PageUp and PageDown
// travel.
func (w *Workspace) Move(dir Direction, ext Extend, page int) {
	d := w.Doc
	blank := d.TextWidth(" ")
	pos, vs := d.Caret()
	block := ext == ExtendBlock
	if !block {
		vs = 0
	}
	line := d.LineFromPosition(pos)

	vertical := func(n int) {
		if w.goalX < 0 {
			w.goalX = d.PointXFromPosition(pos) + vs*blank
		}
		line = min(max(line+n, 0), d.LineCount()-1)
		pos = host.PositionFromLineAndPointX(d, line, w.goalX)
		vs = 0
		if block && pos == d.LineEndPosition(line) {
			vs = host.BlankCount(w.goalX-d.PointXFromPosition(pos), blank)
		}
	}

	switch dir {
	case Left:
		if vs > 0 {
			vs--
		} else {
			pos = d.PositionBefore(pos)
		}
	case Right:
		if block && pos == d.LineEndPosition(line) {
			vs++
		} else {
			pos = d.PositionAfter(pos)
		}
	case Up:
		vertical(-1)
	case Down:
		vertical(1)
	case PageUp:
		vertical(-max(page, 1))
	case PageDown:
		vertical(max(page, 1))
	case LineStart:
		pos, vs = d.PositionFromLine(line), 0
	case LineEnd:
		pos, vs = d.LineEndPosition(line), 0
	case DocStart:
		pos, vs = 0, 0
	case DocEnd:
		pos, vs = d.Length(), 0
	}
	switch dir {
	case Up, Down, PageUp, PageDown:
	default:
		w.goalX = -1
	}

	switch ext {
	case Collapse:
		d.SetSelection(pos, pos)
	case ExtendStream:
		a, _ := w.anchor()
		d.SetSelection(a, pos)
	case ExtendBlock:
		a, avs := w.anchor()
		d.SetRectangularSelection(a, avs, pos, vs)
	}
}

// part is one selection part seen by an edit.
type part struct {
	index      int
	start, end int
	vs         int
	multi      bool
}

// change is what an edit does to one part: replace from..to with text and
// leave the caret after the text plus vs blanks of virtual space.
type change struct {
	from, to int
	text     string
	vs       int
}

// editParts applies fn to every selection part as one undo action and
// leaves a caret after each change, keeping a block selection a block.
func (w *Workspace) editParts(fn func(p part) change) error {
	d := w.Doc
	rectangular := d.SelectionMode().IsRectangular()
	n := d.Selections()
	parts := make([]part, n)
	for i := range parts {
		parts[i] = part{
			index: i,
			start: d.SelectionNStart(i),
			end:   d.SelectionNEnd(i),
			vs:    d.SelectionNStartVirtualSpace(i),
			multi: n > 1,
		}
	}
	sort.Slice(parts, func(a, b int) bool { return parts[a].start < parts[b].start })
	changes := make([]change, n)
	for i, p := range parts {
		changes[i] = fn(p)
	}

	d.BeginUndoAction()
	defer d.EndUndoAction()
	for i := n - 1; i >= 0; i-- {
		c := changes[i]
		if c.from == c.to && c.text == "" {
			continue
		}
		if err := d.Replace(c.from, c.to, c.text); err != nil {
			return err
		}
	}

	carets := make([]int, n)
	vss := make([]int, n)
	delta := 0
	for i, p := range parts {
		c := changes[i]
		carets[p.index] = c.from + delta + len(c.text)
		vss[p.index] = c.vs
		delta += len(c.text) - (c.to - c.from)
	}
	switch {
	case rectangular && n > 1:
		d.SetRectangularSelection(carets[0], vss[0], carets[n-1], vss[n-1])
	default:
		for i := range carets {
			if i == 0 {
				d.SetSelection(carets[i], carets[i])
			} else {
				d.AddSelection(carets[i], carets[i])
			}
		}
		if vss[0] > 0 && n == 1 {
			d.SetSelectionNAnchor(0, carets[0], vss[0])
			d.SetSelectionNCaret(0, carets[0], vss[0])
		}
	}
	w.goalX = -1
	return nil
}

// Insert replaces every selection part with text. Typing into virtual
// space first fills it with blanks.
func (w *Workspace) Insert(text string) error {
	return w.editParts(func(p part) change {
		return change{from: p.start, to: p.end, text: strings.Repeat(" ", p.vs) + text}
	})
}

// Backspace deletes the selected text, or the character before each caret.
// With several carets a deletion never joins lines.
func (w *Workspace) Backspace() error {
	d := w.Doc
	return w.editParts(func(p part) change {
		switch {
		case p.start != p.end:
			return change{from: p.start, to: p.end}
		case p.vs > 0:
			return change{from: p.start, to: p.start, vs: p.vs - 1}
		case p.multi && p.start == d.PositionFromLine(d.LineFromPosition(p.start)):
			return change{from: p.start, to: p.start}
		}
		return change{from: d.PositionBefore(p.start), to: p.start}
	})
}

// Delete deletes the selected text, or the character after each caret.
func (w *Workspace) Delete() error {
	d := w.Doc
	return w.editParts(func(p part) change {
		switch {
		case p.start != p.end:
			return change{from: p.start, to: p.end}
		case p.vs > 0:
			return change{from: p.start, to: p.start, vs: p.vs}
		case p.multi && p.start == d.LineEndPosition(d.LineFromPosition(p.start)):
			return change{from: p.start, to: p.start}
		}
		return change{from: p.start, to: d.PositionAfter(p.start)}
	})
}
