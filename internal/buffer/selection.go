package buffer

import "github.com/pstuifzand/tui-columns/internal/host"

// SelectionMode returns the shape of the current selection.
func (d *Document) SelectionMode() host.SelectionMode {
	return d.mode
}

// Selections returns the number of selection parts.
func (d *Document) Selections() int {
	return len(d.sels)
}

// MainSelection returns the index of the main selection.
func (d *Document) MainSelection() int {
	return d.main
}

// SelectionEmpty reports whether every selection part is empty.
func (d *Document) SelectionEmpty() bool {
	for _, s := range d.sels {
		if s.anchor != s.caret || s.anchorVS != s.caretVS {
			return false
		}
	}
	return true
}

func (d *Document) sel(i int) selection {
	if i < 0 || i >= len(d.sels) {
		return selection{}
	}
	return d.sels[i]
}

func (d *Document) SelectionNAnchor(i int) int             { return d.sel(i).anchor }
func (d *Document) SelectionNCaret(i int) int              { return d.sel(i).caret }
func (d *Document) SelectionNAnchorVirtualSpace(i int) int { return d.sel(i).anchorVS }
func (d *Document) SelectionNCaretVirtualSpace(i int) int  { return d.sel(i).caretVS }

func (s selection) anchorFirst() bool {
	return s.anchor < s.caret || (s.anchor == s.caret && s.anchorVS <= s.caretVS)
}

// SelectionNStart returns the lower end of selection i.
func (d *Document) SelectionNStart(i int) int {
	s := d.sel(i)
	if s.anchorFirst() {
		return s.anchor
	}
	return s.caret
}

// SelectionNEnd returns the upper end of selection i.
func (d *Document) SelectionNEnd(i int) int {
	s := d.sel(i)
	if s.anchorFirst() {
		return s.caret
	}
	return s.anchor
}

// SelectionNStartVirtualSpace returns the virtual space at the lower end of selection i.
func (d *Document) SelectionNStartVirtualSpace(i int) int {
	s := d.sel(i)
	if s.anchorFirst() {
		return s.anchorVS
	}
	return s.caretVS
}

// SelectionNEndVirtualSpace returns the virtual space at the upper end of selection i.
func (d *Document) SelectionNEndVirtualSpace(i int) int {
	s := d.sel(i)
	if s.anchorFirst() {
		return s.caretVS
	}
	return s.anchorVS
}

// SetSelectionNAnchor moves the anchor of selection i.
func (d *Document) SetSelectionNAnchor(i, pos, vs int) {
	if i < 0 || i >= len(d.sels) {
		return
	}
	d.sels[i].anchor = clamp(pos, 0, len(d.text))
	d.sels[i].anchorVS = max(vs, 0)
}

// SetSelectionNCaret moves the caret of selection i.
func (d *Document) SetSelectionNCaret(i, pos, vs int) {
	if i < 0 || i >= len(d.sels) {
		return
	}
	d.sels[i].caret = clamp(pos, 0, len(d.text))
	d.sels[i].caretVS = max(vs, 0)
}

// SetSelection replaces all selections with one stream selection.
func (d *Document) SetSelection(anchor, caret int) {
	d.mode = host.ModeStream
	d.sels = []selection{{anchor: clamp(anchor, 0, len(d.text)), caret: clamp(caret, 0, len(d.text))}}
	d.main = 0
}

// AddSelection adds a stream selection and makes it the main one.
func (d *Document) AddSelection(anchor, caret int) {
	d.mode = host.ModeStream
	d.sels = append(d.sels, selection{anchor: clamp(anchor, 0, len(d.text)), caret: clamp(caret, 0, len(d.text))})
	d.main = len(d.sels) - 1
}

// SetRectangularSelection selects the block whose corners are the anchor
// and caret, each given as a position plus virtual space. Selection parts
// run from the anchor's line to the caret's line.
func (d *Document) SetRectangularSelection(anchor, anchorVS, caret, caretVS int) {
	anchor = clamp(anchor, 0, len(d.text))
	caret = clamp(caret, 0, len(d.text))
	blank := d.TextWidth(" ")
	anchorLine := d.LineFromPosition(anchor)
	caretLine := d.LineFromPosition(caret)
	anchorX := d.PointXFromPosition(anchor) + blank*max(anchorVS, 0)
	caretX := d.PointXFromPosition(caret) + blank*max(caretVS, 0)

	step := 1
	if caretLine < anchorLine {
		step = -1
	}
	d.mode = host.ModeRectangle
	d.sels = d.sels[:0]
	for line := anchorLine; ; line += step {
		var s selection
		if line == anchorLine {
			s.anchor, s.anchorVS = anchor, max(anchorVS, 0)
		} else {
			s.anchor, s.anchorVS = d.positionAtX(line, anchorX, blank)
		}
		if line == caretLine {
			s.caret, s.caretVS = caret, max(caretVS, 0)
		} else {
			s.caret, s.caretVS = d.positionAtX(line, caretX, blank)
		}
		d.sels = append(d.sels, s)
		if line == caretLine {
			break
		}
	}
	d.main = len(d.sels) - 1
}

func (d *Document) positionAtX(line, x, blank int) (int, int) {
	pos := host.PositionFromLineAndPointX(d, line, x)
	vs := 0
	if pos == d.LineEndPosition(line) {
		if extra := x - d.PointXFromPosition(pos); extra > 0 {
			vs = host.BlankCount(extra, blank)
		}
	}
	return pos, vs
}

// Caret returns the caret of the main selection.
func (d *Document) Caret() (pos, vs int) {
	s := d.sel(d.main)
	return s.caret, s.caretVS
}

// Anchor returns the anchor of the main selection.
func (d *Document) Anchor() (pos, vs int) {
	s := d.sel(d.main)
	return s.anchor, s.anchorVS
}

// SelectedText returns the text of each selection part, in order.
func (d *Document) SelectedText() []string {
	parts := make([]string, len(d.sels))
	for i := range d.sels {
		parts[i] = d.TextRange(d.SelectionNStart(i), d.SelectionNEnd(i))
	}
	return parts
}
