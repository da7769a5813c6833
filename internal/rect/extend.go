package rect

import (
	"context"
	"fmt"
)

// Extend turns a degenerate selection into a rectangle the column commands
// can use, following the Policy. A selection that cannot be extended is
// left with size zero. Only a failure to update elastic tab stops is
// returned as an error.
func (s *Selection) Extend(ctx context.Context) error {
	if s.mode.IsRectangular() {
		s.extendRectangle()
		return nil
	}
	if s.h.Selections() != 1 {
		s.size = 0
		return nil
	}
	if s.elastic() {
		if err := s.layout.Ensure(ctx, 0, -1); err != nil {
			return fmt.Errorf("extend selection: %w", err)
		}
	}
	s.extendStream()
	return nil
}

// extendRectangle widens a rectangle of zero width. Rectangles with width
// on any row are left alone.
func (s *Selection) extendRectangle() {
	h := s.h
	if s.size == 0 {
		return
	}
	canExtendRight := false
	maxExtent := 0
	for i := 0; i < s.size; i++ {
		ap := h.SelectionNAnchor(i)
		if ap != h.SelectionNCaret(i) || h.SelectionNAnchorVirtualSpace(i) != h.SelectionNCaretVirtualSpace(i) {
			return
		}
		end := h.LineEndPosition(h.LineFromPosition(ap))
		if ap < end {
			canExtendRight = true
		}
		maxExtent = max(maxExtent, h.PointXFromPosition(end))
	}

	toRight := true
	switch {
	case s.policy.ExtendZeroWidth && canExtendRight:
	case s.policy.Stream == StreamNone:
		s.size = 0
		return
	case canExtendRight:
	case s.caret.Pos == s.caret.Start && s.caret.VS == 0:
		s.size = 0
		return
	default:
		toRight = false
	}

	if toRight {
		s.anchor.Pos = s.anchor.End
		endX := h.PointXFromPosition(s.anchor.End)
		s.anchor.VS = blanks(maxExtent-endX, s.blankWidth)
		s.anchor.X = endX - s.anchor.StartX + s.blankWidth*s.anchor.VS
	} else {
		s.anchor.Pos = s.anchor.Start
		s.anchor.VS = 0
		s.anchor.X = 0
	}
	s.install()
}

// extendStream converts a single stream selection.
func (s *Selection) extendStream() {
	h := s.h
	topLeft := s.corner(0, 0)
	bottomLeft := s.corner(h.PositionFromLine(h.LineCount()-1), 0)
	if bottomLeft.Start == bottomLeft.End && bottomLeft.Line > 0 {
		bottomLeft = s.corner(h.PositionFromLine(bottomLeft.Line-1), 0)
	}
	widest := 0
	for line := 0; line <= bottomLeft.Line; line++ {
		widest = max(widest, h.PointXFromPosition(h.LineEndPosition(line)))
	}
	bottomRight := s.corner(bottomLeft.End, blanks(widest-h.PointXFromPosition(bottomLeft.End), s.blankWidth))

	hasWidth := s.anchor.Pos != s.caret.Pos || s.anchor.VS != s.caret.VS
	hasHeight := s.anchor.Line != s.caret.Line

	switch {
	case !hasWidth && !hasHeight:
		s.extendCaret(topLeft, bottomRight)
	case !hasHeight:
		s.extendLine(bottomLeft)
	default:
		s.extendFullLines(bottomRight)
	}
}

// extendCaret builds a rectangle from an empty selection.
func (s *Selection) extendCaret(topLeft, bottomRight Corner) {
	if s.policy.Stream == StreamNone {
		s.size = 0
		return
	}
	c := s.caret
	atSide := c.X == 0 || c.X >= bottomRight.X
	atEnd := c.Line == 0 || c.Line >= bottomRight.Line

	anchor, caret := bottomRight, c
	switch {
	case atSide && atEnd:
		// the whole document
		caret = topLeft
	case atSide:
		// whole lines from the caret's line down
		caret.Pos, caret.VS, caret.X = c.Start, 0, 0
	case atEnd:
		// every line, from the caret's column right
		caret = s.cornerAt(topLeft.Line, c.X+c.StartX)
	}
	s.anchor, s.caret = anchor, caret
	s.size = abs(anchor.Line-caret.Line) + 1
	s.reverse = anchor.Line > caret.Line
	s.install()
}

// extendLine extends a selection within one line vertically, keeping its
// horizontal extent.
func (s *Selection) extendLine(bottomLeft Corner) {
	down := false
	switch {
	case s.policy.ExtendSingleLine && s.caret.Line < bottomLeft.Line:
		down = true
	case s.policy.Stream == StreamNone:
		s.size = 0
		return
	case s.caret.Line < bottomLeft.Line:
		down = true
	case s.caret.Line == 0:
		s.size = 0
		return
	}

	anchorX := s.anchor.X + s.anchor.StartX
	if !down {
		top := s.cornerAt(0, anchorX)
		s.size = s.caret.Line - top.Line + 1
		s.anchor = top
		s.reverse = false
		s.install()
		return
	}
	bottom := s.cornerAt(bottomLeft.Line, anchorX)
	if bottom.Line == s.caret.Line {
		s.size = 0
		return
	}
	s.size = bottom.Line - s.caret.Line + 1
	s.anchor = bottom
	s.reverse = true
	s.install()
}

// extendFullLines converts a selection of whole lines into a rectangle as
// wide as the widest of them.
func (s *Selection) extendFullLines(bottomRight Corner) {
	h := s.h
	start, end := &s.anchor, &s.caret
	if s.caret.Pos < s.anchor.Pos {
		start, end = end, start
	}
	if start.Pos != start.Start || (end.Pos != end.Start && end.Pos != end.End) {
		s.size = 0
		return
	}
	if !s.policy.ExtendFullLines && s.policy.Stream == StreamNone {
		s.size = 0
		return
	}

	if end.Pos == end.Start {
		end.Line--
	}
	size := end.Line - start.Line + 1
	widest := 0
	for line := start.Line; line <= end.Line; line++ {
		widest = max(widest, h.PointXFromPosition(h.LineEndPosition(line)))
	}

	toEnd := func(c *Corner) {
		c.Start = h.PositionFromLine(c.Line)
		c.StartX = h.PointXFromPosition(c.Start)
		c.End = h.LineEndPosition(c.Line)
		c.Pos = c.End
		endX := h.PointXFromPosition(c.End)
		c.VS = blanks(widest-endX, s.blankWidth)
		c.X = endX - c.StartX + s.blankWidth*c.VS
	}
	switch {
	case end.Pos != end.Start:
		toEnd(end)
	case s.anchor.Pos < s.caret.Pos:
		toEnd(&s.anchor)
		c := &s.caret
		c.Start = h.PositionFromLine(c.Line)
		c.StartX = h.PointXFromPosition(c.Start)
		c.End = h.LineEndPosition(c.Line)
		c.Pos, c.VS, c.X = c.Start, 0, 0
	default:
		toEnd(&s.anchor)
	}
	s.install()
	s.size = size
	s.reverse = s.anchor.Line > s.caret.Line
}

func blanks(px, blank int) int {
	if px <= 0 || blank <= 0 {
		return 0
	}
	return (2*px + blank) / (2 * blank)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
