package rect

import (
	"context"
	"math"

	"github.com/pstuifzand/tui-columns/internal/host"
)

// bounds is the enclosing rectangle of the current selection, in lines
// and pixels.
type bounds struct {
	h      host.Host
	layout Layout
	blank  int

	top, bottom int
	left, right int
}

func readBounds(ctx context.Context, h host.Host, layout Layout) (*bounds, error) {
	if layout != nil && !layout.Enabled() {
		layout = nil
	}
	b := &bounds{h: h, layout: layout, blank: h.TextWidth(" ")}
	count := h.Selections()
	if h.SelectionMode().IsRectangular() {
		anchor, caret := h.SelectionNAnchor(0), h.SelectionNCaret(count-1)
		la, lc := h.LineFromPosition(anchor), h.LineFromPosition(caret)
		xa := h.PointXFromPosition(anchor) + b.blank*h.SelectionNAnchorVirtualSpace(0)
		xc := h.PointXFromPosition(caret) + b.blank*h.SelectionNCaretVirtualSpace(count-1)
		b.top, b.bottom = min(la, lc), max(la, lc)
		b.left, b.right = min(xa, xc), max(xa, xc)
		return b, nil
	}

	b.top, b.bottom = math.MaxInt, 0
	b.left, b.right = math.MaxInt, math.MinInt
	for i := 0; i < count; i++ {
		p, q := h.SelectionNStart(i), h.SelectionNEnd(i)
		pLine, qLine := h.LineFromPosition(p), h.LineFromPosition(q)
		b.top = min(b.top, pLine)
		b.bottom = max(b.bottom, qLine)
		if err := b.ensure(ctx, pLine, qLine); err != nil {
			return nil, err
		}
		if pLine == qLine {
			b.left = min(b.left, h.PointXFromPosition(p))
			b.right = max(b.right, h.PointXFromPosition(q))
			continue
		}
		b.left = 0
		for line := pLine; line < qLine; line++ {
			b.right = max(b.right, h.PointXFromPosition(h.LineEndPosition(line)))
		}
		b.right = max(b.right, h.PointXFromPosition(q))
	}
	return b, nil
}

func (b *bounds) ensure(ctx context.Context, first, last int) error {
	if b.layout == nil {
		return nil
	}
	return b.layout.Ensure(ctx, first, last)
}

// widest returns the largest line end pixel among lines top through
// bottom, and at least x.
func (b *bounds) widest(ctx context.Context, x int) (int, error) {
	if err := b.ensure(ctx, b.top, b.bottom); err != nil {
		return 0, err
	}
	for line := b.top; line <= b.bottom; line++ {
		x = max(x, b.h.PointXFromPosition(b.h.LineEndPosition(line)))
	}
	return x, nil
}

func (b *bounds) lastLine() int {
	last := b.h.LineCount() - 1
	if last > 0 && b.h.PositionFromLine(last) == b.h.LineEndPosition(last) {
		last--
	}
	return last
}

func (b *bounds) selectBlock(ctx context.Context, anchorLine, anchorX, caretLine, caretX int) error {
	if err := b.ensure(ctx, min(anchorLine, caretLine), max(anchorLine, caretLine)); err != nil {
		return err
	}
	h := b.h
	anchor := host.PositionFromLineAndPointX(h, anchorLine, anchorX)
	caret := host.PositionFromLineAndPointX(h, caretLine, caretX)
	h.SetRectangularSelection(
		anchor, max(host.BlankCount(anchorX-h.PointXFromPosition(anchor), b.blank), 0),
		caret, max(host.BlankCount(caretX-h.PointXFromPosition(caret), b.blank), 0))
	return nil
}

// SelectDown extends the selection's columns down to the last line.
func SelectDown(ctx context.Context, h host.Host, layout Layout) error {
	b, err := readBounds(ctx, h, layout)
	if err != nil {
		return err
	}
	return b.selectBlock(ctx, b.lastLine(), b.left, b.top, b.right)
}

// SelectUp extends the selection's columns up to the first line.
func SelectUp(ctx context.Context, h host.Host, layout Layout) error {
	b, err := readBounds(ctx, h, layout)
	if err != nil {
		return err
	}
	return b.selectBlock(ctx, 0, b.left, b.bottom, b.right)
}

// SelectLeft extends the selection's lines to the left margin.
func SelectLeft(ctx context.Context, h host.Host, layout Layout) error {
	b, err := readBounds(ctx, h, layout)
	if err != nil {
		return err
	}
	return b.selectBlock(ctx, b.top, 0, b.bottom, b.right)
}

// SelectRight extends the selection's lines to the end of the longest.
func SelectRight(ctx context.Context, h host.Host, layout Layout) error {
	b, err := readBounds(ctx, h, layout)
	if err != nil {
		return err
	}
	right, err := b.widest(ctx, b.left)
	if err != nil {
		return err
	}
	return b.selectBlock(ctx, b.top, right, b.bottom, b.left)
}

// SelectEnclose replaces the selection with the smallest rectangle
// containing it.
func SelectEnclose(ctx context.Context, h host.Host, layout Layout) error {
	b, err := readBounds(ctx, h, layout)
	if err != nil {
		return err
	}
	return b.selectBlock(ctx, b.top, b.left, b.bottom, b.right)
}

// SelectExtend makes a rectangle from whatever is selected: a selection on
// one line grows to every line, an empty selection spanning lines grows to
// the whole width of those lines, and anything else is enclosed.
func SelectExtend(ctx context.Context, h host.Host, layout Layout) error {
	b, err := readBounds(ctx, h, layout)
	if err != nil {
		return err
	}
	switch {
	case b.top == b.bottom:
		return b.selectBlock(ctx, b.lastLine(), b.left, 0, b.right)
	case h.SelectionEmpty():
		right, err := b.widest(ctx, b.left)
		if err != nil {
			return err
		}
		return b.selectBlock(ctx, b.bottom, right, b.top, 0)
	default:
		return b.selectBlock(ctx, b.top, b.left, b.bottom, b.right)
	}
}
