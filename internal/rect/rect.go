// Package rect reads the host's selection as a grid: a rectangular
// selection is a sequence of rows, one per line, and each row splits into
// tab-delimited cells. Column commands operate on that grid, then Refit
// restores the selection to the same pixel columns after the text under it
// changed.
package rect

import (
	"context"
	"fmt"
	"iter"
	"math"

	"github.com/pstuifzand/tui-columns/internal/host"
)

// Layout is the elastic tabstops state of the document, if any.
type Layout interface {
	Enabled() bool
	IndentsLeadingTabs() bool
	// Ensure brings tab stops on lines first through last up to date.
	Ensure(ctx context.Context, first, last int) error
	// Refresh re-measures the document after text under the selection
	// changed, applying lines first through last and the visible lines.
	Refresh(ctx context.Context, first, last int) error
}

// StreamPolicy decides how a selection that is not already a usable
// rectangle is turned into one when no specific option covers the case.
type StreamPolicy int

const (
	// StreamNone leaves such selections empty.
	StreamNone StreamPolicy = iota
	// StreamRestOfLines extends them over the rest of the lines: down to
	// the last line of the document, and right to the end of the widest line.
	StreamRestOfLines
)

func (p StreamPolicy) String() string {
	if p == StreamRestOfLines {
		return "rest-of-lines"
	}
	return "none"
}

// ParseStreamPolicy reads the names produced by String.
func ParseStreamPolicy(s string) (StreamPolicy, error) {
	switch s {
	case "", "none":
		return StreamNone, nil
	case "rest-of-lines":
		return StreamRestOfLines, nil
	}
	return StreamNone, fmt.Errorf("unknown stream policy %q", s)
}

// Policy holds the options that control Extend.
type Policy struct {
	// ExtendSingleLine extends a selection within one line down to the
	// last line of the document.
	ExtendSingleLine bool
	// ExtendFullLines converts a selection of whole lines to a rectangle
	// enclosing them.
	ExtendFullLines bool
	// ExtendZeroWidth extends a zero-width rectangle to the end of the
	// longest line it covers.
	ExtendZeroWidth bool
	Stream          StreamPolicy
}

// Corner is one end of a rectangular selection.
type Corner struct {
	Pos    int // position of the corner
	VS     int // virtual space beyond Pos, in blanks
	Start  int // start of the corner's line
	End    int // end of the corner's line, before the line terminator
	Line   int
	StartX int // pixel x of Start
	X      int // pixel x of the corner relative to StartX, including virtual space
}

// Options configures a Selection.
type Options struct {
	// Layout may be nil when elastic tabstops are not in use.
	Layout Layout
	Policy Policy
}

// Selection is a rectangular selection viewed as rows of cells. A Selection
// with Size zero has nothing to operate on.
type Selection struct {
	h      host.Host
	layout Layout
	policy Policy

	anchor  Corner
	caret   Corner
	size    int
	reverse bool
	mode    host.SelectionMode

	blankWidth int
	tabWidth   int
}

// New reads the host's current selection. Stream selections have size
// zero until Extend converts them.
func New(h host.Host, opts Options) *Selection {
	s := &Selection{
		h:          h,
		layout:     opts.Layout,
		policy:     opts.Policy,
		blankWidth: h.TextWidth(" "),
		tabWidth:   h.TabWidth(),
		mode:       h.SelectionMode(),
		size:       h.Selections(),
	}
	s.anchor = s.corner(h.SelectionNAnchor(0), h.SelectionNAnchorVirtualSpace(0))
	s.caret = s.corner(h.SelectionNCaret(s.size-1), h.SelectionNCaretVirtualSpace(s.size-1))
	s.reverse = s.anchor.Line > s.caret.Line
	if !s.mode.IsRectangular() {
		s.size = 0
	}
	return s
}

// Get reads the host's selection and extends it according to opts.
func Get(ctx context.Context, h host.Host, opts Options) (*Selection, error) {
	s := New(h, opts)
	if err := s.Extend(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Selection) elastic() bool {
	return s.layout != nil && s.layout.Enabled()
}

// Mode returns the selection mode.
func (s *Selection) Mode() host.SelectionMode { return s.mode }

// Size returns the number of rows.
func (s *Selection) Size() int { return s.size }

// BlankWidth returns the width of a blank in pixels.
func (s *Selection) BlankWidth() int { return s.blankWidth }

// TabWidth returns the host tab width in blanks.
func (s *Selection) TabWidth() int { return s.tabWidth }

// Host returns the host the selection was read from.
func (s *Selection) Host() host.Host { return s.h }

// Elastic reports whether elastic tabstops lay out the document.
func (s *Selection) Elastic() bool { return s.elastic() }

// LeftToRight reports whether the anchor is left of the caret.
func (s *Selection) LeftToRight() bool { return s.anchor.X <= s.caret.X }

// TopToBottom reports whether the anchor is above the caret.
func (s *Selection) TopToBottom() bool { return s.anchor.Line <= s.caret.Line }

func (s *Selection) Anchor() Corner { return s.anchor }
func (s *Selection) Caret() Corner  { return s.caret }

func (s *Selection) Top() Corner {
	if s.TopToBottom() {
		return s.anchor
	}
	return s.caret
}

func (s *Selection) Bottom() Corner {
	if s.TopToBottom() {
		return s.caret
	}
	return s.anchor
}

func (s *Selection) Left() Corner {
	if s.LeftToRight() {
		return s.anchor
	}
	return s.caret
}

func (s *Selection) Right() Corner {
	if s.LeftToRight() {
		return s.caret
	}
	return s.anchor
}

// Natural iterates rows from the anchor's line to the caret's line.
func (s *Selection) Natural() *Selection {
	s.reverse = false
	return s
}

// Reverse flips the iteration order.
func (s *Selection) Reverse() *Selection {
	s.reverse = !s.reverse
	return s
}

// BottomUp makes Rows run from the bottom line to the top line when yes is
// set, and from top to bottom otherwise. Operations that change the length
// of rows iterate bottom up so rows not yet visited keep their positions.
func (s *Selection) BottomUp(yes bool) *Selection {
	s.reverse = yes == s.TopToBottom()
	return s
}

// Row reads row index from the host. Index 0 is the anchor's line.
func (s *Selection) Row(index int) *Row {
	return newRow(s, index)
}

// Rows yields the rows in iteration order. Each row is read from the host
// when it is reached, so replacing one row does not disturb the next.
func (s *Selection) Rows() iter.Seq[*Row] {
	return func(yield func(*Row) bool) {
		if s.reverse {
			for i := s.size - 1; i >= 0; i-- {
				if !yield(newRow(s, i)) {
					return
				}
			}
			return
		}
		for i := 0; i < s.size; i++ {
			if !yield(newRow(s, i)) {
				return
			}
		}
	}
}

// Front returns the first row in iteration order.
func (s *Selection) Front() *Row {
	if s.reverse {
		return s.Row(s.size - 1)
	}
	return s.Row(0)
}

// Back returns the last row in iteration order.
func (s *Selection) Back() *Row {
	if s.reverse {
		return s.Row(0)
	}
	return s.Row(s.size - 1)
}

func (s *Selection) corner(pos, vs int) Corner {
	h := s.h
	c := Corner{Pos: pos, VS: vs}
	c.Line = h.LineFromPosition(pos)
	c.Start = h.PositionFromLine(c.Line)
	c.End = h.LineEndPosition(c.Line)
	c.StartX = h.PointXFromPosition(c.Start)
	c.X = h.PointXFromPosition(pos) - c.StartX + s.blankWidth*vs
	return c
}

// cornerAt places a corner on line at pixel column x, using virtual space
// when x lies beyond the end of the line.
func (s *Selection) cornerAt(line, x int) Corner {
	h := s.h
	c := Corner{Line: line}
	c.Start = h.PositionFromLine(line)
	c.End = h.LineEndPosition(line)
	c.StartX = h.PointXFromPosition(c.Start)
	if endX := h.PointXFromPosition(c.End); x > endX {
		c.Pos = c.End
		c.VS = host.BlankCount(x-endX, s.blankWidth)
	} else {
		c.Pos = host.PositionFromLineAndPointX(h, line, x)
	}
	c.X = h.PointXFromPosition(c.Pos) - c.StartX + s.blankWidth*c.VS
	return c
}

func (s *Selection) install() {
	s.h.SetRectangularSelection(s.anchor.Pos, s.anchor.VS, s.caret.Pos, s.caret.VS)
	s.mode = host.ModeRectangle
}

// Refit restores the selection to the pixel columns it covers after rows
// were replaced. With addLine the selection grows by one line at the bottom,
// to include a row appended by the operation. Elastic tab stops are
// recomputed first so the pixel columns reflect the new text.
func (s *Selection) Refit(ctx context.Context, addLine bool) error {
	if s.size == 0 {
		return nil
	}
	h := s.h
	if err := s.refresh(ctx); err != nil {
		return fmt.Errorf("refit selection: %w", err)
	}

	left, right := math.MaxInt, 0
	for i := 0; i < s.size; i++ {
		px := h.PointXFromPosition(h.SelectionNStart(i)) + h.SelectionNStartVirtualSpace(i)*s.blankWidth
		left = min(left, px)
		right = max(right, h.PointXFromPosition(h.SelectionNEnd(i)))
	}
	if s.LeftToRight() {
		s.anchor.X, s.caret.X = left, right
	} else {
		s.anchor.X, s.caret.X = right, left
	}

	if addLine {
		if s.TopToBottom() {
			s.caret.Line++
		} else {
			s.anchor.Line++
		}
		s.size++
	}
	s.place()
	return nil
}

// Reselect installs the rectangle again at the same lines and pixel
// columns. It is used after an operation rewrote whole lines.
func (s *Selection) Reselect(ctx context.Context) error {
	if s.size == 0 {
		return nil
	}
	if err := s.refresh(ctx); err != nil {
		return fmt.Errorf("reselect: %w", err)
	}
	s.anchor.X += s.anchor.StartX
	s.caret.X += s.caret.StartX
	s.place()
	return nil
}

func (s *Selection) refresh(ctx context.Context) error {
	if !s.elastic() {
		return nil
	}
	h := s.h
	first := h.FirstVisibleLine()
	last := first + h.LinesOnScreen()
	first = min(s.anchor.Line, s.caret.Line, first)
	last = max(s.anchor.Line, s.caret.Line, last)
	return s.layout.Refresh(ctx, first, last)
}

// place recomputes both corners from their lines and absolute pixel
// columns, then installs the selection.
func (s *Selection) place() {
	h := s.h
	for _, c := range []*Corner{&s.anchor, &s.caret} {
		c.End = h.LineEndPosition(c.Line)
		endX := h.PointXFromPosition(c.End)
		if c.X < endX {
			c.Pos = host.PositionFromLineAndPointX(h, c.Line, c.X)
			c.VS = 0
		} else {
			c.Pos = c.End
			c.VS = host.BlankCount(c.X-endX, s.blankWidth)
		}
		c.Start = h.PositionFromLine(c.Line)
		c.StartX = h.PointXFromPosition(c.Start)
		c.X -= c.StartX
	}
	s.install()
}
