package columns

import (
	"context"
	"strings"

	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/pstuifzand/tui-columns/internal/numeric"
	"github.com/pstuifzand/tui-columns/internal/rect"
	"github.com/pstuifzand/tui-columns/internal/regex"
)

// AlignLeft removes the blanks around the content of every cell and puts
// them after it. With elastic tabstops the layout spaces the columns, so
// only a last cell that stops short of the end of its line keeps them.
func AlignLeft(ctx context.Context, h host.Host, opts Options) (Result, error) {
	s, err := read(ctx, h, opts)
	if s == nil {
		return Result{}, err
	}
	changed := false
	err = edit(h, func() error {
		for row := range s.BottomUp(true).Rows() {
			var b strings.Builder
			for _, c := range row.Cells() {
				b.WriteString(c.Trim())
				if !s.Elastic() || (c.IsLastInRow() && !c.IsEndOfLine()) {
					b.WriteString(blanks(c.Leading() + c.Trailing()))
				}
				b.WriteString(c.Terminator())
			}
			if text := b.String(); text != row.Text() {
				if err := row.Replace(text); err != nil {
					return err
				}
				changed = true
			}
		}
		return s.Refit(ctx, false)
	})
	return Result{Changed: changed}, err
}

// AlignRight moves the content of every cell to the right edge of the
// space the cell occupies: up to the next tab stop for inner cells, and to
// the right edge of the selection for the last cell of a row.
func AlignRight(ctx context.Context, h host.Host, opts Options) (Result, error) {
	s, err := read(ctx, h, opts)
	if s == nil {
		return Result{}, err
	}
	gap := opts.gap(s)
	changed := false
	err = edit(h, func() error {
		for row := range s.BottomUp(true).Rows() {
			var b strings.Builder
			for _, c := range row.Cells() {
				switch {
				case c.TrimLength() == 0:
					b.WriteString(c.Text())
					b.WriteString(c.Terminator())
				case c.IsLastInRow():
					b.WriteString(blanks(row.VSMax() - row.VSMin() + c.Leading() + c.Trailing()))
					b.WriteString(c.Trim())
				default:
					tab := px(h, c.End()+1) - px(h, c.End())
					pad := max(host.BlankCount(tab, s.BlankWidth())-gap, 0)
					b.WriteString(blanks(pad + c.Leading() + c.Trailing()))
					b.WriteString(c.Trim())
					b.WriteByte('\t')
				}
			}
			if text := b.String(); text != row.Text() {
				if err := row.Replace(text); err != nil {
					return err
				}
				changed = true
			}
		}
		return s.Refit(ctx, false)
	})
	return Result{Changed: changed}, err
}

// tableItem is one cell prepared for alignment on a point inside it.
type tableItem struct {
	text string
	// left and right are the pixel extents either side of the alignment
	// point.
	left, right int
	// colon is set for time values, which align on a colon.
	colon bool
	align bool
}

type tableLine struct {
	items []tableItem
	text  string
	eol   bool
}

type tableColumn struct {
	width int
	// extents of decimal (or custom) and colon aligned items
	left, right           int
	colonLeft, colonRight int
	hasColon              bool

	pad int
	// leftPad and rightExtra are added before and after aligned items.
	leftPad, rightExtra int
}

// table aligns every column of a selection on a point found in each cell.
type table struct {
	s     *rect.Selection
	lines []tableLine
	cols  []*tableColumn
}

// measure reads the selection. locate returns the position of the
// alignment point in the cell and whether it is a colon, or ok false for
// cells left as they are.
func measure(h host.Host, s *rect.Selection, locate func(c rect.Cell) (pos int, colon, ok bool)) *table {
	t := &table{s: s, lines: make([]tableLine, s.Size())}
	for row := range s.Rows() {
		ln := &t.lines[row.Index]
		ln.text = row.Text()
		ln.eol = row.IsEndOfLine()
		for j, c := range row.Cells() {
			if j == len(t.cols) {
				t.cols = append(t.cols, &tableColumn{})
			}
			col := t.cols[j]
			// The last cell ends with its text, not at the selection edge.
			col.width = max(col.width, px(h, c.End())-px(h, c.Start()))

			pos, colon, ok := 0, false, false
			if c.TrimLength() > 0 {
				pos, colon, ok = locate(c)
			}
			if !ok {
				ln.items = append(ln.items, tableItem{text: c.Text()})
				continue
			}
			x := px(h, pos)
			it := tableItem{
				text:  c.Trim(),
				left:  x - px(h, c.Left()),
				right: px(h, c.Right()) - x,
				colon: colon,
				align: true,
			}
			if colon {
				col.hasColon = true
				col.colonLeft = max(col.colonLeft, it.left)
				col.colonRight = max(col.colonRight, it.right)
			} else {
				col.left = max(col.left, it.left)
				col.right = max(col.right, it.right)
			}
			ln.items = append(ln.items, it)
		}
	}
	return t
}

// write replaces every row whose text changed.
func (t *table) write(ctx context.Context, h host.Host) (Result, error) {
	s := t.s
	changed := false
	err := edit(h, func() error {
		for row := range s.BottomUp(true).Rows() {
			ln := t.lines[row.Index]
			last := len(ln.items) - 1
			var b strings.Builder
			for j, it := range ln.items {
				col := t.cols[j]
				trailing := !s.Elastic()
				if j == last {
					trailing = !ln.eol
				}
				if it.align {
					b.WriteString(blanks(col.leftPad))
					b.WriteString(blanks(host.BlankCount(col.left-it.left, s.BlankWidth())))
					b.WriteString(it.text)
					if trailing {
						b.WriteString(blanks(host.BlankCount(col.right-it.right, s.BlankWidth()) + col.rightExtra))
					}
				} else {
					b.WriteString(it.text)
					if col.pad < 0 && trailing {
						b.WriteString(blanks(-col.pad))
					}
				}
				if j < last {
					b.WriteByte('\t')
				}
			}
			if text := b.String(); text != ln.text {
				if err := row.Replace(text); err != nil {
					return err
				}
				changed = true
			}
		}
		return s.Refit(ctx, false)
	})
	return Result{Changed: changed}, err
}

// AlignNumeric lines up the numbers in each column on their decimal
// separators, or on a colon for time values. Cells without a number are
// left as they are. A column keeps its width when the aligned numbers fit
// in it and grows when they do not.
func AlignNumeric(ctx context.Context, h host.Host, opts Options) (Result, error) {
	s, err := read(ctx, h, opts)
	if s == nil || s.Size() < 2 {
		return Result{}, err
	}
	st := opts.Numeric
	t := measure(h, s, func(c rect.Cell) (int, bool, bool) {
		colon, decimal, ok := numeric.Alignment(c.Trim(), st)
		if !ok {
			return 0, false, false
		}
		if colon >= 0 {
			return c.Left() + colon, true, true
		}
		return c.Left() + decimal, false, true
	})

	offset := numeric.ColonDecimalOffset(st) * h.TextWidth(":00")
	mixed := make([]bool, len(t.cols))
	for j, col := range t.cols {
		switch {
		case !col.hasColon:
		case col.left == 0 && col.right == 0:
			col.left, col.right = col.colonLeft, col.colonRight
		default:
			col.left = max(col.colonLeft, col.left-offset)
			col.right = max(col.colonRight, col.right+offset)
			mixed[j] = true
		}
		col.pad = host.BlankCount(col.width-col.left-col.right, s.BlankWidth())
		col.leftPad = max(col.pad, 0)
	}
	for i := range t.lines {
		for j := range t.lines[i].items {
			it := &t.lines[i].items[j]
			if mixed[j] && it.align && !it.colon {
				it.left -= offset
				it.right += offset
			}
		}
	}
	return t.write(ctx, h)
}

// AlignOn selects the occurrence a custom alignment lines up on.
type AlignOn int

const (
	AlignFirst AlignOn = iota
	AlignLast
	AlignRegex
)

// CustomAlign describes AlignCustom.
type CustomAlign struct {
	Find      string
	On        AlignOn
	MatchCase bool
	// Margin blanks are kept between the alignment point and the text on
	// its left, or on its right with MarginRight.
	Margin      int
	MarginRight bool
}

// AlignCustom lines up each column on the first or last occurrence of
// text, or on the start of a regular expression match.
func AlignCustom(ctx context.Context, h host.Host, opts Options, spec CustomAlign) (Result, error) {
	var re *regex.Regex
	if spec.On == AlignRegex {
		var err error
		if re, err = regex.Compile(spec.Find, regex.Options{MatchCase: spec.MatchCase}); err != nil {
			return Result{}, err
		}
	} else if spec.Find == "" {
		return Result{Message: "Nothing to align on."}, nil
	}
	s, err := read(ctx, h, opts)
	if s == nil || s.Size() < 2 {
		return Result{}, err
	}

	find := spec.Find
	if !spec.MatchCase {
		find = strings.ToLower(find)
	}
	margin := s.BlankWidth() * spec.Margin
	t := measure(h, s, func(c rect.Cell) (int, bool, bool) {
		text := c.Trim()
		at := -1
		switch spec.On {
		case AlignRegex:
			if m, ok := re.FindString(text); ok {
				at = m.Start
			}
		default:
			if !spec.MatchCase {
				text = strings.ToLower(text)
			}
			if spec.On == AlignLast {
				at = strings.LastIndex(text, find)
			} else {
				at = strings.Index(text, find)
			}
		}
		if at < 0 {
			return 0, false, false
		}
		return c.Left() + at, false, true
	})
	if spec.Margin > 0 {
		for i := range t.lines {
			for j := range t.lines[i].items {
				it := &t.lines[i].items[j]
				if !it.align {
					continue
				}
				if spec.MarginRight {
					it.right += margin
				} else {
					it.text = blanks(spec.Margin) + it.text
					it.left += margin
				}
				col := t.cols[j]
				col.left = max(col.left, it.left)
				col.right = max(col.right, it.right)
			}
		}
	}
	for _, col := range t.cols {
		col.pad = host.BlankCount(col.width-col.left-col.right, s.BlankWidth())
		if spec.MarginRight {
			col.leftPad = max(col.pad, 0)
			col.rightExtra = spec.Margin
		} else {
			col.rightExtra = max(col.pad, 0)
		}
	}
	return t.write(ctx, h)
}
