// Package columns implements the commands that operate on a rectangular
// selection as a table: alignment, sorting, and arithmetic over cells.
//
// Every command reads the selection with rect.Get, rewrites rows bottom up
// inside one undo action and finally refits the selection so it covers the
// same pixel columns as before.
package columns

import (
	"context"
	"errors"
	"strings"

	"github.com/pstuifzand/tui-columns/internal/elastic"
	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/pstuifzand/tui-columns/internal/numeric"
	"github.com/pstuifzand/tui-columns/internal/rect"
)

// ErrInvalidSortKey is returned for a key group specification that does
// not parse.
var ErrInvalidSortKey = errors.New("invalid sort key")

// Options configures every command in the package.
type Options struct {
	rect.Options
	Numeric numeric.Settings
	// ColumnGap is the minimum number of blanks between elastic columns.
	// Zero takes the value from the elastic layout's profile.
	ColumnGap int
}

// DefaultOptions uses the default numeric settings and no elastic layout.
func DefaultOptions() Options {
	return Options{Numeric: numeric.DefaultSettings()}
}

// Result reports the outcome of a command. Changed is false when the
// command had nothing to do; Message then says why when there is a reason
// worth showing.
type Result struct {
	Changed bool
	Message string
}

func (o Options) gap(s *rect.Selection) int {
	if !s.Elastic() {
		return 1
	}
	if o.ColumnGap > 0 {
		return o.ColumnGap
	}
	if l, ok := o.Layout.(interface{ Settings() elastic.Settings }); ok {
		return l.Settings().MinimumSpaceBetweenColumns
	}
	return 1
}

// indentsLeadingTabs reports whether tabs at the start of a row are
// indentation rather than column separators.
func (o Options) indentsLeadingTabs(s *rect.Selection) bool {
	return s.Elastic() && o.Layout.IndentsLeadingTabs()
}

func blanks(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

// edit runs fn inside one undo action.
func edit(h host.Host, fn func() error) error {
	h.BeginUndoAction()
	defer h.EndUndoAction()
	return fn()
}

// read gets the selection for a command. A nil selection means there is
// nothing to operate on.
func read(ctx context.Context, h host.Host, opts Options) (*rect.Selection, error) {
	s, err := rect.Get(ctx, h, opts.Options)
	if err != nil {
		return nil, err
	}
	if s.Size() == 0 {
		return nil, nil
	}
	return s, nil
}

// px is shorthand for the pixel x of a position.
func px(h host.Host, pos int) int { return h.PointXFromPosition(pos) }

// topIndex converts a row index, which counts from the anchor's line, to
// a count from the top line.
func topIndex(s *rect.Selection, index int) int {
	if s.TopToBottom() {
		return index
	}
	return s.Size() - 1 - index
}
