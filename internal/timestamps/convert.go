package timestamps

import (
	"context"
	"strconv"
	"strings"

	"github.com/ncruces/go-strftime"

	"github.com/pstuifzand/tui-columns/internal/columns"
	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/pstuifzand/tui-columns/internal/rect"
)

// isoPicture is the default date and time format. Fractional seconds are
// added when present.
const isoPicture = "%Y-%m-%d %H:%M:%S"

// Spec describes a conversion.
type Spec struct {
	// FromCounter reads cells holding numbers as values of From.
	FromCounter bool
	From        Counter
	// FromDates reads cells holding calendar dates, with Pattern when it is
	// set and otherwise with the generic parser ordered by Priority.
	FromDates bool
	Priority  DatePriority
	Pattern   string
	// Picture is the strftime format ToDatetime writes.
	Picture string
	// To is the counter ToCounter writes.
	To Counter
}

// DefaultSpec reads Unix times and dates, and writes ISO dates or Unix
// times.
func DefaultSpec() Spec {
	return Spec{FromCounter: true, From: Unix, FromDates: true, Priority: YMD, To: Unix}
}

// converter turns the text of one cell into the converted text.
type converter struct {
	spec    Spec
	dsep    byte
	words   *words
	pattern *Pattern
	toDate  bool
}

func newConverter(spec Spec, dsep byte, toDate bool) (*converter, error) {
	c := &converter{spec: spec, dsep: dsep, words: newWords(), toDate: toDate}
	if spec.FromDates && spec.Pattern != "" {
		p, err := CompilePattern(spec.Pattern)
		if err != nil {
			return nil, err
		}
		c.pattern = p
	}
	return c, nil
}

// instant reads source as a counter or a date.
func (c *converter) instant(source string) (int64, bool) {
	if c.spec.FromCounter {
		if t, ok := c.spec.From.FromCounter(source, c.dsep); ok {
			return t, true
		}
	}
	if !c.spec.FromDates {
		return 0, false
	}
	var p dateParts
	var ok bool
	if c.pattern != nil {
		p, ok = c.words.parsePattern(c.pattern, source)
	} else {
		p, ok = c.words.parseGeneric(source, c.spec.Priority)
	}
	if !ok {
		return 0, false
	}
	return p.instant()
}

// convert returns the replacement for source and the offset of its
// decimal separator, or false to leave the cell as it is.
func (c *converter) convert(source string) (string, int, bool) {
	t, ok := c.instant(source)
	if !ok {
		return "", 0, false
	}
	if c.toDate {
		return formatDate(t, c.spec.Picture), 0, true
	}
	s := c.spec.To.ToCounter(t, c.dsep)
	left := strings.IndexByte(s, c.dsep)
	if left < 0 {
		left = len(s)
	}
	return s, left, true
}

// formatDate writes an instant with a strftime picture.
func formatDate(t int64, picture string) string {
	tm := toTime(t)
	if picture != "" {
		return strftime.Format(picture, tm)
	}
	s := strftime.Format(isoPicture, tm)
	if frac := t - tm.Unix()*second; frac > 0 {
		s += "." + strings.TrimRight(strconv.FormatInt(frac+second, 10)[1:], "0")
	}
	return s
}

type cellOut struct {
	text       string
	left       int
	lastInRow  bool
	endOfLine  bool
}

type columnWidth struct {
	left, right, total int
}

// ToDatetime replaces counters and dates in the selection with calendar
// dates.
func ToDatetime(ctx context.Context, h host.Host, opts columns.Options, spec Spec) (columns.Result, error) {
	return convert(ctx, h, opts, spec, true)
}

// ToCounter replaces counters and dates in the selection with values of
// spec.To, aligned on their decimal separators.
func ToCounter(ctx context.Context, h host.Host, opts columns.Options, spec Spec) (columns.Result, error) {
	return convert(ctx, h, opts, spec, false)
}

func convert(ctx context.Context, h host.Host, opts columns.Options, spec Spec, toDate bool) (columns.Result, error) {
	dsep := byte(opts.Numeric.Decimal())
	c, err := newConverter(spec, dsep, toDate)
	if err != nil {
		return columns.Result{}, err
	}
	s, err := rect.Get(ctx, h, opts.Options)
	if err != nil || s.Size() == 0 {
		return columns.Result{}, err
	}

	rows := make([][]cellOut, s.Size())
	var widths []columnWidth
	converted := 0
	for row := range s.Rows() {
		var out []cellOut
		for _, cell := range row.Cells() {
			if cell.TextLength() == 0 && cell.IsLastInRow() {
				continue
			}
			o := cellOut{
				text:      strings.TrimRight(cell.Text(), " "),
				lastInRow: cell.IsLastInRow(),
				endOfLine: cell.IsEndOfLine(),
			}
			if o.text != "" {
				if text, left, ok := c.convert(cell.Trim()); ok {
					o.text, o.left = text, left
					converted++
				}
			}
			if len(widths) <= len(out) {
				widths = append(widths, columnWidth{})
			}
			w := &widths[len(out)]
			if o.left > 0 {
				w.left = max(w.left, o.left)
				w.right = max(w.right, len(o.text)-o.left)
			}
			w.total = max(w.total, len(o.text))
			out = append(out, o)
		}
		rows[row.Index] = out
	}
	if converted == 0 {
		return columns.Result{Message: "Nothing in the selection could be converted."}, nil
	}
	for i := range widths {
		widths[i].total = max(widths[i].total, widths[i].left+widths[i].right)
	}

	changed := false
	h.BeginUndoAction()
	defer h.EndUndoAction()
	for row := range s.BottomUp(true).Rows() {
		var b strings.Builder
		for j, o := range rows[row.Index] {
			w := widths[j]
			var cell strings.Builder
			if o.left > 0 && o.left < w.left {
				cell.WriteString(strings.Repeat(" ", w.left-o.left))
			}
			cell.WriteString(o.text)
			if !o.endOfLine && (!s.Elastic() || o.lastInRow) && cell.Len() < w.total {
				cell.WriteString(strings.Repeat(" ", w.total-cell.Len()))
			}
			b.WriteString(cell.String())
			if !o.lastInRow {
				b.WriteByte('\t')
			}
		}
		if text := b.String(); text != row.Text() {
			if err := row.Replace(text); err != nil {
				return columns.Result{}, err
			}
			changed = true
		}
	}
	if err := s.Refit(ctx, false); err != nil {
		return columns.Result{}, err
	}
	return columns.Result{Changed: changed}, nil
}
