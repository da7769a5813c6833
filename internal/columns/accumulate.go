package columns

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/pstuifzand/tui-columns/internal/numeric"
	"github.com/pstuifzand/tui-columns/internal/rect"
)

// AccumulateSpec describes Add and Average.
type AccumulateSpec struct {
	Mean bool
	// Thousands separates digit groups in the written results.
	Thousands string
	// Write puts the results in the last row of the selection when it is
	// blank, or in a new line below the selection otherwise. Without it
	// the results are only returned.
	Write bool
}

// Totals is the outcome of Accumulate.
type Totals struct {
	Result
	// Values holds one result per column; NaN for columns without numbers.
	Values []float64
	// Text is the formatted results separated by tabs.
	Text string
	// Numbers is how many cells held numbers.
	Numbers int
}

type accumulator struct {
	sum      float64
	count    int
	decimals int
	segments int
}

func (a *accumulator) add(v numeric.Value) {
	a.sum += v.Value
	a.count++
	a.decimals = max(a.decimals, v.DecimalPlaces)
	a.segments = max(a.segments, v.TimeSegments)
}

// meanPlaces is the number of decimal places an average of count numbers
// gains over its inputs.
func meanPlaces(count int) int {
	switch count {
	case 1:
		return 0
	case 2, 5, 10:
		return 1
	case 20, 25, 50, 100:
		return 2
	}
	return 3
}

// Accumulate adds or averages the numbers in each column of the selection.
// A cell that looks like a number but does not parse stops the command and
// is selected.
func Accumulate(ctx context.Context, h host.Host, opts Options, spec AccumulateSpec) (*Totals, error) {
	s, err := read(ctx, h, opts)
	if s == nil {
		return &Totals{}, err
	}
	st := opts.Numeric

	var cols []accumulator
	total := 0
	lastRow := -1
	for row := range s.Rows() {
		for j, c := range row.Cells() {
			if j == len(cols) {
				cols = append(cols, accumulator{})
			}
			v := numeric.Parse(c.Trim(), st)
			if !v.OK() {
				if strings.ContainsAny(c.Trim(), "0123456789") {
					h.SetSelection(c.Left(), c.Right())
					return &Totals{Result: Result{Message: fmt.Sprintf("%q is not a number.", c.Trim())}}, nil
				}
				continue
			}
			cols[j].add(v)
			total++
			lastRow = max(lastRow, row.Index)
		}
	}
	if total == 0 {
		return &Totals{Result: Result{Message: "No numbers found in the selection."}}, nil
	}

	t := &Totals{Numbers: total}
	parts := make([]string, len(cols))
	for j, col := range cols {
		if col.count == 0 {
			t.Values = append(t.Values, math.NaN())
			continue
		}
		f := numeric.DefaultFormat()
		f.Thousands = spec.Thousands
		f.MaxDec = col.decimals
		if col.segments > 0 {
			f.TimeEnable = st.TimeFormatEnable
		}
		v := col.sum
		if spec.Mean {
			f.MaxDec += meanPlaces(col.count)
			v /= float64(col.count)
		}
		t.Values = append(t.Values, v)
		parts[j] = numeric.FormatValue(v, f, st)
	}
	t.Text = strings.Join(parts, "\t")
	if !spec.Write {
		return t, nil
	}

	err = edit(h, func() error {
		return writeAnswer(ctx, h, s, opts, t.Text, len(cols), lastRow)
	})
	t.Changed = err == nil
	return t, err
}

func bottomRow(s *rect.Selection) *rect.Row {
	return s.BottomUp(true).Front()
}

// writeAnswer puts answer in the bottom row of the selection, first adding
// a line when that row is not blank. model is the index of the last row
// holding numbers; its indentation guides the answer's under elastic
// tabstops.
func writeAnswer(ctx context.Context, h host.Host, s *rect.Selection, opts Options, answer string, columns, model int) error {
	if strings.Trim(bottomRow(s).Text(), " \t") != "" {
		line := s.Bottom().Line
		end := h.LineEndPosition(line)
		eol := "\n"
		if line > 0 {
			if t := h.TextRange(h.LineEndPosition(line-1), h.PositionFromLine(line)); t != "" {
				eol = t
			}
		}
		if err := h.Replace(end, end, eol); err != nil {
			return fmt.Errorf("add line: %w", err)
		}
		if err := s.Refit(ctx, true); err != nil {
			return err
		}
		if !s.TopToBottom() {
			model++
		}
	}

	row := bottomRow(s)
	fit := func(space int) string {
		return blanks(space-len(answer)) + answer
	}
	if row.VSMin() == 0 || !s.Elastic() {
		text := blanks(row.VSMin()) + answer
		if columns == 1 {
			text = fit(row.Max() - row.Min() + row.VSMax())
		}
		if err := row.Replace(text); err != nil {
			return err
		}
		return s.Refit(ctx, false)
	}

	modelRow := s.Row(model)
	prefixOf := func(r *rect.Row) string {
		p := h.TextRange(h.PositionFromLine(r.Line()), r.Min())
		if opts.indentsLeadingTabs(s) {
			p = strings.TrimLeft(p, "\t")
		}
		return p
	}
	mp, ap := prefixOf(modelRow), prefixOf(row)
	mt, at := strings.Count(mp, "\t"), strings.Count(ap, "\t")
	var text string
	if mt > at {
		var b strings.Builder
		if opts.indentsLeadingTabs(s) && ap == "" {
			b.WriteByte(' ')
		}
		b.WriteString(strings.Repeat("\t", mt-at))
		pad := 0
		if after := len(mp) - strings.LastIndexByte(mp, '\t') - 1; after > 0 {
			pad = host.BlankCount(px(h, modelRow.Min())-px(h, modelRow.Min()-after), s.BlankWidth())
		}
		if columns == 1 {
			b.WriteString(blanks(pad + row.VSMax() - row.VSMin() - len(answer)))
		} else {
			b.WriteString(blanks(pad))
		}
		b.WriteString(answer)
		text = b.String()
	} else if columns == 1 {
		text = fit(row.VSMax())
	} else {
		text = blanks(row.VSMin()) + answer
	}
	if err := row.Replace(text); err != nil {
		return err
	}
	return s.Refit(ctx, false)
}
