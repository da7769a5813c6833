package columns

import (
	"context"
	"math"
	"strings"

	"github.com/pstuifzand/tui-columns/internal/formula"
	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/pstuifzand/tui-columns/internal/numeric"
	"github.com/pstuifzand/tui-columns/internal/regex"
)

// CalcSpec describes Calculate.
type CalcSpec struct {
	Formula string
	// Regex, when set, is matched against each row; reg() reads its
	// capture groups and this is the value of the whole match.
	Regex         string
	MatchCase     bool
	SkipUnmatched bool

	DecimalPlaces int
	DecimalsFixed bool
	Thousands     string
	FormatAsTime  bool

	// Aligned lines up the results on their decimal separators.
	Aligned bool
	// Left inserts the results before the selection instead of after it.
	Left bool
	// Tabbed separates the results from the selection with a tab.
	Tabbed bool
}

// DefaultCalcSpec writes two decimals, aligned, in a new tabbed column.
func DefaultCalcSpec() CalcSpec {
	return CalcSpec{DecimalPlaces: 2, Aligned: true, Tabbed: true}
}

// calcRow caches the numbers of one row as the formula functions see
// them. Slot 0 of col and tab is the whole row.
type calcRow struct {
	text          string
	col, reg, tab []float64
	colOK, regOK  bool
	tabOK         bool
	matched       bool
}

// calcEnv resolves the names available to a Calculate formula:
//
//	count, index, line, match, this
//	col(i [, n [, default]])  i-th blank separated number, n rows back
//	tab(i [, n [, default]])  i-th tab separated number, n rows back
//	reg(i [, n [, default]])  capture group i of Regex, n rows back
//	last([n [, default]])     result n rows back, or the last finite result
type calcEnv struct {
	st   numeric.Settings
	re   *regex.Regex
	vars map[string]float64
	// rows holds the rows evaluated so far that were not skipped; the
	// current row is last.
	rows []*calcRow
	// results has one entry per row reached, NaN for skipped rows.
	results    []float64
	lastFinite float64
}

func (e *calcEnv) push(text string) {
	if n := len(e.results); n > 0 && isFinite(e.results[n-1]) {
		e.lastFinite = e.results[n-1]
	}
	e.rows = append(e.rows, &calcRow{text: text})
	e.results = append(e.results, math.NaN())
}

func (e *calcEnv) skip() { e.rows = e.rows[:len(e.rows)-1] }

func (e *calcEnv) previous(n int) *calcRow {
	if n < 0 || n >= len(e.rows) {
		return nil
	}
	return e.rows[len(e.rows)-1-n]
}

func (e *calcEnv) Value(name string) (float64, bool) {
	v, ok := e.vars[name]
	return v, ok
}

func isFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// arg reads args[i] as a non-negative count; absent arguments are zero.
func arg(args []float64, i int) (int, bool) {
	if i >= len(args) {
		return 0, true
	}
	if !isFinite(args[i]) || args[i] < 0 {
		return 0, false
	}
	return int(args[i]), true
}

func pick(values []float64, i int) float64 {
	if i >= len(values) {
		return math.NaN()
	}
	return values[i]
}

func (e *calcEnv) Call(name string, args []float64) (float64, bool) {
	var v float64
	switch name {
	case "col", "tab", "reg":
		i, ok1 := arg(args, 0)
		n, ok2 := arg(args, 1)
		v = math.NaN()
		if r := e.previous(n); ok1 && ok2 && r != nil {
			switch name {
			case "col":
				v = pick(e.cols(r), i)
			case "tab":
				v = pick(e.tabs(r), i)
			default:
				v = pick(e.regs(r), i)
			}
		}
		if len(args) > 2 && !isFinite(v) {
			v = args[2]
		}
	case "last":
		if len(args) == 0 {
			return e.lastFinite, true
		}
		v = math.NaN()
		if i, ok := arg(args, 0); ok && i > 0 && i < len(e.results) {
			v = e.results[len(e.results)-1-i]
		}
		if len(args) > 1 && !isFinite(v) {
			v = args[1]
		}
	default:
		return 0, false
	}
	return v, true
}

func (e *calcEnv) parse(s string) float64 {
	return numeric.Parse(strings.Trim(s, " "), e.st).Value
}

func (e *calcEnv) cols(r *calcRow) []float64 {
	if !r.colOK {
		r.colOK = true
		r.col = append(r.col, e.parse(r.text))
		for _, f := range strings.FieldsFunc(r.text, func(c rune) bool { return c == ' ' || c == '\t' }) {
			r.col = append(r.col, e.parse(f))
		}
	}
	return r.col
}

func (e *calcEnv) tabs(r *calcRow) []float64 {
	if !r.tabOK {
		r.tabOK = true
		r.tab = append(r.tab, e.parse(r.text))
		if r.text != "" {
			for _, f := range strings.Split(r.text, "\t") {
				r.tab = append(r.tab, e.parse(f))
			}
		}
	}
	return r.tab
}

func (e *calcEnv) regs(r *calcRow) []float64 {
	if !r.regOK && e.re != nil {
		r.regOK = true
		if m, ok := e.re.FindString(r.text); ok {
			r.matched = true
			for i := range m.Len() {
				r.reg = append(r.reg, e.parse(m.Text(i)))
			}
		}
	}
	return r.reg
}

type calcItem struct {
	text    string
	left    int
	align   bool
	skipped bool
}

// Calculate evaluates a formula for every row of the selection, top to
// bottom, and inserts the formatted results as a new column beside it.
func Calculate(ctx context.Context, h host.Host, opts Options, spec CalcSpec) (Result, error) {
	prog, err := formula.Parse(spec.Formula)
	if err != nil {
		return Result{}, err
	}
	st := opts.Numeric
	env := &calcEnv{st: st, vars: make(map[string]float64)}
	if spec.Regex != "" {
		if env.re, err = regex.Compile(spec.Regex, regex.Options{MatchCase: spec.MatchCase}); err != nil {
			return Result{}, err
		}
	}
	s, err := read(ctx, h, opts)
	if s == nil {
		return Result{}, err
	}
	indent := opts.indentsLeadingTabs(s)

	f := numeric.DefaultFormat()
	f.MaxDec = spec.DecimalPlaces
	f.Thousands = spec.Thousands
	if spec.DecimalsFixed {
		f.MinDec = spec.DecimalPlaces
	}
	offset := 0
	if spec.FormatAsTime {
		f.TimeEnable = st.TimeFormatEnable
		offset = numeric.ColonDecimalOffset(st) * len(":00")
	}

	items := make([]calcItem, s.Size())
	env.vars["count"] = float64(s.Size())
	matches, maxLeft, maxRight, maxString := 0, 0, 0, 0
	index := 0
	for row := range s.BottomUp(false).Rows() {
		index++
		env.vars["index"] = float64(index)
		env.vars["line"] = float64(row.Line() + 1)
		text := row.Text()
		if indent {
			text = strings.TrimLeft(text, "\t")
		}
		env.push(text)
		item := &items[topIndex(s, row.Index)]
		cur := env.previous(0)
		if env.re != nil {
			env.vars["this"] = pick(env.regs(cur), 0)
			if !cur.matched {
				if spec.SkipUnmatched {
					env.skip()
					item.skipped = true
					continue
				}
				env.vars["match"] = 0
			} else {
				matches++
				env.vars["match"] = float64(matches)
			}
		} else {
			env.vars["this"] = pick(env.cols(cur), 0)
		}

		result := prog.Eval(env)
		env.results[len(env.results)-1] = result
		if !isFinite(result) {
			continue
		}
		item.text = numeric.FormatValue(result, f, st)
		if !spec.Aligned {
			maxString = max(maxString, len(item.text))
			continue
		}
		colon, decimal, _ := numeric.Alignment(item.text, st)
		if colon >= 0 {
			item.left = colon
		} else {
			item.left = decimal - offset
		}
		item.align = true
		maxLeft = max(maxLeft, item.left)
		maxRight = max(maxRight, len(item.text)-item.left)
	}
	if maxString > maxLeft+maxRight {
		maxLeft = maxString - maxRight
	}

	sep := " "
	if spec.Tabbed {
		sep = "\t"
	}
	err = edit(h, func() error {
		for row := range s.BottomUp(true).Rows() {
			item := items[topIndex(s, row.Index)]
			if item.skipped {
				continue
			}
			r := item.text
			if spec.Aligned && item.align {
				r = blanks(maxLeft-item.left) + r
			}
			if !s.Elastic() || !spec.Tabbed {
				r += blanks(maxLeft + maxRight - len(r))
			}
			text := row.Text()
			switch {
			case spec.Left:
				r = r + sep + text
			case spec.Tabbed && strings.HasSuffix(text, "\t"):
				r = text + r + "\t"
			default:
				r = text + sep + r
			}
			if err := row.Replace(r); err != nil {
				return err
			}
		}
		return s.Refit(ctx, false)
	})
	return Result{Changed: err == nil}, err
}
