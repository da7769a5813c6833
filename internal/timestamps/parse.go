package timestamps

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/pstuifzand/tui-columns/internal/regex"
)

// ErrInvalidPattern is returned for a date pattern that does not compile
// or lacks the groups a date needs.
var ErrInvalidPattern = errors.New("invalid date pattern")

// DatePriority orders ambiguous numeric dates.
type DatePriority int

const (
	YMD DatePriority = iota
	MDY
	DMY
)

func (p DatePriority) String() string {
	switch p {
	case MDY:
		return "mdy"
	case DMY:
		return "dmy"
	}
	return "ymd"
}

// ParseDatePriority returns the priority called name.
func ParseDatePriority(name string) (DatePriority, error) {
	for _, p := range []DatePriority{YMD, MDY, DMY} {
		if p.String() == name {
			return p, nil
		}
	}
	return YMD, fmt.Errorf("unknown date priority %q", name)
}

// dateParts are the fields read from date text.
type dateParts struct {
	year, month, day int
	hour, minute     int
	// ticks is the seconds and fraction in ticks.
	ticks int64
}

// instant returns the ticks of the parts, or false for a date that does
// not exist.
func (p dateParts) instant() (int64, bool) {
	if p.month < 1 || p.month > 12 || p.day < 1 || p.day > 31 {
		return 0, false
	}
	d := time.Date(p.year, time.Month(p.month), p.day, 0, 0, 0, 0, time.UTC)
	if d.Day() != p.day {
		return 0, false
	}
	return d.Unix()*second + int64(p.hour)*hour + int64(p.minute)*minute + p.ticks, true
}

// words matches English month names and day halves ignoring case.
type words struct {
	fold   cases.Caser
	months map[string]int
}

func newWords() *words {
	w := &words{fold: cases.Fold(), months: make(map[string]int)}
	for m := time.January; m <= time.December; m++ {
		name := w.fold.String(m.String())
		w.months[name] = int(m)
		w.months[name[:3]] = int(m)
	}
	w.months["sept"] = 9
	return w
}

// month returns the month named s, or 0.
func (w *words) month(s string) int {
	return w.months[w.fold.String(strings.TrimSuffix(s, "."))]
}

// half returns 0 for am, 12 for pm, or -1.
func (w *words) half(s string) int {
	switch w.fold.String(strings.ReplaceAll(s, ".", "")) {
	case "am", "a":
		return 0
	case "pm", "p":
		return 12
	}
	return -1
}

// dividers are the non-ASCII characters that separate date fields.
const dividers = "\u2012\u2013\u2212\uFE63\uFF0D\u00A0\u2000\u2001\u2002\u2003\u2004\u2005\u2006\u2007\u2008\u2009\u200A\u202F\u205F"

func isDivider(r rune) bool {
	if r < 128 {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}
	return strings.ContainsRune(dividers, r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// fullYear expands a two digit year to the nearest century.
func fullYear(text string, year int) int {
	if len(text) == 2 {
		if year < 50 {
			return year + 2000
		}
		return year + 1900
	}
	return year
}

// fraction converts the digits after a decimal separator to ticks.
func fraction(digits string) int64 {
	digits = (digits + "0000000")[:7]
	n, _ := strconv.ParseInt(digits, 10, 64)
	return n
}

// parseGeneric reads a date written as numbers with optional month names,
// time of day and am/pm marker. Numeric dates are ordered by priority
// unless the position of a four digit year decides.
func (w *words) parseGeneric(s string, priority DatePriority) (dateParts, bool) {
	var alpha, num []string
	rs := []rune(s)
	for i := 0; i < len(rs); {
		j := i + 1
		switch {
		case isDigit(rs[i]):
			for j < len(rs) && isDigit(rs[j]) {
				j++
			}
			num = append(num, string(rs[i:j]))
		case isDivider(rs[i]):
		default:
			for j < len(rs) && !isDigit(rs[j]) && !isDivider(rs[j]) {
				j++
			}
			alpha = append(alpha, string(rs[i:j]))
		}
		i = j
	}
	var p dateParts
	if len(num) < 2 || len(num) > 7 || len(alpha)+len(num) < 3 {
		return p, false
	}

	month, half := 0, -1
	for _, a := range alpha {
		if h := w.half(a); h >= 0 {
			if half >= 0 {
				return p, false
			}
			half = h
		} else if m := w.month(a); m > 0 {
			if month > 0 {
				return p, false
			}
			month = m
		}
	}

	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	next := 3
	yearText := ""
	if month > 0 {
		if len(num) > 6 {
			return p, false
		}
		next = 2
		p.month = month
		a, b := num[0], num[1]
		switch {
		case len(a) > 3 && len(b) < 3:
			yearText, p.day = a, atoi(b)
		case len(a) < 3 && len(b) > 3:
			yearText, p.day = b, atoi(a)
		case priority == YMD:
			yearText, p.day = a, atoi(b)
		default:
			yearText, p.day = b, atoi(a)
		}
	} else {
		if len(num) < 3 {
			return p, false
		}
		a, b, c := num[0], num[1], num[2]
		switch {
		case len(a) > 2 && len(b) < 3 && len(c) < 3:
			yearText, p.month, p.day = a, atoi(b), atoi(c)
		case len(a) < 3 && len(b) > 2 && len(c) < 3:
			yearText = b
			if priority == DMY {
				p.month, p.day = atoi(c), atoi(a)
			} else {
				p.month, p.day = atoi(a), atoi(c)
			}
		case len(a) < 3 && len(b) < 3 && len(c) > 2:
			yearText = c
			if priority == DMY {
				p.month, p.day = atoi(b), atoi(a)
			} else {
				p.month, p.day = atoi(a), atoi(b)
			}
		case priority == YMD:
			yearText, p.month, p.day = a, atoi(b), atoi(c)
		case priority == MDY:
			yearText, p.month, p.day = c, atoi(a), atoi(b)
		default:
			yearText, p.month, p.day = c, atoi(b), atoi(a)
		}
	}
	p.year = fullYear(yearText, atoi(yearText))

	if next < len(num) {
		p.hour = atoi(num[next])
		if half >= 0 {
			p.hour = p.hour%12 + half
		}
		if next+1 < len(num) {
			p.minute = atoi(num[next+1])
		}
		if next+2 < len(num) {
			p.ticks = int64(atoi(num[next+2])) * second
		}
		if next+3 < len(num) {
			p.ticks += fraction(num[next+3])
		}
	}
	return p, true
}

// Pattern reads dates with a regular expression whose named groups give
// the fields: y year, M month number or name, d day of month, D day of
// year, H hour, m minute, s seconds with optional fraction and t am/pm.
type Pattern struct {
	re *regex.Regex
}

// CompilePattern compiles a date pattern. It needs a y group and either
// a D group or both M and d.
func CompilePattern(pattern string) (*Pattern, error) {
	re, err := regex.Compile(pattern, regex.Options{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	has := make(map[string]bool)
	for _, name := range re.GroupNames() {
		has[name] = true
	}
	switch {
	case !has["y"]:
		return nil, fmt.Errorf("%w: %q has no y group for the year", ErrInvalidPattern, pattern)
	case !has["D"] && !(has["M"] && has["d"]):
		return nil, fmt.Errorf("%w: %q needs a D group, or M and d groups", ErrInvalidPattern, pattern)
	}
	return &Pattern{re: re}, nil
}

func (w *words) parsePattern(pat *Pattern, s string) (dateParts, bool) {
	var p dateParts
	m, ok := pat.re.FindString(s)
	if !ok {
		return p, false
	}
	year, doy := m.NamedText("y"), m.NamedText("D")
	month, dom := m.NamedText("M"), m.NamedText("d")
	if year == "" || doy == "" && (month == "" || dom == "") || doy != "" && (month != "" || dom != "") {
		return p, false
	}
	num := func(s string) (int, bool) {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		return n, err == nil
	}
	y, ok := num(year)
	if !ok {
		return p, false
	}
	p.year = fullYear(year, y)
	if doy != "" {
		n, ok := num(doy)
		if !ok || n < 1 || n > 366 {
			return p, false
		}
		d := time.Date(p.year, time.January, n, 0, 0, 0, 0, time.UTC)
		p.month, p.day = int(d.Month()), d.Day()
	} else {
		if p.month, ok = num(month); !ok {
			p.month = w.month(month)
		}
		if p.day, ok = num(dom); !ok {
			return p, false
		}
	}

	if h := m.NamedText("H"); h != "" {
		if p.hour, ok = num(h); !ok {
			return p, false
		}
	}
	if t := m.NamedText("t"); t != "" {
		half := w.half(t)
		if half < 0 {
			return p, false
		}
		p.hour = p.hour%12 + half
	}
	if mi := m.NamedText("m"); mi != "" {
		if p.minute, ok = num(mi); !ok {
			return p, false
		}
	}
	if sec := m.NamedText("s"); sec != "" {
		whole, frac, _ := strings.Cut(strings.ReplaceAll(sec, ",", "."), ".")
		n, ok := num(whole)
		if !ok {
			return p, false
		}
		p.ticks = int64(n)*second + fraction(frac)
	}
	return p, true
}
