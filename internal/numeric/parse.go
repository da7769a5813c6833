// Package numeric parses and formats the free-form numbers found in text
// columns: signs and currency symbols before or after the digits,
// thousands marks, a locale decimal separator, and colon-separated
// time values such as 1:30 or 2:15:07.5.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// Time units, from largest to smallest.
const (
	Days = iota
	Hours
	Minutes
	Seconds
)

// Settings controls how numbers are read and written.
type Settings struct {
	// DecimalComma makes ',' the decimal separator instead of '.'.
	DecimalComma bool
	// TimeScalarUnit is the unit of a number without colons.
	TimeScalarUnit int
	// TimePartialRule selects the meaning of times with one and two colons:
	// 0 d:h and d:h:m, 1 h:m and d:h:m, 2 h:m and h:m:s, 3 m:s and h:m:s.
	TimePartialRule int
	// TimeFormatEnable is the bit mask of time formats offered when results
	// are formatted as times: 1 scalar, 2 one colon, 4 two colons, 8 three.
	TimeFormatEnable int
}

// DefaultSettings reads scalars as seconds, one colon as m:s and two as h:m:s.
func DefaultSettings() Settings {
	return Settings{TimeScalarUnit: Seconds, TimePartialRule: 3, TimeFormatEnable: 15}
}

// Decimal returns the decimal separator.
func (s Settings) Decimal() rune {
	if s.DecimalComma {
		return ','
	}
	return '.'
}

// Value is the result of parsing a number.
type Value struct {
	Value         float64
	DecimalPlaces int
	TimeSegments  int
}

// OK reports whether the text was a number.
func (v Value) OK() bool {
	return !math.IsNaN(v.Value) && !math.IsInf(v.Value, 0)
}

var nan = Value{Value: math.NaN()}

// factors[from][to] converts a quantity in unit from to unit to.
var factors = [4][4]float64{
	{1, 24, 60 * 24, 60 * 60 * 24},
	{1. / 24, 1, 60, 60 * 60},
	{1. / 24 / 60, 1. / 60, 1, 60},
	{1. / 24 / 60 / 60, 1. / 60 / 60, 1. / 60, 1},
}

const (
	currencyChars = "$\u00a2\u00a3\u00a4\u00a5\u058f\u060b\u07fe\u07ff\u09f2\u09f3\u09fb\u0af1\u0bf9\u0e3f\u17db" +
		"\u20a0\u20a1\u20a2\u20a3\u20a4\u20a5\u20a6\u20a7\u20a8\u20a9\u20aa\u20ab\u20ac\u20ad\u20ae\u20af" +
		"\u20b0\u20b1\u20b2\u20b3\u20b4\u20b5\u20b6\u20b7\u20b8\u20b9\u20ba\u20bb\u20bc\u20bd\u20be\u20bf" +
		"\ua838\ufdfc\ufe69\uff04\uffe0\uffe1\uffe5\uffe6"
	plusChars   = "+\uff0b"
	minusChars  = "-\u2012\u2013\u2212\ufe63\uff0d"
	spaceChars  = " \u00a0\u2000\u2001\u2002\u2003\u2004\u2005\u2006\u2007\u2008\u2009\u200a\u202f\u205f"
	insideChars = ".,:'0123456789" + spaceChars
	affixChars  = spaceChars + currencyChars + plusChars + minusChars
	signChars   = plusChars + minusChars
)

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func in(set string, r rune) bool { return strings.ContainsRune(set, r) }

func indexIn(rs []rune, set string) int {
	for i, r := range rs {
		if in(set, r) {
			return i
		}
	}
	return -1
}

func lastIndexIn(rs []rune, set string) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if in(set, rs[i]) {
			return i
		}
	}
	return -1
}

func indexNotIn(rs []rune, set string) int {
	for i, r := range rs {
		if !in(set, r) {
			return i
		}
	}
	return -1
}

func lastIndexNotIn(rs []rune, set string) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if !in(set, rs[i]) {
			return i
		}
	}
	return -1
}

// Parse reads a number from text. Anything ambiguous, such as two decimal
// separators or a sign both before and after the digits, yields a Value
// whose OK method returns false. Parentheses are not a negative sign.
func Parse(text string, st Settings) Value {
	v, _, _ := parse(text, st)
	return v
}

// splitExponent finds an exponent such as e+16 directly after the last
// mantissa digit of s, where right is the index of the last digit. It
// returns the index of the 'e' and the exponent text.
func splitExponent(s []rune, right int) (int, string, bool) {
	i := right
	for i >= 0 && isDigit(s[i]) {
		i--
	}
	if i < 1 {
		return 0, "", false
	}
	digits := i + 1
	if s[i] == '+' || s[i] == '-' {
		i--
	}
	if i < 1 || (s[i] != 'e' && s[i] != 'E') || !isDigit(s[i-1]) {
		return 0, "", false
	}
	sign := ""
	if digits-i == 2 && s[i+1] == '-' {
		sign = "-"
	}
	return i, sign + string(s[digits:right+1]), true
}

// parse returns the value, the text as runes and the rune index of the
// (possibly implicit) decimal separator.
func parse(text string, st Settings) (Value, []rune, int) {
	s := []rune(text)
	dec := st.Decimal()

	left, right := -1, -1
	for i, r := range s {
		if isDigit(r) {
			if left < 0 {
				left = i
			}
			right = i
		}
	}
	if left < 0 {
		return nan, s, -1
	}

	if e, exp, ok := splitExponent(s, right); ok {
		mantissa := string(s[:e]) + string(s[right+1:])
		v, _, dp := parse(mantissa, st)
		if !v.OK() || v.TimeSegments > 0 {
			return nan, s, -1
		}
		f, err := strconv.ParseFloat(strconv.FormatFloat(v.Value, 'g', -1, 64)+"e"+exp, 64)
		if err != nil {
			return nan, s, -1
		}
		n, _ := strconv.Atoi(exp)
		return Value{Value: f, DecimalPlaces: max(v.DecimalPlaces-n, 0)}, s, dp
	}

	decimalPosition := -1
	if left > 0 && s[left-1] == dec {
		left--
		decimalPosition = left
	} else {
		for i := left; i < len(s); i++ {
			if s[i] == dec {
				decimalPosition = i
				break
			}
		}
	}
	switch {
	case decimalPosition == right+1:
		right++
	case decimalPosition < 0 || decimalPosition > right:
		decimalPosition = right + 1
	default:
		for i := right; i >= 0; i-- {
			if s[i] == dec {
				if i != decimalPosition {
					return nan, s, -1
				}
				break
			}
		}
	}

	colonPosition := -1
	for i := right; i >= left; i-- {
		if s[i] == ':' {
			colonPosition = i
			break
		}
	}
	if colonPosition >= 0 {
		if colonPosition > decimalPosition {
			return nan, s, -1
		}
		colons := 0
		for _, r := range s[left:right] {
			if r == ':' {
				colons++
			}
		}
		if colons > 3 {
			return nan, s, -1
		}
	}

	prefix := s[:left]
	number := s[left : right+1]
	suffix := s[right+1:]

	if indexNotIn(number, insideChars) >= 0 {
		return nan, s, -1
	}

	negative, foundSign, ok := parsePrefix(prefix)
	if !ok {
		return nan, s, -1
	}
	if negative, _, ok = parseSuffix(suffix, negative, foundSign); !ok {
		return nan, s, -1
	}

	var parts [4]strings.Builder
	level := 0
	separatorOK := true
	for _, r := range number {
		if isDigit(r) {
			parts[level].WriteRune(r)
			separatorOK = true
			continue
		}
		if !separatorOK {
			return nan, s, -1
		}
		separatorOK = false
		if r == dec {
			parts[level].WriteByte('.')
		} else if r == ':' {
			level++
		}
	}

	v, err := strconv.ParseFloat(parts[level].String(), 64)
	if err != nil {
		return nan, s, -1
	}
	n := func(i int) float64 {
		f, _ := strconv.ParseFloat(parts[i].String(), 64)
		return f
	}
	rule := st.TimePartialRule
	unit := st.TimeScalarUnit
	switch level {
	case 1:
		if rule == 0 {
			v += 24 * n(0)
		} else {
			v += 60 * n(0)
		}
		v *= factors[oneColonUnit(rule)][unit]
	case 2:
		if rule < 2 {
			v += 24*60*n(0) + 60*n(1)
		} else {
			v += 60*60*n(0) + 60*n(1)
		}
		v *= factors[twoColonUnit(rule)][unit]
	case 3:
		v += 24*60*60*n(0) + 60*60*n(1) + 60*n(2)
		v *= factors[Seconds][unit]
	}

	if negative {
		v = -v
	}
	result := Value{Value: v, TimeSegments: level}
	if right > decimalPosition {
		result.DecimalPlaces = right - decimalPosition
	}
	return result, s, decimalPosition
}

// oneColonUnit is the unit of the rightmost segment of a one-colon time.
func oneColonUnit(rule int) int {
	switch rule {
	case 0:
		return Hours
	case 3:
		return Seconds
	default:
		return Minutes
	}
}

// twoColonUnit is the unit of the rightmost segment of a two-colon time.
func twoColonUnit(rule int) int {
	if rule < 2 {
		return Minutes
	}
	return Seconds
}

// parsePrefix accepts blanks, a sign and/or a currency symbol, or arbitrary
// text ending in a blank optionally followed by a sign and/or currency symbol.
func parsePrefix(prefix []rune) (negative, foundSign, ok bool) {
	if indexNotIn(prefix, spaceChars) < 0 {
		return false, false, true
	}
	signAt := indexIn(prefix, signChars)
	cncyAt := indexIn(prefix, currencyChars)
	if lastIndexNotIn(prefix, affixChars) < 0 &&
		(signAt < 0 || signAt == lastIndexIn(prefix, signChars)) &&
		(cncyAt < 0 || cncyAt == lastIndexIn(prefix, currencyChars)) {
		if signAt >= 0 {
			return in(minusChars, prefix[signAt]), true, true
		}
		return false, false, true
	}
	lastSpace := lastIndexIn(prefix, spaceChars)
	if lastSpace < 0 {
		return false, false, false
	}
	switch len(prefix) - lastSpace {
	case 1:
		return false, false, true
	case 2:
		c := prefix[lastSpace+1]
		switch {
		case in(currencyChars, c):
			return false, false, true
		case in(plusChars, c):
			return false, true, true
		case in(minusChars, c):
			return true, true, true
		}
	case 3:
		c1, c2 := prefix[lastSpace+1], prefix[lastSpace+2]
		switch {
		case in(currencyChars, c1) && in(signChars, c2):
			return in(minusChars, c2), true, true
		case in(signChars, c1) && in(currencyChars, c2):
			return in(minusChars, c1), true, true
		}
	}
	return false, false, false
}

// parseSuffix accepts blanks, a sign and/or currency symbol, a sign and/or
// currency symbol followed by a blank and arbitrary text, or arbitrary text
// not starting with a sign.
func parseSuffix(suffix []rune, negative, foundSign bool) (bool, bool, bool) {
	if indexNotIn(suffix, spaceChars) < 0 {
		return negative, foundSign, true
	}
	firstArbitrary := indexNotIn(suffix, affixChars)
	signAt := indexIn(suffix, signChars)
	cncyAt := indexIn(suffix, currencyChars)
	if firstArbitrary < 0 &&
		(signAt < 0 || signAt == lastIndexIn(suffix, signChars)) &&
		(cncyAt < 0 || cncyAt == lastIndexIn(suffix, currencyChars)) {
		if signAt >= 0 {
			if foundSign {
				return false, false, false
			}
			return in(minusChars, suffix[signAt]), true, true
		}
		return negative, foundSign, true
	}
	if firstArbitrary == 0 {
		return negative, foundSign, true
	}
	firstSpace := indexIn(suffix, spaceChars)
	if firstSpace == 0 {
		return negative, foundSign, true
	}
	if cncyAt == 0 {
		isMinus := in(minusChars, suffix[1])
		isPlus := !isMinus && in(plusChars, suffix[1])
		if isPlus || isMinus {
			if foundSign || firstSpace != 2 {
				return false, false, false
			}
			return isMinus, true, true
		}
		return negative, foundSign, true
	}
	if foundSign || !(firstSpace == 1 || (cncyAt == 1 && firstSpace == 2)) {
		return false, false, false
	}
	return in(minusChars, suffix[0]), true, true
}
