package numeric

import (
	"math"
	"strconv"
	"strings"
)

// Format describes how a value is written back as text.
type Format struct {
	// Thousands is inserted between groups of three digits; empty for none.
	Thousands string
	// LeftPad is the minimum number of digits left of the decimal separator
	// or first colon.
	LeftPad int
	// MinDec is the minimum number of decimal places; -1 also drops a
	// trailing decimal separator.
	MinDec int
	// MaxDec is the number of decimal places values are rounded to.
	MaxDec int
	// TimeEnable is the bit mask of permitted formats: 1 scalar, 2 one
	// colon, 4 two colons, 8 three colons.
	TimeEnable int
}

// DefaultFormat writes up to six decimals, trimming trailing zeros.
func DefaultFormat() Format {
	return Format{LeftPad: 1, MinDec: -1, MaxDec: 6, TimeEnable: 1}
}

// scientificThreshold is the magnitude beyond which float64 no longer
// represents every integer.
const scientificThreshold = float64(1 << 53)

// FormatValue writes value according to f. Values are in the time scalar
// unit of st; when f enables time formats the shortest enabled format that
// shows the value without loss is chosen. Non-finite values format as "".
func FormatValue(value float64, f Format, st Settings) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ""
	}
	tsu := st.TimeScalarUnit
	rule := st.TimePartialRule

	// segments[n] is the unit of the rightmost segment of the n-colon
	// format, or -1 when that format is not enabled.
	var segments [4]int
	var minSeg, maxSeg int
	if f.TimeEnable&14 != 0 {
		segments = [4]int{-1, -1, -1, -1}
		if f.TimeEnable&1 != 0 {
			segments[0] = tsu
		}
		if f.TimeEnable&2 != 0 {
			segments[1] = oneColonUnit(rule)
		}
		if f.TimeEnable&4 != 0 {
			segments[2] = twoColonUnit(rule)
		}
		if f.TimeEnable&8 != 0 {
			segments[3] = Seconds
		}
		maxSeg = max(segments[0], segments[1], segments[2], segments[3])
		leftmost := func(n int) int {
			if segments[n] < 0 {
				return Seconds
			}
			return segments[n] - n
		}
		minSeg = min(leftmost(0), leftmost(1), leftmost(2), leftmost(3))
	} else {
		segments = [4]int{tsu, -1, -1, -1}
		minSeg, maxSeg = tsu, tsu
	}

	if tsu != maxSeg {
		value *= factors[tsu][maxSeg]
	}
	if math.Abs(value) > scientificThreshold {
		return scientific(value, st)
	}
	scale := math.Pow(10, float64(f.MaxDec))
	value = math.Round(value*scale) / scale

	best := 0
	var segFinal, segValue [4]int64
	if minSeg != maxSeg {
		whole := math.Trunc(math.Abs(value))
		needRight := maxSeg
		if whole == math.Abs(value) {
			needRight = minSeg
		}
		wantLeft := maxSeg
		segFinal[maxSeg] = int64(whole)
		segValue[maxSeg] = int64(whole)
		for i := maxSeg; i > minSeg; i-- {
			radix := int64(60)
			if i == 1 {
				radix = 24
			}
			segValue[i-1] = segValue[i] / radix
			segFinal[i-1] = segValue[i-1]
			segValue[i] %= radix
			if segValue[i] != 0 && needRight < i {
				needRight = i
			}
			if segValue[i-1] != 0 {
				wantLeft = i - 1
			}
		}
		best = -1
		for i := 0; i < 4; i++ {
			if segments[i] < needRight {
				continue
			}
			if best < 0 || (segments[best]-best > wantLeft && segments[i]-i < segments[best]-best) {
				best = i
			}
		}
	}

	var s string
	if best == 0 && segments[best] == maxSeg {
		s = strconv.FormatFloat(value, 'f', f.MaxDec, 64)
	} else {
		var b strings.Builder
		if value < 0 {
			b.WriteByte('-')
		}
		fromSeg := segments[best] - best
		b.WriteString(strconv.FormatInt(segFinal[fromSeg], 10))
		for i := fromSeg + 1; i <= segments[best]; i++ {
			b.WriteByte(':')
			if segValue[i] < 10 {
				b.WriteByte('0')
			}
			b.WriteString(strconv.FormatInt(segValue[i], 10))
		}
		if segments[best] == maxSeg && f.MaxDec > 0 {
			frac := math.Abs(value) - math.Trunc(math.Abs(value))
			b.WriteString(strconv.FormatFloat(frac, 'f', f.MaxDec, 64)[1:])
		}
		s = b.String()
	}

	if f.LeftPad > 1 {
		left := strings.IndexAny(s, ".:")
		if left < 0 {
			left = len(s)
		}
		negative := s[0] == '-'
		if negative {
			left--
		}
		if left < f.LeftPad {
			zeros := strings.Repeat("0", f.LeftPad-left)
			if negative {
				s = "-" + zeros + s[1:]
			} else {
				s = zeros + s
			}
		}
	}

	if f.MaxDec > 0 && segments[best] == maxSeg {
		if f.MinDec < f.MaxDec {
			dMin := max(f.MinDec, 0)
			keep := max(len(strings.TrimRight(s, "0")), len(s)-(f.MaxDec-dMin))
			s = s[:keep]
			if f.MinDec < 0 && !isDigit(rune(s[len(s)-1])) {
				s = s[:len(s)-1]
			}
		}
	} else if f.MinDec == 0 {
		s += "."
	}

	if st.DecimalComma {
		s = strings.Replace(s, ".", ",", 1)
	}

	if f.Thousands != "" {
		s = groupThousands(s, f.Thousands, byte(st.Decimal()))
	}
	return s
}

// scientific writes a value too large for exact integer rendering. The
// mantissa is never grouped into thousands.
func scientific(value float64, st Settings) string {
	s := strconv.FormatFloat(value, 'e', -1, 64)
	if st.DecimalComma {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

// groupThousands inserts sep every three digits left of the decimal
// separator, and every three digits right of it when there are more than
// three decimals.
func groupThousands(s, sep string, decimal byte) string {
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}
	notDigit := func(c rune) bool { return !isDigit(c) }
	j := strings.IndexFunc(s, notDigit)
	if j < 0 {
		j = len(s)
	} else {
		k := strings.LastIndexFunc(s, notDigit)
		if s[k] == decimal {
			if p := len(s) - k - 1; p > 3 {
				for q := len(s) - (p-1)%3 - 1; q > k+1; q -= 3 {
					s = s[:q] + sep + s[q:]
				}
			}
		}
	}
	for q := j - 3; q > 0; q -= 3 {
		s = s[:q] + sep + s[q:]
	}
	if negative {
		s = "-" + s
	}
	return s
}
