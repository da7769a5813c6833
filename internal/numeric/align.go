package numeric

// Alignment locates the point a number lines up on. When text is a time
// value, colon is the byte offset of the colon that follows the unit
// AlignmentUnit(st) selects and decimal is -1. Otherwise colon is -1 and
// decimal is the byte offset of the decimal separator, or of the position
// just after the ones digit when there is none. ok is false when text is
// not a number.
func Alignment(text string, st Settings) (colon, decimal int, ok bool) {
	v, runes, dp := parse(text, st)
	if !v.OK() {
		return -1, -1, false
	}
	offset := func(runeIndex int) int {
		return len(string(runes[:runeIndex]))
	}
	if v.TimeSegments == 0 {
		return -1, offset(dp), true
	}

	var colons []int
	for i, r := range runes[:dp] {
		if r == ':' {
			colons = append(colons, i)
		}
	}
	n := v.TimeSegments
	k := AlignmentUnit(st) - rightmostUnit(n, st.TimePartialRule) + n
	k = min(max(k, 0), n-1)
	return offset(colons[len(colons)-n+k]), -1, true
}

// AlignmentUnit is the unit whose following colon time values align on.
// It is the leftmost unit of the one-colon format.
func AlignmentUnit(st Settings) int {
	return oneColonUnit(st.TimePartialRule) - 1
}

// ColonDecimalOffset is the number of ":00" widths the alignment colon of a
// time value sits left of the decimal separator of a scalar in the same
// column.
func ColonDecimalOffset(st Settings) int {
	return st.TimeScalarUnit - AlignmentUnit(st)
}

func rightmostUnit(colons, rule int) int {
	switch colons {
	case 1:
		return oneColonUnit(rule)
	case 2:
		return twoColonUnit(rule)
	default:
		return Seconds
	}
}
