package host

// Metrics measures strings in pixels for one font.
type Metrics interface {
	TextWidth(s string) int
}

// BlankCount converts a pixel distance to a number of blanks of width blank,
// rounding half away from zero.
func BlankCount(px, blank int) int {
	if blank <= 0 {
		return 0
	}
	if px >= 0 {
		return (2*px + blank) / (2 * blank)
	}
	return (2*px - blank) / (2 * blank)
}

// PositionFromLineAndPointX returns the character boundary on line nearest
// to the pixel column px (relative to the host's coordinate origin). Ties go
// to the left boundary. When px lies beyond the end of the line the line end
// is returned.
func PositionFromLineAndPointX(h interface {
	Text
	Geometry
}, line, px int) int {
	pos := h.PositionFromLine(line)
	end := h.LineEndPosition(line)
	prev := pos
	prevX := h.PointXFromPosition(pos)
	if prevX >= px {
		return pos
	}
	for pos < end {
		pos = h.PositionAfter(pos)
		x := h.PointXFromPosition(pos)
		if x == px {
			return pos
		}
		if x > px {
			if x-px < px-prevX {
				return pos
			}
			return prev
		}
		prev, prevX = pos, x
	}
	return end
}

// GuessMonospaced reports whether a blank and a wide letter measure the same.
func GuessMonospaced(m Metrics) bool {
	blank := m.TextWidth(" ")
	if blank == 0 {
		return false
	}
	for _, probe := range []string{"W", "i", "0", "m"} {
		if m.TextWidth(probe) != blank {
			return false
		}
	}
	return true
}
