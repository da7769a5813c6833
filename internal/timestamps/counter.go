// Package timestamps converts between date-time counters, such as Unix
// time or Excel serial dates, and calendar dates written as text.
//
// Internally every instant is a tick count: 100 nanosecond units since
// 1970-01-01 00:00:00 UTC. Leap seconds are ignored.
package timestamps

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	tick   = 100 * time.Nanosecond
	second = int64(time.Second / tick)
	minute = 60 * second
	hour   = 60 * minute
	day    = 24 * hour
)

// Counter is a kind of date-time counter.
type Counter int

const (
	// Unix counts seconds since 1970-01-01.
	Unix Counter = iota
	// UnixMillis counts milliseconds since 1970-01-01.
	UnixMillis
	// Excel1900 counts days in the 1900 date system of spreadsheets, where
	// day 1 is 1900-01-01 and the nonexistent 1900-02-29 is day 60.
	Excel1900
	// Excel1904 counts days since 1904-01-01.
	Excel1904
	// FileTime counts 100 nanosecond intervals since 1601-01-01.
	FileTime
	// DotNetTicks counts 100 nanosecond intervals since 0001-01-01.
	DotNetTicks
)

var counterNames = map[Counter]string{
	Unix:        "unix",
	UnixMillis:  "unix-ms",
	Excel1900:   "excel",
	Excel1904:   "excel-1904",
	FileTime:    "filetime",
	DotNetTicks: "ticks",
}

func (c Counter) String() string {
	if name, ok := counterNames[c]; ok {
		return name
	}
	return fmt.Sprintf("counter(%d)", int(c))
}

// ParseCounter returns the counter called name.
func ParseCounter(name string) (Counter, error) {
	for c, n := range counterNames {
		if n == name {
			return c, nil
		}
	}
	return Unix, fmt.Errorf("unknown counter type %q", name)
}

func dateTicks(year int, month time.Month, d int) int64 {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Unix() * second
}

// excelLeapDay is the first instant the 1900 date system counts correctly.
var excelLeapDay = dateTicks(1900, time.March, 1)

// epoch returns the instant the counter counts from.
func (c Counter) epoch() int64 {
	switch c {
	case Excel1900:
		return dateTicks(1899, time.December, 30)
	case Excel1904:
		return dateTicks(1904, time.January, 1)
	case FileTime:
		return dateTicks(1601, time.January, 1)
	case DotNetTicks:
		return dateTicks(1, time.January, 1)
	}
	return 0
}

// unit returns the length of one count in ticks.
func (c Counter) unit() int64 {
	switch c {
	case UnixMillis:
		return second / 1000
	case Excel1900, Excel1904:
		return day
	case FileTime, DotNetTicks:
		return 1
	}
	return second
}

// FromCounter converts a counter value written as text to an instant.
func (c Counter) FromCounter(text string, dsep byte) (int64, bool) {
	v, ok := parseCount(text, c.unit(), dsep)
	if !ok {
		return 0, false
	}
	t := v + c.epoch()
	if c == Excel1900 && t < excelLeapDay {
		t += c.unit()
	}
	return t, true
}

// ToCounter writes an instant as a value of the counter, using as many
// decimal places as it takes to be exact, up to fifteen.
func (c Counter) ToCounter(t int64, dsep byte) string {
	if c == Excel1900 && t < excelLeapDay {
		t -= c.unit()
	}
	return ratio(t-c.epoch(), c.unit(), dsep)
}

// parseCount reads a decimal number of units as ticks. Blanks, commas,
// periods and apostrophes other than the decimal separator are ignored in
// the digits.
func parseCount(text string, unit int64, dsep byte) (int64, bool) {
	s := strings.TrimLeft(text, " ")
	if s == "" {
		return 0, false
	}
	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	var integer, fraction strings.Builder
	digits := &integer
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == dsep:
			if digits == &fraction {
				return 0, false
			}
			digits = &fraction
		case c >= '0' && c <= '9':
			digits.WriteByte(c)
		case c == ' ' || c == '.' || c == ',' || c == '\'':
		default:
			return 0, false
		}
	}
	if integer.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(integer.String(), 10, 64)
	if err != nil || n > math.MaxInt64/unit {
		return 0, false
	}
	v := n * unit
	if fraction.Len() > 0 {
		f, err := strconv.ParseFloat("0."+fraction.String(), 64)
		if err != nil {
			return 0, false
		}
		v += int64(math.Round(f * float64(unit)))
	}
	if negative {
		v = -v
	}
	return v, true
}

// ratio writes num/den in decimal with the fewest places that reproduce
// num exactly, up to fifteen.
func ratio(num, den int64, dsep byte) string {
	negative := num < 0
	if negative {
		num = -num
	}
	quotient, remainder := num/den, num%den
	s := strconv.FormatInt(quotient, 10)
	if remainder != 0 {
		divisor := float64(den)
		fraction := float64(remainder) / divisor
		power := 1.0
		places := 0
		for places < 15 && remainder != int64(math.Round(math.Round(fraction*power)*divisor/power)) {
			places++
			power *= 10
		}
		if places > 0 {
			dec := strconv.FormatInt(int64(math.Round(fraction*power)), 10)
			s += string(dsep) + strings.Repeat("0", max(places-len(dec), 0)) + dec
		}
	}
	if negative && s != "0" {
		s = "-" + s
	}
	return s
}

// toTime converts ticks to a UTC time.
func toTime(t int64) time.Time {
	sec, rem := t/second, t%second
	if rem < 0 {
		sec--
		rem += second
	}
	return time.Unix(sec, rem*int64(tick)).UTC()
}
