package timestamps

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/tui-columns/internal/buffer"
	"github.com/pstuifzand/tui-columns/internal/columns"
	"github.com/pstuifzand/tui-columns/internal/metrics"
)

func at(year int, month time.Month, d, h, m, s int) int64 {
	return time.Date(year, month, d, h, m, s, 0, time.UTC).Unix() * second
}

func TestFromCounter(t *testing.T) {
	tests := []struct {
		name    string
		counter Counter
		text    string
		want    int64
	}{
		{"unix zero", Unix, "0", 0},
		{"unix", Unix, "86400", at(1970, time.January, 2, 0, 0, 0)},
		{"unix fraction", Unix, "1.5", second + second/2},
		{"unix negative", Unix, "-60", -minute},
		{"unix grouped", Unix, "1,000", 1000 * second},
		{"unix ms", UnixMillis, "1500", second + second/2},
		{"excel day one", Excel1900, "1", at(1900, time.January, 1, 0, 0, 0)},
		{"excel after leap day", Excel1900, "61", at(1900, time.March, 1, 0, 0, 0)},
		{"excel noon", Excel1900, "45000.5", at(2023, time.March, 15, 12, 0, 0)},
		{"excel 1904", Excel1904, "0", at(1904, time.January, 1, 0, 0, 0)},
		{"filetime", FileTime, "116444736000000000", 0},
		{"ticks", DotNetTicks, "621355968000000000", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.counter.FromCounter(tt.text, '.')
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromCounterRejects(t *testing.T) {
	for _, text := range []string{"", "  ", "abc", "1.2.3", "2024-01-01", "-", "1e5"} {
		_, ok := Unix.FromCounter(text, '.')
		assert.False(t, ok, text)
	}
}

func TestToCounter(t *testing.T) {
	tests := []struct {
		name    string
		counter Counter
		t       int64
		dsep    byte
		want    string
	}{
		{"unix", Unix, at(2000, time.January, 1, 0, 0, 0), '.', "946684800"},
		{"unix fraction", Unix, second + second/4, '.', "1.25"},
		{"unix decimal comma", Unix, second + second/2, ',', "1,5"},
		{"unix negative", Unix, -second / 2, '.', "-0.5"},
		{"unix ms", UnixMillis, second, '.', "1000"},
		{"excel day one", Excel1900, at(1900, time.January, 1, 0, 0, 0), '.', "1"},
		{"excel after leap day", Excel1900, at(1900, time.March, 1, 0, 0, 0), '.', "61"},
		{"excel quarter day", Excel1900, at(1900, time.March, 1, 6, 0, 0), '.', "61.25"},
		{"excel 1904", Excel1904, at(1904, time.January, 2, 0, 0, 0), '.', "1"},
		{"filetime", FileTime, 0, '.', "116444736000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.counter.ToCounter(tt.t, tt.dsep))
		})
	}
}

func TestRatio(t *testing.T) {
	assert.Equal(t, "0", ratio(0, 10, '.'))
	assert.Equal(t, "0.1", ratio(1, 10, '.'))
	assert.Equal(t, "0.001", ratio(1, 1000, '.'))
}

func TestParseCounter(t *testing.T) {
	for c := range counterNames {
		got, err := ParseCounter(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCounter("julian")
	assert.Error(t, err)
}

func TestParseGeneric(t *testing.T) {
	w := newWords()
	tests := []struct {
		name     string
		text     string
		priority DatePriority
		want     int64
	}{
		{"iso date", "2024-02-29", YMD, at(2024, time.February, 29, 0, 0, 0)},
		{"iso date time", "2024-02-29 13:45:10", YMD, at(2024, time.February, 29, 13, 45, 10)},
		{"iso with T", "2024-02-29T13:45", YMD, at(2024, time.February, 29, 13, 45, 0)},
		{"fraction", "1970-01-01 00:00:01.5", YMD, second + second/2},
		{"year last mdy", "02/03/2024", MDY, at(2024, time.February, 3, 0, 0, 0)},
		{"year last dmy", "02/03/2024", DMY, at(2024, time.March, 2, 0, 0, 0)},
		{"year first beats priority", "2024/02/03", DMY, at(2024, time.February, 3, 0, 0, 0)},
		{"two digit years", "24-02-03", YMD, at(2024, time.February, 3, 0, 0, 0)},
		{"two digit years last century", "02/03/99", MDY, at(1999, time.February, 3, 0, 0, 0)},
		{"month name", "5 January 2024", YMD, at(2024, time.January, 5, 0, 0, 0)},
		{"month abbreviation", "JAN 5, 2024", YMD, at(2024, time.January, 5, 0, 0, 0)},
		{"month name short year", "Sept 5 24", MDY, at(2024, time.September, 5, 0, 0, 0)},
		{"pm", "2024-01-05 3:30 pm", YMD, at(2024, time.January, 5, 15, 30, 0)},
		{"twelve am", "2024-01-05 12:10 AM", YMD, at(2024, time.January, 5, 0, 10, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := w.parseGeneric(tt.text, tt.priority)
			require.True(t, ok)
			got, ok := p.instant()
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseGenericRejects(t *testing.T) {
	w := newWords()
	for _, text := range []string{"", "12", "a b c", "2024-02-30", "2024-13-01", "Jan Feb 2024 5", "1 2 3 4 5 6 7 8"} {
		p, ok := w.parseGeneric(text, YMD)
		if ok {
			_, ok = p.instant()
		}
		assert.False(t, ok, text)
	}
}

func TestPattern(t *testing.T) {
	w := newWords()
	tests := []struct {
		name    string
		pattern string
		text    string
		want    int64
	}{
		{"day of year", `(?<y>\d{4})/(?<D>\d{3})`, "2024/060", at(2024, time.February, 29, 0, 0, 0)},
		{"month name", `(?<d>\d+)-(?<M>\w+)-(?<y>\d+)`, "05-Mar-24", at(2024, time.March, 5, 0, 0, 0)},
		{"time with half", `(?<M>\d+)\.(?<d>\d+)\.(?<y>\d+) (?<H>\d+):(?<m>\d+):(?<s>[\d,]+) ?(?<t>[ap]m)`,
			"3.4.2020 1:02:03,25 pm", at(2020, time.March, 4, 13, 2, 3) + second/4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pat, err := CompilePattern(tt.pattern)
			require.NoError(t, err)
			p, ok := w.parsePattern(pat, tt.text)
			require.True(t, ok)
			got, ok := p.instant()
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompilePatternErrors(t *testing.T) {
	for _, pattern := range []string{`(`, `(?<M>\d+)/(?<d>\d+)`, `(?<y>\d+)/(?<M>\d+)`} {
		_, err := CompilePattern(pattern)
		assert.ErrorIs(t, err, ErrInvalidPattern, pattern)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "1970-01-01 00:00:00", formatDate(0, ""))
	assert.Equal(t, "1970-01-01 00:00:01.5", formatDate(second+second/2, ""))
	assert.Equal(t, "1969-12-31 23:59:59.9", formatDate(-second/10, ""))
	assert.Equal(t, "02/01/1970", formatDate(day, "%d/%m/%Y"))
}

func newDoc(text string) *buffer.Document {
	d := buffer.NewDocument(text, metrics.CellMetrics{Cell: 1})
	d.SetTabWidth(4)
	return d
}

func selectAll(d *buffer.Document, width int) {
	end := d.Length()
	vs := max(width-d.PointXFromPosition(end), 0)
	d.SetRectangularSelection(0, 0, end, vs)
}

func TestToDatetime(t *testing.T) {
	d := newDoc("0\nx\n86400")
	selectAll(d, 5)
	res, err := ToDatetime(context.Background(), d, columns.DefaultOptions(), DefaultSpec())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "1970-01-01 00:00:00\nx\n1970-01-02 00:00:00", d.String())

	require.True(t, d.Undo())
	assert.Equal(t, "0\nx\n86400", d.String())
}

func TestToCounterAlignsDecimals(t *testing.T) {
	d := newDoc("1970-01-01 00:00:01.5\n2000-01-01")
	selectAll(d, 21)
	res, err := ToCounter(context.Background(), d, columns.DefaultOptions(), DefaultSpec())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "        1.5\n946684800", d.String())
}

func TestConvertNothing(t *testing.T) {
	d := newDoc("a\nb")
	selectAll(d, 1)
	res, err := ToDatetime(context.Background(), d, columns.DefaultOptions(), DefaultSpec())
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.NotEmpty(t, res.Message)
	assert.Equal(t, "a\nb", d.String())
}

func TestConvertBadPattern(t *testing.T) {
	d := newDoc("2024")
	selectAll(d, 4)
	spec := DefaultSpec()
	spec.Pattern = `(?<d>\d+)`
	_, err := ToDatetime(context.Background(), d, columns.DefaultOptions(), spec)
	assert.ErrorIs(t, err, ErrInvalidPattern)
}
