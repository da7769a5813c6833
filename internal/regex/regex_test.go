package regex

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextOffsets(t *testing.T) {
	tx := NewText("aé\xffb")
	require.Equal(t, 4, tx.Len())
	assert.Equal(t, []int{0, 1, 3, 4}, []int{tx.Offset(0), tx.Offset(1), tx.Offset(2), tx.Offset(3)})
	assert.Equal(t, 5, tx.Offset(tx.Len()))
	assert.True(t, IsInvalid(tx.Runes()[2]))
	assert.Equal(t, 2, tx.Index(3))
	assert.Equal(t, 2, tx.Index(2), "offset inside a character rounds up")
	assert.Equal(t, "é\xff", tx.Slice(1, 3))
}

func TestFindMapsToBytes(t *testing.T) {
	r := MustCompile(`(\d+)-(?<word>\w+)`, Options{})
	tx := NewText("ü 12-ab")
	m, err := r.Find(tx, 0, -1)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 3, m.Start)
	assert.Equal(t, 8, m.End)
	assert.Equal(t, "12", m.Text(1))
	assert.Equal(t, "ab", m.NamedText("word"))
	assert.Equal(t, "", m.Text(7))
	assert.Equal(t, 3, m.Len())
}

func TestFindRespectsLimits(t *testing.T) {
	r := MustCompile(`b+`, Options{})
	tx := NewText("abbb abbb")
	m, err := r.Find(tx, 0, 3)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, [2]int{1, 3}, [2]int{m.Start, m.End})

	m, err = r.Find(tx, 4, -1)
	require.NoError(t, err)
	assert.Equal(t, 6, m.Start)

	m, err = r.FindLast(tx, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 6, m.Start)

	m, err = r.Find(tx, 9, -1)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestLookbehindSeesTextBeforeStart(t *testing.T) {
	r := MustCompile(`(?<=x)y`, Options{})
	m, err := r.Find(NewText("xy"), 1, -1)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 1, m.Start)
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		opts    Options
		text    string
		want    bool
	}{
		{"ignore case", "abc", Options{}, "xABC", true},
		{"match case", "abc", Options{MatchCase: true}, "xABC", false},
		{"literal", "a.c", Options{Literal: true}, "abc", false},
		{"literal match", "a.c", Options{Literal: true}, "a.c", true},
		{"whole word", "cat", Options{WholeWord: true}, "concat", false},
		{"whole word match", "cat", Options{WholeWord: true}, "a cat.", true},
		{"multiline anchors", "^b$", Options{}, "a\nb\nc", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := MustCompile(tt.pattern, tt.opts)
			_, ok := r.FindString(tt.text)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestCompileError(t *testing.T) {
	_, err := Compile("(", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPattern))
}

func TestAllSkipsEmptyMatches(t *testing.T) {
	r := MustCompile(`x*`, Options{})
	var starts []int
	require.NoError(t, r.All(NewText("axxb"), 0, -1, func(m *Match) bool {
		starts = append(starts, m.Start)
		return true
	}))
	assert.Equal(t, []int{0, 1, 3, 4}, starts)
}

func TestExpand(t *testing.T) {
	r := MustCompile(`(\w)(\w)(?<rest>\w*)`, Options{})
	m, ok := r.FindString("abcd")
	require.True(t, ok)
	tests := []struct {
		template string
		want     string
	}{
		{"$2$1", "ba"},
		{"${rest}-$$", "cd-$"},
		{`\2\1\t`, "ba\t"},
		{"${1}0", "a0"},
		{"$12", "a2"},
		{"x$", "x$"},
	}
	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Expand(tt.template))
		})
	}
	assert.Equal(t, 3, r.Groups())
}
