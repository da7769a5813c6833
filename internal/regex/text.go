// Package regex runs regular expressions over document text addressed by
// byte position. Text is decoded once into runes for the matcher; every
// rune remembers the byte offset it came from, so matches map back to
// document positions exactly.
package regex

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// invalidBase maps an undecodable byte b to the rune invalidBase+b. These
// are low surrogate code points, which valid UTF-8 never produces, so each
// stray byte stays a distinct one-byte character.
const invalidBase = 0xDC00

// Text is a string decoded for matching.
type Text struct {
	src     string
	runes   []rune
	offsets []int
}

// NewText decodes s.
func NewText(s string) *Text {
	t := &Text{
		src:     s,
		runes:   make([]rune, 0, len(s)),
		offsets: make([]int, 0, len(s)+1),
	}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			r = invalidBase + rune(s[i])
		}
		t.runes = append(t.runes, r)
		t.offsets = append(t.offsets, i)
		i += size
	}
	t.offsets = append(t.offsets, len(s))
	return t
}

func (t *Text) String() string { return t.src }
func (t *Text) Runes() []rune  { return t.runes }
func (t *Text) Len() int       { return len(t.runes) }

// Offset returns the byte offset of rune i. Offset(Len()) is the length of
// the text in bytes.
func (t *Text) Offset(i int) int {
	i = min(max(i, 0), len(t.runes))
	return t.offsets[i]
}

// Index returns the index of the first rune starting at or after byte
// offset off.
func (t *Text) Index(off int) int {
	return sort.SearchInts(t.offsets, off)
}

// Slice returns the bytes of runes i through j-1.
func (t *Text) Slice(i, j int) string {
	return t.src[t.Offset(i):t.Offset(j)]
}

// IsInvalid reports whether r stands for an undecodable byte.
func IsInvalid(r rune) bool {
	return r >= invalidBase && r < invalidBase+0x100
}

// Quote escapes s for use as a literal pattern. Undecodable bytes are
// written as the characters Text decodes them to.
func Quote(s string) string {
	var b strings.Builder
	valid := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteString(regexp2.Escape(s[valid:i]))
			fmt.Fprintf(&b, `\u%04X`, invalidBase+rune(s[i]))
			valid = i + 1
		}
		i += size
	}
	b.WriteString(regexp2.Escape(s[valid:]))
	return b.String()
}
