package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuneWidth(t *testing.T) {
	assert.Equal(t, 1, RuneWidth('a'))
	assert.Equal(t, 2, RuneWidth('世'))
	assert.Equal(t, 0, RuneWidth('́'), "combining acute")
	assert.Equal(t, 0, RuneWidth('\x00'))
}

func TestStringWidth(t *testing.T) {
	assert.Equal(t, 0, StringWidth(""))
	assert.Equal(t, 5, StringWidth("12.50"))
	assert.Equal(t, 6, StringWidth("東京 €"))
}

func TestTruncateToWidth(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"fits", "abc", 5, "abc"},
		{"cut", "abcdef", 3, "abc"},
		{"wide character not split", "a世b", 2, "a"},
		{"zero width", "abc", 0, ""},
		{"negative width", "abc", -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateToWidth(tt.input, tt.width))
		})
	}
}

func TestTruncateToWidthWithEllipsis(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"fits", "Sorted.", 7, "Sorted."},
		{"cut", "Sum of 3 numbers: 12", 8, "Sum of …"},
		{"one cell", "abc", 1, "…"},
		{"wide characters", "世界世界", 5, "世界…"},
		{"zero width", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateToWidthWithEllipsis(tt.input, tt.width)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, StringWidth(got), max(tt.width, 0))
		})
	}
}
