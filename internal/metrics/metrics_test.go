package metrics

import (
	"testing"

	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/stretchr/testify/assert"
)

func TestCellMetrics(t *testing.T) {
	m := CellMetrics{Cell: 8}
	assert.Equal(t, 0, m.TextWidth(""))
	assert.Equal(t, 24, m.TextWidth("abc"))
	assert.Equal(t, 32, m.TextWidth("a日b"))
	assert.Equal(t, 3, CellMetrics{}.TextWidth("abc"))
	assert.True(t, host.GuessMonospaced(m))
}

func TestFixedFaceIsMonospaced(t *testing.T) {
	m := NewFixed()
	assert.Equal(t, 7, m.TextWidth(" "))
	assert.Equal(t, 21, m.TextWidth("abc"))
	assert.True(t, host.GuessMonospaced(m))
}

func TestGoRegularIsProportional(t *testing.T) {
	m := NewGoRegular(14)
	assert.Greater(t, m.TextWidth("W"), m.TextWidth("i"))
	assert.False(t, host.GuessMonospaced(m))
}
