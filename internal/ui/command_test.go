package ui

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/tui-columns/internal/history"
)

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func typeText(c *CommandMode, s string) {
	for _, r := range s {
		c.HandleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

func TestCommandModeEnter(t *testing.T) {
	c := NewCommandMode()
	c.Start()
	typeText(c, "  sort 2n ")
	cmd, done := c.HandleKey(key(tcell.KeyEnter))
	assert.True(t, done)
	assert.Equal(t, "sort 2n", cmd)
	assert.False(t, c.IsActive())
}

func TestCommandModeEditing(t *testing.T) {
	c := NewCommandMode()
	c.Start()
	typeText(c, "align €right")
	c.HandleKey(key(tcell.KeyCtrlW))
	assert.Equal(t, "align", c.GetInput())

	typeText(c, "x€")
	c.HandleKey(key(tcell.KeyLeft))
	c.HandleKey(key(tcell.KeyBackspace2))
	assert.Equal(t, "align €", c.GetInput())

	c.HandleKey(key(tcell.KeyHome))
	c.HandleKey(key(tcell.KeyDelete))
	assert.Equal(t, "lign €", c.GetInput())
}

func TestCommandModeCompletion(t *testing.T) {
	c := NewCommandMode()
	c.Complete = func(input string) []string {
		var out []string
		for _, s := range []string{"align left", "align right", "average"} {
			if strings.HasPrefix(s, input) {
				out = append(out, s)
			}
		}
		return out
	}
	c.Start()
	typeText(c, "al")

	c.HandleKey(key(tcell.KeyTab))
	assert.Equal(t, "align left", c.GetInput())
	c.HandleKey(key(tcell.KeyTab))
	assert.Equal(t, "align right", c.GetInput())
	c.HandleKey(key(tcell.KeyTab))
	assert.Equal(t, "align left", c.GetInput(), "candidates wrap around")
	c.HandleKey(key(tcell.KeyBacktab))
	assert.Equal(t, "align right", c.GetInput())

	// typing starts a new completion from the edited input
	typeText(c, "x")
	c.HandleKey(key(tcell.KeyTab))
	assert.Equal(t, "align rightx", c.GetInput())
}

func TestCommandHistoryPersists(t *testing.T) {
	m, err := history.NewManagerAt(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)

	c, err := NewCommandModeWithHistory(m)
	require.NoError(t, err)
	c.Start()
	typeText(c, "count")
	c.HandleKey(key(tcell.KeyEnter))

	again, err := NewCommandModeWithHistory(m)
	require.NoError(t, err)
	again.Start()
	again.HandleKey(key(tcell.KeyUp))
	assert.Equal(t, "count", again.GetInput())
}

func TestCommandHistoryPrefix(t *testing.T) {
	c := NewCommandMode()
	for _, line := range []string{"sort 2n", "align right", "sort desc", "sort 2n"} {
		c.Start()
		typeText(c, line)
		c.HandleKey(key(tcell.KeyEnter))
	}

	c.Start()
	typeText(c, "so")
	c.HandleKey(key(tcell.KeyUp))
	assert.Equal(t, "sort 2n", c.GetInput(), "a repeated line moves to the end")
	c.HandleKey(key(tcell.KeyUp))
	assert.Equal(t, "sort desc", c.GetInput())
	c.HandleKey(key(tcell.KeyUp))
	assert.Equal(t, "sort desc", c.GetInput(), "no older match")
	c.HandleKey(key(tcell.KeyDown))
	assert.Equal(t, "sort 2n", c.GetInput())
	c.HandleKey(key(tcell.KeyDown))
	assert.Equal(t, "so", c.GetInput(), "back to the typed text")

	c.Start()
	c.HandleKey(key(tcell.KeyUp))
	c.HandleKey(key(tcell.KeyUp))
	c.HandleKey(key(tcell.KeyUp))
	assert.Equal(t, "align right", c.GetInput())
}
