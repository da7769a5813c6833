package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	m, err := NewManagerAt(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)

	entries := []string{"align numeric", `replace /(\d+)/(?=$1*2)/`, "sort 2n"}
	require.NoError(t, m.Save("command.toml", entries))

	got, err := m.Load("command.toml")
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestLoadMissing(t *testing.T) {
	m, err := NewManagerAt(t.TempDir())
	require.NoError(t, err)

	got, err := m.Load("none.toml")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadCorrupted(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManagerAt(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.toml"), []byte("entries = [unterminated"), 0644))

	got, err := m.Load("bad.toml")
	require.NoError(t, err)
	assert.Empty(t, got)
}
