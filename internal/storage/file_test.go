package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "data.tsv")
	store := NewFileStore(path)

	text, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, text, "a missing file loads as an empty document")
	assert.False(t, store.FileExists())

	require.NoError(t, store.Save("x\ty\n"))
	assert.True(t, store.FileExists())

	text, err = NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "x\ty\n", text)
}

func TestFileStoreKeepsCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dos.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\r\nb\r\n"), 0644))

	store := NewFileStore(path)
	text, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", text)
	assert.True(t, store.CRLF)

	require.NoError(t, store.Save("a\nc\n"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\r\nc\r\n", string(data))
}

func TestFileStoreWithoutName(t *testing.T) {
	store := NewFileStore("")
	text, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Error(t, store.Save("x"))
}

func TestIsBackupFileDetection(t *testing.T) {
	backupDir := getBackupDir()

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"Empty path", "", false},
		{"Regular file", "/tmp/table.tsv", false},
		{"Backup file", filepath.Join(backupDir, "20251103_150405_abc12345.tucb"), true},
		{"Backup name in another directory", "/tmp/backups/20251103_150405_abc12345.tucb", false},
		{"Other extension in backup directory", filepath.Join(backupDir, "notes.txt"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsBackupFile(tt.path))
		})
	}
}

func TestBackupFilesAreReadOnly(t *testing.T) {
	store := NewFileStore(filepath.Join(getBackupDir(), "20251103_150405_abc12345.tucb"))
	assert.True(t, store.ReadOnly)
	assert.Error(t, store.Save("x"))

	assert.False(t, NewFileStore("/tmp/table.tsv").ReadOnly)
}
