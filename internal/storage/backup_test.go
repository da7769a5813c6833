package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupManagerCreateBackup(t *testing.T) {
	dir := t.TempDir()
	bm, err := NewBackupManagerAt(dir)
	require.NoError(t, err)

	original := filepath.Join(t.TempDir(), "table.tsv")
	path, err := bm.CreateBackup("a\tb\n1\t2\n", original, "test1234")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	b, err := decodeBackup(data)
	require.NoError(t, err)
	assert.Equal(t, original, b.OriginalFilename)
	assert.Equal(t, "a\tb\n1\t2\n", b.Text)
}

func TestBackupFilenameFormat(t *testing.T) {
	bm := &BackupManager{backupDir: t.TempDir()}
	filename := bm.generateBackupFilename("abc12345")

	assert.Len(t, filename, len("20251103_150405_abc12345.tucb"))
	assert.True(t, strings.HasSuffix(filename, ".tucb"))
	assert.Equal(t, "abc12345", filename[16:24])
}

func TestFindBackupsForFile(t *testing.T) {
	bm, err := NewBackupManagerAt(t.TempDir())
	require.NoError(t, err)

	first := filepath.Join(t.TempDir(), "first.txt")
	second := filepath.Join(t.TempDir(), "second.txt")
	_, err = bm.CreateBackup("one", first, "aaaaaaaa")
	require.NoError(t, err)
	_, err = bm.CreateBackup("two", second, "bbbbbbbb")
	require.NoError(t, err)

	backups, err := bm.FindBackupsForFile(first)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, "aaaaaaaa", backups[0].SessionID)
	assert.Equal(t, first, backups[0].OriginalFile)

	all, err := bm.FindBackupsForFile("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestParseBackupFilenameRejects(t *testing.T) {
	_, err := parseBackupFilename("short.tucb", "short.tucb")
	assert.Error(t, err)
	_, err = parseBackupFilename("2025110X_150405_abc12345.tucb", "x")
	assert.Error(t, err)
}

func TestNewSessionID(t *testing.T) {
	const charset = "0123456789abcdef"
	id := NewSessionID()
	require.Len(t, id, 8)
	for _, ch := range id {
		assert.Contains(t, charset, string(ch))
	}
	assert.NotEqual(t, id, NewSessionID())
}
