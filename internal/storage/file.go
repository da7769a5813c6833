// Package storage reads and writes the documents the viewer edits and
// keeps timestamped backups of them.
package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore handles the file behind one document
type FileStore struct {
	FilePath string
	// CRLF is set when the file was loaded with CRLF line endings; the
	// document holds LF and Save writes CRLF again.
	CRLF bool
	// ReadOnly is set for backup files, which are never overwritten.
	ReadOnly bool
}

// NewFileStore creates a store for the given file path
func NewFileStore(filePath string) *FileStore {
	return &FileStore{
		FilePath: filePath,
		ReadOnly: IsBackupFile(filePath),
	}
}

// Load reads the document text. A file that does not exist yet is empty.
func (s *FileStore) Load() (string, error) {
	if s.FilePath == "" {
		return "", nil
	}
	data, err := os.ReadFile(s.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if IsBackupFile(s.FilePath) {
		b, err := decodeBackup(data)
		if err != nil {
			return "", err
		}
		data = []byte(b.Text)
	}
	s.CRLF = bytes.Contains(data, []byte("\r\n"))
	if s.CRLF {
		data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	}
	return string(data), nil
}

// Save writes text to the file, creating its directory when needed.
func (s *FileStore) Save(text string) error {
	if s.FilePath == "" {
		return fmt.Errorf("no file name")
	}
	if s.ReadOnly {
		return fmt.Errorf("%s is a backup and cannot be overwritten", s.FilePath)
	}

	dir := filepath.Dir(s.FilePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if s.CRLF {
		text = strings.ReplaceAll(text, "\n", "\r\n")
	}
	if err := os.WriteFile(s.FilePath, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// FileExists checks if the document file exists
func (s *FileStore) FileExists() bool {
	_, err := os.Stat(s.FilePath)
	return err == nil
}
