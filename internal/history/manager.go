// Package history persists the entries of the command line between runs.
package history

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Manager handles loading and saving history to TOML files
type Manager struct {
	historyDir string
}

// HistoryFile represents the structure of a history TOML file
type HistoryFile struct {
	Entries []string `toml:"entries"`
}

// NewManager creates a new history manager with directory at ~/.local/share/tui-columns/history/
func NewManager() (*Manager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(filepath.Join(homeDir, ".local", "share", "tui-columns", "history"))
}

// NewManagerAt creates a history manager storing its files in dir.
func NewManagerAt(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	return &Manager{historyDir: dir}, nil
}

// Load loads history entries from a TOML file. A missing file is an empty
// history; a corrupted one is logged and treated as empty.
func (m *Manager) Load(filename string) ([]string, error) {
	filePath := filepath.Join(m.historyDir, filename)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var histFile HistoryFile
	if err := toml.Unmarshal(data, &histFile); err != nil {
		log.Printf("history: ignoring %s: %v", filePath, err)
		return []string{}, nil
	}

	return histFile.Entries, nil
}

// Save saves history entries to a TOML file
func (m *Manager) Save(filename string, entries []string) error {
	filePath := filepath.Join(m.historyDir, filename)

	data, err := toml.Marshal(HistoryFile{Entries: entries})
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}
