package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const backupExt = ".tucb"

// BackupManager handles backup creation for document files
type BackupManager struct {
	backupDir string
}

// backupFile is the content of a backup: the text and where it came from.
type backupFile struct {
	OriginalFilename string `json:"original_filename"`
	Text             string `json:"text"`
}

func decodeBackup(data []byte) (backupFile, error) {
	var b backupFile
	if err := json.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("failed to parse backup: %w", err)
	}
	return b, nil
}

// NewBackupManager creates a backup manager in the standard directory
func NewBackupManager() (*BackupManager, error) {
	return NewBackupManagerAt(getBackupDir())
}

// NewBackupManagerAt creates a backup manager storing backups in dir
func NewBackupManagerAt(dir string) (*BackupManager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &BackupManager{backupDir: dir}, nil
}

// CreateBackup stores a timestamped copy of text, remembering the
// absolute path of the file it belongs to.
func (bm *BackupManager) CreateBackup(text, originalPath, sessionID string) (string, error) {
	absPath, err := filepath.Abs(originalPath)
	if err != nil {
		absPath = originalPath
	}

	data, err := json.MarshalIndent(backupFile{OriginalFilename: absPath, Text: text}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal backup: %w", err)
	}

	backupPath := filepath.Join(bm.backupDir, bm.generateBackupFilename(sessionID))
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}
	return backupPath, nil
}

// generateBackupFilename creates a filename in the format: YYYYMMDD_HHMMSS_<sessionID>.tucb
func (bm *BackupManager) generateBackupFilename(sessionID string) string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s%s", timestamp, sessionID, backupExt)
}

// NewSessionID returns the first eight hex digits of a random UUID. It
// tells the backups of one run apart.
func NewSessionID() string {
	return uuid.NewString()[:8]
}

// getBackupDir returns the path to the backup directory
func getBackupDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".tui-columns", "backups")
	}
	return filepath.Join(homeDir, ".local", "share", "tui-columns", "backups")
}

// IsBackupFile reports whether path names a backup in the backup directory.
func IsBackupFile(path string) bool {
	if path == "" || !strings.HasSuffix(path, backupExt) {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return filepath.Dir(abs) == filepath.Clean(getBackupDir())
}

// BackupMetadata holds parsed information about a backup file
type BackupMetadata struct {
	FilePath     string    // Full path to backup file
	Timestamp    time.Time // Parsed timestamp from filename
	SessionID    string    // 8-character session ID
	OriginalFile string    // Original filename stored in backup
}

// FindBackupsForFile returns all backup files for a given original filename, sorted chronologically
func (bm *BackupManager) FindBackupsForFile(originalFilePath string) ([]BackupMetadata, error) {
	entries, err := os.ReadDir(bm.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var searchPath string
	if originalFilePath != "" {
		searchPath = originalFilePath
		if absPath, err := filepath.Abs(originalFilePath); err == nil {
			searchPath = filepath.Clean(absPath)
		}
	}

	var backups []BackupMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), backupExt) {
			continue
		}

		metadata, err := parseBackupFilename(entry.Name(), filepath.Join(bm.backupDir, entry.Name()))
		if err != nil {
			continue
		}
		if searchPath != "" && filepath.Clean(metadata.OriginalFile) != searchPath {
			continue
		}
		backups = append(backups, metadata)
	}

	slices.SortFunc(backups, func(a, b BackupMetadata) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return backups, nil
}

// parseBackupFilename extracts metadata from a backup filename
// Expected format: YYYYMMDD_HHMMSS_<sessionID>.tucb
func parseBackupFilename(filename string, fullPath string) (BackupMetadata, error) {
	if len(filename) != len("20060102_150405_")+8+len(backupExt) {
		return BackupMetadata{}, fmt.Errorf("unexpected backup filename %q", filename)
	}

	timestamp, err := time.ParseInLocation("20060102_150405", filename[:15], time.Local)
	if err != nil {
		return BackupMetadata{}, fmt.Errorf("invalid timestamp format: %w", err)
	}

	var originalFile string
	if data, err := os.ReadFile(fullPath); err == nil {
		if b, err := decodeBackup(data); err == nil {
			originalFile = b.OriginalFilename
		}
	}

	return BackupMetadata{
		FilePath:     fullPath,
		Timestamp:    timestamp,
		SessionID:    filename[16 : 16+8],
		OriginalFile: originalFile,
	}, nil
}
