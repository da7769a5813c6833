package ui

import (
	"log"
	"slices"
	"strings"

	"github.com/pstuifzand/tui-columns/internal/history"
)

// History is the list of command lines entered before, oldest first.
// Navigating it recalls only the entries that start with the text typed
// before the first step back.
type History struct {
	entries    []string
	maxEntries int
	// at is the entry being shown, or -1 when not navigating.
	at    int
	draft string

	manager  *history.Manager
	filename string
}

// NewHistory creates an in-memory history of at most maxEntries lines.
func NewHistory(maxEntries int) *History {
	return &History{maxEntries: maxEntries, at: -1}
}

// NewHistoryWithManager creates a history persisted in filename. A load
// error still returns a usable, empty history.
func NewHistoryWithManager(maxEntries int, manager *history.Manager, filename string) (*History, error) {
	h := NewHistory(maxEntries)
	h.manager, h.filename = manager, filename
	entries, err := manager.Load(filename)
	if err != nil {
		return h, err
	}
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}
	h.entries = entries
	return h, nil
}

// Add appends entry and saves the history. An entry that was already
// present moves to the end.
func (h *History) Add(entry string) {
	h.Reset()
	if entry == "" {
		return
	}
	h.entries = slices.DeleteFunc(h.entries, func(e string) bool { return e == entry })
	h.entries = append(h.entries, entry)
	if len(h.entries) > h.maxEntries {
		h.entries = h.entries[len(h.entries)-h.maxEntries:]
	}
	if h.manager == nil || h.filename == "" {
		return
	}
	if err := h.manager.Save(h.filename, h.entries); err != nil {
		log.Printf("history: save %s: %v", h.filename, err)
	}
}

// Reset stops navigating.
func (h *History) Reset() {
	h.at = -1
	h.draft = ""
}

// IsNavigating reports whether an entry is being shown.
func (h *History) IsNavigating() bool {
	return h.at >= 0
}

// SetTemporary keeps the typed input to filter on and to restore after
// stepping past the newest entry.
func (h *History) SetTemporary(input string) {
	h.draft = input
}

// Previous steps to the next older entry matching the draft.
func (h *History) Previous() (string, bool) {
	from := len(h.entries)
	if h.at >= 0 {
		from = h.at
	}
	for i := from - 1; i >= 0; i-- {
		if strings.HasPrefix(h.entries[i], h.draft) {
			h.at = i
			return h.entries[i], true
		}
	}
	return "", false
}

// Next steps to the next newer entry matching the draft, and back to the
// draft itself after the newest.
func (h *History) Next() (string, bool) {
	if h.at < 0 {
		return "", false
	}
	for i := h.at + 1; i < len(h.entries); i++ {
		if strings.HasPrefix(h.entries[i], h.draft) {
			h.at = i
			return h.entries[i], true
		}
	}
	draft := h.draft
	h.Reset()
	return draft, true
}
