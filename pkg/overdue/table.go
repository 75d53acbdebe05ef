package overdue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const tableFile = "pending_tasks.json"

// Entry is a pending task whose calendar event must be flagged once its due date passes.
type Entry struct {
	GCalID  string    `json:"gcal_id"`
	Summary string    `json:"summary"`
	Due     time.Time `json:"due"`
}

type Table struct {
	Entries map[string]Entry `json:"entries"`
	Path    string           `json:"-"`
	dirty   bool
}

// NewTable loads the table stored in dir, or starts an empty one.
func NewTable(dir string) (*Table, error) {
	t := &Table{
		Path:    filepath.Join(dir, tableFile),
		Entries: make(map[string]Entry),
	}

	if _, err := os.Stat(t.Path); err == nil {
		if err := t.Load(); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Table) Load() error {
	f, err := os.Open(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(t)
}

func (t *Table) Save() error {
	if !t.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.Path), 0700); err != nil {
		return err
	}

	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(t)
	if err == nil {
		t.dirty = false
	}
	return err
}

// Update records a pending task with a due date. A zero due date removes it.
func (t *Table) Update(key string, gcalID string, summary string, due time.Time) {
	if due.IsZero() {
		t.Remove(key)
		return
	}
	old, exists := t.Entries[key]
	if !exists || !old.Due.Equal(due) || old.GCalID != gcalID || old.Summary != summary {
		t.Entries[key] = Entry{
			GCalID:  gcalID,
			Summary: summary,
			Due:     due,
		}
		t.dirty = true
	}
}

func (t *Table) Remove(key string) {
	if _, exists := t.Entries[key]; exists {
		delete(t.Entries, key)
		t.dirty = true
	}
}

// Sweep returns the entries due before the calendar day of now and removes them.
func (t *Table) Sweep(now time.Time) []Entry {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	var swept []Entry
	for key, entry := range t.Entries {
		if entry.Due.Before(today) {
			swept = append(swept, entry)
			delete(t.Entries, key)
			t.dirty = true
		}
	}
	return swept
}
