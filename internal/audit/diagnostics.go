// Package audit records per-value decisions of a run: the diagnostics file
// lists every reject and unresolved value, the counters summarize them.
package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Entry is one row-level problem or non-accepted value
type Entry struct {
	Pass   string // Converter or linking pass that produced the entry
	Record string // Record ID, e.g. the prisoner number
	Name   string // Person name when known
	Field  string
	Reason string
	Value  string // Original value
}

var header = []string{"pass", "record", "name", "field", "reason", "value"}

// Diagnostics accumulates entries for the end-of-pass report
type Diagnostics struct {
	mu      sync.Mutex
	entries []Entry
}

// NewDiagnostics creates an empty report
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// Add appends an entry
func (d *Diagnostics) Add(e Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, e)
}

// Entries returns a copy of the entries in insertion order
func (d *Diagnostics) Entries() []Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Len returns the number of entries
func (d *Diagnostics) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// WriteCSV writes the entries with a header row
func (d *Diagnostics) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range d.Entries() {
		if err := cw.Write([]string{e.Pass, e.Record, e.Name, e.Field, e.Reason, e.Value}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the CSV report to path, creating parent directories
func (d *Diagnostics) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create diagnostics dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create diagnostics file: %w", err)
	}
	if err := d.WriteCSV(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write diagnostics: %w", err)
	}
	return f.Close()
}
