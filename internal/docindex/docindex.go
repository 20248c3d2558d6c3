// Package docindex maintains the INDEX.md catalog file. The file is
// ordinary Markdown: prose written by the user stays untouched, while
// a marker-delimited table section is owned by the manager and
// rewritten atomically on every update.
package docindex

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// Manager serializes all reads and writes of one index file.
type Manager struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

// NewManager returns a manager for the index file at path. The file is
// created lazily on the first upsert.
func NewManager(path string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{path: path, logger: logger}
}

// Path returns the index file path.
func (m *Manager) Path() string { return m.path }

// Upsert inserts or replaces the row for entry.BaseName and rewrites
// the index file atomically. Concurrent upserts are serialized; prose
// outside the managed section survives byte for byte.
func (m *Manager) Upsert(entry models.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.load()
	if err != nil {
		return err
	}
	doc.upsert(entry)
	return m.flush(doc)
}

// Entries returns the managed rows of the index file. A missing file
// yields no entries and no error. When part of the managed section
// could not be parsed, the rows that did parse are returned together
// with an error wrapping apperr.ErrIndexCorrupt; callers able to work
// from a partial view should detect it with errors.Is and continue.
func (m *Manager) Entries() ([]models.IndexEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.load()
	if err != nil {
		return nil, err
	}
	if doc.recovered {
		return doc.entries, fmt.Errorf("docindex: %s: %w", m.path, apperr.ErrIndexCorrupt)
	}
	return doc.entries, nil
}

// Reconcile compares the index rows against the document file names
// actually present and reports both directions of drift. It never
// repairs anything on its own.
func (m *Manager) Reconcile(files []string) (*models.ReconciliationReport, error) {
	entries, err := m.Entries()
	if err != nil && !errors.Is(err, apperr.ErrIndexCorrupt) {
		return nil, err
	}

	onDisk := make(map[string]bool, len(files))
	for _, f := range files {
		onDisk[f] = true
	}

	report := &models.ReconciliationReport{
		Orphaned:  []models.IndexEntry{},
		Untracked: []string{},
	}
	indexed := make(map[string]bool, len(entries))
	for _, e := range entries {
		indexed[e.FilePath] = true
		if !onDisk[e.FilePath] {
			report.Orphaned = append(report.Orphaned, e)
		}
	}
	for _, f := range files {
		if !indexed[f] {
			report.Untracked = append(report.Untracked, f)
		}
	}
	return report, nil
}

// load reads and parses the index file. Only I/O failures are errors;
// a missing file starts a fresh document and parse damage is recorded
// on the document itself.
func (m *Manager) load() (*document, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &document{prefix: defaultHeader, suffix: "\n"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("docindex: read %s: %w", m.path, err)
	}
	doc := parse(data)
	if doc.recovered {
		m.logger.Warn("index managed section partially unreadable, rebuilding",
			slog.String("path", m.path))
	}
	return doc, nil
}

// flush atomically rewrites the index file: tmp file → fsync → rename.
func (m *Manager) flush(doc *document) error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("docindex: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ansuz-idx-*")
	if err != nil {
		return fmt.Errorf("docindex: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(render(doc)); err != nil {
		return fmt.Errorf("docindex: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("docindex: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("docindex: close temp: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		return fmt.Errorf("docindex: rename: %w", err)
	}
	success = true
	return nil
}
