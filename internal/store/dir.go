package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/starford/ansuz/internal/apperr"
)

const (
	repoSuffix = "_repo"
	tmpPattern = ".ansuz-tmp-*"
)

// Dir implements Provider backed by a single local directory.
type Dir struct {
	root string // absolute path to the documentation directory
}

var _ Provider = (*Dir)(nil)

// New creates a store rooted at root, creating the directory when it
// does not exist yet.
func New(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("store: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("store: create root: %w", err)
	}
	return &Dir{root: abs}, nil
}

// Open returns a store rooted at root without creating anything.
// Read operations on a missing directory report an empty store; this
// is the constructor for caller-supplied directories that should not
// be created as a side effect of listing them.
func Open(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("store: resolve root: %w", err)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute store directory.
func (d *Dir) Root() string { return d.root }

// IndexPath returns the absolute path of the INDEX.md file.
func (d *Dir) IndexPath() string { return filepath.Join(d.root, IndexFileName) }

// RepoDir returns the absolute clone directory for a base name.
func (d *Dir) RepoDir(baseName string) string {
	return filepath.Join(d.root, baseName+repoSuffix)
}

// HasRepoDir reports whether a cloned repository exists for base.
func (d *Dir) HasRepoDir(baseName string) bool {
	info, err := os.Stat(d.RepoDir(baseName))
	return err == nil && info.IsDir()
}

// safeName rejects names that are empty, contain path separators, or
// would escape the store directory, and returns the absolute path.
func (d *Dir) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("store: empty file name: %w", apperr.ErrInvalidIdentifier)
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("store: unsafe file name %q: %w", name, apperr.ErrInvalidIdentifier)
	}
	abs := filepath.Join(d.root, cleaned)
	if !strings.HasPrefix(abs, d.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("store: file name escapes store %q: %w", name, apperr.ErrInvalidIdentifier)
	}
	return abs, nil
}

// WriteDoc atomically writes a document: tmp file → fsync → rename.
// Content must be valid UTF-8; binary payloads are rejected with
// apperr.ErrNotText before anything touches the disk.
func (d *Dir) WriteDoc(baseName, suffix string, content []byte) (string, int64, error) {
	if suffix == "" {
		suffix = ".md"
	}
	if !utf8.Valid(content) {
		return "", 0, fmt.Errorf("store: write %s: %w", baseName, apperr.ErrNotText)
	}
	abs, err := d.safeName(baseName + suffix)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return "", 0, fmt.Errorf("store: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(d.root, tmpPattern)
	if err != nil {
		return "", 0, fmt.Errorf("store: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return "", 0, fmt.Errorf("store: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", 0, fmt.Errorf("store: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return "", 0, fmt.Errorf("store: rename: %w", err)
	}
	success = true
	return abs, int64(len(content)), nil
}

// ReadDoc returns the raw bytes of a stored file.
func (d *Dir) ReadDoc(name string) ([]byte, error) {
	abs, err := d.safeName(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", name, err)
	}
	return data, nil
}

// List returns metadata for every .md document in the store, sorted by
// file name. INDEX.md and non-Markdown files are skipped. A missing
// store directory is reported as empty, not as an error.
func (d *Dir) List() ([]DocInfo, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: list: %w", err)
	}
	var out []DocInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == IndexFileName || !strings.HasSuffix(name, ".md") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("store: stat %s: %w", name, err)
		}
		out = append(out, DocInfo{
			Name:       name,
			BaseName:   strings.TrimSuffix(name, ".md"),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	return out, nil
}
