package search

import (
	"errors"
	"log/slog"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/libid"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
)

// EntrySource provides index rows used to annotate cached documents
// with display names and topics. *docindex.Manager satisfies it.
type EntrySource interface {
	Entries() ([]models.IndexEntry, error)
}

// Sync scans the store and brings the cache up to date:
//   - new and changed documents are (re)indexed
//   - documents removed from disk are dropped from the cache
//
// Change detection is checksum based, so touching a file without
// altering it does not rewrite the cache row.
func Sync(db *DB, st store.Provider, src EntrySource, logger *slog.Logger) error {
	docs, err := st.List()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	annotations := loadAnnotations(src, logger)

	disk := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		disk[doc.BaseName] = struct{}{}

		data, err := st.ReadDoc(doc.Name)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("file", doc.Name), slog.String("error", err.Error()))
			continue
		}
		cs := Checksum(data)
		if checksums[doc.BaseName] == cs {
			continue
		}

		row := DocRow{
			BaseName:    doc.BaseName,
			DisplayName: libid.FromFileName(doc.Name),
			Checksum:    cs,
			FetchedAt:   doc.ModifiedAt,
		}
		if e, ok := annotations[doc.Name]; ok {
			if e.DisplayName != "" {
				row.DisplayName = e.DisplayName
			}
			row.Topic = e.Topic
			row.FetchedAt = e.LastUpdated
		}

		if err := db.UpsertDoc(row, string(data)); err != nil {
			logger.Warn("sync: index failed", slog.String("file", doc.Name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("file", doc.Name))
		}
	}

	// Remove stale entries.
	for base := range checksums {
		if _, ok := disk[base]; !ok {
			if err := db.DeleteDoc(base); err != nil {
				logger.Warn("sync: delete failed", slog.String("base", base), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("base", base))
			}
		}
	}

	return nil
}

// loadAnnotations reads index rows keyed by file name. A corrupt index
// still contributes its readable rows; any other failure just means no
// annotations.
func loadAnnotations(src EntrySource, logger *slog.Logger) map[string]models.IndexEntry {
	if src == nil {
		return nil
	}
	entries, err := src.Entries()
	if err != nil && !errors.Is(err, apperr.ErrIndexCorrupt) {
		logger.Warn("sync: index rows unavailable", slog.String("error", err.Error()))
		return nil
	}
	out := make(map[string]models.IndexEntry, len(entries))
	for _, e := range entries {
		out[e.FilePath] = e
	}
	return out
}
