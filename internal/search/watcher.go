package search

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/store"
)

// debounce coalesces bursts of file events into one resync. Atomic
// writes produce several events per document; a fetch with repo sync
// produces dozens.
const debounce = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the store directory and keeps
// the search cache current until ctx is cancelled.
//
// The store is a flat directory, so events are not tracked per file:
// any relevant change schedules a debounced full Sync. That also picks
// up annotation changes when INDEX.md is rewritten.
func Watch(ctx context.Context, db *DB, st store.Provider, src EntrySource, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(st.Root()); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", st.Root()))

	// timer debounces resyncs; nil until the first relevant event.
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			if err := Sync(db, st, src, logger); err != nil {
				logger.Warn("watcher: resync failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			// Temp files from atomic writes start with a dot.
			if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".md") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("watcher: change",
				slog.String("file", name),
				slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
