// Package watch reports changes to the persisted session made by other
// ragdesk processes, using fsnotify on the session database directory.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure FSWatcher implements the interface.
var _ driven.SessionWatcher = (*FSWatcher)(nil)

// FSWatcher signals after any write to the database file or its
// WAL and journal companions.
type FSWatcher struct {
	watcher *fsnotify.Watcher
	names   map[string]bool
	changes chan struct{}
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewFSWatcher starts watching the directory holding dbPath.
// The directory must exist.
func NewFSWatcher(dbPath string) (*FSWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	dir := filepath.Dir(dbPath)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	base := filepath.Base(dbPath)
	fw := &FSWatcher{
		watcher: w,
		names: map[string]bool{
			base:              true,
			base + "-wal":     true,
			base + "-journal": true,
		},
		// One pending signal is enough: the receiver re-reads the whole session.
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	fw.wg.Add(1)
	go fw.run()
	return fw, nil
}

// Changes returns a channel that receives a value after each change.
// Bursts of writes coalesce into one signal. The channel is closed by Close.
func (w *FSWatcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops watching.
func (w *FSWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
		close(w.changes)
	})
	return err
}

func (w *FSWatcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.names[filepath.Base(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("session watcher: %v", err)
		}
	}
}
