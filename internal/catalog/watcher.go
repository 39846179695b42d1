package catalog

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for file activity to settle
// before rescanning.
const DefaultDebounce = 500 * time.Millisecond

// Watcher rescans a Store whenever descriptor files under its roots change.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	debounce time.Duration

	// OnRescan, when set, is called after every rescan attempt.
	OnRescan func(err error)
}

// NewWatcher creates a watcher for store. A debounce <= 0 uses DefaultDebounce.
func NewWatcher(store *Store, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{store: store, watcher: w, debounce: debounce}, nil
}

// Start adds every root and module directory to the watch list and begins
// processing events in a goroutine until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	roots := w.store.Roots()
	for _, root := range append(append([]string{}, roots.Interfaces...), roots.Skirmish...) {
		if err := w.addTree(root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	}

	log.Printf("[Catalog] Watching %d interface and %d skirmish roots for changes",
		len(roots.Interfaces), len(roots.Skirmish))

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	go func() {
		defer timer.Stop()
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !relevant(event) {
					continue
				}
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = w.addTree(event.Name)
					}
				}
				timer.Reset(w.debounce)

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[Catalog] Watcher error: %v", err)

			case <-timer.C:
				err := w.store.Rescan()
				if err != nil {
					log.Printf("[Catalog] Rescan failed, keeping previous catalog: %v", err)
				}
				if w.OnRescan != nil {
					w.OnRescan(err)
				}

			case <-ctx.Done():
				log.Printf("[Catalog] Stopping watcher")
				return
			}
		}
	}()

	return nil
}

// Stop closes the underlying watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// addTree watches dir and its subdirectories down to version directories.
func (w *Watcher) addTree(dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		_ = w.watcher.Add(sub)
		subEntries, err := os.ReadDir(sub)
		if err != nil {
			continue
		}
		for _, s := range subEntries {
			if s.IsDir() {
				_ = w.watcher.Add(filepath.Join(sub, s.Name()))
			}
		}
	}
	return nil
}

func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasSuffix(base, ".yaml") {
		return true
	}
	// Directory creation or removal can add or remove whole modules.
	return !strings.Contains(base, ".")
}
