// Package watch reloads datasets when their files change on disk.
package watch

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rfroumine/dream-heatmap/internal/data/store"
	"github.com/rfroumine/dream-heatmap/internal/service"
)

// Target pairs a dataset directory with the service that serves it.
type Target struct {
	Dir     string
	Service *service.HeatmapService
}

// Watcher re-opens datasets after their files stop changing and swaps the
// fresh data into the owning service.
type Watcher struct {
	fsw      *fsnotify.Watcher
	targets  map[string]Target
	debounce map[string]*debouncer
}

// New watches every target directory. Events are coalesced per dataset with
// the settle window so multi-file rewrites reload once.
func New(targets []Target, settle time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		targets:  make(map[string]Target, len(targets)),
		debounce: make(map[string]*debouncer, len(targets)),
	}
	for _, tgt := range targets {
		dir := filepath.Clean(tgt.Dir)
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.targets[dir] = tgt
		w.debounce[dir] = newDebouncer(settle)
	}

	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			dir := filepath.Dir(filepath.Clean(event.Name))
			tgt, ok := w.targets[dir]
			if !ok {
				continue
			}
			w.debounce[dir].trigger(func() { w.reload(tgt) })
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watch error: %v", err)
		}
	}
}

func (w *Watcher) reload(tgt Target) {
	ds, err := store.Open(tgt.Dir)
	if err != nil {
		// meta.json is briefly absent while a writer replaces the dataset;
		// the events from the finished write retry the reload.
		if errors.Is(err, store.ErrNotFound) {
			return
		}
		log.Printf("reload %s: %v", tgt.Dir, err)
		return
	}
	if err := tgt.Service.Reload(ds); err != nil {
		log.Printf("reload %s: %v", tgt.Dir, err)
		return
	}
	log.Printf("reloaded dataset %s (%dx%d)", ds.Name, ds.Matrix.NRows(), ds.Matrix.NCols())
}

// Close stops watching. Pending reloads are dropped.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	for _, d := range w.debounce {
		d.cancel()
	}
	return err
}
