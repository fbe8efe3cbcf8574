package library

import (
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a library directory for changes and delivers fresh scans
// on Updates. Filesystem events are debounced so that bulk copies trigger a
// single rescan.
type Watcher struct {
	watcher  *fsnotify.Watcher
	probe    DurationProber
	debounce time.Duration

	commands chan watcherCommand
	updates  chan []Track
	done     chan struct{}
}

type watcherCommand struct {
	setPath string
	refresh bool
}

// NewWatcher creates a Watcher and starts its event loop.
// The debounce duration bounds how often a burst of events causes a rescan.
func NewWatcher(probe DurationProber, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fsw,
		probe:    probe,
		debounce: debounce,
		commands: make(chan watcherCommand, 4),
		updates:  make(chan []Track, 1),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Updates delivers a full catalog after each (debounced) change or SetPath.
func (w *Watcher) Updates() <-chan []Track {
	return w.updates
}

// SetPath switches the watched directory and triggers an immediate scan.
func (w *Watcher) SetPath(dir string) {
	w.commands <- watcherCommand{setPath: dir}
}

// Refresh forces a rescan of the current directory.
func (w *Watcher) Refresh() {
	w.commands <- watcherCommand{refresh: true}
}

// Close shuts down the event loop and the underlying filesystem watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	var current string
	var pending *time.Timer
	fireCh := make(chan struct{}, 1)

	scan := func() {
		if current == "" {
			return
		}
		tracks, err := Scan(current, w.probe)
		if err != nil {
			log.Printf("Watcher: rescan failed: %v", err)
			return
		}
		// Drop a stale undelivered update rather than blocking the loop.
		select {
		case <-w.updates:
		default:
		}
		w.updates <- tracks
	}

	for {
		select {
		case <-w.done:
			return

		case cmd := <-w.commands:
			if cmd.setPath != "" {
				if current != "" {
					w.unwatchTree(current)
				}
				current = cmd.setPath
				if err := w.watchTree(current); err != nil {
					log.Printf("Watcher: failed to watch %s: %v", current, err)
				}
			}
			scan()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			log.Printf("Watcher: event %s for %s", event.Op, event.Name)
			// New directories must be added to the watch set.
			if event.Op.Has(fsnotify.Create) {
				if err := w.watchTree(event.Name); err == nil {
					log.Printf("Watcher: watching new path %s", event.Name)
				}
			}
			if pending == nil {
				pending = time.AfterFunc(w.debounce, func() {
					select {
					case fireCh <- struct{}{}:
					default:
					}
				})
			} else {
				pending.Reset(w.debounce)
			}

		case <-fireCh:
			pending = nil
			scan()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher: error: %v", err)
		}
	}
}

// watchTree adds dir and every subdirectory to the watch set.
// Passing a plain file is not an error; fsnotify watches it directly.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				log.Printf("Watcher: failed to add %s: %v", path, err)
			}
		}
		return nil
	})
}

func (w *Watcher) unwatchTree(dir string) {
	for _, watched := range w.watcher.WatchList() {
		if watched == dir || strings.HasPrefix(watched, dir+string(filepath.Separator)) {
			_ = w.watcher.Remove(watched)
		}
	}
}
