// Package fsnotify watches a governance library directory with
// github.com/fsnotify/fsnotify. Only changes to *.json files reach the
// callback; editor temp files and hidden files are dropped, and rapid events
// on one file are debounced on the trailing edge: the callback fires once the
// file has been quiet for the debounce interval, so it sees the finished
// write rather than a truncated one.
//
// The directory is watched non-recursively: a library is a flat set of files.
package fsnotify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 50 * time.Millisecond

// Editor and OS droppings that share a directory with the documents.
var ignoreSuffixes = []string{".swp", ".swx", ".tmp", "~"}

// Watcher reports changes to the JSON documents of one directory.
type Watcher struct {
	fw       *fsnotify.Watcher
	done     chan struct{}
	finished chan struct{}
	started  bool
	stopped  bool
	mu       sync.Mutex
}

// NewWatcher creates a new file system watcher.
func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:       fw,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}, nil
}

// Watch starts monitoring dir. onChange is called, from the watcher's own
// goroutine, with the absolute path of each changed document. Watch may be
// called once per Watcher.
func (w *Watcher) Watch(dir string, onChange func(path string)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return fmt.Errorf("watcher stopped")
	}
	if w.started {
		return fmt.Errorf("watcher already started")
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", absDir)
	}
	if err := w.fw.Add(absDir); err != nil {
		return err
	}
	w.started = true

	go w.loop(onChange)
	return nil
}

func (w *Watcher) loop(onChange func(path string)) {
	defer close(w.finished)

	// One pending timer per file, reset by every event on that file.
	timers := make(map[string]*time.Timer)
	fire := make(chan string)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !isDocument(event.Name) {
				continue
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				continue
			}

			if t, seen := timers[event.Name]; seen {
				t.Reset(debounceInterval)
				continue
			}
			name := event.Name
			timers[name] = time.AfterFunc(debounceInterval, func() {
				select {
				case fire <- name:
				case <-w.done:
				}
			})

		case path := <-fire:
			onChange(path)

		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			// Errors are swallowed; fsnotify recovers on its own

		case <-w.done:
			return
		}
	}
}

// Stop ends monitoring and waits for the event goroutine to exit. After Stop
// returns no further onChange calls fire. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	started := w.started
	close(w.done)
	err := w.fw.Close()
	w.mu.Unlock()

	if started {
		<-w.finished
	}
	return err
}

// isDocument reports whether path names a JSON document worth reloading.
func isDocument(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	for _, suffix := range ignoreSuffixes {
		if strings.HasSuffix(base, suffix) {
			return false
		}
	}
	return strings.EqualFold(filepath.Ext(base), ".json")
}
