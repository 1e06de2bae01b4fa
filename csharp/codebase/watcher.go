package codebase

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 500 * time.Millisecond

// Change reports one file the watcher rescanned or removed.
type Change struct {
	Path    string
	Removed bool
	Err     error
}

// FileWatcher keeps a codebase in sync with the file system. Bursts of
// events are coalesced and applied once the tree has been quiet for the
// debounce interval.
type FileWatcher struct {
	codebase *Codebase
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func([]Change)

	stopCh chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
	pending map[string]fsnotify.Op
	timer   *time.Timer
	flushes sync.WaitGroup
}

type WatcherOption func(*FileWatcher)

func WithDebounce(d time.Duration) WatcherOption {
	return func(w *FileWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// OnChange registers a callback run after each batch of changes is applied.
func OnChange(fn func([]Change)) WatcherOption {
	return func(w *FileWatcher) {
		w.onChange = fn
	}
}

func NewFileWatcher(c *Codebase, opts ...WatcherOption) (*FileWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &FileWatcher{
		codebase: c,
		watcher:  fsw,
		debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		pending:  make(map[string]fsnotify.Op),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches every directory under the codebase root.
func (w *FileWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return errors.New("watcher stopped")
	}
	if w.started {
		return nil
	}
	if err := w.addTree(w.codebase.RootDir()); err != nil {
		return err
	}
	w.started = true
	go w.run()
	return nil
}

// Stop ends watching and waits for in-flight rescans.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	started := w.started
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.stopCh)
	w.watcher.Close()
	if started {
		<-w.done
	}
	w.flushes.Wait()
}

func (w *FileWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || w.codebase.excludedDir(path)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			log.Warningf("watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *FileWatcher) run() {
	defer close(w.done)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warningf("watch error: %v", err)
		}
	}
}

func (w *FileWatcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				log.Warningf("watch %s: %v", event.Name, err)
			}
			return
		}
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.codebase.Matches(event.Name) {
		return
	}
	log.Debugf("%s %s", event.Op, event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.pending[event.Name] |= event.Op
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *FileWatcher) flush() {
	w.mu.Lock()
	if w.stopped || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.flushes.Add(1)
	w.mu.Unlock()
	defer w.flushes.Done()

	paths := make([]string, 0, len(batch))
	for path := range batch {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	changes := make([]Change, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			w.codebase.RemoveFile(path)
			changes = append(changes, Change{Path: path, Removed: true})
			continue
		}
		err := w.codebase.ScanFile(path)
		changes = append(changes, Change{Path: path, Err: err})
	}
	log.Infof("applied %d changes", len(changes))
	if w.onChange != nil {
		w.onChange(changes)
	}
}
