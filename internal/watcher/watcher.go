// Package watcher delivers file change notifications for glob patterns.
//
// A Watcher owns one fsnotify watcher for a project root. OnChange registers
// a callback for a pattern and returns a Subscription that can be cancelled.
// Only the directories a pattern can match in are watched; when a pattern's
// base directory does not exist yet, its nearest existing ancestor is
// watched until the directory appears.
package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spachava753/assetflow/internal/pattern"
)

// ErrWatcherClosed is returned by OnChange after Close.
var ErrWatcherClosed = errors.New("watcher is closed")

// Op represents the type of file system operation.
type Op uint32

const (
	// OpCreate indicates a file or directory was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	var parts []string
	if op.Has(OpCreate) {
		parts = append(parts, "CREATE")
	}
	if op.Has(OpWrite) {
		parts = append(parts, "WRITE")
	}
	if op.Has(OpRemove) {
		parts = append(parts, "REMOVE")
	}
	if op.Has(OpRename) {
		parts = append(parts, "RENAME")
	}
	if len(parts) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(parts, "|")
}

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Event represents a change to a file matching a subscription.
type Event struct {
	// Path is slash-separated and relative to the watcher root.
	Path string

	Op Op

	Timestamp time.Time
}

// Subscription is a registered callback.
type Subscription struct {
	id      uint64
	w       *Watcher
	pattern *pattern.Pattern
	fn      func(Event)
	once    sync.Once
}

// Pattern returns the glob the subscription matches.
func (s *Subscription) Pattern() string {
	return s.pattern.Raw
}

// Cancel stops further callbacks. It is safe to call more than once.
// Directories added for the subscription stay watched until Close.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.w.mu.Lock()
		delete(s.w.subs, s.id)
		s.w.mu.Unlock()
	})
}

// Watcher monitors a project root.
type Watcher struct {
	mu sync.Mutex

	root    string
	fsw     *fsnotify.Watcher
	subs    map[uint64]*Subscription
	nextID  uint64
	watched map[string]bool
	dirs    map[string]bool // known directories inside watched ones

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// New creates a watcher rooted at root.
func New(root string) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:    absRoot,
		fsw:     fsw,
		subs:    make(map[uint64]*Subscription),
		watched: make(map[string]bool),
		dirs:    make(map[string]bool),
		closeCh: make(chan struct{}),
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// OnChange calls fn for every create, write, remove or rename of a file
// matching the pattern. Directory changes are not reported. Callbacks run
// on the watcher's event goroutine and should return quickly.
func (w *Watcher) OnChange(raw string, fn func(Event)) (*Subscription, error) {
	p, err := pattern.Compile(raw)
	if err != nil {
		return nil, err
	}
	if p.Negated {
		return nil, fmt.Errorf("cannot watch negated pattern %q", raw)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrWatcherClosed
	}

	w.nextID++
	sub := &Subscription{id: w.nextID, w: w, pattern: p, fn: fn}

	if err := w.watchPatternLocked(p); err != nil {
		return nil, err
	}
	w.subs[sub.id] = sub

	return sub, nil
}

// Close stops the watcher. Pending callbacks finish before it returns.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.closedWg.Wait()
	return w.fsw.Close()
}

// WatchedDirs returns the absolute directories currently watched.
func (w *Watcher) WatchedDirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	dirs := make([]string, 0, len(w.watched))
	for d := range w.watched {
		dirs = append(dirs, d)
	}
	return dirs
}

// watchPatternLocked watches the pattern's base directory, or its nearest
// existing ancestor inside the root. Recursive patterns also watch every
// directory below the base.
func (w *Watcher) watchPatternLocked(p *pattern.Pattern) error {
	base := filepath.Join(w.root, filepath.FromSlash(p.Base))

	dir := base
	for {
		info, err := os.Stat(dir)
		if err == nil && info.IsDir() {
			break
		}
		if dir == w.root {
			return fmt.Errorf("watch root %s does not exist", w.root)
		}
		dir = filepath.Dir(dir)
	}

	if err := w.addLocked(dir); err != nil {
		return err
	}
	if dir != base || !p.Recursive() {
		return nil
	}

	return filepath.WalkDir(base, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.addLocked(name); err != nil {
				slog.Warn("cannot watch directory", "path", name, "error", err)
			}
		}
		return nil
	})
}

func (w *Watcher) addLocked(dir string) error {
	if w.watched[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.watched[dir] = true
	w.dirs[dir] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Debug("cannot list watched directory", "path", dir, "error", err)
		return nil
	}
	for _, e := range entries {
		if e.IsDir() {
			w.dirs[filepath.Join(dir, e.Name())] = true
		}
	}
	return nil
}

// processLoop handles incoming fsnotify events.
func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("file watcher error", "error", err)
		}
	}
}

// handleFSEvent converts an fsnotify event and dispatches it to matching
// subscriptions.
func (w *Watcher) handleFSEvent(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 {
		return
	}

	rel, err := filepath.Rel(w.root, fsEvent.Name)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return
	}
	rel = filepath.ToSlash(rel)

	w.mu.Lock()
	if op.Has(OpCreate) {
		if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
			w.dirs[fsEvent.Name] = true
			// A directory on the way to (or below) a pattern base appeared.
			for _, sub := range w.subs {
				if err := w.watchPatternLocked(sub.pattern); err != nil {
					slog.Warn("cannot watch new directory", "path", rel, "error", err)
				}
			}
			w.mu.Unlock()
			return
		}
	}
	if op.Has(OpRemove) || op.Has(OpRename) {
		if w.dirs[fsEvent.Name] {
			// fsnotify drops the watch of a removed directory.
			delete(w.dirs, fsEvent.Name)
			delete(w.watched, fsEvent.Name)
			w.mu.Unlock()
			return
		}
	}

	var matched []*Subscription
	for _, sub := range w.subs {
		if sub.pattern.Match(rel) {
			matched = append(matched, sub)
		}
	}
	w.mu.Unlock()

	event := Event{Path: rel, Op: op, Timestamp: time.Now()}
	for _, sub := range matched {
		sub.fn(event)
	}
}

// convertOp converts fsnotify.Op to watcher.Op. Chmod-only events are dropped.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	return op
}
