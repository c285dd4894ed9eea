// Package watcher keeps the index in step with watched directories: files that appear or
// change are re-indexed after a quiet period, files that disappear are deleted.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Handler applies file changes to the index. *indexer.Indexer satisfies it.
type Handler interface {
	IndexFile(ctx context.Context, path string, allowedExts []string) (skipped bool, err error)
	DeleteFile(ctx context.Context, path string) error
}

// Watcher watches root directories and forwards file changes to a Handler.
type Watcher struct {
	handler    Handler
	extensions []string
	recursive  bool
	debounce   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	ctx      context.Context
	fsw      *fsnotify.Watcher
	roots    map[string][]string // root -> directories registered with fsnotify
	pending  map[string]*time.Timer
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output (directory changes, file events, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long a file must stay quiet before it is indexed.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher. extensions filters which files are handled (empty means all).
func New(handler Handler, extensions []string, recursive bool, opts ...Option) *Watcher {
	w := &Watcher{
		handler:    handler,
		extensions: extensions,
		recursive:  recursive,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		roots:      make(map[string][]string),
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching roots. It returns once the roots are registered; events are
// processed in the background until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context, roots ...string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.mu.Lock()
	if w.fsw != nil {
		w.mu.Unlock()
		_ = fsw.Close()
		return nil
	}
	w.fsw = fsw
	w.ctx = ctx
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err == nil {
			err = w.addRootLocked(abs)
		}
		if err != nil {
			w.fsw = nil
			w.mu.Unlock()
			_ = fsw.Close()
			return err
		}
	}
	w.mu.Unlock()
	w.logger.Debug("watcher started", zap.Strings("roots", roots), zap.Strings("extensions", w.extensions), zap.Bool("recursive", w.recursive))
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if !w.underRoot(path) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.addDirectory(path)
			return
		}
		if matchExtension(path, w.extensions) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancel(path)
		if matchExtension(path, w.extensions) {
			if err := w.handler.DeleteFile(w.context(), path); err != nil {
				w.logger.Warn("watcher failed to delete document", zap.String("path", path), zap.Error(err))
			}
		}
	}
}

// addDirectory registers a directory created under a root and indexes what it already holds.
func (w *Watcher) addDirectory(dir string) {
	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return
	}
	paths, err := w.watchTreeLocked(dir)
	if err != nil {
		w.logger.Warn("watcher failed to add directory", zap.String("path", dir), zap.Error(err))
	}
	for root := range w.roots {
		if inDir(root, dir) {
			w.roots[root] = append(w.roots[root], paths...)
			break
		}
	}
	w.mu.Unlock()
	w.syncDirectory(dir)
}

func (w *Watcher) context() context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx == nil {
		return context.Background()
	}
	return w.ctx
}

func (w *Watcher) underRoot(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for root := range w.roots {
		if inDir(root, path) {
			return true
		}
	}
	return false
}

// inDir reports whether path is dir or lies below it.
func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// schedule indexes path once no further event for it arrives within the debounce window.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.indexFile(path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) indexFile(path string) {
	skipped, err := w.handler.IndexFile(w.context(), path, w.extensions)
	if err != nil {
		w.logger.Warn("watcher failed to index file", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Debug("watcher indexed file", zap.String("path", path), zap.Bool("skipped", skipped))
}

// AddDirectory adds a root directory to watch, creating it if needed. When syncExisting
// is set the files already in it are indexed in the background.
func (w *Watcher) AddDirectory(root string, syncExisting bool) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return nil
	}
	if _, ok := w.roots[abs]; ok {
		w.mu.Unlock()
		return nil
	}
	err = w.addRootLocked(abs)
	w.mu.Unlock()
	if err != nil {
		return err
	}
	w.logger.Debug("watcher directory added", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if syncExisting {
		go w.syncDirectory(abs)
	}
	return nil
}

func (w *Watcher) addRootLocked(root string) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	paths, err := w.watchTreeLocked(root)
	if err != nil {
		for _, p := range paths {
			_ = w.fsw.Remove(p)
		}
		return err
	}
	w.roots[root] = paths
	return nil
}

// watchTreeLocked registers dir, and its subdirectories when recursive, with fsnotify.
func (w *Watcher) watchTreeLocked(dir string) ([]string, error) {
	if !w.recursive {
		if err := w.fsw.Add(dir); err != nil {
			return nil, err
		}
		return []string{dir}, nil
	}
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	})
	return paths, err
}

func (w *Watcher) syncDirectory(root string) {
	w.logger.Debug("watcher syncing directory", zap.String("root", root))
	recursive := w.recursive
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if matchExtension(path, w.extensions) {
			w.indexFile(path)
		}
		return nil
	})
}

// RemoveDirectory stops watching root. Documents already indexed from it are kept.
func (w *Watcher) RemoveDirectory(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	paths, ok := w.roots[abs]
	if !ok || w.fsw == nil {
		return nil
	}
	for _, p := range paths {
		_ = w.fsw.Remove(p)
	}
	delete(w.roots, abs)
	w.logger.Debug("watcher directory removed", zap.String("path", abs))
	return nil
}

// Directories returns the watched root directories in sorted order.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	dirs := make([]string, 0, len(w.roots))
	for root := range w.roots {
		dirs = append(dirs, root)
	}
	sort.Strings(dirs)
	return dirs
}

// SyncExistingFiles indexes the matching files already present in every root.
// Files whose mtime and size are unchanged since the last run are skipped by the handler.
func (w *Watcher) SyncExistingFiles() {
	for _, root := range w.Directories() {
		w.syncDirectory(root)
	}
}

// Stop stops the watcher and releases resources. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	fsw := w.fsw
	w.fsw = nil
	w.mu.Unlock()
	if fsw != nil {
		_ = fsw.Close()
	}
	w.stopOnce.Do(func() { close(w.done) })
}
