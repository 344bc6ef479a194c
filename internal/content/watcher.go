package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event describes a filesystem change under the watched directory.
type Event struct {
	Timestamp time.Time
	Path      string
	Op        string
	op        fsnotify.Op
}

// Removed reports whether the path was deleted or renamed away.
func (e Event) Removed() bool {
	return e.op.Has(fsnotify.Remove) || e.op.Has(fsnotify.Rename)
}

// Watcher monitors a directory tree and fans change events out to subscribers.
type Watcher struct {
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger
	watcher     *fsnotify.Watcher
	subscribers map[uint64]*subscriber
	root        string
	subCounter  atomic.Uint64
	subsMu      sync.RWMutex
	closeOnce   sync.Once
}

type subscriber struct {
	ctx context.Context
	ch  chan Event
}

// NewWatcher starts watching root and every directory below it.
// New subdirectories are picked up as they are created.
func NewWatcher(parentCtx context.Context, root string, logger *slog.Logger) (*Watcher, error) {
	if root == "" {
		return nil, errors.New("watch root must be provided")
	}
	if logger == nil {
		logger = slog.Default()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(parentCtx)
	w := &Watcher{
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger.With("component", "watcher"),
		watcher:     fsw,
		subscribers: make(map[uint64]*subscriber),
		root:        absRoot,
	}

	if err := w.watchRecursive(absRoot); err != nil {
		cancel()
		_ = fsw.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

// Close stops the watcher and closes every subscription channel.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.cancel()
		err = w.watcher.Close()
	})
	return err
}

// Subscribe registers for change events. The returned channel closes when ctx
// is done or the watcher is closed. Events are dropped for subscribers that lag.
func (w *Watcher) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 8)
	id := w.subCounter.Add(1)

	w.subsMu.Lock()
	w.subscribers[id] = &subscriber{ctx: ctx, ch: ch}
	w.subsMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-w.ctx.Done():
		}
		w.removeSubscriber(id)
	}()

	return ch
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", slog.Any("err", err))
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Name == "" {
		return
	}
	rel := w.relativePath(event.Name)
	w.logger.Debug("fsnotify event", slog.String("path", rel), slog.String("op", event.Op.String()))

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.watchRecursive(event.Name)
		}
	}

	w.broadcast(Event{Timestamp: time.Now(), Path: rel, Op: event.Op.String(), op: event.Op})
}

func (w *Watcher) broadcast(evt Event) {
	w.subsMu.RLock()
	var stale []uint64
	for id, sub := range w.subscribers {
		select {
		case <-sub.ctx.Done():
			stale = append(stale, id)
		case <-w.ctx.Done():
			stale = append(stale, id)
		case sub.ch <- evt:
		default:
			// drop event when subscriber lags
		}
	}
	w.subsMu.RUnlock()

	for _, id := range stale {
		w.removeSubscriber(id)
	}
}

func (w *Watcher) removeSubscriber(id uint64) {
	w.subsMu.Lock()
	if sub, ok := w.subscribers[id]; ok {
		close(sub.ch)
		delete(w.subscribers, id)
	}
	w.subsMu.Unlock()
}

func (w *Watcher) watchRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("failed to watch directory", slog.String("path", path), slog.Any("err", err))
			}
		}
		return nil
	})
}

func (w *Watcher) relativePath(abs string) string {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}
