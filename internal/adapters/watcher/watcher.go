// Package watcher implements the notification backend on top of fsnotify.
package watcher

import (
	"errors"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Backend = (*Watcher)(nil)

const eventChannelBuffer = 1024

// Watcher implements ports.Backend using fsnotify.
//
// fsnotify identifies watches by path, so the Watcher hands out its own
// handles and fans every raw event out to all handles registered for the
// affected directory. The underlying watch is only removed when the last
// handle for a path is unregistered.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger

	mu       sync.Mutex
	next     domain.Handle
	byHandle map[domain.Handle]string
	byPath   map[string][]domain.Handle
	closed   bool

	events    chan domain.Notification
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewWatcher creates a new fsnotify-backed watch backend.
func NewWatcher(logger ports.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(domain.ErrWatchRegistration, err.Error())
	}
	w := &Watcher{
		fsWatcher: fsw,
		logger:    logger,
		byHandle:  make(map[domain.Handle]string),
		byPath:    make(map[string][]domain.Handle),
		events:    make(chan domain.Notification, eventChannelBuffer),
		done:      make(chan struct{}),
	}
	w.wg.Add(1)
	go w.processEvents()
	return w, nil
}

// Register starts watching dir and returns a new handle for it.
func (w *Watcher) Register(dir string) (domain.Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return domain.NoHandle, domain.ErrBackendClosed
	}

	// Add runs even when other handles watch dir: the path may now name a
	// new directory whose inode the kernel does not watch yet.
	if err := w.fsWatcher.Add(dir); err != nil {
		return domain.NoHandle, zerr.With(zerr.Wrap(domain.ErrWatchRegistration, err.Error()), "dir", dir)
	}

	w.next++
	h := w.next
	w.byHandle[h] = dir
	w.byPath[dir] = append(w.byPath[dir], h)
	return h, nil
}

// Unregister drops the handle and removes the fsnotify watch once no other
// handle refers to the same directory.
func (w *Watcher) Unregister(h domain.Handle) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir, ok := w.byHandle[h]
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrWatchNotFound, "unregister"), "handle", uint64(h))
	}
	delete(w.byHandle, h)

	remaining := slices.DeleteFunc(w.byPath[dir], func(other domain.Handle) bool { return other == h })
	if len(remaining) > 0 {
		w.byPath[dir] = remaining
		return nil
	}
	delete(w.byPath, dir)

	if w.closed {
		return nil
	}
	// The kernel drops the watch on its own when the directory is deleted,
	// in which case fsnotify reports it as unknown.
	if err := w.fsWatcher.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		w.logger.Debug("remove watch " + dir + ": " + err.Error())
	}
	return nil
}

// Events returns the notification stream.
func (w *Watcher) Events() <-chan domain.Notification {
	return w.events
}

// Close stops the watcher and closes the notification stream.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()

		close(w.done)
		err = w.fsWatcher.Close()
		w.wg.Wait()
		close(w.events)
	})
	return err
}

// processEvents translates raw fsnotify events into per-handle notifications.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			for _, n := range w.convertEvent(event) {
				if !w.send(n) {
					return
				}
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				if !w.send(domain.Notification{Overflow: true}) {
					return
				}
				continue
			}
			w.logger.Warn("watcher: file system error: " + err.Error())
		}
	}
}

func (w *Watcher) send(n domain.Notification) bool {
	select {
	case w.events <- n:
		return true
	case <-w.done:
		return false
	}
}

// convertEvent maps an event for path P to a child notification on every
// handle watching filepath.Dir(P), and to a self notification on every
// handle watching P itself.
func (w *Watcher) convertEvent(event fsnotify.Event) []domain.Notification {
	if event.Name == "" {
		return nil
	}
	path := filepath.Clean(event.Name)
	parent, name := filepath.Split(path)
	parent = filepath.Clean(parent)

	w.mu.Lock()
	defer w.mu.Unlock()

	parents := w.byPath[parent]
	selves := w.byPath[path]
	out := make([]domain.Notification, 0, len(parents)+len(selves))
	for _, h := range parents {
		out = append(out, domain.Notification{Handle: h, Name: name})
	}
	for _, h := range selves {
		out = append(out, domain.Notification{Handle: h})
	}
	return out
}
