// Package enginetest provides in-memory collaborators for engine tests.
package enginetest

import (
	"slices"
	"sync"

	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.Backend = (*Backend)(nil)
	_ ports.Logger  = (*Logger)(nil)
)

// Backend is a scripted ports.Backend. Notifications are injected by the
// test instead of coming from the OS.
type Backend struct {
	mu      sync.Mutex
	next    domain.Handle
	watches map[domain.Handle]string
	fail    map[string]error
	events  chan domain.Notification
	closed  bool
}

// NewBackend creates a Backend whose stream buffers size notifications.
func NewBackend(size int) *Backend {
	return &Backend{
		watches: make(map[domain.Handle]string),
		fail:    make(map[string]error),
		events:  make(chan domain.Notification, size),
	}
}

// Register returns a fresh handle for dir, or the error scripted with Fail.
func (b *Backend) Register(dir string) (domain.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return domain.NoHandle, domain.ErrBackendClosed
	}
	if err, ok := b.fail[dir]; ok {
		return domain.NoHandle, err
	}
	b.next++
	b.watches[b.next] = dir
	return b.next, nil
}

// Unregister forgets h.
func (b *Backend) Unregister(h domain.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.watches[h]; !ok {
		return zerr.With(zerr.Wrap(domain.ErrWatchNotFound, "unregister"), "handle", uint64(h))
	}
	delete(b.watches, h)
	return nil
}

// Events returns the injected notification stream.
func (b *Backend) Events() <-chan domain.Notification {
	return b.events
}

// Close closes the stream.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.events)
	}
	return nil
}

// Fail makes every later Register of dir return err.
func (b *Backend) Fail(dir string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[dir] = err
}

// Allow undoes Fail for dir.
func (b *Backend) Allow(dir string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.fail, dir)
}

// Handle returns a live handle registered for dir.
func (b *Backend) Handle(dir string) (domain.Handle, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for h, d := range b.watches {
		if d == dir {
			return h, true
		}
	}
	return domain.NoHandle, false
}

// Watched returns the sorted directories with at least one live handle.
func (b *Backend) Watched() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	dirs := make([]string, 0, len(b.watches))
	for _, d := range b.watches {
		if !slices.Contains(dirs, d) {
			dirs = append(dirs, d)
		}
	}
	slices.Sort(dirs)
	return dirs
}

// Live returns the number of live handles.
func (b *Backend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watches)
}

// Send delivers a child notification for name inside dir.
func (b *Backend) Send(dir, name string) {
	h, ok := b.Handle(dir)
	if !ok {
		panic("enginetest: no watch for " + dir)
	}
	b.events <- domain.Notification{Handle: h, Name: name}
}

// Overflow delivers a channel-wide overflow signal.
func (b *Backend) Overflow() {
	b.events <- domain.Notification{Overflow: true}
}

// Sink records events in call order.
type Sink struct {
	mu     sync.Mutex
	events []domain.Event
}

// Record appends the event.
func (s *Sink) Record(path string, kind domain.EventKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, domain.Event{Path: path, Kind: kind})
}

// Events returns the recorded events and clears them.
func (s *Sink) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out
}

// Logger collects log lines.
type Logger struct {
	mu    sync.Mutex
	lines []string
}

// Debug records msg.
func (l *Logger) Debug(msg string) { l.add("DEBUG " + msg) }

// Info records msg.
func (l *Logger) Info(msg string) { l.add("INFO " + msg) }

// Warn records msg.
func (l *Logger) Warn(msg string) { l.add("WARN " + msg) }

// Error records err.
func (l *Logger) Error(err error) { l.add("ERROR " + err.Error()) }

// Lines returns everything logged so far.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.lines)
}

func (l *Logger) add(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
}
