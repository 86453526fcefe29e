// Package aggregator buffers per-path events for one watch scope and
// releases them as a settled batch once the scope has been quiet for the
// settle period.
package aggregator

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"go.trai.ch/filesentry/internal/core/domain"
)

// Options configures an Aggregator.
type Options struct {
	// SettlePeriod is the quiet interval after the last Record before events are ready.
	SettlePeriod time.Duration
	// MaxDelay, when positive, caps how long the oldest pending event may wait
	// while records keep arriving.
	MaxDelay time.Duration
	// Notify is called from a timer goroutine when events become ready.
	// It must not block.
	Notify func()
}

type pending struct {
	kind domain.EventKind
	seq  uint64
}

// Aggregator merges colliding events and tracks the settle deadline.
type Aggregator struct {
	mu       sync.Mutex
	settle   time.Duration
	maxDelay time.Duration
	notify   func()

	pending  map[string]*pending
	seq      uint64
	oldest   time.Time
	deadline time.Time
	timer    *time.Timer
	stopped  bool
}

// New creates an Aggregator.
func New(opts Options) *Aggregator {
	notify := opts.Notify
	if notify == nil {
		notify = func() {}
	}
	return &Aggregator{
		settle:   opts.SettlePeriod,
		maxDelay: opts.MaxDelay,
		notify:   notify,
		pending:  make(map[string]*pending),
	}
}

// Record merges kind into the pending event for path and pushes the settle
// deadline back.
func (a *Aggregator) Record(path string, kind domain.EventKind) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}

	now := time.Now()
	if p, ok := a.pending[path]; ok {
		merged, keep := Merge(p.kind, kind)
		if keep {
			p.kind = merged
		} else {
			delete(a.pending, path)
			if len(a.pending) == 0 {
				a.oldest = time.Time{}
			}
		}
	} else if kind != domain.EventNone {
		a.seq++
		a.pending[path] = &pending{kind: kind, seq: a.seq}
		if a.oldest.IsZero() {
			a.oldest = now
		}
	}

	a.deadline = now.Add(a.settle)
	if a.maxDelay > 0 && !a.oldest.IsZero() {
		if limit := a.oldest.Add(a.maxDelay); limit.Before(a.deadline) {
			a.deadline = limit
		}
	}
	a.arm(a.deadline.Sub(now))
}

func (a *Aggregator) arm(d time.Duration) {
	if a.timer == nil {
		a.timer = time.AfterFunc(d, a.fire)
		return
	}
	a.timer.Reset(d)
}

func (a *Aggregator) fire() {
	a.mu.Lock()
	ready := !a.stopped && len(a.pending) > 0
	a.mu.Unlock()

	if ready {
		a.notify()
	}
}

// PollReady returns the pending events in first-recorded order and forgets
// them, provided the settle deadline has passed. Otherwise it returns nil.
func (a *Aggregator) PollReady() []domain.Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.pending) == 0 || time.Now().Before(a.deadline) {
		return nil
	}
	return a.drain()
}

// Flush returns every pending event regardless of the deadline.
func (a *Aggregator) Flush() []domain.Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
	}
	return a.drain()
}

// Reset discards every pending event.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

// Stop discards pending events and ignores every later Record.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
	a.stopped = true
}

func (a *Aggregator) reset() {
	if a.timer != nil {
		a.timer.Stop()
	}
	clear(a.pending)
	a.oldest = time.Time{}
}

// Len returns the number of pending paths.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

func (a *Aggregator) drain() []domain.Event {
	if len(a.pending) == 0 {
		return nil
	}

	type entry struct {
		path string
		*pending
	}
	entries := make([]entry, 0, len(a.pending))
	for path, p := range a.pending {
		entries = append(entries, entry{path: path, pending: p})
	}
	slices.SortFunc(entries, func(x, y entry) int {
		return cmp.Compare(x.seq, y.seq)
	})

	events := make([]domain.Event, len(entries))
	for i, e := range entries {
		events[i] = domain.Event{Path: e.path, Kind: e.kind}
	}
	clear(a.pending)
	a.oldest = time.Time{}
	return events
}
