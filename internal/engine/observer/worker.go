package observer

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/engine/aggregator"
	"go.trai.ch/filesentry/internal/engine/scope"
)

// worker is the single consumer of one scope's notifications.
type worker struct {
	scope *scope.Scope
	agg   *aggregator.Aggregator

	queue    chan domain.Notification
	ready    chan struct{}
	wake     chan struct{}
	overflow atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}
}

func newWorker(opts Options) *worker {
	w := &worker{
		queue: make(chan domain.Notification, opts.QueueSize),
		ready: make(chan struct{}, 1),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	w.agg = aggregator.New(aggregator.Options{
		SettlePeriod: opts.SettlePeriod,
		MaxDelay:     opts.MaxDelay,
		Notify:       func() { signal(w.ready) },
	})
	return w
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// stop cancels the worker and waits for it to exit.
func (w *worker) stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

// drain discards queued notifications superseded by a recrawl.
func (w *worker) drain() int {
	n := 0
	for {
		select {
		case <-w.queue:
			n++
		default:
			return n
		}
	}
}

// dispatch routes backend notifications to scope queues until ctx is done
// or the backend stream closes.
func (o *Observer) dispatch(ctx context.Context) {
	events := o.backend.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-events:
			if !ok {
				return
			}
			o.route(n)
		}
	}
}

func (o *Observer) route(n domain.Notification) {
	o.metrics.NotificationReceived()

	if n.Overflow && n.Handle == domain.NoHandle {
		o.logger.Warn("notification queue overflowed, resynchronizing every scope")
		o.workers.Range(func(_ domain.ScopeID, w *worker) bool {
			o.flagOverflow(w)
			return true
		})
		return
	}

	id, ok := o.store.Route(n.Handle)
	if !ok {
		o.metrics.NotificationDropped("stale")
		o.logger.Debug(fmt.Sprintf("no scope for handle %d", n.Handle))
		return
	}
	w, ok := o.workers.Load(id)
	if !ok {
		o.metrics.NotificationDropped("stale")
		return
	}

	if n.Overflow {
		o.flagOverflow(w)
		return
	}

	select {
	case w.queue <- n:
	default:
		o.metrics.NotificationDropped("queue_full")
		o.flagOverflow(w)
	}
}

func (o *Observer) flagOverflow(w *worker) {
	if w.overflow.CompareAndSwap(false, true) {
		o.overflows.Add(1)
		o.metrics.Overflow()
		signal(w.wake)
	}
}

// run processes one scope. Notifications are handled in arrival order;
// an overflow discards the queue and recrawls the scope instead.
func (o *Observer) run(ctx context.Context, w *worker) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.wake:
			if !w.overflow.Swap(false) {
				continue
			}
			dropped := w.drain()
			o.logger.Info(fmt.Sprintf("resynchronizing %s after overflow (%d queued notifications superseded)", w.scope.Root, dropped))
			o.handle(ctx, w, domain.Notification{Overflow: true})
		case n := <-w.queue:
			if w.overflow.Load() {
				continue
			}
			o.handle(ctx, w, n)
		case <-w.ready:
			events := w.agg.PollReady()
			if len(events) == 0 {
				continue
			}
			if !o.deliver(ctx, w, events) {
				return nil
			}
		}
	}
}

func (o *Observer) handle(ctx context.Context, w *worker, n domain.Notification) {
	if err := o.reconciler.Handle(ctx, w.scope, n); err != nil && ctx.Err() == nil {
		o.logger.Error(err)
	}
}

func (o *Observer) deliver(ctx context.Context, w *worker, events []domain.Event) bool {
	batch := domain.Batch{Scope: w.scope.ID, Root: w.scope.Root, Events: events}
	select {
	case o.batches <- batch:
	case <-ctx.Done():
		return false
	}

	counts := make(map[domain.EventKind]int, 3)
	for _, e := range events {
		counts[e.Kind]++
	}
	for kind, n := range counts {
		o.metrics.EventsFlushed(kind, n)
	}
	return true
}
