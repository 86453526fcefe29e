// Package observer runs watch scopes: it routes backend notifications to
// per-scope workers, reconciles them against the tree store and delivers
// settled batches.
package observer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/core/ports"
	"go.trai.ch/filesentry/internal/engine/crawler"
	"go.trai.ch/filesentry/internal/engine/reconciler"
	"go.trai.ch/filesentry/internal/engine/recovery"
	"go.trai.ch/filesentry/internal/engine/scope"
	"go.trai.ch/filesentry/internal/engine/tree"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const batchBuffer = 64

// Options configures one watch scope.
type Options struct {
	// Recursive watches every directory below the root, not just the root.
	Recursive bool
	// Filter hides entries from the scope. Nil keeps everything.
	Filter ports.Filter
	// SettlePeriod is the quiet interval before a batch is flushed.
	// Zero selects domain.DefaultSettlePeriod.
	SettlePeriod time.Duration
	// MaxDelay caps how long an event may be held back by a busy scope.
	// Zero disables the cap.
	MaxDelay time.Duration
	// QueueSize bounds the notifications buffered for the scope.
	// Zero selects domain.DefaultQueueSize.
	QueueSize int
}

func (o Options) validate() (Options, error) {
	if o.SettlePeriod < 0 {
		return o, zerr.With(zerr.Wrap(domain.ErrInvalidSettlePeriod, "watch"), "settle", o.SettlePeriod.String())
	}
	if o.SettlePeriod == 0 {
		o.SettlePeriod = domain.DefaultSettlePeriod
	}
	if o.QueueSize <= 0 {
		o.QueueSize = domain.DefaultQueueSize
	}
	return o, nil
}

// Stats are cumulative counters of an Observer.
type Stats struct {
	Scopes    int
	Overflows uint64
	Recrawls  uint64
}

// Observer owns a backend and the scopes watched through it.
type Observer struct {
	backend ports.Backend
	fs      ports.FileSystem
	logger  ports.Logger
	tracer  ports.Tracer
	metrics ports.Metrics

	store      *tree.Store
	crawler    *crawler.Crawler
	recovery   *recovery.Controller
	reconciler *reconciler.Reconciler

	workers   *xsync.MapOf[domain.ScopeID, *worker]
	nextID    atomic.Uint64
	overflows atomic.Uint64
	batches   chan domain.Batch

	mu      sync.Mutex
	closed  bool
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// New creates an Observer on top of backend. The Observer takes ownership
// of the backend and closes it in Close.
func New(
	backend ports.Backend,
	fs ports.FileSystem,
	logger ports.Logger,
	tracer ports.Tracer,
	metrics ports.Metrics,
) *Observer {
	ctx, cancel := context.WithCancel(context.Background())
	store := tree.NewStore()
	c := crawler.New(backend, fs, logger, tracer)
	rc := recovery.New(store, c, backend, logger, tracer, metrics)

	return &Observer{
		backend:    backend,
		fs:         fs,
		logger:     logger,
		tracer:     tracer,
		metrics:    metrics,
		store:      store,
		crawler:    c,
		recovery:   rc,
		reconciler: reconciler.New(store, c, fs, backend, logger, rc),
		workers:    xsync.NewMapOf[domain.ScopeID, *worker](),
		batches:    make(chan domain.Batch, batchBuffer),
		ctx:        ctx,
		cancel:     cancel,
		group:      &errgroup.Group{},
	}
}

// Batches delivers settled event batches. The channel is closed by Close.
func (o *Observer) Batches() <-chan domain.Batch {
	return o.batches
}

// Watch starts watching path and returns the id of the new scope. The
// initial crawl reports no events: only changes made after Watch returns
// are delivered.
func (o *Observer) Watch(ctx context.Context, path string, opts Options) (domain.ScopeID, error) {
	opts, err := opts.validate()
	if err != nil {
		return 0, err
	}

	ctx, span := o.tracer.Start(ctx, "watch", ports.WithAttribute("path", path))
	defer span.End()

	root, err := o.resolveRoot(path)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	if err := o.startDispatcher(); err != nil {
		return 0, err
	}

	id := domain.ScopeID(o.nextID.Add(1))
	w := newWorker(opts)
	w.scope = &scope.Scope{
		ID:        id,
		Root:      root,
		Recursive: opts.Recursive,
		Filter:    opts.Filter,
		Sink:      w.agg,
		Router:    o.store,
	}
	if err := o.store.Add(id, root); err != nil {
		return 0, err
	}
	// Registered before the crawl so notifications racing with it are queued.
	o.workers.Store(id, w)

	res, err := o.crawler.Crawl(ctx, w.scope, root, nil)
	if err == nil && res.Node == nil {
		err = zerr.With(zerr.Wrap(domain.ErrRootNotFound, "watch"), "path", root)
	}
	if err == nil {
		if _, err = o.store.Replace(id, root, res.Node); err != nil {
			o.release(w.scope, res.Registered)
		}
	}
	if err != nil {
		o.workers.Delete(id)
		o.discard(w)
		span.RecordError(err)
		return 0, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		o.workers.Delete(id)
		o.discard(w)
		return 0, domain.ErrObserverClosed
	}

	wctx, cancel := context.WithCancel(o.ctx)
	w.cancel = cancel
	o.group.Go(func() error {
		defer close(w.done)
		return o.run(wctx, w)
	})

	files, _ := o.store.Files(id)
	o.logger.Info(fmt.Sprintf("watching %s (%d files)", root, len(files)))
	return id, nil
}

// Unwatch stops the scope: its worker exits, its pending events are
// discarded and every directory watch it holds is released.
func (o *Observer) Unwatch(id domain.ScopeID) error {
	w, ok := o.workers.LoadAndDelete(id)
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrScopeNotFound, "unwatch"), "scope", uint64(id))
	}
	w.stop()
	o.discard(w)
	o.logger.Info(fmt.Sprintf("stopped watching %s", w.scope.Root))
	return nil
}

// Snapshot returns the sorted paths of every file the scope currently tracks.
func (o *Observer) Snapshot(id domain.ScopeID) ([]string, error) {
	return o.store.Files(id)
}

// Stats returns the current counters.
func (o *Observer) Stats() Stats {
	return Stats{
		Scopes:    o.workers.Size(),
		Overflows: o.overflows.Load(),
		Recrawls:  o.recovery.Recrawls(),
	}
}

// Close stops every scope, closes the backend and then the Batches channel.
func (o *Observer) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	o.cancel()
	_ = o.group.Wait()

	o.workers.Range(func(id domain.ScopeID, w *worker) bool {
		o.workers.Delete(id)
		w.agg.Stop()
		_, _ = o.store.Close(id)
		return true
	})

	err := o.backend.Close()
	close(o.batches)
	return err
}

func (o *Observer) resolveRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrRootNotFound, err.Error()), "path", path)
	}
	root, err := filepath.EvalSymlinks(abs)
	if errors.Is(err, os.ErrNotExist) {
		return "", zerr.With(zerr.Wrap(domain.ErrRootNotFound, "watch"), "path", abs)
	}
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrRootNotFound, err.Error()), "path", abs)
	}

	md, err := o.fs.Stat(filepath.Dir(root), filepath.Base(root))
	if errors.Is(err, domain.ErrVanished) {
		return "", zerr.With(zerr.Wrap(domain.ErrRootNotFound, "watch"), "path", root)
	}
	if err != nil {
		return "", err
	}
	if md.Kind != domain.KindDirectory {
		return "", zerr.With(zerr.Wrap(domain.ErrRootNotDirectory, "watch"), "path", root)
	}
	return root, nil
}

func (o *Observer) startDispatcher() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return domain.ErrObserverClosed
	}
	if !o.started {
		o.started = true
		o.group.Go(func() error {
			o.dispatch(o.ctx)
			return nil
		})
	}
	return nil
}

// discard drops the scope from the store and releases its watches.
// release drops handles a crawl registered but could not publish.
func (o *Observer) release(sc *scope.Scope, handles []domain.Handle) {
	for _, h := range handles {
		sc.Forget(h)
		if err := o.backend.Unregister(h); err != nil {
			o.logger.Debug(fmt.Sprintf("unregister handle %d: %v", h, err))
		}
	}
}

func (o *Observer) discard(w *worker) {
	w.agg.Stop()
	node, err := o.store.Close(w.scope.ID)
	if err != nil {
		return
	}
	for h := range node.Handles() {
		if err := o.backend.Unregister(h); err != nil {
			o.logger.Debug(fmt.Sprintf("unregister handle %d: %v", h, err))
		}
	}
}
