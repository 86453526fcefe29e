// Package reconciler turns raw backend notifications into file events by
// re-stating the notified entry and comparing it with the tree store.
//
// The notification only says where to look. The event kind is always
// decided by comparing the entry on disk with the stored node.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/core/ports"
	"go.trai.ch/filesentry/internal/engine/crawler"
	"go.trai.ch/filesentry/internal/engine/scope"
	"go.trai.ch/filesentry/internal/engine/tree"
)

// Recoverer resynchronizes a whole scope from disk.
type Recoverer interface {
	Recover(ctx context.Context, sc *scope.Scope) error
}

// Reconciler applies notifications for one scope at a time. Calls for the
// same scope must be serialized by the caller.
type Reconciler struct {
	store     *tree.Store
	crawler   *crawler.Crawler
	fs        ports.FileSystem
	backend   ports.Backend
	logger    ports.Logger
	recoverer Recoverer
}

// New creates a new Reconciler.
func New(
	store *tree.Store,
	c *crawler.Crawler,
	fs ports.FileSystem,
	backend ports.Backend,
	logger ports.Logger,
	recoverer Recoverer,
) *Reconciler {
	return &Reconciler{
		store:     store,
		crawler:   c,
		fs:        fs,
		backend:   backend,
		logger:    logger,
		recoverer: recoverer,
	}
}

// Handle processes one notification routed to sc.
func (r *Reconciler) Handle(ctx context.Context, sc *scope.Scope, n domain.Notification) error {
	if n.Overflow {
		return r.recoverer.Recover(ctx, sc)
	}

	dir, ok := r.store.Resolve(sc.ID, n.Handle)
	if !ok {
		r.logger.Debug(fmt.Sprintf("discarding notification for stale handle %d", n.Handle))
		return nil
	}

	if n.Name == "" {
		if dir == sc.Root {
			return r.root(ctx, sc)
		}
		return r.Reconcile(ctx, sc, dir)
	}
	return r.Reconcile(ctx, sc, filepath.Join(dir, n.Name))
}

// Reconcile re-stats path and brings the store in line with it.
func (r *Reconciler) Reconcile(ctx context.Context, sc *scope.Scope, path string) error {
	prev, known := r.store.Lookup(sc.ID, path)

	md, err := r.fs.Stat(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		if !errors.Is(err, domain.ErrVanished) {
			r.logger.Debug(fmt.Sprintf("treating %s as absent: %v", path, err))
		}
		if known {
			r.remove(sc, path)
		}
		return nil
	}

	if sc.Ignored(path, md.Kind == domain.KindDirectory) {
		if known {
			r.remove(sc, path)
		}
		return nil
	}

	switch {
	case !known:
		return r.create(ctx, sc, path, md)
	case !prev.SameEntry(md):
		r.remove(sc, path)
		return r.create(ctx, sc, path, md)
	case md.Kind == domain.KindRegularFile && prev.Sig != md.Sig:
		if err := r.store.Update(sc.ID, path, md.Sig); err != nil {
			return err
		}
		sc.Sink.Record(path, domain.EventModified)
	case md.Kind == domain.KindDirectory && prev.Handle == domain.NoHandle && sc.Recursive:
		return r.heal(ctx, sc, path)
	default:
		r.logger.Debug(fmt.Sprintf("%s unchanged", path))
	}
	return nil
}

func (r *Reconciler) create(ctx context.Context, sc *scope.Scope, path string, md domain.Metadata) error {
	if md.Kind != domain.KindDirectory || !sc.Recursive {
		if _, err := r.store.Replace(sc.ID, path, domain.NewNode(filepath.Base(path), md)); err != nil {
			r.logger.Debug(fmt.Sprintf("dropping %s: %v", path, err))
			return nil
		}
		if md.Kind == domain.KindRegularFile {
			sc.Sink.Record(path, domain.EventCreated)
		}
		return nil
	}

	res, err := r.crawler.Crawl(ctx, sc, path, nil)
	if err != nil {
		return err
	}
	if res.Node == nil {
		return nil
	}
	if _, err := r.store.Replace(sc.ID, path, res.Node); err != nil {
		r.release(sc, res.Registered)
		r.logger.Debug(fmt.Sprintf("dropping %s: %v", path, err))
		return nil
	}
	crawler.Record(res.Node, path, domain.EventCreated, sc.Sink)
	return nil
}

// heal re-crawls a known directory that has no watch so that it gets one.
func (r *Reconciler) heal(ctx context.Context, sc *scope.Scope, path string) error {
	prev, ok := r.store.Subtree(sc.ID, path)
	if !ok {
		return nil
	}
	res, err := r.crawler.Crawl(ctx, sc, path, prev)
	if err != nil {
		return err
	}
	return r.publish(sc, path, res)
}

// root handles a notification about the scope root itself.
func (r *Reconciler) root(ctx context.Context, sc *scope.Scope) error {
	prev, known := r.store.Lookup(sc.ID, sc.Root)

	md, err := r.fs.Stat(filepath.Dir(sc.Root), filepath.Base(sc.Root))
	if err != nil {
		if !errors.Is(err, domain.ErrVanished) {
			r.logger.Debug(fmt.Sprintf("treating root %s as absent: %v", sc.Root, err))
		}
		if known {
			r.logger.Info(fmt.Sprintf("watch root %s was removed", sc.Root))
			r.remove(sc, sc.Root)
		}
		return nil
	}

	if !known || !prev.SameEntry(md) || prev.Handle == domain.NoHandle {
		return r.recoverer.Recover(ctx, sc)
	}
	return nil
}

// publish swaps a crawl result into the store, records the diff as events
// and releases the handles of removed subtrees.
func (r *Reconciler) publish(sc *scope.Scope, path string, res *crawler.Result) error {
	if _, err := r.store.Replace(sc.ID, path, res.Node); err != nil {
		r.release(sc, res.Registered)
		return err
	}
	crawler.Emit(res.Changes, sc.Sink)
	r.release(sc, crawler.Released(res.Changes))
	return nil
}

func (r *Reconciler) remove(sc *scope.Scope, path string) {
	old, err := r.store.Remove(sc.ID, path)
	if err != nil {
		r.logger.Debug(fmt.Sprintf("%s already gone: %v", path, err))
		return
	}
	crawler.Record(old, path, domain.EventDeleted, sc.Sink)
	r.release(sc, slices.Collect(old.Handles()))
}

func (r *Reconciler) release(sc *scope.Scope, handles []domain.Handle) {
	for _, h := range handles {
		sc.Forget(h)
		if err := r.backend.Unregister(h); err != nil {
			r.logger.Debug(fmt.Sprintf("unregister handle %d: %v", h, err))
		}
	}
}
