// Package recovery resynchronizes a scope after the backend lost
// notifications.
package recovery

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/core/ports"
	"go.trai.ch/filesentry/internal/engine/crawler"
	"go.trai.ch/filesentry/internal/engine/scope"
	"go.trai.ch/filesentry/internal/engine/tree"
)

// Controller recrawls whole scopes and replays the difference as events.
type Controller struct {
	store   *tree.Store
	crawler *crawler.Crawler
	backend ports.Backend
	logger  ports.Logger
	tracer  ports.Tracer
	metrics ports.Metrics

	recrawls atomic.Uint64
}

// New creates a new Controller.
func New(
	store *tree.Store,
	c *crawler.Crawler,
	backend ports.Backend,
	logger ports.Logger,
	tracer ports.Tracer,
	metrics ports.Metrics,
) *Controller {
	return &Controller{
		store:   store,
		crawler: c,
		backend: backend,
		logger:  logger,
		tracer:  tracer,
		metrics: metrics,
	}
}

// Recover crawls the scope root against the stored tree, publishes the new
// snapshot and records the diff into the scope sink. Pending events for the
// same paths merge with the replayed ones.
func (c *Controller) Recover(ctx context.Context, sc *scope.Scope) error {
	ctx, span := c.tracer.Start(ctx, "recover", ports.WithAttribute("root", sc.Root))
	defer span.End()

	start := time.Now()
	prev, _ := c.store.Subtree(sc.ID, sc.Root)

	res, err := c.crawler.Crawl(ctx, sc, sc.Root, prev)
	if err != nil {
		span.RecordError(err)
		return err
	}

	changes := res.Changes
	if prev == nil && res.Node != nil {
		changes = []crawler.Change{{Kind: crawler.Added, Path: sc.Root, Node: res.Node}}
	}

	if _, err := c.store.Replace(sc.ID, sc.Root, res.Node); err != nil {
		c.release(sc, res.Registered)
		span.RecordError(err)
		return err
	}
	n := crawler.Emit(changes, sc.Sink)
	c.release(sc, crawler.Released(changes))

	elapsed := time.Since(start)
	c.recrawls.Add(1)
	c.metrics.Recrawl(elapsed)
	span.SetAttribute("events", n)
	c.logger.Info(fmt.Sprintf("resynchronized %s in %s (%d events)", sc.Root, elapsed.Round(time.Millisecond), n))
	return nil
}

// Recrawls returns the number of completed recoveries.
func (c *Controller) Recrawls() uint64 {
	return c.recrawls.Load()
}

func (c *Controller) release(sc *scope.Scope, handles []domain.Handle) {
	for _, h := range handles {
		sc.Forget(h)
		if err := c.backend.Unregister(h); err != nil {
			c.logger.Debug(fmt.Sprintf("unregister handle %d: %v", h, err))
		}
	}
}
