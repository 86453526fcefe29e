// Package crawler walks a directory subtree into a fresh snapshot and diffs
// it against the previous one.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/core/ports"
	"go.trai.ch/filesentry/internal/engine/scope"
	"go.trai.ch/zerr"
)

// maxListings caps the re-list loop that closes the register/list race.
const maxListings = 8

// ChangeKind classifies one entry of a crawl diff.
type ChangeKind uint8

const (
	// Added is an entry that did not exist before, or exists with a new identity.
	Added ChangeKind = iota + 1
	// Removed is an entry that no longer exists, or was replaced by a new identity.
	Removed
	// Changed is a regular file whose signature differs under the same identity.
	Changed
)

// String returns the name of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	default:
		return "unknown"
	}
}

// Change is one diff entry. Node is the new subtree for Added and Changed,
// and the old detached subtree for Removed.
type Change struct {
	Kind ChangeKind
	Path string
	Node *domain.Node
}

// Result is the outcome of one crawl.
type Result struct {
	// Node is the fresh snapshot, nil when the crawled path no longer exists.
	Node *domain.Node
	// Changes is the diff against the previous snapshot, in walk order.
	Changes []Change
	// Registered lists the watch handles newly registered by this crawl.
	Registered []domain.Handle
}

// Crawler produces snapshots of directory subtrees.
type Crawler struct {
	backend ports.Backend
	fs      ports.FileSystem
	logger  ports.Logger
	tracer  ports.Tracer
}

// New creates a new Crawler.
func New(backend ports.Backend, fs ports.FileSystem, logger ports.Logger, tracer ports.Tracer) *Crawler {
	return &Crawler{
		backend: backend,
		fs:      fs,
		logger:  logger,
		tracer:  tracer,
	}
}

type walk struct {
	sc     *scope.Scope
	result *Result
}

// Crawl snapshots path, which must live inside sc. Every directory is
// registered with the backend before it is listed; directories that keep
// their identity reuse the handle found in prev. When prev is nil no diff is
// produced. Only a failure to watch the scope root is returned as an error;
// other directories that cannot be watched are still listed. On error every
// handle registered by the crawl is released.
func (c *Crawler) Crawl(ctx context.Context, sc *scope.Scope, path string, prev *domain.Node) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "crawl", ports.WithAttribute("path", path))
	defer span.End()

	w := &walk{sc: sc, result: &Result{}}

	md, err := c.fs.Stat(filepath.Dir(path), filepath.Base(path))
	switch {
	case errors.Is(err, domain.ErrVanished):
		if prev != nil {
			w.change(Removed, path, prev)
		}
		return w.result, nil
	case err != nil:
		span.RecordError(err)
		return nil, err
	}

	replaced := prev != nil && !prev.SameEntry(md)
	if replaced {
		w.change(Removed, path, prev)
		prev = nil
	}

	node, err := c.visit(ctx, w, path, md, prev, true)
	if err != nil {
		c.release(sc, w.result.Registered)
		span.RecordError(err)
		return nil, err
	}
	if replaced && node != nil {
		w.change(Added, path, node)
	}
	w.result.Node = node
	span.SetAttribute("changes", len(w.result.Changes))
	return w.result, nil
}

func (w *walk) change(kind ChangeKind, path string, n *domain.Node) {
	w.result.Changes = append(w.result.Changes, Change{Kind: kind, Path: path, Node: n})
}

// visit builds the node for path. prev is either nil or the same entry.
// A nil node without error means the entry vanished during the walk.
func (c *Crawler) visit(
	ctx context.Context, w *walk, path string, md domain.Metadata, prev *domain.Node, top bool,
) (*domain.Node, error) {
	n := domain.NewNode(filepath.Base(path), md)

	if md.Kind != domain.KindDirectory {
		if prev != nil && md.Kind == domain.KindRegularFile && prev.Sig != md.Sig {
			w.change(Changed, path, n)
		}
		return n, nil
	}

	if !top && !w.sc.Recursive {
		return n, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fresh := false
	if prev != nil && prev.Handle != domain.NoHandle {
		n.Handle = prev.Handle
	} else {
		h, err := c.backend.Register(path)
		switch {
		case err != nil && path == w.sc.Root:
			return nil, zerr.With(registrationError(err), "path", path)
		case err != nil:
			c.logger.Warn(fmt.Sprintf("cannot watch %s, changes below it are picked up on the next recrawl: %v", path, err))
		default:
			n.Handle = h
			fresh = true
			w.result.Registered = append(w.result.Registered, h)
			w.sc.Claim(h)
		}
	}

	names, err := c.list(path, fresh)
	switch {
	case errors.Is(err, domain.ErrVanished):
		c.drop(w, n)
		if top && prev != nil {
			w.change(Removed, path, prev)
		}
		return nil, nil
	case err != nil:
		c.logger.Warn(fmt.Sprintf("cannot read %s, treating it as empty: %v", path, err))
		names = nil
	}

	replaced := make(map[string]bool)
	for _, name := range names {
		childPath := filepath.Join(path, name)
		cmd, err := c.fs.Stat(path, name)
		if err != nil {
			if !errors.Is(err, domain.ErrVanished) {
				c.logger.Debug(fmt.Sprintf("skipping %s: %v", childPath, err))
			}
			continue
		}
		if w.sc.Ignored(childPath, cmd.Kind == domain.KindDirectory) {
			continue
		}

		old := prev.Child(name)
		if old != nil && !old.SameEntry(cmd) {
			w.change(Removed, childPath, old)
			replaced[name] = true
			old = nil
		}

		child, err := c.visit(ctx, w, childPath, cmd, old, false)
		if err != nil {
			return nil, err
		}
		if child == nil {
			continue
		}
		n.Children[name] = child
		if old == nil && prev != nil {
			w.change(Added, childPath, child)
		}
	}

	for _, name := range sortedNames(prev) {
		if _, ok := n.Children[name]; ok || replaced[name] {
			continue
		}
		w.change(Removed, filepath.Join(path, name), prev.Children[name])
	}

	return n, nil
}

// list reads dir. A directory that was just registered is re-listed until
// two consecutive listings agree, so entries created between registration
// and the first listing are not missed.
func (c *Crawler) list(dir string, fresh bool) ([]string, error) {
	names, err := c.fs.ReadDir(dir)
	if err != nil || !fresh {
		return names, err
	}
	for range maxListings - 1 {
		again, err := c.fs.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		if slices.Equal(names, again) {
			return names, nil
		}
		names = again
	}
	c.logger.Debug(fmt.Sprintf("listing of %s did not settle, using the latest one", dir))
	return names, nil
}

// drop releases the handle of a directory that vanished mid-walk.
func (c *Crawler) drop(w *walk, n *domain.Node) {
	if n.Handle == domain.NoHandle {
		return
	}
	if i := slices.Index(w.result.Registered, n.Handle); i >= 0 {
		w.result.Registered = slices.Delete(w.result.Registered, i, i+1)
		c.release(w.sc, []domain.Handle{n.Handle})
	}
}

func (c *Crawler) release(sc *scope.Scope, handles []domain.Handle) {
	for _, h := range handles {
		sc.Forget(h)
		if err := c.backend.Unregister(h); err != nil {
			c.logger.Debug(fmt.Sprintf("unregister handle %d: %v", h, err))
		}
	}
}

func sortedNames(n *domain.Node) []string {
	if n == nil {
		return nil
	}
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// registrationError makes err match domain.ErrWatchRegistration.
func registrationError(err error) error {
	if errors.Is(err, domain.ErrWatchRegistration) {
		return err
	}
	return zerr.Wrap(domain.ErrWatchRegistration, err.Error())
}
