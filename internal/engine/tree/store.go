// Package tree holds the in-memory mirror of every watched directory tree.
//
// Each scope owns one rooted tree guarded by its own lock. Subtrees are
// built detached from the store (by the crawler, without any lock held) and
// published with a single pointer swap, so a slow crawl never blocks readers
// and a reader never observes a half-built subtree. The watch-handle reverse
// index is updated inside the same critical section as the node it
// describes. Readers only ever receive copies.
package tree

import (
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store is a concurrent-safe set of per-scope trees.
type Store struct {
	scopes *xsync.MapOf[domain.ScopeID, *scopeTree]
	routes *xsync.MapOf[domain.Handle, domain.ScopeID]
}

type scopeTree struct {
	mu      sync.RWMutex
	root    string
	node    *domain.Node
	handles map[domain.Handle]string
	version uint64
	closed  bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		scopes: xsync.NewMapOf[domain.ScopeID, *scopeTree](),
		routes: xsync.NewMapOf[domain.Handle, domain.ScopeID](),
	}
}

// Add registers an empty tree for scope id rooted at root.
func (s *Store) Add(id domain.ScopeID, root string) error {
	_, loaded := s.scopes.LoadOrStore(id, &scopeTree{
		root:    root,
		handles: make(map[domain.Handle]string),
	})
	if loaded {
		return zerr.With(zerr.Wrap(domain.ErrScopeExists, "add"), "scope", uint64(id))
	}
	return nil
}

// Close removes the scope and returns its detached tree so the caller can
// release the watch handles it holds. Publishing into a closed scope fails.
func (s *Store) Close(id domain.ScopeID) (*domain.Node, error) {
	t, ok := s.scopes.LoadAndDelete(id)
	if !ok {
		return nil, scopeNotFound(id)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for h := range t.handles {
		s.routes.Delete(h)
	}
	t.handles = nil
	node := t.node
	t.node = nil
	return node, nil
}

// Claim routes h to scope id before the directory it watches is published,
// so notifications that race with a crawl still reach the scope.
func (s *Store) Claim(id domain.ScopeID, h domain.Handle) {
	s.routes.Store(h, id)
}

// Forget drops the route of a handle that was released without being
// published.
func (s *Store) Forget(h domain.Handle) {
	s.routes.Delete(h)
}

// Route returns the scope that owns handle h.
func (s *Store) Route(h domain.Handle) (domain.ScopeID, bool) {
	return s.routes.Load(h)
}

// Root returns the root path of the scope.
func (s *Store) Root(id domain.ScopeID) (string, error) {
	t, err := s.scope(id)
	if err != nil {
		return "", err
	}
	return t.root, nil
}

// Resolve returns the path of the directory watched through h.
func (s *Store) Resolve(id domain.ScopeID, h domain.Handle) (string, bool) {
	t, err := s.scope(id)
	if err != nil {
		return "", false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.handles[h]
	return p, ok
}

// Lookup returns a childless copy of the node at path.
func (s *Store) Lookup(id domain.ScopeID, path string) (*domain.Node, bool) {
	t, err := s.scope(id)
	if err != nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.find(path)
	if n == nil {
		return nil, false
	}
	return n.Entry(), true
}

// Subtree returns a deep copy of the subtree at path.
func (s *Store) Subtree(id domain.ScopeID, path string) (*domain.Node, bool) {
	t, err := s.scope(id)
	if err != nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.find(path)
	if n == nil {
		return nil, false
	}
	return n.Clone(), true
}

// Replace publishes n at path and returns the detached subtree it replaced.
// A nil n removes the entry. The parent of path must exist unless path is
// the scope root. n is owned by the store afterwards.
func (s *Store) Replace(id domain.ScopeID, path string, n *domain.Node) (*domain.Node, error) {
	t, err := s.scope(id)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, scopeNotFound(id)
	}

	parts, ok := t.split(path)
	if !ok {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrPathOutsideScope, "replace"), "path", path), "root", t.root)
	}

	var old *domain.Node
	if len(parts) == 0 {
		old = t.node
		if n != nil {
			n.Name = t.root
		}
		t.node = n
	} else {
		parent := t.walk(parts[:len(parts)-1])
		if parent == nil || parent.Kind != domain.KindDirectory {
			return nil, zerr.With(zerr.Wrap(domain.ErrNodeNotFound, "replace"), "path", path)
		}
		name := parts[len(parts)-1]
		old = parent.Children[name]
		if n == nil {
			delete(parent.Children, name)
		} else {
			n.Name = name
			parent.Children[name] = n
		}
	}

	// Routes of handles that survive the swap are never absent.
	kept := s.index(id, t, n, path)
	s.unindex(t, old, path, kept)
	t.version++
	return old, nil
}

// Remove detaches the subtree at path and returns it.
func (s *Store) Remove(id domain.ScopeID, path string) (*domain.Node, error) {
	old, err := s.Replace(id, path, nil)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrNodeNotFound, "remove"), "path", path)
	}
	return old, nil
}

// Update overwrites the stat signature of the node at path in place.
func (s *Store) Update(id domain.ScopeID, path string, sig domain.Signature) error {
	t, err := s.scope(id)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.find(path)
	if n == nil {
		return zerr.With(zerr.Wrap(domain.ErrNodeNotFound, "update"), "path", path)
	}
	n.Sig = sig
	t.version++
	return nil
}

// Files returns the sorted paths of every regular file in the scope.
func (s *Store) Files(id domain.ScopeID) ([]string, error) {
	t, err := s.scope(id)
	if err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	files := slices.Collect(t.node.Files(t.root))
	slices.Sort(files)
	return files, nil
}

// Handles returns the number of watch handles indexed for the scope.
func (s *Store) Handles(id domain.ScopeID) int {
	t, err := s.scope(id)
	if err != nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handles)
}

// Version returns a counter bumped by every mutation of the scope.
func (s *Store) Version(id domain.ScopeID) uint64 {
	t, err := s.scope(id)
	if err != nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

func (s *Store) scope(id domain.ScopeID) (*scopeTree, error) {
	t, ok := s.scopes.Load(id)
	if !ok {
		return nil, scopeNotFound(id)
	}
	return t, nil
}

func (s *Store) index(id domain.ScopeID, t *scopeTree, n *domain.Node, path string) map[domain.Handle]struct{} {
	var kept map[domain.Handle]struct{}
	for p, node := range n.Walk(path) {
		if node.Handle == domain.NoHandle {
			continue
		}
		if kept == nil {
			kept = make(map[domain.Handle]struct{})
		}
		kept[node.Handle] = struct{}{}
		t.handles[node.Handle] = p
		s.routes.Store(node.Handle, id)
	}
	return kept
}

// unindex drops the handles of n except those in kept.
func (s *Store) unindex(t *scopeTree, n *domain.Node, path string, kept map[domain.Handle]struct{}) {
	for _, node := range n.Walk(path) {
		if node.Handle == domain.NoHandle {
			continue
		}
		if _, ok := kept[node.Handle]; ok {
			continue
		}
		delete(t.handles, node.Handle)
		s.routes.Delete(node.Handle)
	}
}

func scopeNotFound(id domain.ScopeID) error {
	return zerr.With(zerr.Wrap(domain.ErrScopeNotFound, "tree"), "scope", uint64(id))
}

// split returns the components of path below the root, or false if path
// is not inside the root.
func (t *scopeTree) split(path string) ([]string, bool) {
	if path == t.root {
		return nil, true
	}
	prefix := t.root
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	rest, ok := strings.CutPrefix(path, prefix)
	if !ok || rest == "" {
		return nil, false
	}
	return strings.Split(rest, string(os.PathSeparator)), true
}

func (t *scopeTree) walk(parts []string) *domain.Node {
	n := t.node
	for _, part := range parts {
		n = n.Child(part)
		if n == nil {
			return nil
		}
	}
	return n
}

func (t *scopeTree) find(path string) *domain.Node {
	parts, ok := t.split(path)
	if !ok {
		return nil
	}
	return t.walk(parts)
}
