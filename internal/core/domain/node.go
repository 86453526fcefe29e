package domain

import (
	"iter"
	"path/filepath"
	"slices"
)

// NodeKind is the kind of filesystem entry a Node mirrors.
type NodeKind uint8

const (
	// KindOther covers symlinks, sockets, devices and fifos.
	KindOther NodeKind = iota
	// KindRegularFile is a plain file. Only these generate events.
	KindRegularFile
	// KindDirectory is a directory.
	KindDirectory
)

// String returns the name of the node kind.
func (k NodeKind) String() string {
	switch k {
	case KindRegularFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "other"
	}
}

// Identity is the durable (device, inode) pair of an entry.
type Identity struct {
	Device uint64
	Inode  uint64
}

// Signature is the change-detection fingerprint of an entry.
type Signature struct {
	Size       int64
	ModTime    int64
	Generation uint64
}

// Handle is a backend watch registration. NoHandle means "not watched".
type Handle uint64

// NoHandle is the absent watch handle.
const NoHandle Handle = 0

// Metadata is the result of stat-ing a single entry.
type Metadata struct {
	Kind NodeKind
	ID   Identity
	Sig  Signature
}

// Node is one entry of the in-memory mirror.
type Node struct {
	Name     string
	Kind     NodeKind
	ID       Identity
	Sig      Signature
	Handle   Handle
	Children map[string]*Node
}

// NewNode creates a node for name from stat metadata.
func NewNode(name string, md Metadata) *Node {
	n := &Node{
		Name: name,
		Kind: md.Kind,
		ID:   md.ID,
		Sig:  md.Sig,
	}
	if md.Kind == KindDirectory {
		n.Children = make(map[string]*Node)
	}
	return n
}

// Metadata returns the stat view of the node.
func (n *Node) Metadata() Metadata {
	return Metadata{Kind: n.Kind, ID: n.ID, Sig: n.Sig}
}

// SameEntry reports whether md describes the same entry (identity and kind) as n.
func (n *Node) SameEntry(md Metadata) bool {
	return n.ID == md.ID && n.Kind == md.Kind
}

// Child returns the named child, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil || n.Children == nil {
		return nil
	}
	return n.Children[name]
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Children != nil {
		c.Children = make(map[string]*Node, len(n.Children))
		for name, child := range n.Children {
			c.Children[name] = child.Clone()
		}
	}
	return &c
}

// Entry returns a copy of n without its children.
func (n *Node) Entry() *Node {
	c := *n
	c.Children = nil
	return &c
}

// Walk yields every node of the subtree rooted at n together with its path,
// where n itself lives at path. Children are visited in name order.
func (n *Node) Walk(path string) iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		n.walk(path, yield)
	}
}

func (n *Node) walk(path string, yield func(string, *Node) bool) bool {
	if n == nil {
		return true
	}
	if !yield(path, n) {
		return false
	}
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if !n.Children[name].walk(filepath.Join(path, name), yield) {
			return false
		}
	}
	return true
}

// Files yields the path of every regular file in the subtree rooted at n.
func (n *Node) Files(path string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for p, node := range n.Walk(path) {
			if node.Kind == KindRegularFile && !yield(p) {
				return
			}
		}
	}
}

// Handles yields every watch handle held in the subtree rooted at n.
func (n *Node) Handles() iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		for _, node := range n.Walk("") {
			if node.Handle != NoHandle && !yield(node.Handle) {
				return
			}
		}
	}
}
