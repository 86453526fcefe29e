package crawler

import (
	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/engine/scope"
)

// Emit translates changes into per-file events and returns how many were
// recorded. Every regular file of an added subtree is Created, every regular
// file of a removed subtree is Deleted and a changed file is Modified.
// Directories never produce events of their own.
func Emit(changes []Change, sink scope.Sink) int {
	n := 0
	for _, ch := range changes {
		switch ch.Kind {
		case Added:
			n += Record(ch.Node, ch.Path, domain.EventCreated, sink)
		case Removed:
			n += Record(ch.Node, ch.Path, domain.EventDeleted, sink)
		case Changed:
			sink.Record(ch.Path, domain.EventModified)
			n++
		}
	}
	return n
}

// Record reports kind for every regular file of the subtree at path.
func Record(node *domain.Node, path string, kind domain.EventKind, sink scope.Sink) int {
	n := 0
	for p := range node.Files(path) {
		sink.Record(p, kind)
		n++
	}
	return n
}

// Released returns the watch handles held by removed subtrees.
func Released(changes []Change) []domain.Handle {
	var handles []domain.Handle
	for _, ch := range changes {
		if ch.Kind != Removed {
			continue
		}
		for h := range ch.Node.Handles() {
			handles = append(handles, h)
		}
	}
	return handles
}
