package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/filesentry/internal/core/ports"
)

// Walker lists the files a scope would track, independently of the engine.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields the absolute path of every regular file under root that
// the filter keeps. Symlinks are not followed. With recursive unset only the
// direct children of root are considered.
func (w *Walker) WalkFiles(root string, filter ports.Filter, recursive bool) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Entries that vanish or cannot be read are not part of the snapshot.
				return nil //nolint:nilerr // skip unreadable entries
			}
			if path == root {
				return nil
			}
			if filter != nil && filter.Ignore(path, d.IsDir()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}
