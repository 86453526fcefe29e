package ports

import "go.trai.ch/filesentry/internal/core/domain"

// FileSystem stats and lists entries without following symlinks.
//
//go:generate mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type FileSystem interface {
	// Stat looks up name relative to the directory dir.
	// It returns an error wrapping domain.ErrVanished when the entry does not exist.
	Stat(dir, name string) (domain.Metadata, error)
	// ReadDir returns the entry names of dir in lexical order.
	ReadDir(dir string) ([]string, error)
}
