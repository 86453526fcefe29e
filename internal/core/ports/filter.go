package ports

import "go.trai.ch/filesentry/internal/core/domain"

//go:generate mockgen -source=filter.go -destination=mocks/mock_filter.go -package=mocks

// Filter decides which entries a scope never tracks.
type Filter interface {
	// Ignore reports whether the entry at the absolute path is excluded.
	Ignore(path string, isDir bool) bool
}

// FilterBuilder compiles the ignore configuration for one watch root.
type FilterBuilder interface {
	Build(root string, opts domain.IgnoreOptions) (Filter, error)
}
