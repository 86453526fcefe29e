package app

import "go.trai.ch/filesentry/internal/core/domain"

// ResolveConfig exposes resolveConfig for testing.
func ResolveConfig(a *App, opts WatchOptions) (*domain.Config, error) {
	return a.resolveConfig(opts)
}

// SetBase overrides the directory pretty output is relative to.
func SetBase(p *Printer, base string) {
	p.base = base
}
