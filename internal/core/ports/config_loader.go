package ports

import "go.trai.ch/filesentry/internal/core/domain"

// ConfigLoader defines the interface for loading the watch configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the watch file at path. Relative root paths are resolved
	// against the directory containing the file.
	Load(path string) (*domain.Config, error)
}
