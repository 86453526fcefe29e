// Package config loads the YAML watch file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads and validates the watch file at path.
func (l *Loader) Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	var file WatchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}

	cfg := &domain.Config{SettlePeriod: domain.DefaultSettlePeriod}

	if file.Settle != "" {
		cfg.SettlePeriod, err = parseDuration("settle", file.Settle)
		if err != nil {
			return nil, err
		}
		if cfg.SettlePeriod < 0 {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidSettlePeriod, "settle"), "settle", file.Settle)
		}
	}
	if file.MaxDelay != "" {
		cfg.MaxDelay, err = parseDuration("maxDelay", file.MaxDelay)
		if err != nil {
			return nil, err
		}
	}

	base := filepath.Dir(path)
	seen := make(map[string]bool, len(file.Roots))
	for _, r := range file.Roots {
		root := r.Path
		if root == "" {
			root = "."
		}
		if !filepath.IsAbs(root) {
			root = filepath.Join(base, root)
		}
		root = filepath.Clean(root)
		if seen[root] {
			l.logger.Warn("duplicate watch root in " + path + ": " + root)
			continue
		}
		seen[root] = true

		recursive := true
		if r.Recursive != nil {
			recursive = *r.Recursive
		}
		cfg.Roots = append(cfg.Roots, domain.RootConfig{
			Path:      root,
			Recursive: recursive,
			Ignore: domain.IgnoreOptions{
				Hidden:   r.Hidden,
				NoIgnore: r.NoIgnore,
				Patterns: r.Ignore,
			},
		})
	}

	return cfg, nil
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, zerr.With(zerr.With(zerr.Wrap(err, domain.ErrInvalidDuration.Error()), "field", field), "value", value)
	}
	return d, nil
}
