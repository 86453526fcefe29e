package domain

import "time"

const (
	// DefaultSettlePeriod is the quiet interval before a scope flushes.
	DefaultSettlePeriod = 200 * time.Millisecond
	// DefaultQueueSize bounds the per-scope notification queue.
	DefaultQueueSize = 4096
	// DefaultConfigFile is the file name looked up when no --config is given.
	DefaultConfigFile = "filesentry.yaml"
)

// IgnoreOptions controls which entries under a root are filtered out.
type IgnoreOptions struct {
	// Hidden includes dot-files and dot-directories.
	Hidden bool
	// NoIgnore skips loading .gitignore and .ignore files.
	NoIgnore bool
	// Patterns are extra gitignore-style patterns.
	Patterns []string
}

// RootConfig is one watch root as described by the config file or flags.
type RootConfig struct {
	Path      string
	Recursive bool
	Ignore    IgnoreOptions
}

// Config is the resolved watch configuration.
type Config struct {
	SettlePeriod time.Duration
	MaxDelay     time.Duration
	Roots        []RootConfig
}
