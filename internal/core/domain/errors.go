package domain

import "go.trai.ch/zerr"

var (
	// ErrVanished is returned when an entry disappeared between being listed and being stat-ed.
	ErrVanished = zerr.New("entry vanished")

	// ErrRootNotFound is returned when a watch root does not exist.
	ErrRootNotFound = zerr.New("watch root not found")

	// ErrRootNotDirectory is returned when a watch root is not a directory.
	ErrRootNotDirectory = zerr.New("watch root is not a directory")

	// ErrWatchRegistration is returned when the backend refuses to register a directory watch.
	ErrWatchRegistration = zerr.New("failed to register watch")

	// ErrWatchNotFound is returned when unregistering a handle the backend does not know.
	ErrWatchNotFound = zerr.New("watch handle not found")

	// ErrCrawlIO is returned when a directory cannot be read during a crawl.
	ErrCrawlIO = zerr.New("failed to read directory")

	// ErrStatFailed is returned when an entry cannot be stat-ed for a reason other than vanishing.
	ErrStatFailed = zerr.New("failed to stat entry")

	// ErrScopeNotFound is returned when an operation references an unknown watch scope.
	ErrScopeNotFound = zerr.New("watch scope not found")

	// ErrScopeExists is returned when a scope id is registered twice with the tree store.
	ErrScopeExists = zerr.New("watch scope already exists")

	// ErrNodeNotFound is returned when a tree path does not resolve to a known node.
	ErrNodeNotFound = zerr.New("node not found")

	// ErrPathOutsideScope is returned when a path does not live under the scope root.
	ErrPathOutsideScope = zerr.New("path is outside watch scope")

	// ErrObserverClosed is returned when using an observer after Close.
	ErrObserverClosed = zerr.New("observer is closed")

	// ErrBackendClosed is returned when registering with a closed backend.
	ErrBackendClosed = zerr.New("watch backend is closed")

	// ErrNoWatchRoots is returned when no watch root was given on the command line or in the config.
	ErrNoWatchRoots = zerr.New("no watch roots specified")

	// ErrInvalidSettlePeriod is returned when a settle period is negative.
	ErrInvalidSettlePeriod = zerr.New("settle period must not be negative")

	// ErrInvalidIgnorePattern is returned when an ignore pattern is not a valid glob.
	ErrInvalidIgnorePattern = zerr.New("invalid ignore pattern")

	// ErrIgnoreFileReadFailed is returned when an ignore file exists but cannot be read.
	ErrIgnoreFileReadFailed = zerr.New("failed to read ignore file")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidDuration is returned when a config duration cannot be parsed.
	ErrInvalidDuration = zerr.New("invalid duration")

	// ErrMetricsServerFailed is returned when the metrics endpoint stops unexpectedly.
	ErrMetricsServerFailed = zerr.New("metrics server failed")
)
