// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/filesentry/internal/adapters/config"
	_ "go.trai.ch/filesentry/internal/adapters/fs"
	_ "go.trai.ch/filesentry/internal/adapters/ignore"
	_ "go.trai.ch/filesentry/internal/adapters/logger"
	_ "go.trai.ch/filesentry/internal/adapters/metrics"
	_ "go.trai.ch/filesentry/internal/adapters/telemetry"
	_ "go.trai.ch/filesentry/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/filesentry/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/filesentry/internal/app"
	_ "go.trai.ch/filesentry/internal/engine/observer"
)
