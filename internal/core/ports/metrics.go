package ports

import (
	"time"

	"go.trai.ch/filesentry/internal/core/domain"
)

// Metrics records engine counters.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// NotificationReceived counts a raw backend notification.
	NotificationReceived()
	// NotificationDropped counts a notification that was discarded before reconciling.
	NotificationDropped(reason string)
	// EventsFlushed counts events delivered in a batch.
	EventsFlushed(kind domain.EventKind, n int)
	// Overflow counts an overflow signal for one scope.
	Overflow()
	// Recrawl records the duration of a recovery crawl.
	Recrawl(d time.Duration)
}
