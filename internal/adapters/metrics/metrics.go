// Package metrics exposes engine counters through Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/core/ports"
)

const namespace = "filesentry"

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus implements ports.Metrics on a private registry.
type Prometheus struct {
	registry *prometheus.Registry

	notificationsTotal prometheus.Counter
	droppedTotal       *prometheus.CounterVec
	eventsTotal        *prometheus.CounterVec
	overflowsTotal     prometheus.Counter
	recrawlSeconds     prometheus.Histogram
}

// NewPrometheus creates the collectors and registers them together with the
// Go runtime collectors.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	f := promauto.With(reg)
	return &Prometheus{
		registry: reg,
		notificationsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "notifications_total",
			Help:      "Raw notifications received from the watch backend.",
		}),
		droppedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "notifications_dropped_total",
			Help:      "Notifications discarded before reconciling.",
		}, []string{"reason"}),
		eventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events_total",
			Help:      "Events delivered in flushed batches.",
		}, []string{"kind"}),
		overflowsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "overflows_total",
			Help:      "Overflow signals handled, per scope.",
		}),
		recrawlSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "recrawl_duration_seconds",
			Help:      "Duration of overflow recovery crawls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// NotificationReceived increments the notification counter.
func (p *Prometheus) NotificationReceived() {
	p.notificationsTotal.Inc()
}

// NotificationDropped increments the drop counter for reason.
func (p *Prometheus) NotificationDropped(reason string) {
	p.droppedTotal.WithLabelValues(reason).Inc()
}

// EventsFlushed adds n to the event counter for kind.
func (p *Prometheus) EventsFlushed(kind domain.EventKind, n int) {
	p.eventsTotal.WithLabelValues(kind.String()).Add(float64(n))
}

// Overflow increments the overflow counter.
func (p *Prometheus) Overflow() {
	p.overflowsTotal.Inc()
}

// Recrawl observes a recovery crawl duration.
func (p *Prometheus) Recrawl(d time.Duration) {
	p.recrawlSeconds.Observe(d.Seconds())
}

// NoOp discards every measurement.
type NoOp struct{}

// NotificationReceived does nothing.
func (NoOp) NotificationReceived() {}

// NotificationDropped does nothing.
func (NoOp) NotificationDropped(string) {}

// EventsFlushed does nothing.
func (NoOp) EventsFlushed(domain.EventKind, int) {}

// Overflow does nothing.
func (NoOp) Overflow() {}

// Recrawl does nothing.
func (NoOp) Recrawl(time.Duration) {}
