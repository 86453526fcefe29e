package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry exposes the private registry for testing.
func Registry(p *Prometheus) *prometheus.Registry {
	return p.registry
}
