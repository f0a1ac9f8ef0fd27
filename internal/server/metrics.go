// SPDX-License-Identifier: MPL-2.0

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "artinav"

// Reload outcomes recorded by artinav_reloads_total.
const (
	reloadOK    = "ok"
	reloadError = "error"
	reloadStale = "stale"
)

type metrics struct {
	reloads    *prometheus.CounterVec
	artifacts  prometheus.Gauge
	folders    prometheus.Gauge
	generation prometheus.Gauge
	requests   *prometheus.CounterVec
}

// newMetrics registers the server collectors on reg. A nil reg gets a fresh
// registry with the Go and process collectors.
func newMetrics(reg *prometheus.Registry) (*metrics, *prometheus.Registry) {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &metrics{
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reloads_total",
			Help:      "Catalog reload attempts by result (ok, error, stale).",
		}, []string{"result"}),
		artifacts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "catalog_artifacts",
			Help:      "Artifacts in the current catalog.",
		}),
		folders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "catalog_folders",
			Help:      "Folders in the current catalog, excluding the root.",
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "catalog_generation",
			Help:      "Generation of the current catalog.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(m.reloads, m.artifacts, m.folders, m.generation, m.requests)

	for _, result := range []string{reloadOK, reloadError, reloadStale} {
		m.reloads.WithLabelValues(result)
	}
	return m, reg
}
