// Package metrics holds the Prometheus instruments shared across the
// pipeline. Collectors register with the global registry; the api server
// exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EntityWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entity_writes_total",
			Help: "Cumulative number of successful entity store writes.",
		}, []string{"kind"})

	ChangesPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "changes_published_total",
			Help: "Cumulative number of change notifications relayed from the outbox.",
		})

	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_total",
			Help: "Cumulative number of ingested change messages by outcome.",
		}, []string{"outcome"})

	SearchQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_queries_total",
			Help: "Cumulative number of public listing and lookup queries.",
		})
)

func init() {
	prometheus.MustRegister(
		EntityWritesTotal,
		ChangesPublishedTotal,
		IngestTotal,
		SearchQueriesTotal,
	)
}
