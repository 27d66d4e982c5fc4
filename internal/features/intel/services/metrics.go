package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ctifeed",
		Subsystem: "ingest",
		Name:      "entries_total",
		Help:      "Processed feed entries by terminal outcome.",
	}, []string{"outcome"})

	ingestSourceErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ctifeed",
		Subsystem: "ingest",
		Name:      "source_errors_total",
		Help:      "Sources whose fetch or parse failed during a scan.",
	})

	searchQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ctifeed",
		Subsystem: "query",
		Name:      "searches_total",
		Help:      "Article searches by execution mode (fts or like).",
	}, []string{"mode"})
)
