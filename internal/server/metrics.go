package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	trackLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracklayout_loads_total",
		Help: "Track loads by result",
	}, []string{"result"})

	trackLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracklayout_load_duration_seconds",
		Help:    "Time to parse, validate and place a track",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracklayout_cache_lookups_total",
		Help: "Track cache lookups by outcome",
	}, []string{"outcome"})

	queries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracklayout_queries_total",
		Help: "API requests by endpoint and status code",
	}, []string{"endpoint", "code"})
)
