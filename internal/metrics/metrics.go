package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airadash_store_queries_total",
			Help: "Total queries executed against the backing store",
		},
		[]string{"table", "status"},
	)

	StoreQueryLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airadash_store_query_latency_seconds",
			Help:    "Store query latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table"},
	)

	QueryCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airadash_query_cache_hits_total",
			Help: "Query cache hits",
		},
	)

	QueryCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airadash_query_cache_misses_total",
			Help: "Query cache misses",
		},
	)

	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airadash_analyses_total",
			Help: "Analyses run, by kind and result status",
		},
		[]string{"analysis", "status"},
	)
)
