package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the generation engine. Registered on the default registry and
// exposed by the /metrics endpoint.
var (
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "workout_cache_hits_total",
		Help: "Generation requests served from the blueprint cache.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "workout_cache_misses_total",
		Help: "Generation requests that ran the full selection pipeline.",
	})

	Generations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workout_generations_total",
		Help: "Completed generation attempts by terminal status.",
	}, []string{"status"})

	IdempotentReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "workout_idempotent_replays_total",
		Help: "Requests answered verbatim from a stored idempotency record.",
	})
)
