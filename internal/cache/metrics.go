package cache

import "github.com/prometheus/client_golang/prometheus"

type cacheMetrics struct {
	hits          *prometheus.CounterVec
	misses        prometheus.Counter
	computes      *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	persisted     *prometheus.CounterVec
	reaped        prometheus.Counter
}

func newCacheMetrics(reg prometheus.Registerer) *cacheMetrics {
	m := &cacheMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubg_stats_cache_hits_total",
			Help: "Stats cache hits by tier",
		}, []string{"tier"}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pubg_stats_cache_misses_total",
			Help: "Stats lookups that missed both tiers",
		}),
		computes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubg_stats_cache_computes_total",
			Help: "Stats computations by outcome",
		}, []string{"outcome"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubg_stats_cache_invalidations_total",
			Help: "Stats cache invalidations by scope",
		}, []string{"scope"}),
		persisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubg_stats_cache_persist_total",
			Help: "Background stats writes by outcome",
		}, []string{"outcome"}),
		reaped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pubg_stats_cache_reaped_total",
			Help: "Expired stats rows removed from the persistent tier",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.hits, m.misses, m.computes, m.invalidations, m.persisted, m.reaped)
	}
	return m
}
