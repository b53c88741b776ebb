package fuel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelbot_cache_lookups_total",
			Help: "Cache lookups by result",
		},
		[]string{"result"},
	)

	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelbot_upstream_requests_total",
			Help: "Tankerkoenig API calls by call and outcome",
		},
		[]string{"call", "outcome"},
	)
)

func observeUpstream(call string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	upstreamRequestsTotal.WithLabelValues(call, outcome).Inc()
}
