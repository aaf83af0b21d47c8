package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultEmpty = "empty"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barebones_auth_requests_total",
		Help: "The total number of Mojang lookups per operation and result",
	}, []string{"operation", "result"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "barebones_auth_request_duration_seconds",
		Help:    "Time spent resolving a Mojang lookup",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	requestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "barebones_auth_requests_in_flight",
		Help: "The number of Mojang lookups currently holding a worker",
	})
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barebones_auth_cache_lookups_total",
		Help: "The total number of cache lookups per kind and outcome",
	}, []string{"kind", "outcome"})
)

func observeRequest(op string, ok bool, d time.Duration) {
	result := resultEmpty
	if ok {
		result = resultOK
	}
	requestsTotal.With(prometheus.Labels{"operation": op, "result": result}).Inc()
	requestDuration.With(prometheus.Labels{"operation": op}).Observe(d.Seconds())
}

func observeCache(kind string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheLookups.With(prometheus.Labels{"kind": kind, "outcome": outcome}).Inc()
}
