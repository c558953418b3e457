package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pareview",
		Subsystem: "service",
		Name:      "requests_total",
		Help:      "Facade calls by operation and outcome (ok or failure kind).",
	}, []string{"operation", "outcome"})

	injectedLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pareview",
		Subsystem: "service",
		Name:      "injected_latency_seconds",
		Help:      "Artificial delay applied before each call proceeds.",
		Buckets:   prometheus.DefBuckets,
	})

	injectedFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pareview",
		Subsystem: "service",
		Name:      "injected_failures_total",
		Help:      "Calls failed on purpose by the fault injector.",
	})
)

func observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		if k, ok := KindOf(err); ok {
			outcome = string(k)
		} else {
			outcome = "canceled"
		}
	}
	requestsTotal.WithLabelValues(operation, outcome).Inc()
}
