// Package metrics defines the prometheus collectors exported by the
// simulated inference backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups every metric the backend records.
type Collectors struct {
	RequestDuration *prometheus.HistogramVec
	Requests        *prometheus.CounterVec
	Predictions     *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
	RateLimited     prometheus.Counter
}

// New creates the collectors without registering them.
func New() *Collectors {
	return &Collectors{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "osteocare_http_request_duration_seconds",
			Help:    "Latency of prediction backend HTTP handlers",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),

		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osteocare_http_requests_total",
			Help: "Total HTTP requests by route and status code",
		}, []string{"route", "method", "status"}),

		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osteocare_predictions_total",
			Help: "Predictions served by modality and diagnosis label",
		}, []string{"modality", "label"}),

		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osteocare_estimate_cache_lookups_total",
			Help: "File estimate cache lookups by result",
		}, []string{"result"}),

		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "osteocare_rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

// Register adds every collector to reg.
func (c *Collectors) Register(reg prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{
		c.RequestDuration,
		c.Requests,
		c.Predictions,
		c.CacheLookups,
		c.RateLimited,
	} {
		if err := reg.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// ObservePrediction counts one served prediction.
func (c *Collectors) ObservePrediction(modality, label string) {
	if c == nil {
		return
	}
	c.Predictions.WithLabelValues(modality, label).Inc()
}

// ObserveCache counts one cache lookup.
func (c *Collectors) ObserveCache(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}
