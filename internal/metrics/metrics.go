// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SpectraComputed counts finished spectrum computations by generator kind.
	SpectraComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isospec_spectra_computed_total",
		Help: "Finished spectrum computations by generator kind.",
	}, []string{"kind"})

	// SpectraFailed counts rejected or failed computations.
	SpectraFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isospec_spectra_failed_total",
		Help: "Spectrum computations that errored, by generator kind.",
	}, []string{"kind"})

	// PeakCount observes the fine-structure sizes served.
	PeakCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "isospec_spectrum_peaks",
		Help:    "Peaks per computed spectrum.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 12),
	})

	// RateLimited counts requests rejected by the per-IP limiter, by scope.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isospec_ratelimited_total",
		Help: "Requests rejected by the per-IP rate limiter, by scope.",
	}, []string{"scope"})

	// ComputeSeconds observes end-to-end generator latency.
	ComputeSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "isospec_compute_seconds",
		Help:    "Spectrum computation wall time in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
	})
)

// Handler adapts the Prometheus scrape handler for the Gin router.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
