// Package telemetry exposes the query engine's counters as Prometheus metrics.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Outcome label values for RequestsTotal
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the Prometheus collectors for greeting requests
type Metrics struct {
	Submissions     prometheus.Counter
	CacheHits       prometheus.Counter
	RequestsTotal   *prometheus.CounterVec
	StaleResponses  prometheus.Counter
	InFlight        prometheus.Gauge
	RequestDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Submissions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "greetr",
			Name:      "submissions_total",
			Help:      "Total number of submitted query keys",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "greetr",
			Name:      "cache_hits_total",
			Help:      "Submissions served from the key cache without a request",
		}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "greetr",
			Name:      "requests_total",
			Help:      "Completed greeting requests by outcome",
		}, []string{"outcome"}),
		StaleResponses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "greetr",
			Name:      "stale_responses_total",
			Help:      "Responses that arrived after their key stopped being active",
		}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "greetr",
			Name:      "requests_in_flight",
			Help:      "Greeting requests currently pending",
		}),
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "greetr",
			Name:      "request_duration_seconds",
			Help:      "Greeting request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Router mounts the metrics handler at GET /metrics.
func Router(g prometheus.Gatherer) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", Handler(g))
	return r
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Router(g),
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
