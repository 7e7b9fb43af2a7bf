// Package metrics disponibiliza métricas Prometheus do serviço de contato.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "contact"

// Collector agrupa as métricas registradas em um registry próprio.
type Collector struct {
	registry *prometheus.Registry

	RateLimitDecisions *prometheus.CounterVec
	ContactSubmissions *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

func New() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		RateLimitDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_decisions_total",
				Help:      "Rate limit decisions by outcome",
			},
			[]string{"decision"},
		),
		ContactSubmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Contact form submissions by outcome",
			},
			[]string{"outcome"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route", "status"},
		),
	}
}

// RecordDecision aceita receptor nil para rodar sem métricas.
func (c *Collector) RecordDecision(allowed bool) {
	if c == nil {
		return
	}
	decision := "rejected"
	if allowed {
		decision = "allowed"
	}
	c.RateLimitDecisions.WithLabelValues(decision).Inc()
}

func (c *Collector) RecordSubmission(outcome string) {
	if c == nil {
		return
	}
	c.ContactSubmissions.WithLabelValues(outcome).Inc()
}

// Middleware observa a duração de cada requisição pelo padrão de rota do chi.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
