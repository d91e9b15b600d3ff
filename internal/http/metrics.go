package httpapp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics owns a registry per server so several servers can coexist in one
// process.
type metrics struct {
	reg             *prometheus.Registry
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	commentsCreated prometheus.Counter
	commentsDeleted prometheus.Counter
	likeUpdates     prometheus.Counter
	rateLimited     *prometheus.CounterVec
}

func newMetrics() (*metrics, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}

	f := promauto.With(reg)
	return &metrics{
		reg: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discuss",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "discuss",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		commentsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "discuss",
			Name:      "comments_created_total",
			Help:      "Comments created.",
		}),
		commentsDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "discuss",
			Name:      "comments_deleted_total",
			Help:      "Comments deleted.",
		}),
		likeUpdates: f.NewCounter(prometheus.CounterOpts{
			Namespace: "discuss",
			Name:      "like_updates_total",
			Help:      "Accepted like count updates.",
		}),
		rateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discuss",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"action"}),
	}, nil
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Instrument records request counts and latency keyed by the matched chi
// route pattern, so IDs do not explode label cardinality.
func (m *metrics) Instrument() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.requests.WithLabelValues(r.Method, route, strconv.Itoa(sw.Status())).Inc()
			m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
