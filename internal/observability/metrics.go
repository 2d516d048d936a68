package observability

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

const namespace = "wellness"

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	submissions   *prometheus.CounterVec
	smoothedScore prometheus.Histogram
	authEvents    *prometheus.CounterVec

	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process metrics, or nil when Init has not enabled them.
func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once. It returns nil when disabled; all
// Metrics methods are no-ops on a nil receiver.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
	})
	return instance
}

// NewMetrics builds a Metrics on its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency in seconds by method/route.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "inflight_requests",
			Help:      "In-flight API requests.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkin",
			Name:      "submissions_total",
			Help:      "Check-in submissions by outcome and band.",
		}, []string{"outcome", "band"}),
		smoothedScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "checkin",
			Name:      "smoothed_score",
			Help:      "Smoothed score of stored check-ins.",
			Buckets:   prometheus.LinearBuckets(10, 10, 9),
		}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Authentication events by kind and result.",
		}, []string{"event", "result"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "up",
			Help:      "1 when the last Redis ping succeeded.",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "ping_seconds",
			Help:      "Latency of the last successful Redis ping.",
		}),
	}
	m.registry.MustRegister(
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.submissions,
		m.smoothedScore,
		m.authEvents,
		m.redisUp,
		m.redisPing,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveSubmission records one check-in attempt.
func (m *Metrics) ObserveSubmission(outcome, band string, smoothed float64) {
	if m == nil {
		return
	}
	if band == "" {
		band = "none"
	}
	m.submissions.WithLabelValues(outcome, band).Inc()
	if outcome == "created" {
		m.smoothedScore.Observe(smoothed)
	}
}

func (m *Metrics) IncAuthEvent(event, result string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(event, result).Inc()
}

// RegisterDB exposes database/sql pool statistics for db.
func (m *Metrics) RegisterDB(log *logger.Logger, db *gorm.DB, name string) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: db stats unavailable", "error", err)
		}
		return
	}
	if err := m.registry.Register(collectors.NewDBStatsCollector(sqlDB, name)); err != nil && log != nil {
		log.Warn("metrics: db stats collector not registered", "error", err)
	}
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// StartRedisCollector pings Redis every interval until ctx is done.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, p Pinger, interval time.Duration) {
	if m == nil || p == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.pingRedis(ctx, log, p)
			}
		}
	}()
}

func (m *Metrics) pingRedis(ctx context.Context, log *logger.Logger, p Pinger) {
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		m.redisUp.Set(0)
		if log != nil {
			log.Warn("metrics: redis ping failed", "error", err)
		}
		return
	}
	m.redisUp.Set(1)
	m.redisPing.Set(time.Since(start).Seconds())
}
