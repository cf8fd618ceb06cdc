package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Domenick1991/barberbooking/internal/domain"
)

// Metrics holds the scheduling collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	searches        *prometheus.CounterVec
	previews        prometheus.Counter
	commits         *prometheus.CounterVec
	conflicts       *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduling_earliest_slot_searches_total",
			Help: "Earliest slot searches by outcome",
		}, []string{"outcome"}),
		previews: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduling_reschedule_previews_total",
			Help: "Reschedule previews computed",
		}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduling_reschedule_commits_total",
			Help: "Reschedule commits by result",
		}, []string{"result"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduling_conflicts_total",
			Help: "Conflicts reported by reason",
		}, []string{"reason"}),
	}

	registry.MustRegister(m.requestDuration, m.searches, m.previews, m.commits, m.conflicts)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

func (m *Metrics) Handler() http.Handler {
	return m.handler
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ObserveSearch(outcome domain.SearchOutcome) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) ObservePreview(conflicts []domain.Conflict) {
	if m == nil {
		return
	}
	m.previews.Inc()
	m.observeConflicts(conflicts)
}

// ObserveCommit records a commit attempt. result is committed, rejected or failed.
func (m *Metrics) ObserveCommit(result string, conflicts []domain.Conflict) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(result).Inc()
	m.observeConflicts(conflicts)
}

func (m *Metrics) observeConflicts(conflicts []domain.Conflict) {
	for _, c := range conflicts {
		m.conflicts.WithLabelValues(string(c.Reason)).Inc()
	}
}
