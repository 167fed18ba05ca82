// Package metricx collects and exposes Prometheus metrics for the auth core.
package metricx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records auth-specific counters plus generic HTTP metrics. All
// underlying Prometheus types are safe for concurrent use.
type Collector struct {
	loginOutcomes   *prometheus.CounterVec
	authnRejections *prometheus.CounterVec
	inviteConsumed  prometheus.Counter
	inviteIssued    prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_login_total",
			Help: "Login attempts by outcome (success, failure).",
		}, []string{"outcome"}),
		authnRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_authn_rejections_total",
			Help: "Authentication middleware rejections by reason.",
		}, []string{"reason"}),
		inviteConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_invite_consumed_total",
			Help: "Invite codes successfully consumed at signup.",
		}),
		inviteIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_invite_issued_total",
			Help: "Invite codes issued.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gatekeeper_request_duration_seconds",
			Help:    "HTTP request duration by method and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}

	reg.MustRegister(
		c.loginOutcomes,
		c.authnRejections,
		c.inviteConsumed,
		c.inviteIssued,
		c.requestDuration,
	)

	return c
}

// RecordLogin counts a login attempt by outcome.
func (c *Collector) RecordLogin(outcome string) {
	c.loginOutcomes.WithLabelValues(outcome).Inc()
}

// RecordAuthnRejection counts a middleware rejection by reason code.
func (c *Collector) RecordAuthnRejection(reason string) {
	c.authnRejections.WithLabelValues(reason).Inc()
}

// RecordInviteIssued counts an issued invite code.
func (c *Collector) RecordInviteIssued() { c.inviteIssued.Inc() }

// RecordInviteConsumed counts a consumed invite code.
func (c *Collector) RecordInviteConsumed() { c.inviteConsumed.Inc() }

// HTTPMiddleware observes request durations.
func (c *Collector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		c.requestDuration.
			WithLabelValues(r.Method, strconv.Itoa(rw.status)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus scrape handler for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter

	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
