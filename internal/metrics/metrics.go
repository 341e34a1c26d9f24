package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"trivia-events-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service. It implements app.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	NodeCompletions  *prometheus.CounterVec
	RewardsGranted   *prometheus.CounterVec
	VotesSubmitted   *prometheus.CounterVec
}

// New registers every collector on a fresh registry so tests can build several instances.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RequestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Subsystem: "weekly_events",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trivia",
			Subsystem: "weekly_events",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trivia",
			Subsystem: "weekly_events",
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		}),
		NodeCompletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Subsystem: "weekly_events",
			Name:      "node_completions_total",
			Help:      "Node complete calls by node type and whether it was the first completion",
		}, []string{"type", "first"}),
		RewardsGranted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Subsystem: "weekly_events",
			Name:      "rewards_granted_total",
			Help:      "Currency credited to users by grant type",
		}, []string{"grant_type", "currency"}),
		VotesSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Subsystem: "weekly_events",
			Name:      "votes_submitted_total",
			Help:      "Votes stored per node",
		}, []string{"node"}),
	}
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.RequestCounter, m.RequestDuration, m.RequestsInFlight,
		m.NodeCompletions, m.RewardsGranted, m.VotesSubmitted,
	)
	return m
}

func (m *Metrics) NodeCompleted(nodeType domain.NodeType, first bool) {
	m.NodeCompletions.WithLabelValues(string(nodeType), strconv.FormatBool(first)).Inc()
}

func (m *Metrics) RewardGranted(grant domain.RewardGrant) {
	if grant.Reward.Trophies > 0 {
		m.RewardsGranted.WithLabelValues(string(grant.Type), "stars").Add(float64(grant.Reward.Trophies))
	}
	if grant.Reward.Gems > 0 {
		m.RewardsGranted.WithLabelValues(string(grant.Type), "gems").Add(float64(grant.Reward.Gems))
	}
}

func (m *Metrics) VoteSubmitted(_ string, nodeIndex int) {
	m.VotesSubmitted.WithLabelValues(strconv.Itoa(nodeIndex)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency under route, a low-cardinality label.
func (m *Metrics) Middleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer (websocket hijack).
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
