package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/wangku-app/wangku-api/internal/domain"
)

// Metrics holds all Prometheus metrics for the WangKu API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	chatTurns       *prometheus.CounterVec
	chatActions     *prometheus.CounterVec
}

// Chat turn outcomes. One turn increments exactly one of these.
const (
	TurnReplied         = "replied"
	TurnEmpty           = "empty"
	TurnFailed          = "failed"
	TurnTransportFailed = "transport_failed"
	TurnNoCredential    = "no_credential"
)

// Action outcomes for the @@ACTION@@ side channel.
const (
	ActionApplied     = "applied"
	ActionInvalid     = "invalid"
	ActionApplyFailed = "apply_failed"
)

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wangku_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wangku_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wangku_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wangku_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		chatTurns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wangku_chat_turns_total",
				Help: "Chat turns by final outcome.",
			},
			[]string{"outcome"},
		),
		chatActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wangku_chat_actions_total",
				Help: "AI action instructions by type and outcome.",
			},
			[]string{"type", "outcome"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrChatTurn increments the chat turn counter for the given outcome.
func (m *Metrics) IncrChatTurn(outcome string) {
	m.chatTurns.WithLabelValues(outcome).Inc()
}

// IncrChatAction increments the action counter for an action type/outcome.
func (m *Metrics) IncrChatAction(actionType, outcome string) {
	m.chatActions.WithLabelValues(actionType, outcome).Inc()
}

// GetChatSnapshot returns a snapshot of chat metrics for GET /v1/metrics/chat.
func (m *Metrics) GetChatSnapshot() *domain.ChatMetrics {
	replied := getCounterValue(m.chatTurns, TurnReplied)
	empty := getCounterValue(m.chatTurns, TurnEmpty)
	failed := getCounterValue(m.chatTurns, TurnFailed)
	transport := getCounterValue(m.chatTurns, TurnTransportFailed)
	noCred := getCounterValue(m.chatTurns, TurnNoCredential)

	applied := getCounterValue(m.chatActions, "ADD_TRANSACTION", ActionApplied) +
		getCounterValue(m.chatActions, "ADD_WISHLIST", ActionApplied)
	invalid := getCounterValue(m.chatActions, "ADD_TRANSACTION", ActionInvalid) +
		getCounterValue(m.chatActions, "ADD_WISHLIST", ActionInvalid) +
		getCounterValue(m.chatActions, "unknown", ActionInvalid)
	applyFailed := getCounterValue(m.chatActions, "ADD_TRANSACTION", ActionApplyFailed) +
		getCounterValue(m.chatActions, "ADD_WISHLIST", ActionApplyFailed)

	total := replied + empty + failed + transport + noCred
	errorRate := float64(0)
	if total > 0 {
		errorRate = (failed + transport) / total
	}

	return &domain.ChatMetrics{
		TotalTurns:          int64(total),
		RepliedTurns:        int64(replied),
		EmptyTurns:          int64(empty),
		FailedTurns:         int64(failed + transport),
		MissingCredential:   int64(noCred),
		ErrorRate:           errorRate,
		ActionsApplied:      int64(applied),
		ActionsInvalid:      int64(invalid),
		ActionsApplyFailed:  int64(applyFailed),
		SettingsCacheHits:   int64(getCounterValue(m.cacheHits, "settings")),
		SettingsCacheMisses: int64(getCounterValue(m.cacheMisses, "settings")),
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
