package observability

import (
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	tokensUsed      *prometheus.CounterVec
	llmCalls        *prometheus.CounterVec
	llmRetries      prometheus.Counter
	quotesTotal     *prometheus.CounterVec
	salarySources   *prometheus.CounterVec
	rateSources     *prometheus.CounterVec
	trackingEvents  *prometheus.CounterVec
	trackingErrors  *prometheus.CounterVec
	sessionsSwept   prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry lets tests call NewMetrics
// repeatedly.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bfa_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_llm_tokens_total",
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
		llmCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_llm_calls_total",
				Help: "LLM calls by outcome.",
			},
			[]string{"status"},
		),
		llmRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bfa_llm_retries_total",
				Help: "LLM calls retried after an overload answer.",
			},
		),
		quotesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_quotes_total",
				Help: "Quotes generated by outcome.",
			},
			[]string{"status"},
		),
		salarySources: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_salary_estimates_total",
				Help: "Salary estimates by source (provided, llm, heuristic).",
			},
			[]string{"source"},
		),
		rateSources: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_exchange_rates_total",
				Help: "Exchange rates served by source.",
			},
			[]string{"source"},
		),
		trackingEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_tracking_events_total",
				Help: "Tracking events accepted by operation.",
			},
			[]string{"operation"},
		),
		trackingErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_tracking_errors_total",
				Help: "Tracking persistence failures swallowed by operation.",
			},
			[]string{"operation"},
		),
		sessionsSwept: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bfa_tracking_sessions_swept_total",
				Help: "Stale tracking sessions dropped by the sweeper.",
			},
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

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrLLMCall counts one LLM call with its final status.
func (m *Metrics) IncrLLMCall(status string) {
	m.llmCalls.WithLabelValues(status).Inc()
}

// IncrLLMRetry counts one overload retry.
func (m *Metrics) IncrLLMRetry() {
	m.llmRetries.Inc()
}

// IncrQuote increments the quote counter with a status label.
func (m *Metrics) IncrQuote(status string) {
	m.quotesTotal.WithLabelValues(status).Inc()
}

// IncrSalarySource counts where a salary estimate came from.
func (m *Metrics) IncrSalarySource(source string) {
	m.salarySources.WithLabelValues(source).Inc()
}

// IncrRateSource counts where an exchange rate came from.
func (m *Metrics) IncrRateSource(source string) {
	m.rateSources.WithLabelValues(source).Inc()
}

// IncrTrackingEvent counts an accepted tracking call.
func (m *Metrics) IncrTrackingEvent(operation string) {
	m.trackingEvents.WithLabelValues(operation).Inc()
}

// IncrTrackingError counts a swallowed tracking failure.
func (m *Metrics) IncrTrackingError(operation string) {
	m.trackingErrors.WithLabelValues(operation).Inc()
}

// AddSessionsSwept records sessions dropped by the sweeper.
func (m *Metrics) AddSessionsSwept(n int) {
	m.sessionsSwept.Add(float64(n))
}

// Claude Haiku list prices per million tokens.
const (
	promptUsdPerMTok     = 0.80
	completionUsdPerMTok = 4.00
)

// GetQuoteSnapshot returns a snapshot of quote-related metrics suitable for
// the GET /v1/metrics/quotes endpoint.
func (m *Metrics) GetQuoteSnapshot() *domain.QuoteMetrics {
	success := getCounterValue(m.quotesTotal, "success")
	failed := getCounterValue(m.quotesTotal, "error")
	total := success + failed

	fromLLM := getCounterValue(m.salarySources, string(domain.SalarySourceLLM))
	heuristic := getCounterValue(m.salarySources, string(domain.SalarySourceHeuristic))
	estimated := fromLLM + heuristic

	var rates, static float64
	for _, src := range []string{"identity", "cache", "primary", "secondary", "static"} {
		v := getCounterValue(m.rateSources, src)
		rates += v
		if src == "static" {
			static = v
		}
	}

	var trackingErrors float64
	for _, op := range []string{"start", "end", "page_view", "interaction", "ensure_user"} {
		trackingErrors += getCounterValue(m.trackingErrors, op)
	}

	promptTokens := getCounterValue(m.tokensUsed, "prompt")
	completionTokens := getCounterValue(m.tokensUsed, "completion")
	calls := getCounterValue(m.llmCalls, "success")

	cost := (promptTokens/1e6)*promptUsdPerMTok + (completionTokens/1e6)*completionUsdPerMTok

	snap := &domain.QuoteMetrics{
		TotalQuotes:         int64(total),
		TrackingErrors:      int64(trackingErrors),
		EstimatedLLMCostUsd: cost,
		Period:              "all_time",
	}
	if total > 0 {
		snap.QuoteErrorRate = failed / total
	}
	if estimated > 0 {
		snap.SalaryFallbackRate = heuristic / estimated
	}
	if rates > 0 {
		snap.StaticRateRate = static / rates
	}
	if calls > 0 {
		snap.AvgTokensPerLLMCall = (promptTokens + completionTokens) / calls
	}
	return snap
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
