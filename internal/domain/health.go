package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// QuoteMetrics is returned by GET /v1/metrics/quotes.
type QuoteMetrics struct {
	TotalQuotes         int64   `json:"totalQuotes"`
	QuoteErrorRate      float64 `json:"quoteErrorRate"`
	SalaryFallbackRate  float64 `json:"salaryFallbackRate"`
	StaticRateRate      float64 `json:"staticRateRate"`
	TrackingErrors      int64   `json:"trackingErrors"`
	AvgTokensPerLLMCall float64 `json:"avgTokensPerLlmCall"`
	EstimatedLLMCostUsd float64 `json:"estimatedLlmCostUsd"`
	Period              string  `json:"period"`
}
