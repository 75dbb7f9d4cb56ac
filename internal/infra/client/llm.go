// Package client contains the outbound HTTP adapters: the Anthropic
// Messages client and the exchange-rate client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/observability"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("client")

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultAnthropicModel   = "claude-3-5-haiku-latest"
	anthropicVersion        = "2023-06-01"

	// StatusOverloaded is Anthropic's "overloaded_error" status code.
	StatusOverloaded = 529
)

// LLMConfig configures the Anthropic client.
type LLMConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	MaxTokens      int
	RatePerSecond  float64
	MaxRetries     int
	RetryStep      time.Duration
	MaxConcurrency int
}

func (c LLMConfig) withDefaults() LLMConfig {
	if c.Model == "" {
		c.Model = DefaultAnthropicModel
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultAnthropicBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 5
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryStep <= 0 {
		c.RetryStep = 2 * time.Second
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 4
	}
	return c
}

// LLMClient calls the Anthropic Messages API.
type LLMClient struct {
	httpClient *http.Client
	cfg        LLMConfig
	limiter    *rate.Limiter
	bulkhead   *resilience.Bulkhead
	cb         *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewLLMClient creates a new LLMClient. cfg.APIKey must be set; callers
// without a key should not construct a client at all.
func NewLLMClient(httpClient *http.Client, cfg LLMConfig, cb *gobreaker.CircuitBreaker, metrics *observability.Metrics, logger *zap.Logger) *LLMClient {
	cfg = cfg.withDefaults()
	return &LLMClient{
		httpClient: httpClient,
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cb:         cb,
		metrics:    metrics,
		logger:     logger,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// statusError carries the HTTP status of a failed call.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("anthropic returned status %d: %s", e.status, e.message)
}

func overloaded(err error) bool {
	var se *statusError
	return errors.As(err, &se) && (se.status == StatusOverloaded || se.status == http.StatusTooManyRequests)
}

// Complete sends prompt as a single user message and returns the text answer.
// Overload (529) and rate-limit (429) answers are retried with linear
// backoff; when retries run out the error is *domain.ErrUpstreamOverloaded.
func (c *LLMClient) Complete(ctx context.Context, prompt string) (*domain.Completion, error) {
	ctx, span := tracer.Start(ctx, "LLMClient.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.cfg.Model))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()

	req := anthropicRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: 0.2,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
	}

	var completion *domain.Completion
	attempts := 0

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryLinear(ctx, c.cfg.MaxRetries, c.cfg.RetryStep, overloaded, func() error {
			if attempts > 0 {
				c.metrics.IncrLLMRetry()
			}
			attempts++

			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}

			var err error
			completion, err = c.doRequest(ctx, req)
			if err != nil {
				c.logger.Warn("llm: request failed",
					zap.Int("attempt", attempts),
					zap.Error(err),
				)
			}
			return err
		})
	})
	span.SetAttributes(attribute.Int("llm.attempts", attempts))

	if err != nil {
		c.metrics.IncrLLMCall("error")
		c.metrics.IncrExternalError("anthropic")

		var se *statusError
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, &domain.ErrCircuitOpen{Service: "anthropic"}
		case errors.As(err, &se) && overloaded(err):
			return nil, &domain.ErrUpstreamOverloaded{Service: "anthropic", Status: se.status, Attempts: attempts}
		default:
			return nil, &domain.ErrExternalService{Service: "anthropic", Err: err}
		}
	}

	c.metrics.IncrLLMCall("success")
	c.metrics.RecordTokens(completion.PromptTokens, completion.CompletionTokens)
	return completion, nil
}

func (c *LLMClient) doRequest(ctx context.Context, req anthropicRequest) (*domain.Completion, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.cfg.APIKey)
	httpReq.Header.Set("Anthropic-Version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(data)
		var apiErr anthropicError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return nil, &statusError{status: resp.StatusCode, message: msg}
	}

	var out anthropicResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, errors.New("empty response from anthropic")
	}

	return &domain.Completion{
		Text:             text.String(),
		PromptTokens:     out.Usage.InputTokens,
		CompletionTokens: out.Usage.OutputTokens,
	}, nil
}
