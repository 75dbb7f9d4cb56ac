package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/observability"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/port"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/pricing"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	DefaultExchangePrimaryURL   = "https://v6.exchangerate-api.com/v6"
	DefaultExchangeSecondaryURL = "https://open.er-api.com/v6"
)

// Rate sources, in lookup order.
const (
	RateSourceIdentity  = "identity"
	RateSourceCache     = "cache"
	RateSourcePrimary   = "primary"
	RateSourceSecondary = "secondary"
	RateSourceStatic    = "static"
)

// ExchangeConfig configures the exchange-rate providers. An empty APIKey
// skips the primary provider.
type ExchangeConfig struct {
	APIKey       string
	PrimaryURL   string
	SecondaryURL string
}

// ExchangeClient resolves currency conversion rates through a chain of
// providers: cache, paid API, free API, static table.
type ExchangeClient struct {
	httpClient  *http.Client
	cfg         ExchangeConfig
	cache       port.Cache[float64]
	primaryCB   *gobreaker.CircuitBreaker
	secondaryCB *gobreaker.CircuitBreaker
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewExchangeClient creates a new ExchangeClient.
func NewExchangeClient(
	httpClient *http.Client,
	cfg ExchangeConfig,
	rates port.Cache[float64],
	primaryCB, secondaryCB *gobreaker.CircuitBreaker,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ExchangeClient {
	if cfg.PrimaryURL == "" {
		cfg.PrimaryURL = DefaultExchangePrimaryURL
	}
	if cfg.SecondaryURL == "" {
		cfg.SecondaryURL = DefaultExchangeSecondaryURL
	}
	cfg.PrimaryURL = strings.TrimRight(cfg.PrimaryURL, "/")
	cfg.SecondaryURL = strings.TrimRight(cfg.SecondaryURL, "/")

	return &ExchangeClient{
		httpClient:  httpClient,
		cfg:         cfg,
		cache:       rates,
		primaryCB:   primaryCB,
		secondaryCB: secondaryCB,
		metrics:     metrics,
		logger:      logger,
	}
}

func cacheKey(from, to string) string { return from + ":" + to }

// Rate returns the from→to conversion rate. It only fails for unsupported
// currencies; provider outages fall through to the static table.
func (c *ExchangeClient) Rate(ctx context.Context, from, to string) (domain.ExchangeRate, error) {
	ctx, span := tracer.Start(ctx, "ExchangeClient.Rate")
	defer span.End()

	from, to = pricing.NormalizeCurrency(from), pricing.NormalizeCurrency(to)
	span.SetAttributes(attribute.String("rate.from", from), attribute.String("rate.to", to))

	if err := validatePair(from, to); err != nil {
		return domain.ExchangeRate{}, err
	}

	result := func(v float64, source string) (domain.ExchangeRate, error) {
		c.metrics.IncrRateSource(source)
		span.SetAttributes(attribute.String("rate.source", source))
		return domain.ExchangeRate{From: from, To: to, Value: v, Source: source}, nil
	}

	if from == to {
		return result(1, RateSourceIdentity)
	}

	if v, ok := c.cache.Get(cacheKey(from, to)); ok {
		c.metrics.IncrCacheHit("exchange_rate")
		return result(v, RateSourceCache)
	}
	c.metrics.IncrCacheMiss("exchange_rate")

	v, source := c.fetch(ctx, from, to)
	if source != RateSourceStatic {
		c.cache.Set(cacheKey(from, to), v)
	}
	return result(v, source)
}

// Refresh re-fetches PHP→X for every supported currency, bypassing the
// cache. Returns how many pairs were refreshed from a live provider.
func (c *ExchangeClient) Refresh(ctx context.Context) int {
	refreshed := 0
	for _, code := range pricing.Currencies() {
		if code == pricing.BaseCurrency {
			continue
		}
		v, source := c.fetch(ctx, pricing.BaseCurrency, code)
		if source == RateSourceStatic {
			continue
		}
		c.cache.Set(cacheKey(pricing.BaseCurrency, code), v)
		refreshed++
	}
	return refreshed
}

// fetch walks the live providers and falls back to the static table.
func (c *ExchangeClient) fetch(ctx context.Context, from, to string) (float64, string) {
	if c.cfg.APIKey != "" {
		v, err := c.fromProvider(ctx, c.primaryCB, "exchange_primary", func() (float64, error) {
			return c.fetchPrimary(ctx, from, to)
		})
		if err == nil {
			return v, RateSourcePrimary
		}
		c.logger.Warn("exchange: primary provider failed",
			zap.String("pair", cacheKey(from, to)),
			zap.Error(err),
		)
	}

	v, err := c.fromProvider(ctx, c.secondaryCB, "exchange_secondary", func() (float64, error) {
		return c.fetchSecondary(ctx, from, to)
	})
	if err == nil {
		return v, RateSourceSecondary
	}
	c.logger.Warn("exchange: secondary provider failed, using static rate",
		zap.String("pair", cacheKey(from, to)),
		zap.Error(err),
	)

	return staticRate(from, to), RateSourceStatic
}

func (c *ExchangeClient) fromProvider(ctx context.Context, cb *gobreaker.CircuitBreaker, service string, fn func() (float64, error)) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	out, err := cb.Execute(func() (any, error) {
		v, err := fn()
		if err != nil {
			return nil, err
		}
		if v <= 0 {
			return nil, fmt.Errorf("non-positive rate %v", v)
		}
		return v, nil
	})
	if err != nil {
		c.metrics.IncrExternalError(service)
		return 0, &domain.ErrExternalService{Service: service, Err: err}
	}
	return out.(float64), nil
}

type primaryResponse struct {
	Result         string  `json:"result"`
	ErrorType      string  `json:"error-type"`
	ConversionRate float64 `json:"conversion_rate"`
}

func (c *ExchangeClient) fetchPrimary(ctx context.Context, from, to string) (float64, error) {
	url := fmt.Sprintf("%s/%s/pair/%s/%s", c.cfg.PrimaryURL, c.cfg.APIKey, from, to)
	var out primaryResponse
	if err := c.getJSON(ctx, url, &out); err != nil {
		return 0, err
	}
	if out.Result != "success" {
		return 0, fmt.Errorf("primary result %q: %s", out.Result, out.ErrorType)
	}
	return out.ConversionRate, nil
}

type secondaryResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

func (c *ExchangeClient) fetchSecondary(ctx context.Context, from, to string) (float64, error) {
	url := fmt.Sprintf("%s/latest/%s", c.cfg.SecondaryURL, from)
	var out secondaryResponse
	if err := c.getJSON(ctx, url, &out); err != nil {
		return 0, err
	}
	if out.Result != "success" {
		return 0, fmt.Errorf("secondary result %q", out.Result)
	}
	v, ok := out.Rates[to]
	if !ok {
		return 0, fmt.Errorf("secondary has no rate for %s", to)
	}
	return v, nil
}

func (c *ExchangeClient) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func validatePair(from, to string) error {
	if !pricing.Supported(from) {
		return &domain.ErrValidation{Field: "currency", Message: fmt.Sprintf("unsupported currency %q", from)}
	}
	if !pricing.Supported(to) {
		return &domain.ErrValidation{Field: "currency", Message: fmt.Sprintf("unsupported currency %q", to)}
	}
	return nil
}

// staticRate derives from→to from the PHP-based table. Both codes are
// already validated.
func staticRate(from, to string) float64 {
	toRate, err1 := pricing.StaticRate(to)
	fromRate, err2 := pricing.StaticRate(from)
	if err := errors.Join(err1, err2); err != nil || fromRate == 0 {
		return 0
	}
	return toRate / fromRate
}
