package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/config"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/handler"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/cache"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/client"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/memstore"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/observability"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/postgres"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/resilience"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/sessions"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/supabase"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/port"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app holds everything the commands wire together.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *observability.Metrics
	rates    *client.ExchangeClient
	store    port.Store
	storeTag string
	sessions port.SessionStore
	redis    *redis.Client

	quotes          *service.QuoteService
	salaries        *service.SalaryEstimator
	recommendations *service.RecommendationService
	tracking        *service.TrackingService
	users           *service.UserService

	closers []func()
}

// Close releases pools, clients and caches in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) dependencies() []handler.Dependency {
	deps := []handler.Dependency{{Name: a.storeTag, Pinger: a.store}}
	if a.redis != nil {
		deps = append(deps, handler.Dependency{Name: "redis", Pinger: redisPinger{a.redis}})
	}
	return deps
}

type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }

// buildApp wires clients, stores and services from configuration. With
// persist=false the quote service never saves quotes and the store is kept
// in memory.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, persist bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: observability.NewMetrics()}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- LLM ---
	var llm port.LLMClient
	if cfg.AnthropicAPIKey != "" {
		// Overload retries take seconds each; the shared timeout is too short.
		llmHTTP := &http.Client{Timeout: 4 * cfg.HTTPTimeout}
		llm = client.NewLLMClient(llmHTTP, client.LLMConfig{
			APIKey:         cfg.AnthropicAPIKey,
			Model:          cfg.AnthropicModel,
			BaseURL:        cfg.AnthropicBaseURL,
			RatePerSecond:  cfg.LLMRateLimit,
			MaxRetries:     cfg.MaxRetries,
			RetryStep:      cfg.LLMRetryBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		}, resilience.NewCircuitBreaker("anthropic"), a.metrics, logger)
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set: salaries use heuristics and recommendations are disabled")
	}

	// --- Exchange rates ---
	rateCache := cache.New[float64](cfg.CacheTTL)
	a.closers = append(a.closers, rateCache.Close)
	a.rates = client.NewExchangeClient(httpClient, client.ExchangeConfig{
		APIKey:       cfg.ExchangeRateAPIKey,
		PrimaryURL:   cfg.ExchangePrimaryURL,
		SecondaryURL: cfg.ExchangeSecondaryURL,
	}, rateCache,
		resilience.NewCircuitBreaker("exchange-primary"),
		resilience.NewCircuitBreaker("exchange-secondary"),
		a.metrics, logger)

	// --- Store ---
	switch {
	case persist && cfg.DatabaseURL != "":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		store := postgres.NewStore(pool)
		if err := store.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		a.store, a.storeTag = store, "postgres"
	case persist && cfg.UseSupabase():
		a.store = supabase.NewClient(httpClient, cfg.SupabaseURL, cfg.SupabaseAPIKey(), cfg.SupabaseKey(),
			resilience.NewCircuitBreaker("supabase"), resilienceCfg, logger)
		a.storeTag = "supabase"
	default:
		if persist {
			logger.Warn("no DATABASE_URL or SUPABASE_URL: tracking and users are kept in memory")
		}
		a.store, a.storeTag = memstore.New(), "memory"
	}
	logger.Info("data backend selected", zap.String("store", a.storeTag))

	// --- Sessions ---
	if persist && cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis url: %w", err)
		}
		a.redis = redis.NewClient(opts)
		a.closers = append(a.closers, func() { _ = a.redis.Close() })
		a.sessions = sessions.NewRedis(a.redis, cfg.TrackingSessionMaxAge)
	} else {
		a.sessions = sessions.NewMemory()
	}

	// --- Services ---
	var quoteStore port.QuoteStore
	if persist {
		quoteStore = a.store
	}
	a.salaries = service.NewSalaryEstimator(llm, a.metrics, logger)
	a.quotes = service.NewQuoteService(a.salaries, a.rates, quoteStore, a.metrics, logger)
	a.recommendations = service.NewRecommendationService(llm, logger)
	a.tracking = service.NewTrackingService(a.store, a.store, a.sessions, a.metrics, logger)
	a.users = service.NewUserService(a.store, a.store, logger)

	return a, nil
}
