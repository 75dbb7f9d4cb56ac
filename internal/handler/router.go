package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/observability"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency is a named backend checked by /healthz.
type Dependency struct {
	Name   string
	Pinger Pinger
}

// Services are the application services the router exposes. A nil service
// leaves its routes unregistered.
type Services struct {
	Quotes          *service.QuoteService
	Salaries        *service.SalaryEstimator
	Recommendations *service.RecommendationService
	Tracking        *service.TrackingService
	Users           *service.UserService
	Dependencies    []Dependency
}

// Options tune the HTTP surface.
type Options struct {
	JWTSecret          string
	CORSAllowedOrigins []string
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, opts Options, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	auth := NewAuthenticator(opts.JWTSecret, logger)

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(corsOptions(opts.CORSAllowedOrigins)))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Dependencies, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- Marketing-site API ---
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(90 * time.Second))
		r.Use(auth.OptionalAuth)

		if svcs.Quotes != nil {
			r.Post("/generate-quote", generateQuoteHandler(svcs.Quotes, logger))
		}
		if svcs.Salaries != nil {
			r.Post("/estimate-salaries", estimateSalariesHandler(svcs.Salaries, logger))
		}
		if svcs.Recommendations != nil {
			r.Post("/ai-candidate-recommendations", recommendationsHandler(svcs.Recommendations, logger))
		}
	})

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/quotes", quoteMetricsHandler(metrics))
		r.Post("/identity/device", deviceIdentityHandler(logger))

		if svcs.Tracking != nil {
			r.Route("/tracking", func(r chi.Router) {
				r.Use(auth.OptionalAuth)
				r.Post("/start", trackStartHandler(svcs.Tracking, logger))
				r.Post("/end", trackEndHandler(svcs.Tracking, logger))
				r.Post("/page-view", trackPageViewHandler(svcs.Tracking, logger))
				r.Post("/interaction", trackInteractionHandler(svcs.Tracking, logger))
				r.Get("/users/{userId}/most-viewed", mostViewedHandler(svcs.Tracking, svcs.Users, logger))
				r.Get("/users/{userId}/views", listViewsHandler(svcs.Tracking, svcs.Users, logger))
			})
		}

		if svcs.Users != nil {
			r.Route("/users", func(r chi.Router) {
				r.Use(auth.RequireAuth)
				r.Post("/promote", promoteUserHandler(svcs.Users, logger))
				r.Get("/{userId}", getUserHandler(svcs.Users, logger))
				r.Patch("/{userId}/type", setUserTypeHandler(svcs.Users, logger))
			})
		}
	})

	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}
