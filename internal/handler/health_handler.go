package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/observability"

	"go.uber.org/zap"
)

// ============================================================
// Probes & metrics
// ============================================================

func healthzHandler(deps []Dependency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "bfa-api", Status: "healthy", LastChecked: now},
		}

		for _, dep := range deps {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			start := time.Now()
			err := dep.Pinger.Ping(ctx)
			cancel()

			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("healthz: dependency check failed", zap.String("dependency", dep.Name), zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name:        dep.Name,
				Status:      status,
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func quoteMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetQuoteSnapshot())
	}
}
