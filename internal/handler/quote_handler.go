package handler

import (
	"net/http"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Quotes, salaries & candidates
// ============================================================

func generateQuoteHandler(svc *service.QuoteService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/generate-quote")
		defer span.End()

		var req domain.QuoteRequest
		if !decodeBody(w, r, &req) {
			return
		}
		req.UserID = subjectOr(ctx, req.UserID)
		span.SetAttributes(attribute.Int("quote.roles", len(req.Roles)))

		quote, err := svc.Generate(ctx, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, quote)
	}
}

func estimateSalariesHandler(svc *service.SalaryEstimator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/estimate-salaries")
		defer span.End()

		var req domain.SalaryEstimateRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if len(req.Roles) == 0 {
			writeError(w, http.StatusBadRequest, "at least one role is required")
			return
		}
		for i := range req.Roles {
			if req.Roles[i].Title == "" {
				writeError(w, http.StatusBadRequest, "every role needs a title")
				return
			}
			if req.Roles[i].Industry == "" {
				req.Roles[i].Industry = req.Industry
			}
		}
		span.SetAttributes(attribute.Int("salary.roles", len(req.Roles)))

		writeJSON(w, http.StatusOK, domain.SalaryEstimateResponse{
			RolesSalaryData: svc.EstimateAll(ctx, req.Roles),
		})
	}
}

func recommendationsHandler(svc *service.RecommendationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/ai-candidate-recommendations")
		defer span.End()

		var req domain.RecommendationRequest
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := svc.Recommend(ctx, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
