package handler

import (
	"context"
	"net/http"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/fingerprint"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Engagement tracking
// ============================================================

// Tracking writes answer 202: persistence is best effort and the result
// body only reports what happened.

func trackStartHandler(svc *service.TrackingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/tracking/start")
		defer span.End()

		var req domain.TrackingRequest
		if !decodeBody(w, r, &req) {
			return
		}
		userID := subjectOr(ctx, req.UserID)
		span.SetAttributes(attribute.String("content.id", req.ContentID))

		res, err := svc.StartTracking(ctx, userID, req.ContentID, req.ContentLabel, req.InteractionType)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusAccepted, res)
	}
}

func trackEndHandler(svc *service.TrackingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/tracking/end")
		defer span.End()

		var req domain.TrackingRequest
		if !decodeBody(w, r, &req) {
			return
		}
		userID := subjectOr(ctx, req.UserID)
		span.SetAttributes(attribute.String("content.id", req.ContentID))

		res, err := svc.EndTracking(ctx, userID, req.ContentID, domain.Observation{
			ScrollDepth:  req.ScrollDepth,
			Interactions: req.Interactions,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusAccepted, res)
	}
}

func trackPageViewHandler(svc *service.TrackingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/tracking/page-view")
		defer span.End()

		var req domain.TrackingRequest
		if !decodeBody(w, r, &req) {
			return
		}
		path := req.Path
		if path == "" {
			path = req.ContentID
		}

		res, err := svc.TrackPageView(ctx, subjectOr(ctx, req.UserID), path)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusAccepted, res)
	}
}

func trackInteractionHandler(svc *service.TrackingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/tracking/interaction")
		defer span.End()

		var req domain.TrackingRequest
		if !decodeBody(w, r, &req) {
			return
		}

		res, err := svc.TrackInteraction(ctx, subjectOr(ctx, req.UserID), req.ContentID, req.InteractionType)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusAccepted, res)
	}
}

func mostViewedHandler(svc *service.TrackingService, users *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/tracking/users/{userId}/most-viewed")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		if err := authorizeActivityRead(ctx, users, userID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		row, err := svc.GetUserMostViewedContent(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, row)
	}
}

func listViewsHandler(svc *service.TrackingService, users *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/tracking/users/{userId}/views")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		if err := authorizeActivityRead(ctx, users, userID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		rows, err := svc.ListViews(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"views": rows, "total": len(rows)})
	}
}

// authorizeActivityRead gates reads of a user's views. Without a user
// service only device identities are readable.
func authorizeActivityRead(ctx context.Context, users *service.UserService, userID string) error {
	if users != nil {
		return users.AuthorizeActivityRead(ctx, subjectOr(ctx, ""), userID)
	}
	if fingerprint.IsDeviceID(userID) {
		return nil
	}
	return &domain.ErrForbidden{Action: "read account activity"}
}
