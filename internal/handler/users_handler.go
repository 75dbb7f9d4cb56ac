package handler

import (
	"net/http"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/fingerprint"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Identity & users
// ============================================================

func deviceIdentityHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/identity/device")
		defer span.End()

		var signals fingerprint.Signals
		if !decodeBody(w, r, &signals) {
			return
		}
		id := fingerprint.Generate(signals)
		logger.Debug("identity: device id generated", zap.String("device_id", id))
		writeJSON(w, http.StatusOK, domain.DeviceIdentity{DeviceID: id})
	}
}

func promoteUserHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/promote")
		defer span.End()

		var req domain.PromoteRequest
		if !decodeBody(w, r, &req) {
			return
		}
		claims := ClaimsFromContext(ctx)
		if req.Profile.Email == "" {
			req.Profile.Email = claims.Email
		}
		span.SetAttributes(attribute.String("user.id", claims.Sub))

		user, err := svc.Promote(ctx, req.DeviceID, claims.Sub, req.Profile)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func getUserHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}")
		defer span.End()

		user, err := svc.Lookup(ctx, ClaimsFromContext(ctx).Sub, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func setUserTypeHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/users/{userId}/type")
		defer span.End()

		var req domain.UserTypeRequest
		if !decodeBody(w, r, &req) {
			return
		}

		user, err := svc.SetUserType(ctx, ClaimsFromContext(ctx).Sub, chi.URLParam(r, "userId"), req.UserType)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
