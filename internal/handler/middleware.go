package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const claimsKey contextKey = "authClaims"

// supabaseClaims are the fields read from a Supabase access token.
type supabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator validates Supabase-issued HS256 access tokens.
type Authenticator struct {
	secret []byte
	logger *zap.Logger
}

// NewAuthenticator creates an Authenticator. With an empty secret every
// protected route answers 503.
func NewAuthenticator(secret string, logger *zap.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), logger: logger}
}

var errNoToken = errors.New("missing bearer token")

func (a *Authenticator) parse(r *http.Request) (*domain.AuthClaims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errNoToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, errors.New("invalid authorization header")
	}

	var claims supabaseClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &domain.AuthClaims{Sub: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// RequireAuth rejects requests without a valid bearer token.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.secret) == 0 {
			handleServiceError(w, &domain.ErrConfiguration{Setting: "SUPABASE_JWT_SECRET"}, a.logger)
			return
		}
		claims, err := a.parse(r)
		if err != nil {
			a.logger.Warn("auth: rejected token",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			writeError(w, http.StatusUnauthorized, "invalid or missing access token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// OptionalAuth attaches the claims of a valid token and lets every other
// request through anonymously.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.secret) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := a.parse(r)
		switch {
		case err == nil:
			r = r.WithContext(context.WithValue(r.Context(), claimsKey, claims))
		case !errors.Is(err, errNoToken):
			a.logger.Debug("auth: ignoring invalid token", zap.String("path", r.URL.Path), zap.Error(err))
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the authenticated claims, or nil.
func ClaimsFromContext(ctx context.Context) *domain.AuthClaims {
	c, _ := ctx.Value(claimsKey).(*domain.AuthClaims)
	return c
}

// subjectOr returns the token subject when authenticated, else fallback.
func subjectOr(ctx context.Context, fallback string) string {
	if c := ClaimsFromContext(ctx); c != nil {
		return c.Sub
	}
	return fallback
}
