// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
)

// LLMClient sends a prompt to the language model and returns its text.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (*domain.Completion, error)
}

// RateProvider returns the PHP→currency exchange rate. Implementations must
// not fail for a supported currency pair.
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (domain.ExchangeRate, error)
}

// SalaryEstimator resolves a salary estimate for a role. It never fails:
// upstream problems degrade to heuristics.
type SalaryEstimator interface {
	Estimate(ctx context.Context, role domain.RoleRequest) domain.SalaryEstimate
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// TrackingStore persists accumulated content views.
// IncrementView must be a single atomic insert-or-increment keyed by
// (user_id, content_id).
type TrackingStore interface {
	IncrementView(ctx context.Context, delta domain.ViewDelta) (*domain.ContentView, error)
	MostViewed(ctx context.Context, userID string) (*domain.ContentView, error)
	ListViews(ctx context.Context, userID string) ([]domain.ContentView, error)
	RekeyViews(ctx context.Context, fromUserID, toUserID string) error
}

// SessionStore keeps the start time of open viewing sessions.
type SessionStore interface {
	// Open records start for key unless a session is already open. It returns
	// the effective start time and whether this call opened the session.
	Open(ctx context.Context, key domain.SessionKey, start time.Time) (time.Time, bool, error)
	// Close removes the session and returns its start time.
	Close(ctx context.Context, key domain.SessionKey) (time.Time, bool, error)
	// Sweep drops sessions opened before cutoff and returns how many.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// UserStore persists user records.
type UserStore interface {
	EnsureAnonymous(ctx context.Context, deviceID string) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	PromoteUser(ctx context.Context, deviceID, authUserID string, profile domain.Profile) (*domain.User, error)
	UpdateUserType(ctx context.Context, userID string, userType domain.UserType) (*domain.User, error)
}

// QuoteStore persists generated quotes.
type QuoteStore interface {
	SaveQuote(ctx context.Context, userID string, quote *domain.Quote) error
}

// Store bundles the persistence ports a data backend provides.
type Store interface {
	TrackingStore
	UserStore
	QuoteStore
	Ping(ctx context.Context) error
}
