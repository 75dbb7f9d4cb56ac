// Package memstore is an in-memory data store used for local development
// and tests. It honours the same semantics as the database adapters.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
)

// Store implements port.Store in memory. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	nextID int64
	views  map[domain.SessionKey]*domain.ContentView
	users  map[string]*domain.User
	quotes map[string][]domain.Quote
	now    func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		views:  make(map[domain.SessionKey]*domain.ContentView),
		users:  make(map[string]*domain.User),
		quotes: make(map[string][]domain.Quote),
		now:    time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// IncrementView adds delta to the (user, content) row under one lock.
func (s *Store) IncrementView(_ context.Context, d domain.ViewDelta) (*domain.ContentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := domain.SessionKey{UserID: d.UserID, ContentID: d.ContentID}
	v, ok := s.views[key]
	if !ok {
		s.nextID++
		v = &domain.ContentView{
			ID:              s.nextID,
			UserID:          d.UserID,
			ContentID:       d.ContentID,
			InteractionType: domain.InteractionView,
			CreatedAt:       now,
		}
		s.views[key] = v
	}
	if d.ContentLabel != "" {
		v.ContentLabel = d.ContentLabel
	}
	if d.InteractionType != "" {
		v.InteractionType = d.InteractionType
	}
	v.ViewDuration += max(d.Duration, 0)
	v.ScrollDepth = max(v.ScrollDepth, d.ScrollDepth)
	v.ActivityCount += max(d.Activity, 0)
	v.UpdatedAt = now

	out := *v
	return &out, nil
}

func (s *Store) sortedViews(userID string) []domain.ContentView {
	out := make([]domain.ContentView, 0)
	for _, v := range s.views {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ViewDuration != out[j].ViewDuration {
			return out[i].ViewDuration > out[j].ViewDuration
		}
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// MostViewed returns the user's top row or nil.
func (s *Store) MostViewed(_ context.Context, userID string) (*domain.ContentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := s.sortedViews(userID)
	if len(views) == 0 {
		return nil, nil
	}
	return &views[0], nil
}

// ListViews returns the user's rows, most viewed first.
func (s *Store) ListViews(_ context.Context, userID string) ([]domain.ContentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedViews(userID), nil
}

// RekeyViews merges fromUserID's rows into toUserID.
func (s *Store) RekeyViews(_ context.Context, fromUserID, toUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, v := range s.views {
		if key.UserID != fromUserID {
			continue
		}
		delete(s.views, key)

		target := domain.SessionKey{UserID: toUserID, ContentID: key.ContentID}
		existing, ok := s.views[target]
		if !ok {
			v.UserID = toUserID
			s.views[target] = v
			continue
		}
		existing.ViewDuration += v.ViewDuration
		existing.ScrollDepth = max(existing.ScrollDepth, v.ScrollDepth)
		existing.ActivityCount += v.ActivityCount
		if v.UpdatedAt.After(existing.UpdatedAt) {
			existing.UpdatedAt = v.UpdatedAt
		}
	}
	return nil
}

// EnsureAnonymous inserts an Anonymous user unless the id exists.
func (s *Store) EnsureAnonymous(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[deviceID]; ok {
		return nil
	}
	now := s.now()
	s.users[deviceID] = &domain.User{
		UserID:    deviceID,
		DeviceID:  deviceID,
		UserType:  domain.UserAnonymous,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// GetUser returns the user or *domain.ErrNotFound.
func (s *Store) GetUser(_ context.Context, userID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	out := *u
	return &out, nil
}

// PromoteUser turns deviceID's anonymous record into authUserID.
func (s *Store) PromoteUser(_ context.Context, deviceID, authUserID string, p domain.Profile) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	u, ok := s.users[authUserID]
	if !ok {
		u = &domain.User{UserID: authUserID, CreatedAt: now}
		if anon, found := s.users[deviceID]; found {
			u.CreatedAt = anon.CreatedAt
		}
		s.users[authUserID] = u
	}
	if anon, found := s.users[deviceID]; found && deviceID != authUserID && anon.UserType == domain.UserAnonymous {
		delete(s.users, deviceID)
	}

	u.DeviceID = deviceID
	if u.UserType != domain.UserAdmin {
		u.UserType = domain.UserRegular
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&u.Email, p.Email)
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	set(&u.Company, p.Company)
	set(&u.Phone, p.Phone)
	u.UpdatedAt = now

	out := *u
	return &out, nil
}

// UpdateUserType sets user_type.
func (s *Store) UpdateUserType(_ context.Context, userID string, userType domain.UserType) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	u.UserType = userType
	u.UpdatedAt = s.now()
	out := *u
	return &out, nil
}

// SaveQuote appends the quote to the user's history.
func (s *Store) SaveQuote(_ context.Context, userID string, q *domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[userID] = append(s.quotes[userID], *q)
	return nil
}

// Quotes returns the quotes saved for userID.
func (s *Store) Quotes(userID string) []domain.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Quote(nil), s.quotes[userID]...)
}
