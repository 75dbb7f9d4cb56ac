package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/fingerprint"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/observability"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// TrackingService accumulates how long and how actively each user engages
// with each piece of content. Writes are best effort: persistence failures
// are logged and counted, never returned.
type TrackingService struct {
	views    port.TrackingStore
	users    port.UserStore
	sessions port.SessionStore
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewTrackingService creates the tracking service.
func NewTrackingService(
	views port.TrackingStore,
	users port.UserStore,
	sessions port.SessionStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *TrackingService {
	return &TrackingService{
		views:    views,
		users:    users,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

func validateKey(userID, contentID string) error {
	if strings.TrimSpace(userID) == "" {
		return &domain.ErrValidation{Field: "userId", Message: "userId is required"}
	}
	if strings.TrimSpace(contentID) == "" {
		return &domain.ErrValidation{Field: "contentId", Message: "contentId is required"}
	}
	return nil
}

func (s *TrackingService) fail(op string, key domain.SessionKey, err error) {
	s.metrics.IncrTrackingError(op)
	s.logger.Warn("tracking: "+op+" failed",
		zap.String("user_id", key.UserID),
		zap.String("content_id", key.ContentID),
		zap.Error(err),
	)
}

// StartTracking opens a viewing session. Only the call that opens it touches
// the row (duration 0, activity +1); a repeat start is a no-op.
func (s *TrackingService) StartTracking(ctx context.Context, userID, contentID, label, interaction string) (*domain.TrackingResult, error) {
	if err := validateKey(userID, contentID); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "TrackingService.StartTracking")
	defer span.End()
	span.SetAttributes(attribute.String("content.id", contentID))

	key := domain.SessionKey{UserID: userID, ContentID: contentID}
	s.metrics.IncrTrackingEvent("start")
	s.ensureUser(ctx, userID)

	_, opened, err := s.sessions.Open(ctx, key, s.now())
	if err != nil {
		s.fail("start", key, err)
		return &domain.TrackingResult{State: domain.TrackingNoRecord}, nil
	}
	if !opened {
		return &domain.TrackingResult{State: domain.TrackingOpen}, nil
	}

	if interaction == "" {
		interaction = domain.InteractionView
	}
	_, err = s.views.IncrementView(ctx, domain.ViewDelta{
		UserID:          userID,
		ContentID:       contentID,
		ContentLabel:    label,
		InteractionType: interaction,
		Activity:        1,
	})
	if err != nil {
		s.fail("start", key, err)
		return &domain.TrackingResult{State: domain.TrackingOpen}, nil
	}
	return &domain.TrackingResult{State: domain.TrackingOpen, Persisted: true}, nil
}

// EndTracking closes the session and adds the elapsed whole seconds to the
// row. Without an open session nothing is written.
func (s *TrackingService) EndTracking(ctx context.Context, userID, contentID string, obs domain.Observation) (*domain.TrackingResult, error) {
	if err := validateKey(userID, contentID); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "TrackingService.EndTracking")
	defer span.End()
	span.SetAttributes(attribute.String("content.id", contentID))

	key := domain.SessionKey{UserID: userID, ContentID: contentID}
	s.metrics.IncrTrackingEvent("end")

	start, ok, err := s.sessions.Close(ctx, key)
	if err != nil {
		s.fail("end", key, err)
		return &domain.TrackingResult{State: domain.TrackingIdle}, nil
	}
	if !ok {
		s.logger.Warn("tracking: end without open session",
			zap.String("user_id", userID),
			zap.String("content_id", contentID),
		)
		return &domain.TrackingResult{State: domain.TrackingIdle}, nil
	}

	elapsed := int64(math.Round(s.now().Sub(start).Seconds()))
	if elapsed < 0 {
		elapsed = 0
	}
	span.SetAttributes(attribute.Int64("tracking.elapsed_seconds", elapsed))

	_, err = s.views.IncrementView(ctx, domain.ViewDelta{
		UserID:      userID,
		ContentID:   contentID,
		Duration:    elapsed,
		ScrollDepth: clampPercent(obs.ScrollDepth),
		Activity:    max(obs.Interactions, 0),
	})
	if err != nil {
		s.fail("end", key, err)
		return &domain.TrackingResult{State: domain.TrackingIdle, Elapsed: elapsed}, nil
	}
	return &domain.TrackingResult{State: domain.TrackingIdle, Persisted: true, Elapsed: elapsed}, nil
}

// TrackPageView records one page view; the path is the content id.
func (s *TrackingService) TrackPageView(ctx context.Context, userID, path string) (*domain.TrackingResult, error) {
	return s.touch(ctx, "page_view", userID, path, domain.InteractionPageView)
}

// TrackInteraction records one interaction (click, candidate view...).
func (s *TrackingService) TrackInteraction(ctx context.Context, userID, contentID, interaction string) (*domain.TrackingResult, error) {
	if interaction == "" {
		interaction = domain.InteractionClick
	}
	return s.touch(ctx, "interaction", userID, contentID, interaction)
}

func (s *TrackingService) touch(ctx context.Context, op, userID, contentID, interaction string) (*domain.TrackingResult, error) {
	if err := validateKey(userID, contentID); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "TrackingService.Track")
	defer span.End()
	span.SetAttributes(attribute.String("tracking.op", op), attribute.String("content.id", contentID))

	key := domain.SessionKey{UserID: userID, ContentID: contentID}
	s.metrics.IncrTrackingEvent(op)
	s.ensureUser(ctx, userID)

	_, err := s.views.IncrementView(ctx, domain.ViewDelta{
		UserID:          userID,
		ContentID:       contentID,
		InteractionType: interaction,
		Activity:        1,
	})
	if err != nil {
		s.fail(op, key, err)
		return &domain.TrackingResult{State: domain.TrackingIdle}, nil
	}
	return &domain.TrackingResult{State: domain.TrackingIdle, Persisted: true}, nil
}

// GetUserMostViewedContent returns the row with the highest accumulated
// duration or *domain.ErrNotFound.
func (s *TrackingService) GetUserMostViewedContent(ctx context.Context, userID string) (*domain.ContentView, error) {
	ctx, span := tracer.Start(ctx, "TrackingService.GetUserMostViewedContent")
	defer span.End()

	row, err := s.views.MostViewed(ctx, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, &domain.ErrNotFound{Resource: "content_view", ID: userID}
	}
	return row, nil
}

// ListViews returns every row of the user, most viewed first.
func (s *TrackingService) ListViews(ctx context.Context, userID string) ([]domain.ContentView, error) {
	ctx, span := tracer.Start(ctx, "TrackingService.ListViews")
	defer span.End()

	return s.views.ListViews(ctx, userID)
}

// SweepStaleSessions drops sessions older than maxAge without recording
// any duration for them.
func (s *TrackingService) SweepStaleSessions(ctx context.Context, maxAge time.Duration) (int, error) {
	n, err := s.sessions.Sweep(ctx, s.now().Add(-maxAge))
	if n > 0 {
		s.metrics.AddSessionsSwept(n)
	}
	return n, err
}

// ensureUser creates the anonymous record for device identities. Failure
// does not stop tracking.
func (s *TrackingService) ensureUser(ctx context.Context, userID string) {
	if s.users == nil || !fingerprint.IsDeviceID(userID) {
		return
	}
	if err := s.users.EnsureAnonymous(ctx, userID); err != nil {
		s.fail("ensure_user", domain.SessionKey{UserID: userID}, err)
	}
}

func clampPercent(v int) int {
	return min(max(v, 0), 100)
}
