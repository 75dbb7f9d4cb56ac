package service

import (
	"context"
	"errors"
	"strings"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/fingerprint"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// UserService manages user records: anonymous device users, their promotion
// to registered users at signup, and admin type changes.
type UserService struct {
	users  port.UserStore
	views  port.TrackingStore
	logger *zap.Logger
}

// NewUserService creates the user service.
func NewUserService(users port.UserStore, views port.TrackingStore, logger *zap.Logger) *UserService {
	return &UserService{users: users, views: views, logger: logger}
}

// EnsureAnonymous creates the Anonymous record for a device id if absent.
func (s *UserService) EnsureAnonymous(ctx context.Context, deviceID string) error {
	if !fingerprint.IsDeviceID(deviceID) {
		return &domain.ErrValidation{Field: "deviceId", Message: "not a device identity"}
	}
	ctx, span := tracer.Start(ctx, "UserService.EnsureAnonymous")
	defer span.End()

	return s.users.EnsureAnonymous(ctx, deviceID)
}

// Get returns the user record.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "UserService.Get")
	defer span.End()

	return s.users.GetUser(ctx, userID)
}

// Lookup returns targetID's record to actorID. Users may read their own
// record; admins may read any.
func (s *UserService) Lookup(ctx context.Context, actorID, targetID string) (*domain.User, error) {
	if actorID == targetID {
		return s.Get(ctx, targetID)
	}

	ctx, span := tracer.Start(ctx, "UserService.Lookup")
	defer span.End()

	if err := s.requireAdmin(ctx, actorID, "read another user"); err != nil {
		return nil, err
	}
	return s.users.GetUser(ctx, targetID)
}

// AuthorizeActivityRead reports whether actorID may read targetID's content
// views. Device identities are open to their holder; account activity is
// readable by its owner and by admins.
func (s *UserService) AuthorizeActivityRead(ctx context.Context, actorID, targetID string) error {
	if fingerprint.IsDeviceID(targetID) || (actorID != "" && actorID == targetID) {
		return nil
	}
	if actorID == "" {
		return &domain.ErrUnauthorized{Message: "authentication required to read account activity"}
	}

	ctx, span := tracer.Start(ctx, "UserService.AuthorizeActivityRead")
	defer span.End()

	return s.requireAdmin(ctx, actorID, "read another user's activity")
}

// Promote merges the anonymous device user into the authenticated account:
// the record is re-keyed to authUserID (keeping the device id) and the
// content views follow it.
func (s *UserService) Promote(ctx context.Context, deviceID, authUserID string, profile domain.Profile) (*domain.User, error) {
	if strings.TrimSpace(authUserID) == "" {
		return nil, &domain.ErrUnauthorized{Message: "missing authenticated user"}
	}
	if !fingerprint.IsDeviceID(deviceID) {
		return nil, &domain.ErrValidation{Field: "deviceId", Message: "not a device identity"}
	}

	ctx, span := tracer.Start(ctx, "UserService.Promote")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", authUserID))

	user, err := s.users.PromoteUser(ctx, deviceID, authUserID, profile)
	if err != nil {
		return nil, err
	}

	if err := s.views.RekeyViews(ctx, deviceID, authUserID); err != nil {
		// The account exists; the old views can be re-keyed on a later promote.
		s.logger.Error("users: failed to re-key content views",
			zap.String("device_id", deviceID),
			zap.String("user_id", authUserID),
			zap.Error(err),
		)
	}

	s.logger.Info("users: device promoted",
		zap.String("device_id", deviceID),
		zap.String("user_id", authUserID),
	)
	return user, nil
}

// SetUserType changes a user's type. Only admins may do it.
func (s *UserService) SetUserType(ctx context.Context, actorID, targetID string, userType domain.UserType) (*domain.User, error) {
	if !userType.Valid() {
		return nil, &domain.ErrValidation{Field: "userType", Message: "must be Anonymous, Regular or Admin"}
	}

	ctx, span := tracer.Start(ctx, "UserService.SetUserType")
	defer span.End()

	if err := s.requireAdmin(ctx, actorID, "change user type"); err != nil {
		return nil, err
	}
	return s.users.UpdateUserType(ctx, targetID, userType)
}

func (s *UserService) requireAdmin(ctx context.Context, actorID, action string) error {
	actor, err := s.users.GetUser(ctx, actorID)
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return &domain.ErrForbidden{Action: action}
		}
		return err
	}
	if actor.UserType != domain.UserAdmin {
		return &domain.ErrForbidden{Action: action}
	}
	return nil
}
