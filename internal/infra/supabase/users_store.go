package supabase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// UserStore implementation: users via PostgREST
// ============================================================

// EnsureAnonymous inserts an Anonymous user keyed by the device id. An
// existing row is left untouched.
func (c *Client) EnsureAnonymous(ctx context.Context, deviceID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.EnsureAnonymous")
	defer span.End()
	span.SetAttributes(attribute.String("device.id", deviceID))

	row := map[string]any{
		"user_id":   deviceID,
		"device_id": deviceID,
		"user_type": domain.UserAnonymous,
	}
	return c.execute(ctx, "users", func() error {
		_, err := c.do(ctx, http.MethodPost, "users?on_conflict=user_id", row, preferIgnoreDupes)
		return err
	})
}

// GetUser returns the user or *domain.ErrNotFound.
func (c *Client) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	user, err := c.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return user, nil
}

func (c *Client) findUser(ctx context.Context, userID string) (*domain.User, error) {
	var user *domain.User
	err := c.execute(ctx, "users", func() error {
		body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("users?%s&limit=1", eq("user_id", userID)), nil, "")
		if err != nil {
			return err
		}
		user, err = decodeFirst[domain.User](body, "users")
		return err
	})
	return user, err
}

func profileRow(deviceID string, profile domain.Profile) map[string]any {
	row := map[string]any{
		"device_id":  deviceID,
		"user_type":  domain.UserRegular,
		"updated_at": time.Now().UTC(),
	}
	set := func(col, v string) {
		if v != "" {
			row[col] = v
		}
	}
	set("email", profile.Email)
	set("first_name", profile.FirstName)
	set("last_name", profile.LastName)
	set("company", profile.Company)
	set("phone", profile.Phone)
	return row
}

// PromoteUser turns the anonymous record of deviceID into the Regular user
// authUserID. When authUserID already exists (signup from a second device)
// its profile is updated and the anonymous record is dropped.
func (c *Client) PromoteUser(ctx context.Context, deviceID, authUserID string, profile domain.Profile) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.PromoteUser")
	defer span.End()
	span.SetAttributes(
		attribute.String("device.id", deviceID),
		attribute.String("user.id", authUserID),
	)

	existing, err := c.findUser(ctx, authUserID)
	if err != nil {
		return nil, err
	}
	row := profileRow(deviceID, profile)

	switch {
	case existing != nil:
		err = c.execute(ctx, "users", func() error {
			_, err := c.do(ctx, http.MethodPatch, "users?"+eq("user_id", authUserID), row, preferMinimal)
			return err
		})
		if err == nil && deviceID != authUserID {
			err = c.execute(ctx, "users", func() error {
				_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("users?%s&%s", eq("user_id", deviceID), eq("user_type", string(domain.UserAnonymous))), nil, "")
				return err
			})
		}
	default:
		anon, findErr := c.findUser(ctx, deviceID)
		if findErr != nil {
			return nil, findErr
		}
		row["user_id"] = authUserID
		if anon != nil {
			err = c.execute(ctx, "users", func() error {
				_, err := c.do(ctx, http.MethodPatch, "users?"+eq("user_id", deviceID), row, preferMinimal)
				return err
			})
		} else {
			err = c.execute(ctx, "users", func() error {
				_, err := c.do(ctx, http.MethodPost, "users", row, preferMinimal)
				return err
			})
		}
	}
	if err != nil {
		return nil, err
	}
	return c.GetUser(ctx, authUserID)
}

// UpdateUserType sets user_type and returns the updated row.
func (c *Client) UpdateUserType(ctx context.Context, userID string, userType domain.UserType) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateUserType")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var user *domain.User
	err := c.execute(ctx, "users", func() error {
		patch := map[string]any{"user_type": userType, "updated_at": time.Now().UTC()}
		body, err := c.do(ctx, http.MethodPatch, "users?"+eq("user_id", userID), patch, preferRepresentation)
		if err != nil {
			return err
		}
		user, err = decodeFirst[domain.User](body, "users")
		return err
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return user, nil
}
