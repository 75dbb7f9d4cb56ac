package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
)

const userColumns = `user_id, COALESCE(device_id, ''), user_type,
	COALESCE(email, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
	COALESCE(company, ''), COALESCE(phone, ''), created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.UserID, &u.DeviceID, &u.UserType,
		&u.Email, &u.FirstName, &u.LastName,
		&u.Company, &u.Phone, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EnsureAnonymous inserts an Anonymous user for deviceID unless one exists.
func (s *Store) EnsureAnonymous(ctx context.Context, deviceID string) error {
	ctx, span := tracer.Start(ctx, "Postgres.EnsureAnonymous")
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (user_id, device_id, user_type)
		 VALUES ($1, $1, $2)
		 ON CONFLICT (user_id) DO NOTHING`,
		deviceID, string(domain.UserAnonymous),
	)
	if err != nil {
		return fmt.Errorf("ensureAnonymous: %w", err)
	}
	return nil
}

// GetUser returns the user or *domain.ErrNotFound.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("getUser: %w", err)
	}
	return u, nil
}

// PromoteUser turns the anonymous record of deviceID into the Regular user
// authUserID inside one transaction.
func (s *Store) PromoteUser(ctx context.Context, deviceID, authUserID string, p domain.Profile) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Postgres.PromoteUser")
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("promoteUser begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	u, err := scanUser(tx.QueryRow(ctx,
		`INSERT INTO users (user_id, device_id, user_type, email, first_name, last_name, company, phone, created_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''),
		         COALESCE((SELECT created_at FROM users WHERE user_id = $2), now()))
		 ON CONFLICT (user_id) DO UPDATE SET
		    device_id  = EXCLUDED.device_id,
		    user_type  = CASE WHEN users.user_type = 'Admin' THEN users.user_type ELSE EXCLUDED.user_type END,
		    email      = COALESCE(EXCLUDED.email, users.email),
		    first_name = COALESCE(EXCLUDED.first_name, users.first_name),
		    last_name  = COALESCE(EXCLUDED.last_name, users.last_name),
		    company    = COALESCE(EXCLUDED.company, users.company),
		    phone      = COALESCE(EXCLUDED.phone, users.phone),
		    updated_at = now()
		 RETURNING `+userColumns,
		authUserID, deviceID, string(domain.UserRegular),
		p.Email, p.FirstName, p.LastName, p.Company, p.Phone,
	))
	if err != nil {
		return nil, fmt.Errorf("promoteUser upsert: %w", err)
	}

	if deviceID != authUserID {
		if _, err := tx.Exec(ctx,
			`DELETE FROM users WHERE user_id = $1 AND user_type = $2`,
			deviceID, string(domain.UserAnonymous),
		); err != nil {
			return nil, fmt.Errorf("promoteUser cleanup: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("promoteUser commit: %w", err)
	}
	return u, nil
}

// UpdateUserType sets user_type.
func (s *Store) UpdateUserType(ctx context.Context, userID string, userType domain.UserType) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Postgres.UpdateUserType")
	defer span.End()

	u, err := scanUser(s.pool.QueryRow(ctx,
		`UPDATE users SET user_type = $2, updated_at = now()
		 WHERE user_id = $1
		 RETURNING `+userColumns,
		userID, string(userType),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("updateUserType: %w", err)
	}
	return u, nil
}
