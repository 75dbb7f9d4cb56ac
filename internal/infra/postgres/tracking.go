package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
)

const viewColumns = `id, user_id, content_id, content_label, interaction_type,
	view_duration, scroll_depth, activity_count, created_at, updated_at`

func scanView(row pgx.Row) (*domain.ContentView, error) {
	var v domain.ContentView
	err := row.Scan(
		&v.ID, &v.UserID, &v.ContentID, &v.ContentLabel, &v.InteractionType,
		&v.ViewDuration, &v.ScrollDepth, &v.ActivityCount, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// IncrementView adds delta to the (user_id, content_id) row, creating it
// when absent, in a single statement.
func (s *Store) IncrementView(ctx context.Context, d domain.ViewDelta) (*domain.ContentView, error) {
	ctx, span := tracer.Start(ctx, "Postgres.IncrementView")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", d.UserID),
		attribute.String("content.id", d.ContentID),
	)

	row := s.pool.QueryRow(ctx,
		`INSERT INTO content_views AS cv
		    (user_id, content_id, content_label, interaction_type,
		     view_duration, scroll_depth, activity_count)
		 VALUES ($1, $2, $3, COALESCE(NULLIF($4, ''), 'view'),
		         GREATEST($5::bigint, 0), GREATEST($6::int, 0), GREATEST($7::int, 0))
		 ON CONFLICT (user_id, content_id) DO UPDATE SET
		    content_label    = COALESCE(NULLIF(EXCLUDED.content_label, ''), cv.content_label),
		    interaction_type = COALESCE(NULLIF($4, ''), cv.interaction_type),
		    view_duration    = cv.view_duration + EXCLUDED.view_duration,
		    scroll_depth     = GREATEST(cv.scroll_depth, EXCLUDED.scroll_depth),
		    activity_count   = cv.activity_count + EXCLUDED.activity_count,
		    updated_at       = now()
		 RETURNING `+viewColumns,
		d.UserID, d.ContentID, d.ContentLabel, d.InteractionType,
		d.Duration, d.ScrollDepth, d.Activity,
	)
	v, err := scanView(row)
	if err != nil {
		return nil, fmt.Errorf("incrementView: %w", err)
	}
	return v, nil
}

// MostViewed returns the user's row with the highest duration, nil if none.
func (s *Store) MostViewed(ctx context.Context, userID string) (*domain.ContentView, error) {
	ctx, span := tracer.Start(ctx, "Postgres.MostViewed")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	row := s.pool.QueryRow(ctx,
		`SELECT `+viewColumns+`
		 FROM content_views
		 WHERE user_id = $1
		 ORDER BY view_duration DESC, updated_at DESC
		 LIMIT 1`,
		userID,
	)
	v, err := scanView(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mostViewed: %w", err)
	}
	return v, nil
}

// ListViews returns every row of the user, most viewed first.
func (s *Store) ListViews(ctx context.Context, userID string) ([]domain.ContentView, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListViews")
	defer span.End()

	rows, err := s.pool.Query(ctx,
		`SELECT `+viewColumns+`
		 FROM content_views
		 WHERE user_id = $1
		 ORDER BY view_duration DESC, updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listViews query: %w", err)
	}
	defer rows.Close()

	views := make([]domain.ContentView, 0)
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("listViews scan: %w", err)
		}
		views = append(views, *v)
	}
	return views, rows.Err()
}

// RekeyViews merges the rows of fromUserID into toUserID.
func (s *Store) RekeyViews(ctx context.Context, fromUserID, toUserID string) error {
	ctx, span := tracer.Start(ctx, "Postgres.RekeyViews")
	defer span.End()

	if _, err := s.pool.Exec(ctx, `SELECT rekey_content_views($1, $2)`, fromUserID, toUserID); err != nil {
		return fmt.Errorf("rekeyViews: %w", err)
	}
	return nil
}
