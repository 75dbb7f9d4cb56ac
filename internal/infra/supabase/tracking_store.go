package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// TrackingStore implementation: content_views via PostgREST
// ============================================================

type trackViewParams struct {
	UserID          string `json:"p_user_id"`
	ContentID       string `json:"p_content_id"`
	ContentLabel    string `json:"p_content_label"`
	InteractionType string `json:"p_interaction_type"`
	Duration        int64  `json:"p_duration"`
	ScrollDepth     int    `json:"p_scroll_depth"`
	Activity        int    `json:"p_activity"`
}

// IncrementView calls the track_content_view function, which performs the
// insert-or-increment in one statement. It is never retried.
func (c *Client) IncrementView(ctx context.Context, delta domain.ViewDelta) (*domain.ContentView, error) {
	ctx, span := tracer.Start(ctx, "Supabase.IncrementView")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", delta.UserID),
		attribute.String("content.id", delta.ContentID),
	)

	params := trackViewParams{
		UserID:          delta.UserID,
		ContentID:       delta.ContentID,
		ContentLabel:    delta.ContentLabel,
		InteractionType: delta.InteractionType,
		Duration:        delta.Duration,
		ScrollDepth:     delta.ScrollDepth,
		Activity:        delta.Activity,
	}

	var row *domain.ContentView
	err := c.executeOnce("content_views", func() error {
		body, err := c.do(ctx, http.MethodPost, "rpc/track_content_view", params, preferRepresentation)
		if err != nil {
			return err
		}
		row, err = decodeFirst[domain.ContentView](body, "content_views")
		return err
	})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("track_content_view returned no row for %s", domain.SessionKey{UserID: delta.UserID, ContentID: delta.ContentID})
	}
	return row, nil
}

// MostViewed returns the row with the highest accumulated duration, the most
// recently updated one on ties. Returns nil when the user has no rows.
func (c *Client) MostViewed(ctx context.Context, userID string) (*domain.ContentView, error) {
	ctx, span := tracer.Start(ctx, "Supabase.MostViewed")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var row *domain.ContentView
	err := c.execute(ctx, "content_views", func() error {
		path := fmt.Sprintf("content_views?%s&order=view_duration.desc,updated_at.desc&limit=1", eq("user_id", userID))
		body, err := c.do(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			return err
		}
		row, err = decodeFirst[domain.ContentView](body, "content_views")
		return err
	})
	return row, err
}

// ListViews returns every row of the user, most viewed first.
func (c *Client) ListViews(ctx context.Context, userID string) ([]domain.ContentView, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListViews")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var rows []domain.ContentView
	err := c.execute(ctx, "content_views", func() error {
		path := fmt.Sprintf("content_views?%s&order=view_duration.desc,updated_at.desc", eq("user_id", userID))
		body, err := c.do(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			return err
		}
		rows, err = decodeRows[domain.ContentView](body, "content_views")
		return err
	})
	return rows, err
}

// RekeyViews moves the rows of fromUserID to toUserID, merging rows for the
// same content. A replay finds no rows left to move, so it is safe to retry.
func (c *Client) RekeyViews(ctx context.Context, fromUserID, toUserID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RekeyViews")
	defer span.End()

	params := map[string]string{"p_from": fromUserID, "p_to": toUserID}
	return c.execute(ctx, "content_views", func() error {
		_, err := c.do(ctx, http.MethodPost, "rpc/rekey_content_views", params, preferMinimal)
		return err
	})
}
