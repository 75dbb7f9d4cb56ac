package supabase

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

type quoteRow struct {
	ID               string        `json:"id"`
	UserID           string        `json:"user_id"`
	Currency         string        `json:"currency"`
	TotalMonthlyCost float64       `json:"total_monthly_cost"`
	TotalSetupCost   float64       `json:"total_setup_cost"`
	Quote            *domain.Quote `json:"quote"`
	CreatedAt        time.Time     `json:"created_at"`
}

// SaveQuote stores a generated quote in pricing_quotes.
func (c *Client) SaveQuote(ctx context.Context, userID string, quote *domain.Quote) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveQuote")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("quote.id", quote.ID),
	)

	row := quoteRow{
		ID:               quote.ID,
		UserID:           userID,
		Currency:         quote.Currency,
		TotalMonthlyCost: quote.TotalMonthlyCost,
		TotalSetupCost:   quote.TotalSetupCost,
		Quote:            quote,
		CreatedAt:        quote.CreatedAt.UTC(),
	}
	return c.execute(ctx, "pricing_quotes", func() error {
		_, err := c.do(ctx, http.MethodPost, "pricing_quotes", row, preferMinimal)
		return err
	})
}
