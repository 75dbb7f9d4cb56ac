package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
)

// SaveQuote stores a generated quote in pricing_quotes.
func (s *Store) SaveQuote(ctx context.Context, userID string, q *domain.Quote) error {
	ctx, span := tracer.Start(ctx, "Postgres.SaveQuote")
	defer span.End()

	doc, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("saveQuote marshal: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO pricing_quotes (id, user_id, currency, total_monthly_cost, total_setup_cost, quote, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		q.ID, userID, q.Currency, q.TotalMonthlyCost, q.TotalSetupCost, doc, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saveQuote: %w", err)
	}
	return nil
}
