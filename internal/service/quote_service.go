package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/observability"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/port"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/pricing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// QuoteService turns a role selection into an itemized monthly quote.
type QuoteService struct {
	estimator port.SalaryEstimator
	rates     port.RateProvider
	quotes    port.QuoteStore
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewQuoteService creates the quote engine. quotes may be nil, in which case
// quotes are never persisted.
func NewQuoteService(
	estimator port.SalaryEstimator,
	rates port.RateProvider,
	quotes port.QuoteStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *QuoteService {
	return &QuoteService{
		estimator: estimator,
		rates:     rates,
		quotes:    quotes,
		metrics:   metrics,
		logger:    logger,
	}
}

// pricedRole is a validated role with everything known before salaries.
type pricedRole struct {
	role      domain.RoleRequest
	count     int
	workspace domain.WorkspaceType
	fee       pricing.Fee
}

// Generate prices every role and totals the quote.
func (s *QuoteService) Generate(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "QuoteService.Generate")
	defer span.End()
	span.SetAttributes(attribute.Int("quote.roles", len(req.Roles)))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("quote", time.Since(start))
	}()

	quote, err := s.generate(ctx, req)
	if err != nil {
		s.metrics.IncrQuote("error")
		var integrity *domain.ErrDataIntegrity
		if errors.As(err, &integrity) {
			s.logger.Error("quote: salary data missing for requested role", zap.Error(err))
		}
		return nil, err
	}
	s.metrics.IncrQuote("success")
	span.SetAttributes(
		attribute.String("quote.id", quote.ID),
		attribute.String("quote.currency", quote.Currency),
		attribute.String("quote.rate_source", quote.RateSource),
	)

	if req.UserID != "" && s.quotes != nil {
		if err := s.quotes.SaveQuote(ctx, req.UserID, quote); err != nil {
			s.logger.Warn("quote: failed to persist quote",
				zap.String("quote_id", quote.ID),
				zap.String("user_id", req.UserID),
				zap.Error(err),
			)
		}
	}
	return quote, nil
}

func (s *QuoteService) generate(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
	currency := resolveCurrency(req)
	if !pricing.Supported(currency) {
		return nil, &domain.ErrValidation{Field: "currency", Message: fmt.Sprintf("unsupported currency %q", req.Currency)}
	}

	// Titles are trimmed below; the maps keyed by title must agree.
	req.RoleCount = trimKeys(req.RoleCount)
	req.SetupSelections = trimKeys(req.SetupSelections)
	req.RolesSalaryData = trimKeys(req.RolesSalaryData)

	roles, err := prepareRoles(req, currency)
	if err != nil {
		return nil, err
	}

	var office *domain.OfficeSpaceLine
	if req.OfficeSpaceSelected {
		fee, err := pricing.FacilityFee(currency, req.OfficeSize)
		if err != nil {
			return nil, err
		}
		office = &domain.OfficeSpaceLine{Size: strings.ToLower(strings.TrimSpace(req.OfficeSize)), MonthlyCost: fee}
	}

	// Provided salary data is authoritative: check it up front so a broken
	// contract fails before any upstream call.
	if len(req.RolesSalaryData) > 0 {
		for _, r := range roles {
			est, ok := req.RolesSalaryData[r.role.Title]
			if !ok {
				return nil, &domain.ErrDataIntegrity{Message: fmt.Sprintf("no salary data for role %q", r.role.Title)}
			}
			if est.SalaryPHP <= 0 {
				return nil, &domain.ErrDataIntegrity{Message: fmt.Sprintf("non-positive salary for role %q", r.role.Title)}
			}
		}
	}

	var (
		rate     domain.ExchangeRate
		salaries map[string]domain.SalaryEstimate
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.rates.Rate(gCtx, pricing.BaseCurrency, currency)
		if err != nil {
			return fmt.Errorf("exchange rate: %w", err)
		}
		rate = r
		return nil
	})
	g.Go(func() error {
		salaries = s.resolveSalaries(gCtx, req, roles)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	countryCode := ""
	if req.UserLocation != nil {
		countryCode = req.UserLocation.CountryCode
	}
	nightShift := pricing.RequiresNightShift(countryCode)

	quote := &domain.Quote{
		ID:             uuid.NewString(),
		Roles:          make([]domain.QuoteLine, 0, len(roles)),
		OfficeSpace:    office,
		Currency:       currency,
		CurrencySymbol: pricing.Symbol(currency),
		ExchangeRate:   rate.Value,
		RateSource:     rate.Source,
		Industry:       req.Industry,
		CreatedAt:      time.Now().UTC(),
	}

	for _, r := range roles {
		est := salaries[r.role.Title]
		quote.Roles = append(quote.Roles, priceLine(r, est, nightShift, rate.Value))
	}

	for _, line := range quote.Roles {
		quote.TotalMonthlyCost += line.MonthlyCost
		quote.TotalSetupCost += line.SetupFee
	}
	if office != nil {
		quote.TotalMonthlyCost += office.MonthlyCost
	}
	return quote, nil
}

// resolveSalaries returns one estimate per distinct title. Provided data wins;
// otherwise the estimator runs sequentially, once per title.
func (s *QuoteService) resolveSalaries(ctx context.Context, req domain.QuoteRequest, roles []pricedRole) map[string]domain.SalaryEstimate {
	out := make(map[string]domain.SalaryEstimate, len(roles))
	for _, r := range roles {
		title := r.role.Title
		if _, done := out[title]; done {
			continue
		}
		if len(req.RolesSalaryData) > 0 {
			est := req.RolesSalaryData[title]
			if !est.Level.Valid() {
				est.Level = r.role.Level
				if !est.Level.Valid() {
					est.Level = HeuristicLevel(title)
				}
			}
			est.Source = domain.SalarySourceProvided
			s.metrics.IncrSalarySource(string(est.Source))
			out[title] = est
			continue
		}
		out[title] = s.estimator.Estimate(ctx, r.role)
	}
	return out
}

// priceLine applies multiplier, night differential and conversion to one role.
func priceLine(r pricedRole, est domain.SalaryEstimate, nightShift bool, rate float64) domain.QuoteLine {
	monthly := est.SalaryPHP * pricing.Multiplier(est.Level)
	if nightShift {
		monthly *= 1 + pricing.NightShiftDifferential
	}
	converted := math.Round(monthly * rate)

	unit := converted + r.fee.Monthly
	return domain.QuoteLine{
		Title:           r.role.Title,
		Level:           est.Level,
		Count:           r.count,
		SalaryPHP:       est.SalaryPHP,
		SalarySource:    est.Source,
		NightShift:      nightShift,
		WorkspaceType:   r.workspace,
		UnitMonthlyCost: unit,
		WorkspaceFee:    r.fee.Monthly,
		MonthlyCost:     unit * float64(r.count),
		SetupFee:        r.fee.Setup * float64(r.count),
	}
}

func resolveCurrency(req domain.QuoteRequest) string {
	if c := pricing.NormalizeCurrency(req.Currency); c != "" {
		return c
	}
	if req.UserLocation != nil {
		if c := pricing.CurrencyForCountry(req.UserLocation.CountryCode); c != "" {
			return c
		}
	}
	return pricing.DefaultCurrency
}

// trimKeys returns m keyed by trimmed titles. A key that is already trimmed
// wins over a padded duplicate.
func trimKeys[V any](m map[string]V) map[string]V {
	if len(m) == 0 {
		return m
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		if strings.TrimSpace(k) == k {
			out[k] = v
		}
	}
	for k, v := range m {
		t := strings.TrimSpace(k)
		if _, taken := out[t]; !taken {
			out[t] = v
		}
	}
	return out
}

func prepareRoles(req domain.QuoteRequest, currency string) ([]pricedRole, error) {
	if len(req.Roles) == 0 {
		return nil, &domain.ErrValidation{Field: "roles", Message: "at least one role is required"}
	}

	out := make([]pricedRole, 0, len(req.Roles))
	for i, role := range req.Roles {
		role.Title = strings.TrimSpace(role.Title)
		if role.Title == "" {
			return nil, &domain.ErrValidation{Field: fmt.Sprintf("roles[%d].title", i), Message: "title is required"}
		}
		if role.Industry == "" {
			role.Industry = req.Industry
		}
		if role.Level != "" && !role.Level.Valid() {
			return nil, &domain.ErrValidation{Field: fmt.Sprintf("roles[%d].level", i), Message: "level must be entry, mid or senior"}
		}

		count := req.RoleCount[role.Title]
		if count < 1 {
			count = 1
		}

		ws := req.SetupSelections[role.Title]
		if ws == "" {
			ws = req.BulkSetup
		}
		if ws == "" {
			ws = domain.WorkspaceWFH
		}
		// The facility line item covers every seat once office space is taken.
		if req.OfficeSpaceSelected {
			ws = domain.WorkspaceOfficeSpace
		} else if ws == domain.WorkspaceOfficeSpace {
			return nil, &domain.ErrValidation{Field: fmt.Sprintf("roles[%d].workspaceType", i), Message: "Office Space requires officeSpaceSelected and an officeSize"}
		}
		fee, err := pricing.WorkspaceFee(currency, ws)
		if err != nil {
			return nil, err
		}

		out = append(out, pricedRole{role: role, count: count, workspace: ws, fee: fee})
	}
	return out, nil
}
