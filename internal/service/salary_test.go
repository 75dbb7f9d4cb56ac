package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/observability"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/service"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHeuristicLevel(t *testing.T) {
	cases := map[string]domain.Level{
		"Customer Service Manager": domain.LevelSenior,
		"Team Lead":                domain.LevelSenior,
		"Solutions Architect":      domain.LevelSenior,
		"Data Analyst":             domain.LevelMid,
		"Software Engineer":        domain.LevelMid,
		"Staff Accountant":         domain.LevelMid,
		"Customer Service Rep":     domain.LevelEntry,
		"Virtual Assistant":        domain.LevelEntry,
		"Team-Lead (Night Shift)":  domain.LevelSenior,
		"Leadership Trainer":       domain.LevelEntry,
		"Headset Technician":       domain.LevelEntry,
	}
	for title, want := range cases {
		assert.Equal(t, want, service.HeuristicLevel(title), title)
	}
}

func TestHeuristicEstimate_IndustryDoesNotRaiseLevel(t *testing.T) {
	est := service.HeuristicEstimate(domain.RoleRequest{Title: "Customer Service Representative", Industry: "Lead Generation"})
	assert.Equal(t, domain.LevelEntry, est.Level)
	assert.Equal(t, 25000.0, est.SalaryPHP)
}

func TestHeuristicEstimate_DesiredLevelWins(t *testing.T) {
	est := service.HeuristicEstimate(domain.RoleRequest{Title: "Senior Developer", Level: domain.LevelEntry})
	assert.Equal(t, domain.LevelEntry, est.Level)
	assert.Equal(t, 25000.0, est.SalaryPHP)
	assert.Equal(t, domain.SalarySourceHeuristic, est.Source)

	est = service.HeuristicEstimate(domain.RoleRequest{Title: "Senior Developer", Level: "guru"})
	assert.Equal(t, domain.LevelSenior, est.Level)
	assert.Equal(t, 80000.0, est.SalaryPHP)
}

func TestSalaryEstimator_UsesLLM(t *testing.T) {
	llm := &mockLLM{answers: []string{"Sure!\n```json\n{\"salary\": 52000, \"level\": \"mid\"}\n```"}}
	est := service.NewSalaryEstimator(llm, observability.NewMetrics(), zap.NewNop())

	got := est.Estimate(context.Background(), domain.RoleRequest{Title: "Bookkeeper", Industry: "Finance"})
	assert.Equal(t, domain.SalaryEstimate{SalaryPHP: 52000, Level: domain.LevelMid, Source: domain.SalarySourceLLM}, got)
	assert.Contains(t, llm.prompts[0], `"Bookkeeper"`)
	assert.Contains(t, llm.prompts[0], "Finance")
}

func TestSalaryEstimator_FallsBack(t *testing.T) {
	cases := map[string]*mockLLM{
		"overloaded":    {err: &domain.ErrUpstreamOverloaded{Service: "anthropic", Status: 529, Attempts: 4}},
		"other error":   {err: errors.New("boom")},
		"malformed":     {answers: []string{"I'd say around fifty thousand."}},
		"zero salary":   {answers: []string{`{"salary": 0, "level": "mid"}`}},
		"negative":      {answers: []string{`{"salary": -5, "level": "mid"}`}},
		"unknown level": {answers: []string{`{"salary": 30000, "level": "guru"}`}},
		"string salary": {answers: []string{`{"salary": "30000", "level": "mid"}`}},
	}
	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			est := service.NewSalaryEstimator(llm, observability.NewMetrics(), zap.NewNop())
			got := est.Estimate(context.Background(), domain.RoleRequest{Title: "Project Manager"})
			assert.Equal(t, domain.SalarySourceHeuristic, got.Source)
			assert.Equal(t, domain.LevelSenior, got.Level)
			assert.Equal(t, 80000.0, got.SalaryPHP)
		})
	}
}

func TestSalaryEstimator_NoLLM(t *testing.T) {
	metrics := observability.NewMetrics()
	est := service.NewSalaryEstimator(nil, metrics, zap.NewNop())

	got := est.Estimate(context.Background(), domain.RoleRequest{Title: "Chat Support"})
	assert.Equal(t, domain.SalarySourceHeuristic, got.Source)
	assert.Equal(t, 1.0, metrics.GetQuoteSnapshot().SalaryFallbackRate)
}

func TestSalaryEstimator_EstimateAllOncePerTitle(t *testing.T) {
	llm := &mockLLM{answers: []string{`{"salary": 30000, "level": "entry"}`}}
	est := service.NewSalaryEstimator(llm, observability.NewMetrics(), zap.NewNop())

	out := est.EstimateAll(context.Background(), []domain.RoleRequest{
		{Title: "CSR"}, {Title: "CSR"}, {Title: "QA Analyst"},
	})
	assert.Len(t, out, 2)
	assert.Equal(t, 2, llm.calls())
}
