package service_test

import (
	"context"
	"errors"
	"sync"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/pricing"
)

// --- Mocks ---

type mockLLM struct {
	mu      sync.Mutex
	answers []string
	err     error
	prompts []string
}

func (m *mockLLM) Complete(_ context.Context, prompt string) (*domain.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.answers) == 0 {
		return nil, errors.New("no scripted answer")
	}
	text := m.answers[0]
	if len(m.answers) > 1 {
		m.answers = m.answers[1:]
	}
	return &domain.Completion{Text: text, PromptTokens: 10, CompletionTokens: 5}, nil
}

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type mockRates struct {
	value float64
	err   error
	calls int
}

func (m *mockRates) Rate(_ context.Context, from, to string) (domain.ExchangeRate, error) {
	m.calls++
	if m.err != nil {
		return domain.ExchangeRate{}, m.err
	}
	v := m.value
	if from == to {
		v = 1
	}
	return domain.ExchangeRate{From: from, To: to, Value: v, Source: "primary"}, nil
}

type mockEstimator struct {
	mu     sync.Mutex
	byRole map[string]domain.SalaryEstimate
	calls  map[string]int
}

func newMockEstimator(byRole map[string]domain.SalaryEstimate) *mockEstimator {
	return &mockEstimator{byRole: byRole, calls: make(map[string]int)}
}

func (m *mockEstimator) Estimate(_ context.Context, role domain.RoleRequest) domain.SalaryEstimate {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[role.Title]++
	if est, ok := m.byRole[role.Title]; ok {
		return est
	}
	return domain.SalaryEstimate{SalaryPHP: pricing.HeuristicSalary(domain.LevelEntry), Level: domain.LevelEntry, Source: domain.SalarySourceHeuristic}
}

type failingQuoteStore struct{}

func (failingQuoteStore) SaveQuote(context.Context, string, *domain.Quote) error {
	return errors.New("insert failed")
}

// failingViews fails every tracking write.
type failingViews struct{}

func (failingViews) IncrementView(context.Context, domain.ViewDelta) (*domain.ContentView, error) {
	return nil, errors.New("db down")
}
func (failingViews) MostViewed(context.Context, string) (*domain.ContentView, error) {
	return nil, errors.New("db down")
}
func (failingViews) ListViews(context.Context, string) ([]domain.ContentView, error) {
	return nil, errors.New("db down")
}
func (failingViews) RekeyViews(context.Context, string, string) error { return errors.New("db down") }
