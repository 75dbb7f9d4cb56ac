package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/observability"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/llmjson"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/port"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/pricing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

var (
	seniorKeywords = []string{"manager", "senior", "lead", "director", "head", "principal", "architect"}
	midKeywords    = []string{"specialist", "coordinator", "analyst", "supervisor", "associate", "developer", "engineer", "accountant"}
)

// HeuristicLevel classifies a role by whole-word keywords in its title.
// Industry is ignored: "Lead Generation" says nothing about seniority.
func HeuristicLevel(title string) domain.Level {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		words[w] = true
	}
	for _, kw := range seniorKeywords {
		if words[kw] {
			return domain.LevelSenior
		}
	}
	for _, kw := range midKeywords {
		if words[kw] {
			return domain.LevelMid
		}
	}
	return domain.LevelEntry
}

// HeuristicEstimate is the salary estimate used whenever the model cannot
// answer. The desired level wins over keywords when it is valid.
func HeuristicEstimate(role domain.RoleRequest) domain.SalaryEstimate {
	level := role.Level
	if !level.Valid() {
		level = HeuristicLevel(role.Title)
	}
	return domain.SalaryEstimate{
		SalaryPHP: pricing.HeuristicSalary(level),
		Level:     level,
		Source:    domain.SalarySourceHeuristic,
	}
}

// SalaryEstimator asks the language model for a monthly PHP salary and
// degrades to HeuristicEstimate on any failure. A nil LLM means heuristics
// only.
type SalaryEstimator struct {
	llm     port.LLMClient
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewSalaryEstimator creates the estimator. llm may be nil.
func NewSalaryEstimator(llm port.LLMClient, metrics *observability.Metrics, logger *zap.Logger) *SalaryEstimator {
	return &SalaryEstimator{llm: llm, metrics: metrics, logger: logger}
}

type llmSalary struct {
	Salary float64      `json:"salary"`
	Level  domain.Level `json:"level"`
}

func salaryPrompt(role domain.RoleRequest) string {
	var b strings.Builder
	b.WriteString("You are a compensation analyst for business process outsourcing in the Philippines.\n")
	fmt.Fprintf(&b, "Estimate the typical gross monthly base salary in Philippine pesos (PHP) for the role %q", role.Title)
	if role.Industry != "" {
		fmt.Fprintf(&b, " in the %s industry", role.Industry)
	}
	b.WriteString(".\n")
	if role.Level.Valid() {
		fmt.Fprintf(&b, "The client wants a %s-level hire.\n", role.Level)
	}
	b.WriteString(`Classify the seniority as one of "entry", "mid" or "senior".` + "\n")
	b.WriteString(`Answer with JSON only, exactly: {"salary": <number>, "level": "<entry|mid|senior>"}`)
	return b.String()
}

// Estimate never fails. The result always has a positive salary and a valid
// level.
func (e *SalaryEstimator) Estimate(ctx context.Context, role domain.RoleRequest) domain.SalaryEstimate {
	ctx, span := tracer.Start(ctx, "SalaryEstimator.Estimate")
	defer span.End()
	span.SetAttributes(attribute.String("role.title", role.Title))

	est := e.estimate(ctx, role)
	e.metrics.IncrSalarySource(string(est.Source))
	span.SetAttributes(attribute.String("salary.source", string(est.Source)))
	return est
}

func (e *SalaryEstimator) estimate(ctx context.Context, role domain.RoleRequest) domain.SalaryEstimate {
	if e.llm == nil {
		return HeuristicEstimate(role)
	}

	completion, err := e.llm.Complete(ctx, salaryPrompt(role))
	if err != nil {
		e.logger.Warn("salary estimate: llm failed, using heuristic",
			zap.String("role", role.Title),
			zap.Error(err),
		)
		return HeuristicEstimate(role)
	}

	parsed, ok := llmjson.Parse[llmSalary](completion.Text).Value()
	if !ok || parsed.Salary <= 0 || !parsed.Level.Valid() {
		e.logger.Warn("salary estimate: unusable llm answer, using heuristic",
			zap.String("role", role.Title),
			zap.String("answer", truncate(completion.Text, 200)),
		)
		return HeuristicEstimate(role)
	}

	return domain.SalaryEstimate{
		SalaryPHP: parsed.Salary,
		Level:     parsed.Level,
		Source:    domain.SalarySourceLLM,
	}
}

// EstimateAll resolves one estimate per distinct title, in request order.
func (e *SalaryEstimator) EstimateAll(ctx context.Context, roles []domain.RoleRequest) map[string]domain.SalaryEstimate {
	out := make(map[string]domain.SalaryEstimate, len(roles))
	for _, r := range roles {
		if _, done := out[r.Title]; done {
			continue
		}
		out[r.Title] = e.Estimate(ctx, r)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
