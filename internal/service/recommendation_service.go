package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/llmjson"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/port"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/pricing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	defaultCandidates = 3
	maxCandidates     = 10
)

// RecommendationService proposes talent-pool candidates for a role.
type RecommendationService struct {
	llm    port.LLMClient
	logger *zap.Logger
}

// NewRecommendationService creates the service. llm may be nil, in which
// case every call fails with *domain.ErrConfiguration.
func NewRecommendationService(llm port.LLMClient, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{llm: llm, logger: logger}
}

func recommendationPrompt(req domain.RecommendationRequest, n int) string {
	var b strings.Builder
	b.WriteString("You are a recruiter for a Philippine business process outsourcing firm.\n")
	fmt.Fprintf(&b, "Propose %d realistic candidate profiles for a %s-level %q", n, req.Level, req.Role)
	if req.Industry != "" {
		fmt.Fprintf(&b, " in the %s industry", req.Industry)
	}
	b.WriteString(".\nExpected salaries are gross monthly amounts in Philippine pesos.\n")
	b.WriteString("Answer with a JSON array only. Each element must be:\n")
	b.WriteString(`{"name": string, "title": string, "experienceYears": number, "skills": [string], "expectedSalary": number, "matchScore": number (0-100), "summary": string}`)
	return b.String()
}

// Recommend returns candidate profiles. Model failures degrade to generated
// placeholder candidates priced at the tier's heuristic salary.
func (s *RecommendationService) Recommend(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResponse, error) {
	if s.llm == nil {
		return nil, &domain.ErrConfiguration{Setting: "ANTHROPIC_API_KEY"}
	}
	req.Role = strings.TrimSpace(req.Role)
	if req.Role == "" {
		return nil, &domain.ErrValidation{Field: "role", Message: "role is required"}
	}
	if req.Level == "" {
		return nil, &domain.ErrValidation{Field: "level", Message: "level is required"}
	}
	if !req.Level.Valid() {
		return nil, &domain.ErrValidation{Field: "level", Message: "level must be entry, mid or senior"}
	}

	n := req.MemberCount
	if n <= 0 {
		n = defaultCandidates
	}
	n = min(n, maxCandidates)

	ctx, span := tracer.Start(ctx, "RecommendationService.Recommend")
	defer span.End()
	span.SetAttributes(attribute.String("role.title", req.Role), attribute.Int("candidates.requested", n))

	candidates, source := s.fromLLM(ctx, req, n)
	if len(candidates) == 0 {
		candidates, source = heuristicCandidates(req, n), "heuristic"
	}
	span.SetAttributes(attribute.String("candidates.source", source))

	var sum float64
	for _, c := range candidates {
		sum += c.ExpectedSalary
	}
	return &domain.RecommendationResponse{
		Role:                  req.Role,
		Level:                 req.Level,
		RecommendedCandidates: candidates,
		AverageSalary:         math.Round(sum / float64(len(candidates))),
		TotalCandidates:       len(candidates),
		Source:                source,
	}, nil
}

// llmCandidate is the model's view of a candidate. Numbers may be
// fractional; they are rounded into domain.Candidate.
type llmCandidate struct {
	Name            string   `json:"name"`
	Title           string   `json:"title"`
	ExperienceYears float64  `json:"experienceYears"`
	Skills          []string `json:"skills"`
	ExpectedSalary  float64  `json:"expectedSalary"`
	MatchScore      float64  `json:"matchScore"`
	Summary         string   `json:"summary"`
}

func (s *RecommendationService) fromLLM(ctx context.Context, req domain.RecommendationRequest, n int) ([]domain.Candidate, string) {
	completion, err := s.llm.Complete(ctx, recommendationPrompt(req, n))
	if err != nil {
		s.logger.Warn("recommendations: llm failed, using heuristic candidates",
			zap.String("role", req.Role),
			zap.Error(err),
		)
		return nil, ""
	}

	parsed, ok := llmjson.Parse[[]llmCandidate](completion.Text).Value()
	if !ok {
		s.logger.Warn("recommendations: malformed llm answer, using heuristic candidates",
			zap.String("role", req.Role),
			zap.String("answer", truncate(completion.Text, 200)),
		)
		return nil, ""
	}

	out := make([]domain.Candidate, 0, n)
	for _, p := range parsed {
		if p.Name == "" || p.ExpectedSalary <= 0 {
			continue
		}
		c := domain.Candidate{
			Name:            p.Name,
			Title:           p.Title,
			ExperienceYears: int(math.Round(max(p.ExperienceYears, 0))),
			Skills:          p.Skills,
			ExpectedSalary:  p.ExpectedSalary,
			MatchScore:      int(math.Round(min(max(p.MatchScore, 0), 100))),
			Summary:         p.Summary,
		}
		if c.Title == "" {
			c.Title = req.Role
		}
		out = append(out, c)
		if len(out) == n {
			break
		}
	}
	return out, "llm"
}

var placeholderNames = []string{
	"Maria Santos", "Jose Reyes", "Ana Cruz", "Mark Bautista", "Kristine Garcia",
	"Paolo Mendoza", "Camille Torres", "Miguel Ramos", "Bea Villanueva", "Carlo Navarro",
}

var experienceByLevel = map[domain.Level]int{
	domain.LevelEntry:  1,
	domain.LevelMid:    4,
	domain.LevelSenior: 8,
}

// heuristicCandidates spreads salaries ±10% around the tier salary.
func heuristicCandidates(req domain.RecommendationRequest, n int) []domain.Candidate {
	base := pricing.HeuristicSalary(req.Level)
	years := experienceByLevel[req.Level]

	out := make([]domain.Candidate, 0, n)
	for i := 0; i < n; i++ {
		spread := 0.0
		if n > 1 {
			spread = -0.10 + 0.20*float64(i)/float64(n-1)
		}
		out = append(out, domain.Candidate{
			Name:            placeholderNames[i%len(placeholderNames)],
			Title:           req.Role,
			ExperienceYears: years + i%3,
			Skills:          []string{req.Role, "Client communication", "English proficiency"},
			ExpectedSalary:  math.Round(base * (1 + spread)),
			MatchScore:      90 - 3*i,
			Summary:         fmt.Sprintf("%s-level %s from the talent pool.", req.Level, req.Role),
		})
	}
	return out
}
