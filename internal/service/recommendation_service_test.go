package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const candidatesAnswer = "Here you go:\n```json\n" + `[
  {"name": "Liza Manalo", "title": "Bookkeeper", "experienceYears": 5, "skills": ["Xero"], "expectedSalary": 42000, "matchScore": 140},
  {"name": "", "expectedSalary": 30000},
  {"name": "Ramon Dizon", "experienceYears": 3, "skills": ["QuickBooks"], "expectedSalary": 38001, "matchScore": 81}
]` + "\n```"

func TestRecommend_FromLLM(t *testing.T) {
	llm := &mockLLM{answers: []string{candidatesAnswer}}
	svc := service.NewRecommendationService(llm, zap.NewNop())

	resp, err := svc.Recommend(context.Background(), domain.RecommendationRequest{
		Role: "Bookkeeper", Level: domain.LevelMid, Industry: "Accounting",
	})
	require.NoError(t, err)

	assert.Equal(t, "llm", resp.Source)
	require.Len(t, resp.RecommendedCandidates, 2, "invalid entries are dropped")
	assert.Equal(t, 100, resp.RecommendedCandidates[0].MatchScore)
	assert.Equal(t, "Bookkeeper", resp.RecommendedCandidates[1].Title)
	assert.Equal(t, 40001.0, resp.AverageSalary)
	assert.Equal(t, 2, resp.TotalCandidates)
	assert.True(t, strings.Contains(llm.prompts[0], "Accounting"))
}

func TestRecommend_FractionalNumbersAreRounded(t *testing.T) {
	answer := `[{"name": "Liza Dizon", "title": "Support Agent", "experienceYears": 2.5, "skills": ["Zendesk"], "expectedSalary": 31500.5, "matchScore": 87.5}]`
	svc := service.NewRecommendationService(&mockLLM{answers: []string{answer}}, zap.NewNop())

	resp, err := svc.Recommend(context.Background(), domain.RecommendationRequest{
		Role: "Support Agent", Level: domain.LevelMid, MemberCount: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "llm", resp.Source)
	require.Len(t, resp.RecommendedCandidates, 1)
	c := resp.RecommendedCandidates[0]
	assert.Equal(t, "Liza Dizon", c.Name)
	assert.Equal(t, 88, c.MatchScore)
	assert.Equal(t, 3, c.ExperienceYears)
	assert.Equal(t, 31500.5, c.ExpectedSalary)
}

func TestRecommend_HeuristicFallback(t *testing.T) {
	cases := map[string]*mockLLM{
		"llm error":   {err: errors.New("timeout")},
		"malformed":   {answers: []string{"Sorry, I can't help with that."}},
		"all invalid": {answers: []string{`[{"name": "", "expectedSalary": 0}]`}},
		"empty array": {answers: []string{`[]`}},
	}
	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			svc := service.NewRecommendationService(llm, zap.NewNop())
			resp, err := svc.Recommend(context.Background(), domain.RecommendationRequest{
				Role: "Bookkeeper", Level: domain.LevelSenior, MemberCount: 3,
			})
			require.NoError(t, err)
			assert.Equal(t, "heuristic", resp.Source)
			require.Len(t, resp.RecommendedCandidates, 3)

			// 80000 spread ±10%
			assert.Equal(t, 72000.0, resp.RecommendedCandidates[0].ExpectedSalary)
			assert.Equal(t, 80000.0, resp.RecommendedCandidates[1].ExpectedSalary)
			assert.Equal(t, 88000.0, resp.RecommendedCandidates[2].ExpectedSalary)
			assert.Equal(t, 80000.0, resp.AverageSalary)
		})
	}
}

func TestRecommend_CountIsBounded(t *testing.T) {
	svc := service.NewRecommendationService(&mockLLM{err: errors.New("down")}, zap.NewNop())

	resp, err := svc.Recommend(context.Background(), domain.RecommendationRequest{Role: "Agent", Level: domain.LevelEntry})
	require.NoError(t, err)
	assert.Len(t, resp.RecommendedCandidates, 3)

	resp, err = svc.Recommend(context.Background(), domain.RecommendationRequest{Role: "Agent", Level: domain.LevelEntry, MemberCount: 50})
	require.NoError(t, err)
	assert.Len(t, resp.RecommendedCandidates, 10)
}

func TestRecommend_Errors(t *testing.T) {
	t.Run("no llm configured", func(t *testing.T) {
		svc := service.NewRecommendationService(nil, zap.NewNop())
		_, err := svc.Recommend(context.Background(), domain.RecommendationRequest{Role: "Agent", Level: domain.LevelEntry})
		var cerr *domain.ErrConfiguration
		assert.True(t, errors.As(err, &cerr))
	})

	svc := service.NewRecommendationService(&mockLLM{}, zap.NewNop())
	for name, req := range map[string]domain.RecommendationRequest{
		"missing role":  {Level: domain.LevelMid},
		"missing level": {Role: "Agent"},
		"bad level":     {Role: "Agent", Level: "principal"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Recommend(context.Background(), req)
			var verr *domain.ErrValidation
			assert.True(t, errors.As(err, &verr))
		})
	}
}
