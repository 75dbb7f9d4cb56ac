package domain

// ============================================================
// Candidate recommendations
// ============================================================

// RecommendationRequest is the body of POST /api/ai-candidate-recommendations.
type RecommendationRequest struct {
	Role        string `json:"role"`
	Level       Level  `json:"level"`
	Industry    string `json:"industry,omitempty"`
	MemberCount int    `json:"memberCount,omitempty"`
}

// Candidate is a recommended talent-pool profile.
type Candidate struct {
	Name            string   `json:"name"`
	Title           string   `json:"title"`
	ExperienceYears int      `json:"experienceYears"`
	Skills          []string `json:"skills"`
	ExpectedSalary  float64  `json:"expectedSalary"` // PHP per month
	MatchScore      int      `json:"matchScore"`
	Summary         string   `json:"summary,omitempty"`
}

// RecommendationResponse is returned by the recommendation endpoint.
type RecommendationResponse struct {
	Role                  string      `json:"role"`
	Level                 Level       `json:"level"`
	RecommendedCandidates []Candidate `json:"recommendedCandidates"`
	AverageSalary         float64     `json:"averageSalary"`
	TotalCandidates       int         `json:"totalCandidates"`
	Source                string      `json:"source"` // llm, heuristic
}

// Completion is a raw LLM answer with token usage.
type Completion struct {
	Text             string `json:"text"`
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
}
