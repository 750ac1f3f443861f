package respond

import (
	"time"

	"advisor-ai/internal/assembly"
	"advisor-ai/internal/query"
	"advisor-ai/internal/ranking"
)

// CandidateResponse is one assembled answer competing for the same query.
type CandidateResponse struct {
	ID          string                   `json:"id"`
	Response    *assembly.Response       `json:"response"`
	Sources     []ranking.EnhancedResult `json:"sources"`
	GeneratedBy string                   `json:"generated_by"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// WeightScheme weights the eight ranking dimensions. Weights need not sum
// to 1; candidates in one request are always scored under the same scheme.
type WeightScheme struct {
	SemanticRelevance          float64 `json:"semantic_relevance"`
	BusinessAlignment          float64 `json:"business_alignment"`
	FrameworkQuality           float64 `json:"framework_quality"`
	ImplementationPracticality float64 `json:"implementation_practicality"`
	SourceAuthority            float64 `json:"source_authority"`
	ContentFreshness           float64 `json:"content_freshness"`
	IntentMatch                float64 `json:"intent_match"`
	ComplexityAppropriateness  float64 `json:"complexity_appropriateness"`
}

// DefaultWeightScheme favors relevance and business alignment.
func DefaultWeightScheme() WeightScheme {
	return WeightScheme{
		SemanticRelevance:          0.25,
		BusinessAlignment:          0.20,
		FrameworkQuality:           0.12,
		ImplementationPracticality: 0.12,
		SourceAuthority:            0.11,
		ContentFreshness:           0.05,
		IntentMatch:                0.10,
		ComplexityAppropriateness:  0.05,
	}
}

func (w WeightScheme) isZero() bool {
	return w == WeightScheme{}
}

// QueryContext frames the candidates being ranked.
type QueryContext struct {
	Text              string       `json:"text"`
	Intent            query.Intent `json:"intent"`
	DesiredComplexity string       `json:"desired_complexity"`
	BusinessStage     string       `json:"business_stage"`
}

// Criteria controls one ranking run.
type Criteria struct {
	Weights      WeightScheme `json:"weights"`
	QualityFloor float64      `json:"quality_floor"`
}

// ComponentScores is the per-dimension breakdown for one candidate.
type ComponentScores struct {
	SemanticRelevance          float64 `json:"semantic_relevance"`
	BusinessAlignment          float64 `json:"business_alignment"`
	FrameworkQuality           float64 `json:"framework_quality"`
	ImplementationPracticality float64 `json:"implementation_practicality"`
	SourceAuthority            float64 `json:"source_authority"`
	ContentFreshness           float64 `json:"content_freshness"`
	IntentMatch                float64 `json:"intent_match"`
	ComplexityAppropriateness  float64 `json:"complexity_appropriateness"`
}

// ConfidenceInterval brackets a final score with a batch-wide epsilon.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Suggestion is one prioritized improvement recommendation.
type Suggestion struct {
	Kind       string `json:"kind"`
	Detail     string `json:"detail"`
	Priority   string `json:"priority"`
	Difficulty string `json:"difficulty"`
}

// RankedResponse is one candidate with its ranking verdict.
type RankedResponse struct {
	CandidateID        string             `json:"candidate_id"`
	FinalWeightedScore float64            `json:"final_weighted_score"`
	OverallQuality     float64            `json:"overall_quality"`
	Components         ComponentScores    `json:"component_scores"`
	Percentile         float64            `json:"percentile"`
	Confidence         ConfidenceInterval `json:"confidence_interval"`
	Explanation        string             `json:"explanation"`
	Suggestions        []Suggestion       `json:"improvement_suggestions"`
}

// RankingRequest bundles candidates with the context and criteria.
type RankingRequest struct {
	Query      QueryContext        `json:"query"`
	Candidates []CandidateResponse `json:"candidates"`
	Criteria   Criteria            `json:"criteria"`
}

// RankedSet is the ordered ranking output.
type RankedSet struct {
	Ranked         []RankedResponse `json:"ranked_responses"`
	Excluded       []string         `json:"excluded_candidates"`
	Recommendation string           `json:"recommendation"`
}
