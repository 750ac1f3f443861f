package ranking

import "advisor-ai/internal/search"

// WeightingScheme weights the six component scores into the final relevance
// score. Weights need not sum to 1, but one request must rank every result
// under the same scheme for scores to be comparable.
type WeightingScheme struct {
	Semantic           float64 `json:"semantic"`
	BusinessContext    float64 `json:"business_context"`
	FrameworkAlignment float64 `json:"framework_alignment"`
	Implementation     float64 `json:"implementation"`
	Authority          float64 `json:"authority"`
	Recency            float64 `json:"recency"`
}

// DefaultWeights is the scheme used when the caller does not supply one.
func DefaultWeights() WeightingScheme {
	return WeightingScheme{
		Semantic:           0.35,
		BusinessContext:    0.25,
		FrameworkAlignment: 0.15,
		Implementation:     0.10,
		Authority:          0.10,
		Recency:            0.05,
	}
}

// isZero reports whether no weight was supplied at all.
func (w WeightingScheme) isZero() bool {
	return w.Semantic == 0 && w.BusinessContext == 0 && w.FrameworkAlignment == 0 &&
		w.Implementation == 0 && w.Authority == 0 && w.Recency == 0
}

// EnhancedResult is a search result re-scored against the business context.
type EnhancedResult struct {
	search.Result

	// SemanticScore is the store similarity carried over.
	SemanticScore float64 `json:"semantic_score"`
	// BusinessContextScore reflects stage, framework, and complexity fit.
	BusinessContextScore float64 `json:"business_context_score"`
	// FrameworkAlignmentScore reflects framework tags named in the query.
	FrameworkAlignmentScore float64 `json:"framework_alignment_score"`
	// ImplementationScore reflects how actionable the passage is for the query.
	ImplementationScore float64 `json:"implementation_score"`
	// AuthorityScore is the source-authority tier score (pre-computed input).
	AuthorityScore float64 `json:"authority_score"`
	// RecencyScore is the publication-age score (pre-computed input).
	RecencyScore float64 `json:"recency_score"`
	// FinalRelevanceScore is the weighted sum of the six component scores.
	FinalRelevanceScore float64 `json:"final_relevance_score"`

	// Explanation describes what contributed to the score.
	Explanation string `json:"explanation"`
	// KeyConcepts are extracted from title and framework tags, used for
	// diversification.
	KeyConcepts []string `json:"key_concepts,omitempty"`
	// EstimatedComplexity is the complexity tag, defaulted when absent.
	EstimatedComplexity string `json:"estimated_complexity"`
}

// Options tune one ranking call.
type Options struct {
	// Weights is the weighting scheme; a zero value selects DefaultWeights.
	Weights WeightingScheme `json:"weights"`
	// Diversify drops near-duplicate results beyond the first three.
	Diversify bool `json:"diversify"`
	// MaxResults caps the output when > 0.
	MaxResults int `json:"max_results,omitempty"`
}
