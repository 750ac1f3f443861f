package respond

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"advisor-ai/internal/assembly"
	"advisor-ai/internal/contextutil"
	"advisor-ai/internal/query"
)

const (
	// defaultQualityFloor excludes candidates at or below this overall
	// quality before ranking.
	defaultQualityFloor = 0.3
	// confidenceEpsilon is the half-width of every confidence interval in a
	// batch.
	confidenceEpsilon = 0.05
	// authoritySourceTarget is the source count at which the authority
	// score stops being discounted for thin sourcing.
	authoritySourceTarget = 3
	// complexityMismatchPenalty scales down business alignment when sources
	// do not match the requested complexity.
	complexityMismatchPenalty = 0.4
)

// Ranker orders candidate responses for one query.
type Ranker struct{}

// NewRanker creates a response ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank scores every candidate, drops those at or below the quality floor,
// and returns the survivors in descending final-score order. Ranking is a
// pure function of the request.
func (r *Ranker) Rank(ctx context.Context, req RankingRequest) (*RankedSet, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Query.Text == "" {
		return nil, &query.ValidationError{Field: "query.text", Message: "must not be empty"}
	}
	weights := req.Criteria.Weights
	if weights.isZero() {
		weights = DefaultWeightScheme()
	}
	floor := req.Criteria.QualityFloor
	if floor == 0 {
		floor = defaultQualityFloor
	}

	set := &RankedSet{}
	for _, candidate := range req.Candidates {
		quality := overallQuality(candidate)
		if quality <= floor {
			set.Excluded = append(set.Excluded, candidate.ID)
			continue
		}
		components := scoreComponents(candidate, req.Query)
		final := weights.SemanticRelevance*components.SemanticRelevance +
			weights.BusinessAlignment*components.BusinessAlignment +
			weights.FrameworkQuality*components.FrameworkQuality +
			weights.ImplementationPracticality*components.ImplementationPracticality +
			weights.SourceAuthority*components.SourceAuthority +
			weights.ContentFreshness*components.ContentFreshness +
			weights.IntentMatch*components.IntentMatch +
			weights.ComplexityAppropriateness*components.ComplexityAppropriateness

		set.Ranked = append(set.Ranked, RankedResponse{
			CandidateID:        candidate.ID,
			FinalWeightedScore: final,
			OverallQuality:     quality,
			Components:         components,
			Confidence: ConfidenceInterval{
				Lower: final - confidenceEpsilon,
				Upper: final + confidenceEpsilon,
			},
			Explanation: explain(components),
			Suggestions: suggest(candidate),
		})
	}

	if len(set.Ranked) == 0 {
		set.Recommendation = "no qualifying candidates: every candidate scored at or below the quality floor; regenerate with more sources or a different assembly strategy"
		logger.WarnContext(ctx, "response ranking produced no qualifying candidates",
			"candidates", len(req.Candidates), "floor", floor)
		return set, nil
	}

	sort.SliceStable(set.Ranked, func(i, j int) bool {
		return set.Ranked[i].FinalWeightedScore > set.Ranked[j].FinalWeightedScore
	})
	n := len(set.Ranked)
	for i := range set.Ranked {
		set.Ranked[i].Percentile = 100 * float64(n-i) / float64(n)
	}
	set.Recommendation = fmt.Sprintf("candidate %s ranks highest with score %.2f", set.Ranked[0].CandidateID, set.Ranked[0].FinalWeightedScore)

	logger.DebugContext(ctx, "response ranking completed",
		"ranked", n, "excluded", len(set.Excluded))
	return set, nil
}

// overallQuality is the mean of the seven assembly quality metrics.
func overallQuality(candidate CandidateResponse) float64 {
	if candidate.Response == nil {
		return 0
	}
	q := candidate.Response.Quality
	return (q.SourceDiversity + q.Completeness + q.Actionability +
		q.EvidenceStrength + q.BusinessRelevance + q.CitationAccuracy + q.Coherence) / 7
}

func scoreComponents(candidate CandidateResponse, qc QueryContext) ComponentScores {
	var components ComponentScores

	if len(candidate.Sources) > 0 {
		var similarity, business, authority, recency float64
		var mismatched int
		for _, src := range candidate.Sources {
			similarity += float64(src.Similarity)
			business += src.BusinessContextScore
			authority += src.AuthorityScore
			recency += src.RecencyScore
			if qc.DesiredComplexity != "" && !strings.EqualFold(src.EstimatedComplexity, qc.DesiredComplexity) {
				mismatched++
			}
		}
		n := float64(len(candidate.Sources))
		components.SemanticRelevance = clamp01(similarity / n)
		components.ContentFreshness = clamp01(recency / n)

		// Thinly sourced candidates get a discounted authority score.
		discount := n / authoritySourceTarget
		if discount > 1 {
			discount = 1
		}
		components.SourceAuthority = clamp01(authority / n * discount)

		mismatchFraction := float64(mismatched) / n
		components.BusinessAlignment = clamp01(business / n * (1 - complexityMismatchPenalty*mismatchFraction))
		components.ComplexityAppropriateness = clamp01(1 - mismatchFraction)
	}

	if resp := candidate.Response; resp != nil {
		components.FrameworkQuality = cappedCount(len(resp.Content.FrameworkNotes), 2)
		components.ImplementationPracticality = resp.Quality.Actionability
		if len(resp.Roadmap.Immediate)+len(resp.Roadmap.ShortTerm)+len(resp.Roadmap.LongTerm) == 0 {
			components.ImplementationPracticality *= 0.5
		}
		components.IntentMatch = intentMatch(qc.Intent, resp)
	}
	return components
}

// intentMatch scores how well the response shape serves the query intent.
func intentMatch(intent query.Intent, resp *assembly.Response) float64 {
	switch intent {
	case query.IntentImplementation, query.IntentOptimization, query.IntentTroubleshooting:
		return 0.4 + 0.6*resp.Quality.Actionability
	case query.IntentLearning, query.IntentResearch:
		return 0.4 + 0.6*resp.Quality.Completeness
	case query.IntentPlanning:
		if len(resp.Roadmap.LongTerm)+len(resp.Roadmap.ShortTerm) > 0 {
			return 0.9
		}
		return 0.4
	case query.IntentBenchmarking, query.IntentValidation:
		return 0.4 + 0.6*resp.Quality.EvidenceStrength
	default:
		return 0.5
	}
}

func explain(c ComponentScores) string {
	var strengths, weaknesses []string
	note := func(name string, score float64) {
		switch {
		case score >= 0.7:
			strengths = append(strengths, name)
		case score < 0.4:
			weaknesses = append(weaknesses, name)
		}
	}
	note("semantic relevance", c.SemanticRelevance)
	note("business alignment", c.BusinessAlignment)
	note("framework application", c.FrameworkQuality)
	note("implementation practicality", c.ImplementationPracticality)
	note("source authority", c.SourceAuthority)
	note("content freshness", c.ContentFreshness)
	note("intent match", c.IntentMatch)
	note("complexity fit", c.ComplexityAppropriateness)

	var parts []string
	if len(strengths) > 0 {
		parts = append(parts, "strong on "+strings.Join(strengths, ", "))
	}
	if len(weaknesses) > 0 {
		parts = append(parts, "weak on "+strings.Join(weaknesses, ", "))
	}
	if len(parts) == 0 {
		return "balanced across all ranking dimensions"
	}
	return strings.Join(parts, "; ")
}

// suggest derives prioritized improvement suggestions from the assembly
// quality metrics.
func suggest(candidate CandidateResponse) []Suggestion {
	if candidate.Response == nil {
		return nil
	}
	q := candidate.Response.Quality
	var suggestions []Suggestion
	if q.Completeness < 0.7 {
		suggestions = append(suggestions, Suggestion{
			Kind:       "content_enhancement",
			Detail:     "expand the detailed explanation and add missing answer sections",
			Priority:   "high",
			Difficulty: "medium",
		})
	}
	if q.SourceDiversity < 0.6 {
		suggestions = append(suggestions, Suggestion{
			Kind:       "source_diversification",
			Detail:     "draw on additional source categories to broaden coverage",
			Priority:   "high",
			Difficulty: "high",
		})
	}
	if q.CitationAccuracy < 0.8 {
		suggestions = append(suggestions, Suggestion{
			Kind:       "citation_improvement",
			Detail:     "link every evidence statement to a retrieved passage",
			Priority:   "medium",
			Difficulty: "low",
		})
	}
	if q.Coherence < 0.7 {
		suggestions = append(suggestions, Suggestion{
			Kind:       "clarity_enhancement",
			Detail:     "restructure the answer so summary, explanation, and actions flow together",
			Priority:   "medium",
			Difficulty: "medium",
		})
	}
	return suggestions
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func cappedCount(count, target int) float64 {
	if target <= 0 || count <= 0 {
		return 0
	}
	ratio := float64(count) / float64(target)
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}
