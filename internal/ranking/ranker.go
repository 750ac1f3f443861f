package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"advisor-ai/internal/contextutil"
	"advisor-ai/internal/search"
)

const (
	// diversifyKeepFirst results are always retained regardless of overlap.
	diversifyKeepFirst = 3
	// diversifyOverlapLimit excludes a result when its concept overlap with
	// already-kept results reaches the limit.
	diversifyOverlapLimit = 0.7
	maxKeyConcepts        = 8
)

// implementationIntentMarkers are the query phrases that trigger the
// implementation-score boost for approachable passages.
var implementationIntentMarkers = []string{"implement", "how to", "execute"}

// Ranker re-scores raw search results against the business context of the
// query. Ranking is a pure function of its inputs given a deterministic
// score provider.
type Ranker struct {
	scores ScoreProvider
}

// NewRanker creates a ranker using the given score provider for the
// authority and recency components.
func NewRanker(scores ScoreProvider) *Ranker {
	return &Ranker{scores: scores}
}

// Rank scores, deduplicates, sorts, and optionally diversifies results.
// Output is ordered by non-increasing final relevance score.
func (r *Ranker) Rank(ctx context.Context, results []search.Result, q search.Query, opts Options) ([]EnhancedResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("ranking requires the search query text")
	}

	weights := opts.Weights
	if weights.isZero() {
		weights = DefaultWeights()
	}

	deduplicated := deduplicate(results)
	enhanced := make([]EnhancedResult, 0, len(deduplicated))
	for _, result := range deduplicated {
		enhanced = append(enhanced, r.score(ctx, result, q, weights))
	}

	sort.SliceStable(enhanced, func(i, j int) bool {
		return enhanced[i].FinalRelevanceScore > enhanced[j].FinalRelevanceScore
	})

	if opts.Diversify {
		enhanced = diversify(enhanced, opts.MaxResults)
	} else if opts.MaxResults > 0 && len(enhanced) > opts.MaxResults {
		enhanced = enhanced[:opts.MaxResults]
	}

	logger.DebugContext(ctx, "ranking completed", "input", len(results), "output", len(enhanced))
	return enhanced, nil
}

// score computes the six component scores and their weighted sum.
func (r *Ranker) score(ctx context.Context, result search.Result, q search.Query, weights WeightingScheme) EnhancedResult {
	var explanations []string

	semantic := float64(result.Similarity)

	business := businessContextScore(result, q.Filters, &explanations)
	alignment := frameworkAlignmentScore(result, q.Text, &explanations)
	implementation := implementationScore(result, q.Text, &explanations)

	authority := r.scores.AuthorityScore(ctx, result)
	recency := r.scores.RecencyScore(ctx, result)

	final := weights.Semantic*semantic +
		weights.BusinessContext*business +
		weights.FrameworkAlignment*alignment +
		weights.Implementation*implementation +
		weights.Authority*authority +
		weights.Recency*recency

	complexity := result.Complexity
	if complexity == "" {
		complexity = "intermediate"
	}

	explanation := "similarity only"
	if len(explanations) > 0 {
		explanation = strings.Join(explanations, "; ")
	}

	return EnhancedResult{
		Result:                  result,
		SemanticScore:           semantic,
		BusinessContextScore:    business,
		FrameworkAlignmentScore: alignment,
		ImplementationScore:     implementation,
		AuthorityScore:          authority,
		RecencyScore:            recency,
		FinalRelevanceScore:     final,
		Explanation:             explanation,
		KeyConcepts:             keyConcepts(result),
		EstimatedComplexity:     complexity,
	}
}

// businessContextScore: +0.3 for a stage match (or phase-agnostic passage),
// up to +0.4 proportional to matching framework tags, +0.2 for a complexity
// match, capped at 1.
func businessContextScore(result search.Result, filters search.Filters, explanations *[]string) float64 {
	var score float64

	if result.BusinessPhase == "" {
		score += 0.3
	} else {
		for _, stage := range filters.BusinessStages {
			if strings.EqualFold(stage, result.BusinessPhase) {
				score += 0.3
				*explanations = append(*explanations, "matches "+result.BusinessPhase+" stage")
				break
			}
		}
	}

	if len(result.FrameworkTags) > 0 && len(filters.Frameworks) > 0 {
		requested := make(map[string]struct{}, len(filters.Frameworks))
		for _, fw := range filters.Frameworks {
			requested[strings.ToLower(fw)] = struct{}{}
		}
		var matched int
		for _, tag := range result.FrameworkTags {
			if _, ok := requested[strings.ToLower(tag)]; ok {
				matched++
			}
		}
		if matched > 0 {
			score += 0.4 * float64(matched) / float64(len(result.FrameworkTags))
			*explanations = append(*explanations, fmt.Sprintf("%d/%d framework tags requested", matched, len(result.FrameworkTags)))
		}
	}

	if filters.Complexity != "" && strings.EqualFold(filters.Complexity, result.Complexity) {
		score += 0.2
		*explanations = append(*explanations, "complexity fit")
	}

	if score > 1 {
		score = 1
	}
	return score
}

// frameworkAlignmentScore: +0.25 per framework tag named verbatim in the
// query text, capped at 1. Tags are compared with underscores spelled as
// spaces, case-insensitively.
func frameworkAlignmentScore(result search.Result, queryText string, explanations *[]string) float64 {
	if len(result.FrameworkTags) == 0 {
		return 0
	}
	lower := strings.ToLower(queryText)
	var score float64
	for _, tag := range result.FrameworkTags {
		phrase := strings.ToLower(strings.ReplaceAll(tag, "_", " "))
		if phrase != "" && strings.Contains(lower, phrase) {
			score += 0.25
			*explanations = append(*explanations, tag+" named in query")
		}
	}
	if score > 1 {
		score = 1
	}
	return score
}

// implementationScore: neutral 0.5 baseline, boosted for approachable
// passages when the query signals implementation intent.
func implementationScore(result search.Result, queryText string, explanations *[]string) float64 {
	if !hasImplementationIntent(queryText) {
		return 0.5
	}
	switch strings.ToLower(result.Complexity) {
	case "beginner":
		*explanations = append(*explanations, "beginner material for implementation intent")
		return 0.9
	case "intermediate":
		*explanations = append(*explanations, "intermediate material for implementation intent")
		return 0.7
	default:
		return 0.5
	}
}

func hasImplementationIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range implementationIntentMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// keyConcepts extracts deduplicated concept tokens from the title and
// framework tags.
func keyConcepts(result search.Result) []string {
	seen := make(map[string]struct{})
	var concepts []string
	add := func(token string) {
		if _, dup := seen[token]; dup || len(concepts) >= maxKeyConcepts {
			return
		}
		seen[token] = struct{}{}
		concepts = append(concepts, token)
	}
	for _, token := range search.FilterStopwords(search.Tokenize(result.Title)) {
		add(token)
	}
	for _, tag := range result.FrameworkTags {
		for _, token := range search.Tokenize(strings.ReplaceAll(tag, "_", " ")) {
			add(token)
		}
	}
	return concepts
}

// deduplicate drops repeated passages, identified by id or by title plus a
// content prefix when the id is empty.
func deduplicate(results []search.Result) []search.Result {
	seen := make(map[string]struct{}, len(results))
	out := make([]search.Result, 0, len(results))
	for _, result := range results {
		key := result.ID
		if key == "" {
			content := result.Content
			if len(content) > 40 {
				content = content[:40]
			}
			key = result.Title + "|" + content
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, result)
	}
	return out
}

// diversify walks the sorted list keeping the first three results
// unconditionally, then admits a result only while its concept overlap with
// everything kept so far stays under the limit.
func diversify(sorted []EnhancedResult, maxResults int) []EnhancedResult {
	if maxResults <= 0 {
		maxResults = len(sorted)
	}

	seen := make(map[string]struct{})
	kept := make([]EnhancedResult, 0, len(sorted))
	for i, result := range sorted {
		if len(kept) >= maxResults {
			break
		}
		if i >= diversifyKeepFirst && conceptOverlap(result.KeyConcepts, seen) >= diversifyOverlapLimit {
			continue
		}
		kept = append(kept, result)
		for _, concept := range result.KeyConcepts {
			seen[concept] = struct{}{}
		}
	}
	return kept
}

// conceptOverlap is the fraction of concepts already seen.
func conceptOverlap(concepts []string, seen map[string]struct{}) float64 {
	if len(concepts) == 0 {
		return 0
	}
	var overlap int
	for _, concept := range concepts {
		if _, ok := seen[concept]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(concepts))
}
