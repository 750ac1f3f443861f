package ranking

import (
	"context"
	"reflect"
	"testing"

	"advisor-ai/internal/search"
)

func saasQuery() search.Query {
	return search.Query{
		Text: "How do I implement Grand Slam Offers for a SaaS startup?",
		Filters: search.Filters{
			Frameworks:     []string{"grand_slam_offers"},
			BusinessStages: []string{"startup"},
		},
	}
}

func TestRankEmptyQueryText(t *testing.T) {
	ranker := NewRanker(NewNeutralScoreProvider())

	_, err := ranker.Rank(context.Background(), nil, search.Query{Text: "   "}, Options{})
	if err == nil {
		t.Fatal("expected an error for empty query text")
	}
}

func TestRankImplementationScenario(t *testing.T) {
	ranker := NewRanker(NewNeutralScoreProvider())
	results := []search.Result{
		{
			ID:            "p1",
			Title:         "Building a Grand Slam Offer",
			Content:       "Step by step offer construction",
			Similarity:    0.8,
			FrameworkTags: []string{"grand_slam_offers"},
			BusinessPhase: "startup",
			Complexity:    "beginner",
		},
	}

	ranked, err := ranker.Rank(context.Background(), results, saasQuery(), Options{})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("got %d results, want 1", len(ranked))
	}

	got := ranked[0]
	if got.BusinessContextScore < 0.5 {
		t.Errorf("business context score = %.2f, want >= 0.5", got.BusinessContextScore)
	}
	if got.ImplementationScore < 0.7 {
		t.Errorf("implementation score = %.2f, want >= 0.7", got.ImplementationScore)
	}
	if got.FrameworkAlignmentScore != 0.25 {
		t.Errorf("framework alignment score = %.2f, want 0.25", got.FrameworkAlignmentScore)
	}
	if got.FinalRelevanceScore <= 0 {
		t.Errorf("final relevance score = %.2f, want > 0", got.FinalRelevanceScore)
	}
	if got.Explanation == "" {
		t.Error("expected a non-empty explanation")
	}
}

func TestRankOrderingNonIncreasing(t *testing.T) {
	ranker := NewRanker(NewNeutralScoreProvider())
	results := []search.Result{
		{ID: "low", Title: "Low", Content: "filler", Similarity: 0.2},
		{ID: "high", Title: "High", Content: "filler", Similarity: 0.95},
		{ID: "mid", Title: "Mid", Content: "filler", Similarity: 0.6},
	}

	ranked, err := ranker.Rank(context.Background(), results, search.Query{Text: "pricing"}, Options{})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].FinalRelevanceScore > ranked[i-1].FinalRelevanceScore {
			t.Fatalf("scores increase at position %d: %.3f > %.3f", i, ranked[i].FinalRelevanceScore, ranked[i-1].FinalRelevanceScore)
		}
	}
	if ranked[0].ID != "high" {
		t.Errorf("top result = %q, want high", ranked[0].ID)
	}
}

func TestRankDeduplicates(t *testing.T) {
	ranker := NewRanker(NewNeutralScoreProvider())
	results := []search.Result{
		{ID: "p1", Title: "Pricing", Content: "value based pricing", Similarity: 0.7},
		{ID: "p1", Title: "Pricing", Content: "value based pricing", Similarity: 0.7},
		{Title: "Anon", Content: "no identifier here", Similarity: 0.5},
		{Title: "Anon", Content: "no identifier here", Similarity: 0.5},
	}

	ranked, err := ranker.Rank(context.Background(), results, search.Query{Text: "pricing"}, Options{})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("got %d results after dedupe, want 2", len(ranked))
	}
}

func TestRankDiversifyKeepsFirstThree(t *testing.T) {
	ranker := NewRanker(NewNeutralScoreProvider())

	// Four near-identical results: the fourth overlaps fully and should be
	// excluded, while the first three survive despite overlapping.
	results := []search.Result{
		{ID: "a", Title: "Value Ladder Design", Similarity: 0.9, FrameworkTags: []string{"value_ladder"}},
		{ID: "b", Title: "Value Ladder Design", Similarity: 0.8, FrameworkTags: []string{"value_ladder"}},
		{ID: "c", Title: "Value Ladder Design", Similarity: 0.7, FrameworkTags: []string{"value_ladder"}},
		{ID: "d", Title: "Value Ladder Design", Similarity: 0.6, FrameworkTags: []string{"value_ladder"}},
		{ID: "e", Title: "Referral Engine Tactics", Similarity: 0.5, FrameworkTags: []string{"core_four"}},
	}

	ranked, err := ranker.Rank(context.Background(), results, search.Query{Text: "ladder"}, Options{Diversify: true})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.ID)
	}
	want := []string{"a", "b", "c", "e"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("diversified ids = %v, want %v", ids, want)
	}
}

func TestRankMaxResults(t *testing.T) {
	ranker := NewRanker(NewNeutralScoreProvider())
	results := []search.Result{
		{ID: "a", Title: "One", Similarity: 0.9},
		{ID: "b", Title: "Two", Similarity: 0.8},
		{ID: "c", Title: "Three", Similarity: 0.7},
	}

	ranked, err := ranker.Rank(context.Background(), results, search.Query{Text: "scaling"}, Options{MaxResults: 2})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("got %d results, want 2", len(ranked))
	}
}

func TestRankIdempotent(t *testing.T) {
	ranker := NewRanker(NewNeutralScoreProvider())
	results := []search.Result{
		{ID: "a", Title: "Lead Magnet Basics", Similarity: 0.9, FrameworkTags: []string{"lead_magnet"}, Complexity: "beginner"},
		{ID: "b", Title: "Scaling Operations", Similarity: 0.6, FrameworkTags: []string{"scaling_systems"}},
	}
	q := saasQuery()

	first, err := ranker.Rank(context.Background(), results, q, Options{Diversify: true})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	second, err := ranker.Rank(context.Background(), results, q, Options{Diversify: true})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("ranking the same inputs twice produced different output")
	}
}

func TestRankCustomWeights(t *testing.T) {
	ranker := NewRanker(StaticScoreProvider{Authority: 1.0, Recency: 0.0})
	results := []search.Result{{ID: "a", Title: "Anything", Similarity: 0.5}}

	ranked, err := ranker.Rank(context.Background(), results, search.Query{Text: "offers"}, Options{
		Weights: WeightingScheme{Authority: 1.0},
	})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if ranked[0].FinalRelevanceScore != 1.0 {
		t.Errorf("final score = %.2f, want 1.0 under authority-only weights", ranked[0].FinalRelevanceScore)
	}
}
