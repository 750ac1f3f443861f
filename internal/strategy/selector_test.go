package strategy

import (
	"context"
	"errors"
	"testing"

	"advisor-ai/internal/query"
	"advisor-ai/internal/search"
)

func classification(intent query.Intent, frameworks ...query.FrameworkSignal) *query.Classification {
	return &query.Classification{
		OriginalText: "How do I get more customers?",
		Intent:       intent,
		Frameworks:   frameworks,
	}
}

func TestSelectRejectsInvalidClassification(t *testing.T) {
	s := NewSelector()

	_, err := s.Select(context.Background(), &query.Classification{OriginalText: "", Intent: query.IntentLearning})
	var vErr *query.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	_, err = s.Select(context.Background(), &query.Classification{OriginalText: "q", Intent: "wondering"})
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for unknown intent, got %v", err)
	}
}

func TestSelectGatesFrameworksOnRelevance(t *testing.T) {
	s := NewSelector()

	strategies, err := s.Select(context.Background(), classification(query.IntentLearning,
		query.FrameworkSignal{Name: "grand_slam_offers", Relevance: 0.8},
		query.FrameworkSignal{Name: "core_four", Relevance: 0.3}, // at gate, not above
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(strategies) != 1 {
		t.Fatalf("expected 1 strategy, got %d", len(strategies))
	}
	if strategies[0].Framework != "grand_slam_offers" {
		t.Fatalf("expected grand_slam_offers, got %s", strategies[0].Framework)
	}
}

func TestSelectCapsAtThreeStrategies(t *testing.T) {
	s := NewSelector()

	strategies, err := s.Select(context.Background(), classification(query.IntentLearning,
		query.FrameworkSignal{Name: "grand_slam_offers", Relevance: 0.9},
		query.FrameworkSignal{Name: "core_four", Relevance: 0.8},
		query.FrameworkSignal{Name: "value_ladder", Relevance: 0.7},
		query.FrameworkSignal{Name: "lead_magnet", Relevance: 0.6},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(strategies) != maxStrategies {
		t.Fatalf("expected %d strategies, got %d", maxStrategies, len(strategies))
	}
}

func TestSelectOrdersByEffectiveness(t *testing.T) {
	s := NewSelector()

	strategies, err := s.Select(context.Background(), classification(query.IntentLearning,
		query.FrameworkSignal{Name: "core_four", Relevance: 0.5},
		query.FrameworkSignal{Name: "grand_slam_offers", Relevance: 0.9},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strategies[0].Framework != "grand_slam_offers" {
		t.Fatalf("expected highest-relevance framework first, got %s", strategies[0].Framework)
	}
	for i := 1; i < len(strategies); i++ {
		if strategies[i].Effectiveness > strategies[i-1].Effectiveness {
			t.Fatal("strategies not sorted by effectiveness")
		}
	}
}

func TestSelectFallsBackToGenericStrategy(t *testing.T) {
	s := NewSelector()

	strategies, err := s.Select(context.Background(), classification(query.IntentLearning))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(strategies) != 1 {
		t.Fatalf("expected single generic strategy, got %d", len(strategies))
	}
	if len(strategies[0].Approaches) != 1 {
		t.Fatalf("expected one approach, got %d", len(strategies[0].Approaches))
	}
	if strategies[0].Approaches[0].ExpandedQuery != "How do I get more customers?" {
		t.Fatalf("generic approach should carry the original question")
	}
}

func TestImplementationIntentGetsProgressionApproach(t *testing.T) {
	s := NewSelector()

	strategies, err := s.Select(context.Background(), classification(query.IntentImplementation,
		query.FrameworkSignal{Name: "grand_slam_offers", Relevance: 0.8},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	approaches := strategies[0].Approaches
	if len(approaches) != 2 {
		t.Fatalf("expected 2 approaches for implementation intent, got %d", len(approaches))
	}
	if approaches[0].Kind != ApproachProgressionAware {
		t.Fatalf("expected progression-aware approach first, got %s", approaches[0].Kind)
	}
	if approaches[0].SearchStrategy != search.StrategyHybrid {
		t.Fatalf("progression approach should run hybrid, got %s", approaches[0].SearchStrategy)
	}
}

func TestApproachCarriesVocabularyAndFilters(t *testing.T) {
	s := NewSelector()

	c := classification(query.IntentLearning, query.FrameworkSignal{Name: "grand_slam_offers", Relevance: 0.8})
	c.BusinessStages = []string{"startup"}
	c.DesiredComplexity = "beginner"

	strategies, err := s.Select(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	approach := strategies[0].Approaches[0]
	if approach.Kind != ApproachComponentBased {
		t.Fatalf("expected component-based approach, got %s", approach.Kind)
	}
	if len(approach.Vocabulary) == 0 {
		t.Fatal("expected expansion vocabulary")
	}
	if approach.ExpandedQuery == c.OriginalText {
		t.Fatal("expected query expansion beyond the original question")
	}
	if len(approach.Filters.Frameworks) != 1 || approach.Filters.Frameworks[0] != "grand_slam_offers" {
		t.Fatalf("expected framework filter, got %+v", approach.Filters)
	}
	if approach.Filters.Complexity != "beginner" {
		t.Fatalf("expected complexity filter, got %q", approach.Filters.Complexity)
	}
	if len(approach.Filters.BusinessStages) != 1 || approach.Filters.BusinessStages[0] != "startup" {
		t.Fatalf("expected stage filter, got %+v", approach.Filters.BusinessStages)
	}
}

func TestStageMatchRaisesEffectiveness(t *testing.T) {
	s := NewSelector()

	base := classification(query.IntentLearning, query.FrameworkSignal{Name: "grand_slam_offers", Relevance: 0.8})
	withStage := classification(query.IntentLearning, query.FrameworkSignal{Name: "grand_slam_offers", Relevance: 0.8})
	withStage.BusinessStages = []string{"startup"}

	baseStrategies, err := s.Select(context.Background(), base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stageStrategies, err := s.Select(context.Background(), withStage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stageStrategies[0].Effectiveness <= baseStrategies[0].Effectiveness {
		t.Fatalf("expected stage match to raise effectiveness: %f vs %f",
			stageStrategies[0].Effectiveness, baseStrategies[0].Effectiveness)
	}
}

func TestUnknownFrameworkGetsDerivedProfile(t *testing.T) {
	s := NewSelector()

	strategies, err := s.Select(context.Background(), classification(query.IntentLearning,
		query.FrameworkSignal{Name: "brand_archetypes", Relevance: 0.8},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approach := strategies[0].Approaches[0]
	if len(approach.Vocabulary) == 0 {
		t.Fatal("derived profile should still produce vocabulary")
	}
}
