package strategy

import (
	"context"
	"sort"
	"strings"

	"advisor-ai/internal/contextutil"
	"advisor-ai/internal/query"
	"advisor-ai/internal/search"
)

// Approach is one way to expand and filter a framework's search.
type Approach string

const (
	// ApproachComponentBased targets the framework's named components.
	ApproachComponentBased Approach = "component_based"
	// ApproachScenarioDriven targets concrete business situations.
	ApproachScenarioDriven Approach = "scenario_driven"
	// ApproachProgressionAware targets stage-by-stage implementation material.
	ApproachProgressionAware Approach = "progression_aware"
	// ApproachIntegrationFocused targets how frameworks combine.
	ApproachIntegrationFocused Approach = "integration_focused"
)

const (
	// relevanceGate is the classification relevance a framework must exceed
	// before its strategies are considered.
	relevanceGate = 0.3
	// maxStrategies caps how many framework strategies one request executes.
	maxStrategies = 3
)

// SearchApproach is a ready-to-execute expansion of the user's question.
type SearchApproach struct {
	// Kind is the approach variant.
	Kind Approach
	// ExpandedQuery is the question plus approach vocabulary.
	ExpandedQuery string
	// Vocabulary are the expansion terms that were appended.
	Vocabulary []string
	// Filters are the criteria the search engine should apply.
	Filters search.Filters
	// Scenarios are business scenarios for multi-vector sub-queries.
	Scenarios []string
	// SearchStrategy is the engine strategy this approach runs under.
	SearchStrategy search.Strategy
	// Weight reflects how strongly this approach matches the intent.
	Weight float64
}

// FrameworkStrategy bundles the approaches chosen for one framework.
type FrameworkStrategy struct {
	// Framework is the framework tag this strategy serves.
	Framework string
	// Effectiveness orders strategies; higher runs first.
	Effectiveness float64
	// Approaches are executed independently and merged by the caller.
	Approaches []SearchApproach
}

// Selector chooses search strategies from a pre-classified question.
type Selector struct{}

// NewSelector creates a new strategy selector.
func NewSelector() *Selector {
	return &Selector{}
}

// Select returns up to three applicable framework strategies sorted by
// effectiveness. Frameworks are gated on classification relevance; a request
// with no framework above the gate gets a single generic strategy so the
// search engine always has something to execute.
func (s *Selector) Select(ctx context.Context, c *query.Classification) ([]FrameworkStrategy, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := c.Validate(); err != nil {
		return nil, err
	}

	gated := c.FrameworksAbove(relevanceGate)
	if len(gated) == 0 {
		logger.DebugContext(ctx, "no framework above relevance gate, using generic strategy")
		return []FrameworkStrategy{genericStrategy(c)}, nil
	}

	strategies := make([]FrameworkStrategy, 0, len(gated))
	for _, signal := range gated {
		strategies = append(strategies, buildStrategy(c, signal))
	}

	sort.SliceStable(strategies, func(i, j int) bool {
		return strategies[i].Effectiveness > strategies[j].Effectiveness
	})
	if len(strategies) > maxStrategies {
		strategies = strategies[:maxStrategies]
	}

	logger.InfoContext(ctx, "strategies selected",
		"count", len(strategies),
		"top_framework", strategies[0].Framework,
		"top_effectiveness", strategies[0].Effectiveness,
	)
	return strategies, nil
}

// buildStrategy assembles the approaches for one gated framework.
func buildStrategy(c *query.Classification, signal query.FrameworkSignal) FrameworkStrategy {
	profile := profileFor(signal.Name)

	var approaches []SearchApproach
	var bestAffinity float64
	for _, kind := range approachesForIntent(c.Intent) {
		affinity := intentAffinity(c.Intent, kind)
		if affinity > bestAffinity {
			bestAffinity = affinity
		}
		approaches = append(approaches, buildApproach(c, signal.Name, profile, kind, affinity))
	}

	effectiveness := signal.Relevance*0.7 + bestAffinity*0.2
	if stageMatches(profile.stages, c.BusinessStages) {
		effectiveness += 0.1
	}

	return FrameworkStrategy{
		Framework:     signal.Name,
		Effectiveness: effectiveness,
		Approaches:    approaches,
	}
}

// buildApproach expands the question with the profile vocabulary for the
// approach kind and attaches filter criteria.
func buildApproach(c *query.Classification, framework string, profile frameworkProfile, kind Approach, weight float64) SearchApproach {
	var vocabulary []string
	var scenarios []string
	searchStrategy := search.StrategySemantic

	switch kind {
	case ApproachComponentBased:
		vocabulary = profile.components
	case ApproachScenarioDriven:
		vocabulary = profile.scenarios
		scenarios = profile.scenarios
		searchStrategy = search.StrategyMultiVector
	case ApproachProgressionAware:
		vocabulary = profile.progression
		searchStrategy = search.StrategyHybrid
	case ApproachIntegrationFocused:
		vocabulary = profile.integrations
		searchStrategy = search.StrategyMultiVector
	}

	expanded := c.OriginalText
	if len(vocabulary) > 0 {
		expanded += " " + strings.Join(vocabulary, " ")
	}

	return SearchApproach{
		Kind:           kind,
		ExpandedQuery:  expanded,
		Vocabulary:     vocabulary,
		Scenarios:      scenarios,
		SearchStrategy: searchStrategy,
		Weight:         weight,
		Filters: search.Filters{
			Frameworks:     []string{framework},
			BusinessStages: c.BusinessStages,
			Complexity:     c.DesiredComplexity,
		},
	}
}

// genericStrategy covers questions with no strong framework signal.
func genericStrategy(c *query.Classification) FrameworkStrategy {
	kind := ApproachComponentBased
	searchStrategy := search.StrategySemantic
	if c.Intent == query.IntentTroubleshooting {
		kind = ApproachScenarioDriven
		searchStrategy = search.StrategyHybrid
	}
	return FrameworkStrategy{
		Framework:     "",
		Effectiveness: 0.5,
		Approaches: []SearchApproach{
			{
				Kind:           kind,
				ExpandedQuery:  c.OriginalText,
				SearchStrategy: searchStrategy,
				Weight:         0.5,
				Filters: search.Filters{
					BusinessStages: c.BusinessStages,
					Complexity:     c.DesiredComplexity,
				},
			},
		},
	}
}

// approachesForIntent maps each intent to the approaches worth running, most
// specific first. At most two approaches run per framework to bound fan-out.
func approachesForIntent(intent query.Intent) []Approach {
	switch intent {
	case query.IntentImplementation:
		return []Approach{ApproachProgressionAware, ApproachComponentBased}
	case query.IntentTroubleshooting:
		return []Approach{ApproachScenarioDriven}
	case query.IntentPlanning:
		return []Approach{ApproachIntegrationFocused, ApproachProgressionAware}
	case query.IntentOptimization:
		return []Approach{ApproachScenarioDriven, ApproachIntegrationFocused}
	case query.IntentBenchmarking:
		return []Approach{ApproachScenarioDriven}
	case query.IntentValidation:
		return []Approach{ApproachIntegrationFocused}
	default: // learning, research
		return []Approach{ApproachComponentBased}
	}
}

// intentAffinity scores how well an approach serves an intent.
func intentAffinity(intent query.Intent, kind Approach) float64 {
	affinities := map[query.Intent]map[Approach]float64{
		query.IntentImplementation:  {ApproachProgressionAware: 0.9, ApproachComponentBased: 0.7},
		query.IntentTroubleshooting: {ApproachScenarioDriven: 0.9},
		query.IntentPlanning:        {ApproachIntegrationFocused: 0.85, ApproachProgressionAware: 0.7},
		query.IntentOptimization:    {ApproachScenarioDriven: 0.8, ApproachIntegrationFocused: 0.7},
		query.IntentBenchmarking:    {ApproachScenarioDriven: 0.75},
		query.IntentValidation:      {ApproachIntegrationFocused: 0.75},
		query.IntentLearning:        {ApproachComponentBased: 0.8},
		query.IntentResearch:        {ApproachComponentBased: 0.75},
	}
	if byKind, ok := affinities[intent]; ok {
		if affinity, ok := byKind[kind]; ok {
			return affinity
		}
	}
	return 0.5
}

func stageMatches(profileStages, requested []string) bool {
	if len(profileStages) == 0 || len(requested) == 0 {
		return false
	}
	for _, want := range requested {
		for _, have := range profileStages {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}
