package query

import "strings"

// Intent classifies what the user is trying to accomplish with a question.
type Intent string

const (
	IntentLearning        Intent = "learning"
	IntentImplementation  Intent = "implementation"
	IntentTroubleshooting Intent = "troubleshooting"
	IntentBenchmarking    Intent = "benchmarking"
	IntentValidation      Intent = "validation"
	IntentOptimization    Intent = "optimization"
	IntentResearch        Intent = "research"
	IntentPlanning        Intent = "planning"
)

// knownIntents is the closed set of intents the pipeline understands.
var knownIntents = map[Intent]struct{}{
	IntentLearning:        {},
	IntentImplementation:  {},
	IntentTroubleshooting: {},
	IntentBenchmarking:    {},
	IntentValidation:      {},
	IntentOptimization:    {},
	IntentResearch:        {},
	IntentPlanning:        {},
}

// Valid reports whether the intent is one of the known intent values.
func (i Intent) Valid() bool {
	_, ok := knownIntents[i]
	return ok
}

// FrameworkSignal is a detected business framework with its relevance to the question.
type FrameworkSignal struct {
	// Name is the framework identifier (e.g., "grand_slam_offers").
	Name string `json:"name"`
	// Relevance is the classifier's confidence that the framework applies (0-1).
	Relevance float64 `json:"relevance"`
}

// Classification is the pre-classified form of a user question.
// It is produced by an upstream classifier and consumed read-only by
// every downstream pipeline stage.
type Classification struct {
	// OriginalText is the user's question verbatim.
	OriginalText string `json:"original_text"`
	// Intent is the detected query intent.
	Intent Intent `json:"intent"`
	// Frameworks are the detected business frameworks with relevance scores.
	Frameworks []FrameworkSignal `json:"frameworks,omitempty"`
	// BusinessStages are detected lifecycle stage signals (e.g., "startup", "scaling").
	BusinessStages []string `json:"business_stages,omitempty"`
	// Industry is an optional industry hint (e.g., "saas").
	Industry string `json:"industry,omitempty"`
	// FunctionalAreas are optional functional-area hints (e.g., "marketing", "sales").
	FunctionalAreas []string `json:"functional_areas,omitempty"`
	// DesiredComplexity is the preferred content complexity ("beginner", "intermediate", "advanced").
	DesiredComplexity string `json:"desired_complexity,omitempty"`
	// Urgency is how time-sensitive the question is ("low", "medium", "high").
	Urgency string `json:"urgency,omitempty"`
}

// Validate checks that the classification carries the fields every
// downstream stage requires. A failing classification must be rejected
// before any search is attempted.
func (c *Classification) Validate() error {
	if strings.TrimSpace(c.OriginalText) == "" {
		return &ValidationError{Field: "original_text", Message: "cannot be empty"}
	}
	if c.Intent == "" {
		return &ValidationError{Field: "intent", Message: "cannot be empty"}
	}
	if !c.Intent.Valid() {
		return &ValidationError{Field: "intent", Message: "unknown intent " + string(c.Intent)}
	}
	for _, fw := range c.Frameworks {
		if fw.Name == "" {
			return &ValidationError{Field: "frameworks", Message: "framework name cannot be empty"}
		}
		if fw.Relevance < 0 || fw.Relevance > 1 {
			return &ValidationError{Field: "frameworks", Message: "relevance must be in [0,1] for " + fw.Name}
		}
	}
	return nil
}

// FrameworksAbove returns the frameworks whose relevance exceeds the threshold,
// preserving declaration order.
func (c *Classification) FrameworksAbove(threshold float64) []FrameworkSignal {
	var out []FrameworkSignal
	for _, fw := range c.Frameworks {
		if fw.Relevance > threshold {
			out = append(out, fw)
		}
	}
	return out
}

// FrameworkNames returns all detected framework names in declaration order.
func (c *Classification) FrameworkNames() []string {
	names := make([]string, 0, len(c.Frameworks))
	for _, fw := range c.Frameworks {
		names = append(names, fw.Name)
	}
	return names
}
