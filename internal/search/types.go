package search

// Strategy selects how a query is executed against the vector store.
// The set is closed; Engine.Search returns an error for unknown values.
type Strategy string

const (
	// StrategySemantic runs a single embedding-similarity query, preceded
	// by domain-synonym expansion.
	StrategySemantic Strategy = "semantic"
	// StrategyHybrid blends embedding similarity with a lexical score.
	StrategyHybrid Strategy = "hybrid"
	// StrategyMultiVector fans out the base query plus one sub-query per
	// requested framework and business scenario, then merges by result id.
	StrategyMultiVector Strategy = "multi_vector"
	// StrategyAdaptive analyzes the query text and picks one of the above.
	StrategyAdaptive Strategy = "adaptive"
)

// Filters narrow a search to matching passage metadata.
type Filters struct {
	// Frameworks restricts results to passages tagged with these frameworks.
	Frameworks []string `json:"frameworks,omitempty"`
	// BusinessStages restricts results to matching lifecycle stages.
	BusinessStages []string `json:"business_stages,omitempty"`
	// Complexity restricts results to one complexity tag.
	Complexity string `json:"complexity,omitempty"`
	// Category restricts results to one content category.
	Category string `json:"category,omitempty"`
}

// PerformanceParams tune a single search call.
type PerformanceParams struct {
	// MaxResults caps the result set; 0 selects a count automatically
	// from query breadth.
	MaxResults int `json:"max_results,omitempty"`
	// SimilarityThreshold drops passages scoring below it when > 0.
	SimilarityThreshold float32 `json:"similarity_threshold,omitempty"`
	// TimeoutSeconds is passed opaquely to the underlying store via context.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
	// CacheDurationMinutes makes the request cacheable when > 0.
	CacheDurationMinutes int `json:"cache_duration_minutes,omitempty"`
}

// Query is one search request against the knowledge corpus.
type Query struct {
	// Text is the query text.
	Text string `json:"text"`
	// Strategy selects the search strategy; empty defaults to semantic.
	Strategy Strategy `json:"strategy,omitempty"`
	// Filters narrow the searched passages.
	Filters Filters `json:"filters,omitempty"`
	// Scenarios are business scenarios used for multi-vector sub-queries.
	Scenarios []string `json:"scenarios,omitempty"`
	// Performance tunes result count, threshold, and caching.
	Performance PerformanceParams `json:"performance,omitempty"`
}

// Result is one scored passage returned by the engine.
type Result struct {
	// ID is the passage id (vector-store point id).
	ID string `json:"id"`
	// Title is the passage title.
	Title string `json:"title"`
	// Content is the passage text.
	Content string `json:"content"`
	// ContentPreview is a truncated form of Content for display.
	ContentPreview string `json:"content_preview"`
	// Category is the content category.
	Category string `json:"category,omitempty"`
	// Similarity is the 0-1 relevance score from the store, possibly
	// blended with a lexical score under the hybrid strategy.
	Similarity float32 `json:"similarity"`
	// FrameworkTags are the business frameworks the passage is tagged with.
	FrameworkTags []string `json:"framework_tags,omitempty"`
	// BusinessPhase is the lifecycle stage tag ("" means phase-agnostic).
	BusinessPhase string `json:"business_phase,omitempty"`
	// Complexity is the complexity tag ("beginner", "intermediate", "advanced").
	Complexity string `json:"complexity,omitempty"`
}
