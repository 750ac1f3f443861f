package assembly

import (
	"fmt"
	"time"

	"advisor-ai/internal/query"
	"advisor-ai/internal/ranking"
)

// SynthesisApproach selects the overall voice of the assembled answer.
type SynthesisApproach string

const (
	SynthesisComprehensive SynthesisApproach = "comprehensive"
	SynthesisFocused       SynthesisApproach = "focused"
	SynthesisEducational   SynthesisApproach = "educational"
	SynthesisPractical     SynthesisApproach = "practical"
)

// ContentOrganization is the closed set of content organizers. Every switch
// over this type must handle all four values.
type ContentOrganization string

const (
	OrganizeFrameworkBased  ContentOrganization = "framework_based"
	OrganizeActionOriented  ContentOrganization = "action_oriented"
	OrganizeProblemSolution ContentOrganization = "problem_solution"
	OrganizeEducational     ContentOrganization = "educational"
)

// Valid reports whether o is a known organization mode.
func (o ContentOrganization) Valid() bool {
	switch o {
	case OrganizeFrameworkBased, OrganizeActionOriented, OrganizeProblemSolution, OrganizeEducational:
		return true
	}
	return false
}

// RedundancyPolicy controls how near-duplicate source content is handled.
type RedundancyPolicy string

const (
	RedundancyMerge RedundancyPolicy = "merge"
	RedundancyKeep  RedundancyPolicy = "keep"
)

// GapPolicy controls what happens when the sources do not cover a topic.
type GapPolicy string

const (
	GapAcknowledge GapPolicy = "acknowledge"
	GapIgnore      GapPolicy = "ignore"
)

// Strategy bundles the four assembly policy axes.
type Strategy struct {
	Synthesis    SynthesisApproach   `json:"synthesis_approach"`
	Organization ContentOrganization `json:"content_organization"`
	Redundancy   RedundancyPolicy    `json:"redundancy_handling"`
	Gaps         GapPolicy           `json:"gap_handling"`
}

// DefaultStrategy is a comprehensive, framework-organized assembly that
// merges redundant content and acknowledges gaps.
func DefaultStrategy() Strategy {
	return Strategy{
		Synthesis:    SynthesisComprehensive,
		Organization: OrganizeFrameworkBased,
		Redundancy:   RedundancyMerge,
		Gaps:         GapAcknowledge,
	}
}

// QualityRequirements set the floor the assembled answer is measured against.
type QualityRequirements struct {
	MinSourceCount   int     `json:"min_source_count"`
	MaxLength        int     `json:"max_length"`
	CitationDensity  float64 `json:"citation_density"`
	EvidenceStrength float64 `json:"evidence_strength"`
}

// DefaultQualityRequirements expects at least three distinct sources.
func DefaultQualityRequirements() QualityRequirements {
	return QualityRequirements{
		MinSourceCount:   3,
		MaxLength:        4000,
		CitationDensity:  0.5,
		EvidenceStrength: 0.6,
	}
}

// BusinessContext carries the business framing of the question into
// assembly.
type BusinessContext struct {
	Stage             string   `json:"stage"`
	Frameworks        []string `json:"frameworks"`
	Scenarios         []string `json:"scenarios"`
	Urgency           string   `json:"urgency"`
	DesiredComplexity string   `json:"desired_complexity"`
}

// Context is the immutable input for one assembly attempt.
type Context struct {
	QueryText    string                   `json:"query_text"`
	Intent       query.Intent             `json:"intent"`
	Business     BusinessContext          `json:"business_context"`
	SourceChunks []ranking.EnhancedResult `json:"source_chunks"`
	Strategy     Strategy                 `json:"strategy"`
	Quality      QualityRequirements      `json:"quality_requirements"`
}

// Validate rejects a context missing the fields assembly cannot proceed
// without. Thin or empty source sets are allowed and degrade gracefully.
func (c *Context) Validate() error {
	if c.QueryText == "" {
		return &query.ValidationError{Field: "query_text", Message: "must not be empty"}
	}
	if c.Intent != "" && !c.Intent.Valid() {
		return &query.ValidationError{Field: "intent", Message: fmt.Sprintf("unknown intent %q", c.Intent)}
	}
	if c.Strategy.Organization != "" && !c.Strategy.Organization.Valid() {
		return &query.ValidationError{Field: "strategy.content_organization", Message: fmt.Sprintf("unknown organization %q", c.Strategy.Organization)}
	}
	return nil
}

// ActionableInsight is one recommended action, always traceable to sources.
type ActionableInsight struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Priority       string   `json:"priority"`
	Complexity     string   `json:"complexity"`
	Impact         string   `json:"impact"`
	Timeframe      string   `json:"timeframe"`
	SuccessMetrics []string `json:"success_metrics"`
	SourceIDs      []string `json:"source_ids"`
}

// Evidence links one supporting statement to the passage it came from.
type Evidence struct {
	Statement     string  `json:"statement"`
	SourceChunkID string  `json:"source_chunk_id"`
	Strength      float64 `json:"strength"`
}

// GeneratedContent is the textual body of an assembled answer.
type GeneratedContent struct {
	Summary             string              `json:"summary"`
	DetailedExplanation string              `json:"detailed_explanation"`
	FrameworkNotes      map[string]string   `json:"framework_notes,omitempty"`
	ActionableInsights  []ActionableInsight `json:"actionable_insights"`
	Evidence            []Evidence          `json:"evidence"`
	Limitations         []string            `json:"limitations"`
}

// QualityMetrics are the preliminary per-response quality scores, each 0-1.
type QualityMetrics struct {
	SourceDiversity   float64 `json:"source_diversity_score"`
	Completeness      float64 `json:"completeness_score"`
	Actionability     float64 `json:"actionability_score"`
	EvidenceStrength  float64 `json:"evidence_strength_score"`
	BusinessRelevance float64 `json:"business_relevance_score"`
	CitationAccuracy  float64 `json:"citation_accuracy_score"`
	Coherence         float64 `json:"coherence_score"`
}

// SourceIntegration records how the sources were used.
type SourceIntegration struct {
	PrimarySources     []string `json:"primary_sources"`
	SupportingSources  []string `json:"supporting_sources"`
	ConflictingSources []string `json:"conflicting_sources"`
	CrossReferences    []string `json:"cross_references"`
}

// RoadmapAction is one step of the implementation roadmap.
type RoadmapAction struct {
	Title     string `json:"title"`
	Timeframe string `json:"timeframe"`
	SourceID  string `json:"source_id,omitempty"`
}

// Roadmap buckets recommended actions by time horizon.
type Roadmap struct {
	Immediate  []RoadmapAction `json:"immediate"`
	ShortTerm  []RoadmapAction `json:"short_term"`
	LongTerm   []RoadmapAction `json:"long_term"`
	Milestones []string        `json:"milestones"`
	Risks      []string        `json:"risks"`
}

// Confidence summarizes how much the assembled answer can be trusted.
type Confidence struct {
	Overall                   float64 `json:"overall"`
	SourceReliability         float64 `json:"source_reliability"`
	ConsensusLevel            float64 `json:"consensus_level"`
	ImplementationFeasibility float64 `json:"implementation_feasibility"`
}

// Metadata describes the assembly run itself.
type Metadata struct {
	AssembledAt  time.Time           `json:"assembled_at"`
	Duration     time.Duration       `json:"duration"`
	Organization ContentOrganization `json:"organization"`
	SourceCount  int                 `json:"source_count"`
	Warnings     []string            `json:"assembly_warnings"`
}

// Response is the full assembled answer.
type Response struct {
	Content     GeneratedContent  `json:"generated_content"`
	Quality     QualityMetrics    `json:"quality_metrics"`
	Integration SourceIntegration `json:"source_integration"`
	Roadmap     Roadmap           `json:"implementation_roadmap"`
	Confidence  Confidence        `json:"confidence"`
	Metadata    Metadata          `json:"assembly_metadata"`
}
