package respond

import (
	"context"
	"sort"
	"strings"

	"advisor-ai/internal/assembly"
)

// Dimension names for the deep quality rubric.
const (
	DimRelevance     = "relevance"
	DimAccuracy      = "accuracy"
	DimCompleteness  = "completeness"
	DimActionability = "actionability"
	DimClarity       = "clarity"
	DimAuthority     = "authority"
)

// Blend weights for the overall assessment score.
const (
	blendDimensions     = 0.40
	blendBusinessIntel  = 0.20
	blendFrameworks     = 0.15
	blendImplementation = 0.10
	blendCredibility    = 0.10
	blendExperience     = 0.05
)

// DimensionScore is one rubric dimension with its benchmark comparison.
type DimensionScore struct {
	Name          string  `json:"name"`
	Score         float64 `json:"score"`
	Criteria      string  `json:"criteria"`
	Benchmark     float64 `json:"benchmark"`
	AboveBaseline bool    `json:"above_baseline"`
}

// Assessment is the full quality-assessment output for one candidate.
type Assessment struct {
	CandidateID             string           `json:"candidate_id"`
	Dimensions              []DimensionScore `json:"dimensions"`
	BusinessIntelligence    float64          `json:"business_intelligence_score"`
	FrameworkIntegration    float64          `json:"framework_integration_score"`
	ImplementationReadiness float64          `json:"implementation_readiness_score"`
	SourceCredibility       float64          `json:"source_credibility_score"`
	UserExperience          float64          `json:"user_experience_score"`
	Overall                 float64          `json:"overall_score"`
}

// QualityAssessor runs the six-dimension rubric independently of the
// ranking weights.
type QualityAssessor struct {
	baselines map[string]float64
}

// NewQualityAssessor creates an assessor with the given historical
// baselines per dimension. Missing dimensions default to 0.6.
func NewQualityAssessor(baselines map[string]float64) *QualityAssessor {
	if baselines == nil {
		baselines = DefaultBaselines()
	}
	return &QualityAssessor{baselines: baselines}
}

// DefaultBaselines are the stored historical per-dimension baselines.
func DefaultBaselines() map[string]float64 {
	return map[string]float64{
		DimRelevance:     0.65,
		DimAccuracy:      0.70,
		DimCompleteness:  0.60,
		DimActionability: 0.55,
		DimClarity:       0.60,
		DimAuthority:     0.50,
	}
}

// Assess scores one candidate on the full rubric.
func (a *QualityAssessor) Assess(ctx context.Context, candidate CandidateResponse, qc QueryContext) Assessment {
	assessment := Assessment{CandidateID: candidate.ID}
	if candidate.Response == nil {
		return assessment
	}
	resp := candidate.Response

	dims := map[string]struct {
		score    float64
		criteria string
	}{
		DimRelevance: {
			score:    avgSimilarity(candidate),
			criteria: "answer is grounded in passages semantically close to the question",
		},
		DimAccuracy: {
			score:    resp.Quality.CitationAccuracy,
			criteria: "every claim traces to a retrieved passage",
		},
		DimCompleteness: {
			score:    resp.Quality.Completeness,
			criteria: "summary, explanation, actions, and evidence are all present",
		},
		DimActionability: {
			score:    resp.Quality.Actionability,
			criteria: "reader can act on the answer without further research",
		},
		DimClarity: {
			score:    resp.Quality.Coherence,
			criteria: "answer reads as one coherent narrative",
		},
		DimAuthority: {
			score:    avgAuthority(candidate),
			criteria: "sources are primary or expert-reviewed material",
		},
	}

	names := make([]string, 0, len(dims))
	for name := range dims {
		names = append(names, name)
	}
	sort.Strings(names)

	var dimTotal float64
	for _, name := range names {
		dim := dims[name]
		baseline, ok := a.baselines[name]
		if !ok {
			baseline = 0.6
		}
		assessment.Dimensions = append(assessment.Dimensions, DimensionScore{
			Name:          name,
			Score:         dim.score,
			Criteria:      dim.criteria,
			Benchmark:     baseline,
			AboveBaseline: dim.score >= baseline,
		})
		dimTotal += dim.score
	}
	dimAvg := dimTotal / float64(len(names))

	assessment.BusinessIntelligence = businessIntelligence(resp, qc)
	assessment.FrameworkIntegration = cappedCount(len(resp.Content.FrameworkNotes), 2)
	assessment.ImplementationReadiness = implementationReadiness(resp)
	assessment.SourceCredibility = avgAuthority(candidate)
	assessment.UserExperience = resp.Quality.Coherence

	assessment.Overall = blendDimensions*dimAvg +
		blendBusinessIntel*assessment.BusinessIntelligence +
		blendFrameworks*assessment.FrameworkIntegration +
		blendImplementation*assessment.ImplementationReadiness +
		blendCredibility*assessment.SourceCredibility +
		blendExperience*assessment.UserExperience
	return assessment
}

func avgSimilarity(candidate CandidateResponse) float64 {
	if len(candidate.Sources) == 0 {
		return 0
	}
	var total float64
	for _, src := range candidate.Sources {
		total += float64(src.Similarity)
	}
	return clamp01(total / float64(len(candidate.Sources)))
}

func avgAuthority(candidate CandidateResponse) float64 {
	if len(candidate.Sources) == 0 {
		return 0
	}
	var total float64
	for _, src := range candidate.Sources {
		total += src.AuthorityScore
	}
	return clamp01(total / float64(len(candidate.Sources)))
}

// businessIntelligence measures how much the answer engages with the
// business framing of the question.
func businessIntelligence(resp *assembly.Response, qc QueryContext) float64 {
	score := resp.Quality.BusinessRelevance
	if qc.BusinessStage != "" && strings.Contains(strings.ToLower(resp.Content.DetailedExplanation), strings.ToLower(qc.BusinessStage)) {
		score += 0.2
	}
	return clamp01(score)
}

func implementationReadiness(resp *assembly.Response) float64 {
	actions := len(resp.Roadmap.Immediate) + len(resp.Roadmap.ShortTerm) + len(resp.Roadmap.LongTerm)
	score := 0.5 * resp.Quality.Actionability
	score += 0.5 * cappedCount(actions, 3)
	return clamp01(score)
}
