package assembly

import "strings"

// businessVocabulary is the fixed keyword list relevance is measured
// against.
var businessVocabulary = []string{
	"revenue", "profit", "customer", "offer", "pricing", "lead", "conversion",
	"retention", "growth", "scale", "market", "value", "acquisition", "margin",
}

// assessQuality computes the seven preliminary quality scores.
func assessQuality(ac Context, content GeneratedContent, prepared []preparedSource) QualityMetrics {
	return QualityMetrics{
		SourceDiversity:   sourceDiversity(prepared),
		Completeness:      completeness(content),
		Actionability:     cappedRatio(len(content.ActionableInsights), 3),
		EvidenceStrength:  cappedRatio(len(content.Evidence), 5),
		BusinessRelevance: businessRelevance(content),
		CitationAccuracy:  citationAccuracy(ac, content),
		Coherence:         coherence(content),
	}
}

// sourceDiversity counts distinct source categories against a target of 3.
func sourceDiversity(prepared []preparedSource) float64 {
	if len(prepared) == 0 {
		return 0
	}
	categories := make(map[string]struct{})
	for _, ps := range prepared {
		category := ps.src.Category
		if category == "" {
			category = "uncategorized"
		}
		categories[category] = struct{}{}
	}
	return cappedRatio(len(categories), 3)
}

// completeness is a weighted presence check over the answer parts.
func completeness(content GeneratedContent) float64 {
	var score float64
	if content.Summary != "" {
		score += 0.25
	}
	if content.DetailedExplanation != "" {
		score += 0.35
	}
	if len(content.ActionableInsights) > 0 {
		score += 0.25
	}
	if len(content.Evidence) > 0 {
		score += 0.15
	}
	return score
}

// businessRelevance measures overlap between the answer text and the fixed
// business vocabulary.
func businessRelevance(content GeneratedContent) float64 {
	text := strings.ToLower(content.Summary + " " + content.DetailedExplanation)
	var hits int
	for _, word := range businessVocabulary {
		if strings.Contains(text, word) {
			hits++
		}
	}
	return cappedRatio(hits, 5)
}

// citationAccuracy is the fraction of evidence items whose source id exists
// in the originating context.
func citationAccuracy(ac Context, content GeneratedContent) float64 {
	if len(content.Evidence) == 0 {
		return 0
	}
	known := make(map[string]struct{}, len(ac.SourceChunks))
	for _, src := range ac.SourceChunks {
		known[src.ID] = struct{}{}
	}
	var valid int
	for _, ev := range content.Evidence {
		if _, ok := known[ev.SourceChunkID]; ok {
			valid++
		}
	}
	return float64(valid) / float64(len(content.Evidence))
}

// coherence is a structural proxy: an answer with all narrative parts and
// no limitations reads as more coherent.
func coherence(content GeneratedContent) float64 {
	score := 0.5
	if content.Summary != "" && content.DetailedExplanation != "" {
		score += 0.3
	}
	if len(content.Limitations) == 0 {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	return score
}

// assessConfidence blends source reliability, consensus, and feasibility.
func assessConfidence(content GeneratedContent, prepared []preparedSource, integration SourceIntegration) Confidence {
	reliability := cappedRatio(len(prepared), 3)

	consensus := 1.0
	if len(prepared) > 0 {
		consensus = 1.0 - float64(len(integration.ConflictingSources))/float64(len(prepared))
		if consensus < 0 {
			consensus = 0
		}
	}

	feasibility := 0.5
	if len(content.ActionableInsights) > 0 {
		var simple int
		for _, insight := range content.ActionableInsights {
			if insight.Complexity == "simple" {
				simple++
			}
		}
		feasibility = float64(simple) / float64(len(content.ActionableInsights))
	}

	return Confidence{
		Overall:                   0.4*reliability + 0.35*consensus + 0.25*feasibility,
		SourceReliability:         reliability,
		ConsensusLevel:            consensus,
		ImplementationFeasibility: feasibility,
	}
}

func cappedRatio(count, target int) float64 {
	if target <= 0 || count <= 0 {
		return 0
	}
	ratio := float64(count) / float64(target)
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}
