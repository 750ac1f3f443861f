package assembly

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxInsights       = 5
	maxEvidence       = 5
	evidenceMaxLength = 240
)

// synthesize turns the content structure into the textual answer body.
func synthesize(ac Context, strategy Strategy, structure contentStructure, prepared []preparedSource) GeneratedContent {
	if len(prepared) == 0 {
		return fallbackContent(ac)
	}

	content := GeneratedContent{
		Summary:             buildSummary(ac, strategy, prepared),
		DetailedExplanation: buildExplanation(structure),
		FrameworkNotes:      buildFrameworkNotes(structure),
		ActionableInsights:  buildInsights(ac, prepared),
		Evidence:            buildEvidence(prepared),
	}

	if len(prepared) < 3 {
		content.Limitations = append(content.Limitations, fmt.Sprintf("based on fewer than 3 distinct sources (%d)", len(prepared)))
	}
	if strategy.Gaps == GapAcknowledge {
		for _, fw := range ac.Business.Frameworks {
			if !frameworkCovered(fw, prepared) {
				content.Limitations = append(content.Limitations, fmt.Sprintf("no source material covers the %s framework", humanizeTag(fw)))
			}
		}
	}
	return content
}

// fallbackContent is the degraded answer used when nothing was retrieved.
func fallbackContent(ac Context) GeneratedContent {
	return GeneratedContent{
		Summary:             "No directly relevant knowledge was found for this question. The guidance below is general business advice, not grounded in the curated corpus.",
		DetailedExplanation: fmt.Sprintf("Your question %q could not be matched to specific corpus material. Consider rephrasing with the business framework or lifecycle stage you are working in.", ac.QueryText),
		Limitations:         []string{"no supporting sources were retrieved"},
	}
}

func buildSummary(ac Context, strategy Strategy, prepared []preparedSource) string {
	top := prepared[0].src
	lead := fmt.Sprintf("Based on %d sources, the strongest guidance comes from %q", len(prepared), top.Title)
	if len(top.FrameworkTags) > 0 {
		lead += fmt.Sprintf(" (%s)", humanizeTag(top.FrameworkTags[0]))
	}
	switch strategy.Synthesis {
	case SynthesisPractical:
		return lead + ". The answer below focuses on concrete steps you can act on now."
	case SynthesisEducational:
		return lead + ". The answer below explains the underlying concepts before any recommendations."
	case SynthesisFocused:
		return lead + ". The answer below addresses only the specific question asked."
	default:
		return lead + ". The answer below combines all relevant material into a single view."
	}
}

func buildExplanation(structure contentStructure) string {
	var b strings.Builder
	for _, sec := range structure.Sections {
		if len(sec.Sources) == 0 {
			continue
		}
		b.WriteString(sec.Name)
		b.WriteString(": ")
		for i, ps := range sec.Sources {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(excerpt(ps.src.Content, evidenceMaxLength))
		}
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

func buildFrameworkNotes(structure contentStructure) map[string]string {
	if structure.Organization != OrganizeFrameworkBased {
		return nil
	}
	notes := make(map[string]string, len(structure.Sections))
	for _, sec := range structure.Sections {
		if len(sec.Sources) == 0 || sec.Name == "General Guidance" {
			continue
		}
		notes[sec.Name] = fmt.Sprintf("%d sources apply %s to this question; strongest match is %q.",
			len(sec.Sources), humanizeTag(sec.Name), sec.Sources[0].src.Title)
	}
	if len(notes) == 0 {
		return nil
	}
	return notes
}

// buildInsights derives one actionable insight per top source.
func buildInsights(ac Context, prepared []preparedSource) []ActionableInsight {
	count := len(prepared)
	if count > maxInsights {
		count = maxInsights
	}
	insights := make([]ActionableInsight, 0, count)
	for i := 0; i < count; i++ {
		ps := prepared[i]
		insight := ActionableInsight{
			Title:       "Apply: " + ps.src.Title,
			Description: excerpt(ps.src.Content, evidenceMaxLength),
			Priority:    insightPriority(i, ps),
			Complexity:  insightComplexity(ps),
			Impact:      insightImpact(ps),
			Timeframe:   insightTimeframe(ps),
			SuccessMetrics: []string{
				"measurable change in the targeted business metric",
				"completion of the described steps",
			},
			SourceIDs: []string{ps.src.ID},
		}
		if ac.Business.Urgency == "high" && insight.Priority == "medium" {
			insight.Priority = "high"
		}
		insights = append(insights, insight)
	}
	return insights
}

func insightPriority(rank int, ps preparedSource) string {
	switch {
	case rank == 0 || ps.immediacy > immediateBucketFloor:
		return "high"
	case ps.strategicValue > strategicBucketFloor:
		return "medium"
	default:
		return "low"
	}
}

func insightComplexity(ps preparedSource) string {
	switch strings.ToLower(ps.src.EstimatedComplexity) {
	case "beginner":
		return "simple"
	case "advanced":
		return "complex"
	default:
		return "moderate"
	}
}

func insightImpact(ps preparedSource) string {
	switch {
	case ps.businessAlignment > 0.7:
		return "high"
	case ps.businessAlignment > 0.4:
		return "medium"
	default:
		return "low"
	}
}

func insightTimeframe(ps preparedSource) string {
	switch {
	case ps.immediacy > immediateBucketFloor:
		return "immediate"
	case ps.longTermValue > longTermBucketFloor:
		return "long_term"
	default:
		return "short_term"
	}
}

// buildEvidence extracts one supporting statement per source.
func buildEvidence(prepared []preparedSource) []Evidence {
	count := len(prepared)
	if count > maxEvidence {
		count = maxEvidence
	}
	evidence := make([]Evidence, 0, count)
	for i := 0; i < count; i++ {
		ps := prepared[i]
		evidence = append(evidence, Evidence{
			Statement:     excerpt(ps.src.Content, evidenceMaxLength),
			SourceChunkID: ps.src.ID,
			Strength:      ps.quality,
		})
	}
	return evidence
}

func frameworkCovered(fw string, prepared []preparedSource) bool {
	for _, ps := range prepared {
		for _, tag := range ps.frameworks {
			if strings.EqualFold(tag, fw) {
				return true
			}
		}
	}
	return false
}

// excerpt truncates content on a word boundary, never splitting a rune.
func excerpt(content string, limit int) string {
	content = strings.TrimSpace(content)
	if len(content) <= limit {
		return content
	}
	for limit > 0 && !utf8.RuneStart(content[limit]) {
		limit--
	}
	cut := content[:limit]
	if idx := strings.LastIndexByte(cut, ' '); idx > limit/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// humanizeTag turns a snake_case framework tag into display form.
func humanizeTag(tag string) string {
	words := strings.Split(strings.ReplaceAll(tag, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
