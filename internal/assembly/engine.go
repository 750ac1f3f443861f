package assembly

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"advisor-ai/internal/contextutil"
	"advisor-ai/internal/ranking"
)

// authorityResolveMargin is the minimum authority gap for resolving a
// conflict in favor of one source instead of flagging both sides.
const authorityResolveMargin = 0.15

// Engine assembles ranked passages into a structured answer.
type Engine interface {
	Assemble(ctx context.Context, ac Context) (*Response, error)
}

type engine struct {
	now func() time.Time
}

// NewEngine creates a context assembly engine.
func NewEngine() Engine {
	return &engine{now: time.Now}
}

// preparedSource is one passage annotated with content-analysis scores.
type preparedSource struct {
	src                  ranking.EnhancedResult
	immediacy            float64
	strategicValue       float64
	longTermValue        float64
	businessAlignment    float64
	quality              float64
	integrationPotential float64
	frameworks           []string
}

// Assemble runs the single-pass assembly pipeline. Thin input degrades to a
// warned response; only malformed input returns an error.
func (e *engine) Assemble(ctx context.Context, ac Context) (*Response, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := e.now()

	if err := ac.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assembly context: %w", err)
	}
	strategy := ac.Strategy
	if strategy.Organization == "" {
		strategy = DefaultStrategy()
	}
	requirements := ac.Quality
	if requirements.MinSourceCount == 0 {
		requirements = DefaultQualityRequirements()
	}

	var warnings []string

	prepared := prepareSources(ac)
	if len(prepared) == 0 {
		warnings = append(warnings, "insufficient source diversity: no source passages available")
	} else if len(prepared) < requirements.MinSourceCount {
		warnings = append(warnings, fmt.Sprintf("only %d of %d required sources available", len(prepared), requirements.MinSourceCount))
	}

	prepared, integration, conflictWarnings := resolveConflicts(prepared)
	warnings = append(warnings, conflictWarnings...)

	structure := buildStructure(ac, strategy.Organization, prepared)

	content := synthesize(ac, strategy, structure, prepared)
	if len(prepared) == 0 {
		content.Limitations = append(content.Limitations, "no knowledge sources matched this query; guidance below is generic")
	}

	roadmap := buildRoadmap(content.ActionableInsights)

	quality := assessQuality(ac, content, prepared)
	confidence := assessConfidence(content, prepared, integration)

	integration.PrimarySources, integration.SupportingSources = splitSources(prepared)

	logger.DebugContext(ctx, "assembly completed",
		"sources", len(prepared),
		"organization", string(strategy.Organization),
		"warnings", len(warnings))

	return &Response{
		Content:     content,
		Quality:     quality,
		Integration: integration,
		Roadmap:     roadmap,
		Confidence:  confidence,
		Metadata: Metadata{
			AssembledAt:  start,
			Duration:     e.now().Sub(start),
			Organization: strategy.Organization,
			SourceCount:  len(prepared),
			Warnings:     warnings,
		},
	}, nil
}

// prepareSources scores every passage and sorts by integration potential.
func prepareSources(ac Context) []preparedSource {
	prepared := make([]preparedSource, 0, len(ac.SourceChunks))
	for _, src := range ac.SourceChunks {
		ps := preparedSource{
			src:            src,
			immediacy:      keywordDensity(src.Content, immediacyMarkers),
			strategicValue: keywordDensity(src.Content, strategicMarkers),
			longTermValue:  keywordDensity(src.Content, longTermMarkers),
			frameworks:     src.FrameworkTags,
		}
		ps.businessAlignment = src.BusinessContextScore
		if ps.businessAlignment == 0 {
			ps.businessAlignment = alignmentFromContext(src, ac.Business)
		}
		ps.quality = 0.6*float64(src.Similarity) + 0.4*src.AuthorityScore
		ps.integrationPotential = 0.3*ps.businessAlignment + 0.3*ps.quality +
			0.2*ps.immediacy + 0.1*ps.strategicValue + 0.1*ps.longTermValue
		prepared = append(prepared, ps)
	}
	sort.SliceStable(prepared, func(i, j int) bool {
		return prepared[i].integrationPotential > prepared[j].integrationPotential
	})
	return prepared
}

var (
	immediacyMarkers = []string{"now", "immediately", "today", "first step", "start by", "right away", "quick"}
	strategicMarkers = []string{"strategy", "strategic", "position", "growth", "scale", "scaling", "market"}
	longTermMarkers  = []string{"long-term", "long term", "sustain", "retention", "compound", "over time", "maturity"}
)

// keywordDensity maps marker occurrences into a 0-1 score.
func keywordDensity(content string, markers []string) float64 {
	lower := strings.ToLower(content)
	var hits int
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			hits++
		}
	}
	score := float64(hits) / 3.0
	if score > 1 {
		score = 1
	}
	return score
}

// alignmentFromContext is the fallback alignment when the ranker produced no
// business-context score.
func alignmentFromContext(src ranking.EnhancedResult, bc BusinessContext) float64 {
	score := 0.3
	if src.BusinessPhase != "" && strings.EqualFold(src.BusinessPhase, bc.Stage) {
		score += 0.3
	}
	for _, fw := range bc.Frameworks {
		for _, tag := range src.FrameworkTags {
			if strings.EqualFold(fw, tag) {
				score += 0.2
				break
			}
		}
	}
	if score > 1 {
		score = 1
	}
	return score
}

// resolveConflicts groups sources by shared framework and looks for
// contradictory guidance about the same concept. A conflict is either
// resolved toward the clearly higher-authority source or kept with both
// sides flagged. Either way a warning is recorded.
func resolveConflicts(prepared []preparedSource) ([]preparedSource, SourceIntegration, []string) {
	var integration SourceIntegration
	var warnings []string

	groups := make(map[string][]int)
	for i, ps := range prepared {
		for _, fw := range ps.frameworks {
			key := strings.ToLower(fw)
			groups[key] = append(groups[key], i)
		}
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	drop := make(map[int]bool)
	for _, key := range keys {
		indices := groups[key]
		if len(indices) < 2 {
			continue
		}
		for a := 0; a < len(indices); a++ {
			for b := a + 1; b < len(indices); b++ {
				i, j := indices[a], indices[b]
				if drop[i] || drop[j] {
					continue
				}
				if !contradicts(prepared[i].src.Content, prepared[j].src.Content) {
					continue
				}
				si, sj := prepared[i].src, prepared[j].src
				diff := si.AuthorityScore - sj.AuthorityScore
				switch {
				case diff >= authorityResolveMargin:
					drop[j] = true
					integration.ConflictingSources = appendUnique(integration.ConflictingSources, sj.ID)
					warnings = append(warnings, fmt.Sprintf("conflicting guidance on %s: kept higher-authority source %q over %q", key, si.Title, sj.Title))
				case -diff >= authorityResolveMargin:
					drop[i] = true
					integration.ConflictingSources = appendUnique(integration.ConflictingSources, si.ID)
					warnings = append(warnings, fmt.Sprintf("conflicting guidance on %s: kept higher-authority source %q over %q", key, sj.Title, si.Title))
				default:
					integration.ConflictingSources = appendUnique(integration.ConflictingSources, si.ID)
					integration.ConflictingSources = appendUnique(integration.ConflictingSources, sj.ID)
					warnings = append(warnings, fmt.Sprintf("conflicting guidance on %s between %q and %q of similar authority; both retained", key, si.Title, sj.Title))
				}
			}
		}
	}

	if len(drop) == 0 {
		return prepared, integration, warnings
	}
	kept := make([]preparedSource, 0, len(prepared))
	for i, ps := range prepared {
		if !drop[i] {
			kept = append(kept, ps)
		}
	}
	return kept, integration, warnings
}

var (
	negativeDirectives = []string{"avoid", "never", "don't", "do not", "stop"}
	positiveDirectives = []string{"always", "should", "start", "focus on", "prioritize"}
)

// contradicts reports whether two passages push in opposite directions.
func contradicts(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return (containsAny(la, negativeDirectives) && containsAny(lb, positiveDirectives)) ||
		(containsAny(lb, negativeDirectives) && containsAny(la, positiveDirectives))
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, value string) []string {
	if value == "" {
		return list
	}
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

// splitSources labels the top sources primary and the rest supporting.
func splitSources(prepared []preparedSource) (primary, supporting []string) {
	for i, ps := range prepared {
		if i < 3 {
			primary = append(primary, ps.src.ID)
		} else {
			supporting = append(supporting, ps.src.ID)
		}
	}
	return primary, supporting
}
