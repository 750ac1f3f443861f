package ranking

import (
	"context"
	"errors"
	"time"

	"advisor-ai/internal/contextutil"
	"advisor-ai/internal/corpus"
	"advisor-ai/internal/search"
)

// ScoreProvider supplies the authority and recency component scores.
// These are treated as pre-computed inputs: the provider decides how passage
// metadata maps onto scores, and tests substitute deterministic fakes.
type ScoreProvider interface {
	// AuthorityScore rates source trustworthiness in [0,1].
	AuthorityScore(ctx context.Context, r search.Result) float64
	// RecencyScore rates publication freshness in [0,1].
	RecencyScore(ctx context.Context, r search.Result) float64
}

// StaticScoreProvider returns fixed scores for every passage. It serves as
// the neutral default when no corpus metadata is wired.
type StaticScoreProvider struct {
	Authority float64
	Recency   float64
}

// NewNeutralScoreProvider returns a provider scoring every passage 0.5.
func NewNeutralScoreProvider() StaticScoreProvider {
	return StaticScoreProvider{Authority: 0.5, Recency: 0.5}
}

// AuthorityScore returns the fixed authority score.
func (p StaticScoreProvider) AuthorityScore(context.Context, search.Result) float64 {
	return p.Authority
}

// RecencyScore returns the fixed recency score.
func (p StaticScoreProvider) RecencyScore(context.Context, search.Result) float64 {
	return p.Recency
}

// CorpusScoreProvider derives authority and recency from the passage
// metadata store. Passages missing from the index score neutral 0.5.
type CorpusScoreProvider struct {
	store corpus.PassageStore
	now   func() time.Time
}

// NewCorpusScoreProvider creates a provider backed by the corpus index.
func NewCorpusScoreProvider(store corpus.PassageStore) *CorpusScoreProvider {
	return &CorpusScoreProvider{store: store, now: time.Now}
}

// AuthorityScore maps the authority tier onto a score: primary sources rate
// highest, community-interpreted material lowest.
func (p *CorpusScoreProvider) AuthorityScore(ctx context.Context, r search.Result) float64 {
	meta, ok := p.lookup(ctx, r.ID)
	if !ok {
		return 0.5
	}
	switch meta.AuthorityTier {
	case 1:
		return 1.0
	case 2:
		return 0.75
	case 3:
		return 0.5
	default:
		return 0.4
	}
}

// RecencyScore decays with publication age in yearly steps.
func (p *CorpusScoreProvider) RecencyScore(ctx context.Context, r search.Result) float64 {
	meta, ok := p.lookup(ctx, r.ID)
	if !ok || meta.PublishedAt.IsZero() {
		return 0.5
	}
	age := p.now().Sub(meta.PublishedAt)
	switch {
	case age < 365*24*time.Hour:
		return 1.0
	case age < 2*365*24*time.Hour:
		return 0.85
	case age < 4*365*24*time.Hour:
		return 0.65
	case age < 8*365*24*time.Hour:
		return 0.45
	default:
		return 0.3
	}
}

func (p *CorpusScoreProvider) lookup(ctx context.Context, id string) (*corpus.PassageMeta, bool) {
	if id == "" {
		return nil, false
	}
	meta, err := p.store.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, corpus.ErrNotFound) {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "passage metadata lookup failed", "passage_id", id, "error", err)
		}
		return nil, false
	}
	return meta, true
}
