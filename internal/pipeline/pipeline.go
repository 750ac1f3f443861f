// Package pipeline orchestrates the full answer flow: strategy selection,
// concurrent search, business-context ranking, context assembly, and
// candidate response ranking.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"advisor-ai/internal/assembly"
	"advisor-ai/internal/contextutil"
	"advisor-ai/internal/llm"
	"advisor-ai/internal/metrics"
	"advisor-ai/internal/query"
	"advisor-ai/internal/ranking"
	"advisor-ai/internal/respond"
	"advisor-ai/internal/search"
	"advisor-ai/internal/strategy"
)

const (
	// approachConcurrency caps concurrent search calls per request.
	approachConcurrency = 4
	// defaultMaxSources is how many ranked passages feed assembly.
	defaultMaxSources = 8
	// secondCandidateMinSources gates generating an alternative candidate.
	secondCandidateMinSources = 3
)

// ChatClient generates the final prose answer. llm.Client satisfies it.
type ChatClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// AskRequest is one fully classified question.
type AskRequest struct {
	Classification query.Classification     `json:"classification"`
	MaxSources     int                      `json:"max_sources,omitempty"`
	Performance    search.PerformanceParams `json:"performance,omitempty"`
	Weights        *ranking.WeightingScheme `json:"ranking_weights,omitempty"`
	Debug          bool                     `json:"debug,omitempty"`
}

// Answer is the pipeline output for one question.
type Answer struct {
	Text       string                   `json:"text"`
	Response   *assembly.Response       `json:"response"`
	Ranking    *respond.RankedSet       `json:"ranking,omitempty"`
	Assessment *respond.Assessment      `json:"assessment,omitempty"`
	Sources    []ranking.EnhancedResult `json:"sources"`
	Timings    map[string]time.Duration `json:"timings,omitempty"`
	Warnings   []string                 `json:"warnings,omitempty"`
}

// Pipeline wires the answer stages together.
type Pipeline struct {
	selector  *strategy.Selector
	engine    search.Engine
	ranker    *ranking.Ranker
	assembler assembly.Engine
	responder *respond.Ranker
	assessor  *respond.QualityAssessor
	chat      ChatClient
	recorder  *metrics.Recorder
	now       func() time.Time
}

// Options are the optional pipeline collaborators.
type Options struct {
	// Chat generates prose from the assembled answer. Nil composes prose
	// locally from the assembled content.
	Chat ChatClient
	// Recorder receives timing and quality metrics. May be nil.
	Recorder *metrics.Recorder
}

// New creates the answer pipeline.
func New(selector *strategy.Selector, engine search.Engine, ranker *ranking.Ranker, assembler assembly.Engine, responder *respond.Ranker, assessor *respond.QualityAssessor, opts Options) *Pipeline {
	return &Pipeline{
		selector:  selector,
		engine:    engine,
		ranker:    ranker,
		assembler: assembler,
		responder: responder,
		assessor:  assessor,
		chat:      opts.Chat,
		recorder:  opts.Recorder,
		now:       time.Now,
	}
}

// Ask answers one classified question end to end.
func (p *Pipeline) Ask(ctx context.Context, req AskRequest) (*Answer, error) {
	logger := contextutil.LoggerFromContext(ctx)
	timings := make(map[string]time.Duration)

	if err := req.Classification.Validate(); err != nil {
		p.countQuery(req, "invalid")
		return nil, err
	}

	strategies, err := timed(p, metrics.PhaseStrategy, timings, func() ([]strategy.FrameworkStrategy, error) {
		return p.selector.Select(ctx, &req.Classification)
	})
	if err != nil {
		p.countQuery(req, "error")
		return nil, fmt.Errorf("selecting search strategies: %w", err)
	}

	results, err := timed(p, metrics.PhaseSearch, timings, func() ([]search.Result, error) {
		return p.runSearches(ctx, req, strategies)
	})
	if err != nil {
		p.countQuery(req, "error")
		return nil, err
	}

	maxSources := req.MaxSources
	if maxSources <= 0 {
		maxSources = defaultMaxSources
	}
	rankOpts := ranking.Options{Diversify: true, MaxResults: maxSources}
	if req.Weights != nil {
		rankOpts.Weights = *req.Weights
	}
	searchQuery := baseQuery(req)
	ranked, err := timed(p, metrics.PhaseRank, timings, func() ([]ranking.EnhancedResult, error) {
		return p.ranker.Rank(ctx, results, searchQuery, rankOpts)
	})
	if err != nil {
		p.countQuery(req, "error")
		return nil, fmt.Errorf("ranking search results: %w", err)
	}

	candidates, err := timed(p, metrics.PhaseAssemble, timings, func() ([]respond.CandidateResponse, error) {
		return p.assembleCandidates(ctx, req, ranked)
	})
	if err != nil {
		p.countQuery(req, "error")
		return nil, err
	}

	answer, err := timed(p, metrics.PhaseRespond, timings, func() (*Answer, error) {
		return p.pickAnswer(ctx, req, candidates, ranked)
	})
	if err != nil {
		p.countQuery(req, "error")
		return nil, err
	}

	answer.Text = p.composeProse(ctx, req, answer.Response)
	if req.Debug {
		answer.Timings = timings
	}
	p.countQuery(req, "ok")
	if p.recorder != nil && answer.Ranking != nil && len(answer.Ranking.Ranked) > 0 {
		p.recorder.ObserveQuality(answer.Ranking.Ranked[0].OverallQuality)
	}

	logger.InfoContext(ctx, "question answered",
		"intent", string(req.Classification.Intent),
		"sources", len(answer.Sources),
		"warnings", len(answer.Warnings))
	return answer, nil
}

// runSearches executes every approach of every strategy concurrently and
// merges the results. A failing approach is logged and skipped; the search
// phase fails only when every approach fails.
func (p *Pipeline) runSearches(ctx context.Context, req AskRequest, strategies []strategy.FrameworkStrategy) ([]search.Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	type job struct {
		framework string
		approach  strategy.SearchApproach
	}
	var jobs []job
	for _, st := range strategies {
		for _, approach := range st.Approaches {
			jobs = append(jobs, job{framework: st.Framework, approach: approach})
		}
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	var mu sync.Mutex
	var merged []search.Result
	seen := make(map[string]struct{})
	var failures []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(approachConcurrency)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			q := search.Query{
				Text:        j.approach.ExpandedQuery,
				Strategy:    j.approach.SearchStrategy,
				Filters:     j.approach.Filters,
				Scenarios:   j.approach.Scenarios,
				Performance: req.Performance,
			}
			results, err := p.engine.Search(gctx, q)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.WarnContext(ctx, "search approach failed",
					"framework", j.framework,
					"approach", string(j.approach.Kind),
					"error", err)
				failures = append(failures, err)
				return nil
			}
			for _, result := range results {
				key := result.ID
				if key == "" {
					key = result.Title
				}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				merged = append(merged, result)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(merged) == 0 && len(failures) > 0 {
		return nil, fmt.Errorf("all %d search approaches failed: %w", len(jobs), failures[0])
	}
	return merged, nil
}

// assembleCandidates builds one or two candidates, varying the content
// organization when enough sources support an alternative.
func (p *Pipeline) assembleCandidates(ctx context.Context, req AskRequest, ranked []ranking.EnhancedResult) ([]respond.CandidateResponse, error) {
	organizations := []assembly.ContentOrganization{organizationForIntent(req.Classification.Intent)}
	if len(ranked) >= secondCandidateMinSources {
		if alt := alternativeOrganization(organizations[0]); alt != organizations[0] {
			organizations = append(organizations, alt)
		}
	}

	candidates := make([]respond.CandidateResponse, 0, len(organizations))
	for i, org := range organizations {
		ac := assembly.Context{
			QueryText: req.Classification.OriginalText,
			Intent:    req.Classification.Intent,
			Business: assembly.BusinessContext{
				Stage:             firstOrEmpty(req.Classification.BusinessStages),
				Frameworks:        req.Classification.FrameworkNames(),
				Urgency:           req.Classification.Urgency,
				DesiredComplexity: req.Classification.DesiredComplexity,
			},
			SourceChunks: ranked,
			Strategy:     strategyForOrganization(org),
		}
		resp, err := p.assembler.Assemble(ctx, ac)
		if err != nil {
			return nil, fmt.Errorf("assembling candidate %d: %w", i+1, err)
		}
		candidates = append(candidates, respond.CandidateResponse{
			ID:          fmt.Sprintf("candidate-%d-%s", i+1, org),
			Response:    resp,
			Sources:     ranked,
			GeneratedBy: string(org),
			GeneratedAt: p.now(),
		})
	}
	return candidates, nil
}

// pickAnswer ranks the candidates when there is more than one and returns
// the winner with its metadata.
func (p *Pipeline) pickAnswer(ctx context.Context, req AskRequest, candidates []respond.CandidateResponse, ranked []ranking.EnhancedResult) (*Answer, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates assembled")
	}

	answer := &Answer{Sources: ranked}
	winner := candidates[0]

	if len(candidates) > 1 {
		set, err := p.responder.Rank(ctx, respond.RankingRequest{
			Query: respond.QueryContext{
				Text:              req.Classification.OriginalText,
				Intent:            req.Classification.Intent,
				DesiredComplexity: req.Classification.DesiredComplexity,
				BusinessStage:     firstOrEmpty(req.Classification.BusinessStages),
			},
			Candidates: candidates,
		})
		if err != nil {
			return nil, fmt.Errorf("ranking candidates: %w", err)
		}
		answer.Ranking = set
		if len(set.Ranked) > 0 {
			for _, candidate := range candidates {
				if candidate.ID == set.Ranked[0].CandidateID {
					winner = candidate
					break
				}
			}
		} else {
			answer.Warnings = append(answer.Warnings, set.Recommendation)
		}
	}

	answer.Response = winner.Response
	answer.Warnings = append(answer.Warnings, winner.Response.Metadata.Warnings...)

	if p.assessor != nil {
		assessment := p.assessor.Assess(ctx, winner, respond.QueryContext{
			Text:              req.Classification.OriginalText,
			Intent:            req.Classification.Intent,
			DesiredComplexity: req.Classification.DesiredComplexity,
			BusinessStage:     firstOrEmpty(req.Classification.BusinessStages),
		})
		answer.Assessment = &assessment
	}
	return answer, nil
}

// composeProse asks the chat model for a conversational rendering of the
// assembled answer, falling back to local composition when no model is
// configured or the call fails.
func (p *Pipeline) composeProse(ctx context.Context, req AskRequest, resp *assembly.Response) string {
	local := composeLocal(resp)
	if p.chat == nil {
		return local
	}

	logger := contextutil.LoggerFromContext(ctx)
	messages := []llm.Message{
		{Role: "system", Content: "You are a business advisor. Answer using only the provided assembled material. Keep citations to the listed sources."},
		{Role: "user", Content: fmt.Sprintf("Question: %s\n\nAssembled material:\n%s", req.Classification.OriginalText, local)},
	}
	text, err := p.chat.ChatWithMessages(ctx, messages, llm.ChatParams{})
	if err != nil {
		logger.WarnContext(ctx, "chat completion failed, using assembled text", "error", err)
		return local
	}
	return text
}

// composeLocal renders the assembled response as plain text.
func composeLocal(resp *assembly.Response) string {
	var b strings.Builder
	b.WriteString(resp.Content.Summary)
	if resp.Content.DetailedExplanation != "" {
		b.WriteString("\n\n")
		b.WriteString(resp.Content.DetailedExplanation)
	}
	if len(resp.Content.ActionableInsights) > 0 {
		b.WriteString("\n\nRecommended actions:")
		for _, insight := range resp.Content.ActionableInsights {
			b.WriteString("\n- ")
			b.WriteString(insight.Title)
		}
	}
	if len(resp.Content.Limitations) > 0 {
		b.WriteString("\n\nLimitations:")
		for _, lim := range resp.Content.Limitations {
			b.WriteString("\n- ")
			b.WriteString(lim)
		}
	}
	return b.String()
}

func organizationForIntent(intent query.Intent) assembly.ContentOrganization {
	switch intent {
	case query.IntentImplementation, query.IntentOptimization:
		return assembly.OrganizeActionOriented
	case query.IntentTroubleshooting:
		return assembly.OrganizeProblemSolution
	case query.IntentLearning, query.IntentResearch:
		return assembly.OrganizeEducational
	default:
		return assembly.OrganizeFrameworkBased
	}
}

func alternativeOrganization(primary assembly.ContentOrganization) assembly.ContentOrganization {
	if primary == assembly.OrganizeFrameworkBased {
		return assembly.OrganizeActionOriented
	}
	return assembly.OrganizeFrameworkBased
}

func strategyForOrganization(org assembly.ContentOrganization) assembly.Strategy {
	s := assembly.DefaultStrategy()
	s.Organization = org
	switch org {
	case assembly.OrganizeActionOriented:
		s.Synthesis = assembly.SynthesisPractical
	case assembly.OrganizeEducational:
		s.Synthesis = assembly.SynthesisEducational
	case assembly.OrganizeProblemSolution:
		s.Synthesis = assembly.SynthesisFocused
	case assembly.OrganizeFrameworkBased:
		s.Synthesis = assembly.SynthesisComprehensive
	}
	return s
}

// baseQuery is the query the ranker scores against.
func baseQuery(req AskRequest) search.Query {
	return search.Query{
		Text: req.Classification.OriginalText,
		Filters: search.Filters{
			Frameworks:     req.Classification.FrameworkNames(),
			BusinessStages: req.Classification.BusinessStages,
			Complexity:     req.Classification.DesiredComplexity,
		},
		Performance: req.Performance,
	}
}

// timed runs fn and records its duration under the given phase.
func timed[T any](p *Pipeline, phase string, timings map[string]time.Duration, fn func() (T, error)) (T, error) {
	start := p.now()
	out, err := fn()
	elapsed := p.now().Sub(start)
	timings[phase] = elapsed
	if p.recorder != nil {
		p.recorder.ObservePhase(phase, elapsed)
	}
	return out, err
}

func (p *Pipeline) countQuery(req AskRequest, status string) {
	if p.recorder != nil {
		p.recorder.CountQuery(string(req.Classification.Intent), status)
	}
}

func firstOrEmpty(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
