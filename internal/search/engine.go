package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"advisor-ai/internal/cache"
	"advisor-ai/internal/contextutil"
	"advisor-ai/internal/query"
	"advisor-ai/internal/vectorstore"
)

const (
	minAutoResults  = 4
	maxAutoResults  = 12
	hardMaxResults  = 20
	previewLength   = 200
	fanOutBranchCap = 4
)

// Embedder turns raw text into fixed-length vectors.
// This interface is defined from the engine's perspective (consumer-first);
// llm.EmbeddingsClient satisfies it.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Engine executes similarity queries against the knowledge corpus.
type Engine interface {
	// Search runs the query under its strategy and returns scored passages,
	// at most MaxResults of them, each scoring at or above the similarity
	// threshold.
	Search(ctx context.Context, q Query) ([]Result, error)
}

// engine implements the Engine interface.
type engine struct {
	embedder    Embedder
	store       vectorstore.VectorStore
	collection  string
	resultCache cache.Cache
}

// NewEngine creates a new search engine. resultCache may be nil to disable caching.
func NewEngine(embedder Embedder, store vectorstore.VectorStore, collection string, resultCache cache.Cache) Engine {
	return &engine{
		embedder:    embedder,
		store:       store,
		collection:  collection,
		resultCache: resultCache,
	}
}

// Search runs the query under its strategy.
func (e *engine) Search(ctx context.Context, q Query) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(q.Text) == "" {
		return nil, &query.ValidationError{Field: "text", Message: "cannot be empty"}
	}

	strat := q.Strategy
	if strat == "" {
		strat = StrategySemantic
	}
	if strat == StrategyAdaptive {
		strat = resolveAdaptive(q.Text, q.Filters)
		logger.DebugContext(ctx, "adaptive strategy resolved", "strategy", strat)
	}

	maxResults := resolveMaxResults(q)

	if q.Performance.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(q.Performance.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	ttl := time.Duration(q.Performance.CacheDurationMinutes) * time.Minute
	var key string
	if ttl > 0 && e.resultCache != nil {
		key = cacheKey(q.Text, strat, q.Filters, q.Scenarios)
		raw, ok, err := e.resultCache.Get(ctx, key)
		if err != nil {
			logger.WarnContext(ctx, "search cache get failed", "error", err)
		} else if ok {
			var cached []Result
			if jerr := json.Unmarshal(raw, &cached); jerr == nil {
				logger.DebugContext(ctx, "search cache hit", "results", len(cached))
				return cached, nil
			} else {
				logger.WarnContext(ctx, "discarding undecodable cache entry", "error", jerr)
			}
		}
	}

	var results []Result
	var err error
	switch strat {
	case StrategySemantic:
		results, err = e.searchSemantic(ctx, q, maxResults)
	case StrategyHybrid:
		results, err = e.searchHybrid(ctx, q, maxResults)
	case StrategyMultiVector:
		results, err = e.searchMultiVector(ctx, q, maxResults)
	default:
		return nil, fmt.Errorf("unsupported search strategy %q", strat)
	}
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "search completed", "strategy", strat, "results", len(results), "max_results", maxResults)

	if key != "" {
		raw, err := json.Marshal(results)
		if err == nil {
			if err := e.resultCache.Set(ctx, key, raw, ttl); err != nil {
				logger.WarnContext(ctx, "search cache set failed", "error", err)
			}
		}
	}

	return results, nil
}

// searchSemantic runs a single expanded embedding-similarity query.
func (e *engine) searchSemantic(ctx context.Context, q Query, maxResults int) ([]Result, error) {
	return e.runQuery(ctx, expandQuery(q.Text), q, maxResults)
}

// searchHybrid runs a semantic query and blends a lexical score into the
// similarity so jargon-heavy queries are not at the mercy of the embedding.
func (e *engine) searchHybrid(ctx context.Context, q Query, maxResults int) ([]Result, error) {
	results, err := e.runQuery(ctx, expandQuery(q.Text), q, maxResults)
	if err != nil {
		return nil, err
	}

	for i := range results {
		blended := results[i].Similarity + lexicalScore(q.Text, results[i].Content, results[i].Title)
		if blended > 1 {
			blended = 1
		}
		results[i].Similarity = blended
	}
	sortBySimilarity(results)
	return results, nil
}

// searchMultiVector fans out the base query plus one sub-query per requested
// framework and business scenario, merging by result id. Per-branch failures
// are isolated: one failing sub-query does not fail the whole search.
func (e *engine) searchMultiVector(ctx context.Context, q Query, maxResults int) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	subQueries := []string{expandQuery(q.Text)}
	for _, framework := range q.Filters.Frameworks {
		subQueries = append(subQueries, q.Text+" "+humanizeTag(framework))
	}
	for _, scenario := range q.Scenarios {
		subQueries = append(subQueries, q.Text+" "+scenario)
	}

	var (
		mu       sync.Mutex
		branches [][]Result
		errs     []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutBranchCap)
	for _, subQuery := range subQueries {
		g.Go(func() error {
			results, err := e.runQuery(gctx, subQuery, q, maxResults)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.WarnContext(ctx, "sub-query failed", "sub_query", subQuery, "error", err)
				errs = append(errs, err)
				return nil
			}
			branches = append(branches, results)
			return nil
		})
	}
	_ = g.Wait()

	if len(branches) == 0 {
		return nil, fmt.Errorf("all %d sub-queries failed: %w", len(subQueries), errs[0])
	}

	seen := make(map[string]struct{})
	var merged []Result
	for _, branch := range branches {
		for _, result := range branch {
			key := dedupeKey(result)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, result)
		}
	}

	sortBySimilarity(merged)
	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged, nil
}

// runQuery embeds the text and issues one similarity query against the store.
func (e *engine) runQuery(ctx context.Context, text string, q Query, limit int) ([]Result, error) {
	embeddings, err := e.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, query.WrapUpstream(err, "failed to embed query")
	}
	if len(embeddings) == 0 {
		return nil, query.WrapUpstream(fmt.Errorf("no embedding returned"), "failed to embed query")
	}

	raw, err := e.store.Search(ctx, e.collection, embeddings[0], vectorstore.SearchParams{
		Limit:          limit,
		ScoreThreshold: q.Performance.SimilarityThreshold,
		Filters:        storeFilters(q.Filters),
	})
	if err != nil {
		return nil, query.WrapUpstream(err, "vector search failed")
	}

	results := make([]Result, 0, len(raw))
	for _, sr := range raw {
		results = append(results, convertResult(sr))
	}
	return results, nil
}

// resolveAdaptive picks a concrete strategy from query characteristics.
func resolveAdaptive(text string, filters Filters) Strategy {
	switch {
	case hasFrameworkTerms(text) || len(filters.Frameworks) > 1:
		return StrategyMultiVector
	case hasImplementationFocus(text) || hasBusinessJargon(text):
		return StrategyHybrid
	default:
		return StrategySemantic
	}
}

// resolveMaxResults applies the caller's cap or selects one from query breadth.
func resolveMaxResults(q Query) int {
	if q.Performance.MaxResults > 0 {
		if q.Performance.MaxResults > hardMaxResults {
			return hardMaxResults
		}
		return q.Performance.MaxResults
	}

	// Broad questions need more passages to assemble a useful answer.
	lower := strings.ToLower(q.Text)
	for _, marker := range []string{"overview", "everything", "all ", "compare", "landscape"} {
		if strings.Contains(lower, marker) {
			return maxAutoResults
		}
	}
	if len(q.Filters.Frameworks) > 1 {
		return maxAutoResults
	}
	if len(Tokenize(q.Text)) <= 4 {
		return minAutoResults
	}
	return (minAutoResults + maxAutoResults) / 2
}

// storeFilters translates engine filters into vector-store payload filters.
// Multiple frameworks are handled by multi-vector fan-out rather than a
// store-side OR, so only a single framework constraint is pushed down.
func storeFilters(f Filters) map[string]any {
	filters := make(map[string]any)
	if len(f.Frameworks) == 1 {
		filters["framework"] = f.Frameworks[0]
	}
	if len(f.BusinessStages) > 0 {
		filters["business_phase"] = f.BusinessStages[0]
	}
	if f.Complexity != "" {
		filters["complexity"] = f.Complexity
	}
	if f.Category != "" {
		filters["category"] = f.Category
	}
	if len(filters) == 0 {
		return nil
	}
	return filters
}

// cacheKey builds a deterministic key from the query text, strategy, filters,
// and scenarios. Scenarios must participate: multi-vector runs one sub-query
// per scenario, so the same text with a different scenario list is a
// different search.
func cacheKey(text string, strat Strategy, f Filters, scenarios []string) string {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(strat))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(f.Frameworks, ",")))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(f.BusinessStages, ",")))
	h.Write([]byte{0})
	h.Write([]byte(f.Complexity))
	h.Write([]byte{0})
	h.Write([]byte(f.Category))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(scenarios, ",")))
	return "search:" + hex.EncodeToString(h.Sum(nil))
}

// dedupeKey identifies a result by id, falling back to title plus a content
// prefix when the store returned no id.
func dedupeKey(r Result) string {
	if r.ID != "" {
		return r.ID
	}
	content := r.Content
	if len(content) > 40 {
		content = content[:40]
	}
	return r.Title + "|" + content
}

func sortBySimilarity(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
}

// humanizeTag turns a framework tag like "grand_slam_offers" into query text.
func humanizeTag(tag string) string {
	return strings.ReplaceAll(tag, "_", " ")
}

// convertResult maps a raw store hit onto the engine's result shape.
func convertResult(sr vectorstore.SearchResult) Result {
	content := metaString(sr.Meta, "content")
	preview := metaString(sr.Meta, "content_preview")
	if preview == "" && content != "" {
		preview = content
		if len(preview) > previewLength {
			cut := previewLength
			for cut > 0 && !utf8.RuneStart(preview[cut]) {
				cut--
			}
			preview = preview[:cut] + "..."
		}
	}
	return Result{
		ID:             sr.PointID,
		Title:          metaString(sr.Meta, "title"),
		Content:        content,
		ContentPreview: preview,
		Category:       metaString(sr.Meta, "category"),
		Similarity:     sr.Score,
		FrameworkTags:  metaStringSlice(sr.Meta, "framework_tags"),
		BusinessPhase:  metaString(sr.Meta, "business_phase"),
		Complexity:     metaString(sr.Meta, "complexity"),
	}
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

func metaStringSlice(meta map[string]any, key string) []string {
	raw, ok := meta[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
