package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"go.uber.org/mock/gomock"

	"advisor-ai/internal/query"
	"advisor-ai/internal/vectorstore"
	"advisor-ai/internal/vectorstore/mocks"
)

// fakeEmbedder returns a fixed vector for any input.
type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

// fakeCache records Set calls and serves a canned Get response.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func storeHit(id, title, content string, score float32) vectorstore.SearchResult {
	return vectorstore.SearchResult{
		PointID: id,
		Score:   score,
		Meta: map[string]any{
			"title":   title,
			"content": content,
		},
	}
}

func TestSearchRejectsEmptyText(t *testing.T) {
	engine := NewEngine(&fakeEmbedder{}, nil, "knowledge", nil)

	_, err := engine.Search(context.Background(), Query{Text: "   "})
	var vErr *query.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSearchRejectsUnknownStrategy(t *testing.T) {
	engine := NewEngine(&fakeEmbedder{}, nil, "knowledge", nil)

	_, err := engine.Search(context.Background(), Query{Text: "q", Strategy: Strategy("cosmic")})
	if err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestSearchSemanticPassesParams(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorStore(ctrl)
	store.EXPECT().
		Search(gomock.Any(), "knowledge", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ []float32, params vectorstore.SearchParams) ([]vectorstore.SearchResult, error) {
			if params.Limit != 7 {
				t.Errorf("expected limit 7, got %d", params.Limit)
			}
			if params.ScoreThreshold != 0.6 {
				t.Errorf("expected threshold 0.6, got %f", params.ScoreThreshold)
			}
			if params.Filters["business_phase"] != "startup" {
				t.Errorf("expected startup phase filter, got %v", params.Filters)
			}
			return []vectorstore.SearchResult{
				storeHit("p1", "Offers", "offer content", 0.9),
				storeHit("p2", "Leads", "lead content", 0.8),
			}, nil
		})

	engine := NewEngine(&fakeEmbedder{}, store, "knowledge", nil)
	results, err := engine.Search(context.Background(), Query{
		Text:    "how do I price my offer",
		Filters: Filters{BusinessStages: []string{"startup"}},
		Performance: PerformanceParams{
			MaxResults:          7,
			SimilarityThreshold: 0.6,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "p1" || results[0].Similarity != 0.9 {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[0].ContentPreview == "" {
		t.Fatal("expected content preview to be derived from content")
	}
}

func TestSearchEmbedderFailurePropagatesAsUpstream(t *testing.T) {
	engine := NewEngine(&fakeEmbedder{err: fmt.Errorf("connection refused")}, nil, "knowledge", nil)

	_, err := engine.Search(context.Background(), Query{Text: "pricing"})
	if !errors.Is(err, query.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

// stubVectorStore is a hand fake for concurrency-sensitive tests where gomock
// expectation ordering would be awkward.
type stubVectorStore struct {
	mu       sync.Mutex
	calls    int
	failNth  int // fail the Nth call (1-based); 0 disables
	response [][]vectorstore.SearchResult
}

func (s *stubVectorStore) Upsert(context.Context, string, []vectorstore.Point) error { return nil }
func (s *stubVectorStore) Delete(context.Context, string, []string) error            { return nil }
func (s *stubVectorStore) CollectionExists(context.Context, string) (bool, error)    { return true, nil }
func (s *stubVectorStore) EnsureCollection(context.Context, string, int) error       { return nil }

func (s *stubVectorStore) Search(_ context.Context, _ string, _ []float32, _ vectorstore.SearchParams) ([]vectorstore.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failNth > 0 && s.calls == s.failNth {
		return nil, fmt.Errorf("sub-query store failure")
	}
	idx := s.calls - 1
	if idx >= len(s.response) {
		idx = len(s.response) - 1
	}
	return s.response[idx], nil
}

func TestMultiVectorMergesAndDeduplicates(t *testing.T) {
	store := &stubVectorStore{
		response: [][]vectorstore.SearchResult{
			{storeHit("p1", "Offers", "a", 0.9), storeHit("p2", "Leads", "b", 0.7)},
			{storeHit("p2", "Leads", "b", 0.7), storeHit("p3", "Scaling", "c", 0.8)},
			{storeHit("p1", "Offers", "a", 0.9)},
		},
	}

	engine := NewEngine(&fakeEmbedder{}, store, "knowledge", nil)
	results, err := engine.Search(context.Background(), Query{
		Text:     "grow my business",
		Strategy: StrategyMultiVector,
		Filters:  Filters{Frameworks: []string{"grand_slam_offers", "core_four"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 deduplicated results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Fatalf("results not sorted by similarity: %v then %v", results[i-1].Similarity, results[i].Similarity)
		}
	}
}

func TestMultiVectorIsolatesBranchFailures(t *testing.T) {
	store := &stubVectorStore{
		failNth: 1,
		response: [][]vectorstore.SearchResult{
			{storeHit("p1", "Offers", "a", 0.9)},
		},
	}

	engine := NewEngine(&fakeEmbedder{}, store, "knowledge", nil)
	results, err := engine.Search(context.Background(), Query{
		Text:     "grow my business",
		Strategy: StrategyMultiVector,
		Filters:  Filters{Frameworks: []string{"grand_slam_offers"}},
	})
	if err != nil {
		t.Fatalf("one failing branch should not fail the search, got %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results from surviving branches")
	}
}

func TestMultiVectorAllBranchesFailing(t *testing.T) {
	engine := NewEngine(&fakeEmbedder{err: fmt.Errorf("embedder down")}, &stubVectorStore{}, "knowledge", nil)

	_, err := engine.Search(context.Background(), Query{
		Text:     "grow my business",
		Strategy: StrategyMultiVector,
	})
	if err == nil {
		t.Fatal("expected error when every branch fails")
	}
}

func TestSearchCacheHitSkipsStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No Search expectation: any store call fails the test.
	store := mocks.NewMockVectorStore(ctrl)

	cached := []Result{{ID: "p1", Title: "Offers", Similarity: 0.9}}
	raw, _ := json.Marshal(cached)
	c := newFakeCache()
	key := cacheKey("pricing", StrategySemantic, Filters{}, nil)
	c.entries[key] = raw

	engine := NewEngine(&fakeEmbedder{}, store, "knowledge", c)
	results, err := engine.Search(context.Background(), Query{
		Text:        "pricing",
		Performance: PerformanceParams{CacheDurationMinutes: 10},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "p1" {
		t.Fatalf("expected cached results, got %+v", results)
	}
}

func TestSearchCacheStoresResults(t *testing.T) {
	store := &stubVectorStore{
		response: [][]vectorstore.SearchResult{
			{storeHit("p1", "Offers", "a", 0.9)},
		},
	}
	c := newFakeCache()

	engine := NewEngine(&fakeEmbedder{}, store, "knowledge", c)
	_, err := engine.Search(context.Background(), Query{
		Text:        "pricing",
		Performance: PerformanceParams{CacheDurationMinutes: 10},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(c.entries) != 1 {
		t.Fatalf("expected one cache entry, got %d", len(c.entries))
	}
	for _, ttl := range c.ttls {
		if ttl != 10*time.Minute {
			t.Fatalf("expected ttl 10m, got %v", ttl)
		}
	}
}

func TestSearchCacheKeysDistinguishScenarios(t *testing.T) {
	store := &stubVectorStore{
		response: [][]vectorstore.SearchResult{
			{storeHit("p1", "Hiring", "a", 0.9)},
		},
	}
	c := newFakeCache()

	engine := NewEngine(&fakeEmbedder{}, store, "knowledge", c)
	base := Query{
		Text:        "systems for growth",
		Strategy:    StrategyMultiVector,
		Performance: PerformanceParams{CacheDurationMinutes: 10},
	}

	first := base
	first.Scenarios = []string{"hiring ops"}
	if _, err := engine.Search(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	callsAfterFirst := store.calls

	second := base
	second.Scenarios = []string{"founder bottleneck", "quality dropping", "management layer"}
	if _, err := engine.Search(context.Background(), second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.calls == callsAfterFirst {
		t.Fatal("second scenario list was served from the first list's cache entry")
	}
	if len(c.entries) != 2 {
		t.Fatalf("expected a distinct cache entry per scenario list, got %d", len(c.entries))
	}
}

func TestSearchNoCachingWhenDurationZero(t *testing.T) {
	store := &stubVectorStore{
		response: [][]vectorstore.SearchResult{
			{storeHit("p1", "Offers", "a", 0.9)},
		},
	}
	c := newFakeCache()

	engine := NewEngine(&fakeEmbedder{}, store, "knowledge", c)
	if _, err := engine.Search(context.Background(), Query{Text: "pricing"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.entries) != 0 {
		t.Fatalf("expected no cache entries, got %d", len(c.entries))
	}
}

func TestHybridBlendsLexicalScore(t *testing.T) {
	// Second hit scores lower on similarity but matches the query text
	// lexically, so blending should reorder.
	store := &stubVectorStore{
		response: [][]vectorstore.SearchResult{
			{
				storeHit("p1", "General", "nothing relevant here at all", 0.80),
				storeHit("p2", "Churn Playbook", "churn churn churn reduction tactics", 0.78),
			},
		},
	}

	engine := NewEngine(&fakeEmbedder{}, store, "knowledge", nil)
	results, err := engine.Search(context.Background(), Query{
		Text:     "churn",
		Strategy: StrategyHybrid,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].ID != "p2" {
		t.Fatalf("expected lexical blend to promote p2, got %s first", results[0].ID)
	}
	for _, r := range results {
		if r.Similarity > 1 {
			t.Fatalf("blended similarity must stay within [0,1], got %f", r.Similarity)
		}
	}
}

func TestResolveAdaptive(t *testing.T) {
	tests := []struct {
		text    string
		filters Filters
		want    Strategy
	}{
		{"tell me about the grand slam offer", Filters{}, StrategyMultiVector},
		{"q", Filters{Frameworks: []string{"a", "b"}}, StrategyMultiVector},
		{"how to implement referrals", Filters{}, StrategyHybrid},
		{"reduce churn and cac", Filters{}, StrategyHybrid},
		{"what makes a good story", Filters{}, StrategySemantic},
	}
	for _, tt := range tests {
		if got := resolveAdaptive(tt.text, tt.filters); got != tt.want {
			t.Fatalf("resolveAdaptive(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestResolveMaxResults(t *testing.T) {
	tests := []struct {
		q    Query
		want int
	}{
		{Query{Text: "short", Performance: PerformanceParams{MaxResults: 5}}, 5},
		{Query{Text: "short", Performance: PerformanceParams{MaxResults: 99}}, hardMaxResults},
		{Query{Text: "give me an overview of everything"}, maxAutoResults},
		{Query{Text: "quick pricing question"}, minAutoResults},
	}
	for _, tt := range tests {
		if got := resolveMaxResults(tt.q); got != tt.want {
			t.Fatalf("resolveMaxResults(%q) = %d, want %d", tt.q.Text, got, tt.want)
		}
	}
}

func TestConvertResultPreviewKeepsValidUTF8(t *testing.T) {
	// 100 three-byte runes (300 bytes): the preview limit falls mid-rune.
	content := strings.Repeat("€", 100)
	result := convertResult(vectorstore.SearchResult{
		PointID: "p1",
		Score:   0.9,
		Meta:    map[string]any{"title": "Pricing", "content": content},
	})

	if !utf8.ValidString(result.ContentPreview) {
		t.Fatalf("preview contains invalid UTF-8: %q", result.ContentPreview)
	}
	if !strings.HasSuffix(result.ContentPreview, "...") {
		t.Fatalf("expected truncated preview, got %q", result.ContentPreview)
	}
	if len(result.ContentPreview) > previewLength+3 {
		t.Fatalf("preview exceeds limit: %d bytes", len(result.ContentPreview))
	}
}
