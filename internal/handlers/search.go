package handlers

import (
	"encoding/json"
	"net/http"

	"advisor-ai/internal/contextutil"
	"advisor-ai/internal/search"
)

// SearchHandler handles HTTP requests for direct corpus search.
type SearchHandler struct {
	engine search.Engine
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(engine search.Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// SearchRequest represents the HTTP request payload for search.
type SearchRequest struct {
	Text        string             `json:"text"`
	Strategy    string             `json:"strategy,omitempty"`
	Frameworks  []string           `json:"frameworks,omitempty"`
	Stages      []string           `json:"business_stages,omitempty"`
	Complexity  string             `json:"complexity,omitempty"`
	Category    string             `json:"category,omitempty"`
	Scenarios   []string           `json:"scenarios,omitempty"`
	Performance *PerformanceParams `json:"performance,omitempty"`
}

// SearchResponse represents the HTTP response payload for search.
type SearchResponse struct {
	Results []search.Result `json:"results"`
	Count   int             `json:"count"`
}

// ServeHTTP handles HTTP requests for search.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	strategy := search.Strategy(req.Strategy)
	if req.Strategy == "" {
		strategy = search.StrategyAdaptive
	}
	q := search.Query{
		Text:     req.Text,
		Strategy: strategy,
		Filters: search.Filters{
			Frameworks:     req.Frameworks,
			BusinessStages: req.Stages,
			Complexity:     req.Complexity,
			Category:       req.Category,
		},
		Scenarios: req.Scenarios,
	}
	if req.Performance != nil {
		q.Performance = search.PerformanceParams{
			MaxResults:           req.Performance.MaxResults,
			SimilarityThreshold:  req.Performance.SimilarityThreshold,
			TimeoutSeconds:       req.Performance.TimeoutSeconds,
			CacheDurationMinutes: req.Performance.CacheDurationMinutes,
		}
	}

	results, err := h.engine.Search(ctx, q)
	if err != nil {
		handlePipelineError(w, ctx, err, "Search failed")
		return
	}

	writeJSON(ctx, w, SearchResponse{Results: results, Count: len(results)})
}
