package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"advisor-ai/internal/contextutil"
	"advisor-ai/internal/pipeline"
	"advisor-ai/internal/query"
	"advisor-ai/internal/search"
)

// Asker answers one classified question. pipeline.Pipeline satisfies it.
type Asker interface {
	Ask(ctx context.Context, req pipeline.AskRequest) (*pipeline.Answer, error)
}

// AskHandler handles HTTP requests for answering business questions.
type AskHandler struct {
	pipeline Asker
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(p Asker) *AskHandler {
	return &AskHandler{pipeline: p}
}

// AskRequest represents the HTTP request payload for questions.
// This mirrors pipeline.AskRequest but is defined here for HTTP layer
// separation.
type AskRequest struct {
	Question          string             `json:"question"`
	Intent            string             `json:"intent"`
	Frameworks        []FrameworkSignal  `json:"frameworks,omitempty"`
	BusinessStages    []string           `json:"business_stages,omitempty"`
	Industry          string             `json:"industry,omitempty"`
	DesiredComplexity string             `json:"desired_complexity,omitempty"`
	Urgency           string             `json:"urgency,omitempty"`
	MaxSources        int                `json:"max_sources,omitempty"`
	Performance       *PerformanceParams `json:"performance,omitempty"`
}

// FrameworkSignal mirrors query.FrameworkSignal at the HTTP boundary.
type FrameworkSignal struct {
	Name      string  `json:"name"`
	Relevance float64 `json:"relevance"`
}

// PerformanceParams mirrors search.PerformanceParams at the HTTP boundary.
type PerformanceParams struct {
	MaxResults           int     `json:"max_results,omitempty"`
	SimilarityThreshold  float32 `json:"similarity_threshold,omitempty"`
	TimeoutSeconds       int     `json:"timeout_seconds,omitempty"`
	CacheDurationMinutes int     `json:"cache_duration_minutes,omitempty"`
}

// ServeHTTP handles HTTP requests for questions.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	askReq := pipeline.AskRequest{
		Classification: query.Classification{
			OriginalText:      req.Question,
			Intent:            query.Intent(req.Intent),
			BusinessStages:    req.BusinessStages,
			Industry:          req.Industry,
			DesiredComplexity: req.DesiredComplexity,
			Urgency:           req.Urgency,
		},
		MaxSources: req.MaxSources,
		Debug:      r.URL.Query().Get("debug") == "true",
	}
	for _, fw := range req.Frameworks {
		askReq.Classification.Frameworks = append(askReq.Classification.Frameworks, query.FrameworkSignal{
			Name:      fw.Name,
			Relevance: fw.Relevance,
		})
	}
	if req.Performance != nil {
		askReq.Performance = search.PerformanceParams{
			MaxResults:           req.Performance.MaxResults,
			SimilarityThreshold:  req.Performance.SimilarityThreshold,
			TimeoutSeconds:       req.Performance.TimeoutSeconds,
			CacheDurationMinutes: req.Performance.CacheDurationMinutes,
		}
	}

	answer, err := h.pipeline.Ask(ctx, askReq)
	if err != nil {
		handlePipelineError(w, ctx, err, "Failed to answer question")
		return
	}

	writeJSON(ctx, w, answer)
}
