package handlers

import (
	"encoding/json"
	"net/http"

	"advisor-ai/internal/contextutil"
	"advisor-ai/internal/respond"
)

// RankHandler handles HTTP requests for ranking candidate responses.
type RankHandler struct {
	ranker   *respond.Ranker
	assessor *respond.QualityAssessor
}

// NewRankHandler creates a new RankHandler.
func NewRankHandler(ranker *respond.Ranker, assessor *respond.QualityAssessor) *RankHandler {
	return &RankHandler{ranker: ranker, assessor: assessor}
}

// RankResponse represents the HTTP response payload for ranking.
type RankResponse struct {
	Set         *respond.RankedSet   `json:"ranking"`
	Assessments []respond.Assessment `json:"assessments,omitempty"`
}

// ServeHTTP handles HTTP requests for candidate ranking.
func (h *RankHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req respond.RankingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	set, err := h.ranker.Rank(ctx, req)
	if err != nil {
		handlePipelineError(w, ctx, err, "Failed to rank candidates")
		return
	}

	resp := RankResponse{Set: set}
	if h.assessor != nil && r.URL.Query().Get("assess") == "true" {
		for _, candidate := range req.Candidates {
			resp.Assessments = append(resp.Assessments, h.assessor.Assess(ctx, candidate, req.Query))
		}
	}

	writeJSON(ctx, w, resp)
}
