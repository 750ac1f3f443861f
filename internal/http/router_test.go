package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/mock/gomock"

	"advisor-ai/internal/pipeline"
	"advisor-ai/internal/respond"
	"advisor-ai/internal/search"
	"advisor-ai/internal/vectorstore/mocks"
)

type stubAsker struct{}

func (stubAsker) Ask(ctx context.Context, req pipeline.AskRequest) (*pipeline.Answer, error) {
	return &pipeline.Answer{Text: "ok"}, nil
}

type stubEngine struct{}

func (stubEngine) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	store.EXPECT().CollectionExists(gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()

	return NewRouter(&Deps{
		Pipeline:        stubAsker{},
		SearchEngine:    stubEngine{},
		Responder:       respond.NewRanker(),
		Assessor:        respond.NewQualityAssessor(nil),
		VectorStore:     store,
		CollectionName:  "passages",
		MetricsGatherer: prometheus.NewRegistry(),
	})
}

func TestRouterRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"POST /api/ask exists", http.MethodPost, "/api/ask", `{"question":"q","intent":"learning"}`, http.StatusOK},
		{"POST /api/search exists", http.MethodPost, "/api/search", `{"text":"q"}`, http.StatusOK},
		{"POST /api/rank rejects empty query", http.MethodPost, "/api/rank", `{}`, http.StatusBadRequest},
		{"GET /api/health exists", http.MethodGet, "/api/health", "", http.StatusOK},
		{"GET /metrics exists", http.MethodGet, "/metrics", "", http.StatusOK},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRouterSetsRequestID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated X-Request-ID header")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("X-Request-ID = %q, want fixed-id", got)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/ask", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
