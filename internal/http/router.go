package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"advisor-ai/internal/cache"
	"advisor-ai/internal/handlers"
	"advisor-ai/internal/respond"
	"advisor-ai/internal/search"
	"advisor-ai/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Pipeline       handlers.Asker
	SearchEngine   search.Engine
	Responder      *respond.Ranker
	Assessor       *respond.QualityAssessor
	VectorStore    vectorstore.VectorStore
	ResultCache    cache.Cache
	CollectionName string
	// MetricsGatherer exposes /metrics when set.
	MetricsGatherer prometheus.Gatherer
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(CORS)

	askHandler := handlers.NewAskHandler(deps.Pipeline)
	searchHandler := handlers.NewSearchHandler(deps.SearchEngine)
	rankHandler := handlers.NewRankHandler(deps.Responder, deps.Assessor)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.ResultCache, deps.CollectionName)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodPost, "/search", searchHandler)
		r.Method(http.MethodPost, "/rank", rankHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	return r
}
