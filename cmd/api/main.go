package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"advisor-ai/internal/assembly"
	"advisor-ai/internal/cache"
	"advisor-ai/internal/config"
	"advisor-ai/internal/corpus"
	"advisor-ai/internal/http"
	"advisor-ai/internal/llm"
	"advisor-ai/internal/metrics"
	"advisor-ai/internal/pipeline"
	"advisor-ai/internal/ranking"
	"advisor-ai/internal/respond"
	"advisor-ai/internal/search"
	"advisor-ai/internal/strategy"
	"advisor-ai/internal/vectorstore"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize the corpus metadata database
	db, err := corpus.New(cfg.CorpusDBPath)
	if err != nil {
		log.Fatalf("Failed to open corpus database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := corpus.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Corpus database initialized", "path", cfg.CorpusDBPath)

	passageRepo := corpus.NewPassageRepo(db)

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.QdrantVectorSize, len(testEmbeddings[0]))
	}
	slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

	// Select the search result cache backend
	var resultCache cache.Cache
	switch cfg.CacheBackend {
	case "redis":
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis cache: %v", err)
		}
		defer func() {
			_ = redisCache.Close()
		}()
		resultCache = redisCache
	default:
		resultCache = cache.NewMemoryCache(cfg.CacheMaxEntries, time.Duration(cfg.CacheTTLMinutes)*time.Minute)
	}
	slog.Info("Result cache ready", "backend", cfg.CacheBackend)

	// Metrics
	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	// Build the answer pipeline. The search engine gets an observed cache so
	// hit/miss outcomes land in the analytics sink.
	searchCache := cache.Observed(resultCache, func(hit bool) {
		if hit {
			recorder.CountCache("hit")
		} else {
			recorder.CountCache("miss")
		}
	})
	searchEngine := search.NewEngine(embedder, vectorStore, cfg.QdrantCollection, searchCache)
	selector := strategy.NewSelector()
	ranker := ranking.NewRanker(ranking.NewCorpusScoreProvider(passageRepo))
	assembler := assembly.NewEngine()
	responder := respond.NewRanker()
	assessor := respond.NewQualityAssessor(nil)
	answerPipeline := pipeline.New(selector, searchEngine, ranker, assembler, responder, assessor, pipeline.Options{
		Chat:     llmClient,
		Recorder: recorder,
	})
	slog.Info("Answer pipeline initialized")

	// Create router with dependencies
	deps := &http.Deps{
		Pipeline:        answerPipeline,
		SearchEngine:    searchEngine,
		Responder:       responder,
		Assessor:        assessor,
		VectorStore:     vectorStore,
		ResultCache:     resultCache,
		CollectionName:  cfg.QdrantCollection,
		MetricsGatherer: registry,
	}
	router := http.NewRouter(deps)

	server := &nethttp.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "port", cfg.APIPort)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
	slog.Info("Server stopped")
}
