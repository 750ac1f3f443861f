package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks advisor-ai/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// SearchParams controls a single similarity query.
type SearchParams struct {
	// Limit caps the number of returned points.
	Limit int
	// ScoreThreshold drops points scoring below it when > 0.
	ScoreThreshold float32
	// Filters are exact-match payload constraints. Supported keys:
	// "framework" (matches any element of the framework_tags payload list),
	// "business_phase", "complexity", "category".
	Filters map[string]any
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search with the given params.
	Search(ctx context.Context, collection string, query []float32, params SearchParams) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// CollectionExists checks if a collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// EnsureCollection ensures a collection exists with the specified vector size.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error
}
