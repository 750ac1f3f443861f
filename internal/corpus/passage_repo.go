package corpus

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_passage_store.go -package=mocks advisor-ai/internal/corpus PassageStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested passage is not in the corpus index.
var ErrNotFound = errors.New("passage not found")

// PassageMeta is the curated metadata the ranker treats as pre-computed
// input: who published a passage, how authoritative it is, and how old it is.
type PassageMeta struct {
	// ID matches the vector-store point id for the passage.
	ID string
	// Title is the passage title.
	Title string
	// Category is the content category (e.g., "offers", "leads", "scaling").
	Category string
	// SourceType classifies the origin (e.g., "book", "course", "interview", "community").
	SourceType string
	// AuthorityTier ranks source trustworthiness: 1 = primary source,
	// 2 = expert commentary, 3 = community-interpreted.
	AuthorityTier int
	// PublishedAt is when the source material was published; zero when unknown.
	PublishedAt time.Time
}

// PassageStore defines the interface for passage metadata lookups.
type PassageStore interface {
	// Upsert inserts or replaces metadata for a passage.
	Upsert(ctx context.Context, meta *PassageMeta) error
	// GetByID gets passage metadata by id. Returns ErrNotFound if not indexed.
	GetByID(ctx context.Context, id string) (*PassageMeta, error)
}

// PassageRepo provides methods for passage metadata operations.
// It implements the PassageStore interface.
type PassageRepo struct {
	db *sql.DB
}

// NewPassageRepo creates a new PassageRepo.
func NewPassageRepo(db *sql.DB) *PassageRepo {
	return &PassageRepo{db: db}
}

// Upsert inserts or replaces metadata for a passage.
func (r *PassageRepo) Upsert(ctx context.Context, meta *PassageMeta) error {
	if meta.ID == "" {
		return fmt.Errorf("passage id must be set")
	}
	var publishedAt any
	if !meta.PublishedAt.IsZero() {
		publishedAt = meta.PublishedAt.UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO passages (id, title, category, source_type, authority_tier, published_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			category = excluded.category,
			source_type = excluded.source_type,
			authority_tier = excluded.authority_tier,
			published_at = excluded.published_at`,
		meta.ID, meta.Title, meta.Category, meta.SourceType, meta.AuthorityTier, publishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert passage: %w", err)
	}
	return nil
}

// GetByID gets passage metadata by id. Returns ErrNotFound if not indexed.
func (r *PassageRepo) GetByID(ctx context.Context, id string) (*PassageMeta, error) {
	var meta PassageMeta
	var publishedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, category, source_type, authority_tier, published_at FROM passages WHERE id = ?",
		id,
	).Scan(&meta.ID, &meta.Title, &meta.Category, &meta.SourceType, &meta.AuthorityTier, &publishedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get passage: %w", err)
	}
	if publishedAt.Valid {
		meta.PublishedAt = publishedAt.Time
	}
	return &meta, nil
}
