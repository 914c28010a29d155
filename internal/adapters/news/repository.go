package news

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/selivandex/newstrader/pkg/models"
)

// Repository reads headlines written by the ingestion service.
// The engine never mutates this table.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new headline repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetHeadlines returns headlines published within [start, end],
// oldest first.
func (r *Repository) GetHeadlines(ctx context.Context, start, end time.Time) ([]models.Headline, error) {
	query := `
		SELECT id, title, COALESCE(summary, '') AS summary,
		       COALESCE(source, '') AS source, url, published_at
		FROM headlines
		WHERE published_at >= $1 AND published_at <= $2
		ORDER BY published_at
	`

	headlines := make([]models.Headline, 0)
	if err := r.db.SelectContext(ctx, &headlines, query, start, end); err != nil {
		return nil, fmt.Errorf("failed to query headlines: %w", err)
	}

	return headlines, nil
}

// Count returns the number of stored headlines
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM headlines`); err != nil {
		return 0, fmt.Errorf("failed to count headlines: %w", err)
	}
	return n, nil
}
