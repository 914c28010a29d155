package price

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/selivandex/newstrader/pkg/models"
)

// ErrNotFound is returned when no bar exists for (ticker, date).
// A missing bar is an expected per-leg condition, not a failure.
var ErrNotFound = errors.New("price not found")

// Store provides daily OHLCV bars
type Store interface {
	// GetPrice returns the bar for one ticker and session date
	GetPrice(ctx context.Context, ticker string, date time.Time) (*models.PriceBar, error)
}

// Repository reads daily bars from the stock_prices table
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new price repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetPrice returns the bar for (ticker, date) or ErrNotFound
func (r *Repository) GetPrice(ctx context.Context, ticker string, date time.Time) (*models.PriceBar, error) {
	query := `
		SELECT ticker, date, open_price, close_price,
		       COALESCE(high_price, 0) AS high_price,
		       COALESCE(low_price, 0) AS low_price,
		       COALESCE(volume, 0) AS volume
		FROM stock_prices
		WHERE ticker = $1 AND date = $2
	`

	var bar models.PriceBar
	err := r.db.GetContext(ctx, &bar, query, ticker, date.Format("2006-01-02"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query price for %s on %s: %w",
			ticker, date.Format("2006-01-02"), err)
	}

	return &bar, nil
}
