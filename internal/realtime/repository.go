package realtime

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/selivandex/newstrader/pkg/models"
)

// ErrNoPredictions is returned when no prediction has been stored yet
var ErrNoPredictions = fmt.Errorf("no predictions stored")

// Repository persists live predictions in Postgres
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new prediction repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CreatePrediction inserts an empty prediction row and returns its id.
// The id is negated to key live judgments, so it must exist before
// analysis starts
func (r *Repository) CreatePrediction(ctx context.Context) (int64, error) {
	var id int64
	query := `INSERT INTO predictions (timestamp) VALUES (NOW()) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create prediction: %w", err)
	}
	return id, nil
}

type signalsPayload struct {
	Long  []models.TickerSignal `json:"long_signals"`
	Short []models.TickerSignal `json:"short_signals"`
}

// UpdatePrediction stores the finished signal snapshot
func (r *Repository) UpdatePrediction(ctx context.Context, p models.Prediction) error {
	payload, err := json.Marshal(signalsPayload{Long: p.LongSignals, Short: p.ShortSignals})
	if err != nil {
		return fmt.Errorf("failed to serialize signals: %w", err)
	}

	query := `
		UPDATE predictions
		SET long_tickers = $2, short_tickers = $3, signals = $4,
		    market_sentiment = $5, total_articles = $6, unique_tickers = $7
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query,
		p.ID,
		pq.Array(p.LongTickers),
		pq.Array(p.ShortTickers),
		payload,
		p.MarketSentiment,
		p.TotalArticles,
		p.UniqueTickers,
	); err != nil {
		return fmt.Errorf("failed to update prediction: %w", err)
	}

	return nil
}

type predictionRow struct {
	Timestamp       time.Time      `db:"timestamp"`
	LongTickers     pq.StringArray `db:"long_tickers"`
	ShortTickers    pq.StringArray `db:"short_tickers"`
	Signals         []byte         `db:"signals"`
	MarketSentiment float64        `db:"market_sentiment"`
	TotalArticles   int            `db:"total_articles"`
	UniqueTickers   int            `db:"unique_tickers"`
	ID              int64          `db:"id"`
}

// LatestPrediction returns the most recently stored prediction
func (r *Repository) LatestPrediction(ctx context.Context) (*models.Prediction, error) {
	var row predictionRow
	query := `
		SELECT id, timestamp, long_tickers, short_tickers, signals,
		       market_sentiment, total_articles, unique_tickers
		FROM predictions
		ORDER BY timestamp DESC
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoPredictions
		}
		return nil, fmt.Errorf("failed to fetch latest prediction: %w", err)
	}

	prediction := models.Prediction{
		ID:              row.ID,
		Timestamp:       row.Timestamp,
		LongTickers:     row.LongTickers,
		ShortTickers:    row.ShortTickers,
		MarketSentiment: row.MarketSentiment,
		TotalArticles:   row.TotalArticles,
		UniqueTickers:   row.UniqueTickers,
	}
	if len(row.Signals) > 0 {
		var payload signalsPayload
		if err := json.Unmarshal(row.Signals, &payload); err != nil {
			return nil, fmt.Errorf("failed to deserialize signals: %w", err)
		}
		prediction.LongSignals = payload.Long
		prediction.ShortSignals = payload.Short
	}

	return &prediction, nil
}
