package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/selivandex/newstrader/pkg/models"
)

// Repository persists sentiment judgments in Postgres
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new judgment repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type judgmentRow struct {
	Date       time.Time `db:"date"`
	Ticker     string    `db:"ticker"`
	Sentiment  string    `db:"sentiment"`
	Evidence   []byte    `db:"evidence"`
	RunID      int64     `db:"run_id"`
	HeadlineID int64     `db:"headline_id"`
}

// Exists reports whether a judgment already exists for the key
func (r *Repository) Exists(ctx context.Context, runID int64, date time.Time, headlineID int64, ticker string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM sentiment_judgments
			WHERE run_id = $1 AND date = $2 AND headline_id = $3 AND ticker = $4
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, runID, date, headlineID, ticker).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check judgment existence: %w", err)
	}

	return exists, nil
}

// Insert stores a judgment. The unique constraint on
// (run_id, date, headline_id, ticker) makes duplicate inserts a no-op
func (r *Repository) Insert(ctx context.Context, judgment models.SentimentJudgment) error {
	var evidence []byte
	if len(judgment.Evidence) > 0 {
		var err error
		evidence, err = json.Marshal(judgment.Evidence)
		if err != nil {
			return fmt.Errorf("failed to serialize evidence: %w", err)
		}
	}

	query := `
		INSERT INTO sentiment_judgments (run_id, date, headline_id, ticker, sentiment, evidence)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT uq_judgment DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query,
		judgment.RunID,
		judgment.Date,
		judgment.HeadlineID,
		judgment.Ticker,
		string(judgment.Sentiment),
		evidence,
	); err != nil {
		return fmt.Errorf("failed to insert judgment: %w", err)
	}

	return nil
}

// ListForDate returns all judgments for a run and date in insertion order.
// Insertion order is what makes signal ranking ties deterministic
func (r *Repository) ListForDate(ctx context.Context, runID int64, date time.Time) ([]models.SentimentJudgment, error) {
	query := `
		SELECT run_id, date, headline_id, ticker, sentiment, evidence
		FROM sentiment_judgments
		WHERE run_id = $1 AND date = $2
		ORDER BY id
	`

	var rows []judgmentRow
	if err := r.db.SelectContext(ctx, &rows, query, runID, date); err != nil {
		return nil, fmt.Errorf("failed to list judgments: %w", err)
	}

	judgments := make([]models.SentimentJudgment, 0, len(rows))
	for _, row := range rows {
		judgment := models.SentimentJudgment{
			Date:       row.Date,
			Ticker:     row.Ticker,
			Sentiment:  models.Sentiment(row.Sentiment),
			RunID:      row.RunID,
			HeadlineID: row.HeadlineID,
		}
		if len(row.Evidence) > 0 {
			if err := json.Unmarshal(row.Evidence, &judgment.Evidence); err != nil {
				return nil, fmt.Errorf("failed to deserialize evidence: %w", err)
			}
		}
		judgments = append(judgments, judgment)
	}

	return judgments, nil
}

// CountForRun returns the number of judgments stored for a run
func (r *Repository) CountForRun(ctx context.Context, runID int64) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM sentiment_judgments WHERE run_id = $1`
	if err := r.db.QueryRowContext(ctx, query, runID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count judgments: %w", err)
	}
	return count, nil
}
