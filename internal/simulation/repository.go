package simulation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/selivandex/newstrader/pkg/models"
)

// ErrRunNotFound is returned when a run id does not exist
var ErrRunNotFound = fmt.Errorf("run not found")

// Repository persists runs and daily recaps in Postgres
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new simulation repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a new run record and returns its id
func (r *Repository) CreateRun(ctx context.Context) (int64, error) {
	var id int64
	query := `INSERT INTO runs (started_at) VALUES (NOW()) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun stores final metrics and marks the run finished. This is
// the terminal write of a backtest; its failure fails the whole run
func (r *Repository) CompleteRun(ctx context.Context, runID int64, metrics models.Metrics, tradingDays, totalTrades int) error {
	payload, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to serialize final metrics: %w", err)
	}

	query := `
		UPDATE runs
		SET completed_at = NOW(), trading_days = $2, total_trades = $3, final_metrics = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, runID, tradingDays, totalTrades, payload)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to confirm run completion: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %d: %w", runID, ErrRunNotFound)
	}

	return nil
}

type runRow struct {
	StartedAt    time.Time  `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
	FinalMetrics []byte     `db:"final_metrics"`
	TradingDays  int        `db:"trading_days"`
	TotalTrades  int        `db:"total_trades"`
	ID           int64      `db:"id"`
}

func (row runRow) toRecord() (models.RunRecord, error) {
	record := models.RunRecord{
		ID:          row.ID,
		StartedAt:   row.StartedAt,
		CompletedAt: row.CompletedAt,
		TradingDays: row.TradingDays,
		TotalTrades: row.TotalTrades,
	}
	if len(row.FinalMetrics) > 0 {
		var metrics models.Metrics
		if err := json.Unmarshal(row.FinalMetrics, &metrics); err != nil {
			return record, fmt.Errorf("failed to deserialize final metrics: %w", err)
		}
		record.FinalMetrics = &metrics
	}
	return record, nil
}

// GetRun fetches one run record by id
func (r *Repository) GetRun(ctx context.Context, runID int64) (*models.RunRecord, error) {
	var row runRow
	query := `
		SELECT id, started_at, completed_at, trading_days, total_trades, final_metrics
		FROM runs WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &row, query, runID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %d: %w", runID, ErrRunNotFound)
		}
		return nil, fmt.Errorf("failed to fetch run: %w", err)
	}

	record, err := row.toRecord()
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListRuns returns all runs, newest first
func (r *Repository) ListRuns(ctx context.Context) ([]models.RunRecord, error) {
	var rows []runRow
	query := `
		SELECT id, started_at, completed_at, trading_days, total_trades, final_metrics
		FROM runs ORDER BY started_at DESC
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	records := make([]models.RunRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// DeleteRun removes a run and everything it owns. The cascade order is
// judgments, then recaps, then the run record itself
func (r *Repository) DeleteRun(ctx context.Context, runID int64) (models.DeleteCounts, error) {
	var counts models.DeleteCounts

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return counts, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []struct {
		query string
		out   *int64
	}{
		{`DELETE FROM sentiment_judgments WHERE run_id = $1`, &counts.Judgments},
		{`DELETE FROM daily_recaps WHERE run_id = $1`, &counts.Recaps},
		{`DELETE FROM runs WHERE id = $1`, &counts.Runs},
	}

	for _, step := range steps {
		result, err := tx.ExecContext(ctx, step.query, runID)
		if err != nil {
			return counts, fmt.Errorf("failed to delete run %d: %w", runID, err)
		}
		if *step.out, err = result.RowsAffected(); err != nil {
			return counts, fmt.Errorf("failed to read deleted row count: %w", err)
		}
	}

	if counts.Runs == 0 {
		return models.DeleteCounts{}, fmt.Errorf("run %d: %w", runID, ErrRunNotFound)
	}

	if err := tx.Commit(); err != nil {
		return counts, fmt.Errorf("failed to commit run deletion: %w", err)
	}

	return counts, nil
}

// StoreRecapOpen writes the market-open intent for a trading day.
// Re-running a day overwrites the previous intent
func (r *Repository) StoreRecapOpen(ctx context.Context, recap models.DailyRecap) error {
	detail, err := json.Marshal(recap.Detail)
	if err != nil {
		return fmt.Errorf("failed to serialize recap detail: %w", err)
	}

	query := `
		INSERT INTO daily_recaps (run_id, date, starting_equity, ending_equity, detail)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT uq_recap DO UPDATE SET
			starting_equity = EXCLUDED.starting_equity,
			ending_equity = EXCLUDED.ending_equity,
			detail = EXCLUDED.detail
	`

	if _, err := r.db.ExecContext(ctx, query,
		recap.RunID, recap.Date, recap.StartingEquity, recap.EndingEquity, detail,
	); err != nil {
		return fmt.Errorf("failed to store recap: %w", err)
	}

	return nil
}

// UpdateRecapClose merges realized results into the day's recap
func (r *Repository) UpdateRecapClose(ctx context.Context, recap models.DailyRecap) error {
	detail, err := json.Marshal(recap.Detail)
	if err != nil {
		return fmt.Errorf("failed to serialize recap detail: %w", err)
	}

	query := `
		UPDATE daily_recaps
		SET ending_equity = $3, detail = $4
		WHERE run_id = $1 AND date = $2
	`

	result, err := r.db.ExecContext(ctx, query, recap.RunID, recap.Date, recap.EndingEquity, detail)
	if err != nil {
		return fmt.Errorf("failed to update recap: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to confirm recap update: %w", err)
	}
	if affected == 0 {
		// The open-phase row is missing; write the full recap instead
		return r.StoreRecapOpen(ctx, recap)
	}

	return nil
}

type recapRow struct {
	Date           time.Time `db:"date"`
	Detail         []byte    `db:"detail"`
	RunID          int64     `db:"run_id"`
	StartingEquity float64   `db:"starting_equity"`
	EndingEquity   float64   `db:"ending_equity"`
}

// GetRunRecaps returns all recaps for a run in date order
func (r *Repository) GetRunRecaps(ctx context.Context, runID int64) ([]models.DailyRecap, error) {
	var rows []recapRow
	query := `
		SELECT run_id, date, starting_equity, ending_equity, detail
		FROM daily_recaps
		WHERE run_id = $1
		ORDER BY date
	`
	if err := r.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, fmt.Errorf("failed to fetch recaps: %w", err)
	}

	recaps := make([]models.DailyRecap, 0, len(rows))
	for _, row := range rows {
		recap := models.DailyRecap{
			RunID:          row.RunID,
			Date:           row.Date,
			StartingEquity: row.StartingEquity,
			EndingEquity:   row.EndingEquity,
		}
		if len(row.Detail) > 0 {
			if err := json.Unmarshal(row.Detail, &recap.Detail); err != nil {
				return nil, fmt.Errorf("failed to deserialize recap detail: %w", err)
			}
		}
		recaps = append(recaps, recap)
	}

	return recaps, nil
}
