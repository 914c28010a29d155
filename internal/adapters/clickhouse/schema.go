package clickhouse

import (
	"context"
	"fmt"
)

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS classification_metrics (
		timestamp   DateTime64(3),
		run_id      Int64,
		headline_id Int64,
		classifier  LowCardinality(String),
		outcome     LowCardinality(String),
		judgments   Int32,
		latency_ms  Int64
	) ENGINE = MergeTree()
	ORDER BY (run_id, timestamp)`,

	`CREATE TABLE IF NOT EXISTS simulation_day_metrics (
		timestamp DateTime64(3),
		run_id    Int64,
		date      Date,
		opened    Int32,
		closed    Int32,
		pnl       Float64,
		equity    Float64
	) ENGINE = MergeTree()
	ORDER BY (run_id, date)`,
}

// EnsureSchema creates the metrics tables if they do not exist
func (w *Writer) EnsureSchema(ctx context.Context) error {
	for _, ddl := range schemaDDL {
		if _, err := w.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create metrics table: %w", err)
		}
	}
	return nil
}
