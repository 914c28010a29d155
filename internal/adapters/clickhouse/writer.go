package clickhouse

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/metrics"
)

// Column order must match Metric.Values() for the matching table.
var tableColumns = map[string][]string{
	"classification_metrics": {
		"timestamp", "run_id", "headline_id", "classifier",
		"outcome", "judgments", "latency_ms",
	},
	"simulation_day_metrics": {
		"timestamp", "run_id", "date", "opened",
		"closed", "pnl", "equity",
	},
}

// Writer writes buffered metrics to ClickHouse
type Writer struct {
	db *sqlx.DB
}

// Connect opens a ClickHouse connection and verifies it
func Connect(dsn string) (*Writer, error) {
	db, err := sqlx.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ClickHouse connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ClickHouse ping failed: %w", err)
	}

	logger.Info("ClickHouse connection established")

	return &Writer{db: db}, nil
}

// Write writes a batch of metrics to the given table
func (w *Writer) Write(ctx context.Context, tableName string, batch []metrics.Metric) error {
	if len(batch) == 0 {
		return nil
	}

	columns, ok := tableColumns[tableName]
	if !ok {
		return fmt.Errorf("unknown metrics table %q", tableName)
	}

	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(columns, ", "), placeholders,
	)

	stmt, err := tx.Preparex(query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range batch {
		values := m.Values()
		if len(values) != len(columns) {
			tx.Rollback()
			return fmt.Errorf("metric for %s has %d values, want %d", tableName, len(values), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert metric: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("saved metrics to ClickHouse",
		zap.String("table", tableName),
		zap.Int("count", len(batch)),
	)

	return nil
}

// Close closes the underlying connection
func (w *Writer) Close() error {
	return w.db.Close()
}
