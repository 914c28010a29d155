package metrics

import "context"

// Metric is one telemetry record destined for a table. Values must
// come back in the table's column order.
type Metric interface {
	TableName() string
	Values() []interface{}
}

// Writer persists metric batches to a sink
type Writer interface {
	Write(ctx context.Context, tableName string, metrics []Metric) error
	// Close flushes any remaining data and releases the connection
	Close() error
}

// Buffer batches metrics per table and flushes them to a Writer
type Buffer interface {
	// Add is safe for concurrent use
	Add(metric Metric) error
	Flush(ctx context.Context) error
	Size() int
	// Close performs a final flush before shutting down
	Close(ctx context.Context) error
}
