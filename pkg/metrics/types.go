package metrics

import "time"

// ClassificationMetric records one headline classification outcome
type ClassificationMetric struct {
	Timestamp  time.Time
	Classifier string
	Outcome    string // ok, skipped, error, timeout
	RunID      int64
	HeadlineID int64
	Judgments  int
	LatencyMs  int64
}

func (m *ClassificationMetric) TableName() string {
	return "classification_metrics"
}

func (m *ClassificationMetric) Values() []interface{} {
	return []interface{}{
		m.Timestamp,
		m.RunID,
		m.HeadlineID,
		m.Classifier,
		m.Outcome,
		m.Judgments,
		m.LatencyMs,
	}
}

// SimulationDayMetric records one simulated trading day
type SimulationDayMetric struct {
	Timestamp time.Time
	Date      time.Time
	RunID     int64
	Opened    int
	Closed    int
	PnL       float64
	Equity    float64
}

func (m *SimulationDayMetric) TableName() string {
	return "simulation_day_metrics"
}

func (m *SimulationDayMetric) Values() []interface{} {
	return []interface{}{
		m.Timestamp,
		m.RunID,
		m.Date,
		m.Opened,
		m.Closed,
		m.PnL,
		m.Equity,
	}
}
