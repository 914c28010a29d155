package realtime

import (
	"context"
)

// Watcher adapts the predictor to the periodic worker runner so
// predictions refresh on an interval in watch mode
type Watcher struct {
	predictor *Predictor
}

// NewWatcher creates new prediction watcher
func NewWatcher(predictor *Predictor) *Watcher {
	return &Watcher{predictor: predictor}
}

// Name returns worker name for logging
func (w *Watcher) Name() string {
	return "realtime-predictor"
}

// Run executes one prediction cycle
func (w *Watcher) Run(ctx context.Context) error {
	_, err := w.predictor.RunPrediction(ctx)
	return err
}
