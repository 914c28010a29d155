package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/metrics"
	"github.com/selivandex/newstrader/pkg/models"
)

// Classifier labels one headline with per-ticker sentiment
type Classifier interface {
	// Name returns classifier name for logging and telemetry
	Name() string
	// Classify returns ticker sentiments and optional retrieval evidence
	Classify(ctx context.Context, headline models.Headline) ([]models.TickerSentiment, []models.Evidence, error)
}

// JudgmentStore is the persistence surface the pipeline needs
type JudgmentStore interface {
	Exists(ctx context.Context, runID int64, date time.Time, headlineID int64, ticker string) (bool, error)
	Insert(ctx context.Context, judgment models.SentimentJudgment) error
}

const (
	defaultWorkers = 6
	maxWorkers     = 8
)

// Pipeline classifies headlines concurrently and persists the judgments.
// Re-running it over the same headlines is a no-op for existing keys
type Pipeline struct {
	classifier Classifier
	store      JudgmentStore
	telemetry  metrics.Buffer
	workers    int
	timeout    time.Duration

	// Serializes the exists-check and insert so concurrent workers
	// cannot double-write the same judgment key
	writeMu sync.Mutex
}

// PipelineConfig configures the analysis pipeline
type PipelineConfig struct {
	Classifier Classifier
	Store      JudgmentStore
	Telemetry  metrics.Buffer // Optional ClickHouse telemetry
	Workers    int            // Default 6, capped at 8
	Timeout    time.Duration  // Per-headline classification timeout, default 60s
}

// NewPipeline creates new analysis pipeline
func NewPipeline(cfg PipelineConfig) *Pipeline {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Pipeline{
		classifier: cfg.Classifier,
		store:      cfg.Store,
		telemetry:  cfg.Telemetry,
		workers:    workers,
		timeout:    timeout,
	}
}

// AnalyzeHeadlines classifies the given headlines and stores one judgment
// per (run, date, headline, ticker). Individual headline failures are
// logged and skipped. Returns the number of judgments written
func (p *Pipeline) AnalyzeHeadlines(ctx context.Context, runID int64, date time.Time, headlines []models.Headline) (int, error) {
	if len(headlines) == 0 {
		return 0, nil
	}

	logger.Debug("analyzing headlines",
		zap.Int64("run_id", runID),
		zap.Time("date", date),
		zap.Int("headlines", len(headlines)),
		zap.String("classifier", p.classifier.Name()),
		zap.Int("workers", p.workers),
	)

	if p.workers <= 1 {
		return p.analyzeSequential(ctx, runID, date, headlines)
	}

	type result struct {
		err      error
		inserted int
	}

	sem := make(chan struct{}, p.workers)
	results := make(chan result, len(headlines))
	var wg sync.WaitGroup

	for _, headline := range headlines {
		if err := ctx.Err(); err != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(h models.Headline) {
			defer wg.Done()
			defer func() { <-sem }()

			inserted, err := p.analyzeOne(ctx, runID, date, h)
			results <- result{inserted: inserted, err: err}
		}(headline)
	}

	wg.Wait()
	close(results)

	total := 0
	failed := 0
	for res := range results {
		if res.err != nil {
			failed++
			continue
		}
		total += res.inserted
	}

	if err := ctx.Err(); err != nil {
		return total, fmt.Errorf("headline analysis interrupted: %w", err)
	}

	if failed > 0 {
		logger.Warn("some headlines failed classification",
			zap.Int64("run_id", runID),
			zap.Int("failed", failed),
			zap.Int("total", len(headlines)),
		)
	}

	return total, nil
}

// analyzeSequential is the single-worker path, also used as fallback
func (p *Pipeline) analyzeSequential(ctx context.Context, runID int64, date time.Time, headlines []models.Headline) (int, error) {
	total := 0
	for _, headline := range headlines {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("headline analysis interrupted: %w", err)
		}

		inserted, err := p.analyzeOne(ctx, runID, date, headline)
		if err != nil {
			continue
		}
		total += inserted
	}
	return total, nil
}

// analyzeOne classifies a single headline and persists its judgments
func (p *Pipeline) analyzeOne(ctx context.Context, runID int64, date time.Time, headline models.Headline) (int, error) {
	classifyCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	started := time.Now()
	sentiments, evidence, err := p.classifier.Classify(classifyCtx, headline)
	latency := time.Since(started)

	if err != nil {
		p.recordMetric(runID, headline.ID, "error", 0, latency)
		logger.Warn("headline classification failed, skipping",
			zap.Int64("headline_id", headline.ID),
			zap.String("classifier", p.classifier.Name()),
			zap.Error(err),
		)
		return 0, err
	}

	if len(sentiments) == 0 {
		p.recordMetric(runID, headline.ID, "skipped", 0, latency)
		return 0, nil
	}

	inserted := 0
	for _, ts := range sentiments {
		ok, err := p.storeJudgment(ctx, models.SentimentJudgment{
			RunID:      runID,
			Date:       date,
			HeadlineID: headline.ID,
			Ticker:     ts.Ticker,
			Sentiment:  ts.Sentiment,
			Evidence:   evidence,
		})
		if err != nil {
			logger.Warn("failed to persist judgment",
				zap.Int64("headline_id", headline.ID),
				zap.String("ticker", ts.Ticker),
				zap.Error(err),
			)
			continue
		}
		if ok {
			inserted++
		}
	}

	p.recordMetric(runID, headline.ID, "ok", inserted, latency)

	return inserted, nil
}

// storeJudgment performs the check-then-insert under the write lock.
// Returns true when a new row was written
func (p *Pipeline) storeJudgment(ctx context.Context, judgment models.SentimentJudgment) (bool, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	exists, err := p.store.Exists(ctx, judgment.RunID, judgment.Date, judgment.HeadlineID, judgment.Ticker)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := p.store.Insert(ctx, judgment); err != nil {
		return false, err
	}

	return true, nil
}

func (p *Pipeline) recordMetric(runID, headlineID int64, outcome string, judgments int, latency time.Duration) {
	if p.telemetry == nil {
		return
	}

	if err := p.telemetry.Add(&metrics.ClassificationMetric{
		Timestamp:  time.Now(),
		RunID:      runID,
		HeadlineID: headlineID,
		Classifier: p.classifier.Name(),
		Outcome:    outcome,
		Judgments:  judgments,
		LatencyMs:  latency.Milliseconds(),
	}); err != nil {
		logger.Warn("failed to record classification metric", zap.Error(err))
	}
}
