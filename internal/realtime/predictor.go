package realtime

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/newstrader/internal/simulation"
	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/models"
)

// PredictionStore persists prediction snapshots
type PredictionStore interface {
	CreatePrediction(ctx context.Context) (int64, error)
	UpdatePrediction(ctx context.Context, p models.Prediction) error
	LatestPrediction(ctx context.Context) (*models.Prediction, error)
}

// Notifier pushes a finished prediction to an external channel
type Notifier interface {
	NotifyPrediction(ctx context.Context, p models.Prediction) error
}

// Predictor runs the live variant of the signal pipeline: headlines
// from the realtime window through analysis into a ranked, balanced
// long/short snapshot. Live judgments share the judgment table with
// backtests under the negated prediction id
type Predictor struct {
	headlines  simulation.HeadlineSource
	pipeline   simulation.AnalysisPipeline
	judgments  simulation.JudgmentSource
	store      PredictionStore
	notifier   Notifier // optional
	maxPerSide int
	now        func() time.Time
}

// PredictorConfig configures the live predictor
type PredictorConfig struct {
	Headlines  simulation.HeadlineSource
	Pipeline   simulation.AnalysisPipeline
	Judgments  simulation.JudgmentSource
	Store      PredictionStore
	Notifier   Notifier
	MaxPerSide int
	Now        func() time.Time // defaults to time.Now, injectable for tests
}

// NewPredictor creates new live predictor
func NewPredictor(cfg PredictorConfig) *Predictor {
	maxPerSide := cfg.MaxPerSide
	if maxPerSide < 1 {
		maxPerSide = 5
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Predictor{
		headlines:  cfg.Headlines,
		pipeline:   cfg.Pipeline,
		judgments:  cfg.Judgments,
		store:      cfg.Store,
		notifier:   cfg.Notifier,
		maxPerSide: maxPerSide,
		now:        now,
	}
}

// RunPrediction analyzes the current realtime window and stores a
// prediction snapshot. Returns the stored prediction
func (p *Predictor) RunPrediction(ctx context.Context) (*models.Prediction, error) {
	now := p.now()
	windowStart, windowEnd := simulation.RealtimeWindow(now)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	headlines, err := p.headlines.GetHeadlines(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch realtime headlines: %w", err)
	}

	logger.Info("realtime prediction started",
		zap.Time("window_start", windowStart),
		zap.Time("window_end", windowEnd),
		zap.Int("headlines", len(headlines)),
	)

	predictionID, err := p.store.CreatePrediction(ctx)
	if err != nil {
		return nil, err
	}

	// Live judgments are keyed by the negated prediction id so they
	// can never collide with backtest run ids
	runID := -predictionID

	if _, err := p.pipeline.AnalyzeHeadlines(ctx, runID, today, headlines); err != nil {
		logger.Warn("realtime analysis incomplete", zap.Error(err))
	}

	judgments, err := p.judgments.ListForDate(ctx, runID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load live judgments: %w", err)
	}

	prediction := p.buildPrediction(predictionID, now, len(headlines), judgments)

	if err := p.store.UpdatePrediction(ctx, *prediction); err != nil {
		return nil, err
	}

	logger.Info("realtime prediction stored",
		zap.Int64("prediction_id", predictionID),
		zap.Strings("long", prediction.LongTickers),
		zap.Strings("short", prediction.ShortTickers),
		zap.Float64("market_sentiment", prediction.MarketSentiment),
	)

	if p.notifier != nil {
		if err := p.notifier.NotifyPrediction(ctx, *prediction); err != nil {
			logger.Warn("failed to send prediction alert", zap.Error(err))
		}
	}

	return prediction, nil
}

// Latest returns the most recently stored prediction
func (p *Predictor) Latest(ctx context.Context) (*models.Prediction, error) {
	return p.store.LatestPrediction(ctx)
}

type tickerScore struct {
	ticker string
	score  float64
	count  int
	first  int
}

// buildPrediction ranks tickers by their mean sentiment score and
// assembles a balanced long/short snapshot
func (p *Predictor) buildPrediction(id int64, ts time.Time, totalArticles int, judgments []models.SentimentJudgment) *models.Prediction {
	order := make(map[string]int, len(judgments))
	sums := make(map[string]int, len(judgments))
	counts := make(map[string]int, len(judgments))

	for i, j := range judgments {
		if _, seen := order[j.Ticker]; !seen {
			order[j.Ticker] = i
		}
		sums[j.Ticker] += j.Sentiment.Score()
		counts[j.Ticker]++
	}

	scores := make([]tickerScore, 0, len(sums))
	var total float64
	for ticker, sum := range sums {
		score := float64(sum) / float64(counts[ticker])
		total += score
		scores = append(scores, tickerScore{
			ticker: ticker,
			score:  score,
			count:  counts[ticker],
			first:  order[ticker],
		})
	}

	sort.Slice(scores, func(i, k int) bool {
		if scores[i].score != scores[k].score {
			return scores[i].score > scores[k].score
		}
		return scores[i].first < scores[k].first
	})

	var long, short []models.TickerSignal
	for _, s := range scores {
		if s.score > 0 && len(long) < p.maxPerSide {
			long = append(long, models.TickerSignal{
				Ticker:         s.ticker,
				PositionType:   models.PositionLong,
				Score:          s.score,
				SignalStrength: math.Abs(s.score),
				ArticleCount:   s.count,
			})
		}
	}
	for i := len(scores) - 1; i >= 0; i-- {
		s := scores[i]
		if s.score < 0 && len(short) < p.maxPerSide {
			short = append(short, models.TickerSignal{
				Ticker:         s.ticker,
				PositionType:   models.PositionShort,
				Score:          s.score,
				SignalStrength: math.Abs(s.score),
				ArticleCount:   s.count,
			})
		}
	}

	// Balance: equal book sizes on both sides
	size := len(long)
	if len(short) < size {
		size = len(short)
	}
	long = long[:size]
	short = short[:size]

	prediction := &models.Prediction{
		ID:            id,
		Timestamp:     ts,
		LongSignals:   long,
		ShortSignals:  short,
		TotalArticles: totalArticles,
		UniqueTickers: len(scores),
	}
	for _, s := range long {
		prediction.LongTickers = append(prediction.LongTickers, s.Ticker)
	}
	for _, s := range short {
		prediction.ShortTickers = append(prediction.ShortTickers, s.Ticker)
	}
	if len(scores) > 0 {
		prediction.MarketSentiment = total / float64(len(scores))
	}

	return prediction
}
