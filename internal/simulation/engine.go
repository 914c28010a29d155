package simulation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/metrics"
	"github.com/selivandex/newstrader/pkg/models"
)

// HeadlineSource reads headlines published inside a time window
type HeadlineSource interface {
	GetHeadlines(ctx context.Context, start, end time.Time) ([]models.Headline, error)
}

// AnalysisPipeline classifies headlines into persisted judgments
type AnalysisPipeline interface {
	AnalyzeHeadlines(ctx context.Context, runID int64, date time.Time, headlines []models.Headline) (int, error)
}

// JudgmentSource reads stored judgments for a run and date
type JudgmentSource interface {
	ListForDate(ctx context.Context, runID int64, date time.Time) ([]models.SentimentJudgment, error)
}

// SignalBuilder aggregates judgments into a daily signal
type SignalBuilder interface {
	Build(date time.Time, judgments []models.SentimentJudgment) models.Signal
}

// RunStore persists runs and daily recaps
type RunStore interface {
	CreateRun(ctx context.Context) (int64, error)
	CompleteRun(ctx context.Context, runID int64, metrics models.Metrics, tradingDays, totalTrades int) error
	StoreRecapOpen(ctx context.Context, recap models.DailyRecap) error
	UpdateRecapClose(ctx context.Context, recap models.DailyRecap) error
}

// Engine drives a backtest across trading days. It is strictly
// sequential: day N's close completes before day N+1's open, because
// equity carries forward. Concurrency lives inside the pipeline only
type Engine struct {
	headlines HeadlineSource
	pipeline  AnalysisPipeline
	judgments JudgmentSource
	signals   SignalBuilder
	ledger    *Ledger
	store     RunStore
	telemetry metrics.Buffer

	initialEquity float64
}

// EngineConfig configures the simulation engine
type EngineConfig struct {
	Headlines     HeadlineSource
	Pipeline      AnalysisPipeline
	Judgments     JudgmentSource
	Signals       SignalBuilder
	Ledger        *Ledger
	Store         RunStore
	Telemetry     metrics.Buffer // Optional ClickHouse telemetry
	InitialEquity float64
}

// NewEngine creates new simulation engine
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{
		headlines:     cfg.Headlines,
		pipeline:      cfg.Pipeline,
		judgments:     cfg.Judgments,
		signals:       cfg.Signals,
		ledger:        cfg.Ledger,
		store:         cfg.Store,
		telemetry:     cfg.Telemetry,
		initialEquity: cfg.InitialEquity,
	}
}

// RunResult is the outcome of a completed backtest
type RunResult struct {
	RunID       int64
	Metrics     models.Metrics
	Returns     []models.DailyReturn
	TradingDays int
	TotalTrades int
}

// Run executes a backtest over [start, end]. The first trading day is
// only the lookback anchor for the first signal and is never traded.
// Per-day problems are logged and skipped; only the final run write
// can fail the whole backtest
func (e *Engine) Run(ctx context.Context, start, end time.Time) (*RunResult, error) {
	days := TradingDays(start, end)
	if len(days) < 2 {
		return nil, fmt.Errorf("range %s..%s has no tradable days", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	runID, err := e.store.CreateRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}

	logger.Info("backtest started",
		zap.Int64("run_id", runID),
		zap.Time("start", days[0]),
		zap.Time("end", days[len(days)-1]),
		zap.Int("trading_days", len(days)),
	)

	equity := e.initialEquity
	var returns []models.DailyReturn
	var closedTrades []models.Trade

	for i, day := range days {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest aborted before %s: %w", day.Format("2006-01-02"), err)
		}

		// The first day anchors the first attribution window only
		if i == 0 {
			continue
		}

		dayResult := e.runDay(ctx, runID, day, equity)
		equity = dayResult.endingEquity
		closedTrades = append(closedTrades, dayResult.closed...)
		if len(dayResult.closed) > 0 {
			returns = append(returns, models.DailyReturn{
				Date:           day,
				PnL:            dayResult.pnl,
				PortfolioValue: equity,
				ReturnPct:      dayResult.returnPct,
			})
		}

		e.recordDayMetric(runID, day, dayResult)
	}

	finalMetrics := CalculateMetrics(e.initialEquity, equity, returns, closedTrades)

	if err := e.store.CompleteRun(ctx, runID, finalMetrics, len(days), finalMetrics.TotalTrades); err != nil {
		return nil, fmt.Errorf("failed to finalize run %d: %w", runID, err)
	}

	logger.Info("backtest completed",
		zap.Int64("run_id", runID),
		zap.Float64("final_equity", equity),
		zap.Float64("total_return_pct", finalMetrics.TotalReturnPct),
		zap.Int("total_trades", finalMetrics.TotalTrades),
	)

	return &RunResult{
		RunID:       runID,
		Metrics:     finalMetrics,
		Returns:     returns,
		TradingDays: len(days),
		TotalTrades: finalMetrics.TotalTrades,
	}, nil
}

type dayOutcome struct {
	closed       []models.Trade
	pnl          float64
	returnPct    float64
	endingEquity float64
	opened       int
	closedCount  int
}

// runDay performs the open, close and recap steps for one trading day.
// Nothing here escalates past the day boundary
func (e *Engine) runDay(ctx context.Context, runID int64, day time.Time, startingEquity float64) dayOutcome {
	outcome := dayOutcome{endingEquity: startingEquity}

	sig := e.buildSignal(ctx, runID, day)

	opened := e.ledger.Open(ctx, day, sig)
	outcome.opened = len(opened.Positions)

	detail := models.RecapDetail{
		Longs:     sig.Long,
		Shorts:    sig.Short,
		Positions: openDetails(opened.Positions),
		Trades:    opened.Trades,
	}
	e.writeRecap(ctx, e.store.StoreRecapOpen, models.DailyRecap{
		RunID:          runID,
		Date:           day,
		StartingEquity: startingEquity,
		EndingEquity:   startingEquity,
		Detail:         detail,
	})

	// The close step always runs, even under cancellation, so no
	// position survives the day in persisted state
	closed := e.ledger.Close(ctx, day, opened.Positions)
	outcome.closedCount = len(closed.Trades)
	outcome.closed = closed.Trades
	outcome.pnl = models.ToFloat64(closed.PnL)
	outcome.endingEquity = startingEquity + outcome.pnl
	if startingEquity > 0 {
		outcome.returnPct = outcome.pnl / startingEquity * 100
	}

	detail.Positions = closed.Details
	detail.Trades = append(opened.Trades, closed.Trades...)
	detail.DailyPnL = outcome.pnl
	detail.ReturnPct = outcome.returnPct
	e.writeRecap(ctx, e.store.UpdateRecapClose, models.DailyRecap{
		RunID:          runID,
		Date:           day,
		StartingEquity: startingEquity,
		EndingEquity:   outcome.endingEquity,
		Detail:         detail,
	})

	logger.Debug("trading day processed",
		zap.Int64("run_id", runID),
		zap.Time("date", day),
		zap.Int("opened", outcome.opened),
		zap.Float64("pnl", outcome.pnl),
		zap.Float64("equity", outcome.endingEquity),
	)

	return outcome
}

// buildSignal runs the attribution window through analysis and
// aggregation. Any upstream failure degrades to an empty signal
func (e *Engine) buildSignal(ctx context.Context, runID int64, day time.Time) models.Signal {
	windowStart, windowEnd := AttributionWindow(day)

	headlines, err := e.headlines.GetHeadlines(ctx, windowStart, windowEnd)
	if err != nil {
		logger.Warn("failed to fetch headlines, trading day degrades to no-trade",
			zap.Time("date", day),
			zap.Error(err),
		)
		return models.Signal{Date: day}
	}

	if _, err := e.pipeline.AnalyzeHeadlines(ctx, runID, day, headlines); err != nil {
		logger.Warn("headline analysis incomplete",
			zap.Time("date", day),
			zap.Error(err),
		)
	}

	judgments, err := e.judgments.ListForDate(ctx, runID, day)
	if err != nil {
		logger.Warn("failed to load judgments, trading day degrades to no-trade",
			zap.Time("date", day),
			zap.Error(err),
		)
		return models.Signal{Date: day}
	}

	return e.signals.Build(day, judgments)
}

// writeRecap writes a recap with a single retry on failure. Recap
// persistence is per-day and never fatal
func (e *Engine) writeRecap(ctx context.Context, write func(context.Context, models.DailyRecap) error, recap models.DailyRecap) {
	err := write(ctx, recap)
	if err == nil {
		return
	}
	if err = write(ctx, recap); err != nil {
		logger.Warn("failed to persist daily recap",
			zap.Int64("run_id", recap.RunID),
			zap.Time("date", recap.Date),
			zap.Error(err),
		)
	}
}

func (e *Engine) recordDayMetric(runID int64, day time.Time, outcome dayOutcome) {
	if e.telemetry == nil {
		return
	}

	if err := e.telemetry.Add(&metrics.SimulationDayMetric{
		Timestamp: time.Now(),
		RunID:     runID,
		Date:      day,
		Opened:    outcome.opened,
		Closed:    outcome.closedCount,
		PnL:       outcome.pnl,
		Equity:    outcome.endingEquity,
	}); err != nil {
		logger.Warn("failed to record simulation metric", zap.Error(err))
	}
}

// openDetails renders the open-phase position intent for the recap
func openDetails(positions []models.Position) []models.PositionDetail {
	details := make([]models.PositionDetail, 0, len(positions))
	for _, pos := range positions {
		details = append(details, models.PositionDetail{
			Ticker:        pos.Ticker,
			PositionType:  pos.Side,
			Shares:        models.ToFloat64(pos.Shares),
			EntryPrice:    models.ToFloat64(pos.EntryPrice),
			PositionValue: models.ToFloat64(pos.Shares.Mul(pos.EntryPrice)),
		})
	}
	return details
}
