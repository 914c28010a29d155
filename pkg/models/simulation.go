package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is one open intraday leg. It exists in memory only between
// the open and close steps of a single trading day.
type Position struct {
	EntryDate  time.Time       `json:"entry_date"`
	Ticker     string          `json:"ticker"`
	Side       PositionSide    `json:"side"`
	Shares     decimal.Decimal `json:"shares"`
	EntryPrice decimal.Decimal `json:"entry_price"`
}

// Trade is one executed order as recorded in the daily recap blob
type Trade struct {
	Date       string      `json:"date"`
	Ticker     string      `json:"ticker"`
	Action     TradeAction `json:"action"`
	Time       string      `json:"time"` // market_open | market_close
	Shares     float64     `json:"shares"`
	Price      float64     `json:"price"`
	TotalValue float64     `json:"total_value"`
	PnL        float64     `json:"pnl,omitempty"`
}

// PositionDetail is the realized outcome of one leg
type PositionDetail struct {
	Ticker        string       `json:"ticker"`
	PositionType  PositionSide `json:"position_type"`
	Shares        float64      `json:"shares"`
	EntryPrice    float64      `json:"entry_price"`
	ExitPrice     float64      `json:"exit_price,omitempty"`
	PnL           float64      `json:"pnl"`
	ReturnPct     float64      `json:"return_pct"`
	PositionValue float64      `json:"position_value"`
}

// RecapDetail is the JSON payload of a daily recap row. The shape
// mirrors what the dashboard consumes: intent written at market open,
// realized outcome merged in at market close.
type RecapDetail struct {
	Longs     []string         `json:"longs"`
	Shorts    []string         `json:"shorts"`
	Positions []PositionDetail `json:"positions"`
	Trades    []Trade          `json:"trades"`
	DailyPnL  float64          `json:"daily_pnl"`
	ReturnPct float64          `json:"return_pct"`
}

// DailyRecap is the persisted record of one trading day of one run
type DailyRecap struct {
	Date           time.Time   `json:"date" db:"date"`
	Detail         RecapDetail `json:"detail"`
	RunID          int64       `json:"run_id" db:"run_id"`
	StartingEquity float64     `json:"starting_equity" db:"starting_equity"`
	EndingEquity   float64     `json:"ending_equity" db:"ending_equity"`
}

// DailyReturn is one observation of the run's return series
type DailyReturn struct {
	Date           time.Time `json:"date"`
	PnL            float64   `json:"pnl"`
	PortfolioValue float64   `json:"portfolio_value"`
	ReturnPct      float64   `json:"return_pct"`
}

// Metrics summarizes a completed run
type Metrics struct {
	StartingPortfolioValue float64 `json:"starting_portfolio_value"`
	FinalPortfolioValue    float64 `json:"final_portfolio_value"`
	TotalReturnPct         float64 `json:"total_return_pct"`
	SharpeRatio            float64 `json:"sharpe_ratio"`
	MaxDrawdownPct         float64 `json:"max_drawdown_pct"`
	WinRatePct             float64 `json:"win_rate_pct"`
	TotalTrades            int     `json:"total_trades"`
}

// RunRecord identifies one backtest execution. FinalMetrics is nil
// until the run completes.
type RunRecord struct {
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	FinalMetrics *Metrics   `json:"final_metrics,omitempty"`
	TradingDays  int        `json:"trading_days" db:"trading_days"`
	TotalTrades  int        `json:"total_trades" db:"total_trades"`
	ID           int64      `json:"id" db:"id"`
}

// TickerSignal is one ranked live-signal entry
type TickerSignal struct {
	Ticker         string       `json:"ticker"`
	PositionType   PositionSide `json:"position_type"`
	Score          float64      `json:"score"`
	SignalStrength float64      `json:"signal_strength"`
	ArticleCount   int          `json:"article_count"`
}

// Prediction is a persisted live-prediction snapshot
type Prediction struct {
	Timestamp       time.Time      `json:"timestamp" db:"timestamp"`
	LongSignals     []TickerSignal `json:"long_signals"`
	ShortSignals    []TickerSignal `json:"short_signals"`
	LongTickers     []string       `json:"long_tickers"`
	ShortTickers    []string       `json:"short_tickers"`
	MarketSentiment float64        `json:"market_sentiment" db:"market_sentiment"`
	TotalArticles   int            `json:"total_articles" db:"total_articles"`
	UniqueTickers   int            `json:"unique_tickers" db:"unique_tickers"`
	ID              int64          `json:"id" db:"id"`
}

// DeleteCounts reports rows removed by a cascading run deletion
type DeleteCounts struct {
	Judgments int64 `json:"judgments"`
	Recaps    int64 `json:"recaps"`
	Runs      int64 `json:"runs"`
}

// NewDecimal creates decimal from float64
func NewDecimal(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// ToFloat64 safely converts decimal to float64
func ToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
