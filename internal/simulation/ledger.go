package simulation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/selivandex/newstrader/internal/adapters/price"
	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/models"
)

// Ledger opens and closes intraday positions. All money math runs on
// decimals; floats appear only at the persistence boundary
type Ledger struct {
	prices   price.Store
	notional decimal.Decimal
}

// NewLedger creates new position ledger with a fixed per-leg notional
func NewLedger(prices price.Store, notional float64) *Ledger {
	return &Ledger{
		prices:   prices,
		notional: models.NewDecimal(notional),
	}
}

// OpenResult is the outcome of the market-open step
type OpenResult struct {
	Positions []models.Position
	Trades    []models.Trade
	Skipped   []string
}

// CloseResult is the outcome of the market-close step
type CloseResult struct {
	Details []models.PositionDetail
	Trades  []models.Trade
	PnL     decimal.Decimal
}

// Open opens one position per signal leg at the session open price.
// A missing or non-positive price skips that leg only; the rest of
// the book opens normally
func (l *Ledger) Open(ctx context.Context, date time.Time, signal models.Signal) OpenResult {
	var result OpenResult

	open := func(ticker string, side models.PositionSide, action models.TradeAction) {
		bar, err := l.prices.GetPrice(ctx, ticker, date)
		if err != nil || bar.Open <= 0 {
			result.Skipped = append(result.Skipped, ticker)
			logger.Warn("skipping leg, no usable open price",
				zap.String("ticker", ticker),
				zap.Time("date", date),
				zap.Error(err),
			)
			return
		}

		entryPrice := models.NewDecimal(bar.Open)
		shares := l.notional.Div(entryPrice)

		result.Positions = append(result.Positions, models.Position{
			EntryDate:  date,
			Ticker:     ticker,
			Side:       side,
			Shares:     shares,
			EntryPrice: entryPrice,
		})
		result.Trades = append(result.Trades, models.Trade{
			Date:       date.Format("2006-01-02"),
			Ticker:     ticker,
			Action:     action,
			Time:       "market_open",
			Shares:     models.ToFloat64(shares.Round(2)),
			Price:      bar.Open,
			TotalValue: models.ToFloat64(l.notional.Round(2)),
		})
	}

	for _, ticker := range signal.Long {
		open(ticker, models.PositionLong, models.ActionBuy)
	}
	for _, ticker := range signal.Short {
		open(ticker, models.PositionShort, models.ActionSell)
	}

	return result
}

// Close closes every open position at the session close price.
// Long P&L is shares*(exit-entry); short P&L is shares*(entry-exit).
// A leg with no usable close price is dropped at zero P&L so no
// position ever survives past the close step
func (l *Ledger) Close(ctx context.Context, date time.Time, positions []models.Position) CloseResult {
	result := CloseResult{PnL: decimal.Zero}

	for _, pos := range positions {
		bar, err := l.prices.GetPrice(ctx, pos.Ticker, date)
		if err != nil || bar.Close <= 0 {
			logger.Warn("dropping leg at zero P&L, no usable close price",
				zap.String("ticker", pos.Ticker),
				zap.Time("date", date),
				zap.Error(err),
			)
			continue
		}

		exitPrice := models.NewDecimal(bar.Close)

		var pnl decimal.Decimal
		var action models.TradeAction
		if pos.Side == models.PositionLong {
			pnl = pos.Shares.Mul(exitPrice.Sub(pos.EntryPrice))
			action = models.ActionSell
		} else {
			pnl = pos.Shares.Mul(pos.EntryPrice.Sub(exitPrice))
			action = models.ActionBuy // covering a short is buying
		}

		returnPct := exitPrice.Sub(pos.EntryPrice).Div(pos.EntryPrice).Mul(decimal.NewFromInt(100))
		if pos.Side == models.PositionShort {
			returnPct = returnPct.Neg()
		}

		result.PnL = result.PnL.Add(pnl)
		result.Details = append(result.Details, models.PositionDetail{
			Ticker:        pos.Ticker,
			PositionType:  pos.Side,
			Shares:        models.ToFloat64(pos.Shares),
			EntryPrice:    models.ToFloat64(pos.EntryPrice),
			ExitPrice:     bar.Close,
			PnL:           models.ToFloat64(pnl),
			ReturnPct:     models.ToFloat64(returnPct),
			PositionValue: models.ToFloat64(pos.Shares.Mul(pos.EntryPrice)),
		})
		result.Trades = append(result.Trades, models.Trade{
			Date:       date.Format("2006-01-02"),
			Ticker:     pos.Ticker,
			Action:     action,
			Time:       "market_close",
			Shares:     models.ToFloat64(pos.Shares.Round(2)),
			Price:      bar.Close,
			TotalValue: models.ToFloat64(pos.Shares.Mul(exitPrice).Round(2)),
			PnL:        models.ToFloat64(pnl.Round(2)),
		})
	}

	return result
}
