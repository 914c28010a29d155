package simulation

import (
	"math"
	"testing"

	"github.com/selivandex/newstrader/pkg/models"
)

func returnsOf(pcts ...float64) []models.DailyReturn {
	out := make([]models.DailyReturn, len(pcts))
	for i, pct := range pcts {
		out[i] = models.DailyReturn{ReturnPct: pct}
	}
	return out
}

func closedTrades(pnls ...float64) []models.Trade {
	out := make([]models.Trade, len(pnls))
	for i, pnl := range pnls {
		out[i] = models.Trade{Time: "market_close", PnL: pnl}
	}
	return out
}

func TestCalculateMetrics(t *testing.T) {
	t.Run("no returns yields zeroed metrics", func(t *testing.T) {
		m := CalculateMetrics(100000, 100000, nil, nil)

		if m.StartingPortfolioValue != 100000 || m.FinalPortfolioValue != 100000 {
			t.Errorf("portfolio values = %v / %v", m.StartingPortfolioValue, m.FinalPortfolioValue)
		}
		if m.TotalReturnPct != 0 || m.SharpeRatio != 0 || m.MaxDrawdownPct != 0 || m.WinRatePct != 0 {
			t.Errorf("expected zeroed ratios, got %+v", m)
		}
	})

	t.Run("total return", func(t *testing.T) {
		m := CalculateMetrics(100000, 110000, returnsOf(10), closedTrades(10000))
		if !closeTo(m.TotalReturnPct, 10) {
			t.Errorf("TotalReturnPct = %v, want 10", m.TotalReturnPct)
		}
	})

	t.Run("constant returns have zero sharpe", func(t *testing.T) {
		m := CalculateMetrics(100000, 103030.1, returnsOf(1, 1, 1), closedTrades(1, 1, 1))
		if m.SharpeRatio != 0 {
			t.Errorf("SharpeRatio = %v, want 0", m.SharpeRatio)
		}
	})

	t.Run("sharpe uses population deviation", func(t *testing.T) {
		// mean = 1, population std of {2, 0} = 1
		m := CalculateMetrics(100000, 102000, returnsOf(2, 0), closedTrades(1, 1))
		want := 1.0 * 252 / math.Sqrt(252)
		if !closeTo(m.SharpeRatio, want) {
			t.Errorf("SharpeRatio = %v, want %v", m.SharpeRatio, want)
		}
	})

	t.Run("max drawdown from running peak", func(t *testing.T) {
		// 1.10 -> 0.99 -> 1.0395: trough vs peak = (0.99-1.10)/1.10 = -10%
		m := CalculateMetrics(100000, 103950, returnsOf(10, -10, 5), closedTrades(1, -1, 1))
		if !closeTo(m.MaxDrawdownPct, -10) {
			t.Errorf("MaxDrawdownPct = %v, want -10", m.MaxDrawdownPct)
		}
	})

	t.Run("monotonic gains have zero drawdown", func(t *testing.T) {
		m := CalculateMetrics(100000, 106120.8, returnsOf(2, 2, 2), closedTrades(1, 1, 1))
		if m.MaxDrawdownPct != 0 {
			t.Errorf("MaxDrawdownPct = %v, want 0", m.MaxDrawdownPct)
		}
	})

	t.Run("win rate counts profitable closes", func(t *testing.T) {
		m := CalculateMetrics(100000, 101000, returnsOf(1), closedTrades(100, -50, 200, 0))
		if !closeTo(m.WinRatePct, 50) {
			t.Errorf("WinRatePct = %v, want 50", m.WinRatePct)
		}
		if m.TotalTrades != 4 {
			t.Errorf("TotalTrades = %d, want 4", m.TotalTrades)
		}
	})
}
