package simulation

import (
	"math"

	"github.com/selivandex/newstrader/pkg/models"
)

const tradingDaysPerYear = 252

// CalculateMetrics summarizes a completed run from its daily return
// series and realized closing trades. All ratios are zero-safe: a run
// with no closed trades degrades to zeroed metrics, never NaN
func CalculateMetrics(initialEquity, finalEquity float64, returns []models.DailyReturn, closed []models.Trade) models.Metrics {
	metrics := models.Metrics{
		StartingPortfolioValue: initialEquity,
		FinalPortfolioValue:    finalEquity,
	}

	if len(returns) == 0 {
		return metrics
	}

	if initialEquity > 0 {
		metrics.TotalReturnPct = (finalEquity - initialEquity) / initialEquity * 100
	}

	metrics.SharpeRatio = sharpeRatio(returns)
	metrics.MaxDrawdownPct = maxDrawdown(returns)

	winning := 0
	for _, trade := range closed {
		metrics.TotalTrades++
		if trade.PnL > 0 {
			winning++
		}
	}
	if metrics.TotalTrades > 0 {
		metrics.WinRatePct = float64(winning) / float64(metrics.TotalTrades) * 100
	}

	return metrics
}

// sharpeRatio annualizes the mean daily return over the population
// standard deviation
func sharpeRatio(returns []models.DailyReturn) float64 {
	n := float64(len(returns))

	var sum float64
	for _, r := range returns {
		sum += r.ReturnPct
	}
	mean := sum / n

	var variance float64
	for _, r := range returns {
		d := r.ReturnPct - mean
		variance += d * d
	}
	std := math.Sqrt(variance / n)

	if std == 0 {
		return 0
	}
	return mean * tradingDaysPerYear / (std * math.Sqrt(tradingDaysPerYear))
}

// maxDrawdown is the worst peak-to-trough decline of the compounded
// return curve, in percent (negative or zero)
func maxDrawdown(returns []models.DailyReturn) float64 {
	cumulative := 1.0
	peak := 1.0
	worst := 0.0

	for _, r := range returns {
		cumulative *= 1 + r.ReturnPct/100
		if cumulative > peak {
			peak = cumulative
		}
		drawdown := (cumulative - peak) / peak
		if drawdown < worst {
			worst = drawdown
		}
	}

	return worst * 100
}
