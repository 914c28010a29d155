package simulation

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/selivandex/newstrader/internal/adapters/price"
	"github.com/selivandex/newstrader/pkg/models"
)

type fakePrices struct {
	bars map[string]models.PriceBar
}

func (f *fakePrices) GetPrice(_ context.Context, ticker string, date time.Time) (*models.PriceBar, error) {
	bar, ok := f.bars[ticker+"|"+date.Format("2006-01-02")]
	if !ok {
		return nil, price.ErrNotFound
	}
	return &bar, nil
}

func priced(bars ...models.PriceBar) *fakePrices {
	f := &fakePrices{bars: make(map[string]models.PriceBar)}
	for _, bar := range bars {
		f.bars[bar.Ticker+"|"+bar.Date.Format("2006-01-02")] = bar
	}
	return f
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLedgerOpen(t *testing.T) {
	day := date(2024, 3, 5)

	t.Run("sizes legs by notional over open price", func(t *testing.T) {
		ledger := NewLedger(priced(
			models.PriceBar{Ticker: "AAPL", Date: day, Open: 200, Close: 210},
			models.PriceBar{Ticker: "TSLA", Date: day, Open: 100, Close: 90},
		), 10000)

		result := ledger.Open(context.Background(), day, models.Signal{
			Date:  day,
			Long:  []string{"AAPL"},
			Short: []string{"TSLA"},
		})

		if len(result.Positions) != 2 {
			t.Fatalf("positions = %d, want 2", len(result.Positions))
		}

		long := result.Positions[0]
		if long.Side != models.PositionLong {
			t.Errorf("side = %s, want long", long.Side)
		}
		if got := models.ToFloat64(long.Shares); !closeTo(got, 50) {
			t.Errorf("long shares = %v, want 50", got)
		}

		short := result.Positions[1]
		if short.Side != models.PositionShort {
			t.Errorf("side = %s, want short", short.Side)
		}
		if got := models.ToFloat64(short.Shares); !closeTo(got, 100) {
			t.Errorf("short shares = %v, want 100", got)
		}

		if len(result.Trades) != 2 {
			t.Fatalf("trades = %d, want 2", len(result.Trades))
		}
		if result.Trades[0].Action != models.ActionBuy || result.Trades[0].Time != "market_open" {
			t.Errorf("long open trade = %+v", result.Trades[0])
		}
		if result.Trades[1].Action != models.ActionSell {
			t.Errorf("short open trade = %+v", result.Trades[1])
		}
	})

	t.Run("missing price skips only that leg", func(t *testing.T) {
		ledger := NewLedger(priced(
			models.PriceBar{Ticker: "AAPL", Date: day, Open: 200, Close: 210},
		), 10000)

		result := ledger.Open(context.Background(), day, models.Signal{
			Date:  day,
			Long:  []string{"AAPL"},
			Short: []string{"GHOST"},
		})

		if len(result.Positions) != 1 {
			t.Fatalf("positions = %d, want 1", len(result.Positions))
		}
		if result.Positions[0].Ticker != "AAPL" {
			t.Errorf("ticker = %s, want AAPL", result.Positions[0].Ticker)
		}
		if len(result.Skipped) != 1 || result.Skipped[0] != "GHOST" {
			t.Errorf("skipped = %v, want [GHOST]", result.Skipped)
		}
	})

	t.Run("non-positive open price skips the leg", func(t *testing.T) {
		ledger := NewLedger(priced(
			models.PriceBar{Ticker: "BAD", Date: day, Open: 0, Close: 10},
		), 10000)

		result := ledger.Open(context.Background(), day, models.Signal{
			Date: day,
			Long: []string{"BAD"},
		})

		if len(result.Positions) != 0 {
			t.Errorf("positions = %d, want 0", len(result.Positions))
		}
	})
}

func TestLedgerClose(t *testing.T) {
	day := date(2024, 3, 5)

	t.Run("long gains when price rises, short gains when price falls", func(t *testing.T) {
		store := priced(
			models.PriceBar{Ticker: "AAPL", Date: day, Open: 200, Close: 210},
			models.PriceBar{Ticker: "TSLA", Date: day, Open: 100, Close: 90},
		)
		ledger := NewLedger(store, 10000)

		opened := ledger.Open(context.Background(), day, models.Signal{
			Date:  day,
			Long:  []string{"AAPL"},
			Short: []string{"TSLA"},
		})
		result := ledger.Close(context.Background(), day, opened.Positions)

		// Long: 50 shares * (210-200) = 500. Short: 100 shares * (100-90) = 1000
		if got := models.ToFloat64(result.PnL); !closeTo(got, 1500) {
			t.Errorf("PnL = %v, want 1500", got)
		}

		if len(result.Details) != 2 {
			t.Fatalf("details = %d, want 2", len(result.Details))
		}
		if !closeTo(result.Details[0].PnL, 500) {
			t.Errorf("long pnl = %v, want 500", result.Details[0].PnL)
		}
		if !closeTo(result.Details[1].PnL, 1000) {
			t.Errorf("short pnl = %v, want 1000", result.Details[1].PnL)
		}
		if !closeTo(result.Details[1].ReturnPct, 10) {
			t.Errorf("short return pct = %v, want 10", result.Details[1].ReturnPct)
		}
	})

	t.Run("adverse moves lose on both sides", func(t *testing.T) {
		store := priced(
			models.PriceBar{Ticker: "AAPL", Date: day, Open: 200, Close: 190},
			models.PriceBar{Ticker: "TSLA", Date: day, Open: 100, Close: 110},
		)
		ledger := NewLedger(store, 10000)

		opened := ledger.Open(context.Background(), day, models.Signal{
			Date:  day,
			Long:  []string{"AAPL"},
			Short: []string{"TSLA"},
		})
		result := ledger.Close(context.Background(), day, opened.Positions)

		// Long: 50 * (190-200) = -500. Short: 100 * (100-110) = -1000
		if got := models.ToFloat64(result.PnL); !closeTo(got, -1500) {
			t.Errorf("PnL = %v, want -1500", got)
		}
	})

	t.Run("covering trade is a buy", func(t *testing.T) {
		store := priced(
			models.PriceBar{Ticker: "TSLA", Date: day, Open: 100, Close: 90},
		)
		ledger := NewLedger(store, 10000)

		opened := ledger.Open(context.Background(), day, models.Signal{
			Date:  day,
			Short: []string{"TSLA"},
		})
		result := ledger.Close(context.Background(), day, opened.Positions)

		if len(result.Trades) != 1 {
			t.Fatalf("trades = %d, want 1", len(result.Trades))
		}
		trade := result.Trades[0]
		if trade.Action != models.ActionBuy || trade.Time != "market_close" {
			t.Errorf("close trade = %+v", trade)
		}
	})

	t.Run("unpriced leg drops at zero pnl", func(t *testing.T) {
		openStore := priced(
			models.PriceBar{Ticker: "AAPL", Date: day, Open: 200, Close: 210},
			models.PriceBar{Ticker: "GONE", Date: day, Open: 50, Close: 55},
		)
		ledger := NewLedger(openStore, 10000)

		opened := ledger.Open(context.Background(), day, models.Signal{
			Date: day,
			Long: []string{"AAPL", "GONE"},
		})
		if len(opened.Positions) != 2 {
			t.Fatalf("positions = %d, want 2", len(opened.Positions))
		}

		// Price for GONE vanishes between open and close
		delete(openStore.bars, "GONE|"+day.Format("2006-01-02"))

		result := ledger.Close(context.Background(), day, opened.Positions)

		if len(result.Details) != 1 {
			t.Fatalf("details = %d, want 1", len(result.Details))
		}
		if got := models.ToFloat64(result.PnL); !closeTo(got, 500) {
			t.Errorf("PnL = %v, want 500", got)
		}
	})
}
