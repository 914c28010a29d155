package simulation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/selivandex/newstrader/internal/signal"
	"github.com/selivandex/newstrader/pkg/models"
)

type fakeHeadlines struct {
	windows [][2]time.Time
	err     error
}

func (f *fakeHeadlines) GetHeadlines(_ context.Context, start, end time.Time) ([]models.Headline, error) {
	f.windows = append(f.windows, [2]time.Time{start, end})
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

type fakePipeline struct{}

func (f *fakePipeline) AnalyzeHeadlines(_ context.Context, _ int64, _ time.Time, headlines []models.Headline) (int, error) {
	return len(headlines), nil
}

type fakeJudgments struct {
	byDate map[string][]models.SentimentJudgment
}

func (f *fakeJudgments) ListForDate(_ context.Context, _ int64, date time.Time) ([]models.SentimentJudgment, error) {
	return f.byDate[date.Format("2006-01-02")], nil
}

type fakeRunStore struct {
	nextRunID   int64
	recapsOpen  map[string]models.DailyRecap
	recapsClose map[string]models.DailyRecap
	completed   *models.Metrics
	tradingDays int
	completeErr error
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{
		nextRunID:   42,
		recapsOpen:  make(map[string]models.DailyRecap),
		recapsClose: make(map[string]models.DailyRecap),
	}
}

func (f *fakeRunStore) CreateRun(_ context.Context) (int64, error) {
	return f.nextRunID, nil
}

func (f *fakeRunStore) CompleteRun(_ context.Context, _ int64, m models.Metrics, tradingDays, _ int) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completed = &m
	f.tradingDays = tradingDays
	return nil
}

func (f *fakeRunStore) StoreRecapOpen(_ context.Context, recap models.DailyRecap) error {
	f.recapsOpen[recap.Date.Format("2006-01-02")] = recap
	return nil
}

func (f *fakeRunStore) UpdateRecapClose(_ context.Context, recap models.DailyRecap) error {
	f.recapsClose[recap.Date.Format("2006-01-02")] = recap
	return nil
}

func bullish(ticker string) models.SentimentJudgment {
	return models.SentimentJudgment{Ticker: ticker, Sentiment: models.SentimentPositive}
}

func bearish(ticker string) models.SentimentJudgment {
	return models.SentimentJudgment{Ticker: ticker, Sentiment: models.SentimentNegative}
}

func testEngine(prices *fakePrices, judgments *fakeJudgments, store *fakeRunStore, headlines *fakeHeadlines) *Engine {
	return NewEngine(EngineConfig{
		Headlines:     headlines,
		Pipeline:      &fakePipeline{},
		Judgments:     judgments,
		Signals:       signal.NewAggregator(5),
		Ledger:        NewLedger(prices, 10000),
		Store:         store,
		InitialEquity: 100000,
	})
}

func TestEngineRun(t *testing.T) {
	// Tue Mar 5 anchors, Wed Mar 6 trades
	tue := date(2024, 3, 5)
	wed := date(2024, 3, 6)

	t.Run("first day is only the lookback anchor", func(t *testing.T) {
		prices := priced(
			models.PriceBar{Ticker: "AAPL", Date: tue, Open: 100, Close: 110},
			models.PriceBar{Ticker: "TSLA", Date: tue, Open: 100, Close: 90},
			models.PriceBar{Ticker: "AAPL", Date: wed, Open: 200, Close: 210},
			models.PriceBar{Ticker: "TSLA", Date: wed, Open: 100, Close: 90},
		)
		judgments := &fakeJudgments{byDate: map[string][]models.SentimentJudgment{
			tue.Format("2006-01-02"): {bullish("AAPL"), bearish("TSLA")},
			wed.Format("2006-01-02"): {bullish("AAPL"), bearish("TSLA")},
		}}
		store := newFakeRunStore()

		result, err := testEngine(prices, judgments, store, &fakeHeadlines{}).Run(context.Background(), tue, wed)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}

		if _, ok := store.recapsOpen[tue.Format("2006-01-02")]; ok {
			t.Error("anchor day must not produce a recap")
		}
		if _, ok := store.recapsClose[wed.Format("2006-01-02")]; !ok {
			t.Error("trading day recap missing")
		}

		// Long 50 shares * +10 = 500, short 100 shares * +10 = 1000
		if !closeTo(result.Metrics.FinalPortfolioValue, 101500) {
			t.Errorf("final value = %v, want 101500", result.Metrics.FinalPortfolioValue)
		}
		if result.TotalTrades != 2 {
			t.Errorf("total trades = %d, want 2", result.TotalTrades)
		}
	})

	t.Run("equity carries forward between days", func(t *testing.T) {
		thu := date(2024, 3, 7)
		prices := priced(
			models.PriceBar{Ticker: "AAPL", Date: wed, Open: 100, Close: 110},
			models.PriceBar{Ticker: "TSLA", Date: wed, Open: 100, Close: 120},
			models.PriceBar{Ticker: "AAPL", Date: thu, Open: 100, Close: 105},
			models.PriceBar{Ticker: "TSLA", Date: thu, Open: 100, Close: 100},
		)
		byDate := map[string][]models.SentimentJudgment{}
		for _, d := range []time.Time{wed, thu} {
			byDate[d.Format("2006-01-02")] = []models.SentimentJudgment{bullish("AAPL"), bearish("TSLA")}
		}
		store := newFakeRunStore()

		result, err := testEngine(prices, &fakeJudgments{byDate: byDate}, store, &fakeHeadlines{}).Run(context.Background(), tue, thu)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}

		// Wed: long +1000, short -2000 => 99000. Thu: long +500, short 0 => 99500
		wedRecap := store.recapsClose[wed.Format("2006-01-02")]
		if !closeTo(wedRecap.EndingEquity, 99000) {
			t.Errorf("wed ending equity = %v, want 99000", wedRecap.EndingEquity)
		}
		thuRecap := store.recapsClose[thu.Format("2006-01-02")]
		if !closeTo(thuRecap.StartingEquity, 99000) {
			t.Errorf("thu starting equity = %v, want 99000", thuRecap.StartingEquity)
		}
		if !closeTo(result.Metrics.FinalPortfolioValue, 99500) {
			t.Errorf("final value = %v, want 99500", result.Metrics.FinalPortfolioValue)
		}
	})

	t.Run("empty signal still writes a zero recap", func(t *testing.T) {
		prices := priced()
		judgments := &fakeJudgments{byDate: map[string][]models.SentimentJudgment{}}
		store := newFakeRunStore()

		result, err := testEngine(prices, judgments, store, &fakeHeadlines{}).Run(context.Background(), tue, wed)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}

		recap, ok := store.recapsClose[wed.Format("2006-01-02")]
		if !ok {
			t.Fatal("no-trade day recap missing")
		}
		if recap.Detail.DailyPnL != 0 || recap.EndingEquity != 100000 {
			t.Errorf("no-trade recap = %+v", recap)
		}
		if len(result.Returns) != 0 {
			t.Errorf("returns = %v, want empty", result.Returns)
		}
	})

	t.Run("partial price outage skips only the dead leg", func(t *testing.T) {
		prices := priced(
			models.PriceBar{Ticker: "AAPL", Date: wed, Open: 100, Close: 110},
			// no TSLA bar at all
		)
		judgments := &fakeJudgments{byDate: map[string][]models.SentimentJudgment{
			wed.Format("2006-01-02"): {bullish("AAPL"), bearish("TSLA")},
		}}
		store := newFakeRunStore()

		result, err := testEngine(prices, judgments, store, &fakeHeadlines{}).Run(context.Background(), tue, wed)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}

		recap := store.recapsClose[wed.Format("2006-01-02")]
		if len(recap.Detail.Positions) != 1 || recap.Detail.Positions[0].Ticker != "AAPL" {
			t.Errorf("positions = %+v, want only AAPL", recap.Detail.Positions)
		}
		if !closeTo(result.Metrics.FinalPortfolioValue, 101000) {
			t.Errorf("final value = %v, want 101000", result.Metrics.FinalPortfolioValue)
		}
	})

	t.Run("monday attribution window reaches back to friday", func(t *testing.T) {
		fri := date(2024, 3, 8)
		mon := date(2024, 3, 11)
		headlines := &fakeHeadlines{}
		store := newFakeRunStore()

		_, err := testEngine(priced(), &fakeJudgments{byDate: nil}, store, headlines).Run(context.Background(), fri, mon)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}

		if len(headlines.windows) != 1 {
			t.Fatalf("windows = %d, want 1", len(headlines.windows))
		}
		wantStart := time.Date(2024, 3, 8, 16, 0, 0, 0, time.UTC)
		if !headlines.windows[0][0].Equal(wantStart) {
			t.Errorf("window start = %v, want %v", headlines.windows[0][0], wantStart)
		}
	})

	t.Run("headline outage degrades to a no-trade day", func(t *testing.T) {
		headlines := &fakeHeadlines{err: fmt.Errorf("store down")}
		store := newFakeRunStore()

		result, err := testEngine(priced(), &fakeJudgments{byDate: nil}, store, headlines).Run(context.Background(), tue, wed)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if result.TotalTrades != 0 {
			t.Errorf("total trades = %d, want 0", result.TotalTrades)
		}
		if _, ok := store.recapsClose[wed.Format("2006-01-02")]; !ok {
			t.Error("outage day recap missing")
		}
	})

	t.Run("final run write failure is terminal", func(t *testing.T) {
		store := newFakeRunStore()
		store.completeErr = fmt.Errorf("db down")

		_, err := testEngine(priced(), &fakeJudgments{byDate: nil}, store, &fakeHeadlines{}).Run(context.Background(), tue, wed)
		if err == nil {
			t.Fatal("expected terminal error")
		}
	})

	t.Run("range without tradable days is rejected", func(t *testing.T) {
		sat := date(2024, 3, 9)
		sun := date(2024, 3, 10)

		_, err := testEngine(priced(), &fakeJudgments{}, newFakeRunStore(), &fakeHeadlines{}).Run(context.Background(), sat, sun)
		if err == nil {
			t.Fatal("expected error for weekend-only range")
		}
	})

	t.Run("canceled context aborts between days", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := testEngine(priced(), &fakeJudgments{}, newFakeRunStore(), &fakeHeadlines{}).Run(ctx, tue, wed)
		if err == nil {
			t.Fatal("expected abort error")
		}
	})
}
