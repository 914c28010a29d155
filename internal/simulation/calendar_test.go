package simulation

import (
	"os"
	"testing"
	"time"

	"github.com/selivandex/newstrader/pkg/logger"
)

func TestMain(m *testing.M) {
	if logger.Log == nil {
		if err := logger.Init("error", ""); err != nil {
			panic(err)
		}
	}
	os.Exit(m.Run())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTradingDays(t *testing.T) {
	t.Run("excludes weekends", func(t *testing.T) {
		// Mon Mar 4 through Sun Mar 10, 2024
		days := TradingDays(date(2024, 3, 4), date(2024, 3, 10))
		if len(days) != 5 {
			t.Fatalf("len = %d, want 5", len(days))
		}
		if !days[0].Equal(date(2024, 3, 4)) {
			t.Errorf("first = %v, want Mar 4", days[0])
		}
		if !days[4].Equal(date(2024, 3, 8)) {
			t.Errorf("last = %v, want Mar 8", days[4])
		}
	})

	t.Run("weekend-only range is empty", func(t *testing.T) {
		days := TradingDays(date(2024, 3, 9), date(2024, 3, 10))
		if len(days) != 0 {
			t.Errorf("len = %d, want 0", len(days))
		}
	})

	t.Run("inverted range is empty", func(t *testing.T) {
		days := TradingDays(date(2024, 3, 10), date(2024, 3, 4))
		if len(days) != 0 {
			t.Errorf("len = %d, want 0", len(days))
		}
	})
}

func TestPreviousTradingDay(t *testing.T) {
	t.Run("monday resolves to friday", func(t *testing.T) {
		got := PreviousTradingDay(date(2024, 3, 11)) // Monday
		if !got.Equal(date(2024, 3, 8)) {            // Friday
			t.Errorf("got %v, want Mar 8 (Friday)", got)
		}
	})

	t.Run("midweek steps back one day", func(t *testing.T) {
		got := PreviousTradingDay(date(2024, 3, 6)) // Wednesday
		if !got.Equal(date(2024, 3, 5)) {
			t.Errorf("got %v, want Mar 5", got)
		}
	})
}

func TestAttributionWindow(t *testing.T) {
	t.Run("weekday window", func(t *testing.T) {
		start, end := AttributionWindow(date(2024, 3, 6)) // Wednesday

		wantStart := time.Date(2024, 3, 5, 16, 0, 0, 0, time.UTC)
		wantEnd := time.Date(2024, 3, 6, 9, 30, 0, 0, time.UTC)
		if !start.Equal(wantStart) {
			t.Errorf("start = %v, want %v", start, wantStart)
		}
		if !end.Equal(wantEnd) {
			t.Errorf("end = %v, want %v", end, wantEnd)
		}
	})

	t.Run("monday window reaches back to friday", func(t *testing.T) {
		start, end := AttributionWindow(date(2024, 3, 11)) // Monday

		wantStart := time.Date(2024, 3, 8, 16, 0, 0, 0, time.UTC) // Friday
		if !start.Equal(wantStart) {
			t.Errorf("start = %v, want %v", start, wantStart)
		}
		wantEnd := time.Date(2024, 3, 11, 9, 30, 0, 0, time.UTC)
		if !end.Equal(wantEnd) {
			t.Errorf("end = %v, want %v", end, wantEnd)
		}
	})
}

func TestRealtimeWindow(t *testing.T) {
	t.Run("intraday tuesday", func(t *testing.T) {
		now := time.Date(2024, 3, 5, 11, 15, 0, 0, time.UTC)
		start, end := RealtimeWindow(now)

		wantStart := time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC)
		if !start.Equal(wantStart) {
			t.Errorf("start = %v, want %v", start, wantStart)
		}
		if !end.Equal(now) {
			t.Errorf("end = %v, want %v", end, now)
		}
	})

	t.Run("pre-market monday reaches back to friday", func(t *testing.T) {
		now := time.Date(2024, 3, 11, 7, 30, 0, 0, time.UTC) // Monday before open
		start, _ := RealtimeWindow(now)

		wantStart := time.Date(2024, 3, 8, 17, 0, 0, 0, time.UTC) // Friday
		if !start.Equal(wantStart) {
			t.Errorf("start = %v, want %v", start, wantStart)
		}
	})
}
