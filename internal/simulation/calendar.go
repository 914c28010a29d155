package simulation

import "time"

// The calendar is weekday-only. Market holidays are treated as trading
// days with no price data; legs simply fail to fill. Known limitation.

// IsTradingDay reports whether the date falls on a weekday
func IsTradingDay(date time.Time) bool {
	wd := date.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// TradingDays returns all weekdays in [start, end] in ascending order
func TradingDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := midnight(start); !d.After(midnight(end)); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// PreviousTradingDay returns the nearest weekday strictly before date.
// The walk is bounded so a degenerate input cannot loop forever
func PreviousTradingDay(date time.Time) time.Time {
	prev := midnight(date).AddDate(0, 0, -1)
	for i := 0; i < 7 && !IsTradingDay(prev); i++ {
		prev = prev.AddDate(0, 0, -1)
	}
	return prev
}

// AttributionWindow returns the headline window responsible for the
// given trading date: previous trading day 16:00 through date 09:30
func AttributionWindow(date time.Time) (time.Time, time.Time) {
	prev := PreviousTradingDay(date)
	start := time.Date(prev.Year(), prev.Month(), prev.Day(), 16, 0, 0, 0, date.Location())
	end := time.Date(date.Year(), date.Month(), date.Day(), 9, 30, 0, 0, date.Location())
	return start, end
}

// RealtimeWindow returns the live headline window: the prior day at
// 17:00, walked back past weekends, through now. Both the pre-market
// and intraday cases resolve to the same boundaries
func RealtimeWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 17, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	for i := 0; i < 7 && !IsTradingDay(start); i++ {
		start = start.AddDate(0, 0, -1)
	}
	return start, now
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
