package signal

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/models"
)

// Aggregator turns per-headline sentiment judgments into a balanced
// daily long/short signal
type Aggregator struct {
	maxPerSide int
}

// NewAggregator creates new signal aggregator
func NewAggregator(maxPerSide int) *Aggregator {
	if maxPerSide < 1 {
		maxPerSide = 5
	}
	return &Aggregator{maxPerSide: maxPerSide}
}

type tickerNet struct {
	ticker string
	net    int
	first  int // first observation index, used for tie-breaking
}

// Build aggregates judgments into a signal for the given date.
// Net sentiment is positives minus negatives; neutral judgments carry
// no weight. Longs are the most positive tickers, shorts the most
// negative, each side capped and then truncated to the shorter side
// so the book stays balanced
func (a *Aggregator) Build(date time.Time, judgments []models.SentimentJudgment) models.Signal {
	order := make(map[string]int, len(judgments))
	nets := make(map[string]int, len(judgments))

	for i, j := range judgments {
		if _, seen := order[j.Ticker]; !seen {
			order[j.Ticker] = i
		}
		nets[j.Ticker] += j.Sentiment.Score()
	}

	var positive, negative []tickerNet
	for ticker, net := range nets {
		entry := tickerNet{ticker: ticker, net: net, first: order[ticker]}
		switch {
		case net > 0:
			positive = append(positive, entry)
		case net < 0:
			negative = append(negative, entry)
		}
	}

	sort.Slice(positive, func(i, k int) bool {
		if positive[i].net != positive[k].net {
			return positive[i].net > positive[k].net
		}
		return positive[i].first < positive[k].first
	})
	sort.Slice(negative, func(i, k int) bool {
		if negative[i].net != negative[k].net {
			return negative[i].net < negative[k].net
		}
		return negative[i].first < negative[k].first
	})

	if len(positive) > a.maxPerSide {
		positive = positive[:a.maxPerSide]
	}
	if len(negative) > a.maxPerSide {
		negative = negative[:a.maxPerSide]
	}

	// Balance: equal book sizes on both sides
	size := len(positive)
	if len(negative) < size {
		size = len(negative)
	}
	positive = positive[:size]
	negative = negative[:size]

	signal := models.Signal{Date: date}
	for _, entry := range positive {
		signal.Long = append(signal.Long, entry.ticker)
	}
	for _, entry := range negative {
		signal.Short = append(signal.Short, entry.ticker)
	}

	logger.Debug("built daily signal",
		zap.Time("date", date),
		zap.Strings("long", signal.Long),
		zap.Strings("short", signal.Short),
	)

	return signal
}

// NetSentiments returns per-ticker net sentiment for reporting
func (a *Aggregator) NetSentiments(judgments []models.SentimentJudgment) map[string]int {
	nets := make(map[string]int, len(judgments))
	for _, j := range judgments {
		nets[j.Ticker] += j.Sentiment.Score()
	}
	return nets
}
