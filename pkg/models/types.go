package models

import (
	"time"
)

// Sentiment is the three-way label produced by headline classification
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Valid reports whether s is one of the three known labels
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Score maps the label to its aggregation weight
func (s Sentiment) Score() int {
	switch s {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	default:
		return 0
	}
}

// PositionSide represents long or short position
type PositionSide string

const (
	PositionLong  PositionSide = "long"
	PositionShort PositionSide = "short"
)

// TradeAction is the executed order direction recorded in recaps
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
)

// Headline is an immutable news record created by ingestion.
// The core only reads these rows.
type Headline struct {
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	Title       string    `json:"title" db:"title"`
	Summary     string    `json:"summary" db:"summary"`
	Source      string    `json:"source" db:"source"`
	URL         string    `json:"url" db:"url"`
	ID          int64     `json:"id" db:"id"`
}

// PriceBar holds one daily OHLCV row for a ticker
type PriceBar struct {
	Date   time.Time `json:"date" db:"date"`
	Ticker string    `json:"ticker" db:"ticker"`
	Open   float64   `json:"open" db:"open_price"`
	Close  float64   `json:"close" db:"close_price"`
	High   float64   `json:"high" db:"high_price"`
	Low    float64   `json:"low" db:"low_price"`
	Volume float64   `json:"volume" db:"volume"`
}

// TickerSentiment is one classifier verdict: this headline implicates
// this ticker with this sentiment. A single headline may yield several.
type TickerSentiment struct {
	Ticker    string    `json:"ticker"`
	Sentiment Sentiment `json:"sentiment"`
}

// Evidence is one retrieval hit used to enrich a classifier prompt
type Evidence struct {
	ReferenceID int64   `json:"reference_id"`
	Similarity  float64 `json:"similarity"`
}

// SentimentJudgment is a persisted per-(run, date, headline, ticker)
// classification result. At most one row exists per key; re-analysis
// is a no-op. RunID is a simulation ID, or the negated prediction ID
// for live runs, so both kinds share one table without collisions.
type SentimentJudgment struct {
	Date       time.Time  `json:"date" db:"date"`
	Ticker     string     `json:"ticker" db:"ticker"`
	Sentiment  Sentiment  `json:"sentiment" db:"sentiment"`
	Evidence   []Evidence `json:"evidence,omitempty"`
	RunID      int64      `json:"run_id" db:"run_id"`
	HeadlineID int64      `json:"headline_id" db:"headline_id"`
}
