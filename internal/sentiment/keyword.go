package sentiment

import (
	"context"
	"strings"

	"github.com/selivandex/newstrader/pkg/models"
)

// KeywordClassifier is the single-ticker classification path: ticker
// extraction against the fixed company dictionary, then weighted
// keyword scoring of the headline text. A headline with no recognized
// ticker yields no judgment.
type KeywordClassifier struct {
	extractor     *Extractor
	positiveWords map[string]float64
	negativeWords map[string]float64
}

// NewKeywordClassifier creates new keyword classifier
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		extractor:     NewExtractor(),
		positiveWords: buildPositiveWords(),
		negativeWords: buildNegativeWords(),
	}
}

// Name returns classifier name for logging and telemetry
func (c *KeywordClassifier) Name() string {
	return "keyword"
}

// Classify returns at most one (ticker, sentiment) pair for a headline
func (c *KeywordClassifier) Classify(ctx context.Context, headline models.Headline) ([]models.TickerSentiment, []models.Evidence, error) {
	ticker := c.extractor.Extract(headline.Title)
	if ticker == "" {
		return nil, nil, nil
	}

	label := c.label(headline.Title)
	return []models.TickerSentiment{{Ticker: ticker, Sentiment: label}}, nil, nil
}

// label scores the text against the weighted word lists and maps the
// normalized score to the three-way label
func (c *KeywordClassifier) label(text string) models.Sentiment {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return models.SentimentNeutral
	}

	var score float64
	matched := 0

	for _, word := range words {
		word = strings.Trim(word, ".,!?;:'\"()")

		if weight, ok := c.positiveWords[word]; ok {
			score += weight
			matched++
		}
		if weight, ok := c.negativeWords[word]; ok {
			score -= weight
			matched++
		}
	}

	if matched == 0 {
		return models.SentimentNeutral
	}

	normalized := score / float64(len(words))
	switch {
	case normalized > 0.02:
		return models.SentimentPositive
	case normalized < -0.02:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// buildPositiveWords returns positive keywords for equity headlines
func buildPositiveWords() map[string]float64 {
	return map[string]float64{
		"beats":        1.0,
		"beat":         0.9,
		"surge":        0.9,
		"surges":       0.9,
		"soar":         0.8,
		"soars":        0.8,
		"rally":        0.8,
		"rallies":      0.8,
		"record":       0.7,
		"upgrade":      0.7,
		"upgraded":     0.7,
		"upgrades":     0.7,
		"outperform":   0.7,
		"gain":         0.6,
		"gains":        0.6,
		"profit":       0.6,
		"profits":      0.6,
		"growth":       0.6,
		"strong":       0.6,
		"jump":         0.6,
		"jumps":        0.6,
		"rise":         0.5,
		"rises":        0.5,
		"up":           0.4,
		"buyback":      0.6,
		"dividend":     0.5,
		"approval":     0.6,
		"approved":     0.6,
		"partnership":  0.5,
		"expands":      0.5,
		"breakthrough": 0.6,
		"bullish":      0.9,
		"tops":         0.7,
		"exceeds":      0.7,
		"raises":       0.6,
		"raised":       0.6,
	}
}

// buildNegativeWords returns negative keywords for equity headlines
func buildNegativeWords() map[string]float64 {
	return map[string]float64{
		"misses":        1.0,
		"miss":          0.9,
		"plunge":        0.9,
		"plunges":       0.9,
		"crash":         1.0,
		"crashes":       1.0,
		"tumble":        0.8,
		"tumbles":       0.8,
		"slump":         0.8,
		"slumps":        0.8,
		"downgrade":     0.8,
		"downgraded":    0.8,
		"downgrades":    0.8,
		"underperform":  0.7,
		"fall":          0.6,
		"falls":         0.6,
		"drop":          0.6,
		"drops":         0.6,
		"decline":       0.6,
		"declines":      0.6,
		"loss":          0.7,
		"losses":        0.7,
		"lawsuit":       0.7,
		"sued":          0.7,
		"probe":         0.6,
		"investigation": 0.6,
		"recall":        0.7,
		"recalls":       0.7,
		"layoffs":       0.7,
		"cuts":          0.6,
		"cut":           0.5,
		"warns":         0.7,
		"warning":       0.7,
		"bearish":       0.9,
		"fraud":         1.0,
		"bankruptcy":    1.0,
		"down":          0.4,
		"weak":          0.6,
		"disappointing": 0.8,
		"lowers":        0.6,
		"lowered":       0.6,
	}
}
