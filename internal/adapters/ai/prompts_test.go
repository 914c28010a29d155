package ai

import (
	"strings"
	"testing"
	"time"

	"github.com/selivandex/newstrader/pkg/models"
)

func TestParseClassifyResponse(t *testing.T) {
	t.Run("plain json array", func(t *testing.T) {
		content := `[{"ticker": "AAPL", "sentiment": "positive"}, {"ticker": "GOOGL", "sentiment": "negative"}]`

		pairs, err := parseClassifyResponse(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pairs) != 2 {
			t.Fatalf("expected 2 pairs, got %d", len(pairs))
		}
		if pairs[0].Ticker != "AAPL" || pairs[0].Sentiment != models.SentimentPositive {
			t.Errorf("unexpected first pair: %+v", pairs[0])
		}
		if pairs[1].Ticker != "GOOGL" || pairs[1].Sentiment != models.SentimentNegative {
			t.Errorf("unexpected second pair: %+v", pairs[1])
		}
	})

	t.Run("markdown json fence", func(t *testing.T) {
		content := "```json\n[{\"ticker\": \"tsla\", \"sentiment\": \"POSITIVE\"}]\n```"

		pairs, err := parseClassifyResponse(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pairs) != 1 {
			t.Fatalf("expected 1 pair, got %d", len(pairs))
		}
		if pairs[0].Ticker != "TSLA" || pairs[0].Sentiment != models.SentimentPositive {
			t.Errorf("expected normalized TSLA/positive, got %+v", pairs[0])
		}
	})

	t.Run("bare fence", func(t *testing.T) {
		content := "```\n[]\n```"

		pairs, err := parseClassifyResponse(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pairs) != 0 {
			t.Errorf("expected empty result, got %+v", pairs)
		}
	})

	t.Run("invalid entries are dropped", func(t *testing.T) {
		content := `[
			{"ticker": "AAPL", "sentiment": "positive"},
			{"ticker": "TOOLONGNAME", "sentiment": "positive"},
			{"ticker": "BRK.B", "sentiment": "positive"},
			{"ticker": "MSFT", "sentiment": "sideways"},
			{"ticker": "", "sentiment": "neutral"}
		]`

		pairs, err := parseClassifyResponse(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pairs) != 1 || pairs[0].Ticker != "AAPL" {
			t.Errorf("expected only AAPL to survive validation, got %+v", pairs)
		}
	})

	t.Run("non-json response", func(t *testing.T) {
		if _, err := parseClassifyResponse("I could not find any companies."); err == nil {
			t.Error("expected error for non-JSON response")
		}
	})
}

func TestBuildClassifyPrompt(t *testing.T) {
	headline := models.Headline{
		ID:          1,
		Title:       "Apple beats earnings expectations",
		Summary:     "Strong iPhone sales drive record quarter",
		PublishedAt: time.Now(),
	}

	t.Run("includes headline and summary", func(t *testing.T) {
		prompt := buildClassifyPrompt(headline, nil)

		if !strings.Contains(prompt, headline.Title) {
			t.Error("prompt missing headline title")
		}
		if !strings.Contains(prompt, headline.Summary) {
			t.Error("prompt missing summary")
		}
		if strings.Contains(prompt, "similar historical headlines") {
			t.Error("prompt should not mention analogues when none given")
		}
	})

	t.Run("includes analogues when provided", func(t *testing.T) {
		prompt := buildClassifyPrompt(headline, []string{"Apple tops estimates again"})

		if !strings.Contains(prompt, "Apple tops estimates again") {
			t.Error("prompt missing retrieved analogue")
		}
	})
}
