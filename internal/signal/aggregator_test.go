package signal

import (
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/models"
)

func TestMain(m *testing.M) {
	if logger.Log == nil {
		if err := logger.Init("error", ""); err != nil {
			panic(err)
		}
	}
	os.Exit(m.Run())
}

func judgment(ticker string, sentiment models.Sentiment) models.SentimentJudgment {
	return models.SentimentJudgment{Ticker: ticker, Sentiment: sentiment}
}

func repeat(ticker string, sentiment models.Sentiment, n int) []models.SentimentJudgment {
	out := make([]models.SentimentJudgment, n)
	for i := range out {
		out[i] = judgment(ticker, sentiment)
	}
	return out
}

func TestAggregatorBuild(t *testing.T) {
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	agg := NewAggregator(5)

	t.Run("balanced truncation to shorter side", func(t *testing.T) {
		var judgments []models.SentimentJudgment
		judgments = append(judgments, repeat("AAA", models.SentimentPositive, 3)...)
		judgments = append(judgments, repeat("BBB", models.SentimentPositive, 2)...)
		judgments = append(judgments, judgment("CCC", models.SentimentPositive))
		judgments = append(judgments, judgment("DDD", models.SentimentNegative))
		judgments = append(judgments, repeat("EEE", models.SentimentNegative, 2)...)

		got := agg.Build(date, judgments)

		if want := []string{"AAA", "BBB"}; !reflect.DeepEqual(got.Long, want) {
			t.Errorf("Long = %v, want %v", got.Long, want)
		}
		if want := []string{"EEE", "DDD"}; !reflect.DeepEqual(got.Short, want) {
			t.Errorf("Short = %v, want %v", got.Short, want)
		}
	})

	t.Run("neutral judgments carry no weight", func(t *testing.T) {
		judgments := []models.SentimentJudgment{
			judgment("AAA", models.SentimentPositive),
			judgment("AAA", models.SentimentNeutral),
			judgment("BBB", models.SentimentNeutral),
			judgment("CCC", models.SentimentNegative),
		}

		got := agg.Build(date, judgments)

		if want := []string{"AAA"}; !reflect.DeepEqual(got.Long, want) {
			t.Errorf("Long = %v, want %v", got.Long, want)
		}
		if want := []string{"CCC"}; !reflect.DeepEqual(got.Short, want) {
			t.Errorf("Short = %v, want %v", got.Short, want)
		}
	})

	t.Run("mixed judgments cancel out", func(t *testing.T) {
		judgments := []models.SentimentJudgment{
			judgment("AAA", models.SentimentPositive),
			judgment("AAA", models.SentimentNegative),
			judgment("BBB", models.SentimentPositive),
			judgment("CCC", models.SentimentNegative),
		}

		got := agg.Build(date, judgments)

		if want := []string{"BBB"}; !reflect.DeepEqual(got.Long, want) {
			t.Errorf("Long = %v, want %v", got.Long, want)
		}
		if want := []string{"CCC"}; !reflect.DeepEqual(got.Short, want) {
			t.Errorf("Short = %v, want %v", got.Short, want)
		}
	})

	t.Run("ties break by first observation order", func(t *testing.T) {
		judgments := []models.SentimentJudgment{
			judgment("LATE", models.SentimentNegative),
			judgment("ZZZ", models.SentimentPositive),
			judgment("AAA", models.SentimentPositive),
			judgment("MMM", models.SentimentNegative),
		}

		got := agg.Build(date, judgments)

		// ZZZ and AAA both net +1; ZZZ observed first
		if want := []string{"ZZZ", "AAA"}; !reflect.DeepEqual(got.Long, want) {
			t.Errorf("Long = %v, want %v", got.Long, want)
		}
		if want := []string{"LATE", "MMM"}; !reflect.DeepEqual(got.Short, want) {
			t.Errorf("Short = %v, want %v", got.Short, want)
		}
	})

	t.Run("per-side cap applies before truncation", func(t *testing.T) {
		small := NewAggregator(2)

		var judgments []models.SentimentJudgment
		judgments = append(judgments, repeat("P1", models.SentimentPositive, 4)...)
		judgments = append(judgments, repeat("P2", models.SentimentPositive, 3)...)
		judgments = append(judgments, repeat("P3", models.SentimentPositive, 2)...)
		judgments = append(judgments, repeat("N1", models.SentimentNegative, 4)...)
		judgments = append(judgments, repeat("N2", models.SentimentNegative, 3)...)
		judgments = append(judgments, repeat("N3", models.SentimentNegative, 2)...)

		got := small.Build(date, judgments)

		if want := []string{"P1", "P2"}; !reflect.DeepEqual(got.Long, want) {
			t.Errorf("Long = %v, want %v", got.Long, want)
		}
		if want := []string{"N1", "N2"}; !reflect.DeepEqual(got.Short, want) {
			t.Errorf("Short = %v, want %v", got.Short, want)
		}
	})

	t.Run("one-sided day yields empty signal", func(t *testing.T) {
		judgments := []models.SentimentJudgment{
			judgment("AAA", models.SentimentPositive),
			judgment("BBB", models.SentimentPositive),
		}

		got := agg.Build(date, judgments)

		if !got.Empty() {
			t.Errorf("signal = %+v, want empty", got)
		}
	})

	t.Run("no judgments", func(t *testing.T) {
		got := agg.Build(date, nil)
		if !got.Empty() {
			t.Errorf("signal = %+v, want empty", got)
		}
	})
}

func TestNetSentiments(t *testing.T) {
	agg := NewAggregator(5)

	nets := agg.NetSentiments([]models.SentimentJudgment{
		judgment("AAA", models.SentimentPositive),
		judgment("AAA", models.SentimentPositive),
		judgment("AAA", models.SentimentNegative),
		judgment("BBB", models.SentimentNeutral),
	})

	if nets["AAA"] != 1 {
		t.Errorf("AAA net = %d, want 1", nets["AAA"])
	}
	if nets["BBB"] != 0 {
		t.Errorf("BBB net = %d, want 0", nets["BBB"])
	}
}
