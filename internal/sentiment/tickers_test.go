package sentiment

import "testing"

func TestExtract(t *testing.T) {
	e := NewExtractor()

	cases := []struct {
		name     string
		headline string
		want     string
	}{
		{"parenthesized symbol", "Apple Inc (AAPL) beats quarterly estimates", "AAPL"},
		{"exchange prefix", "NYSE: GS under pressure after trading update", "GS"},
		{"exchange prefix lowercase", "Shares slide after nasdaq: MSFT guidance", "MSFT"},
		{"dollar symbol", "$TSLA deliveries hit a new record", "TSLA"},
		{"company name", "Tesla recalls thousands of vehicles", "TSLA"},
		{"product keyword", "iPhone sales disappoint in China", "AAPL"},
		{"unknown parenthesized symbol ignored", "Obscure Corp (QQZZZ) files for IPO", ""},
		{"no company mentioned", "Fed holds rates steady amid inflation concerns", ""},
		{"symbol notation wins over names", "Microsoft deal boosts Apple supplier (TSLA)", "TSLA"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.Extract(tc.headline); got != tc.want {
				t.Errorf("Extract(%q) = %q, want %q", tc.headline, got, tc.want)
			}
		})
	}
}

func TestContainsWord(t *testing.T) {
	t.Run("matches on word boundaries", func(t *testing.T) {
		if !containsWord("general electric wins contract", "general electric") {
			t.Error("expected match")
		}
	})

	t.Run("does not match inside words", func(t *testing.T) {
		if containsWord("hedge funds pile in", "ge") {
			t.Error("unexpected substring match")
		}
	})
}

func TestKnown(t *testing.T) {
	e := NewExtractor()
	if !e.Known("AAPL") {
		t.Error("AAPL should be known")
	}
	if e.Known("QQZZZ") {
		t.Error("QQZZZ should not be known")
	}
}
