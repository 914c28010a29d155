package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/selivandex/newstrader/pkg/models"
)

const classifySystemPrompt = "You are a financial analyst expert at identifying how news affects publicly traded companies. You respond only with valid JSON."

// buildClassifyPrompt renders the user prompt for one headline,
// optionally grounded with retrieved historical analogues.
func buildClassifyPrompt(headline models.Headline, analogues []string) string {
	var sb strings.Builder

	sb.WriteString("Analyze this financial news and determine which publicly traded companies (stocks) might be affected and how.\n\n")
	fmt.Fprintf(&sb, "Headline: %s\n", headline.Title)
	if strings.TrimSpace(headline.Summary) != "" {
		fmt.Fprintf(&sb, "\nSummary: %s\n", headline.Summary)
	}

	if len(analogues) > 0 {
		sb.WriteString("\nFor context, similar historical headlines:\n")
		for _, a := range analogues {
			fmt.Fprintf(&sb, "- %s\n", a)
		}
	}

	sb.WriteString(`
Return a JSON array of objects, where each object has:
- "ticker": The stock ticker symbol (e.g., "AAPL", "GOOGL", "TSLA")
- "sentiment": Either "positive", "negative", or "neutral"

Only include major publicly traded companies that are directly mentioned or significantly affected by this news. Focus on companies likely to be in major stock indices like the S&P 500.

If no specific companies are clearly affected, return an empty array.

Example response format:
[
  {"ticker": "AAPL", "sentiment": "positive"},
  {"ticker": "GOOGL", "sentiment": "negative"}
]`)

	return sb.String()
}

// parseClassifyResponse extracts the (ticker, sentiment) array from a
// model response, tolerating markdown code fences around the JSON.
func parseClassifyResponse(content string) ([]models.TickerSentiment, error) {
	text := strings.TrimSpace(content)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.ReplaceAll(text, "```", "")
		text = strings.TrimSpace(text)
	} else if strings.HasPrefix(text, "```") {
		text = strings.ReplaceAll(text, "```", "")
		text = strings.TrimSpace(text)
	}

	var raw []struct {
		Ticker    string `json:"ticker"`
		Sentiment string `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("response is not a JSON array: %w", err)
	}

	pairs := make([]models.TickerSentiment, 0, len(raw))
	for _, item := range raw {
		ticker := strings.ToUpper(strings.TrimSpace(item.Ticker))
		sentiment := models.Sentiment(strings.ToLower(strings.TrimSpace(item.Sentiment)))

		if ticker == "" || len(ticker) > 5 || !isAlpha(ticker) {
			continue
		}
		if !sentiment.Valid() {
			continue
		}

		pairs = append(pairs, models.TickerSentiment{Ticker: ticker, Sentiment: sentiment})
	}

	return pairs, nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// sp500Tickers is the validation universe for LLM-extracted symbols
func sp500Tickers() map[string]bool {
	symbols := []string{
		"AAPL", "MSFT", "GOOGL", "AMZN", "META", "TSLA", "NVDA", "JPM", "JNJ", "V",
		"PG", "UNH", "HD", "MA", "DIS", "BAC", "NFLX", "ADBE", "CRM", "PFE",
		"CSCO", "INTC", "WMT", "IBM", "BA", "GS", "MS", "CVX", "XOM", "VZ",
		"T", "KO", "PEP", "NKE", "MRK", "ABBV", "TMO", "COST", "AVGO", "ORCL",
		"ACN", "LLY", "TXN", "MCD", "QCOM", "DHR", "NEE", "BMY", "UPS", "RTX",
		"LOW", "SPGI", "INTU", "AMD", "CAT", "MDLZ", "GE", "MMM", "CVS", "AMT",
		"AXP", "DE", "BKNG", "AMAT", "TJX", "ISRG", "ADP", "GILD", "CME", "TMUS",
		"REGN", "C", "VRTX", "BLK", "ZTS", "NOW", "PANW", "SYK", "BSX", "SNOW",
		"UBER", "SBUX", "SPOT", "ABNB", "PYPL", "SQ", "COIN", "ROKU", "ZM", "DOCU",
		"ETSY", "SHOP", "TWLO", "SNAP", "PINS", "LYFT", "DBX", "W", "PTON", "HOOD",
		"F", "GM", "RIVN", "LCID", "NIO", "LI", "XPEV", "PLTR", "NET", "DDOG",
		"CRWD", "OKTA", "MDB", "TEAM", "FTNT", "WDAY", "ADSK", "EA", "TTWO", "ATVI",
		"RBLX", "U", "MSCI", "MCO", "ICE", "NDAQ", "CBOE", "WFC", "USB", "PNC",
		"TFC", "SCHW", "COF", "AIG", "MET", "PRU", "TRV", "AFL", "ALL", "PGR",
		"CB", "HIG", "WBA", "CI", "HUM", "CNC", "ELV",
	}

	m := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		m[s] = true
	}
	return m
}
