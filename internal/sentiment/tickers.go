package sentiment

import (
	"regexp"
	"sort"
	"strings"
)

// Extractor resolves a headline to at most one ticker symbol using a
// fixed company keyword dictionary plus a few explicit symbol patterns.
type Extractor struct {
	keywords map[string][]string
	ordered  []string
	known    map[string]bool

	parenPattern    *regexp.Regexp
	exchangePattern *regexp.Regexp
	dollarPattern   *regexp.Regexp
}

// NewExtractor creates new ticker extractor
func NewExtractor() *Extractor {
	kw := companyKeywords()

	known := make(map[string]bool, len(kw))
	ordered := make([]string, 0, len(kw))
	for ticker := range kw {
		known[ticker] = true
		ordered = append(ordered, ticker)
	}
	sort.Strings(ordered)

	return &Extractor{
		keywords:        kw,
		ordered:         ordered,
		known:           known,
		parenPattern:    regexp.MustCompile(`\(([A-Z]{1,5})\)`),
		exchangePattern: regexp.MustCompile(`(?i)(?:NYSE|NASDAQ|NASD):?\s*([A-Z]{1,5})`),
		dollarPattern:   regexp.MustCompile(`\$([A-Z]{1,5})\b`),
	}
}

// Extract returns the ticker a headline implicates, or "" when no
// known company is mentioned. Explicit symbol notation wins over
// company-name matching.
func (e *Extractor) Extract(headline string) string {
	// "Apple (AAPL)" style
	for _, m := range e.parenPattern.FindAllStringSubmatch(headline, -1) {
		if e.known[m[1]] {
			return m[1]
		}
	}

	// "NYSE: GS" / "NASDAQ: AAPL" style
	for _, m := range e.exchangePattern.FindAllStringSubmatch(headline, -1) {
		sym := strings.ToUpper(m[1])
		if e.known[sym] {
			return sym
		}
	}

	// "$TSLA" style
	for _, m := range e.dollarPattern.FindAllStringSubmatch(headline, -1) {
		if e.known[m[1]] {
			return m[1]
		}
	}

	lower := strings.ToLower(headline)
	for _, ticker := range e.ordered {
		for _, word := range e.keywords[ticker] {
			if containsWord(lower, strings.ToLower(word)) {
				return ticker
			}
		}
	}

	return ""
}

// Known reports whether sym is in the ticker universe
func (e *Extractor) Known(sym string) bool {
	return e.known[sym]
}

// containsWord matches needle in haystack on word boundaries, so
// "GE" does not fire inside "hedge".
func containsWord(haystack, needle string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)

		beforeOK := start == 0 || !isWordChar(haystack[start-1])
		afterOK := end == len(haystack) || !isWordChar(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// companyKeywords maps tickers to company names and strongly
// associated product keywords.
func companyKeywords() map[string][]string {
	return map[string][]string{
		"AAPL":  {"Apple", "iPhone", "iPad", "MacBook", "iOS"},
		"MSFT":  {"Microsoft", "Windows", "Azure", "Xbox", "Surface"},
		"GOOGL": {"Google", "Alphabet", "YouTube", "Android", "Chrome"},
		"AMZN":  {"Amazon", "AWS", "Alexa", "Whole Foods"},
		"META":  {"Meta", "Facebook", "Instagram", "WhatsApp"},
		"TSLA":  {"Tesla", "Elon Musk", "Model 3", "Model Y"},
		"NVDA":  {"Nvidia", "GeForce", "CUDA", "Jensen Huang"},
		"JPM":   {"JP Morgan", "JPMorgan", "Jamie Dimon"},
		"JNJ":   {"Johnson & Johnson", "J&J"},
		"V":     {"Visa"},
		"PG":    {"Procter & Gamble", "P&G", "Gillette"},
		"UNH":   {"UnitedHealth", "United Health", "Optum"},
		"HD":    {"Home Depot"},
		"MA":    {"Mastercard", "MasterCard"},
		"DIS":   {"Disney", "Walt Disney", "Marvel", "Pixar"},
		"BAC":   {"Bank of America", "BofA", "Merrill Lynch"},
		"NFLX":  {"Netflix"},
		"ADBE":  {"Adobe", "Photoshop"},
		"CRM":   {"Salesforce", "Slack"},
		"PFE":   {"Pfizer", "BioNTech"},
		"CSCO":  {"Cisco"},
		"INTC":  {"Intel"},
		"WMT":   {"Walmart", "Wal-Mart"},
		"IBM":   {"IBM", "Red Hat"},
		"BA":    {"Boeing", "737", "787", "Dreamliner"},
		"GS":    {"Goldman Sachs", "Goldman"},
		"MS":    {"Morgan Stanley"},
		"CVX":   {"Chevron"},
		"XOM":   {"Exxon", "ExxonMobil"},
		"VZ":    {"Verizon"},
		"T":     {"AT&T"},
		"KO":    {"Coca-Cola", "Coca Cola", "Coke"},
		"PEP":   {"Pepsi", "PepsiCo", "Gatorade"},
		"NKE":   {"Nike"},
		"MRK":   {"Merck"},
		"ABBV":  {"AbbVie"},
		"COST":  {"Costco"},
		"AVGO":  {"Broadcom"},
		"ORCL":  {"Oracle"},
		"LLY":   {"Eli Lilly", "Lilly"},
		"TXN":   {"Texas Instruments"},
		"MCD":   {"McDonald's", "McDonalds"},
		"QCOM":  {"Qualcomm", "Snapdragon"},
		"UPS":   {"United Parcel"},
		"RTX":   {"Raytheon"},
		"LOW":   {"Lowe's", "Lowes"},
		"INTU":  {"Intuit", "TurboTax", "QuickBooks"},
		"AMD":   {"AMD", "Advanced Micro Devices", "Ryzen", "Radeon"},
		"CAT":   {"Caterpillar"},
		"GE":    {"General Electric"},
		"MMM":   {"3M"},
		"CVS":   {"CVS", "Aetna"},
		"AXP":   {"American Express", "Amex"},
		"DE":    {"John Deere", "Deere"},
		"BKNG":  {"Booking", "Priceline"},
		"AMAT":  {"Applied Materials"},
		"ISRG":  {"Intuitive Surgical"},
		"GILD":  {"Gilead"},
		"TMUS":  {"T-Mobile", "TMobile"},
		"REGN":  {"Regeneron"},
		"C":     {"Citigroup", "Citibank"},
		"BLK":   {"BlackRock"},
		"NOW":   {"ServiceNow"},
		"PANW":  {"Palo Alto Networks"},
		"SNOW":  {"Snowflake"},
		"UBER":  {"Uber"},
		"SBUX":  {"Starbucks"},
		"SPOT":  {"Spotify"},
		"ABNB":  {"Airbnb"},
		"PYPL":  {"PayPal", "Venmo"},
		"COIN":  {"Coinbase"},
		"ROKU":  {"Roku"},
		"ZM":    {"Zoom"},
		"SHOP":  {"Shopify"},
		"SNAP":  {"Snapchat"},
		"PINS":  {"Pinterest"},
		"LYFT":  {"Lyft"},
		"HOOD":  {"Robinhood"},
		"F":     {"Ford", "F-150"},
		"GM":    {"General Motors", "Chevrolet", "Chevy"},
		"RIVN":  {"Rivian"},
		"NIO":   {"NIO"},
		"PLTR":  {"Palantir"},
		"NET":   {"Cloudflare"},
		"DDOG":  {"Datadog"},
		"CRWD":  {"CrowdStrike"},
		"MDB":   {"MongoDB"},
		"TEAM":  {"Atlassian"},
		"WDAY":  {"Workday"},
		"ADSK":  {"Autodesk"},
		"EA":    {"Electronic Arts", "EA Sports"},
		"TTWO":  {"Take-Two", "Grand Theft Auto"},
		"RBLX":  {"Roblox"},
		"NDAQ":  {"Nasdaq"},
		"WFC":   {"Wells Fargo"},
		"SCHW":  {"Charles Schwab", "Schwab"},
		"COF":   {"Capital One"},
		"MET":   {"MetLife"},
		"ALL":   {"Allstate"},
		"PGR":   {"Progressive"},
		"WBA":   {"Walgreens"},
		"CI":    {"Cigna"},
		"HUM":   {"Humana"},
	}
}
