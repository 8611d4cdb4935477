package universe

// 큐레이션 리스트 이름
const (
	ListMostActive = "most_active"
	ListSmallCaps  = "small_caps"
	ListMeme       = "meme"
	ListETFs       = "etfs"
)

var curated = map[string][]string{
	ListMostActive: {
		"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "META", "AMD",
		"NFLX", "DIS", "BABA", "V", "MA", "JPM", "BAC", "WMT", "PFE",
		"INTC", "CSCO", "ORCL", "CRM", "ADBE", "PYPL", "QCOM", "TXN",
		"AVGO", "COST", "CMCSA", "PEP", "TMO", "ABT", "NKE", "UNH",
		"HD", "MCD", "VZ", "T", "MRK", "LLY", "KO", "WFC", "XOM",
		"CVX", "BA", "GE", "GM", "F", "AAL", "UAL", "CCL",
	},
	ListSmallCaps: {
		"PLTR", "SOFI", "COIN", "RIVN", "LCID", "HOOD", "RBLX", "U",
		"DKNG", "OPEN", "AFRM", "SQ", "SNAP", "PINS", "UBER", "LYFT",
		"DASH", "ABNB", "ZM", "DOCU", "CRWD", "SNOW", "NET", "DDOG",
		"MDB", "TEAM", "OKTA", "ZS", "ESTC", "SHOP",
	},
	ListMeme: {"GME", "AMC", "BBBY", "NOK", "BB", "WISH", "CLOV", "SPCE"},
	ListETFs: {"SPY", "QQQ", "IWM", "DIA", "VTI", "VOO", "VEA", "VWO", "AGG", "TLT"},
}

// defaultSymbols is the fallback when a remote source fails
var defaultSymbols = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "META", "AMD",
	"NFLX", "DIS", "SPY", "QQQ", "GME", "AMC", "PLTR", "SOFI",
	"BA", "COIN", "RIVN", "F", "GM", "AAL", "BABA", "V", "MA",
}

// ListNames returns the curated list names in build order
func ListNames() []string {
	return []string{ListMostActive, ListSmallCaps, ListMeme, ListETFs}
}

// List returns a copy of a curated list
func List(name string) ([]string, bool) {
	l, ok := curated[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), l...), true
}

// Default returns the fallback universe symbols
func Default() []string {
	return append([]string(nil), defaultSymbols...)
}

// dedupe keeps first occurrence order and caps at limit (0 = no cap)
func dedupe(symbols []string, limit int) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
