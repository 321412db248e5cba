package feed

import (
	"sort"
	"strings"
)

// BinanceSymbols 规范资产 id -> Binance USDT 交易对
var BinanceSymbols = map[string]string{
	"bitcoin":           "BTCUSDT",
	"ethereum":          "ETHUSDT",
	"binancecoin":       "BNBUSDT",
	"ripple":            "XRPUSDT",
	"cardano":           "ADAUSDT",
	"solana":            "SOLUSDT",
	"dogecoin":          "DOGEUSDT",
	"polkadot":          "DOTUSDT",
	"shiba-inu":         "SHIBUSDT",
	"litecoin":          "LTCUSDT",
	"avalanche":         "AVAXUSDT",
	"chainlink":         "LINKUSDT",
	"uniswap":           "UNIUSDT",
	"polygon":           "MATICUSDT",
	"stellar":           "XLMUSDT",
	"near-protocol":     "NEARUSDT",
	"aptos":             "APTUSDT",
	"sui":               "SUIUSDT",
	"internet-computer": "ICPUSDT",
	"tron":              "TRXUSDT",
}

// CoinCapIDs 规范资产 id -> CoinCap asset id（sui 未上架）
var CoinCapIDs = map[string]string{
	"bitcoin":           "bitcoin",
	"ethereum":          "ethereum",
	"binancecoin":       "binance-coin",
	"ripple":            "xrp",
	"cardano":           "cardano",
	"solana":            "solana",
	"dogecoin":          "dogecoin",
	"polkadot":          "polkadot",
	"shiba-inu":         "shiba-inu",
	"litecoin":          "litecoin",
	"avalanche":         "avalanche",
	"chainlink":         "chainlink",
	"uniswap":           "uniswap",
	"polygon":           "polygon",
	"stellar":           "stellar",
	"near-protocol":     "near-protocol",
	"aptos":             "aptos",
	"internet-computer": "internet-computer",
	"tron":              "tron",
}

// CoinGeckoIDs 规范资产 id -> CoinGecko coin id
var CoinGeckoIDs = map[string]string{
	"bitcoin":           "bitcoin",
	"ethereum":          "ethereum",
	"binancecoin":       "binancecoin",
	"ripple":            "ripple",
	"cardano":           "cardano",
	"solana":            "solana",
	"dogecoin":          "dogecoin",
	"polkadot":          "polkadot",
	"shiba-inu":         "shiba-inu",
	"litecoin":          "litecoin",
	"avalanche":         "avalanche-2",
	"chainlink":         "chainlink",
	"uniswap":           "uniswap",
	"polygon":           "matic-network",
	"stellar":           "stellar",
	"near-protocol":     "near",
	"aptos":             "aptos",
	"sui":               "sui",
	"internet-computer": "internet-computer",
	"tron":              "tron",
}

// SymbolMap is an explicit bidirectional mapping between canonical asset ids
// and the ids one feed uses. It is immutable after construction.
type SymbolMap struct {
	toFeed      map[string]string
	toCanonical map[string]string
	fold        bool
}

// NewSymbolMap builds a map from canonical -> feed id pairs. With fold set,
// feed ids are matched case-insensitively.
func NewSymbolMap(pairs map[string]string, fold bool) *SymbolMap {
	m := &SymbolMap{
		toFeed:      make(map[string]string, len(pairs)),
		toCanonical: make(map[string]string, len(pairs)),
		fold:        fold,
	}
	for canonical, feedID := range pairs {
		canonical = strings.TrimSpace(canonical)
		feedID = strings.TrimSpace(feedID)
		if canonical == "" || feedID == "" {
			continue
		}
		m.toFeed[canonical] = feedID
		m.toCanonical[m.key(feedID)] = canonical
	}
	return m
}

// Canonical 将 feed id 转换为规范资产 id
func (m *SymbolMap) Canonical(feedID string) (string, bool) {
	id, ok := m.toCanonical[m.key(strings.TrimSpace(feedID))]
	return id, ok
}

// Feed 将规范资产 id 转换为 feed id
func (m *SymbolMap) Feed(canonical string) (string, bool) {
	id, ok := m.toFeed[strings.TrimSpace(canonical)]
	return id, ok
}

// FeedIDs maps every known canonical id, skipping the ones the feed lacks.
func (m *SymbolMap) FeedIDs(canonicals []string) []string {
	out := make([]string, 0, len(canonicals))
	for _, c := range canonicals {
		if id, ok := m.Feed(c); ok {
			out = append(out, id)
		}
	}
	return out
}

// Canonicals returns every canonical id of the map in sorted order.
func (m *SymbolMap) Canonicals() []string {
	out := make([]string, 0, len(m.toFeed))
	for c := range m.toFeed {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (m *SymbolMap) Len() int { return len(m.toFeed) }

func (m *SymbolMap) key(feedID string) string {
	if m.fold {
		return strings.ToUpper(feedID)
	}
	return feedID
}

// Ticker returns the short ticker of a canonical id (BTCUSDT -> BTC), or the
// upper-cased id when Binance does not list it.
func Ticker(canonical string) string {
	if sym, ok := BinanceSymbols[canonical]; ok {
		return strings.TrimSuffix(sym, "USDT")
	}
	return strings.ToUpper(canonical)
}
