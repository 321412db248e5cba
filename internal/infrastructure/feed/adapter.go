package feed

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"cryptotracker/internal/application/port"
	"cryptotracker/internal/domain"

	"github.com/rs/zerolog/log"
)

// Format identifies the payload shape of one price source.
type Format string

const (
	// FormatBinanceTicker is the !ticker@arr / !miniTicker@arr array.
	FormatBinanceTicker Format = "binance"
	// FormatCoinCapPrices is the CoinCap prices stream: {"bitcoin": "60000.1"}.
	FormatCoinCapPrices Format = "coincap"
	// FormatCoinGeckoSimple is the /simple/price response.
	FormatCoinGeckoSimple Format = "coingecko-simple"
	// FormatCoinGeckoMarkets is the /coins/markets response.
	FormatCoinGeckoMarkets Format = "coingecko-markets"
)

// Adapter translates raw source payloads into canonical price updates.
// Translate is pure and safe for concurrent use.
type Adapter struct {
	binance   *SymbolMap
	coincap   *SymbolMap
	coingecko *SymbolMap
	currency  string
}

// NewAdapter builds an adapter over the built-in symbol tables. currency
// selects the quote fields of CoinGecko payloads.
func NewAdapter(currency string) *Adapter {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "usd"
	}
	return &Adapter{
		binance:   NewSymbolMap(BinanceSymbols, true),
		coincap:   NewSymbolMap(CoinCapIDs, false),
		coingecko: NewSymbolMap(CoinGeckoIDs, false),
		currency:  currency,
	}
}

// Symbols returns the id map used for format.
func (a *Adapter) Symbols(format Format) *SymbolMap {
	switch format {
	case FormatBinanceTicker:
		return a.binance
	case FormatCoinCapPrices:
		return a.coincap
	default:
		return a.coingecko
	}
}

func (a *Adapter) Currency() string { return a.currency }

// Translate converts one payload into zero or more canonical updates.
// Unknown ids and entries without a usable price are dropped; a payload of
// the wrong shape yields no updates.
func (a *Adapter) Translate(format Format, raw json.RawMessage) map[string]domain.Price {
	var (
		out map[string]domain.Price
		err error
	)
	switch format {
	case FormatBinanceTicker:
		out, err = a.binanceTicker(raw)
	case FormatCoinCapPrices:
		out, err = a.coincapPrices(raw)
	case FormatCoinGeckoSimple:
		out, err = a.coingeckoSimple(raw)
	case FormatCoinGeckoMarkets:
		out, err = a.coingeckoMarkets(raw)
	default:
		log.Debug().Str("format", string(format)).Msg("unknown feed format")
		return nil
	}
	if err != nil {
		log.Debug().Err(err).Str("format", string(format)).Msg("drop payload")
		return nil
	}
	return out
}

// Decoder binds Translate to one format.
func (a *Adapter) Decoder(format Format) port.Decoder {
	return func(raw json.RawMessage) map[string]domain.Price {
		return a.Translate(format, raw)
	}
}

type binanceCombined struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

func (a *Adapter) binanceTicker(raw json.RawMessage) (map[string]domain.Price, error) {
	raw = bytes.TrimSpace(raw)
	// 组合流: {"stream": "...", "data": [...]}
	if len(raw) > 0 && raw[0] == '{' {
		var c binanceCombined
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		raw = bytes.TrimSpace(c.Data)
		if len(raw) > 0 && raw[0] == '{' {
			raw = append(append([]byte{'['}, raw...), ']')
		}
	}

	// ticker 字段区分大小写（c 为收盘价，C 为收盘时间），不能用 struct 解码
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	out := make(map[string]domain.Price, len(items))
	for _, it := range items {
		var sym string
		if err := json.Unmarshal(it["s"], &sym); err != nil {
			continue
		}
		id, ok := a.binance.Canonical(sym)
		if !ok {
			continue
		}
		px, ok := number(it["c"])
		if !ok || px <= 0 {
			continue
		}
		change, ok := number(it["P"])
		if !ok {
			// miniTicker 不带涨跌幅，用开盘价推算
			if open, ok := number(it["o"]); ok && open > 0 {
				change = (px - open) / open * 100
			}
		}
		vol, _ := number(it["q"])
		out[id] = domain.Price{Price: px, ChangePercent: change, Volume: nonNegative(vol)}
	}
	return out, nil
}

func (a *Adapter) coincapPrices(raw json.RawMessage) (map[string]domain.Price, error) {
	var items map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	out := make(map[string]domain.Price, len(items))
	for feedID, v := range items {
		id, ok := a.coincap.Canonical(feedID)
		if !ok {
			continue
		}
		px, ok := number(v)
		if !ok || px <= 0 {
			continue
		}
		out[id] = domain.Price{Price: px}
	}
	return out, nil
}

func (a *Adapter) coingeckoSimple(raw json.RawMessage) (map[string]domain.Price, error) {
	var items map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	out := make(map[string]domain.Price, len(items))
	for feedID, fields := range items {
		id, ok := a.coingecko.Canonical(feedID)
		if !ok {
			continue
		}
		px, ok := number(fields[a.currency])
		if !ok || px <= 0 {
			continue
		}
		change, _ := number(fields[a.currency+"_24h_change"])
		vol, _ := number(fields[a.currency+"_24h_vol"])
		out[id] = domain.Price{Price: px, ChangePercent: change, Volume: nonNegative(vol)}
	}
	return out, nil
}

type coingeckoMarket struct {
	ID            string          `json:"id"`
	CurrentPrice  json.RawMessage `json:"current_price"`
	ChangePercent json.RawMessage `json:"price_change_percentage_24h"`
	TotalVolume   json.RawMessage `json:"total_volume"`
}

func (a *Adapter) coingeckoMarkets(raw json.RawMessage) (map[string]domain.Price, error) {
	var items []coingeckoMarket
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	out := make(map[string]domain.Price, len(items))
	for _, it := range items {
		id, ok := a.coingecko.Canonical(it.ID)
		if !ok {
			continue
		}
		px, ok := number(it.CurrentPrice)
		if !ok || px <= 0 {
			continue
		}
		change, _ := number(it.ChangePercent)
		vol, _ := number(it.TotalVolume)
		out[id] = domain.Price{Price: px, ChangePercent: change, Volume: nonNegative(vol)}
	}
	return out, nil
}

// number accepts a JSON number or a numeric string. null, missing and
// unparsable values report false.
func number(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	if s[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return 0, false
		}
		s = strings.TrimSpace(unq)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
