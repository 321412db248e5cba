package feed

import (
	"encoding/json"
	"math"
	"testing"

	"cryptotracker/internal/domain"
)

func TestTranslateBinanceTicker(t *testing.T) {
	a := NewAdapter("usd")

	raw := json.RawMessage(`[
		{"e":"24hrTicker","s":"BTCUSDT","p":"100","P":"2.50","c":"61000.10","C":1700000000000,"o":"60000","O":1699900000000,"q":"1234.5"},
		{"e":"24hrMiniTicker","s":"ETHUSDT","c":"3300","o":"3000","v":"10","q":"999"},
		{"s":"FOOUSDT","c":"1","P":"0","q":"1"},
		{"s":"SOLUSDT","c":"abc","P":"1","q":"1"},
		{"s":"DOGEUSDT","c":"0.1","P":"x","q":"-5"}
	]`)

	got := a.Translate(FormatBinanceTicker, raw)
	if len(got) != 3 {
		t.Fatalf("expected 3 updates, got %d: %+v", len(got), got)
	}

	btc := got["bitcoin"]
	if btc.Price != 61000.10 || btc.ChangePercent != 2.5 || btc.Volume != 1234.5 {
		t.Fatalf("bitcoin: %+v", btc)
	}
	eth := got["ethereum"]
	if eth.Price != 3300 || math.Abs(eth.ChangePercent-10) > 1e-9 || eth.Volume != 999 {
		t.Fatalf("ethereum: %+v", eth)
	}
	doge := got["dogecoin"]
	if doge.ChangePercent != 0 || doge.Volume != 0 {
		t.Fatalf("optional fields should default to 0: %+v", doge)
	}
	if _, ok := got["solana"]; ok {
		t.Fatalf("unparsable price must drop the entry")
	}
}

func TestTranslateBinanceCombinedStream(t *testing.T) {
	a := NewAdapter("usd")

	got := a.Translate(FormatBinanceTicker, json.RawMessage(`{"stream":"!miniTicker@arr","data":[{"s":"AVAXUSDT","c":"35","o":"35","q":"1"}]}`))
	if p, ok := got["avalanche"]; !ok || p.Price != 35 {
		t.Fatalf("avalanche: %+v", got)
	}

	got = a.Translate(FormatBinanceTicker, json.RawMessage(`{"stream":"btcusdt@miniTicker","data":{"s":"BTCUSDT","c":"60000","o":"60000","q":"1"}}`))
	if p, ok := got["bitcoin"]; !ok || p.Price != 60000 {
		t.Fatalf("single-symbol stream: %+v", got)
	}
}

func TestTranslateCoinCap(t *testing.T) {
	a := NewAdapter("usd")

	got := a.Translate(FormatCoinCapPrices, json.RawMessage(`{"bitcoin":"60000.5","binance-coin":"580","unknown":"1","ethereum":"","sui":"2"}`))
	want := map[string]float64{"bitcoin": 60000.5, "binancecoin": 580}
	if len(got) != len(want) {
		t.Fatalf("expected %d updates, got %+v", len(want), got)
	}
	for id, px := range want {
		if got[id].Price != px {
			t.Fatalf("%s: got %v want %v", id, got[id].Price, px)
		}
	}
}

func TestTranslateCoinGeckoSimple(t *testing.T) {
	a := NewAdapter("eur")

	raw := json.RawMessage(`{
		"avalanche-2": {"eur": 31.5, "eur_24h_change": -1.25, "eur_24h_vol": 1000},
		"matic-network": {"eur": 0.7, "eur_24h_change": null},
		"bitcoin": {"usd": 60000},
		"near": {"eur": "5.1"}
	}`)

	got := a.Translate(FormatCoinGeckoSimple, raw)
	if len(got) != 3 {
		t.Fatalf("expected 3 updates, got %+v", got)
	}
	if p := got["avalanche"]; p.Price != 31.5 || p.ChangePercent != -1.25 || p.Volume != 1000 {
		t.Fatalf("avalanche: %+v", p)
	}
	if p := got["polygon"]; p.Price != 0.7 || p.ChangePercent != 0 {
		t.Fatalf("polygon: %+v", p)
	}
	if p := got["near-protocol"]; p.Price != 5.1 {
		t.Fatalf("near-protocol: %+v", p)
	}
}

func TestTranslateCoinGeckoMarkets(t *testing.T) {
	a := NewAdapter("usd")

	raw := json.RawMessage(`[
		{"id":"bitcoin","symbol":"btc","current_price":60000,"price_change_percentage_24h":1.5,"total_volume":2.5e10},
		{"id":"binancecoin","current_price":null},
		{"id":"not-tracked","current_price":1}
	]`)

	got := a.Translate(FormatCoinGeckoMarkets, raw)
	want := map[string]domain.Price{
		"bitcoin": {Price: 60000, ChangePercent: 1.5, Volume: 2.5e10},
	}
	if len(got) != len(want) || got["bitcoin"] != want["bitcoin"] {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestTranslateWrongShapeYieldsNothing(t *testing.T) {
	a := NewAdapter("usd")

	cases := []struct {
		name   string
		format Format
		raw    string
	}{
		{"binance object", FormatBinanceTicker, `{"s":"BTCUSDT","c":"1"}`},
		{"binance garbage", FormatBinanceTicker, `not json`},
		{"coincap array", FormatCoinCapPrices, `[1,2,3]`},
		{"simple array", FormatCoinGeckoSimple, `[{"bitcoin":1}]`},
		{"markets object", FormatCoinGeckoMarkets, `{"id":"bitcoin"}`},
		{"unknown format", Format("kraken"), `[]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := a.Translate(tc.format, json.RawMessage(tc.raw)); len(got) != 0 {
				t.Fatalf("expected no updates, got %+v", got)
			}
		})
	}
}

func TestSymbolMapBidirectional(t *testing.T) {
	for name, table := range map[string]map[string]string{
		"binance":   BinanceSymbols,
		"coincap":   CoinCapIDs,
		"coingecko": CoinGeckoIDs,
	} {
		m := NewSymbolMap(table, false)
		if m.Len() != len(table) {
			t.Fatalf("%s: duplicate feed ids collapse the map", name)
		}
		for canonical, feedID := range table {
			back, ok := m.Canonical(feedID)
			if !ok || back != canonical {
				t.Fatalf("%s: %s -> %s -> %s", name, canonical, feedID, back)
			}
		}
	}

	m := NewSymbolMap(BinanceSymbols, true)
	if id, ok := m.Canonical("btcusdt"); !ok || id != "bitcoin" {
		t.Fatalf("folded lookup failed: %q %v", id, ok)
	}
	if _, ok := NewSymbolMap(CoinCapIDs, false).Feed("sui"); ok {
		t.Fatalf("sui has no CoinCap id")
	}

	ids := NewSymbolMap(CoinGeckoIDs, false).FeedIDs([]string{"avalanche", "bogus", "binancecoin"})
	if len(ids) != 2 || ids[0] != "avalanche-2" || ids[1] != "binancecoin" {
		t.Fatalf("FeedIDs: %v", ids)
	}

	if Ticker("bitcoin") != "BTC" || Ticker("foo") != "FOO" {
		t.Fatalf("Ticker mapping")
	}
}

func TestDecoderBindsFormat(t *testing.T) {
	decode := NewAdapter("usd").Decoder(FormatCoinCapPrices)

	got := decode(json.RawMessage(`{"xrp":"0.52"}`))
	if got["ripple"].Price != 0.52 {
		t.Fatalf("expected ripple 0.52, got %+v", got)
	}
	if got := decode(json.RawMessage(`[1,2]`)); len(got) != 0 {
		t.Fatalf("expected no updates, got %+v", got)
	}
}
