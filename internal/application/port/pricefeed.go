package port

import (
	"context"
	"encoding/json"

	"cryptotracker/internal/domain"
)

// FeedHandler receives everything a price source produces. Implementations
// must not block: calls arrive on the source's own goroutine.
type FeedHandler interface {
	// OnMessage is called once per inbound payload that is valid JSON.
	OnMessage(raw json.RawMessage)
	// OnStatus is called on every status transition of the source.
	OnStatus(status domain.ConnStatus)
}

// Transport is the primary streaming price source.
type Transport interface {
	Connect()
	Disconnect()
}

// Poller is the timer-driven fallback price source.
type Poller interface {
	Start()
	Stop()
}

// SnapshotSource is the REST market data API. Payloads are returned raw so
// they pass through the same translation path as realtime frames.
type SnapshotSource interface {
	// FetchMarkets returns one page of market data ordered by market cap.
	FetchMarkets(ctx context.Context, currency string, page, perPage int) (json.RawMessage, error)
	// FetchPrices returns the current price, 24h change and volume of ids.
	FetchPrices(ctx context.Context, ids []string, currency string) (json.RawMessage, error)
}

// Decoder turns one raw payload into canonical price updates.
type Decoder func(raw json.RawMessage) map[string]domain.Price
