package feed

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrEmptyBase   = errors.New("stream base url empty")
	ErrNoAssets    = errors.New("no assets to subscribe")
	ErrUnknownFeed = errors.New("unknown stream provider")
)

// StreamFormat returns the payload format of a registered provider name.
func StreamFormat(provider string) (Format, error) {
	p, ok := Lookup(provider)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFeed, provider)
	}
	return p.Format, nil
}

// StreamURL builds the subscription url for assets on the given provider.
// Binance streams the all-market mini ticker array; CoinCap takes the asset
// ids as a query parameter.
func (a *Adapter) StreamURL(format Format, base string, assets []string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", ErrEmptyBase
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	switch format {
	case FormatBinanceTicker:
		u.Path = "/ws/!miniTicker@arr"
		u.RawPath = u.Path
		return u.String(), nil
	case FormatCoinCapPrices:
		ids := a.coincap.FeedIDs(assets)
		if len(ids) == 0 {
			return "", ErrNoAssets
		}
		q := u.Query()
		q.Set("assets", strings.Join(ids, ","))
		u.RawQuery = q.Encode()
		return u.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFeed, format)
	}
}
