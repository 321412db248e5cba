package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL        = "https://api.coingecko.com/api/v3"
	DefaultRequestsPerMin = 30
	DefaultTimeout        = 15 * time.Second

	apiKeyHeader = "x-cg-demo-api-key"
)

var (
	ErrNoIDs       = errors.New("no coin ids")
	ErrRateLimited = errors.New("coingecko rate limited")
)

// Client CoinGecko REST 客户端，返回原始 JSON 交给 feed.Adapter 解析
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient 创建客户端；requestsPerMin <= 0 使用免费档默认限速
func NewClient(baseURL, apiKey string, requestsPerMin int) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestsPerMin <= 0 {
		requestsPerMin = DefaultRequestsPerMin
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMin)), 1),
	}
}

// FetchMarkets 获取 /coins/markets 一页，按市值排序
func (c *Client) FetchMarkets(ctx context.Context, currency string, page, perPage int) (json.RawMessage, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 50
	}
	if perPage > 250 {
		perPage = 250
	}
	params := url.Values{}
	params.Set("vs_currency", currencyOrUSD(currency))
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("sparkline", "false")
	params.Set("price_change_percentage", "24h")
	return c.get(ctx, "/coins/markets", params)
}

// FetchPrices 获取 /simple/price，附带 24h 涨跌幅和成交量
func (c *Client) FetchPrices(ctx context.Context, ids []string, currency string) (json.RawMessage, error) {
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			clean = append(clean, id)
		}
	}
	if len(clean) == 0 {
		return nil, ErrNoIDs
	}
	params := url.Values{}
	params.Set("ids", strings.Join(clean, ","))
	params.Set("vs_currencies", currencyOrUSD(currency))
	params.Set("include_24hr_change", "true")
	params.Set("include_24hr_vol", "true")
	return c.get(ctx, "/simple/price", params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s: %w", path, ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("coingecko api error: %s %d %s", path, resp.StatusCode, string(body))
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("coingecko api error: %s returned invalid json", path)
	}
	return json.RawMessage(body), nil
}

func currencyOrUSD(currency string) string {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return "usd"
	}
	return currency
}
