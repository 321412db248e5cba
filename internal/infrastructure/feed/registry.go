package feed

import (
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Provider describes a streaming price source.
type Provider struct {
	Name       string
	Format     Format
	DefaultURL string
}

// registry maps provider names to their stream description
var (
	registryMu sync.RWMutex
	registry   = make(map[string]Provider)
)

func init() {
	Register(Provider{Name: "binance", Format: FormatBinanceTicker, DefaultURL: "wss://stream.binance.com:9443"})
	Register(Provider{Name: "coincap", Format: FormatCoinCapPrices, DefaultURL: "wss://ws.coincap.io/prices"})
}

// Register 注册一个流式价格源；同名覆盖
func Register(p Provider) {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" || p.Format == "" {
		log.Warn().Str("provider", p.Name).Msg("invalid stream provider")
		return
	}
	p.Name = name

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		log.Warn().Str("provider", name).Msg("stream provider already registered, overwriting")
	}
	registry[name] = p
}

// Lookup 获取已注册的价格源
func Lookup(name string) (Provider, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
