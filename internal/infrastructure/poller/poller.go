package poller

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"cryptotracker/internal/application/port"
	"cryptotracker/internal/domain"

	"github.com/rs/zerolog/log"
)

const DefaultInterval = 30 * time.Second

// FetchFunc performs one poll and returns the raw snapshot payload.
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// Poller periodically fetches a REST snapshot while the stream is down and
// forwards each payload to the same handler the stream uses. Failed polls
// are logged and retried on the next tick. Handler calls are serialized and
// must not block on the goroutine that calls Stop.
type Poller struct {
	name     string
	interval time.Duration
	fetch    FetchFunc
	handler  port.FeedHandler

	mu      sync.Mutex
	gen     uint64
	running bool
	cancel  context.CancelFunc

	emitMu sync.Mutex
}

func New(name string, interval time.Duration, fetch FetchFunc, handler port.FeedHandler) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if name == "" {
		name = "fallback"
	}
	return &Poller{name: name, interval: interval, fetch: fetch, handler: handler}
}

// NewPricePoller polls src for ids priced in currency.
func NewPricePoller(src port.SnapshotSource, ids []string, currency string, interval time.Duration, handler port.FeedHandler) *Poller {
	ids = append([]string(nil), ids...)
	return New("fallback", interval, func(ctx context.Context) (json.RawMessage, error) {
		return src.FetchPrices(ctx, ids, currency)
	}, handler)
}

// Start 启动轮询；已在运行时为空操作
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.gen++
	g := p.gen
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mu.Unlock()

	log.Info().Str("feed", p.name).Dur("interval", p.interval).Msg("polling started")
	go p.loop(ctx, g)
}

// Stop 停止轮询并取消进行中的请求；可重复调用
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.gen++
	g := p.gen
	p.cancel()
	p.cancel = nil
	p.mu.Unlock()

	log.Info().Str("feed", p.name).Msg("polling stopped")
	p.emit(g, domain.StatusDisconnected)
}

// Running reports whether the poller is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) loop(ctx context.Context, g uint64) {
	p.emit(g, domain.StatusConnecting)

	connected := false
	poll := func() {
		raw, err := p.fetch(ctx)
		if ctx.Err() != nil || !p.current(g) {
			return
		}
		if err != nil {
			log.Warn().Str("feed", p.name).Err(err).Msg("poll failed")
			return
		}
		if !p.deliver(g, raw) {
			return
		}
		if !connected {
			connected = true
			p.emit(g, domain.StatusConnected)
		}
	}

	poll()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}

func (p *Poller) current(g uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return g == p.gen
}

// deliver hands raw to the handler unless g was superseded. It shares emitMu
// with emit, so once Stop returns no payload of the stopped run follows.
func (p *Poller) deliver(g uint64, raw json.RawMessage) bool {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	if !p.current(g) {
		return false
	}
	if p.handler != nil {
		p.handler.OnMessage(raw)
	}
	return true
}

func (p *Poller) emit(g uint64, status domain.ConnStatus) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	if !p.current(g) || p.handler == nil {
		return
	}
	p.handler.OnStatus(status)
}
