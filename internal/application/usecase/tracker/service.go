package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"cryptotracker/internal/application/port"
	"cryptotracker/internal/domain"

	"github.com/rs/zerolog/log"
)

const (
	eventBuffer    = 1024
	reconcileLimit = 30 * time.Second
)

var ErrNoTable = errors.New("tracker: price table is nil")

type ServiceDeps struct {
	Table     *domain.PriceTable
	Transport port.Transport
	Fallback  port.Poller

	// Snapshots seeds the table on start and reconciles it every
	// ReconcileEvery. Optional.
	Snapshots      port.SnapshotSource
	DecodeSnapshot port.Decoder
	Currency       string
	PerPage        int
	ReconcileEvery time.Duration

	Assets []string
	Ticker func(string) string
	Sink   port.Sink
}

type eventKind int

const (
	evPrices eventKind = iota
	evStatus
	evSnapshot
)

type event struct {
	kind   eventKind
	prices map[string]domain.Price
	status domain.ConnStatus
	at     time.Time
}

// Service reconciles the stream, the fallback poller and REST snapshots
// into the price table. Every table mutation and fallback decision happens
// on the goroutine running Run, in delivery order; sources only enqueue.
type Service struct {
	deps   ServiceDeps
	fmt    *Formatter
	events chan event

	done     chan struct{}
	doneOnce sync.Once

	fallbackActive bool
	reconciling    bool
}

func NewService(deps ServiceDeps) *Service {
	return &Service{
		deps:   deps,
		fmt:    NewFormatter(deps.Assets, deps.Ticker),
		events: make(chan event, eventBuffer),
		done:   make(chan struct{}),
	}
}

// StreamHandler adapts the realtime transport to the loop. Its status
// drives the table status and the fallback decision.
func (s *Service) StreamHandler(decode port.Decoder) port.FeedHandler {
	return &feedHandler{s: s, decode: decode, source: "stream", primary: true}
}

// FallbackHandler adapts the poller. Its prices are merged like stream
// prices; its status is only logged.
func (s *Service) FallbackHandler(decode port.Decoder) port.FeedHandler {
	return &feedHandler{s: s, decode: decode, source: "fallback"}
}

// FallbackActive reports whether the poller was started by the loop and
// not yet stopped. Only meaningful from the loop goroutine or after Run.
func (s *Service) FallbackActive() bool { return s.fallbackActive }

// UseSources sets the stream and fallback sources built from this service's
// handlers. Call before Run.
func (s *Service) UseSources(transport port.Transport, fallback port.Poller) {
	s.deps.Transport = transport
	s.deps.Fallback = fallback
}

func (s *Service) Run(ctx context.Context) error {
	if s.deps.Table == nil {
		return ErrNoTable
	}

	if s.deps.Transport != nil {
		s.deps.Transport.Connect()
	}

	var reconcileC <-chan time.Time
	if s.deps.Snapshots != nil && s.deps.DecodeSnapshot != nil {
		s.reconcile(ctx)
		if s.deps.ReconcileEvery > 0 {
			t := time.NewTicker(s.deps.ReconcileEvery)
			defer t.Stop()
			reconcileC = t.C
		}
	}

	// initial live line
	s.writeLive()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()

		case <-reconcileC:
			s.reconcile(ctx)

		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Service) handle(ev event) {
	switch ev.kind {
	case evPrices:
		s.deps.Table.Merge(ev.prices)
		s.fmt.Observe(ev.prices)
		s.writeLive()

	case evStatus:
		s.deps.Table.SetStatus(ev.status)
		s.switchFallback(ev.status)
		s.writeLive()

	case evSnapshot:
		s.reconciling = false
		if len(ev.prices) == 0 {
			return
		}
		s.deps.Table.Merge(ev.prices)
		s.fmt.Observe(ev.prices)
		if s.deps.Sink != nil {
			line := s.fmt.Render(s.deps.Table.GetAll(), s.deps.Table.Status(), RenderSnapshot)
			_ = s.deps.Sink.WriteSnapshot(ev.at, line)
		}
	}
}

// switchFallback starts the poller once when the stream goes down and
// stops it once when the stream is back.
func (s *Service) switchFallback(status domain.ConnStatus) {
	if s.deps.Fallback == nil {
		return
	}
	switch {
	case status.IsDown() && !s.fallbackActive:
		s.fallbackActive = true
		log.Warn().Str("status", status.String()).Msg("stream down, fallback polling on")
		s.deps.Fallback.Start()
	case status == domain.StatusConnected && s.fallbackActive:
		s.fallbackActive = false
		log.Info().Msg("stream back, fallback polling off")
		s.deps.Fallback.Stop()
	}
}

// reconcile fetches a market snapshot off the loop and posts the decoded
// result back as an event.
func (s *Service) reconcile(ctx context.Context) {
	if s.reconciling {
		return
	}
	s.reconciling = true

	go func() {
		rctx, cancel := context.WithTimeout(ctx, reconcileLimit)
		defer cancel()

		var prices map[string]domain.Price
		raw, err := s.deps.Snapshots.FetchMarkets(rctx, s.deps.Currency, 1, s.deps.PerPage)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("market snapshot failed")
			}
		} else {
			prices = s.deps.DecodeSnapshot(raw)
			log.Debug().Int("assets", len(prices)).Msg("market snapshot fetched")
		}
		s.enqueue(event{kind: evSnapshot, prices: prices, at: time.Now()})
	}()
}

func (s *Service) shutdown() {
	s.doneOnce.Do(func() { close(s.done) })
	if s.deps.Transport != nil {
		s.deps.Transport.Disconnect()
	}
	if s.fallbackActive && s.deps.Fallback != nil {
		s.fallbackActive = false
		s.deps.Fallback.Stop()
	}
	if s.deps.Sink != nil {
		_ = s.deps.Sink.NewLine()
	}
}

func (s *Service) writeLive() {
	if s.deps.Sink == nil {
		return
	}
	_ = s.deps.Sink.WriteLive(s.fmt.Render(s.deps.Table.GetAll(), s.deps.Table.Status(), RenderLive))
}

func (s *Service) enqueue(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

type feedHandler struct {
	s       *Service
	decode  port.Decoder
	source  string
	primary bool
}

func (h *feedHandler) OnMessage(raw json.RawMessage) {
	if h.decode == nil {
		return
	}
	updates := h.decode(raw)
	if len(updates) == 0 {
		return
	}
	ev := event{kind: evPrices, prices: updates}
	if h.primary {
		h.s.enqueue(ev)
		return
	}
	// the loop stops the poller itself; a poll is superseded by the next tick
	select {
	case h.s.events <- ev:
	case <-h.s.done:
	default:
		log.Debug().Str("feed", h.source).Msg("event queue full, poll dropped")
	}
}

func (h *feedHandler) OnStatus(status domain.ConnStatus) {
	if !h.primary {
		log.Info().Str("feed", h.source).Str("status", status.String()).Msg("fallback status")
		return
	}
	h.s.enqueue(event{kind: evStatus, status: status})
}
