package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryptotracker/internal/application/port"
	"cryptotracker/internal/domain"

	"github.com/rs/zerolog/log"
)

const notifyTimeout = 10 * time.Second

// AlertEvaluator fires each alert at most once when its threshold is crossed.
//
// AlertBook.Trigger is the authority: it refuses an alert that is already
// triggered. The fired set additionally keeps an alert from being acted on
// twice within this process if an evaluation pass reads a stale copy.
// Notifications are delivered off the evaluating goroutine.
type AlertEvaluator struct {
	alerts   *AlertBook
	prices   PriceReader
	notifier port.Notifier

	mu    sync.Mutex
	fired map[string]struct{}

	inflight sync.WaitGroup
}

func NewAlertEvaluator(alerts *AlertBook, prices PriceReader, notifier port.Notifier) *AlertEvaluator {
	return &AlertEvaluator{
		alerts:   alerts,
		prices:   prices,
		notifier: notifier,
		fired:    make(map[string]struct{}),
	}
}

// Attach evaluates on every price change of table. The returned func detaches.
func (e *AlertEvaluator) Attach(table *domain.PriceTable) func() {
	return table.Subscribe(func(ev domain.TableEvent) {
		if ev.Kind == domain.EventPrices {
			e.Evaluate(context.Background())
		}
	})
}

// Evaluate checks every eligible alert against the current prices and
// returns the alerts it triggered. All state changes of the pass are made
// before any notification is handed off; Evaluate never waits for delivery.
func (e *AlertEvaluator) Evaluate(ctx context.Context) []domain.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		triggered []domain.Alert
		prices    []float64
	)
	for _, a := range e.alerts.Active() {
		if _, done := e.fired[a.ID]; done {
			continue
		}
		px, ok := e.prices.Get(a.AssetID)
		if !ok || px.Price <= 0 {
			continue
		}
		if !a.Crossed(px.Price) {
			continue
		}

		e.fired[a.ID] = struct{}{}
		updated, ok := e.alerts.Trigger(a.ID)
		if !ok {
			continue
		}
		log.Info().
			Str("alert", updated.ID).
			Str("asset", updated.AssetID).
			Str("condition", string(updated.Condition)).
			Float64("target", updated.TargetPrice).
			Float64("price", px.Price).
			Msg("alert triggered")

		triggered = append(triggered, updated)
		prices = append(prices, px.Price)
	}

	for i, a := range triggered {
		e.notify(ctx, a, prices[i])
	}
	return triggered
}

// Wait blocks until every notification handed off so far has been
// delivered, failed or timed out.
func (e *AlertEvaluator) Wait() {
	e.inflight.Wait()
}

// notify delivers in the background. Each alert fires at most once, so the
// number of deliveries in flight is bounded by the alert limit.
func (e *AlertEvaluator) notify(ctx context.Context, a domain.Alert, price float64) {
	if e.notifier == nil {
		return
	}
	msg := AlertNotification(a, price)
	ctx = context.WithoutCancel(ctx)

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()

		if err := e.notifier.Notify(ctx, msg); err != nil {
			log.Warn().Err(err).Str("alert", a.ID).Msg("alert notification not delivered")
		}
	}()
}

// AlertNotification builds the user-facing message for a triggered alert.
func AlertNotification(a domain.Alert, price float64) port.Notification {
	name := a.AssetName
	if name == "" {
		name = a.AssetID
	}
	return port.Notification{
		Title: fmt.Sprintf("%s Price Alert", name),
		Body:  fmt.Sprintf("%s is now %s $%.2f (Current: $%.2f)", name, a.Condition, a.TargetPrice, price),
		Data:  map[string]string{"coinId": a.AssetID},
	}
}
