package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cryptotracker/internal/application/port"
	"cryptotracker/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultMaxAlerts bounds the alert collection when no limit is configured.
const DefaultMaxAlerts = 20

var ErrAlertLimitReached = errors.New("alert limit reached")

type alertState struct {
	Alerts []domain.Alert `json:"alerts"`
}

// AlertBook is the persisted collection of price alerts. Every mutation is
// written through to the store.
type AlertBook struct {
	mu     sync.RWMutex
	alerts []domain.Alert
	max    int
	store  port.KVStore
	now    func() time.Time
}

// NewAlertBook loads the stored alerts. A nil store keeps alerts in memory only.
// Stored alerts beyond max are kept, and Add refuses until the book is
// back under the limit.
func NewAlertBook(ctx context.Context, store port.KVStore, max int) *AlertBook {
	if max <= 0 {
		max = DefaultMaxAlerts
	}
	b := &AlertBook{max: max, store: store, now: time.Now}

	var st alertState
	if loadState(ctx, store, port.KeyAlerts, &st) {
		for _, a := range st.Alerts {
			if a.IsTriggered {
				a.IsActive = false
			}
			b.alerts = append(b.alerts, a)
		}
	}
	if over := len(b.alerts) - max; over > 0 {
		log.Warn().
			Int("alerts", len(b.alerts)).
			Int("max", max).
			Int("over", over).
			Msg("stored alerts exceed limit, adding disabled until some are removed")
	}
	log.Info().Int("alerts", len(b.alerts)).Int("max", max).Msg("alert book loaded")
	return b
}

// Add creates an active, untriggered alert from draft. It fails with
// ErrAlertLimitReached when the book is full and leaves it unchanged.
func (b *AlertBook) Add(draft domain.AlertDraft) (domain.Alert, error) {
	if err := draft.Validate(); err != nil {
		return domain.Alert{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.alerts) >= b.max {
		return domain.Alert{}, fmt.Errorf("add alert for %s: %w (%d)", draft.AssetID, ErrAlertLimitReached, b.max)
	}

	a := domain.Alert{
		ID:          uuid.NewString(),
		AssetID:     draft.AssetID,
		AssetName:   draft.AssetName,
		AssetSymbol: draft.AssetSymbol,
		AssetImage:  draft.AssetImage,
		TargetPrice: draft.TargetPrice,
		Condition:   draft.Condition,
		IsActive:    true,
		CreatedAt:   b.now(),
	}
	b.alerts = append(b.alerts, a)
	b.persist()
	return a, nil
}

// Remove deletes the alert with id. It reports whether one was removed.
func (b *AlertBook) Remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(id)
	if i < 0 {
		return false
	}
	b.alerts = append(b.alerts[:i:i], b.alerts[i+1:]...)
	b.persist()
	return true
}

// Toggle flips an untriggered alert between active and inactive.
func (b *AlertBook) Toggle(id string) (domain.Alert, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(id)
	if i < 0 || !b.alerts[i].Toggle() {
		return domain.Alert{}, false
	}
	b.persist()
	return b.alerts[i], true
}

// Trigger moves the alert to its terminal state. It reports false when the
// alert is unknown or already triggered, so a caller acts at most once.
func (b *AlertBook) Trigger(id string) (domain.Alert, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(id)
	if i < 0 || !b.alerts[i].Trigger(b.now()) {
		return domain.Alert{}, false
	}
	b.persist()
	return b.alerts[i], true
}

// ClearTriggered removes every triggered alert and returns how many were removed.
func (b *AlertBook) ClearTriggered() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.alerts[:0:0]
	for _, a := range b.alerts {
		if !a.IsTriggered {
			kept = append(kept, a)
		}
	}
	removed := len(b.alerts) - len(kept)
	if removed == 0 {
		return 0
	}
	b.alerts = kept
	b.persist()
	return removed
}

// Get returns the alert with id.
func (b *AlertBook) Get(id string) (domain.Alert, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.indexOf(id); i >= 0 {
		return b.alerts[i], true
	}
	return domain.Alert{}, false
}

// List returns every alert in creation order.
func (b *AlertBook) List() []domain.Alert {
	return b.filter(func(domain.Alert) bool { return true })
}

// Active returns the alerts eligible for evaluation.
func (b *AlertBook) Active() []domain.Alert {
	return b.filter(domain.Alert.Eligible)
}

// Triggered returns the alerts that already fired.
func (b *AlertBook) Triggered() []domain.Alert {
	return b.filter(func(a domain.Alert) bool { return a.IsTriggered })
}

// ByAsset returns every alert on assetID.
func (b *AlertBook) ByAsset(assetID string) []domain.Alert {
	return b.filter(func(a domain.Alert) bool { return a.AssetID == assetID })
}

// Len returns the number of alerts.
func (b *AlertBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.alerts)
}

// Max returns the capacity of the book.
func (b *AlertBook) Max() int { return b.max }

func (b *AlertBook) filter(keep func(domain.Alert) bool) []domain.Alert {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domain.Alert, 0, len(b.alerts))
	for _, a := range b.alerts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func (b *AlertBook) indexOf(id string) int {
	for i := range b.alerts {
		if b.alerts[i].ID == id {
			return i
		}
	}
	return -1
}

// persist must be called with b.mu held.
func (b *AlertBook) persist() {
	saveState(b.store, port.KeyAlerts, alertState{Alerts: b.alerts})
}
