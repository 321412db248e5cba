package service

import (
	"context"
	"sync"
	"time"

	"cryptotracker/internal/application/port"
	"cryptotracker/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type portfolioState struct {
	Holdings []domain.Holding `json:"holdings"`
}

// PriceReader is the read side of the price table.
type PriceReader interface {
	Get(assetID string) (domain.Price, bool)
}

// Portfolio is the persisted collection of holdings.
type Portfolio struct {
	mu       sync.RWMutex
	holdings []domain.Holding
	store    port.KVStore
	now      func() time.Time
}

// NewPortfolio loads the stored holdings.
func NewPortfolio(ctx context.Context, store port.KVStore) *Portfolio {
	p := &Portfolio{store: store, now: time.Now}

	var st portfolioState
	if loadState(ctx, store, port.KeyPortfolio, &st) {
		p.holdings = st.Holdings
	}
	log.Info().Int("holdings", len(p.holdings)).Msg("portfolio loaded")
	return p
}

// Add records a new holding. Holdings of the same asset are never merged.
func (p *Portfolio) Add(draft domain.HoldingDraft) (domain.Holding, error) {
	if err := draft.Validate(); err != nil {
		return domain.Holding{}, err
	}

	h := domain.Holding{
		ID:          uuid.NewString(),
		AssetID:     draft.AssetID,
		AssetName:   draft.AssetName,
		AssetSymbol: draft.AssetSymbol,
		AssetImage:  draft.AssetImage,
		Amount:      draft.Amount,
		BuyPrice:    draft.BuyPrice,
		AddedAt:     p.now(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.holdings = append(p.holdings, h)
	p.persist()
	return h, nil
}

// Remove deletes the holding with id.
func (p *Portfolio) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexOf(id)
	if i < 0 {
		return false
	}
	p.holdings = append(p.holdings[:i:i], p.holdings[i+1:]...)
	p.persist()
	return true
}

// Update changes the amount and/or buy price of a holding. Nil leaves a field as is.
func (p *Portfolio) Update(id string, amount, buyPrice *decimal.Decimal) (domain.Holding, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexOf(id)
	if i < 0 {
		return domain.Holding{}, ErrNotFound
	}

	h := p.holdings[i]
	if amount != nil {
		h.Amount = *amount
	}
	if buyPrice != nil {
		h.BuyPrice = *buyPrice
	}
	draft := domain.HoldingDraft{AssetID: h.AssetID, Amount: h.Amount, BuyPrice: h.BuyPrice}
	if err := draft.Validate(); err != nil {
		return domain.Holding{}, err
	}

	p.holdings[i] = h
	p.persist()
	return h, nil
}

// Clear removes every holding.
func (p *Portfolio) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.holdings = nil
	p.persist()
}

// List returns every holding in insertion order.
func (p *Portfolio) List() []domain.Holding {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Holding, len(p.holdings))
	copy(out, p.holdings)
	return out
}

// ByAsset returns the holdings of assetID.
func (p *Portfolio) ByAsset(assetID string) []domain.Holding {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []domain.Holding
	for _, h := range p.holdings {
		if h.AssetID == assetID {
			out = append(out, h)
		}
	}
	return out
}

// Valuation prices every holding against prices. Holdings without a known
// price are valued at their buy price.
func (p *Portfolio) Valuation(prices PriceReader) ([]domain.HoldingValue, domain.PortfolioStats) {
	holdings := p.List()
	values := make([]domain.HoldingValue, 0, len(holdings))

	var stats domain.PortfolioStats
	for _, h := range holdings {
		current := h.BuyPrice
		if px, ok := prices.Get(h.AssetID); ok {
			current = decimal.NewFromFloat(px.Price)
		}
		value := h.Amount.Mul(current)
		cost := h.Cost()
		values = append(values, domain.HoldingValue{
			Holding:      h,
			CurrentPrice: current,
			CurrentValue: value,
			PnL:          value.Sub(cost),
			PnLPercent:   domain.Percent(value.Sub(cost), cost),
		})
		stats.TotalValue = stats.TotalValue.Add(value)
		stats.TotalCost = stats.TotalCost.Add(cost)
	}

	for i := range values {
		values[i].Allocation = domain.Percent(values[i].CurrentValue, stats.TotalValue)
	}
	stats.TotalPnL = stats.TotalValue.Sub(stats.TotalCost)
	stats.TotalPnLPercent = domain.Percent(stats.TotalPnL, stats.TotalCost)
	return values, stats
}

func (p *Portfolio) indexOf(id string) int {
	for i := range p.holdings {
		if p.holdings[i].ID == id {
			return i
		}
	}
	return -1
}

func (p *Portfolio) persist() {
	saveState(p.store, port.KeyPortfolio, portfolioState{Holdings: p.holdings})
}
