package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidHolding = errors.New("invalid holding")

// Holding is one purchase lot of an asset. Several holdings may share an asset id.
type Holding struct {
	ID          string          `json:"id"`
	AssetID     string          `json:"coinId"`
	AssetName   string          `json:"coinName"`
	AssetSymbol string          `json:"coinSymbol"`
	AssetImage  string          `json:"coinImage"`
	Amount      decimal.Decimal `json:"amount"`
	BuyPrice    decimal.Decimal `json:"buyPrice"`
	AddedAt     time.Time       `json:"addedAt"`
}

// HoldingDraft carries the user-supplied fields of a new holding.
type HoldingDraft struct {
	AssetID     string          `json:"coinId"`
	AssetName   string          `json:"coinName"`
	AssetSymbol string          `json:"coinSymbol"`
	AssetImage  string          `json:"coinImage"`
	Amount      decimal.Decimal `json:"amount"`
	BuyPrice    decimal.Decimal `json:"buyPrice"`
}

func (d HoldingDraft) Validate() error {
	if strings.TrimSpace(d.AssetID) == "" {
		return errors.Join(ErrInvalidHolding, errors.New("asset id is empty"))
	}
	if !d.Amount.IsPositive() {
		return errors.Join(ErrInvalidHolding, errors.New("amount must be positive"))
	}
	if d.BuyPrice.IsNegative() {
		return errors.Join(ErrInvalidHolding, errors.New("buy price must not be negative"))
	}
	return nil
}

// Cost is the amount paid for the holding.
func (h Holding) Cost() decimal.Decimal {
	return h.Amount.Mul(h.BuyPrice)
}

// HoldingValue is a holding priced against the current price table.
type HoldingValue struct {
	Holding
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	CurrentValue decimal.Decimal `json:"currentValue"`
	PnL          decimal.Decimal `json:"pnl"`
	PnLPercent   decimal.Decimal `json:"pnlPercent"`
	Allocation   decimal.Decimal `json:"allocation"`
}

// PortfolioStats aggregates every holding of the portfolio.
type PortfolioStats struct {
	TotalValue      decimal.Decimal `json:"totalValue"`
	TotalCost       decimal.Decimal `json:"totalCost"`
	TotalPnL        decimal.Decimal `json:"totalPnL"`
	TotalPnLPercent decimal.Decimal `json:"totalPnLPercent"`
}

var hundred = decimal.NewFromInt(100)

// Percent returns part/whole*100, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
