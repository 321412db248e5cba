package domain

import (
	"errors"
	"strings"
	"time"
)

// Condition is the direction of a price alert threshold.
type Condition string

const (
	ConditionAbove Condition = "above"
	ConditionBelow Condition = "below"
)

var ErrInvalidAlert = errors.New("invalid alert")

// Alert is a user-defined price threshold. Once triggered it is terminal:
// IsTriggered implies !IsActive and only removal destroys it.
type Alert struct {
	ID          string     `json:"id"`
	AssetID     string     `json:"coinId"`
	AssetName   string     `json:"coinName"`
	AssetSymbol string     `json:"coinSymbol"`
	AssetImage  string     `json:"coinImage"`
	TargetPrice float64    `json:"targetPrice"`
	Condition   Condition  `json:"condition"`
	IsActive    bool       `json:"isActive"`
	IsTriggered bool       `json:"isTriggered"`
	CreatedAt   time.Time  `json:"createdAt"`
	TriggeredAt *time.Time `json:"triggeredAt,omitempty"`
}

// AlertDraft carries the user-supplied fields of a new alert.
type AlertDraft struct {
	AssetID     string    `json:"coinId"`
	AssetName   string    `json:"coinName"`
	AssetSymbol string    `json:"coinSymbol"`
	AssetImage  string    `json:"coinImage"`
	TargetPrice float64   `json:"targetPrice"`
	Condition   Condition `json:"condition"`
}

// Validate checks the draft before an alert is created from it.
func (d AlertDraft) Validate() error {
	if strings.TrimSpace(d.AssetID) == "" {
		return errors.Join(ErrInvalidAlert, errors.New("asset id is empty"))
	}
	if !(d.TargetPrice > 0) {
		return errors.Join(ErrInvalidAlert, errors.New("target price must be positive"))
	}
	if d.Condition != ConditionAbove && d.Condition != ConditionBelow {
		return errors.Join(ErrInvalidAlert, errors.New("condition must be above or below"))
	}
	return nil
}

// Eligible reports whether the alert takes part in evaluation.
func (a Alert) Eligible() bool {
	return a.IsActive && !a.IsTriggered
}

// Crossed reports whether price satisfies the alert threshold.
func (a Alert) Crossed(price float64) bool {
	switch a.Condition {
	case ConditionAbove:
		return price >= a.TargetPrice
	case ConditionBelow:
		return price <= a.TargetPrice
	default:
		return false
	}
}

// Trigger moves the alert to its terminal state. It reports false if the
// alert was already triggered.
func (a *Alert) Trigger(at time.Time) bool {
	if a.IsTriggered {
		return false
	}
	a.IsTriggered = true
	a.IsActive = false
	a.TriggeredAt = &at
	return true
}

// Toggle flips IsActive on an untriggered alert. Triggered alerts stay inactive.
func (a *Alert) Toggle() bool {
	if a.IsTriggered {
		return false
	}
	a.IsActive = !a.IsActive
	return true
}
