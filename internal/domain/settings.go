package domain

import (
	"errors"
	"fmt"
)

type Currency string

const (
	CurrencyUSD Currency = "usd"
	CurrencyEUR Currency = "eur"
	CurrencyGBP Currency = "gbp"
	CurrencyJPY Currency = "jpy"
	CurrencyIDR Currency = "idr"
)

type Theme string

const (
	ThemeDark   Theme = "dark"
	ThemeLight  Theme = "light"
	ThemeSystem Theme = "system"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings are the user preferences persisted alongside alerts and holdings.
type Settings struct {
	Currency             Currency `json:"currency"`
	Theme                Theme    `json:"theme"`
	NotificationsEnabled bool     `json:"notificationsEnabled"`
	HapticEnabled        bool     `json:"hapticEnabled"`
}

// DefaultSettings returns the preferences of a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Currency:             CurrencyUSD,
		Theme:                ThemeDark,
		NotificationsEnabled: true,
		HapticEnabled:        true,
	}
}

func (c Currency) Validate() error {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyJPY, CurrencyIDR:
		return nil
	}
	return fmt.Errorf("%w: unsupported currency %q", ErrInvalidSettings, string(c))
}

func (t Theme) Validate() error {
	switch t {
	case ThemeDark, ThemeLight, ThemeSystem:
		return nil
	}
	return fmt.Errorf("%w: unsupported theme %q", ErrInvalidSettings, string(t))
}
