package service

import (
	"context"
	"errors"
	"sync"

	"cryptotracker/internal/application/port"
	"cryptotracker/internal/domain"
)

var ErrNotFound = errors.New("not found")

// SettingsService holds the persisted user preferences.
type SettingsService struct {
	mu       sync.RWMutex
	settings domain.Settings
	store    port.KVStore
}

func NewSettingsService(ctx context.Context, store port.KVStore) *SettingsService {
	s := &SettingsService{settings: domain.DefaultSettings(), store: store}

	st := domain.DefaultSettings()
	if loadState(ctx, store, port.KeySettings, &st) {
		if st.Currency.Validate() != nil {
			st.Currency = domain.CurrencyUSD
		}
		if st.Theme.Validate() != nil {
			st.Theme = domain.ThemeDark
		}
		s.settings = st
	}
	return s
}

func (s *SettingsService) Get() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// NotificationsEnabled is the permission consulted before any alert notification.
func (s *SettingsService) NotificationsEnabled() bool {
	return s.Get().NotificationsEnabled
}

func (s *SettingsService) SetCurrency(c domain.Currency) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.update(func(st *domain.Settings) { st.Currency = c })
	return nil
}

func (s *SettingsService) SetTheme(t domain.Theme) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.update(func(st *domain.Settings) { st.Theme = t })
	return nil
}

func (s *SettingsService) SetNotificationsEnabled(enabled bool) {
	s.update(func(st *domain.Settings) { st.NotificationsEnabled = enabled })
}

func (s *SettingsService) SetHapticEnabled(enabled bool) {
	s.update(func(st *domain.Settings) { st.HapticEnabled = enabled })
}

// Replace validates and stores a complete settings value.
func (s *SettingsService) Replace(st domain.Settings) error {
	if err := st.Currency.Validate(); err != nil {
		return err
	}
	if err := st.Theme.Validate(); err != nil {
		return err
	}
	s.update(func(cur *domain.Settings) { *cur = st })
	return nil
}

func (s *SettingsService) update(fn func(*domain.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.settings)
	saveState(s.store, port.KeySettings, s.settings)
}
