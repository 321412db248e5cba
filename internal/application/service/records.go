package service

import (
	"context"
	"encoding/json"
	"time"

	"cryptotracker/internal/application/port"

	"github.com/rs/zerolog/log"
)

const storeTimeout = 5 * time.Second

// envelope is the on-disk shape of a persisted collection.
type envelope[T any] struct {
	State   T   `json:"state"`
	Version int `json:"version"`
}

// loadState reads key into state. Missing, unreadable or corrupt data leaves
// state untouched and reports false.
func loadState[T any](ctx context.Context, store port.KVStore, key string, state *T) bool {
	if store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	b, ok, err := store.Get(ctx, key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("storage read failed, starting empty")
		return false
	}
	if !ok || len(b) == 0 {
		return false
	}

	var env envelope[T]
	if err := json.Unmarshal(b, &env); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("corrupt stored state, starting empty")
		return false
	}
	*state = env.State
	return true
}

// saveState writes state under key. Failures are logged; the in-memory copy
// stays authoritative for the rest of the session.
func saveState[T any](store port.KVStore, key string, state T) {
	if store == nil {
		return
	}
	b, err := json.Marshal(envelope[T]{State: state})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("encode state failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := store.Set(ctx, key, b); err != nil {
		log.Error().Err(err).Str("key", key).Msg("storage write failed")
	}
}
