package composite

import (
	"context"

	"cryptotracker/internal/application/port"

	"github.com/rs/zerolog/log"
)

// Repo writes to every store and reads from the first one holding the key.
// The first store is the primary.
type Repo struct {
	repos []port.KVStore
}

func New(repos ...port.KVStore) *Repo {
	// nil repos are allowed; filter in constructor for safety
	out := make([]port.KVStore, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) Len() int { return len(r.repos) }

func (r *Repo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var firstErr error
	for i, repo := range r.repos {
		b, ok, err := repo.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Int("store", i).Str("key", key).Msg("store read failed, trying next")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return b, true, nil
		}
	}
	return nil, false, firstErr
}

func (r *Repo) Set(ctx context.Context, key string, value []byte) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.Set(ctx, key, value); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) Delete(ctx context.Context, key string) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) Close() error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ port.KVStore = (*Repo)(nil)
