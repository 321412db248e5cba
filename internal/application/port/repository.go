package port

import "context"

// Keys under which the persisted record collections are stored.
const (
	KeyAlerts    = "alerts-storage"
	KeyPortfolio = "portfolio-storage"
	KeySettings  = "settings-storage"
)

// KVStore persists JSON documents under fixed keys.
type KVStore interface {
	// Get returns ok=false when the key has never been written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Connection management
	Close() error
}
