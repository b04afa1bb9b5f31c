package treasury

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrCacheMiss is returned by Cache implementations when no entry exists.
var ErrCacheMiss = errors.New("treasury not cached")

// Store is the durable home of treasury aggregates. Implementations must
// load and persist the aggregate as a whole, including its request ledger,
// and must reject an update whose version does not match the stored one
// with ErrVersionConflict.
type Store interface {
	// CreateTreasury persists a new aggregate. Fails if the ID exists.
	CreateTreasury(ctx context.Context, t *Treasury) error

	// GetTreasury loads the aggregate with all requests. Returns
	// ErrTreasuryNotFound if the ID is unknown.
	GetTreasury(ctx context.Context, id string) (*Treasury, error)

	// UpdateTreasury persists the aggregate if t.Version still matches the
	// stored version, then increments t.Version. Returns ErrVersionConflict
	// on a lost race.
	UpdateTreasury(ctx context.Context, t *Treasury) error

	// ListTreasuries pages through all aggregates ordered by creation time.
	ListTreasuries(ctx context.Context, limit int, offset int) ([]*Treasury, error)
}

// Cache is the fast read/coordination layer in front of Store: read-through
// aggregate caching, the cross-instance operation lock and the event fanout.
type Cache interface {
	// CacheTreasury stores the aggregate under its ID with a TTL.
	CacheTreasury(ctx context.Context, t *Treasury, ttl time.Duration) error

	// CachedTreasury returns the cached aggregate or ErrCacheMiss.
	CachedTreasury(ctx context.Context, id string) (*Treasury, error)

	// InvalidateTreasury drops the cached aggregate.
	InvalidateTreasury(ctx context.Context, id string) error

	// AcquireLock takes the cross-instance lock for a treasury. Returns
	// false without error when another holder has it.
	AcquireLock(ctx context.Context, id string, ttl time.Duration) (bool, error)

	// ReleaseLock frees the cross-instance lock.
	ReleaseLock(ctx context.Context, id string) error

	// PublishEvent broadcasts a treasury event to all subscribers.
	PublishEvent(ctx context.Context, event *Event) error

	// SubscribeEvents streams events for one treasury until the returned
	// cancel func is called or the context ends.
	SubscribeEvents(ctx context.Context, treasuryID string) (<-chan *Event, func(), error)
}
