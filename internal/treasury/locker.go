package treasury

import (
	"context"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v2"

	"github.com/kashguard/go-mpc-treasury/internal/util"
)

// Locker serializes treasury operations. A process-local mutex orders
// goroutines within one instance; the cache lock (redis SETNX) orders
// instances against each other. Both are held for the whole operation.
type Locker struct {
	local *xsync.MapOf[string, *sync.Mutex]
	cache Cache

	lockTTL      time.Duration
	waitAttempts uint
	waitDelay    time.Duration
}

// NewLocker creates a Locker on top of the given cache.
func NewLocker(cache Cache) *Locker {
	return &Locker{
		local:        xsync.NewMapOf[*sync.Mutex](),
		cache:        cache,
		lockTTL:      30 * time.Second,
		waitAttempts: 50,
		waitDelay:    100 * time.Millisecond,
	}
}

// Lock acquires both locks for the treasury and returns the release func.
// Returns ErrTreasuryBusy when another instance holds the cache lock beyond
// the wait budget.
func (l *Locker) Lock(ctx context.Context, treasuryID string) (func(), error) {
	mu, _ := l.local.LoadOrCompute(treasuryID, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	mu.Lock()

	err := retry.Do(func() error {
		ok, err := l.cache.AcquireLock(ctx, treasuryID, l.lockTTL)
		if err != nil {
			return retry.Unrecoverable(errors.Wrap(err, "failed to acquire treasury lock"))
		}
		if !ok {
			return errors.WithStack(ErrTreasuryBusy)
		}
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(l.waitAttempts),
		retry.Delay(l.waitDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		mu.Unlock()
		return nil, err
	}

	log := util.LogFromContext(ctx)

	return func() {
		// Release must not depend on the (possibly cancelled) request ctx.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := l.cache.ReleaseLock(releaseCtx, treasuryID); err != nil {
			log.Warn().Str("treasury_id", treasuryID).Err(err).Msg("Failed to release treasury lock, waiting for TTL expiry")
		}
		mu.Unlock()
	}, nil
}
