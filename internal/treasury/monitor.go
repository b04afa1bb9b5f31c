package treasury

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kashguard/go-mpc-treasury/internal/util"
)

// RunPoolMonitor periodically tops up presign pools that dropped below the
// low-water mark, covering treasuries that sit idle between requests. It
// blocks until ctx is cancelled. The monitor only maintains the default
// algorithm; other algorithms are replenished inline by CreateRequest and
// explicitly by AddPresigns.
func (s *Service) RunPoolMonitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	log := util.LogFromContext(ctx)
	log.Info().Dur("interval", interval).Msg("Presign pool monitor started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Presign pool monitor stopped")
			return errors.Wrap(ctx.Err(), "pool monitor stopped")
		case <-ticker.C:
			s.monitorPass(ctx)
		}
	}
}

func (s *Service) monitorPass(ctx context.Context) {
	log := util.LogFromContext(ctx)

	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		treasuries, err := s.store.ListTreasuries(ctx, pageSize, offset)
		if err != nil {
			log.Warn().Err(err).Msg("Pool monitor failed to list treasuries")
			return
		}
		if len(treasuries) == 0 {
			return
		}

		for _, t := range treasuries {
			s.topUpTreasury(ctx, t.ID)
		}

		if len(treasuries) < pageSize {
			return
		}
	}
}

func (s *Service) topUpTreasury(ctx context.Context, id string) {
	log := util.LogFromContext(ctx)

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		// Busy treasuries replenish inline, skip them here.
		log.Debug().Err(err).Str("treasury_id", id).Msg("Pool monitor skipping locked treasury")
		return
	}
	defer unlock()

	t, err := s.store.GetTreasury(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("treasury_id", id).Msg("Pool monitor failed to load treasury")
		return
	}

	algo := s.config.DefaultAlgorithm
	if t.PoolSizeFor(algo) >= s.config.PoolLowWater {
		return
	}

	before := t.PoolSize()
	s.replenishPool(ctx, t, algo)
	if t.PoolSize() == before {
		return
	}

	if err := s.store.UpdateTreasury(ctx, t); err != nil {
		log.Warn().Err(err).Str("treasury_id", id).Msg("Pool monitor failed to persist top-up")
		return
	}

	s.finish(ctx, t, &Event{Type: EventPresignsAdded, TreasuryID: t.ID, PoolSize: t.PoolSize(), At: s.clock.Now().UTC()})

	log.Info().Str("treasury_id", id).Int("pool_size", t.PoolSize()).Msg("Pool monitor topped up presigns")
}
