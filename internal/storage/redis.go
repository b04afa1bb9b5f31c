package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/kashguard/go-mpc-treasury/internal/treasury"
	"github.com/kashguard/go-mpc-treasury/internal/util"
)

const (
	treasuryKeyPrefix  = "treasury:aggregate:"
	lockKeyPrefix      = "treasury:lock:"
	eventChannelPrefix = "treasury:events:"
)

// RedisCache backs the treasury cache, the cross-instance lock and the event
// stream with redis. Aggregates are stored as JSON under a TTL, locks use
// SETNX with expiry, events ride pub/sub channels per treasury.
type RedisCache struct {
	client *redis.Client
}

var _ treasury.Cache = (*RedisCache)(nil)

// NewRedisCache creates a RedisCache on an existing client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) CacheTreasury(ctx context.Context, t *treasury.Treasury, ttl time.Duration) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "failed to marshal treasury")
	}

	if err := c.client.Set(ctx, treasuryKeyPrefix+t.ID, payload, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to cache treasury")
	}

	return nil
}

func (c *RedisCache) CachedTreasury(ctx context.Context, id string) (*treasury.Treasury, error) {
	payload, err := c.client.Get(ctx, treasuryKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errors.WithStack(treasury.ErrCacheMiss)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read cached treasury")
	}

	t := &treasury.Treasury{}
	if err := json.Unmarshal(payload, t); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal cached treasury")
	}

	return t, nil
}

func (c *RedisCache) InvalidateTreasury(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, treasuryKeyPrefix+id).Err(); err != nil {
		return errors.Wrap(err, "failed to invalidate treasury cache")
	}
	return nil
}

func (c *RedisCache) AcquireLock(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, lockKeyPrefix+id, "1", ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to acquire lock")
	}
	return ok, nil
}

func (c *RedisCache) ReleaseLock(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, lockKeyPrefix+id).Err(); err != nil {
		return errors.Wrap(err, "failed to release lock")
	}
	return nil
}

func (c *RedisCache) PublishEvent(ctx context.Context, event *treasury.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	if err := c.client.Publish(ctx, eventChannelPrefix+event.TreasuryID, payload).Err(); err != nil {
		return errors.Wrap(err, "failed to publish event")
	}

	return nil
}

func (c *RedisCache) SubscribeEvents(ctx context.Context, treasuryID string) (<-chan *treasury.Event, func(), error) {
	pubsub := c.client.Subscribe(ctx, eventChannelPrefix+treasuryID)

	// Force the subscription to be established before we hand out the
	// channel, so no event published after this call is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, errors.Wrap(err, "failed to subscribe to treasury events")
	}

	out := make(chan *treasury.Event, 16)
	log := util.LogFromContext(ctx)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			event := &treasury.Event{}
			if err := json.Unmarshal([]byte(msg.Payload), event); err != nil {
				log.Warn().Err(err).Str("treasury_id", treasuryID).Msg("Dropping undecodable treasury event")
				continue
			}
			select {
			case out <- event:
			default:
				log.Warn().Str("treasury_id", treasuryID).Msg("Dropping treasury event for slow subscriber")
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			if err := pubsub.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close event subscription")
			}
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return out, cancel, nil
}
