// Package storage provides the durable and cache backends for treasury
// aggregates: postgres as the source of truth, redis for read caching,
// cross-instance locking and event fanout, and in-memory implementations for
// tests and local development.
package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/kashguard/go-mpc-treasury/internal/treasury"
)

// MemoryStore keeps aggregates as serialized snapshots, giving the same
// copy-on-read semantics as the real backends.
type MemoryStore struct {
	mu         sync.RWMutex
	treasuries map[string][]byte
	versions   map[string]int64
	order      []string
}

var _ treasury.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		treasuries: map[string][]byte{},
		versions:   map[string]int64{},
	}
}

func (s *MemoryStore) CreateTreasury(_ context.Context, t *treasury.Treasury) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.treasuries[t.ID]; ok {
		return errors.Errorf("treasury %s already exists", t.ID)
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "failed to marshal treasury")
	}

	s.treasuries[t.ID] = payload
	s.versions[t.ID] = t.Version
	s.order = append(s.order, t.ID)

	return nil
}

func (s *MemoryStore) GetTreasury(_ context.Context, id string) (*treasury.Treasury, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.treasuries[id]
	if !ok {
		return nil, errors.Wrapf(treasury.ErrTreasuryNotFound, "treasury %s", id)
	}

	t := &treasury.Treasury{}
	if err := json.Unmarshal(payload, t); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal treasury")
	}

	return t, nil
}

func (s *MemoryStore) UpdateTreasury(_ context.Context, t *treasury.Treasury) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.versions[t.ID]
	if !ok {
		return errors.Wrapf(treasury.ErrTreasuryNotFound, "treasury %s", t.ID)
	}
	if stored != t.Version {
		return errors.Wrapf(treasury.ErrVersionConflict, "stored version %d, caller version %d", stored, t.Version)
	}

	t.Version++

	payload, err := json.Marshal(t)
	if err != nil {
		t.Version--
		return errors.Wrap(err, "failed to marshal treasury")
	}

	s.treasuries[t.ID] = payload
	s.versions[t.ID] = t.Version

	return nil
}

func (s *MemoryStore) ListTreasuries(_ context.Context, limit int, offset int) ([]*treasury.Treasury, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset >= len(s.order) {
		return []*treasury.Treasury{}, nil
	}

	end := offset + limit
	if end > len(s.order) {
		end = len(s.order)
	}

	out := make([]*treasury.Treasury, 0, end-offset)
	for _, id := range s.order[offset:end] {
		t := &treasury.Treasury{}
		if err := json.Unmarshal(s.treasuries[id], t); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal treasury")
		}
		out = append(out, t)
	}

	return out, nil
}

// MemoryCache implements the cache, lock and event surface without redis.
// Slow event subscribers are dropped rather than blocking publishers.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryCacheEntry
	locks   map[string]time.Time
	subs    map[string]map[int]chan *treasury.Event
	nextSub int
}

type memoryCacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

var _ treasury.Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: map[string]memoryCacheEntry{},
		locks:   map[string]time.Time{},
		subs:    map[string]map[int]chan *treasury.Event{},
	}
}

func (c *MemoryCache) CacheTreasury(_ context.Context, t *treasury.Treasury, ttl time.Duration) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "failed to marshal treasury")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[t.ID] = memoryCacheEntry{payload: payload, expiresAt: time.Now().Add(ttl)}

	return nil
}

func (c *MemoryCache) CachedTreasury(_ context.Context, id string) (*treasury.Treasury, error) {
	c.mu.Lock()
	entry, ok := c.entries[id]
	if ok && time.Now().After(entry.expiresAt) {
		delete(c.entries, id)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return nil, errors.WithStack(treasury.ErrCacheMiss)
	}

	t := &treasury.Treasury{}
	if err := json.Unmarshal(entry.payload, t); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal treasury")
	}

	return t, nil
}

func (c *MemoryCache) InvalidateTreasury(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

func (c *MemoryCache) AcquireLock(_ context.Context, id string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if expiry, ok := c.locks[id]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	c.locks[id] = time.Now().Add(ttl)

	return true, nil
}

func (c *MemoryCache) ReleaseLock(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, id)
	return nil
}

func (c *MemoryCache) PublishEvent(_ context.Context, event *treasury.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range c.subs[event.TreasuryID] {
		select {
		case ch <- event:
		default:
		}
	}

	return nil
}

func (c *MemoryCache) SubscribeEvents(ctx context.Context, treasuryID string) (<-chan *treasury.Event, func(), error) {
	ch := make(chan *treasury.Event, 16)

	c.mu.Lock()
	if c.subs[treasuryID] == nil {
		c.subs[treasuryID] = map[int]chan *treasury.Event{}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[treasuryID][id] = ch
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs[treasuryID], id)
			c.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel, nil
}
