package treasury

import "github.com/kashguard/go-mpc-treasury/internal/oracle"

// Pool sizing defaults. The pool is seeded with a small batch at creation
// and topped up opportunistically whenever a request drains it below the
// low-water mark.
const (
	DefaultInitialPoolSize = 2
	DefaultPoolLowWater    = 3
	DefaultReplenishBatch  = 2
	DefaultMaxPresignBatch = 16
)

// PoolSize returns the total number of pooled presigns.
func (t *Treasury) PoolSize() int {
	return len(t.Pool)
}

// PoolSizeFor counts pooled presigns usable with the given algorithm.
func (t *Treasury) PoolSizeFor(algo oracle.SignatureAlgorithm) int {
	n := 0
	for _, h := range t.Pool {
		if h.Algorithm == algo {
			n++
		}
	}
	return n
}

// popPresign removes and returns a pooled presign for the algorithm. The
// pool is unordered, so removal swaps with the last element instead of
// shifting.
func (t *Treasury) popPresign(algo oracle.SignatureAlgorithm) (PresignHandle, bool) {
	for i := len(t.Pool) - 1; i >= 0; i-- {
		if t.Pool[i].Algorithm != algo {
			continue
		}
		h := t.Pool[i]
		last := len(t.Pool) - 1
		t.Pool[i] = t.Pool[last]
		t.Pool = t.Pool[:last]
		return h, true
	}
	return PresignHandle{}, false
}

// pushPresign adds a presign handle to the pool.
func (t *Treasury) pushPresign(h PresignHandle) {
	t.Pool = append(t.Pool, h)
}
