package test

import (
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/dropbox/godropbox/time2"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-mpc-treasury/internal/mailer"
	"github.com/kashguard/go-mpc-treasury/internal/metrics"
	"github.com/kashguard/go-mpc-treasury/internal/oracle"
	"github.com/kashguard/go-mpc-treasury/internal/storage"
	"github.com/kashguard/go-mpc-treasury/internal/treasury"
)

// The standing member fixture: three members, threshold two.
var TestMembers = []string{"alice", "bob", "carol"}

const TestThreshold = 2

// ServiceBundle is a treasury service together with all of its scripted
// collaborators, so tests can reach each one directly.
type ServiceBundle struct {
	Service *treasury.Service
	Oracle  *ScriptedOracle
	Store   *storage.MemoryStore
	Cache   *storage.MemoryCache
	Locker  *treasury.Locker
	Clock   *time2.MockClock
	Mailer  *mailer.Mailer
}

// DefaultTestServiceConfig keeps pool churn small so oracle call counts and
// fee arithmetic stay obvious in assertions.
func DefaultTestServiceConfig() treasury.ServiceConfig {
	return treasury.ServiceConfig{
		InitialPoolSize:  2,
		PoolLowWater:     2,
		ReplenishBatch:   1,
		MaxPresignBatch:  8,
		MaxMessageSize:   1024,
		TokenDecimals:    9,
		CacheTTL:         time.Minute,
		ChainNetwork:     "mainnet",
		DefaultAlgorithm: oracle.AlgorithmECDSA,
	}
}

// NewTestService builds a treasury service over in-memory backends and a
// scripted oracle.
func NewTestService(t *testing.T, overrides ...func(*treasury.ServiceConfig)) *ServiceBundle {
	t.Helper()

	config := DefaultTestServiceConfig()
	for _, override := range overrides {
		override(&config)
	}

	store := storage.NewMemoryStore()
	cache := storage.NewMemoryCache()
	scripted := NewScriptedOracle()
	locker := treasury.NewLocker(cache)
	clock := time2.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	m := NewTestMailer(t)

	return &ServiceBundle{
		Service: treasury.NewService(config, store, cache, scripted, locker, clock, metrics.New(), m),
		Oracle:  scripted,
		Store:   store,
		Cache:   cache,
		Locker:  locker,
		Clock:   clock,
		Mailer:  m,
	}
}

// NewWalletKey generates a throwaway secp256k1 keypair and returns it with
// the compressed public key bytes.
func NewWalletKey(t *testing.T) (*btcec.PrivateKey, []byte) {
	t.Helper()

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return priv, priv.PubKey().SerializeCompressed()
}

// CreateFundedTreasury creates the standing fixture: the TestMembers set with
// TestThreshold and enough fees in both balances to never run dry mid-test.
func (b *ServiceBundle) CreateFundedTreasury(t *testing.T) *treasury.Treasury {
	t.Helper()

	_, publicKey := NewWalletKey(t)
	return b.CreateFundedTreasuryWithKey(t, publicKey)
}

// CreateFundedTreasuryWithKey is CreateFundedTreasury with a caller-supplied
// wallet key, for tests that need to produce verifiable signatures.
func (b *ServiceBundle) CreateFundedTreasuryWithKey(t *testing.T, publicKey []byte) *treasury.Treasury {
	t.Helper()

	tr, err := b.Service.CreateTreasury(context.Background(), treasury.CreateTreasuryParams{
		CapabilityID:        "cap-test",
		DWalletID:           "dwallet-test",
		PublicKey:           publicKey,
		Curve:               oracle.CurveSecp256k1,
		Members:             TestMembers,
		Threshold:           TestThreshold,
		EncryptionKeyID:     "enc-key-1",
		InitialProtocolFees: 1000,
		InitialGasFees:      1000,
	})
	require.NoError(t, err)

	return tr
}
