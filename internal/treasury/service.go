package treasury

import (
	"context"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kashguard/go-mpc-treasury/internal/mailer"
	"github.com/kashguard/go-mpc-treasury/internal/metrics"
	"github.com/kashguard/go-mpc-treasury/internal/oracle"
	"github.com/kashguard/go-mpc-treasury/internal/util"
)

// ServiceConfig tunes pool sizing, limits and derivations. Zero values fall
// back to the package defaults.
type ServiceConfig struct {
	InitialPoolSize  int
	PoolLowWater     int
	ReplenishBatch   int
	MaxPresignBatch  int
	MaxMessageSize   int
	TokenDecimals    int32
	CacheTTL         time.Duration
	ChainNetwork     string
	DefaultAlgorithm oracle.SignatureAlgorithm
}

// DefaultServiceConfig returns the production defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		InitialPoolSize:  DefaultInitialPoolSize,
		PoolLowWater:     DefaultPoolLowWater,
		ReplenishBatch:   DefaultReplenishBatch,
		MaxPresignBatch:  DefaultMaxPresignBatch,
		MaxMessageSize:   10 * 1024,
		TokenDecimals:    9,
		CacheTTL:         5 * time.Minute,
		ChainNetwork:     "mainnet",
		DefaultAlgorithm: oracle.AlgorithmECDSA,
	}
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	d := DefaultServiceConfig()
	if c.InitialPoolSize <= 0 {
		c.InitialPoolSize = d.InitialPoolSize
	}
	if c.PoolLowWater <= 0 {
		c.PoolLowWater = d.PoolLowWater
	}
	if c.ReplenishBatch <= 0 {
		c.ReplenishBatch = d.ReplenishBatch
	}
	if c.MaxPresignBatch <= 0 {
		c.MaxPresignBatch = d.MaxPresignBatch
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.TokenDecimals <= 0 {
		c.TokenDecimals = d.TokenDecimals
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.ChainNetwork == "" {
		c.ChainNetwork = d.ChainNetwork
	}
	if c.DefaultAlgorithm == "" {
		c.DefaultAlgorithm = d.DefaultAlgorithm
	}
	return c
}

// Service coordinates all treasury operations. Every mutating operation runs
// under the per-treasury lock, loads the aggregate from the store, mutates
// it in memory and persists it with a version check, so a failed operation
// leaves no partial state behind (except fees already consumed by the
// signing network, which are gone by definition).
type Service struct {
	config  ServiceConfig
	store   Store
	cache   Cache
	oracle  oracle.Client
	locker  *Locker
	clock   time2.Clock
	metrics *metrics.Service
	mailer  *mailer.Mailer
}

// NewService wires a Service from its collaborators.
func NewService(
	config ServiceConfig,
	store Store,
	cache Cache,
	oracleClient oracle.Client,
	locker *Locker,
	clock time2.Clock,
	metricsService *metrics.Service,
	mailerService *mailer.Mailer,
) *Service {
	return &Service{
		config:  config.withDefaults(),
		store:   store,
		cache:   cache,
		oracle:  oracleClient,
		locker:  locker,
		clock:   clock,
		metrics: metricsService,
		mailer:  mailerService,
	}
}

// CreateTreasuryParams carries everything needed to establish a treasury
// around an already-registered distributed wallet.
type CreateTreasuryParams struct {
	CapabilityID    string
	DWalletID       string
	PublicKey       []byte
	Curve           oracle.Curve
	Members         []string
	Threshold       int
	EncryptionKeyID string

	// Optional initial deposits so pool seeding can pay for itself.
	InitialProtocolFees uint64
	InitialGasFees      uint64
}

// CreateTreasury validates the member set and threshold, wraps the signing
// capability and seeds the presign pool. Seeding is best effort: a treasury
// whose seed calls failed starts with an empty pool and becomes usable once
// AddPresigns succeeds.
func (s *Service) CreateTreasury(ctx context.Context, params CreateTreasuryParams) (t *Treasury, err error) {
	defer func() { s.metrics.IncOperation("create_treasury", err) }()

	log := util.LogFromContext(ctx)

	if params.Curve == "" {
		params.Curve = oracle.CurveSecp256k1
	}
	if params.Curve != oracle.CurveSecp256k1 {
		return nil, errors.Errorf("unsupported curve %q", params.Curve)
	}
	if _, err = ParsePublicKey(params.PublicKey); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	capability := NewSigningCapability(params.CapabilityID, params.DWalletID)

	t, err = NewTreasury("treasury-"+uuid.New().String(), capability, params.PublicKey, params.Curve, params.Members, params.Threshold, params.EncryptionKeyID, now)
	if err != nil {
		return nil, err
	}

	if params.InitialProtocolFees > 0 {
		if err = t.Fund(FeeTokenProtocol, params.InitialProtocolFees, now); err != nil {
			return nil, err
		}
	}
	if params.InitialGasFees > 0 {
		if err = t.Fund(FeeTokenGas, params.InitialGasFees, now); err != nil {
			return nil, err
		}
	}

	for i := 0; i < s.config.InitialPoolSize; i++ {
		if seedErr := s.requestPresign(ctx, t, s.config.DefaultAlgorithm); seedErr != nil {
			log.Warn().Err(seedErr).Str("treasury_id", t.ID).Int("seeded", i).Msg("Presign pool seeding stopped early")
			break
		}
	}

	if err = s.store.CreateTreasury(ctx, t); err != nil {
		return nil, errors.Wrap(err, "failed to persist treasury")
	}

	s.finish(ctx, t, &Event{Type: EventTreasuryCreated, TreasuryID: t.ID, At: now})

	log.Info().
		Str("treasury_id", t.ID).
		Str("dwallet_id", t.Capability.DWalletID()).
		Int("members", len(t.Members)).
		Int("threshold", t.Threshold).
		Int("pool_size", t.PoolSize()).
		Msg("Created treasury")

	return t, nil
}

// Fund deposits base units into one of the two fee balances.
func (s *Service) Fund(ctx context.Context, treasuryID string, token FeeToken, amount uint64) (t *Treasury, err error) {
	defer func() { s.metrics.IncOperation("fund", err) }()

	if !token.Valid() {
		return nil, errors.Errorf("unknown fee token %q", token)
	}

	unlock, err := s.locker.Lock(ctx, treasuryID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	t, err = s.store.GetTreasury(ctx, treasuryID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	if err = t.Fund(token, amount, now); err != nil {
		return nil, err
	}

	if err = s.store.UpdateTreasury(ctx, t); err != nil {
		return nil, err
	}

	s.finish(ctx, t, &Event{Type: EventTreasuryFunded, TreasuryID: t.ID, At: now})

	util.LogFromContext(ctx).Info().
		Str("treasury_id", t.ID).
		Str("token", string(token)).
		Str("amount", FormatAmount(amount, s.config.TokenDecimals)).
		Msg("Funded treasury")

	return t, nil
}

// AddPresigns requests count presigns for the algorithm, paying from the fee
// balances one unit at a time. On a mid-batch oracle failure the presigns
// and fee spending of the successful units are kept and persisted, the
// remainder of the withdrawn fees is returned, and the unit error is
// propagated.
func (s *Service) AddPresigns(ctx context.Context, treasuryID string, algo oracle.SignatureAlgorithm, count int) (t *Treasury, err error) {
	defer func() { s.metrics.IncOperation("add_presigns", err) }()

	if !algo.Valid() {
		return nil, errors.Errorf("unsupported signature algorithm %q", algo)
	}
	if count < 1 || count > s.config.MaxPresignBatch {
		return nil, errors.Wrapf(ErrInvalidAmount, "count %d outside 1..%d", count, s.config.MaxPresignBatch)
	}

	unlock, err := s.locker.Lock(ctx, treasuryID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	t, err = s.store.GetTreasury(ctx, treasuryID)
	if err != nil {
		return nil, err
	}

	added := 0
	for i := 0; i < count; i++ {
		if err = s.requestPresign(ctx, t, algo); err != nil {
			break
		}
		added++
	}

	if added > 0 {
		if persistErr := s.store.UpdateTreasury(ctx, t); persistErr != nil {
			return nil, persistErr
		}
		s.finish(ctx, t, &Event{Type: EventPresignsAdded, TreasuryID: t.ID, PoolSize: t.PoolSize(), At: s.clock.Now().UTC()})
	}

	if err != nil {
		return nil, errors.Wrapf(err, "added %d of %d presigns", added, count)
	}

	util.LogFromContext(ctx).Info().
		Str("treasury_id", t.ID).
		Str("algorithm", string(algo)).
		Int("added", added).
		Int("pool_size", t.PoolSize()).
		Msg("Added presigns")

	return t, nil
}

// CreateRequestParams describes a new sign request proposal.
type CreateRequestParams struct {
	TreasuryID string
	Proposer   string
	Message    []byte
	Algorithm  oracle.SignatureAlgorithm
	Hash       oracle.HashScheme
}

// CreateRequest reserves a pooled presign, assigns the next request ID and
// records the proposer's implicit approval. With a threshold of one the
// request is immediately executable. After a successful reservation the pool
// is topped back up opportunistically; replenishment failures never fail the
// request.
func (s *Service) CreateRequest(ctx context.Context, params CreateRequestParams) (req *SignRequest, err error) {
	defer func() { s.metrics.IncOperation("create_request", err) }()

	if !params.Algorithm.Valid() {
		return nil, errors.Errorf("unsupported signature algorithm %q", params.Algorithm)
	}
	if !params.Hash.Valid() {
		return nil, errors.Errorf("unsupported hash scheme %q", params.Hash)
	}
	if len(params.Message) == 0 || len(params.Message) > s.config.MaxMessageSize {
		return nil, errors.Wrapf(ErrInvalidMessage, "message size %d, limit %d", len(params.Message), s.config.MaxMessageSize)
	}

	unlock, err := s.locker.Lock(ctx, params.TreasuryID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	t, err := s.store.GetTreasury(ctx, params.TreasuryID)
	if err != nil {
		return nil, err
	}

	proposer := NormalizeMember(params.Proposer)
	if !t.IsMember(proposer) {
		return nil, errors.Wrapf(ErrNotMember, "proposer %s", proposer)
	}

	// Reserve before touching the request counter, so an empty pool leaves
	// the treasury byte-for-byte unchanged.
	handle, ok := t.popPresign(params.Algorithm)
	if !ok {
		return nil, errors.Wrapf(ErrNoPresignsAvailable, "algorithm %s", params.Algorithm)
	}

	now := s.clock.Now().UTC()
	id := t.NextRequestID
	t.NextRequestID++

	req = &SignRequest{
		ID:         id,
		TreasuryID: t.ID,
		Message:    params.Message,
		Algorithm:  params.Algorithm,
		Hash:       params.Hash,
		Proposer:   proposer,
		State:      RequestStateCreated,
		Votes:      map[string]bool{proposer: true},
		Presign:    &handle,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err = req.evaluate(t.Threshold, now); err != nil {
		return nil, err
	}

	t.Requests[id] = req
	t.UpdatedAt = now

	s.replenishPool(ctx, t, params.Algorithm)

	if err = s.store.UpdateTreasury(ctx, t); err != nil {
		return nil, err
	}

	s.finish(ctx, t, &Event{
		Type:       EventRequestCreated,
		TreasuryID: t.ID,
		RequestID:  req.ID,
		Member:     proposer,
		State:      req.State,
		At:         now,
	})

	if s.mailer.Enabled() {
		if mailErr := s.mailer.SendRequestCreated(ctx, t.ID, req.ID, proposer, req.Approvals(), t.Threshold); mailErr != nil {
			util.LogFromContext(ctx).Warn().Err(mailErr).Msg("Failed to send request notification")
		}
	}

	util.LogFromContext(ctx).Info().
		Str("treasury_id", t.ID).
		Uint64("request_id", req.ID).
		Str("proposer", proposer).
		Str("state", string(req.State)).
		Int("pool_size", t.PoolSize()).
		Msg("Created sign request")

	return req, nil
}

// Vote records an irrevocable approve/reject vote and promotes the request
// to executable once approvals reach the threshold. Rejections are recorded
// but never terminate a request.
func (s *Service) Vote(ctx context.Context, treasuryID string, requestID uint64, voter string, approve bool) (req *SignRequest, err error) {
	defer func() { s.metrics.IncOperation("vote", err) }()

	unlock, err := s.locker.Lock(ctx, treasuryID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	t, err := s.store.GetTreasury(ctx, treasuryID)
	if err != nil {
		return nil, err
	}

	voter = NormalizeMember(voter)
	if !t.IsMember(voter) {
		return nil, errors.Wrapf(ErrNotMember, "voter %s", voter)
	}

	req, err = t.Request(requestID)
	if err != nil {
		return nil, err
	}
	if req.State == RequestStateExecuted {
		return nil, errors.Wrapf(ErrAlreadyExecuted, "request %d", requestID)
	}
	if req.HasVoted(voter) {
		return nil, errors.Wrapf(ErrAlreadyVoted, "voter %s", voter)
	}

	now := s.clock.Now().UTC()
	req.Votes[voter] = approve
	req.UpdatedAt = now
	if err = req.evaluate(t.Threshold, now); err != nil {
		return nil, err
	}
	t.UpdatedAt = now

	if err = s.store.UpdateTreasury(ctx, t); err != nil {
		return nil, err
	}

	s.finish(ctx, t, &Event{
		Type:       EventVoteCast,
		TreasuryID: t.ID,
		RequestID:  req.ID,
		Member:     voter,
		Approved:   &approve,
		State:      req.State,
		At:         now,
	})

	util.LogFromContext(ctx).Info().
		Str("treasury_id", t.ID).
		Uint64("request_id", req.ID).
		Str("voter", voter).
		Bool("approve", approve).
		Int("approvals", req.Approvals()).
		Int("threshold", t.Threshold).
		Str("state", string(req.State)).
		Msg("Recorded vote")

	return req, nil
}

// ExecuteRequest submits an approved request to the signing network. The
// whole fee balance is withdrawn as the offer, the reserved presign is
// checked, the message is bound to the capability and the session is opened;
// unconsumed fees flow back in the same call. A failure at any oracle step
// persists nothing, so the request stays executable with its reservation
// intact and the caller can retry. The signature itself is produced
// asynchronously; the returned request carries the session ID to poll.
func (s *Service) ExecuteRequest(ctx context.Context, treasuryID string, requestID uint64, caller string) (req *SignRequest, err error) {
	defer func() { s.metrics.IncOperation("execute_request", err) }()

	unlock, err := s.locker.Lock(ctx, treasuryID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	t, err := s.store.GetTreasury(ctx, treasuryID)
	if err != nil {
		return nil, err
	}

	caller = NormalizeMember(caller)
	if !t.IsMember(caller) {
		return nil, errors.Wrapf(ErrNotMember, "caller %s", caller)
	}

	req, err = t.Request(requestID)
	if err != nil {
		return nil, err
	}
	if req.State == RequestStateExecuted {
		return nil, errors.Wrapf(ErrAlreadyExecuted, "request %d", requestID)
	}
	if req.Approvals() < t.Threshold {
		return nil, errors.Wrapf(ErrInsufficientApprovals, "%d of %d", req.Approvals(), t.Threshold)
	}
	if req.Presign == nil {
		return nil, errors.Errorf("request %d has no reserved presign", requestID)
	}

	handle := *req.Presign
	dwalletID := t.Capability.DWalletID()

	var receipt *oracle.SignReceipt
	err = t.payFromBalances(func(payment oracle.Payment) (oracle.Payment, error) {
		start := time.Now()
		verifyErr := s.oracle.VerifyPresign(ctx, handle.PresignID, dwalletID)
		s.metrics.ObserveOracleCall("verify_presign", start, verifyErr)
		if verifyErr != nil {
			return oracle.Payment{}, verifyErr
		}

		start = time.Now()
		approval, approveErr := s.oracle.ApproveMessage(ctx, &oracle.ApprovalRequest{
			CapabilityID: t.Capability.ID(),
			DWalletID:    dwalletID,
			Message:      req.Message,
			Algorithm:    req.Algorithm,
			Hash:         req.Hash,
		})
		s.metrics.ObserveOracleCall("approve_message", start, approveErr)
		if approveErr != nil {
			return oracle.Payment{}, approveErr
		}

		start = time.Now()
		var submitErr error
		receipt, submitErr = s.oracle.SubmitSign(ctx, &oracle.SignSubmission{
			DWalletID:    dwalletID,
			PresignID:    handle.PresignID,
			Approval:     approval,
			SessionToken: uuid.New().String(),
			Payment:      payment,
		})
		s.metrics.ObserveOracleCall("submit_sign", start, submitErr)
		if submitErr != nil {
			return oracle.Payment{}, submitErr
		}

		return receipt.Consumed, nil
	})
	if err != nil {
		// Nothing is persisted: balances, the presign reservation and the
		// request state remain exactly as before this attempt.
		return nil, err
	}

	now := s.clock.Now().UTC()
	if req.State == RequestStateCreated {
		if err = req.evaluate(t.Threshold, now); err != nil {
			return nil, err
		}
	}
	if err = req.advance(RequestStateExecuted, now); err != nil {
		return nil, err
	}
	req.SessionID = receipt.SessionID
	req.ExecutedAt = &now
	t.UpdatedAt = now

	if err = s.store.UpdateTreasury(ctx, t); err != nil {
		return nil, errors.Wrap(err, "failed to persist executed request")
	}

	s.finish(ctx, t, &Event{
		Type:       EventRequestExecuted,
		TreasuryID: t.ID,
		RequestID:  req.ID,
		Member:     caller,
		State:      req.State,
		SessionID:  req.SessionID,
		At:         now,
	})

	if s.mailer.Enabled() {
		if mailErr := s.mailer.SendRequestExecuted(ctx, t.ID, req.ID, req.SessionID); mailErr != nil {
			util.LogFromContext(ctx).Warn().Err(mailErr).Msg("Failed to send execution notification")
		}
	}

	util.LogFromContext(ctx).Info().
		Str("treasury_id", t.ID).
		Uint64("request_id", req.ID).
		Str("session_id", req.SessionID).
		Msg("Executed sign request")

	return req, nil
}

// RotateEncryptionKey points the treasury at a new network encryption key
// epoch. Only members may rotate.
func (s *Service) RotateEncryptionKey(ctx context.Context, treasuryID string, caller string, newKeyID string) (t *Treasury, err error) {
	defer func() { s.metrics.IncOperation("rotate_encryption_key", err) }()

	if newKeyID == "" {
		return nil, errors.New("encryption key id is required")
	}

	unlock, err := s.locker.Lock(ctx, treasuryID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	t, err = s.store.GetTreasury(ctx, treasuryID)
	if err != nil {
		return nil, err
	}

	caller = NormalizeMember(caller)
	if !t.IsMember(caller) {
		return nil, errors.Wrapf(ErrNotMember, "caller %s", caller)
	}

	now := s.clock.Now().UTC()
	t.EncryptionKeyID = newKeyID
	t.UpdatedAt = now

	if err = s.store.UpdateTreasury(ctx, t); err != nil {
		return nil, err
	}

	s.finish(ctx, t, &Event{Type: EventEncryptionKeyRotated, TreasuryID: t.ID, Member: caller, At: now})

	util.LogFromContext(ctx).Info().
		Str("treasury_id", t.ID).
		Str("encryption_key_id", newKeyID).
		Msg("Rotated encryption key")

	return t, nil
}

// GetTreasury loads a treasury through the cache.
func (s *Service) GetTreasury(ctx context.Context, id string) (*Treasury, error) {
	return s.loadTreasury(ctx, id)
}

// ListTreasuries pages through all treasuries.
func (s *Service) ListTreasuries(ctx context.Context, limit int, offset int) ([]*Treasury, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListTreasuries(ctx, limit, offset)
}

// GetRequest returns one sign request.
func (s *Service) GetRequest(ctx context.Context, treasuryID string, requestID uint64) (*SignRequest, error) {
	t, err := s.loadTreasury(ctx, treasuryID)
	if err != nil {
		return nil, err
	}
	return t.Request(requestID)
}

// ListRequests returns the treasury's requests, optionally filtered by state.
func (s *Service) ListRequests(ctx context.Context, treasuryID string, state *RequestState) ([]*SignRequest, error) {
	t, err := s.loadTreasury(ctx, treasuryID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return t.AllRequests(), nil
	}
	return t.RequestsByState(*state), nil
}

// GetSignature returns the signing session state of an executed request. A
// positive wait blocks until completion, the wait elapses or ctx ends.
func (s *Service) GetSignature(ctx context.Context, treasuryID string, requestID uint64, wait time.Duration) (*oracle.SignatureResult, error) {
	t, err := s.loadTreasury(ctx, treasuryID)
	if err != nil {
		return nil, err
	}

	req, err := t.Request(requestID)
	if err != nil {
		return nil, err
	}
	if req.State != RequestStateExecuted || req.SessionID == "" {
		return nil, errors.Wrapf(ErrNotExecuted, "request %d", requestID)
	}

	if wait > 0 {
		result, err := oracle.WaitForSignature(ctx, s.oracle, req.SessionID, wait, 0)
		if errors.Is(err, oracle.ErrWaitTimeout) {
			// The wait elapsing is not a failure; report the latest state.
			return s.oracle.GetSignature(ctx, req.SessionID)
		}
		return result, err
	}
	return s.oracle.GetSignature(ctx, req.SessionID)
}

// VerifySignature checks a signature against the treasury's wallet key
// locally, without touching the signing network.
func (s *Service) VerifySignature(ctx context.Context, treasuryID string, message []byte, signature []byte, algo oracle.SignatureAlgorithm, hash oracle.HashScheme) (bool, error) {
	t, err := s.loadTreasury(ctx, treasuryID)
	if err != nil {
		return false, err
	}
	return VerifySignature(t.PublicKey, message, signature, algo, hash)
}

// Addresses derives the treasury's on-chain addresses.
func (s *Service) Addresses(ctx context.Context, treasuryID string) (*ChainAddresses, error) {
	t, err := s.loadTreasury(ctx, treasuryID)
	if err != nil {
		return nil, err
	}
	return DeriveAddresses(t.PublicKey, s.config.ChainNetwork)
}

// SubscribeEvents opens an event stream for one treasury.
func (s *Service) SubscribeEvents(ctx context.Context, treasuryID string) (<-chan *Event, func(), error) {
	if _, err := s.loadTreasury(ctx, treasuryID); err != nil {
		return nil, nil, err
	}
	return s.cache.SubscribeEvents(ctx, treasuryID)
}

// requestPresign performs one fee-metered presign request and pools the
// resulting handle.
func (s *Service) requestPresign(ctx context.Context, t *Treasury, algo oracle.SignatureAlgorithm) error {
	token := uuid.New().String()

	var receipt *oracle.PresignReceipt
	err := t.payFromBalances(func(payment oracle.Payment) (oracle.Payment, error) {
		start := time.Now()
		var callErr error
		receipt, callErr = s.oracle.RequestPresign(ctx, &oracle.PresignRequest{
			DWalletID:    t.Capability.DWalletID(),
			Algorithm:    algo,
			SessionToken: token,
			Payment:      payment,
		})
		s.metrics.ObserveOracleCall("request_presign", start, callErr)
		if callErr != nil {
			return oracle.Payment{}, callErr
		}
		return receipt.Consumed, nil
	})
	if err != nil {
		return err
	}

	t.pushPresign(PresignHandle{
		PresignID:    receipt.PresignID,
		Algorithm:    algo,
		SessionToken: token,
		RequestedAt:  s.clock.Now().UTC(),
	})

	return nil
}

// replenishPool tops the pool back up to the low-water mark, best effort.
func (s *Service) replenishPool(ctx context.Context, t *Treasury, algo oracle.SignatureAlgorithm) {
	if t.PoolSizeFor(algo) >= s.config.PoolLowWater {
		return
	}

	for i := 0; i < s.config.ReplenishBatch; i++ {
		if err := s.requestPresign(ctx, t, algo); err != nil {
			util.LogFromContext(ctx).Warn().
				Err(err).
				Str("treasury_id", t.ID).
				Str("algorithm", string(algo)).
				Msg("Pool replenishment attempt failed")
			return
		}
	}
}

// loadTreasury reads through the cache and warms it on a store hit.
func (s *Service) loadTreasury(ctx context.Context, id string) (*Treasury, error) {
	t, err := s.cache.CachedTreasury(ctx, id)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		util.LogFromContext(ctx).Warn().Err(err).Str("treasury_id", id).Msg("Treasury cache read failed, falling back to store")
	}

	t, err = s.store.GetTreasury(ctx, id)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cache.CacheTreasury(ctx, t, s.config.CacheTTL); cacheErr != nil {
		util.LogFromContext(ctx).Warn().Err(cacheErr).Str("treasury_id", id).Msg("Failed to warm treasury cache")
	}

	return t, nil
}

// finish refreshes the cache, publishes the event and updates the gauges
// after a successful persist. All of it is advisory; failures only log.
func (s *Service) finish(ctx context.Context, t *Treasury, event *Event) {
	log := util.LogFromContext(ctx)

	if err := s.cache.CacheTreasury(ctx, t, s.config.CacheTTL); err != nil {
		log.Warn().Err(err).Str("treasury_id", t.ID).Msg("Failed to refresh treasury cache")
	}

	if event != nil {
		if err := s.cache.PublishEvent(ctx, event); err != nil {
			log.Warn().Err(err).Str("treasury_id", t.ID).Msg("Failed to publish treasury event")
		} else {
			s.metrics.IncEventPublished()
		}
	}

	s.metrics.SetFeeBalance(t.ID, string(FeeTokenProtocol), t.ProtocolBalance)
	s.metrics.SetFeeBalance(t.ID, string(FeeTokenGas), t.GasBalance)
	for _, algo := range []oracle.SignatureAlgorithm{oracle.AlgorithmECDSA, oracle.AlgorithmTaproot} {
		s.metrics.SetPoolSize(t.ID, string(algo), t.PoolSizeFor(algo))
	}
}
