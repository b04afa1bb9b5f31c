// Package treasury implements the shared signing treasury: a member-governed
// wallet whose distributed key lives on an external MPC signing network.
// Members propose messages, vote, and execute approved requests; the package
// owns the request state machine, the presign pool and the fee balances.
package treasury

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kashguard/go-mpc-treasury/internal/oracle"
)

// RequestState is the lifecycle state of a sign request.
type RequestState string

const (
	// RequestStateCreated collects votes until the approval threshold is met.
	RequestStateCreated RequestState = "created"
	// RequestStateExecutable has enough approvals and waits for execution.
	RequestStateExecutable RequestState = "executable"
	// RequestStateExecuted is terminal: the message was submitted for signing.
	RequestStateExecuted RequestState = "executed"
)

// Valid reports whether the state is a known lifecycle state.
func (s RequestState) Valid() bool {
	switch s {
	case RequestStateCreated, RequestStateExecutable, RequestStateExecuted:
		return true
	}
	return false
}

// canTransition encodes the only legal state changes. There is no rejected or
// expired state: a request that never gathers enough approvals simply stays
// in created forever.
func canTransition(from RequestState, to RequestState) bool {
	switch from {
	case RequestStateCreated:
		return to == RequestStateExecutable
	case RequestStateExecutable:
		return to == RequestStateExecuted
	case RequestStateExecuted:
		return false
	}
	return false
}

// SigningCapability proves the treasury's exclusive control over its
// distributed wallet. The fields are unexported on purpose: the capability is
// persisted through its explicit JSON form and passed to the signing network,
// but it is never exposed through API responses and nothing outside this
// package can construct or alter one except via NewSigningCapability.
type SigningCapability struct {
	capID     string
	dwalletID string
}

// NewSigningCapability binds a capability ID to its distributed wallet.
func NewSigningCapability(capID string, dwalletID string) SigningCapability {
	return SigningCapability{capID: capID, dwalletID: dwalletID}
}

// ID returns the capability object ID on the signing network.
func (c SigningCapability) ID() string {
	return c.capID
}

// DWalletID returns the distributed wallet the capability controls.
func (c SigningCapability) DWalletID() string {
	return c.dwalletID
}

// IsZero reports whether the capability is unset.
func (c SigningCapability) IsZero() bool {
	return c.capID == "" && c.dwalletID == ""
}

type capabilityJSON struct {
	CapID     string `json:"cap_id"`
	DWalletID string `json:"dwallet_id"`
}

// MarshalJSON implements json.Marshaler for persistence.
func (c SigningCapability) MarshalJSON() ([]byte, error) {
	return json.Marshal(capabilityJSON{CapID: c.capID, DWalletID: c.dwalletID})
}

// UnmarshalJSON implements json.Unmarshaler for persistence.
func (c *SigningCapability) UnmarshalJSON(b []byte) error {
	var raw capabilityJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.capID = raw.CapID
	c.dwalletID = raw.DWalletID
	return nil
}

// PresignHandle references one precomputed signing round held by the pool.
// A handle is consumed at most once: reserving it for a request removes it
// from the pool, and the request state machine prevents double execution.
type PresignHandle struct {
	PresignID    string                    `json:"presign_id"`
	Algorithm    oracle.SignatureAlgorithm `json:"algorithm"`
	SessionToken string                    `json:"session_token"`
	RequestedAt  time.Time                 `json:"requested_at"`
}

// SignRequest is one proposal to sign a message with the treasury's wallet.
type SignRequest struct {
	ID         uint64                    `json:"id"`
	TreasuryID string                    `json:"treasury_id"`
	Message    []byte                    `json:"message"`
	Algorithm  oracle.SignatureAlgorithm `json:"algorithm"`
	Hash       oracle.HashScheme         `json:"hash_scheme"`
	Proposer   string                    `json:"proposer"`
	State      RequestState              `json:"state"`

	// Votes maps member address to approve/reject. Votes are irrevocable.
	Votes map[string]bool `json:"votes"`

	// Presign is the pool handle reserved for this request at creation.
	Presign *PresignHandle `json:"presign,omitempty"`

	// SessionID is the signing session opened at execution.
	SessionID string `json:"session_id,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ExecutedAt *time.Time `json:"executed_at,omitempty"`
}

// Approvals counts approving votes.
func (r *SignRequest) Approvals() int {
	n := 0
	for _, approve := range r.Votes {
		if approve {
			n++
		}
	}
	return n
}

// Rejections counts rejecting votes. Rejections are recorded for the audit
// trail but never block or terminate a request.
func (r *SignRequest) Rejections() int {
	n := 0
	for _, approve := range r.Votes {
		if !approve {
			n++
		}
	}
	return n
}

// HasVoted reports whether the member already cast a vote.
func (r *SignRequest) HasVoted(member string) bool {
	_, ok := r.Votes[member]
	return ok
}

// advance moves the request to the given state, enforcing the state machine.
func (r *SignRequest) advance(to RequestState, now time.Time) error {
	if !canTransition(r.State, to) {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", r.State, to)
	}
	r.State = to
	r.UpdatedAt = now
	return nil
}

// evaluate promotes the request to executable once approvals reach the
// threshold. Promotion is one-way: votes cannot be revoked, so the approval
// count never shrinks.
func (r *SignRequest) evaluate(threshold int, now time.Time) error {
	if r.State == RequestStateCreated && r.Approvals() >= threshold {
		return r.advance(RequestStateExecutable, now)
	}
	return nil
}

// Treasury is the shared signing treasury aggregate. All operations load it,
// mutate it under the per-treasury lock and persist it with an optimistic
// version check.
type Treasury struct {
	ID         string            `json:"id"`
	Capability SigningCapability `json:"capability"`

	// PublicKey is the wallet's compressed secp256k1 public key.
	PublicKey []byte       `json:"public_key"`
	Curve     oracle.Curve `json:"curve"`

	Members   []string `json:"members"`
	Threshold int      `json:"threshold"`

	Requests      map[uint64]*SignRequest `json:"requests"`
	NextRequestID uint64                  `json:"next_request_id"`

	Pool []PresignHandle `json:"presign_pool"`

	// Fee balances in base units. Protocol fees pay the MPC computation, gas
	// fees pay the carrying network transactions.
	ProtocolBalance uint64 `json:"protocol_balance"`
	GasBalance      uint64 `json:"gas_balance"`

	// EncryptionKeyID names the network encryption key epoch the treasury's
	// share material is wrapped under.
	EncryptionKeyID string `json:"encryption_key_id"`

	// Version increments on every successful persist and guards against
	// concurrent lost updates.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTreasury validates and assembles a fresh treasury. Member addresses are
// normalized and deduplicated; the threshold must fit the resulting set.
func NewTreasury(id string, capability SigningCapability, publicKey []byte, curve oracle.Curve, members []string, threshold int, encryptionKeyID string, now time.Time) (*Treasury, error) {
	if capability.IsZero() {
		return nil, errors.New("signing capability is required")
	}
	if len(publicKey) == 0 {
		return nil, errors.New("wallet public key is required")
	}

	normalized := NormalizeMembers(members)
	if len(normalized) == 0 {
		return nil, errors.WithStack(ErrNoMembers)
	}
	if threshold < 1 || threshold > len(normalized) {
		return nil, errors.Wrapf(ErrInvalidThreshold, "threshold %d, members %d", threshold, len(normalized))
	}

	return &Treasury{
		ID:              id,
		Capability:      capability,
		PublicKey:       publicKey,
		Curve:           curve,
		Members:         normalized,
		Threshold:       threshold,
		Requests:        map[uint64]*SignRequest{},
		NextRequestID:   1,
		Pool:            []PresignHandle{},
		EncryptionKeyID: encryptionKeyID,
		Version:         0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// IsMember reports whether the normalized address belongs to the member set.
func (t *Treasury) IsMember(addr string) bool {
	addr = NormalizeMember(addr)
	for _, m := range t.Members {
		if m == addr {
			return true
		}
	}
	return false
}

// Request returns the sign request with the given ID.
func (t *Treasury) Request(id uint64) (*SignRequest, error) {
	r, ok := t.Requests[id]
	if !ok {
		return nil, errors.Wrapf(ErrRequestNotFound, "request %d", id)
	}
	return r, nil
}

// RequestsByState returns all requests in the given state, ordered by ID.
func (t *Treasury) RequestsByState(state RequestState) []*SignRequest {
	out := make([]*SignRequest, 0, len(t.Requests))
	for _, r := range t.Requests {
		if r.State == state {
			out = append(out, r)
		}
	}
	sortRequests(out)
	return out
}

// AllRequests returns every request ordered by ID.
func (t *Treasury) AllRequests() []*SignRequest {
	out := make([]*SignRequest, 0, len(t.Requests))
	for _, r := range t.Requests {
		out = append(out, r)
	}
	sortRequests(out)
	return out
}

func sortRequests(rs []*SignRequest) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
}

// NormalizeMember canonicalizes a member address for comparisons.
func NormalizeMember(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// NormalizeMembers normalizes, deduplicates and sorts the member set so two
// treasuries created with the same members in different order are identical.
// Duplicate entries in a creation payload are tolerated rather than rejected.
func NormalizeMembers(members []string) []string {
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		n := NormalizeMember(m)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
