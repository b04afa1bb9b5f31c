// Package oracle talks to the external MPC signing network. The network owns
// the actual threshold-signing protocol; this package only requests presign
// material, approves messages and submits signing sessions on behalf of a
// treasury. All calls are fee-metered: the caller offers a payment and the
// network reports how much of it was consumed.
package oracle

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// SignatureAlgorithm selects the signature scheme a presign or signing
// session is bound to. A presign generated for one algorithm cannot be used
// with another.
type SignatureAlgorithm string

const (
	AlgorithmECDSA   SignatureAlgorithm = "ecdsa"
	AlgorithmTaproot SignatureAlgorithm = "taproot"
)

// Valid reports whether the algorithm is one the signing network supports.
func (a SignatureAlgorithm) Valid() bool {
	switch a {
	case AlgorithmECDSA, AlgorithmTaproot:
		return true
	}
	return false
}

// HashScheme selects how the raw message is digested before signing.
type HashScheme string

const (
	HashSHA256    HashScheme = "sha256"
	HashKeccak256 HashScheme = "keccak256"
)

// Valid reports whether the hash scheme is one the signing network supports.
func (h HashScheme) Valid() bool {
	switch h {
	case HashSHA256, HashKeccak256:
		return true
	}
	return false
}

// Curve identifies the elliptic curve of a distributed wallet key.
type Curve string

const (
	CurveSecp256k1 Curve = "secp256k1"
)

// Payment is a fee offer or consumption in base units of the two fee tokens.
// Protocol fees pay for the MPC computation itself, gas fees pay for the
// network transactions that carry it.
type Payment struct {
	Protocol uint64 `json:"protocol"`
	Gas      uint64 `json:"gas"`
}

// Add returns the sum of p and other.
func (p Payment) Add(other Payment) Payment {
	return Payment{Protocol: p.Protocol + other.Protocol, Gas: p.Gas + other.Gas}
}

// Sub returns p minus other, clamping at zero so a misreporting oracle can
// never drive a balance negative.
func (p Payment) Sub(other Payment) Payment {
	out := Payment{}
	if p.Protocol > other.Protocol {
		out.Protocol = p.Protocol - other.Protocol
	}
	if p.Gas > other.Gas {
		out.Gas = p.Gas - other.Gas
	}
	return out
}

// Total returns the combined base units across both tokens.
func (p Payment) Total() uint64 {
	return p.Protocol + p.Gas
}

// IsZero reports whether both components are zero.
func (p Payment) IsZero() bool {
	return p.Protocol == 0 && p.Gas == 0
}

// PresignRequest asks the network to start one presign computation for a
// distributed wallet. The session token makes the request idempotent: the
// network returns the same presign for a repeated token.
type PresignRequest struct {
	DWalletID    string             `json:"dwallet_id"`
	Algorithm    SignatureAlgorithm `json:"algorithm"`
	SessionToken string             `json:"session_token"`
	Payment      Payment            `json:"payment"`
}

// PresignReceipt acknowledges a presign request. The presign itself completes
// asynchronously; VerifyPresign checks readiness.
type PresignReceipt struct {
	PresignID string  `json:"presign_id"`
	Consumed  Payment `json:"consumed"`
}

// ApprovalRequest binds a message to the treasury's signing capability. The
// network checks that the capability matches the wallet and returns a
// single-use approval for exactly this message, algorithm and hash scheme.
type ApprovalRequest struct {
	CapabilityID string             `json:"capability_id"`
	DWalletID    string             `json:"dwallet_id"`
	Message      []byte             `json:"message"`
	Algorithm    SignatureAlgorithm `json:"algorithm"`
	Hash         HashScheme         `json:"hash_scheme"`
}

// MessageApproval is the network's permission to sign one specific message.
// It is a one-shot value: the first SubmitSign call consumes it and any later
// use fails with ErrApprovalConsumed. Approvals are never persisted; an
// execution attempt that fails after approval simply requests a fresh one.
type MessageApproval struct {
	token    string
	digest   []byte
	consumed atomic.Bool
}

// NewMessageApproval wraps an approval token received from the network.
func NewMessageApproval(token string, digest []byte) *MessageApproval {
	return &MessageApproval{token: token, digest: digest}
}

// Digest returns the message digest the approval is bound to.
func (m *MessageApproval) Digest() []byte {
	return m.digest
}

// take hands out the token exactly once.
func (m *MessageApproval) take() (string, error) {
	if m == nil || m.token == "" {
		return "", errors.WithStack(ErrApprovalConsumed)
	}
	if !m.consumed.CompareAndSwap(false, true) {
		return "", errors.WithStack(ErrApprovalConsumed)
	}
	return m.token, nil
}

// SignSubmission hands a verified presign, a message approval and the fee
// payment to the network and opens a signing session.
type SignSubmission struct {
	DWalletID    string
	PresignID    string
	Approval     *MessageApproval
	SessionToken string
	Payment      Payment
}

// SignReceipt acknowledges a signing submission. The signature itself is
// produced asynchronously under the returned session ID.
type SignReceipt struct {
	SessionID string  `json:"session_id"`
	Consumed  Payment `json:"consumed"`
}

// SignatureResult is the state of a signing session. Signature and PublicKey
// are empty until Completed is true.
type SignatureResult struct {
	SessionID   string             `json:"session_id"`
	Completed   bool               `json:"completed"`
	Signature   []byte             `json:"signature,omitempty"`
	PublicKey   []byte             `json:"public_key,omitempty"`
	Algorithm   SignatureAlgorithm `json:"algorithm,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// Client is the signing-network surface the coordinator depends on.
type Client interface {
	// RequestPresign starts one presign computation and reports the fees it
	// consumed. The receipt's presign is not necessarily ready yet.
	RequestPresign(ctx context.Context, req *PresignRequest) (*PresignReceipt, error)

	// VerifyPresign confirms that a presign completed and still belongs to
	// the given wallet. Returns ErrPresignNotReady while the computation is
	// in flight.
	VerifyPresign(ctx context.Context, presignID string, dwalletID string) error

	// ApproveMessage obtains a single-use approval to sign the given message.
	ApproveMessage(ctx context.Context, req *ApprovalRequest) (*MessageApproval, error)

	// SubmitSign opens a signing session, consuming the approval and the
	// presign. It returns as soon as the network accepted the submission.
	SubmitSign(ctx context.Context, req *SignSubmission) (*SignReceipt, error)

	// GetSignature fetches the current state of a signing session.
	GetSignature(ctx context.Context, sessionID string) (*SignatureResult, error)
}
