package test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/kashguard/go-mpc-treasury/internal/oracle"
)

// ScriptedOracle is an in-memory signing network for tests. Fees, failures
// and session completion are scripted by the test; everything else follows
// the real network's contract, including idempotent session tokens and fee
// checks against the offered payment.
type ScriptedOracle struct {
	mu sync.Mutex

	// PresignFee and SignFee are consumed per successful call. An offer that
	// does not cover them fails with ErrInsufficientFees.
	PresignFee oracle.Payment
	SignFee    oracle.Payment

	// Scripted failures. Each is checked on the matching call; AllowPresigns
	// lets that many RequestPresign calls succeed before PresignErr applies.
	PresignErr    error
	AllowPresigns int
	VerifyErr     error
	ApproveErr    error
	SubmitErr     error

	presignSeq int
	approveSeq int
	sessionSeq int

	presigns        map[string]oracle.SignatureAlgorithm
	presignByToken  map[string]*oracle.PresignReceipt
	receiptByToken  map[string]*oracle.SignReceipt
	sessions        map[string]*oracle.SignatureResult
	calls           []string
	presignRequests int
}

var _ oracle.Client = (*ScriptedOracle)(nil)

// NewScriptedOracle returns a ScriptedOracle charging one base unit of each
// token per call, which keeps fee arithmetic visible in assertions.
func NewScriptedOracle() *ScriptedOracle {
	return &ScriptedOracle{
		PresignFee:     oracle.Payment{Protocol: 1, Gas: 1},
		SignFee:        oracle.Payment{Protocol: 2, Gas: 2},
		presigns:       map[string]oracle.SignatureAlgorithm{},
		presignByToken: map[string]*oracle.PresignReceipt{},
		receiptByToken: map[string]*oracle.SignReceipt{},
		sessions:       map[string]*oracle.SignatureResult{},
	}
}

func (o *ScriptedOracle) RequestPresign(_ context.Context, req *oracle.PresignRequest) (*oracle.PresignReceipt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.record("request_presign")
	o.presignRequests++

	if receipt, ok := o.presignByToken[req.SessionToken]; ok {
		return receipt, nil
	}

	if o.PresignErr != nil {
		if o.AllowPresigns > 0 {
			o.AllowPresigns--
		} else {
			return nil, o.PresignErr
		}
	}
	if req.Payment.Protocol < o.PresignFee.Protocol || req.Payment.Gas < o.PresignFee.Gas {
		return nil, errors.WithStack(oracle.ErrInsufficientFees)
	}

	o.presignSeq++
	receipt := &oracle.PresignReceipt{
		PresignID: fmt.Sprintf("presign-%d", o.presignSeq),
		Consumed:  o.PresignFee,
	}
	o.presigns[receipt.PresignID] = req.Algorithm
	o.presignByToken[req.SessionToken] = receipt

	return receipt, nil
}

func (o *ScriptedOracle) VerifyPresign(_ context.Context, presignID string, _ string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.record("verify_presign")

	if o.VerifyErr != nil {
		return o.VerifyErr
	}
	if _, ok := o.presigns[presignID]; !ok {
		return errors.Errorf("unknown presign %s", presignID)
	}

	return nil
}

func (o *ScriptedOracle) ApproveMessage(_ context.Context, req *oracle.ApprovalRequest) (*oracle.MessageApproval, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.record("approve_message")

	if o.ApproveErr != nil {
		return nil, o.ApproveErr
	}

	o.approveSeq++
	return oracle.NewMessageApproval(fmt.Sprintf("approval-%d", o.approveSeq), req.Message), nil
}

func (o *ScriptedOracle) SubmitSign(_ context.Context, req *oracle.SignSubmission) (*oracle.SignReceipt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.record("submit_sign")

	if receipt, ok := o.receiptByToken[req.SessionToken]; ok {
		return receipt, nil
	}

	if o.SubmitErr != nil {
		return nil, o.SubmitErr
	}
	if req.Approval == nil {
		return nil, errors.WithStack(oracle.ErrApprovalConsumed)
	}
	if req.Payment.Protocol < o.SignFee.Protocol || req.Payment.Gas < o.SignFee.Gas {
		return nil, errors.WithStack(oracle.ErrInsufficientFees)
	}

	o.sessionSeq++
	sessionID := fmt.Sprintf("session-%d", o.sessionSeq)
	o.sessions[sessionID] = &oracle.SignatureResult{SessionID: sessionID}

	receipt := &oracle.SignReceipt{SessionID: sessionID, Consumed: o.SignFee}
	o.receiptByToken[req.SessionToken] = receipt

	return receipt, nil
}

func (o *ScriptedOracle) GetSignature(_ context.Context, sessionID string) (*oracle.SignatureResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.record("get_signature")

	result, ok := o.sessions[sessionID]
	if !ok {
		return nil, errors.Wrapf(oracle.ErrSessionNotFound, "session %s", sessionID)
	}

	out := *result
	return &out, nil
}

// CompleteSession scripts the asynchronous completion of a signing session.
func (o *ScriptedOracle) CompleteSession(sessionID string, signature []byte, publicKey []byte, algo oracle.SignatureAlgorithm) {
	o.mu.Lock()
	defer o.mu.Unlock()

	result, ok := o.sessions[sessionID]
	if !ok {
		return
	}

	now := time.Now().UTC()
	result.Completed = true
	result.Signature = signature
	result.PublicKey = publicKey
	result.Algorithm = algo
	result.CompletedAt = &now
}

// Calls returns the recorded call names in order.
func (o *ScriptedOracle) Calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]string, len(o.calls))
	copy(out, o.calls)
	return out
}

// PresignRequests returns how many RequestPresign calls were made, counting
// idempotent replays.
func (o *ScriptedOracle) PresignRequests() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.presignRequests
}

func (o *ScriptedOracle) record(call string) {
	o.calls = append(o.calls, call)
}
