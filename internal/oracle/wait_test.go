package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pollClient scripts GetSignature for wait tests; the other calls are never
// reached.
type pollClient struct {
	polls int
	get   func(polls int) (*SignatureResult, error)
}

func (c *pollClient) GetSignature(_ context.Context, sessionID string) (*SignatureResult, error) {
	c.polls++
	return c.get(c.polls)
}

func (c *pollClient) RequestPresign(context.Context, *PresignRequest) (*PresignReceipt, error) {
	panic("not used")
}

func (c *pollClient) VerifyPresign(context.Context, string, string) error {
	panic("not used")
}

func (c *pollClient) ApproveMessage(context.Context, *ApprovalRequest) (*MessageApproval, error) {
	panic("not used")
}

func (c *pollClient) SubmitSign(context.Context, *SignSubmission) (*SignReceipt, error) {
	panic("not used")
}

func TestWaitForSignature_CompletesAfterPolls(t *testing.T) {
	client := &pollClient{get: func(polls int) (*SignatureResult, error) {
		if polls < 3 {
			return &SignatureResult{SessionID: "session-1"}, nil
		}
		return &SignatureResult{SessionID: "session-1", Completed: true, Signature: []byte("sig")}, nil
	}}

	result, err := WaitForSignature(context.Background(), client, "session-1", 2*time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, []byte("sig"), result.Signature)
	assert.Equal(t, 3, client.polls)
}

func TestWaitForSignature_TimesOut(t *testing.T) {
	client := &pollClient{get: func(int) (*SignatureResult, error) {
		return &SignatureResult{SessionID: "session-1"}, nil
	}}

	_, err := WaitForSignature(context.Background(), client, "session-1", 50*time.Millisecond, 10*time.Millisecond)
	require.ErrorIs(t, err, ErrWaitTimeout)
	assert.GreaterOrEqual(t, client.polls, 1)
}

func TestWaitForSignature_ContinuesThroughTransientErrors(t *testing.T) {
	client := &pollClient{get: func(polls int) (*SignatureResult, error) {
		if polls == 1 {
			return nil, ErrUnavailable
		}
		return &SignatureResult{SessionID: "session-1", Completed: true}, nil
	}}

	result, err := WaitForSignature(context.Background(), client, "session-1", 2*time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, 2, client.polls)
}

func TestWaitForSignature_AbortsOnPermanentError(t *testing.T) {
	client := &pollClient{get: func(int) (*SignatureResult, error) {
		return nil, ErrSessionNotFound
	}}

	_, err := WaitForSignature(context.Background(), client, "session-1", 2*time.Second, 10*time.Millisecond)
	require.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 1, client.polls)
}

func TestWaitForSignature_ContextCancellation(t *testing.T) {
	client := &pollClient{get: func(int) (*SignatureResult, error) {
		return &SignatureResult{SessionID: "session-1"}, nil
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	_, err := WaitForSignature(ctx, client, "session-1", 10*time.Second, 10*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
