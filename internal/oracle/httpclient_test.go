package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPClient(baseURL string) *HTTPClient {
	return NewHTTPClient(HTTPClientConfig{
		BaseURL:       baseURL,
		APIKey:        "test-key",
		RetryAttempts: 1,
	})
}

func TestHTTPClient_RequestPresign(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/presigns", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		req := PresignRequest{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dw-1", req.DWalletID)
		assert.Equal(t, AlgorithmECDSA, req.Algorithm)
		assert.Equal(t, "token-1", req.SessionToken)
		assert.Equal(t, Payment{Protocol: 10, Gas: 5}, req.Payment)

		_ = json.NewEncoder(w).Encode(PresignReceipt{
			PresignID: "presign-7",
			Consumed:  Payment{Protocol: 3, Gas: 1},
		})
	}))
	defer server.Close()

	client := newTestHTTPClient(server.URL)
	receipt, err := client.RequestPresign(context.Background(), &PresignRequest{
		DWalletID:    "dw-1",
		Algorithm:    AlgorithmECDSA,
		SessionToken: "token-1",
		Payment:      Payment{Protocol: 10, Gas: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "presign-7", receipt.PresignID)
	assert.Equal(t, Payment{Protocol: 3, Gas: 1}, receipt.Consumed)
}

func TestHTTPClient_RetriesTransportFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(PresignReceipt{PresignID: "presign-1", Consumed: Payment{Protocol: 1, Gas: 1}})
	}))
	defer server.Close()

	client := NewHTTPClient(HTTPClientConfig{
		BaseURL:       server.URL,
		RetryAttempts: 3,
		RetryMaxDelay: 10 * time.Millisecond,
	})

	receipt, err := client.RequestPresign(context.Background(), &PresignRequest{DWalletID: "dw-1", Algorithm: AlgorithmECDSA, SessionToken: "t"})
	require.NoError(t, err)
	assert.Equal(t, "presign-1", receipt.PresignID)
	assert.EqualValues(t, 3, hits.Load())
}

func TestHTTPClient_DoesNotRetrySemanticRejections(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := NewHTTPClient(HTTPClientConfig{
		BaseURL:       server.URL,
		RetryAttempts: 5,
		RetryMaxDelay: 10 * time.Millisecond,
	})

	_, err := client.RequestPresign(context.Background(), &PresignRequest{DWalletID: "dw-1", Algorithm: AlgorithmECDSA, SessionToken: "t"})
	require.ErrorIs(t, err, ErrInsufficientFees)
	assert.EqualValues(t, 1, hits.Load())
}

func TestHTTPClient_VerifyPresign(t *testing.T) {
	ready := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/presigns/presign-1", r.URL.Path)
		assert.Equal(t, "dw-1", r.URL.Query().Get("dwallet_id"))
		_ = json.NewEncoder(w).Encode(map[string]bool{"ready": ready})
	}))
	defer server.Close()

	client := newTestHTTPClient(server.URL)
	require.NoError(t, client.VerifyPresign(context.Background(), "presign-1", "dw-1"))

	ready = false
	err := client.VerifyPresign(context.Background(), "presign-1", "dw-1")
	require.ErrorIs(t, err, ErrPresignNotReady)
}

func TestHTTPClient_ApproveMessage(t *testing.T) {
	token := "approval-9"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/approvals", r.URL.Path)

		req := ApprovalRequest{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cap-1", req.CapabilityID)
		assert.Equal(t, HashKeccak256, req.Hash)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"approval_token": token,
			"digest":         []byte("digest-bytes"),
		})
	}))
	defer server.Close()

	client := newTestHTTPClient(server.URL)
	approval, err := client.ApproveMessage(context.Background(), &ApprovalRequest{
		CapabilityID: "cap-1",
		DWalletID:    "dw-1",
		Message:      []byte("payload"),
		Algorithm:    AlgorithmECDSA,
		Hash:         HashKeccak256,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("digest-bytes"), approval.Digest())

	// An empty token in an otherwise successful response is a rejection.
	token = ""
	_, err = client.ApproveMessage(context.Background(), &ApprovalRequest{CapabilityID: "cap-1"})
	require.ErrorIs(t, err, ErrApprovalRejected)
}

func TestHTTPClient_SubmitSignConsumesApproval(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/v1/sign", r.URL.Path)

		body := struct {
			ApprovalToken string `json:"approval_token"`
			SessionToken  string `json:"session_token"`
		}{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "approval-1", body.ApprovalToken)
		assert.Equal(t, "session-token-1", body.SessionToken)

		_ = json.NewEncoder(w).Encode(SignReceipt{SessionID: "session-9", Consumed: Payment{Protocol: 2, Gas: 2}})
	}))
	defer server.Close()

	client := newTestHTTPClient(server.URL)
	submission := &SignSubmission{
		DWalletID:    "dw-1",
		PresignID:    "presign-1",
		Approval:     NewMessageApproval("approval-1", []byte("d")),
		SessionToken: "session-token-1",
		Payment:      Payment{Protocol: 5, Gas: 5},
	}

	receipt, err := client.SubmitSign(context.Background(), submission)
	require.NoError(t, err)
	assert.Equal(t, "session-9", receipt.SessionID)

	// The approval was burned locally; a second submission never reaches the
	// network.
	_, err = client.SubmitSign(context.Background(), submission)
	require.ErrorIs(t, err, ErrApprovalConsumed)
	assert.EqualValues(t, 1, hits.Load())
}

func TestHTTPClient_GetSignature(t *testing.T) {
	completedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/sessions/session-9", r.URL.Path)
		_ = json.NewEncoder(w).Encode(SignatureResult{
			SessionID:   "session-9",
			Completed:   true,
			Signature:   []byte("sig"),
			Algorithm:   AlgorithmECDSA,
			CompletedAt: &completedAt,
		})
	}))
	defer server.Close()

	client := newTestHTTPClient(server.URL)
	result, err := client.GetSignature(context.Background(), "session-9")
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, []byte("sig"), result.Signature)
	require.NotNil(t, result.CompletedAt)
	assert.Equal(t, completedAt, result.CompletedAt.UTC())
}

func TestHTTPClient_MapsErrorEnvelopes(t *testing.T) {
	status := http.StatusBadRequest
	envelope := ""
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		if envelope != "" {
			_, _ = w.Write([]byte(envelope))
		}
	}))
	defer server.Close()

	client := newTestHTTPClient(server.URL)
	ctx := context.Background()

	// The machine-readable code wins over the status.
	envelope = `{"code":"insufficient_fees","error":"fund the treasury"}`
	_, err := client.RequestPresign(ctx, &PresignRequest{DWalletID: "dw-1"})
	require.ErrorIs(t, err, ErrInsufficientFees)

	envelope = `{"code":"approval_rejected"}`
	_, err = client.ApproveMessage(ctx, &ApprovalRequest{CapabilityID: "cap-1"})
	require.ErrorIs(t, err, ErrApprovalRejected)

	envelope = `{"code":"presign_not_ready"}`
	err = client.VerifyPresign(ctx, "presign-1", "dw-1")
	require.ErrorIs(t, err, ErrPresignNotReady)

	// Without a code the status decides.
	envelope = ""
	status = http.StatusNotFound
	_, err = client.GetSignature(ctx, "session-unknown")
	require.ErrorIs(t, err, ErrSessionNotFound)

	status = http.StatusConflict
	err = client.VerifyPresign(ctx, "presign-1", "dw-1")
	require.ErrorIs(t, err, ErrPresignNotReady)

	// Anything else surfaces the server's message.
	status = http.StatusBadRequest
	envelope = `{"error":"capability mismatch"}`
	_, err = client.RequestPresign(ctx, &PresignRequest{DWalletID: "dw-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capability mismatch")
	assert.False(t, IsRetryable(err))
}

func TestHTTPClient_UnreachableHostIsUnavailable(t *testing.T) {
	client := NewHTTPClient(HTTPClientConfig{
		BaseURL:       "http://127.0.0.1:1",
		RetryAttempts: 1,
	})

	_, err := client.RequestPresign(context.Background(), &PresignRequest{DWalletID: "dw-1"})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, IsRetryable(err))
}
