package treasury_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	sdk "github.com/kashguard/go-mpc-treasury/pkg/sdk/treasury"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type coordinatorStub struct {
	t               *testing.T
	treasury        types.TreasuryResponse
	getTreasuryHits int64
	lastWaitParam   string
}

func (c *coordinatorStub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/treasuries", func(w http.ResponseWriter, r *http.Request) {
		var payload types.CreateTreasuryPayload
		require.NoError(c.t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(c.t, "cap-1", swag.StringValue(payload.CapabilityID))

		w.WriteHeader(http.StatusCreated)
		c.writeJSON(w, c.treasury)
	})
	mux.HandleFunc("GET /api/v1/treasuries/{id}", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&c.getTreasuryHits, 1)
		c.writeJSON(w, c.treasury)
	})
	mux.HandleFunc("POST /api/v1/treasuries/{id}/fund", func(w http.ResponseWriter, r *http.Request) {
		c.treasury.GasBalance = "2000"
		c.treasury.Version++
		c.writeJSON(w, c.treasury)
	})
	mux.HandleFunc("POST /api/v1/treasuries/{id}/requests", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		c.writeJSON(w, c.request("created", 1))
	})
	mux.HandleFunc("POST /api/v1/treasuries/{id}/requests/{reqID}/votes", func(w http.ResponseWriter, r *http.Request) {
		var payload types.VotePayload
		require.NoError(c.t, json.NewDecoder(r.Body).Decode(&payload))
		assert.True(c.t, swag.BoolValue(payload.Approve))

		c.writeJSON(w, c.request("executable", 2))
	})
	mux.HandleFunc("POST /api/v1/treasuries/{id}/requests/{reqID}/execute", func(w http.ResponseWriter, r *http.Request) {
		res := c.request("executed", 2)
		res.SessionID = "sess-1"
		c.writeJSON(w, res)
	})
	mux.HandleFunc("GET /api/v1/treasuries/{id}/requests/{reqID}/signature", func(w http.ResponseWriter, r *http.Request) {
		c.lastWaitParam = r.URL.Query().Get("wait")
		c.writeJSON(w, types.SignatureResponse{
			SessionID: "sess-1",
			Completed: true,
			Signature: strfmt.Base64("signature-bytes"),
		})
	})

	// Every request must carry the member bearer token.
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(c.t, "Bearer member-token", r.Header.Get("Authorization"))
		mux.ServeHTTP(w, r)
	})
}

func (c *coordinatorStub) request(state string, approvals int64) *types.SignRequestResponse {
	return &types.SignRequestResponse{
		ID:         1,
		TreasuryID: c.treasury.ID,
		Message:    strfmt.Base64("pay the auditors"),
		Algorithm:  "ecdsa_secp256k1",
		HashScheme: "sha256",
		Proposer:   "alice",
		State:      state,
		Approvals:  approvals,
		Threshold:  2,
	}
}

func (c *coordinatorStub) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	require.NoError(c.t, json.NewEncoder(w).Encode(v))
}

func TestClientLifecycle(t *testing.T) {
	stub := &coordinatorStub{
		t: t,
		treasury: types.TreasuryResponse{
			ID:         "tr-1",
			DWalletID:  "dw-1",
			PublicKey:  "02c0ffee",
			Curve:      "secp256k1",
			Members:    []string{"alice", "bob", "carol"},
			Threshold:  2,
			GasBalance: "1000",
			Version:    1,
		},
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	client := sdk.NewClient(sdk.Config{
		BaseURL:  srv.URL,
		Token:    "member-token",
		CacheTTL: time.Minute,
	})

	ctx := context.Background()

	created, err := client.CreateTreasury(ctx, &types.CreateTreasuryPayload{
		CapabilityID: swag.String("cap-1"),
		DWalletID:    swag.String("dw-1"),
		PublicKey:    swag.String("02c0ffee"),
		Members:      []string{"alice", "bob", "carol"},
		Threshold:    swag.Int64(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "tr-1", created.ID)

	// Two consecutive reads hit the server once.
	first, err := client.Treasury(ctx, "tr-1")
	require.NoError(t, err)
	second, err := client.Treasury(ctx, "tr-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt64(&stub.getTreasuryHits))

	// A mutation drops the cached entry, so the next read is fresh.
	funded, err := client.Fund(ctx, "tr-1", &types.FundTreasuryPayload{
		Token:  swag.String("gas"),
		Amount: swag.String("1000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2000", funded.GasBalance)

	fresh, err := client.Treasury(ctx, "tr-1")
	require.NoError(t, err)
	assert.Equal(t, "2000", fresh.GasBalance)
	assert.EqualValues(t, 2, atomic.LoadInt64(&stub.getTreasuryHits))

	message := strfmt.Base64("pay the auditors")
	req, err := client.CreateRequest(ctx, "tr-1", &types.CreateSignRequestPayload{
		Message:    &message,
		Algorithm:  swag.String("ecdsa_secp256k1"),
		HashScheme: swag.String("sha256"),
	})
	require.NoError(t, err)
	assert.Equal(t, "created", req.State)

	voted, err := client.Vote(ctx, "tr-1", req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "executable", voted.State)

	executed, err := client.Execute(ctx, "tr-1", req.ID)
	require.NoError(t, err)
	assert.Equal(t, "executed", executed.State)
	assert.Equal(t, "sess-1", executed.SessionID)

	sig, err := client.Signature(ctx, "tr-1", req.ID, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, sig.Completed)
	assert.Equal(t, strfmt.Base64("signature-bytes"), sig.Signature)
	assert.Equal(t, "5s", stub.lastWaitParam)
}

func TestClientDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/v1/treasuries/missing":
			w.WriteHeader(http.StatusNotFound)
			err := types.NewPublicHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeNotFound, "Treasury not found")
			require.NoError(t, json.NewEncoder(w).Encode(err))
		case "/api/v1/treasuries/busy":
			w.WriteHeader(http.StatusConflict)
			err := types.NewPublicHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeRetryable, "Treasury busy")
			require.NoError(t, json.NewEncoder(w).Encode(err))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client := sdk.NewClient(sdk.Config{BaseURL: srv.URL})
	ctx := context.Background()

	_, err := client.Treasury(ctx, "missing")
	require.Error(t, err)

	var apiErr *sdk.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, types.PublicHTTPErrorTypeNotFound, apiErr.Type)
	assert.Equal(t, "Treasury not found", apiErr.Title)
	assert.False(t, apiErr.IsRetryable())

	_, err = client.Treasury(ctx, "busy")
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsRetryable())
}
