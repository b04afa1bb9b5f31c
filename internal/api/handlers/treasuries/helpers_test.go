package treasuries_test

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/test"
	"github.com/kashguard/go-mpc-treasury/internal/types"
)

// createTreasuryViaAPI drives the public create endpoint with the standing
// member fixture and returns the rendered treasury.
func createTreasuryViaAPI(t *testing.T, s *api.Server) *types.TreasuryResponse {
	t.Helper()

	_, publicKey := test.NewWalletKey(t)
	return createTreasuryViaAPIWithKey(t, s, publicKey)
}

func createTreasuryViaAPIWithKey(t *testing.T, s *api.Server, publicKey []byte) *types.TreasuryResponse {
	t.Helper()

	payload := &types.CreateTreasuryPayload{
		CapabilityID:        swag.String("cap-api"),
		DWalletID:           swag.String("dw-api"),
		PublicKey:           swag.String(hex.EncodeToString(publicKey)),
		Members:             test.TestMembers,
		Threshold:           swag.Int64(int64(test.TestThreshold)),
		EncryptionKeyID:     "enc-key-1",
		InitialProtocolFees: "1000",
		InitialGasFees:      "1000",
	}

	res := test.PerformRequest(t, s, http.MethodPost, "/api/v1/treasuries", payload, authHeaders(t, s, "alice"))
	require.Equal(t, http.StatusCreated, res.Code, "create treasury: %s", res.Body.String())

	var response types.TreasuryResponse
	test.ParseResponseBody(t, res, &response)

	return &response
}

// createSignRequestViaAPI proposes a message as the member and returns the
// rendered request, which already carries the proposer's approval.
func createSignRequestViaAPI(t *testing.T, s *api.Server, treasuryID string, member string, message string) *types.SignRequestResponse {
	t.Helper()

	encoded := strfmt.Base64([]byte(message))
	payload := &types.CreateSignRequestPayload{
		Message:    &encoded,
		Algorithm:  swag.String("ecdsa"),
		HashScheme: swag.String("sha256"),
	}

	res := test.PerformRequest(t, s, http.MethodPost, "/api/v1/treasuries/"+treasuryID+"/requests", payload, authHeaders(t, s, member))
	require.Equal(t, http.StatusCreated, res.Code, "create sign request: %s", res.Body.String())

	var response types.SignRequestResponse
	test.ParseResponseBody(t, res, &response)

	return &response
}

func voteViaAPI(t *testing.T, s *api.Server, treasuryID string, requestID uint64, member string, approve bool) *types.SignRequestResponse {
	t.Helper()

	payload := &types.VotePayload{Approve: swag.Bool(approve)}

	res := test.PerformRequest(t, s, http.MethodPost, fmt.Sprintf("/api/v1/treasuries/%s/requests/%d/votes", treasuryID, requestID), payload, authHeaders(t, s, member))
	require.Equal(t, http.StatusOK, res.Code, "vote: %s", res.Body.String())

	var response types.SignRequestResponse
	test.ParseResponseBody(t, res, &response)

	return &response
}

// executableSignRequest proposes a request as alice and approves it as bob,
// bringing it to the two-vote threshold.
func executableSignRequest(t *testing.T, s *api.Server, treasuryID string) *types.SignRequestResponse {
	t.Helper()

	req := createSignRequestViaAPI(t, s, treasuryID, "alice", "rotate validator set")
	return voteViaAPI(t, s, treasuryID, req.ID, "bob", true)
}

func authHeaders(t *testing.T, s *api.Server, member string) http.Header {
	t.Helper()
	return test.HeadersWithAuth(t, test.AuthTokenForMember(t, s, member))
}
