package treasuries_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/oracle"
	"github.com/kashguard/go-mpc-treasury/internal/test"
	"github.com/kashguard/go-mpc-treasury/internal/types"
)

func TestPostExecute(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.ServiceBundle) {
		created := createTreasuryViaAPI(t, s)
		request := executableSignRequest(t, s, created.ID)
		path := fmt.Sprintf("/api/v1/treasuries/%s/requests/%d/execute", created.ID, request.ID)

		res := test.PerformRequest(t, s, http.MethodPost, path, nil, authHeaders(t, s, "carol"))
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())

		var response types.SignRequestResponse
		test.ParseResponseBody(t, res, &response)

		assert.Equal(t, "executed", response.State)
		assert.Equal(t, "session-1", response.SessionID)
		require.NotNil(t, response.ExecutedAt)

		// Submitting the sign charged the sign fee on top of seeding and the
		// pool replenishment triggered by the request.
		treasuryRes := test.PerformRequest(t, s, http.MethodGet, "/api/v1/treasuries/"+created.ID, nil, authHeaders(t, s, "carol"))
		require.Equal(t, http.StatusOK, treasuryRes.Code)

		var after types.TreasuryResponse
		test.ParseResponseBody(t, treasuryRes, &after)
		assert.Equal(t, "995", after.ProtocolBalance)
		assert.Equal(t, "995", after.GasBalance)

		t.Run("re-execution conflicts", func(t *testing.T) {
			res := test.PerformRequest(t, s, http.MethodPost, path, nil, authHeaders(t, s, "carol"))
			require.Equal(t, http.StatusConflict, res.Code)

			var response types.PublicHTTPError
			test.ParseResponseBody(t, res, &response)
			assert.Equal(t, "Request has already been executed", swag.StringValue(response.Title))
		})

		t.Run("voting after execution conflicts", func(t *testing.T) {
			votePath := fmt.Sprintf("/api/v1/treasuries/%s/requests/%d/votes", created.ID, request.ID)
			payload := &types.VotePayload{Approve: swag.Bool(false)}

			res := test.PerformRequest(t, s, http.MethodPost, votePath, payload, authHeaders(t, s, "carol"))
			require.Equal(t, http.StatusConflict, res.Code)
		})
	})
}

func TestPostExecute_RequiresThresholdAndMembership(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.ServiceBundle) {
		created := createTreasuryViaAPI(t, s)
		request := createSignRequestViaAPI(t, s, created.ID, "alice", "pay invoice 42")
		path := fmt.Sprintf("/api/v1/treasuries/%s/requests/%d/execute", created.ID, request.ID)

		t.Run("below threshold", func(t *testing.T) {
			res := test.PerformRequest(t, s, http.MethodPost, path, nil, authHeaders(t, s, "alice"))
			require.Equal(t, http.StatusConflict, res.Code)

			var response types.PublicHTTPError
			test.ParseResponseBody(t, res, &response)
			assert.Equal(t, "Request has not reached the approval threshold", swag.StringValue(response.Title))
		})

		t.Run("non-member", func(t *testing.T) {
			res := test.PerformRequest(t, s, http.MethodPost, path, nil, authHeaders(t, s, "dave"))
			require.Equal(t, http.StatusForbidden, res.Code)
		})
	})
}

func TestPostExecute_OracleOutageIsRetryable(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, bundle *test.ServiceBundle) {
		created := createTreasuryViaAPI(t, s)
		request := executableSignRequest(t, s, created.ID)
		path := fmt.Sprintf("/api/v1/treasuries/%s/requests/%d/execute", created.ID, request.ID)

		bundle.Oracle.SubmitErr = oracle.ErrUnavailable

		res := test.PerformRequest(t, s, http.MethodPost, path, nil, authHeaders(t, s, "alice"))
		require.Equal(t, http.StatusBadGateway, res.Code, res.Body.String())

		var response types.PublicHTTPError
		test.ParseResponseBody(t, res, &response)
		assert.Equal(t, types.PublicHTTPErrorTypeRetryable, swag.StringValue(response.Type))

		// The failure left the request executable; clearing the outage lets
		// the same call succeed.
		bundle.Oracle.SubmitErr = nil

		res = test.PerformRequest(t, s, http.MethodPost, path, nil, authHeaders(t, s, "alice"))
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())

		var executed types.SignRequestResponse
		test.ParseResponseBody(t, res, &executed)
		assert.Equal(t, "executed", executed.State)
		assert.Equal(t, "session-1", executed.SessionID)
	})
}

func TestPostExecute_PresignNotReady(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, bundle *test.ServiceBundle) {
		created := createTreasuryViaAPI(t, s)
		request := executableSignRequest(t, s, created.ID)
		path := fmt.Sprintf("/api/v1/treasuries/%s/requests/%d/execute", created.ID, request.ID)

		bundle.Oracle.VerifyErr = oracle.ErrPresignNotReady

		res := test.PerformRequest(t, s, http.MethodPost, path, nil, authHeaders(t, s, "bob"))
		require.Equal(t, http.StatusServiceUnavailable, res.Code, res.Body.String())

		var response types.PublicHTTPError
		test.ParseResponseBody(t, res, &response)
		assert.Equal(t, types.PublicHTTPErrorTypeRetryable, swag.StringValue(response.Type))
		assert.Equal(t, "Reserved presign is not ready yet, retry shortly", swag.StringValue(response.Title))
	})
}
