package treasuries_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/test"
	"github.com/kashguard/go-mpc-treasury/internal/types"
)

func TestPostVote_PromotesAtThreshold(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.ServiceBundle) {
		created := createTreasuryViaAPI(t, s)
		request := createSignRequestViaAPI(t, s, created.ID, "alice", "pay invoice 42")
		require.Equal(t, "created", request.State)

		// A rejection is recorded but does not block the request.
		afterReject := voteViaAPI(t, s, created.ID, request.ID, "carol", false)
		assert.Equal(t, "created", afterReject.State)
		assert.Equal(t, int64(1), afterReject.Approvals)
		assert.Equal(t, int64(1), afterReject.Rejections)

		afterApprove := voteViaAPI(t, s, created.ID, request.ID, "bob", true)
		assert.Equal(t, "executable", afterApprove.State)
		assert.Equal(t, int64(2), afterApprove.Approvals)
		assert.Equal(t, map[string]bool{"alice": true, "bob": true, "carol": false}, afterApprove.Votes)
	})
}

func TestPostVote_Rules(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.ServiceBundle) {
		created := createTreasuryViaAPI(t, s)
		request := createSignRequestViaAPI(t, s, created.ID, "alice", "pay invoice 42")
		path := fmt.Sprintf("/api/v1/treasuries/%s/requests/%d/votes", created.ID, request.ID)
		approve := &types.VotePayload{Approve: swag.Bool(true)}

		t.Run("proposer cannot vote twice", func(t *testing.T) {
			res := test.PerformRequest(t, s, http.MethodPost, path, approve, authHeaders(t, s, "alice"))
			require.Equal(t, http.StatusConflict, res.Code)

			var response types.PublicHTTPError
			test.ParseResponseBody(t, res, &response)
			assert.Equal(t, types.PublicHTTPErrorTypeConflict, swag.StringValue(response.Type))
			assert.Equal(t, "Member has already voted on this request", swag.StringValue(response.Title))
		})

		t.Run("votes are irrevocable", func(t *testing.T) {
			voteViaAPI(t, s, created.ID, request.ID, "carol", false)

			res := test.PerformRequest(t, s, http.MethodPost, path, approve, authHeaders(t, s, "carol"))
			require.Equal(t, http.StatusConflict, res.Code)
		})

		t.Run("non-member", func(t *testing.T) {
			res := test.PerformRequest(t, s, http.MethodPost, path, approve, authHeaders(t, s, "dave"))
			require.Equal(t, http.StatusForbidden, res.Code)
		})

		t.Run("missing approve flag", func(t *testing.T) {
			res := test.PerformRequest(t, s, http.MethodPost, path, &types.VotePayload{}, authHeaders(t, s, "bob"))
			require.Equal(t, http.StatusBadRequest, res.Code)

			var response types.PublicHTTPValidationError
			test.ParseResponseBody(t, res, &response)
			require.Len(t, response.ValidationErrors, 1)
			assert.Equal(t, "approve", swag.StringValue(response.ValidationErrors[0].Key))
		})

		t.Run("unknown request", func(t *testing.T) {
			missing := fmt.Sprintf("/api/v1/treasuries/%s/requests/99/votes", created.ID)

			res := test.PerformRequest(t, s, http.MethodPost, missing, approve, authHeaders(t, s, "bob"))
			require.Equal(t, http.StatusNotFound, res.Code)
		})
	})
}
