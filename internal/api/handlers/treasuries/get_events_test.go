package treasuries_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/oracle"
	"github.com/kashguard/go-mpc-treasury/internal/test"
	"github.com/kashguard/go-mpc-treasury/internal/treasury"
)

func TestGetEvents_StreamsLifecycle(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, bundle *test.ServiceBundle) {
		created := createTreasuryViaAPI(t, s)
		token := test.AuthTokenForMember(t, s, "alice")

		ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
		defer cancel()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/treasuries/"+created.ID+"/events", nil).WithContext(ctx)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		// Publish two state changes once the stream is up. The handler only
		// returns when the request context ends, so the serve call below
		// blocks for the full window.
		publishErr := make(chan error, 2)
		go func() {
			time.Sleep(50 * time.Millisecond)

			_, err := bundle.Service.Fund(context.Background(), created.ID, treasury.FeeTokenGas, 25)
			publishErr <- err

			_, err = bundle.Service.CreateRequest(context.Background(), treasury.CreateRequestParams{
				TreasuryID: created.ID,
				Proposer:   "alice",
				Message:    []byte("pay invoice 42"),
				Algorithm:  oracle.AlgorithmECDSA,
				Hash:       oracle.HashSHA256,
			})
			publishErr <- err
		}()

		s.Echo.ServeHTTP(rec, req)

		require.NoError(t, <-publishErr)
		require.NoError(t, <-publishErr)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

		body := rec.Body.String()
		assert.Contains(t, body, "event: treasury_funded")
		assert.Contains(t, body, `"type":"treasury_funded"`)
		assert.Contains(t, body, "event: request_created")
		assert.Contains(t, body, `"request_id":1`)
		assert.Contains(t, body, `"treasury_id":"`+created.ID+`"`)
	})
}

func TestGetEvents_UnknownTreasury(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.ServiceBundle) {
		res := test.PerformRequest(t, s, http.MethodGet, "/api/v1/treasuries/treasury-missing/events", nil, authHeaders(t, s, "alice"))
		require.Equal(t, http.StatusNotFound, res.Code)
	})
}
