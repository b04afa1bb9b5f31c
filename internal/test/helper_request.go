package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-mpc-treasury/internal/api"
)

// PerformRequest serves one request through the server's echo handler and
// returns the recorded response. A non-nil body is JSON encoded.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body interface{}, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}

// ParseResponseBody decodes the recorded JSON response body into v.
func ParseResponseBody(t *testing.T, res *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), v), "response body: %s", res.Body.String())
}

// AuthTokenForMember issues a bearer token for the member on the server's
// own JWT manager.
func AuthTokenForMember(t *testing.T, s *api.Server, member string) string {
	t.Helper()

	token, err := s.JWT.Generate(member)
	require.NoError(t, err)
	return token
}

// HeadersWithAuth returns headers carrying the bearer token.
func HeadersWithAuth(t *testing.T, token string) http.Header {
	t.Helper()

	headers := http.Header{}
	headers.Set(echo.HeaderAuthorization, "Bearer "+token)
	return headers
}
