package util_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-mpc-treasury/internal/api/httperrors"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	"github.com/kashguard/go-mpc-treasury/internal/util"
)

func newEchoContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func TestBindAndValidateBody(t *testing.T) {
	c, _ := newEchoContext(t, `{"token":"gas","amount":"250"}`)

	payload := &types.FundTreasuryPayload{}
	require.NoError(t, util.BindAndValidateBody(c, payload))
	assert.Equal(t, "gas", swag.StringValue(payload.Token))
	assert.EqualValues(t, 250, payload.AmountBaseUnits())
}

func TestBindAndValidateBody_InvalidField(t *testing.T) {
	c, _ := newEchoContext(t, `{"token":"credits","amount":"250"}`)

	err := util.BindAndValidateBody(c, &types.FundTreasuryPayload{})
	require.Error(t, err)

	validationErr, ok := err.(*httperrors.HTTPValidationError)
	require.True(t, ok, "expected HTTPValidationError, got %T", err)
	assert.EqualValues(t, http.StatusBadRequest, swag.Int64Value(validationErr.Code))
	assert.Equal(t, types.PublicHTTPErrorTypeValidationFailed, swag.StringValue(validationErr.Type))

	require.Len(t, validationErr.ValidationErrors, 1)
	assert.Equal(t, "token", swag.StringValue(validationErr.ValidationErrors[0].Key))
}

func TestBindAndValidateBody_CollectsAllFailures(t *testing.T) {
	c, _ := newEchoContext(t, `{}`)

	err := util.BindAndValidateBody(c, &types.FundTreasuryPayload{})
	require.Error(t, err)

	validationErr, ok := err.(*httperrors.HTTPValidationError)
	require.True(t, ok, "expected HTTPValidationError, got %T", err)

	keys := make([]string, 0, len(validationErr.ValidationErrors))
	for _, detail := range validationErr.ValidationErrors {
		keys = append(keys, swag.StringValue(detail.Key))
	}
	assert.ElementsMatch(t, []string{"token", "amount"}, keys)
}

func TestBindAndValidateBody_MalformedJSON(t *testing.T) {
	c, _ := newEchoContext(t, `{"token": "gas"`)

	err := util.BindAndValidateBody(c, &types.FundTreasuryPayload{})
	require.Error(t, err)

	httpErr, ok := err.(*httperrors.HTTPError)
	require.True(t, ok, "expected HTTPError, got %T", err)
	assert.EqualValues(t, http.StatusBadRequest, swag.Int64Value(httpErr.Code))
	assert.Equal(t, "Failed to parse request body", swag.StringValue(httpErr.Title))
}

func TestValidateAndReturn(t *testing.T) {
	c, rec := newEchoContext(t, "")

	response := &types.FundTreasuryPayload{Token: swag.String("gas"), Amount: swag.String("10")}
	require.NoError(t, util.ValidateAndReturn(c, http.StatusOK, response))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token":"gas"`)
}

func TestValidateAndReturn_RejectsInvalidPayload(t *testing.T) {
	c, rec := newEchoContext(t, "")

	// A half-populated response must never reach the client.
	err := util.ValidateAndReturn(c, http.StatusOK, &types.FundTreasuryPayload{})
	require.Error(t, err)
	assert.Empty(t, rec.Body.String())
}

func TestParseUint64Param(t *testing.T) {
	c, _ := newEchoContext(t, "")
	c.SetParamNames("request_id")
	c.SetParamValues("42")

	val, err := util.ParseUint64Param(c, "request_id")
	require.NoError(t, err)
	assert.EqualValues(t, 42, val)

	for _, raw := range []string{"abc", "-1", "1.5", ""} {
		c.SetParamValues(raw)
		_, err := util.ParseUint64Param(c, "request_id")
		require.Error(t, err, "raw %q", raw)

		httpErr, ok := err.(*httperrors.HTTPError)
		require.True(t, ok)
		assert.EqualValues(t, http.StatusBadRequest, swag.Int64Value(httpErr.Code))
	}
}
