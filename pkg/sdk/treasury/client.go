// Package treasury is the HTTP client for the treasury coordinator API.
package treasury

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	cache "github.com/Code-Hex/go-generics-cache"
	"github.com/go-openapi/swag"
	"github.com/kashguard/go-mpc-treasury/internal/types"
)

// Config configures the SDK client.
type Config struct {
	// BaseURL is the coordinator's root URL, e.g. http://localhost:8080.
	BaseURL string
	// Token is the member bearer token.
	Token string
	// HTTPClient defaults to a client with a 30s timeout. Long polls via
	// WaitForSignature extend the per-request deadline through ctx.
	HTTPClient *http.Client
	// CacheTTL bounds how long treasury reads may be served from the local
	// cache. Zero disables read caching.
	CacheTTL time.Duration
}

// Client talks to the coordinator. Treasury reads are cached briefly;
// every successful mutation drops the cached entry for that treasury.
type Client struct {
	baseURL    string
	token      string
	httpc      *http.Client
	cacheTTL   time.Duration
	treasuries *cache.Cache[string, *types.TreasuryResponse]
}

// NewClient assembles a Client from the config.
func NewClient(config Config) *Client {
	httpc := config.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    config.BaseURL,
		token:      config.Token,
		httpc:      httpc,
		cacheTTL:   config.CacheTTL,
		treasuries: cache.New[string, *types.TreasuryResponse](),
	}
}

// APIError is a non-2xx response decoded into its public error payload.
type APIError struct {
	StatusCode int
	Type       string
	Title      string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s (%s)", e.StatusCode, e.Type, e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Type, e.Title)
}

// IsRetryable reports whether the server marked the failure as retryable.
func (e *APIError) IsRetryable() bool {
	return e.Type == types.PublicHTTPErrorTypeRetryable
}

// CreateTreasury establishes a new treasury.
func (c *Client) CreateTreasury(ctx context.Context, payload *types.CreateTreasuryPayload) (*types.TreasuryResponse, error) {
	var out types.TreasuryResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/treasuries", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Treasury fetches one treasury, served from the local cache within the
// configured TTL.
func (c *Client) Treasury(ctx context.Context, treasuryID string) (*types.TreasuryResponse, error) {
	if c.cacheTTL > 0 {
		if t, ok := c.treasuries.Get(treasuryID); ok {
			return t, nil
		}
	}

	var out types.TreasuryResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/treasuries/"+url.PathEscape(treasuryID), nil, &out); err != nil {
		return nil, err
	}

	if c.cacheTTL > 0 {
		c.treasuries.Set(treasuryID, &out, cache.WithExpiration(c.cacheTTL))
	}

	return &out, nil
}

// Treasuries pages through all treasuries.
func (c *Client) Treasuries(ctx context.Context, limit int, offset int) ([]*types.TreasuryResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}

	path := "/api/v1/treasuries"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out types.TreasuryListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Treasuries, nil
}

// Fund deposits fees into one of the treasury's balances.
func (c *Client) Fund(ctx context.Context, treasuryID string, payload *types.FundTreasuryPayload) (*types.TreasuryResponse, error) {
	var out types.TreasuryResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/treasuries/"+url.PathEscape(treasuryID)+"/fund", payload, &out); err != nil {
		return nil, err
	}
	c.invalidate(treasuryID)
	return &out, nil
}

// AddPresigns requests new presigns for the treasury's pool.
func (c *Client) AddPresigns(ctx context.Context, treasuryID string, payload *types.AddPresignsPayload) (*types.TreasuryResponse, error) {
	var out types.TreasuryResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/treasuries/"+url.PathEscape(treasuryID)+"/presigns", payload, &out); err != nil {
		return nil, err
	}
	c.invalidate(treasuryID)
	return &out, nil
}

// RotateEncryptionKey points the treasury at a new network encryption key.
func (c *Client) RotateEncryptionKey(ctx context.Context, treasuryID string, payload *types.RotateEncryptionKeyPayload) (*types.TreasuryResponse, error) {
	var out types.TreasuryResponse
	if err := c.do(ctx, http.MethodPut, "/api/v1/treasuries/"+url.PathEscape(treasuryID)+"/encryption-key", payload, &out); err != nil {
		return nil, err
	}
	c.invalidate(treasuryID)
	return &out, nil
}

// Addresses derives the treasury's on-chain addresses.
func (c *Client) Addresses(ctx context.Context, treasuryID string) (*types.AddressesResponse, error) {
	var out types.AddressesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/treasuries/"+url.PathEscape(treasuryID)+"/addresses", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRequest proposes a message for signing.
func (c *Client) CreateRequest(ctx context.Context, treasuryID string, payload *types.CreateSignRequestPayload) (*types.SignRequestResponse, error) {
	var out types.SignRequestResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/treasuries/"+url.PathEscape(treasuryID)+"/requests", payload, &out); err != nil {
		return nil, err
	}
	c.invalidate(treasuryID)
	return &out, nil
}

// Requests lists the treasury's sign requests, optionally filtered by state.
func (c *Client) Requests(ctx context.Context, treasuryID string, state string) ([]*types.SignRequestResponse, error) {
	path := "/api/v1/treasuries/" + url.PathEscape(treasuryID) + "/requests"
	if state != "" {
		path += "?state=" + url.QueryEscape(state)
	}

	var out types.SignRequestListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Requests, nil
}

// Request fetches one sign request.
func (c *Client) Request(ctx context.Context, treasuryID string, requestID uint64) (*types.SignRequestResponse, error) {
	var out types.SignRequestResponse
	if err := c.do(ctx, http.MethodGet, c.requestPath(treasuryID, requestID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Vote casts an irrevocable approve/reject vote.
func (c *Client) Vote(ctx context.Context, treasuryID string, requestID uint64, approve bool) (*types.SignRequestResponse, error) {
	var out types.SignRequestResponse
	if err := c.do(ctx, http.MethodPost, c.requestPath(treasuryID, requestID)+"/votes", &types.VotePayload{Approve: swag.Bool(approve)}, &out); err != nil {
		return nil, err
	}
	c.invalidate(treasuryID)
	return &out, nil
}

// Execute submits an executable request to the signing network.
func (c *Client) Execute(ctx context.Context, treasuryID string, requestID uint64) (*types.SignRequestResponse, error) {
	var out types.SignRequestResponse
	if err := c.do(ctx, http.MethodPost, c.requestPath(treasuryID, requestID)+"/execute", nil, &out); err != nil {
		return nil, err
	}
	c.invalidate(treasuryID)
	return &out, nil
}

// Signature fetches the signing session state of an executed request. A
// positive wait long-polls on the server side.
func (c *Client) Signature(ctx context.Context, treasuryID string, requestID uint64, wait time.Duration) (*types.SignatureResponse, error) {
	path := c.requestPath(treasuryID, requestID) + "/signature"
	if wait > 0 {
		path += "?wait=" + url.QueryEscape(wait.String())
	}

	var out types.SignatureResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifySignature checks a completed signature against the treasury's
// wallet key.
func (c *Client) VerifySignature(ctx context.Context, treasuryID string, payload *types.VerifySignaturePayload) (bool, error) {
	var out types.VerifySignatureResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/treasuries/"+url.PathEscape(treasuryID)+"/verify-signature", payload, &out); err != nil {
		return false, err
	}
	return swag.BoolValue(out.Valid), nil
}

func (c *Client) requestPath(treasuryID string, requestID uint64) string {
	return "/api/v1/treasuries/" + url.PathEscape(treasuryID) + "/requests/" + strconv.FormatUint(requestID, 10)
}

func (c *Client) invalidate(treasuryID string) {
	c.treasuries.Delete(treasuryID)
}

func (c *Client) do(ctx context.Context, method string, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return decodeAPIError(res)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func decodeAPIError(res *http.Response) error {
	apiErr := &APIError{StatusCode: res.StatusCode}

	var payload types.PublicHTTPError
	if err := json.NewDecoder(res.Body).Decode(&payload); err == nil {
		apiErr.Type = swag.StringValue(payload.Type)
		apiErr.Title = swag.StringValue(payload.Title)
		apiErr.Detail = payload.Detail
	}
	if apiErr.Title == "" {
		apiErr.Title = http.StatusText(res.StatusCode)
	}

	return apiErr
}
