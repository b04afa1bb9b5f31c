package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/kashguard/go-mpc-treasury/internal/util"
)

// HTTPClientConfig configures the HTTP client for the signing network's
// coordinator API.
type HTTPClientConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	RetryAttempts  uint
	RetryMaxDelay  time.Duration
}

// HTTPClient implements Client against the signing network's HTTP API.
// Transport-level failures are retried with backoff; semantic rejections
// (ErrPresignNotReady, ErrInsufficientFees, ...) are returned to the caller,
// who owns the decision to retry the whole operation.
type HTTPClient struct {
	config HTTPClientConfig
	client *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a signing-network client from the given config.
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 15 * time.Second
	}
	if config.RetryAttempts == 0 {
		config.RetryAttempts = 3
	}
	if config.RetryMaxDelay == 0 {
		config.RetryMaxDelay = 5 * time.Second
	}

	return &HTTPClient{
		config: config,
		client: &http.Client{Timeout: config.RequestTimeout},
	}
}

func (c *HTTPClient) RequestPresign(ctx context.Context, req *PresignRequest) (*PresignReceipt, error) {
	res := &PresignReceipt{}
	// Idempotent per session token, safe to retry on transport failure.
	err := c.withRetry(ctx, "request_presign", func() error {
		return c.do(ctx, http.MethodPost, "/v1/presigns", req, res)
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (c *HTTPClient) VerifyPresign(ctx context.Context, presignID string, dwalletID string) error {
	path := fmt.Sprintf("/v1/presigns/%s?dwallet_id=%s", url.PathEscape(presignID), url.QueryEscape(dwalletID))

	res := &struct {
		Ready bool `json:"ready"`
	}{}
	err := c.withRetry(ctx, "verify_presign", func() error {
		return c.do(ctx, http.MethodGet, path, nil, res)
	})
	if err != nil {
		return err
	}
	if !res.Ready {
		return errors.WithStack(ErrPresignNotReady)
	}

	return nil
}

func (c *HTTPClient) ApproveMessage(ctx context.Context, req *ApprovalRequest) (*MessageApproval, error) {
	res := &struct {
		ApprovalToken string `json:"approval_token"`
		Digest        []byte `json:"digest"`
	}{}
	err := c.withRetry(ctx, "approve_message", func() error {
		return c.do(ctx, http.MethodPost, "/v1/approvals", req, res)
	})
	if err != nil {
		return nil, err
	}
	if res.ApprovalToken == "" {
		return nil, errors.WithStack(ErrApprovalRejected)
	}

	return NewMessageApproval(res.ApprovalToken, res.Digest), nil
}

func (c *HTTPClient) SubmitSign(ctx context.Context, req *SignSubmission) (*SignReceipt, error) {
	// Burn the approval before the first attempt. The wire retries below may
	// resend the same token (idempotent per session token), but no second
	// SubmitSign call can ever reuse it.
	token, err := req.Approval.take()
	if err != nil {
		return nil, err
	}

	payload := &struct {
		DWalletID     string  `json:"dwallet_id"`
		PresignID     string  `json:"presign_id"`
		ApprovalToken string  `json:"approval_token"`
		SessionToken  string  `json:"session_token"`
		Payment       Payment `json:"payment"`
	}{
		DWalletID:     req.DWalletID,
		PresignID:     req.PresignID,
		ApprovalToken: token,
		SessionToken:  req.SessionToken,
		Payment:       req.Payment,
	}

	res := &SignReceipt{}
	err = c.withRetry(ctx, "submit_sign", func() error {
		return c.do(ctx, http.MethodPost, "/v1/sign", payload, res)
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (c *HTTPClient) GetSignature(ctx context.Context, sessionID string) (*SignatureResult, error) {
	res := &SignatureResult{}
	err := c.withRetry(ctx, "get_signature", func() error {
		return c.do(ctx, http.MethodGet, "/v1/sessions/"+url.PathEscape(sessionID), nil, res)
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// withRetry retries fn on transport-level unavailability only. Semantic
// errors pass through untouched so the caller can map them.
func (c *HTTPClient) withRetry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(c.config.RetryAttempts),
		retry.MaxDelay(c.config.RetryMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrUnavailable)
		}),
		retry.OnRetry(func(attempt uint, err error) {
			util.LogFromContext(ctx).Warn().
				Str("op", op).
				Uint("attempt", attempt).
				Err(err).
				Msg("Retrying signing network call")
		}),
	)
}

type errorEnvelope struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (c *HTTPClient) do(ctx context.Context, method string, path string, in interface{}, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request payload")
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(ErrUnavailable, "request failed: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return errors.Wrap(err, "failed to decode response payload")
		}
		return nil
	}

	envelope := errorEnvelope{}
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
	_ = json.Unmarshal(raw, &envelope)

	return c.mapError(res.StatusCode, envelope)
}

// mapError converts an HTTP rejection into the package's sentinel errors,
// preferring the machine-readable code over the status.
func (c *HTTPClient) mapError(status int, envelope errorEnvelope) error {
	switch envelope.Code {
	case "presign_not_ready":
		return errors.WithStack(ErrPresignNotReady)
	case "insufficient_fees":
		return errors.WithStack(ErrInsufficientFees)
	case "approval_rejected":
		return errors.WithStack(ErrApprovalRejected)
	case "session_not_found":
		return errors.WithStack(ErrSessionNotFound)
	}

	switch {
	case status == http.StatusConflict:
		return errors.WithStack(ErrPresignNotReady)
	case status == http.StatusPaymentRequired:
		return errors.WithStack(ErrInsufficientFees)
	case status == http.StatusNotFound:
		return errors.WithStack(ErrSessionNotFound)
	case status >= 500 || status == http.StatusTooManyRequests:
		return errors.Wrapf(ErrUnavailable, "status %d", status)
	}

	if envelope.Error != "" {
		return errors.Errorf("signing network rejected request: %s (status %d)", envelope.Error, status)
	}

	return errors.Errorf("signing network rejected request with status %d", status)
}
