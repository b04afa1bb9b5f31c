package types

import (
	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
)

// CreateSignRequestPayload proposes a message for signing.
type CreateSignRequestPayload struct {
	// Message is the raw bytes to sign, base64 encoded.
	Message    *strfmt.Base64 `json:"message"`
	Algorithm  *string        `json:"algorithm"`
	HashScheme *string        `json:"hash_scheme"`
}

// Validate validates this create sign request payload.
func (p *CreateSignRequestPayload) Validate(formats strfmt.Registry) error {
	var res []error

	if p.Message == nil || len(*p.Message) == 0 {
		res = append(res, errors.Required("message", "body", nil))
	}
	if p.Algorithm == nil || *p.Algorithm == "" {
		res = append(res, errors.Required("algorithm", "body", nil))
	}
	if p.HashScheme == nil || *p.HashScheme == "" {
		res = append(res, errors.Required("hash_scheme", "body", nil))
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// VotePayload casts an irrevocable vote.
type VotePayload struct {
	Approve *bool `json:"approve"`
}

// Validate validates this vote payload.
func (p *VotePayload) Validate(formats strfmt.Registry) error {
	if p.Approve == nil {
		return errors.CompositeValidationError(errors.Required("approve", "body", nil))
	}
	return nil
}

// VerifySignaturePayload checks a completed signature against the treasury's
// wallet key.
type VerifySignaturePayload struct {
	Message    *strfmt.Base64 `json:"message"`
	Signature  *strfmt.Base64 `json:"signature"`
	Algorithm  *string        `json:"algorithm"`
	HashScheme *string        `json:"hash_scheme"`
}

// Validate validates this verify signature payload.
func (p *VerifySignaturePayload) Validate(formats strfmt.Registry) error {
	var res []error

	if p.Message == nil || len(*p.Message) == 0 {
		res = append(res, errors.Required("message", "body", nil))
	}
	if p.Signature == nil || len(*p.Signature) == 0 {
		res = append(res, errors.Required("signature", "body", nil))
	}
	if p.Algorithm == nil || *p.Algorithm == "" {
		res = append(res, errors.Required("algorithm", "body", nil))
	}
	if p.HashScheme == nil || *p.HashScheme == "" {
		res = append(res, errors.Required("hash_scheme", "body", nil))
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// SignRequestResponse is the public view of a sign request. The reserved
// presign is reduced to its ID; session tokens never leave the service.
type SignRequestResponse struct {
	ID         uint64          `json:"id"`
	TreasuryID string          `json:"treasury_id"`
	Message    strfmt.Base64   `json:"message"`
	Algorithm  string          `json:"algorithm"`
	HashScheme string          `json:"hash_scheme"`
	Proposer   string          `json:"proposer"`
	State      string          `json:"state"`
	Votes      map[string]bool `json:"votes"`
	Approvals  int64           `json:"approvals"`
	Rejections int64           `json:"rejections"`
	Threshold  int64           `json:"threshold"`
	PresignID  string          `json:"presign_id,omitempty"`
	SessionID  string          `json:"session_id,omitempty"`

	CreatedAt  strfmt.DateTime  `json:"created_at"`
	UpdatedAt  strfmt.DateTime  `json:"updated_at"`
	ExecutedAt *strfmt.DateTime `json:"executed_at,omitempty"`
}

// Validate validates this sign request response.
func (r *SignRequestResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if r.ID == 0 {
		res = append(res, errors.Required("id", "body", nil))
	}
	if r.TreasuryID == "" {
		res = append(res, errors.Required("treasury_id", "body", nil))
	}
	if r.State == "" {
		res = append(res, errors.Required("state", "body", nil))
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// SignRequestListResponse lists a treasury's requests.
type SignRequestListResponse struct {
	Requests []*SignRequestResponse `json:"requests"`
}

// Validate validates this sign request list response.
func (r *SignRequestListResponse) Validate(formats strfmt.Registry) error {
	for _, req := range r.Requests {
		if err := req.Validate(formats); err != nil {
			return err
		}
	}
	return nil
}

// SignatureResponse is the state of a signing session.
type SignatureResponse struct {
	SessionID   string           `json:"session_id"`
	Completed   bool             `json:"completed"`
	Signature   strfmt.Base64    `json:"signature,omitempty"`
	PublicKey   strfmt.Base64    `json:"public_key,omitempty"`
	Algorithm   string           `json:"algorithm,omitempty"`
	CompletedAt *strfmt.DateTime `json:"completed_at,omitempty"`
}

// Validate validates this signature response.
func (r *SignatureResponse) Validate(formats strfmt.Registry) error {
	if r.SessionID == "" {
		return errors.CompositeValidationError(errors.Required("session_id", "body", nil))
	}
	return nil
}

// VerifySignatureResponse reports a local signature check.
type VerifySignatureResponse struct {
	Valid *bool `json:"valid"`
}

// Validate validates this verify signature response.
func (r *VerifySignatureResponse) Validate(formats strfmt.Registry) error {
	if r.Valid == nil {
		return errors.CompositeValidationError(errors.Required("valid", "body", nil))
	}
	return nil
}
