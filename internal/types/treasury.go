package types

import (
	"strconv"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
)

// CreateTreasuryPayload establishes a treasury around a registered
// distributed wallet.
type CreateTreasuryPayload struct {
	CapabilityID *string `json:"capability_id"`
	DWalletID    *string `json:"dwallet_id"`
	// PublicKey is the wallet's compressed secp256k1 key, hex encoded.
	PublicKey       *string  `json:"public_key"`
	Curve           string   `json:"curve,omitempty"`
	Members         []string `json:"members"`
	Threshold       *int64   `json:"threshold"`
	EncryptionKeyID string   `json:"encryption_key_id,omitempty"`

	// Optional initial deposits in base units, as numeric strings.
	InitialProtocolFees string `json:"initial_protocol_fees,omitempty"`
	InitialGasFees      string `json:"initial_gas_fees,omitempty"`
}

// Validate validates this create treasury payload.
func (p *CreateTreasuryPayload) Validate(formats strfmt.Registry) error {
	var res []error

	if p.CapabilityID == nil || *p.CapabilityID == "" {
		res = append(res, errors.Required("capability_id", "body", nil))
	}
	if p.DWalletID == nil || *p.DWalletID == "" {
		res = append(res, errors.Required("dwallet_id", "body", nil))
	}
	if p.PublicKey == nil || *p.PublicKey == "" {
		res = append(res, errors.Required("public_key", "body", nil))
	}
	if len(p.Members) == 0 {
		res = append(res, errors.Required("members", "body", nil))
	}
	if p.Threshold == nil {
		res = append(res, errors.Required("threshold", "body", nil))
	} else if *p.Threshold < 1 {
		res = append(res, errors.InvalidType("threshold", "body", "positive integer", *p.Threshold))
	}
	if err := validateAmount("initial_protocol_fees", p.InitialProtocolFees); err != nil {
		res = append(res, err)
	}
	if err := validateAmount("initial_gas_fees", p.InitialGasFees); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ProtocolFeesBaseUnits parses the optional protocol deposit.
func (p *CreateTreasuryPayload) ProtocolFeesBaseUnits() uint64 {
	return parseAmount(p.InitialProtocolFees)
}

// GasFeesBaseUnits parses the optional gas deposit.
func (p *CreateTreasuryPayload) GasFeesBaseUnits() uint64 {
	return parseAmount(p.InitialGasFees)
}

// FundTreasuryPayload deposits fees into one balance.
type FundTreasuryPayload struct {
	// Token is "protocol" or "gas".
	Token *string `json:"token"`
	// Amount in base units, as a numeric string.
	Amount *string `json:"amount"`
}

// Validate validates this fund treasury payload.
func (p *FundTreasuryPayload) Validate(formats strfmt.Registry) error {
	var res []error

	if p.Token == nil || *p.Token == "" {
		res = append(res, errors.Required("token", "body", nil))
	} else if *p.Token != "protocol" && *p.Token != "gas" {
		res = append(res, errors.InvalidType("token", "body", "protocol or gas", *p.Token))
	}
	if p.Amount == nil || *p.Amount == "" {
		res = append(res, errors.Required("amount", "body", nil))
	} else if err := validateAmount("amount", *p.Amount); err != nil {
		res = append(res, err)
	} else if parseAmount(*p.Amount) == 0 {
		res = append(res, errors.InvalidType("amount", "body", "positive base units", *p.Amount))
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// AmountBaseUnits parses the deposit amount.
func (p *FundTreasuryPayload) AmountBaseUnits() uint64 {
	if p.Amount == nil {
		return 0
	}
	return parseAmount(*p.Amount)
}

// AddPresignsPayload requests a batch of presigns for one algorithm.
type AddPresignsPayload struct {
	Algorithm *string `json:"algorithm"`
	Count     *int64  `json:"count"`
}

// Validate validates this add presigns payload.
func (p *AddPresignsPayload) Validate(formats strfmt.Registry) error {
	var res []error

	if p.Algorithm == nil || *p.Algorithm == "" {
		res = append(res, errors.Required("algorithm", "body", nil))
	}
	if p.Count == nil {
		res = append(res, errors.Required("count", "body", nil))
	} else if *p.Count < 1 {
		res = append(res, errors.InvalidType("count", "body", "positive integer", *p.Count))
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// RotateEncryptionKeyPayload points the treasury at a new encryption key.
type RotateEncryptionKeyPayload struct {
	EncryptionKeyID *string `json:"encryption_key_id"`
}

// Validate validates this rotate encryption key payload.
func (p *RotateEncryptionKeyPayload) Validate(formats strfmt.Registry) error {
	if p.EncryptionKeyID == nil || *p.EncryptionKeyID == "" {
		return errors.CompositeValidationError(errors.Required("encryption_key_id", "body", nil))
	}
	return nil
}

// TreasuryResponse is the public view of a treasury. The signing capability
// is deliberately absent.
type TreasuryResponse struct {
	ID              string           `json:"id"`
	DWalletID       string           `json:"dwallet_id"`
	PublicKey       string           `json:"public_key"`
	Curve           string           `json:"curve"`
	Members         []string         `json:"members"`
	Threshold       int64            `json:"threshold"`
	NextRequestID   uint64           `json:"next_request_id"`
	PoolSizes       map[string]int64 `json:"pool_sizes"`
	EncryptionKeyID string           `json:"encryption_key_id,omitempty"`
	Version         int64            `json:"version"`

	ProtocolBalance        string `json:"protocol_balance"`
	ProtocolBalanceDisplay string `json:"protocol_balance_display"`
	GasBalance             string `json:"gas_balance"`
	GasBalanceDisplay      string `json:"gas_balance_display"`

	CreatedAt strfmt.DateTime `json:"created_at"`
	UpdatedAt strfmt.DateTime `json:"updated_at"`
}

// Validate validates this treasury response.
func (r *TreasuryResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if r.ID == "" {
		res = append(res, errors.Required("id", "body", nil))
	}
	if r.DWalletID == "" {
		res = append(res, errors.Required("dwallet_id", "body", nil))
	}
	if len(r.Members) == 0 {
		res = append(res, errors.Required("members", "body", nil))
	}
	if r.Threshold < 1 {
		res = append(res, errors.InvalidType("threshold", "body", "positive integer", r.Threshold))
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// TreasuryListResponse pages treasuries.
type TreasuryListResponse struct {
	Treasuries []*TreasuryResponse `json:"treasuries"`
}

// Validate validates this treasury list response.
func (r *TreasuryListResponse) Validate(formats strfmt.Registry) error {
	for _, t := range r.Treasuries {
		if err := t.Validate(formats); err != nil {
			return err
		}
	}
	return nil
}

// AddressesResponse carries the derived on-chain addresses.
type AddressesResponse struct {
	EVM     *string `json:"evm"`
	Taproot *string `json:"taproot"`
}

// Validate validates this addresses response.
func (r *AddressesResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if r.EVM == nil {
		res = append(res, errors.Required("evm", "body", nil))
	}
	if r.Taproot == nil {
		res = append(res, errors.Required("taproot", "body", nil))
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func validateAmount(field string, amount string) error {
	if amount == "" {
		return nil
	}
	if _, err := strconv.ParseUint(amount, 10, 64); err != nil {
		return errors.InvalidType(field, "body", "unsigned base units", amount)
	}
	return nil
}

func parseAmount(amount string) uint64 {
	v, _ := strconv.ParseUint(amount, 10, 64)
	return v
}
