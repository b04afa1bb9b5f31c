package treasuries

import (
	"encoding/hex"
	"strconv"

	"github.com/go-openapi/strfmt"
	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/oracle"
	"github.com/kashguard/go-mpc-treasury/internal/treasury"
	"github.com/kashguard/go-mpc-treasury/internal/types"
)

// newTreasuryResponse renders the public view of a treasury. The signing
// capability stays internal; balances are rendered both raw and scaled by
// the configured token decimals.
func newTreasuryResponse(s *api.Server, t *treasury.Treasury) *types.TreasuryResponse {
	decimals := s.Config.Treasury.TokenDecimals

	poolSizes := map[string]int64{}
	for _, h := range t.Pool {
		poolSizes[string(h.Algorithm)]++
	}

	return &types.TreasuryResponse{
		ID:              t.ID,
		DWalletID:       t.Capability.DWalletID(),
		PublicKey:       hex.EncodeToString(t.PublicKey),
		Curve:           string(t.Curve),
		Members:         t.Members,
		Threshold:       int64(t.Threshold),
		NextRequestID:   t.NextRequestID,
		PoolSizes:       poolSizes,
		EncryptionKeyID: t.EncryptionKeyID,
		Version:         t.Version,

		ProtocolBalance:        strconv.FormatUint(t.ProtocolBalance, 10),
		ProtocolBalanceDisplay: treasury.FormatAmount(t.ProtocolBalance, decimals),
		GasBalance:             strconv.FormatUint(t.GasBalance, 10),
		GasBalanceDisplay:      treasury.FormatAmount(t.GasBalance, decimals),

		CreatedAt: strfmt.DateTime(t.CreatedAt),
		UpdatedAt: strfmt.DateTime(t.UpdatedAt),
	}
}

// newSignRequestResponse renders the public view of a sign request. Only
// the presign ID is exposed; session tokens never leave the service.
func newSignRequestResponse(req *treasury.SignRequest, threshold int) *types.SignRequestResponse {
	votes := make(map[string]bool, len(req.Votes))
	for member, approve := range req.Votes {
		votes[member] = approve
	}

	resp := &types.SignRequestResponse{
		ID:         req.ID,
		TreasuryID: req.TreasuryID,
		Message:    strfmt.Base64(req.Message),
		Algorithm:  string(req.Algorithm),
		HashScheme: string(req.Hash),
		Proposer:   req.Proposer,
		State:      string(req.State),
		Votes:      votes,
		Approvals:  int64(req.Approvals()),
		Rejections: int64(req.Rejections()),
		Threshold:  int64(threshold),
		SessionID:  req.SessionID,

		CreatedAt: strfmt.DateTime(req.CreatedAt),
		UpdatedAt: strfmt.DateTime(req.UpdatedAt),
	}

	if req.Presign != nil {
		resp.PresignID = req.Presign.PresignID
	}
	if req.ExecutedAt != nil {
		executedAt := strfmt.DateTime(*req.ExecutedAt)
		resp.ExecutedAt = &executedAt
	}

	return resp
}

func newSignatureResponse(result *oracle.SignatureResult) *types.SignatureResponse {
	resp := &types.SignatureResponse{
		SessionID: result.SessionID,
		Completed: result.Completed,
		Signature: strfmt.Base64(result.Signature),
		PublicKey: strfmt.Base64(result.PublicKey),
		Algorithm: string(result.Algorithm),
	}

	if result.CompletedAt != nil {
		completedAt := strfmt.DateTime(*result.CompletedAt)
		resp.CompletedAt = &completedAt
	}

	return resp
}
