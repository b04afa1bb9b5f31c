package treasuries

import (
	"net/http"

	"github.com/kashguard/go-mpc-treasury/internal/api/httperrors"
	"github.com/kashguard/go-mpc-treasury/internal/oracle"
	"github.com/kashguard/go-mpc-treasury/internal/treasury"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	"github.com/pkg/errors"
)

// mapServiceError translates domain and signing-network errors into public
// HTTP errors. Anything unmapped falls through to the generic 500 handler,
// which hides the details from the client.
func mapServiceError(err error) error {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, treasury.ErrTreasuryNotFound):
		return httperrors.NewHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeNotFound, "Treasury not found").WithInternal(err)
	case errors.Is(err, treasury.ErrRequestNotFound):
		return httperrors.NewHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeNotFound, "Sign request not found").WithInternal(err)
	case errors.Is(err, oracle.ErrSessionNotFound):
		return httperrors.NewHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeNotFound, "Signing session not found").WithInternal(err)

	case errors.Is(err, treasury.ErrNotMember):
		return httperrors.NewHTTPError(http.StatusForbidden, types.PublicHTTPErrorTypeForbidden, "Caller is not a member of this treasury").WithInternal(err)

	case errors.Is(err, treasury.ErrAlreadyVoted):
		return httperrors.NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeConflict, "Member has already voted on this request").WithInternal(err)
	case errors.Is(err, treasury.ErrAlreadyExecuted):
		return httperrors.NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeConflict, "Request has already been executed").WithInternal(err)
	case errors.Is(err, treasury.ErrInsufficientApprovals):
		return httperrors.NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeConflict, "Request has not reached the approval threshold").WithInternal(err)
	case errors.Is(err, treasury.ErrNotExecuted):
		return httperrors.NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeConflict, "Request has not been executed yet").WithInternal(err)

	case errors.Is(err, treasury.ErrVersionConflict):
		return httperrors.NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeRetryable, "Treasury was modified concurrently, retry the operation").WithInternal(err)
	case errors.Is(err, treasury.ErrTreasuryBusy):
		return httperrors.NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeRetryable, "Treasury is busy with another operation, retry shortly").WithInternal(err)

	case errors.Is(err, treasury.ErrNoMembers),
		errors.Is(err, treasury.ErrInvalidThreshold),
		errors.Is(err, treasury.ErrInvalidAmount),
		errors.Is(err, treasury.ErrInvalidMessage):
		return httperrors.NewHTTPErrorWithDetail(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "Invalid request", err.Error())

	case errors.Is(err, treasury.ErrNoPresignsAvailable):
		return httperrors.NewHTTPError(http.StatusServiceUnavailable, types.PublicHTTPErrorTypeRetryable, "No presigns available for this algorithm, add presigns or retry shortly").WithInternal(err)

	case errors.Is(err, oracle.ErrInsufficientFees):
		return httperrors.NewHTTPError(http.StatusPaymentRequired, types.PublicHTTPErrorTypeGeneric, "Treasury fee balance is too low for this operation").WithInternal(err)
	case errors.Is(err, oracle.ErrPresignNotReady):
		return httperrors.NewHTTPError(http.StatusServiceUnavailable, types.PublicHTTPErrorTypeRetryable, "Reserved presign is not ready yet, retry shortly").WithInternal(err)
	case errors.Is(err, oracle.ErrUnavailable):
		return httperrors.NewHTTPError(http.StatusBadGateway, types.PublicHTTPErrorTypeRetryable, "Signing network is unavailable, retry shortly").WithInternal(err)
	case errors.Is(err, oracle.ErrApprovalRejected):
		return httperrors.NewHTTPError(http.StatusBadGateway, types.PublicHTTPErrorTypeGeneric, "Signing network rejected the message approval").WithInternal(err)

	default:
		return err
	}
}
