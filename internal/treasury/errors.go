package treasury

import "github.com/pkg/errors"

// Domain sentinels. Handlers map these to HTTP statuses; everything else
// surfaces as an internal error.
var (
	ErrTreasuryNotFound = errors.New("treasury not found")
	ErrRequestNotFound  = errors.New("sign request not found")

	ErrNotMember        = errors.New("caller is not a treasury member")
	ErrNoMembers        = errors.New("member set is empty")
	ErrInvalidThreshold = errors.New("approval threshold out of range")

	ErrAlreadyVoted    = errors.New("member has already voted on this request")
	ErrAlreadyExecuted = errors.New("sign request was already executed")
	ErrNotExecuted     = errors.New("sign request has not been executed")

	ErrInsufficientApprovals = errors.New("approvals below threshold")
	ErrNoPresignsAvailable   = errors.New("no presigns available for algorithm")
	ErrInvalidTransition     = errors.New("invalid sign request state transition")

	ErrInvalidAmount  = errors.New("amount must be greater than zero")
	ErrInvalidMessage = errors.New("message is empty or exceeds the size limit")

	// ErrVersionConflict means a concurrent writer updated the treasury
	// between load and persist. The operation can be retried.
	ErrVersionConflict = errors.New("treasury was modified concurrently")

	// ErrTreasuryBusy means the per-treasury lock could not be acquired in
	// time because another operation holds it.
	ErrTreasuryBusy = errors.New("treasury is locked by another operation")
)
