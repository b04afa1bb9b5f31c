package oracle

import "github.com/pkg/errors"

var (
	// ErrPresignNotReady means the presign computation has not completed yet.
	// The caller keeps its reservation and retries later.
	ErrPresignNotReady = errors.New("presign is not ready")

	// ErrInsufficientFees means the offered payment does not cover the
	// network's current price. Retryable after funding the treasury.
	ErrInsufficientFees = errors.New("insufficient fees for signing network")

	// ErrUnavailable means the network could not be reached or answered with
	// a server error.
	ErrUnavailable = errors.New("signing network unavailable")

	// ErrApprovalConsumed means a message approval was used more than once.
	ErrApprovalConsumed = errors.New("message approval already consumed")

	// ErrApprovalRejected means the network refused to approve the message
	// for the given capability.
	ErrApprovalRejected = errors.New("message approval rejected")

	// ErrSessionNotFound means the signing session ID is unknown to the
	// network.
	ErrSessionNotFound = errors.New("signing session not found")
)

// IsRetryable reports whether the error is transient: the same call can
// succeed later without any local state change. Everything else is a
// permanent rejection.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrPresignNotReady),
		errors.Is(err, ErrInsufficientFees),
		errors.Is(err, ErrUnavailable):
		return true
	}
	return false
}
