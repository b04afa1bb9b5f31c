package oracle

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kashguard/go-mpc-treasury/internal/util"
)

// ErrWaitTimeout means the signing session did not complete within the
// caller's deadline. The session keeps running on the network; polling can
// resume at any time.
var ErrWaitTimeout = errors.New("timed out waiting for signature")

// WaitForSignature polls a signing session until it completes, the timeout
// elapses or the context is cancelled. Transient network errors are logged
// and polling continues; permanent errors abort the wait.
func WaitForSignature(ctx context.Context, client Client, sessionID string, timeout time.Duration, interval time.Duration) (*SignatureResult, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	log := util.LogFromContext(ctx).With().Str("session_id", sessionID).Logger()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		res, err := client.GetSignature(ctx, sessionID)
		switch {
		case err == nil && res.Completed:
			return res, nil
		case err != nil && !IsRetryable(err):
			return nil, err
		case err != nil:
			log.Warn().Err(err).Msg("Signature poll failed, will retry")
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "wait for signature cancelled")
		case <-deadline.C:
			return nil, errors.WithStack(ErrWaitTimeout)
		case <-tick.C:
		}
	}
}
