package treasury

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/kashguard/go-mpc-treasury/internal/oracle"
)

// FeeToken distinguishes the two fee balances a treasury holds.
type FeeToken string

const (
	// FeeTokenProtocol pays for the MPC computation on the signing network.
	FeeTokenProtocol FeeToken = "protocol"
	// FeeTokenGas pays for the network transactions carrying it.
	FeeTokenGas FeeToken = "gas"
)

// Valid reports whether the token is one of the two fee balances.
func (f FeeToken) Valid() bool {
	return f == FeeTokenProtocol || f == FeeTokenGas
}

// Balances returns both fee balances as a payment.
func (t *Treasury) Balances() oracle.Payment {
	return oracle.Payment{Protocol: t.ProtocolBalance, Gas: t.GasBalance}
}

// Fund deposits base units into one of the fee balances.
func (t *Treasury) Fund(token FeeToken, amount uint64, now time.Time) error {
	if amount == 0 {
		return errors.WithStack(ErrInvalidAmount)
	}
	switch token {
	case FeeTokenProtocol:
		t.ProtocolBalance += amount
	case FeeTokenGas:
		t.GasBalance += amount
	default:
		return errors.Errorf("unknown fee token %q", token)
	}
	t.UpdatedAt = now
	return nil
}

// withdrawAllFees zeroes both balances and returns what was held. Oracle
// calls always receive the full balances as their offer; the remainder comes
// back through depositFees.
func (t *Treasury) withdrawAllFees() oracle.Payment {
	payment := t.Balances()
	t.ProtocolBalance = 0
	t.GasBalance = 0
	return payment
}

// depositFees returns unspent fees to the balances.
func (t *Treasury) depositFees(p oracle.Payment) {
	t.ProtocolBalance += p.Protocol
	t.GasBalance += p.Gas
}

// payFromBalances runs fn with the full fee balances as payment and deposits
// whatever fn did not consume back into the treasury. The deposit is
// deferred, so a failing fn can never strand withdrawn fees: on failure the
// balances end up decreased by exactly the amount fn reported consumed,
// which is zero for a call that failed outright.
func (t *Treasury) payFromBalances(fn func(payment oracle.Payment) (oracle.Payment, error)) error {
	payment := t.withdrawAllFees()
	remaining := payment

	defer func() {
		t.depositFees(remaining)
	}()

	consumed, err := fn(payment)
	remaining = remaining.Sub(consumed)

	return err
}

// FormatAmount renders base units as a decimal string with the given number
// of fractional digits, e.g. 1_000_000_000 with 9 decimals -> "1.000000000".
func FormatAmount(baseUnits uint64, decimals int32) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(baseUnits), -decimals)
	return d.StringFixed(decimals)
}
