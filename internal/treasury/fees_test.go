package treasury

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-mpc-treasury/internal/oracle"
)

func TestFund_Balances(t *testing.T) {
	tr := newTestTreasury(t)

	require.NoError(t, tr.Fund(FeeTokenProtocol, 100, testTime))
	require.NoError(t, tr.Fund(FeeTokenGas, 50, testTime))
	require.NoError(t, tr.Fund(FeeTokenProtocol, 1, testTime))

	assert.EqualValues(t, 101, tr.ProtocolBalance)
	assert.EqualValues(t, 50, tr.GasBalance)
	assert.Equal(t, oracle.Payment{Protocol: 101, Gas: 50}, tr.Balances())

	err := tr.Fund(FeeTokenProtocol, 0, testTime)
	require.ErrorIs(t, err, ErrInvalidAmount)

	err = tr.Fund(FeeToken("credits"), 10, testTime)
	require.Error(t, err)
	assert.EqualValues(t, 101, tr.ProtocolBalance, "failed deposits must not change balances")
}

func TestFeeToken_Valid(t *testing.T) {
	assert.True(t, FeeTokenProtocol.Valid())
	assert.True(t, FeeTokenGas.Valid())
	assert.False(t, FeeToken("credits").Valid())
	assert.False(t, FeeToken("").Valid())
}

func TestPayFromBalances_ConsumesExactlyWhatWasReported(t *testing.T) {
	tr := newTestTreasury(t)
	require.NoError(t, tr.Fund(FeeTokenProtocol, 100, testTime))
	require.NoError(t, tr.Fund(FeeTokenGas, 40, testTime))

	err := tr.payFromBalances(func(payment oracle.Payment) (oracle.Payment, error) {
		// The full balances are offered and the balances are empty while the
		// call is in flight.
		assert.Equal(t, oracle.Payment{Protocol: 100, Gas: 40}, payment)
		assert.EqualValues(t, 0, tr.ProtocolBalance)
		assert.EqualValues(t, 0, tr.GasBalance)

		return oracle.Payment{Protocol: 30, Gas: 10}, nil
	})
	require.NoError(t, err)

	assert.EqualValues(t, 70, tr.ProtocolBalance)
	assert.EqualValues(t, 30, tr.GasBalance)
}

func TestPayFromBalances_FailedCallRestoresEverything(t *testing.T) {
	tr := newTestTreasury(t)
	require.NoError(t, tr.Fund(FeeTokenProtocol, 100, testTime))
	require.NoError(t, tr.Fund(FeeTokenGas, 40, testTime))

	callErr := errors.New("network down")
	err := tr.payFromBalances(func(payment oracle.Payment) (oracle.Payment, error) {
		return oracle.Payment{}, callErr
	})
	require.ErrorIs(t, err, callErr)

	assert.EqualValues(t, 100, tr.ProtocolBalance)
	assert.EqualValues(t, 40, tr.GasBalance)
}

func TestPayFromBalances_PartialConsumptionWithError(t *testing.T) {
	tr := newTestTreasury(t)
	require.NoError(t, tr.Fund(FeeTokenProtocol, 100, testTime))
	require.NoError(t, tr.Fund(FeeTokenGas, 40, testTime))

	// A call can report consumption and still fail; what was consumed is gone,
	// the rest must come back.
	err := tr.payFromBalances(func(payment oracle.Payment) (oracle.Payment, error) {
		return oracle.Payment{Protocol: 25}, errors.New("session aborted")
	})
	require.Error(t, err)

	assert.EqualValues(t, 75, tr.ProtocolBalance)
	assert.EqualValues(t, 40, tr.GasBalance)
}

func TestPayFromBalances_OverReportingClampsAtZero(t *testing.T) {
	tr := newTestTreasury(t)
	require.NoError(t, tr.Fund(FeeTokenProtocol, 10, testTime))
	require.NoError(t, tr.Fund(FeeTokenGas, 5, testTime))

	// A misreporting network claiming more than the offer can never drive a
	// balance negative.
	err := tr.payFromBalances(func(payment oracle.Payment) (oracle.Payment, error) {
		return oracle.Payment{Protocol: 999, Gas: 999}, nil
	})
	require.NoError(t, err)

	assert.EqualValues(t, 0, tr.ProtocolBalance)
	assert.EqualValues(t, 0, tr.GasBalance)
}

func TestPayment_Arithmetic(t *testing.T) {
	a := oracle.Payment{Protocol: 10, Gas: 4}
	b := oracle.Payment{Protocol: 3, Gas: 6}

	assert.Equal(t, oracle.Payment{Protocol: 13, Gas: 10}, a.Add(b))
	assert.Equal(t, oracle.Payment{Protocol: 7, Gas: 0}, a.Sub(b), "subtraction clamps per component")
	assert.EqualValues(t, 14, a.Total())
	assert.False(t, a.IsZero())
	assert.True(t, oracle.Payment{}.IsZero())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.000000000", FormatAmount(1_000_000_000, 9))
	assert.Equal(t, "0.000000123", FormatAmount(123, 9))
	assert.Equal(t, "0.000000000", FormatAmount(0, 9))
	assert.Equal(t, "12.34", FormatAmount(1234, 2))
}
