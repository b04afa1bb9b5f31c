package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageApproval_TakeIsOneShot(t *testing.T) {
	approval := NewMessageApproval("approval-token", []byte("digest"))
	assert.Equal(t, []byte("digest"), approval.Digest())

	token, err := approval.take()
	require.NoError(t, err)
	assert.Equal(t, "approval-token", token)

	_, err = approval.take()
	require.ErrorIs(t, err, ErrApprovalConsumed)
}

func TestMessageApproval_TakeRejectsEmptyAndNil(t *testing.T) {
	var nilApproval *MessageApproval
	_, err := nilApproval.take()
	require.ErrorIs(t, err, ErrApprovalConsumed)

	_, err = NewMessageApproval("", nil).take()
	require.ErrorIs(t, err, ErrApprovalConsumed)
}

func TestEnums_Valid(t *testing.T) {
	assert.True(t, AlgorithmECDSA.Valid())
	assert.True(t, AlgorithmTaproot.Valid())
	assert.False(t, SignatureAlgorithm("rsa").Valid())
	assert.False(t, SignatureAlgorithm("").Valid())

	assert.True(t, HashSHA256.Valid())
	assert.True(t, HashKeccak256.Valid())
	assert.False(t, HashScheme("md5").Valid())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrPresignNotReady))
	assert.True(t, IsRetryable(ErrInsufficientFees))
	assert.True(t, IsRetryable(ErrUnavailable))

	assert.False(t, IsRetryable(ErrApprovalConsumed))
	assert.False(t, IsRetryable(ErrApprovalRejected))
	assert.False(t, IsRetryable(ErrSessionNotFound))
	assert.False(t, IsRetryable(nil))
}
