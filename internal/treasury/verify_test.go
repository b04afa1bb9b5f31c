package treasury

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-mpc-treasury/internal/oracle"
)

func TestDigestMessage(t *testing.T) {
	digest, err := DigestMessage([]byte("abc"), oracle.HashSHA256)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hex.EncodeToString(digest))

	digest, err = DigestMessage([]byte{}, oracle.HashKeccak256)
	require.NoError(t, err)
	assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", hex.EncodeToString(digest))

	_, err = DigestMessage([]byte("abc"), oracle.HashScheme("md5"))
	require.Error(t, err)
}

func TestVerifySignature_ECDSA(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	publicKey := priv.PubKey().SerializeCompressed()

	message := []byte("transfer 5 to the auditors")
	digest, err := DigestMessage(message, oracle.HashSHA256)
	require.NoError(t, err)

	sig := btcecdsa.Sign(priv, digest)

	// DER form.
	valid, err := VerifySignature(publicKey, message, sig.Serialize(), oracle.AlgorithmECDSA, oracle.HashSHA256)
	require.NoError(t, err)
	assert.True(t, valid)

	// 64-byte compact r || s form.
	r, s := sig.R(), sig.S()
	rBytes, sBytes := r.Bytes(), s.Bytes()
	compact := append(rBytes[:], sBytes[:]...)

	valid, err = VerifySignature(publicKey, message, compact, oracle.AlgorithmECDSA, oracle.HashSHA256)
	require.NoError(t, err)
	assert.True(t, valid)

	// 65-byte recoverable form with a trailing recovery id.
	recoverable := append(append([]byte{}, compact...), 0x01)
	valid, err = VerifySignature(publicKey, message, recoverable, oracle.AlgorithmECDSA, oracle.HashSHA256)
	require.NoError(t, err)
	assert.True(t, valid)

	// A different message fails cleanly, without an error.
	valid, err = VerifySignature(publicKey, []byte("transfer 500000 to the attacker"), sig.Serialize(), oracle.AlgorithmECDSA, oracle.HashSHA256)
	require.NoError(t, err)
	assert.False(t, valid)

	// A different key fails too.
	other, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	valid, err = VerifySignature(other.PubKey().SerializeCompressed(), message, sig.Serialize(), oracle.AlgorithmECDSA, oracle.HashSHA256)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifySignature_ECDSAKeccak(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	message := []byte("evm calldata")
	digest, err := DigestMessage(message, oracle.HashKeccak256)
	require.NoError(t, err)

	sig := btcecdsa.Sign(priv, digest)

	valid, err := VerifySignature(priv.PubKey().SerializeCompressed(), message, sig.Serialize(), oracle.AlgorithmECDSA, oracle.HashKeccak256)
	require.NoError(t, err)
	assert.True(t, valid)

	// The same signature under the wrong hash scheme must not verify.
	valid, err = VerifySignature(priv.PubKey().SerializeCompressed(), message, sig.Serialize(), oracle.AlgorithmECDSA, oracle.HashSHA256)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifySignature_Taproot(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	message := []byte("taproot spend")
	digest, err := DigestMessage(message, oracle.HashSHA256)
	require.NoError(t, err)

	sig, err := schnorr.Sign(priv, digest)
	require.NoError(t, err)

	valid, err := VerifySignature(priv.PubKey().SerializeCompressed(), message, sig.Serialize(), oracle.AlgorithmTaproot, oracle.HashSHA256)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = VerifySignature(priv.PubKey().SerializeCompressed(), []byte("other"), sig.Serialize(), oracle.AlgorithmTaproot, oracle.HashSHA256)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifySignature_MalformedInputs(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	publicKey := priv.PubKey().SerializeCompressed()

	_, err = VerifySignature([]byte{0x01, 0x02}, []byte("m"), make([]byte, 64), oracle.AlgorithmECDSA, oracle.HashSHA256)
	require.Error(t, err, "garbage public key")

	_, err = VerifySignature(publicKey, []byte("m"), []byte{0xde, 0xad}, oracle.AlgorithmECDSA, oracle.HashSHA256)
	require.Error(t, err, "signature neither DER nor compact")

	_, err = VerifySignature(publicKey, []byte("m"), make([]byte, 10), oracle.AlgorithmTaproot, oracle.HashSHA256)
	require.Error(t, err, "schnorr signatures are exactly 64 bytes")

	_, err = VerifySignature(publicKey, []byte("m"), make([]byte, 64), oracle.AlgorithmECDSA, oracle.HashScheme("md5"))
	require.Error(t, err, "unsupported hash scheme")

	_, err = VerifySignature(publicKey, []byte("m"), make([]byte, 64), oracle.SignatureAlgorithm("rsa"), oracle.HashSHA256)
	require.Error(t, err, "unsupported algorithm")
}
