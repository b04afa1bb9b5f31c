package treasury

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/kashguard/go-mpc-treasury/internal/oracle"
)

// ParsePublicKey parses a compressed or uncompressed secp256k1 public key.
func ParsePublicKey(b []byte) (*btcec.PublicKey, error) {
	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse secp256k1 public key")
	}
	return pub, nil
}

// DigestMessage applies the hash scheme to the raw message.
func DigestMessage(message []byte, hash oracle.HashScheme) ([]byte, error) {
	switch hash {
	case oracle.HashSHA256:
		sum := sha256.Sum256(message)
		return sum[:], nil
	case oracle.HashKeccak256:
		return ethcrypto.Keccak256(message), nil
	}
	return nil, errors.Errorf("unsupported hash scheme %q", hash)
}

// VerifySignature checks a completed signature against the treasury's wallet
// key, locally and without the signing network. ECDSA signatures are
// accepted in DER or 64-byte compact (r || s) form; taproot signatures are
// 64-byte BIP-340 Schnorr over the x-only key.
func VerifySignature(publicKey []byte, message []byte, signature []byte, algo oracle.SignatureAlgorithm, hash oracle.HashScheme) (bool, error) {
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return false, err
	}

	digest, err := DigestMessage(message, hash)
	if err != nil {
		return false, err
	}

	switch algo {
	case oracle.AlgorithmECDSA:
		sig, err := parseECDSASignature(signature)
		if err != nil {
			return false, err
		}
		return sig.Verify(digest, pub), nil

	case oracle.AlgorithmTaproot:
		sig, err := schnorr.ParseSignature(signature)
		if err != nil {
			return false, errors.Wrap(err, "failed to parse schnorr signature")
		}
		xOnly, err := schnorr.ParsePubKey(pub.SerializeCompressed()[1:33])
		if err != nil {
			return false, errors.Wrap(err, "failed to derive x-only key")
		}
		return sig.Verify(digest, xOnly), nil
	}

	return false, errors.Errorf("unsupported signature algorithm %q", algo)
}

func parseECDSASignature(signature []byte) (*btcecdsa.Signature, error) {
	if sig, err := btcecdsa.ParseDERSignature(signature); err == nil {
		return sig, nil
	}

	// 65-byte recoverable signatures carry a trailing recovery id.
	if len(signature) == 65 {
		signature = signature[:64]
	}
	if len(signature) != 64 {
		return nil, errors.Errorf("signature must be DER or 64-byte compact, got %d bytes", len(signature))
	}

	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(signature[:32]); overflow {
		return nil, errors.New("signature r overflows the curve order")
	}
	if overflow := s.SetByteSlice(signature[32:64]); overflow {
		return nil, errors.New("signature s overflows the curve order")
	}

	return btcecdsa.NewSignature(&r, &s), nil
}
