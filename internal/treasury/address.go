package treasury

import (
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// ChainAddresses are the on-chain spending addresses derived from the
// treasury's wallet key. The key never leaves the signing network; these are
// pure derivations for display and funding.
type ChainAddresses struct {
	EVM     string `json:"evm"`
	Taproot string `json:"taproot"`
}

// DeriveAddresses computes the EVM address (Keccak-256 over the uncompressed
// point) and the BIP-86 taproot address (key path only, no script tree) for
// the given compressed public key.
func DeriveAddresses(publicKey []byte, network string) (*ChainAddresses, error) {
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return nil, err
	}

	uncompressed := pub.SerializeUncompressed()
	evm := common.BytesToAddress(ethcrypto.Keccak256(uncompressed[1:])[12:]).Hex()

	params, err := chainParams(network)
	if err != nil {
		return nil, err
	}

	taprootKey := txscript.ComputeTaprootKeyNoScript(pub)
	taprootAddr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(taprootKey), params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build taproot address")
	}

	return &ChainAddresses{
		EVM:     evm,
		Taproot: taprootAddr.EncodeAddress(),
	}, nil
}

func chainParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	}
	return nil, errors.Errorf("unknown chain network %q", network)
}
