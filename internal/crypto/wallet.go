package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"payrail/internal/domain"
)

// Wallet is the user's primary credential. It never leaves this package
// except through the Signer interface; session keys are delegated from it,
// not derived from it.
type Wallet struct {
	Priv domain.Ed25519Private
	Pub  domain.Ed25519Public
}

// GenerateWallet returns a fresh primary credential.
func GenerateWallet() (Wallet, error) {
	priv, pub, err := GenerateEd25519()
	if err != nil {
		return Wallet{}, err
	}
	return Wallet{Priv: priv, Pub: pub}, nil
}

// Address returns the wallet's stable account address: a 20-byte truncated
// SHA-256 of the public key, hex encoded with a 0x prefix.
func (w Wallet) Address() string {
	sum := sha256.Sum256(w.Pub[:])
	return "0x" + hex.EncodeToString(sum[:20])
}
