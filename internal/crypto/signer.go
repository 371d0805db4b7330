package crypto

import (
	"encoding/hex"
	"encoding/json"

	"payrail/internal/domain"
)

// WalletSigner implements domain.Signer over the wallet's primary Ed25519
// credential. The signature covers the challenge together with the original
// auth parameters, binding it to the exact request that was challenged.
type WalletSigner struct {
	wallet Wallet
}

func NewWalletSigner(w Wallet) *WalletSigner {
	return &WalletSigner{wallet: w}
}

func (s *WalletSigner) Sign(challenge string, params domain.AuthParams) (domain.Verification, error) {
	msg, err := authMessage(challenge, params)
	if err != nil {
		return domain.Verification{}, err
	}
	sig := SignEd25519(s.wallet.Priv, msg)
	return domain.Verification{
		Challenge: challenge,
		Params:    params,
		Signature: hex.EncodeToString(sig),
	}, nil
}

// VerifyAuthSignature checks a Verification against pub. Used by tests; the
// relay performs the same check server-side.
func VerifyAuthSignature(pub domain.Ed25519Public, v domain.Verification) bool {
	msg, err := authMessage(v.Challenge, v.Params)
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(v.Signature)
	if err != nil {
		return false
	}
	return VerifyEd25519(pub, msg, sig)
}

// authMessage produces the canonical signing input. Field order is fixed by
// the struct definition, so both sides derive identical bytes.
func authMessage(challenge string, p domain.AuthParams) ([]byte, error) {
	return json.Marshal(struct {
		Challenge string            `json:"challenge"`
		Params    domain.AuthParams `json:"params"`
	}{challenge, p})
}

var _ domain.Signer = (*WalletSigner)(nil)
