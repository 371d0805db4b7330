package domain

import (
	"encoding/hex"
	"time"
)

// Allowance is a per-asset ceiling on cumulative spend authorised under a
// session key. Amount is a decimal integer string in the asset's smallest unit.
type Allowance struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// SessionKey is an ephemeral keypair delegated limited, time- and
// amount-bounded spending authority, distinct from the wallet's primary
// credential. Allowances hold at most one entry per asset.
type SessionKey struct {
	Priv       Ed25519Private `json:"priv"`
	Pub        Ed25519Public  `json:"pub"`
	ExpiresAt  time.Time      `json:"expires_at"`
	Allowances []Allowance    `json:"allowances"`
}

// PublicIdentity returns the hex form of the session public key, as sent to
// the relay during the auth handshake.
func (k SessionKey) PublicIdentity() string {
	return hex.EncodeToString(k.Pub[:])
}

// Allowance returns the allowance entry for asset, if one exists.
func (k SessionKey) Allowance(asset string) (Allowance, bool) {
	for _, a := range k.Allowances {
		if a.Asset == asset {
			return a, true
		}
	}
	return Allowance{}, false
}
