package domain

// KV is the persistent key-value collaborator. Implementations provide
// last-write-wins semantics only; no transactions are assumed.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Signer produces a verification envelope over a challenge using the wallet's
// primary credential. The core never sees the underlying private key.
type Signer interface {
	Sign(challenge string, params AuthParams) (Verification, error)
}
