package domain

// AuthParams carries everything the relay needs to evaluate an auth request.
// The same values are bound into the signed verification so the signature
// cannot be replayed against a different request.
type AuthParams struct {
	Address    string      `json:"address"`
	AppID      string      `json:"application"`
	SessionKey string      `json:"session_key"`
	Allowances []Allowance `json:"allowances"`
	Expire     int64       `json:"expire"` // unix seconds
	Scope      string      `json:"scope"`
}

// Verification is the signed envelope produced by a Signer over a challenge
// and the original auth parameters.
type Verification struct {
	Challenge string     `json:"challenge"`
	Params    AuthParams `json:"params"`
	Signature string     `json:"signature"` // hex
}

// AuthResult is the outcome of one authenticate call. Failure is a value,
// never a raised fault: Error holds a human-readable reason when Success is
// false.
type AuthResult struct {
	Success   bool
	Error     string
	SessionID string
	Balances  []BalanceEntry
}
