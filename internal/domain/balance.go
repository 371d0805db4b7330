package domain

import "time"

// BalanceEntry is one cached asset balance. Amount is an arbitrary-precision
// decimal integer string in the asset's smallest unit; string form avoids
// float precision loss when the value crosses process or UI boundaries.
type BalanceEntry struct {
	Asset      string    `json:"asset"`
	Amount     string    `json:"amount"`
	ObservedAt time.Time `json:"observed_at"`
}
