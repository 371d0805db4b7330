// Package sessionkey manages the lifecycle of delegated session keys.
//
// It generates ephemeral Ed25519 keypairs carrying per-asset spend
// allowances, persists them encrypted under a user password, loads and
// expires them, and rotates them once an allowance is spent. A small spend
// ledger in the same key-value store tracks cumulative spend per asset so
// callers can run RotateIfNeeded before every spend-authorising operation.
package sessionkey
