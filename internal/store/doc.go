// Package store provides persistence for Payrail's core data.
//
// It contains the key-value implementations of domain.KV — BoltStore for
// durable single-file storage and MemStore for tests — plus the password
// envelope used to encrypt session key material at rest. Semantics are
// last-write-wins; no transactional guarantees are offered beyond what a
// single bbolt update provides.
package store
