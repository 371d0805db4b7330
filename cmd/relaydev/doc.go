// Package main runs the in-memory WebSocket relay used by Payrail during
// development and tests. It terminates the envelope protocol on /ws.
//
// Protocol
//
//	auth_request  -> auth_challenge with a fresh challenge_message
//	auth_verify   -> auth_success when the echoed challenge matches
//	get_balance   -> correlated response with the account's balance
//
// After a successful login the relay pushes one balance_update per seeded
// asset so clients can warm their caches without polling.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Balances are seeded per asset via -balance flags (asset=amount).
//   - The default listen address is :8080.
//
// The relay never sees private keys; it stores public session identities and
// integer balance strings only. Intended for local use.
package main
