// Package auth drives the challenge-response login handshake with the relay.
//
// The sequence is four steps over the shared connection:
//
//	auth_request  ->            (address, app, session key, allowances, expiry, scope)
//	              <- auth_challenge
//	auth_verify   ->            (challenge signed by the wallet's primary credential)
//	              <- auth_success
//
// The signature covers the original request parameters, so a challenge
// cannot be spliced onto a different request. Only one handshake runs at a
// time process-wide; concurrent callers share the in-flight result. Failures
// resolve as values carrying a reason string, never as raised faults.
package auth
