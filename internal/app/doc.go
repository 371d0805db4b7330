// Package app wires application dependencies for the CLI.
//
// It builds the concrete store, transport, and high-level services from
// Config, exposing them via the Wire struct, and implements the public
// operations a UI layer calls: Authenticate, GetUnifiedBalance,
// GenerateSessionKey and RotateIfNeeded.
package app
