// Package commands defines the payrail CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - init          Generate and store a session key under a password
//   - authenticate  Run the challenge-response login against the relay
//   - balance       Print an asset balance (cached or pulled)
//   - spend         Record a spend against the session key's allowance
//   - rotate        Rotate the session key if expired or over allowance
//   - status        Show connection state, key expiry and cached balances
//
// # Implementation
//
// The root command loads payrail.toml, applies flag overrides, and builds
// the dependency graph via app.NewWire in PersistentPreRunE; subcommands
// share the resulting *app.App through package state.
package commands
