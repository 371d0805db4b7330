package app

import (
	"github.com/rs/zerolog"

	"payrail/internal/config"
	"payrail/internal/domain"
	"payrail/internal/transport"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home    string        // data directory, e.g. $HOME/.payrail
	Runtime config.Config // loaded payrail.toml
	Log     zerolog.Logger

	// KV overrides the bbolt store, used by tests.
	KV domain.KV
	// Dial overrides the transport dialer, used by tests.
	Dial transport.DialFunc
}
