package app

import (
	"path/filepath"

	"payrail/internal/balance"
	"payrail/internal/dispatch"
	"payrail/internal/domain"
	"payrail/internal/protocol/auth"
	"payrail/internal/sessionkey"
	"payrail/internal/store"
	"payrail/internal/transport"
)

// Wire bundles the store, transport and high-level services.
type Wire struct {
	KV       domain.KV
	Router   *dispatch.Router
	Conn     *transport.Conn
	Keys     *sessionkey.Service
	Auth     *auth.Handshake
	Balances *balance.Cache

	closeKV func() error
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	kv := cfg.KV
	closeKV := func() error { return nil }
	if kv == nil {
		bolt, err := store.OpenBolt(filepath.Join(cfg.Home, "payrail.db"))
		if err != nil {
			return nil, err
		}
		kv = bolt
		closeKV = bolt.Close
	}

	rt := cfg.Runtime
	router := dispatch.NewRouter(cfg.Log)
	conn := transport.New(transport.Config{
		URL:         rt.RelayURL,
		Dial:        cfg.Dial,
		DialTimeout: rt.Transport.DialTimeout.Std(),
		BackoffBase: rt.Transport.BackoffBase.Std(),
		BackoffCap:  rt.Transport.BackoffCap.Std(),
		MaxAttempts: rt.Transport.MaxAttempts,
		QueueLimit:  rt.Transport.QueueLimit,
	}, router, cfg.Log)

	keys := sessionkey.New(kv, sessionkey.Config{
		Duration:          rt.SessionDuration.Std(),
		DefaultAllowances: rt.DomainAllowances(),
	})
	handshake := auth.New(conn, router, auth.Config{}, cfg.Log)
	balances := balance.New(conn, router, balance.Config{TTL: rt.BalanceTTL.Std()}, cfg.Log)

	return &Wire{
		KV:       kv,
		Router:   router,
		Conn:     conn,
		Keys:     keys,
		Auth:     handshake,
		Balances: balances,
		closeKV:  closeKV,
	}, nil
}

// Close disconnects the transport and releases the store.
func (w *Wire) Close() error {
	w.Conn.Disconnect()
	return w.closeKV()
}
