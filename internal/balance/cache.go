package balance

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"payrail/internal/dispatch"
	"payrail/internal/domain"
	"payrail/internal/wire"
)

const (
	methodGetBalance    = "get_balance"
	methodBalanceUpdate = "balance_update"

	// DefaultTTL is how long a cache entry serves reads without refresh.
	DefaultTTL = 30 * time.Second

	defaultFetchTimeout = 10 * time.Second
)

// Sender is what the cache needs from the transport.
type Sender interface {
	Send(env wire.Envelope) error
}

// UpdateFunc observes balance changes applied by push events.
type UpdateFunc func(entry domain.BalanceEntry)

// Config tunes the cache; zero values take the defaults.
type Config struct {
	TTL          time.Duration
	FetchTimeout time.Duration
	Now          func() time.Time // test clock
}

// Cache holds the balance entries and their push subscription. Construct one
// per connection in the composition root.
type Cache struct {
	tr     Sender
	router *dispatch.Router
	cfg    Config
	log    zerolog.Logger

	mu        sync.Mutex
	entries   map[string]domain.BalanceEntry
	callbacks []UpdateFunc
}

// New builds the cache and registers its permanent balance_update listener.
func New(tr Sender, router *dispatch.Router, cfg Config, log zerolog.Logger) *Cache {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	c := &Cache{
		tr:      tr,
		router:  router,
		cfg:     cfg,
		log:     log.With().Str("component", "balance").Logger(),
		entries: make(map[string]domain.BalanceEntry),
	}
	router.On(methodBalanceUpdate, c.onPush)
	return c
}

type balancePayload struct {
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
	Balance string `json:"balance"` // pull responses carry "balance" instead
}

func (p balancePayload) amount() string {
	if p.Amount != "" {
		return p.Amount
	}
	return p.Balance
}

// onPush applies a pushed update and notifies registered observers.
func (c *Cache) onPush(env wire.Envelope) {
	var p balancePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil || p.Asset == "" {
		c.log.Warn().Msg("discarding malformed balance_update")
		return
	}
	entry := domain.BalanceEntry{Asset: p.Asset, Amount: p.amount(), ObservedAt: c.cfg.Now()}

	c.mu.Lock()
	c.entries[p.Asset] = entry
	callbacks := append([]UpdateFunc(nil), c.callbacks...)
	c.mu.Unlock()

	for _, cb := range callbacks {
		cb(entry)
	}
}

// OnUpdate registers an observer for pushed balance changes.
func (c *Cache) OnUpdate(fn UpdateFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

// Get returns the asset balance in smallest units. A fresh cache entry is
// served directly unless force is set; otherwise a correlated get_balance
// pull runs against the relay. Any failure falls back to the last cached
// value, or "0" — the read path never errors.
func (c *Cache) Get(ctx context.Context, asset string, force bool) string {
	c.mu.Lock()
	cached, ok := c.entries[asset]
	c.mu.Unlock()

	if ok && !force && c.cfg.Now().Sub(cached.ObservedAt) < c.cfg.TTL {
		return cached.Amount
	}

	amount, err := c.fetch(ctx, asset)
	if err != nil {
		c.log.Warn().Err(err).Str("asset", asset).Msg("balance fetch failed, serving cached value")
		if ok {
			return cached.Amount
		}
		return "0"
	}

	c.mu.Lock()
	c.entries[asset] = domain.BalanceEntry{Asset: asset, Amount: amount, ObservedAt: c.cfg.Now()}
	c.mu.Unlock()
	return amount
}

func (c *Cache) fetch(ctx context.Context, asset string) (string, error) {
	req, err := wire.NewRequest(methodGetBalance, struct {
		Asset string `json:"asset"`
	}{asset})
	if err != nil {
		return "", err
	}
	if err := c.tr.Send(req); err != nil {
		return "", err
	}
	env, err := c.router.WaitForID(ctx, req.RequestID, c.cfg.FetchTimeout)
	if err != nil {
		return "", err
	}
	var p balancePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil || p.amount() == "" {
		return "", domain.ErrInvalidResponse
	}
	return p.amount(), nil
}

// Prime seeds the cache, typically with the balance snapshot delivered by
// auth_success.
func (c *Cache) Prime(entries []domain.BalanceEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		c.entries[e.Asset] = e
	}
}

// Snapshot returns all cached entries.
func (c *Cache) Snapshot() []domain.BalanceEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.BalanceEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}
