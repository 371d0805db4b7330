package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"payrail/internal/domain"
)

// Duration parses TOML strings like "30s" or "1h".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Transport tunes the relay connection.
type Transport struct {
	DialTimeout Duration `toml:"dial_timeout"`
	BackoffBase Duration `toml:"backoff_base"`
	BackoffCap  Duration `toml:"backoff_cap"`
	MaxAttempts int      `toml:"max_attempts"`
	QueueLimit  int      `toml:"queue_limit"`
}

// Allowance mirrors domain.Allowance in TOML form.
type Allowance struct {
	Asset  string `toml:"asset"`
	Amount string `toml:"amount"`
}

// Config is the full runtime configuration.
type Config struct {
	RelayURL        string      `toml:"relay_url"`
	AppID           string      `toml:"app_id"`
	Scope           string      `toml:"scope"`
	Decimals        int         `toml:"decimals"`
	SessionDuration Duration    `toml:"session_duration"`
	BalanceTTL      Duration    `toml:"balance_ttl"`
	Allowances      []Allowance `toml:"allowance"`
	Transport       Transport   `toml:"transport"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		RelayURL:        "ws://127.0.0.1:8080/ws",
		AppID:           "payrail",
		Scope:           "app.transfer",
		Decimals:        6,
		SessionDuration: Duration(time.Hour),
		BalanceTTL:      Duration(30 * time.Second),
		Allowances: []Allowance{
			{Asset: "usd", Amount: "100000000"},
		},
	}
}

// Load reads path over the defaults. A missing file is not an error; the
// defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("loading %s: %w", path, err)
	}
	if cfg.RelayURL == "" {
		return Config{}, fmt.Errorf("%s: relay_url must not be empty", path)
	}
	return cfg, nil
}

// DomainAllowances converts the configured allowances to domain form.
func (c Config) DomainAllowances() []domain.Allowance {
	out := make([]domain.Allowance, 0, len(c.Allowances))
	for _, a := range c.Allowances {
		out = append(out, domain.Allowance{Asset: a.Asset, Amount: a.Amount})
	}
	return out
}
