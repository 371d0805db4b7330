package sessionkey

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"payrail/internal/crypto"
	"payrail/internal/domain"
	"payrail/internal/store"
)

const (
	blobKey   = "sessionkey.blob"
	expiryKey = "sessionkey.expiry"

	// DefaultDuration is the lifetime of a freshly generated session key.
	DefaultDuration = time.Hour
)

// Config tunes the service. Zero values take the defaults.
type Config struct {
	// Duration is the lifetime of generated keys.
	Duration time.Duration

	// DefaultAllowances seed a rotated key when the previous key carried no
	// allowances at all.
	DefaultAllowances []domain.Allowance

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service owns every stored session key during its lifetime. Keys exist in
// plaintext only in memory; at rest they live inside a password envelope.
type Service struct {
	kv                domain.KV
	duration          time.Duration
	defaultAllowances []domain.Allowance
	now               func() time.Time
}

func New(kv domain.KV, cfg Config) *Service {
	if cfg.Duration == 0 {
		cfg.Duration = DefaultDuration
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		kv:                kv,
		duration:          cfg.Duration,
		defaultAllowances: cfg.DefaultAllowances,
		now:               cfg.Now,
	}
}

// Generate produces a fresh, unpersisted session key expiring after the
// configured duration. Allowances collapse to at most one entry per asset;
// a later entry for the same asset wins.
func (s *Service) Generate(allowances []domain.Allowance) (domain.SessionKey, error) {
	priv, pub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.SessionKey{}, err
	}
	return domain.SessionKey{
		Priv:       priv,
		Pub:        pub,
		ExpiresAt:  s.now().Add(s.duration),
		Allowances: dedupeAllowances(allowances),
	}, nil
}

// Persist encrypts key under password and writes it to storage, along with a
// plaintext expiry stamp used for cheap expiry checks without decryption.
// Overwrites any prior entry.
func (s *Service) Persist(key domain.SessionKey, password string) error {
	raw, err := json.Marshal(key)
	if err != nil {
		return err
	}
	sealed, err := store.Seal(password, raw)
	crypto.Wipe(raw)
	if err != nil {
		return err
	}
	if err := s.kv.Set(blobKey, sealed); err != nil {
		return err
	}
	return s.kv.Set(expiryKey, []byte(strconv.FormatInt(key.ExpiresAt.Unix(), 10)))
}

// Load reads and decrypts the stored session key.
//
//   - No stored key: domain.ErrNoKey.
//   - Stored key already expired: the entry is deleted and domain.ErrNoKey
//     is returned rather than the stale key.
//   - Wrong password or corrupt ciphertext: domain.ErrDecryptFailed.
func (s *Service) Load(password string) (domain.SessionKey, error) {
	// Cheap check against the plaintext stamp first; avoids scrypt when the
	// key is known-stale.
	if stamp, ok, err := s.kv.Get(expiryKey); err == nil && ok {
		if unix, perr := strconv.ParseInt(string(stamp), 10, 64); perr == nil {
			if s.now().After(time.Unix(unix, 0)) {
				s.deleteStored()
				return domain.SessionKey{}, domain.ErrNoKey
			}
		}
	}

	sealed, ok, err := s.kv.Get(blobKey)
	if err != nil {
		return domain.SessionKey{}, err
	}
	if !ok {
		return domain.SessionKey{}, domain.ErrNoKey
	}
	raw, err := store.Open(password, sealed)
	if err != nil {
		if errors.Is(err, store.ErrWrongPassword) {
			return domain.SessionKey{}, domain.ErrDecryptFailed
		}
		return domain.SessionKey{}, err
	}
	defer crypto.Wipe(raw)

	var key domain.SessionKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return domain.SessionKey{}, domain.ErrDecryptFailed
	}
	if s.IsExpired(key) {
		s.deleteStored()
		return domain.SessionKey{}, domain.ErrNoKey
	}
	return key, nil
}

func (s *Service) deleteStored() {
	_ = s.kv.Delete(blobKey)
	_ = s.kv.Delete(expiryKey)
}

// IsExpired reports whether key's expiry lies in the past.
func (s *Service) IsExpired(key domain.SessionKey) bool {
	return s.now().After(key.ExpiresAt)
}

// NeedsRotation reports whether key must be replaced before authorising
// another spend: true when the key is expired, or when the asset has an
// allowance entry and spentAmount has reached it. An asset with no allowance
// entry is unrestricted.
func (s *Service) NeedsRotation(key domain.SessionKey, spentAmount, asset string) bool {
	if s.IsExpired(key) {
		return true
	}
	allowance, ok := key.Allowance(asset)
	if !ok {
		return false
	}
	return cmpDecimal(spentAmount, allowance.Amount) >= 0
}

// RotateIfNeeded returns key unchanged when no rotation is due. Otherwise it
// generates a replacement preserving the previous allowances (or the
// configured default set when the key had none), persists it, and resets the
// spend ledger for asset. Safe to call before every spend-authorising
// operation.
func (s *Service) RotateIfNeeded(key domain.SessionKey, spentAmount, asset, password string) (domain.SessionKey, bool, error) {
	if !s.NeedsRotation(key, spentAmount, asset) {
		return key, false, nil
	}
	allowances := key.Allowances
	if len(allowances) == 0 {
		allowances = s.defaultAllowances
	}
	fresh, err := s.Generate(allowances)
	if err != nil {
		return domain.SessionKey{}, false, err
	}
	if err := s.Persist(fresh, password); err != nil {
		return domain.SessionKey{}, false, err
	}
	if err := s.ResetSpend(asset); err != nil {
		return domain.SessionKey{}, false, fmt.Errorf("resetting spend ledger: %w", err)
	}
	return fresh, true, nil
}

func dedupeAllowances(in []domain.Allowance) []domain.Allowance {
	if len(in) == 0 {
		return nil
	}
	idx := make(map[string]int, len(in))
	out := make([]domain.Allowance, 0, len(in))
	for _, a := range in {
		if i, ok := idx[a.Asset]; ok {
			out[i] = a
			continue
		}
		idx[a.Asset] = len(out)
		out = append(out, a)
	}
	return out
}

// cmpDecimal compares two decimal integer strings by magnitude. Unparseable
// input counts as zero.
func cmpDecimal(a, b string) int {
	return parseDecimal(a).Cmp(parseDecimal(b))
}

func parseDecimal(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}
