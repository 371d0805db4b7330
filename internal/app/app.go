package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"payrail/internal/balance"
	"payrail/internal/config"
	"payrail/internal/crypto"
	"payrail/internal/domain"
	"payrail/internal/sessionkey"
	"payrail/internal/store"
)

const walletKey = "wallet.blob"

// App exposes the public operations a UI or content layer calls. Everything
// else stays behind the Wire.
type App struct {
	wire *Wire
	rt   config.Config
}

func New(w *Wire, rt config.Config) *App {
	return &App{wire: w, rt: rt}
}

// Wire exposes the underlying dependency graph for commands that need a
// specific service directly.
func (a *App) Wire() *Wire { return a.wire }

// GenerateSessionKey creates and persists a fresh session key under
// password, carrying the given allowances (the configured defaults when nil).
func (a *App) GenerateSessionKey(password string, allowances []domain.Allowance) (domain.SessionKey, error) {
	if ok, msg := sessionkey.CheckPassword(password); !ok {
		return domain.SessionKey{}, errors.New(msg)
	}
	if allowances == nil {
		allowances = a.rt.DomainAllowances()
	}
	key, err := a.wire.Keys.Generate(allowances)
	if err != nil {
		return domain.SessionKey{}, err
	}
	if err := a.wire.Keys.Persist(key, password); err != nil {
		return domain.SessionKey{}, err
	}
	return key, nil
}

// Authenticate runs the login handshake using the stored session key (a
// fresh one is generated when none exists) and the wallet credential. On
// success the balance cache is primed with the snapshot from auth_success.
// Failures resolve as a result value, never an error.
func (a *App) Authenticate(ctx context.Context, password string) domain.AuthResult {
	wallet, err := a.loadOrCreateWallet(password)
	if err != nil {
		return domain.AuthResult{Success: false, Error: fmt.Sprintf("loading wallet: %v", err)}
	}
	key, err := a.wire.Keys.Load(password)
	if errors.Is(err, domain.ErrNoKey) {
		key, err = a.GenerateSessionKey(password, nil)
	}
	if err != nil {
		return domain.AuthResult{Success: false, Error: fmt.Sprintf("loading session key: %v", err)}
	}

	params := domain.AuthParams{
		Address:    wallet.Address(),
		AppID:      a.rt.AppID,
		SessionKey: key.PublicIdentity(),
		Allowances: key.Allowances,
		Expire:     key.ExpiresAt.Unix(),
		Scope:      a.rt.Scope,
	}
	result := a.wire.Auth.Authenticate(ctx, params, crypto.NewWalletSigner(wallet))
	if result.Success {
		a.wire.Balances.Prime(result.Balances)
	}
	return result
}

// GetUnifiedBalance returns the asset balance in smallest units. Never
// fails; see balance.Cache.Get.
func (a *App) GetUnifiedBalance(ctx context.Context, asset string, force bool) string {
	return a.wire.Balances.Get(ctx, asset, force)
}

// FormatBalance renders a smallest-unit amount at the configured precision.
func (a *App) FormatBalance(amount string) (string, error) {
	return balance.Format(amount, a.rt.Decimals)
}

// RotateIfNeeded replaces the stored session key when it is expired or the
// asset's allowance is spent, returning the active key either way.
func (a *App) RotateIfNeeded(asset, password string) (domain.SessionKey, bool, error) {
	key, err := a.wire.Keys.Load(password)
	if err != nil {
		return domain.SessionKey{}, false, err
	}
	spent, err := a.wire.Keys.Spent(asset)
	if err != nil {
		return domain.SessionKey{}, false, err
	}
	return a.wire.Keys.RotateIfNeeded(key, spent, asset, password)
}

// loadOrCreateWallet decrypts the stored primary credential, generating and
// persisting one on first use.
func (a *App) loadOrCreateWallet(password string) (crypto.Wallet, error) {
	sealed, ok, err := a.wire.KV.Get(walletKey)
	if err != nil {
		return crypto.Wallet{}, err
	}
	if ok {
		raw, err := store.Open(password, sealed)
		if err != nil {
			return crypto.Wallet{}, err
		}
		defer crypto.Wipe(raw)
		var w crypto.Wallet
		if err := json.Unmarshal(raw, &w); err != nil {
			return crypto.Wallet{}, err
		}
		return w, nil
	}

	w, err := crypto.GenerateWallet()
	if err != nil {
		return crypto.Wallet{}, err
	}
	raw, err := json.Marshal(w)
	if err != nil {
		return crypto.Wallet{}, err
	}
	sealed, err = store.Seal(password, raw)
	crypto.Wipe(raw)
	if err != nil {
		return crypto.Wallet{}, err
	}
	if err := a.wire.KV.Set(walletKey, sealed); err != nil {
		return crypto.Wallet{}, err
	}
	return w, nil
}
