package auth_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"payrail/internal/crypto"
	"payrail/internal/dispatch"
	"payrail/internal/domain"
	"payrail/internal/protocol/auth"
	"payrail/internal/wire"
)

// fakeRelay implements auth.Transport and scripts the relay's side of the
// conversation: each sent request is handed to script on its own goroutine
// after a short delay, so the handshake has registered its waiter.
type fakeRelay struct {
	router *dispatch.Router
	script func(env wire.Envelope)

	mu   sync.Mutex
	sent []wire.Envelope
}

func (f *fakeRelay) Send(env wire.Envelope) error {
	f.mu.Lock()
	f.sent = append(f.sent, env)
	f.mu.Unlock()
	if f.script != nil {
		go func() {
			time.Sleep(10 * time.Millisecond)
			f.script(env)
		}()
	}
	return nil
}

func (f *fakeRelay) WaitOpen(ctx context.Context, timeout time.Duration) error { return nil }

func (f *fakeRelay) sentMethods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, e := range f.sent {
		out[i] = e.Method
	}
	return out
}

func (f *fakeRelay) respond(id uint64, method string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	f.router.Dispatch(wire.Envelope{
		Kind:      wire.KindResponse,
		RequestID: id,
		Method:    method,
		Payload:   raw,
	})
}

func testParams(t *testing.T, w crypto.Wallet) domain.AuthParams {
	t.Helper()
	return domain.AuthParams{
		Address:    w.Address(),
		AppID:      "payrail",
		SessionKey: "deadbeef",
		Allowances: []domain.Allowance{{Asset: "usd", Amount: "1000000"}},
		Expire:     time.Now().Add(time.Hour).Unix(),
		Scope:      "app.transfer",
	}
}

func newHandshake(router *dispatch.Router, relay *fakeRelay, cfg auth.Config) *auth.Handshake {
	return auth.New(relay, router, cfg, zerolog.Nop())
}

func TestAuthenticateSuccess(t *testing.T) {
	router := dispatch.NewRouter(zerolog.Nop())
	relay := &fakeRelay{router: router}
	wallet, err := crypto.GenerateWallet()
	if err != nil {
		t.Fatalf("GenerateWallet: %v", err)
	}

	const challenge = "sign-me-77"
	relay.script = func(env wire.Envelope) {
		switch env.Method {
		case "auth_request":
			relay.respond(env.RequestID, "auth_challenge", map[string]string{"challenge_message": challenge})
		case "auth_verify":
			var v domain.Verification
			if err := json.Unmarshal(env.Params, &v); err != nil {
				t.Errorf("decoding verification: %v", err)
				return
			}
			if v.Challenge != challenge {
				t.Errorf("verification carries challenge %q, want %q", v.Challenge, challenge)
			}
			if !crypto.VerifyAuthSignature(wallet.Pub, v) {
				t.Error("signature does not verify against wallet credential")
			}
			relay.respond(env.RequestID, "auth_success", map[string]any{
				"session_id": "sess-1",
				"balances":   []map[string]string{{"asset": "usd", "amount": "2500000"}},
			})
		}
	}

	h := newHandshake(router, relay, auth.Config{})
	result := h.Authenticate(context.Background(), testParams(t, wallet), crypto.NewWalletSigner(wallet))
	if !result.Success {
		t.Fatalf("handshake failed: %s", result.Error)
	}
	if result.SessionID != "sess-1" {
		t.Fatalf("session id %q, want sess-1", result.SessionID)
	}
	if len(result.Balances) != 1 || result.Balances[0].Amount != "2500000" {
		t.Fatalf("unexpected balances: %+v", result.Balances)
	}
}

func TestAuthenticateChallengeTimeout(t *testing.T) {
	router := dispatch.NewRouter(zerolog.Nop())
	relay := &fakeRelay{router: router} // relay never answers

	h := newHandshake(router, relay, auth.Config{ChallengeTimeout: 30 * time.Millisecond})
	wallet, _ := crypto.GenerateWallet()

	result := h.Authenticate(context.Background(), testParams(t, wallet), crypto.NewWalletSigner(wallet))
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "Timeout waiting for auth_challenge" {
		t.Fatalf("error %q, want %q", result.Error, "Timeout waiting for auth_challenge")
	}

	// The single-flight guard must be released: a second call runs a fresh
	// handshake rather than blocking.
	result = h.Authenticate(context.Background(), testParams(t, wallet), crypto.NewWalletSigner(wallet))
	if result.Success || result.Error != "Timeout waiting for auth_challenge" {
		t.Fatalf("second attempt: %+v", result)
	}
	if got := len(relay.sentMethods()); got != 2 {
		t.Fatalf("sent %d auth_requests, want 2", got)
	}
}

func TestAuthenticateInvalidChallenge(t *testing.T) {
	router := dispatch.NewRouter(zerolog.Nop())
	relay := &fakeRelay{router: router}
	relay.script = func(env wire.Envelope) {
		if env.Method == "auth_request" {
			relay.respond(env.RequestID, "auth_challenge", map[string]string{"unexpected": "shape"})
		}
	}

	h := newHandshake(router, relay, auth.Config{})
	wallet, _ := crypto.GenerateWallet()
	result := h.Authenticate(context.Background(), testParams(t, wallet), crypto.NewWalletSigner(wallet))
	if result.Success || result.Error != "Invalid challenge response" {
		t.Fatalf("got %+v, want invalid challenge failure", result)
	}
}

func TestAuthenticateVerifyTimeout(t *testing.T) {
	router := dispatch.NewRouter(zerolog.Nop())
	relay := &fakeRelay{router: router}
	relay.script = func(env wire.Envelope) {
		if env.Method == "auth_request" {
			relay.respond(env.RequestID, "auth_challenge", map[string]string{"challenge_message": "c"})
		}
		// auth_verify is never answered
	}

	h := newHandshake(router, relay, auth.Config{VerifyTimeout: 30 * time.Millisecond})
	wallet, _ := crypto.GenerateWallet()
	result := h.Authenticate(context.Background(), testParams(t, wallet), crypto.NewWalletSigner(wallet))
	if result.Success || result.Error != "Timeout waiting for auth_success" {
		t.Fatalf("got %+v, want verify timeout failure", result)
	}
}

func TestAuthenticateSingleFlight(t *testing.T) {
	router := dispatch.NewRouter(zerolog.Nop())
	relay := &fakeRelay{router: router}
	relay.script = func(env wire.Envelope) {
		switch env.Method {
		case "auth_request":
			relay.respond(env.RequestID, "auth_challenge", map[string]string{"challenge_message": "c"})
		case "auth_verify":
			relay.respond(env.RequestID, "auth_success", map[string]any{"session_id": "sess-shared"})
		}
	}

	h := newHandshake(router, relay, auth.Config{})
	wallet, _ := crypto.GenerateWallet()
	params := testParams(t, wallet)
	signer := crypto.NewWalletSigner(wallet)

	var wg sync.WaitGroup
	results := make([]domain.AuthResult, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = h.Authenticate(context.Background(), params, signer)
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if !r.Success || r.SessionID != "sess-shared" {
			t.Fatalf("caller %d got %+v", i, r)
		}
	}

	requests := 0
	for _, m := range relay.sentMethods() {
		if m == "auth_request" {
			requests++
		}
	}
	if requests != 1 {
		t.Fatalf("%d auth_requests sent, want 1 (single flight)", requests)
	}
}
