package sessionkey_test

import (
	"errors"
	"testing"
	"time"

	"payrail/internal/domain"
	"payrail/internal/sessionkey"
	"payrail/internal/store"
)

const password = "Correct1Password"

func newService(t *testing.T, cfg sessionkey.Config) (*sessionkey.Service, *store.MemStore) {
	t.Helper()
	kv := store.NewMemStore()
	return sessionkey.New(kv, cfg), kv
}

func TestGeneratePersistLoadRoundTrip(t *testing.T) {
	svc, _ := newService(t, sessionkey.Config{})

	key, err := svc.Generate([]domain.Allowance{{Asset: "usd", Amount: "100000000"}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if key.PublicIdentity() == "" {
		t.Fatal("generated key has empty public identity")
	}
	if remaining := time.Until(key.ExpiresAt); remaining < 59*time.Minute || remaining > 61*time.Minute {
		t.Fatalf("expiry %v from now, want about an hour", remaining)
	}

	if err := svc.Persist(key, password); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	got, err := svc.Load(password)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.PublicIdentity() != key.PublicIdentity() {
		t.Fatal("loaded key does not match persisted key")
	}
	if len(got.Allowances) != 1 || got.Allowances[0].Amount != "100000000" {
		t.Fatalf("allowances %+v survived badly", got.Allowances)
	}
}

func TestLoadNoKey(t *testing.T) {
	svc, _ := newService(t, sessionkey.Config{})
	if _, err := svc.Load(password); !errors.Is(err, domain.ErrNoKey) {
		t.Fatalf("got %v, want ErrNoKey", err)
	}
}

func TestLoadWrongPassword(t *testing.T) {
	svc, _ := newService(t, sessionkey.Config{})
	key, err := svc.Generate(nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := svc.Persist(key, password); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if _, err := svc.Load("Wrong1Password"); !errors.Is(err, domain.ErrDecryptFailed) {
		t.Fatalf("got %v, want ErrDecryptFailed", err)
	}
}

func TestLoadExpiredKeyDeletesStoredEntry(t *testing.T) {
	current := time.Now()
	svc, kv := newService(t, sessionkey.Config{
		Duration: time.Hour,
		Now:      func() time.Time { return current },
	})

	key, err := svc.Generate(nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := svc.Persist(key, password); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	current = current.Add(2 * time.Hour)
	if _, err := svc.Load(password); !errors.Is(err, domain.ErrNoKey) {
		t.Fatalf("got %v, want ErrNoKey for expired key", err)
	}
	for _, k := range []string{"sessionkey.blob", "sessionkey.expiry"} {
		if _, ok, _ := kv.Get(k); ok {
			t.Fatalf("stale entry %q survived expiry", k)
		}
	}
}

func TestPersistOverwritesPrevious(t *testing.T) {
	svc, _ := newService(t, sessionkey.Config{})
	first, _ := svc.Generate(nil)
	second, _ := svc.Generate(nil)
	if err := svc.Persist(first, password); err != nil {
		t.Fatalf("Persist first: %v", err)
	}
	if err := svc.Persist(second, password); err != nil {
		t.Fatalf("Persist second: %v", err)
	}
	got, err := svc.Load(password)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.PublicIdentity() != second.PublicIdentity() {
		t.Fatal("Load returned the overwritten key")
	}
}

func TestNeedsRotation(t *testing.T) {
	current := time.Now()
	svc, _ := newService(t, sessionkey.Config{Now: func() time.Time { return current }})

	live := domain.SessionKey{
		ExpiresAt:  current.Add(time.Hour),
		Allowances: []domain.Allowance{{Asset: "usd", Amount: "1000"}},
	}
	expired := live
	expired.ExpiresAt = current.Add(-time.Minute)

	cases := []struct {
		name  string
		key   domain.SessionKey
		spent string
		asset string
		want  bool
	}{
		{"live under allowance", live, "999", "usd", false},
		{"live at allowance", live, "1000", "usd", true},
		{"live over allowance", live, "1001", "usd", true},
		{"expired regardless of spend", expired, "0", "usd", true},
		{"asset without allowance is unrestricted", live, "999999", "eur", false},
	}
	for _, tc := range cases {
		if got := svc.NeedsRotation(tc.key, tc.spent, tc.asset); got != tc.want {
			t.Fatalf("%s: NeedsRotation = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRotateIfNeededPreservesAllowances(t *testing.T) {
	svc, _ := newService(t, sessionkey.Config{})

	key, _ := svc.Generate([]domain.Allowance{{Asset: "usd", Amount: "1000"}})
	if err := svc.RecordSpend("usd", "1000"); err != nil {
		t.Fatalf("RecordSpend: %v", err)
	}

	fresh, rotated, err := svc.RotateIfNeeded(key, "1000", "usd", password)
	if err != nil {
		t.Fatalf("RotateIfNeeded: %v", err)
	}
	if !rotated {
		t.Fatal("expected rotation at exhausted allowance")
	}
	if fresh.PublicIdentity() == key.PublicIdentity() {
		t.Fatal("rotation did not mint a new keypair")
	}
	if len(fresh.Allowances) != 1 || fresh.Allowances[0].Amount != "1000" {
		t.Fatalf("allowances %+v not carried over", fresh.Allowances)
	}

	// Rotation resets the asset's ledger.
	spent, err := svc.Spent("usd")
	if err != nil {
		t.Fatalf("Spent: %v", err)
	}
	if spent != "0" {
		t.Fatalf("spend ledger %q after rotation, want 0", spent)
	}

	// And persists the replacement.
	got, err := svc.Load(password)
	if err != nil {
		t.Fatalf("Load after rotation: %v", err)
	}
	if got.PublicIdentity() != fresh.PublicIdentity() {
		t.Fatal("persisted key is not the rotated key")
	}
}

func TestRotateIfNeededNoOpWhenHealthy(t *testing.T) {
	svc, _ := newService(t, sessionkey.Config{})
	key, _ := svc.Generate([]domain.Allowance{{Asset: "usd", Amount: "1000"}})

	same, rotated, err := svc.RotateIfNeeded(key, "10", "usd", password)
	if err != nil {
		t.Fatalf("RotateIfNeeded: %v", err)
	}
	if rotated {
		t.Fatal("rotated a healthy key")
	}
	if same.PublicIdentity() != key.PublicIdentity() {
		t.Fatal("healthy key was replaced")
	}
}

func TestRotateUsesDefaultAllowancesWhenKeyHadNone(t *testing.T) {
	current := time.Now()
	svc, _ := newService(t, sessionkey.Config{
		DefaultAllowances: []domain.Allowance{{Asset: "usd", Amount: "5000"}},
		Now:               func() time.Time { return current },
	})

	bare := domain.SessionKey{ExpiresAt: current.Add(-time.Minute)}
	fresh, rotated, err := svc.RotateIfNeeded(bare, "0", "usd", password)
	if err != nil {
		t.Fatalf("RotateIfNeeded: %v", err)
	}
	if !rotated {
		t.Fatal("expected expired key to rotate")
	}
	if len(fresh.Allowances) != 1 || fresh.Allowances[0].Amount != "5000" {
		t.Fatalf("allowances %+v, want configured defaults", fresh.Allowances)
	}
}

func TestGenerateDedupesAllowances(t *testing.T) {
	svc, _ := newService(t, sessionkey.Config{})
	key, err := svc.Generate([]domain.Allowance{
		{Asset: "usd", Amount: "1"},
		{Asset: "eur", Amount: "2"},
		{Asset: "usd", Amount: "3"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(key.Allowances) != 2 {
		t.Fatalf("allowances %+v, want 2 entries", key.Allowances)
	}
	usd, ok := key.Allowance("usd")
	if !ok || usd.Amount != "3" {
		t.Fatalf("usd allowance %+v, want later entry to win", usd)
	}
}

func TestSpendLedgerAccumulates(t *testing.T) {
	svc, _ := newService(t, sessionkey.Config{})

	if spent, _ := svc.Spent("usd"); spent != "0" {
		t.Fatalf("fresh ledger %q, want 0", spent)
	}
	if err := svc.RecordSpend("usd", "250"); err != nil {
		t.Fatalf("RecordSpend: %v", err)
	}
	if err := svc.RecordSpend("usd", "750"); err != nil {
		t.Fatalf("RecordSpend: %v", err)
	}
	if spent, _ := svc.Spent("usd"); spent != "1000" {
		t.Fatalf("ledger %q, want 1000", spent)
	}
	if err := svc.RecordSpend("usd", "not-a-number"); err == nil {
		t.Fatal("expected error for malformed amount")
	}
	if err := svc.ResetSpend("usd"); err != nil {
		t.Fatalf("ResetSpend: %v", err)
	}
	if spent, _ := svc.Spent("usd"); spent != "0" {
		t.Fatalf("ledger %q after reset, want 0", spent)
	}
}

func TestCheckPassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Abcdef12", true},
		{"LongEnough99", true},
		{"Ab1", false},       // too short
		{"abcdefg1", false},  // no uppercase
		{"ABCDEFG1", false},  // no lowercase
		{"Abcdefgh", false},  // no digit
		{"", false},
	}
	for _, tc := range cases {
		ok, msg := sessionkey.CheckPassword(tc.password)
		if ok != tc.ok {
			t.Fatalf("CheckPassword(%q) = %v (%s), want %v", tc.password, ok, msg, tc.ok)
		}
		if !ok && msg == "" {
			t.Fatalf("CheckPassword(%q) rejected without a reason", tc.password)
		}
	}
}
