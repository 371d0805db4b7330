package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"payrail/internal/dispatch"
	"payrail/internal/domain"
	"payrail/internal/wire"
)

// State tracks handshake progress. Failed is reachable from every
// non-terminal state.
type State int

const (
	Idle State = iota
	RequestSent
	ChallengeReceived
	VerifySent
	Authenticated
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RequestSent:
		return "request_sent"
	case ChallengeReceived:
		return "challenge_received"
	case VerifySent:
		return "verify_sent"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return "invalid"
	}
}

const (
	methodAuthRequest   = "auth_request"
	methodAuthChallenge = "auth_challenge"
	methodAuthVerify    = "auth_verify"
	methodAuthSuccess   = "auth_success"
)

const (
	defaultConnectTimeout   = 5 * time.Second
	defaultChallengeTimeout = 10 * time.Second
	defaultVerifyTimeout    = 10 * time.Second
)

// Config overrides the step timeouts; zero values take the defaults.
type Config struct {
	ConnectTimeout   time.Duration
	ChallengeTimeout time.Duration
	VerifyTimeout    time.Duration
}

func (c *Config) applyDefaults() {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.ChallengeTimeout == 0 {
		c.ChallengeTimeout = defaultChallengeTimeout
	}
	if c.VerifyTimeout == 0 {
		c.VerifyTimeout = defaultVerifyTimeout
	}
}

// Transport is what the handshake needs from the connection layer.
type Transport interface {
	Send(env wire.Envelope) error
	WaitOpen(ctx context.Context, timeout time.Duration) error
}

// Handshake runs the login sequence. Safe for concurrent use; a second
// Authenticate call while one is in flight receives the in-flight result.
type Handshake struct {
	tr     Transport
	router *dispatch.Router
	cfg    Config
	log    zerolog.Logger

	mu       sync.Mutex
	inflight *flight
}

// flight is the shared pending-result handle backing the single-flight
// guarantee.
type flight struct {
	done   chan struct{}
	result domain.AuthResult
}

func New(tr Transport, router *dispatch.Router, cfg Config, log zerolog.Logger) *Handshake {
	cfg.applyDefaults()
	return &Handshake{
		tr:     tr,
		router: router,
		cfg:    cfg,
		log:    log.With().Str("component", "auth").Logger(),
	}
}

// session is the transient record of one handshake. It exists only for the
// duration of a single Authenticate call.
type session struct {
	state     State
	params    domain.AuthParams
	challenge string
}

func (s *session) to(next State, log zerolog.Logger) {
	log.Debug().Stringer("from", s.state).Stringer("to", next).Msg("handshake transition")
	s.state = next
}

// Authenticate runs the handshake and resolves with a result value; it never
// raises on protocol failure. The single-flight guard is released on every
// outcome before the next call may start a fresh handshake.
func (h *Handshake) Authenticate(ctx context.Context, params domain.AuthParams, signer domain.Signer) domain.AuthResult {
	h.mu.Lock()
	if f := h.inflight; f != nil {
		h.mu.Unlock()
		select {
		case <-f.done:
			return f.result
		case <-ctx.Done():
			return failure(ctx.Err().Error())
		}
	}
	f := &flight{done: make(chan struct{})}
	h.inflight = f
	h.mu.Unlock()

	result := h.run(ctx, params, signer)

	h.mu.Lock()
	f.result = result
	h.inflight = nil
	h.mu.Unlock()
	close(f.done)
	return result
}

type challengePayload struct {
	ChallengeMessage string `json:"challenge_message"`
}

type successPayload struct {
	SessionID string `json:"session_id"`
	Balances  []struct {
		Asset  string `json:"asset"`
		Amount string `json:"amount"`
	} `json:"balances"`
}

func (h *Handshake) run(ctx context.Context, params domain.AuthParams, signer domain.Signer) domain.AuthResult {
	s := &session{state: Idle, params: params}

	// Step 1: the link must be open before the request goes out.
	if err := h.tr.WaitOpen(ctx, h.cfg.ConnectTimeout); err != nil {
		return h.fail(s, "Connection timeout")
	}
	req, err := wire.NewRequest(methodAuthRequest, params)
	if err != nil {
		return h.fail(s, fmt.Sprintf("encoding auth request: %v", err))
	}
	if err := h.tr.Send(req); err != nil {
		return h.fail(s, fmt.Sprintf("sending auth request: %v", err))
	}
	s.to(RequestSent, h.log)

	// Step 2: wait for the relay's challenge.
	env, err := h.router.WaitFor(ctx, methodAuthChallenge, h.cfg.ChallengeTimeout)
	if err != nil {
		return h.fail(s, waitReason(err, methodAuthChallenge))
	}
	var ch challengePayload
	if err := json.Unmarshal(env.Payload, &ch); err != nil || ch.ChallengeMessage == "" {
		return h.fail(s, "Invalid challenge response")
	}
	s.challenge = ch.ChallengeMessage
	s.to(ChallengeReceived, h.log)

	// Step 3: sign the challenge with the wallet credential, bound to the
	// original request parameters.
	verification, err := signer.Sign(s.challenge, s.params)
	if err != nil {
		return h.fail(s, fmt.Sprintf("signing challenge: %v", err))
	}
	verify, err := wire.NewRequest(methodAuthVerify, verification)
	if err != nil {
		return h.fail(s, fmt.Sprintf("encoding verification: %v", err))
	}
	if err := h.tr.Send(verify); err != nil {
		return h.fail(s, fmt.Sprintf("sending verification: %v", err))
	}
	s.to(VerifySent, h.log)

	// Step 4: wait for confirmation and extract the session.
	env, err = h.router.WaitFor(ctx, methodAuthSuccess, h.cfg.VerifyTimeout)
	if err != nil {
		return h.fail(s, waitReason(err, methodAuthSuccess))
	}
	var succ successPayload
	if err := json.Unmarshal(env.Payload, &succ); err != nil {
		return h.fail(s, "Invalid auth response")
	}
	s.to(Authenticated, h.log)

	sessionID := succ.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	now := time.Now()
	balances := make([]domain.BalanceEntry, 0, len(succ.Balances))
	for _, b := range succ.Balances {
		balances = append(balances, domain.BalanceEntry{Asset: b.Asset, Amount: b.Amount, ObservedAt: now})
	}
	h.log.Info().Str("session_id", sessionID).Int("balances", len(balances)).Msg("authenticated")
	return domain.AuthResult{Success: true, SessionID: sessionID, Balances: balances}
}

func (h *Handshake) fail(s *session, reason string) domain.AuthResult {
	s.to(Failed, h.log)
	h.log.Warn().Str("reason", reason).Msg("handshake failed")
	return failure(reason)
}

func failure(reason string) domain.AuthResult {
	return domain.AuthResult{Success: false, Error: reason}
}

// waitReason renders a one-shot wait error as the user-visible reason.
func waitReason(err error, method string) string {
	if errors.Is(err, domain.ErrWaitTimeout) {
		return fmt.Sprintf("Timeout waiting for %s", method)
	}
	return err.Error()
}
