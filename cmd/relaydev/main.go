package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"payrail/internal/domain"
	"payrail/internal/wire"
)

type memoryStore struct {
	mu         sync.RWMutex
	balances   map[string]string
	challenges map[string]string // address -> outstanding challenge
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		balances:   map[string]string{"usd": "2500000"},
		challenges: make(map[string]string),
	}
}

type balanceFlags map[string]string

func (f balanceFlags) String() string { return "" }

func (f balanceFlags) Set(v string) error {
	asset, amount, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("want asset=amount, got %q", v)
	}
	f[asset] = amount
	return nil
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	seed := balanceFlags{}
	flag.Var(seed, "balance", "seed balance, asset=amount (repeatable)")
	flag.Parse()

	ms := newMemoryStore()
	for asset, amount := range seed {
		ms.balances[asset] = amount
	}

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		go serve(ms, conn)
	})

	log.Println("relay listening on", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}

func serve(ms *memoryStore, conn *websocket.Conn) {
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := wire.Decode(data)
		if err != nil || env.Kind != wire.KindRequest {
			continue
		}
		if err := handle(ms, conn, env); err != nil {
			log.Println("handle:", err)
			return
		}
	}
}

func handle(ms *memoryStore, conn *websocket.Conn, env wire.Envelope) error {
	switch env.Method {
	case "auth_request":
		var params domain.AuthParams
		if err := json.Unmarshal(env.Params, &params); err != nil {
			return reply(conn, env.RequestID, "error", map[string]string{"error": "bad auth_request"})
		}
		challenge := uuid.NewString()
		ms.mu.Lock()
		ms.challenges[params.Address] = challenge
		ms.mu.Unlock()
		log.Println("challenge issued for", params.Address)
		return reply(conn, env.RequestID, "auth_challenge", map[string]string{"challenge_message": challenge})

	case "auth_verify":
		var v domain.Verification
		if err := json.Unmarshal(env.Params, &v); err != nil {
			return reply(conn, env.RequestID, "error", map[string]string{"error": "bad auth_verify"})
		}
		ms.mu.Lock()
		want, ok := ms.challenges[v.Params.Address]
		delete(ms.challenges, v.Params.Address)
		ms.mu.Unlock()
		if !ok || want != v.Challenge {
			return reply(conn, env.RequestID, "error", map[string]string{"error": "challenge mismatch"})
		}
		log.Println("authenticated", v.Params.Address)
		if err := reply(conn, env.RequestID, "auth_success", successPayload(ms)); err != nil {
			return err
		}
		return pushBalances(ms, conn)

	case "get_balance":
		var q struct {
			Asset string `json:"asset"`
		}
		_ = json.Unmarshal(env.Params, &q)
		ms.mu.RLock()
		amount, ok := ms.balances[q.Asset]
		ms.mu.RUnlock()
		if !ok {
			amount = "0"
		}
		return reply(conn, env.RequestID, "get_balance", map[string]string{"balance": amount})

	default:
		return reply(conn, env.RequestID, "error", map[string]string{"error": "unknown method " + env.Method})
	}
}

func successPayload(ms *memoryStore) map[string]any {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	balances := make([]map[string]string, 0, len(ms.balances))
	for asset, amount := range ms.balances {
		balances = append(balances, map[string]string{"asset": asset, "amount": amount})
	}
	return map[string]any{"session_id": uuid.NewString(), "balances": balances}
}

// pushBalances sends one balance_update event per seeded asset.
func pushBalances(ms *memoryStore, conn *websocket.Conn) error {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	for asset, amount := range ms.balances {
		err := write(conn, wire.Envelope{
			Kind:      wire.KindResponse,
			RequestID: wire.NextID(),
			Method:    "balance_update",
			Payload:   mustJSON(map[string]string{"asset": asset, "amount": amount}),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func reply(conn *websocket.Conn, id uint64, method string, payload any) error {
	return write(conn, wire.Envelope{
		Kind:      wire.KindResponse,
		RequestID: id,
		Method:    method,
		Payload:   mustJSON(payload),
	})
}

func write(conn *websocket.Conn, env wire.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
