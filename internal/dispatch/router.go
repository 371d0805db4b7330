package dispatch

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"payrail/internal/wire"
)

// Any subscribes a handler to every inbound message regardless of key.
const Any = "*"

// Handler consumes one inbound envelope. Handlers run on the transport's
// read loop; long work should be handed off to another goroutine.
type Handler func(env wire.Envelope)

// Subscription identifies one registered handler so it can be removed later.
type Subscription struct {
	key     string
	handler Handler
}

// Router is the listener registry. All methods are safe for concurrent use;
// no lock is held while handlers run.
type Router struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
	corr map[uint64]chan wire.Envelope
	log  zerolog.Logger
}

func NewRouter(log zerolog.Logger) *Router {
	return &Router{
		subs: make(map[string]map[*Subscription]struct{}),
		corr: make(map[uint64]chan wire.Envelope),
		log:  log.With().Str("component", "dispatch").Logger(),
	}
}

// On registers handler for key and returns its subscription handle.
func (r *Router) On(key string, handler Handler) *Subscription {
	sub := &Subscription{key: key, handler: handler}
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.subs[key]
	if !ok {
		set = make(map[*Subscription]struct{})
		r.subs[key] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Off removes a subscription. Removing nil or an already-removed
// subscription is a no-op.
func (r *Router) Off(sub *Subscription) {
	if sub == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.subs[sub.key]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(r.subs, sub.key)
		}
	}
}

// Dispatch fans env out to every handler registered for its routing key and
// for Any, then resolves a pending correlated wait if the envelope is a
// response carrying a waited-on request id. A panic in one handler is logged
// and does not stop the remaining handlers.
func (r *Router) Dispatch(env wire.Envelope) {
	key := env.RoutingKey()

	r.mu.Lock()
	handlers := make([]Handler, 0, 4)
	for _, k := range [...]string{key, Any} {
		for sub := range r.subs[k] {
			handlers = append(handlers, sub.handler)
		}
	}
	var waiter chan wire.Envelope
	if env.Kind == wire.KindResponse {
		if ch, ok := r.corr[env.RequestID]; ok {
			waiter = ch
			delete(r.corr, env.RequestID)
		}
	}
	r.mu.Unlock()

	for _, h := range handlers {
		r.invoke(key, h, env)
	}
	if waiter != nil {
		waiter <- env
	}
}

func (r *Router) invoke(key string, h Handler, env wire.Envelope) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error().Str("key", key).Interface("panic", v).Msg("handler panicked")
		}
	}()
	h(env)
}

func (r *Router) registerCorrelated(id uint64) (chan wire.Envelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.corr[id]; ok {
		return nil, fmt.Errorf("dispatch: wait already pending for id %d", id)
	}
	ch := make(chan wire.Envelope, 1)
	r.corr[id] = ch
	return ch, nil
}

func (r *Router) dropCorrelated(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.corr, id)
}
