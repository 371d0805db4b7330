package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"payrail/internal/dispatch"
	"payrail/internal/domain"
	"payrail/internal/wire"
)

// State is the connection lifecycle state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Open
	Closing
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "invalid"
	}
}

// Socket is the subset of *websocket.Conn the transport needs. Tests inject
// fakes through Config.Dial.
type Socket interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// DialFunc opens one connection attempt to the relay.
type DialFunc func(ctx context.Context) (Socket, error)

const (
	defaultDialTimeout = 5 * time.Second
	defaultBackoffBase = 1 * time.Second
	defaultBackoffCap  = 30 * time.Second
	defaultMaxAttempts = 10
	defaultQueueLimit  = 256
)

// Config tunes the transport. Zero values take the defaults above.
type Config struct {
	URL         string
	Dial        DialFunc // optional; defaults to a gorilla dialer against URL
	DialTimeout time.Duration
	BackoffBase time.Duration
	BackoffCap  time.Duration
	MaxAttempts int
	QueueLimit  int

	// OnStatus receives terminal transport failures, currently only
	// domain.ErrMaxReconnectAttempts. Optional.
	OnStatus func(err error)
}

func (c *Config) applyDefaults() {
	if c.DialTimeout == 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = defaultBackoffBase
	}
	if c.BackoffCap == 0 {
		c.BackoffCap = defaultBackoffCap
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.QueueLimit == 0 {
		c.QueueLimit = defaultQueueLimit
	}
	if c.Dial == nil {
		url := c.URL
		timeout := c.DialTimeout
		c.Dial = func(ctx context.Context) (Socket, error) {
			d := websocket.Dialer{HandshakeTimeout: timeout}
			sock, _, err := d.DialContext(ctx, url, nil)
			if err != nil {
				return nil, err
			}
			return sock, nil
		}
	}
}

// Conn is the shared relay connection. All exported methods are safe for
// concurrent use.
type Conn struct {
	cfg    Config
	router *dispatch.Router
	log    zerolog.Logger

	mu          sync.Mutex
	state       State
	sock        Socket
	queue       [][]byte
	attempts    int
	retryTimer  *time.Timer
	openWaiters []chan struct{}
	gen         uint64 // bumped on every teardown; guards stale pumps and timers

	writeMu sync.Mutex
}

func New(cfg Config, router *dispatch.Router, log zerolog.Logger) *Conn {
	cfg.applyDefaults()
	return &Conn{
		cfg:    cfg,
		router: router,
		log: log.With().
			Str("component", "transport").
			Str("conn_id", uuid.NewString()).
			Logger(),
	}
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens the connection if it is not already open or opening.
// Idempotent; the dial happens on a background goroutine.
func (c *Conn) Connect() {
	c.mu.Lock()
	if c.state == Open || c.state == Connecting {
		c.mu.Unlock()
		return
	}
	c.state = Connecting
	gen := c.gen
	c.mu.Unlock()

	go c.dial(gen)
}

func (c *Conn) dial(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.DialTimeout)
	defer cancel()

	sock, err := c.cfg.Dial(ctx)

	c.mu.Lock()
	if c.gen != gen || c.state != Connecting {
		// Disconnected while dialing; drop the result.
		c.mu.Unlock()
		if sock != nil {
			sock.Close()
		}
		return
	}
	if err != nil {
		c.state = Disconnected
		c.log.Warn().Err(err).Msg("dial failed")
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return
	}
	c.sock = sock
	c.state = Open
	c.attempts = 0
	pending := c.queue
	c.queue = nil
	waiters := c.openWaiters
	c.openWaiters = nil
	c.mu.Unlock()

	c.log.Debug().Int("queued", len(pending)).Msg("connection open")
	for _, w := range waiters {
		close(w)
	}
	go c.readPump(sock, gen)
	c.flush(pending)
}

// flush transmits frames queued while the link was down, in FIFO order.
// Holding writeMu for the whole pass keeps newly issued sends behind the
// backlog. Aborts on the first state change, leaving the remainder queued.
func (c *Conn) flush(pending [][]byte) {
	if len(pending) == 0 {
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	for i, frame := range pending {
		c.mu.Lock()
		open := c.state == Open
		sock := c.sock
		c.mu.Unlock()
		if !open {
			c.requeue(pending[i:])
			return
		}
		if err := sock.WriteMessage(websocket.TextMessage, frame); err != nil {
			c.log.Warn().Err(err).Msg("flush write failed")
			c.requeue(pending[i:])
			return
		}
	}
}

func (c *Conn) requeue(rem [][]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(append(make([][]byte, 0, len(rem)+len(c.queue)), rem...), c.queue...)
}

// Send transmits env immediately when the connection is open; otherwise the
// frame joins the outbound queue and a connect is triggered if one is not
// already underway. Returns domain.ErrQueueFull when the queue is at
// capacity.
func (c *Conn) Send(env wire.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.state == Open {
		sock := c.sock
		c.mu.Unlock()
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		return sock.WriteMessage(websocket.TextMessage, data)
	}
	if len(c.queue) >= c.cfg.QueueLimit {
		c.mu.Unlock()
		return domain.ErrQueueFull
	}
	c.queue = append(c.queue, data)
	needConnect := c.state == Disconnected
	c.mu.Unlock()

	if needConnect {
		c.Connect()
	}
	return nil
}

// WaitOpen blocks until the connection is open, the timeout elapses
// (domain.ErrConnectionTimeout) or ctx is cancelled. Triggers a connect if
// none is underway.
func (c *Conn) WaitOpen(ctx context.Context, timeout time.Duration) error {
	c.mu.Lock()
	if c.state == Open {
		c.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	c.openWaiters = append(c.openWaiters, ch)
	needConnect := c.state == Disconnected
	c.mu.Unlock()

	if needConnect {
		c.Connect()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return nil
	case <-timer.C:
		return domain.ErrConnectionTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) readPump(sock Socket, gen uint64) {
	for {
		_, data, err := sock.ReadMessage()
		if err != nil {
			c.handleClose(gen, err)
			return
		}
		env, derr := wire.Decode(data)
		if derr != nil {
			// Still fanned out, under the "unknown" routing key.
			c.log.Warn().Err(derr).Msg("unparseable inbound message")
			env = wire.Envelope{}
		}
		c.router.Dispatch(env)
	}
}

func (c *Conn) handleClose(gen uint64, err error) {
	c.mu.Lock()
	if c.gen != gen {
		// A newer connection superseded this pump.
		c.mu.Unlock()
		return
	}
	c.log.Warn().Err(err).Msg("connection lost")
	if c.sock != nil {
		c.sock.Close()
		c.sock = nil
	}
	c.state = Disconnected
	c.gen++
	c.scheduleReconnectLocked()
	c.mu.Unlock()
}

// scheduleReconnectLocked arms the backoff timer for the next attempt:
// delay(n) = min(base * 2^n, cap). After MaxAttempts the transport stays
// down and reports terminal failure. Caller holds c.mu.
func (c *Conn) scheduleReconnectLocked() {
	c.attempts++
	if c.attempts > c.cfg.MaxAttempts {
		c.log.Error().Int("attempts", c.attempts-1).Msg("giving up on reconnect")
		if c.cfg.OnStatus != nil {
			go c.cfg.OnStatus(domain.ErrMaxReconnectAttempts)
		}
		return
	}
	delay := ReconnectDelay(c.attempts, c.cfg.BackoffBase, c.cfg.BackoffCap)
	gen := c.gen
	c.log.Debug().Int("attempt", c.attempts).Dur("delay", delay).Msg("reconnect scheduled")
	c.retryTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		if c.gen != gen || c.state != Disconnected {
			c.mu.Unlock()
			return
		}
		c.state = Connecting
		c.mu.Unlock()
		c.dial(gen)
	})
}

// ReconnectDelay computes the capped exponential backoff for attempt n >= 1.
func ReconnectDelay(n int, base, capDelay time.Duration) time.Duration {
	d := base
	for i := 0; i < n; i++ {
		d *= 2
		if d >= capDelay {
			return capDelay
		}
	}
	return d
}

// Disconnect is a hard reset: cancel any pending reconnect, close the
// socket, drop the outbound queue, zero the attempt counter.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	if c.sock != nil {
		c.state = Closing
		c.sock.Close()
		c.sock = nil
	}
	c.state = Disconnected
	c.queue = nil
	c.attempts = 0
	c.gen++
}
