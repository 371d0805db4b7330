package dispatch

import (
	"context"
	"sync"
	"time"

	"payrail/internal/domain"
	"payrail/internal/wire"
)

// WaitFor resolves with the next message whose routing key equals key, or
// fails with domain.ErrWaitTimeout after timeout. The internal listener is
// removed exactly once on every path, including context cancellation.
func (r *Router) WaitFor(ctx context.Context, key string, timeout time.Duration) (wire.Envelope, error) {
	ch := make(chan wire.Envelope, 1)
	var once sync.Once
	sub := r.On(key, func(env wire.Envelope) {
		once.Do(func() { ch <- env })
	})
	defer r.Off(sub)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case env := <-ch:
		return env, nil
	case <-timer.C:
		return wire.Envelope{}, domain.ErrWaitTimeout
	case <-ctx.Done():
		return wire.Envelope{}, ctx.Err()
	}
}

// WaitForID resolves with the response envelope carrying the given request
// id. Used for pull-style request/response pairs where several requests of
// the same method may be in flight at once.
func (r *Router) WaitForID(ctx context.Context, id uint64, timeout time.Duration) (wire.Envelope, error) {
	ch, err := r.registerCorrelated(id)
	if err != nil {
		return wire.Envelope{}, err
	}
	defer r.dropCorrelated(id)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case env := <-ch:
		return env, nil
	case <-timer.C:
		return wire.Envelope{}, domain.ErrWaitTimeout
	case <-ctx.Done():
		return wire.Envelope{}, ctx.Err()
	}
}
