package admingate

import (
	"context"
	"sync"
	"time"
)

// StartRevalidation launches the background poll that re-runs the admin
// check every Poll.Interval so revoked roles and expired sessions are
// noticed without waiting for the next caller. The returned stop function
// is idempotent; cancelling ctx also stops the poll.
func (a *Authority) StartRevalidation(ctx context.Context) (stop func()) {
	if a == nil {
		return func() {}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	done := make(chan struct{})
	var once sync.Once
	stop = func() {
		once.Do(func() { close(done) })
	}

	go func() {
		ticker := time.NewTicker(a.config.Poll.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				a.IsAdmin(ctx)
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	return stop
}
