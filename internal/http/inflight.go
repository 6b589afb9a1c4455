package http

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// inFlight counts requests being served and remembers the peak since start.
type inFlight struct {
	active atomic.Int64
	peak   atomic.Int64
}

// begin registers a request and returns the func that releases it. The
// release func is safe to call more than once.
func (f *inFlight) begin() func() {
	n := f.active.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return sync.OnceFunc(func() { f.active.Add(-1) })
}

// drain polls every interval until no request is active or ctx is done.
func (f *inFlight) drain(ctx context.Context, every time.Duration) error {
	if f.active.Load() == 0 {
		return nil
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if f.active.Load() == 0 {
				return nil
			}
		}
	}
}

// requestsInFlight is maintained by MetricsMiddleware.
var requestsInFlight = &inFlight{}

// InFlightCount returns the number of requests being served.
func InFlightCount() int64 { return requestsInFlight.active.Load() }

// PeakInFlight returns the highest concurrent request count seen.
func PeakInFlight() int64 { return requestsInFlight.peak.Load() }

// WaitForInFlight blocks until in-flight requests reach zero or ctx is done.
func WaitForInFlight(ctx context.Context, every time.Duration) error {
	return requestsInFlight.drain(ctx, every)
}
