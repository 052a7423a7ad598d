package http

import (
	"context"
	"sync/atomic"
	"time"
)

// inFlight counts requests currently being served. Graceful shutdown drains
// it before flushing telemetry.
var inFlight atomic.Int64

func inFlightStarted()  { inFlight.Add(1) }
func inFlightFinished() { inFlight.Add(-1) }

// InFlightCount returns the current number of in-flight requests.
func InFlightCount() int64 {
	return inFlight.Load()
}

// WaitForInFlight blocks until the in-flight count reaches zero or ctx is
// done, re-checking every checkInterval.
func WaitForInFlight(ctx context.Context, checkInterval time.Duration) error {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		if InFlightCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
