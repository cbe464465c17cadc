package utils

import (
	"context"
	"time"
)

// AfterFunc schedules fn after delay, abandoning it if ctx is cancelled
// first. The returned timer can be stopped by the caller as well.
func AfterFunc(ctx context.Context, delay time.Duration, fn func()) *time.Timer {
	timer := time.AfterFunc(delay, fn)
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-time.After(delay):
			}
		}()
	}
	return timer
}
