package services

import (
	"context"
	"time"
)

// Delayer schedules the pauses between narration messages. The pacing is
// a product-visible ordering contract, so it sits behind a port: the
// production implementation uses a timer that suspends only the calling
// flow, tests inject an instant one.
type Delayer interface {
	Wait(ctx context.Context, d time.Duration) error
}

// TimerDelayer waits on a timer, honoring context cancellation.
type TimerDelayer struct{}

func (TimerDelayer) Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
