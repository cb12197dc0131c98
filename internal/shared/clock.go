package shared

import (
	"context"
	"time"
)

// Clock abstracts wall-clock reads and sleeps so the capture scheduler's
// timing policy can be tested without real waiting.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is canceled, whichever comes first.
	Sleep(ctx context.Context, d time.Duration)
}

// SystemClock is the real [Clock] backed by the time package.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
