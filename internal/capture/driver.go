// package capture implements the continuous track-capture engine.
//
// The core abstraction is a per-channel Scheduler: an explicit state machine
// that polls the metadata feed, decides whether the current track should be
// captured, drives one of two capture strategies, and publishes finished
// files atomically through a per-channel Ledger. A Supervisor runs one
// scheduler per configured channel concurrently.
package capture

import (
	"context"
	"os"
	"time"

	"github.com/desertthunder/wavecap/internal/models"
)

// Driver executes one capture strategy for one track. Implementations write
// to the job's temporary path and report completion through the Handle.
type Driver interface {
	// Start begins capturing the job's track, bounded by the given playback
	// duration. The returned Handle owns the in-flight capture.
	Start(ctx context.Context, job *models.CaptureJob, bound time.Duration) (Handle, error)

	// Strategy returns the strategy this driver implements.
	Strategy() models.CaptureStrategy
}

// Handle tracks one in-flight capture.
type Handle interface {
	// Done is closed when the capture finishes, successfully or not.
	Done() <-chan struct{}

	// Err returns the capture outcome. Only valid after Done is closed.
	Err() error

	// Terminate stops the capture, gracefully first and then forcefully once
	// the grace period runs out. Reports whether the capture stopped
	// gracefully. Safe to call on an already-finished capture.
	Terminate(grace time.Duration) bool

	// WaitFile blocks until the temporary file exists on disk or the timeout
	// elapses. Recording pipelines may flush asynchronously, so a finished
	// process does not guarantee the file is visible yet.
	WaitFile(timeout time.Duration) error
}

// overrunMargin is the slack a capture gets past its bound before it is
// assumed stuck and failed.
const overrunMargin = 10 * time.Second

// waitForFile polls for path until it exists or the timeout elapses.
func waitForFile(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return os.ErrNotExist
		}
		time.Sleep(100 * time.Millisecond)
	}
}
