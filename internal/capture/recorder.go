package capture

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wavecap/internal/models"
	"github.com/desertthunder/wavecap/internal/shared"
)

// Recorder is the process-based capture strategy: it spawns a recording
// subprocess (ffmpeg by default) against the channel's live transport and
// lets the subprocess own the temporary file. Completion is process exit;
// the duration flag bounds the recording with a one second buffer for
// timing drift.
type Recorder struct {
	binary    string
	streamURL string
	logger    *log.Logger
}

// NewRecorder creates a process-based capture driver.
//
// streamURL may contain a "{channel}" placeholder substituted with the
// job's channel key at start time.
func NewRecorder(binary, streamURL string, logger *log.Logger) *Recorder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Recorder{binary: binary, streamURL: streamURL, logger: logger}
}

func (r *Recorder) Strategy() models.CaptureStrategy {
	return models.StrategyRecord
}

// Start spawns the recording subprocess bounded to bound+1s.
func (r *Recorder) Start(ctx context.Context, job *models.CaptureJob, bound time.Duration) (Handle, error) {
	streamURL := strings.ReplaceAll(r.streamURL, "{channel}", job.Channel.Key)

	args := []string{
		"-y",
		"-i", streamURL,
		"-vn",
		"-acodec", "copy",
		"-t", strconv.Itoa(int(bound.Seconds()) + 1),
		job.TempPath,
	}

	cmd := exec.Command(r.binary, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: failed to start %s: %v", shared.ErrCaptureFailed, r.binary, err)
	}

	h := &processHandle{
		cmd:      cmd,
		tempPath: job.TempPath,
		done:     make(chan struct{}),
	}

	go h.wait()
	go h.watchdog(ctx, bound+overrunMargin)

	r.logger.Debug("recording started", "pid", cmd.Process.Pid, "bound", bound, "file", job.TempPath)
	return h, nil
}

// processHandle owns one recording subprocess.
type processHandle struct {
	cmd      *exec.Cmd
	tempPath string
	done     chan struct{}

	mu       sync.Mutex
	err      error
	overrun  bool
	killed   bool
	finished bool
}

// wait reaps the subprocess and resolves the capture outcome.
func (h *processHandle) wait() {
	err := h.cmd.Wait()

	h.mu.Lock()
	h.finished = true
	switch {
	case h.overrun:
		h.err = fmt.Errorf("%w: recording exceeded its bound and was killed", shared.ErrCaptureFailed)
	case h.killed:
		// Terminated on purpose at a track boundary; the partial file is
		// still publishable.
		h.err = nil
	case err != nil:
		h.err = fmt.Errorf("%w: %v", shared.ErrCaptureFailed, err)
	}
	h.mu.Unlock()

	close(h.done)
}

// watchdog fails the capture if the subprocess outlives bound+margin.
func (h *processHandle) watchdog(ctx context.Context, limit time.Duration) {
	t := time.NewTimer(limit)
	defer t.Stop()
	select {
	case <-h.done:
	case <-ctx.Done():
		h.Terminate(2 * time.Second)
	case <-t.C:
		h.mu.Lock()
		h.overrun = true
		h.mu.Unlock()
		h.Terminate(2 * time.Second)
	}
}

func (h *processHandle) Done() <-chan struct{} { return h.done }

func (h *processHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Terminate signals the subprocess and escalates to SIGKILL when it does not
// exit within the grace period, polling liveness at a short cadence.
func (h *processHandle) Terminate(grace time.Duration) bool {
	h.mu.Lock()
	if h.finished {
		h.mu.Unlock()
		return true
	}
	h.killed = true
	h.mu.Unlock()

	_ = h.cmd.Process.Signal(syscall.SIGTERM)

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		select {
		case <-h.done:
			return true
		case <-time.After(100 * time.Millisecond):
		}
	}

	_ = h.cmd.Process.Kill()
	<-h.done
	return false
}

func (h *processHandle) WaitFile(timeout time.Duration) error {
	if err := waitForFile(h.tempPath, timeout); err != nil {
		return fmt.Errorf("%w: temp file never appeared: %s", shared.ErrCaptureFailed, h.tempPath)
	}
	return nil
}
